package models

import (
	"encoding/json"
	"testing"
	"time"
)

func TestNewSurvey(t *testing.T) {
	req := CreateSurveyRequest{
		Name: "Lunch",
		Questions: []CreateQuestionRequest{
			{Question: "Pizza?", Choices: []string{"Yes", "No"}},
			{Question: "Drink?", Choices: []string{"Water", "Soda", "Juice"}},
		},
	}

	survey := NewSurvey(req, 7)

	if survey.Name != "Lunch" {
		t.Errorf("name: got %q, want %q", survey.Name, "Lunch")
	}
	if survey.CreatorID != 7 {
		t.Errorf("creator: got %d, want 7", survey.CreatorID)
	}
	if len(survey.Questions) != 2 {
		t.Fatalf("questions: got %d, want 2", len(survey.Questions))
	}
	for i, q := range req.Questions {
		got := survey.Questions[i]
		if got.Text != q.Question {
			t.Errorf("question %d text: got %q, want %q", i, got.Text, q.Question)
		}
		if len(got.Choices) != len(q.Choices) {
			t.Fatalf("question %d choices: got %d, want %d", i, len(got.Choices), len(q.Choices))
		}
		for j, c := range got.Choices {
			if c.Text != q.Choices[j] {
				t.Errorf("choice %d/%d: got %q, want %q", i, j, c.Text, q.Choices[j])
			}
			if c.Selected != 0 {
				t.Errorf("choice %d/%d selected: got %d, want 0", i, j, c.Selected)
			}
		}
	}
}

func TestSurveyJSONShape(t *testing.T) {
	created := NewTimestamp(time.Date(2024, 3, 9, 14, 5, 7, 999, time.UTC))
	survey := &Survey{
		ID:        1,
		Name:      "Dogs",
		CreatedAt: created,
		CreatorID: 3,
		Questions: []*Question{{
			ID:        2,
			Text:      "Favorite?",
			CreatedAt: created,
			SurveyID:  1,
			Choices: []*Choice{{
				ID: 5, Text: "Beagle", Selected: 4, CreatedAt: created, QuestionID: 2,
			}},
		}},
	}

	data, err := json.Marshal(survey)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	want := `{"id":1,"name":"Dogs","created_at":"2024-03-09 14:05:07","questions":[` +
		`{"id":2,"text":"Favorite?","created_at":"2024-03-09 14:05:07","survey_id":1,"choices":[` +
		`{"id":5,"text":"Beagle","selected":4,"created_at":"2024-03-09 14:05:07","question_id":2}]}]}`
	if string(data) != want {
		t.Errorf("unexpected JSON:\n got: %s\nwant: %s", data, want)
	}

	var decoded Survey
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.ID != survey.ID || decoded.Name != survey.Name {
		t.Errorf("decoded survey mismatch: %+v", decoded)
	}
	if !decoded.CreatedAt.Time().Equal(created.Time()) {
		t.Errorf("created_at: got %v, want %v", decoded.CreatedAt, created)
	}
	if decoded.Questions[0].Choices[0].Text != "Beagle" {
		t.Errorf("choice text lost in round trip")
	}
}

func TestUserHidesPasswordHash(t *testing.T) {
	user := NewUser("a@x.com", "$2a$10$hash")
	data, err := json.Marshal(user)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, ok := fields["password_hash"]; ok {
		t.Error("password hash must not be serialized")
	}
	if _, ok := fields["PasswordHash"]; ok {
		t.Error("password hash must not be serialized")
	}
	if fields["email"] != "a@x.com" {
		t.Errorf("email: got %v", fields["email"])
	}
}

func TestChoiceIDsSkipsUnanswered(t *testing.T) {
	one, three := int64(1), int64(3)
	req := RecordSelectionsRequest{Questions: []SelectionEntry{
		{Choice: &one}, {Choice: nil}, {Choice: &three},
	}}
	ids := req.ChoiceIDs()
	if len(ids) != 2 || ids[0] != 1 || ids[1] != 3 {
		t.Errorf("ChoiceIDs() = %v, want [1 3]", ids)
	}
}

func TestTimestampUnmarshalRejectsBadInput(t *testing.T) {
	var ts Timestamp
	for _, in := range []string{`"2024-03-09T14:05:07Z"`, `12`, `"yesterday"`} {
		if err := json.Unmarshal([]byte(in), &ts); err == nil {
			t.Errorf("expected error for %s", in)
		}
	}
}
