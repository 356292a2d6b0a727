package models

// Survey is the top-level object containing one or more questions
// along with their choices.
type Survey struct {
	// ID is the database-assigned identifier.
	ID int64 `json:"id"`

	// Name is the survey title shown to respondents.
	Name string `json:"name"`

	// CreatedAt is when the survey was created.
	CreatedAt Timestamp `json:"created_at"`

	// CreatorID references the User who created the survey.
	// Not part of the serialized form.
	CreatorID int64 `json:"-"`

	// Questions are kept in insertion order.
	Questions []*Question `json:"questions"`
}

// Question belongs to exactly one survey and holds its choices.
type Question struct {
	ID        int64     `json:"id"`
	Text      string    `json:"text"`
	CreatedAt Timestamp `json:"created_at"`
	SurveyID  int64     `json:"survey_id"`

	// Choices are kept in insertion order.
	Choices []*Choice `json:"choices"`
}

// Choice is an answer option for a question.
type Choice struct {
	ID   int64  `json:"id"`
	Text string `json:"text"`

	// Selected is the number of times this choice was picked.
	Selected int `json:"selected"`

	CreatedAt  Timestamp `json:"created_at"`
	QuestionID int64     `json:"question_id"`
}

// NewSurvey builds an unsaved survey tree from a validated creation request.
// IDs, foreign keys and timestamps are assigned by the store.
func NewSurvey(req CreateSurveyRequest, creatorID int64) *Survey {
	survey := &Survey{
		Name:      req.Name,
		CreatorID: creatorID,
		Questions: make([]*Question, 0, len(req.Questions)),
	}
	for _, q := range req.Questions {
		question := &Question{
			Text:    q.Question,
			Choices: make([]*Choice, 0, len(q.Choices)),
		}
		for _, text := range q.Choices {
			question.Choices = append(question.Choices, &Choice{Text: text})
		}
		survey.Questions = append(survey.Questions, question)
	}
	return survey
}

// Choice looks up a choice anywhere in the survey by ID, or returns nil.
// Handlers work on IDs; this is for Go clients reading API responses.
func (s *Survey) Choice(id int64) *Choice {
	for _, q := range s.Questions {
		for _, c := range q.Choices {
			if c.ID == id {
				return c
			}
		}
	}
	return nil
}
