package models

// Request types

type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,max=72"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type CreateSurveyRequest struct {
	Name      string                  `json:"name" validate:"required,notblank,max=200"`
	Questions []CreateQuestionRequest `json:"questions" validate:"required,min=1,dive"`
}

type CreateQuestionRequest struct {
	Question string   `json:"question" validate:"required,notblank,max=500"`
	Choices  []string `json:"choices" validate:"required,min=1,dive,required,notblank,max=100"`
}

// RecordSelectionsRequest is what a respondent submits for a survey.
// Clients send back the whole survey, so unanswered questions carry a
// null choice and are skipped.
type RecordSelectionsRequest struct {
	ID        *int64           `json:"id"`
	Questions []SelectionEntry `json:"questions" validate:"required,min=1,dive"`
}

type SelectionEntry struct {
	Choice *int64 `json:"choice" validate:"omitempty,gt=0"`
}

// ChoiceIDs returns the selected choice IDs in submission order.
func (r RecordSelectionsRequest) ChoiceIDs() []int64 {
	ids := make([]int64, 0, len(r.Questions))
	for _, q := range r.Questions {
		if q.Choice != nil {
			ids = append(ids, *q.Choice)
		}
	}
	return ids
}

// Response types

type LoginResponse struct {
	Token string `json:"token"`
}

type ErrorResponse struct {
	Error   string `json:"error,omitempty"`
	Message string `json:"message"`
}

// AuthErrorResponse is returned for every 401.
type AuthErrorResponse struct {
	Authenticated bool   `json:"authenticated"`
	Reason        string `json:"reason,omitempty"`
	Message       string `json:"message"`
}

type HealthResponse struct {
	Status string `json:"status"`
}
