// Package models defines the core domain models for the survey API.
//
// # Models
//
//   - User: a registered account that can create surveys
//   - Survey: a named, ordered collection of questions attributed to a creator
//   - Question: a prompt belonging to one survey, with ordered choices
//   - Choice: an answer option for a question, tracking how often it was selected
//
// The models double as the JSON wire format. Relationships are expressed with
// integer IDs (SurveyID, QuestionID, CreatorID) rather than back-pointers, so a
// Survey can be serialized as a plain tree.
//
// Request payloads accepted by the HTTP API live in requests.go and carry
// go-playground/validator tags; they are validated before any model is built.
package models
