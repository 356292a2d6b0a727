package service

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/mmynk/surveyapi/internal/metrics"
	"github.com/mmynk/surveyapi/internal/middleware"
	"github.com/mmynk/surveyapi/internal/models"
	"github.com/mmynk/surveyapi/internal/storage"
)

// SurveyService serves the survey endpoints.
type SurveyService struct {
	store   storage.Store
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewSurveyService creates a SurveyService with the given storage backend.
func NewSurveyService(store storage.Store, m *metrics.Metrics, logger *slog.Logger) *SurveyService {
	return &SurveyService{store: store, metrics: m, logger: logger}
}

// ListSurveys handles GET /api/surveys/
func (s *SurveyService) ListSurveys(w http.ResponseWriter, r *http.Request) {
	surveys, err := s.store.ListSurveys(r.Context())
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, surveys)
}

// GetSurvey handles GET /api/surveys/{id}/
func (s *SurveyService) GetSurvey(w http.ResponseWriter, r *http.Request) {
	id, err := surveyID(r)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}

	survey, err := s.store.GetSurvey(r.Context(), id)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, survey)
}

// CreateSurvey handles POST /api/surveys/. Requires RequireAuth.
func (s *SurveyService) CreateSurvey(w http.ResponseWriter, r *http.Request) {
	creator := middleware.GetUser(r.Context())
	if creator == nil {
		middleware.AuthErrorResponse(w, "missing", "authentication required")
		return
	}

	var req models.CreateSurveyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, s.logger, err)
		return
	}

	survey := models.NewSurvey(req, creator.ID)
	if err := s.store.CreateSurvey(r.Context(), survey); err != nil {
		writeError(w, r, s.logger, err)
		return
	}

	s.metrics.SurveysCreated.Inc()
	s.logger.Info("Survey created",
		"survey_id", survey.ID,
		"creator_id", creator.ID,
		"questions_count", len(survey.Questions),
	)
	middleware.JSONResponse(w, http.StatusCreated, survey)
}

// RecordSelections handles PUT /api/surveys/{id}/: each answered question's
// choice is incremented, then the updated survey is returned.
func (s *SurveyService) RecordSelections(w http.ResponseWriter, r *http.Request) {
	id, err := surveyID(r)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}

	var req models.RecordSelectionsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	if req.ID != nil && *req.ID != id {
		writeError(w, r, s.logger, badRequest("body id %d does not match survey %d", *req.ID, id))
		return
	}

	choiceIDs := req.ChoiceIDs()
	if err := s.store.RecordSelections(r.Context(), id, choiceIDs); err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	s.metrics.Selections.Add(float64(len(choiceIDs)))

	survey, err := s.store.GetSurvey(r.Context(), id)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}

	s.logger.Info("Selections recorded", "survey_id", id, "selections", len(choiceIDs))
	middleware.JSONResponse(w, http.StatusCreated, survey)
}

func surveyID(r *http.Request) (int64, error) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, badRequest("invalid survey id %q", raw)
	}
	return id, nil
}
