package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/lingvo-hub/lingvo-hub/internal/application/command"
	"github.com/lingvo-hub/lingvo-hub/internal/application/query"
	"github.com/lingvo-hub/lingvo-hub/internal/domain/curriculum"
	"github.com/lingvo-hub/lingvo-hub/internal/domain/progress"
	"github.com/lingvo-hub/lingvo-hub/internal/domain/shared"
	"github.com/lingvo-hub/lingvo-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := s.deps.HealthChecker.Check(r.Context())
	if !status.Healthy {
		writeJSON(w, r, http.StatusServiceUnavailable, status, nil)
		return
	}
	writeJSON(w, r, http.StatusOK, status, nil)
}

// ══════════════════════════════════════════════════════════════════════════════
// LEARNER HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// PlacementRequest is the body of POST .../placement.
type PlacementRequest struct {
	DisplayName string `json:"displayName"`
	Correct     int    `json:"correct"`
	Total       int    `json:"total"`
}

// PlacementResponse is returned after a placement test.
type PlacementResponse struct {
	LearnerID      string             `json:"learnerId"`
	Level          curriculum.Level   `json:"level"`
	UnlockedLevels []curriculum.Level `json:"unlockedLevels"`
	Streak         int                `json:"streak"`
}

func (s *Server) handleCompletePlacement(w http.ResponseWriter, r *http.Request) {
	var req PlacementRequest
	if !decodeBody(w, r, &req) {
		return
	}

	res, err := s.deps.CompletePlacement.Handle(r.Context(), command.CompletePlacementCommand{
		LearnerID:      r.PathValue("id"),
		DisplayName:    req.DisplayName,
		CorrectAnswers: req.Correct,
		TotalQuestions: req.Total,
		CorrelationID:  getRequestID(r.Context()),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusCreated, PlacementResponse{
		LearnerID:      res.Learner.ID,
		Level:          res.Level,
		UnlockedLevels: res.Learner.UnlockedLevels,
		Streak:         res.Progress.Streak,
	}, nil)
}

func (s *Server) handleGetProgress(w http.ResponseWriter, r *http.Request) {
	p, err := s.deps.GetProgress.Handle(r.Context(), query.GetProgressQuery{LearnerID: r.PathValue("id")})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, p, nil)
}

func (s *Server) handleGetDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := s.deps.GetDashboard.Handle(r.Context(), query.GetDashboardQuery{LearnerID: r.PathValue("id")})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, d, nil)
}

// CompleteLessonRequest is the body of POST .../lessons/{lessonID}/complete.
type CompleteLessonRequest struct {
	Results []progress.ExerciseResult `json:"results"`
}

// CompleteLessonResponse summarizes a lesson completion.
type CompleteLessonResponse struct {
	LessonID        curriculum.LessonID      `json:"lessonId"`
	Score           progress.LessonScore     `json:"score"`
	FirstTime       bool                     `json:"firstTime"`
	PointsEarned    int                      `json:"pointsEarned"`
	Points          int                      `json:"points"`
	Streak          int                      `json:"streak"`
	LevelProgress   int                      `json:"levelProgress"`
	NewAchievements []progress.Achievement   `json:"newAchievements"`
	Certificate     *progress.CompletedLevel `json:"certificate,omitempty"`
	UnlockedLevel   curriculum.Level         `json:"unlockedLevel,omitempty"`
	Version         int64                    `json:"version"`
}

func (s *Server) handleCompleteLesson(w http.ResponseWriter, r *http.Request) {
	var req CompleteLessonRequest
	if !decodeBody(w, r, &req) {
		return
	}

	res, err := s.deps.CompleteLesson.Handle(r.Context(), command.CompleteLessonCommand{
		LearnerID:     r.PathValue("id"),
		LessonID:      curriculum.LessonID(r.PathValue("lessonID")),
		Results:       req.Results,
		CorrelationID: getRequestID(r.Context()),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	achievements := res.NewAchievements
	if achievements == nil {
		achievements = []progress.Achievement{}
	}
	writeJSON(w, r, http.StatusOK, CompleteLessonResponse{
		LessonID:        res.Lesson.ID,
		Score:           res.Score,
		FirstTime:       res.FirstTime,
		PointsEarned:    res.PointsEarned,
		Points:          res.Progress.Points,
		Streak:          res.Progress.Streak,
		LevelProgress:   res.LevelProgress,
		NewAchievements: achievements,
		Certificate:     res.Certificate,
		UnlockedLevel:   res.UnlockedLevel,
		Version:         res.Progress.Version,
	}, nil)
}

// UnlockLevelResponse reports the learner's levels after an unlock.
type UnlockLevelResponse struct {
	Changed        bool               `json:"changed"`
	UnlockedLevels []curriculum.Level `json:"unlockedLevels"`
}

func (s *Server) handleUnlockLevel(w http.ResponseWriter, r *http.Request) {
	level, err := curriculum.ParseLevel(r.PathValue("level"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	res, err := s.deps.UnlockLevel.Handle(r.Context(), command.UnlockLevelCommand{
		LearnerID: r.PathValue("id"),
		Level:     level,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, UnlockLevelResponse{
		Changed:        res.Changed,
		UnlockedLevels: res.Learner.UnlockedLevels,
	}, nil)
}

// ══════════════════════════════════════════════════════════════════════════════
// ADMIN HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) handleListAllProgress(w http.ResponseWriter, r *http.Request) {
	if s.deps.Features != nil && !s.deps.Features.IsEnabled(featureAdminProgressView, "") {
		writeJSONError(w, r, http.StatusNotFound, "not_found", "Not found")
		return
	}

	q := query.ListAllProgressQuery{
		Limit:  getQueryParamInt(r, "limit", 50),
		Offset: getQueryParamInt(r, "offset", 0),
	}
	res, err := s.deps.ListAllProgress.Handle(r.Context(), q)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, res.Items, &ResponseMeta{
		TotalCount: res.Total,
		HasMore:    q.Offset+len(res.Items) < res.Total,
	})
}

// DeleteLearnerResponse confirms an account deletion.
type DeleteLearnerResponse struct {
	LearnerID   string `json:"learnerId"`
	HadProgress bool   `json:"hadProgress"`
}

func (s *Server) handleDeleteLearner(w http.ResponseWriter, r *http.Request) {
	res, err := s.deps.DeleteLearner.Handle(r.Context(), command.DeleteLearnerCommand{
		LearnerID:     r.PathValue("id"),
		CorrelationID: getRequestID(r.Context()),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, DeleteLearnerResponse{
		LearnerID:   res.LearnerID,
		HadProgress: res.HadProgress,
	}, nil)
}

// ══════════════════════════════════════════════════════════════════════════════
// ERROR MAPPING
// ══════════════════════════════════════════════════════════════════════════════

// writeDomainError maps the domain error taxonomy to HTTP status codes.
func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := http.StatusInternalServerError, "internal_error"
	message := "An unexpected error occurred"

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		message = domainErr.Message
	}

	switch {
	case shared.IsNotFound(err):
		status, code = http.StatusNotFound, "not_found"
	case shared.IsValidation(err):
		status, code = http.StatusBadRequest, "invalid_request"
	case shared.IsForbidden(err):
		status, code = http.StatusForbidden, "locked"
	case shared.IsConflict(err):
		status, code = http.StatusConflict, "conflict"
	default:
		message = "An unexpected error occurred"
		logger.FromContext(r.Context()).Error("request failed",
			logger.String("path", r.URL.Path),
			logger.Err(err),
		)
	}

	writeJSONError(w, r, status, code, message)
}

// decodeBody decodes a JSON body and writes a 400 on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeJSONError(w, r, http.StatusBadRequest, "invalid_json", "Request body is not valid JSON")
		return false
	}
	return true
}
