package query

import (
	"context"
	"fmt"
	"sort"

	"github.com/lingvo-hub/lingvo-hub/internal/domain/curriculum"
	"github.com/lingvo-hub/lingvo-hub/internal/domain/progress"
)

// ══════════════════════════════════════════════════════════════════════════════
// LIST ALL PROGRESS QUERY
// Administrative view over every learner, read from the aggregate mirror.
// ══════════════════════════════════════════════════════════════════════════════

// ListAllProgressQuery pages through the mirror.
type ListAllProgressQuery struct {
	Limit  int
	Offset int
}

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

func (q ListAllProgressQuery) normalize() ListAllProgressQuery {
	if q.Limit <= 0 {
		q.Limit = defaultListLimit
	}
	if q.Limit > maxListLimit {
		q.Limit = maxListLimit
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	return q
}

// ProgressSummaryDTO is one row of the administrative view.
type ProgressSummaryDTO struct {
	LearnerID        string                   `json:"learnerId"`
	Points           int                      `json:"points"`
	Streak           int                      `json:"streak"`
	CompletedLessons int                      `json:"completedLessons"`
	Achievements     int                      `json:"achievements"`
	Certificates     []curriculum.Level       `json:"certificates"`
	LevelProgress    map[curriculum.Level]int `json:"levelProgress"`
	Version          int64                    `json:"version"`
}

// ListAllProgressResult is a page of summaries.
type ListAllProgressResult struct {
	Total int                  `json:"total"`
	Items []ProgressSummaryDTO `json:"items"`
}

// ListAllProgressHandler handles ListAllProgressQuery.
type ListAllProgressHandler struct {
	mirror progress.Mirror
}

// NewListAllProgressHandler creates a new ListAllProgressHandler.
func NewListAllProgressHandler(mirror progress.Mirror) *ListAllProgressHandler {
	return &ListAllProgressHandler{mirror: mirror}
}

// Handle returns learners ordered by points, highest first, ties by id.
func (h *ListAllProgressHandler) Handle(ctx context.Context, q ListAllProgressQuery) (*ListAllProgressResult, error) {
	q = q.normalize()

	all, err := h.mirror.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("list_all_progress: %w", err)
	}
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].Points != all[j].Points {
			return all[i].Points > all[j].Points
		}
		return all[i].UserID < all[j].UserID
	})

	result := &ListAllProgressResult{Total: len(all), Items: make([]ProgressSummaryDTO, 0)}
	if q.Offset >= len(all) {
		return result, nil
	}
	end := q.Offset + q.Limit
	if end > len(all) {
		end = len(all)
	}
	for _, p := range all[q.Offset:end] {
		result.Items = append(result.Items, summarize(p))
	}
	return result, nil
}

func summarize(p *progress.UserProgress) ProgressSummaryDTO {
	certs := make([]curriculum.Level, 0, len(p.CompletedLevels))
	for _, c := range p.CompletedLevels {
		certs = append(certs, c.Level)
	}
	return ProgressSummaryDTO{
		LearnerID:        p.UserID,
		Points:           p.Points,
		Streak:           p.Streak,
		CompletedLessons: p.CompletedCount(),
		Achievements:     len(p.Achievements),
		Certificates:     certs,
		LevelProgress:    p.LevelProgress,
		Version:          p.Version,
	}
}
