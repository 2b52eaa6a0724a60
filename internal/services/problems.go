package services

import (
	"context"
	"strings"
	"time"

	"fhirfly-backend/internal/apperrors"
	"fhirfly-backend/internal/metrics"
	"fhirfly-backend/internal/models"

	"github.com/google/uuid"
)

// ProblemService manages each user's problem list.
type ProblemService struct {
	repo    ProblemRepository
	metrics *metrics.Collector
	now     func() time.Time
}

func NewProblemService(repo ProblemRepository, collector *metrics.Collector) *ProblemService {
	return &ProblemService{repo: repo, metrics: collector, now: time.Now}
}

// List returns the owner's problems, newest first.
func (s *ProblemService) List(ctx context.Context, owner string) ([]models.ProblemListItem, error) {
	items, err := s.repo.ListByOwner(ctx, owner)
	if err != nil {
		return nil, apperrors.Wrap(err, "Failed to load problem list")
	}
	if items == nil {
		items = []models.ProblemListItem{}
	}
	return items, nil
}

// Add appends one item built from a search result. The item gets a fresh id
// and the current time regardless of what the request carried.
func (s *ProblemService) Add(ctx context.Context, owner string, req models.AddProblemRequest) (*models.ProblemListItem, error) {
	item := &models.ProblemListItem{
		ID:          uuid.NewString(),
		OwnerID:     owner,
		TermName:    strings.TrimSpace(req.TermName),
		NamasteCode: strings.TrimSpace(req.NamasteCode),
		ICD11Code:   strings.TrimSpace(req.ICD11Code),
		AddedAt:     s.now().UTC(),
	}
	if item.TermName == "" || item.NamasteCode == "" || item.ICD11Code == "" {
		return nil, apperrors.NewValidationError("termName, namasteCode and icd11Code are required")
	}

	if err := s.repo.Create(ctx, item); err != nil {
		return nil, apperrors.Wrap(err, "Failed to add problem")
	}
	s.metrics.ProblemAdded()
	return item, nil
}

func (s *ProblemService) Remove(ctx context.Context, owner, id string) error {
	if err := s.repo.Delete(ctx, owner, id); err != nil {
		return apperrors.Wrap(err, "Failed to remove problem")
	}
	s.metrics.ProblemRemoved()
	return nil
}
