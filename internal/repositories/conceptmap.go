package repositories

import (
	"context"
	"errors"

	"fhirfly-backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ConceptMapRepository struct {
	db *gorm.DB
}

func NewConceptMapRepository(db *gorm.DB) *ConceptMapRepository {
	return &ConceptMapRepository{db: db}
}

func (r *ConceptMapRepository) Create(ctx context.Context, m *models.ConceptMap) error {
	return conflict(r.db.WithContext(ctx).Create(m).Error, missingCodeSystem)
}

func (r *ConceptMapRepository) Get(ctx context.Context, id uuid.UUID) (*models.ConceptMap, error) {
	var m models.ConceptMap
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, notFound(err, "Conceptmap")
	}
	return &m, nil
}

// FindTranslation returns the map for sourceCode between the two code systems,
// or nil when there is none.
func (r *ConceptMapRepository) FindTranslation(ctx context.Context, sourceCS, targetCS uuid.UUID, sourceCode string) (*models.ConceptMap, error) {
	var m models.ConceptMap
	err := r.db.WithContext(ctx).
		Where("source_codesystem_id = ? AND target_codesystem_id = ? AND source_code = ?", sourceCS, targetCS, sourceCode).
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *ConceptMapRepository) Update(ctx context.Context, m *models.ConceptMap) error {
	return conflict(r.db.WithContext(ctx).Save(m).Error, missingCodeSystem)
}

func (r *ConceptMapRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.ConceptMap{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notFound(gorm.ErrRecordNotFound, "Conceptmap")
	}
	return nil
}

func (r *ConceptMapRepository) List(ctx context.Context, f models.ConceptMapFilter, page models.PageRequest) ([]models.ConceptMap, error) {
	var out []models.ConceptMap
	err := r.filtered(ctx, f).
		Order("created_at asc").
		Offset(page.Offset()).
		Limit(page.Size).
		Find(&out).Error
	return out, err
}

func (r *ConceptMapRepository) Count(ctx context.Context, f models.ConceptMapFilter) (int64, error) {
	var total int64
	err := r.filtered(ctx, f).Count(&total).Error
	return total, err
}

func (r *ConceptMapRepository) filtered(ctx context.Context, f models.ConceptMapFilter) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&models.ConceptMap{})
	if f.SourceCodeSystemID != nil {
		query = query.Where("source_codesystem_id = ?", *f.SourceCodeSystemID)
	}
	if f.TargetCodeSystemID != nil {
		query = query.Where("target_codesystem_id = ?", *f.TargetCodeSystemID)
	}
	if f.Search != "" {
		p := likePattern(f.Search)
		query = query.Where(
			"source_code ILIKE ? OR target_code ILIKE ? OR equivalence ILIKE ? OR metadata->>'display' ILIKE ?",
			p, p, p, p,
		)
	}
	return query
}
