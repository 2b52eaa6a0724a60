package repositories

import (
	"context"

	"fhirfly-backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ConceptRepository struct {
	db *gorm.DB
}

func NewConceptRepository(db *gorm.DB) *ConceptRepository {
	return &ConceptRepository{db: db}
}

const missingCodeSystem = "Referenced codesystem does not exist"

func (r *ConceptRepository) Create(ctx context.Context, c *models.Concept) error {
	return conflict(r.db.WithContext(ctx).Create(c).Error, missingCodeSystem)
}

func (r *ConceptRepository) Get(ctx context.Context, id uuid.UUID) (*models.Concept, error) {
	var c models.Concept
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&c).Error; err != nil {
		return nil, notFound(err, "Concept")
	}
	return &c, nil
}

func (r *ConceptRepository) GetByCode(ctx context.Context, codeSystemID uuid.UUID, code string) (*models.Concept, error) {
	var c models.Concept
	err := r.db.WithContext(ctx).
		Where("codesystem_id = ? AND code = ?", codeSystemID, code).
		First(&c).Error
	if err != nil {
		return nil, notFound(err, "Concept")
	}
	return &c, nil
}

func (r *ConceptRepository) ListByCodeSystem(ctx context.Context, codeSystemID uuid.UUID) ([]models.Concept, error) {
	var out []models.Concept
	err := r.db.WithContext(ctx).
		Where("codesystem_id = ?", codeSystemID).
		Order("code asc").
		Find(&out).Error
	return out, err
}

func (r *ConceptRepository) Update(ctx context.Context, c *models.Concept) error {
	return conflict(r.db.WithContext(ctx).Save(c).Error, missingCodeSystem)
}

func (r *ConceptRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Concept{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notFound(gorm.ErrRecordNotFound, "Concept")
	}
	return nil
}

func (r *ConceptRepository) List(ctx context.Context, f models.ConceptFilter, page models.PageRequest) ([]models.Concept, error) {
	var out []models.Concept
	err := r.filtered(ctx, f).
		Order("created_at asc").
		Offset(page.Offset()).
		Limit(page.Size).
		Find(&out).Error
	return out, err
}

func (r *ConceptRepository) Count(ctx context.Context, f models.ConceptFilter) (int64, error) {
	var total int64
	err := r.filtered(ctx, f).Count(&total).Error
	return total, err
}

func (r *ConceptRepository) filtered(ctx context.Context, f models.ConceptFilter) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&models.Concept{})
	if f.CodeSystemID != nil {
		query = query.Where("codesystem_id = ?", *f.CodeSystemID)
	}
	if f.Search != "" {
		p := likePattern(f.Search)
		query = query.Where("code ILIKE ? OR display ILIKE ? OR definition ILIKE ?", p, p, p)
	}
	return query
}
