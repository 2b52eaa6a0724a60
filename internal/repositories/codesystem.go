package repositories

import (
	"context"

	"fhirfly-backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const codeSystemInUse = "Codesystem is still referenced by concepts or conceptmaps"

type CodeSystemRepository struct {
	db *gorm.DB
}

func NewCodeSystemRepository(db *gorm.DB) *CodeSystemRepository {
	return &CodeSystemRepository{db: db}
}

func (r *CodeSystemRepository) Create(ctx context.Context, cs *models.CodeSystem) error {
	return r.db.WithContext(ctx).Create(cs).Error
}

func (r *CodeSystemRepository) Get(ctx context.Context, id uuid.UUID) (*models.CodeSystem, error) {
	var cs models.CodeSystem
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&cs).Error; err != nil {
		return nil, notFound(err, "Codesystem")
	}
	return &cs, nil
}

func (r *CodeSystemRepository) GetByURL(ctx context.Context, url string) (*models.CodeSystem, error) {
	var cs models.CodeSystem
	if err := r.db.WithContext(ctx).Where("url = ?", url).First(&cs).Error; err != nil {
		return nil, notFound(err, "Codesystem")
	}
	return &cs, nil
}

func (r *CodeSystemRepository) GetByName(ctx context.Context, name string) (*models.CodeSystem, error) {
	var cs models.CodeSystem
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&cs).Error; err != nil {
		return nil, notFound(err, "Codesystem")
	}
	return &cs, nil
}

func (r *CodeSystemRepository) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]models.CodeSystem, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var out []models.CodeSystem
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&out).Error
	return out, err
}

func (r *CodeSystemRepository) Update(ctx context.Context, cs *models.CodeSystem) error {
	return r.db.WithContext(ctx).Save(cs).Error
}

func (r *CodeSystemRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.CodeSystem{})
	if res.Error != nil {
		return conflict(res.Error, codeSystemInUse)
	}
	if res.RowsAffected == 0 {
		return notFound(gorm.ErrRecordNotFound, "Codesystem")
	}
	return nil
}

func (r *CodeSystemRepository) List(ctx context.Context, f models.CodeSystemFilter, page models.PageRequest) ([]models.CodeSystem, error) {
	var out []models.CodeSystem
	err := r.filtered(ctx, f).
		Order("created_at asc").
		Offset(page.Offset()).
		Limit(page.Size).
		Find(&out).Error
	return out, err
}

func (r *CodeSystemRepository) Count(ctx context.Context, f models.CodeSystemFilter) (int64, error) {
	var total int64
	err := r.filtered(ctx, f).Count(&total).Error
	return total, err
}

func (r *CodeSystemRepository) filtered(ctx context.Context, f models.CodeSystemFilter) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&models.CodeSystem{})
	if f.Search != "" {
		p := likePattern(f.Search)
		query = query.Where("name ILIKE ? OR title ILIKE ? OR url ILIKE ?", p, p, p)
	}
	return query
}
