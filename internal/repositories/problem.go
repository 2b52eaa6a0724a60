package repositories

import (
	"context"
	"time"

	"fhirfly-backend/internal/models"

	"gorm.io/gorm"
)

type ProblemRepository struct {
	db *gorm.DB
}

func NewProblemRepository(db *gorm.DB) *ProblemRepository {
	return &ProblemRepository{db: db}
}

func (r *ProblemRepository) Create(ctx context.Context, item *models.ProblemListItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

// ListByOwner returns the owner's problems, newest first.
func (r *ProblemRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.ProblemListItem, error) {
	var out []models.ProblemListItem
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("added_at desc").
		Find(&out).Error
	return out, err
}

// Delete removes a problem only if it belongs to ownerID.
func (r *ProblemRepository) Delete(ctx context.Context, ownerID, id string) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		Delete(&models.ProblemListItem{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notFound(gorm.ErrRecordNotFound, "Problem")
	}
	return nil
}

// CountOwners is the number of distinct users with at least one problem.
func (r *ProblemRepository) CountOwners(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&models.ProblemListItem{}).
		Distinct("owner_id").
		Count(&total).Error
	return total, err
}

func (r *ProblemRepository) CountAddedSince(ctx context.Context, since time.Time) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&models.ProblemListItem{}).
		Where("added_at >= ?", since).
		Count(&total).Error
	return total, err
}
