package repositories

import (
	"context"

	"fhirfly-backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AuditLogRepository struct {
	db *gorm.DB
}

func NewAuditLogRepository(db *gorm.DB) *AuditLogRepository {
	return &AuditLogRepository{db: db}
}

func (r *AuditLogRepository) Create(ctx context.Context, entry *models.AuditLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *AuditLogRepository) Get(ctx context.Context, id uuid.UUID) (*models.AuditLog, error) {
	var entry models.AuditLog
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&entry).Error; err != nil {
		return nil, notFound(err, "Audit log")
	}
	return &entry, nil
}

// List returns entries newest first.
func (r *AuditLogRepository) List(ctx context.Context, f models.AuditLogFilter, page models.PageRequest) ([]models.AuditLog, error) {
	var out []models.AuditLog
	err := r.filtered(ctx, f).
		Order("changed_at desc").
		Offset(page.Offset()).
		Limit(page.Size).
		Find(&out).Error
	return out, err
}

func (r *AuditLogRepository) Count(ctx context.Context, f models.AuditLogFilter) (int64, error) {
	var total int64
	err := r.filtered(ctx, f).Count(&total).Error
	return total, err
}

func (r *AuditLogRepository) ListByRecord(ctx context.Context, table string, recordID uuid.UUID) ([]models.AuditLog, error) {
	var out []models.AuditLog
	err := r.db.WithContext(ctx).
		Where("table_name = ? AND record_id = ?", table, recordID).
		Order("changed_at desc").
		Find(&out).Error
	return out, err
}

func (r *AuditLogRepository) filtered(ctx context.Context, f models.AuditLogFilter) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&models.AuditLog{})
	if f.Table != "" {
		query = query.Where("table_name = ?", f.Table)
	}
	if f.Operation != "" {
		query = query.Where("operation = ?", f.Operation)
	}
	if f.RecordID != nil {
		query = query.Where("record_id = ?", *f.RecordID)
	}
	if f.UserID != "" {
		query = query.Where("user_id = ?", f.UserID)
	}
	return query
}
