package services

import (
	"context"
	"encoding/json"

	"fhirfly-backend/internal/apperrors"
	"fhirfly-backend/internal/events"
	"fhirfly-backend/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// AuditService records catalog changes and serves the audit trail.
type AuditService struct {
	repo      AuditLogRepository
	publisher events.Publisher
	logger    *zap.Logger
}

func NewAuditService(repo AuditLogRepository, publisher events.Publisher, logger *zap.Logger) *AuditService {
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &AuditService{repo: repo, publisher: publisher, logger: logger}
}

// Record stores one change and publishes it. Failures are logged, never returned:
// the change itself has already been committed.
func (s *AuditService) Record(ctx context.Context, table, operation string, recordID uuid.UUID, userID string, oldData, newData interface{}) {
	entry := &models.AuditLog{
		Table:     table,
		Operation: operation,
		RecordID:  recordID,
		OldData:   snapshot(oldData),
		NewData:   snapshot(newData),
	}
	if userID != "" {
		entry.UserID = &userID
	}

	if err := s.repo.Create(ctx, entry); err != nil {
		s.logger.Error("failed to write audit log",
			zap.String("table", table),
			zap.String("operation", operation),
			zap.String("record_id", recordID.String()),
			zap.Error(err),
		)
		return
	}

	payload, err := json.Marshal(entry)
	if err != nil {
		return
	}
	if err := s.publisher.Publish(ctx, recordID.String(), payload); err != nil {
		s.logger.Warn("failed to publish audit event",
			zap.String("record_id", recordID.String()),
			zap.Error(err),
		)
	}
}

func (s *AuditService) List(ctx context.Context, f models.AuditLogFilter, page models.PageRequest) (models.Page[models.AuditLog], error) {
	items, err := s.repo.List(ctx, f, page)
	if err != nil {
		return models.Page[models.AuditLog]{}, apperrors.Wrap(err, "Failed to list audit logs")
	}
	total, err := s.repo.Count(ctx, f)
	if err != nil {
		return models.Page[models.AuditLog]{}, apperrors.Wrap(err, "Failed to count audit logs")
	}
	return models.NewPage(items, total, page), nil
}

func (s *AuditService) Get(ctx context.Context, id uuid.UUID) (*models.AuditLog, error) {
	entry, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, apperrors.Wrap(err, "Failed to load audit log")
	}
	return entry, nil
}

func (s *AuditService) ListByRecord(ctx context.Context, table string, recordID uuid.UUID) ([]models.AuditLog, error) {
	entries, err := s.repo.ListByRecord(ctx, table, recordID)
	if err != nil {
		return nil, apperrors.Wrap(err, "Failed to list audit logs")
	}
	if entries == nil {
		entries = []models.AuditLog{}
	}
	return entries, nil
}

func snapshot(v interface{}) datatypes.JSON {
	if v == nil {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return datatypes.JSON(data)
}
