// Package services holds the terminology, problem list, analytics, auth and
// audit logic behind the HTTP handlers.
package services

import (
	"context"
	"time"

	"fhirfly-backend/internal/models"

	"github.com/google/uuid"
)

type CodeSystemRepository interface {
	Create(ctx context.Context, cs *models.CodeSystem) error
	Get(ctx context.Context, id uuid.UUID) (*models.CodeSystem, error)
	GetByURL(ctx context.Context, url string) (*models.CodeSystem, error)
	GetByName(ctx context.Context, name string) (*models.CodeSystem, error)
	ListByIDs(ctx context.Context, ids []uuid.UUID) ([]models.CodeSystem, error)
	Update(ctx context.Context, cs *models.CodeSystem) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, f models.CodeSystemFilter, page models.PageRequest) ([]models.CodeSystem, error)
	Count(ctx context.Context, f models.CodeSystemFilter) (int64, error)
}

type ConceptRepository interface {
	Create(ctx context.Context, c *models.Concept) error
	Get(ctx context.Context, id uuid.UUID) (*models.Concept, error)
	GetByCode(ctx context.Context, codeSystemID uuid.UUID, code string) (*models.Concept, error)
	ListByCodeSystem(ctx context.Context, codeSystemID uuid.UUID) ([]models.Concept, error)
	Update(ctx context.Context, c *models.Concept) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, f models.ConceptFilter, page models.PageRequest) ([]models.Concept, error)
	Count(ctx context.Context, f models.ConceptFilter) (int64, error)
}

type ConceptMapRepository interface {
	Create(ctx context.Context, m *models.ConceptMap) error
	Get(ctx context.Context, id uuid.UUID) (*models.ConceptMap, error)
	FindTranslation(ctx context.Context, sourceCS, targetCS uuid.UUID, sourceCode string) (*models.ConceptMap, error)
	Update(ctx context.Context, m *models.ConceptMap) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, f models.ConceptMapFilter, page models.PageRequest) ([]models.ConceptMap, error)
	Count(ctx context.Context, f models.ConceptMapFilter) (int64, error)
}

type AuditLogRepository interface {
	Create(ctx context.Context, entry *models.AuditLog) error
	Get(ctx context.Context, id uuid.UUID) (*models.AuditLog, error)
	List(ctx context.Context, f models.AuditLogFilter, page models.PageRequest) ([]models.AuditLog, error)
	Count(ctx context.Context, f models.AuditLogFilter) (int64, error)
	ListByRecord(ctx context.Context, table string, recordID uuid.UUID) ([]models.AuditLog, error)
}

type ProblemRepository interface {
	Create(ctx context.Context, item *models.ProblemListItem) error
	ListByOwner(ctx context.Context, ownerID string) ([]models.ProblemListItem, error)
	Delete(ctx context.Context, ownerID, id string) error
	CountOwners(ctx context.Context) (int64, error)
	CountAddedSince(ctx context.Context, since time.Time) (int64, error)
}
