package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Audit operations.
const (
	OperationInsert = "INSERT"
	OperationUpdate = "UPDATE"
	OperationDelete = "DELETE"
)

// AuditLog records one change to a catalog row.
type AuditLog struct {
	ID        uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	Table     string         `json:"table_name" gorm:"column:table_name;not null;index"`
	Operation string         `json:"operation" gorm:"not null"`
	RecordID  uuid.UUID      `json:"record_id" gorm:"type:uuid;not null;index"`
	UserID    *string        `json:"user_id,omitempty" gorm:"index"`
	ChangedAt time.Time      `json:"changed_at" gorm:"index"`
	OldData   datatypes.JSON `json:"old_data,omitempty" gorm:"type:jsonb"`
	NewData   datatypes.JSON `json:"new_data,omitempty" gorm:"type:jsonb"`
	Meta      datatypes.JSON `json:"meta,omitempty" gorm:"type:jsonb"`
}

func (AuditLog) TableName() string { return "audit_log" }

func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.ChangedAt.IsZero() {
		a.ChangedAt = time.Now().UTC()
	}
	return nil
}

type AuditLogFilter struct {
	Table     string
	Operation string
	RecordID  *uuid.UUID
	UserID    string
}
