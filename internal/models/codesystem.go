package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// CodeSystem is a FHIR CodeSystem header (NAMASTE, ICD-11 TM2, ...).
type CodeSystem struct {
	ID         uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	ExternalID *string        `json:"external_id,omitempty"`
	URL        *string        `json:"url,omitempty" gorm:"index"`
	Version    *string        `json:"version,omitempty"`
	Name       *string        `json:"name,omitempty" gorm:"index"`
	Title      *string        `json:"title,omitempty"`
	Status     *string        `json:"status,omitempty"`
	Publisher  *string        `json:"publisher,omitempty"`
	Content    *string        `json:"content,omitempty"`
	Meta       datatypes.JSON `json:"meta,omitempty" gorm:"type:jsonb"`
	Resource   datatypes.JSON `json:"resource,omitempty" gorm:"type:jsonb"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

func (CodeSystem) TableName() string { return "codesystem" }

func (cs *CodeSystem) BeforeCreate(tx *gorm.DB) error {
	if cs.ID == uuid.Nil {
		cs.ID = uuid.New()
	}
	return nil
}

// CodeSystemInput is the body for creating a code system. On update only the
// fields present in the body are applied.
type CodeSystemInput struct {
	ExternalID *string        `json:"external_id"`
	URL        *string        `json:"url"`
	Version    *string        `json:"version"`
	Name       *string        `json:"name"`
	Title      *string        `json:"title"`
	Status     *string        `json:"status"`
	Publisher  *string        `json:"publisher"`
	Content    *string        `json:"content"`
	Meta       datatypes.JSON `json:"meta"`
	Resource   datatypes.JSON `json:"resource"`
}

// Apply copies the set fields of the input onto cs.
func (in CodeSystemInput) Apply(cs *CodeSystem) {
	setString(&cs.ExternalID, in.ExternalID)
	setString(&cs.URL, in.URL)
	setString(&cs.Version, in.Version)
	setString(&cs.Name, in.Name)
	setString(&cs.Title, in.Title)
	setString(&cs.Status, in.Status)
	setString(&cs.Publisher, in.Publisher)
	setString(&cs.Content, in.Content)
	setJSON(&cs.Meta, in.Meta)
	setJSON(&cs.Resource, in.Resource)
}

// CodeSystemFilter narrows code system listings.
type CodeSystemFilter struct {
	Search string
}

func setString(dst **string, src *string) {
	if src != nil {
		v := *src
		*dst = &v
	}
}

func setJSON(dst *datatypes.JSON, src datatypes.JSON) {
	if len(src) > 0 {
		*dst = src
	}
}

// StringValue dereferences s, returning "" for nil.
func StringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string {
	return &s
}
