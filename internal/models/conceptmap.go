package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ConceptMap maps one source code to one target code across two code systems.
type ConceptMap struct {
	ID                 uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	SourceCodeSystemID uuid.UUID      `json:"source_codesystem_id" gorm:"column:source_codesystem_id;type:uuid;not null;index"`
	TargetCodeSystemID uuid.UUID      `json:"target_codesystem_id" gorm:"column:target_codesystem_id;type:uuid;not null;index"`
	SourceCode         string         `json:"source_code" gorm:"not null;index"`
	TargetCode         string         `json:"target_code" gorm:"not null"`
	Equivalence        *string        `json:"equivalence,omitempty"`
	Metadata           datatypes.JSON `json:"meta_data,omitempty" gorm:"column:metadata;type:jsonb"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`

	SourceCodeSystem *CodeSystem `json:"-" gorm:"foreignKey:SourceCodeSystemID;constraint:OnDelete:RESTRICT"`
	TargetCodeSystem *CodeSystem `json:"-" gorm:"foreignKey:TargetCodeSystemID;constraint:OnDelete:RESTRICT"`
}

func (ConceptMap) TableName() string { return "conceptmap" }

func (m *ConceptMap) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// ConceptMapMetadata is the part of ConceptMap.Metadata the service reads.
type ConceptMapMetadata struct {
	Display    string `json:"display,omitempty"`
	Definition string `json:"definition,omitempty"`
}

// Meta decodes the metadata column; malformed metadata yields the zero value.
func (m ConceptMap) Meta() ConceptMapMetadata {
	var meta ConceptMapMetadata
	if len(m.Metadata) > 0 {
		_ = json.Unmarshal(m.Metadata, &meta)
	}
	return meta
}

type ConceptMapInput struct {
	SourceCodeSystemID *uuid.UUID     `json:"source_codesystem_id"`
	TargetCodeSystemID *uuid.UUID     `json:"target_codesystem_id"`
	SourceCode         *string        `json:"source_code"`
	TargetCode         *string        `json:"target_code"`
	Equivalence        *string        `json:"equivalence"`
	Metadata           datatypes.JSON `json:"meta_data"`
}

func (in ConceptMapInput) Apply(m *ConceptMap) {
	if in.SourceCodeSystemID != nil {
		m.SourceCodeSystemID = *in.SourceCodeSystemID
	}
	if in.TargetCodeSystemID != nil {
		m.TargetCodeSystemID = *in.TargetCodeSystemID
	}
	if in.SourceCode != nil {
		m.SourceCode = *in.SourceCode
	}
	if in.TargetCode != nil {
		m.TargetCode = *in.TargetCode
	}
	setString(&m.Equivalence, in.Equivalence)
	setJSON(&m.Metadata, in.Metadata)
}

type ConceptMapFilter struct {
	SourceCodeSystemID *uuid.UUID
	TargetCodeSystemID *uuid.UUID
	Search             string
}

// TranslationRequest names code systems by URL or name.
type TranslationRequest struct {
	SourceCodeSystem string `json:"source_codesystem" binding:"required"`
	TargetCodeSystem string `json:"target_codesystem" binding:"required"`
	SourceCode       string `json:"source_code" binding:"required"`
}

type TranslationResponse struct {
	TargetCode  *string `json:"target_code"`
	Equivalence *string `json:"equivalence"`
	Found       bool    `json:"found"`
}
