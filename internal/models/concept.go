package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ICD11MappingProperty is the concept property code that carries the mapped ICD-11 code.
const ICD11MappingProperty = "icd11Mapping"

// Concept is a single code inside a code system.
type Concept struct {
	ID           uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	CodeSystemID uuid.UUID      `json:"codesystem_id" gorm:"column:codesystem_id;type:uuid;not null;index"`
	Code         string         `json:"code" gorm:"not null;index"`
	Display      *string        `json:"display,omitempty"`
	Definition   *string        `json:"definition,omitempty"`
	Properties   datatypes.JSON `json:"properties,omitempty" gorm:"type:jsonb"`
	Raw          datatypes.JSON `json:"raw,omitempty" gorm:"type:jsonb"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`

	CodeSystem *CodeSystem `json:"-" gorm:"foreignKey:CodeSystemID;constraint:OnDelete:RESTRICT"`
}

func (Concept) TableName() string { return "concept" }

func (c *Concept) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// ConceptProperty is one entry of Concept.Properties.
type ConceptProperty struct {
	Code        string `json:"code"`
	ValueCode   string `json:"valueCode,omitempty"`
	ValueString string `json:"valueString,omitempty"`
}

// PropertyValueCode returns the valueCode of the first property with the given
// code. Malformed property payloads are treated as empty.
func (c Concept) PropertyValueCode(code string) (string, bool) {
	if len(c.Properties) == 0 {
		return "", false
	}
	var props []ConceptProperty
	if err := json.Unmarshal(c.Properties, &props); err != nil {
		return "", false
	}
	for _, p := range props {
		if p.Code == code && p.ValueCode != "" {
			return p.ValueCode, true
		}
	}
	return "", false
}

// Term is the human-facing name of the concept: its display, else its code.
func (c Concept) Term() string {
	if c.Display != nil && *c.Display != "" {
		return *c.Display
	}
	return c.Code
}

// ConceptInput is the create/update body for concepts.
type ConceptInput struct {
	CodeSystemID *uuid.UUID     `json:"codesystem_id"`
	Code         *string        `json:"code"`
	Display      *string        `json:"display"`
	Definition   *string        `json:"definition"`
	Properties   datatypes.JSON `json:"properties"`
	Raw          datatypes.JSON `json:"raw"`
}

func (in ConceptInput) Apply(c *Concept) {
	if in.CodeSystemID != nil {
		c.CodeSystemID = *in.CodeSystemID
	}
	if in.Code != nil {
		c.Code = *in.Code
	}
	setString(&c.Display, in.Display)
	setString(&c.Definition, in.Definition)
	setJSON(&c.Properties, in.Properties)
	setJSON(&c.Raw, in.Raw)
}

// ConceptFilter narrows concept listings.
type ConceptFilter struct {
	CodeSystemID *uuid.UUID
	Search       string
}
