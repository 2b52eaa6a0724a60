package models

import (
	"time"
)

// ProblemListItem is one diagnosis on a user's problem list.
type ProblemListItem struct {
	ID          string    `json:"id" gorm:"primaryKey"`
	OwnerID     string    `json:"-" gorm:"not null;index"`
	TermName    string    `json:"termName" gorm:"not null"`
	NamasteCode string    `json:"namasteCode" gorm:"not null"`
	ICD11Code   string    `json:"icd11Code" gorm:"column:icd11_code;not null"`
	AddedAt     time.Time `json:"addedAt" gorm:"not null;index"`
}

func (ProblemListItem) TableName() string { return "problem_list_item" }

// AddProblemRequest is the term being added; it is the shape returned by search.
type AddProblemRequest struct {
	ID          string `json:"id"`
	TermName    string `json:"termName" binding:"required"`
	NamasteCode string `json:"namasteCode" binding:"required"`
	ICD11Code   string `json:"icd11Code" binding:"required"`
	Description string `json:"description"`
}
