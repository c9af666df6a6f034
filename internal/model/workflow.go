package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Workflow maps an applicant job title to an ordered chain of approver job
// titles. In-flight expenses are not affected by later edits: approver titles
// are copied onto approval steps at submission time.
type Workflow struct {
	ID                uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	ApplicantJobTitle string         `gorm:"type:varchar(100);uniqueIndex;not null" json:"applicant_job_title"`
	Steps             []WorkflowStep `gorm:"foreignKey:WorkflowID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"steps"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

func (w *Workflow) BeforeCreate(_ *gorm.DB) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	return nil
}

// WorkflowStep is one entry in a workflow's approver chain. Order is
// 1-indexed and contiguous within a workflow.
type WorkflowStep struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	WorkflowID    uuid.UUID `gorm:"type:uuid;not null;index" json:"workflow_id"`
	Order         int       `gorm:"column:step_order;not null" json:"order"`
	ApproverTitle string    `gorm:"type:varchar(100);not null" json:"approver_title"`
	CreatedAt     time.Time `json:"created_at"`
}

func (s *WorkflowStep) BeforeCreate(_ *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
