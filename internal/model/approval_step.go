package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StepStatus enum constants. WAITING → PENDING → {APPROVED | REJECTED |
// SKIPPED}; the three right-hand states are terminal. At most one step per
// expense is PENDING at any time.
const (
	StepStatusWaiting  = "WAITING"
	StepStatusPending  = "PENDING"
	StepStatusApproved = "APPROVED"
	StepStatusRejected = "REJECTED"
	StepStatusSkipped  = "SKIPPED"
)

// ExpenseApprovalStep is one link in an expense's approval chain.
// ApproverTitle is a snapshot of the workflow entry at submission time;
// editing the workflow later must not touch in-flight expenses.
// AssignedUserID is nil when nobody currently holds the title — such a step
// can be decided by any approver, who is then recorded as the assignee.
type ExpenseApprovalStep struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	ExpenseID uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_step_expense_order" json:"expense_id"`
	Expense   *ExpenseReport `gorm:"foreignKey:ExpenseID" json:"expense,omitempty"`

	Order          int        `gorm:"column:step_order;not null;uniqueIndex:idx_step_expense_order" json:"order"`
	ApproverTitle  string     `gorm:"type:varchar(100);not null" json:"approver_title"`
	AssignedUserID *uuid.UUID `gorm:"type:uuid;index" json:"assigned_user_id"`
	AssignedUser   *User      `gorm:"foreignKey:AssignedUserID" json:"assigned_user,omitempty"`

	Status     string     `gorm:"type:varchar(20);not null;default:'WAITING';index" json:"status"`
	Comment    string     `gorm:"type:text" json:"comment"`
	DecisionAt *time.Time `json:"decision_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (s *ExpenseApprovalStep) BeforeCreate(_ *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
