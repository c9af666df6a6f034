package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ExpenseStatus enum constants. Status is a projection of the report's
// approval steps and is written exclusively by the approval service, in the
// same transaction as the step mutation it reflects.
const (
	ExpenseStatusDraft    = "DRAFT"
	ExpenseStatusPending  = "PENDING"
	ExpenseStatusInReview = "IN_REVIEW"
	ExpenseStatusApproved = "APPROVED"
	ExpenseStatusRejected = "REJECTED"
)

// ExpenseReport is an employee expense claim moving through an approval chain.
type ExpenseReport struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Title       string          `gorm:"type:varchar(255);not null" json:"title"`
	Amount      decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	Description string          `gorm:"type:text" json:"description"`
	ReceiptPath string          `gorm:"type:text" json:"receipt_path"` // opaque storage key, empty when no receipt
	Status      string          `gorm:"type:varchar(20);not null;default:'DRAFT';index" json:"status"`
	SubmitterID uuid.UUID       `gorm:"type:uuid;not null;index" json:"submitter_id"`
	Submitter   *User           `gorm:"foreignKey:SubmitterID" json:"submitter,omitempty"`

	Approvals []ExpenseApprovalStep `gorm:"foreignKey:ExpenseID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"approvals,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (e *ExpenseReport) BeforeCreate(_ *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
