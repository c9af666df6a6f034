package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role enum constants
const (
	RoleEmployee = "EMPLOYEE"
	RoleApprover = "APPROVER"
	RoleAdmin    = "ADMIN"
)

// User represents an account that submits or approves expense reports.
// JobTitle drives both workflow selection (for submitters) and approver
// assignment (for approvers).
type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name         string    `gorm:"type:varchar(255);not null" json:"name"`
	Email        string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"type:varchar(255);not null" json:"-"` // Omit hash from JSON requests/responses
	JobTitle     string    `gorm:"type:varchar(100);not null;index" json:"job_title"`
	Role         string    `gorm:"type:varchar(20);not null" json:"role"` // EMPLOYEE, APPROVER, ADMIN
	IsActive     bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// BeforeCreate assigns the ID client-side so the same model works on both
// the Postgres deployment and the sqlite test databases.
func (u *User) BeforeCreate(_ *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
