package database

import (
	"fmt"

	"backend/internal/model"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type seedUser struct {
	Name     string
	Email    string
	JobTitle string
	Role     string
	Password string
}

var seedUsers = []seedUser{
	{Name: "Erin Engineer", Email: "engineer@example.com", JobTitle: "Engineer", Role: model.RoleEmployee, Password: "engineerpass"},
	{Name: "Liam Lead", Email: "lead@example.com", JobTitle: "Team Lead", Role: model.RoleApprover, Password: "leadpass"},
	{Name: "Fiona Finance", Email: "finance@example.com", JobTitle: "Finance", Role: model.RoleApprover, Password: "financepass"},
	{Name: "Derek Director", Email: "director@example.com", JobTitle: "Director", Role: model.RoleApprover, Password: "directorpass"},
	{Name: "Avery Admin", Email: "admin@example.com", JobTitle: "Finance Director", Role: model.RoleAdmin, Password: "adminpass"},
}

var seedWorkflows = map[string][]string{
	"Engineer": {"Team Lead", "Finance"},
	"Director": {"Finance"},
}

// Seed populates an empty database with demo users and workflows. It is a
// no-op when any user already exists.
func Seed(db *gorm.DB) error {
	var count int64
	if err := db.Model(&model.User{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check users: %w", err)
	}
	if count > 0 {
		return nil
	}

	for _, u := range seedUsers {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("failed to hash password for %s: %w", u.Email, err)
		}
		user := model.User{
			Name:         u.Name,
			Email:        u.Email,
			PasswordHash: string(hash),
			JobTitle:     u.JobTitle,
			Role:         u.Role,
			IsActive:     true,
		}
		if err := db.Create(&user).Error; err != nil {
			return fmt.Errorf("failed to seed user %s: %w", u.Email, err)
		}
	}

	for applicantTitle, approverTitles := range seedWorkflows {
		workflow := model.Workflow{ApplicantJobTitle: applicantTitle}
		for i, title := range approverTitles {
			workflow.Steps = append(workflow.Steps, model.WorkflowStep{
				Order:         i + 1,
				ApproverTitle: title,
			})
		}
		if err := db.Create(&workflow).Error; err != nil {
			return fmt.Errorf("failed to seed workflow for %s: %w", applicantTitle, err)
		}
	}

	return nil
}
