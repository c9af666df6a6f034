package repository

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ExpenseRepository defines data access for expense reports. UpdateStatus is
// only called by the approval service inside the transaction that mutates the
// corresponding approval step.
type ExpenseRepository interface {
	Create(ctx context.Context, expense *model.ExpenseReport) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.ExpenseReport, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	ListBySubmitter(ctx context.Context, submitterID uuid.UUID, offset, limit int) ([]model.ExpenseReport, int64, error)
}

type expenseRepository struct {
	db *gorm.DB
}

func NewExpenseRepository(db *gorm.DB) ExpenseRepository {
	return &expenseRepository{db: db}
}

func (r *expenseRepository) Create(ctx context.Context, expense *model.ExpenseReport) error {
	return GetDB(ctx, r.db).Create(expense).Error
}

func (r *expenseRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.ExpenseReport, error) {
	var expense model.ExpenseReport
	err := GetDB(ctx, r.db).
		Preload("Approvals", orderedSteps).
		Preload("Approvals.AssignedUser").
		First(&expense, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &expense, nil
}

func (r *expenseRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	return GetDB(ctx, r.db).
		Model(&model.ExpenseReport{}).
		Where("id = ?", id).
		Update("status", status).Error
}

func (r *expenseRepository) ListBySubmitter(ctx context.Context, submitterID uuid.UUID, offset, limit int) ([]model.ExpenseReport, int64, error) {
	db := GetDB(ctx, r.db)

	var total int64
	if err := db.Model(&model.ExpenseReport{}).
		Where("submitter_id = ?", submitterID).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var expenses []model.ExpenseReport
	err := db.
		Preload("Approvals", orderedSteps).
		Preload("Approvals.AssignedUser").
		Where("submitter_id = ?", submitterID).
		Order("created_at desc").
		Offset(offset).
		Limit(limit).
		Find(&expenses).Error
	if err != nil {
		return nil, 0, err
	}

	return expenses, total, nil
}
