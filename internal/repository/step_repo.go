package repository

import (
	"context"
	"errors"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ApprovalStepRepository defines data access for approval steps.
type ApprovalStepRepository interface {
	Create(ctx context.Context, step *model.ExpenseApprovalStep) error
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.ExpenseApprovalStep, error)
	Update(ctx context.Context, step *model.ExpenseApprovalStep) error
	FindNextWaiting(ctx context.Context, expenseID uuid.UUID, afterOrder int) (*model.ExpenseApprovalStep, error)
	SkipFollowing(ctx context.Context, expenseID uuid.UUID, afterOrder int) (int64, error)
	ListPendingByAssignee(ctx context.Context, userID uuid.UUID) ([]model.ExpenseApprovalStep, error)
	ListDecidedByAssignee(ctx context.Context, userID uuid.UUID, limit int) ([]model.ExpenseApprovalStep, error)
}

type approvalStepRepository struct {
	db *gorm.DB
}

func NewApprovalStepRepository(db *gorm.DB) ApprovalStepRepository {
	return &approvalStepRepository{db: db}
}

func (r *approvalStepRepository) Create(ctx context.Context, step *model.ExpenseApprovalStep) error {
	return GetDB(ctx, r.db).Create(step).Error
}

// FindByIDForUpdate loads a step with a row lock so two concurrent decisions
// on the same step serialize: the second sees the committed terminal status
// and fails the PENDING guard. SQLite has a single writer and no FOR UPDATE
// syntax, so the clause is applied on Postgres only.
func (r *approvalStepRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.ExpenseApprovalStep, error) {
	db := GetDB(ctx, r.db)
	query := db.Preload("Expense")
	if db.Dialector.Name() == "postgres" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var step model.ExpenseApprovalStep
	if err := query.First(&step, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &step, nil
}

func (r *approvalStepRepository) Update(ctx context.Context, step *model.ExpenseApprovalStep) error {
	return GetDB(ctx, r.db).Save(step).Error
}

// FindNextWaiting returns the WAITING step with the smallest order greater
// than afterOrder, or (nil, nil) when the chain is exhausted.
func (r *approvalStepRepository) FindNextWaiting(ctx context.Context, expenseID uuid.UUID, afterOrder int) (*model.ExpenseApprovalStep, error) {
	var step model.ExpenseApprovalStep
	err := GetDB(ctx, r.db).
		Where("expense_id = ? AND status = ? AND step_order > ?", expenseID, model.StepStatusWaiting, afterOrder).
		Order("step_order asc").
		First(&step).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &step, nil
}

// SkipFollowing bulk-transitions every not-yet-decided step after afterOrder
// to SKIPPED. Used when an earlier step rejects.
func (r *approvalStepRepository) SkipFollowing(ctx context.Context, expenseID uuid.UUID, afterOrder int) (int64, error) {
	result := GetDB(ctx, r.db).
		Model(&model.ExpenseApprovalStep{}).
		Where("expense_id = ? AND step_order > ? AND status IN ?",
			expenseID, afterOrder, []string{model.StepStatusPending, model.StepStatusWaiting}).
		Update("status", model.StepStatusSkipped)
	return result.RowsAffected, result.Error
}

func (r *approvalStepRepository) ListPendingByAssignee(ctx context.Context, userID uuid.UUID) ([]model.ExpenseApprovalStep, error) {
	var steps []model.ExpenseApprovalStep
	err := GetDB(ctx, r.db).
		Preload("Expense").
		Preload("Expense.Submitter").
		Where("assigned_user_id = ? AND status = ?", userID, model.StepStatusPending).
		Order("created_at asc").
		Find(&steps).Error
	if err != nil {
		return nil, err
	}
	return steps, nil
}

// ListDecidedByAssignee returns the user's terminal steps, most recent
// decision first, capped at limit.
func (r *approvalStepRepository) ListDecidedByAssignee(ctx context.Context, userID uuid.UUID, limit int) ([]model.ExpenseApprovalStep, error) {
	var steps []model.ExpenseApprovalStep
	err := GetDB(ctx, r.db).
		Preload("Expense").
		Preload("Expense.Submitter").
		Where("assigned_user_id = ? AND status IN ?",
			userID, []string{model.StepStatusApproved, model.StepStatusRejected, model.StepStatusSkipped}).
		Order("decision_at desc").
		Order("updated_at desc").
		Limit(limit).
		Find(&steps).Error
	if err != nil {
		return nil, err
	}
	return steps, nil
}
