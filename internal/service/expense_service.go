package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"backend/internal/model"
	"backend/internal/repository"
	"backend/internal/storage"
	"backend/pkg/apperr"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// --- DTOs ---

type SubmitExpenseRequest struct {
	Title       string
	Amount      string // decimal string from the form
	Description string
	Receipt     []byte // nil when no receipt was attached
	ReceiptName string
}

type ExpenseResponse struct {
	ID          string                 `json:"id"`
	Title       string                 `json:"title"`
	Amount      string                 `json:"amount"`
	Description string                 `json:"description"`
	ReceiptKey  string                 `json:"receipt_key,omitempty"`
	Status      string                 `json:"status"`
	SubmitterID string                 `json:"submitter_id"`
	Approvals   []ApprovalStepResponse `json:"approvals,omitempty"`
	CreatedAt   string                 `json:"created_at"`
}

// --- Interface ---

// ExpenseService owns expense submission: it looks up the submitter's
// workflow, snapshots the approver chain onto approval steps, activates the
// first step and sets the report IN_REVIEW, all in one transaction.
type ExpenseService interface {
	Submit(ctx context.Context, submitterID string, req SubmitExpenseRequest) (ExpenseResponse, error)
	ListBySubmitter(ctx context.Context, submitterID string, offset, limit int) ([]ExpenseResponse, int64, error)
}

type expenseService struct {
	userRepo     repository.UserRepository
	workflowRepo repository.WorkflowRepository
	expenseRepo  repository.ExpenseRepository
	stepRepo     repository.ApprovalStepRepository
	txManager    repository.TransactionManager
	receipts     storage.ReceiptStore
	logger       *zap.Logger
}

func NewExpenseService(
	userRepo repository.UserRepository,
	workflowRepo repository.WorkflowRepository,
	expenseRepo repository.ExpenseRepository,
	stepRepo repository.ApprovalStepRepository,
	txManager repository.TransactionManager,
	receipts storage.ReceiptStore,
	logger *zap.Logger,
) ExpenseService {
	return &expenseService{
		userRepo:     userRepo,
		workflowRepo: workflowRepo,
		expenseRepo:  expenseRepo,
		stepRepo:     stepRepo,
		txManager:    txManager,
		receipts:     receipts,
		logger:       logger,
	}
}

// --- Implementation ---

func (s *expenseService) Submit(ctx context.Context, submitterID string, req SubmitExpenseRequest) (ExpenseResponse, error) {
	userID, err := uuid.Parse(submitterID)
	if err != nil {
		return ExpenseResponse{}, fmt.Errorf("%w: invalid submitter id", apperr.ErrValidation)
	}

	submitter, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ExpenseResponse{}, fmt.Errorf("%w: submitter", apperr.ErrNotFound)
		}
		return ExpenseResponse{}, fmt.Errorf("failed to load submitter: %w", err)
	}

	title := strings.TrimSpace(req.Title)
	if len(title) < 3 {
		return ExpenseResponse{}, fmt.Errorf("%w: title must be at least 3 characters", apperr.ErrValidation)
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return ExpenseResponse{}, fmt.Errorf("%w: amount must be a number", apperr.ErrValidation)
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return ExpenseResponse{}, fmt.Errorf("%w: amount must be greater than 0", apperr.ErrValidation)
	}

	workflow, err := s.workflowRepo.FindByApplicantJobTitle(ctx, submitter.JobTitle)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return ExpenseResponse{}, fmt.Errorf("failed to look up workflow: %w", err)
	}
	if workflow == nil || len(workflow.Steps) == 0 {
		return ExpenseResponse{}, fmt.Errorf("%w: no approval workflow for job title %q", apperr.ErrNotConfigured, submitter.JobTitle)
	}

	// The receipt is written before the transaction opens; file I/O cannot
	// join the database transaction, so a failed commit is compensated by a
	// best-effort delete below.
	receiptKey := ""
	if len(req.Receipt) > 0 {
		receiptKey, err = s.receipts.Save(req.Receipt, req.ReceiptName)
		if err != nil {
			return ExpenseResponse{}, fmt.Errorf("failed to store receipt: %w", err)
		}
	}

	expense := model.ExpenseReport{
		Title:       title,
		Amount:      amount,
		Description: strings.TrimSpace(req.Description),
		ReceiptPath: receiptKey,
		Status:      model.ExpenseStatusInReview,
		SubmitterID: submitter.ID,
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if createErr := s.expenseRepo.Create(txCtx, &expense); createErr != nil {
			return fmt.Errorf("failed to create expense: %w", createErr)
		}

		for _, wfStep := range workflow.Steps {
			approver, resolveErr := s.userRepo.FindActiveByJobTitle(txCtx, wfStep.ApproverTitle)
			if resolveErr != nil {
				return fmt.Errorf("failed to resolve approver for %q: %w", wfStep.ApproverTitle, resolveErr)
			}

			step := model.ExpenseApprovalStep{
				ExpenseID:     expense.ID,
				Order:         wfStep.Order,
				ApproverTitle: wfStep.ApproverTitle,
				Status:        model.StepStatusWaiting,
			}
			if wfStep.Order == 1 {
				step.Status = model.StepStatusPending
			}
			if approver != nil {
				step.AssignedUserID = &approver.ID
			}

			if createErr := s.stepRepo.Create(txCtx, &step); createErr != nil {
				return fmt.Errorf("failed to create approval step %d: %w", wfStep.Order, createErr)
			}
		}
		return nil
	})
	if err != nil {
		if receiptKey != "" {
			if cleanupErr := s.receipts.Delete(receiptKey); cleanupErr != nil {
				s.logger.Warn("failed to clean up orphaned receipt",
					zap.String("key", receiptKey),
					zap.Error(cleanupErr))
			}
		}
		return ExpenseResponse{}, err
	}

	created, err := s.expenseRepo.FindByID(ctx, expense.ID)
	if err != nil {
		return ExpenseResponse{}, fmt.Errorf("failed to reload expense: %w", err)
	}
	return toExpenseResponse(*created), nil
}

func (s *expenseService) ListBySubmitter(ctx context.Context, submitterID string, offset, limit int) ([]ExpenseResponse, int64, error) {
	userID, err := uuid.Parse(submitterID)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: invalid submitter id", apperr.ErrValidation)
	}

	expenses, total, err := s.expenseRepo.ListBySubmitter(ctx, userID, offset, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list expenses: %w", err)
	}

	result := make([]ExpenseResponse, 0, len(expenses))
	for _, e := range expenses {
		result = append(result, toExpenseResponse(e))
	}
	return result, total, nil
}

// --- Helpers ---

func toExpenseResponse(e model.ExpenseReport) ExpenseResponse {
	resp := ExpenseResponse{
		ID:          e.ID.String(),
		Title:       e.Title,
		Amount:      e.Amount.StringFixed(2),
		Description: e.Description,
		ReceiptKey:  e.ReceiptPath,
		Status:      e.Status,
		SubmitterID: e.SubmitterID.String(),
		CreatedAt:   e.CreatedAt.Format(time.RFC3339),
	}
	for _, step := range e.Approvals {
		resp.Approvals = append(resp.Approvals, toApprovalStepResponse(step))
	}
	return resp
}
