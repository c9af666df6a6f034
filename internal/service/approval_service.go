package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"backend/internal/model"
	"backend/internal/repository"
	"backend/pkg/apperr"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// --- DTOs ---

type ApprovalStepResponse struct {
	ID             string  `json:"id"`
	ExpenseID      string  `json:"expense_id"`
	Order          int     `json:"order"`
	ApproverTitle  string  `json:"approver_title"`
	AssignedUserID *string `json:"assigned_user_id"`
	AssignedUser   string  `json:"assigned_user,omitempty"`
	Status         string  `json:"status"`
	Comment        string  `json:"comment,omitempty"`
	DecisionAt     *string `json:"decision_at"`

	ExpenseTitle  string `json:"expense_title,omitempty"`
	ExpenseAmount string `json:"expense_amount,omitempty"`
	SubmitterName string `json:"submitter_name,omitempty"`
}

// --- Interface ---

// ApprovalService is the step sequencer. A decision lands on the single
// PENDING step of an expense inside one transaction: approval activates the
// next WAITING step or finalizes the report, rejection skips every later
// step and finalizes the report. The expense status is updated in the same
// transaction so readers never observe the pair out of sync.
type ApprovalService interface {
	ApproveStep(ctx context.Context, stepID, actorID, comment string) error
	RejectStep(ctx context.Context, stepID, actorID, comment string) error
	Queue(ctx context.Context, actorID string) ([]ApprovalStepResponse, error)
	History(ctx context.Context, actorID string) ([]ApprovalStepResponse, error)
}

// historyLimit caps the approval history listing.
const historyLimit = 50

type approvalService struct {
	stepRepo    repository.ApprovalStepRepository
	expenseRepo repository.ExpenseRepository
	userRepo    repository.UserRepository
	txManager   repository.TransactionManager
	logger      *zap.Logger
}

func NewApprovalService(
	stepRepo repository.ApprovalStepRepository,
	expenseRepo repository.ExpenseRepository,
	userRepo repository.UserRepository,
	txManager repository.TransactionManager,
	logger *zap.Logger,
) ApprovalService {
	return &approvalService{
		stepRepo:    stepRepo,
		expenseRepo: expenseRepo,
		userRepo:    userRepo,
		txManager:   txManager,
		logger:      logger,
	}
}

// --- Implementation ---

func (s *approvalService) ApproveStep(ctx context.Context, stepID, actorID, comment string) error {
	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		step, actor, err := s.loadDecidableStep(txCtx, stepID, actorID)
		if err != nil {
			return err
		}

		now := time.Now()
		step.Status = model.StepStatusApproved
		step.DecisionAt = &now
		step.Comment = strings.TrimSpace(comment)
		step.AssignedUserID = &actor
		if err := s.stepRepo.Update(txCtx, step); err != nil {
			return fmt.Errorf("failed to update step: %w", err)
		}

		next, err := s.stepRepo.FindNextWaiting(txCtx, step.ExpenseID, step.Order)
		if err != nil {
			return fmt.Errorf("failed to find next step: %w", err)
		}

		if next == nil {
			// Last link in the chain, report is fully approved.
			return s.expenseRepo.UpdateStatus(txCtx, step.ExpenseID, model.ExpenseStatusApproved)
		}

		if err := s.activateStep(txCtx, next); err != nil {
			return err
		}

		s.logger.Info("approval step advanced",
			zap.String("expense_id", step.ExpenseID.String()),
			zap.Int("approved_order", step.Order),
			zap.Int("active_order", next.Order))

		return s.expenseRepo.UpdateStatus(txCtx, step.ExpenseID, model.ExpenseStatusInReview)
	})
}

func (s *approvalService) RejectStep(ctx context.Context, stepID, actorID, comment string) error {
	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		step, actor, err := s.loadDecidableStep(txCtx, stepID, actorID)
		if err != nil {
			return err
		}

		now := time.Now()
		step.Status = model.StepStatusRejected
		step.DecisionAt = &now
		step.Comment = strings.TrimSpace(comment)
		step.AssignedUserID = &actor
		if err := s.stepRepo.Update(txCtx, step); err != nil {
			return fmt.Errorf("failed to update step: %w", err)
		}

		skipped, err := s.stepRepo.SkipFollowing(txCtx, step.ExpenseID, step.Order)
		if err != nil {
			return fmt.Errorf("failed to skip remaining steps: %w", err)
		}

		s.logger.Info("approval chain rejected",
			zap.String("expense_id", step.ExpenseID.String()),
			zap.Int("rejected_order", step.Order),
			zap.Int64("skipped", skipped))

		return s.expenseRepo.UpdateStatus(txCtx, step.ExpenseID, model.ExpenseStatusRejected)
	})
}

func (s *approvalService) Queue(ctx context.Context, actorID string) ([]ApprovalStepResponse, error) {
	userID, err := uuid.Parse(actorID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid user id", apperr.ErrValidation)
	}

	steps, err := s.stepRepo.ListPendingByAssignee(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load approval queue: %w", err)
	}
	return toApprovalStepResponses(steps), nil
}

func (s *approvalService) History(ctx context.Context, actorID string) ([]ApprovalStepResponse, error) {
	userID, err := uuid.Parse(actorID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid user id", apperr.ErrValidation)
	}

	steps, err := s.stepRepo.ListDecidedByAssignee(ctx, userID, historyLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load approval history: %w", err)
	}
	return toApprovalStepResponses(steps), nil
}

// loadDecidableStep locks the step row and runs the decision guards: the
// step must exist, must be the currently PENDING step, and must be assigned
// to the actor. An unassigned step is decidable by any approver; the actor
// is recorded as the assignee by the caller.
func (s *approvalService) loadDecidableStep(ctx context.Context, stepID, actorID string) (*model.ExpenseApprovalStep, uuid.UUID, error) {
	id, err := uuid.Parse(stepID)
	if err != nil {
		return nil, uuid.Nil, fmt.Errorf("%w: invalid step id", apperr.ErrValidation)
	}
	actor, err := uuid.Parse(actorID)
	if err != nil {
		return nil, uuid.Nil, fmt.Errorf("%w: invalid user id", apperr.ErrValidation)
	}

	step, err := s.stepRepo.FindByIDForUpdate(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, uuid.Nil, fmt.Errorf("%w: approval step", apperr.ErrNotFound)
		}
		return nil, uuid.Nil, fmt.Errorf("failed to load step: %w", err)
	}

	if step.Status != model.StepStatusPending {
		return nil, uuid.Nil, fmt.Errorf("%w: step already completed", apperr.ErrInvalidState)
	}

	if step.AssignedUserID != nil && *step.AssignedUserID != actor {
		return nil, uuid.Nil, fmt.Errorf("%w: step is assigned to another approver", apperr.ErrNotAuthorized)
	}

	return step, actor, nil
}

// activateStep moves a WAITING step to PENDING. If nobody was assigned at
// submission, the resolver runs again here: a user holding the title may
// have become active since.
func (s *approvalService) activateStep(ctx context.Context, step *model.ExpenseApprovalStep) error {
	step.Status = model.StepStatusPending

	if step.AssignedUserID == nil {
		approver, err := s.userRepo.FindActiveByJobTitle(ctx, step.ApproverTitle)
		if err != nil {
			return fmt.Errorf("failed to resolve approver for %q: %w", step.ApproverTitle, err)
		}
		if approver != nil {
			step.AssignedUserID = &approver.ID
		}
	}

	if err := s.stepRepo.Update(ctx, step); err != nil {
		return fmt.Errorf("failed to activate step: %w", err)
	}
	return nil
}

// --- Helpers ---

func toApprovalStepResponse(step model.ExpenseApprovalStep) ApprovalStepResponse {
	resp := ApprovalStepResponse{
		ID:            step.ID.String(),
		ExpenseID:     step.ExpenseID.String(),
		Order:         step.Order,
		ApproverTitle: step.ApproverTitle,
		Status:        step.Status,
		Comment:       step.Comment,
	}
	if step.AssignedUserID != nil {
		id := step.AssignedUserID.String()
		resp.AssignedUserID = &id
	}
	if step.AssignedUser != nil {
		resp.AssignedUser = step.AssignedUser.Name
	}
	if step.DecisionAt != nil {
		t := step.DecisionAt.Format(time.RFC3339)
		resp.DecisionAt = &t
	}
	if step.Expense != nil {
		resp.ExpenseTitle = step.Expense.Title
		resp.ExpenseAmount = step.Expense.Amount.StringFixed(2)
		if step.Expense.Submitter != nil {
			resp.SubmitterName = step.Expense.Submitter.Name
		}
	}
	return resp
}

func toApprovalStepResponses(steps []model.ExpenseApprovalStep) []ApprovalStepResponse {
	result := make([]ApprovalStepResponse, 0, len(steps))
	for _, step := range steps {
		result = append(result, toApprovalStepResponse(step))
	}
	return result
}
