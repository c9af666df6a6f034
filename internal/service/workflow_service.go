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

	"gorm.io/gorm"
)

// --- DTOs ---

type UpsertWorkflowRequest struct {
	ApplicantJobTitle string   `json:"applicant_job_title" binding:"required"`
	ApproverTitles    []string `json:"approver_titles" binding:"required"`
}

type WorkflowResponse struct {
	ID                string   `json:"id"`
	ApplicantJobTitle string   `json:"applicant_job_title"`
	ApproverTitles    []string `json:"approver_titles"`
	UpdatedAt         string   `json:"updated_at"`
}

// --- Interface ---

// WorkflowService manages workflow definitions. An upsert replaces the whole
// approver chain for a job title; expenses already in flight keep the chain
// they were submitted under.
type WorkflowService interface {
	Upsert(ctx context.Context, req UpsertWorkflowRequest) (WorkflowResponse, error)
	List(ctx context.Context) ([]WorkflowResponse, error)
}

type workflowService struct {
	workflowRepo repository.WorkflowRepository
	txManager    repository.TransactionManager
}

func NewWorkflowService(workflowRepo repository.WorkflowRepository, txManager repository.TransactionManager) WorkflowService {
	return &workflowService{workflowRepo: workflowRepo, txManager: txManager}
}

// --- Implementation ---

func (s *workflowService) Upsert(ctx context.Context, req UpsertWorkflowRequest) (WorkflowResponse, error) {
	applicantTitle := strings.TrimSpace(req.ApplicantJobTitle)
	if applicantTitle == "" {
		return WorkflowResponse{}, fmt.Errorf("%w: applicant job title is required", apperr.ErrValidation)
	}

	cleanTitles := make([]string, 0, len(req.ApproverTitles))
	for _, title := range req.ApproverTitles {
		if trimmed := strings.TrimSpace(title); trimmed != "" {
			cleanTitles = append(cleanTitles, trimmed)
		}
	}
	if len(cleanTitles) == 0 {
		return WorkflowResponse{}, fmt.Errorf("%w: at least one approver title is required", apperr.ErrValidation)
	}

	steps := make([]model.WorkflowStep, 0, len(cleanTitles))
	for i, title := range cleanTitles {
		steps = append(steps, model.WorkflowStep{
			Order:         i + 1,
			ApproverTitle: title,
		})
	}

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		existing, findErr := s.workflowRepo.FindByApplicantJobTitle(txCtx, applicantTitle)
		if findErr != nil && !errors.Is(findErr, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to look up workflow: %w", findErr)
		}

		if existing != nil {
			return s.workflowRepo.ReplaceSteps(txCtx, existing.ID, steps)
		}

		workflow := model.Workflow{
			ApplicantJobTitle: applicantTitle,
			Steps:             steps,
		}
		return s.workflowRepo.Create(txCtx, &workflow)
	})
	if err != nil {
		return WorkflowResponse{}, err
	}

	workflow, err := s.workflowRepo.FindByApplicantJobTitle(ctx, applicantTitle)
	if err != nil {
		return WorkflowResponse{}, fmt.Errorf("failed to reload workflow: %w", err)
	}

	return toWorkflowResponse(*workflow), nil
}

func (s *workflowService) List(ctx context.Context) ([]WorkflowResponse, error) {
	workflows, err := s.workflowRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list workflows: %w", err)
	}

	result := make([]WorkflowResponse, 0, len(workflows))
	for _, w := range workflows {
		result = append(result, toWorkflowResponse(w))
	}
	return result, nil
}

// --- Helpers ---

func toWorkflowResponse(w model.Workflow) WorkflowResponse {
	titles := make([]string, 0, len(w.Steps))
	for _, step := range w.Steps {
		titles = append(titles, step.ApproverTitle)
	}
	return WorkflowResponse{
		ID:                w.ID.String(),
		ApplicantJobTitle: w.ApplicantJobTitle,
		ApproverTitles:    titles,
		UpdatedAt:         w.UpdatedAt.Format(time.RFC3339),
	}
}
