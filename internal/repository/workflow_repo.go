package repository

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// WorkflowRepository defines data access for workflow definitions. Steps are
// always loaded in chain order.
type WorkflowRepository interface {
	FindByApplicantJobTitle(ctx context.Context, applicantJobTitle string) (*model.Workflow, error)
	List(ctx context.Context) ([]model.Workflow, error)
	Create(ctx context.Context, workflow *model.Workflow) error
	ReplaceSteps(ctx context.Context, workflowID uuid.UUID, steps []model.WorkflowStep) error
}

type workflowRepository struct {
	db *gorm.DB
}

func NewWorkflowRepository(db *gorm.DB) WorkflowRepository {
	return &workflowRepository{db: db}
}

func orderedSteps(db *gorm.DB) *gorm.DB {
	return db.Order("step_order asc")
}

func (r *workflowRepository) FindByApplicantJobTitle(ctx context.Context, applicantJobTitle string) (*model.Workflow, error) {
	var workflow model.Workflow
	err := GetDB(ctx, r.db).
		Preload("Steps", orderedSteps).
		First(&workflow, "applicant_job_title = ?", applicantJobTitle).Error
	if err != nil {
		return nil, err
	}
	return &workflow, nil
}

func (r *workflowRepository) List(ctx context.Context) ([]model.Workflow, error) {
	var workflows []model.Workflow
	err := GetDB(ctx, r.db).
		Preload("Steps", orderedSteps).
		Order("applicant_job_title asc").
		Find(&workflows).Error
	if err != nil {
		return nil, err
	}
	return workflows, nil
}

func (r *workflowRepository) Create(ctx context.Context, workflow *model.Workflow) error {
	return GetDB(ctx, r.db).Create(workflow).Error
}

// ReplaceSteps swaps the entire step list of a workflow. Callers run this
// through the TransactionManager so a partially replaced chain is never
// observable.
func (r *workflowRepository) ReplaceSteps(ctx context.Context, workflowID uuid.UUID, steps []model.WorkflowStep) error {
	db := GetDB(ctx, r.db)
	if err := db.Where("workflow_id = ?", workflowID).Delete(&model.WorkflowStep{}).Error; err != nil {
		return err
	}
	for i := range steps {
		steps[i].WorkflowID = workflowID
	}
	return db.Create(&steps).Error
}
