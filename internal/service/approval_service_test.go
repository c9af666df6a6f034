package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"backend/internal/model"
	"backend/pkg/apperr"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApprove_ActivatesNextStep(t *testing.T) {
	f := newFixtures(t)
	engineer := f.createUser(t, "Erin Engineer", "engineer@example.com", "Engineer", model.RoleEmployee)
	lead := f.createUser(t, "Liam Lead", "lead@example.com", "Team Lead", model.RoleApprover)
	f.createUser(t, "Fiona Finance", "finance@example.com", "Finance", model.RoleApprover)
	f.upsertWorkflow(t, "Engineer", "Team Lead", "Finance")

	expense := f.submit(t, engineer, "Conference travel", "1200")
	steps := f.loadSteps(t, expense.ID)

	err := f.approvals.ApproveStep(context.Background(), steps[0].ID.String(), lead.ID.String(), "looks good")
	require.NoError(t, err)

	steps = f.loadSteps(t, expense.ID)
	assertSinglePending(t, steps)
	assert.Equal(t, model.StepStatusApproved, steps[0].Status)
	assert.Equal(t, "looks good", steps[0].Comment)
	require.NotNil(t, steps[0].DecisionAt)
	assert.Equal(t, model.StepStatusPending, steps[1].Status)

	assert.Equal(t, model.ExpenseStatusInReview, f.loadExpense(t, expense.ID).Status)
}

func TestApprove_LastStepApprovesExpense(t *testing.T) {
	f := newFixtures(t)
	director := f.createUser(t, "Derek Director", "director@example.com", "Director", model.RoleEmployee)
	finance := f.createUser(t, "Fiona Finance", "finance@example.com", "Finance", model.RoleApprover)
	f.upsertWorkflow(t, "Director", "Finance")

	expense := f.submit(t, director, "Board dinner", "300")
	steps := f.loadSteps(t, expense.ID)
	require.Len(t, steps, 1)

	err := f.approvals.ApproveStep(context.Background(), steps[0].ID.String(), finance.ID.String(), "")
	require.NoError(t, err)

	assert.Equal(t, model.ExpenseStatusApproved, f.loadExpense(t, expense.ID).Status)

	for _, step := range f.loadSteps(t, expense.ID) {
		assert.NotEqual(t, model.StepStatusWaiting, step.Status)
	}
}

func TestApprove_FullChainApprovesExpense(t *testing.T) {
	f := newFixtures(t)
	engineer := f.createUser(t, "Erin Engineer", "engineer@example.com", "Engineer", model.RoleEmployee)
	lead := f.createUser(t, "Liam Lead", "lead@example.com", "Team Lead", model.RoleApprover)
	finance := f.createUser(t, "Fiona Finance", "finance@example.com", "Finance", model.RoleApprover)
	f.upsertWorkflow(t, "Engineer", "Team Lead", "Finance")

	expense := f.submit(t, engineer, "Conference travel", "1200")
	steps := f.loadSteps(t, expense.ID)

	require.NoError(t, f.approvals.ApproveStep(context.Background(), steps[0].ID.String(), lead.ID.String(), ""))
	steps = f.loadSteps(t, expense.ID)
	require.NoError(t, f.approvals.ApproveStep(context.Background(), steps[1].ID.String(), finance.ID.String(), ""))

	assert.Equal(t, model.ExpenseStatusApproved, f.loadExpense(t, expense.ID).Status)
	for _, step := range f.loadSteps(t, expense.ID) {
		assert.Equal(t, model.StepStatusApproved, step.Status)
	}
}

func TestReject_SkipsAllLaterSteps(t *testing.T) {
	f := newFixtures(t)
	engineer := f.createUser(t, "Erin Engineer", "engineer@example.com", "Engineer", model.RoleEmployee)
	lead := f.createUser(t, "Liam Lead", "lead@example.com", "Team Lead", model.RoleApprover)
	f.createUser(t, "Fiona Finance", "finance@example.com", "Finance", model.RoleApprover)
	f.createUser(t, "Derek Director", "director@example.com", "Director", model.RoleApprover)
	f.upsertWorkflow(t, "Engineer", "Team Lead", "Finance", "Director")

	expense := f.submit(t, engineer, "Conference travel", "1200")
	steps := f.loadSteps(t, expense.ID)

	err := f.approvals.RejectStep(context.Background(), steps[0].ID.String(), lead.ID.String(), "over budget")
	require.NoError(t, err)

	steps = f.loadSteps(t, expense.ID)
	assert.Equal(t, model.StepStatusRejected, steps[0].Status)
	assert.Equal(t, "over budget", steps[0].Comment)
	assert.Equal(t, model.StepStatusSkipped, steps[1].Status)
	assert.Equal(t, model.StepStatusSkipped, steps[2].Status)
	assertSinglePending(t, steps)

	assert.Equal(t, model.ExpenseStatusRejected, f.loadExpense(t, expense.ID).Status)
}

func TestReject_MidChainSkipsOnlyLaterSteps(t *testing.T) {
	f := newFixtures(t)
	engineer := f.createUser(t, "Erin Engineer", "engineer@example.com", "Engineer", model.RoleEmployee)
	lead := f.createUser(t, "Liam Lead", "lead@example.com", "Team Lead", model.RoleApprover)
	finance := f.createUser(t, "Fiona Finance", "finance@example.com", "Finance", model.RoleApprover)
	f.createUser(t, "Derek Director", "director@example.com", "Director", model.RoleApprover)
	f.upsertWorkflow(t, "Engineer", "Team Lead", "Finance", "Director")

	expense := f.submit(t, engineer, "Conference travel", "1200")
	steps := f.loadSteps(t, expense.ID)

	require.NoError(t, f.approvals.ApproveStep(context.Background(), steps[0].ID.String(), lead.ID.String(), ""))
	steps = f.loadSteps(t, expense.ID)
	require.NoError(t, f.approvals.RejectStep(context.Background(), steps[1].ID.String(), finance.ID.String(), "missing receipt"))

	steps = f.loadSteps(t, expense.ID)
	assert.Equal(t, model.StepStatusApproved, steps[0].Status, "earlier decisions stay terminal")
	assert.Equal(t, model.StepStatusRejected, steps[1].Status)
	assert.Equal(t, model.StepStatusSkipped, steps[2].Status)
	assert.Equal(t, model.ExpenseStatusRejected, f.loadExpense(t, expense.ID).Status)
}

func TestDecide_TwiceFailsWithInvalidState(t *testing.T) {
	f := newFixtures(t)
	director := f.createUser(t, "Derek Director", "director@example.com", "Director", model.RoleEmployee)
	finance := f.createUser(t, "Fiona Finance", "finance@example.com", "Finance", model.RoleApprover)
	f.upsertWorkflow(t, "Director", "Finance")

	expense := f.submit(t, director, "Board dinner", "300")
	stepID := f.loadSteps(t, expense.ID)[0].ID.String()

	require.NoError(t, f.approvals.ApproveStep(context.Background(), stepID, finance.ID.String(), ""))

	err := f.approvals.ApproveStep(context.Background(), stepID, finance.ID.String(), "")
	require.ErrorIs(t, err, apperr.ErrInvalidState)

	err = f.approvals.RejectStep(context.Background(), stepID, finance.ID.String(), "")
	require.ErrorIs(t, err, apperr.ErrInvalidState)
}

func TestDecide_OnWaitingStepFailsWithInvalidState(t *testing.T) {
	f := newFixtures(t)
	engineer := f.createUser(t, "Erin Engineer", "engineer@example.com", "Engineer", model.RoleEmployee)
	f.createUser(t, "Liam Lead", "lead@example.com", "Team Lead", model.RoleApprover)
	finance := f.createUser(t, "Fiona Finance", "finance@example.com", "Finance", model.RoleApprover)
	f.upsertWorkflow(t, "Engineer", "Team Lead", "Finance")

	expense := f.submit(t, engineer, "Conference travel", "1200")
	steps := f.loadSteps(t, expense.ID)

	// Step 2 is still WAITING; deciding out of order must fail.
	err := f.approvals.ApproveStep(context.Background(), steps[1].ID.String(), finance.ID.String(), "")
	require.ErrorIs(t, err, apperr.ErrInvalidState)
}

func TestDecide_WrongActorFailsWithAuthorizationError(t *testing.T) {
	f := newFixtures(t)
	engineer := f.createUser(t, "Erin Engineer", "engineer@example.com", "Engineer", model.RoleEmployee)
	f.createUser(t, "Liam Lead", "lead@example.com", "Team Lead", model.RoleApprover)
	finance := f.createUser(t, "Fiona Finance", "finance@example.com", "Finance", model.RoleApprover)
	f.upsertWorkflow(t, "Engineer", "Team Lead", "Finance")

	expense := f.submit(t, engineer, "Conference travel", "1200")
	stepID := f.loadSteps(t, expense.ID)[0].ID.String()

	// Step 1 is assigned to the lead; finance may not decide it.
	err := f.approvals.ApproveStep(context.Background(), stepID, finance.ID.String(), "")
	require.ErrorIs(t, err, apperr.ErrNotAuthorized)

	steps := f.loadSteps(t, expense.ID)
	assert.Equal(t, model.StepStatusPending, steps[0].Status, "failed decision must not mutate the step")
}

func TestDecide_UnknownStepFailsWithNotFound(t *testing.T) {
	f := newFixtures(t)
	finance := f.createUser(t, "Fiona Finance", "finance@example.com", "Finance", model.RoleApprover)

	err := f.approvals.ApproveStep(context.Background(), uuid.NewString(), finance.ID.String(), "")
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestDecide_UnassignedStepRecordsActorAsAssignee(t *testing.T) {
	f := newFixtures(t)
	engineer := f.createUser(t, "Erin Engineer", "engineer@example.com", "Engineer", model.RoleEmployee)
	admin := f.createUser(t, "Avery Admin", "admin@example.com", "Finance Director", model.RoleAdmin)
	f.upsertWorkflow(t, "Engineer", "Team Lead")

	expense := f.submit(t, engineer, "Conference travel", "1200")
	steps := f.loadSteps(t, expense.ID)
	require.Nil(t, steps[0].AssignedUserID)

	// Nobody holds "Team Lead", so any approver-side actor may decide.
	err := f.approvals.ApproveStep(context.Background(), steps[0].ID.String(), admin.ID.String(), "")
	require.NoError(t, err)

	steps = f.loadSteps(t, expense.ID)
	require.NotNil(t, steps[0].AssignedUserID)
	assert.Equal(t, admin.ID, *steps[0].AssignedUserID)
	assert.Equal(t, model.ExpenseStatusApproved, f.loadExpense(t, expense.ID).Status)
}

func TestApprove_LateResolvesAssigneeOnActivation(t *testing.T) {
	f := newFixtures(t)
	engineer := f.createUser(t, "Erin Engineer", "engineer@example.com", "Engineer", model.RoleEmployee)
	lead := f.createUser(t, "Liam Lead", "lead@example.com", "Team Lead", model.RoleApprover)
	f.upsertWorkflow(t, "Engineer", "Team Lead", "Finance")

	expense := f.submit(t, engineer, "Conference travel", "1200")
	steps := f.loadSteps(t, expense.ID)
	require.Nil(t, steps[1].AssignedUserID, "no Finance user at submission")

	// Finance is hired between submission and the first decision.
	finance := f.createUser(t, "Fiona Finance", "finance@example.com", "Finance", model.RoleApprover)

	require.NoError(t, f.approvals.ApproveStep(context.Background(), steps[0].ID.String(), lead.ID.String(), ""))

	steps = f.loadSteps(t, expense.ID)
	assert.Equal(t, model.StepStatusPending, steps[1].Status)
	require.NotNil(t, steps[1].AssignedUserID)
	assert.Equal(t, finance.ID, *steps[1].AssignedUserID)
}

func TestQueue_ListsPendingStepsForAssignee(t *testing.T) {
	f := newFixtures(t)
	engineer := f.createUser(t, "Erin Engineer", "engineer@example.com", "Engineer", model.RoleEmployee)
	lead := f.createUser(t, "Liam Lead", "lead@example.com", "Team Lead", model.RoleApprover)
	f.createUser(t, "Fiona Finance", "finance@example.com", "Finance", model.RoleApprover)
	f.upsertWorkflow(t, "Engineer", "Team Lead", "Finance")

	first := f.submit(t, engineer, "Conference travel", "1200")
	second := f.submit(t, engineer, "Team dinner", "80")

	queue, err := f.approvals.Queue(context.Background(), lead.ID.String())
	require.NoError(t, err)
	require.Len(t, queue, 2)
	assert.Equal(t, first.ID, queue[0].ExpenseID)
	assert.Equal(t, second.ID, queue[1].ExpenseID)
	for _, item := range queue {
		assert.Equal(t, model.StepStatusPending, item.Status)
		assert.Equal(t, "Erin Engineer", item.SubmitterName)
	}
}

func TestHistory_ReturnsDecidedStepsNewestFirstCapped(t *testing.T) {
	f := newFixtures(t)
	finance := f.createUser(t, "Fiona Finance", "finance@example.com", "Finance", model.RoleApprover)

	expense := model.ExpenseReport{
		Title:       "Bulk history",
		Amount:      decimal.NewFromInt(10),
		Status:      model.ExpenseStatusApproved,
		SubmitterID: finance.ID,
	}
	require.NoError(t, f.db.Create(&expense).Error)

	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	for i := 1; i <= 55; i++ {
		step := model.ExpenseApprovalStep{
			ExpenseID:      expense.ID,
			Order:          i,
			ApproverTitle:  "Finance",
			AssignedUserID: &finance.ID,
			Status:         model.StepStatusApproved,
			Comment:        fmt.Sprintf("decision %d", i),
			DecisionAt:     timePtr(base.Add(time.Duration(i) * time.Minute)),
		}
		require.NoError(t, f.db.Create(&step).Error)
	}

	history, err := f.approvals.History(context.Background(), finance.ID.String())
	require.NoError(t, err)
	require.Len(t, history, 50, "history is capped at 50")
	assert.Equal(t, "decision 55", history[0].Comment)
	assert.Equal(t, "decision 6", history[49].Comment)
}
