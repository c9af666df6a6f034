package service

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"backend/internal/model"
	"backend/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupTestDB opens a per-test in-memory sqlite database so transactions,
// row updates and bulk skips run against a real store.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&model.User{},
		&model.Workflow{},
		&model.WorkflowStep{},
		&model.ExpenseReport{},
		&model.ExpenseApprovalStep{},
	))
	return db
}

// fakeReceiptStore records saves and deletes so tests can assert the
// compensating cleanup without touching the filesystem.
type fakeReceiptStore struct {
	saved   []string
	deleted []string
}

func (f *fakeReceiptStore) Save(_ []byte, originalName string) (string, error) {
	key := fmt.Sprintf("receipt-%d%s", len(f.saved)+1, filepath.Ext(originalName))
	f.saved = append(f.saved, key)
	return key, nil
}

func (f *fakeReceiptStore) Delete(key string) error {
	f.deleted = append(f.deleted, key)
	return nil
}

func (f *fakeReceiptStore) Resolve(key string) (string, error) {
	return "", fmt.Errorf("not stored: %s", key)
}

// failingTxManager aborts every unit of work with a fixed error.
type failingTxManager struct {
	err error
}

func (f failingTxManager) RunInTx(_ context.Context, _ func(context.Context) error) error {
	return f.err
}

type fixtures struct {
	db    *gorm.DB
	store *fakeReceiptStore

	userRepo     repository.UserRepository
	workflowRepo repository.WorkflowRepository
	expenseRepo  repository.ExpenseRepository
	stepRepo     repository.ApprovalStepRepository
	txManager    repository.TransactionManager

	expenses  ExpenseService
	approvals ApprovalService
	workflows WorkflowService
}

func newFixtures(t *testing.T) *fixtures {
	t.Helper()

	db := setupTestDB(t)
	store := &fakeReceiptStore{}
	logger := zap.NewNop()

	userRepo := repository.NewUserRepository(db)
	workflowRepo := repository.NewWorkflowRepository(db)
	expenseRepo := repository.NewExpenseRepository(db)
	stepRepo := repository.NewApprovalStepRepository(db)
	txManager := repository.NewTransactionManager(db)

	return &fixtures{
		db:           db,
		store:        store,
		userRepo:     userRepo,
		workflowRepo: workflowRepo,
		expenseRepo:  expenseRepo,
		stepRepo:     stepRepo,
		txManager:    txManager,
		expenses:     NewExpenseService(userRepo, workflowRepo, expenseRepo, stepRepo, txManager, store, logger),
		approvals:    NewApprovalService(stepRepo, expenseRepo, userRepo, txManager, logger),
		workflows:    NewWorkflowService(workflowRepo, txManager),
	}
}

func (f *fixtures) createUser(t *testing.T, name, email, jobTitle, role string) *model.User {
	t.Helper()
	user := &model.User{
		Name:         name,
		Email:        email,
		PasswordHash: "x",
		JobTitle:     jobTitle,
		Role:         role,
		IsActive:     true,
	}
	require.NoError(t, f.db.Create(user).Error)
	return user
}

func (f *fixtures) upsertWorkflow(t *testing.T, applicantTitle string, approverTitles ...string) {
	t.Helper()
	_, err := f.workflows.Upsert(context.Background(), UpsertWorkflowRequest{
		ApplicantJobTitle: applicantTitle,
		ApproverTitles:    approverTitles,
	})
	require.NoError(t, err)
}

func (f *fixtures) submit(t *testing.T, submitter *model.User, title, amount string) ExpenseResponse {
	t.Helper()
	expense, err := f.expenses.Submit(context.Background(), submitter.ID.String(), SubmitExpenseRequest{
		Title:  title,
		Amount: amount,
	})
	require.NoError(t, err)
	return expense
}

func (f *fixtures) loadExpense(t *testing.T, id string) model.ExpenseReport {
	t.Helper()
	var expense model.ExpenseReport
	require.NoError(t, f.db.First(&expense, "id = ?", uuid.MustParse(id)).Error)
	return expense
}

func (f *fixtures) loadSteps(t *testing.T, expenseID string) []model.ExpenseApprovalStep {
	t.Helper()
	var steps []model.ExpenseApprovalStep
	require.NoError(t, f.db.
		Where("expense_id = ?", uuid.MustParse(expenseID)).
		Order("step_order asc").
		Find(&steps).Error)
	return steps
}

// assertSinglePending checks the core chain invariant: never more than one
// PENDING step per expense.
func assertSinglePending(t *testing.T, steps []model.ExpenseApprovalStep) {
	t.Helper()
	pending := 0
	for _, step := range steps {
		if step.Status == model.StepStatusPending {
			pending++
		}
	}
	require.LessOrEqual(t, pending, 1, "more than one PENDING step")
}

// assertContiguousOrders checks that step orders are exactly 1..N.
func assertContiguousOrders(t *testing.T, steps []model.ExpenseApprovalStep) {
	t.Helper()
	for i, step := range steps {
		require.Equal(t, i+1, step.Order)
	}
}

func timePtr(ts time.Time) *time.Time {
	return &ts
}
