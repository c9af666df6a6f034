package repository

import (
	"context"
	"errors"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserRepository defines data access for User entities. FindActiveByJobTitle
// is the approver resolver: it is called both when steps are created at
// submission and again when a step is activated, so a user who became active
// in between still gets assigned.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	FindActiveByJobTitle(ctx context.Context, jobTitle string) (*model.User, error)
	ListJobTitles(ctx context.Context) ([]string, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository returns a new instance of UserRepository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	return GetDB(ctx, r.db).Create(user).Error
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var user model.User
	if err := GetDB(ctx, r.db).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	if err := GetDB(ctx, r.db).First(&user, "email = ?", email).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindActiveByJobTitle returns the active user holding jobTitle, tie-broken
// by earliest account creation so assignment stays deterministic when several
// users share a title. Returns (nil, nil) when nobody holds the title.
func (r *userRepository) FindActiveByJobTitle(ctx context.Context, jobTitle string) (*model.User, error) {
	var user model.User
	err := GetDB(ctx, r.db).
		Where("job_title = ? AND is_active = ?", jobTitle, true).
		Order("created_at asc").
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) ListJobTitles(ctx context.Context) ([]string, error) {
	var titles []string
	err := GetDB(ctx, r.db).
		Model(&model.User{}).
		Where("is_active = ?", true).
		Distinct("job_title").
		Order("job_title asc").
		Pluck("job_title", &titles).Error
	if err != nil {
		return nil, err
	}
	return titles, nil
}
