package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"backend/internal/middleware"
	"backend/internal/model"
	"backend/internal/repository"
	"backend/pkg/apperr"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// --- DTOs ---

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

type UserResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	JobTitle string `json:"job_title"`
	Role     string `json:"role"`
}

// --- Interface ---

// AuthService is the identity boundary: it verifies credentials and issues
// tokens whose claims (id, role, job title) the rest of the system trusts
// as-is.
type AuthService interface {
	Login(ctx context.Context, req LoginRequest) (LoginResponse, error)
	GetUserByID(ctx context.Context, id string) (UserResponse, error)
}

type authService struct {
	userRepo repository.UserRepository
}

func NewAuthService(userRepo repository.UserRepository) AuthService {
	return &authService{userRepo: userRepo}
}

// --- Implementation ---

func (s *authService) Login(ctx context.Context, req LoginRequest) (LoginResponse, error) {
	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil || !user.IsActive {
		return LoginResponse{}, fmt.Errorf("%w: invalid email or password", apperr.ErrNotAuthorized)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return LoginResponse{}, fmt.Errorf("%w: invalid email or password", apperr.ErrNotAuthorized)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":       user.ID.String(),
		"role":      user.Role,
		"job_title": user.JobTitle,
		"exp":       time.Now().Add(24 * time.Hour).Unix(),
	})

	tokenString, err := token.SignedString(middleware.GetJWTSecret())
	if err != nil {
		return LoginResponse{}, fmt.Errorf("failed to sign token: %w", err)
	}

	return LoginResponse{
		Token: tokenString,
		User:  toUserResponse(user),
	}, nil
}

func (s *authService) GetUserByID(ctx context.Context, id string) (UserResponse, error) {
	userID, err := uuid.Parse(id)
	if err != nil {
		return UserResponse{}, fmt.Errorf("%w: invalid user id", apperr.ErrValidation)
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return UserResponse{}, fmt.Errorf("%w: user", apperr.ErrNotFound)
		}
		return UserResponse{}, fmt.Errorf("failed to load user: %w", err)
	}
	return toUserResponse(user), nil
}

// --- Helpers ---

func toUserResponse(user *model.User) UserResponse {
	return UserResponse{
		ID:       user.ID.String(),
		Name:     user.Name,
		Email:    user.Email,
		JobTitle: user.JobTitle,
		Role:     user.Role,
	}
}
