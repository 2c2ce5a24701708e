package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/freelance-marketplace/backend/internal/auth"
	"github.com/freelance-marketplace/backend/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type userStore interface {
	Create(ctx context.Context, u *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateLastActive(ctx context.Context, id uuid.UUID) error
}

type AuthService struct {
	users      userStore
	jwtSecret  string
	expiration time.Duration
	log        *zap.Logger
}

func NewAuthService(users userStore, jwtSecret string, expiration time.Duration, log *zap.Logger) *AuthService {
	return &AuthService{users: users, jwtSecret: jwtSecret, expiration: expiration, log: log}
}

type AuthResult struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

// Register creates an account with a single fixed role and returns a
// signed session token.
func (s *AuthService) Register(ctx context.Context, email, password, name, role string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !models.IsValidRole(role) {
		return nil, ErrInvalidRole
	}
	if len(password) < auth.MinPasswordLength {
		return nil, ErrInvalidCredentials
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Email:        email,
		PasswordHash: hash,
		Name:         name,
		Role:         role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	token, err := auth.GenerateJWT(s.jwtSecret, user.ID, user.Role, s.expiration)
	if err != nil {
		return nil, err
	}
	s.log.Info("user registered", zap.String("user_id", user.ID.String()), zap.String("role", user.Role))

	return &AuthResult{User: user, Token: token}, nil
}

// Login verifies credentials against the stored bcrypt hash. The same
// error comes back for a missing account and a wrong password.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !auth.CheckPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	token, err := auth.GenerateJWT(s.jwtSecret, user.ID, user.Role, s.expiration)
	if err != nil {
		return nil, err
	}

	if err := s.users.UpdateLastActive(ctx, user.ID); err != nil {
		s.log.Warn("update last active", zap.Error(err), zap.String("user_id", user.ID.String()))
	}

	return &AuthResult{User: user, Token: token}, nil
}

// GetUser loads a profile by id.
func (s *AuthService) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}
