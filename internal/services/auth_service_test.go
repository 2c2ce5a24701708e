package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/freelance-marketplace/backend/internal/auth"
	"github.com/freelance-marketplace/backend/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type stubUserStore struct {
	users map[uuid.UUID]*models.User
}

func newStubUserStore() *stubUserStore {
	return &stubUserStore{users: make(map[uuid.UUID]*models.User)}
}

func (s *stubUserStore) Create(ctx context.Context, u *models.User) error {
	u.ID = uuid.New()
	u.CreatedAt = time.Now()
	s.users[u.ID] = u
	return nil
}

func (s *stubUserStore) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return u, nil
}

func (s *stubUserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (s *stubUserStore) UpdateLastActive(ctx context.Context, id uuid.UUID) error {
	return nil
}

func newAuthFixture() (*AuthService, *stubUserStore) {
	store := newStubUserStore()
	return NewAuthService(store, "test-secret", time.Hour, zap.NewNop()), store
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _ := newAuthFixture()

	res, err := svc.Register(context.Background(), "Anna@Example.com", "correct-horse", "Anna", models.RoleClient)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if res.User.Email != "anna@example.com" {
		t.Errorf("email = %s, want lowercased", res.User.Email)
	}
	if res.Token == "" {
		t.Error("empty token")
	}

	claims, err := auth.ParseJWT("test-secret", res.Token)
	if err != nil {
		t.Fatalf("ParseJWT: %v", err)
	}
	if claims.UserID != res.User.ID || claims.Role != models.RoleClient {
		t.Errorf("claims = %+v", claims)
	}

	login, err := svc.Login(context.Background(), "anna@example.com", "correct-horse")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if login.User.ID != res.User.ID {
		t.Errorf("login user mismatch")
	}
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := newAuthFixture()

	if _, err := svc.Register(context.Background(), "a@b.com", "longenough", "A", "admin"); !errors.Is(err, ErrInvalidRole) {
		t.Errorf("bad role err = %v, want ErrInvalidRole", err)
	}
	if _, err := svc.Register(context.Background(), "a@b.com", "short", "A", models.RoleClient); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("short password err = %v, want ErrInvalidCredentials", err)
	}

	if _, err := svc.Register(context.Background(), "a@b.com", "longenough", "A", models.RoleClient); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := svc.Register(context.Background(), "A@B.com", "longenough", "B", models.RoleFreelancer); !errors.Is(err, ErrEmailTaken) {
		t.Errorf("duplicate email err = %v, want ErrEmailTaken", err)
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	svc, _ := newAuthFixture()
	if _, err := svc.Register(context.Background(), "a@b.com", "longenough", "A", models.RoleFreelancer); err != nil {
		t.Fatalf("Register: %v", err)
	}

	if _, err := svc.Login(context.Background(), "a@b.com", "wrong-password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password err = %v, want ErrInvalidCredentials", err)
	}
	if _, err := svc.Login(context.Background(), "nobody@b.com", "longenough"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown email err = %v, want ErrInvalidCredentials", err)
	}
}
