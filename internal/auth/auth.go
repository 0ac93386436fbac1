package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/taskhub-io/taskhub/internal/config"
	"github.com/taskhub-io/taskhub/internal/models"
	"github.com/taskhub-io/taskhub/internal/store"
	"github.com/taskhub-io/taskhub/internal/validator"
)

var (
	// ErrInvalidCredentials covers both an unknown email and a wrong password
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnauthenticated is returned when a bearer secret does not resolve to a user
	ErrUnauthenticated = errors.New("unauthenticated")
)

// Token names recorded for the two issuing flows
const (
	RegisterTokenName = "auth_token"
	LoginTokenName    = "login"
)

// CredentialStore persists users
type CredentialStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

// TokenStore persists issued tokens by hash
type TokenStore interface {
	CreateToken(ctx context.Context, token *models.Token) error
	GetUserByTokenHash(ctx context.Context, hash string) (*models.User, string, error)
	TouchToken(ctx context.Context, id string, at time.Time) error
	ListTokens(ctx context.Context, userID string) ([]models.Token, error)
	DeleteToken(ctx context.Context, userID, tokenID string) error
	DeleteUserTokens(ctx context.Context, userID string) (int64, error)
}

// Store is everything the service needs from persistence
type Store interface {
	CredentialStore
	TokenStore
}

// Service checks credentials and issues, resolves and revokes bearer tokens
type Service struct {
	store     Store
	prefix    string
	cost      int
	dummyHash []byte
	now       func() time.Time
}

// NewService creates a Service. The dummy hash used for unknown emails is
// computed once here at the configured cost.
func NewService(s Store, cfg config.Auth) (*Service, error) {
	cost := cfg.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}

	dummy, err := bcrypt.GenerateFromPassword([]byte("taskhub-dummy-password"), cost)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare dummy hash: %w", err)
	}

	return &Service{
		store:     s,
		prefix:    cfg.TokenPrefix,
		cost:      cost,
		dummyHash: dummy,
		now:       func() time.Time { return time.Now().UTC() },
	}, nil
}

// Register validates input, creates the user and issues its first token.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*models.User, string, error) {
	in.Email = store.NormalizeEmail(in.Email)
	if err := in.Validate(); err != nil {
		return nil, "", err
	}

	hash, err := models.HashPassword(in.Password, s.cost)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.now()
	user := &models.User{
		ID:        uuid.NewString(),
		Name:      in.Name,
		Email:     in.Email,
		Password:  hash,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			return nil, "", validator.FieldError("email", "has already been taken")
		}
		return nil, "", err
	}
	log.Printf("[AUTH] Registered user %s", user.ID)

	secret, err := s.IssueToken(ctx, user, RegisterTokenName)
	if err != nil {
		return nil, "", err
	}
	return user, secret, nil
}

// Verify returns the user whose password matches. Unknown emails still pay
// for one bcrypt comparison.
func (s *Service) Verify(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !user.ValidatePassword(password) {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// Login validates input, verifies credentials and issues a new token
func (s *Service) Login(ctx context.Context, in LoginInput) (*models.User, string, error) {
	if err := in.Validate(); err != nil {
		return nil, "", err
	}

	user, err := s.Verify(ctx, in.Email, in.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			log.Printf("[AUTH] Failed login attempt")
		}
		return nil, "", err
	}

	secret, err := s.IssueToken(ctx, user, LoginTokenName)
	if err != nil {
		return nil, "", err
	}
	log.Printf("[AUTH] User %s logged in", user.ID)
	return user, secret, nil
}
