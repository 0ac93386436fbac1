package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/taskhub-io/taskhub/internal/models"
	"github.com/taskhub-io/taskhub/internal/store"
)

// HashToken returns the hex SHA-256 of a bearer secret
func HashToken(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}

// generateSecret returns prefix followed by 32 random bytes, base64url encoded
func (s *Service) generateSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return s.prefix + base64.RawURLEncoding.EncodeToString(b), nil
}

// IssueToken creates a token for user and returns the secret. The secret is
// not stored and cannot be recovered later.
func (s *Service) IssueToken(ctx context.Context, user *models.User, name string) (string, error) {
	secret, err := s.generateSecret()
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}

	token := &models.Token{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		Name:      name,
		Hash:      HashToken(secret),
		CreatedAt: s.now(),
	}
	if err := s.store.CreateToken(ctx, token); err != nil {
		return "", err
	}
	return secret, nil
}

// Resolve maps a presented secret to its owner
func (s *Service) Resolve(ctx context.Context, secret string) (*models.User, error) {
	if secret == "" {
		return nil, ErrUnauthenticated
	}

	user, tokenID, err := s.store.GetUserByTokenHash(ctx, HashToken(secret))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, err
	}

	if err := s.store.TouchToken(ctx, tokenID, s.now()); err != nil {
		log.Printf("[AUTH] Failed to record token use for %s: %v", tokenID, err)
	}
	return user, nil
}

// RevokeAll deletes every token of user, signing out all of their sessions
func (s *Service) RevokeAll(ctx context.Context, user *models.User) (int64, error) {
	n, err := s.store.DeleteUserTokens(ctx, user.ID)
	if err != nil {
		return 0, err
	}
	log.Printf("[AUTH] Revoked %d token(s) for user %s", n, user.ID)
	return n, nil
}

// ListTokens returns metadata of the tokens user holds
func (s *Service) ListTokens(ctx context.Context, user *models.User) ([]models.Token, error) {
	return s.store.ListTokens(ctx, user.ID)
}

// RevokeToken deletes one token of user; store.ErrNotFound if it is not theirs
func (s *Service) RevokeToken(ctx context.Context, user *models.User, tokenID string) error {
	return s.store.DeleteToken(ctx, user.ID, tokenID)
}
