package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/taskhub-io/taskhub/internal/models"
)

// CreateToken stores an issued token. Only the hash is persisted.
func (s *Store) CreateToken(ctx context.Context, token *models.Token) error {
	query := s.db.Rebind(`INSERT INTO tokens (id, user_id, name, token_hash, created_at)
		VALUES (?, ?, ?, ?, ?)`)
	if _, err := s.db.ExecContext(ctx, query,
		token.ID, token.UserID, token.Name, token.Hash, token.CreatedAt); err != nil {
		return fmt.Errorf("failed to create token: %w", err)
	}
	return nil
}

type tokenOwner struct {
	TokenID string `db:"token_id"`
	models.User
}

// GetUserByTokenHash resolves a token hash to its owner in one query.
// It returns the owner and the token id, or ErrNotFound.
func (s *Store) GetUserByTokenHash(ctx context.Context, hash string) (*models.User, string, error) {
	query := s.db.Rebind(`SELECT t.id AS token_id,
			u.id, u.name, u.email, u.password_hash, u.created_at, u.updated_at
		FROM tokens t
		JOIN users u ON u.id = t.user_id
		WHERE t.token_hash = ?`)

	var row tokenOwner
	if err := s.db.GetContext(ctx, &row, query, hash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", ErrNotFound
		}
		return nil, "", fmt.Errorf("failed to resolve token: %w", err)
	}
	return &row.User, row.TokenID, nil
}

// TouchToken records when a token was last presented
func (s *Store) TouchToken(ctx context.Context, id string, at time.Time) error {
	query := s.db.Rebind("UPDATE tokens SET last_used_at = ? WHERE id = ?")
	if _, err := s.db.ExecContext(ctx, query, at, id); err != nil {
		return fmt.Errorf("failed to touch token: %w", err)
	}
	return nil
}

// ListTokens returns token metadata for a user, oldest first
func (s *Store) ListTokens(ctx context.Context, userID string) ([]models.Token, error) {
	tokens := []models.Token{}
	query := s.db.Rebind(`SELECT id, user_id, name, token_hash, created_at, last_used_at
		FROM tokens WHERE user_id = ? ORDER BY created_at, id`)
	if err := s.db.SelectContext(ctx, &tokens, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list tokens: %w", err)
	}
	return tokens, nil
}

// DeleteToken deletes one token owned by userID
func (s *Store) DeleteToken(ctx context.Context, userID, tokenID string) error {
	query := s.db.Rebind("DELETE FROM tokens WHERE id = ? AND user_id = ?")
	res, err := s.db.ExecContext(ctx, query, tokenID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete token: %w", err)
	}
	return rowsAffected(res)
}

// DeleteUserTokens deletes every token owned by userID and returns how many were removed
func (s *Store) DeleteUserTokens(ctx context.Context, userID string) (int64, error) {
	query := s.db.Rebind("DELETE FROM tokens WHERE user_id = ?")
	res, err := s.db.ExecContext(ctx, query, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete tokens: %w", err)
	}
	return res.RowsAffected()
}
