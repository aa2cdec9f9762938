package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/finny/internal/matching"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) FindCategory(ctx context.Context, description string) (uuid.UUID, error) {
	query := `
		SELECT category_id
		FROM category_rules
		WHERE $1 ILIKE '%' || pattern || '%'
		ORDER BY LENGTH(pattern) DESC, created_at DESC
		LIMIT 1
	`

	var id uuid.UUID

	err := s.db.QueryRowContext(ctx, query, description).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return uuid.Nil, matching.ErrNoMatch
		}

		return uuid.Nil, fmt.Errorf("finding category rule: %w", err)
	}

	return id, nil
}

func (s *Store) CreateRule(ctx context.Context, pattern string, categoryID uuid.UUID) error {
	query := `
		INSERT INTO category_rules (pattern, category_id, created_at)
		VALUES ($1, $2, NOW())
	`

	if _, err := s.db.ExecContext(ctx, query, pattern, categoryID); err != nil {
		return fmt.Errorf("creating category rule: %w", err)
	}

	return nil
}
