package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/finny/internal/category"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) CreateCategory(ctx context.Context, c *category.Category) error {
	query := `
		INSERT INTO categories (name, type, icon, color)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	if err := s.db.QueryRowContext(ctx, query, c.Name, c.Type, c.Icon, c.Color).Scan(&c.ID); err != nil {
		return fmt.Errorf("creating category: %w", err)
	}

	return nil
}

func (s *Store) GetCategory(ctx context.Context, id uuid.UUID) (*category.Category, error) {
	query := `SELECT id, name, type, icon, color FROM categories WHERE id = $1`

	var (
		c       category.Category
		typeStr string
	)

	err := s.db.QueryRowContext(ctx, query, id).Scan(&c.ID, &c.Name, &typeStr, &c.Icon, &c.Color)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, category.ErrNotFound
		}

		return nil, fmt.Errorf("getting category: %w", err)
	}

	c.Type = category.Type(typeStr)

	return &c, nil
}

func (s *Store) ListCategories(ctx context.Context) ([]*category.Category, error) {
	query := `SELECT id, name, type, icon, color FROM categories ORDER BY name ASC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	defer rows.Close()

	var categories []*category.Category

	for rows.Next() {
		var (
			c       category.Category
			typeStr string
		)

		if err := rows.Scan(&c.ID, &c.Name, &typeStr, &c.Icon, &c.Color); err != nil {
			return nil, fmt.Errorf("scanning category: %w", err)
		}

		c.Type = category.Type(typeStr)
		categories = append(categories, &c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating category rows: %w", err)
	}

	return categories, nil
}
