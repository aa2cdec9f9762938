package category

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("category not found")

// Type tells whether a category groups income or expenses.
type Type string

const (
	TypeIncome  Type = "income"
	TypeExpense Type = "expense"
)

type Category struct {
	ID    uuid.UUID
	Name  string
	Type  Type
	Icon  string
	Color string
}

//go:generate mockgen -source=category.go -destination=repository_mock.go -package=category
type Repository interface {
	CreateCategory(ctx context.Context, c *Category) error
	GetCategory(ctx context.Context, id uuid.UUID) (*Category, error)
	ListCategories(ctx context.Context) ([]*Category, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, c *Category) error {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return fmt.Errorf("category name is required")
	}

	if c.Type != TypeIncome && c.Type != TypeExpense {
		return fmt.Errorf("unknown category type %q", c.Type)
	}

	return s.repo.CreateCategory(ctx, c)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Category, error) {
	return s.repo.GetCategory(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]*Category, error) {
	return s.repo.ListCategories(ctx)
}
