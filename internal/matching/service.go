// Package matching learns which category a bill description belongs to.
package matching

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var ErrNoMatch = errors.New("no matching rule")

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=matching
type Repository interface {
	// FindCategory returns the category of the longest pattern contained in
	// description, compared case insensitively, or ErrNoMatch.
	FindCategory(ctx context.Context, description string) (uuid.UUID, error)
	CreateRule(ctx context.Context, pattern string, categoryID uuid.UUID) error
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Suggest returns the learned category for description. ok is false when no
// rule matches.
func (s *Service) Suggest(ctx context.Context, description string) (id uuid.UUID, ok bool, err error) {
	id, err = s.repo.FindCategory(ctx, strings.TrimSpace(description))
	if errors.Is(err, ErrNoMatch) {
		return uuid.Nil, false, nil
	}

	if err != nil {
		return uuid.Nil, false, fmt.Errorf("finding category rule: %w", err)
	}

	return id, true, nil
}

// Learn remembers that descriptions containing pattern belong to categoryID.
func (s *Service) Learn(ctx context.Context, pattern string, categoryID uuid.UUID) error {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return fmt.Errorf("pattern is required")
	}

	if categoryID == uuid.Nil {
		return fmt.Errorf("category is required")
	}

	return s.repo.CreateRule(ctx, pattern, categoryID)
}
