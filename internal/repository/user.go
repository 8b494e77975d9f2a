package repository

import (
	"context"
	"errors"

	"career-roadmap/internal/domain"
)

var (
	// ErrNotFound is returned when no user matches the lookup.
	ErrNotFound = errors.New("user not found")
	// ErrDuplicate is returned when a user with the same email already exists.
	ErrDuplicate = errors.New("user already exists")
)

// PlanUpdate carries everything a successful plan generation overwrites.
type PlanUpdate struct {
	ResumeText string
	ResumeKey  string
	TargetRole string
	Analysis   *domain.Analysis
	Roadmap    []domain.WeekPlan
}

// UserRepository defines persistence operations for User entities.
type UserRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, user *domain.User) error
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	// SavePlan replaces the stored plan and clears completed tasks.
	SavePlan(ctx context.Context, id string, update PlanUpdate) error
	// SetTaskCompleted adds or removes taskID from the completed set and
	// returns the resulting set.
	SetTaskCompleted(ctx context.Context, id, taskID string, done bool) ([]string, error)
}
