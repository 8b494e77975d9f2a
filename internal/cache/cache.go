// Package cache keeps recently read user documents close to the API.
package cache

import (
	"context"

	"career-roadmap/internal/domain"
)

// UserCache is a best-effort cache: misses and failures fall back to the repository.
//
// Every Invalidate moves a user's generation forward. Readers take a
// Generation before loading the user and hand it to SetUser, which drops the
// write if an invalidation happened in between.
type UserCache interface {
	GetUser(ctx context.Context, id string) (*domain.User, bool)
	Generation(ctx context.Context, id string) (int64, bool)
	SetUser(ctx context.Context, user *domain.User, gen int64)
	Invalidate(ctx context.Context, id string)
}

// Nop never stores anything.
type Nop struct{}

func (Nop) GetUser(context.Context, string) (*domain.User, bool) { return nil, false }
func (Nop) Generation(context.Context, string) (int64, bool) { return 0, false }
func (Nop) SetUser(context.Context, *domain.User, int64) {}
func (Nop) Invalidate(context.Context, string) {}
