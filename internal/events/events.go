// Package events announces plan lifecycle changes to other services.
package events

import (
	"context"
	"time"
)

const TopicPlanGenerated = "plan.generated"

// PlanGenerated is published after a new roadmap has been stored.
type PlanGenerated struct {
	UserID     string    `json:"user_id"`
	TargetRole string    `json:"target_role"`
	Weeks      int       `json:"weeks"`
	Tasks      int       `json:"tasks"`
	Timestamp  time.Time `json:"timestamp"`
}

type Publisher interface {
	PublishPlanGenerated(ctx context.Context, evt PlanGenerated) error
}

// Nop drops every event.
type Nop struct{}

func (Nop) PublishPlanGenerated(context.Context, PlanGenerated) error { return nil }
