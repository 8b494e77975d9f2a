package http

import (
	"time"

	"career-roadmap/internal/domain"
)

type authResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

// UserResponse is the public view of a user. It never carries the password.
type UserResponse struct {
	ID             string            `json:"id"`
	Username       string            `json:"username"`
	Email          string            `json:"email"`
	ResumeText     string            `json:"resumeText"`
	TargetRole     string            `json:"targetRole"`
	Analysis       *domain.Analysis  `json:"analysis"`
	Roadmap        []domain.WeekPlan `json:"roadmap"`
	CompletedTasks []string          `json:"completedTasks"`
	CreatedAt      string            `json:"createdAt"`
	UpdatedAt      string            `json:"updatedAt"`
}

func toUserResponse(user *domain.User) UserResponse {
	resp := UserResponse{
		ID:             user.ID,
		Username:       user.Username,
		Email:          user.Email,
		ResumeText:     user.ResumeText,
		TargetRole:     user.TargetRole,
		Analysis:       user.Analysis,
		Roadmap:        user.Roadmap,
		CompletedTasks: user.CompletedTasks,
		CreatedAt:      user.CreatedAt.Format(time.RFC3339),
		UpdatedAt:      user.UpdatedAt.Format(time.RFC3339),
	}
	if resp.Roadmap == nil {
		resp.Roadmap = []domain.WeekPlan{}
	}
	if resp.CompletedTasks == nil {
		resp.CompletedTasks = []string{}
	}
	return resp
}
