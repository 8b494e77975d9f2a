package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"career-roadmap/internal/domain"
	"career-roadmap/internal/repository"
)

func newTestRepo(t *testing.T) repository.UserRepository {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repo := NewUserRepository(db)
	require.NoError(t, repo.Init(context.Background()))
	return repo
}

func TestCreateAndGet(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	user := &domain.User{Username: "ada", Email: "ada@example.com", PasswordHash: "hash"}
	require.NoError(t, repo.Create(ctx, user))
	require.NotEmpty(t, user.ID)

	byEmail, err := repo.GetByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)
	assert.Equal(t, "hash", byEmail.PasswordHash)
	assert.Nil(t, byEmail.Analysis)
	assert.Empty(t, byEmail.Roadmap)

	byID, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "ada", byID.Username)
}

func TestCreateDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	require.NoError(t, repo.Create(ctx, &domain.User{Username: "a", Email: "dup@example.com", PasswordHash: "h"}))
	err := repo.Create(ctx, &domain.User{Username: "b", Email: "DUP@example.com", PasswordHash: "h"})
	assert.ErrorIs(t, err, repository.ErrDuplicate)
}

func TestGetMissing(t *testing.T) {
	repo := newTestRepo(t)
	_, err := repo.GetByID(context.Background(), "nope")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = repo.GetByEmail(context.Background(), "nope@example.com")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestSavePlanRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	user := &domain.User{Username: "ada", Email: "ada@example.com", PasswordHash: "hash"}
	require.NoError(t, repo.Create(ctx, user))
	_, err := repo.SetTaskCompleted(ctx, user.ID, "w1-t0", true)
	require.NoError(t, err)

	update := repository.PlanUpdate{
		ResumeText: "Go developer",
		ResumeKey:  "resumes/x.pdf",
		TargetRole: "Backend Engineer",
		Analysis:   &domain.Analysis{CurrentLevel: "Intermediate", MissingSkills: []string{"Kubernetes", "gRPC"}},
		Roadmap: []domain.WeekPlan{
			{Week: 1, Title: "Containers", Description: "Basics", Tasks: []string{"Dockerise an app"}, Resources: []string{"docker"}},
			{Week: 2, Title: "Orchestration", Description: "K8s", Tasks: []string{"Deploy to kind", "Write a Helm chart"}, Resources: []string{"kubernetes", "helm"}},
		},
	}
	require.NoError(t, repo.SavePlan(ctx, user.ID, update))

	got, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, update.ResumeText, got.ResumeText)
	assert.Equal(t, update.ResumeKey, got.ResumeKey)
	assert.Equal(t, update.TargetRole, got.TargetRole)
	assert.Equal(t, update.Analysis, got.Analysis)
	assert.Equal(t, update.Roadmap, got.Roadmap)
	assert.Empty(t, got.CompletedTasks, "a new plan resets progress")
}

func TestSavePlanMissingUser(t *testing.T) {
	repo := newTestRepo(t)
	err := repo.SavePlan(context.Background(), "nope", repository.PlanUpdate{})
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestSetTaskCompletedIsIdempotent(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	user := &domain.User{Username: "ada", Email: "ada@example.com", PasswordHash: "hash"}
	require.NoError(t, repo.Create(ctx, user))

	done, err := repo.SetTaskCompleted(ctx, user.ID, "w1-t0", true)
	require.NoError(t, err)
	assert.Equal(t, []string{"w1-t0"}, done)

	done, err = repo.SetTaskCompleted(ctx, user.ID, "w1-t0", true)
	require.NoError(t, err)
	assert.Equal(t, []string{"w1-t0"}, done)

	done, err = repo.SetTaskCompleted(ctx, user.ID, "w2-t1", true)
	require.NoError(t, err)
	assert.Equal(t, []string{"w1-t0", "w2-t1"}, done)

	done, err = repo.SetTaskCompleted(ctx, user.ID, "w1-t0", false)
	require.NoError(t, err)
	assert.Equal(t, []string{"w2-t1"}, done)

	done, err = repo.SetTaskCompleted(ctx, user.ID, "w1-t0", false)
	require.NoError(t, err)
	assert.Equal(t, []string{"w2-t1"}, done)

	_, err = repo.SetTaskCompleted(ctx, "nope", "w1-t0", true)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
