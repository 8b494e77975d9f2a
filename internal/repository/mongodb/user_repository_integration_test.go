package mongodb

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"career-roadmap/internal/domain"
	"career-roadmap/internal/repository"
)

// newIntegrationRepo returns a repository on a throwaway database of the
// deployment named by MONGO_URI.
func newIntegrationRepo(t *testing.T) repository.UserRepository {
	t.Helper()
	uri := strings.TrimSpace(os.Getenv("MONGO_URI"))
	if uri == "" {
		t.Skip("set MONGO_URI to run mongo integration tests")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	client, err := Open(ctx, uri)
	require.NoError(t, err)

	db := client.Database("roadmap_it_" + strings.ReplaceAll(uuid.NewString(), "-", ""))
	t.Cleanup(func() {
		cleanupCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = db.Drop(cleanupCtx)
		_ = client.Disconnect(cleanupCtx)
	})

	repo := NewUserRepository(db)
	require.NoError(t, repo.Init(ctx))
	return repo
}

func TestMongoCreateAndGet(t *testing.T) {
	ctx := context.Background()
	repo := newIntegrationRepo(t)

	user := &domain.User{Username: "ada", Email: "ada@example.com", PasswordHash: "hash"}
	require.NoError(t, repo.Create(ctx, user))
	require.NotEmpty(t, user.ID)

	byEmail, err := repo.GetByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)
	assert.Equal(t, "hash", byEmail.PasswordHash)
	assert.Nil(t, byEmail.Analysis)
	assert.Empty(t, byEmail.Roadmap)
	assert.Empty(t, byEmail.CompletedTasks)

	byID, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "ada", byID.Username)
}

func TestMongoCreateDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	repo := newIntegrationRepo(t)

	require.NoError(t, repo.Create(ctx, &domain.User{Username: "a", Email: "dup@example.com", PasswordHash: "h"}))
	err := repo.Create(ctx, &domain.User{Username: "b", Email: "dup@example.com", PasswordHash: "h"})
	assert.ErrorIs(t, err, repository.ErrDuplicate)
}

func TestMongoGetMissing(t *testing.T) {
	ctx := context.Background()
	repo := newIntegrationRepo(t)

	_, err := repo.GetByID(ctx, "nope")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = repo.GetByID(ctx, bson.NewObjectID().Hex())
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = repo.GetByEmail(ctx, "nope@example.com")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestMongoSavePlanRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newIntegrationRepo(t)

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

func TestMongoSavePlanMissingUser(t *testing.T) {
	ctx := context.Background()
	repo := newIntegrationRepo(t)

	err := repo.SavePlan(ctx, "nope", repository.PlanUpdate{})
	assert.ErrorIs(t, err, repository.ErrNotFound)
	err = repo.SavePlan(ctx, bson.NewObjectID().Hex(), repository.PlanUpdate{})
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestMongoSetTaskCompletedIsIdempotent(t *testing.T) {
	ctx := context.Background()
	repo := newIntegrationRepo(t)

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

	done, err = repo.SetTaskCompleted(ctx, user.ID, "w2-t1", false)
	require.NoError(t, err)
	assert.Equal(t, []string{}, done)

	_, err = repo.SetTaskCompleted(ctx, "nope", "w1-t0", true)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = repo.SetTaskCompleted(ctx, bson.NewObjectID().Hex(), "w1-t0", true)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
