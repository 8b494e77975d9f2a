package service

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"career-roadmap/internal/domain"
	"career-roadmap/internal/events"
	"career-roadmap/internal/llm"
	"career-roadmap/internal/repository"
	"career-roadmap/internal/repository/sqlite"
)

const samplePlan = `{
  "analysis": {"current_level": "Intermediate", "missing_skills": ["Docker", "Kubernetes"]},
  "roadmap": [
    {"week": 1, "title": "Containers", "description": "Basics", "tasks": ["Install Docker", "Write a Dockerfile"], "resources": ["docker docs"]},
    {"week": 2, "title": "Orchestration", "description": "Clusters", "tasks": ["Run kind"], "resources": []}
  ]
}`

func newTestUsers(t *testing.T) repository.UserRepository {
	t.Helper()
	db, err := sqlite.Open(filepath.Join(t.TempDir(), "users.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repo := sqlite.NewUserRepository(db)
	require.NoError(t, repo.Init(context.Background()))
	return repo
}

func newTestLogger() *logrus.Logger {
	logger, _ := test.NewNullLogger()
	return logger
}

func writeUpload(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "resume.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

type fakeModel struct {
	mu       sync.Mutex
	reply    string
	err      error
	requests []llm.Request
}

func (f *fakeModel) Complete(_ context.Context, req llm.Request) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	return f.reply, f.err
}

func (f *fakeModel) last() llm.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

type fakeStorage struct {
	puts    map[string][]byte
	deletes []string
	putErr  error
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{puts: make(map[string][]byte)}
}

func (f *fakeStorage) PutObject(_ context.Context, key string, body io.Reader, _ string) (string, error) {
	if f.putErr != nil {
		return "", f.putErr
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	f.puts[key] = data
	return "s3://bucket/" + key, nil
}

func (f *fakeStorage) DeleteObject(_ context.Context, key string) error {
	f.deletes = append(f.deletes, key)
	return nil
}

type memoryCache struct {
	users       map[string]*domain.User
	gens        map[string]int64
	invalidated []string
}

func newMemoryCache() *memoryCache {
	return &memoryCache{users: make(map[string]*domain.User), gens: make(map[string]int64)}
}

func (c *memoryCache) GetUser(_ context.Context, id string) (*domain.User, bool) {
	u, ok := c.users[id]
	return u, ok
}

func (c *memoryCache) Generation(_ context.Context, id string) (int64, bool) {
	return c.gens[id], true
}

func (c *memoryCache) SetUser(_ context.Context, u *domain.User, gen int64) {
	if c.gens[u.ID] == gen {
		c.users[u.ID] = u
	}
}

func (c *memoryCache) Invalidate(_ context.Context, id string) {
	c.gens[id]++
	delete(c.users, id)
	c.invalidated = append(c.invalidated, id)
}

// hookedUsers runs afterGet once the wrapped repository has answered GetByID.
type hookedUsers struct {
	repository.UserRepository
	afterGet func(id string)
}

func (h *hookedUsers) GetByID(ctx context.Context, id string) (*domain.User, error) {
	u, err := h.UserRepository.GetByID(ctx, id)
	if h.afterGet != nil {
		h.afterGet(id)
	}
	return u, err
}

type recordingPublisher struct {
	events []events.PlanGenerated
	err    error
}

func (p *recordingPublisher) PublishPlanGenerated(_ context.Context, evt events.PlanGenerated) error {
	p.events = append(p.events, evt)
	return p.err
}

var errBoom = errors.New("boom")
