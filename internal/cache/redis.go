package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"career-roadmap/internal/domain"
)

const (
	keyPrefix = "roadmap:user:"
	genPrefix = "roadmap:gen:"
)

var errStale = errors.New("user invalidated since read")

type Redis struct {
	rdb *goredis.Client
	ttl time.Duration
	log *logrus.Entry
}

// NewRedis connects to addr and verifies the server answers.
func NewRedis(ctx context.Context, addr string, ttl time.Duration, logger *logrus.Logger) (*Redis, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &Redis{
		rdb: rdb,
		ttl: ttl,
		log: logger.WithField("component", "cache"),
	}, nil
}

// cached mirrors domain.User; the password hash is never written to the cache.
type cached struct {
	ID             string            `json:"id"`
	Username       string            `json:"username"`
	Email          string            `json:"email"`
	ResumeText     string            `json:"resumeText"`
	ResumeKey      string            `json:"resumeKey"`
	TargetRole     string            `json:"targetRole"`
	Analysis       *domain.Analysis  `json:"analysis"`
	Roadmap        []domain.WeekPlan `json:"roadmap"`
	CompletedTasks []string          `json:"completedTasks"`
	CreatedAt      time.Time         `json:"createdAt"`
	UpdatedAt      time.Time         `json:"updatedAt"`
}

func (r *Redis) GetUser(ctx context.Context, id string) (*domain.User, bool) {
	raw, err := r.rdb.Get(ctx, keyPrefix+id).Bytes()
	if err != nil {
		if !errors.Is(err, goredis.Nil) {
			r.log.WithError(err).Warn("cache get failed")
		}
		return nil, false
	}
	var c cached
	if err := json.Unmarshal(raw, &c); err != nil {
		r.log.WithError(err).Warn("cache entry corrupt")
		return nil, false
	}
	return &domain.User{
		ID:             c.ID,
		Username:       c.Username,
		Email:          c.Email,
		ResumeText:     c.ResumeText,
		ResumeKey:      c.ResumeKey,
		TargetRole:     c.TargetRole,
		Analysis:       c.Analysis,
		Roadmap:        c.Roadmap,
		CompletedTasks: c.CompletedTasks,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}, true
}

func (r *Redis) Generation(ctx context.Context, id string) (int64, bool) {
	gen, err := r.rdb.Get(ctx, genPrefix+id).Int64()
	if errors.Is(err, goredis.Nil) {
		return 0, true
	}
	if err != nil {
		r.log.WithError(err).Warn("cache generation read failed")
		return 0, false
	}
	return gen, true
}

// SetUser stores u only while its generation still equals gen.
func (r *Redis) SetUser(ctx context.Context, u *domain.User, gen int64) {
	raw, err := json.Marshal(cached{
		ID:             u.ID,
		Username:       u.Username,
		Email:          u.Email,
		ResumeText:     u.ResumeText,
		ResumeKey:      u.ResumeKey,
		TargetRole:     u.TargetRole,
		Analysis:       u.Analysis,
		Roadmap:        u.Roadmap,
		CompletedTasks: u.CompletedTasks,
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
	})
	if err != nil {
		r.log.WithError(err).Warn("cache encode failed")
		return
	}

	genKey := genPrefix + u.ID
	err = r.rdb.Watch(ctx, func(tx *goredis.Tx) error {
		cur, err := tx.Get(ctx, genKey).Int64()
		if err != nil && !errors.Is(err, goredis.Nil) {
			return err
		}
		if cur != gen {
			return errStale
		}
		_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			pipe.Set(ctx, keyPrefix+u.ID, raw, r.ttl)
			return nil
		})
		return err
	}, genKey)
	switch {
	case errors.Is(err, errStale), errors.Is(err, goredis.TxFailedErr):
		r.log.WithField("user_id", u.ID).Debug("cache set skipped, entry invalidated")
	case err != nil:
		r.log.WithError(err).Warn("cache set failed")
	}
}

func (r *Redis) Invalidate(ctx context.Context, id string) {
	_, err := r.rdb.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Incr(ctx, genPrefix+id)
		pipe.Del(ctx, keyPrefix+id)
		return nil
	})
	if err != nil {
		r.log.WithError(err).Warn("cache invalidate failed")
	}
}

func (r *Redis) Close() error {
	return r.rdb.Close()
}

var _ UserCache = (*Redis)(nil)
