package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"career-roadmap/internal/cache"
	"career-roadmap/internal/domain"
	"career-roadmap/internal/events"
	"career-roadmap/internal/extract"
	"career-roadmap/internal/llm"
	"career-roadmap/internal/repository"
	"career-roadmap/internal/storage"
)

var (
	ErrMissingResume   = &ValidationError{Msg: "No file uploaded"}
	ErrMissingRole     = &ValidationError{Msg: "Target role is required"}
	ErrUnsupportedFile = &ValidationError{Msg: "Resume must be a PDF, DOCX or plain text file"}
	ErrEmptyMessage    = &ValidationError{Msg: "Message is required"}
)

// Upload is a resume already saved to a local temp file by the transport layer.
type Upload struct {
	Path     string
	Filename string
	Role     string
}

// PlanService generates, serves and discusses study plans.
type PlanService interface {
	Generate(ctx context.Context, userID string, upload Upload) (*domain.User, error)
	Roadmap(ctx context.Context, userID string) (*domain.User, error)
	Chat(ctx context.Context, userID, message string) (string, error)
}

type PlanConfig struct {
	PlannerModel string
	ChatModel    string
	KeyPrefix    string
}

type PlanDeps struct {
	Users     repository.UserRepository
	Model     llm.Client
	Storage   storage.Service
	Cache     cache.UserCache
	Publisher events.Publisher
	Logger    *logrus.Logger
}

type planService struct {
	cfg       PlanConfig
	users     repository.UserRepository
	model     llm.Client
	storage   storage.Service
	cache     cache.UserCache
	publisher events.Publisher
	log       *logrus.Entry
}

// NewPlanService wires the plan pipeline. Storage may be nil, in which case
// resumes are not archived.
func NewPlanService(cfg PlanConfig, deps PlanDeps) PlanService {
	if deps.Cache == nil {
		deps.Cache = cache.Nop{}
	}
	if deps.Publisher == nil {
		deps.Publisher = events.Nop{}
	}
	if deps.Logger == nil {
		deps.Logger = logrus.New()
	}
	return &planService{
		cfg:       cfg,
		users:     deps.Users,
		model:     deps.Model,
		storage:   deps.Storage,
		cache:     deps.Cache,
		publisher: deps.Publisher,
		log:       deps.Logger.WithField("component", "plan"),
	}
}

func (s *planService) Generate(ctx context.Context, userID string, upload Upload) (*domain.User, error) {
	role := strings.TrimSpace(upload.Role)
	if upload.Path == "" {
		return nil, ErrMissingResume
	}
	if role == "" {
		return nil, ErrMissingRole
	}
	log := s.log.WithFields(logrus.Fields{"user_id": userID, "role": role})

	data, err := os.ReadFile(upload.Path)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	kind, err := extract.Detect(data)
	if err != nil {
		return nil, ErrUnsupportedFile
	}
	resumeText, err := extract.Text(data)
	if err != nil {
		log.WithError(err).Info("resume text extraction failed")
		return nil, invalid("Could not read any text from the resume")
	}
	resumeText = truncateRunes(resumeText, maxResumeRunes)

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	started := time.Now()
	raw, err := s.model.Complete(ctx, llm.Request{
		Model:  s.cfg.PlannerModel,
		System: plannerSystemPrompt,
		User:   plannerUserPrompt(resumeText, role),
		JSON:   true,
	})
	if err != nil {
		return nil, fmt.Errorf("planner model: %w", err)
	}
	plan, err := parsePlan(raw)
	if err != nil {
		log.WithError(err).Warn("planner returned unusable output")
		return nil, err
	}
	log.WithFields(logrus.Fields{
		"weeks":   len(plan.Roadmap),
		"latency": time.Since(started).String(),
	}).Info("plan generated")

	resumeKey := s.archive(ctx, log, user, upload.Filename, kind, data)

	err = s.users.SavePlan(ctx, userID, repository.PlanUpdate{
		ResumeText: resumeText,
		ResumeKey:  resumeKey,
		TargetRole: role,
		Analysis:   plan.Analysis,
		Roadmap:    plan.Roadmap,
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("save plan: %w", err)
	}
	s.cache.Invalidate(ctx, userID)

	evt := events.PlanGenerated{
		UserID:     userID,
		TargetRole: role,
		Weeks:      len(plan.Roadmap),
		Tasks:      len(plan.TaskIDs()),
		Timestamp:  time.Now().UTC(),
	}
	if err := s.publisher.PublishPlanGenerated(ctx, evt); err != nil {
		log.WithError(err).Warn("publish plan event")
	}

	updated, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("reload user: %w", err)
	}
	return sanitizeUser(updated), nil
}

// archive stores the uploaded file and drops the one it replaces. On failure
// the previous key is kept.
func (s *planService) archive(ctx context.Context, log *logrus.Entry, user *domain.User, filename, contentType string, data []byte) string {
	if s.storage == nil {
		return user.ResumeKey
	}
	key := storage.ResumeKey(s.cfg.KeyPrefix, user.ID, filename)
	location, err := s.storage.PutObject(ctx, key, bytes.NewReader(data), contentType)
	if err != nil {
		log.WithError(err).Warn("archive resume")
		return user.ResumeKey
	}
	log.WithField("location", location).Debug("resume archived")

	if user.ResumeKey != "" && user.ResumeKey != key {
		if err := s.storage.DeleteObject(ctx, user.ResumeKey); err != nil {
			log.WithError(err).WithField("key", user.ResumeKey).Warn("delete previous resume")
		}
	}
	return key
}

func (s *planService) Roadmap(ctx context.Context, userID string) (*domain.User, error) {
	if user, ok := s.cache.GetUser(ctx, userID); ok {
		return user, nil
	}
	gen, cacheable := s.cache.Generation(ctx, userID)
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	clean := sanitizeUser(user)
	if cacheable {
		s.cache.SetUser(ctx, clean, gen)
	}
	return clean, nil
}

func (s *planService) Chat(ctx context.Context, userID, message string) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", ErrEmptyMessage
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrUserNotFound
		}
		return "", err
	}

	reply, err := s.model.Complete(ctx, llm.Request{
		Model:  s.cfg.ChatModel,
		System: mentorSystemPrompt(user),
		User:   message,
	})
	if err != nil {
		return "", fmt.Errorf("mentor model: %w", err)
	}
	return strings.TrimSpace(reply), nil
}
