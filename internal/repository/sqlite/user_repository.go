package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"career-roadmap/internal/domain"
	"career-roadmap/internal/repository"
)

const createUsersTable = `
CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY,
	username TEXT NOT NULL,
	email TEXT NOT NULL UNIQUE COLLATE NOCASE,
	password_hash TEXT NOT NULL,
	resume_text TEXT NOT NULL DEFAULT '',
	resume_key TEXT NOT NULL DEFAULT '',
	target_role TEXT NOT NULL DEFAULT '',
	analysis TEXT NOT NULL DEFAULT 'null',
	roadmap TEXT NOT NULL DEFAULT '[]',
	completed_tasks TEXT NOT NULL DEFAULT '[]',
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);
`

const selectUser = `
SELECT id, username, email, password_hash, resume_text, resume_key, target_role, analysis, roadmap, completed_tasks, created_at, updated_at
FROM users
`

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) repository.UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createUsersTable); err != nil {
		return fmt.Errorf("create users table: %w", err)
	}
	return nil
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	now := time.Now().UTC()
	user.ID = uuid.NewString()
	user.CreatedAt = now
	user.UpdatedAt = now

	analysis, roadmap, completed, err := encodePlan(user.Analysis, user.Roadmap, user.CompletedTasks)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO users (id, username, email, password_hash, resume_text, resume_key, target_role, analysis, roadmap, completed_tasks, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.ResumeText,
		user.ResumeKey,
		user.TargetRole,
		analysis,
		roadmap,
		completed,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "unique") {
			return fmt.Errorf("insert user %s: %w", user.Email, repository.ErrDuplicate)
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, selectUser+`WHERE email = ?`, email)
	return scanUser(row)
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, selectUser+`WHERE id = ?`, id)
	return scanUser(row)
}

func (r *UserRepository) SavePlan(ctx context.Context, id string, update repository.PlanUpdate) error {
	analysis, roadmap, completed, err := encodePlan(update.Analysis, update.Roadmap, nil)
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx, `
UPDATE users
SET resume_text = ?, resume_key = ?, target_role = ?, analysis = ?, roadmap = ?, completed_tasks = ?, updated_at = ?
WHERE id = ?`,
		update.ResumeText,
		update.ResumeKey,
		update.TargetRole,
		analysis,
		roadmap,
		completed,
		time.Now().UTC(),
		id,
	)
	if err != nil {
		return fmt.Errorf("save plan: %w", err)
	}
	return expectOneRow(res)
}

func (r *UserRepository) SetTaskCompleted(ctx context.Context, id, taskID string, done bool) ([]string, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin task update: %w", err)
	}
	defer tx.Rollback()

	var raw string
	if err := tx.QueryRowContext(ctx, `SELECT completed_tasks FROM users WHERE id = ?`, id).Scan(&raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("load completed tasks: %w", err)
	}

	var completed []string
	if err := json.Unmarshal([]byte(raw), &completed); err != nil {
		return nil, fmt.Errorf("decode completed tasks: %w", err)
	}
	completed = applyCompletion(completed, taskID, done)

	encoded, err := json.Marshal(completed)
	if err != nil {
		return nil, fmt.Errorf("encode completed tasks: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE users SET completed_tasks = ?, updated_at = ? WHERE id = ?`,
		string(encoded), time.Now().UTC(), id); err != nil {
		return nil, fmt.Errorf("update completed tasks: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit task update: %w", err)
	}
	return completed, nil
}

// applyCompletion treats the list as a set so repeated calls are no-ops.
func applyCompletion(completed []string, taskID string, done bool) []string {
	out := make([]string, 0, len(completed)+1)
	found := false
	for _, id := range completed {
		if id == taskID {
			found = true
			if !done {
				continue
			}
		}
		out = append(out, id)
	}
	if done && !found {
		out = append(out, taskID)
	}
	return out
}

func encodePlan(analysis *domain.Analysis, roadmap []domain.WeekPlan, completed []string) (string, string, string, error) {
	if roadmap == nil {
		roadmap = []domain.WeekPlan{}
	}
	if completed == nil {
		completed = []string{}
	}
	a, err := json.Marshal(analysis)
	if err != nil {
		return "", "", "", fmt.Errorf("encode analysis: %w", err)
	}
	rm, err := json.Marshal(roadmap)
	if err != nil {
		return "", "", "", fmt.Errorf("encode roadmap: %w", err)
	}
	c, err := json.Marshal(completed)
	if err != nil {
		return "", "", "", fmt.Errorf("encode completed tasks: %w", err)
	}
	return string(a), string(rm), string(c), nil
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func scanUser(row interface {
	Scan(dest ...any) error
}) (*domain.User, error) {
	var user domain.User
	var analysis, roadmap, completed string
	if err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.ResumeText,
		&user.ResumeKey,
		&user.TargetRole,
		&analysis,
		&roadmap,
		&completed,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	if err := json.Unmarshal([]byte(analysis), &user.Analysis); err != nil {
		return nil, fmt.Errorf("decode analysis: %w", err)
	}
	if err := json.Unmarshal([]byte(roadmap), &user.Roadmap); err != nil {
		return nil, fmt.Errorf("decode roadmap: %w", err)
	}
	if err := json.Unmarshal([]byte(completed), &user.CompletedTasks); err != nil {
		return nil, fmt.Errorf("decode completed tasks: %w", err)
	}
	return &user, nil
}

var _ repository.UserRepository = (*UserRepository)(nil)
