package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// User is the single persisted aggregate: identity, the latest resume
// snapshot, the generated plan and the user's progress through it.
type User struct {
	ID             string
	Username       string
	Email          string
	PasswordHash   string
	ResumeText     string
	ResumeKey      string
	TargetRole     string
	Analysis       *Analysis
	Roadmap        []WeekPlan
	CompletedTasks []string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// HasTask reports whether taskID addresses a task of the current roadmap.
func (u *User) HasTask(taskID string) bool {
	week, index, err := ParseTaskID(taskID)
	if err != nil {
		return false
	}
	for _, w := range u.Roadmap {
		if w.Week == week {
			return index < len(w.Tasks)
		}
	}
	return false
}

func (u *User) IsCompleted(taskID string) bool {
	for _, id := range u.CompletedTasks {
		if id == taskID {
			return true
		}
	}
	return false
}

// TaskID builds the stable identifier of the index-th task in a week.
func TaskID(week, index int) string {
	return fmt.Sprintf("w%d-t%d", week, index)
}

// ParseTaskID is the inverse of TaskID. Only ids TaskID itself would
// produce are accepted.
func ParseTaskID(id string) (week, index int, err error) {
	rest, ok := strings.CutPrefix(id, "w")
	if !ok {
		return 0, 0, fmt.Errorf("invalid task id %q", id)
	}
	weekPart, indexPart, ok := strings.Cut(rest, "-t")
	if !ok {
		return 0, 0, fmt.Errorf("invalid task id %q", id)
	}
	week, err = strconv.Atoi(weekPart)
	if err != nil || week < 0 {
		return 0, 0, fmt.Errorf("invalid task id %q", id)
	}
	index, err = strconv.Atoi(indexPart)
	if err != nil || index < 0 {
		return 0, 0, fmt.Errorf("invalid task id %q", id)
	}
	// one spelling per task: no signs, no leading zeros
	if TaskID(week, index) != id {
		return 0, 0, fmt.Errorf("invalid task id %q", id)
	}
	return week, index, nil
}
