package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"career-roadmap/internal/domain"
)

// ErrMalformedPlan is returned when the planner model's output cannot be used.
var ErrMalformedPlan = errors.New("model returned malformed plan")

const plannerSystemPrompt = `
You are an expert Senior Technical Career Coach.
Your task is to analyze a candidate's RESUME text against a TARGET ROLE and generate a personalized study plan.

### INSTRUCTIONS:
1. Gap Analysis: compare the resume skills with the target role requirements. Focus the roadmap ONLY on filling these gaps.
2. Actionable Tasks: do not just say "Learn React". Say "Build a Todo App using React Hooks".
3. Structure: create a 4-week intensive roadmap.
4. Strict JSON: output ONLY valid JSON. Do not use Markdown code blocks.

### JSON FORMAT:
{
  "analysis": {
    "current_level": "Beginner/Intermediate/Advanced",
    "missing_skills": ["Skill A", "Skill B"]
  },
  "roadmap": [
    {
      "week": 1,
      "title": "High-level focus for the week",
      "description": "Why this is important.",
      "tasks": ["Specific task 1", "Specific task 2", "Project to build"],
      "resources": ["Topic keyword 1", "Topic keyword 2"]
    }
  ]
}
`

const (
	defaultLevel   = "student"
	defaultSkills  = "unknown"
	maxResumeRunes = 20000
)

func plannerUserPrompt(resumeText, role string) string {
	return fmt.Sprintf("Resume: %s\nTarget Role: %s", resumeText, role)
}

func mentorSystemPrompt(user *domain.User) string {
	level := defaultLevel
	skills := defaultSkills
	if user.Analysis != nil {
		if l := strings.TrimSpace(user.Analysis.CurrentLevel); l != "" {
			level = l
		}
		if len(user.Analysis.MissingSkills) > 0 {
			skills = strings.Join(user.Analysis.MissingSkills, ", ")
		}
	}
	role := user.TargetRole
	if strings.TrimSpace(role) == "" {
		role = "not chosen yet"
	}
	return fmt.Sprintf(`You are a mentor. The user is a %s.
They are missing these skills: %s.
Target Role: %s.
Keep answers short and motivating.`, level, skills, role)
}

// parsePlan decodes the planner output. Code fences are tolerated, weeks
// without a number are numbered by position and a plan without any week is
// rejected.
func parsePlan(raw string) (*domain.Plan, error) {
	cleaned := cleanJSON(raw)
	if cleaned == "" {
		return nil, fmt.Errorf("%w: empty response", ErrMalformedPlan)
	}

	var plan domain.Plan
	if err := json.Unmarshal([]byte(cleaned), &plan); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPlan, err)
	}
	if len(plan.Roadmap) == 0 {
		return nil, fmt.Errorf("%w: roadmap is empty", ErrMalformedPlan)
	}

	seen := make(map[int]bool, len(plan.Roadmap))
	for i := range plan.Roadmap {
		w := &plan.Roadmap[i]
		if w.Week <= 0 || seen[w.Week] {
			n := i + 1
			for seen[n] {
				n++
			}
			w.Week = n
		}
		seen[w.Week] = true
		if w.Tasks == nil {
			w.Tasks = []string{}
		}
		if w.Resources == nil {
			w.Resources = []string{}
		}
	}
	if plan.Analysis != nil && plan.Analysis.MissingSkills == nil {
		plan.Analysis.MissingSkills = []string{}
	}
	return &plan, nil
}

func cleanJSON(input string) string {
	clean := strings.TrimSpace(input)
	if strings.HasPrefix(clean, "```json") {
		clean = strings.TrimPrefix(clean, "```json")
	} else if strings.HasPrefix(clean, "```") {
		clean = strings.TrimPrefix(clean, "```")
	}
	clean = strings.TrimSuffix(strings.TrimSpace(clean), "```")
	return strings.TrimSpace(clean)
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
