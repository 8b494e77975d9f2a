package domain

// Analysis is the model's skill-gap summary for a resume against a role.
type Analysis struct {
	CurrentLevel  string   `json:"current_level" bson:"current_level"`
	MissingSkills []string `json:"missing_skills" bson:"missing_skills"`
}

// WeekPlan is one entry of the roadmap.
type WeekPlan struct {
	Week        int      `json:"week" bson:"week"`
	Title       string   `json:"title" bson:"title"`
	Description string   `json:"description" bson:"description"`
	Tasks       []string `json:"tasks" bson:"tasks"`
	Resources   []string `json:"resources" bson:"resources"`
}

// Plan is the document the planner model returns.
type Plan struct {
	Analysis *Analysis  `json:"analysis"`
	Roadmap  []WeekPlan `json:"roadmap"`
}

// TaskIDs lists the identifiers of every task in roadmap order.
func (p Plan) TaskIDs() []string {
	var ids []string
	for _, w := range p.Roadmap {
		for i := range w.Tasks {
			ids = append(ids, TaskID(w.Week, i))
		}
	}
	return ids
}
