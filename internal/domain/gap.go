package domain

// VelocityPhase is one learning block of a gap analysis.
type VelocityPhase struct {
	Name           string   `json:"phase"`
	Skills         []string `json:"skills"`
	EstimatedHours int      `json:"estimated_hours"`
	Timeline       string   `json:"timeline"`
}

// LearningVelocity estimates how long closing the skill gap takes.
type LearningVelocity struct {
	TotalEstimatedHours int             `json:"total_estimated_hours"`
	WeeksToReadiness    float64         `json:"weeks_to_readiness"`
	Roadmap             []VelocityPhase `json:"roadmap"`
}

// GapAnalysis is the scored comparison of a resume against a job description.
type GapAnalysis struct {
	ID                string                `json:"id,omitempty"`
	MatchPercentage   float64               `json:"match_percentage"`
	JobReadinessScore float64               `json:"job_readiness_score"`
	MatchedSkills     []string              `json:"matched_skills"`
	MissingSkills     []string              `json:"missing_skills"`
	LearningVelocity  LearningVelocity      `json:"learning_velocity"`
	SkillResources    map[string][]Resource `json:"skill_resources,omitempty"`
}

// ResourcesFor returns the resources suggested for one skill.
func (g GapAnalysis) ResourcesFor(skill string) []Resource {
	if g.SkillResources == nil {
		return nil
	}
	return g.SkillResources[skill]
}
