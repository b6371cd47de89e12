package backend

import (
	"cmp"
	"fmt"
	"math"
	"net/url"
	"slices"
	"strings"

	"github.com/hylla/skillroute/internal/domain"
)

// Phase names used by the template generator.
const (
	PhaseFoundations = "Foundations"
	PhaseFrameworks  = "Frameworks"
	PhaseData        = "Data"
	PhasePlatform    = "Platform & Tooling"
	PhaseCapstone    = "Capstone"
	capstoneHours    = 20
)

// roleCatalog lists the skills a target role expects, keyed by a role keyword.
var roleCatalog = []struct {
	keywords []string
	skills   []string
}{
	{keywords: []string{"machine learning", "ml ", "ai "}, skills: []string{"python", "sql", "numpy", "pandas", "scikit-learn", "pytorch", "mlflow", "docker"}},
	{keywords: []string{"data"}, skills: []string{"python", "sql", "pandas", "postgresql", "snowflake", "airflow", "dbt", "docker"}},
	{keywords: []string{"frontend", "front-end", "ui "}, skills: []string{"html", "css", "javascript", "typescript", "react", "nextjs", "jest", "vite", "git"}},
	{keywords: []string{"devops", "platform", "sre", "reliability", "cloud"}, skills: []string{"bash", "go", "linux", "docker", "kubernetes", "terraform", "aws", "prometheus", "grafana", "github actions"}},
	{keywords: []string{"backend", "back-end", "api"}, skills: []string{"go", "python", "sql", "postgresql", "redis", "grpc", "docker", "kubernetes", "aws", "git"}},
	{keywords: []string{"full stack", "fullstack", "full-stack"}, skills: []string{"javascript", "typescript", "react", "express", "postgresql", "docker", "git", "aws"}},
	{keywords: []string{"mobile", "android", "ios"}, skills: []string{"kotlin", "swift", "flutter", "firebase", "git"}},
}

var defaultRoleSkills = []string{"python", "sql", "git", "docker", "linux", "postgresql"}

// RoleSkills returns the catalog skills for a target role.
func RoleSkills(targetRole string) []string {
	role := " " + strings.ToLower(strings.TrimSpace(targetRole)) + " "
	for _, entry := range roleCatalog {
		for _, kw := range entry.keywords {
			if strings.Contains(role, kw) {
				return slices.Clone(entry.skills)
			}
		}
	}
	return slices.Clone(defaultRoleSkills)
}

var experienceFactor = map[domain.ExperienceLevel]float64{
	domain.ExperienceBeginner:     1.0,
	domain.ExperienceIntermediate: 0.8,
	domain.ExperienceAdvanced:     0.6,
}

// Generate builds a template roadmap for profile: catalog skills the learner
// lacks, bucketed by category, followed by a capstone phase.
func Generate(profile domain.Profile) (domain.Roadmap, *domain.CareerDecision, error) {
	profile, err := domain.NewProfile(profile)
	if err != nil {
		return domain.Roadmap{}, nil, err
	}
	known := map[string]struct{}{}
	for _, skill := range profile.Skills {
		known[canonicalSkill(skill)] = struct{}{}
	}
	factor, ok := experienceFactor[profile.ExperienceLevel]
	if !ok {
		factor = 1
	}

	buckets := map[string][]string{}
	order := []string{PhaseFoundations, PhaseFrameworks, PhaseData, PhasePlatform}
	gaps := 0
	for _, skill := range RoleSkills(profile.TargetRole) {
		if _, ok := known[canonicalSkill(skill)]; ok {
			continue
		}
		name := phaseForCategory(CategoryOf(skill))
		buckets[name] = append(buckets[name], skill)
		gaps++
	}

	phases := make([]domain.Phase, 0, len(order)+1)
	week := 1
	for _, name := range order {
		skills := buckets[name]
		if len(skills) == 0 {
			continue
		}
		milestones := make([]domain.Milestone, 0, len(skills))
		outcomes := make([]string, 0, len(skills))
		for _, skill := range skills {
			hours := math.Round(float64(HoursToLearn(CategoryOf(skill))) * factor)
			m, err := domain.NewMilestone(skill, hours, ResourcesForSkill(skill))
			if err != nil {
				return domain.Roadmap{}, nil, err
			}
			milestones = append(milestones, m)
			outcomes = append(outcomes, "Build a small project using "+skill)
		}
		phase, err := newTemplatePhase(name, skills, outcomes, milestones, profile.HoursPerWeek, &week)
		if err != nil {
			return domain.Roadmap{}, nil, err
		}
		phases = append(phases, phase)
	}

	capstone, err := domain.NewMilestone("Portfolio project", capstoneHours, []domain.Resource{{
		Type:  domain.ResourceTypeProject,
		Title: "Ship a " + profile.TargetRole + " portfolio project",
		URL:   "https://github.com/new",
	}})
	if err != nil {
		return domain.Roadmap{}, nil, err
	}
	phase, err := newTemplatePhase(PhaseCapstone, nil, []string{"Publish a project that demonstrates the " + profile.TargetRole + " skill set"}, []domain.Milestone{capstone}, profile.HoursPerWeek, &week)
	if err != nil {
		return domain.Roadmap{}, nil, err
	}
	phases = append(phases, phase)

	roadmap, err := domain.NewRoadmap(profile.TargetRole+" Roadmap", phases, profile.DurationMonths)
	if err != nil {
		return domain.Roadmap{}, nil, err
	}
	decision := &domain.CareerDecision{
		TargetRole: profile.TargetRole,
		Summary: fmt.Sprintf("Close %d skill gaps over about %d weeks at %d hours per week.",
			gaps, week-1, profile.HoursPerWeek),
	}
	return roadmap, decision, nil
}

func newTemplatePhase(name string, skills, outcomes []string, milestones []domain.Milestone, hoursPerWeek int, week *int) (domain.Phase, error) {
	phase, err := domain.NewPhase(domain.PhaseInput{
		Name:        name,
		FocusSkills: skills,
		Outcomes:    outcomes,
		Milestones:  milestones,
	})
	if err != nil {
		return domain.Phase{}, err
	}
	phase.DurationLabel = weekSpan(week, phase.TotalHours(), hoursPerWeek)
	return phase, nil
}

// weekSpan labels the weeks hours occupy starting at *week and advances *week.
func weekSpan(week *int, hours float64, hoursPerWeek int) string {
	weeks := max(1, int(math.Ceil(hours/float64(max(hoursPerWeek, 1)))))
	start := *week
	*week += weeks
	if weeks == 1 {
		return fmt.Sprintf("Week %d", start)
	}
	return fmt.Sprintf("Week %d-%d", start, start+weeks-1)
}

func phaseForCategory(cat SkillCategory) string {
	switch cat {
	case CategoryLanguage:
		return PhaseFoundations
	case CategoryFramework:
		return PhaseFrameworks
	case CategoryDatabase:
		return PhaseData
	default:
		return PhasePlatform
	}
}

// Replan keeps completed phases and, in pending phases, orders milestones
// quickest first and relabels durations from hoursPerWeek.
func Replan(roadmap domain.Roadmap, hoursPerWeek int) domain.Roadmap {
	out := roadmap.Clone()
	week := 1
	for idx, phase := range out.Phases {
		if phase.IsCompleted() {
			week += max(1, int(math.Ceil(phase.TotalHours()/float64(max(hoursPerWeek, 1)))))
			continue
		}
		slices.SortStableFunc(phase.Milestones, func(a, b domain.Milestone) int {
			return cmp.Compare(a.EstimatedHours, b.EstimatedHours)
		})
		phase.DurationLabel = weekSpan(&week, phase.TotalHours(), hoursPerWeek)
		out.Phases[idx] = phase
	}
	return out
}

// skillDocs holds the canonical documentation of popular skills.
var skillDocs = map[string]string{
	"go":         "https://go.dev/doc/",
	"python":     "https://docs.python.org/3/tutorial/",
	"javascript": "https://developer.mozilla.org/en-US/docs/Web/JavaScript",
	"typescript": "https://www.typescriptlang.org/docs/",
	"react":      "https://react.dev/learn",
	"docker":     "https://docs.docker.com/get-started/",
	"kubernetes": "https://kubernetes.io/docs/tutorials/",
	"postgresql": "https://www.postgresql.org/docs/current/tutorial.html",
	"sql":        "https://www.sqltutorial.org/",
	"aws":        "https://docs.aws.amazon.com/",
	"terraform":  "https://developer.hashicorp.com/terraform/tutorials",
	"git":        "https://git-scm.com/book/en/v2",
	"linux":      "https://linuxjourney.com/",
	"pandas":     "https://pandas.pydata.org/docs/getting_started/",
	"pytorch":    "https://pytorch.org/tutorials/",
	"redis":      "https://redis.io/docs/latest/develop/",
}

// ResourcesForSkill returns the suggested resources for one skill.
func ResourcesForSkill(skill string) []domain.Resource {
	skill = canonicalSkill(skill)
	docs, ok := skillDocs[skill]
	if !ok {
		docs = "https://devdocs.io/#q=" + url.QueryEscape(skill)
	}
	return []domain.Resource{
		{Type: domain.ResourceTypeDocs, Title: "Official " + skill + " documentation", URL: docs},
		{Type: domain.ResourceTypeVideo, Title: skill + " crash course", URL: "https://www.youtube.com/results?search_query=" + url.QueryEscape(skill+" crash course"), DurationLabel: "1-2h"},
		{Type: domain.ResourceTypeProject, Title: "Hands-on " + skill + " project", URL: "https://github.com/topics/" + url.PathEscape(strings.ReplaceAll(skill, " ", "-"))},
	}
}
