package backend

import (
	"fmt"
	"math"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/hylla/skillroute/internal/domain"
)

// Phase names and timelines produced by BuildLearningVelocity.
const (
	PhaseImmediateGaps   = "Immediate Gaps"
	PhaseAdvancedMastery = "Advanced Mastery"
	immediateTimeline    = "Week 1-2"
	quickWinMaxHours     = 20
)

var (
	skillNoise  = regexp.MustCompile(`[^\w\s\.#\+\-/]`)
	skillSpaces = regexp.MustCompile(`\s+`)
)

// canonicalSkill lower-cases and trims a skill and resolves aliases.
func canonicalSkill(skill string) string {
	s := strings.ToLower(strings.TrimSpace(skill))
	if alias, ok := skillAliases[s]; ok {
		return alias
	}
	return s
}

// ExtractSkills scans text for taxonomy skills, preferring longer phrases.
// The result is sorted and deduplicated.
func ExtractSkills(text string) []string {
	clean := skillNoise.ReplaceAllString(strings.ToLower(text), " ")
	clean = strings.TrimSpace(skillSpaces.ReplaceAllString(clean, " "))
	if clean == "" {
		return []string{}
	}
	tokens := strings.Split(clean, " ")
	consumed := make([]bool, len(tokens))
	found := map[string]struct{}{}
	for _, size := range []int{3, 2, 1} {
	scan:
		for i := 0; i+size <= len(tokens); i++ {
			for j := i; j < i+size; j++ {
				if consumed[j] {
					continue scan
				}
			}
			norm := canonicalSkill(strings.Join(tokens[i:i+size], " "))
			if _, ok := skillCategories[norm]; !ok {
				continue
			}
			found[norm] = struct{}{}
			for j := i; j < i+size; j++ {
				consumed[j] = true
			}
		}
	}
	out := make([]string, 0, len(found))
	for skill := range found {
		out = append(out, skill)
	}
	slices.Sort(out)
	return out
}

// SemanticMatch is the comparison of resume skills against job skills.
type SemanticMatch struct {
	MatchPercentage   float64
	JobReadinessScore float64
	MatchedSkills     []string
	MissingSkills     []string
}

// CalculateMatch compares two skill sets. Readiness adds a breadth bonus of up
// to 30 points to 70% of the match percentage.
func CalculateMatch(resumeSkills, jdSkills []string) SemanticMatch {
	resume := domain.NormalizeSkills(resumeSkills)
	jd := domain.NormalizeSkills(jdSkills)
	if len(jd) == 0 {
		return SemanticMatch{MatchedSkills: []string{}, MissingSkills: []string{}}
	}
	matched := make([]string, 0, len(jd))
	missing := make([]string, 0, len(jd))
	for _, skill := range jd {
		if _, ok := slices.BinarySearch(resume, skill); ok {
			matched = append(matched, skill)
		} else {
			missing = append(missing, skill)
		}
	}
	matchPct := round2(float64(len(matched)) / float64(len(jd)) * 100)
	breadth := math.Min(float64(len(resume))/float64(len(jd)), 1.5)
	bonus := round2(math.Min(breadth*20, 30))
	return SemanticMatch{
		MatchPercentage:   matchPct,
		JobReadinessScore: round2(math.Min(matchPct*0.70+bonus, 100)),
		MatchedSkills:     matched,
		MissingSkills:     missing,
	}
}

// BuildLearningVelocity estimates study hours for missing skills and splits
// them into quick wins and deeper investments.
func BuildLearningVelocity(missing []string, hoursPerWeek int) domain.LearningVelocity {
	if len(missing) == 0 {
		return domain.LearningVelocity{Roadmap: []domain.VelocityPhase{}}
	}
	hpw := float64(max(hoursPerWeek, 1))
	quick := domain.VelocityPhase{Name: PhaseImmediateGaps, Timeline: immediateTimeline}
	deep := domain.VelocityPhase{Name: PhaseAdvancedMastery}
	total := 0
	for _, skill := range missing {
		hours := HoursToLearn(CategoryOf(skill))
		total += hours
		if hours <= quickWinMaxHours {
			quick.Skills = append(quick.Skills, skill)
			quick.EstimatedHours += hours
			continue
		}
		deep.Skills = append(deep.Skills, skill)
		deep.EstimatedHours += hours
	}

	out := domain.LearningVelocity{
		TotalEstimatedHours: total,
		WeeksToReadiness:    math.Round(float64(total)/hpw*10) / 10,
		Roadmap:             []domain.VelocityPhase{},
	}
	if len(quick.Skills) > 0 {
		out.Roadmap = append(out.Roadmap, quick)
	}
	if len(deep.Skills) > 0 {
		start := max(int(math.RoundToEven(float64(quick.EstimatedHours)/hpw))+1, 3)
		deep.Timeline = fmt.Sprintf("Week %d+", start)
		out.Roadmap = append(out.Roadmap, deep)
	}
	return out
}

// ResumeText extracts plain text from an uploaded resume. Only .txt uploads are read.
func ResumeText(name string, data []byte) (string, error) {
	if !strings.EqualFold(filepath.Ext(strings.TrimSpace(name)), ".txt") {
		return "", fmt.Errorf("%w: %q, upload a .txt file", ErrUnsupportedFormat, name)
	}
	if !utf8.Valid(data) {
		data = []byte(strings.ToValidUTF8(string(data), ""))
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return "", ErrEmptyResume
	}
	return text, nil
}

// AnalyzeInput carries one analysis request.
type AnalyzeInput struct {
	ResumeName   string
	Resume       []byte
	JDText       string
	HoursPerWeek int
}

// Analyze scores a resume against a job description and builds the learning plan.
func Analyze(in AnalyzeInput) (domain.GapAnalysis, error) {
	if strings.TrimSpace(in.JDText) == "" {
		return domain.GapAnalysis{}, fmt.Errorf("%w: jd_text must not be empty", ErrInvalidInput)
	}
	hours, err := domain.NormalizeHoursPerWeek(in.HoursPerWeek)
	if err != nil {
		return domain.GapAnalysis{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	resumeText, err := ResumeText(in.ResumeName, in.Resume)
	if err != nil {
		return domain.GapAnalysis{}, err
	}
	jdSkills := ExtractSkills(in.JDText)
	if len(jdSkills) == 0 {
		return domain.GapAnalysis{}, ErrNoJDSkills
	}
	match := CalculateMatch(ExtractSkills(resumeText), jdSkills)
	resources := map[string][]domain.Resource{}
	for _, skill := range match.MissingSkills {
		resources[skill] = ResourcesForSkill(skill)
	}
	return domain.GapAnalysis{
		MatchedSkills:     match.MatchedSkills,
		MissingSkills:     match.MissingSkills,
		MatchPercentage:   match.MatchPercentage,
		JobReadinessScore: match.JobReadinessScore,
		LearningVelocity:  BuildLearningVelocity(match.MissingSkills, hours),
		SkillResources:    resources,
	}, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
