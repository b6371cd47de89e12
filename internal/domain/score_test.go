package domain

import (
	"math"
	"testing"
)

func TestScoreToArcClamps(t *testing.T) {
	if ScoreToArc(-5) != ScoreToArc(0) {
		t.Fatalf("expected negative scores to clamp to 0, got %v", ScoreToArc(-5))
	}
	if ScoreToArc(150) != ScoreToArc(100) {
		t.Fatalf("expected large scores to clamp to 100, got %v", ScoreToArc(150))
	}
	if got := ScoreToArc(100); math.Abs(got-2*math.Pi*54) > 1e-9 {
		t.Fatalf("expected full circumference, got %v", got)
	}
	if got := ScoreToArc(50); math.Abs(got-math.Pi*54) > 1e-9 {
		t.Fatalf("expected half circumference, got %v", got)
	}
}

func TestScoreToArcNonFinite(t *testing.T) {
	for _, v := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		if got := ScoreToArc(v); got != 0 {
			t.Fatalf("expected %v to fail closed to 0, got %v", v, got)
		}
	}
}

func TestNewProfileDefaults(t *testing.T) {
	p, err := NewProfile(Profile{TargetRole: " Data Engineer ", Skills: []string{"SQL", "sql", "Python"}})
	if err != nil {
		t.Fatalf("NewProfile() error = %v", err)
	}
	if p.HoursPerWeek != DefaultHoursPerWeek || p.ExperienceLevel != ExperienceBeginner || p.DurationMonths != 6 {
		t.Fatalf("unexpected defaults %#v", p)
	}
	if len(p.Skills) != 2 {
		t.Fatalf("expected deduplicated skills, got %#v", p.Skills)
	}
	if _, err := NewProfile(Profile{}); err == nil {
		t.Fatal("expected missing target role to fail")
	}
	if _, err := NewProfile(Profile{TargetRole: "x", HoursPerWeek: 81}); err == nil {
		t.Fatal("expected hours above 80 to fail")
	}
}
