package queryparse

import (
	"context"
	"errors"
	"testing"
)

func TestParse_BasicQuery(t *testing.T) {
	p := NewParser(nil)
	q := p.Parse(context.Background(), "46-year-old male, knee surgery in Pune, 3-month policy")

	if q.Age == nil || *q.Age != 46 {
		t.Errorf("age: got %v, want 46", q.Age)
	}
	if q.Gender != GenderMale {
		t.Errorf("gender: got %q, want %q", q.Gender, GenderMale)
	}
	if q.Procedure != "knee surgery" {
		t.Errorf("procedure: got %q, want 'knee surgery'", q.Procedure)
	}
	if q.Location != "Pune" {
		t.Errorf("location: got %q, want 'Pune'", q.Location)
	}
	if q.PolicyAgeMonths == nil || *q.PolicyAgeMonths != 3 {
		t.Errorf("policy age: got %v, want 3", q.PolicyAgeMonths)
	}
	if q.Raw != "46-year-old male, knee surgery in Pune, 3-month policy" {
		t.Errorf("raw text not preserved: %q", q.Raw)
	}
	if q.ParsedAt.IsZero() {
		t.Error("ParsedAt should be set")
	}
}

func TestParse_FieldVariants(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		check func(t *testing.T, q Query)
	}{
		{
			name: "age with yo suffix",
			text: "62 yo female, cataract",
			check: func(t *testing.T, q Query) {
				if q.Age == nil || *q.Age != 62 {
					t.Errorf("age: got %v, want 62", q.Age)
				}
				if q.Gender != GenderFemale {
					t.Errorf("gender: got %q, want F", q.Gender)
				}
				if q.Procedure != "cataract" {
					t.Errorf("procedure: got %q, want 'cataract'", q.Procedure)
				}
			},
		},
		{
			name: "months without hyphen",
			text: "hip replacement, 18 months policy in Mumbai",
			check: func(t *testing.T, q Query) {
				if q.PolicyAgeMonths == nil || *q.PolicyAgeMonths != 18 {
					t.Errorf("policy age: got %v, want 18", q.PolicyAgeMonths)
				}
				if q.Location != "Mumbai" {
					t.Errorf("location: got %q, want 'Mumbai'", q.Location)
				}
			},
		},
		{
			name: "mixed case procedure",
			text: "Angioplasty for my father in DELHI",
			check: func(t *testing.T, q Query) {
				if q.Procedure != "angioplasty" {
					t.Errorf("procedure: got %q, want 'angioplasty'", q.Procedure)
				}
				if q.Location != "Delhi" {
					t.Errorf("location: got %q, want 'Delhi'", q.Location)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := NewParser(nil).Parse(context.Background(), tt.text)
			tt.check(t, q)
		})
	}
}

func TestParse_AbsentFieldsAreNotAnError(t *testing.T) {
	q := NewParser(nil).Parse(context.Background(), "tell me about my policy")

	if q.Age != nil || q.Gender != "" || q.Procedure != "" || q.Location != "" || q.PolicyAgeMonths != nil {
		t.Errorf("expected all optional fields absent, got %+v", q)
	}
	if q.Raw == "" {
		t.Error("raw text must always be kept")
	}
}

// stubEnricher records whether it was called and returns a fixed result.
type stubEnricher struct {
	called bool
	result Query
	err    error
}

func (s *stubEnricher) Enrich(ctx context.Context, raw string, baseline Query) (Query, error) {
	s.called = true
	if s.err != nil {
		return baseline, s.err
	}
	return s.result, nil
}

func TestParse_EnricherFillsGaps(t *testing.T) {
	age := 30
	enr := &stubEnricher{result: Query{Age: &age, Procedure: "cataract", Location: "Pune"}}
	p := NewParser(enr)

	q := p.Parse(context.Background(), "need cataract surgery soon")
	if !enr.called {
		t.Fatal("enricher should be consulted when fields are missing")
	}
	if q.Age == nil || *q.Age != 30 {
		t.Errorf("age: got %v, want 30", q.Age)
	}
	if q.Raw != "need cataract surgery soon" {
		t.Errorf("raw text must survive enrichment: %q", q.Raw)
	}
}

func TestParse_EnricherSkippedWhenComplete(t *testing.T) {
	enr := &stubEnricher{}
	p := NewParser(enr)

	p.Parse(context.Background(), "46-year-old male, knee surgery in Pune, 3-month policy")
	if enr.called {
		t.Error("enricher must not be consulted when the baseline is complete")
	}
}

func TestParse_EnricherFailureFallsBack(t *testing.T) {
	enr := &stubEnricher{err: errors.New("api down")}
	p := NewParser(enr)

	q := p.Parse(context.Background(), "cataract in Pune")
	if q.Procedure != "cataract" {
		t.Errorf("regex baseline must survive enrichment failure, got %+v", q)
	}
}

func TestNormalizeGender(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"m", "M"},
		{"M", "M"},
		{"male", "M"},
		{"Female", "F"},
		{"f", "F"},
		{"other", "other"},
	}
	for _, tt := range tests {
		if got := normalizeGender(tt.in); got != tt.want {
			t.Errorf("normalizeGender(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMergeFields_BaselineWins(t *testing.T) {
	age := 46
	llmAge := 99
	baseline := Query{Age: &age, Procedure: "knee surgery"}
	merged := mergeFields(baseline, enrichedFields{Age: &llmAge, Procedure: "hip replacement", Location: "Pune"})

	if *merged.Age != 46 {
		t.Errorf("baseline age must win: got %d", *merged.Age)
	}
	if merged.Procedure != "knee surgery" {
		t.Errorf("baseline procedure must win: got %q", merged.Procedure)
	}
	if merged.Location != "Pune" {
		t.Errorf("missing field must be filled: got %q", merged.Location)
	}
}
