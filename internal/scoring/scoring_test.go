package scoring

import "testing"

func TestScoreKnownRule(t *testing.T) {
	score, sev := Score("API1", nil, nil)
	if score != 8.1 {
		t.Fatalf("expected API1 default score 8.1, got %v", score)
	}
	if sev != "High" {
		t.Fatalf("expected High severity at score 8.1, got %q", sev)
	}
}

func TestScoreUnknownRuleFallsThrough(t *testing.T) {
	score, sev := Score("PLUGIN:banner-grab", nil, nil)
	if score != 0 {
		t.Fatalf("expected score 0 for an unrecognized rule, got %v", score)
	}
	if sev != "Info" {
		t.Fatalf("expected Info severity for score 0, got %q", sev)
	}
}

func TestScoreOverride(t *testing.T) {
	l, i := 0.1, 0.1
	score, sev := Score("API1", &l, &i)
	if score != 0.1 {
		t.Fatalf("expected overridden score 0.1, got %v", score)
	}
	if sev != "Info" {
		t.Fatalf("expected Info severity at score 0.1, got %q", sev)
	}
}

func TestSeverityBuckets(t *testing.T) {
	cases := []struct {
		score float64
		want  string
	}{
		{9, "Critical"},
		{7, "High"},
		{4, "Medium"},
		{1, "Low"},
		{0.5, "Info"},
	}
	for _, c := range cases {
		if got := severityFor(c.score); got != c.want {
			t.Errorf("severityFor(%v) = %q, want %q", c.score, got, c.want)
		}
	}
}
