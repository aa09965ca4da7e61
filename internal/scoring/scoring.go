// Package scoring implements the static rule -> (likelihood, impact) ->
// severity table, a direct port of scanner/scoring/risk.py.
package scoring

import "math"

// LikelihoodImpact is one rule's default likelihood/impact pair.
type LikelihoodImpact struct {
	Likelihood float64
	Impact     float64
}

// DefaultScores is the fixed per-rule (likelihood, impact) table.
var DefaultScores = map[string]LikelihoodImpact{
	"API1":  {0.9, 0.9},
	"API2":  {0.8, 0.9},
	"API3":  {0.6, 0.7},
	"API4":  {0.5, 0.6},
	"API5":  {0.8, 0.9},
	"API6":  {0.7, 0.8},
	"API7":  {0.6, 0.8},
	"API8":  {0.6, 0.8},
	"API9":  {0.5, 0.6},
	"API10": {0.4, 0.5},
}

// severityBucket is one (threshold, label) pair; buckets are checked in
// order, first match wins, highest threshold first.
type severityBucket struct {
	threshold float64
	label     string
}

var buckets = []severityBucket{
	{9, "Critical"},
	{7, "High"},
	{4, "Medium"},
	{1, "Low"},
}

// Score computes the numeric score and severity label for a rule,
// allowing an explicit (likelihood, impact) override (a probe or plugin
// may have a more specific assessment than the table default).
func Score(rule string, likelihood, impact *float64) (float64, string) {
	li := DefaultScores[rule]
	l, i := li.Likelihood, li.Impact
	if likelihood != nil {
		l = *likelihood
	}
	if impact != nil {
		i = *impact
	}
	score := math.Round(l*i*10*10) / 10
	return score, severityFor(score)
}

func severityFor(score float64) string {
	for _, b := range buckets {
		if score >= b.threshold {
			return b.label
		}
	}
	return "Info"
}
