// Package report renders a completed ScanRecord as either the plain-JSON
// interchange format (§6) or a terminal Markdown document grouped by
// severity, rendered for display with glamour — the same renderer
// falcon's own CLI path uses for showing an HTTP response.
package report

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/blackcoderx/apisentinel/internal/model"
)

// severityOrder fixes the section order findings are grouped into,
// worst first.
var severityOrder = []model.Severity{
	model.SeverityCritical,
	model.SeverityHigh,
	model.SeverityMedium,
	model.SeverityLow,
	model.SeverityInfo,
}

// JSON serializes a scan record as the canonical interchange format.
func JSON(record model.ScanRecord) ([]byte, error) {
	return json.MarshalIndent(record, "", "  ")
}

// Markdown renders a scan record as a severity-grouped Markdown report.
func Markdown(record model.ScanRecord) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Scan Report: %s\n\n", record.ID)
	fmt.Fprintf(&b, "- Target: %s\n", record.ServerURL)
	fmt.Fprintf(&b, "- Status: %s\n", record.Status)
	fmt.Fprintf(&b, "- Findings: %d\n\n", len(record.Findings))

	byRule := groupBySeverity(record.Findings)
	for _, sev := range severityOrder {
		findings := byRule[sev]
		if len(findings) == 0 {
			continue
		}
		fmt.Fprintf(&b, "## %s (%d)\n\n", sev, len(findings))
		for _, f := range findings {
			writeFinding(&b, f)
		}
	}

	if len(record.Conformance) > 0 {
		fmt.Fprintf(&b, "## Schema Conformance (%d checked)\n\n", len(record.Conformance))
		for _, c := range record.Conformance {
			status := "valid"
			if !c.Valid {
				status = "invalid"
			}
			fmt.Fprintf(&b, "- `%s %s` → %d: %s\n", c.Method, c.Endpoint, c.StatusCode, status)
			for _, e := range c.Errors {
				fmt.Fprintf(&b, "  - %s\n", e)
			}
		}
		b.WriteString("\n")
	}

	if record.Error != "" {
		fmt.Fprintf(&b, "## Error\n\n%s\n", record.Error)
	}

	return b.String()
}

func writeFinding(b *strings.Builder, f model.Finding) {
	fmt.Fprintf(b, "### [%s] %s — `%s %s`\n\n", f.Rule, f.Title, f.Method, f.Endpoint)
	fmt.Fprintf(b, "Score: %.1f\n\n", f.Score)
	fmt.Fprintf(b, "%s\n\n", f.Description)
	if f.Evidence.WhyVulnerable != "" {
		fmt.Fprintf(b, "**Why vulnerable:** %s\n\n", f.Evidence.WhyVulnerable)
	}
	if f.Evidence.AttackScenario != "" {
		fmt.Fprintf(b, "**Attack scenario:** %s\n\n", f.Evidence.AttackScenario)
	}
	if f.Evidence.CurlCommand != "" {
		fmt.Fprintf(b, "```sh\n%s\n```\n\n", f.Evidence.CurlCommand)
	}
	if len(f.Evidence.PocReferences) > 0 {
		b.WriteString("References:\n")
		for _, ref := range f.Evidence.PocReferences {
			fmt.Fprintf(b, "- %s\n", ref)
		}
		b.WriteString("\n")
	}
}

func groupBySeverity(findings []model.Finding) map[model.Severity][]model.Finding {
	out := map[model.Severity][]model.Finding{}
	for _, f := range findings {
		out[f.Severity] = append(out[f.Severity], f)
	}
	for sev, fs := range out {
		sort.Slice(fs, func(i, j int) bool { return fs[i].Score > fs[j].Score })
		out[sev] = fs
	}
	return out
}

// Render converts a scan record's Markdown report into styled terminal
// output using the given glamour theme (e.g. "dark", "light", "auto").
// On any renderer error it falls back to the raw Markdown so a broken
// theme name never loses the report entirely.
func Render(record model.ScanRecord, theme string) string {
	md := Markdown(record)

	if theme == "" {
		theme = "auto"
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(theme),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return md
	}

	out, err := renderer.Render(md)
	if err != nil {
		return md
	}
	return out
}
