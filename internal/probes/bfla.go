package probes

import (
	"strings"

	"github.com/blackcoderx/apisentinel/internal/evidence"
	"github.com/blackcoderx/apisentinel/internal/model"
)

// RunBFLA implements API5: any endpoint whose path or tags mention
// "admin" is hit unauthenticated with its own method; success means a
// privileged function is reachable without the authorization it implies.
func RunBFLA(ctx *Context) []model.Finding {
	var findings []model.Finding

	for _, ep := range ctx.Snapshot.Endpoints {
		if ctx.cancelled() {
			return findings
		}
		haystack := strings.ToLower(strings.Join(append([]string{ep.Path}, ep.Tags...), "/"))
		if !strings.Contains(haystack, "admin") {
			continue
		}

		url := joinURL(ctx.BaseURL, ep.Path)
		req := model.HTTPRequest{Method: ep.Method, URL: url}
		resp, err := ctx.Client.Do(req)
		if err != nil {
			return findings
		}

		if !statusIn(resp.StatusCode, 200, 201, 202, 204) {
			continue
		}

		score, sev := scoreFor("API5")
		resp.Body = evidence.TruncateBody(resp.Body, false)
		ev := evidence.Build(req, resp, "Unauthenticated", "BFLA", []string{
			"Identify a path or tag containing \"admin\"",
			"Send the endpoint's documented method with no credentials",
			"Observe a success status",
		},
			"An admin-tagged endpoint succeeded without any credentials, indicating the function-level authorization that should gate privileged operations is missing or misconfigured.",
			"An attacker calls the admin function directly, skipping any UI-level restriction, and performs the privileged operation as if they held an administrative role.",
			"API5")

		findings = append(findings, model.Finding{
			Rule:        "API5",
			Title:       ruleTitle("API5"),
			Severity:    model.Severity(sev),
			Score:       score,
			Endpoint:    ep.Path,
			Method:      ep.Method,
			Description: "Admin-tagged endpoint succeeded without credentials.",
			Evidence:    ev,
		})
	}

	return findings
}
