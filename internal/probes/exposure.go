package probes

import (
	"strings"

	"github.com/blackcoderx/apisentinel/internal/evidence"
	"github.com/blackcoderx/apisentinel/internal/model"
)

const exposureCap = 50

// RunExposure implements API3: for the first 50 GET endpoints, parse a
// successful JSON response and recursively collect every key; any key
// matching a sensitive-field hint means the response is handing back
// more than it should.
func RunExposure(ctx *Context) []model.Finding {
	var findings []model.Finding
	checked := 0

	for _, ep := range ctx.Snapshot.Endpoints {
		if ctx.cancelled() || checked >= exposureCap {
			break
		}
		if ep.Method != "GET" {
			continue
		}
		checked++

		url := joinURL(ctx.BaseURL, ep.Path)
		req := model.HTTPRequest{Method: "GET", URL: url}
		resp, err := ctx.Client.Do(req)
		if err != nil {
			return findings
		}
		if !statusIn(resp.StatusCode, 200, 206) {
			continue
		}

		hints := sensitiveKeysIn(resp.Body)
		if len(hints) == 0 {
			continue
		}

		preview := hints
		if len(preview) > 5 {
			preview = preview[:5]
		}

		score, sev := scoreFor("API3")
		resp.Body = evidence.TruncateBody(resp.Body, false)
		ev := evidence.Build(req, resp, "Testing endpoint for excessive data exposure", "Exposure", []string{
			"Send a GET request to the endpoint",
			"Receive a 200/206 response with JSON data",
			"Observe the response contains sensitive-looking fields: " + strings.Join(preview, ", "),
			"A caller without elevated access receives data they should not be able to view",
		},
			"Response contains "+strings.Join(preview, ", ")+" among its keys; these fields may be exposed without proper filtering or access controls.",
			"An attacker makes a normal authenticated or unauthenticated GET request and receives a response containing fields that should have been filtered based on the caller's permissions.",
			"API3")

		findings = append(findings, model.Finding{
			Rule:        "API3",
			Title:       ruleTitle("API3"),
			Severity:    model.Severity(sev),
			Score:       score,
			Endpoint:    ep.Path,
			Method:      ep.Method,
			Description: "Live response includes sensitive-looking fields.",
			Evidence:    ev,
		})
	}

	return findings
}
