package probes

import (
	"fmt"

	"github.com/blackcoderx/apisentinel/internal/evidence"
	"github.com/blackcoderx/apisentinel/internal/model"
)

// RunBOLA implements API1: for every GET endpoint whose path carries a
// `{...}` template variable, fetch it unauthenticated with the variable
// substituted by 1 then by 2; both succeeding suggests any caller can
// page through another principal's objects.
func RunBOLA(ctx *Context) []model.Finding {
	var findings []model.Finding

	for _, ep := range ctx.Snapshot.Endpoints {
		if ctx.cancelled() {
			return findings
		}
		if ep.Method != "GET" || !ep.HasPathVariable() {
			continue
		}

		url1 := joinURL(ctx.BaseURL, substituteVar(ep.Path, "1"))
		url2 := joinURL(ctx.BaseURL, substituteVar(ep.Path, "2"))

		resp1, err1 := ctx.Client.Do(model.HTTPRequest{Method: "GET", URL: url1})
		if err1 != nil {
			return findings // budget exhausted: stop the sweep cleanly
		}
		resp2, err2 := ctx.Client.Do(model.HTTPRequest{Method: "GET", URL: url2})
		if err2 != nil {
			return findings
		}

		if statusIn(resp1.StatusCode, 200, 206) && statusIn(resp2.StatusCode, 200, 206) {
			score, sev := scoreFor("API1")
			req := model.HTTPRequest{Method: "GET", URL: url1}
			resp1.Body = evidence.TruncateBody(resp1.Body, false)
			ev := evidence.Build(req, resp1, "Unauthenticated", "BOLA", []string{
				fmt.Sprintf("Request %s with the id path variable set to 1", url1),
				fmt.Sprintf("Request %s with the id path variable set to 2", url2),
				"Both requests return a success status with no authentication supplied",
				"A caller can enumerate ids to read objects belonging to other principals",
			},
				"Two distinct object identifiers both returned a success response without any credentials, indicating the endpoint does not check that the caller owns the requested object.",
				"An attacker iterates the id path parameter across a range of values and reads every object the server is willing to hand back, regardless of who owns it.",
				"API1")
			ev.AdditionalNotes = map[string]any{"resp2": resp2}
			findings = append(findings, model.Finding{
				Rule:        "API1",
				Title:       ruleTitle("API1"),
				Severity:    model.Severity(sev),
				Score:       score,
				Endpoint:    ep.Path,
				Method:      ep.Method,
				Description: "Two distinct object IDs returned success without auth; potential IDOR/BOLA.",
				Evidence:    ev,
			})
		}
	}

	return findings
}
