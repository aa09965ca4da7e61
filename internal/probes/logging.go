package probes

import (
	"fmt"

	"github.com/blackcoderx/apisentinel/internal/authinject"
	"github.com/blackcoderx/apisentinel/internal/evidence"
	"github.com/blackcoderx/apisentinel/internal/model"
)

const loggingRequestCount = 5

var loggingTraceHeaders = []string{"X-Request-Id", "X-Correlation-Id", "Trace-Id", "X-Trace-Id"}

// RunLogging implements API10: five requests carrying a bogus bearer
// token are sent at the first GET endpoint. If the target ever lets one
// through (or behaves inconsistently across the five) and never once
// hands back a trace/correlation identifier, there is nothing an
// operator could use to reconstruct what happened after the fact.
func RunLogging(ctx *Context) []model.Finding {
	var target *model.Endpoint
	for i, ep := range ctx.Snapshot.Endpoints {
		if ep.Method == "GET" {
			target = &ctx.Snapshot.Endpoints[i]
			break
		}
	}
	if target == nil {
		return nil
	}

	url := joinURL(ctx.BaseURL, target.Path)
	schemeName := authinject.FirstSchemeFor(*target, ctx.Snapshot.GlobalSecurity)

	var responses []model.HTTPResponse
	var firstReq model.HTTPRequest
	statusSet := map[int]bool{}
	anySuccess := false
	hasTraceHeader := false

	for i := 0; i < loggingRequestCount; i++ {
		if ctx.cancelled() {
			return nil
		}
		req := model.HTTPRequest{Method: "GET", URL: url}
		ctx.Auth.Apply(&req, schemeName, authinject.VariantBogusBearer)
		if i == 0 {
			firstReq = req
		}
		resp, err := ctx.Client.Do(req)
		if err != nil {
			return nil
		}
		responses = append(responses, resp)
		statusSet[resp.StatusCode] = true
		if statusIn(resp.StatusCode, 200, 206) {
			anySuccess = true
		}
		if hasAnyHeader(resp.Headers, loggingTraceHeaders...) {
			hasTraceHeader = true
		}
	}

	if hasTraceHeader {
		return nil
	}
	if !anySuccess && len(statusSet) < 3 {
		return nil
	}

	score, sev := scoreFor("API10")
	sample := responses[0]
	sample.Body = evidence.TruncateBody(sample.Body, false)
	statuses := make([]int, 0, len(responses))
	for _, r := range responses {
		statuses = append(statuses, r.StatusCode)
	}
	ev := evidence.Build(firstReq, sample, "Bogus bearer token", "Logging", []string{
		fmt.Sprintf("Send %d requests to %s with a bogus bearer token", loggingRequestCount, target.Path),
		fmt.Sprintf("Observe statuses %v", statuses),
		"None of the responses carry a request/correlation/trace identifier header",
	},
		"Repeated requests with an invalid credential produced no stable, traceable identifier in any response, so an operator investigating abuse after the fact has no correlation key to tie the requests together across logs.",
		"An attacker probes the API at will, confident that even if the attempts are logged server-side, there is no response-visible trace id an incident responder could use to pull the matching request out of aggregated logs.",
		"API10")

	return []model.Finding{{
		Rule:        "API10",
		Title:       ruleTitle("API10"),
		Severity:    model.Severity(sev),
		Score:       score,
		Endpoint:    target.Path,
		Method:      "GET",
		Description: "No trace/correlation header observed across repeated bogus-credential requests.",
		Evidence:    ev,
	}}
}
