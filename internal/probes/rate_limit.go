package probes

import (
	"fmt"
	"strings"
	"sync"

	"github.com/blackcoderx/apisentinel/internal/evidence"
	"github.com/blackcoderx/apisentinel/internal/model"
)

const rateLimitBurst = 15

// RunRateLimit implements API4: fire a burst of 15 concurrent requests at
// one representative endpoint (a health/status-looking GET if one
// exists, else the first GET). No 429 anywhere in the burst and no
// rate-limit headers on any response means the API isn't throttling at
// all. The fan-out itself is a plain WaitGroup over a mutex-guarded
// slice — the "structured task group, await all siblings" shape
// SPEC_FULL.md's concurrency notes call for.
func RunRateLimit(ctx *Context) []model.Finding {
	target := pickRateLimitTarget(ctx.Snapshot.Endpoints)
	if target == nil {
		return nil
	}

	url := joinURL(ctx.BaseURL, target.Path)

	var mu sync.Mutex
	var wg sync.WaitGroup
	responses := make([]model.HTTPResponse, 0, rateLimitBurst)
	budgetHit := false

	for i := 0; i < rateLimitBurst; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := ctx.Client.Do(model.HTTPRequest{Method: "GET", URL: url})
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				budgetHit = true
				return
			}
			responses = append(responses, resp)
		}()
	}
	wg.Wait()

	if budgetHit || len(responses) == 0 {
		return nil
	}

	got429 := false
	hasHeaders := false
	statuses := make([]int, 0, len(responses))
	for _, r := range responses {
		statuses = append(statuses, r.StatusCode)
		if r.StatusCode == 429 {
			got429 = true
		}
		if hasAnyHeader(r.Headers, "X-RateLimit-Remaining", "Retry-After") {
			hasHeaders = true
		}
	}

	if got429 || hasHeaders {
		return nil
	}

	score, sev := scoreFor("API4")
	sample := responses[0]
	sample.Body = evidence.TruncateBody(sample.Body, false)
	req := model.HTTPRequest{Method: "GET", URL: url}
	preview := statuses
	if len(preview) > 5 {
		preview = preview[:5]
	}
	ev := evidence.Build(req, sample, fmt.Sprintf("Burst testing with %d concurrent requests", rateLimitBurst), "RateLimit", []string{
		fmt.Sprintf("Send a burst of %d concurrent GET requests to %s", rateLimitBurst, target.Path),
		fmt.Sprintf("All requests return successful status codes: %v", preview),
		"No HTTP 429 (Too Many Requests) responses received",
		"No rate limit headers (X-RateLimit-Remaining, Retry-After) present in any response",
	},
		fmt.Sprintf("Sent %d concurrent requests without encountering a 429 or any rate-limit header, indicating the API lacks request throttling.", rateLimitBurst),
		"An attacker sends rapid bursts of requests to exhaust backend resources, brute-force credentials, or scrape data far faster than a legitimate client would be allowed to.",
		"API4")

	return []model.Finding{{
		Rule:        "API4",
		Title:       ruleTitle("API4"),
		Severity:    model.Severity(sev),
		Score:       score,
		Endpoint:    target.Path,
		Method:      target.Method,
		Description: "Burst of requests did not trigger 429 nor expose rate limit headers; RL likely missing.",
		Evidence:    ev,
	}}
}

func pickRateLimitTarget(endpoints []model.Endpoint) *model.Endpoint {
	for i, ep := range endpoints {
		if ep.Method == "GET" && (strings.Contains(ep.Path, "health") || strings.Contains(ep.Path, "status")) {
			return &endpoints[i]
		}
	}
	for i, ep := range endpoints {
		if ep.Method == "GET" {
			return &endpoints[i]
		}
	}
	return nil
}
