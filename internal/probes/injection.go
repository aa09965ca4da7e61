package probes

import (
	"fmt"

	"github.com/blackcoderx/apisentinel/internal/evidence"
	"github.com/blackcoderx/apisentinel/internal/model"
)

const injectionCap = 50

// injectionPayloads is the fixed probe payload list, tried in order.
var injectionPayloads = []string{
	`' OR '1'='1`,
	`" OR "1"="1`,
	`')--`,
	`../../etc/passwd`,
	`<script>alert(1)</script>`,
	`<?xml version="1.0"?><!DOCTYPE r [<!ENTITY x SYSTEM "file:///etc/passwd">]><r>&x;</r>`,
}

// RunInjection implements API8: query-parameter, header, and (dangerous
// only) JSON-body channels are each probed with a handful of classic
// injection payloads, looking for a backend error message leaking
// through the response. At most one finding is emitted per
// (endpoint, channel) pair.
func RunInjection(ctx *Context) []model.Finding {
	var findings []model.Finding
	checked := 0

	for _, ep := range ctx.Snapshot.Endpoints {
		if ctx.cancelled() || checked >= injectionCap {
			break
		}

		mutating := ep.Method == "POST" || ep.Method == "PUT" || ep.Method == "PATCH"
		if ep.Method != "GET" && !(mutating && ctx.Flags.Dangerous) {
			continue
		}
		checked++

		base := joinURL(ctx.BaseURL, ep.Path)

		if f := tryInjectionQuery(ctx, ep, base); f != nil {
			findings = append(findings, *f)
		}
		if ctx.cancelled() {
			return findings
		}
		if f := tryInjectionHeader(ctx, ep, base); f != nil {
			findings = append(findings, *f)
		}
		if ctx.cancelled() {
			return findings
		}
		if mutating && ctx.Flags.Dangerous {
			if f := tryInjectionBody(ctx, ep, base); f != nil {
				findings = append(findings, *f)
			}
		}
	}

	return findings
}

func tryInjectionQuery(ctx *Context, ep model.Endpoint, base string) *model.Finding {
	for _, payload := range injectionPayloads[:4] {
		req := model.HTTPRequest{
			Method: ep.Method,
			URL:    base,
			Query:  map[string]string{"q": payload},
		}
		resp, err := ctx.Client.Do(req)
		if err != nil {
			return nil
		}
		if looksLikeError(resp.Body) {
			return buildInjectionFinding(ep, req, resp, "query", payload)
		}
	}
	return nil
}

func tryInjectionHeader(ctx *Context, ep model.Endpoint, base string) *model.Finding {
	payload := injectionPayloads[0]
	req := model.HTTPRequest{
		Method:  ep.Method,
		URL:     base,
		Headers: map[string]string{"User-Agent": payload},
	}
	resp, err := ctx.Client.Do(req)
	if err != nil {
		return nil
	}
	if looksLikeError(resp.Body) {
		return buildInjectionFinding(ep, req, resp, "header", payload)
	}
	return nil
}

func tryInjectionBody(ctx *Context, ep model.Endpoint, base string) *model.Finding {
	payload := injectionPayloads[1]
	req := model.HTTPRequest{
		Method:  ep.Method,
		URL:     base,
		Headers: map[string]string{"Content-Type": "application/json"},
		Body:    fmt.Sprintf(`{"name":%q}`, payload),
	}
	resp, err := ctx.Client.Do(req)
	if err != nil {
		return nil
	}
	if looksLikeError(resp.Body) {
		return buildInjectionFinding(ep, req, resp, "body", payload)
	}
	return nil
}

func buildInjectionFinding(ep model.Endpoint, req model.HTTPRequest, resp model.HTTPResponse, channel, payload string) *model.Finding {
	score, sev := scoreFor("API8")
	resp.Body = evidence.TruncateBody(resp.Body, false)
	ev := evidence.Build(req, resp, "Unauthenticated", "Injection", []string{
		fmt.Sprintf("Send %s %s with the payload %q via the %s channel", ep.Method, ep.Path, payload, channel),
		"Observe a response body matching a known backend error signature",
	},
		"The response leaks a backend stack trace or database error message triggered by an injection-style payload, indicating unsanitised input reaches a query, shell, or parser.",
		"An attacker refines the payload against the leaked error to extract data, read arbitrary files, or execute commands, using the error text as a feedback channel.",
		"API8")

	return &model.Finding{
		Rule:        "API8",
		Title:       ruleTitle("API8"),
		Severity:    model.Severity(sev),
		Score:       score,
		Endpoint:    ep.Path,
		Method:      ep.Method,
		Description: fmt.Sprintf("Backend error signature observed via %s channel.", channel),
		Evidence:    ev,
	}
}
