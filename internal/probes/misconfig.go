package probes

import (
	"strings"

	"github.com/blackcoderx/apisentinel/internal/evidence"
	"github.com/blackcoderx/apisentinel/internal/model"
)

// RunMisconfig implements API7. It checks three independent signals
// against one representative GET endpoint: the base URL's scheme, the
// CORS preflight response, and (on HTTPS) the presence of HSTS.
func RunMisconfig(ctx *Context) []model.Finding {
	var findings []model.Finding

	if strings.HasPrefix(strings.ToLower(ctx.BaseURL), "http://") {
		findings = append(findings, buildMisconfigFinding(
			model.HTTPRequest{Method: "GET", URL: ctx.BaseURL},
			model.HTTPResponse{},
			"/",
			"Plaintext base URL",
			[]string{"Observe the configured base URL uses the http:// scheme"},
			"The API is reachable over plaintext HTTP, so credentials and response data travel unencrypted and are exposed to any on-path observer.",
			"An attacker on the same network path (public Wi-Fi, a compromised router, a malicious proxy) intercepts requests and responses in the clear.",
			"Base URL does not use TLS.",
		))
	}

	var target *model.Endpoint
	for i, ep := range ctx.Snapshot.Endpoints {
		if ep.Method == "GET" {
			target = &ctx.Snapshot.Endpoints[i]
			break
		}
	}
	if target == nil || ctx.cancelled() {
		return findings
	}

	url := joinURL(ctx.BaseURL, target.Path)
	req := model.HTTPRequest{
		Method: "OPTIONS",
		URL:    url,
		Headers: map[string]string{
			"Origin":                        "https://scanner.example",
			"Access-Control-Request-Method": "GET",
		},
	}
	resp, err := ctx.Client.Do(req)
	if err != nil {
		return findings
	}

	origin, _ := headerValue(resp.Headers, "Access-Control-Allow-Origin")
	creds, _ := headerValue(resp.Headers, "Access-Control-Allow-Credentials")
	if origin == "*" && strings.EqualFold(creds, "true") {
		findings = append(findings, buildMisconfigFinding(req, resp, target.Path,
			"CORS preflight",
			[]string{
				"Send an OPTIONS preflight with Origin: https://scanner.example and Access-Control-Request-Method: GET",
				"Observe Access-Control-Allow-Origin: * together with Access-Control-Allow-Credentials: true",
			},
			"The server reflects a wildcard allowed origin while also allowing credentialed requests, which lets any website read authenticated responses on a victim's behalf.",
			"An attacker hosts a malicious page that issues credentialed cross-origin requests to the API using the victim's browser session and reads back the response.",
			"CORS allows any origin with credentials.",
		))
	}

	if strings.HasPrefix(strings.ToLower(ctx.BaseURL), "https://") {
		if _, ok := headerValue(resp.Headers, "Strict-Transport-Security"); !ok {
			findings = append(findings, buildMisconfigFinding(req, resp, target.Path,
				"Missing HSTS",
				[]string{
					"Request an HTTPS endpoint",
					"Observe the response has no Strict-Transport-Security header",
				},
				"An HTTPS endpoint with no Strict-Transport-Security header leaves clients free to be downgraded to plaintext HTTP by a future request or a stripping proxy.",
				"An attacker performs a protocol-downgrade attack, forcing the victim's client onto a plaintext connection it would otherwise have refused.",
				"HTTPS endpoint has no Strict-Transport-Security header.",
			))
		}
	}

	return findings
}

func buildMisconfigFinding(req model.HTTPRequest, resp model.HTTPResponse, endpoint, authContext string, steps []string, whyVulnerable, attackScenario, description string) model.Finding {
	score, sev := scoreFor("API7")
	resp.Body = evidence.TruncateBody(resp.Body, false)
	ev := evidence.Build(req, resp, authContext, "Misconfig", steps, whyVulnerable, attackScenario, "API7")
	return model.Finding{
		Rule:        "API7",
		Title:       ruleTitle("API7"),
		Severity:    model.Severity(sev),
		Score:       score,
		Endpoint:    endpoint,
		Method:      req.Method,
		Description: description,
		Evidence:    ev,
	}
}
