package probes

import (
	"github.com/blackcoderx/apisentinel/internal/authinject"
	"github.com/blackcoderx/apisentinel/internal/evidence"
	"github.com/blackcoderx/apisentinel/internal/model"
)

// RunAuthMatrix implements API2: every GET/HEAD endpoint is hit with no
// auth, a bogus bearer token, and (only when fuzz-auth is on) a default
// Basic credential; any of the three succeeding means the endpoint does
// not actually enforce the authentication it is supposed to.
func RunAuthMatrix(ctx *Context) []model.Finding {
	var findings []model.Finding

	for _, ep := range ctx.Snapshot.Endpoints {
		if ctx.cancelled() {
			return findings
		}
		if ep.Method != "GET" && ep.Method != "HEAD" {
			continue
		}

		url := joinURL(ctx.BaseURL, ep.Path)
		schemeName := authinject.FirstSchemeFor(ep, ctx.Snapshot.GlobalSecurity)

		none := model.HTTPRequest{Method: "GET", URL: url}
		respNone, err := ctx.Client.Do(none)
		if err != nil {
			return findings
		}

		bogus := model.HTTPRequest{Method: "GET", URL: url}
		ctx.Auth.Apply(&bogus, schemeName, authinject.VariantBogusBearer)
		respBogus, err := ctx.Client.Do(bogus)
		if err != nil {
			return findings
		}

		var respBasic *model.HTTPResponse
		var basic model.HTTPRequest
		if ctx.Flags.FuzzAuth {
			basic = model.HTTPRequest{Method: "GET", URL: url}
			ctx.Auth.Apply(&basic, schemeName, authinject.VariantBasicDefault)
			r, err := ctx.Client.Do(basic)
			if err != nil {
				return findings
			}
			respBasic = &r
		}

		succeeded := statusIn(respNone.StatusCode, 200, 206) || statusIn(respBogus.StatusCode, 200, 206)
		if respBasic != nil && statusIn(respBasic.StatusCode, 200, 206) {
			succeeded = true
		}
		if !succeeded {
			continue
		}

		score, sev := scoreFor("API2")
		evReq, evResp := none, respNone
		switch {
		case statusIn(respNone.StatusCode, 200, 206):
		case statusIn(respBogus.StatusCode, 200, 206):
			evReq, evResp = bogus, respBogus
		default:
			evReq, evResp = basic, *respBasic
		}
		evResp.Body = evidence.TruncateBody(evResp.Body, false)
		ev := evidence.Build(evReq, evResp, "Unauthenticated / invalid credentials", "AuthMatrix", []string{
			"Request the endpoint with no Authorization header",
			"Request the endpoint again with a syntactically well-formed but invalid bearer token",
			"Observe a success status on at least one of the attempts",
		},
			"The endpoint returns a success status for unauthenticated or invalid-credential requests, indicating authentication is not actually enforced.",
			"An attacker skips credential acquisition entirely, or reuses any malformed token, and reaches the same data a legitimate caller would.",
			"API2")
		ev.AdditionalNotes = map[string]any{
			"unauth": respNone,
			"bogus":  respBogus,
		}
		if respBasic != nil {
			ev.AdditionalNotes["basic_default"] = *respBasic
		}

		findings = append(findings, model.Finding{
			Rule:        "API2",
			Title:       ruleTitle("API2"),
			Severity:    model.Severity(sev),
			Score:       score,
			Endpoint:    ep.Path,
			Method:      ep.Method,
			Description: "Endpoint returns success for unauthenticated/invalid credentials requests.",
			Evidence:    ev,
		})
	}

	return findings
}
