package probes

import (
	"github.com/blackcoderx/apisentinel/internal/evidence"
	"github.com/blackcoderx/apisentinel/internal/model"
)

const massAssignmentCap = 25

// massAssignmentBody is the fixed overprivileged payload every candidate
// gets sent, regardless of its declared schema: if any of these fields
// is silently accepted, the server is binding request JSON straight onto
// an internal model instead of an allow-listed DTO.
const massAssignmentBody = `{"role":true,"isAdmin":true,"ownerId":true,"balance":true}`

// RunMassAssignment implements API6. It only runs when the dangerous flag
// is set, since it performs real writes against the target.
func RunMassAssignment(ctx *Context) []model.Finding {
	if !ctx.Flags.Dangerous {
		return nil
	}

	var findings []model.Finding
	checked := 0

	for _, ep := range ctx.Snapshot.Endpoints {
		if ctx.cancelled() || checked >= massAssignmentCap {
			break
		}
		if ep.Method != "POST" && ep.Method != "PUT" && ep.Method != "PATCH" {
			continue
		}
		checked++

		url := joinURL(ctx.BaseURL, ep.Path)
		req := model.HTTPRequest{
			Method:  ep.Method,
			URL:     url,
			Headers: map[string]string{"Content-Type": "application/json"},
			Body:    massAssignmentBody,
		}
		resp, err := ctx.Client.Do(req)
		if err != nil {
			return findings
		}
		if !statusIn(resp.StatusCode, 200, 201, 202) {
			continue
		}

		score, sev := scoreFor("API6")
		resp.Body = evidence.TruncateBody(resp.Body, false)
		ev := evidence.Build(req, resp, "Unauthenticated", "MassAssignment", []string{
			"Send " + ep.Method + " " + ep.Path + " with a body containing role, isAdmin, ownerId, and balance fields not offered by the documented schema",
			"Observe a success status",
			"Privileged fields may have been bound onto the created/updated resource",
		},
			"The endpoint accepted a request body carrying privileged fields it never documented, suggesting the server binds incoming JSON directly onto an internal model without an allow-list.",
			"An attacker includes extra fields such as isAdmin or role alongside a legitimate request and has them silently applied, escalating their own privileges or someone else's.",
			"API6")

		findings = append(findings, model.Finding{
			Rule:        "API6",
			Title:       ruleTitle("API6"),
			Severity:    model.Severity(sev),
			Score:       score,
			Endpoint:    ep.Path,
			Method:      ep.Method,
			Description: "Write succeeded with undocumented privileged fields in the body.",
			Evidence:    ev,
		})
	}

	return findings
}
