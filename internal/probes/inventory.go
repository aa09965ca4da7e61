package probes

import (
	"fmt"
	"strings"

	"github.com/blackcoderx/apisentinel/internal/evidence"
	"github.com/blackcoderx/apisentinel/internal/model"
)

const inventoryPathCap = 50

var inventoryAlternateMethods = []string{"HEAD", "POST", "PUT", "DELETE"}

var inventorySiblingHints = []string{"search", "_search", "export", "debug", "internal", "v1", "v2"}

// RunInventory implements API9: it looks for undocumented surface area two
// ways — methods on a documented path that the spec never declared, and
// sibling paths one hint-segment away from a documented one (shadow
// versions, debug/export endpoints, internal-only routes).
func RunInventory(ctx *Context) []model.Finding {
	var findings []model.Finding

	documentedMethods := map[string]map[string]bool{} // path -> method -> true
	documentedPaths := map[string]bool{}
	var orderedPaths []string
	for _, ep := range ctx.Snapshot.Endpoints {
		if documentedMethods[ep.Path] == nil {
			documentedMethods[ep.Path] = map[string]bool{}
		}
		documentedMethods[ep.Path][ep.Method] = true
		if !documentedPaths[ep.Path] {
			documentedPaths[ep.Path] = true
			orderedPaths = append(orderedPaths, ep.Path)
		}
	}

	for _, ep := range ctx.Snapshot.Endpoints {
		if ep.Method != "GET" {
			continue
		}
		for _, alt := range inventoryAlternateMethods {
			if ctx.cancelled() {
				return findings
			}
			if documentedMethods[ep.Path][alt] {
				continue
			}
			if f := tryInventoryCandidate(ctx, alt, ep.Path, "undocumented method"); f != nil {
				findings = append(findings, *f)
			}
		}
	}

	limit := orderedPaths
	if len(limit) > inventoryPathCap {
		limit = limit[:inventoryPathCap]
	}
	for _, path := range limit {
		for _, hint := range inventorySiblingHints {
			if ctx.cancelled() {
				return findings
			}
			sibling := siblingPath(path, hint)
			if documentedPaths[sibling] {
				continue
			}
			if f := tryInventoryCandidate(ctx, "GET", sibling, "undocumented sibling path"); f != nil {
				findings = append(findings, *f)
			}
		}
	}

	return findings
}

func siblingPath(path, hint string) string {
	return strings.TrimSuffix(path, "/") + "/" + hint
}

func tryInventoryCandidate(ctx *Context, method, path, reason string) *model.Finding {
	url := joinURL(ctx.BaseURL, path)
	req := model.HTTPRequest{Method: method, URL: url}
	resp, err := ctx.Client.Do(req)
	if err != nil {
		return nil
	}
	if !statusIn(resp.StatusCode, 200, 201, 202, 204) {
		return nil
	}

	score, sev := scoreFor("API9")
	resp.Body = evidence.TruncateBody(resp.Body, false)
	ev := evidence.Build(req, resp, "Unauthenticated", "Inventory", []string{
		fmt.Sprintf("Request %s %s, which the API description never declared (%s)", method, path, reason),
		"Observe a success status",
	},
		"An undocumented endpoint responds successfully, meaning it is live and reachable but absent from the API's published inventory and therefore outside normal review, monitoring, and deprecation processes.",
		"An attacker discovers the endpoint by guessing common debug/export/version patterns or probing undocumented methods, then targets it precisely because it receives none of the scrutiny the documented surface does.",
		"API9")

	return &model.Finding{
		Rule:        "API9",
		Title:       ruleTitle("API9"),
		Severity:    model.Severity(sev),
		Score:       score,
		Endpoint:    path,
		Method:      method,
		Description: "Undocumented endpoint responded with a success status (" + reason + ").",
		Evidence:    ev,
	}
}
