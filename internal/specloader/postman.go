// Postman v2.1 collection ingestion: an alternate input path for
// operators without an OpenAPI document. Grounded on the teacher's
// spec_ingester.PostmanParser (same detection heuristic, same recursive
// folder/item walk), generalised to build a model.SpecSnapshot directly
// instead of falcon's own intermediate ParsedSpec type, since this
// scanner has no knowledge-graph stage sitting between ingestion and the
// probe suite.
package specloader

import (
	"net/url"
	"strings"

	postman "github.com/rbretecher/go-postman-collection"

	"github.com/blackcoderx/apisentinel/internal/model"
	"github.com/blackcoderx/apisentinel/internal/scanerrors"
)

// LooksLikePostman mirrors the teacher's detection heuristic.
func LooksLikePostman(content []byte) bool {
	s := string(content)
	return strings.Contains(s, "_postman_id") || (strings.Contains(s, "info") && strings.Contains(s, "schema"))
}

// LoadPostman converts a Postman v2.1 collection export into a
// SpecSnapshot. Every endpoint is marked explicitly unauthenticated
// (security=none): Postman auth blocks describe how a human would
// authenticate manually, not a normalised SecurityScheme the probe suite
// can reason about, so this path never populates Schemes. Per
// SPEC_FULL.md's design notes this degrades gracefully rather than
// erroring — the probe suite's fixed payloads don't need request/response
// schemas to run.
func LoadPostman(content []byte, location string) (model.SpecSnapshot, error) {
	collection, err := postman.ParseCollection(strings.NewReader(string(content)))
	if err != nil {
		return model.SpecSnapshot{}, &scanerrors.SpecInvalidError{Reason: "postman: " + location + ": " + err.Error()}
	}

	snap := model.SpecSnapshot{
		Source:  "postman2.1",
		Title:   collection.Info.Name,
		Version: collection.Info.Version,
		Schemes: map[string]model.SecurityScheme{},
	}

	seenServers := map[string]bool{}
	walkPostmanItems(collection.Items, &snap, seenServers)

	return snap, nil
}

func walkPostmanItems(items []*postman.Items, snap *model.SpecSnapshot, seenServers map[string]bool) {
	for _, item := range items {
		if item == nil {
			continue
		}
		if item.IsGroup() {
			walkPostmanItems(item.Items, snap, seenServers)
			continue
		}
		if item.Request == nil {
			continue
		}
		req := item.Request

		rawURL := ""
		if req.URL != nil {
			rawURL = req.URL.Raw
		}
		path := rawURL
		if parsed, err := url.Parse(rawURL); err == nil && parsed.Host != "" {
			origin := parsed.Scheme + "://" + parsed.Host
			if !seenServers[origin] {
				seenServers[origin] = true
				snap.Servers = append(snap.Servers, origin)
			}
			path = parsed.Path
		}

		ep := model.Endpoint{
			Method:          strings.ToUpper(string(req.Method)),
			Path:            path,
			OperationID:     item.Name,
			HasRequestBody:  req.Body != nil,
			HasSecurityInfo: true,
			Security:        nil, // explicit no-auth
		}

		for _, h := range req.Header {
			ep.Parameters = append(ep.Parameters, model.Parameter{
				Name: h.Key, In: "header", Required: false, Type: "string",
			})
		}
		if req.URL != nil {
			for _, q := range req.URL.Query {
				ep.Parameters = append(ep.Parameters, model.Parameter{
					Name: q.Key, In: "query", Required: false, Type: "string",
				})
			}
		}

		snap.Endpoints = append(snap.Endpoints, ep)
	}
}
