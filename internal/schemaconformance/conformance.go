// Package schemaconformance implements the optional post-probe pass
// described in SPEC_FULL.md §4.7: re-request endpoints with a declared
// response schema and check the body actually matches it. Findings here
// are informational only — they never feed §4.6 scoring — surfacing
// drift between a spec's documented contract and what the server
// actually returns.
package schemaconformance

import (
	"encoding/json"
	"fmt"

	"github.com/xeipuuv/gojsonschema"

	"github.com/blackcoderx/apisentinel/internal/httpclient"
	"github.com/blackcoderx/apisentinel/internal/model"
)

// Run issues one unauthenticated GET per endpoint that both is a GET and
// declares at least one response schema, and validates the captured body
// against the schema for the status actually observed. Endpoints from
// Postman ingestion never populate ResponseSchemas, so they are silently
// skipped — there is nothing to validate against.
func Run(snapshot model.SpecSnapshot, baseURL string, client *httpclient.Client) []model.SchemaConformanceResult {
	var results []model.SchemaConformanceResult

	for _, ep := range snapshot.Endpoints {
		if ep.Method != "GET" || len(ep.ResponseSchemas) == 0 {
			continue
		}

		url := joinURL(baseURL, ep.Path)
		resp, err := client.Do(model.HTTPRequest{Method: "GET", URL: url})
		if err != nil {
			continue
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			continue
		}

		schema, ok := ep.ResponseSchemas[resp.StatusCode]
		if !ok {
			continue
		}

		result := validate(ep, resp, schema)
		results = append(results, result)
	}

	return results
}

func validate(ep model.Endpoint, resp model.HTTPResponse, schema map[string]any) model.SchemaConformanceResult {
	result := model.SchemaConformanceResult{
		Endpoint:   ep.Path,
		Method:     ep.Method,
		StatusCode: resp.StatusCode,
	}

	schemaJSON, err := json.Marshal(schema)
	if err != nil {
		result.Valid = false
		result.Errors = []string{fmt.Sprintf("could not marshal declared schema: %v", err)}
		return result
	}

	schemaLoader := gojsonschema.NewBytesLoader(schemaJSON)
	docLoader := gojsonschema.NewStringLoader(resp.Body)

	outcome, err := gojsonschema.Validate(schemaLoader, docLoader)
	if err != nil {
		result.Valid = false
		result.Errors = []string{fmt.Sprintf("response body could not be validated: %v", err)}
		return result
	}

	if outcome.Valid() {
		result.Valid = true
		return result
	}

	result.Valid = false
	for _, e := range outcome.Errors() {
		result.Errors = append(result.Errors, fmt.Sprintf("%s: %s", e.Field(), e.Description()))
	}
	return result
}

func joinURL(base, path string) string {
	if base == "" {
		return path
	}
	trimmedBase := base
	for len(trimmedBase) > 0 && trimmedBase[len(trimmedBase)-1] == '/' {
		trimmedBase = trimmedBase[:len(trimmedBase)-1]
	}
	trimmedPath := path
	for len(trimmedPath) > 0 && trimmedPath[0] == '/' {
		trimmedPath = trimmedPath[1:]
	}
	return trimmedBase + "/" + trimmedPath
}
