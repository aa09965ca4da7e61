// Package specloader ingests an OpenAPI 3 document (or, as a secondary
// path, a Postman v2.1 collection) into a model.SpecSnapshot. The OpenAPI
// path is grounded on the teacher's spec_ingester.OpenAPIParser, which
// already establishes the right access pattern for pb33f/libopenapi's
// high-level v3 model (ordered-map pair iteration, BuildV3Model) — but
// that parser only handles GET/POST/PUT/DELETE/PATCH, treats parameters
// as a passthrough with no shared-parameter or $ref resolution, and never
// looks at security schemes at all. This loader fills in those gaps:
// full method coverage including HEAD/OPTIONS, security scheme
// normalisation, global + per-operation security requirements, and a
// shallow request/response schema capture for the schema-conformance
// checker.
package specloader

import (
	"fmt"
	"strings"

	"github.com/pb33f/libopenapi"
	"github.com/pb33f/libopenapi/datamodel/high/base"
	v3 "github.com/pb33f/libopenapi/datamodel/high/v3"
	"github.com/pb33f/libopenapi/orderedmap"

	"github.com/blackcoderx/apisentinel/internal/model"
	"github.com/blackcoderx/apisentinel/internal/scanerrors"
)

// operationsOf maps the method name used in SpecSnapshot.Endpoint to the
// v3.PathItem field that carries it. head/options were absent from the
// teacher's parser; the spec's Spec Loader requires them.
func operationsOf(item *v3.PathItem) map[string]*v3.Operation {
	return map[string]*v3.Operation{
		"GET":     item.Get,
		"POST":    item.Post,
		"PUT":     item.Put,
		"PATCH":   item.Patch,
		"DELETE":  item.Delete,
		"HEAD":    item.Head,
		"OPTIONS": item.Options,
	}
}

// LooksLikeOpenAPI is a cheap format-detection heuristic, matching the
// teacher's DetectFormat (substring check rather than a full parse,
// since the real validation happens in LoadOpenAPI anyway).
func LooksLikeOpenAPI(content []byte) bool {
	s := string(content)
	return strings.Contains(s, "openapi") || strings.Contains(s, "swagger")
}

// LoadOpenAPI resolves $refs, validates, and flattens an OpenAPI 3
// document into a SpecSnapshot. location is used only for error context.
func LoadOpenAPI(content []byte, location string) (model.SpecSnapshot, error) {
	document, err := libopenapi.NewDocument(content)
	if err != nil {
		return model.SpecSnapshot{}, &scanerrors.SpecInvalidError{Reason: fmt.Sprintf("%s: %v", location, err)}
	}

	docModel, errs := document.BuildV3Model()
	if len(errs) > 0 {
		msgs := make([]string, 0, len(errs))
		for _, e := range errs {
			msgs = append(msgs, e.Error())
		}
		return model.SpecSnapshot{}, &scanerrors.SpecInvalidError{Reason: strings.Join(msgs, "; ")}
	}
	if docModel == nil {
		return model.SpecSnapshot{}, &scanerrors.SpecInvalidError{Reason: "document produced no v3 model"}
	}

	doc := docModel.Model

	snap := model.SpecSnapshot{
		Source:  "openapi3",
		Schemes: map[string]model.SecurityScheme{},
	}
	if doc.Info != nil {
		snap.Title = doc.Info.Title
		snap.Version = doc.Info.Version
	}
	for _, s := range doc.Servers {
		if s != nil && s.URL != "" {
			snap.Servers = append(snap.Servers, s.URL)
		}
	}
	snap.GlobalSecurity = flattenSecurity(doc.Security)

	if doc.Components != nil && doc.Components.SecuritySchemes != nil {
		for pair := doc.Components.SecuritySchemes.First(); pair != nil; pair = pair.Next() {
			name := pair.Key()
			scheme := pair.Value()
			normalised, ok := normaliseScheme(scheme)
			if ok {
				normalised.Name = name
				snap.Schemes[name] = normalised
			}
		}
	}

	if doc.Paths == nil || doc.Paths.PathItems == nil {
		return snap, nil
	}

	for pathPair := doc.Paths.PathItems.First(); pathPair != nil; pathPair = pathPair.Next() {
		path := pathPair.Key()
		item := pathPair.Value()
		if item == nil {
			continue
		}

		ops := operationsOf(item)
		// Fixed method order, so loading the same document twice yields
		// the same endpoint list.
		for _, method := range []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"} {
			op := ops[method]
			if op == nil {
				continue
			}
			ep := model.Endpoint{
				Method:          method,
				Path:            path,
				OperationID:     op.OperationId,
				Tags:            append([]string(nil), op.Tags...),
				HasRequestBody:  op.RequestBody != nil,
				HasSecurityInfo: op.Security != nil,
			}
			if op.Security != nil {
				ep.Security = flattenSecurity(op.Security)
			}

			for _, p := range op.Parameters {
				if p == nil {
					continue
				}
				ep.Parameters = append(ep.Parameters, model.Parameter{
					Name:     p.Name,
					In:       p.In,
					Required: p.Required != nil && *p.Required,
					Type:     schemaTypeOf(p.Schema),
				})
			}

			if op.RequestBody != nil && op.RequestBody.Content != nil {
				if mt := firstJSONMediaType(op.RequestBody.Content); mt != nil && mt.Schema != nil {
					ep.RequestSchema = schemaToMap(mt.Schema.Schema(), 0)
				}
			}

			if op.Responses != nil && op.Responses.Codes != nil {
				ep.ResponseSchemas = map[int]map[string]any{}
				for respPair := op.Responses.Codes.First(); respPair != nil; respPair = respPair.Next() {
					status := respPair.Key()
					var code int
					if n, err := fmt.Sscanf(status, "%d", &code); err != nil || n != 1 {
						continue
					}
					resp := respPair.Value()
					if resp == nil || resp.Content == nil {
						continue
					}
					if mt := firstJSONMediaType(resp.Content); mt != nil && mt.Schema != nil {
						ep.ResponseSchemas[code] = schemaToMap(mt.Schema.Schema(), 0)
					}
				}
			}

			snap.Endpoints = append(snap.Endpoints, ep)
		}
	}

	return snap, nil
}

func flattenSecurity(reqs []*base.SecurityRequirement) []model.SecurityRequirement {
	var out []model.SecurityRequirement
	for _, r := range reqs {
		if r == nil || r.Requirements == nil {
			continue
		}
		for pair := r.Requirements.First(); pair != nil; pair = pair.Next() {
			out = append(out, model.SecurityRequirement{SchemeName: pair.Key()})
		}
	}
	return out
}

func normaliseScheme(s *v3.SecurityScheme) (model.SecurityScheme, bool) {
	if s == nil {
		return model.SecurityScheme{}, false
	}
	switch strings.ToLower(s.Type) {
	case "http":
		switch strings.ToLower(s.Scheme) {
		case "basic":
			return model.SecurityScheme{Kind: model.SchemeHTTPBasic}, true
		case "bearer":
			return model.SecurityScheme{Kind: model.SchemeHTTPBearer, BearerFormat: s.BearerFormat}, true
		}
	case "apikey":
		switch strings.ToLower(s.In) {
		case "header":
			return model.SecurityScheme{Kind: model.SchemeAPIKeyHdr, HeaderOrKey: s.Name}, true
		case "query":
			return model.SecurityScheme{Kind: model.SchemeAPIKeyQuery, HeaderOrKey: s.Name}, true
		}
	}
	return model.SecurityScheme{}, false
}

func schemaTypeOf(schema *base.SchemaProxy) string {
	if schema == nil {
		return "unknown"
	}
	s := schema.Schema()
	if s == nil || len(s.Type) == 0 {
		return "unknown"
	}
	return s.Type[0]
}

// firstJSONMediaType prefers "application/json" if present, else returns
// whichever media type entry iterates first.
func firstJSONMediaType(content *orderedmap.Map[string, *v3.MediaType]) *v3.MediaType {
	if content == nil {
		return nil
	}
	if mt, ok := content.Get("application/json"); ok {
		return mt
	}
	for pair := content.First(); pair != nil; pair = pair.Next() {
		return pair.Value()
	}
	return nil
}

// schemaToMap renders a *base.Schema into a plain JSON-Schema-shaped map
// (type, properties, required, items) to a shallow depth. This is not a
// full JSON Schema renderer: it exists to give the schema-conformance
// checker enough structure to validate simple response bodies, and to
// tolerate the self-referencing schemas OpenAPI documents commonly
// contain (capped depth avoids the cyclic-reference trap called out in
// the design notes).
func schemaToMap(s *base.Schema, depth int) map[string]any {
	if s == nil || depth > 6 {
		return nil
	}
	out := map[string]any{}
	if len(s.Type) == 1 {
		out["type"] = s.Type[0]
	} else if len(s.Type) > 1 {
		out["type"] = s.Type
	}
	if len(s.Required) > 0 {
		out["required"] = append([]string(nil), s.Required...)
	}
	if s.Properties != nil {
		props := map[string]any{}
		for pair := s.Properties.First(); pair != nil; pair = pair.Next() {
			if sub := pair.Value(); sub != nil {
				props[pair.Key()] = schemaToMap(sub.Schema(), depth+1)
			}
		}
		out["properties"] = props
	}
	if s.Items != nil && s.Items.IsA() {
		if itemSchema := s.Items.A; itemSchema != nil {
			out["items"] = schemaToMap(itemSchema.Schema(), depth+1)
		}
	}
	return out
}
