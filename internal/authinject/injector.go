// Package authinject applies the scanner's four fixed credential
// variants to an outgoing request, mirroring scanner/runtime/auth.py's
// AuthContext.apply exactly: scheme kind and variant label together
// decide whether the request is mutated, nothing else does.
package authinject

import (
	"encoding/base64"

	"github.com/blackcoderx/apisentinel/internal/model"
)

// Variant is one of the four credential-injection strategies a probe may
// request.
type Variant string

const (
	VariantNone             Variant = ""
	VariantBasicDefault     Variant = "basic-default"
	VariantBogusBearer      Variant = "bogus"
	VariantAPIKeyPlaceholder Variant = "apikey-placeholder"
)

const bogusBearerToken = "eyJbogus.eyJbogus.sig"

// Injector applies security-scheme-aware credential variants. It is
// constructed once per job from the chunk's resolved scheme map.
type Injector struct {
	Schemes  map[string]model.SecurityScheme
	FuzzAuth bool
}

// New builds an Injector bound to a spec snapshot's scheme table and the
// scan's fuzz-auth flag.
func New(schemes map[string]model.SecurityScheme, fuzzAuth bool) *Injector {
	return &Injector{Schemes: schemes, FuzzAuth: fuzzAuth}
}

// Apply mutates req in place for the named scheme and variant. A missing
// scheme name or an unrecognised (scheme-kind, variant) combination is a
// silent no-op, matching the original's behaviour.
func (inj *Injector) Apply(req *model.HTTPRequest, schemeName string, variant Variant) {
	if schemeName == "" {
		return
	}
	scheme, ok := inj.Schemes[schemeName]
	if !ok {
		return
	}
	if req.Headers == nil {
		req.Headers = map[string]string{}
	}
	if req.Query == nil {
		req.Query = map[string]string{}
	}

	switch scheme.Kind {
	case model.SchemeHTTPBasic:
		if inj.FuzzAuth && variant == VariantBasicDefault {
			token := base64.StdEncoding.EncodeToString([]byte("admin:admin"))
			req.Headers["Authorization"] = "Basic " + token
		}
	case model.SchemeHTTPBearer:
		if variant == VariantBogusBearer {
			req.Headers["Authorization"] = "Bearer " + bogusBearerToken
		}
	case model.SchemeAPIKeyHdr:
		if variant == VariantAPIKeyPlaceholder && scheme.HeaderOrKey != "" {
			req.Headers[scheme.HeaderOrKey] = "PLACEHOLDER"
		}
	case model.SchemeAPIKeyQuery:
		if variant == VariantAPIKeyPlaceholder && scheme.HeaderOrKey != "" {
			req.Query[scheme.HeaderOrKey] = "PLACEHOLDER"
		}
	}
}

// FirstSchemeFor returns the first security-requirement scheme name an
// endpoint declares (resolving "inherit global" against globalSchemes),
// or "" if the endpoint is explicitly unauthenticated or declares no
// scheme at all. Probes that only need "is *any* scheme involved" use
// this instead of walking model.Endpoint.Security themselves.
func FirstSchemeFor(ep model.Endpoint, global []model.SecurityRequirement) string {
	reqs := ep.Security
	if !ep.HasSecurityInfo {
		reqs = global
	}
	if len(reqs) == 0 {
		return ""
	}
	return reqs[0].SchemeName
}
