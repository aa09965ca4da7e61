// Package evidence builds the structured reproduction package attached
// to every Finding: curl command (with redaction), truncated response
// body, and the canonical PoC reference table. Constants and string
// formats below are ported verbatim from scanner/core/evidence.py since
// SPEC_FULL.md describes them only in prose and this is exactly the kind
// of ambiguous-in-translation detail original_source/ is meant to pin
// down.
package evidence

import (
	"fmt"
	"strings"
	"time"

	"github.com/blackcoderx/apisentinel/internal/model"
)

const maxBodySize = 100 * 1024 // 100 KiB

var redactedHeaders = map[string]bool{
	"authorization": true,
	"cookie":        true,
	"x-api-key":     true,
}

// GenerateCurl renders a request as a copy-pasteable curl invocation,
// masking sensitive header values.
func GenerateCurl(req model.HTTPRequest) string {
	parts := []string{fmt.Sprintf("curl -X %s", req.Method)}
	parts = append(parts, fmt.Sprintf("'%s'", req.URL))

	for k, v := range req.Headers {
		if redactedHeaders[strings.ToLower(k)] {
			parts = append(parts, fmt.Sprintf("-H '%s: [REDACTED]'", k))
			continue
		}
		parts = append(parts, fmt.Sprintf("-H '%s: %s'", k, escapeSingleQuotes(v)))
	}

	if req.Body != "" {
		parts = append(parts, fmt.Sprintf("-d '%s'", escapeSingleQuotes(req.Body)))
	}

	return strings.Join(parts, " \\\n  ")
}

func escapeSingleQuotes(s string) string {
	return strings.ReplaceAll(s, "'", `'\''`)
}

// TruncateBody enforces the 100 KiB body cap, appending the fixed
// truncation marker when the body exceeds it. decodeFailed short-circuits
// to the fixed decode-failure marker regardless of body content.
func TruncateBody(body string, decodeFailed bool) string {
	if decodeFailed {
		return "[Unable to decode response body]"
	}
	if len(body) > maxBodySize {
		return fmt.Sprintf("%s\n\n[... truncated, original size: %d bytes]", body[:maxBodySize], len(body))
	}
	return body
}

// responseHeaderSafelist restricts captured response headers to this set
// when the caller asks for the safelisted view (prefix match for the
// x-ratelimit-* family).
var responseHeaderSafelist = []string{
	"content-type", "retry-after", "x-ratelimit-", "content-length", "server",
}

// SafelistHeaders filters a header map down to the evidence safelist.
func SafelistHeaders(headers map[string]string) map[string]string {
	out := make(map[string]string)
	for k, v := range headers {
		lk := strings.ToLower(k)
		for _, allowed := range responseHeaderSafelist {
			if strings.HasPrefix(lk, allowed) {
				out[k] = v
				break
			}
		}
	}
	return out
}

// Timestamp returns the current time formatted as ISO-8601 UTC with a
// trailing "Z", matching datetime.utcnow().isoformat() + "Z".
func Timestamp(now time.Time) string {
	return now.UTC().Format("2006-01-02T15:04:05.000000") + "Z"
}

// pocReferences is the canonical rule -> reference-URL table, ported
// verbatim from DEFAULT_POC_REFERENCES.
var pocReferences = map[string][]string{
	"API1": {
		"https://owasp.org/API-Security/editions/2023/en/0xa1-broken-object-level-authorization/",
		"https://portswigger.net/web-security/access-control/idor",
	},
	"API2": {
		"https://owasp.org/API-Security/editions/2023/en/0xa2-broken-authentication/",
		"https://cheatsheetseries.owasp.org/cheatsheets/Authentication_Cheat_Sheet.html",
	},
	"API3": {
		"https://owasp.org/API-Security/editions/2023/en/0xa3-broken-object-property-level-authorization/",
	},
	"API4": {
		"https://owasp.org/API-Security/editions/2023/en/0xa4-unrestricted-resource-consumption/",
	},
	"API5": {
		"https://owasp.org/API-Security/editions/2023/en/0xa5-broken-function-level-authorization/",
	},
	"API6": {
		"https://owasp.org/API-Security/editions/2023/en/0xa6-unrestricted-access-to-sensitive-business-flows/",
	},
	"API7": {
		"https://owasp.org/API-Security/editions/2023/en/0xa7-server-side-request-forgery/",
		"https://portswigger.net/web-security/ssrf",
	},
	"API8": {
		"https://owasp.org/API-Security/editions/2023/en/0xa8-security-misconfiguration/",
		"https://cheatsheetseries.owasp.org/cheatsheets/SQL_Injection_Prevention_Cheat_Sheet.html",
	},
	"API9": {
		"https://owasp.org/API-Security/editions/2023/en/0xa9-improper-inventory-management/",
	},
	"API10": {
		"https://owasp.org/API-Security/editions/2023/en/0xaa-unsafe-consumption-of-apis/",
	},
}

// PocReferences returns the reference URLs for a rule id, or nil for an
// unknown rule.
func PocReferences(rule string) []string {
	return pocReferences[rule]
}

// Build assembles a complete Evidence record for one Finding. The
// response passed in should already have had its body run through
// TruncateBody by the caller (probes decide decodeFailed for themselves).
func Build(req model.HTTPRequest, resp model.HTTPResponse, authContext, probeName string, steps []string, whyVulnerable, attackScenario, rule string) model.Evidence {
	return model.Evidence{
		Request:        req,
		Response:       resp,
		AuthContext:    authContext,
		ProbeName:      probeName,
		Timestamp:      Timestamp(time.Now()),
		CurlCommand:    GenerateCurl(req),
		Steps:          steps,
		WhyVulnerable:  whyVulnerable,
		AttackScenario: attackScenario,
		PocReferences:  PocReferences(rule),
	}
}
