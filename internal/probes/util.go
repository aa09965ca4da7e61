// Package probes implements the ten OWASP API Security Top 10 detection
// strategies, each grounded on its counterpart in scanner/probes/*.py:
// same endpoint-selection rule, same signal, same evidence prose, just
// expressed as a Go function over the shared model/httpclient/authinject
// packages instead of an async Python coroutine over httpx. Structurally
// this also follows the teacher's own security_scanner.OWASPChecker
// (falcon): one exported suite entry point that loops probes over an
// endpoint list and collects Vulnerability-shaped records — except here
// the probe set and signal rules are the OWASP API Top 10 (API1..API10)
// from SPEC_FULL.md, not falcon's OWASP-for-web (A01..A10) checks.
package probes

import (
	"encoding/json"
	"regexp"
	"sort"
	"strings"

	"github.com/blackcoderx/apisentinel/internal/authinject"
	"github.com/blackcoderx/apisentinel/internal/httpclient"
	"github.com/blackcoderx/apisentinel/internal/model"
)

// Context bundles everything a probe needs: the chunk it runs against,
// its job's budgeted/rate-limited client, the auth injector bound to
// that chunk's resolved schemes, and the scan-wide flags.
type Context struct {
	Snapshot model.SpecSnapshot
	Client   *httpclient.Client
	Auth     *authinject.Injector
	BaseURL  string
	Flags    model.Flags
	// Cancelled is polled between endpoints/probes; nil means never
	// cancelled (used by tests and by the CLI's single-shot scan mode).
	Cancelled func() bool
}

func (c *Context) cancelled() bool {
	return c.Cancelled != nil && c.Cancelled()
}

func joinURL(base, path string) string {
	return strings.TrimSuffix(base, "/") + "/" + strings.TrimPrefix(path, "/")
}

// substituteVar replaces every `{...}` path template placeholder with the
// given value. BOLA only ever has one variable per selected endpoint in
// practice, but replacing all occurrences keeps the helper correct for
// paths with more than one.
var pathVarPattern = regexp.MustCompile(`\{[^}/]+\}`)

func substituteVar(path, value string) string {
	return pathVarPattern.ReplaceAllString(path, value)
}

func statusIn(code int, set ...int) bool {
	for _, s := range set {
		if code == s {
			return true
		}
	}
	return false
}

func hasAnyHeader(headers map[string]string, names ...string) bool {
	for _, n := range names {
		for k := range headers {
			if strings.EqualFold(k, n) {
				return true
			}
		}
	}
	return false
}

func headerValue(headers map[string]string, name string) (string, bool) {
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}
	return "", false
}

const injectionScanWindow = 4096 // 4 KiB cap on the error-pattern scan

var errorPatterns = regexp.MustCompile(`(?i)SQL syntax|SQLSTATE|ORA-\d{5}|mysql_|PDOException|MongoError|Traceback \(most recent call last\)|System\.InvalidOperationException|ReferenceError|TypeError|stack trace`)

func looksLikeError(body string) bool {
	if body == "" {
		return false
	}
	window := body
	if len(window) > injectionScanWindow {
		window = window[:injectionScanWindow]
	}
	return errorPatterns.MatchString(window)
}

// collectKeys walks arbitrary decoded JSON depth-first, collecting every
// object key seen at any depth. Depth is capped at 64 to make the walk
// provably terminating even on hostile/cyclic-looking payloads.
func collectKeys(v any, depth int, out map[string]struct{}) {
	if depth > 64 {
		return
	}
	switch t := v.(type) {
	case map[string]any:
		for k, sub := range t {
			out[k] = struct{}{}
			collectKeys(sub, depth+1, out)
		}
	case []any:
		for _, sub := range t {
			collectKeys(sub, depth+1, out)
		}
	}
}

const maxExposureParseSize = 1024 * 1024 // 1 MiB

var sensitiveKeyHints = []string{"password", "token", "secret", "apikey", "ssn", "dob", "email"}

// sensitiveKeysIn decodes a JSON body (capped at 1 MiB) and returns the
// sorted set of keys that case-insensitively contain one of the fixed
// sensitive-hint substrings.
func sensitiveKeysIn(body string) []string {
	if len(body) == 0 || len(body) > maxExposureParseSize {
		return nil
	}
	var data any
	if err := json.Unmarshal([]byte(body), &data); err != nil {
		return nil
	}
	keys := map[string]struct{}{}
	collectKeys(data, 0, keys)

	var hits []string
	for k := range keys {
		lk := strings.ToLower(k)
		for _, hint := range sensitiveKeyHints {
			if strings.Contains(lk, hint) {
				hits = append(hits, k)
				break
			}
		}
	}
	sort.Strings(hits)
	return hits
}
