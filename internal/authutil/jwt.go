// Package authutil is operator tooling for §4.3: inspecting bearer/basic
// credentials and minting a fresh OAuth2 token before a scan starts. It
// never participates in probe signal logic — the probe suite's bogus and
// missing-credential variants are layered on top of whatever baseline
// header an operator builds here.
package authutil

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
)

// JWTParts is a decoded JSON Web Token for human inspection. No signature
// verification is performed or implied — Verified is always false and
// exists only to make that explicit to callers.
type JWTParts struct {
	Header    string
	Claims    string
	Signature string
	Verified  bool
}

// ParseJWT splits a bearer token into its three dot-separated segments and
// base64-decodes the header and claims for display. The signature segment
// is reported as-is (still base64) since it cannot be verified without the
// issuer's key.
func ParseJWT(token string) (JWTParts, error) {
	token = strings.TrimPrefix(token, "Bearer ")
	token = strings.TrimSpace(token)

	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return JWTParts{}, fmt.Errorf("invalid JWT format (expected 3 dot-separated parts, got %d)", len(parts))
	}

	header, herr := decodeJWTSegment(parts[0])
	claims, cerr := decodeJWTSegment(parts[1])
	if herr != nil {
		header = fmt.Sprintf("(decode error: %v)", herr)
	}
	if cerr != nil {
		claims = fmt.Sprintf("(decode error: %v)", cerr)
	}

	return JWTParts{
		Header:    prettyJSON(header),
		Claims:    prettyJSON(claims),
		Signature: parts[2],
		Verified:  false,
	}, nil
}

// decodeJWTSegment decodes a single JWT segment. JWT uses unpadded
// URL-safe base64; some encoders pad anyway, so padded decode is tried as
// a fallback.
func decodeJWTSegment(segment string) (string, error) {
	if decoded, err := base64.RawURLEncoding.DecodeString(segment); err == nil {
		return string(decoded), nil
	}

	padded := segment
	switch len(padded) % 4 {
	case 2:
		padded += "=="
	case 3:
		padded += "="
	}
	decoded, err := base64.URLEncoding.DecodeString(padded)
	if err != nil {
		return "", fmt.Errorf("failed to decode JWT segment: %w", err)
	}
	return string(decoded), nil
}

func prettyJSON(s string) string {
	var obj interface{}
	if err := json.Unmarshal([]byte(s), &obj); err != nil {
		return s
	}
	pretty, err := json.MarshalIndent(obj, "", "  ")
	if err != nil {
		return s
	}
	return string(pretty)
}

// BasicCredentials is a decoded HTTP Basic Authorization header.
type BasicCredentials struct {
	Username string
	Password string
}

// DecodeBasic decodes an HTTP Basic Authorization header value (with or
// without the "Basic " prefix) into its username/password pair.
func DecodeBasic(header string) (BasicCredentials, error) {
	encoded := strings.TrimPrefix(header, "Basic ")
	encoded = strings.TrimSpace(encoded)

	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return BasicCredentials{}, fmt.Errorf("failed to decode Basic auth: %w", err)
	}

	parts := strings.SplitN(string(decoded), ":", 2)
	if len(parts) != 2 {
		return BasicCredentials{}, fmt.Errorf("invalid Basic auth format (expected username:password)")
	}
	return BasicCredentials{Username: parts[0], Password: parts[1]}, nil
}

// EncodeBasic builds the value of a Basic Authorization header from a
// username/password pair, mirroring how an operator's stored credentials
// become the baseline request header.
func EncodeBasic(username, password string) string {
	raw := fmt.Sprintf("%s:%s", username, password)
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(raw))
}
