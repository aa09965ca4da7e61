package authutil

import "testing"

func TestParseJWT(t *testing.T) {
	// header {"alg":"HS256","typ":"JWT"}, payload {"sub":"1234","exp":1700000000}
	token := "eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9.eyJzdWIiOiIxMjM0IiwiZXhwIjoxNzAwMDAwMDAwfQ.sig"

	parts, err := ParseJWT(token)
	if err != nil {
		t.Fatalf("ParseJWT: %v", err)
	}
	if parts.Verified {
		t.Fatal("Verified must always be false, this package never checks signatures")
	}
	if parts.Signature != "sig" {
		t.Fatalf("expected raw signature segment, got %q", parts.Signature)
	}
	if parts.Header == "" || parts.Claims == "" {
		t.Fatal("expected decoded header and claims")
	}
}

func TestParseJWTBearerPrefix(t *testing.T) {
	token := "Bearer eyJhbGciOiJIUzI1NiJ9.eyJzdWIiOiJhIn0.sig"
	if _, err := ParseJWT(token); err != nil {
		t.Fatalf("ParseJWT with Bearer prefix: %v", err)
	}
}

func TestParseJWTInvalidFormat(t *testing.T) {
	if _, err := ParseJWT("not-a-jwt"); err == nil {
		t.Fatal("expected an error for a token with the wrong number of segments")
	}
}

func TestBasicRoundTrip(t *testing.T) {
	header := EncodeBasic("alice", "s3cret")
	creds, err := DecodeBasic(header)
	if err != nil {
		t.Fatalf("DecodeBasic: %v", err)
	}
	if creds.Username != "alice" || creds.Password != "s3cret" {
		t.Fatalf("unexpected round trip: %+v", creds)
	}
}

func TestDecodeBasicInvalid(t *testing.T) {
	if _, err := DecodeBasic("Basic not-base64!!"); err == nil {
		t.Fatal("expected an error for invalid base64")
	}
}

func TestTokenResultAuthorizationHeader(t *testing.T) {
	tr := TokenResult{AccessToken: "abc123"}
	if got := tr.AuthorizationHeader(); got != "Bearer abc123" {
		t.Fatalf("expected default Bearer scheme, got %q", got)
	}

	tr.TokenType = "MAC"
	if got := tr.AuthorizationHeader(); got != "MAC abc123" {
		t.Fatalf("expected issuer-specified scheme, got %q", got)
	}
}
