package specloader

import (
	"testing"

	"github.com/blackcoderx/apisentinel/internal/model"
)

const sampleOpenAPI = `
openapi: "3.0.0"
info:
  title: Sample API
  version: "1.0"
servers:
  - url: https://api.example.com
security:
  - bearerAuth: []
components:
  securitySchemes:
    bearerAuth:
      type: http
      scheme: bearer
    apiKeyAuth:
      type: apiKey
      in: header
      name: X-API-Key
paths:
  /users/{id}:
    get:
      operationId: getUser
      parameters:
        - name: id
          in: path
          required: true
          schema:
            type: string
      responses:
        "200":
          description: ok
          content:
            application/json:
              schema:
                type: object
    delete:
      operationId: deleteUser
      security: []
      responses:
        "204":
          description: no content
  /public/ping:
    get:
      operationId: ping
      responses:
        "200":
          description: ok
`

func TestLoadOpenAPIBasicShape(t *testing.T) {
	snap, err := LoadOpenAPI([]byte(sampleOpenAPI), "inline")
	if err != nil {
		t.Fatalf("LoadOpenAPI: %v", err)
	}
	if snap.Title != "Sample API" {
		t.Fatalf("expected title to be parsed, got %q", snap.Title)
	}
	if len(snap.Servers) != 1 || snap.Servers[0] != "https://api.example.com" {
		t.Fatalf("unexpected servers: %+v", snap.Servers)
	}
	if len(snap.GlobalSecurity) != 1 || snap.GlobalSecurity[0].SchemeName != "bearerAuth" {
		t.Fatalf("expected global bearerAuth requirement, got %+v", snap.GlobalSecurity)
	}
	if _, ok := snap.Schemes["bearerAuth"]; !ok {
		t.Fatal("expected bearerAuth scheme to be normalised")
	}
	if scheme := snap.Schemes["apiKeyAuth"]; scheme.Kind != model.SchemeAPIKeyHdr || scheme.HeaderOrKey != "X-API-Key" {
		t.Fatalf("unexpected apiKeyAuth scheme: %+v", scheme)
	}
	if len(snap.Endpoints) != 3 {
		t.Fatalf("expected 3 endpoints (GET+DELETE /users/{id}, GET /public/ping), got %d", len(snap.Endpoints))
	}

	var deleteEP *model.Endpoint
	for i := range snap.Endpoints {
		if snap.Endpoints[i].Method == "DELETE" {
			deleteEP = &snap.Endpoints[i]
		}
	}
	if deleteEP == nil {
		t.Fatal("expected a DELETE /users/{id} endpoint")
	}
	if !deleteEP.HasSecurityInfo || len(deleteEP.Security) != 0 {
		t.Fatalf("expected DELETE to be explicitly unauthenticated, got %+v", deleteEP.Security)
	}
	if !deleteEP.HasPathVariable() {
		t.Fatal("expected /users/{id} to report a path variable")
	}
}

func TestLoadOpenAPIInvalidDocument(t *testing.T) {
	if _, err := LoadOpenAPI([]byte("not: [valid, openapi"), "inline"); err == nil {
		t.Fatal("expected an error for a malformed document")
	}
}

func TestLooksLikeOpenAPI(t *testing.T) {
	if !LooksLikeOpenAPI([]byte(sampleOpenAPI)) {
		t.Fatal("expected the sample document to be detected as OpenAPI")
	}
	if LooksLikeOpenAPI([]byte(`{"info":{"name":"a postman collection"}}`)) {
		t.Fatal("did not expect a non-OpenAPI document to be detected as OpenAPI")
	}
}
