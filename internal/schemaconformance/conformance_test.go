package schemaconformance

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/blackcoderx/apisentinel/internal/httpclient"
	"github.com/blackcoderx/apisentinel/internal/model"
)

var userSchema = map[string]any{
	"type":     "object",
	"required": []any{"id", "name"},
	"properties": map[string]any{
		"id":   map[string]any{"type": "integer"},
		"name": map[string]any{"type": "string"},
	},
}

func TestRunValidBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(200)
		w.Write([]byte(`{"id":1,"name":"ada"}`))
	}))
	defer srv.Close()

	snap := model.SpecSnapshot{Endpoints: []model.Endpoint{
		{Method: "GET", Path: "/users/1", ResponseSchemas: map[int]map[string]any{200: userSchema}},
	}}
	client := httpclient.New(srv.URL, 1000, 1000)

	results := Run(snap, srv.URL, client)
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if !results[0].Valid {
		t.Fatalf("expected a valid result, got errors %v", results[0].Errors)
	}
}

func TestRunInvalidBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(200)
		w.Write([]byte(`{"id":"not-a-number"}`))
	}))
	defer srv.Close()

	snap := model.SpecSnapshot{Endpoints: []model.Endpoint{
		{Method: "GET", Path: "/users/1", ResponseSchemas: map[int]map[string]any{200: userSchema}},
	}}
	client := httpclient.New(srv.URL, 1000, 1000)

	results := Run(snap, srv.URL, client)
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Valid {
		t.Fatal("expected the result to be invalid")
	}
	if len(results[0].Errors) == 0 {
		t.Fatal("expected at least one validation error")
	}
}

func TestRunSkipsEndpointsWithoutDeclaredSchema(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(200)
	}))
	defer srv.Close()

	snap := model.SpecSnapshot{Endpoints: []model.Endpoint{
		{Method: "GET", Path: "/ping"},
		{Method: "POST", Path: "/users", ResponseSchemas: map[int]map[string]any{200: userSchema}},
	}}
	client := httpclient.New(srv.URL, 1000, 1000)

	if results := Run(snap, srv.URL, client); results != nil {
		t.Fatalf("expected no results, got %v", results)
	}
}

func TestRunSkipsNonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(404)
	}))
	defer srv.Close()

	snap := model.SpecSnapshot{Endpoints: []model.Endpoint{
		{Method: "GET", Path: "/users/1", ResponseSchemas: map[int]map[string]any{200: userSchema}},
	}}
	client := httpclient.New(srv.URL, 1000, 1000)

	if results := Run(snap, srv.URL, client); results != nil {
		t.Fatalf("expected no results for a non-2xx response, got %v", results)
	}
}
