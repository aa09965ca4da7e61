package probes

import (
	"net/http"
	"testing"

	"github.com/blackcoderx/apisentinel/internal/model"
)

func TestRunBFLADetectsOpenAdminEndpoint(t *testing.T) {
	srv := handlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	defer srv.Close()

	snap := model.SpecSnapshot{Endpoints: []model.Endpoint{
		{Method: "POST", Path: "/admin/users/promote"},
	}}
	ctx := newTestContext(srv, snap, model.Flags{})

	findings := RunBFLA(ctx)
	if len(findings) != 1 {
		t.Fatalf("expected 1 finding, got %d", len(findings))
	}
	if findings[0].Rule != "API5" {
		t.Fatalf("expected rule API5, got %q", findings[0].Rule)
	}
}

func TestRunBFLAIgnoresNonAdminEndpoints(t *testing.T) {
	srv := handlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	defer srv.Close()

	snap := model.SpecSnapshot{Endpoints: []model.Endpoint{
		{Method: "GET", Path: "/users/1"},
	}}
	ctx := newTestContext(srv, snap, model.Flags{})

	if findings := RunBFLA(ctx); len(findings) != 0 {
		t.Fatalf("expected no findings for a non-admin endpoint, got %d", len(findings))
	}
}

func TestRunBFLAMatchesViaTag(t *testing.T) {
	srv := handlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	defer srv.Close()

	snap := model.SpecSnapshot{Endpoints: []model.Endpoint{
		{Method: "DELETE", Path: "/users/1", Tags: []string{"Admin"}},
	}}
	ctx := newTestContext(srv, snap, model.Flags{})

	if findings := RunBFLA(ctx); len(findings) != 1 {
		t.Fatalf("expected 1 finding when the tag (not the path) mentions admin, got %d", len(findings))
	}
}
