package probes

import (
	"net/http"
	"testing"

	"github.com/blackcoderx/apisentinel/internal/model"
)

func TestRunMassAssignmentRequiresDangerousFlag(t *testing.T) {
	srv := handlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(201) })
	defer srv.Close()

	snap := model.SpecSnapshot{Endpoints: []model.Endpoint{{Method: "POST", Path: "/users"}}}
	ctx := newTestContext(srv, snap, model.Flags{Dangerous: false})

	if findings := RunMassAssignment(ctx); findings != nil {
		t.Fatalf("expected nil without the dangerous flag, got %v", findings)
	}
}

func TestRunMassAssignmentDetectsAcceptedPrivilegedFields(t *testing.T) {
	srv := handlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(201) })
	defer srv.Close()

	snap := model.SpecSnapshot{Endpoints: []model.Endpoint{{Method: "POST", Path: "/users"}}}
	ctx := newTestContext(srv, snap, model.Flags{Dangerous: true})

	findings := RunMassAssignment(ctx)
	if len(findings) != 1 {
		t.Fatalf("expected 1 finding, got %d", len(findings))
	}
	if findings[0].Rule != "API6" {
		t.Fatalf("expected rule API6, got %q", findings[0].Rule)
	}
}

func TestRunMassAssignmentIgnoresReadOnlyMethods(t *testing.T) {
	srv := handlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(201) })
	defer srv.Close()

	snap := model.SpecSnapshot{Endpoints: []model.Endpoint{{Method: "GET", Path: "/users"}}}
	ctx := newTestContext(srv, snap, model.Flags{Dangerous: true})

	if findings := RunMassAssignment(ctx); len(findings) != 0 {
		t.Fatalf("expected no findings for a GET endpoint, got %d", len(findings))
	}
}
