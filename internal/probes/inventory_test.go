package probes

import (
	"net/http"
	"testing"

	"github.com/blackcoderx/apisentinel/internal/model"
)

func TestRunInventoryDetectsUndocumentedMethod(t *testing.T) {
	srv := handlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(200)
	})
	defer srv.Close()

	snap := model.SpecSnapshot{Endpoints: []model.Endpoint{{Method: "GET", Path: "/items/1"}}}
	ctx := newTestContext(srv, snap, model.Flags{})

	findings := RunInventory(ctx)
	if len(findings) == 0 {
		t.Fatal("expected at least one undocumented-method finding")
	}
	if findings[0].Rule != "API9" {
		t.Fatalf("expected rule API9, got %q", findings[0].Rule)
	}
}

func TestRunInventoryNoFindingWhenAltMethodsRejected(t *testing.T) {
	srv := handlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == "GET" && r.URL.Path == "/items/1" {
			w.WriteHeader(200)
			return
		}
		w.WriteHeader(404)
	})
	defer srv.Close()

	snap := model.SpecSnapshot{Endpoints: []model.Endpoint{{Method: "GET", Path: "/items/1"}}}
	ctx := newTestContext(srv, snap, model.Flags{})

	findings := RunInventory(ctx)
	if len(findings) != 0 {
		t.Fatalf("expected no findings when every undocumented method/sibling is rejected, got %d", len(findings))
	}
}
