package probes

import (
	"net/http"
	"strings"
	"testing"

	"github.com/blackcoderx/apisentinel/internal/model"
)

func TestRunMisconfigDetectsPermissiveCORS(t *testing.T) {
	srv := handlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == "OPTIONS" {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Credentials", "true")
		}
		w.WriteHeader(200)
	})
	defer srv.Close()

	snap := model.SpecSnapshot{Endpoints: []model.Endpoint{{Method: "GET", Path: "/x"}}}
	ctx := newTestContext(srv, snap, model.Flags{})

	findings := RunMisconfig(ctx)
	found := false
	for _, f := range findings {
		if strings.Contains(f.Description, "CORS") {
			found = true
			if f.Endpoint != "/x" {
				t.Fatalf("expected the CORS finding's endpoint to be the path it was probed on, got %q", f.Endpoint)
			}
		}
	}
	if !found {
		t.Fatalf("expected a CORS misconfiguration finding, got %+v", findings)
	}
}

func TestRunMisconfigPlaintextBaseURL(t *testing.T) {
	srv := handlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	defer srv.Close()
	// httptest servers are plain http://, which is exactly the signal under test.

	snap := model.SpecSnapshot{Endpoints: []model.Endpoint{{Method: "GET", Path: "/x"}}}
	ctx := newTestContext(srv, snap, model.Flags{})

	findings := RunMisconfig(ctx)
	if len(findings) == 0 {
		t.Fatal("expected at least the plaintext-base-URL finding")
	}
	if findings[0].Rule != "API7" {
		t.Fatalf("expected rule API7, got %q", findings[0].Rule)
	}
	if findings[0].Endpoint != "/" {
		t.Fatalf("expected the plaintext-base-URL finding's endpoint to be \"/\", got %q", findings[0].Endpoint)
	}
}
