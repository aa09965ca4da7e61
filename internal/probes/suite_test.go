package probes

import (
	"net/http"
	"testing"

	"github.com/blackcoderx/apisentinel/internal/authinject"
	"github.com/blackcoderx/apisentinel/internal/httpclient"
	"github.com/blackcoderx/apisentinel/internal/model"
	"github.com/blackcoderx/apisentinel/internal/scanerrors"
)

func TestRunAllFiresInOrderWithProgress(t *testing.T) {
	srv := handlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	defer srv.Close()

	snap := model.SpecSnapshot{Endpoints: []model.Endpoint{{Method: "GET", Path: "/x"}}}
	ctx := newTestContext(srv, snap, model.Flags{})

	var names []string
	var pcts []int
	RunAll(ctx, func(phase string, pct int) {
		names = append(names, phase)
		pcts = append(pcts, pct)
	}, nil)

	wantNames := []string{"AuthMatrix", "BOLA", "BFLA", "RateLimit", "Exposure", "MassAssignment", "Misconfig", "Injection", "Inventory", "Logging"}
	if len(names) != len(wantNames) {
		t.Fatalf("expected %d progress callbacks, got %d: %v", len(wantNames), len(names), names)
	}
	for i, n := range wantNames {
		if names[i] != n {
			t.Fatalf("step %d: expected %q, got %q", i, n, names[i])
		}
		if pcts[i] != (i+1)*10 {
			t.Fatalf("step %d: expected progress %d, got %d", i, (i+1)*10, pcts[i])
		}
	}
}

func TestRunAllStopsWhenCancelled(t *testing.T) {
	srv := handlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	defer srv.Close()

	snap := model.SpecSnapshot{Endpoints: []model.Endpoint{{Method: "GET", Path: "/x"}}}
	ctx := newTestContext(srv, snap, model.Flags{})
	ctx.Cancelled = func() bool { return true }

	var calls int
	RunAll(ctx, func(phase string, pct int) { calls++ }, nil)
	if calls != 0 {
		t.Fatalf("expected zero progress callbacks once cancelled before the first step, got %d", calls)
	}
}

func TestRunAllStopsWhenBudgetExhausted(t *testing.T) {
	srv := handlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	defer srv.Close()

	snap := model.SpecSnapshot{Endpoints: []model.Endpoint{{Method: "GET", Path: "/x"}}}
	client := httpclient.New(srv.URL, 1000, 1)
	ctx := &Context{
		Snapshot: snap,
		Client:   client,
		Auth:     authinject.New(snap.Schemes, false),
		BaseURL:  srv.URL,
		Flags:    model.Flags{},
	}
	client.Do(model.HTTPRequest{Method: "GET", URL: srv.URL})
	if !ctx.Client.Exhausted() {
		t.Fatal("expected the single-request budget to be exhausted")
	}

	var calls int
	RunAll(ctx, func(phase string, pct int) { calls++ }, nil)
	if calls != 0 {
		t.Fatalf("expected zero progress callbacks once the budget is exhausted, got %d", calls)
	}
}

func TestRunProbeSafelyRecoversPanic(t *testing.T) {
	step := probeStep{rule: "API1", name: "Panicky", run: func(ctx *Context) []model.Finding {
		panic("boom")
	}}
	findings, probeErr := runProbeSafely(step, &Context{})
	if findings != nil {
		t.Fatalf("expected nil findings from a recovered panic, got %v", findings)
	}
	if probeErr == nil {
		t.Fatal("expected a non-nil ProbeInternalError")
	}
	if probeErr.Probe != "Panicky" {
		t.Fatalf("expected probe name %q, got %q", "Panicky", probeErr.Probe)
	}
	var _ *scanerrors.ProbeInternalError = probeErr
}

func TestRunAllSurfacesProbeErrorWithoutAborting(t *testing.T) {
	srv := handlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	defer srv.Close()

	snap := model.SpecSnapshot{Endpoints: []model.Endpoint{{Method: "GET", Path: "/x"}}}
	ctx := newTestContext(srv, snap, model.Flags{})

	orig := steps
	defer func() { steps = orig }()
	steps = []probeStep{
		{"API1", "First", func(ctx *Context) []model.Finding { panic("kaboom") }},
		{"API2", "Second", func(ctx *Context) []model.Finding { return nil }},
	}

	var errs []*scanerrors.ProbeInternalError
	var progressed []string
	RunAll(ctx, func(phase string, pct int) { progressed = append(progressed, phase) }, func(err *scanerrors.ProbeInternalError) {
		errs = append(errs, err)
	})

	if len(errs) != 1 || errs[0].Probe != "First" {
		t.Fatalf("expected exactly one recovered error from probe First, got %+v", errs)
	}
	if len(progressed) != 2 || progressed[1] != "Second" {
		t.Fatalf("expected the sweep to continue into the second probe, got %v", progressed)
	}
}
