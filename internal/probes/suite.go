package probes

import (
	"fmt"

	"github.com/blackcoderx/apisentinel/internal/model"
	"github.com/blackcoderx/apisentinel/internal/scanerrors"
	"github.com/blackcoderx/apisentinel/internal/scoring"
)

// ruleTitles is the canonical rule -> title table, ported verbatim from
// analysis/mapping.py's RULES dict. Findings must use these exact
// strings.
var ruleTitles = map[string]string{
	"API1":  "Broken Object Level Authorization (BOLA)",
	"API2":  "Broken Authentication",
	"API3":  "Excessive Data Exposure",
	"API4":  "Lack of Rate Limiting",
	"API5":  "Broken Function Level Authorization (BFLA)",
	"API6":  "Mass Assignment",
	"API7":  "Security Misconfiguration",
	"API8":  "Injection",
	"API9":  "Improper Assets Management",
	"API10": "Insufficient Logging & Monitoring",
}

func ruleTitle(rule string) string { return ruleTitles[rule] }

func scoreFor(rule string) (float64, string) {
	return scoring.Score(rule, nil, nil)
}

// Probe names the fixed fire order §4.10 requires.
type probeStep struct {
	rule string
	name string
	run  func(*Context) []model.Finding
}

var steps = []probeStep{
	{"API2", "AuthMatrix", RunAuthMatrix},
	{"API1", "BOLA", RunBOLA},
	{"API5", "BFLA", RunBFLA},
	{"API4", "RateLimit", RunRateLimit},
	{"API3", "Exposure", RunExposure},
	{"API6", "MassAssignment", RunMassAssignment},
	{"API7", "Misconfig", RunMisconfig},
	{"API8", "Injection", RunInjection},
	{"API9", "Inventory", RunInventory},
	{"API10", "Logging", RunLogging},
}

// RunAll executes every probe in the fixed order the worker contract
// requires, calling onProgress after each one with its name and the
// cumulative percentage (10 * step index). It stops early, cleanly, the
// moment the client's request budget is exhausted or cancellation is
// observed, per §5's cooperative-cancellation contract — both are normal
// outcomes, not errors. A probe that panics is recovered and reported
// through onProbeError as a *scanerrors.ProbeInternalError; the sweep
// continues with the next probe in sequence rather than aborting, per
// §4.10's "log it and move on" worker contract.
func RunAll(ctx *Context, onProgress func(phase string, pct int), onProbeError func(err *scanerrors.ProbeInternalError)) []model.Finding {
	var all []model.Finding

	for i, step := range steps {
		if ctx.cancelled() || ctx.Client.Exhausted() {
			break
		}
		found, probeErr := runProbeSafely(step, ctx)
		all = append(all, found...)
		if probeErr != nil && onProbeError != nil {
			onProbeError(probeErr)
		}
		if onProgress != nil {
			onProgress(step.name, (i+1)*10)
		}
	}

	return all
}

// runProbeSafely recovers from a probe panic so one broken probe never
// takes down the rest of the sweep, matching the ProbeInternalError
// contract: the recovered value is wrapped and handed back to the
// caller instead of just being swallowed.
func runProbeSafely(step probeStep, ctx *Context) (findings []model.Finding, probeErr *scanerrors.ProbeInternalError) {
	defer func() {
		if r := recover(); r != nil {
			findings = nil
			probeErr = &scanerrors.ProbeInternalError{Probe: step.name, Cause: fmt.Errorf("%v", r)}
		}
	}()
	return step.run(ctx), nil
}
