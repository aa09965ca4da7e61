// Package worker implements the §4.10 worker lifecycle: register, pull
// one job at a time off the queue, run the fixed probe suite (and the
// optional schema-conformance pass) against its chunk, write results
// back, repeat.
package worker

import (
	"sync"
	"time"

	"github.com/blackcoderx/apisentinel/internal/authinject"
	"github.com/blackcoderx/apisentinel/internal/httpclient"
	"github.com/blackcoderx/apisentinel/internal/model"
	"github.com/blackcoderx/apisentinel/internal/plugins"
	"github.com/blackcoderx/apisentinel/internal/probes"
	"github.com/blackcoderx/apisentinel/internal/queue"
	"github.com/blackcoderx/apisentinel/internal/scanerrors"
	"github.com/blackcoderx/apisentinel/internal/schemaconformance"
)

// reserveTimeout is how long one Reserve call blocks before the worker
// loops back around to check for a stop signal.
const reserveTimeout = 30 * time.Second

// status is a worker's own lifecycle state, distinct from a job's.
type status string

const (
	statusReady status = "ready"
	statusBusy  status = "busy"
)

// info is what the worker set exposes about one registered worker.
type info struct {
	ID         string
	StartedAt  time.Time
	Status     status
	LastUpdate time.Time
	CurrentJob string
}

// Registry is the in-process analogue of §6's `scanner_workers` hash.
// It exists so the worker lifecycle's "register" step has somewhere
// real to write to, independent of which Queue implementation is in
// use.
type Registry struct {
	mu      sync.Mutex
	workers map[string]info
}

// NewRegistry builds an empty worker registry.
func NewRegistry() *Registry {
	return &Registry{workers: map[string]info{}}
}

func (r *Registry) register(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.workers[id] = info{ID: id, StartedAt: time.Now(), Status: statusReady, LastUpdate: time.Now()}
}

func (r *Registry) setBusy(id, jobID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w := r.workers[id]
	w.Status = statusBusy
	w.CurrentJob = jobID
	w.LastUpdate = time.Now()
	r.workers[id] = w
}

func (r *Registry) setReady(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w := r.workers[id]
	w.Status = statusReady
	w.CurrentJob = ""
	w.LastUpdate = time.Now()
	r.workers[id] = w
}

// Snapshot returns the registry's current state, for diagnostics.
func (r *Registry) Snapshot() []info {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]info, 0, len(r.workers))
	for _, w := range r.workers {
		out = append(out, w)
	}
	return out
}

// Worker pulls jobs from one Queue and runs the probe suite against
// each one's chunk.
type Worker struct {
	ID       string
	Queue    queue.Queue
	Registry *Registry

	// Plugins, when set, is run against each job's chunk after the fixed
	// probe suite, per §4.12; a nil registry (the default) means no
	// external scanner integrations are exercised for this worker.
	Plugins *plugins.Registry

	// OnProbeError, when set, is called whenever a probe panics during a
	// job's sweep; by default the error is simply discarded after being
	// recorded against the job is not possible (Job has no per-probe
	// error slots), so this hook exists for callers that want to log it.
	OnProbeError func(jobID string, err *scanerrors.ProbeInternalError)

	// OnPluginError, when set, is called for each plugin that returned an
	// error during a job's sweep, keyed by plugin name.
	OnPluginError func(jobID, pluginName string, err error)
}

// New builds a Worker bound to a queue and (optionally shared) registry.
func New(id string, q queue.Queue, reg *Registry) *Worker {
	return &Worker{ID: id, Queue: q, Registry: reg}
}

// Run drives the lifecycle loop until stop is closed. It returns once a
// final, in-flight job (if any) has been fully processed.
func (w *Worker) Run(stop <-chan struct{}) {
	w.Registry.register(w.ID)

	for {
		select {
		case <-stop:
			return
		default:
		}

		job, err := w.Queue.Reserve(w.ID, reserveTimeout)
		if err != nil {
			continue // no job within the timeout; loop and check stop again
		}

		w.Registry.setBusy(w.ID, job.ID)
		w.process(job)
		w.Registry.setReady(w.ID)
	}
}

// process runs one job to completion: builds the job's private HTTP
// client and auth context, sweeps the fixed probe suite, optionally
// checks schema conformance, and writes the result back. A panic
// escaping the whole sweep (as opposed to one recovered probe panic)
// still marks the job failed rather than taking the worker down.
func (w *Worker) process(job model.Job) {
	defer func() {
		if r := recover(); r != nil {
			_ = w.Queue.Fail(job.ID, (&scanerrors.ProbeInternalError{Probe: "sweep", Cause: panicAsError(r)}).Error())
		}
	}()

	client := httpclient.New(job.ServerURL, job.Rate, job.RequestBudget)
	auth := authinject.New(job.Chunk.Schemes, job.Flags.FuzzAuth)

	probeCtx := &probes.Context{
		Snapshot: job.Chunk,
		Client:   client,
		Auth:     auth,
		BaseURL:  job.Chunk.BaseURL(job.ServerURL),
		Flags:    job.Flags,
		Cancelled: func() bool {
			current, err := w.Queue.Get(job.ID)
			return err == nil && current.Status == model.JobCancelled
		},
	}

	findings := probes.RunAll(probeCtx,
		func(phase string, pct int) { _ = w.Queue.UpdateProgress(job.ID, pct, phase) },
		func(probeErr *scanerrors.ProbeInternalError) {
			if w.OnProbeError != nil {
				w.OnProbeError(job.ID, probeErr)
			}
		},
	)

	if current, err := w.Queue.Get(job.ID); err == nil && current.Status == model.JobCancelled {
		return
	}

	if w.Plugins != nil && !client.Exhausted() {
		pluginFindings, pluginErrs := plugins.RunAll(w.Plugins, job.Chunk, client, probeCtx.BaseURL)
		findings = append(findings, pluginFindings...)
		if w.OnPluginError != nil {
			for name, err := range pluginErrs {
				w.OnPluginError(job.ID, name, err)
			}
		}
	}

	var conformance []model.SchemaConformanceResult
	if job.Flags.CheckSchemaConformance && !client.Exhausted() {
		conformance = schemaconformance.Run(job.Chunk, probeCtx.BaseURL, client)
	}

	_ = w.Queue.Complete(job.ID, findings, conformance)
}

func panicAsError(r any) error {
	if err, ok := r.(error); ok {
		return err
	}
	return &panicValue{r}
}

type panicValue struct{ v any }

func (p *panicValue) Error() string { return toString(p.v) }

func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return "panic: non-string, non-error value recovered"
}
