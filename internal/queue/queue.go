// Package queue defines the job queue contract §4.9 requires and ships
// one in-process implementation of it. The interface is deliberately
// shaped after the Redis layout the externally-backed deployment would
// use (FIFO list, per-job hash, result blob, worker-set hash) so that a
// Redis-backed Queue can satisfy the same interface without the worker
// or orchestrator packages ever noticing which one they were handed.
package queue

import (
	"time"

	"github.com/blackcoderx/apisentinel/internal/model"
)

// ErrNoJob is returned by Reserve when its timeout elapses with nothing
// to hand out. It is not a failure; callers loop on it.
type ErrNoJob struct{}

func (ErrNoJob) Error() string { return "no job available" }

// ErrNotFound is returned when an operation names a job id the queue
// does not know about.
type ErrNotFound struct{ JobID string }

func (e ErrNotFound) Error() string { return "job not found: " + e.JobID }

// Queue is the full contract a worker and an orchestrator need,
// regardless of backing store.
type Queue interface {
	// Enqueue appends a Job in status "queued" to the FIFO.
	Enqueue(job model.Job) error

	// Reserve blocks up to timeout for a queued job, atomically moving it
	// to "running" and stamping workerID/StartedAt. Returns ErrNoJob if
	// the timeout elapses first.
	Reserve(workerID string, timeout time.Duration) (model.Job, error)

	// UpdateProgress writes progress/phase for a running job. Callers are
	// expected to be the single worker that reserved it.
	UpdateProgress(jobID string, progress int, phase string) error

	// Complete writes the job's result blob once and marks it completed.
	Complete(jobID string, findings []model.Finding, conformance []model.SchemaConformanceResult) error

	// Fail marks a job failed with a message; it is terminal.
	Fail(jobID string, message string) error

	// CancelScan flips every non-terminal job belonging to scanID to
	// "cancelled". Workers observe this between probes and exit cleanly.
	CancelScan(scanID string) error

	// Get returns the current state of one job.
	Get(jobID string) (model.Job, error)

	// ListByScan returns every job belonging to a scan, in enqueue order.
	ListByScan(scanID string) ([]model.Job, error)

	// Cleanup removes every job (and its result blob) older than ttl,
	// returning the count removed.
	Cleanup(ttl time.Duration) int
}
