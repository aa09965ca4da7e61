// Package orchestrator implements §4.11: it turns one ScanRequest into a
// set of chunk Jobs, enqueues them, and tracks the resulting ScanRecord
// to its terminal state by polling job statuses.
package orchestrator

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/blackcoderx/apisentinel/internal/chunker"
	"github.com/blackcoderx/apisentinel/internal/model"
	"github.com/blackcoderx/apisentinel/internal/queue"
	"github.com/blackcoderx/apisentinel/internal/scanerrors"
	"github.com/blackcoderx/apisentinel/internal/specloader"
)

// PollInterval is the default job-status poll cadence; §4.11 requires
// at most 2s.
const PollInterval = 1500 * time.Millisecond

// Orchestrator owns the ScanRecord store and drives scans to completion
// against a shared Queue.
type Orchestrator struct {
	Queue queue.Queue

	mu    sync.Mutex
	scans map[string]*model.ScanRecord
}

// New builds an Orchestrator bound to a queue.
func New(q queue.Queue) *Orchestrator {
	return &Orchestrator{Queue: q, scans: map[string]*model.ScanRecord{}}
}

// StartScan validates the request, loads and chunks the spec, enqueues
// one Job per chunk, and returns the new scan's id. The scan begins in
// status "queued"; call Poll (or Wait) to drive it to a terminal state.
func (o *Orchestrator) StartScan(req model.ScanRequest) (string, error) {
	if req.Rate < 0.1 || req.Rate > 10 {
		return "", &scanerrors.SpecInvalidError{Reason: fmt.Sprintf("rate %v out of range [0.1, 10]", req.Rate)}
	}
	if req.RequestBudget < 1 || req.RequestBudget > 500 {
		return "", &scanerrors.SpecInvalidError{Reason: fmt.Sprintf("request_budget %d out of range [1, 500]", req.RequestBudget)}
	}

	snapshot, err := specloader.Load(req.SpecRef)
	if err != nil {
		return "", err
	}

	chunks := chunker.Split(snapshot)
	scanID := newID()
	flags := model.Flags{
		Dangerous:              req.Dangerous,
		FuzzAuth:               req.FuzzAuth,
		CheckSchemaConformance: req.CheckSchemaConformance,
	}

	record := &model.ScanRecord{
		ID:            scanID,
		ServerURL:     req.ServerURL,
		SpecRef:       req.SpecRef,
		Flags:         flags,
		Rate:          req.Rate,
		RequestBudget: req.RequestBudget,
		TotalChunks:   len(chunks),
		Status:        model.ScanQueued,
		CreatedAt:     time.Now(),
	}

	o.mu.Lock()
	o.scans[scanID] = record
	o.mu.Unlock()

	for i, chunk := range chunks {
		job := model.Job{
			ID:            fmt.Sprintf("%s-%d", scanID, i),
			ScanID:        scanID,
			ChunkID:       i,
			Chunk:         chunk,
			ServerURL:     req.ServerURL,
			Rate:          req.Rate,
			RequestBudget: req.RequestBudget,
			Flags:         flags,
		}
		if err := o.Queue.Enqueue(job); err != nil {
			return "", &scanerrors.QueueBackendError{Op: "enqueue", Cause: err}
		}
	}

	return scanID, nil
}

// CancelScan flips the scan (and its non-terminal jobs) to cancelled.
func (o *Orchestrator) CancelScan(scanID string) error {
	if err := o.Queue.CancelScan(scanID); err != nil {
		return &scanerrors.QueueBackendError{Op: "cancel", Cause: err}
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if record, ok := o.scans[scanID]; ok && !record.Status.Terminal() {
		record.Status = model.ScanCancelled
	}
	return nil
}

// Get returns the last-known ScanRecord for a scan id.
func (o *Orchestrator) Get(scanID string) (model.ScanRecord, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	record, ok := o.scans[scanID]
	if !ok {
		return model.ScanRecord{}, false
	}
	return *record, true
}

// Poll refreshes one scan's record from its jobs' current state and
// returns it. It derives scan-level progress as the clamped integer
// mean of per-job progress, and the terminal status rules from §4.11:
// failed if any job failed, completed once every job is completed,
// cancelled if the scan itself was cancelled. It never re-enqueues a
// failed job.
func (o *Orchestrator) Poll(scanID string) (model.ScanRecord, error) {
	o.mu.Lock()
	record, ok := o.scans[scanID]
	o.mu.Unlock()
	if !ok {
		return model.ScanRecord{}, fmt.Errorf("unknown scan %s", scanID)
	}

	if record.Status.Terminal() {
		return *record, nil
	}

	jobs, err := o.Queue.ListByScan(scanID)
	if err != nil {
		return model.ScanRecord{}, &scanerrors.QueueBackendError{Op: "list", Cause: err}
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	record = o.scans[scanID]
	applyJobs(record, jobs)
	return *record, nil
}

func applyJobs(record *model.ScanRecord, jobs []model.Job) {
	if len(jobs) == 0 {
		return
	}

	sum := 0
	completed := 0
	var firstFailure string
	var findings []model.Finding
	var conformance []model.SchemaConformanceResult

	for _, job := range jobs {
		sum += job.Progress
		switch job.Status {
		case model.JobCompleted:
			completed++
			findings = append(findings, job.Findings...)
			conformance = append(conformance, job.Conformance...)
		case model.JobFailed:
			if firstFailure == "" {
				firstFailure = job.Error
			}
		}
	}

	record.Progress = clamp(sum/len(jobs), 0, 95)

	switch {
	case firstFailure != "":
		record.Status = model.ScanFailed
		record.Error = firstFailure
	case completed == len(jobs):
		record.Status = model.ScanCompleted
		record.Progress = 100
		record.Findings = findings
		record.Conformance = conformance
	default:
		record.Status = model.ScanRunning
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Wait blocks, polling at PollInterval, until the scan reaches a
// terminal status, then returns its final record. Intended for the
// CLI's single-shot scan command; a long-lived service would poll via
// Poll directly instead of blocking a goroutine on this.
func (o *Orchestrator) Wait(scanID string) (model.ScanRecord, error) {
	ticker := time.NewTicker(PollInterval)
	defer ticker.Stop()

	for {
		record, err := o.Poll(scanID)
		if err != nil {
			return model.ScanRecord{}, err
		}
		if record.Status.Terminal() {
			return record, nil
		}
		<-ticker.C
	}
}

func newID() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
