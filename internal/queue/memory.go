package queue

import (
	"sync"
	"time"

	"github.com/blackcoderx/apisentinel/internal/model"
)

// InMemory is the single-process Queue implementation the CLI front-end
// uses for one-machine scans. Its FIFO/hash/result-blob split mirrors
// the Redis layout §6 describes (scan_queue, scan_job:<id>,
// scan_results:<id>) closely enough that swapping in a Redis-backed
// Queue later is a drop-in replacement, not a redesign.
type InMemory struct {
	mu      sync.Mutex
	cond    *sync.Cond
	fifo    []string
	jobs    map[string]*model.Job
	scanIdx map[string][]string // scanID -> job ids, in enqueue order
}

// NewInMemory constructs an empty queue.
func NewInMemory() *InMemory {
	q := &InMemory{
		jobs:    map[string]*model.Job{},
		scanIdx: map[string][]string{},
	}
	q.cond = sync.NewCond(&q.mu)
	return q
}

func (q *InMemory) Enqueue(job model.Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	j := job
	j.Status = model.JobQueued
	if j.CreatedAt.IsZero() {
		j.CreatedAt = time.Now()
	}
	q.jobs[j.ID] = &j
	q.fifo = append(q.fifo, j.ID)
	q.scanIdx[j.ScanID] = append(q.scanIdx[j.ScanID], j.ID)
	q.cond.Broadcast()
	return nil
}

// Reserve pops the oldest queued job, blocking until one appears or
// timeout elapses. The blocking wait is implemented with a condition
// variable woken on Enqueue/CancelScan rather than busy-polling.
func (q *InMemory) Reserve(workerID string, timeout time.Duration) (model.Job, error) {
	deadline := time.Now().Add(timeout)

	q.mu.Lock()
	defer q.mu.Unlock()

	for {
		if idx := q.popQueuedLocked(); idx != "" {
			job := q.jobs[idx]
			job.Status = model.JobRunning
			job.WorkerID = workerID
			job.StartedAt = time.Now()
			return *job, nil
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return model.Job{}, ErrNoJob{}
		}

		go func() {
			time.Sleep(remaining)
			q.mu.Lock()
			q.cond.Broadcast()
			q.mu.Unlock()
		}()
		q.cond.Wait()

		if time.Now().After(deadline) {
			return model.Job{}, ErrNoJob{}
		}
	}
}

// popQueuedLocked removes and returns the first still-queued job id in
// fifo order, compacting fifo as it scans past cancelled/already-popped
// entries. Caller must hold q.mu.
func (q *InMemory) popQueuedLocked() string {
	for len(q.fifo) > 0 {
		id := q.fifo[0]
		q.fifo = q.fifo[1:]
		job, ok := q.jobs[id]
		if !ok {
			continue
		}
		if job.Status == model.JobQueued {
			return id
		}
	}
	return ""
}

func (q *InMemory) UpdateProgress(jobID string, progress int, phase string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	job, ok := q.jobs[jobID]
	if !ok {
		return ErrNotFound{JobID: jobID}
	}
	job.Progress = progress
	job.Phase = phase
	return nil
}

func (q *InMemory) Complete(jobID string, findings []model.Finding, conformance []model.SchemaConformanceResult) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	job, ok := q.jobs[jobID]
	if !ok {
		return ErrNotFound{JobID: jobID}
	}
	job.Findings = findings
	job.Conformance = conformance
	job.Status = model.JobCompleted
	job.Progress = 100
	job.CompletedAt = time.Now()
	return nil
}

func (q *InMemory) Fail(jobID string, message string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	job, ok := q.jobs[jobID]
	if !ok {
		return ErrNotFound{JobID: jobID}
	}
	job.Status = model.JobFailed
	job.Error = message
	job.CompletedAt = time.Now()
	return nil
}

func (q *InMemory) CancelScan(scanID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, id := range q.scanIdx[scanID] {
		job, ok := q.jobs[id]
		if !ok || job.Status.Terminal() {
			continue
		}
		job.Status = model.JobCancelled
		job.CompletedAt = time.Now()
	}
	q.cond.Broadcast()
	return nil
}

func (q *InMemory) Get(jobID string) (model.Job, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	job, ok := q.jobs[jobID]
	if !ok {
		return model.Job{}, ErrNotFound{JobID: jobID}
	}
	return *job, nil
}

func (q *InMemory) ListByScan(scanID string) ([]model.Job, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	ids := q.scanIdx[scanID]
	out := make([]model.Job, 0, len(ids))
	for _, id := range ids {
		if job, ok := q.jobs[id]; ok {
			out = append(out, *job)
		}
	}
	return out, nil
}

func (q *InMemory) Cleanup(ttl time.Duration) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	cutoff := time.Now().Add(-ttl)
	removed := 0
	for id, job := range q.jobs {
		if job.CreatedAt.Before(cutoff) {
			delete(q.jobs, id)
			removed++
		}
	}
	if removed > 0 {
		q.compactFIFOLocked()
		q.compactScanIndexLocked()
	}
	return removed
}

func (q *InMemory) compactFIFOLocked() {
	kept := q.fifo[:0]
	for _, id := range q.fifo {
		if _, ok := q.jobs[id]; ok {
			kept = append(kept, id)
		}
	}
	q.fifo = kept
}

func (q *InMemory) compactScanIndexLocked() {
	for scanID, ids := range q.scanIdx {
		kept := ids[:0]
		for _, id := range ids {
			if _, ok := q.jobs[id]; ok {
				kept = append(kept, id)
			}
		}
		if len(kept) == 0 {
			delete(q.scanIdx, scanID)
		} else {
			q.scanIdx[scanID] = kept
		}
	}
}

var _ Queue = (*InMemory)(nil)
