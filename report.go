package main

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/oklog/ulid/v2"
)

type fileStatus string

const (
	statusChanged     fileStatus = "changed"
	statusClean       fileStatus = "clean"
	statusUnchanged   fileStatus = "unchanged"
	statusWouldChange fileStatus = "would_change"
	statusFailed      fileStatus = "failed"
	statusSkipped     fileStatus = "skipped"
)

type FileResult struct {
	Path   string     `json:"path"`
	Status fileStatus `json:"status"`
	Reason string     `json:"reason,omitempty"`
	Error  string     `json:"error,omitempty"`
}

func (r *FileResult) skip(reason string) {
	r.Status = statusSkipped
	r.Reason = reason
}

// record maps the outcome of processFile onto a status. Unsupported files
// count as skipped, not as failed attempts.
func (r *FileResult) record(changed bool, err error, check bool) {
	switch {
	case err != nil && isUnsupported(err):
		r.skip(err.Error())
	case err != nil:
		r.Status = statusFailed
		r.Error = err.Error()
	case changed && check:
		r.Status = statusWouldChange
	case changed:
		r.Status = statusChanged
	default:
		r.Status = statusClean
	}
}

func (r FileResult) succeeded() bool {
	switch r.Status {
	case statusChanged, statusClean, statusUnchanged:
		return true
	}
	return false
}

func (r FileResult) statusLine() string {
	switch r.Status {
	case statusChanged, statusClean:
		return fmt.Sprintf("✓ %s", r.Path)
	case statusUnchanged:
		return fmt.Sprintf("✓ %s (unchanged since last run)", r.Path)
	case statusWouldChange:
		return fmt.Sprintf("✗ %s: comments would be removed", r.Path)
	case statusSkipped:
		return fmt.Sprintf("- %s (%s)", r.Path, r.Reason)
	default:
		return fmt.Sprintf("✗ %s: %s", r.Path, r.Error)
	}
}

type RunReport struct {
	RunID      string       `json:"run_id"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
	Check      bool         `json:"check"`
	Files      []FileResult `json:"files"`
	Succeeded  int          `json:"succeeded"`
	Attempted  int          `json:"attempted"`
}

func newRunID() (string, error) {
	t := time.Now().UTC()
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(t), entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

func newRunReport(check bool) (*RunReport, error) {
	id, err := newRunID()
	if err != nil {
		return nil, err
	}
	return &RunReport{
		RunID:     id,
		StartedAt: time.Now().UTC(),
		Check:     check,
	}, nil
}

// finish tallies results. Skipped files were never attempted and stay out of
// both counters.
func (r *RunReport) finish(results []FileResult) {
	r.FinishedAt = time.Now().UTC()
	r.Files = results
	r.Succeeded = 0
	r.Attempted = 0

	for _, result := range results {
		if result.Status == statusSkipped {
			continue
		}
		r.Attempted++
		if result.succeeded() {
			r.Succeeded++
		}
	}
}

func (r *RunReport) count(status fileStatus) int {
	n := 0
	for _, result := range r.Files {
		if result.Status == status {
			n++
		}
	}
	return n
}

func (r *RunReport) save(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write report file: %w", err)
	}

	return nil
}
