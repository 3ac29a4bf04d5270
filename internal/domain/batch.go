package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// FailedURLsFile is written into the output directory when a batch has failures
const FailedURLsFile = "failed_urls.txt"

// BatchState represents the lifecycle state of a batch run
type BatchState string

const (
	StateIdle          BatchState = "idle"
	StateRunning       BatchState = "running"
	StateCompleted     BatchState = "completed"
	StateStopped       BatchState = "stopped"
	StateFailedToStart BatchState = "failed_to_start"
)

// IsTerminal checks if the state ends a run
func (s BatchState) IsTerminal() bool {
	return s == StateCompleted || s == StateStopped || s == StateFailedToStart
}

// SourceKind tells where a batch got its URLs from
type SourceKind string

const (
	SourceURL  SourceKind = "url"
	SourceFile SourceKind = "file"
)

// BatchRequest asks for a run over a single URL or a URL list file
type BatchRequest struct {
	URL       string  `json:"url,omitempty"`
	File      string  `json:"file,omitempty"`
	Quality   Quality `json:"quality"`
	AudioOnly bool    `json:"audio_only"`
	OutputDir string  `json:"output_dir"`
}

// Validate checks that exactly one input is present
func (r BatchRequest) Validate() error {
	url := strings.TrimSpace(r.URL)
	file := strings.TrimSpace(r.File)
	switch {
	case url == "" && file == "":
		return ErrNoInput
	case url != "" && file != "":
		return ErrAmbiguousInput
	}
	return nil
}

// Source returns the kind of input and its value
func (r BatchRequest) Source() (SourceKind, string) {
	if url := strings.TrimSpace(r.URL); url != "" {
		return SourceURL, url
	}
	return SourceFile, strings.TrimSpace(r.File)
}

// Job is one URL to download with the batch-wide options
type Job struct {
	URL       string
	Quality   Quality
	AudioOnly bool
}

// JobOutcome is the result of one engine invocation
type JobOutcome struct {
	URL       string `json:"url"`
	Succeeded bool   `json:"succeeded"`
	Error     string `json:"error,omitempty"`
}

// BatchResult accumulates the outcome of a run
type BatchResult struct {
	RunID      string       `json:"run_id"`
	Source     SourceKind   `json:"source"`
	Input      string       `json:"input"`
	State      BatchState   `json:"state"`
	Total      int          `json:"total"`
	Succeeded  int          `json:"succeeded"`
	Outcomes   []JobOutcome `json:"outcomes"`
	FailedURLs []string     `json:"failed_urls"`
	FailedFile string       `json:"failed_file,omitempty"`
	Reason     string       `json:"reason,omitempty"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt *time.Time   `json:"finished_at,omitempty"`
}

// NewBatchResult creates a running result for a request
func NewBatchResult(req BatchRequest) *BatchResult {
	kind, input := req.Source()
	return &BatchResult{
		RunID:     uuid.New().String(),
		Source:    kind,
		Input:     input,
		State:     StateRunning,
		StartedAt: time.Now(),
	}
}

// Record appends the outcome of one URL
func (r *BatchResult) Record(url string, err error) {
	outcome := JobOutcome{URL: url, Succeeded: err == nil}
	if err != nil {
		outcome.Error = err.Error()
		r.FailedURLs = append(r.FailedURLs, url)
	} else {
		r.Succeeded++
	}
	r.Outcomes = append(r.Outcomes, outcome)
}

// Processed returns the number of URLs attempted so far
func (r *BatchResult) Processed() int {
	return len(r.Outcomes)
}

// Failed returns the number of failed URLs
func (r *BatchResult) Failed() int {
	return len(r.FailedURLs)
}

// Finish moves the result into a terminal state
func (r *BatchResult) Finish(state BatchState) {
	r.State = state
	now := time.Now()
	r.FinishedAt = &now
}

// FailToStart marks the result as rejected before any invocation
func (r *BatchResult) FailToStart(err error) {
	r.Reason = err.Error()
	r.Finish(StateFailedToStart)
}

// Snapshot is an immutable view of a run, safe to hand to other goroutines
type Snapshot struct {
	RunID     string     `json:"run_id,omitempty"`
	State     BatchState `json:"state"`
	Source    SourceKind `json:"source,omitempty"`
	Total     int        `json:"total"`
	Processed int        `json:"processed"`
	Succeeded int        `json:"succeeded"`
	Failed    int        `json:"failed"`
	Current   string     `json:"current,omitempty"`
	Reason    string     `json:"reason,omitempty"`
	Status    string     `json:"status"`
}

// IdleSnapshot is reported before the first run
func IdleSnapshot() Snapshot {
	s := Snapshot{State: StateIdle}
	s.Status = s.StatusLine()
	return s
}

// Snapshot returns a copy of the result's counters
func (r *BatchResult) Snapshot(current string) Snapshot {
	s := Snapshot{
		RunID:     r.RunID,
		State:     r.State,
		Source:    r.Source,
		Total:     r.Total,
		Processed: r.Processed(),
		Succeeded: r.Succeeded,
		Failed:    r.Failed(),
		Current:   current,
		Reason:    r.Reason,
	}
	s.Status = s.StatusLine()
	return s
}

// StatusLine renders a one-line status for display
func (s Snapshot) StatusLine() string {
	switch s.State {
	case StateRunning:
		if s.Total == 0 {
			return "Downloading..."
		}
		return fmt.Sprintf("Downloading %d/%d", min(s.Processed+1, s.Total), s.Total)
	case StateCompleted:
		return fmt.Sprintf("Download completed: %d/%d succeeded", s.Succeeded, s.Total)
	case StateStopped:
		return fmt.Sprintf("Download stopped after %d/%d", s.Processed, s.Total)
	case StateFailedToStart:
		return "Download failed: " + s.Reason
	default:
		return "Ready"
	}
}

// EventKind identifies what an Event carries
type EventKind string

const (
	EventLine     EventKind = "line"
	EventSnapshot EventKind = "snapshot"
	EventDone     EventKind = "done"
)

// Event is published by the batch worker to the presentation layer
type Event struct {
	Kind     EventKind `json:"kind"`
	RunID    string    `json:"run_id"`
	Line     string    `json:"line,omitempty"`
	Snapshot *Snapshot `json:"snapshot,omitempty"`
	Time     time.Time `json:"time"`
}
