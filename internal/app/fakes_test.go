package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yourusername/yt-batch/internal/domain"
)

// fakeEngine records invocations. URLs listed in fail exit non-zero; URLs
// in block run until their context is cancelled.
type fakeEngine struct {
	mu      sync.Mutex
	calls   []domain.Invocation
	fail    map[string]bool
	block   map[string]bool
	started chan string
	onCall  func(n int, url string)

	probe func(ctx context.Context, url string) (*domain.MediaInfo, error)
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{
		fail:    map[string]bool{},
		block:   map[string]bool{},
		started: make(chan string, 16),
	}
}

func (e *fakeEngine) Download(ctx context.Context, inv domain.Invocation, onLine domain.LineFunc) error {
	e.mu.Lock()
	e.calls = append(e.calls, inv)
	n := len(e.calls)
	e.mu.Unlock()

	onLine("[download] Destination: " + inv.URL)
	if e.onCall != nil {
		e.onCall(n, inv.URL)
	}

	if e.block[inv.URL] {
		e.started <- inv.URL
		<-ctx.Done()
		return fmt.Errorf("yt-dlp terminated: %w", ctx.Err())
	}
	if e.fail[inv.URL] {
		onLine("ERROR: Video unavailable")
		return errors.New("yt-dlp failed: exit status 1")
	}
	onLine("[download] 100.0%")
	return nil
}

func (e *fakeEngine) Probe(ctx context.Context, url string) (*domain.MediaInfo, error) {
	if e.probe == nil {
		return nil, errors.New("not configured")
	}
	return e.probe(ctx, url)
}

func (e *fakeEngine) Check(ctx context.Context) (string, error) {
	return "2024.01.01", nil
}

func (e *fakeEngine) invocations() []domain.Invocation {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]domain.Invocation(nil), e.calls...)
}

// recordingSink keeps everything a run reports
type recordingSink struct {
	mu        sync.Mutex
	lines     []string
	snapshots []domain.Snapshot
}

func (s *recordingSink) Line(line string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = append(s.lines, line)
}

func (s *recordingSink) Progress(snap domain.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots = append(s.snapshots, snap)
}

func (s *recordingSink) text() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return strings.Join(s.lines, "\n")
}

// memoryRepo is an in-memory RunRepository
type memoryRepo struct {
	mu      sync.Mutex
	records []*domain.RunRecord
}

func (r *memoryRepo) Save(record *domain.RunRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, record)
	return nil
}

func (r *memoryRepo) FindByID(id string) (*domain.RunRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range r.records {
		if rec.ID == id {
			return rec, nil
		}
	}
	return nil, domain.ErrRunNotFound
}

func (r *memoryRepo) List(limit int) ([]*domain.RunRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*domain.RunRecord(nil), r.records...), nil
}

func (r *memoryRepo) GetStats() (*domain.RunStats, error) {
	return &domain.RunStats{}, nil
}

func testURLs(n int) []string {
	urls := make([]string, n)
	for i := range urls {
		urls[i] = fmt.Sprintf("https://www.youtube.com/watch?v=video%d", i+1)
	}
	return urls
}

func writeURLFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "urls.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func testDownloadConfig() *domain.DownloadConfig {
	cfg := domain.DefaultConfig().Download
	return &cfg
}
