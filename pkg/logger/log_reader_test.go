package logger

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMultiLogger_WritesCategoryFiles(t *testing.T) {
	dir := t.TempDir()
	ml, err := NewMultiLogger(MultiLoggerConfig{Level: "info", LogsDir: dir})
	require.NoError(t, err)

	ml.LogBatchEvent("batch_started", zap.String("run_id", "abc"), zap.Int("total", 3))
	ml.LogAppError("engine exploded", zap.String("url", "https://a"))
	require.NoError(t, ml.Close())

	reader := NewLogReader(dir)
	entries, err := reader.ReadLogs(CategoryBatch, time.Now(), 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "batch_started", entries[0].Message)
	assert.Equal(t, "info", entries[0].Level)
	assert.Equal(t, "abc", entries[0].Fields["run_id"])
	assert.Equal(t, float64(3), entries[0].Fields["total"])

	errs, err := reader.ReadLogs(CategoryError, time.Now(), 0)
	require.NoError(t, err)
	require.Len(t, errs, 1)
	assert.Equal(t, "error", errs[0].Level)
}

// testClock is a settable clock safe for use across goroutines
type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

func TestMultiLogger_RollsOverAtMidnight(t *testing.T) {
	dir := t.TempDir()
	ml, err := NewMultiLogger(MultiLoggerConfig{Level: "info", LogsDir: dir})
	require.NoError(t, err)

	today := time.Now()
	tomorrow := today.AddDate(0, 0, 1)
	clock := &testClock{t: today}
	for _, f := range ml.files {
		f.now = clock.Now
	}

	ml.LogBatchEvent("batch_started", zap.String("run_id", "day1"))
	clock.Set(tomorrow)
	ml.LogBatchEvent("batch_completed", zap.String("run_id", "day2"))
	ml.LogAppError("late failure")
	require.NoError(t, ml.Close())

	reader := NewLogReader(dir)

	first, err := reader.ReadLogs(CategoryBatch, today, 0)
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, "batch_started", first[0].Message)

	second, err := reader.ReadLogs(CategoryBatch, tomorrow, 0)
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, "batch_completed", second[0].Message)

	errs, err := reader.ReadLogs(CategoryError, tomorrow, 0)
	require.NoError(t, err)
	require.Len(t, errs, 1)
	assert.Equal(t, "late failure", errs[0].Message)
}

func TestNewMultiLogger_RequiresDir(t *testing.T) {
	_, err := NewMultiLogger(MultiLoggerConfig{})
	assert.Error(t, err)
}

func TestLogReader_MissingFileIsEmpty(t *testing.T) {
	entries, err := NewLogReader(t.TempDir()).ReadLogs(CategoryBatch, time.Now(), 10)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestLogReader_PlainTextAndLimit(t *testing.T) {
	dir := t.TempDir()
	path := CategoryLogPath(dir, CategoryDownload, time.Now())
	require.NoError(t, os.WriteFile(path, []byte("[download] 1%\n\n[download] 50%\n[download] 100%\n"), 0644))

	reader := NewLogReader(dir)
	entries, err := reader.ReadLogs(CategoryDownload, time.Now(), 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "[download] 50%", entries[0].Message)
	assert.Equal(t, "[download] 100%", entries[1].Message)
	assert.Equal(t, "download", entries[1].Category)

	found, err := reader.SearchLogs(CategoryDownload, time.Now(), "100", 0)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "[download] 100%", found[0].Message)
}

func TestLogReader_TailLogs(t *testing.T) {
	dir := t.TempDir()
	path := CategoryLogPath(dir, CategoryDownload, time.Now())
	require.NoError(t, os.WriteFile(path, []byte("old line\n"), 0644))

	reader := NewLogReader(dir)
	reader.pollInterval = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	entries := make(chan LogEntry, 4)
	done := make(chan error, 1)
	go func() { done <- reader.TailLogs(ctx, CategoryDownload, entries) }()

	// Give the tailer time to seek to the end
	time.Sleep(50 * time.Millisecond)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
	require.NoError(t, err)
	_, err = f.WriteString("new line\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	select {
	case entry := <-entries:
		assert.Equal(t, "new line", entry.Message)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for tailed entry")
	}

	cancel()
	assert.NoError(t, <-done)
}

func TestLogReader_TailLogsFollowsNextDay(t *testing.T) {
	dir := t.TempDir()
	today := time.Now()
	tomorrow := today.AddDate(0, 0, 1)
	require.NoError(t, os.WriteFile(CategoryLogPath(dir, CategoryBatch, today), []byte("old line\n"), 0644))

	clock := &testClock{t: today}
	reader := NewLogReader(dir)
	reader.pollInterval = 10 * time.Millisecond
	reader.now = clock.Now

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	entries := make(chan LogEntry, 4)
	done := make(chan error, 1)
	go func() { done <- reader.TailLogs(ctx, CategoryBatch, entries) }()

	time.Sleep(50 * time.Millisecond)
	clock.Set(tomorrow)
	require.NoError(t, os.WriteFile(CategoryLogPath(dir, CategoryBatch, tomorrow), []byte("next day line\n"), 0644))

	select {
	case entry := <-entries:
		assert.Equal(t, "next day line", entry.Message)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for next day's entry")
	}

	cancel()
	assert.NoError(t, <-done)
}

func TestValidCategory(t *testing.T) {
	assert.True(t, ValidCategory(CategoryBatch))
	assert.True(t, ValidCategory(CategoryDownload))
	assert.False(t, ValidCategory("queue"))
}
