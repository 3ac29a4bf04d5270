package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/yt-batch/internal/domain"
	"github.com/yourusername/yt-batch/pkg/logger"
)

// terminateGrace is how long a terminated engine gets before it is killed
const terminateGrace = 5 * time.Second

// YTDLPEngine implements domain.Engine by running yt-dlp as a subprocess
type YTDLPEngine struct {
	binary  string
	logsDir string
	logs    *logger.LoggerAdapter
}

// NewYTDLPEngine creates a new yt-dlp engine. When logsDir is set, raw
// output is also appended to the dated download log there.
func NewYTDLPEngine(binary, logsDir string, logs *logger.LoggerAdapter) *YTDLPEngine {
	if binary == "" {
		binary = "yt-dlp"
	}
	if logs == nil {
		logs = logger.NewNopAdapter()
	}
	return &YTDLPEngine{
		binary:  binary,
		logsDir: logsDir,
		logs:    logs,
	}
}

// BuildArgs converts an invocation into yt-dlp arguments. The URL is last.
func BuildArgs(inv domain.Invocation) []string {
	// exec.Command passes args directly to the process, no shell quoting needed
	args := []string{
		"-f", inv.Format,
		"-o", inv.OutputPath,
	}
	if inv.NoOverwrites {
		args = append(args, "--no-overwrites")
	}
	if inv.Continue {
		args = append(args, "--continue")
	}
	args = append(args,
		"--ignore-errors",
		"--no-warnings",
		"--newline",
	)

	// Merging and audio extraction are mutually exclusive
	if !inv.ExtractAudio && inv.MergeFormat != "" {
		args = append(args, "--merge-output-format", inv.MergeFormat)
	}
	args = append(args, "--retries", strconv.Itoa(inv.Retries))
	if inv.ExtractAudio {
		args = append(args,
			"-x",
			"--audio-format", inv.AudioFormat,
			"--audio-quality", inv.AudioQuality,
		)
	}

	return append(args, inv.URL)
}

// Download runs yt-dlp for one invocation. Each output line is passed to
// onLine as soon as it is read. Cancelling ctx asks the process to
// terminate and kills it after a grace period.
func (e *YTDLPEngine) Download(ctx context.Context, inv domain.Invocation, onLine domain.LineFunc) error {
	if onLine == nil {
		onLine = func(string) {}
	}

	if dir := filepath.Dir(inv.OutputPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	args := BuildArgs(inv)
	cmdLine := commandLine(e.binary, args)

	downloadLog := e.openLogFile()
	if downloadLog != nil {
		defer downloadLog.Close()
		writeLogHeader(downloadLog, inv.URL, cmdLine)
	}

	e.logs.App().Debug("Running engine", zap.String("cmd", cmdLine))

	lines := &lineWriter{onLine: func(line string) {
		if downloadLog != nil {
			downloadLog.WriteString(line + "\n")
		}
		onLine(line)
	}}

	cmd := exec.CommandContext(ctx, e.binary, args...)
	cmd.Cancel = func() error { return terminate(cmd.Process) }
	// Bounds Wait when a child of the engine keeps the output pipe open
	cmd.WaitDelay = terminateGrace
	// Both streams share one writer so progress and errors interleave like 2>&1
	cmd.Stdout = lines
	cmd.Stderr = lines

	if err := cmd.Start(); err != nil {
		writeLogFooter(downloadLog, false, fmt.Sprintf("failed to start: %v", err))
		return fmt.Errorf("failed to start yt-dlp: %w", err)
	}

	err := cmd.Wait()
	lines.Flush()

	switch {
	case err == nil:
		writeLogFooter(downloadLog, true, inv.URL)
		return nil
	case ctx.Err() != nil:
		writeLogFooter(downloadLog, false, "terminated")
		return fmt.Errorf("yt-dlp terminated: %w", ctx.Err())
	default:
		writeLogFooter(downloadLog, false, fmt.Sprintf("yt-dlp failed: %v", err))
		return fmt.Errorf("yt-dlp failed: %w", err)
	}
}

// Probe runs yt-dlp in metadata dump mode and parses the first document
func (e *YTDLPEngine) Probe(ctx context.Context, url string) (*domain.MediaInfo, error) {
	cmd := exec.CommandContext(ctx, e.binary, "--dump-json", "--no-warnings", url)
	cmd.WaitDelay = terminateGrace

	output, err := cmd.Output()
	if ctx.Err() != nil {
		return nil, fmt.Errorf("yt-dlp metadata: %w", ctx.Err())
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMetadataUnavailable, err)
	}

	return ParseMediaInfo(output)
}

// ParseMediaInfo decodes the first JSON document of a metadata dump
func ParseMediaInfo(data []byte) (*domain.MediaInfo, error) {
	var info domain.MediaInfo
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&info); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty metadata output")
		}
		return nil, fmt.Errorf("failed to parse metadata: %w", err)
	}
	return &info, nil
}

// Check runs yt-dlp --version and returns the reported version
func (e *YTDLPEngine) Check(ctx context.Context) (string, error) {
	output, err := exec.CommandContext(ctx, e.binary, "--version").Output()
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrEngineMissing, err)
	}
	return strings.TrimSpace(string(output)), nil
}

// openLogFile opens today's download log, or returns nil when logging to
// file is disabled or unavailable
func (e *YTDLPEngine) openLogFile() *os.File {
	if e.logsDir == "" {
		return nil
	}
	if err := os.MkdirAll(e.logsDir, 0755); err != nil {
		e.logs.LogError("Failed to create logs directory", zap.Error(err))
		return nil
	}

	path := logger.CategoryLogPath(e.logsDir, logger.CategoryDownload, time.Now())
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		e.logs.LogError("Failed to open download log", zap.Error(err))
		return nil
	}
	return f
}

// writeLogHeader writes the download start marker
func writeLogHeader(file *os.File, url, cmdLine string) {
	timestamp := time.Now().Format("2006-01-02 15:04:05")
	file.WriteString(fmt.Sprintf("\n=== [%s] Download: %s ===\n", timestamp, url))
	file.WriteString(fmt.Sprintf("$ %s\n", cmdLine))
}

// writeLogFooter writes the download end marker
func writeLogFooter(file *os.File, success bool, message string) {
	if file == nil {
		return
	}
	timestamp := time.Now().Format("2006-01-02 15:04:05")
	status := "SUCCESS"
	if !success {
		status = "FAILED"
	}
	file.WriteString(fmt.Sprintf("[%s] %s: %s\n", timestamp, status, message))
	file.WriteString("=== END ===\n\n")
}

// lineWriter splits written bytes into lines and hands each one to onLine
// as soon as its newline arrives. Lines are never split, whatever their
// length.
type lineWriter struct {
	buf    []byte
	onLine func(string)
}

func (w *lineWriter) Write(p []byte) (int, error) {
	// Only the new bytes can hold a newline
	from := len(w.buf)
	w.buf = append(w.buf, p...)
	for {
		i := bytes.IndexByte(w.buf[from:], '\n')
		if i < 0 {
			break
		}
		i += from
		line := strings.TrimRight(string(w.buf[:i]), "\r")
		w.buf = w.buf[i+1:]
		from = 0
		w.onLine(line)
	}
	return len(p), nil
}

// Flush emits any trailing text that had no newline
func (w *lineWriter) Flush() {
	if len(w.buf) == 0 {
		return
	}
	line := strings.TrimRight(string(w.buf), "\r")
	w.buf = nil
	w.onLine(line)
}
