package app

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/yourusername/yt-batch/internal/domain"
	"github.com/yourusername/yt-batch/pkg/logger"
)

// Sink receives everything a run reports while it executes
type Sink interface {
	// Line is called for status text and relayed engine output
	Line(line string)
	// Progress is called whenever the run's counters change
	Progress(s domain.Snapshot)
}

// Control carries stop requests into a running batch
type Control struct {
	stop      atomic.Bool
	terminate atomic.Bool

	mu       sync.Mutex
	inFlight context.CancelFunc
}

// NewControl creates a control with no stop requested
func NewControl() *Control {
	return &Control{}
}

// RequestStop sets the stop flag. The batch stops before its next URL.
// With terminate the running engine invocation is cancelled too.
func (c *Control) RequestStop(terminate bool) {
	c.stop.Store(true)
	if !terminate {
		return
	}
	c.terminate.Store(true)

	c.mu.Lock()
	cancel := c.inFlight
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// StopRequested reports whether a stop has been requested
func (c *Control) StopRequested() bool {
	return c.stop.Load()
}

// invocation derives the context for one engine run
func (c *Control) invocation(parent context.Context) (context.Context, func()) {
	ctx, cancel := context.WithCancel(parent)

	c.mu.Lock()
	c.inFlight = cancel
	c.mu.Unlock()

	// A terminate that raced the registration above still applies
	if c.terminate.Load() {
		cancel()
	}

	return ctx, func() {
		c.mu.Lock()
		c.inFlight = nil
		c.mu.Unlock()
		cancel()
	}
}

// Orchestrator runs a batch: one engine invocation per URL, in order
type Orchestrator struct {
	engine domain.Engine
	config *domain.DownloadConfig
	logs   *logger.LoggerAdapter
}

// NewOrchestrator creates a new orchestrator
func NewOrchestrator(engine domain.Engine, config *domain.DownloadConfig, logs *logger.LoggerAdapter) *Orchestrator {
	if logs == nil {
		logs = logger.NewNopAdapter()
	}
	return &Orchestrator{
		engine: engine,
		config: config,
		logs:   logs,
	}
}

// Resolve fills in request defaults from the configuration
func (o *Orchestrator) Resolve(req domain.BatchRequest) domain.BatchRequest {
	req.URL = strings.TrimSpace(req.URL)
	req.File = strings.TrimSpace(req.File)
	req.Quality = o.resolveQuality(req.Quality)
	if req.OutputDir == "" {
		req.OutputDir = o.config.DownloadFolder
	}
	return req
}

// resolveQuality is ResolveQuality with a warning for unrecognized labels
func (o *Orchestrator) resolveQuality(label domain.Quality) domain.Quality {
	if strings.TrimSpace(string(label)) != "" && domain.NormalizeQuality(string(label)) == "" {
		o.logs.App().Warn("Unknown quality, using default",
			zap.String("quality", string(label)),
			zap.String("default", string(domain.DefaultQuality)))
	}
	return ResolveQuality(label, o.config)
}

// ResolveQuality picks the quality for a request label. An empty label takes
// the configured default; an unrecognized one takes DefaultQuality.
func ResolveQuality(label domain.Quality, config *domain.DownloadConfig) domain.Quality {
	if strings.TrimSpace(string(label)) != "" {
		if q := domain.NormalizeQuality(string(label)); q != "" {
			return q
		}
		return domain.DefaultQuality
	}
	if config != nil {
		if q := config.Quality(); q != "" {
			return q
		}
	}
	return domain.DefaultQuality
}

// Run resolves req and executes it as a new batch
func (o *Orchestrator) Run(ctx context.Context, req domain.BatchRequest, ctl *Control, sink Sink) (*domain.BatchResult, error) {
	req = o.Resolve(req)
	if err := req.Validate(); err != nil {
		return nil, err
	}
	result := domain.NewBatchResult(req)
	return result, o.Execute(ctx, req, result, ctl, sink)
}

// Execute drives result from running to a terminal state. Per-URL failures
// are recorded in result. Only input errors are returned, after the result
// has moved to failed_to_start.
func (o *Orchestrator) Execute(ctx context.Context, req domain.BatchRequest, result *domain.BatchResult, ctl *Control, sink Sink) error {
	if ctl == nil {
		ctl = NewControl()
	}
	if sink == nil {
		sink = nopSink{}
	}

	runLog := []zap.Field{zap.String("run_id", result.RunID)}

	urls, err := o.collect(req)
	if err != nil {
		result.FailToStart(err)
		o.logs.LogBatchEvent("batch_failed_to_start", append(runLog, zap.Error(err))...)
		o.finish(result, sink)
		return err
	}
	result.Total = len(urls)

	o.logs.LogBatchEvent("batch_started", append(runLog,
		zap.String("source", string(result.Source)),
		zap.String("input", result.Input),
		zap.Int("total", result.Total),
		zap.String("quality", string(req.Quality)),
		zap.Bool("audio_only", req.AudioOnly),
		zap.String("output_dir", req.OutputDir))...)

	if result.Source == domain.SourceFile {
		sink.Line(fmt.Sprintf("Found %d URLs to download", result.Total))
	}
	sink.Line("Quality: " + qualityLabel(req))
	sink.Line("Output: " + req.OutputDir)
	sink.Progress(result.Snapshot(""))

	for i, url := range urls {
		if ctl.StopRequested() || ctx.Err() != nil {
			break
		}

		if result.Source == domain.SourceFile {
			sink.Line(summaryRule)
			sink.Line(fmt.Sprintf("Progress: %d/%d", i+1, result.Total))
			sink.Line(summaryRule)
		}
		sink.Line("Downloading: " + url)
		sink.Progress(result.Snapshot(url))
		o.logs.LogBatchEvent("item_started", append(runLog, zap.Int("index", i+1), zap.String("url", url))...)

		err := o.download(ctx, ctl, req, url, sink)
		result.Record(url, err)

		if err != nil {
			sink.Line("Download failed: " + err.Error())
			o.logs.LogBatchEvent("item_failed", append(runLog, zap.String("url", url), zap.Error(err))...)
		} else {
			sink.Line("Download completed!")
			o.logs.LogBatchEvent("item_succeeded", append(runLog, zap.String("url", url))...)
		}
		sink.Progress(result.Snapshot(""))
	}

	state := domain.StateCompleted
	if ctl.StopRequested() || ctx.Err() != nil {
		state = domain.StateStopped
	}

	if result.Source == domain.SourceFile && len(result.FailedURLs) > 0 {
		path, err := SaveFailedURLs(req.OutputDir, result.FailedURLs)
		if err != nil {
			o.logs.LogError("Failed to save failed URLs", append(runLog, zap.Error(err))...)
			sink.Line(err.Error())
		} else {
			result.FailedFile = path
		}
	}

	result.Finish(state)
	o.logs.LogBatchEvent("batch_"+string(state), append(runLog,
		zap.Int("total", result.Total),
		zap.Int("processed", result.Processed()),
		zap.Int("succeeded", result.Succeeded),
		zap.Int("failed", result.Failed()),
		zap.String("failed_file", result.FailedFile))...)
	o.finish(result, sink)
	return nil
}

// collect returns the URLs a request covers
func (o *Orchestrator) collect(req domain.BatchRequest) ([]string, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	kind, input := req.Source()
	if kind == domain.SourceURL {
		return []string{input}, nil
	}
	return ReadURLFile(input)
}

// download runs one engine invocation. Any error, including one from
// starting the process, fails only this URL.
func (o *Orchestrator) download(ctx context.Context, ctl *Control, req domain.BatchRequest, url string, sink Sink) error {
	job := domain.Job{URL: url, Quality: req.Quality, AudioOnly: req.AudioOnly}
	inv := domain.NewInvocation(job, o.config, req.OutputDir)

	invCtx, done := ctl.invocation(ctx)
	defer done()

	return o.engine.Download(invCtx, inv, sink.Line)
}

func (o *Orchestrator) finish(result *domain.BatchResult, sink Sink) {
	for _, line := range FormatSummary(result) {
		sink.Line(line)
	}
	sink.Progress(result.Snapshot(""))
}

func qualityLabel(req domain.BatchRequest) string {
	if req.AudioOnly {
		return "Audio Only"
	}
	return string(req.Quality)
}

type nopSink struct{}

func (nopSink) Line(string)              {}
func (nopSink) Progress(domain.Snapshot) {}
