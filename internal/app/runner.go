package app

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/yt-batch/internal/domain"
	"github.com/yourusername/yt-batch/pkg/logger"
)

const subscriberBuffer = 256

// Notifier is told when a run reaches a terminal state
type Notifier interface {
	NotifyBatchFinished(s domain.Snapshot)
}

// Runner owns the single background worker that executes batches. Callers
// send start and stop requests and read snapshots and events; they never
// touch the running batch directly.
type Runner struct {
	ctx      context.Context
	orch     *Orchestrator
	repo     domain.RunRepository
	notifier Notifier
	logs     *logger.LoggerAdapter
	hub      *eventHub

	mu       sync.RWMutex
	running  bool
	ctl      *Control
	snapshot domain.Snapshot
	done     chan struct{}
}

// NewRunner creates a runner. Runs are cancelled when ctx is done. repo and
// notifier may be nil.
func NewRunner(ctx context.Context, orch *Orchestrator, repo domain.RunRepository, notifier Notifier, logs *logger.LoggerAdapter) *Runner {
	if logs == nil {
		logs = logger.NewNopAdapter()
	}
	return &Runner{
		ctx:      ctx,
		orch:     orch,
		repo:     repo,
		notifier: notifier,
		logs:     logs,
		hub:      newEventHub(),
		snapshot: domain.IdleSnapshot(),
	}
}

// Start begins a run in the background and returns its id
func (r *Runner) Start(req domain.BatchRequest) (string, error) {
	req = r.orch.Resolve(req)
	if err := req.Validate(); err != nil {
		return "", err
	}

	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return "", domain.ErrBatchRunning
	}
	result := domain.NewBatchResult(req)
	ctl := NewControl()
	done := make(chan struct{})
	r.running = true
	r.ctl = ctl
	r.done = done
	r.snapshot = result.Snapshot("")
	r.mu.Unlock()

	go r.work(req, result, ctl, done)

	return result.RunID, nil
}

// Stop asks the current run to stop before its next URL. With terminate
// the running engine invocation is cancelled as well.
func (r *Runner) Stop(terminate bool) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if !r.running {
		return domain.ErrNotRunning
	}
	r.ctl.RequestStop(terminate)
	r.logs.LogBatchEvent("stop_requested",
		zap.String("run_id", r.snapshot.RunID),
		zap.Bool("terminate", terminate))
	return nil
}

// Status returns a copy of the latest snapshot
func (r *Runner) Status() domain.Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshot
}

// IsRunning returns whether a run is active
func (r *Runner) IsRunning() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.running
}

// Subscribe returns a channel of run events and a function that ends the
// subscription. Events are dropped when the channel is full.
func (r *Runner) Subscribe() (<-chan domain.Event, func()) {
	return r.hub.subscribe(subscriberBuffer)
}

// Wait blocks until the current run, if any, has finished
func (r *Runner) Wait() {
	r.mu.RLock()
	done := r.done
	r.mu.RUnlock()
	if done != nil {
		<-done
	}
}

func (r *Runner) work(req domain.BatchRequest, result *domain.BatchResult, ctl *Control, done chan struct{}) {
	defer close(done)

	sink := &runSink{runner: r, runID: result.RunID}
	if err := r.orch.Execute(r.ctx, req, result, ctl, sink); err != nil {
		r.logs.App().Warn("Batch failed to start",
			zap.String("run_id", result.RunID),
			zap.Error(err))
	}

	RecordRun(r.repo, r.logs, req, result)

	final := result.Snapshot("")

	r.mu.Lock()
	r.snapshot = final
	r.running = false
	r.mu.Unlock()

	if r.notifier != nil {
		r.notifier.NotifyBatchFinished(final)
	}

	r.hub.publish(domain.Event{
		Kind:     domain.EventDone,
		RunID:    result.RunID,
		Snapshot: &final,
		Time:     time.Now(),
	})
}

// RecordRun stores a finished run in repo. A nil repo is skipped and save
// errors are only logged.
func RecordRun(repo domain.RunRepository, logs *logger.LoggerAdapter, req domain.BatchRequest, result *domain.BatchResult) {
	if repo == nil || result == nil {
		return
	}
	if err := repo.Save(domain.NewRunRecord(req, result)); err != nil {
		logs.LogError("Failed to save run history",
			zap.String("run_id", result.RunID),
			zap.Error(err))
	}
}

// runSink forwards a run's output to the runner's state and subscribers
type runSink struct {
	runner *Runner
	runID  string
}

func (s *runSink) Line(line string) {
	s.runner.hub.publish(domain.Event{
		Kind:  domain.EventLine,
		RunID: s.runID,
		Line:  line,
		Time:  time.Now(),
	})
}

func (s *runSink) Progress(snap domain.Snapshot) {
	s.runner.mu.Lock()
	s.runner.snapshot = snap
	s.runner.mu.Unlock()

	s.runner.hub.publish(domain.Event{
		Kind:     domain.EventSnapshot,
		RunID:    s.runID,
		Snapshot: &snap,
		Time:     time.Now(),
	})
}

// eventHub fans events out to subscribers without blocking the publisher
type eventHub struct {
	mu   sync.Mutex
	next int
	subs map[int]chan domain.Event
}

func newEventHub() *eventHub {
	return &eventHub{subs: make(map[int]chan domain.Event)}
}

func (h *eventHub) subscribe(buffer int) (<-chan domain.Event, func()) {
	ch := make(chan domain.Event, buffer)

	h.mu.Lock()
	id := h.next
	h.next++
	h.subs[id] = ch
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
			close(ch)
		})
	}
}

func (h *eventHub) publish(e domain.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subs {
		select {
		case ch <- e:
		default:
		}
	}
}
