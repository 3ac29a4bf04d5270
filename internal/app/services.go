package app

import (
	"go.uber.org/zap"

	"github.com/yourusername/yt-batch/internal/domain"
	"github.com/yourusername/yt-batch/internal/infrastructure"
	"github.com/yourusername/yt-batch/pkg/logger"
)

// Services bundles the components shared by the CLI and the server
type Services struct {
	Config   *domain.Config
	Logs     *logger.LoggerAdapter
	Engine   *infrastructure.YTDLPEngine
	Notifier *infrastructure.NotificationService
	// Repo is nil when run history is disabled or unavailable
	Repo         *infrastructure.SQLiteRunRepository
	Orchestrator *Orchestrator
	Preview      *PreviewService
}

// NewServices wires the components for config. Optional parts that fail to
// initialize (event log files, run history) are logged and left out.
func NewServices(config *domain.Config, appLog *zap.Logger) *Services {
	if appLog == nil {
		appLog = zap.NewNop()
	}

	var multiLog *logger.MultiLogger
	if config.Logging.LogsDir != "" {
		ml, err := logger.NewMultiLogger(logger.MultiLoggerConfig{
			Level:   config.Logging.Level,
			LogsDir: config.Logging.LogsDir,
		})
		if err != nil {
			appLog.Warn("Event log files disabled", zap.Error(err))
		} else {
			multiLog = ml
		}
	}
	logs := logger.NewLoggerAdapter(appLog, multiLog)

	if UnknownQuality(config) {
		appLog.Warn("Unknown default quality, using 1080p",
			zap.String("default_quality", config.Download.DefaultQuality))
	}

	s := &Services{
		Config:   config,
		Logs:     logs,
		Engine:   infrastructure.NewYTDLPEngine(config.Download.YTDLPBinary, logs.LogsDir(), logs),
		Notifier: infrastructure.NewNotificationService(&config.Notification, appLog),
	}

	if config.History.Enabled {
		repo, err := infrastructure.NewSQLiteRunRepository(config.History.DatabasePath)
		if err != nil {
			logs.LogError("Run history disabled", zap.Error(err))
		} else {
			s.Repo = repo
		}
	}

	s.Orchestrator = NewOrchestrator(s.Engine, &config.Download, logs)
	s.Preview = NewPreviewService(s.Engine, &config.Download)
	return s
}

// RunRepository returns the history store as an interface, nil when absent
func (s *Services) RunRepository() domain.RunRepository {
	if s.Repo == nil {
		return nil
	}
	return s.Repo
}

// Close releases the history database and log files
func (s *Services) Close() error {
	if s.Repo != nil {
		if err := s.Repo.Close(); err != nil {
			s.Logs.App().Warn("Failed to close run history", zap.Error(err))
		}
	}
	return s.Logs.Close()
}
