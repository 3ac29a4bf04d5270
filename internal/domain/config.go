package domain

import "time"

// Config represents the application configuration
type Config struct {
	Download     DownloadConfig     `mapstructure:",squash"`
	Server       ServerConfig       `mapstructure:"server"`
	History      HistoryConfig      `mapstructure:"history"`
	Notification NotificationConfig `mapstructure:"notification"`
	Logging      LoggingConfig      `mapstructure:"logging"`
}

// DownloadConfig contains the download settings. Its keys live at the top
// level of the settings document.
type DownloadConfig struct {
	DefaultQuality string        `mapstructure:"default_quality"`
	DownloadFolder string        `mapstructure:"download_folder"`
	MaxRetries     int           `mapstructure:"max_retries"`
	AudioFormat    string        `mapstructure:"audio_format"`
	AudioQuality   string        `mapstructure:"audio_quality"`
	YTDLPBinary    string        `mapstructure:"ytdlp_binary"`
	PreviewTimeout time.Duration `mapstructure:"preview_timeout"`
}

// ServerConfig contains server-related configuration
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// HistoryConfig contains run history storage configuration
type HistoryConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	DatabasePath string `mapstructure:"database_path"`
}

// NotificationConfig contains notification-related configuration
type NotificationConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Method  string `mapstructure:"method"` // osascript, notify-send
}

// LoggingConfig contains logging-related configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`       // debug, info, warn, error
	Format     string `mapstructure:"format"`      // json, console
	OutputPath string `mapstructure:"output_path"` // stdout, stderr, or file path
	LogsDir    string `mapstructure:"logs_dir"`
}

// Quality returns the configured default quality, normalized.
func (c DownloadConfig) Quality() Quality {
	return NormalizeQuality(c.DefaultQuality)
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Download: DownloadConfig{
			DefaultQuality: string(Quality1080p),
			DownloadFolder: "./downloads",
			MaxRetries:     3,
			AudioFormat:    "mp3",
			AudioQuality:   "320",
			YTDLPBinary:    "yt-dlp",
			PreviewTimeout: 30 * time.Second,
		},
		Server: ServerConfig{
			Host: "localhost",
			Port: 8765,
		},
		History: HistoryConfig{
			Enabled:      true,
			DatabasePath: "$HOME/.ytbatch/history.db",
		},
		Notification: NotificationConfig{
			Enabled: false,
			Method:  "notify-send",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "console",
			OutputPath: "stderr",
			LogsDir:    "$HOME/.ytbatch/logs",
		},
	}
}
