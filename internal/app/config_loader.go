package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/yourusername/yt-batch/internal/domain"
)

// DefaultConfigFile is looked up in the working directory when no path is given
const DefaultConfigFile = "config.json"

// LoadConfig loads configuration from file and environment
func LoadConfig(configPath string) (*domain.Config, error) {
	config := domain.DefaultConfig()

	v := viper.New()
	setDefaults(v, config)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName(strings.TrimSuffix(DefaultConfigFile, filepath.Ext(DefaultConfigFile)))
		v.AddConfigPath(".")
	}

	// YTBATCH_MAX_RETRIES, YTBATCH_SERVER_PORT, ...
	v.SetEnvPrefix("YTBATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, use defaults
	}

	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config = expandPaths(config)

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// setDefaults registers every key so environment overrides apply even when
// the settings document does not mention them
func setDefaults(v *viper.Viper, config *domain.Config) {
	d := config.Download
	v.SetDefault("default_quality", d.DefaultQuality)
	v.SetDefault("download_folder", d.DownloadFolder)
	v.SetDefault("max_retries", d.MaxRetries)
	v.SetDefault("audio_format", d.AudioFormat)
	v.SetDefault("audio_quality", d.AudioQuality)
	v.SetDefault("ytdlp_binary", d.YTDLPBinary)
	v.SetDefault("preview_timeout", d.PreviewTimeout)

	v.SetDefault("server.host", config.Server.Host)
	v.SetDefault("server.port", config.Server.Port)

	v.SetDefault("history.enabled", config.History.Enabled)
	v.SetDefault("history.database_path", config.History.DatabasePath)

	v.SetDefault("notification.enabled", config.Notification.Enabled)
	v.SetDefault("notification.method", config.Notification.Method)

	v.SetDefault("logging.level", config.Logging.Level)
	v.SetDefault("logging.format", config.Logging.Format)
	v.SetDefault("logging.output_path", config.Logging.OutputPath)
	v.SetDefault("logging.logs_dir", config.Logging.LogsDir)
}

// expandPaths expands environment variables in path configurations
func expandPaths(config *domain.Config) *domain.Config {
	config.Download.DownloadFolder = expandPath(config.Download.DownloadFolder)
	config.History.DatabasePath = expandPath(config.History.DatabasePath)
	config.Logging.LogsDir = expandPath(config.Logging.LogsDir)

	if config.Logging.OutputPath != "stdout" && config.Logging.OutputPath != "stderr" {
		config.Logging.OutputPath = expandPath(config.Logging.OutputPath)
	}

	return config
}

// expandPath expands environment variables and ~ in paths
func expandPath(path string) string {
	if path == "" {
		return path
	}

	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[2:])
		}
	}

	// $HOME is resolved even where the variable is unset
	if strings.Contains(path, "$HOME") {
		if home, err := os.UserHomeDir(); err == nil {
			path = strings.ReplaceAll(path, "$HOME", home)
		}
	}

	return os.ExpandEnv(path)
}

// validateConfig validates the configuration
func validateConfig(config *domain.Config) error {
	if config.Server.Port < 1 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	if config.Download.DownloadFolder == "" {
		return fmt.Errorf("download folder not configured")
	}

	if config.Download.MaxRetries < 0 {
		return fmt.Errorf("max retries cannot be negative")
	}

	if config.Download.PreviewTimeout <= 0 {
		config.Download.PreviewTimeout = domain.DefaultConfig().Download.PreviewTimeout
	}

	if config.Download.YTDLPBinary == "" {
		config.Download.YTDLPBinary = "yt-dlp"
	}

	if config.Logging.Level == "" {
		config.Logging.Level = "info"
	}

	return nil
}

// UnknownQuality reports whether the configured default quality is set but
// not recognized. Such a value resolves to the 1080p default.
func UnknownQuality(config *domain.Config) bool {
	label := strings.TrimSpace(config.Download.DefaultQuality)
	return label != "" && !config.Download.Quality().Valid()
}
