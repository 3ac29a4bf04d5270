package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// errReported means the command already printed why it failed
var errReported = errors.New("command failed")

var (
	serverURL   string
	noAutoStart bool
	configPath  string
	rootCmd     = &cobra.Command{
		Use:   "ytbatch",
		Short: "ytbatch - batch video and audio downloads with yt-dlp",
		Long: `Download single videos or whole URL lists with yt-dlp.

The download and preview commands run locally. The start, stop, status,
history and logs commands talk to the ytbatch-server background service.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8765", "Server URL")
	rootCmd.PersistentFlags().BoolVar(&noAutoStart, "no-auto-start", false, "Don't auto-start server if not running")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to the settings file (default ./config.json)")

	rootCmd.AddCommand(newDownloadCmd())
	rootCmd.AddCommand(newPreviewCmd())
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(logsCmd)
}

// ensureServer checks if server is running and starts it if needed (unless --no-auto-start)
func ensureServer() {
	if noAutoStart {
		return
	}
	if err := ensureServerRunning(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}
