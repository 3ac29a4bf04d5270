package main

import (
	"fmt"
	"net/http"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/yourusername/yt-batch/internal/domain"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start a batch on the background server",
	Example: `  ytbatch start --file urls.txt --follow
  ytbatch start --url "VIDEO_URL" --audio-only`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		url, _ := cmd.Flags().GetString("url")
		file, _ := cmd.Flags().GetString("file")
		qualityLabel, _ := cmd.Flags().GetString("quality")
		audioOnly, _ := cmd.Flags().GetBool("audio-only")
		output, _ := cmd.Flags().GetString("output")
		follow, _ := cmd.Flags().GetBool("follow")

		quality, err := parseQuality(qualityLabel)
		if err != nil {
			return err
		}

		// The server resolves paths against its own working directory
		if file, err = absPath(file); err != nil {
			return err
		}
		if output, err = absPath(output); err != nil {
			return err
		}

		ensureServer()
		client := newAPIClient(serverURL)

		resp, err := client.StartBatch(domain.BatchRequest{
			URL:       url,
			File:      file,
			Quality:   quality,
			AudioOnly: audioOnly,
			OutputDir: output,
		})
		if err != nil {
			if isStatus(err, http.StatusConflict) {
				return fmt.Errorf("a batch is already running, see 'ytbatch status'")
			}
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Batch started\n")
		fmt.Fprintf(out, "Run ID: %s\n", resp.RunID)

		if !follow {
			fmt.Fprintf(out, "Status: %s\n", resp.Status.Status)
			return nil
		}

		final, err := client.FollowBatch(out)
		if err != nil {
			return err
		}
		if final != nil && (final.State == domain.StateFailedToStart || final.Failed > 0) {
			return errReported
		}
		return nil
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running batch",
	Long: `Stop the running batch before its next URL. With --terminate the
download in progress is cancelled as well.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		terminate, _ := cmd.Flags().GetBool("terminate")

		ensureServer()
		snap, err := newAPIClient(serverURL).StopBatch(terminate)
		if err != nil {
			if isStatus(err, http.StatusConflict) {
				fmt.Fprintln(cmd.OutOrStdout(), "No download in progress")
				return nil
			}
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), "Stop requested")
		fmt.Fprintf(cmd.OutOrStdout(), "Status: %s\n", snap.Status)
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the state of the current or last batch",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ensureServer()
		snap, err := newAPIClient(serverURL).Status()
		if err != nil {
			return err
		}
		printSnapshot(cmd, snap)
		return nil
	},
}

var historyCmd = &cobra.Command{
	Use:   "history [run-id]",
	Short: "List past batch runs or show one run",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ensureServer()
		client := newAPIClient(serverURL)
		out := cmd.OutOrStdout()

		if len(args) == 1 {
			run, err := client.GetRun(args[0])
			if err != nil {
				return err
			}
			printRun(cmd, run)
			return nil
		}

		showStats, _ := cmd.Flags().GetBool("stats")
		if showStats {
			stats, err := client.RunStats()
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Run Statistics:\n")
			fmt.Fprintf(out, "  Total:           %d\n", stats.Total)
			fmt.Fprintf(out, "  Completed:       %d\n", stats.Completed)
			fmt.Fprintf(out, "  Stopped:         %d\n", stats.Stopped)
			fmt.Fprintf(out, "  Failed to start: %d\n", stats.FailedToStart)
			return nil
		}

		limit, _ := cmd.Flags().GetInt("limit")
		runs, err := client.ListRuns(limit)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tSTARTED\tSTATE\tRESULT\tINPUT")
		for _, r := range runs {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d/%d\t%s\n",
				truncate(r.ID, 8),
				r.StartedAt.Local().Format("2006-01-02 15:04"),
				r.State,
				r.Succeeded,
				r.Total,
				truncate(r.Input, 50))
		}
		return w.Flush()
	},
}

var logsCmd = &cobra.Command{
	Use:   "logs [category]",
	Short: "Show server logs (batch, error or download)",
	Example: `  ytbatch logs
  ytbatch logs download --follow
  ytbatch logs error --date 2024-01-31
  ytbatch logs batch --search item_failed`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		category := "batch"
		if len(args) == 1 {
			category = args[0]
		}
		date, _ := cmd.Flags().GetString("date")
		limit, _ := cmd.Flags().GetInt("limit")
		search, _ := cmd.Flags().GetString("search")
		follow, _ := cmd.Flags().GetBool("follow")

		ensureServer()
		client := newAPIClient(serverURL)

		if follow {
			return client.FollowLogs(category, cmd.OutOrStdout())
		}

		entries, err := client.Logs(category, date, search, limit)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No log entries")
			return nil
		}
		for _, e := range entries {
			printLogEntry(cmd.OutOrStdout(), e)
		}
		return nil
	},
}

func init() {
	startCmd.Flags().String("url", "", "Video URL")
	startCmd.Flags().String("file", "", "Text file with multiple URLs (one per line)")
	startCmd.Flags().String("quality", "", "Video quality: "+qualityChoices())
	startCmd.Flags().Bool("audio-only", false, "Download audio only")
	startCmd.Flags().String("output", "", "Output directory")
	startCmd.Flags().BoolP("follow", "f", false, "Print output until the batch finishes")
	startCmd.MarkFlagsMutuallyExclusive("url", "file")

	stopCmd.Flags().Bool("terminate", false, "Also cancel the download in progress")

	historyCmd.Flags().Int("limit", 20, "Number of runs to list")
	historyCmd.Flags().Bool("stats", false, "Show counts by final state")

	logsCmd.Flags().String("date", "", "Log date (YYYY-MM-DD, default today)")
	logsCmd.Flags().Int("limit", 100, "Maximum number of entries")
	logsCmd.Flags().String("search", "", "Only show entries containing this text")
	logsCmd.Flags().BoolP("follow", "f", false, "Stream new entries")
}

func printSnapshot(cmd *cobra.Command, s *domain.Snapshot) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Status: %s\n", s.Status)
	if s.RunID == "" {
		return
	}
	fmt.Fprintf(out, "  Run ID:    %s\n", s.RunID)
	fmt.Fprintf(out, "  State:     %s\n", s.State)
	fmt.Fprintf(out, "  Processed: %d/%d\n", s.Processed, s.Total)
	fmt.Fprintf(out, "  Succeeded: %d\n", s.Succeeded)
	fmt.Fprintf(out, "  Failed:    %d\n", s.Failed)
	if s.Current != "" {
		fmt.Fprintf(out, "  Current:   %s\n", s.Current)
	}
}

func printRun(cmd *cobra.Command, r *domain.RunRecord) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Run Details:\n")
	fmt.Fprintf(out, "  ID:        %s\n", r.ID)
	fmt.Fprintf(out, "  Source:    %s\n", r.Source)
	fmt.Fprintf(out, "  Input:     %s\n", r.Input)
	if r.AudioOnly {
		fmt.Fprintf(out, "  Quality:   audio only\n")
	} else {
		fmt.Fprintf(out, "  Quality:   %s\n", r.Quality)
	}
	fmt.Fprintf(out, "  Output:    %s\n", r.OutputDir)
	fmt.Fprintf(out, "  State:     %s\n", r.State)
	fmt.Fprintf(out, "  Result:    %d/%d succeeded\n", r.Succeeded, r.Total)
	fmt.Fprintf(out, "  Started:   %s\n", r.StartedAt.Local().Format(time.RFC3339))
	if r.FinishedAt != nil {
		fmt.Fprintf(out, "  Finished:  %s\n", r.FinishedAt.Local().Format(time.RFC3339))
	}
	if r.Reason != "" {
		fmt.Fprintf(out, "  Reason:    %s\n", r.Reason)
	}
	if failed := r.FailedURLList(); len(failed) > 0 {
		fmt.Fprintf(out, "  Failed URLs:\n")
		for _, u := range failed {
			fmt.Fprintf(out, "    - %s\n", u)
		}
	}
}

func absPath(p string) (string, error) {
	if p == "" {
		return "", nil
	}
	return filepath.Abs(p)
}
