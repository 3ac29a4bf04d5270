package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/yourusername/yt-batch/internal/app"
	"github.com/yourusername/yt-batch/internal/domain"
	"github.com/yourusername/yt-batch/pkg/logger"
)

const engineMissingHelp = `yt-dlp is not installed!
Please run the installer script first:
  Windows: install.bat
  Linux/Mac: ./install.sh`

type downloadOptions struct {
	url       string
	file      string
	quality   string
	audioOnly bool
	output    string
}

func newDownloadCmd() *cobra.Command {
	var opts downloadOptions

	cmd := &cobra.Command{
		Use:   "download",
		Short: "Download a video or a list of videos",
		Long: `Download a single URL or every URL in a text file (one per line),
one after another. Failed URLs of a file run are saved to failed_urls.txt
in the output directory. Press Ctrl+C to stop.`,
		Example: `  ytbatch download --url "https://www.youtube.com/watch?v=VIDEO_ID"
  ytbatch download --file urls.txt
  ytbatch download --url "VIDEO_URL" --audio-only
  ytbatch download --url "VIDEO_URL" --quality 720p`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDownload(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.url, "url", "", "Video URL")
	cmd.Flags().StringVar(&opts.file, "file", "", "Text file with multiple URLs (one per line)")
	cmd.Flags().StringVar(&opts.quality, "quality", "", "Video quality: "+qualityChoices()+" (default from settings, 1080p)")
	cmd.Flags().BoolVar(&opts.audioOnly, "audio-only", false, "Download audio only")
	cmd.Flags().StringVar(&opts.output, "output", "", "Output directory (default from settings, ./downloads)")
	cmd.MarkFlagsMutuallyExclusive("url", "file")

	return cmd
}

func newPreviewCmd() *cobra.Command {
	var (
		url       string
		quality   string
		audioOnly bool
	)

	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Show the estimated size, duration and title of a video",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(url) == "" {
				return fmt.Errorf("--url is required")
			}
			q, err := parseQuality(quality)
			if err != nil {
				return err
			}

			services, err := loadServices()
			if err != nil {
				return err
			}
			defer services.Close()

			preview := services.Preview.Preview(cmd.Context(), url, q, audioOnly)
			fmt.Fprintln(cmd.OutOrStdout(), preview.Text)
			return nil
		},
	}

	cmd.Flags().StringVar(&url, "url", "", "Video URL")
	cmd.Flags().StringVar(&quality, "quality", "", "Video quality: "+qualityChoices())
	cmd.Flags().BoolVar(&audioOnly, "audio-only", false, "Preview the audio download")

	return cmd
}

func runDownload(cmd *cobra.Command, opts downloadOptions) error {
	quality, err := parseQuality(opts.quality)
	if err != nil {
		return err
	}

	services, err := loadServices()
	if err != nil {
		return err
	}
	defer services.Close()

	// First Ctrl+C stops the batch and terminates the running download
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := download(ctx, services, domain.BatchRequest{
		URL:       opts.url,
		File:      opts.file,
		Quality:   quality,
		AudioOnly: opts.audioOnly,
		OutputDir: opts.output,
	}, cmd.OutOrStdout(), cmd.ErrOrStderr())

	switch {
	case errors.Is(err, domain.ErrNoInput):
		cmd.Usage()
		return errReported
	case err != nil:
		return err
	case result.State == domain.StateFailedToStart || result.Failed() > 0:
		return errReported
	}
	return nil
}

// download checks the engine, runs the batch and records it. Engine output
// and the summary go to out.
func download(ctx context.Context, services *app.Services, req domain.BatchRequest, out, errOut io.Writer) (*domain.BatchResult, error) {
	if _, err := services.Engine.Check(ctx); err != nil {
		fmt.Fprintln(errOut, engineMissingHelp)
		return nil, errReported
	}

	req = services.Orchestrator.Resolve(req)
	if err := req.Validate(); err != nil {
		return nil, err
	}

	result, err := services.Orchestrator.Run(ctx, req, app.NewControl(), &consoleSink{out: out})
	if result == nil {
		return nil, err
	}

	app.RecordRun(services.RunRepository(), services.Logs, req, result)
	services.Notifier.NotifyBatchFinished(result.Snapshot(""))
	return result, nil
}

func loadServices() (*app.Services, error) {
	config, err := app.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	log, err := logger.New(logger.Config{
		Level:      config.Logging.Level,
		Format:     config.Logging.Format,
		OutputPath: config.Logging.OutputPath,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return app.NewServices(config, log), nil
}

func parseQuality(label string) (domain.Quality, error) {
	if strings.TrimSpace(label) == "" {
		return "", nil
	}
	q := domain.NormalizeQuality(label)
	if q == "" {
		return "", fmt.Errorf("invalid quality %q, choose from %s", label, qualityChoices())
	}
	return q, nil
}

func qualityChoices() string {
	labels := make([]string, len(domain.Qualities))
	for i, q := range domain.Qualities {
		labels[i] = string(q)
	}
	return strings.Join(labels, ", ")
}

// consoleSink prints run output as it arrives
type consoleSink struct {
	out io.Writer
}

func (s *consoleSink) Line(line string) {
	fmt.Fprintln(s.out, line)
}

func (s *consoleSink) Progress(domain.Snapshot) {}
