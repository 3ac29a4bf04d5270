package domain

import (
	"context"
	"path/filepath"
)

// OutputTemplate names files after the media title; the engine picks the extension
const OutputTemplate = "%(title)s.%(ext)s"

// MergeOutputFormat is the container for merged video+audio downloads
const MergeOutputFormat = "mp4"

// LineFunc receives engine output one line at a time
type LineFunc func(line string)

// Engine defines the interface for the external download engine
type Engine interface {
	// Download runs one invocation and relays its output. A nil error means
	// the engine exited with status zero.
	Download(ctx context.Context, inv Invocation, onLine LineFunc) error

	// Probe fetches metadata for a URL without downloading
	Probe(ctx context.Context, url string) (*MediaInfo, error)

	// Check verifies the engine can be run on this host
	Check(ctx context.Context) (string, error)
}

// Invocation describes one engine run
type Invocation struct {
	URL          string
	Format       string
	OutputPath   string
	NoOverwrites bool
	Continue     bool
	Retries      int
	// Video only
	MergeFormat string
	// Audio only
	ExtractAudio bool
	AudioFormat  string
	AudioQuality string
}

// NewInvocation builds the invocation for a job. Audio extraction and
// container merging are never set together.
func NewInvocation(job Job, cfg *DownloadConfig, outputDir string) Invocation {
	inv := Invocation{
		URL:          job.URL,
		Format:       FormatSelector(job.Quality, job.AudioOnly),
		OutputPath:   filepath.Join(outputDir, OutputTemplate),
		NoOverwrites: true,
		Continue:     true,
		Retries:      cfg.MaxRetries,
	}
	if job.AudioOnly {
		inv.ExtractAudio = true
		inv.AudioFormat = cfg.AudioFormat
		inv.AudioQuality = cfg.AudioQuality
	} else {
		inv.MergeFormat = MergeOutputFormat
	}
	return inv
}

// MediaInfo is the subset of the engine's metadata dump used for previews
type MediaInfo struct {
	Title    string        `json:"title"`
	Duration float64       `json:"duration"`
	Formats  []MediaFormat `json:"formats"`
}

// MediaFormat is one available stream
type MediaFormat struct {
	FormatID string `json:"format_id"`
	Height   int    `json:"height"`
	Filesize int64  `json:"filesize"`
}
