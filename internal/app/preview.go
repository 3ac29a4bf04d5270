package app

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"
	"unicode/utf8"

	"github.com/yourusername/yt-batch/internal/domain"
)

const previewTitleLen = 50

// Preview describes a URL before it is downloaded
type Preview struct {
	Text     string  `json:"text"`
	Title    string  `json:"title,omitempty"`
	Duration float64 `json:"duration,omitempty"`
	FormatID string  `json:"format_id,omitempty"`
	Height   int     `json:"height,omitempty"`
	Filesize int64   `json:"filesize,omitempty"`
}

// PreviewService fetches size and duration estimates. Its errors are
// reported in the preview text and never returned.
type PreviewService struct {
	engine  domain.Engine
	config  *domain.DownloadConfig
	timeout time.Duration
}

// NewPreviewService creates a preview service. config supplies the default
// quality and the probe timeout.
func NewPreviewService(engine domain.Engine, config *domain.DownloadConfig) *PreviewService {
	timeout := 30 * time.Second
	if config != nil && config.PreviewTimeout > 0 {
		timeout = config.PreviewTimeout
	}
	return &PreviewService{engine: engine, config: config, timeout: timeout}
}

// Preview probes url and summarizes the format closest to the quality a
// download of the same request would use
func (p *PreviewService) Preview(ctx context.Context, url string, quality domain.Quality, audioOnly bool) Preview {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	info, err := p.engine.Probe(ctx, url)
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return Preview{Text: "Timeout - Try again"}
	case errors.Is(err, domain.ErrMetadataUnavailable):
		return Preview{Text: "Failed to fetch video info"}
	case err != nil:
		return Preview{Text: "Error: " + err.Error()}
	}

	target := ResolveQuality(quality, p.config).Height()
	if audioOnly {
		target = domain.Quality2160p.Height()
	}

	preview := Preview{Title: info.Title, Duration: info.Duration}
	format := SelectFormat(info.Formats, target)
	if format == nil {
		preview.Text = fmt.Sprintf("Size: Unavailable | Duration: %s", formatDuration(info.Duration))
		return preview
	}

	preview.FormatID = format.FormatID
	preview.Height = format.Height
	preview.Filesize = format.Filesize
	preview.Text = fmt.Sprintf("Size: %s | Duration: %s | Title: %s...",
		formatSize(format.Filesize), formatDuration(info.Duration), truncateRunes(info.Title, previewTitleLen))
	return preview
}

// SelectFormat returns the first format at exactly targetHeight with a known
// size, else the sized format whose height is closest. Nil when no format
// has a size.
func SelectFormat(formats []domain.MediaFormat, targetHeight int) *domain.MediaFormat {
	for i := range formats {
		if formats[i].Height == targetHeight && formats[i].Filesize > 0 {
			return &formats[i]
		}
	}

	order := make([]int, len(formats))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return absInt(formats[order[a]].Height-targetHeight) < absInt(formats[order[b]].Height-targetHeight)
	})
	for _, i := range order {
		if formats[i].Filesize > 0 {
			return &formats[i]
		}
	}
	return nil
}

func formatSize(bytes int64) string {
	mb := float64(bytes) / (1024 * 1024)
	if gb := mb / 1024; gb >= 1 {
		return fmt.Sprintf("%.2f GB", gb)
	}
	return fmt.Sprintf("%.2f MB", mb)
}

func formatDuration(seconds float64) string {
	total := int(seconds)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

func absInt(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
