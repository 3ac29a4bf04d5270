package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/yt-batch/internal/domain"
)

func previewWith(info *domain.MediaInfo, err error) *PreviewService {
	engine := newFakeEngine()
	engine.probe = func(ctx context.Context, url string) (*domain.MediaInfo, error) {
		return info, err
	}
	cfg := testDownloadConfig()
	cfg.PreviewTimeout = time.Second
	return NewPreviewService(engine, cfg)
}

func TestPreview_ExactHeight(t *testing.T) {
	info := &domain.MediaInfo{
		Title:    "A very long title that certainly goes past the fifty character limit",
		Duration: 187,
		Formats: []domain.MediaFormat{
			{FormatID: "137", Height: 1080},
			{FormatID: "136", Height: 720, Filesize: 15 * 1024 * 1024},
			{FormatID: "22", Height: 720, Filesize: 30 * 1024 * 1024},
		},
	}

	p := previewWith(info, nil).Preview(context.Background(), "https://a", domain.Quality720p, false)
	assert.Equal(t, "Size: 15.00 MB | Duration: 3:07 | Title: A very long title that certainly goes past the fif...", p.Text)
	assert.Equal(t, "136", p.FormatID)
	assert.Equal(t, 720, p.Height)
}

func TestPreview_ClosestHeightAndGigabytes(t *testing.T) {
	info := &domain.MediaInfo{
		Title:    "Short",
		Duration: 3605,
		Formats: []domain.MediaFormat{
			{FormatID: "low", Height: 360, Filesize: 1024},
			{FormatID: "high", Height: 1440, Filesize: 3 * 1024 * 1024 * 1024 / 2},
			{FormatID: "exact-unsized", Height: 2160},
		},
	}

	p := previewWith(info, nil).Preview(context.Background(), "https://a", domain.Quality2160p, false)
	assert.Equal(t, "Size: 1.50 GB | Duration: 60:05 | Title: Short...", p.Text)
	assert.Equal(t, "high", p.FormatID)
}

func TestPreview_SizeUnavailable(t *testing.T) {
	info := &domain.MediaInfo{
		Title:    "No sizes",
		Duration: 65,
		Formats:  []domain.MediaFormat{{FormatID: "18", Height: 360}},
	}

	p := previewWith(info, nil).Preview(context.Background(), "https://a", domain.Quality1080p, false)
	assert.Equal(t, "Size: Unavailable | Duration: 1:05", p.Text)
	assert.Equal(t, "No sizes", p.Title)
}

func TestPreview_AudioOnlyTargetsBest(t *testing.T) {
	info := &domain.MediaInfo{
		Duration: 10,
		Formats: []domain.MediaFormat{
			{FormatID: "low", Height: 360, Filesize: 1024 * 1024},
			{FormatID: "best", Height: 2160, Filesize: 2 * 1024 * 1024},
		},
	}

	p := previewWith(info, nil).Preview(context.Background(), "https://a", domain.Quality360p, true)
	assert.Equal(t, "best", p.FormatID)
}

func TestPreview_Errors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"timeout", fmt.Errorf("yt-dlp metadata: %w", context.DeadlineExceeded), "Timeout - Try again"},
		{"engine failure", fmt.Errorf("%w: exit status 1", domain.ErrMetadataUnavailable), "Failed to fetch video info"},
		{"other", errors.New("failed to parse metadata: bad"), "Error: failed to parse metadata: bad"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := previewWith(nil, tt.err).Preview(context.Background(), "https://a", domain.Quality720p, false)
			assert.Equal(t, tt.want, p.Text)
		})
	}
}

func TestPreview_AppliesTimeout(t *testing.T) {
	engine := newFakeEngine()
	engine.probe = func(ctx context.Context, url string) (*domain.MediaInfo, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}

	cfg := testDownloadConfig()
	cfg.PreviewTimeout = 20 * time.Millisecond
	p := NewPreviewService(engine, cfg).Preview(context.Background(), "https://a", domain.Quality720p, false)
	assert.Equal(t, "Timeout - Try again", p.Text)
}

func TestPreview_QualityResolvedLikeDownloads(t *testing.T) {
	info := &domain.MediaInfo{
		Duration: 60,
		Formats: []domain.MediaFormat{
			{FormatID: "720", Height: 720, Filesize: 1024 * 1024},
			{FormatID: "1080", Height: 1080, Filesize: 2 * 1024 * 1024},
		},
	}
	engine := newFakeEngine()
	engine.probe = func(ctx context.Context, url string) (*domain.MediaInfo, error) {
		return info, nil
	}
	cfg := testDownloadConfig()
	cfg.DefaultQuality = "720p"
	svc := NewPreviewService(engine, cfg)

	// No quality: the configured default, as a download would use
	assert.Equal(t, "720", svc.Preview(context.Background(), "https://a", "", false).FormatID)
	// Unrecognized quality: the 1080p default
	assert.Equal(t, "1080", svc.Preview(context.Background(), "https://a", "8K", false).FormatID)
}

func TestSelectFormat(t *testing.T) {
	formats := []domain.MediaFormat{
		{FormatID: "a", Height: 480, Filesize: 10},
		{FormatID: "b", Height: 1080},
		{FormatID: "c", Height: 720, Filesize: 20},
		{FormatID: "d", Height: 1440, Filesize: 30},
	}

	require.NotNil(t, SelectFormat(formats, 720))
	assert.Equal(t, "c", SelectFormat(formats, 720).FormatID)
	// 1080 has no size; 1440 and 720 are both 360 away, 720 comes first
	assert.Equal(t, "c", SelectFormat(formats, 1080).FormatID)
	assert.Equal(t, "a", SelectFormat(formats, 360).FormatID)
	assert.Nil(t, SelectFormat([]domain.MediaFormat{{Height: 720}}, 720))
	assert.Nil(t, SelectFormat(nil, 720))
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "héllo", truncateRunes("héllo wörld", 5))
	assert.Equal(t, "short", truncateRunes("short", 50))
	assert.Equal(t, 50, len([]rune(truncateRunes(strings.Repeat("é", 80), 50))))
}
