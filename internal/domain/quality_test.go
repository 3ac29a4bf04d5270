package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatSelector_KnownQualities(t *testing.T) {
	tests := []struct {
		quality  Quality
		expected string
	}{
		{Quality2160p, "bestvideo[height<=2160]+bestaudio/best[height<=2160]/best"},
		{Quality1440p, "bestvideo[height<=1440]+bestaudio/best[height<=1440]/best"},
		{Quality1080p, "bestvideo[height<=1080]+bestaudio/best[height<=1080]/best"},
		{Quality720p, "bestvideo[height<=720]+bestaudio/best[height<=720]/best"},
		{Quality480p, "bestvideo[height<=480]+bestaudio/best[height<=480]/best"},
		{Quality360p, "bestvideo[height<=360]+bestaudio/best[height<=360]/best"},
	}

	for _, tt := range tests {
		t.Run(string(tt.quality), func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatSelector(tt.quality, false))
		})
	}
}

func TestFormatSelector_UnknownFallsBackTo1080p(t *testing.T) {
	expected := "bestvideo[height<=1080]+bestaudio/best[height<=1080]/best"

	for _, q := range []Quality{"", "240p", "8K", "best", "1080"} {
		assert.Equal(t, expected, FormatSelector(q, false), "quality %q", q)
	}
}

func TestFormatSelector_AudioOnlyIgnoresQuality(t *testing.T) {
	for _, q := range append([]Quality{"", "bogus"}, Qualities...) {
		assert.Equal(t, "bestaudio/best", FormatSelector(q, true))
	}
}

func TestNormalizeQuality(t *testing.T) {
	tests := []struct {
		input    string
		expected Quality
	}{
		{"360p", Quality360p},
		{"720p", Quality720p},
		{" 1080P ", Quality1080p},
		{"1080", Quality1080p},
		{"1440p (2K)", Quality1440p},
		{"2160p (4K)", Quality2160p},
		{"2K", Quality1440p},
		{"4k", Quality2160p},
		{"", ""},
		{"8K", ""},
		{"high", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeQuality(tt.input))
		})
	}
}

func TestQuality_Height(t *testing.T) {
	assert.Equal(t, 2160, Quality2160p.Height())
	assert.Equal(t, 360, Quality360p.Height())
	assert.Equal(t, 0, Quality("").Height())
	assert.Equal(t, 0, Quality("1080").Height())
}

func TestQuality_Valid(t *testing.T) {
	for _, q := range Qualities {
		assert.True(t, q.Valid())
	}
	assert.False(t, Quality("240p").Valid())
}
