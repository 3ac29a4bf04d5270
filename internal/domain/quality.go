package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Quality is a target video resolution tier
type Quality string

const (
	Quality360p  Quality = "360p"
	Quality480p  Quality = "480p"
	Quality720p  Quality = "720p"
	Quality1080p Quality = "1080p"
	Quality1440p Quality = "1440p"
	Quality2160p Quality = "2160p"

	// DefaultQuality is used whenever a label is not one of the known tiers.
	DefaultQuality = Quality1080p
)

// AudioFormatSelector selects the best available audio stream
const AudioFormatSelector = "bestaudio/best"

// Qualities lists every known tier, lowest first
var Qualities = []Quality{
	Quality360p,
	Quality480p,
	Quality720p,
	Quality1080p,
	Quality1440p,
	Quality2160p,
}

var formatSelectors = func() map[Quality]string {
	m := make(map[Quality]string, len(Qualities))
	for _, q := range Qualities {
		h := q.Height()
		m[q] = fmt.Sprintf("bestvideo[height<=%d]+bestaudio/best[height<=%d]/best", h, h)
	}
	return m
}()

// Valid reports whether q is one of the known tiers
func (q Quality) Valid() bool {
	_, ok := formatSelectors[q]
	return ok
}

// Height returns the resolution ceiling in pixels, or 0 for unknown tiers
func (q Quality) Height() int {
	s := strings.TrimSuffix(string(q), "p")
	h, err := strconv.Atoi(s)
	if err != nil || !strings.HasSuffix(string(q), "p") {
		return 0
	}
	return h
}

// NormalizeQuality maps a user-facing label to a canonical tier.
// Decorated labels such as "1440p (2K)" or "4K" are accepted.
// Returns "" when the label matches no tier.
func NormalizeQuality(label string) Quality {
	s := strings.ToLower(strings.TrimSpace(label))
	if s == "" {
		return ""
	}

	if fields := strings.Fields(s); len(fields) > 0 {
		head := fields[0]
		if !strings.HasSuffix(head, "p") {
			head += "p"
		}
		if q := Quality(head); q.Valid() {
			return q
		}
	}

	switch {
	case strings.Contains(s, "4k"):
		return Quality2160p
	case strings.Contains(s, "2k"):
		return Quality1440p
	}
	return ""
}

// FormatSelector returns the engine format-selection expression for a quality.
// Audio-only requests ignore the quality. Unknown qualities resolve to the
// 1080p expression.
func FormatSelector(q Quality, audioOnly bool) string {
	if audioOnly {
		return AudioFormatSelector
	}
	if expr, ok := formatSelectors[q]; ok {
		return expr
	}
	return formatSelectors[DefaultQuality]
}
