package infrastructure

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuoteArg(t *testing.T) {
	tests := []struct {
		name string
		arg  string
		want string
	}{
		{"plain", "--no-overwrites", "--no-overwrites"},
		{"empty", "", "''"},
		{"url without meta", "https://youtu.be/abc", "https://youtu.be/abc"},
		{"url with query", "https://www.youtube.com/watch?v=abc&t=10", "'https://www.youtube.com/watch?v=abc&t=10'"},
		{"output template", "/downloads/%(title)s.%(ext)s", "'/downloads/%(title)s.%(ext)s'"},
		{"format expression", "bestvideo[height<=720]+bestaudio/best[height<=720]", "'bestvideo[height<=720]+bestaudio/best[height<=720]'"},
		{"space", "/my downloads", "'/my downloads'"},
		{"single quote", "/tmp/it's", `'/tmp/it'"'"'s'`},
		{"dollar", "$HOME", "'$HOME'"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, quoteArg(tt.arg))
		})
	}
}

func TestCommandLine(t *testing.T) {
	inv := videoInvocation("https://www.youtube.com/watch?v=abc", "/my downloads")

	line := commandLine("/opt/yt dlp/yt-dlp", BuildArgs(inv))

	assert.Contains(t, line, "'/opt/yt dlp/yt-dlp' -f ")
	assert.Contains(t, line, "-o '/my downloads/%(title)s.%(ext)s'")
	assert.Contains(t, line, "--retries 3")
	assert.Contains(t, line, "--merge-output-format mp4")
	assert.True(t, strings.HasSuffix(line, " 'https://www.youtube.com/watch?v=abc'"))
	assert.NotContains(t, line, "--audio-format")
}

func TestCommandLine_NoArgs(t *testing.T) {
	assert.Equal(t, "yt-dlp", commandLine("yt-dlp", nil))
}
