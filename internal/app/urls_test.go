package app

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/yt-batch/internal/domain"
)

func TestReadURLFile(t *testing.T) {
	path := writeURLFile(t, strings.Join([]string{
		"https://www.youtube.com/watch?v=1",
		"",
		"   ",
		"# comment",
		"\thttp://example.com/2\t",
		"youtube.com/watch?v=3",
		"https://www.youtube.com/watch?v=1",
	}, "\r\n"))

	urls, err := ReadURLFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"https://www.youtube.com/watch?v=1",
		"http://example.com/2",
		"https://www.youtube.com/watch?v=1",
	}, urls)
}

func TestReadURLFile_NotFound(t *testing.T) {
	_, err := ReadURLFile(filepath.Join(t.TempDir(), "nope.txt"))
	assert.ErrorIs(t, err, domain.ErrInputFileNotFound)
}

func TestReadURLFile_NoValidURLs(t *testing.T) {
	_, err := ReadURLFile(writeURLFile(t, "\n\nfoo\nbar\n"))
	assert.ErrorIs(t, err, domain.ErrNoValidURLs)

	empty := filepath.Join(t.TempDir(), "empty.txt")
	require.NoError(t, os.WriteFile(empty, nil, 0644))
	_, err = ReadURLFile(empty)
	assert.ErrorIs(t, err, domain.ErrNoValidURLs)
}

func TestParseURLList_MOfN(t *testing.T) {
	urls, err := ParseURLList(strings.NewReader("https://a\nx\nhttps://b\n\nhttps://c\ny"))
	require.NoError(t, err)
	assert.Len(t, urls, 3)
}
