package domain

import "errors"

var (
	// ErrEngineMissing means the download engine cannot be run on this host
	ErrEngineMissing = errors.New("yt-dlp is not installed")

	ErrNoInput           = errors.New("no URL or file given")
	ErrAmbiguousInput    = errors.New("give either a URL or a file, not both")
	ErrInputFileNotFound = errors.New("file not found")
	ErrNoValidURLs       = errors.New("no valid URLs found in file")

	// ErrBatchRunning is returned when a start is requested during a run
	ErrBatchRunning = errors.New("a download is already in progress")
	ErrNotRunning   = errors.New("no download in progress")

	ErrRunNotFound = errors.New("run not found")

	// ErrMetadataUnavailable means the engine could not describe a URL
	ErrMetadataUnavailable = errors.New("failed to fetch video info")
)

// IsInputError reports whether err rejects a batch request before any work
func IsInputError(err error) bool {
	return errors.Is(err, ErrNoInput) ||
		errors.Is(err, ErrAmbiguousInput) ||
		errors.Is(err, ErrInputFileNotFound) ||
		errors.Is(err, ErrNoValidURLs)
}
