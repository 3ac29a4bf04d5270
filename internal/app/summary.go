package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/yourusername/yt-batch/internal/domain"
)

const summaryRule = "============================================================"

// FormatSummary renders the end-of-run report
func FormatSummary(result *domain.BatchResult) []string {
	if result.State == domain.StateFailedToStart {
		return []string{"Download failed: " + result.Reason}
	}

	lines := []string{
		summaryRule,
		"DOWNLOAD SUMMARY",
		summaryRule,
	}
	if result.State == domain.StateStopped {
		lines = append(lines, fmt.Sprintf("Stopped after %d/%d", result.Processed(), result.Total))
	}
	lines = append(lines,
		fmt.Sprintf("Successful: %d/%d", result.Succeeded, result.Total),
		fmt.Sprintf("Failed: %d/%d", result.Failed(), result.Total),
	)

	if len(result.FailedURLs) > 0 {
		lines = append(lines, "", "Failed URLs:")
		for _, url := range result.FailedURLs {
			lines = append(lines, "  - "+url)
		}
	}
	if result.FailedFile != "" {
		lines = append(lines, "", "Failed URLs saved to: "+result.FailedFile)
	}
	return lines
}

// SaveFailedURLs overwrites failed_urls.txt in outputDir, one URL per line
func SaveFailedURLs(outputDir string, urls []string) (string, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	path := filepath.Join(outputDir, domain.FailedURLsFile)
	if err := os.WriteFile(path, []byte(strings.Join(urls, "\n")), 0644); err != nil {
		return "", fmt.Errorf("failed to save failed URLs: %w", err)
	}
	return path, nil
}
