package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/nao1215/privacylens/internal/model"
)

// ExportFileName returns the file name of the exported artifact of report,
// privacy-report-<hostname>-<unix millis>.json.
func ExportFileName(report *model.AnalysisReport, now time.Time) string {
	host := report.Hostname()
	if host == "" {
		host = "unknown"
	}
	return "privacy-report-" + host + "-" + strconv.FormatInt(now.UnixMilli(), 10) + ".json"
}

// Export writes report as two-space indented JSON into dir and returns the
// path of the written file.
func Export(dir string, report *model.AnalysisReport, now time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}
	path := filepath.Join(dir, ExportFileName(report, now))

	f, err := os.OpenFile(filepath.Clean(path), os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o600)
	if err != nil {
		return "", fmt.Errorf("failed to create export file: %w", err)
	}
	if _, err := NewJSONWriter(f, WithPrettyPrint()).Write(report); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("failed to write export file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close export file: %w", err)
	}
	return path, nil
}
