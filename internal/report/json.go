package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/nao1215/privacylens/internal/model"
)

// JSONWriter outputs one JSON document per report, each followed by a
// newline. URLs are written unescaped, so "&" stays readable.
type JSONWriter struct {
	baseWriter
	prefix, indent string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent indents nested values with indent, starting every line after
// the first with prefix.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.prefix, w.indent = prefix, indent
	}
}

// WithPrettyPrint indents with two spaces.
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// NewJSONWriter creates a JSONWriter for output.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the bare report.
func (w *JSONWriter) Write(report *model.AnalysisReport) (int, error) {
	return w.encode(report)
}

// encode writes v to the output with a single Write call.
func (w *JSONWriter) encode(v any) (int, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent(w.prefix, w.indent)
	if err := enc.Encode(v); err != nil {
		return 0, fmt.Errorf("failed to encode report: %w", err)
	}
	return w.output.Write(buf.Bytes())
}

// JSONReport wraps a report with the values derived from it.
// The score is never stored in the report itself.
type JSONReport struct {
	// Version is the privacylens version that generated this report.
	Version string `json:"version"`

	Score       int    `json:"score"`
	Grade       string `json:"grade"`
	TotalIssues int    `json:"totalIssues"`

	// KnownTrackers lists the third-party domains matching known trackers.
	KnownTrackers []string `json:"knownTrackers"`

	Report *model.AnalysisReport `json:"report"`
}

// NewJSONReport creates a JSONReport for report.
func NewJSONReport(report *model.AnalysisReport, version string) *JSONReport {
	score := model.Score(report)
	trackers := []string{}
	for _, d := range report.ThirdPartyDomains {
		if model.IsKnownTracker(d) {
			trackers = append(trackers, d)
		}
	}
	return &JSONReport{
		Version:       version,
		Score:         score,
		Grade:         model.GradeFor(score).String(),
		TotalIssues:   model.TotalIssues(report),
		KnownTrackers: trackers,
		Report:        report,
	}
}

// FullJSONWriter outputs reports wrapped with their score and metadata.
type FullJSONWriter struct {
	*JSONWriter

	// version is the privacylens version string.
	version string
}

// NewFullJSONWriter creates a writer for reports with metadata.
func NewFullJSONWriter(output io.Writer, version string, opts ...JSONWriterOption) *FullJSONWriter {
	return &FullJSONWriter{
		JSONWriter: NewJSONWriter(output, opts...),
		version:    version,
	}
}

// Write outputs the report wrapped with metadata.
func (w *FullJSONWriter) Write(report *model.AnalysisReport) (int, error) {
	return w.encode(NewJSONReport(report, w.version))
}
