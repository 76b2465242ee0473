package report

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/nao1215/privacylens/internal/model"
)

// SimpleWriter outputs human-readable text reports for terminal display.
type SimpleWriter struct {
	baseWriter

	// showEmpty controls whether sections with no findings are shown.
	showEmpty bool

	// verbose lists every domain and adds eval previews.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowEmpty configures the writer to show empty sections.
func WithShowEmpty(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showEmpty = show
	}
}

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the report in human-readable format.
func (w *SimpleWriter) Write(report *model.AnalysisReport) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, report)
	w.writeDomains(&sb, report)
	w.writeEvalPatterns(&sb, report)
	w.writeFingerprinting(&sb, report)
	w.writeAdvanced(&sb, report)
	w.writeAdditional(&sb, report)
	w.writeFooter(&sb)

	return io.WriteString(w.output, sb.String())
}

func section(sb *strings.Builder, title string) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString(title)
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")
}

func (w *SimpleWriter) writeHeader(sb *strings.Builder, report *model.AnalysisReport) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                         PRIVACY REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	score := model.Score(report)
	fmt.Fprintf(sb, "URL:            %s\n", report.URL)
	fmt.Fprintf(sb, "Analyzed:       %s\n", report.Timestamp.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(sb, "Privacy Score:  %d/100 (%s)\n", score, model.GradeFor(score))
	fmt.Fprintf(sb, "Total Issues:   %d\n", model.TotalIssues(report))
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeDomains(sb *strings.Builder, report *model.AnalysisReport) {
	if len(report.ThirdPartyDomains) == 0 && !w.showEmpty {
		return
	}
	section(sb, "THIRD-PARTY DOMAINS")

	if len(report.ThirdPartyDomains) == 0 {
		sb.WriteString("  No third-party trackers detected\n\n")
		return
	}

	fmt.Fprintf(sb, "  %d third-party domains\n", len(report.ThirdPartyDomains))
	title := cases.Title(language.English)
	for _, c := range model.Categories() {
		if n := len(report.ThirdPartyResources.Get(c)); n > 0 {
			fmt.Fprintf(sb, "    %-12s %d\n", title.String(string(c))+":", n)
		}
	}
	sb.WriteString("\n")

	domains, rest := listedDomains(report.ThirdPartyDomains)
	if w.verbose {
		domains, rest = report.ThirdPartyDomains, 0
	}
	for _, d := range domains {
		if model.IsKnownTracker(d) {
			fmt.Fprintf(sb, "  [+] %s (known tracker)\n", d)
			continue
		}
		fmt.Fprintf(sb, "  [+] %s\n", d)
	}
	if rest > 0 {
		fmt.Fprintf(sb, "  ... and %d more\n", rest)
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeEvalPatterns(sb *strings.Builder, report *model.AnalysisReport) {
	if len(report.EvalPatterns) == 0 && !w.showEmpty {
		return
	}
	section(sb, "DANGEROUS CODE PATTERNS")

	if len(report.EvalPatterns) == 0 {
		sb.WriteString("  No dangerous code patterns detected\n\n")
		return
	}
	for _, p := range report.EvalPatterns {
		fmt.Fprintf(sb, "  * %s\n", p.Type)
		fmt.Fprintf(sb, "    Location: %s\n", p.Location)
		if w.verbose && p.Preview != "" {
			fmt.Fprintf(sb, "    Preview: %s\n", p.Preview)
		}
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeFingerprinting(sb *strings.Builder, report *model.AnalysisReport) {
	if len(report.FingerprintingAPIs) == 0 && !w.showEmpty {
		return
	}
	section(sb, "FINGERPRINTING APIS")

	if len(report.FingerprintingAPIs) == 0 {
		sb.WriteString("  No fingerprinting APIs detected\n\n")
		return
	}
	for _, g := range model.CategorizeAPIs(report.FingerprintingAPIs) {
		fmt.Fprintf(sb, "  %s (%d)\n", g.Category, len(g.APIs))
		for _, api := range g.APIs {
			fmt.Fprintf(sb, "    - %s\n", api)
		}
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeAdvanced(sb *strings.Builder, report *model.AnalysisReport) {
	techniques := model.AdvancedTechniques(report)
	if len(techniques) == 0 && !w.showEmpty {
		return
	}
	section(sb, "ADVANCED FINGERPRINTING")

	if len(techniques) == 0 {
		sb.WriteString("  No advanced fingerprinting detected\n\n")
		return
	}
	for _, t := range techniques {
		fmt.Fprintf(sb, "  [!] %s\n", t)
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeAdditional(sb *strings.Builder, report *model.AnalysisReport) {
	section(sb, "ADDITIONAL")
	fmt.Fprintf(sb, "  Cookies:        %d\n", report.CookieCount)
	if report.LocalStorageAccess {
		sb.WriteString("  Local storage:  Accessed\n")
	} else {
		sb.WriteString("  Local storage:  Not accessed\n")
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("Report generated by privacylens\n")
	sb.WriteString("https://github.com/nao1215/privacylens\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}
