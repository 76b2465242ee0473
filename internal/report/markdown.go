package report

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/nao1215/privacylens/internal/model"
)

// MarkdownWriter outputs reports in Markdown format for documentation
// and sharing.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs the report in Markdown format.
func (w *MarkdownWriter) Write(report *model.AnalysisReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeScore(md, report)
	w.writeDomains(md, report)
	w.writeEvalPatterns(md, report)
	w.writeFingerprinting(md, report)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.AnalysisReport) {
	md.H1("Privacy Report")
	md.PlainText("")

	storage := "Not accessed"
	if report.LocalStorageAccess {
		storage = "Accessed"
	}
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"URL", "`" + report.URL + "`"},
			{"Analyzed", report.Timestamp.Format("2006-01-02 15:04:05 MST")},
			{"Cookies", strconv.Itoa(report.CookieCount)},
			{"Local Storage", storage},
		},
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeScore(md *markdown.Markdown, report *model.AnalysisReport) {
	score := model.Score(report)
	grade := model.GradeFor(score)

	md.H2("Privacy Score")
	md.PlainText("")
	md.PlainTextf("**%d** / 100 (%s), %d total issues", score, grade, model.TotalIssues(report))
	md.PlainText("")

	p := model.ComputePenalties(report)
	if p.Total() > 0 {
		w.writePieChart(md, p)
	}

	switch grade {
	case model.GradePoor:
		md.Cautionf("Poor privacy score. %d issue(s) were detected on this page.", model.TotalIssues(report))
	case model.GradeFair:
		md.Warningf("Fair privacy score. %d issue(s) were detected on this page.", model.TotalIssues(report))
	default:
		if p.Total() > 0 {
			md.Note("Good privacy score with minor issues.")
		} else {
			md.Tip("No privacy issues detected.")
		}
	}
	md.PlainText("")
}

// writePieChart writes a mermaid pie chart of the score deductions.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, p model.Penalties) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Score Deductions"),
		piechart.WithShowData(true),
	)

	for _, term := range []struct {
		label string
		value int
	}{
		{"Third-party domains", p.Domains},
		{"Dangerous code", p.Eval},
		{"Fingerprinting APIs", p.APIs},
		{"Canvas", p.Canvas},
		{"WebGL", p.WebGL},
		{"Fonts", p.Font},
	} {
		if term.value > 0 {
			chart.LabelAndIntValue(term.label, uint64(term.value)) //nolint:gosec // penalties are never negative
		}
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

func (w *MarkdownWriter) writeDomains(md *markdown.Markdown, report *model.AnalysisReport) {
	md.H2("Third-Party Domains")
	md.PlainText("")

	if len(report.ThirdPartyDomains) == 0 {
		md.PlainText("No third-party trackers detected.")
		md.PlainText("")
		return
	}

	title := cases.Title(language.English)
	var rows [][]string
	for _, c := range model.Categories() {
		if n := len(report.ThirdPartyResources.Get(c)); n > 0 {
			rows = append(rows, []string{title.String(string(c)), strconv.Itoa(n)})
		}
	}
	if len(rows) > 0 {
		md.Table(markdown.TableSet{
			Header: []string{"Resource", "Count"},
			Rows:   rows,
		})
		md.PlainText("")
	}

	domains, rest := listedDomains(report.ThirdPartyDomains)
	items := make([]string, 0, len(domains)+1)
	for _, d := range domains {
		if model.IsKnownTracker(d) {
			items = append(items, "`"+d+"` **Known Tracker**")
			continue
		}
		items = append(items, "`"+d+"`")
	}
	if rest > 0 {
		items = append(items, "... and "+strconv.Itoa(rest)+" more")
	}
	md.BulletList(items...)
	md.PlainText("")
}

func (w *MarkdownWriter) writeEvalPatterns(md *markdown.Markdown, report *model.AnalysisReport) {
	md.H2("Dangerous Code Patterns")
	md.PlainText("")

	if len(report.EvalPatterns) == 0 {
		md.PlainText("No dangerous code patterns detected.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(report.EvalPatterns))
	for i, p := range report.EvalPatterns {
		preview := p.Preview
		if preview == "" {
			preview = "-"
		}
		rows[i] = []string{p.Type, truncateString(p.Location, 60), "`" + preview + "`"}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Pattern", "Location", "Preview"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeFingerprinting(md *markdown.Markdown, report *model.AnalysisReport) {
	md.H2("Fingerprinting")
	md.PlainText("")

	if len(report.FingerprintingAPIs) == 0 {
		md.PlainText("No fingerprinting APIs detected.")
		md.PlainText("")
	}
	for _, g := range model.CategorizeAPIs(report.FingerprintingAPIs) {
		md.H3(string(g.Category) + " (" + strconv.Itoa(len(g.APIs)) + ")")
		md.PlainText("")
		items := make([]string, len(g.APIs))
		for i, api := range g.APIs {
			items[i] = "`" + api + "`"
		}
		md.BulletList(items...)
		md.PlainText("")
	}

	techniques := model.AdvancedTechniques(report)
	if len(techniques) == 0 {
		md.PlainText("No advanced fingerprinting detected.")
		md.PlainText("")
		return
	}
	md.H3("Advanced Techniques")
	md.PlainText("")
	md.BulletList(techniques...)
	md.PlainText("")
}

func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [privacylens](https://github.com/nao1215/privacylens)*")
}

// truncateString truncates a string to maxLen characters with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
