package report

import (
	"fmt"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"pymetrics/internal/assessment"
)

// Generator renders a completed assessment as a human-readable report:
// markdown for review, HTML for embedding, and an xlsx workbook for
// researchers who want the raw numbers.
type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// Markdown renders the assessment narrative. Sections appear in a fixed
// order and dimensions are iterated sorted, so the same result always
// renders the same document.
func (g *Generator) Markdown(result *assessment.Result) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Behavioral Assessment Report\n\n")
	fmt.Fprintf(&b, "**Session:** %s  \n", result.Session.ID)
	fmt.Fprintf(&b, "**Game:** %s  \n", result.Session.GameType)
	fmt.Fprintf(&b, "**Assessed:** %s  \n", result.Profile.ComputedAt)
	fmt.Fprintf(&b, "**Assessment version:** %s (schema %s)\n\n",
		result.Profile.AssessmentVersion, result.Profile.SchemaVersion)

	g.writeValidation(&b, result)
	g.writeTraits(&b, result)
	g.writeMetrics(&b, result)

	return b.String()
}

// HTML renders the markdown narrative as a standalone HTML fragment.
func (g *Generator) HTML(result *assessment.Result) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.Tables)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags})
	return markdown.ToHTML([]byte(g.Markdown(result)), p, renderer)
}

func (g *Generator) writeValidation(b *strings.Builder, result *assessment.Result) {
	v := result.Verdict
	fmt.Fprintf(b, "## Scientific Validation\n\n")
	status := "PASSED"
	if !v.Valid {
		status = "FAILED"
	}
	fmt.Fprintf(b, "Validation %s (%s, %.0f%% confidence level).\n\n", status, v.ValidationMethod, v.ConfidenceLevel*100)
	if v.Abandoned {
		fmt.Fprintf(b, "The session exceeded the maximum duration window and was flagged as abandoned.\n\n")
	}

	fmt.Fprintf(b, "| Check | Observed | Required | Result |\n")
	fmt.Fprintf(b, "|---|---|---|---|\n")
	for _, c := range v.Checks {
		res := "pass"
		if !c.Passed {
			res = "fail"
		}
		fmt.Fprintf(b, "| %s | %.3f | %.3f | %s |\n", c.Name, c.Observed, c.Required, res)
	}
	b.WriteString("\n")

	for _, d := range v.Diagnostics {
		fmt.Fprintf(b, "- %s\n", d)
	}
	if len(v.Diagnostics) > 0 {
		b.WriteString("\n")
	}
}

func (g *Generator) writeTraits(b *strings.Builder, result *assessment.Result) {
	fmt.Fprintf(b, "## Trait Profile\n\n")
	if len(result.Profile.Scores) == 0 {
		fmt.Fprintf(b, "No trait dimensions could be inferred from this session.\n\n")
		return
	}
	for _, dim := range result.Profile.Dimensions() {
		s := result.Profile.Scores[dim]
		fmt.Fprintf(b, "### %s\n\n", strings.ReplaceAll(string(dim), "_", " "))
		fmt.Fprintf(b, "Score %.2f, confidence %.2f (reliability %.2f, %.0f%% of metric weight present).\n\n",
			s.Score, s.Confidence, s.Reliability, s.Renormalization*100)
		fmt.Fprintf(b, "%s\n\n", s.Interpretation)
		for _, c := range s.Contributing {
			fmt.Fprintf(b, "- `%s` = %.3f (weight %.2f)\n", c.Metric, c.Value, c.Weight)
		}
		b.WriteString("\n")
	}
}

func (g *Generator) writeMetrics(b *strings.Builder, result *assessment.Result) {
	set := result.Metrics
	fmt.Fprintf(b, "## Behavioral Metrics\n\n")
	fmt.Fprintf(b, "%d events aggregated, %d excluded as malformed, mean completeness %.2f.\n\n",
		set.EventCount, set.Excluded, set.Completeness)

	fmt.Fprintf(b, "| Metric | Value | Quality | Sample |\n")
	fmt.Fprintf(b, "|---|---|---|---|\n")
	for _, name := range set.Names() {
		m := set.Metrics[name]
		fmt.Fprintf(b, "| %s | %.4f | %.2f | %d |\n", m.Name, m.Value, m.Quality, m.SampleSize)
	}
	b.WriteString("\n")

	for _, w := range set.Warnings {
		fmt.Fprintf(b, "- %s\n", w)
	}
}
