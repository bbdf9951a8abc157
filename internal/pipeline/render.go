package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/ppiankov/epistemia/internal/model"
)

// Format is a report output format
type Format string

const (
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
)

// ParseFormat accepts json, markdown or md
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	default:
		return "", eris.Errorf("unknown format %q (want json or markdown)", s)
	}
}

// Renderer writes reports as JSON, Markdown or a terminal summary
type Renderer struct {
	includeFooter bool
}

// NewRenderer creates a new renderer
func NewRenderer(includeFooter bool) *Renderer {
	return &Renderer{includeFooter: includeFooter}
}

// Render writes the report to w in the given format
func (r *Renderer) Render(w io.Writer, report *model.Report, format Format) error {
	switch format {
	case FormatMarkdown:
		_, err := io.WriteString(w, r.Markdown(report))
		return err
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
}

// RenderFile writes the report to path, replacing any existing file
func (r *Renderer) RenderFile(report *model.Report, path string, format Format) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "create %s", path)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = eris.Wrapf(closeErr, "close %s", path)
		}
	}()

	return r.Render(f, report, format)
}

// Markdown renders the report as a Markdown document
func (r *Renderer) Markdown(report *model.Report) string {
	var b strings.Builder

	title := report.Subject
	if title == "" {
		title = "Untitled document"
	}
	fmt.Fprintf(&b, "# Epistemia Report: %s\n\n", title)
	if report.SourceURL != "" {
		fmt.Fprintf(&b, "**Source:** %s  \n", report.SourceURL)
	}
	fmt.Fprintf(&b, "**Overall risk:** %s (hallucination score %.3f)  \n", report.Risk.OverallRisk, report.Risk.HallucinationScore)
	fmt.Fprintf(&b, "**Mode:** %s\n\n", report.Config.NormalizedMode())

	s := report.Risk.Summary
	b.WriteString("## Summary\n\n")
	b.WriteString("| Verdict | Claims |\n")
	b.WriteString("|---|---|\n")
	fmt.Fprintf(&b, "| Supported | %d |\n", s.Supported)
	fmt.Fprintf(&b, "| Partially supported | %d |\n", s.PartiallySupported)
	fmt.Fprintf(&b, "| Uncertain (incl. partial) | %d |\n", s.Uncertain)
	fmt.Fprintf(&b, "| Insufficient evidence | %d |\n", s.Insufficient)
	fmt.Fprintf(&b, "| Refuted | %d |\n", s.Refuted)
	fmt.Fprintf(&b, "| **Epistemic total** | **%d** |\n\n", s.EpistemicClaims)

	b.WriteString("## Claims\n\n")
	if len(report.Claims) == 0 {
		b.WriteString("_No claims._\n\n")
	}
	for i, c := range report.Claims {
		writeClaim(&b, i+1, c)
	}

	if len(report.Signals) > 0 {
		b.WriteString("## Signals\n\n")
		for _, sig := range report.Signals {
			fmt.Fprintf(&b, "- **[%s] %s**: %s", sig.Severity, sig.Type, sig.Description)
			if len(sig.ClaimIDs) > 0 {
				fmt.Fprintf(&b, " (claims: %s)", strings.Join(sig.ClaimIDs, ", "))
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if r.includeFooter {
		b.WriteString("---\n\n")
		b.WriteString("_Generated by Epistemia. Verdicts describe how well the supplied evidence supports each claim; they are diagnostics, not judgements of truth._\n")
	}

	return b.String()
}

func writeClaim(b *strings.Builder, n int, c model.Claim) {
	fmt.Fprintf(b, "### %d. %s\n\n", n, c.Text)
	fmt.Fprintf(b, "- **Claim ID:** `%s`\n", c.ID)

	v := c.Verification
	if v == nil {
		b.WriteString("- **Verdict:** not verified\n\n")
		return
	}

	fmt.Fprintf(b, "- **Verdict:** %s (confidence %.2f)\n", v.Verdict, v.Confidence)
	fmt.Fprintf(b, "- **Reasoning:** %s\n", v.Reasoning)
	if v.EvidenceSufficiency != "" {
		fmt.Fprintf(b, "- **Evidence sufficiency:** %s\n", v.EvidenceSufficiency)
	}
	if len(v.UsedEvidenceIDs) > 0 {
		fmt.Fprintf(b, "- **Evidence used:** %s\n", codeList(v.UsedEvidenceIDs))
	}
	if len(v.ContradictedBy) > 0 {
		fmt.Fprintf(b, "- **Contradicted by:** %s\n", codeList(v.ContradictedBy))
	}
	if len(v.FacetStatus) > 0 {
		var parts []string
		for _, facet := range slices.Sorted(maps.Keys(v.FacetStatus)) {
			parts = append(parts, fmt.Sprintf("%s=%s", facet, v.FacetStatus[facet]))
		}
		fmt.Fprintf(b, "- **Facets:** %s\n", strings.Join(parts, ", "))
	}
	for _, ac := range v.AuthoritativeContradictions {
		fmt.Fprintf(b, "- **Authoritative contradiction** (%s, %.2f): %s\n", ac.Property, ac.Confidence, ac.Reasoning)
	}
	if len(c.Hallucinations) > 0 {
		b.WriteString("- **Hallucinations:**\n")
		for _, h := range c.Hallucinations {
			fmt.Fprintf(b, "  - %s (%s, %.2f): %s\n", h.Type, h.Severity, h.Score, h.Reason)
		}
	}
	b.WriteString("\n")
}

func codeList(ids []string) string {
	quoted := make([]string, len(ids))
	for i, id := range ids {
		quoted[i] = "`" + id + "`"
	}
	return strings.Join(quoted, ", ")
}

// RenderSummary prints a short terminal summary of the report
func (r *Renderer) RenderSummary(w io.Writer, report *model.Report) {
	s := report.Risk.Summary

	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "═══════════════════════════════════════════════════════════\n")
	if report.Subject != "" {
		fmt.Fprintf(w, "  %s\n", report.Subject)
	} else {
		fmt.Fprintf(w, "  Epistemia Audit\n")
	}
	fmt.Fprintf(w, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "  Risk:          %s (score %.3f)\n", report.Risk.OverallRisk, report.Risk.HallucinationScore)
	fmt.Fprintf(w, "  Claims:        %d asserted, %d epistemic\n", s.TotalAssertedClaims, s.EpistemicClaims)
	fmt.Fprintf(w, "  Supported:     %d\n", s.Supported)
	fmt.Fprintf(w, "  Uncertain:     %d (%d partially supported)\n", s.Uncertain, s.PartiallySupported)
	fmt.Fprintf(w, "  Insufficient:  %d\n", s.Insufficient)
	fmt.Fprintf(w, "  Refuted:       %d\n", s.Refuted)
	fmt.Fprintf(w, "\n")

	for _, c := range report.Claims {
		if c.Verification == nil {
			continue
		}
		fmt.Fprintf(w, "  %s [%s %.2f] %s\n", verdictMark(c.Verification.Verdict), c.Verification.Verdict, c.Verification.Confidence, c.Text)
	}
	fmt.Fprintf(w, "\n")
}

func verdictMark(v model.Verdict) string {
	switch v {
	case model.VerdictSupported:
		return "✓"
	case model.VerdictSupportedWeak, model.VerdictPartiallySupported:
		return "~"
	case model.VerdictRefuted:
		return "✗"
	default:
		return "?"
	}
}
