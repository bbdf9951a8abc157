package pipeline

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/epistemia/internal/model"
)

func sampleReport() *model.Report {
	return &model.Report{
		Subject:   "OpenAI",
		SourceURL: "https://example.com/openai",
		Claims: []model.Claim{
			{
				ID:   "c1",
				Text: "OpenAI was founded in 2017.",
				Verification: &model.VerificationResult{
					Verdict:         model.VerdictRefuted,
					Confidence:      0.9,
					UsedEvidenceIDs: []string{},
					ContradictedBy:  []string{"wd-p571"},
					Reasoning:       "Wikidata inception year is 2015.",
					FacetStatus: map[model.Facet]model.FacetState{
						model.FacetInception:       model.FacetContradicted,
						model.FacetTemporalGeneric: model.FacetContradicted,
					},
				},
				Hallucinations: []model.HallucinationFlag{
					model.NewFlag(model.HallucinationTemporalFabrication, 0.9, "Claimed year conflicts with record."),
				},
			},
			{ID: "c2", Text: "Unverified claim."},
		},
		Risk: model.DocumentRisk{
			OverallRisk:        model.RiskMedium,
			HallucinationScore: 0.4,
			Summary:            model.RiskSummary{TotalAssertedClaims: 2, EpistemicClaims: 1, Refuted: 1},
		},
		Signals: []model.DocumentSignal{{
			Type:        model.SignalCrossClaimConflict,
			Severity:    model.LevelWarning,
			Description: "Conflicting values",
			ClaimIDs:    []string{"c1", "c3"},
		}},
		Config: model.DefaultPipelineConfig(),
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input    string
		expected Format
		wantErr  bool
		desc     string
	}{
		{"json", FormatJSON, false, "json"},
		{"Markdown", FormatMarkdown, false, "case insensitive"},
		{"md", FormatMarkdown, false, "short alias"},
		{"html", "", true, "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			got, err := ParseFormat(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestRender_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewRenderer(true).Render(&buf, sampleReport(), FormatJSON))

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))

	assert.Equal(t, "OpenAI", decoded["subject"])
	risk := decoded["risk"].(map[string]interface{})
	assert.Equal(t, "MEDIUM", risk["overall_risk"])
	claims := decoded["claims"].([]interface{})
	require.Len(t, claims, 2)
	verification := claims[0].(map[string]interface{})["verification"].(map[string]interface{})
	assert.Equal(t, "REFUTED", verification["verdict"])
	assert.Equal(t, []interface{}{}, verification["used_evidence_ids"])
}

func TestRender_Markdown(t *testing.T) {
	md := NewRenderer(true).Markdown(sampleReport())

	assert.Contains(t, md, "# Epistemia Report: OpenAI")
	assert.Contains(t, md, "**Overall risk:** MEDIUM (hallucination score 0.400)")
	assert.Contains(t, md, "| Refuted | 1 |")
	assert.Contains(t, md, "### 1. OpenAI was founded in 2017.")
	assert.Contains(t, md, "- **Verdict:** REFUTED (confidence 0.90)")
	assert.Contains(t, md, "- **Contradicted by:** `wd-p571`")
	assert.Contains(t, md, "- **Facets:** INCEPTION=CONTRADICTED, TEMPORAL_GENERIC=CONTRADICTED")
	assert.Contains(t, md, "TEMPORAL_FABRICATION (CRITICAL, 0.90)")
	assert.Contains(t, md, "- **Verdict:** not verified")
	assert.Contains(t, md, "(claims: c1, c3)")
	assert.Contains(t, md, "_Generated by Epistemia.")
	assert.NotContains(t, md, "Evidence used")

	noFooter := NewRenderer(false).Markdown(sampleReport())
	assert.NotContains(t, noFooter, "_Generated by Epistemia.")
}

func TestRender_MarkdownEmptyReport(t *testing.T) {
	md := NewRenderer(false).Markdown(&model.Report{})

	assert.Contains(t, md, "# Epistemia Report: Untitled document")
	assert.Contains(t, md, "_No claims._")
	assert.NotContains(t, md, "## Signals")
}

func TestRenderFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.md")
	require.NoError(t, NewRenderer(false).RenderFile(sampleReport(), path, FormatMarkdown))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "## Claims")

	err = NewRenderer(false).RenderFile(sampleReport(), filepath.Join(t.TempDir(), "missing", "report.md"), FormatJSON)
	assert.Error(t, err)
}

func TestRenderSummary(t *testing.T) {
	var buf bytes.Buffer
	NewRenderer(true).RenderSummary(&buf, sampleReport())

	out := buf.String()
	assert.Contains(t, out, "  OpenAI\n")
	assert.Contains(t, out, "Risk:          MEDIUM (score 0.400)")
	assert.Contains(t, out, "✗ [REFUTED 0.90] OpenAI was founded in 2017.")
	assert.NotContains(t, out, "Unverified claim.")
}
