package extract

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/epistemia/internal/model"
)

func TestStripMarkup(t *testing.T) {
	tests := []struct {
		input    string
		expected string
		desc     string
	}{
		{"  plain   text ", "plain text", "plain text collapsed"},
		{"<b>Google</b> was founded in <a href=\"/wiki/1998\">1998</a>.", "Google was founded in 1998.", "inline tags"},
		{"Founded 1998.<sup class=\"reference\">[1]</sup>", "Founded 1998.", "citation marker dropped"},
		{"<p>One.</p><p>Two.</p>", "One. Two.", "block elements separated"},
		{"AT&amp;T was founded in 1885.", "AT&T was founded in 1885.", "entities decoded"},
		{"<script>alert(1)</script>Visible", "Visible", "script skipped"},
		{"", "", "empty"},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			assert.Equal(t, tt.expected, StripMarkup(tt.input))
		})
	}
}

func TestFormatFor(t *testing.T) {
	assert.Equal(t, FormatYAML, FormatFor("doc.yaml"))
	assert.Equal(t, FormatYAML, FormatFor("DOC.YML"))
	assert.Equal(t, FormatJSON, FormatFor("doc.json"))
	assert.Equal(t, FormatJSON, FormatFor("doc"))
}

const jsonDocument = `{
  "subject": "Google",
  "claims": [
    {
      "claim_text": " Google was founded in 1998. ",
      "predicate": "founded",
      "object": "1998",
      "claim_type": "TEMPORAL",
      "evidence": {
        "wikidata": [{"property": "P571", "value": 1998, "alignment": {"subject_match": true}}],
        "wikipedia": [{"sentence": "Google was <b>founded</b> in 1998.", "score": 0.9}]
      }
    },
    {"claim_id": "explicit", "claim_text": "Google is headquartered in Mountain View."}
  ]
}`

func TestDecodeDocument_JSON(t *testing.T) {
	doc, err := DecodeDocument([]byte(jsonDocument), FormatJSON)
	require.NoError(t, err)

	assert.Equal(t, "Google", doc.Subject)
	require.Len(t, doc.Claims, 2)

	c := doc.Claims[0]
	assert.Equal(t, "claim-1", c.ID)
	assert.Equal(t, "Google was founded in 1998.", c.Text)
	assert.Equal(t, model.Scalar("1998"), c.Evidence.Wikidata[0].Value)
	assert.Equal(t, "Google was founded in 1998.", c.Evidence.Wikipedia[0].Sentence)
	assert.Equal(t, model.MatchUnknown, c.Evidence.Wikidata[0].Alignment().Predicate())

	assert.Equal(t, "explicit", doc.Claims[1].ID)
}

func TestDecodeDocument_BareClaimList(t *testing.T) {
	doc, err := DecodeDocument([]byte(`[{"claim_text": "A."}, {"claim_text": "B."}]`), FormatJSON)
	require.NoError(t, err)
	require.Len(t, doc.Claims, 2)
	assert.Equal(t, "claim-2", doc.Claims[1].ID)

	doc, err = DecodeDocument([]byte("- claim_text: A.\n- claim_text: B.\n"), FormatYAML)
	require.NoError(t, err)
	require.Len(t, doc.Claims, 2)
	assert.Equal(t, "A.", doc.Claims[0].Text)
}

func TestDecodeDocument_Invalid(t *testing.T) {
	_, err := DecodeDocument([]byte(`{"claims": [`), FormatJSON)
	assert.Error(t, err)

	_, err = DecodeDocument([]byte("claims: [\n"), FormatYAML)
	assert.Error(t, err)
}

func TestLoadDocument(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "doc.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(`
subject: OpenAI
pipeline_config:
  mode: demo
  ablation:
    disable_nli: true
claims:
  - claim_text: OpenAI was founded in 2015.
    subject_entity:
      entity_id: Q21708200
      resolution_status: RESOLVED
`), 0644))

	doc, err := LoadDocument(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, "OpenAI", doc.Subject)
	require.NotNil(t, doc.Config)
	assert.Equal(t, "demo", doc.Config.Mode)
	assert.True(t, doc.Config.Ablation.DisableNLI)
	require.Len(t, doc.Claims, 1)
	assert.True(t, doc.Claims[0].SubjectEntity.IsStrictlyResolved())

	_, err = LoadDocument(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}
