package verify

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ppiankov/epistemia/internal/kg"
	"github.com/ppiankov/epistemia/internal/model"
)

func TestAssertedFacets(t *testing.T) {
	tests := []struct {
		text     string
		expected []model.Facet
		desc     string
	}{
		{"OpenAI was founded in 2015.", []model.Facet{model.FacetInception}, "inception needs a year"},
		{"OpenAI was founded by Sam Altman.", nil, "founding without a year"},
		{"Acme is headquartered in Ohio.", []model.Facet{model.FacetHQ}, "headquarters"},
		{"Einstein came from Germany.", []model.Facet{model.FacetNationality}, "from as a word"},
		{"The fromage was good.", nil, "from inside a word"},
		{"Mozilla is a not-for-profit subsidiary.", []model.Facet{model.FacetOwnership, model.FacetNonprofit}, "ownership and nonprofit"},
		{"The iPhone shipped in 2007.", []model.Facet{model.FacetTemporalGeneric}, "generic year"},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			assert.Equal(t, tt.expected, assertedFacets(&model.Claim{Text: tt.text}))
		})
	}
}

func TestAdjustForFacets(t *testing.T) {
	facets := []model.Facet{model.FacetHQ, model.FacetNonprofit}
	supported := decision{verdict: model.VerdictSupported, confidence: 0.85, reasoning: "Verified."}
	structured := &assessment{bestItem: model.WikidataFact{Property: "P159"}, supportedProps: kg.NewPropertySet("P159")}
	textual := &assessment{bestItem: model.WikipediaPassage{}, supportedProps: kg.NewPropertySet()}
	mixed := &assessment{bestItem: model.WikipediaPassage{}, supportedProps: kg.NewPropertySet("P159")}

	tests := []struct {
		base       decision
		status     map[model.Facet]model.FacetState
		a          *assessment
		verdict    model.Verdict
		confidence float64
		desc       string
	}{
		{
			base:       supported,
			status:     map[model.Facet]model.FacetState{model.FacetHQ: model.FacetSupported, model.FacetNonprofit: model.FacetSupported},
			a:          structured,
			verdict:    model.VerdictSupported,
			confidence: 0.85,
			desc:       "all confirmed",
		},
		{
			base:       supported,
			status:     map[model.Facet]model.FacetState{model.FacetHQ: model.FacetSupported, model.FacetNonprofit: model.FacetUnknown},
			a:          structured,
			verdict:    model.VerdictPartiallySupported,
			confidence: 0.425,
			desc:       "half confirmed",
		},
		{
			base:       supported,
			status:     map[model.Facet]model.FacetState{model.FacetHQ: model.FacetUnknown, model.FacetNonprofit: model.FacetUnknown},
			a:          structured,
			verdict:    model.VerdictUncertain,
			confidence: 0.5,
			desc:       "none confirmed",
		},
		{
			base:       supported,
			status:     map[model.Facet]model.FacetState{model.FacetHQ: model.FacetUnknown, model.FacetNonprofit: model.FacetUnknown},
			a:          textual,
			verdict:    model.VerdictSupported,
			confidence: 0.85,
			desc:       "text-only support judges the whole claim",
		},
		{
			base:       supported,
			status:     map[model.Facet]model.FacetState{model.FacetHQ: model.FacetSupported, model.FacetNonprofit: model.FacetUnknown},
			a:          mixed,
			verdict:    model.VerdictPartiallySupported,
			confidence: 0.425,
			desc:       "best textual item does not hide an unconfirmed facet",
		},
		{
			base:       decision{verdict: model.VerdictUncertain, confidence: 0.5},
			status:     map[model.Facet]model.FacetState{model.FacetHQ: model.FacetContradicted, model.FacetNonprofit: model.FacetUnknown},
			a:          &assessment{bestRefute: 0.9},
			verdict:    model.VerdictRefuted,
			confidence: 0.9,
			desc:       "contradicted facet refutes",
		},
		{
			base:       decision{verdict: model.VerdictInsufficient},
			status:     map[model.Facet]model.FacetState{model.FacetHQ: model.FacetSupported, model.FacetNonprofit: model.FacetUnknown},
			a:          structured,
			verdict:    model.VerdictInsufficient,
			confidence: 0,
			desc:       "never upgrades",
		},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			d := adjustForFacets(tt.base, facets, tt.status, tt.a)
			assert.Equal(t, tt.verdict, d.verdict)
			assert.InDelta(t, tt.confidence, d.confidence, 1e-9)
		})
	}
}

func TestResolve_Precedence(t *testing.T) {
	critical := model.NewFlag(model.HallucinationTemporalFabrication, 0.9, "Temporal Mismatch")
	minor := model.NewFlag(model.HallucinationUnsupportedSpecificity, 0.5, "figure")
	passage := model.WikipediaPassage{EvidenceID: "wp", Sentence: "text", Score: 0.9}

	tests := []struct {
		a       *assessment
		verdict model.Verdict
		desc    string
	}{
		{
			a:       &assessment{flags: []model.HallucinationFlag{minor, critical}, directSupport: true, bestSupport: 0.9, bestItem: passage},
			verdict: model.VerdictRefuted,
			desc:    "critical flag beats support",
		},
		{
			a:       &assessment{flags: []model.HallucinationFlag{minor}, contradiction: true, refuting: []string{"wp"}, bestRefute: 0.8},
			verdict: model.VerdictRefuted,
			desc:    "contradiction beats non-critical flag",
		},
		{
			a:       &assessment{flags: []model.HallucinationFlag{minor}, directSupport: true, bestSupport: 0.9, bestItem: passage},
			verdict: model.VerdictUncertain,
			desc:    "non-critical flag beats support",
		},
		{
			a:       &assessment{directSupport: true, bestSupport: 0.9, bestItem: passage},
			verdict: model.VerdictSupported,
			desc:    "support",
		},
		{
			a:       &assessment{},
			verdict: model.VerdictInsufficient,
			desc:    "nothing",
		},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			assert.Equal(t, tt.verdict, resolve(&model.Claim{}, tt.a).verdict)
		})
	}
}

func TestContradictionRule_Confidence(t *testing.T) {
	d := contradictionRule(nil, &assessment{contradiction: true, refuting: []string{"x"}, bestRefute: 0.5})
	assert.Equal(t, 0.7, d.confidence)
	assert.Equal(t, "Contradicted by textual evidence.", d.reasoning)

	d = contradictionRule(nil, &assessment{contradiction: true, refuting: []string{"x"}, bestRefute: 0.99})
	assert.Equal(t, 0.95, d.confidence)
}
