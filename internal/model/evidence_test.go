package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestAlignment_MissingFieldsFailClosed(t *testing.T) {
	var a Alignment
	require.NoError(t, json.Unmarshal([]byte(`{"subject_match": true, "object_match": null}`), &a))

	assert.Equal(t, MatchTrue, a.Subject())
	assert.Equal(t, MatchUnknown, a.Predicate())
	assert.Equal(t, MatchUnknown, a.Object())
	assert.Equal(t, MatchUnknown, a.Temporal())
}

func TestScalar_AcceptsNumbersAndStrings(t *testing.T) {
	tests := []struct {
		input    string
		expected Scalar
		desc     string
	}{
		{`{"value": "Q62"}`, "Q62", "QID string"},
		{`{"value": 2015}`, "2015", "bare year"},
		{`{"value": 3.5}`, "3.5", "decimal"},
		{`{"value": null}`, "", "null"},
		{`{"value": "+1643-01-04T00:00:00Z"}`, "+1643-01-04T00:00:00Z", "ISO time"},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			var f WikidataFact
			require.NoError(t, json.Unmarshal([]byte(tt.input), &f))
			assert.Equal(t, tt.expected, f.Value)
		})
	}
}

func TestEvidenceID_StableUUID5(t *testing.T) {
	a := WikidataFact{EntityID: "Q95", Property: "P571", Value: "1998"}
	b := WikidataFact{EntityID: "Q95", Property: "P571", Value: "1998"}
	c := WikidataFact{EntityID: "Q95", Property: "P571", Value: "1999"}

	assert.Equal(t, a.ID(), b.ID())
	assert.NotEqual(t, a.ID(), c.ID())
	assert.Len(t, a.ID(), 36)

	c.EvidenceID = "explicit"
	assert.Equal(t, "explicit", c.ID())
}

func TestEvidenceSet_AllOrdersByTier(t *testing.T) {
	set := EvidenceSet{
		Grokipedia:      []GrokipediaPassage{{EvidenceID: "g"}},
		Wikipedia:       []WikipediaPassage{{EvidenceID: "w"}},
		Wikidata:        []WikidataFact{{EvidenceID: "d"}},
		PrimaryDocument: []PrimaryDocument{{EvidenceID: "p"}},
	}

	var ids []string
	var tiers []AuthorityTier
	for _, item := range set.All() {
		ids = append(ids, item.ID())
		tiers = append(tiers, item.Source().Tier())
	}

	assert.Equal(t, []string{"p", "d", "w", "g"}, ids)
	assert.Equal(t, []AuthorityTier{TierPrimary, TierStructured, TierTextual, TierNarrative}, tiers)
	assert.True(t, set.HasRetrieved())
	assert.False(t, EvidenceSet{Grokipedia: set.Grokipedia}.HasRetrieved())
}

func TestWikipediaPassage_PremisePrefersSentence(t *testing.T) {
	p := WikipediaPassage{Snippet: "snippet", Sentence: "sentence"}
	assert.Equal(t, "sentence", p.Premise())

	p.Sentence = ""
	assert.Equal(t, "snippet", p.Premise())
}

func TestClaim_DecodesYAML(t *testing.T) {
	doc := `
claim_id: c1
claim_text: Google was founded in 1998.
predicate: founded
object: "1998"
claim_type: TEMPORAL
subject_entity:
  entity_id: Q95
  resolution_status: RESOLVED_COREF
evidence:
  wikidata:
    - property: P571
      value: 1998
      alignment:
        subject_match: true
        predicate_match: true
        temporal_match: true
`
	var c Claim
	require.NoError(t, yaml.Unmarshal([]byte(doc), &c))

	assert.Equal(t, ClaimTypeTemporal, c.Type)
	assert.True(t, c.IsAsserted())
	assert.True(t, c.SubjectEntity.IsResolved())
	assert.False(t, c.SubjectEntity.IsStrictlyResolved())
	require.Len(t, c.Evidence.Wikidata, 1)
	assert.Equal(t, Scalar("1998"), c.Evidence.Wikidata[0].Value)
	assert.Equal(t, MatchTrue, c.Evidence.Wikidata[0].Alignment().Temporal())
	assert.Equal(t, MatchUnknown, c.Evidence.Wikidata[0].Alignment().Object())
}

func TestParseYear(t *testing.T) {
	year, ok := ParseYear("+1643-01-04T00:00:00Z")
	assert.True(t, ok)
	assert.Equal(t, 1643, year)

	_, ok = ParseYear("1643")
	assert.False(t, ok)

	_, ok = ParseYear("+16")
	assert.False(t, ok)
}

func TestHallucinationType_Severity(t *testing.T) {
	critical := []HallucinationType{
		HallucinationTextualContradiction,
		HallucinationEntityRoleConflict,
		HallucinationTemporalFabrication,
		HallucinationCourtMisattribution,
		HallucinationImpossibleDosage,
		HallucinationScopeOvergeneralization,
	}
	for _, ht := range critical {
		assert.Equal(t, SeverityCritical, ht.Severity(), string(ht))
	}

	assert.Equal(t, SeverityNonCritical, HallucinationUnsupportedSpecificity.Severity())
	assert.Equal(t, SeverityNonCritical, HallucinationAuthorityBleed.Severity())
}
