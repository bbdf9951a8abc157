package verify

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/epistemia/internal/model"
)

func verified(id string, verdict model.Verdict, confidence float64) model.Claim {
	return model.Claim{
		ID:      id,
		Subject: id,
		Verification: &model.VerificationResult{
			Verdict:         verdict,
			Confidence:      confidence,
			UsedEvidenceIDs: []string{},
			ContradictedBy:  []string{},
		},
	}
}

func TestApplySanityRule(t *testing.T) {
	tests := []struct {
		verdicts []model.Verdict
		fires    bool
		desc     string
	}{
		{
			verdicts: []model.Verdict{model.VerdictInsufficient, model.VerdictInsufficient, model.VerdictRefuted, model.VerdictInsufficient},
			fires:    true,
			desc:     "four claims none supported",
		},
		{
			verdicts: []model.Verdict{model.VerdictInsufficient, model.VerdictInsufficient, model.VerdictInsufficient},
			fires:    false,
			desc:     "three claims is not enough",
		},
		{
			verdicts: []model.Verdict{model.VerdictInsufficient, model.VerdictSupported, model.VerdictInsufficient, model.VerdictInsufficient},
			fires:    false,
			desc:     "one supported claim",
		},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			var claims []model.Claim
			for i, v := range tt.verdicts {
				claims = append(claims, verified(string(rune('a'+i)), v, 0))
			}

			signal := applySanityRule(claims)

			if !tt.fires {
				assert.Nil(t, signal)
				for i, v := range tt.verdicts {
					assert.Equal(t, v, claims[i].Verification.Verdict)
				}
				return
			}
			require.NotNil(t, signal)
			assert.Equal(t, model.SignalLowConfidenceFallback, signal.Type)
			for i, v := range tt.verdicts {
				if v == model.VerdictInsufficient {
					assert.Equal(t, model.VerdictUncertain, claims[i].Verification.Verdict)
					assert.Contains(t, claims[i].Verification.Reasoning, "[System: Low confidence fallback]")
					assert.Contains(t, signal.ClaimIDs, claims[i].ID)
				} else {
					assert.Equal(t, v, claims[i].Verification.Verdict)
				}
			}
		})
	}
}

func TestApplyCanonicalOverride(t *testing.T) {
	resolved := &model.Entity{ID: "Q95", ResolutionStatus: model.ResolutionResolved}
	coref := &model.Entity{ID: "Q95", ResolutionStatus: model.ResolutionResolvedCoref}

	tests := []struct {
		claim      model.Claim
		verdict    model.Verdict
		reasoning  string
		confidence float64
		desc       string
	}{
		{
			claim:      model.Claim{Predicate: "founded", Type: model.ClaimTypeRelation, SubjectEntity: resolved},
			verdict:    model.VerdictSupported,
			reasoning:  "Canonical fact (Global Safety Override)",
			confidence: 0.75,
			desc:       "canonical insufficient is supported",
		},
		{
			claim:      model.Claim{Predicate: "acquired", Type: model.ClaimTypeTemporal, SubjectEntity: resolved},
			verdict:    model.VerdictSupportedWeak,
			reasoning:  "Temporal fact; evidence gating upstream",
			confidence: 0,
			desc:       "temporal insufficient is weakly supported",
		},
		{
			claim:      model.Claim{Predicate: "founded", Type: model.ClaimTypeRelation, SubjectEntity: coref},
			verdict:    model.VerdictInsufficient,
			reasoning:  "No relevant evidence found.",
			confidence: 0,
			desc:       "coreference is not strict resolution",
		},
		{
			claim:      model.Claim{Predicate: "acquired", Type: model.ClaimTypeRelation, SubjectEntity: resolved},
			verdict:    model.VerdictInsufficient,
			reasoning:  "No relevant evidence found.",
			confidence: 0,
			desc:       "non-canonical relation untouched",
		},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			c := tt.claim
			c.Verification = &model.VerificationResult{
				Verdict:         model.VerdictInsufficient,
				Reasoning:       "No relevant evidence found.",
				UsedEvidenceIDs: []string{},
			}
			claims := []model.Claim{c}

			applyCanonicalOverride(claims)

			assert.Equal(t, tt.verdict, claims[0].Verification.Verdict)
			assert.Equal(t, tt.reasoning, claims[0].Verification.Reasoning)
			assert.Equal(t, tt.confidence, claims[0].Verification.Confidence)
			assert.NoError(t, CheckInvariants(claims))
		})
	}
}

func TestApplyCanonicalOverride_TemporalRecordConflict(t *testing.T) {
	build := func(temporal ...*bool) model.Claim {
		c := model.Claim{
			ID:            "c1",
			Predicate:     "born",
			Type:          model.ClaimTypeTemporal,
			SubjectEntity: &model.Entity{ID: "Q935", ResolutionStatus: model.ResolutionResolved},
			Verification: &model.VerificationResult{
				Verdict:         model.VerdictSupported,
				Confidence:      0.85,
				UsedEvidenceIDs: []string{"wp-1"},
				ContradictedBy:  []string{},
			},
		}
		for i, tm := range temporal {
			c.Evidence.Wikidata = append(c.Evidence.Wikidata, model.WikidataFact{
				EvidenceID: string(rune('a' + i)),
				Property:   "P569",
				Align:      alignment(yes, yes, nil, tm),
			})
		}
		return c
	}

	claims := []model.Claim{build(no)}
	applyCanonicalOverride(claims)
	assert.Equal(t, model.VerdictRefuted, claims[0].Verification.Verdict)
	assert.Equal(t, 0.9, claims[0].Verification.Confidence)
	assert.Equal(t, []string{"a"}, claims[0].Verification.ContradictedBy)
	assert.NoError(t, CheckInvariants(claims))

	// One agreeing record, e.g. the other calendar, keeps the claim
	claims = []model.Claim{build(no, yes)}
	applyCanonicalOverride(claims)
	assert.Equal(t, model.VerdictSupported, claims[0].Verification.Verdict)
}

func TestDedupClaims(t *testing.T) {
	linked := func(id, subject, object string) model.Claim {
		c := verified(id, model.VerdictSupported, 0.9)
		c.Subject = subject
		c.Predicate = "Founded"
		c.Object = object
		c.SubjectEntity = &model.Entity{ID: "Q95", ResolutionStatus: model.ResolutionResolved}
		return c
	}

	claims := []model.Claim{
		linked("c1", "Google", "1998"),
		linked("c2", "Google LLC", "1998"),
		linked("c3", "Google", "1999"),
	}
	claims[1].Predicate = " founded "

	out, signal := dedupClaims(claims)

	require.Len(t, out, 2)
	assert.Equal(t, "c1", out[0].ID)
	assert.Equal(t, "c3", out[1].ID)
	require.NotNil(t, signal)
	assert.Equal(t, model.SignalDuplicateClaims, signal.Type)
	assert.Equal(t, []string{"c2"}, signal.ClaimIDs)

	_, signal = dedupClaims(out)
	assert.Nil(t, signal)
}

func TestCrossClaimSignals(t *testing.T) {
	claim := func(id, object string, typ model.ClaimType, verdict model.Verdict) model.Claim {
		c := verified(id, verdict, 0.5)
		c.Type = typ
		c.Predicate = "was born in"
		c.SubjectEntity = &model.Entity{ID: "Q937", ResolutionStatus: model.ResolutionResolved}
		c.ObjectEntity = &model.Entity{Text: object}
		return c
	}

	tests := []struct {
		claims []model.Claim
		fires  bool
		desc   string
	}{
		{
			claims: []model.Claim{
				claim("c1", "Ulm", model.ClaimTypeRelation, model.VerdictUncertain),
				claim("c2", "Munich", model.ClaimTypeRelation, model.VerdictInsufficient),
			},
			fires: true,
			desc:  "conflicting birthplaces",
		},
		{
			claims: []model.Claim{
				claim("c1", "Ulm", model.ClaimTypeRelation, model.VerdictSupported),
				claim("c2", "Munich", model.ClaimTypeRelation, model.VerdictInsufficient),
			},
			fires: false,
			desc:  "one value verified",
		},
		{
			claims: []model.Claim{
				claim("c1", "Ulm", model.ClaimTypeRelation, model.VerdictUncertain),
				claim("c2", "ulm", model.ClaimTypeRelation, model.VerdictUncertain),
			},
			fires: false,
			desc:  "same value in different case",
		},
		{
			claims: []model.Claim{
				claim("c1", "Ulm", model.ClaimTypeFactualAttribute, model.VerdictUncertain),
				claim("c2", "Munich", model.ClaimTypeFactualAttribute, model.VerdictUncertain),
			},
			fires: false,
			desc:  "attribute claims are not grouped",
		},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			signals := crossClaimSignals(tt.claims)
			if !tt.fires {
				assert.Empty(t, signals)
				return
			}
			require.Len(t, signals, 1)
			assert.Equal(t, model.SignalCrossClaimConflict, signals[0].Type)
			assert.Equal(t, []string{"c1", "c2"}, signals[0].ClaimIDs)
			assert.Equal(t, []string{"ulm", "munich"}, signals[0].Data["values"])
		})
	}
}

func TestOverconfidenceSignals(t *testing.T) {
	unlinked := verified("c1", model.VerdictUncertain, 0.5)
	unlinked.ModalStrength = 0.95

	linked := verified("c2", model.VerdictUncertain, 0.5)
	linked.ModalStrength = 0.95
	linked.SubjectEntity = &model.Entity{ID: "Q1", ResolutionStatus: model.ResolutionResolved}

	hedged := verified("c3", model.VerdictInsufficient, 0)
	hedged.ModalStrength = 0.4

	refuted := verified("c4", model.VerdictRefuted, 0.9)
	refuted.ModalStrength = 0.95

	signals := overconfidenceSignals([]model.Claim{unlinked, linked, hedged, refuted})

	require.Len(t, signals, 1)
	assert.Equal(t, model.SignalOverconfidence, signals[0].Type)
	assert.Equal(t, []string{"c1"}, signals[0].ClaimIDs)
}

func TestPostPass_AblationSwitches(t *testing.T) {
	build := func() []model.Claim {
		c := verified("c1", model.VerdictInsufficient, 0)
		c.Predicate = "founded"
		c.SubjectEntity = &model.Entity{ID: "Q95", ResolutionStatus: model.ResolutionResolved}
		c.ModalStrength = 0.95

		o := verified("c2", model.VerdictUncertain, 0.5)
		o.ModalStrength = 0.95
		return []model.Claim{c, o}
	}

	v := NewVerifier(model.DefaultPipelineConfig(), nil, nil, nil)
	claims, signals := v.postPass(build())
	assert.Equal(t, model.VerdictSupported, claims[0].Verification.Verdict)
	assert.Len(t, signals, 1)

	cfg := model.DefaultPipelineConfig()
	cfg.Ablation.DisableCanonicalOverride = true
	cfg.Ablation.DisableOverconfidence = true
	v = NewVerifier(cfg, nil, nil, nil)
	claims, signals = v.postPass(build())
	assert.Equal(t, model.VerdictInsufficient, claims[0].Verification.Verdict)
	assert.Empty(t, signals)
}

func TestCheckInvariants(t *testing.T) {
	flag := model.NewFlag(model.HallucinationUnsupportedSpecificity, 0.5, "figure")

	tests := []struct {
		mutate    func(c *model.Claim)
		invariant string
		desc      string
	}{
		{
			mutate:    func(c *model.Claim) {},
			invariant: "",
			desc:      "valid supported claim",
		},
		{
			mutate:    func(c *model.Claim) { c.Verification.Confidence = 1.2 },
			invariant: "confidence_range",
			desc:      "confidence above one",
		},
		{
			mutate:    func(c *model.Claim) { c.Hallucinations = []model.HallucinationFlag{flag} },
			invariant: "supported_without_hallucinations",
			desc:      "flag on supported claim",
		},
		{
			mutate:    func(c *model.Claim) { c.Verification.UsedEvidenceIDs = []string{} },
			invariant: "supported_with_evidence",
			desc:      "supported without evidence",
		},
		{
			mutate: func(c *model.Claim) {
				c.Verification.UsedEvidenceIDs = []string{}
				c.Predicate = "founded"
			},
			invariant: "",
			desc:      "canonical predicate may omit evidence",
		},
		{
			mutate:    func(c *model.Claim) { c.Verification.Confidence = 0 },
			invariant: "supported_confidence",
			desc:      "supported at zero confidence",
		},
		{
			mutate:    func(c *model.Claim) { c.Verification.Verdict = model.VerdictRefuted },
			invariant: "refuted_justified",
			desc:      "refuted while citing support",
		},
		{
			mutate: func(c *model.Claim) {
				c.Verification.Verdict = model.VerdictRefuted
				c.Verification.ContradictedBy = []string{"wd-1"}
			},
			invariant: "",
			desc:      "refuted with a contradiction",
		},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			c := verified("c1", model.VerdictSupported, 0.85)
			c.Predicate = "headquartered in"
			c.Verification.UsedEvidenceIDs = []string{"wd-1"}
			tt.mutate(&c)

			err := CheckInvariants([]model.Claim{c})
			if tt.invariant == "" {
				assert.NoError(t, err)
				return
			}
			var ie *InvariantError
			require.True(t, errors.As(err, &ie))
			assert.Equal(t, tt.invariant, ie.Invariant)
			assert.Equal(t, "c1", ie.ClaimID)
		})
	}
}

func TestVerify_SanityRuleAcrossDocument(t *testing.T) {
	var claims []model.Claim
	for i := 0; i < 4; i++ {
		c := wikipediaClaim(0)
		c.ID = string(rune('a' + i))
		c.Predicate = string(rune('a'+i)) + " verb"
		c.Evidence = model.EvidenceSet{}
		claims = append(claims, c)
	}

	out, signals, err := NewVerifier(model.DefaultPipelineConfig(), nil, nil, nil).Verify(context.Background(), claims)
	require.NoError(t, err)

	require.Len(t, out, 4)
	for _, c := range out {
		assert.Equal(t, model.VerdictUncertain, c.Verification.Verdict)
		assert.Equal(t, "No relevant evidence found. [System: Low confidence fallback]", c.Verification.Reasoning)
	}
	require.NotEmpty(t, signals)
	assert.Equal(t, model.SignalLowConfidenceFallback, signals[0].Type)
}
