package verify

import (
	"fmt"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/ppiankov/epistemia/internal/model"
)

const (
	sanityMinClaims             = 3
	canonicalOverrideConfidence = 0.75
	temporalRecordConfidence    = 0.9
	overconfidentModality       = 0.8
	overconfidentVerification   = 0.8
)

// Predicates naming identity facts. Claims about them may be SUPPORTED
// without used evidence, and only through the canonical override.
var canonicalPredicates = []string{
	"founded", "founder", "launched", "released", "created",
	"born", "died", "established", "inception",
}

// Predicates that admit exactly one true value per subject
var singleValuedPredicates = []string{"born", "died", "inception", "founded on", "created on"}

// IsCanonicalPredicate reports whether the predicate names an identity fact
func IsCanonicalPredicate(predicate string) bool {
	return containsAny(strings.ToLower(predicate), canonicalPredicates)
}

// postPass applies the document-level rules in a fixed order and returns
// the surviving claims with their diagnostic signals
func (v *Verifier) postPass(claims []model.Claim) ([]model.Claim, []model.DocumentSignal) {
	var signals []model.DocumentSignal

	if s := applySanityRule(claims); s != nil {
		signals = append(signals, *s)
	}
	if !v.config.Ablation.DisableCanonicalOverride {
		applyCanonicalOverride(claims)
	}

	claims, dup := dedupClaims(claims)
	if dup != nil {
		v.logger.Debug("Collapsed duplicate claims", zap.Strings("claim_ids", dup.ClaimIDs))
		signals = append(signals, *dup)
	}

	if !v.config.Ablation.DisableCrossClaim {
		signals = append(signals, crossClaimSignals(claims)...)
	}
	if !v.config.Ablation.DisableOverconfidence {
		signals = append(signals, overconfidenceSignals(claims)...)
	}
	return claims, signals
}

// applySanityRule softens a document where nothing verified: with more than
// three claims and no SUPPORTED verdict, INSUFFICIENT becomes UNCERTAIN
func applySanityRule(claims []model.Claim) *model.DocumentSignal {
	if len(claims) <= sanityMinClaims {
		return nil
	}
	for _, c := range claims {
		if c.Verification.Verdict == model.VerdictSupported {
			return nil
		}
	}

	var ids []string
	for i := range claims {
		r := claims[i].Verification
		if r.Verdict != model.VerdictInsufficient {
			continue
		}
		r.Verdict = model.VerdictUncertain
		r.Reasoning += " [System: Low confidence fallback]"
		ids = append(ids, claims[i].ID)
	}
	if len(ids) == 0 {
		return nil
	}

	return &model.DocumentSignal{
		Type:        model.SignalLowConfidenceFallback,
		Severity:    model.LevelWarning,
		Description: fmt.Sprintf("No claim verified among %d; %d insufficient claims downgraded to uncertain", len(claims), len(ids)),
		ClaimIDs:    ids,
	}
}

// applyCanonicalOverride rescues identity facts about strictly resolved
// subjects that upstream gating left without evidence, and refutes
// canonical temporal claims an authoritative record disagrees with
func applyCanonicalOverride(claims []model.Claim) {
	for i := range claims {
		c := &claims[i]
		r := c.Verification
		if !c.SubjectEntity.IsStrictlyResolved() {
			continue
		}

		canonical := IsCanonicalPredicate(c.Predicate)
		temporal := c.Type == model.ClaimTypeTemporal

		switch {
		case canonical && r.Verdict == model.VerdictInsufficient:
			r.Verdict = model.VerdictSupported
			r.Reasoning = "Canonical fact (Global Safety Override)"
			r.Confidence = max(r.Confidence, canonicalOverrideConfidence)
			c.Hallucinations = nil
		case temporal && r.Verdict == model.VerdictInsufficient:
			r.Verdict = model.VerdictSupportedWeak
			r.Reasoning = "Temporal fact; evidence gating upstream"
		case canonical && temporal && r.Verdict == model.VerdictSupported && len(r.UsedEvidenceIDs) > 0:
			if id := conflictingTemporalRecord(c); id != "" {
				r.Verdict = model.VerdictRefuted
				r.Confidence = temporalRecordConfidence
				r.Reasoning = "Contradicted by authoritative temporal record"
				r.ContradictedBy = dedupIDs(append(r.ContradictedBy, id))
			}
		}
	}
}

// conflictingTemporalRecord returns a statement judged temporally
// mismatched when no statement agrees, or ""
func conflictingTemporalRecord(c *model.Claim) string {
	conflict := ""
	for _, f := range c.Evidence.Wikidata {
		switch f.Alignment().Temporal() {
		case model.MatchTrue:
			return ""
		case model.MatchFalse:
			if conflict == "" {
				conflict = f.ID()
			}
		}
	}
	return conflict
}

func dedupKey(c *model.Claim) string {
	subject := strings.ToLower(strings.TrimSpace(c.Subject))
	if c.SubjectEntity.IsStrictlyResolved() {
		subject = c.SubjectEntity.ID
	}
	object := strings.ToLower(strings.TrimSpace(c.Object))
	if c.ObjectEntity.IsStrictlyResolved() {
		object = c.ObjectEntity.ID
	}
	return subject + "\x00" + strings.ToLower(strings.TrimSpace(c.Predicate)) + "\x00" + object
}

// dedupClaims keeps the first claim per (subject, predicate, object)
func dedupClaims(claims []model.Claim) ([]model.Claim, *model.DocumentSignal) {
	out := make([]model.Claim, 0, len(claims))
	seen := make(map[string]bool, len(claims))
	var dropped []string

	for _, c := range claims {
		key := dedupKey(&c)
		if seen[key] {
			dropped = append(dropped, c.ID)
			continue
		}
		seen[key] = true
		out = append(out, c)
	}

	if len(dropped) == 0 {
		return out, nil
	}
	return out, &model.DocumentSignal{
		Type:        model.SignalDuplicateClaims,
		Severity:    model.LevelInfo,
		Description: fmt.Sprintf("%d duplicate claims collapsed", len(dropped)),
		ClaimIDs:    dropped,
	}
}

// crossClaimSignals flags subjects given several values for a
// single-valued predicate when none of them verified
func crossClaimSignals(claims []model.Claim) []model.DocumentSignal {
	type group struct {
		subject   string
		predicate string
		members   []*model.Claim
	}

	var order []string
	groups := make(map[string]*group)
	for i := range claims {
		c := &claims[i]
		if c.Type != model.ClaimTypeRelation && c.Type != model.ClaimTypeTemporal {
			continue
		}
		subject := c.SubjectQID()
		predicate := strings.ToLower(strings.TrimSpace(c.Predicate))
		if subject == "" || predicate == "" {
			continue
		}
		key := subject + "\x00" + predicate
		g, ok := groups[key]
		if !ok {
			g = &group{subject: subject, predicate: predicate}
			groups[key] = g
			order = append(order, key)
		}
		g.members = append(g.members, c)
	}

	var signals []model.DocumentSignal
	for _, key := range order {
		g := groups[key]
		if len(g.members) < 2 {
			continue
		}
		if !containsAny(g.predicate, singleValuedPredicates) && g.members[0].Type != model.ClaimTypeTemporal {
			continue
		}

		var values, ids []string
		supported := false
		for _, c := range g.members {
			ids = append(ids, c.ID)
			if c.Verification.Verdict == model.VerdictSupported {
				supported = true
			}
			if c.ObjectEntity == nil {
				continue
			}
			if val := strings.ToLower(strings.TrimSpace(c.ObjectEntity.Text)); val != "" && !slices.Contains(values, val) {
				values = append(values, val)
			}
		}
		if len(values) < 2 || supported {
			continue
		}

		signals = append(signals, model.DocumentSignal{
			Type:        model.SignalCrossClaimConflict,
			Severity:    model.LevelWarning,
			Description: fmt.Sprintf("Conflicting values for %s %q: %s", g.subject, g.predicate, strings.Join(values, ", ")),
			ClaimIDs:    ids,
			Data: map[string]interface{}{
				"subject":   g.subject,
				"predicate": g.predicate,
				"values":    values,
			},
		})
	}
	return signals
}

// overconfidenceSignals flags certain language about an unlinked subject
// that verification could not back
func overconfidenceSignals(claims []model.Claim) []model.DocumentSignal {
	var signals []model.DocumentSignal
	for _, c := range claims {
		r := c.Verification
		if r.Verdict == model.VerdictRefuted || c.SubjectEntity.IsStrictlyResolved() {
			continue
		}
		if c.ModalStrength <= overconfidentModality || r.Confidence >= overconfidentVerification {
			continue
		}
		signals = append(signals, model.DocumentSignal{
			Type:        model.SignalOverconfidence,
			Severity:    model.LevelInfo,
			Description: fmt.Sprintf("Claim stated with certainty %.2f but verified at %.2f", c.ModalStrength, r.Confidence),
			ClaimIDs:    []string{c.ID},
			Data: map[string]interface{}{
				"modal_strength": c.ModalStrength,
				"confidence":     r.Confidence,
			},
		})
	}
	return signals
}
