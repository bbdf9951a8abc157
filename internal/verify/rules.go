package verify

import (
	"fmt"
	"math"

	"github.com/ppiankov/epistemia/internal/align"
	"github.com/ppiankov/epistemia/internal/kg"
	"github.com/ppiankov/epistemia/internal/model"
)

// Verdict caps by the source of the best supporting item
const (
	maxSupportConfidence     = 0.99
	primaryConfidenceCap     = 0.95
	structuredConfidenceCap  = 0.85
	minRefutationConfidence  = 0.7
	maxRefutationConfidence  = 0.95
	authorityBleedConfidence = 0.9
	uncertainConfidence      = 0.5
)

// Weak corroboration upgrade thresholds
const (
	weakCorroborationMin   = 2
	weakCorroborationFloor = 0.68
)

// assessment is everything the evidence scan learned about one claim
type assessment struct {
	evidence model.EvidenceSet

	supporting     []string
	refuting       []string
	supportedProps kg.PropertySet
	refutedProps   kg.PropertySet
	contradictions []model.AuthoritativeContradiction

	directSupport bool
	contradiction bool
	bestSupport   float64
	bestRefute    float64
	bestItem      model.EvidenceItem
	locked        bool // Primary evidence holds the best slot

	weakCount int
	weakTotal float64
	eligible  int

	textualFlags []model.HallucinationFlag
	flags        []model.HallucinationFlag
}

func newAssessment(c *model.Claim) *assessment {
	return &assessment{
		evidence:       c.Evidence,
		supportedProps: kg.NewPropertySet(),
		refutedProps:   kg.NewPropertySet(),
	}
}

func (a *assessment) addSupport(item model.EvidenceItem, score float64) {
	a.supporting = append(a.supporting, item.ID())
	a.directSupport = true
	if f, ok := item.(model.WikidataFact); ok {
		a.supportedProps.Add(f.Property)
	}
	if a.locked {
		return
	}
	if score > a.bestSupport {
		a.bestSupport = score
		a.bestItem = item
	}
}

// lockSupport records primary support; lower tiers cannot displace it
func (a *assessment) lockSupport(item model.EvidenceItem, score float64) {
	a.supporting = append(a.supporting, item.ID())
	a.directSupport = true
	a.bestSupport = score
	a.bestItem = item
	a.locked = true
}

func (a *assessment) addRefutation(item model.EvidenceItem, score float64) {
	a.refuting = append(a.refuting, item.ID())
	a.contradiction = true
	a.bestRefute = math.Max(a.bestRefute, score)
	if f, ok := item.(model.WikidataFact); ok {
		a.refutedProps.Add(f.Property)
	}
}

func (a *assessment) addContradiction(f model.WikidataFact, c model.AuthoritativeContradiction) {
	a.addRefutation(f, c.Confidence)
	a.contradictions = append(a.contradictions, c)
}

// decision is a verdict before facet adjustment and rounding
type decision struct {
	verdict     model.Verdict
	confidence  float64
	reasoning   string
	dropSupport bool
}

// rule returns a decision when it applies to the assessed claim
type rule func(c *model.Claim, a *assessment) *decision

// precedence is evaluated in order and the first applicable rule wins
var precedence = []rule{
	criticalHallucinationRule,
	contradictionRule,
	nonCriticalHallucinationRule,
	directSupportRule,
	insufficientRule,
}

func resolve(c *model.Claim, a *assessment) decision {
	for _, r := range precedence {
		if d := r(c, a); d != nil {
			return *d
		}
	}
	// insufficientRule always applies
	return decision{verdict: model.VerdictInsufficient}
}

// strongest returns the highest-scoring flag of the given severity, first wins ties
func strongest(flags []model.HallucinationFlag, severity model.Severity) *model.HallucinationFlag {
	var best *model.HallucinationFlag
	for i := range flags {
		if flags[i].Severity != severity {
			continue
		}
		if best == nil || flags[i].Score > best.Score {
			best = &flags[i]
		}
	}
	return best
}

func criticalHallucinationRule(_ *model.Claim, a *assessment) *decision {
	flag := strongest(a.flags, model.SeverityCritical)
	if flag == nil {
		return nil
	}
	return &decision{
		verdict:    model.VerdictRefuted,
		confidence: flag.Score,
		reasoning:  "Critical Hallucination: " + flag.Reason,
	}
}

func contradictionRule(_ *model.Claim, a *assessment) *decision {
	if !a.contradiction {
		return nil
	}
	reasoning := "Contradicted by textual evidence."
	var best *model.AuthoritativeContradiction
	for i := range a.contradictions {
		if best == nil || a.contradictions[i].Confidence > best.Confidence {
			best = &a.contradictions[i]
		}
	}
	if best != nil {
		reasoning = best.Reasoning
	}

	return &decision{
		verdict:    model.VerdictRefuted,
		confidence: math.Min(maxRefutationConfidence, math.Max(minRefutationConfidence, a.bestRefute)),
		reasoning:  reasoning,
	}
}

func nonCriticalHallucinationRule(_ *model.Claim, a *assessment) *decision {
	flag := strongest(a.flags, model.SeverityNonCritical)
	if flag == nil {
		return nil
	}

	for _, f := range a.flags {
		if f.Type == model.HallucinationAuthorityBleed {
			return &decision{
				verdict:     model.VerdictRefuted,
				confidence:  authorityBleedConfidence,
				reasoning:   "Refuted by Hallucination: " + f.Reason,
				dropSupport: true,
			}
		}
	}

	return &decision{
		verdict:    model.VerdictUncertain,
		confidence: uncertainConfidence,
		reasoning:  "Uncertain: " + flag.Reason,
	}
}

func directSupportRule(_ *model.Claim, a *assessment) *decision {
	if !a.directSupport {
		return nil
	}

	confidence := math.Min(maxSupportConfidence, a.bestSupport)
	reasoning := "Verified by supporting evidence."

	switch item := a.bestItem.(type) {
	case model.PrimaryDocument:
		confidence = math.Min(confidence, primaryConfidenceCap)
		reasoning = fmt.Sprintf("Verified by Primary Document: %s %s (%s)",
			orDefault(item.Authority, "SEC"), orDefault(item.DocumentType, "Filing"), item.FilingYear)
	case model.WikidataFact:
		confidence = math.Min(confidence, structuredConfidenceCap)
		reasoning = fmt.Sprintf("Verified by Wikidata property %s (%s).", item.Property, item.Value)
	case model.WikipediaPassage:
		reasoning = fmt.Sprintf("Verified by Wikipedia: \"%s\"", preview(item.Excerpt(), 100))
	}

	return &decision{
		verdict:    model.VerdictSupported,
		confidence: confidence,
		reasoning:  reasoning,
	}
}

func insufficientRule(_ *model.Claim, a *assessment) *decision {
	if a.weakCount >= weakCorroborationMin && !a.contradiction {
		avg := a.weakTotal / float64(a.weakCount)
		if avg >= weakCorroborationFloor {
			reasoning := fmt.Sprintf("Multiple weak corroborations (%d sources, avg score %.2f). Suggestive but not conclusive.",
				a.weakCount, avg)
			return &decision{
				verdict:    model.VerdictUncertain,
				confidence: uncertainConfidence,
				reasoning:  reasoning,
			}
		}
	}

	reasoning := "No relevant evidence found."
	switch {
	case a.eligible == 0 && len(a.evidence.Grokipedia) > 0:
		reasoning = "Only narrative evidence available (Grokipedia)."
	case hasSimilarWikipedia(a.evidence):
		reasoning = "Evidence found but insufficient for verification."
	}

	return &decision{
		verdict:    model.VerdictInsufficient,
		confidence: 0.0,
		reasoning:  reasoning,
	}
}

func hasSimilarWikipedia(ev model.EvidenceSet) bool {
	for _, p := range ev.Wikipedia {
		if p.Score > insufficientWikipediaSimilar {
			return true
		}
	}
	return false
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

// preview truncates to n runes and marks the cut
func preview(s string, n int) string {
	cut := align.Truncate(s, n)
	if cut != s {
		return cut + "..."
	}
	return s
}
