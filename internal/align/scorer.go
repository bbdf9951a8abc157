package align

import (
	"github.com/ppiankov/epistemia/internal/model"
)

// Decision thresholds. Changing any of these changes verdicts.
const (
	StrongSimilarity      = 0.85 // Similarity needed alongside moderate entailment
	StrongEntailment      = 0.5
	ModerateSimilarity    = 0.75 // Similarity needed alongside strong entailment
	HighEntailment        = 0.8
	NearVerbatim          = 0.92 // Similarity that supports on its own
	ContradictionCutoff   = 0.75
	WeakSupportSimilarity = 0.65
)

// ScoreAlignment maps an evidence item's similarity and an NLI triple to a
// categorical signal. The first matching rule wins:
//
//  1. SUPPORT       (sim>=0.85 and ent>0.5) or (sim>=0.75 and ent>0.8) or sim>=0.92
//  2. CONTRADICTION con>0.75
//  3. WEAK_SUPPORT  sim>0.65
//  4. NEUTRAL
func ScoreAlignment(claimText string, item model.EvidenceItem, nli model.NLIResult) model.AlignmentSignal {
	sim := item.Similarity()
	components := map[string]float64{
		"similarity":    sim,
		"entailment":    nli.Entailment,
		"contradiction": nli.Contradiction,
		"neutral":       nli.Neutral,
	}

	switch {
	case (sim >= StrongSimilarity && nli.Entailment > StrongEntailment) ||
		(sim >= ModerateSimilarity && nli.Entailment > HighEntailment) ||
		sim >= NearVerbatim:
		return model.AlignmentSignal{
			Signal:     model.SignalSupport,
			Score:      (sim + nli.Entailment) / 2,
			Components: components,
		}
	case nli.Contradiction > ContradictionCutoff:
		return model.AlignmentSignal{
			Signal:     model.SignalContradiction,
			Score:      nli.Contradiction,
			Components: components,
		}
	case sim > WeakSupportSimilarity:
		return model.AlignmentSignal{
			Signal:     model.SignalWeakSupport,
			Score:      sim,
			Components: components,
		}
	default:
		return model.AlignmentSignal{
			Signal:     model.SignalNeutral,
			Score:      0,
			Components: components,
		}
	}
}
