package risk

import (
	"fmt"
	"math"

	"github.com/ppiankov/epistemia/internal/model"
)

// Formula weights
const (
	refutedWeight      = 1.0
	insufficientWeight = 0.6
	uncertainWeight    = 0.3

	// Documents with fewer epistemic claims than this are dampened
	dampeningFloor = 5

	lowCeiling    = 0.20
	mediumCeiling = 0.50
)

// Aggregator reduces claim verdicts to a document risk score
type Aggregator struct{}

// NewAggregator creates a new aggregator
func NewAggregator() *Aggregator {
	return &Aggregator{}
}

// Calculate scores the verified claim set and returns the risk with a
// signal that shows how the score was derived
func (a *Aggregator) Calculate(claims []model.Claim) (model.DocumentRisk, model.DocumentSignal) {
	summary := summarize(claims)

	total := summary.EpistemicClaims
	safeTotal := float64(max(1, total))
	refuted := float64(summary.Refuted) / safeTotal
	insufficient := float64(summary.Insufficient) / safeTotal
	uncertain := float64(summary.Uncertain) / safeTotal

	raw := refutedWeight*refuted + insufficientWeight*insufficient + uncertainWeight*uncertain
	dampened := total < dampeningFloor
	if dampened {
		raw *= float64(total) / dampeningFloor
	}
	score := math.Round(clamp(raw)*1000) / 1000

	risk := model.DocumentRisk{
		OverallRisk:        Label(score),
		HallucinationScore: score,
		Summary:            summary,
	}

	return risk, model.DocumentSignal{
		Type:        model.SignalRiskFormula,
		Severity:    severityFor(risk.OverallRisk),
		Description: fmt.Sprintf("Hallucination score %.3f (%s) over %d epistemic claims", score, risk.OverallRisk, total),
		Data: map[string]interface{}{
			"refuted_ratio":      refuted,
			"insufficient_ratio": insufficient,
			"uncertain_ratio":    uncertain,
			"epistemic_claims":   total,
			"dampened":           dampened,
			"score":              score,
			"formula":            "(1.0*refuted + 0.6*insufficient + 0.3*uncertain) / T, scaled by T/5 when T < 5",
		},
	}
}

// Label maps a score to its risk level. It is the only source of labels.
func Label(score float64) model.RiskLabel {
	switch {
	case score <= lowCeiling:
		return model.RiskLow
	case score <= mediumCeiling:
		return model.RiskMedium
	default:
		return model.RiskHigh
	}
}

// summarize counts verdicts. Verdicts outside the known set carry no
// epistemic signal and are left out of T.
func summarize(claims []model.Claim) model.RiskSummary {
	s := model.RiskSummary{TotalAssertedClaims: len(claims)}

	for _, c := range claims {
		if c.Verification == nil {
			continue
		}
		switch c.Verification.Verdict {
		case model.VerdictRefuted:
			s.Refuted++
		case model.VerdictInsufficient:
			s.Insufficient++
		case model.VerdictUncertain:
			s.Uncertain++
		case model.VerdictPartiallySupported:
			s.Uncertain++
			s.PartiallySupported++
		case model.VerdictSupported, model.VerdictSupportedWeak:
			s.Supported++
		default:
			continue
		}
		s.EpistemicClaims++
	}
	return s
}

func severityFor(label model.RiskLabel) model.SignalSeverity {
	switch label {
	case model.RiskHigh:
		return model.LevelCritical
	case model.RiskMedium:
		return model.LevelWarning
	default:
		return model.LevelInfo
	}
}

func clamp(x float64) float64 {
	return math.Max(0, math.Min(1, x))
}
