package align

import (
	"fmt"

	"github.com/ppiankov/epistemia/internal/model"
)

const snippetLimit = 100

// Attribute turns a CONTRADICTION signal into a textual-contradiction flag.
// Any other signal yields nil.
func Attribute(signal model.AlignmentSignal, item model.EvidenceItem) *model.HallucinationFlag {
	if signal.Signal != model.SignalContradiction {
		return nil
	}

	flag := model.NewFlag(
		model.HallucinationTextualContradiction,
		signal.Score,
		fmt.Sprintf("Directly contradicted by evidence: \"%s...\"", Truncate(item.Excerpt(), snippetLimit)),
	)
	flag.EvidenceRef = item.ID()
	return &flag
}

// Truncate cuts s to at most n runes
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
