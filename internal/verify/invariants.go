package verify

import (
	"fmt"

	"github.com/ppiankov/epistemia/internal/model"
)

// InvariantError reports a verification result that breaks an output
// guarantee. It indicates a bug in the rules, never bad input.
type InvariantError struct {
	ClaimID   string
	Invariant string
	Detail    string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("claim %s violates %s: %s", e.ClaimID, e.Invariant, e.Detail)
}

// CheckInvariants returns the first violation among the verified claims
func CheckInvariants(claims []model.Claim) error {
	for i := range claims {
		if err := checkClaim(&claims[i]); err != nil {
			return err
		}
	}
	return nil
}

func checkClaim(c *model.Claim) error {
	r := c.Verification
	if r == nil {
		return &InvariantError{ClaimID: c.ID, Invariant: "verified", Detail: "no verification result"}
	}

	fail := func(invariant, format string, args ...any) error {
		return &InvariantError{ClaimID: c.ID, Invariant: invariant, Detail: fmt.Sprintf(format, args...)}
	}

	if r.Confidence < 0 || r.Confidence > 1 {
		return fail("confidence_range", "confidence %.2f outside [0,1]", r.Confidence)
	}

	switch r.Verdict {
	case model.VerdictSupported:
		if len(c.Hallucinations) > 0 {
			return fail("supported_without_hallucinations", "%d hallucination flags on a supported claim", len(c.Hallucinations))
		}
		if len(r.UsedEvidenceIDs) == 0 && !IsCanonicalPredicate(c.Predicate) {
			return fail("supported_with_evidence", "no used evidence for predicate %q", c.Predicate)
		}
		if r.Confidence <= 0 {
			return fail("supported_confidence", "supported with zero confidence")
		}

	case model.VerdictRefuted:
		if len(r.UsedEvidenceIDs) > 0 && len(r.ContradictedBy) == 0 && !hasCritical(c.Hallucinations) {
			return fail("refuted_justified", "refuted with supporting evidence but no contradiction or critical flag")
		}
	}
	return nil
}

func hasCritical(flags []model.HallucinationFlag) bool {
	for _, f := range flags {
		if f.Severity == model.SeverityCritical {
			return true
		}
	}
	return false
}
