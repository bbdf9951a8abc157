package verify

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ppiankov/epistemia/internal/kg"
	"github.com/ppiankov/epistemia/internal/model"
)

// facetOrder fixes iteration and reporting order
var facetOrder = []model.Facet{
	model.FacetInception,
	model.FacetHQ,
	model.FacetNationality,
	model.FacetOwnership,
	model.FacetTemporalGeneric,
	model.FacetNonprofit,
}

var (
	inceptionKeywords   = []string{"founded", "inception", "established", "created"}
	hqKeywords          = []string{"headquartered", "headquarters", "based in", "head office"}
	nationalityKeywords = []string{"nationality", "citizen of", "citizenship"}
	ownershipKeywords   = []string{"acquired", "owned by", "subsidiary", "parent organization", "parent company"}
	nonprofitKeywords   = []string{"non-profit", "nonprofit", "not-for-profit", "not for profit"}

	fromPattern = regexp.MustCompile(`\bfrom\b`)
)

// facetProps are the properties whose statements settle each facet.
// NONPROFIT has none and stays UNKNOWN.
var facetProps = map[model.Facet]kg.PropertySet{
	model.FacetInception:       kg.NewPropertySet("P571"),
	model.FacetHQ:              kg.NewPropertySet("P159", "P276", "P131", "P17"),
	model.FacetNationality:     kg.NewPropertySet("P27"),
	model.FacetOwnership:       kg.NewPropertySet("P127", "P749", "P355", "P361"),
	model.FacetTemporalGeneric: kg.TemporalProps,
	model.FacetNonprofit:       kg.NewPropertySet(),
}

// assertedFacets lists the sub-facts a compound claim asserts, in facetOrder
func assertedFacets(c *model.Claim) []model.Facet {
	text := strings.ToLower(c.Text + " " + c.Predicate)
	hasYear := yearPattern.MatchString(text)

	asserted := map[model.Facet]bool{
		model.FacetInception:   containsAny(text, inceptionKeywords) && hasYear,
		model.FacetHQ:          containsAny(text, hqKeywords),
		model.FacetNationality: containsAny(text, nationalityKeywords) || fromPattern.MatchString(text),
		model.FacetOwnership:   containsAny(text, ownershipKeywords),
		model.FacetNonprofit:   containsAny(text, nonprofitKeywords),
	}
	asserted[model.FacetTemporalGeneric] = hasYear && !asserted[model.FacetInception]

	var facets []model.Facet
	for _, f := range facetOrder {
		if asserted[f] {
			facets = append(facets, f)
		}
	}
	return facets
}

// facetStatus settles each asserted facet from the structured statements
// the scan used. A contradiction outranks support.
func facetStatus(asserted []model.Facet, a *assessment) map[model.Facet]model.FacetState {
	status := make(map[model.Facet]model.FacetState, len(asserted))
	for _, f := range asserted {
		status[f] = model.FacetUnknown
		props := facetProps[f]
		for prop := range props {
			if a.refutedProps.Has(prop) {
				status[f] = model.FacetContradicted
				break
			}
			if a.supportedProps.Has(prop) {
				status[f] = model.FacetSupported
			}
		}
	}
	return status
}

// adjustForFacets only ever weakens a verdict. A contradicted facet refutes
// the claim. Once any structured statement supports the claim, a SUPPORTED
// verdict is scaled by the share of asserted facets actually confirmed,
// whichever item scored best. Support from text alone judges the whole claim.
func adjustForFacets(d decision, asserted []model.Facet, status map[model.Facet]model.FacetState, a *assessment) decision {
	if len(asserted) == 0 {
		return d
	}

	var contradicted, unconfirmed []string
	supported := 0
	for _, f := range asserted {
		switch status[f] {
		case model.FacetContradicted:
			contradicted = append(contradicted, string(f))
		case model.FacetSupported:
			supported++
		default:
			unconfirmed = append(unconfirmed, string(f))
		}
	}

	if len(contradicted) > 0 {
		if d.verdict == model.VerdictRefuted {
			return d
		}
		return decision{
			verdict:    model.VerdictRefuted,
			confidence: max(minRefutationConfidence, min(maxRefutationConfidence, a.bestRefute)),
			reasoning:  fmt.Sprintf("Contradicted facet: %s.", strings.Join(contradicted, ", ")),
		}
	}

	if d.verdict != model.VerdictSupported {
		return d
	}
	if len(a.supportedProps) == 0 {
		return d
	}

	switch {
	case supported == len(asserted):
		return d
	case supported > 0:
		reasoning := fmt.Sprintf("%s Partially supported: %d of %d asserted facets confirmed (unconfirmed: %s).",
			d.reasoning, supported, len(asserted), strings.Join(unconfirmed, ", "))
		return decision{
			verdict:    model.VerdictPartiallySupported,
			confidence: d.confidence * float64(supported) / float64(len(asserted)),
			reasoning:  reasoning,
		}
	default:
		return decision{
			verdict:    model.VerdictUncertain,
			confidence: uncertainConfidence,
			reasoning:  fmt.Sprintf("Uncertain: structured evidence does not confirm the asserted facets (%s).", strings.Join(unconfirmed, ", ")),
		}
	}
}
