package verify

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/ppiankov/epistemia/internal/kg"
	"github.com/ppiankov/epistemia/internal/model"
)

// Structured contradiction confidences by property family
const (
	temporalContradictionConfidence  = 0.92
	locationContradictionConfidence  = 0.9
	ownershipContradictionConfidence = 0.88
)

var (
	yearPattern    = regexp.MustCompile(`\b(\d{4})\b`)
	isoYearPattern = regexp.MustCompile(`\+(\d{4})`)
	nonAlnum       = regexp.MustCompile(`[^a-z0-9\s]`)

	acquisitionTerms = []string{"acquired", "acquire", "bought", "purchased", "takeover"}
)

type propertyKey struct {
	key  string
	prop string
}

// Canonical predicates the knowledge-graph fallback can answer. Location
// keys are tried against the predicate first so "born in" reaches P19.
var (
	fallbackTemporalProps = []propertyKey{
		{"founded", "P571"},
		{"born", "P569"},
		{"died", "P570"},
		{"released", "P577"},
		{"established", "P571"},
		{"incepted", "P571"},
		{"created", "P571"},
	}
	fallbackLocationProps = []propertyKey{
		{"born in", "P19"},
		{"died in", "P20"},
		{"from", "P27"},
		{"citizen of", "P27"},
		{"nationality", "P27"},
		{"headquartered", "P159"},
		{"based in", "P159"},
	}
)

func isQID(s string) bool {
	return strings.HasPrefix(s, "Q")
}

func normalize(text string) string {
	return strings.TrimSpace(nonAlnum.ReplaceAllString(strings.ToLower(text), ""))
}

func extractYears(text string) []string {
	var years []string
	for _, m := range yearPattern.FindAllStringSubmatch(text, -1) {
		years = append(years, m[1])
	}
	return years
}

// temporalCompatible matches at year granularity: "1643" is compatible
// with "+1643-01-04T00:00:00Z"
func temporalCompatible(claimValue, evidenceValue string) bool {
	if evidenceValue == "" {
		return false
	}
	claimYears := extractYears(claimValue)
	if len(claimYears) == 0 {
		return false
	}

	evidenceYears := extractYears(evidenceValue)
	if len(evidenceYears) == 0 && strings.HasPrefix(evidenceValue, "+") {
		if m := isoYearPattern.FindStringSubmatch(evidenceValue); m != nil {
			evidenceYears = []string{m[1]}
		}
	}

	for _, y := range claimYears {
		if slices.Contains(evidenceYears, y) {
			return true
		}
	}
	return false
}

// claimObject is the object text, or the whole claim when no object was extracted
func claimObject(c *model.Claim) string {
	if obj := strings.TrimSpace(c.Object); obj != "" {
		return obj
	}
	return strings.TrimSpace(c.Text)
}

// claimTemporalValue is the text carrying the claim's years: the object
// when it has any, else the claim text. Empty means no temporal signal.
func claimTemporalValue(c *model.Claim) string {
	if len(extractYears(c.Object)) > 0 {
		return c.Object
	}
	if len(extractYears(c.Text)) > 0 {
		return c.Text
	}
	return ""
}

// placeCandidates collects the ids and normalized names the claim's object may refer to
func placeCandidates(c *model.Claim) (qids, labels []string) {
	if qid := c.ObjectQID(); isQID(qid) {
		qids = append(qids, qid)
	}

	raw := []string{c.Object}
	if c.ObjectEntity != nil {
		raw = append(raw, c.ObjectEntity.CanonicalName, c.ObjectEntity.Text)
	}
	for _, candidate := range raw {
		if n := normalize(candidate); n != "" && !slices.Contains(labels, n) {
			labels = append(labels, n)
		}
	}
	return qids, labels
}

func overlaps(a, b string) bool {
	return a != "" && b != "" && (a == b || strings.Contains(a, b) || strings.Contains(b, a))
}

// placeCompatible reports whether the claimed place equals, contains or is
// contained by the evidence place
func (v *Verifier) placeCompatible(c *model.Claim, f model.WikidataFact) bool {
	qids, labels := placeCandidates(c)
	if len(qids) == 0 && len(labels) == 0 {
		return false
	}

	value := string(f.Value)
	if !isQID(value) {
		normalized := normalize(value)
		for _, label := range labels {
			if overlaps(label, normalized) {
				return true
			}
		}
		return false
	}

	place := v.graph.PlaceContainment(value, kg.DefaultMaxHops)
	for _, qid := range qids {
		if place.Contains(qid) {
			return true
		}
		if v.graph.PlaceContainment(qid, kg.DefaultMaxHops).Contains(value) {
			return true
		}
	}

	for _, label := range labels {
		for _, candidate := range place.Labels {
			if overlaps(label, normalize(candidate)) {
				return true
			}
		}
	}
	return false
}

// canonicalSupportCompatible gates canonical-property support on the value
// actually agreeing with the claim
func (v *Verifier) canonicalSupportCompatible(c *model.Claim, f model.WikidataFact) bool {
	obj := claimObject(c)
	if obj == "" {
		return false
	}

	value := string(f.Value)
	switch {
	case kg.TemporalProps.Has(f.Property):
		return temporalCompatible(claimTemporalValue(c), value)
	case kg.PlaceProps.Has(f.Property):
		return v.placeCompatible(c, f)
	case f.Alignment().Object() == model.MatchTrue:
		return true
	}

	normalized := normalize(obj)
	if isQID(value) && overlaps(normalized, normalize(v.graph.Label(value))) {
		return true
	}
	return overlaps(normalized, normalize(value))
}

// positiveProperties are properties with at least one statement agreeing
// with the claim. They are never used to contradict it.
func (v *Verifier) positiveProperties(c *model.Claim) kg.PropertySet {
	positive := kg.NewPropertySet()
	temporal := claimTemporalValue(c)

	for _, f := range c.Evidence.Wikidata {
		if f.Property == "" {
			continue
		}
		align := f.Alignment()
		switch {
		case align.Object() == model.MatchTrue || align.Temporal() == model.MatchTrue:
			positive.Add(f.Property)
		case kg.TemporalProps.Has(f.Property) && temporalCompatible(temporal, string(f.Value)):
			positive.Add(f.Property)
		case kg.PlaceProps.Has(f.Property) && v.placeCompatible(c, f):
			positive.Add(f.Property)
		}
	}
	return positive
}

// structuredContradiction checks one statement for a property-specific
// refutation. It looks at every statement, eligible or not.
func (v *Verifier) structuredContradiction(c *model.Claim, f model.WikidataFact, targets, positive kg.PropertySet) *model.AuthoritativeContradiction {
	if !c.SubjectEntity.IsResolved() {
		return nil
	}
	prop := f.Property
	if prop == "" {
		return nil
	}
	if len(targets) > 0 && !targets.Has(prop) {
		return nil
	}
	if positive.Has(prop) || claimObject(c) == "" {
		return nil
	}

	label := kg.PropertyLabel(prop)
	contradiction := func(confidence float64, reasoning string) *model.AuthoritativeContradiction {
		return &model.AuthoritativeContradiction{
			EvidenceID: f.ID(),
			Property:   prop,
			Confidence: confidence,
			Reasoning:  reasoning,
		}
	}

	if kg.TemporalProps.Has(prop) {
		temporal := claimTemporalValue(c)
		value := string(f.Value)
		if len(extractYears(temporal)) > 0 && len(extractYears(value)) > 0 && !temporalCompatible(temporal, value) {
			return contradiction(temporalContradictionConfidence,
				fmt.Sprintf("Contradicted by Wikidata %s: claim year does not match authoritative record.", label))
		}
		return nil
	}

	if kg.LocationProps.Has(prop) {
		if detail, ok := v.locationContradiction(c, f); ok {
			return contradiction(locationContradictionConfidence,
				fmt.Sprintf("Contradicted by Wikidata %s: %s", label, detail))
		}
	}

	if kg.OwnershipProps.Has(prop) {
		if detail, ok := v.ownershipContradiction(c, f); ok {
			return contradiction(ownershipContradictionConfidence,
				fmt.Sprintf("Contradicted by Wikidata %s: %s", label, detail))
		}
	}

	return nil
}

func (v *Verifier) locationContradiction(c *model.Claim, f model.WikidataFact) (string, bool) {
	qids, labels := placeCandidates(c)
	if len(qids) == 0 && len(labels) == 0 {
		return "", false
	}

	value := string(f.Value)
	if !isQID(value) {
		return "", false
	}

	// Without a containment context a mismatch cannot be told apart from
	// nesting. An unknown item walks to nothing but itself.
	place := v.graph.PlaceContainment(value, kg.DefaultMaxHops)
	if len(place.Labels) == 0 && len(place.QIDs) <= 1 {
		return "", false
	}
	if v.placeCompatible(c, f) {
		return "", false
	}

	shown := value
	if len(place.Labels) > 0 {
		shown = strings.Join(place.Labels[:min(3, len(place.Labels))], ", ")
	}
	return fmt.Sprintf("authoritative location is %s, not '%s'.", shown, c.Object), true
}

// ownershipContradiction refutes "X acquired Y" when Y's recorded owner is
// neither X nor one of X's own owners
func (v *Verifier) ownershipContradiction(c *model.Claim, f model.WikidataFact) (string, bool) {
	text := strings.ToLower(c.Predicate + " " + c.Text)
	if !containsAny(text, acquisitionTerms) {
		return "", false
	}
	if !kg.OwnerEdgeProps.Has(f.Property) {
		return "", false
	}

	subject, object := c.SubjectQID(), c.ObjectQID()
	if !isQID(subject) || !isQID(object) {
		return "", false
	}
	if f.EntityID != object {
		return "", false
	}

	owner := string(f.Value)
	if !isQID(owner) {
		return "", false
	}
	if owner == subject || slices.Contains(v.graph.Owners(subject), owner) {
		return "", false
	}

	return fmt.Sprintf("target entity owner/parent is %s (%s), not the claim subject.", v.graph.Label(owner), owner), true
}

// fallbackProperty maps a canonical predicate to the one property that
// settles it, or ""
func fallbackProperty(c *model.Claim) string {
	pred := strings.ToLower(c.Predicate)
	text := strings.ToLower(c.Text)

	for _, m := range fallbackLocationProps {
		if strings.Contains(pred, m.key) {
			return m.prop
		}
	}
	for _, m := range fallbackTemporalProps {
		if strings.Contains(pred, m.key) {
			return m.prop
		}
	}
	for _, m := range fallbackLocationProps {
		if strings.Contains(text, m.key) {
			return m.prop
		}
	}
	return ""
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
