package kg

import (
	"strings"
)

type propertyMapping struct {
	key   string
	props []string
}

// predicateProperties maps predicate lemmas to candidate knowledge-graph
// properties. Order matters: a predicate with no direct entry takes the
// first key it contains.
var predicateProperties = []propertyMapping{
	// Organizations
	{"founded", []string{"P112", "P571"}},
	{"established", []string{"P571", "P112"}},
	{"incorporated", []string{"P571", "P159", "P17", "P131"}},
	{"headquartered", []string{"P159", "P131"}},
	{"based", []string{"P159", "P131", "P17"}},
	{"created", []string{"P571", "P170", "P112"}},
	{"launched", []string{"P571", "P577", "P1056"}},
	{"acquired", []string{"P127", "P749", "P1365"}},
	{"merged", []string{"P156", "P155"}},
	{"owns", []string{"P127", "P749"}},
	{"publishes", []string{"P123"}},
	{"employs", []string{"P1128"}},
	{"operates", []string{"P159", "P276"}},

	// People
	{"born", []string{"P569", "P19"}},
	{"died", []string{"P570", "P20"}},
	{"spouse", []string{"P26"}},
	{"married", []string{"P26"}},
	{"educated", []string{"P69"}},
	{"studied", []string{"P69"}},
	{"graduated", []string{"P69"}},
	{"works", []string{"P108"}},
	{"worked", []string{"P108"}},
	{"employed", []string{"P108"}},

	// Roles
	{"ceo", []string{"P39", "P488", "P169"}},
	{"chief", []string{"P39", "P488", "P169"}},
	{"served", []string{"P39"}},
	{"appointed", []string{"P39"}},
	{"elected", []string{"P39"}},
	{"leads", []string{"P39", "P488"}},
	{"chairs", []string{"P488"}},

	// Creative works
	{"wrote", []string{"P50"}},
	{"authored", []string{"P50"}},
	{"directed", []string{"P57"}},
	{"produced", []string{"P162"}},
	{"composed", []string{"P86"}},
	{"invented", []string{"P61"}},
	{"discovered", []string{"P61"}},
	{"designed", []string{"P170"}},
	{"developed", []string{"P178"}},
	{"released", []string{"P577"}},
	{"published", []string{"P577", "P123"}},

	// Places
	{"located", []string{"P131", "P276", "P17"}},
	{"situated", []string{"P131", "P276"}},
	{"capital", []string{"P36"}},

	// Identity
	{"is", []string{"P31", "P279"}},
	{"was", []string{"P31", "P279"}},

	// Finance
	{"revenue", []string{"P2139"}},
	{"profit", []string{"P2295"}},
	{"valued", []string{"P2226"}},
	{"worth", []string{"P2226"}},
	{"traded", []string{"P414"}},
	{"listed", []string{"P414"}},
	{"public", []string{"P414", "P576"}},
	{"ipo", []string{"P414", "P576"}},
}

// predicateHints widen the target set from keywords anywhere in the
// predicate or claim text
var predicateHints = []propertyMapping{
	{"headquarters", []string{"P159", "P131", "P276", "P17"}},
	{"located in", []string{"P131", "P276", "P17"}},
	{"country", []string{"P17", "P27"}},
	{"ceo", []string{"P169", "P488", "P39"}},
	{"founder", []string{"P112"}},
	{"parent organization", []string{"P749", "P127", "P355", "P361"}},
	{"subsidiary", []string{"P355", "P749", "P127", "P361"}},
	{"acquired", []string{"P127", "P749", "P355", "P361"}},
	{"founded", []string{"P571", "P112"}},
	{"inception", []string{"P571"}},
	{"born", []string{"P569", "P19"}},
	{"died", []string{"P570", "P20"}},
}

var propertyLabels = map[string]string{
	"P159": "headquarters location",
	"P131": "located in administrative territory",
	"P276": "location",
	"P17":  "country",
	"P169": "chief executive officer",
	"P488": "chairperson",
	"P39":  "position held",
	"P112": "founder",
	"P749": "parent organization",
	"P127": "owned by",
	"P355": "subsidiary",
	"P361": "part of",
	"P571": "inception",
	"P569": "date of birth",
	"P570": "date of death",
	"P19":  "place of birth",
	"P20":  "place of death",
	"P27":  "country of citizenship",
	"P577": "publication date",
}

// Property families
var (
	TemporalProps  = PropertySet{"P569": {}, "P570": {}, "P571": {}, "P577": {}}
	LocationProps  = PropertySet{"P159": {}, "P276": {}, "P131": {}, "P17": {}}
	OwnershipProps = PropertySet{"P127": {}, "P749": {}, "P355": {}, "P361": {}}

	// Identity facts trusted on subject and predicate match alone
	CanonicalProps = PropertySet{"P569": {}, "P570": {}, "P19": {}, "P20": {}, "P27": {}, "P571": {}, "P159": {}}

	// Place-valued canonical properties checked against containment
	PlaceProps = PropertySet{"P19": {}, "P20": {}, "P159": {}}

	// Explicit owner edges used for acquisition checks
	OwnerEdgeProps = PropertySet{"P127": {}, "P749": {}}
)

// PropertySet is an unordered set of property ids
type PropertySet map[string]struct{}

// NewPropertySet builds a set from ids
func NewPropertySet(ids ...string) PropertySet {
	s := make(PropertySet, len(ids))
	s.Add(ids...)
	return s
}

// Add inserts ids into the set
func (s PropertySet) Add(ids ...string) {
	for _, id := range ids {
		s[id] = struct{}{}
	}
}

// Has reports membership
func (s PropertySet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// PropertiesFor returns the candidate properties for a predicate: a direct
// entry first, then the first entry whose key the predicate contains
func PropertiesFor(predicate string) []string {
	pred := strings.ToLower(strings.TrimSpace(predicate))
	for _, m := range predicateProperties {
		if m.key == pred {
			return m.props
		}
	}
	for _, m := range predicateProperties {
		if strings.Contains(pred, m.key) {
			return m.props
		}
	}
	return nil
}

// TargetProperties is the set of properties a claim can plausibly be
// checked against: the mapped predicate plus keyword hints
func TargetProperties(predicate, claimText string) PropertySet {
	combined := strings.TrimSpace(strings.ToLower(predicate) + " " + strings.ToLower(claimText))

	targets := NewPropertySet(PropertiesFor(predicate)...)
	for _, h := range predicateHints {
		if strings.Contains(combined, h.key) {
			targets.Add(h.props...)
		}
	}
	return targets
}

// PropertyLabel returns the human label for a property, or the id itself
func PropertyLabel(prop string) string {
	if label, ok := propertyLabels[prop]; ok {
		return label
	}
	return prop
}
