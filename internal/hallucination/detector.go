package hallucination

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/ppiankov/epistemia/internal/model"
)

// check inspects one claim for one failure mechanism
type check func(c *model.Claim) *model.HallucinationFlag

var (
	orgCreationPredicates      = []string{"founded", "established", "incorporated"}
	artifactCreationPredicates = []string{"created", "released", "built", "invented", "launched", "designed", "developed", "manufactured"}
	creatorProperties          = []string{"P170", "P176", "P178"} // creator, manufacturer, developer

	authorshipPredicates = []string{"designed", "engineered", "built", "implemented", "coded", "programmed", "developed"}
	technicalObjects     = []string{"processor", "chip", "hardware", "system", "architecture", "kernel", "quantum", "algorithm", "equation"}

	highCourts  = []string{"supreme court", "high court", "scotus"}
	lowerCourts = []string{"district court", "federal judge", "lower court"}

	dosageDrugs = []string{"ibuprofen", "advil", "motrin"}

	scopeAuthorities    = []string{"government", "supreme court", "high court", "who", "cdc", "fda", "agency", "federal"}
	scopeForce          = []string{"mandated", "required", "forced", "banned", "prohibited", "compelled", "ordered"}
	scopeUniversalTargs = []string{"everyone", "all citizens", "population", "nationwide", "all people", "vaccine", "mask"}
	universalMarkers    = []string{"everyone", "nationwide", "entire population", "mandatory for all", "universal"}
	scopeLimiters       = []string{
		"federal employees", "contractors", "healthcare workers", "specific states",
		"emergency", "conditional", "recommended",
		"funding", "research", "development", "trials", "distribution", "access",
	}

	claimYearPattern = regexp.MustCompile(`\b(1\d{3}|20\d{2})\b`)
	dosagePattern    = regexp.MustCompile(`(\d+(?:,\d{3})?)\s*mg`)
	maskPattern      = regexp.MustCompile(`\bmasks?\b`)
	allPattern       = regexp.MustCompile(`\ball\b`)
)

const unsafeDoseMg = 1000

// Detector finds attributable hallucination mechanisms in a claim. It holds
// no state and is safe for concurrent use.
type Detector struct {
	structural []check
}

// NewDetector creates a new detector
func NewDetector() *Detector {
	return &Detector{
		structural: []check{
			checkScopeOvergeneralization,
			checkImpossibleDosage,
			checkAuthorityBleed,
		},
	}
}

// DetectStructural is the evidence-free pre-filter. It returns the first
// hit among scope overgeneralization, impossible dosage and authority bleed.
func (d *Detector) DetectStructural(c *model.Claim) *model.HallucinationFlag {
	for _, fn := range d.structural {
		if flag := fn(c); flag != nil {
			return flag
		}
	}
	return nil
}

// Detect runs every check against the claim and its evidence
func (d *Detector) Detect(c *model.Claim) []model.HallucinationFlag {
	checks := []check{
		checkEntityRoleConflict,
		checkTemporalFabrication,
		checkUnsupportedSpecificity,
		checkAuthorityBleed,
		checkCourtMisattribution,
		checkImpossibleDosage,
		checkScopeOvergeneralization,
	}

	var flags []model.HallucinationFlag
	for _, fn := range checks {
		if flag := fn(c); flag != nil {
			flags = append(flags, *flag)
		}
	}
	return flags
}

func flag(t model.HallucinationType, score float64, reason string) *model.HallucinationFlag {
	f := model.NewFlag(t, score, reason)
	return &f
}

// checkEntityRoleConflict flags artifact-creation claims whose object has a
// different creator on record. Organization founding is not a role conflict.
func checkEntityRoleConflict(c *model.Claim) *model.HallucinationFlag {
	tokens := strings.Fields(strings.ToLower(c.Predicate))
	if containsToken(tokens, orgCreationPredicates) || !containsToken(tokens, artifactCreationPredicates) {
		return nil
	}

	subject := c.SubjectQID()
	for _, ev := range c.Evidence.Wikidata {
		if !slices.Contains(creatorProperties, ev.Property) {
			continue
		}
		creator := string(ev.Value)
		if strings.HasPrefix(creator, "Q") && creator != subject {
			return flag(model.HallucinationEntityRoleConflict, 0.95,
				fmt.Sprintf("Entity Role Conflict: Object created by %s, not %s.", creator, subject))
		}
	}
	return nil
}

// checkTemporalFabrication compares the claim's first year against ISO
// time values on record
func checkTemporalFabrication(c *model.Claim) *model.HallucinationFlag {
	if c.Type != model.ClaimTypeTemporal {
		return nil
	}
	m := claimYearPattern.FindString(c.Text)
	if m == "" {
		return nil
	}
	claimYear, _ := strconv.Atoi(m)

	for _, ev := range c.Evidence.Wikidata {
		evYear, ok := model.ParseYear(string(ev.Value))
		if !ok {
			continue
		}
		if evYear != claimYear {
			return flag(model.HallucinationTemporalFabrication, 0.90,
				fmt.Sprintf("Temporal Mismatch: Evidence indicates %d, claim asserts %d.", evYear, claimYear))
		}
	}
	return nil
}

// checkAuthorityBleed flags technical authorship attributed to a person
func checkAuthorityBleed(c *model.Claim) *model.HallucinationFlag {
	if c.SubjectEntity == nil || c.SubjectEntity.EntityType != "PERSON" {
		return nil
	}
	if !containsAny(strings.ToLower(c.Predicate), authorshipPredicates) {
		return nil
	}
	if !containsAny(strings.ToLower(c.Object), technicalObjects) {
		return nil
	}
	return flag(model.HallucinationAuthorityBleed, 0.9,
		"Authority Bleed: Attributed technical authorship to influencer/leader.")
}

// checkCourtMisattribution flags a high-court ruling whose evidence only
// names a lower court
func checkCourtMisattribution(c *model.Claim) *model.HallucinationFlag {
	subject := strings.ToLower(c.Subject)
	text := strings.ToLower(c.Text)
	if !containsAny(subject, highCourts) && !containsAny(text, highCourts) {
		return nil
	}

	pred := strings.ToLower(c.Predicate)
	if !strings.Contains(pred, "ruled") && !strings.Contains(pred, "decided") {
		return nil
	}

	var b strings.Builder
	for _, item := range c.Evidence.All() {
		b.WriteString(item.Narrative())
	}
	evidence := strings.ToLower(b.String())

	if containsAny(evidence, lowerCourts) && !strings.Contains(evidence, "supreme court") {
		return flag(model.HallucinationCourtMisattribution, 0.95,
			"Court Misattribution: Evidence cites lower court, not Supreme Court.")
	}
	return nil
}

// checkImpossibleDosage flags common analgesic doses at or above 1000 mg
func checkImpossibleDosage(c *model.Claim) *model.HallucinationFlag {
	text := strings.ToLower(c.Text)
	if !containsAny(text, dosageDrugs) {
		return nil
	}

	for _, m := range dosagePattern.FindAllStringSubmatch(text, -1) {
		dose, err := strconv.Atoi(strings.ReplaceAll(m[1], ",", ""))
		if err != nil {
			continue
		}
		if dose >= unsafeDoseMg {
			return flag(model.HallucinationImpossibleDosage, 1.0,
				fmt.Sprintf("Safety Alert: Dosage %dmg exceeds standard medical limits.", dose))
		}
	}
	return nil
}

// checkScopeOvergeneralization flags an authority imposing a coercive
// measure on a universal target with no limiting scope
func checkScopeOvergeneralization(c *model.Claim) *model.HallucinationFlag {
	text := strings.ToLower(c.Text)
	subject := strings.ToLower(c.Subject)
	pred := strings.ToLower(c.Predicate)
	object := strings.ToLower(c.Object)

	if !containsAny(subject, scopeAuthorities) && !containsAny(text, scopeAuthorities) {
		return nil
	}
	if !containsAny(pred, scopeForce) && !containsAny(text, scopeForce) {
		return nil
	}

	target := ""
	for _, t := range scopeUniversalTargs {
		if t == "mask" {
			if maskPattern.MatchString(text) {
				target = t
				break
			}
			continue
		}
		if strings.Contains(object, t) || strings.Contains(text, t) {
			target = t
			break
		}
	}
	if target == "" {
		return nil
	}

	// Generic targets need an explicit universality marker
	if target == "vaccine" || target == "mask" {
		if !containsAny(text, universalMarkers) && !allPattern.MatchString(text) {
			return nil
		}
	}

	if containsAny(text, scopeLimiters) {
		return nil
	}

	return flag(model.HallucinationScopeOvergeneralization, 0.95,
		"Scope Hallucination: Claim asserts universal coercive authority without specifying a legally valid scope.")
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

func containsToken(tokens, set []string) bool {
	for _, t := range tokens {
		if slices.Contains(set, t) {
			return true
		}
	}
	return false
}
