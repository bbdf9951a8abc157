package model

// Verdict is the per-claim verification outcome
type Verdict string

const (
	VerdictSupported          Verdict = "SUPPORTED"
	VerdictSupportedWeak      Verdict = "SUPPORTED_WEAK" // Temporal canonical override only
	VerdictPartiallySupported Verdict = "PARTIALLY_SUPPORTED"
	VerdictRefuted            Verdict = "REFUTED"
	VerdictUncertain          Verdict = "UNCERTAIN"
	VerdictInsufficient       Verdict = "INSUFFICIENT_EVIDENCE"
)

// VerificationResult is the verifier's output for one claim
type VerificationResult struct {
	Verdict                     Verdict                      `json:"verdict" yaml:"verdict"`
	Confidence                  float64                      `json:"confidence" yaml:"confidence"`                         // Rounded to 2 places, in [0,1]
	UsedEvidenceIDs             []string                     `json:"used_evidence_ids" yaml:"used_evidence_ids"`           // Supporting ids, deduplicated in first-seen order
	ContradictedBy              []string                     `json:"contradicted_by" yaml:"contradicted_by"`               // Refuting ids, same rules
	Reasoning                   string                       `json:"reasoning" yaml:"reasoning"`                           // Human-readable justification
	FacetStatus                 map[Facet]FacetState         `json:"facet_status,omitempty" yaml:"facet_status,omitempty"` // Asserted facets only
	EvidenceSufficiency         EvidenceSufficiency          `json:"evidence_sufficiency,omitempty" yaml:"evidence_sufficiency,omitempty"`
	EvidenceSummary             *EvidenceSummary             `json:"evidence_summary,omitempty" yaml:"evidence_summary,omitempty"`
	AuthoritativeContradictions []AuthoritativeContradiction `json:"authoritative_contradictions,omitempty" yaml:"authoritative_contradictions,omitempty"`
}

// AuthoritativeContradiction is a property-specific structured refutation
type AuthoritativeContradiction struct {
	EvidenceID string  `json:"evidence_id" yaml:"evidence_id"`
	Property   string  `json:"property" yaml:"property"`
	Confidence float64 `json:"confidence" yaml:"confidence"`
	Reasoning  string  `json:"reasoning" yaml:"reasoning"`
}

// Facet is a named sub-fact a claim can assert
type Facet string

const (
	FacetInception       Facet = "INCEPTION"
	FacetHQ              Facet = "HQ"
	FacetNationality     Facet = "NATIONALITY"
	FacetOwnership       Facet = "OWNERSHIP"
	FacetTemporalGeneric Facet = "TEMPORAL_GENERIC"
	FacetNonprofit       Facet = "NONPROFIT"
)

// FacetState is the support state of one asserted facet
type FacetState string

const (
	FacetSupported    FacetState = "SUPPORTED"
	FacetContradicted FacetState = "CONTRADICTED"
	FacetUnknown      FacetState = "UNKNOWN"
)

// EvidenceSufficiency classifies the best evidence tier actually used
type EvidenceSufficiency string

const (
	SufficiencyVerified     EvidenceSufficiency = "ES_VERIFIED"     // Primary or structured evidence used
	SufficiencyCorroborated EvidenceSufficiency = "ES_CORROBORATED" // Textual evidence used
	SufficiencyEvaluated    EvidenceSufficiency = "ES_EVALUATED"    // Evidence retrieved, none used
	SufficiencyAbsent       EvidenceSufficiency = "ES_ABSENT"       // Nothing retrieved
)

// EvidenceSummary gives per-source totals and the items that were used
type EvidenceSummary struct {
	Wikidata        SourceSummary `json:"wikidata" yaml:"wikidata"`
	Wikipedia       SourceSummary `json:"wikipedia" yaml:"wikipedia"`
	PrimaryDocument SourceSummary `json:"primary_document" yaml:"primary_document"`
}

// SourceSummary counts distinct evidence ids for one source
type SourceSummary struct {
	Total     int            `json:"total" yaml:"total"`
	Used      int            `json:"used" yaml:"used"`
	UsedItems []UsedEvidence `json:"used_items" yaml:"used_items"`
}

// UsedEvidence is a display record for an item that contributed to the verdict
type UsedEvidence struct {
	EvidenceID   string `json:"evidence_id" yaml:"evidence_id"`
	Source       Source `json:"source" yaml:"source"`
	Property     string `json:"property,omitempty" yaml:"property,omitempty"`
	Value        string `json:"value,omitempty" yaml:"value,omitempty"`
	Authority    string `json:"authority,omitempty" yaml:"authority,omitempty"`
	DocumentType string `json:"document_type,omitempty" yaml:"document_type,omitempty"`
	FilingYear   string `json:"filing_year,omitempty" yaml:"filing_year,omitempty"`
	Snippet      string `json:"snippet" yaml:"snippet"`
	URL          string `json:"url,omitempty" yaml:"url,omitempty"`
}

// HallucinationType is the fixed set of attributable hallucination mechanisms
type HallucinationType string

const (
	HallucinationTextualContradiction    HallucinationType = "TEXTUAL_CONTRADICTION"
	HallucinationUnsupportedClaims       HallucinationType = "UNSUPPORTED_CLAIMS"
	HallucinationEntityRoleConflict      HallucinationType = "ENTITY_ROLE_CONFLICT"
	HallucinationTemporalFabrication     HallucinationType = "TEMPORAL_FABRICATION"
	HallucinationImpossibleDosage        HallucinationType = "IMPOSSIBLE_DOSAGE"
	HallucinationScopeOvergeneralization HallucinationType = "SCOPE_OVERGENERALIZATION"
	HallucinationAuthorityBleed          HallucinationType = "AUTHORITY_BLEED"
	HallucinationCourtMisattribution     HallucinationType = "COURT_AUTHORITY_MISATTRIBUTION"
	HallucinationUnsupportedSpecificity  HallucinationType = "UNSUPPORTED_SPECIFICITY"
)

// Severity is the only property of a flag the verdict precedence reads
type Severity string

const (
	SeverityCritical    Severity = "CRITICAL"
	SeverityNonCritical Severity = "NON_CRITICAL"
)

// Severity returns the static severity of the hallucination type
func (t HallucinationType) Severity() Severity {
	switch t {
	case HallucinationTextualContradiction,
		HallucinationEntityRoleConflict,
		HallucinationTemporalFabrication,
		HallucinationCourtMisattribution,
		HallucinationImpossibleDosage,
		HallucinationScopeOvergeneralization:
		return SeverityCritical
	default:
		return SeverityNonCritical
	}
}

// HallucinationFlag attributes a specific failure mechanism to a claim
type HallucinationFlag struct {
	Type        HallucinationType `json:"hallucination_type" yaml:"hallucination_type"`
	Severity    Severity          `json:"severity" yaml:"severity"`
	Score       float64           `json:"score" yaml:"score"`
	Reason      string            `json:"reason" yaml:"reason"`
	EvidenceRef string            `json:"evidence_ref,omitempty" yaml:"evidence_ref,omitempty"`
}

// NewFlag builds a flag with its severity taken from the static table
func NewFlag(t HallucinationType, score float64, reason string) HallucinationFlag {
	return HallucinationFlag{
		Type:     t,
		Severity: t.Severity(),
		Score:    score,
		Reason:   reason,
	}
}

// Signal is the categorical alignment outcome for one evidence item
type Signal string

const (
	SignalSupport       Signal = "SUPPORT"
	SignalContradiction Signal = "CONTRADICTION"
	SignalWeakSupport   Signal = "WEAK_SUPPORT"
	SignalNeutral       Signal = "NEUTRAL"
)

// AlignmentSignal is the scorer's decision plus the inputs it used
type AlignmentSignal struct {
	Signal     Signal             `json:"signal" yaml:"signal"`
	Score      float64            `json:"score" yaml:"score"`
	Components map[string]float64 `json:"components,omitempty" yaml:"components,omitempty"`
}
