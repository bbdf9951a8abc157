package model

// Document is the engine's input: an extracted, linked and evidence-enriched
// claim set, plus the knowledge-graph neighbourhood retrieved alongside it.
type Document struct {
	Subject        string          `json:"subject,omitempty" yaml:"subject,omitempty"`                 // What the document is about
	SourceURL      string          `json:"source_url,omitempty" yaml:"source_url,omitempty"`           // Where the text came from
	Claims         []Claim         `json:"claims" yaml:"claims"`                                       // Claims with evidence attached
	KnowledgeGraph KnowledgeGraph  `json:"knowledge_graph,omitempty" yaml:"knowledge_graph,omitempty"` // Containment and ownership edges
	Config         *PipelineConfig `json:"pipeline_config,omitempty" yaml:"pipeline_config,omitempty"` // Per-document override
}

// KnowledgeGraph is a pre-fetched slice of the knowledge graph keyed by QID
type KnowledgeGraph struct {
	Nodes map[string]GraphNode `json:"nodes,omitempty" yaml:"nodes,omitempty"`
}

// GraphNode carries the edges the verifier needs for one item
type GraphNode struct {
	Label   string   `json:"label,omitempty" yaml:"label,omitempty"`
	Parents []string `json:"parents,omitempty" yaml:"parents,omitempty"` // P131/P17 administrative containment
	Owners  []string `json:"owners,omitempty" yaml:"owners,omitempty"`   // P127/P749 owners and parent organizations
}

// Report is the complete audit output for one document
type Report struct {
	Subject   string           `json:"subject,omitempty"`
	SourceURL string           `json:"source_url,omitempty"`
	Claims    []Claim          `json:"claims"`
	Risk      DocumentRisk     `json:"risk"`
	Signals   []DocumentSignal `json:"signals,omitempty"` // Document-level diagnostics, never affect verdicts
	Config    PipelineConfig   `json:"pipeline_config"`
}

// RiskLabel is the discrete document risk level
type RiskLabel string

const (
	RiskLow    RiskLabel = "LOW"
	RiskMedium RiskLabel = "MEDIUM"
	RiskHigh   RiskLabel = "HIGH"
)

// DocumentRisk is the aggregate epistemic risk of a claim set
type DocumentRisk struct {
	OverallRisk        RiskLabel   `json:"overall_risk"`
	HallucinationScore float64     `json:"hallucination_score"` // In [0,1], rounded to 3 places
	Summary            RiskSummary `json:"summary"`
}

// RiskSummary counts claims by verdict
type RiskSummary struct {
	TotalAssertedClaims int `json:"total_asserted_claims"`
	EpistemicClaims     int `json:"epistemic_claims"`
	Refuted             int `json:"refuted"`
	Insufficient        int `json:"insufficient"`
	Uncertain           int `json:"uncertain"` // Includes partially supported
	Supported           int `json:"supported"`
	PartiallySupported  int `json:"partially_supported"`
}

// DocumentSignal is a diagnostic signal with transparent data
type DocumentSignal struct {
	Type        DocumentSignalType     `json:"type"`
	Severity    SignalSeverity         `json:"severity"`
	Description string                 `json:"description"`
	ClaimIDs    []string               `json:"claim_ids,omitempty"`
	Data        map[string]interface{} `json:"data,omitempty"`
}

// DocumentSignalType classifies document-level diagnostics
type DocumentSignalType string

const (
	SignalRiskFormula           DocumentSignalType = "risk_formula"            // How the score was derived
	SignalCrossClaimConflict    DocumentSignalType = "cross_claim_conflict"    // Same subject+predicate, different values
	SignalOverconfidence        DocumentSignalType = "overconfidence"          // Certain language, weak verification
	SignalStructuralPrefilter   DocumentSignalType = "structural_prefilter"    // Flagged before evidence was consulted
	SignalLowConfidenceFallback DocumentSignalType = "low_confidence_fallback" // Sanity rule fired
	SignalDuplicateClaims       DocumentSignalType = "duplicate_claims"        // Claims collapsed by dedup
)

// SignalSeverity indicates the importance of the signal
type SignalSeverity string

const (
	LevelInfo     SignalSeverity = "info"
	LevelWarning  SignalSeverity = "warning"
	LevelCritical SignalSeverity = "critical"
)
