package model

// Claim is an atomic subject/predicate/object assertion produced by the
// upstream extraction stage, together with the evidence retrieved for it.
// Verification and Hallucinations are filled in by the verifier.
type Claim struct {
	ID              string          `json:"claim_id" yaml:"claim_id"`                                     // Stable claim identifier
	Text            string          `json:"claim_text" yaml:"claim_text"`                                 // Raw sentence-level claim text
	Subject         string          `json:"subject" yaml:"subject"`                                       // Subject surface text
	Predicate       string          `json:"predicate" yaml:"predicate"`                                   // Predicate lemma or phrase
	Object          string          `json:"object" yaml:"object"`                                         // Object surface text
	Type            ClaimType       `json:"claim_type" yaml:"claim_type"`                                 // RELATION, TEMPORAL, ...
	EpistemicStatus EpistemicStatus `json:"epistemic_status,omitempty" yaml:"epistemic_status,omitempty"` // ASSERTED when empty
	ModalStrength   float64         `json:"modal_strength,omitempty" yaml:"modal_strength,omitempty"`     // Linguistic certainty (0-1), optional
	SubjectEntity   *Entity         `json:"subject_entity,omitempty" yaml:"subject_entity,omitempty"`     // Linked subject
	ObjectEntity    *Entity         `json:"object_entity,omitempty" yaml:"object_entity,omitempty"`       // Linked object
	Evidence        EvidenceSet     `json:"evidence" yaml:"evidence"`                                     // Retrieved evidence per source

	Verification   *VerificationResult `json:"verification,omitempty" yaml:"verification,omitempty"`
	Hallucinations []HallucinationFlag `json:"hallucinations,omitempty" yaml:"hallucinations,omitempty"`
}

// ClaimType categorizes the shape of the assertion
type ClaimType string

const (
	ClaimTypeRelation         ClaimType = "RELATION"
	ClaimTypeTemporal         ClaimType = "TEMPORAL"
	ClaimTypeFactualAttribute ClaimType = "FACTUAL_ATTRIBUTE"
	ClaimTypeExistential      ClaimType = "EXISTENTIAL"
	ClaimTypeMetaReported     ClaimType = "META_REPORTED"
)

// EpistemicStatus records whether the source text actually asserts the claim
type EpistemicStatus string

const (
	StatusAsserted     EpistemicStatus = "ASSERTED"
	StatusNonAssertive EpistemicStatus = "NON_ASSERTIVE"
	StatusContested    EpistemicStatus = "CONTESTED"
)

// ResolutionStatus is the outcome of entity linking against the knowledge graph
type ResolutionStatus string

const (
	ResolutionResolved      ResolutionStatus = "RESOLVED"
	ResolutionResolvedSoft  ResolutionStatus = "RESOLVED_SOFT"
	ResolutionResolvedCoref ResolutionStatus = "RESOLVED_COREF"
	ResolutionUnresolved    ResolutionStatus = "UNRESOLVED"
)

// Entity is a linked mention of a knowledge-graph item
type Entity struct {
	ID               string           `json:"entity_id" yaml:"entity_id"`                               // Canonical id (Wikidata QID)
	CanonicalName    string           `json:"canonical_name,omitempty" yaml:"canonical_name,omitempty"` // Label of the linked item
	Text             string           `json:"text,omitempty" yaml:"text,omitempty"`                     // Surface form in the claim
	EntityType       string           `json:"entity_type,omitempty" yaml:"entity_type,omitempty"`       // PERSON, ORG, GPE, ...
	ResolutionStatus ResolutionStatus `json:"resolution_status,omitempty" yaml:"resolution_status,omitempty"`
}

// IsResolved reports whether the entity was linked by any resolution strategy
func (e *Entity) IsResolved() bool {
	if e == nil {
		return false
	}
	switch e.ResolutionStatus {
	case ResolutionResolved, ResolutionResolvedSoft, ResolutionResolvedCoref:
		return true
	default:
		return false
	}
}

// IsStrictlyResolved excludes coreference-based resolution
func (e *Entity) IsStrictlyResolved() bool {
	if e == nil {
		return false
	}
	return e.ResolutionStatus == ResolutionResolved || e.ResolutionStatus == ResolutionResolvedSoft
}

// EntityID returns the entity id or "" for a nil entity
func (e *Entity) EntityID() string {
	if e == nil {
		return ""
	}
	return e.ID
}

// IsAsserted treats a missing epistemic status as asserted
func (c *Claim) IsAsserted() bool {
	return c.EpistemicStatus == "" || c.EpistemicStatus == StatusAsserted
}

// SubjectQID returns the subject's linked id, or ""
func (c *Claim) SubjectQID() string {
	return c.SubjectEntity.EntityID()
}

// ObjectQID returns the object's linked id, or ""
func (c *Claim) ObjectQID() string {
	return c.ObjectEntity.EntityID()
}
