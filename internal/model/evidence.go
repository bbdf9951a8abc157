package model

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Source names the upstream collaborator an evidence item came from
type Source string

const (
	SourcePrimaryDocument Source = "PRIMARY_DOCUMENT"
	SourceWikidata        Source = "WIKIDATA"
	SourceWikipedia       Source = "WIKIPEDIA"
	SourceGrokipedia      Source = "GROKIPEDIA"
)

// Tier returns the authority tier of the source
func (s Source) Tier() AuthorityTier {
	switch s {
	case SourcePrimaryDocument:
		return TierPrimary
	case SourceWikidata:
		return TierStructured
	case SourceWikipedia:
		return TierTextual
	case SourceGrokipedia:
		return TierNarrative
	default:
		return TierUnknown
	}
}

// Modality distinguishes machine-readable facts from prose
type Modality string

const (
	ModalityStructured Modality = "STRUCTURED"
	ModalityTextual    Modality = "TEXTUAL"
)

// AuthorityTier ranks evidence sources. Lower is more authoritative.
type AuthorityTier int

const (
	TierUnknown    AuthorityTier = 0 // Not classified
	TierPrimary    AuthorityTier = 1 // Filings, statutes, official documents
	TierStructured AuthorityTier = 2 // Knowledge-graph statements
	TierTextual    AuthorityTier = 3 // Encyclopedia prose
	TierNarrative  AuthorityTier = 4 // Generated narrative, never authoritative alone
)

func (t AuthorityTier) String() string {
	switch t {
	case TierPrimary:
		return "primary"
	case TierStructured:
		return "structured"
	case TierTextual:
		return "textual"
	case TierNarrative:
		return "narrative"
	default:
		return "unknown"
	}
}

// Match is a tri-state alignment outcome
type Match int

const (
	MatchUnknown Match = iota
	MatchTrue
	MatchFalse
)

func (m Match) String() string {
	switch m {
	case MatchTrue:
		return "true"
	case MatchFalse:
		return "false"
	default:
		return "unknown"
	}
}

func matchOf(b *bool) Match {
	if b == nil {
		return MatchUnknown
	}
	if *b {
		return MatchTrue
	}
	return MatchFalse
}

// Alignment describes whether an evidence item pertains to the claim.
// Absent fields decode as nil and read as MatchUnknown, never as true.
type Alignment struct {
	SubjectMatch   *bool `json:"subject_match" yaml:"subject_match"`
	PredicateMatch *bool `json:"predicate_match" yaml:"predicate_match"`
	ObjectMatch    *bool `json:"object_match" yaml:"object_match"`
	TemporalMatch  *bool `json:"temporal_match" yaml:"temporal_match"`
}

func (a Alignment) Subject() Match   { return matchOf(a.SubjectMatch) }
func (a Alignment) Predicate() Match { return matchOf(a.PredicateMatch) }
func (a Alignment) Object() Match    { return matchOf(a.ObjectMatch) }
func (a Alignment) Temporal() Match  { return matchOf(a.TemporalMatch) }

// Scalar is a string that also accepts JSON numbers and booleans, since
// knowledge-graph values and filing years arrive in either form.
type Scalar string

// UnmarshalJSON implements json.Unmarshaler
func (s *Scalar) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		*s = ""
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = Scalar(str)
		return nil
	}
	*s = Scalar(raw)
	return nil
}

func (s Scalar) String() string { return string(s) }

// NLIResult holds independent entailment/contradiction/neutral probabilities
type NLIResult struct {
	Entailment    float64 `json:"entailment" yaml:"entailment"`
	Contradiction float64 `json:"contradiction" yaml:"contradiction"`
	Neutral       float64 `json:"neutral" yaml:"neutral"`
}

// NeutralNLI is the result used when no inference is available
func NeutralNLI() NLIResult {
	return NLIResult{Neutral: 1.0}
}

// EvidenceItem is implemented by one variant per source
type EvidenceItem interface {
	ID() string
	Source() Source
	Modality() Modality
	Alignment() Alignment
	Similarity() float64
	// Text joins value, snippet and sentence for numeric scans
	Text() string
	// Narrative joins snippet and sentence only
	Narrative() string
	Excerpt() string
}

// evidenceID derives a stable content id: uuid5(OID, "<SOURCE>:<content>")
func evidenceID(parts ...string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(strings.Join(parts, ":"))).String()
}

// PrimaryDocument is a regulatory filing or other primary source
type PrimaryDocument struct {
	EvidenceID   string    `json:"evidence_id,omitempty" yaml:"evidence_id,omitempty"`
	Authority    string    `json:"authority,omitempty" yaml:"authority,omitempty"`         // e.g. SEC
	DocumentType string    `json:"document_type,omitempty" yaml:"document_type,omitempty"` // e.g. 10-K
	FilingYear   Scalar    `json:"filing_year,omitempty" yaml:"filing_year,omitempty"`
	Value        Scalar    `json:"value,omitempty" yaml:"value,omitempty"`
	Snippet      string    `json:"snippet,omitempty" yaml:"snippet,omitempty"`
	URL          string    `json:"url,omitempty" yaml:"url,omitempty"`
	Score        float64   `json:"score,omitempty" yaml:"score,omitempty"`
	Align        Alignment `json:"alignment" yaml:"alignment"`
}

func (d PrimaryDocument) ID() string {
	if d.EvidenceID != "" {
		return d.EvidenceID
	}
	return evidenceID(string(SourcePrimaryDocument), d.Authority+" "+d.DocumentType+" "+string(d.FilingYear)+" "+d.Snippet)
}
func (d PrimaryDocument) Source() Source       { return SourcePrimaryDocument }
func (d PrimaryDocument) Modality() Modality   { return ModalityStructured }
func (d PrimaryDocument) Alignment() Alignment { return d.Align }
func (d PrimaryDocument) Similarity() float64  { return d.Score }
func (d PrimaryDocument) Text() string         { return joinText(string(d.Value), d.Snippet, "") }
func (d PrimaryDocument) Narrative() string    { return joinText("", d.Snippet, "") }
func (d PrimaryDocument) Excerpt() string {
	if d.Snippet != "" {
		return d.Snippet
	}
	return string(d.Value)
}

// WikidataFact is a single knowledge-graph statement (entity, property, value)
type WikidataFact struct {
	EvidenceID string    `json:"evidence_id,omitempty" yaml:"evidence_id,omitempty"`
	EntityID   string    `json:"entity_id,omitempty" yaml:"entity_id,omitempty"` // QID the statement belongs to
	Property   string    `json:"property,omitempty" yaml:"property,omitempty"`   // PID, e.g. P571
	Value      Scalar    `json:"value,omitempty" yaml:"value,omitempty"`         // QID, year, or ISO time (+2015-12-11T00:00:00Z)
	Snippet    string    `json:"snippet,omitempty" yaml:"snippet,omitempty"`
	URL        string    `json:"url,omitempty" yaml:"url,omitempty"`
	Score      float64   `json:"score,omitempty" yaml:"score,omitempty"`
	Align      Alignment `json:"alignment" yaml:"alignment"`
}

func (f WikidataFact) ID() string {
	if f.EvidenceID != "" {
		return f.EvidenceID
	}
	return evidenceID(string(SourceWikidata), f.EntityID, f.Property, string(f.Value))
}
func (f WikidataFact) Source() Source       { return SourceWikidata }
func (f WikidataFact) Modality() Modality   { return ModalityStructured }
func (f WikidataFact) Alignment() Alignment { return f.Align }
func (f WikidataFact) Similarity() float64  { return f.Score }
func (f WikidataFact) Text() string         { return joinText(string(f.Value), f.Snippet, "") }
func (f WikidataFact) Narrative() string    { return joinText("", f.Snippet, "") }
func (f WikidataFact) Excerpt() string      { return f.Snippet }

// WikipediaPassage is an encyclopedia sentence retrieved for the claim.
// NLI is set when the retrieval stage already scored the pair.
type WikipediaPassage struct {
	EvidenceID string     `json:"evidence_id,omitempty" yaml:"evidence_id,omitempty"`
	Title      string     `json:"title,omitempty" yaml:"title,omitempty"`
	Snippet    string     `json:"snippet,omitempty" yaml:"snippet,omitempty"`
	Sentence   string     `json:"sentence,omitempty" yaml:"sentence,omitempty"`
	URL        string     `json:"url,omitempty" yaml:"url,omitempty"`
	Score      float64    `json:"score,omitempty" yaml:"score,omitempty"`
	NLI        *NLIResult `json:"nli,omitempty" yaml:"nli,omitempty"`
	Align      Alignment  `json:"alignment" yaml:"alignment"`
}

func (p WikipediaPassage) ID() string {
	if p.EvidenceID != "" {
		return p.EvidenceID
	}
	return evidenceID(string(SourceWikipedia), p.Premise())
}
func (p WikipediaPassage) Source() Source       { return SourceWikipedia }
func (p WikipediaPassage) Modality() Modality   { return ModalityTextual }
func (p WikipediaPassage) Alignment() Alignment { return p.Align }
func (p WikipediaPassage) Similarity() float64  { return p.Score }
func (p WikipediaPassage) Text() string         { return joinText("", p.Snippet, p.Sentence) }
func (p WikipediaPassage) Narrative() string    { return joinText("", p.Snippet, p.Sentence) }
func (p WikipediaPassage) Excerpt() string {
	if p.Snippet != "" {
		return p.Snippet
	}
	return p.Sentence
}

// Premise is the text fed to NLI: the sentence when present, else the snippet
func (p WikipediaPassage) Premise() string {
	if p.Sentence != "" {
		return p.Sentence
	}
	return p.Snippet
}

// GrokipediaPassage is generated narrative text. It is carried for
// reporting only and never supports or refutes a claim on its own.
type GrokipediaPassage struct {
	EvidenceID string    `json:"evidence_id,omitempty" yaml:"evidence_id,omitempty"`
	Snippet    string    `json:"snippet,omitempty" yaml:"snippet,omitempty"`
	Sentence   string    `json:"sentence,omitempty" yaml:"sentence,omitempty"`
	URL        string    `json:"url,omitempty" yaml:"url,omitempty"`
	Score      float64   `json:"score,omitempty" yaml:"score,omitempty"`
	Align      Alignment `json:"alignment" yaml:"alignment"`
}

func (p GrokipediaPassage) ID() string {
	if p.EvidenceID != "" {
		return p.EvidenceID
	}
	return evidenceID(string(SourceGrokipedia), p.Snippet+p.Sentence)
}
func (p GrokipediaPassage) Source() Source       { return SourceGrokipedia }
func (p GrokipediaPassage) Modality() Modality   { return ModalityTextual }
func (p GrokipediaPassage) Alignment() Alignment { return p.Align }
func (p GrokipediaPassage) Similarity() float64  { return p.Score }
func (p GrokipediaPassage) Text() string         { return joinText("", p.Snippet, p.Sentence) }
func (p GrokipediaPassage) Narrative() string    { return joinText("", p.Snippet, p.Sentence) }
func (p GrokipediaPassage) Excerpt() string      { return p.Snippet }

// EvidenceSet groups a claim's evidence by source, each list in retrieval order
type EvidenceSet struct {
	PrimaryDocument []PrimaryDocument   `json:"primary_document,omitempty" yaml:"primary_document,omitempty"`
	Wikidata        []WikidataFact      `json:"wikidata,omitempty" yaml:"wikidata,omitempty"`
	Wikipedia       []WikipediaPassage  `json:"wikipedia,omitempty" yaml:"wikipedia,omitempty"`
	Grokipedia      []GrokipediaPassage `json:"grokipedia,omitempty" yaml:"grokipedia,omitempty"`
}

// All returns every item, most authoritative source first
func (s EvidenceSet) All() []EvidenceItem {
	items := make([]EvidenceItem, 0, s.Len())
	for _, d := range s.PrimaryDocument {
		items = append(items, d)
	}
	for _, f := range s.Wikidata {
		items = append(items, f)
	}
	for _, p := range s.Wikipedia {
		items = append(items, p)
	}
	for _, p := range s.Grokipedia {
		items = append(items, p)
	}
	return items
}

// Len counts items across all sources
func (s EvidenceSet) Len() int {
	return len(s.PrimaryDocument) + len(s.Wikidata) + len(s.Wikipedia) + len(s.Grokipedia)
}

// HasRetrieved reports whether any non-narrative evidence was retrieved
func (s EvidenceSet) HasRetrieved() bool {
	return len(s.PrimaryDocument)+len(s.Wikidata)+len(s.Wikipedia) > 0
}

func joinText(value, snippet, sentence string) string {
	return " " + value + " " + snippet + " " + sentence
}

// ParseYear returns the leading year of an ISO knowledge-graph time value
// such as "+1643-01-04T00:00:00Z".
func ParseYear(value string) (int, bool) {
	if !strings.HasPrefix(value, "+") || len(value) < 5 {
		return 0, false
	}
	year, err := strconv.Atoi(value[1:5])
	if err != nil {
		return 0, false
	}
	return year, true
}
