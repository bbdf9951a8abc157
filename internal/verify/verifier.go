// Package verify decides a verdict for every claim from its evidence.
//
// Each claim is judged independently in a map phase: evidence is scanned
// most authoritative source first, hallucination flags are attached, and a
// fixed precedence of rules picks the verdict. A document-level post-pass
// then applies cross-claim rules and checks the output invariants.
package verify

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/ppiankov/epistemia/internal/align"
	"github.com/ppiankov/epistemia/internal/hallucination"
	"github.com/ppiankov/epistemia/internal/kg"
	"github.com/ppiankov/epistemia/internal/model"
	"github.com/ppiankov/epistemia/internal/nli"
	"github.com/ppiankov/epistemia/internal/worker"
)

// Pre-cap support scores by source
const (
	primarySupportScore          = 0.95
	structuredSupportScore       = 0.85
	canonicalSupportScore        = 0.85
	partialStructuredSupport     = 0.75
	knowledgeGraphFallbackScore  = 0.95
	structuredRefutationScore    = 0.9
	insufficientWikipediaSimilar = 0.6
)

// Verifier judges claims against their evidence. It is safe for concurrent
// use; a single Verify call fans claims out over a worker pool.
type Verifier struct {
	config   model.PipelineConfig
	graph    kg.Graph
	engine   nli.Engine
	detector *hallucination.Detector
	pool     *worker.Pool
	logger   *zap.Logger
}

// NewVerifier creates a verifier. A nil graph behaves as an empty one and
// a nil engine means textual evidence uses the similarity fallback.
func NewVerifier(cfg model.PipelineConfig, graph kg.Graph, engine nli.Engine, logger *zap.Logger) *Verifier {
	if graph == nil {
		graph = kg.NewStaticGraph(model.KnowledgeGraph{})
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Verifier{
		config:   cfg,
		graph:    graph,
		engine:   engine,
		detector: hallucination.NewDetector(),
		pool:     worker.NewPool(cfg.Workers, logger),
		logger:   logger,
	}
}

// Verify runs the map phase and the document post-pass. The returned claims
// are copies carrying verification results and hallucination flags; the
// input slice is not modified. A per-claim failure becomes an
// INSUFFICIENT_EVIDENCE verdict for that claim only.
func (v *Verifier) Verify(ctx context.Context, claims []model.Claim) ([]model.Claim, []model.DocumentSignal, error) {
	verified, errs := worker.Map(ctx, v.pool, claims, func(ctx context.Context, c model.Claim) (model.Claim, error) {
		return v.VerifyClaim(ctx, c), nil
	})

	if err := ctx.Err(); err != nil {
		return nil, nil, eris.Wrap(err, "verify: cancelled")
	}

	for i, err := range errs {
		if err == nil {
			continue
		}
		v.logger.Warn("Claim verification failed",
			zap.String("claim_id", claims[i].ID),
			zap.Error(err))
		verified[i] = failedClaim(claims[i], err)
	}

	verified, signals := v.postPass(verified)

	if err := CheckInvariants(verified); err != nil {
		return nil, nil, eris.Wrap(err, "verify: output invariant")
	}
	return verified, signals, nil
}

func failedClaim(c model.Claim, err error) model.Claim {
	message := err.Error()
	var panicked *worker.PanicError
	if errors.As(err, &panicked) {
		message = panicked.Message()
	}

	c.Hallucinations = nil
	c.Verification = &model.VerificationResult{
		Verdict:             model.VerdictInsufficient,
		Confidence:          0.0,
		UsedEvidenceIDs:     []string{},
		ContradictedBy:      []string{},
		Reasoning:           fmt.Sprintf("Verification error: %s", message),
		EvidenceSufficiency: classifySufficiency(c.Evidence, nil),
		EvidenceSummary:     buildSummary(c.Evidence, nil),
	}
	return c
}

// VerifyClaim judges one claim. The result depends only on the claim, the
// configuration and the graph.
func (v *Verifier) VerifyClaim(ctx context.Context, c model.Claim) model.Claim {
	a := v.assess(ctx, &c)

	flags := v.detector.Detect(&c)
	flags = append(flags, a.textualFlags...)
	a.flags = flags

	d := resolve(&c, a)

	asserted := assertedFacets(&c)
	status := facetStatus(asserted, a)
	d = adjustForFacets(d, asserted, status, a)

	if d.verdict == model.VerdictSupported {
		flags = nil
	}

	used := []string{}
	if !d.dropSupport {
		used = dedupIDs(a.supporting)
	}

	result := &model.VerificationResult{
		Verdict:                     d.verdict,
		Confidence:                  round2(d.confidence),
		UsedEvidenceIDs:             used,
		ContradictedBy:              dedupIDs(a.refuting),
		Reasoning:                   d.reasoning,
		EvidenceSufficiency:         classifySufficiency(c.Evidence, used),
		EvidenceSummary:             buildSummary(c.Evidence, used),
		AuthoritativeContradictions: a.contradictions,
	}
	if len(asserted) > 0 {
		result.FacetStatus = status
	}

	c.Verification = result
	c.Hallucinations = flags
	return c
}

// eligible items pertain to the claim: subject and predicate both match,
// and temporal claims additionally need a temporal judgement
func eligible(c *model.Claim, a model.Alignment) bool {
	if a.Subject() != model.MatchTrue || a.Predicate() != model.MatchTrue {
		return false
	}
	if c.Type == model.ClaimTypeTemporal && a.Temporal() == model.MatchUnknown {
		return false
	}
	return true
}

// assess scans the evidence in authority order and collects everything the
// rules need
func (v *Verifier) assess(ctx context.Context, c *model.Claim) *assessment {
	a := newAssessment(c)
	targets := kg.TargetProperties(c.Predicate, c.Text)
	positive := v.positiveProperties(c)

	for _, d := range c.Evidence.PrimaryDocument {
		if !eligible(c, d.Alignment()) {
			continue
		}
		a.eligible++
		a.lockSupport(d, primarySupportScore)
	}

	for _, f := range c.Evidence.Wikidata {
		if !eligible(c, f.Alignment()) {
			continue
		}
		a.eligible++
		v.assessWikidata(c, f, a)
	}

	for _, f := range c.Evidence.Wikidata {
		if contradiction := v.structuredContradiction(c, f, targets, positive); contradiction != nil {
			a.addContradiction(f, *contradiction)
		}
	}

	for _, p := range c.Evidence.Wikipedia {
		if !eligible(c, p.Alignment()) {
			continue
		}
		a.eligible++
		v.assessWikipedia(ctx, c, p, a)
	}

	if !a.directSupport && !a.contradiction {
		v.knowledgeGraphFallback(c, a)
	}
	return a
}

func (v *Verifier) assessWikidata(c *model.Claim, f model.WikidataFact, a *assessment) {
	alignment := f.Alignment()
	canonical := kg.CanonicalProps.Has(f.Property)
	temporal := claimTemporalValue(c)

	// A temporal mismatch only counts when the claim carries a year at all
	if alignment.Temporal() == model.MatchFalse && !canonical && temporal != "" &&
		!temporalCompatible(temporal, string(f.Value)) {
		a.addRefutation(f, structuredRefutationScore)
		return
	}

	switch {
	case canonical && v.canonicalSupportCompatible(c, f):
		a.addSupport(f, canonicalSupportScore)
	case alignment.Object() == model.MatchTrue || alignment.Temporal() == model.MatchTrue:
		a.addSupport(f, structuredSupportScore)
	case alignment.Object() == model.MatchUnknown && alignment.Temporal() == model.MatchUnknown:
		a.addSupport(f, partialStructuredSupport)
	}
}

func (v *Verifier) assessWikipedia(ctx context.Context, c *model.Claim, p model.WikipediaPassage, a *assessment) {
	premise := p.Premise()
	if premise == "" {
		return
	}

	signal := align.ScoreAlignment(c.Text, p, v.classify(ctx, premise, c.Text, p))
	switch signal.Signal {
	case model.SignalSupport:
		a.addSupport(p, signal.Score)
	case model.SignalContradiction:
		a.addRefutation(p, signal.Score)
		if flag := align.Attribute(signal, p); flag != nil {
			a.textualFlags = append(a.textualFlags, *flag)
		}
	case model.SignalWeakSupport:
		a.weakCount++
		a.weakTotal += signal.Score
	}
}

// classify picks the NLI result for a passage: the similarity fallback when
// inference is disabled, then a result scored upstream, then the engine
func (v *Verifier) classify(ctx context.Context, premise, hypothesis string, p model.WikipediaPassage) model.NLIResult {
	if v.config.Ablation.DisableNLI {
		return nli.Fallback(p.Score)
	}
	if p.NLI != nil {
		return *p.NLI
	}
	if v.engine == nil {
		return nli.Fallback(p.Score)
	}

	result, err := v.engine.Classify(ctx, premise, hypothesis)
	if err != nil {
		v.logger.Debug("NLI failed, using similarity fallback",
			zap.String("evidence_id", p.ID()),
			zap.Error(err))
		return nli.Fallback(p.Score)
	}
	return result
}

// knowledgeGraphFallback supports an otherwise undecided canonical claim
// from the first statement of the property that settles it
func (v *Verifier) knowledgeGraphFallback(c *model.Claim, a *assessment) {
	if !c.IsAsserted() || !c.SubjectEntity.IsResolved() {
		return
	}
	prop := fallbackProperty(c)
	if prop == "" {
		return
	}

	for _, f := range c.Evidence.Wikidata {
		if f.Property == prop {
			a.supporting = append(a.supporting, f.ID())
			a.supportedProps.Add(f.Property)
			a.directSupport = true
			a.bestSupport = knowledgeGraphFallbackScore
			a.bestItem = f
			return
		}
	}
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
