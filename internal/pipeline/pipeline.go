package pipeline

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/ppiankov/epistemia/internal/extract"
	"github.com/ppiankov/epistemia/internal/hallucination"
	"github.com/ppiankov/epistemia/internal/kg"
	"github.com/ppiankov/epistemia/internal/model"
	"github.com/ppiankov/epistemia/internal/nli"
	"github.com/ppiankov/epistemia/internal/risk"
	"github.com/ppiankov/epistemia/internal/verify"
)

// Graph lookups are memoized for the lifetime of one document
const graphCacheTTL = 10 * time.Minute

// Pipeline orchestrates the complete audit of one claim document
type Pipeline struct {
	config     model.PipelineConfig
	engine     nli.Engine // Optional (nil uses the similarity fallback)
	aggregator *risk.Aggregator
	renderer   *Renderer
	logger     *zap.Logger
}

// NewPipeline creates a new pipeline with the given configuration
func NewPipeline(cfg model.PipelineConfig, engine nli.Engine, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		config:     cfg,
		engine:     engine,
		aggregator: risk.NewAggregator(),
		renderer:   NewRenderer(true),
		logger:     logger,
	}
}

// Run verifies every claim in doc and aggregates the document risk. The
// document is not modified.
func (p *Pipeline) Run(ctx context.Context, doc *model.Document) (*model.Report, error) {
	if doc == nil {
		return nil, eris.New("pipeline: nil document")
	}
	cfg := p.configFor(doc)

	// 1. Structural pre-filter, evidence-free
	var signals []model.DocumentSignal
	if signal := prefilterSignal(Screen(doc)); signal != nil {
		signals = append(signals, *signal)
	}

	// 2. Verify claims against their evidence
	graph := kg.NewCachedGraph(kg.NewStaticGraph(doc.KnowledgeGraph), graphCacheTTL)
	verifier := verify.NewVerifier(cfg, graph, p.engine, p.logger)

	claims, verifySignals, err := verifier.Verify(ctx, doc.Claims)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: verify")
	}
	signals = append(signals, verifySignals...)

	// 3. Aggregate document risk
	docRisk, formula := p.aggregator.Calculate(claims)
	signals = append(signals, formula)

	p.logger.Info("Audit complete",
		zap.String("subject", doc.Subject),
		zap.Int("claims", len(claims)),
		zap.String("risk", string(docRisk.OverallRisk)),
		zap.Float64("score", docRisk.HallucinationScore),
	)

	return &model.Report{
		Subject:   doc.Subject,
		SourceURL: doc.SourceURL,
		Claims:    claims,
		Risk:      docRisk,
		Signals:   signals,
		Config:    cfg,
	}, nil
}

// AuditFile loads a document from disk and runs it
func (p *Pipeline) AuditFile(ctx context.Context, path string) (*model.Report, error) {
	doc, err := extract.LoadDocument(path)
	if err != nil {
		return nil, err
	}

	report, err := p.Run(ctx, doc)
	if err != nil {
		return nil, eris.Wrapf(err, "pipeline: audit %s", path)
	}
	return report, nil
}

// configFor applies the document's own pipeline_config, keeping the
// pipeline's worker count when the document leaves it unset
func (p *Pipeline) configFor(doc *model.Document) model.PipelineConfig {
	if doc.Config == nil {
		return p.config
	}
	cfg := *doc.Config
	if cfg.Workers <= 0 {
		cfg.Workers = p.config.Workers
	}
	return cfg
}

// SetRenderer replaces the renderer used by RenderReport
func (p *Pipeline) SetRenderer(r *Renderer) {
	p.renderer = r
}

// RenderReport renders the report to the specified outputs and prints a
// summary to w
func (p *Pipeline) RenderReport(w io.Writer, report *model.Report, jsonPath string, mdPath string, verbose bool) error {
	if jsonPath != "" {
		if err := p.renderer.RenderFile(report, jsonPath, FormatJSON); err != nil {
			return eris.Wrap(err, "pipeline: render JSON")
		}
		if verbose {
			_, _ = fmt.Fprintf(w, "✓ Wrote JSON: %s\n", jsonPath)
		}
	}

	if mdPath != "" {
		if err := p.renderer.RenderFile(report, mdPath, FormatMarkdown); err != nil {
			return eris.Wrap(err, "pipeline: render markdown")
		}
		if verbose {
			_, _ = fmt.Fprintf(w, "✓ Wrote Markdown: %s\n", mdPath)
		}
	}

	p.renderer.RenderSummary(w, report)
	return nil
}

// ScreenResult is the evidence-free pre-filter outcome for one claim
type ScreenResult struct {
	ClaimID   string                   `json:"claim_id"`
	ClaimText string                   `json:"claim_text"`
	Flag      *model.HallucinationFlag `json:"flag,omitempty"`
}

// Screen runs the structural pre-filter over every claim without looking at
// evidence. Results keep claim order.
func Screen(doc *model.Document) []ScreenResult {
	detector := hallucination.NewDetector()

	results := make([]ScreenResult, 0, len(doc.Claims))
	for i := range doc.Claims {
		c := &doc.Claims[i]
		results = append(results, ScreenResult{
			ClaimID:   c.ID,
			ClaimText: c.Text,
			Flag:      detector.DetectStructural(c),
		})
	}
	return results
}

// prefilterSignal summarizes flagged screen results, or returns nil when
// nothing was flagged
func prefilterSignal(results []ScreenResult) *model.DocumentSignal {
	var ids []string
	flags := make(map[string]interface{})
	severity := model.LevelWarning

	for _, r := range results {
		if r.Flag == nil {
			continue
		}
		ids = append(ids, r.ClaimID)
		flags[r.ClaimID] = string(r.Flag.Type)
		if r.Flag.Severity == model.SeverityCritical {
			severity = model.LevelCritical
		}
	}
	if len(ids) == 0 {
		return nil
	}

	return &model.DocumentSignal{
		Type:        model.SignalStructuralPrefilter,
		Severity:    severity,
		Description: fmt.Sprintf("%d of %d claims flagged before evidence was consulted", len(ids), len(results)),
		ClaimIDs:    ids,
		Data:        map[string]interface{}{"flags": flags},
	}
}
