// Package nli classifies premise/hypothesis pairs for textual evidence.
//
// Inference is optional. When no engine is configured, or a request fails,
// the verifier degrades to Fallback, which derives a pseudo-entailment from
// the retrieval similarity alone.
package nli

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/ppiankov/epistemia/internal/cache"
	"github.com/ppiankov/epistemia/internal/model"
)

// FallbackEntailmentFloor is the similarity above which the fallback
// reports entailment
const FallbackEntailmentFloor = 0.8

// Engine classifies whether premise entails or contradicts hypothesis.
// Probabilities are independent and need not sum to one.
type Engine interface {
	Classify(ctx context.Context, premise, hypothesis string) (model.NLIResult, error)
}

// Fallback is the similarity-only result used when NLI is disabled or unavailable
func Fallback(similarity float64) model.NLIResult {
	result := model.NLIResult{Neutral: 1.0}
	if similarity > FallbackEntailmentFloor {
		result.Entailment = FallbackEntailmentFloor
	}
	return result
}

// NewEngine creates an engine for the configured provider. It returns a nil
// engine when inference is disabled. A non-nil store memoizes results.
func NewEngine(cfg model.NLIConfig, seed *int, store cache.Cache, ttl time.Duration, logger *zap.Logger) (Engine, error) {
	var engine Engine

	switch strings.ToLower(cfg.Provider) {
	case "", "none":
		return nil, nil

	case "openai":
		e, err := NewOpenAIEngine(cfg, seed)
		if err != nil {
			return nil, err
		}
		engine = e

	case "ollama":
		if cfg.BaseURL == "" {
			cfg.BaseURL = DefaultOllamaURL
		}
		if cfg.APIKey == "" {
			cfg.APIKey = "ollama"
		}
		e, err := NewOpenAIEngine(cfg, seed)
		if err != nil {
			return nil, err
		}
		engine = e

	default:
		return nil, eris.Errorf("nli: unknown provider %q (supported: none, openai, ollama)", cfg.Provider)
	}

	if store != nil {
		engine = NewCachedEngine(engine, store, cfg.Model, ttl, logger)
	}
	return engine, nil
}
