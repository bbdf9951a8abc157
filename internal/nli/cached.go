package nli

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/ppiankov/epistemia/internal/cache"
	"github.com/ppiankov/epistemia/internal/model"
)

// CachedEngine memoizes classifications by (model, premise, hypothesis)
type CachedEngine struct {
	inner  Engine
	store  cache.Cache
	model  string
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedEngine wraps inner with a result cache
func NewCachedEngine(inner Engine, store cache.Cache, modelName string, ttl time.Duration, logger *zap.Logger) *CachedEngine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedEngine{
		inner:  inner,
		store:  store,
		model:  modelName,
		ttl:    ttl,
		logger: logger,
	}
}

// Classify implements Engine. Errors are never cached.
func (e *CachedEngine) Classify(ctx context.Context, premise, hypothesis string) (model.NLIResult, error) {
	key := cache.Key("nli", e.model, premise, hypothesis)

	if data, ok := e.store.Get(key); ok {
		var result model.NLIResult
		if err := json.Unmarshal(data, &result); err == nil {
			return result, nil
		}
		e.logger.Debug("Discarding unreadable NLI cache entry", zap.String("key", key))
	}

	result, err := e.inner.Classify(ctx, premise, hypothesis)
	if err != nil {
		return result, err
	}

	data, err := json.Marshal(result)
	if err == nil {
		err = e.store.Set(key, data, e.ttl)
	}
	if err != nil {
		e.logger.Warn("Failed to cache NLI result", zap.Error(err))
	}
	return result, nil
}
