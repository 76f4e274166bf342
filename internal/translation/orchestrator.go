/*
 * This file is part of Loqa (https://github.com/loqalabs/loqa).
 * Copyright (C) 2025 Loqa Labs
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU Affero General Public License as published by
 * the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
 * GNU Affero General Public License for more details.
 *
 * You should have received a copy of the GNU Affero General Public License
 * along with this program. If not, see <https://www.gnu.org/licenses/>.
 */

package translation

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/loqalabs/loqa-transcript/internal/config"
	"github.com/loqalabs/loqa-transcript/internal/language"
	"github.com/loqalabs/loqa-transcript/internal/logging"
	"github.com/loqalabs/loqa-transcript/internal/metrics"
)

// SourceResolver maps text to a source language when a request asks for
// auto-detection. Injected so the orchestrator stays independent of the
// detection engine.
type SourceResolver func(text string) language.Language

// Orchestrator routes translation requests across an ordered engine list:
// cached results first, then a sticky preferred engine, then priority-order
// probing, with one retry against the guaranteed last engine. Identical
// in-flight requests coalesce into a single underlying call.
type Orchestrator struct {
	cfg      config.TranslationConfig
	engines  []Engine // priority order; last must be guaranteed available
	resolver SourceResolver

	group singleflight.Group

	mu        sync.Mutex
	preferred Engine
	cache     map[string]Result
	cacheFIFO []string // insertion order, oldest first
}

// NewOrchestrator creates an orchestrator over the given engines. The last
// engine is treated as the guaranteed fallback and must always be available.
func NewOrchestrator(cfg config.TranslationConfig, engines ...Engine) *Orchestrator {
	if len(engines) == 0 {
		engines = []Engine{NewOfflineEngine()}
	}
	return &Orchestrator{
		cfg:     cfg,
		engines: engines,
		cache:   make(map[string]Result),
	}
}

// SetSourceResolver installs the auto-detection hook
func (o *Orchestrator) SetSourceResolver(resolver SourceResolver) {
	o.resolver = resolver
}

// Translate resolves one request through cache, preferred engine, and
// fallback. It returns an error only when every path is exhausted.
func (o *Orchestrator) Translate(ctx context.Context, req Request) (*Result, error) {
	req, err := o.normalize(req)
	if err != nil {
		return nil, err
	}

	if req.Source == req.Target {
		return &Result{
			TranslatedText: req.Text,
			SourceLang:     req.Source,
			TargetLang:     req.Target,
			Confidence:     1,
			Engine:         "identity",
			Notes:          []string{"source and target language are identical"},
		}, nil
	}

	if !o.pairSupported(req) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrUnsupportedLanguagePair, req.Source, req.Target)
	}

	key := cacheKey(req)

	if cached, ok := o.cacheGet(key); ok {
		metrics.Default.TranslationCacheHits.Inc()
		cached.Cached = true
		cached.ProcessingTime = 0
		return &cached, nil
	}

	// Identical in-flight requests share one underlying engine call and
	// one cache write
	value, err, _ := o.group.Do(key, func() (interface{}, error) {
		result, err := o.invoke(ctx, req)
		if err != nil {
			return nil, err
		}
		o.cachePut(key, *result)
		return result, nil
	})
	if err != nil {
		return nil, err
	}

	result := value.(*Result)
	logging.LogTranslation(result.Engine, string(req.Source), string(req.Target),
		zap.Int64("processing_time_ms", result.ProcessingTime),
		zap.Float64("confidence", result.Confidence),
	)
	return result, nil
}

// TranslateBatch fans out all requests concurrently. A failed item degrades
// to a zero-confidence result carrying the original text and a failure note;
// it never aborts sibling items. The call returns once every item resolved.
func (o *Orchestrator) TranslateBatch(ctx context.Context, reqs []Request) []*Result {
	results := make([]*Result, len(reqs))

	var wg sync.WaitGroup
	for i, req := range reqs {
		wg.Add(1)
		go func(i int, req Request) {
			defer wg.Done()
			result, err := o.Translate(ctx, req)
			if err != nil {
				result = &Result{
					TranslatedText: req.Text,
					SourceLang:     req.Source,
					TargetLang:     req.Target,
					Confidence:     0,
					Notes:          []string{fmt.Sprintf("translation failed: %v", err)},
				}
			}
			results[i] = result
		}(i, req)
	}
	wg.Wait()

	return results
}

// invoke selects an engine and executes the request, retrying once against
// the guaranteed last engine on failure
func (o *Orchestrator) invoke(ctx context.Context, req Request) (*Result, error) {
	engine := o.selectEngine(req)
	if engine == nil {
		return nil, fmt.Errorf("%w: no engine reports available", ErrAllEnginesUnavailable)
	}

	result, err := o.translateWith(ctx, engine, req)
	if err == nil {
		o.setPreferred(engine)
		return result, nil
	}

	fallback := o.engines[len(o.engines)-1]
	if engine == fallback {
		return nil, fmt.Errorf("%w: %s failed: %v", ErrAllEnginesUnavailable, engine.Name(), err)
	}

	metrics.Default.TranslationFallbacks.Inc()
	logging.LogWarn("Translation engine failed, retrying on fallback",
		zap.String("engine", engine.Name()),
		zap.String("fallback", fallback.Name()),
		zap.Error(err),
	)

	result, fallbackErr := o.translateWith(ctx, fallback, req)
	if fallbackErr != nil {
		return nil, fmt.Errorf("%w: %s failed: %v; %s failed: %v",
			ErrAllEnginesUnavailable, engine.Name(), err, fallback.Name(), fallbackErr)
	}

	o.setPreferred(fallback)
	return result, nil
}

func (o *Orchestrator) translateWith(ctx context.Context, engine Engine, req Request) (*Result, error) {
	timer := metrics.Default.TranslationDuration.WithLabelValues(engine.Name())
	result, err := engine.Translate(ctx, req)
	if err != nil {
		metrics.Default.TranslationsTotal.WithLabelValues(engine.Name(), "error").Inc()
		return nil, err
	}
	metrics.Default.TranslationsTotal.WithLabelValues(engine.Name(), "success").Inc()
	timer.Observe(float64(result.ProcessingTime) / 1000)
	return result, nil
}

// selectEngine prefers the last successfully used engine when sticky and
// still available, otherwise probes in priority order
func (o *Orchestrator) selectEngine(req Request) Engine {
	o.mu.Lock()
	preferred := o.preferred
	o.mu.Unlock()

	if o.cfg.StickyEngine && preferred != nil &&
		preferred.Supports(req.Source, req.Target) && preferred.Available() {
		return preferred
	}

	for _, engine := range o.engines {
		if engine.Supports(req.Source, req.Target) && engine.Available() {
			return engine
		}
	}
	return nil
}

func (o *Orchestrator) setPreferred(engine Engine) {
	o.mu.Lock()
	o.preferred = engine
	o.mu.Unlock()
}

// normalize resolves auto-detection and validates the language pair
func (o *Orchestrator) normalize(req Request) (Request, error) {
	if req.Source == Auto {
		if o.resolver != nil {
			req.Source = o.resolver(req.Text)
		} else {
			req.Source = language.English
		}
	}

	for _, lang := range []language.Language{req.Source, req.Target} {
		switch lang {
		case language.Chinese, language.English, language.Malay:
		default:
			return req, fmt.Errorf("%w: %s -> %s", ErrUnsupportedLanguagePair, req.Source, req.Target)
		}
	}
	return req, nil
}

// pairSupported reports whether any engine has a route for the pair
func (o *Orchestrator) pairSupported(req Request) bool {
	for _, engine := range o.engines {
		if engine.Supports(req.Source, req.Target) {
			return true
		}
	}
	return false
}

// cacheGet returns a copy of the cached result for key
func (o *Orchestrator) cacheGet(key string) (Result, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	result, ok := o.cache[key]
	return result, ok
}

// cachePut stores a result, evicting the oldest insertion beyond capacity.
// Eviction follows insertion order, not recency of use.
func (o *Orchestrator) cachePut(key string, result Result) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if _, exists := o.cache[key]; !exists {
		o.cacheFIFO = append(o.cacheFIFO, key)
	}
	o.cache[key] = result

	for len(o.cacheFIFO) > o.cfg.CacheSize {
		oldest := o.cacheFIFO[0]
		o.cacheFIFO = o.cacheFIFO[1:]
		delete(o.cache, oldest)
	}
}

// ClearCache empties the translation cache
func (o *Orchestrator) ClearCache() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.cache = make(map[string]Result)
	o.cacheFIFO = nil
}

// CacheLen returns the number of cached translations
func (o *Orchestrator) CacheLen() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.cache)
}

func cacheKey(req Request) string {
	return string(req.Source) + "|" + string(req.Target) + "|" + req.Text
}
