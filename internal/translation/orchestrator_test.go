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
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loqalabs/loqa-transcript/internal/config"
	"github.com/loqalabs/loqa-transcript/internal/language"
)

func testTranslationConfig() config.TranslationConfig {
	return config.TranslationConfig{
		CacheSize:     100,
		MaxConcurrent: 10,
		StickyEngine:  true,
	}
}

// fakeEngine is a scriptable engine for orchestrator tests
type fakeEngine struct {
	name      string
	available atomic.Bool
	fail      atomic.Bool
	calls     atomic.Int64

	startedOnce sync.Once
	started     chan struct{} // closed when the first Translate call arrives
	release     chan struct{} // when set, Translate blocks until closed
}

func newFakeEngine(name string) *fakeEngine {
	e := &fakeEngine{name: name, started: make(chan struct{})}
	e.available.Store(true)
	return e
}

func (f *fakeEngine) Name() string { return f.name }

func (f *fakeEngine) Available() bool { return f.available.Load() }

func (f *fakeEngine) Supports(source, target language.Language) bool {
	return source != target
}

func (f *fakeEngine) Translate(_ context.Context, req Request) (*Result, error) {
	f.calls.Add(1)
	f.startedOnce.Do(func() { close(f.started) })
	if f.release != nil {
		<-f.release
	}
	if f.fail.Load() {
		return nil, errors.New("engine down")
	}
	return &Result{
		TranslatedText: "[" + f.name + "] " + req.Text,
		SourceLang:     req.Source,
		TargetLang:     req.Target,
		Confidence:     0.9,
		Engine:         f.name,
		ProcessingTime: 5,
	}, nil
}

func TestOfflineFallbackTranslation(t *testing.T) {
	o := NewOrchestrator(testTranslationConfig(), NewOfflineEngine())

	result, err := o.Translate(context.Background(), Request{
		Text:   "thank you",
		Source: language.English,
		Target: language.Malay,
	})
	require.NoError(t, err)

	assert.Equal(t, "terima kasih", result.TranslatedText)
	assert.GreaterOrEqual(t, result.Confidence, 0.5)
	assert.Equal(t, "offline-dictionary", result.Engine)
	assert.False(t, result.Cached)
}

func TestTranslateIdentityPair(t *testing.T) {
	o := NewOrchestrator(testTranslationConfig(), NewOfflineEngine())

	result, err := o.Translate(context.Background(), Request{
		Text:   "hello",
		Source: language.English,
		Target: language.English,
	})
	require.NoError(t, err)
	assert.Equal(t, "hello", result.TranslatedText)
	assert.Equal(t, 1.0, result.Confidence)
}

func TestTranslateUnsupportedPair(t *testing.T) {
	o := NewOrchestrator(testTranslationConfig(), NewOfflineEngine())

	_, err := o.Translate(context.Background(), Request{
		Text:   "bonjour",
		Source: language.Language("fr"),
		Target: language.English,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupportedLanguagePair)
	assert.NotErrorIs(t, err, ErrAllEnginesUnavailable)
}

func TestTranslateCacheHit(t *testing.T) {
	o := NewOrchestrator(testTranslationConfig(), NewOfflineEngine())
	req := Request{Text: "good morning", Source: language.English, Target: language.Malay}

	first, err := o.Translate(context.Background(), req)
	require.NoError(t, err)
	require.False(t, first.Cached)

	second, err := o.Translate(context.Background(), req)
	require.NoError(t, err)

	assert.True(t, second.Cached)
	assert.Equal(t, int64(0), second.ProcessingTime, "cache hits must report zero latency")
	assert.Equal(t, first.TranslatedText, second.TranslatedText)
	assert.Equal(t, first.Confidence, second.Confidence)
	assert.Equal(t, first.Engine, second.Engine)
}

func TestCacheFIFOEviction(t *testing.T) {
	cfg := testTranslationConfig()
	cfg.CacheSize = 3
	engine := newFakeEngine("fake")
	o := NewOrchestrator(cfg, engine, NewOfflineEngine())

	ctx := context.Background()
	for i := 0; i < 4; i++ {
		_, err := o.Translate(ctx, Request{
			Text:   fmt.Sprintf("text %d", i),
			Source: language.English,
			Target: language.Malay,
		})
		require.NoError(t, err)
	}
	assert.Equal(t, 3, o.CacheLen())

	calls := engine.calls.Load()

	// The oldest insertion was evicted and must hit the engine again
	_, err := o.Translate(ctx, Request{Text: "text 0", Source: language.English, Target: language.Malay})
	require.NoError(t, err)
	assert.Equal(t, calls+1, engine.calls.Load())

	// A recent insertion is still cached
	_, err = o.Translate(ctx, Request{Text: "text 3", Source: language.English, Target: language.Malay})
	require.NoError(t, err)
	assert.Equal(t, calls+1, engine.calls.Load())
}

func TestRetryOnGuaranteedFallback(t *testing.T) {
	flaky := newFakeEngine("flaky")
	flaky.fail.Store(true)
	o := NewOrchestrator(testTranslationConfig(), flaky, NewOfflineEngine())

	result, err := o.Translate(context.Background(), Request{
		Text:   "thank you",
		Source: language.English,
		Target: language.Malay,
	})
	require.NoError(t, err)
	assert.Equal(t, "offline-dictionary", result.Engine)
	assert.Equal(t, "terima kasih", result.TranslatedText)
}

func TestAllEnginesUnavailable(t *testing.T) {
	down := newFakeEngine("down")
	down.fail.Store(true)
	// No guaranteed engine behind it: the only configured engine fails
	o := NewOrchestrator(testTranslationConfig(), down)

	_, err := o.Translate(context.Background(), Request{
		Text:   "hello",
		Source: language.English,
		Target: language.Malay,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAllEnginesUnavailable)
}

func TestStickyEnginePreference(t *testing.T) {
	primary := newFakeEngine("primary")
	secondary := newFakeEngine("secondary")
	o := NewOrchestrator(testTranslationConfig(), primary, secondary, NewOfflineEngine())

	ctx := context.Background()
	_, err := o.Translate(ctx, Request{Text: "one", Source: language.English, Target: language.Malay})
	require.NoError(t, err)
	require.Equal(t, int64(1), primary.calls.Load())

	// Primary drops out; the next call falls through and sticks to the
	// engine that served it
	primary.available.Store(false)
	_, err = o.Translate(ctx, Request{Text: "two", Source: language.English, Target: language.Malay})
	require.NoError(t, err)
	require.Equal(t, int64(1), secondary.calls.Load())

	primary.available.Store(true)
	_, err = o.Translate(ctx, Request{Text: "three", Source: language.English, Target: language.Malay})
	require.NoError(t, err)

	assert.Equal(t, int64(1), primary.calls.Load(), "sticky preference should keep using secondary")
	assert.Equal(t, int64(2), secondary.calls.Load())
}

func TestConcurrentIdenticalRequestsCoalesce(t *testing.T) {
	engine := newFakeEngine("slow")
	engine.release = make(chan struct{})
	o := NewOrchestrator(testTranslationConfig(), engine, NewOfflineEngine())

	req := Request{Text: "hello", Source: language.English, Target: language.Chinese}

	const n = 8
	var wg sync.WaitGroup
	results := make([]*Result, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r, err := o.Translate(context.Background(), req)
			if err == nil {
				results[i] = r
			}
		}(i)
	}

	// Wait for the single in-flight engine call, then release it
	<-engine.started
	close(engine.release)
	wg.Wait()

	assert.Equal(t, int64(1), engine.calls.Load(), "identical in-flight requests must share one engine call")
	for i := 0; i < n; i++ {
		require.NotNil(t, results[i])
		assert.Equal(t, results[0].TranslatedText, results[i].TranslatedText)
	}
}

func TestTranslateBatchDegradation(t *testing.T) {
	o := NewOrchestrator(testTranslationConfig(), NewOfflineEngine())

	reqs := []Request{
		{Text: "thank you", Source: language.English, Target: language.Malay},
		{Text: "bonjour", Source: language.Language("fr"), Target: language.English},
		{Text: "hello", Source: language.English, Target: language.Chinese},
	}
	results := o.TranslateBatch(context.Background(), reqs)
	require.Len(t, results, 3)

	assert.Equal(t, "terima kasih", results[0].TranslatedText)
	assert.Equal(t, "你好", results[2].TranslatedText)

	// The unsupported item degrades in place instead of failing the batch
	assert.Equal(t, "bonjour", results[1].TranslatedText)
	assert.Equal(t, 0.0, results[1].Confidence)
	assert.NotEmpty(t, results[1].Notes)
}

func TestAutoSourceResolution(t *testing.T) {
	o := NewOrchestrator(testTranslationConfig(), NewOfflineEngine())
	o.SetSourceResolver(func(text string) language.Language {
		return language.Chinese
	})

	result, err := o.Translate(context.Background(), Request{
		Text:   "谢谢",
		Source: Auto,
		Target: language.Malay,
	})
	require.NoError(t, err)
	assert.Equal(t, language.Chinese, result.SourceLang)
	assert.Equal(t, "terima kasih", result.TranslatedText)
}

func TestOfflineUntranslatedDegradation(t *testing.T) {
	engine := NewOfflineEngine()

	result, err := engine.Translate(context.Background(), Request{
		Text:   "quantum chromodynamics",
		Source: language.English,
		Target: language.Malay,
	})
	require.NoError(t, err)
	assert.Equal(t, "[untranslated] quantum chromodynamics", result.TranslatedText)
	assert.InDelta(t, 0.05, result.Confidence, 1e-9)
	assert.NotEmpty(t, result.Notes)
}

func TestOfflineCulturalNotes(t *testing.T) {
	engine := NewOfflineEngine()

	result, err := engine.Translate(context.Background(), Request{
		Text:   "thank you",
		Source: language.English,
		Target: language.Malay,
	})
	require.NoError(t, err)
	require.NotNil(t, result)

	result2, err := engine.Translate(context.Background(), Request{
		Text:   "terima kasih",
		Source: language.Malay,
		Target: language.English,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, result2.CulturalNotes, "known phrases should carry adaptation notes")
}

func TestClearCache(t *testing.T) {
	o := NewOrchestrator(testTranslationConfig(), NewOfflineEngine())

	_, err := o.Translate(context.Background(), Request{
		Text: "hello", Source: language.English, Target: language.Malay,
	})
	require.NoError(t, err)
	require.Equal(t, 1, o.CacheLen())

	o.ClearCache()
	assert.Equal(t, 0, o.CacheLen())
}
