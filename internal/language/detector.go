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

package language

import (
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode"

	"go.uber.org/zap"

	"github.com/loqalabs/loqa-transcript/internal/config"
	"github.com/loqalabs/loqa-transcript/internal/logging"
)

// blendHistoryDepth is how many trailing history records participate in
// confidence blending
const blendHistoryDepth = 10

// Detection is one ranked (language, confidence) pair
type Detection struct {
	Language   Language `json:"language"`
	Confidence float64  `json:"confidence"`
}

// Result is the outcome of a single detection call
type Result struct {
	// Primary is the winning language, or Mixed when no language dominates
	Primary Language `json:"primary"`
	// Confidence is the blended simplex score of the winning language
	Confidence float64 `json:"confidence"`
	// Detections ranks all three languages by normalized score
	Detections []Detection `json:"detections"`
	// Breakdown is the normalized per-language score simplex
	Breakdown Breakdown `json:"breakdown"`
	Mixed     bool      `json:"mixed"`
	// SwitchPoints are token indices where the locally classified language
	// differs from the previous token's
	SwitchPoints []int `json:"switch_points,omitempty"`
	// CulturalMarkers are "culture:keyword" tags from substring hits
	CulturalMarkers []string `json:"cultural_markers,omitempty"`
}

// HistoryRecord is one appended detection, read-only to consumers
type HistoryRecord struct {
	Language   Language  `json:"language"`
	Confidence float64   `json:"confidence"`
	Timestamp  time.Time `json:"timestamp"`
}

// Stats are derived from the rolling history
type Stats struct {
	Distribution      map[Language]float64 `json:"distribution"`
	SwitchFrequency   float64              `json:"switch_frequency"`
	AverageConfidence float64              `json:"average_confidence"`
}

// Engine scores text against the three language models and keeps a bounded
// rolling history. Stateless per call apart from that history.
type Engine struct {
	cfg      config.DetectionConfig
	fallback Language

	patterns map[Language][]*regexp.Regexp
	common   map[Language]map[string]bool
	affixes  []*regexp.Regexp
	cultures map[string][]string

	mu      sync.Mutex
	history []HistoryRecord
}

var (
	stripPattern    = regexp.MustCompile(`[^\p{Han}\w\s]+`)
	collapsePattern = regexp.MustCompile(`\s+`)
)

// NewEngine creates a detection engine with the built-in rule tables
func NewEngine(cfg config.DetectionConfig) *Engine {
	return NewEngineWithRules(cfg, DefaultRuleSet())
}

// NewEngineWithRules creates a detection engine with caller-supplied tables
func NewEngineWithRules(cfg config.DetectionConfig, rules RuleSet) *Engine {
	fallback, err := Parse(cfg.FallbackLanguage)
	if err != nil || fallback == Mixed {
		fallback = English
	}

	e := &Engine{
		cfg:      cfg,
		fallback: fallback,
		patterns: make(map[Language][]*regexp.Regexp),
		common:   make(map[Language]map[string]bool),
		cultures: rules.CultureKeywords,
	}

	for lang, patterns := range rules.Patterns {
		compiled := make([]*regexp.Regexp, len(patterns))
		for i, pattern := range patterns {
			compiled[i] = regexp.MustCompile(pattern)
		}
		e.patterns[lang] = compiled
	}

	for lang, words := range rules.CommonWords {
		set := make(map[string]bool, len(words))
		for _, w := range words {
			set[w] = true
		}
		e.common[lang] = set
	}

	e.affixes = make([]*regexp.Regexp, len(rules.MalayAffixes))
	for i, pattern := range rules.MalayAffixes {
		e.affixes[i] = regexp.MustCompile(pattern)
	}

	return e
}

// Detect scores text against all three languages and returns a ranked result.
// Empty or whitespace-only input yields a zero-confidence fallback result
// without touching history. Detect never returns an error: any internal
// fault degrades to the fallback language.
func (e *Engine) Detect(text string) Result {
	clean := preprocess(text)
	if clean == "" {
		return Result{
			Primary:    e.fallback,
			Confidence: 0,
			Breakdown:  e.fallbackBreakdown(),
			Detections: rankDetections(e.fallbackBreakdown()),
		}
	}

	breakdown := e.score(clean)

	primary, topScore := breakdown.ArgMax()
	if topScore < e.cfg.MinConfidence {
		primary = e.fallback
	}

	mixed := breakdown.SecondMax() > e.cfg.MixedThreshold

	result := Result{
		Primary:         primary,
		Confidence:      topScore,
		Detections:      rankDetections(breakdown),
		Breakdown:       breakdown,
		Mixed:           mixed,
		SwitchPoints:    e.switchPoints(clean),
		CulturalMarkers: e.culturalMarkers(clean),
	}
	if mixed {
		result.Primary = Mixed
	}

	if e.cfg.HistoryEnabled {
		result.Confidence = e.blendConfidence(result.Primary, result.Confidence)
		e.appendHistory(result.Primary, result.Confidence)
	}

	logging.LogDetection(string(result.Primary), result.Confidence,
		zap.Bool("mixed", result.Mixed),
		zap.Int("switch_points", len(result.SwitchPoints)),
	)

	return result
}

// preprocess lowercases, strips everything except word characters,
// whitespace and Han ideographs, and collapses whitespace
func preprocess(text string) string {
	clean := strings.ToLower(text)
	clean = stripPattern.ReplaceAllString(clean, " ")
	clean = collapsePattern.ReplaceAllString(clean, " ")
	return strings.TrimSpace(clean)
}

// score runs the rule tables over preprocessed text and normalizes the raw
// scores to a simplex
func (e *Engine) score(clean string) Breakdown {
	var raw Breakdown

	for _, lang := range Supported() {
		score := 0.0
		for _, pattern := range e.patterns[lang] {
			score += 2 * float64(len(pattern.FindAllStringIndex(clean, -1)))
		}
		for _, token := range strings.Fields(clean) {
			if e.common[lang][token] {
				score += 3
			}
		}
		raw.Set(lang, score)
	}

	raw.Chinese += 5 * float64(countHan(clean))

	for _, affix := range e.affixes {
		raw.Malay += 2 * float64(len(affix.FindAllStringIndex(clean, -1)))
	}

	total := raw.Sum()
	if total == 0 {
		return e.fallbackBreakdown()
	}

	var normalized Breakdown
	for _, lang := range Supported() {
		normalized.Set(lang, raw.Get(lang)/total)
	}
	return normalized
}

// fallbackBreakdown is the degenerate simplex assigning full weight to the
// fallback language
func (e *Engine) fallbackBreakdown() Breakdown {
	var b Breakdown
	b.Set(e.fallback, 1)
	return b
}

// switchPoints classifies every token independently and records each index
// whose language differs from the previous token's
func (e *Engine) switchPoints(clean string) []int {
	tokens := strings.Fields(clean)
	if len(tokens) < 2 {
		return nil
	}

	var points []int
	prev := e.classifyToken(tokens[0])
	for i := 1; i < len(tokens); i++ {
		current := e.classifyToken(tokens[i])
		if current != prev {
			points = append(points, i)
		}
		prev = current
	}
	return points
}

// classifyToken assigns a single token to a language: Han presence wins,
// then the first common-word list containing it, then the fallback
func (e *Engine) classifyToken(token string) Language {
	if countHan(token) > 0 {
		return Chinese
	}
	for _, lang := range Supported() {
		if e.common[lang][token] {
			return lang
		}
	}
	return e.fallback
}

// culturalMarkers emits a "culture:keyword" tag for every substring hit
func (e *Engine) culturalMarkers(clean string) []string {
	var markers []string
	cultures := make([]string, 0, len(e.cultures))
	for culture := range e.cultures {
		cultures = append(cultures, culture)
	}
	sort.Strings(cultures)

	for _, culture := range cultures {
		for _, keyword := range e.cultures[culture] {
			if strings.Contains(clean, keyword) {
				markers = append(markers, culture+":"+keyword)
			}
		}
	}
	return markers
}

// blendConfidence mixes the current score with the average confidence of
// same-language records among the last blendHistoryDepth history entries.
// The weights are preserved reference constants, not re-derived.
func (e *Engine) blendConfidence(primary Language, current float64) float64 {
	e.mu.Lock()
	defer e.mu.Unlock()

	start := len(e.history) - blendHistoryDepth
	if start < 0 {
		start = 0
	}

	sum, count := 0.0, 0
	for _, record := range e.history[start:] {
		if record.Language == primary {
			sum += record.Confidence
			count++
		}
	}
	if count == 0 {
		return current
	}

	w := e.cfg.BlendCurrentWeight
	blended := w*current + (1-w)*(sum/float64(count))
	if blended > 1 {
		blended = 1
	}
	return blended
}

// appendHistory pushes a record, evicting the oldest beyond the window
func (e *Engine) appendHistory(lang Language, confidence float64) {
	if e.cfg.HistoryWindow <= 0 {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.history = append(e.history, HistoryRecord{
		Language:   lang,
		Confidence: confidence,
		Timestamp:  time.Now(),
	})
	if len(e.history) > e.cfg.HistoryWindow {
		e.history = e.history[len(e.history)-e.cfg.HistoryWindow:]
	}
}

// History returns a copy of the rolling detection history
func (e *Engine) History() []HistoryRecord {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]HistoryRecord, len(e.history))
	copy(out, e.history)
	return out
}

// Reset clears the rolling history
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.history = nil
}

// Stats derives language distribution, code-switching frequency and average
// confidence from the rolling history
func (e *Engine) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()

	stats := Stats{Distribution: make(map[Language]float64)}
	if len(e.history) == 0 {
		return stats
	}

	switches := 0
	confidenceSum := 0.0
	for i, record := range e.history {
		stats.Distribution[record.Language]++
		confidenceSum += record.Confidence
		if i > 0 && record.Language != e.history[i-1].Language {
			switches++
		}
	}

	for lang := range stats.Distribution {
		stats.Distribution[lang] /= float64(len(e.history))
	}
	stats.AverageConfidence = confidenceSum / float64(len(e.history))
	if len(e.history) > 1 {
		stats.SwitchFrequency = float64(switches) / float64(len(e.history)-1)
	}

	return stats
}

// rankDetections orders all three languages by descending share
func rankDetections(b Breakdown) []Detection {
	detections := make([]Detection, 0, 3)
	for _, lang := range Supported() {
		detections = append(detections, Detection{Language: lang, Confidence: b.Get(lang)})
	}
	sort.SliceStable(detections, func(i, j int) bool {
		return detections[i].Confidence > detections[j].Confidence
	})
	return detections
}

// countHan counts CJK ideographs
func countHan(s string) int {
	count := 0
	for _, r := range s {
		if unicode.Is(unicode.Han, r) {
			count++
		}
	}
	return count
}
