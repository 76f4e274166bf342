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
	"sort"
	"strings"
	"time"

	"github.com/loqalabs/loqa-transcript/internal/language"
)

// Offline engine confidence model: starts low, rises per substituted term
const (
	offlineBaseConfidence    = 0.4
	offlinePerTermConfidence = 0.15
	offlineMaxConfidence     = 0.95
	untranslatedConfidence   = 0.05
)

// OfflineEngine is the guaranteed-available fallback: dictionary
// substitution over a small fixed phrase table per language pair. Quality
// is explicitly not the goal; availability is.
type OfflineEngine struct {
	dictionaries map[string]map[string]string
	adaptations  map[string]string
}

// NewOfflineEngine creates the dictionary engine with the built-in tables
func NewOfflineEngine() *OfflineEngine {
	enMS := map[string]string{
		"good morning":   "selamat pagi",
		"good afternoon": "selamat petang",
		"thank you":      "terima kasih",
		"excuse me":      "maafkan saya",
		"hello":          "helo",
		"meeting":        "mesyuarat",
		"today":          "hari ini",
		"tomorrow":       "esok",
		"please":         "sila",
		"yes":            "ya",
		"no":             "tidak",
		"what":           "apa",
		"goodbye":        "selamat tinggal",
		"welcome":        "selamat datang",
	}
	enZH := map[string]string{
		"good morning": "早上好",
		"thank you":    "谢谢",
		"hello":        "你好",
		"meeting":      "会议",
		"agenda":       "议程",
		"today":        "今天",
		"tomorrow":     "明天",
		"please":       "请",
		"yes":          "是",
		"no":           "不是",
		"what":         "什么",
		"goodbye":      "再见",
	}
	zhMS := map[string]string{
		"谢谢": "terima kasih",
		"你好": "helo",
		"会议": "mesyuarat",
		"今天": "hari ini",
		"明天": "esok",
		"再见": "selamat tinggal",
		"请":  "sila",
	}

	return &OfflineEngine{
		dictionaries: map[string]map[string]string{
			pairKey(language.English, language.Malay):   enMS,
			pairKey(language.Malay, language.English):   invert(enMS),
			pairKey(language.English, language.Chinese): enZH,
			pairKey(language.Chinese, language.English): invert(enZH),
			pairKey(language.Chinese, language.Malay):   zhMS,
			pairKey(language.Malay, language.Chinese):   invert(zhMS),
		},
		adaptations: map[string]string{
			"lah":          "The Malay particle 'lah' softens the statement and is usually left untranslated",
			"terima kasih": "'Terima kasih' literally means 'receive love'; a warmer register than a plain thanks",
			"你好":           "'你好' is a neutral greeting; '您好' would be the deferential form",
			"makan":        "'Makan' invitations are a social courtesy in Malay culture, not always literal",
		},
	}
}

// Name identifies the engine
func (oe *OfflineEngine) Name() string {
	return "offline-dictionary"
}

// Available always reports true; the dictionary needs no connectivity
func (oe *OfflineEngine) Available() bool {
	return true
}

// Supports reports whether a dictionary exists for the pair
func (oe *OfflineEngine) Supports(source, target language.Language) bool {
	_, ok := oe.dictionaries[pairKey(source, target)]
	return ok
}

// Translate performs longest-phrase-first dictionary substitution. When no
// terms match, the original text is returned wrapped as untranslated with
// near-zero confidence and an explanatory note, never an error.
func (oe *OfflineEngine) Translate(_ context.Context, req Request) (*Result, error) {
	dictionary, ok := oe.dictionaries[pairKey(req.Source, req.Target)]
	if !ok {
		return nil, fmt.Errorf("%w: %s -> %s", ErrUnsupportedLanguagePair, req.Source, req.Target)
	}

	start := time.Now()
	text := strings.ToLower(strings.TrimSpace(req.Text))

	// Longest phrases substitute first so "thank you" wins over "you"
	phrases := make([]string, 0, len(dictionary))
	for phrase := range dictionary {
		phrases = append(phrases, phrase)
	}
	sort.Slice(phrases, func(i, j int) bool {
		if len(phrases[i]) != len(phrases[j]) {
			return len(phrases[i]) > len(phrases[j])
		}
		return phrases[i] < phrases[j]
	})

	substituted := 0
	translated := text
	for _, phrase := range phrases {
		count := strings.Count(translated, phrase)
		if count == 0 {
			continue
		}
		translated = strings.ReplaceAll(translated, phrase, dictionary[phrase])
		substituted += count
	}

	result := &Result{
		SourceLang:     req.Source,
		TargetLang:     req.Target,
		Engine:         oe.Name(),
		ProcessingTime: time.Since(start).Milliseconds(),
		CulturalNotes:  oe.culturalNotes(text),
	}

	if substituted == 0 {
		result.TranslatedText = "[untranslated] " + req.Text
		result.Confidence = untranslatedConfidence
		result.Notes = append(result.Notes,
			"no dictionary entries matched; original text preserved")
		return result, nil
	}

	confidence := offlineBaseConfidence + offlinePerTermConfidence*float64(substituted)
	if confidence > offlineMaxConfidence {
		confidence = offlineMaxConfidence
	}

	result.TranslatedText = strings.TrimSpace(translated)
	result.Confidence = confidence
	return result, nil
}

// culturalNotes attaches adaptation annotations for known phrases,
// independent of the substitution itself
func (oe *OfflineEngine) culturalNotes(text string) []string {
	phrases := make([]string, 0, len(oe.adaptations))
	for phrase := range oe.adaptations {
		phrases = append(phrases, phrase)
	}
	sort.Strings(phrases)

	var notes []string
	for _, phrase := range phrases {
		if strings.Contains(text, phrase) {
			notes = append(notes, oe.adaptations[phrase])
		}
	}
	return notes
}

func pairKey(source, target language.Language) string {
	return string(source) + "-" + string(target)
}

func invert(dictionary map[string]string) map[string]string {
	inverted := make(map[string]string, len(dictionary))
	for k, v := range dictionary {
		inverted[v] = k
	}
	return inverted
}
