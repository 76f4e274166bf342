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

	"github.com/loqalabs/loqa-transcript/internal/language"
)

// Auto requests source-language resolution before routing
const Auto = language.Language("auto")

var (
	// ErrUnsupportedLanguagePair means no engine has a route for the pair
	ErrUnsupportedLanguagePair = errors.New("unsupported language pair")
	// ErrAllEnginesUnavailable means every fallback path was exhausted
	ErrAllEnginesUnavailable = errors.New("all translation engines unavailable")
)

// Request describes one translation
type Request struct {
	Text   string            `json:"text"`
	Source language.Language `json:"source"`
	Target language.Language `json:"target"`
}

// Result is one completed translation
type Result struct {
	TranslatedText string            `json:"translated_text"`
	SourceLang     language.Language `json:"source_lang"`
	TargetLang     language.Language `json:"target_lang"`
	Confidence     float64           `json:"confidence"`
	Engine         string            `json:"engine"`
	// ProcessingTime is the engine round-trip in milliseconds, 0 on a
	// cache hit
	ProcessingTime int64 `json:"processing_time_ms"`
	Cached         bool  `json:"cached"`
	// Notes carry degradation explanations ("untranslated", batch item
	// failures)
	Notes []string `json:"notes,omitempty"`
	// CulturalNotes are free-text adaptation annotations for known phrases
	CulturalNotes []string `json:"cultural_notes,omitempty"`
}

// Engine is a pluggable translation backend. At least one engine in any
// orchestrator must be guaranteed available (the offline dictionary engine).
type Engine interface {
	Name() string
	// Available reports whether the engine can currently serve requests
	Available() bool
	// Supports reports whether the engine has a route for the pair
	Supports(source, target language.Language) bool
	Translate(ctx context.Context, req Request) (*Result, error)
}
