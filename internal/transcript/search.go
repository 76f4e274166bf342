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

package transcript

import (
	"fmt"
	"regexp"
	"time"

	"github.com/loqalabs/loqa-transcript/internal/language"
)

// highlightMarker wraps search matches in rendered content
const highlightMarker = "**"

// SearchOptions controls matching and filtering
type SearchOptions struct {
	CaseSensitive bool `json:"case_sensitive"`
	WholeWord     bool `json:"whole_word"`
	// SearchTranslations extends matching to translated texts
	SearchTranslations bool `json:"search_translations"`
	// SearchSpeakers extends matching to the speaker identifier
	SearchSpeakers bool `json:"search_speakers"`

	// Filters; zero values disable them
	Speaker  string            `json:"speaker,omitempty"`
	Language language.Language `json:"language,omitempty"`
	// From/To bound the capture timestamp, inclusive
	From *time.Time `json:"from,omitempty"`
	To   *time.Time `json:"to,omitempty"`
}

// SearchMatch reports one matching entry, which fields matched, and the
// content with matches wrapped in the highlight marker
type SearchMatch struct {
	EntryID     string   `json:"entry_id"`
	Fields      []string `json:"fields"`
	Highlighted string   `json:"highlighted"`
}

// Search matches a regular-expression query against the collection
func (s *Store) Search(query string, opts SearchOptions) ([]SearchMatch, error) {
	pattern := query
	if opts.WholeWord {
		pattern = `\b(?:` + pattern + `)\b`
	}
	if !opts.CaseSensitive {
		pattern = `(?i)` + pattern
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid search query: %w", err)
	}

	var matches []SearchMatch
	for _, entry := range s.Entries() {
		if !s.passesFilters(entry, opts) {
			continue
		}

		var fields []string
		if re.MatchString(entry.Content) {
			fields = append(fields, "content")
		}
		if opts.SearchTranslations {
			for _, lang := range sortedTranslationLangs(entry) {
				if re.MatchString(entry.Language.Translations[lang]) {
					fields = append(fields, "translation:"+string(lang))
				}
			}
		}
		if opts.SearchSpeakers && re.MatchString(entry.Speaker) {
			fields = append(fields, "speaker")
		}

		if len(fields) == 0 {
			continue
		}

		matches = append(matches, SearchMatch{
			EntryID:     entry.ID,
			Fields:      fields,
			Highlighted: re.ReplaceAllString(entry.Content, highlightMarker+"${0}"+highlightMarker),
		})
	}
	return matches, nil
}

// passesFilters applies the speaker, language and timestamp-range filters
func (s *Store) passesFilters(entry *Entry, opts SearchOptions) bool {
	if opts.Speaker != "" && entry.Speaker != opts.Speaker {
		return false
	}
	if opts.Language != "" && entry.Language.Primary != opts.Language {
		return false
	}
	if opts.From != nil && entry.Timestamp.Before(*opts.From) {
		return false
	}
	if opts.To != nil && entry.Timestamp.After(*opts.To) {
		return false
	}
	return true
}
