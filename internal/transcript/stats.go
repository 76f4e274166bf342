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
	"github.com/loqalabs/loqa-transcript/internal/language"
)

// Statistics summarizes the transcript collection
type Statistics struct {
	TotalEntries int `json:"total_entries"`
	// TotalWords counts whitespace-split words across all contents
	TotalWords           int                           `json:"total_words"`
	LanguageDistribution map[language.Language]int     `json:"language_distribution"`
	SpeakerDistribution  map[string]int                `json:"speaker_distribution"`
	AverageConfidence    float64                       `json:"average_confidence"`
	// DurationSeconds is last timestamp minus first, in seconds
	DurationSeconds float64 `json:"duration_seconds"`
	// SwitchFrequency is the fraction of adjacent entry pairs whose
	// primary language differs
	SwitchFrequency float64 `json:"switch_frequency"`
}

// Statistics computes summary statistics over the collection
func (s *Store) Statistics() Statistics {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := Statistics{
		TotalEntries:         len(s.entries),
		LanguageDistribution: make(map[language.Language]int),
		SpeakerDistribution:  make(map[string]int),
	}
	if len(s.entries) == 0 {
		return stats
	}

	confidenceSum := 0.0
	switches := 0
	for i, entry := range s.entries {
		stats.TotalWords += entry.WordCount()
		stats.LanguageDistribution[entry.Language.Primary]++
		stats.SpeakerDistribution[entry.Speaker]++
		confidenceSum += entry.Language.Confidence
		if i > 0 && entry.Language.Primary != s.entries[i-1].Language.Primary {
			switches++
		}
	}

	stats.AverageConfidence = confidenceSum / float64(len(s.entries))
	stats.DurationSeconds = s.entries[len(s.entries)-1].Timestamp.Sub(s.entries[0].Timestamp).Seconds()
	if len(s.entries) > 1 {
		stats.SwitchFrequency = float64(switches) / float64(len(s.entries)-1)
	}

	return stats
}
