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
	"math"
	"testing"
	"time"

	"github.com/loqalabs/loqa-transcript/internal/language"
)

func TestStatisticsEmptyStore(t *testing.T) {
	s := NewStore("stats-empty")
	stats := s.Statistics()

	if stats.TotalEntries != 0 || stats.TotalWords != 0 {
		t.Errorf("empty store totals = %d entries / %d words, want 0 / 0", stats.TotalEntries, stats.TotalWords)
	}
	if stats.DurationSeconds != 0 || stats.SwitchFrequency != 0 || stats.AverageConfidence != 0 {
		t.Error("empty store rates must all be zero")
	}
	if stats.LanguageDistribution == nil || stats.SpeakerDistribution == nil {
		t.Error("distributions must be non-nil maps")
	}
}

func TestStatistics(t *testing.T) {
	s := NewStore("stats")
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	s.Append(testEntry("alice", "good morning team", language.English, 0.9, base))
	s.Append(testEntry("bob", "selamat pagi", language.Malay, 0.8, base.Add(10*time.Second)))
	s.Append(testEntry("alice", "let us begin", language.English, 0.7, base.Add(30*time.Second)))
	s.Append(testEntry("carol", "好的", language.Chinese, 0.6, base.Add(45*time.Second)))

	stats := s.Statistics()

	if stats.TotalEntries != 4 {
		t.Errorf("TotalEntries = %d, want 4", stats.TotalEntries)
	}
	if stats.TotalWords != 9 {
		t.Errorf("TotalWords = %d, want 9", stats.TotalWords)
	}
	if stats.LanguageDistribution[language.English] != 2 ||
		stats.LanguageDistribution[language.Malay] != 1 ||
		stats.LanguageDistribution[language.Chinese] != 1 {
		t.Errorf("LanguageDistribution = %v", stats.LanguageDistribution)
	}
	if stats.SpeakerDistribution["alice"] != 2 || stats.SpeakerDistribution["bob"] != 1 {
		t.Errorf("SpeakerDistribution = %v", stats.SpeakerDistribution)
	}
	if math.Abs(stats.AverageConfidence-0.75) > 1e-9 {
		t.Errorf("AverageConfidence = %v, want 0.75", stats.AverageConfidence)
	}
	if stats.DurationSeconds != 45 {
		t.Errorf("DurationSeconds = %v, want 45", stats.DurationSeconds)
	}
	// Every adjacent pair differs in primary language
	if stats.SwitchFrequency != 1 {
		t.Errorf("SwitchFrequency = %v, want 1", stats.SwitchFrequency)
	}
}

func TestStatisticsSwitchFrequencyPartial(t *testing.T) {
	s := NewStore("stats-switch")
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	s.Append(testEntry("alice", "hello", language.English, 0.9, base))
	s.Append(testEntry("alice", "again", language.English, 0.9, base.Add(time.Second)))
	s.Append(testEntry("bob", "你好", language.Chinese, 0.9, base.Add(2*time.Second)))

	stats := s.Statistics()
	if stats.SwitchFrequency != 0.5 {
		t.Errorf("SwitchFrequency = %v, want 0.5", stats.SwitchFrequency)
	}
}

func TestStatisticsSingleEntry(t *testing.T) {
	s := NewStore("stats-one")
	s.Append(testEntry("alice", "only one line here", language.English, 0.9, time.Now()))

	stats := s.Statistics()
	if stats.SwitchFrequency != 0 {
		t.Errorf("SwitchFrequency = %v, want 0", stats.SwitchFrequency)
	}
	if stats.DurationSeconds != 0 {
		t.Errorf("DurationSeconds = %v, want 0", stats.DurationSeconds)
	}
}
