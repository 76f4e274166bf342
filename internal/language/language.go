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

import "fmt"

// Language identifies one of the three supported conversation languages.
// Mixed is a detection outcome, not a scoreable language: it never appears
// in a Breakdown and has no rule tables.
type Language string

const (
	Chinese Language = "zh"
	English Language = "en"
	Malay   Language = "ms"
	Mixed   Language = "mixed"
)

// Supported returns the closed set of scoreable languages in canonical order.
func Supported() [3]Language {
	return [3]Language{Chinese, English, Malay}
}

// Parse converts a language code into a Language
func Parse(code string) (Language, error) {
	switch code {
	case "zh":
		return Chinese, nil
	case "en":
		return English, nil
	case "ms":
		return Malay, nil
	case "mixed":
		return Mixed, nil
	}
	return "", fmt.Errorf("unsupported language code: %q", code)
}

// Breakdown holds one per-language proportion. The three values sum to 1
// after normalization, or carry full weight on the fallback language when
// no signal exists.
type Breakdown struct {
	Chinese float64 `json:"zh"`
	English float64 `json:"en"`
	Malay   float64 `json:"ms"`
}

// Get returns the share for a scoreable language. Mixed panics: the compiler
// cannot make the switch exhaustive over a string type, so the accessor does.
func (b Breakdown) Get(lang Language) float64 {
	switch lang {
	case Chinese:
		return b.Chinese
	case English:
		return b.English
	case Malay:
		return b.Malay
	}
	panic(fmt.Sprintf("language: Breakdown.Get on non-scoreable language %q", lang))
}

// Set assigns the share for a scoreable language
func (b *Breakdown) Set(lang Language, v float64) {
	switch lang {
	case Chinese:
		b.Chinese = v
	case English:
		b.English = v
	case Malay:
		b.Malay = v
	default:
		panic(fmt.Sprintf("language: Breakdown.Set on non-scoreable language %q", lang))
	}
}

// Sum returns the total of all shares
func (b Breakdown) Sum() float64 {
	return b.Chinese + b.English + b.Malay
}

// ArgMax returns the language with the highest share and that share.
// Ties resolve in canonical order (zh, en, ms).
func (b Breakdown) ArgMax() (Language, float64) {
	best, bestScore := Chinese, b.Chinese
	if b.English > bestScore {
		best, bestScore = English, b.English
	}
	if b.Malay > bestScore {
		best, bestScore = Malay, b.Malay
	}
	return best, bestScore
}

// SecondMax returns the runner-up share
func (b Breakdown) SecondMax() float64 {
	primary, _ := b.ArgMax()
	second := 0.0
	for _, lang := range Supported() {
		if lang == primary {
			continue
		}
		if s := b.Get(lang); s > second {
			second = s
		}
	}
	return second
}
