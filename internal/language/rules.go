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

// RuleSet is the editable scoring model for the detection engine: regex
// pattern lists, exact common-word lists, agglutinative affix rules and
// culture-tagged keyword lists. Scores are deterministic functions of these
// tables so the model stays reproducible and inspectable; swapping the
// tables swaps the model without touching the engine.
type RuleSet struct {
	// Patterns score +2 per match against the preprocessed text
	Patterns map[Language][]string
	// CommonWords score +3 per exactly matching token
	CommonWords map[Language][]string
	// MalayAffixes score +2 per match (agglutinative prefix/suffix shapes)
	MalayAffixes []string
	// CultureKeywords emit a "culture:keyword" marker per substring hit,
	// independent of the language scores
	CultureKeywords map[string][]string
}

// DefaultRuleSet returns the built-in zh/en/ms scoring tables
func DefaultRuleSet() RuleSet {
	return RuleSet{
		Patterns: map[Language][]string{
			Chinese: {
				`(什么|怎么|为什么|哪里|谁)`,
				`(吗|呢|吧|啊)`,
				`(今天|明天|昨天|现在)`,
				`(会议|议程|项目|公司)`,
			},
			English: {
				`\b(hello|hi|hey|thanks|please)\b`,
				`\b(what|how|when|where|why|who)\b`,
				`\b(the|a|an)\s+\w+`,
				`\b\w+ing\b`,
				`\b\w+tion\b`,
			},
			Malay: {
				`\b(apa|bagaimana|kenapa|mengapa|bila|siapa|mana)\b`,
				`\b(sudah|belum|sedang|akan)\b`,
				`\b\w+lah\b`,
			},
		},
		CommonWords: map[Language][]string{
			Chinese: {
				"的", "是", "了", "我", "你", "他", "们", "在", "有", "不",
				"这", "那", "什么", "今天", "会议", "谢谢", "好", "很", "和", "吗",
			},
			English: {
				"the", "is", "are", "was", "and", "you", "what", "this", "that",
				"hello", "thank", "thanks", "meeting", "agenda", "today", "time",
				"please", "yes", "no", "we", "to", "of", "for", "have", "will",
			},
			Malay: {
				"apa", "hari", "ini", "itu", "dan", "yang", "untuk", "dengan",
				"tidak", "boleh", "saya", "anda", "kami", "kita", "mesyuarat",
				"terima", "kasih", "selamat", "pagi", "petang", "bila", "sudah",
			},
		},
		MalayAffixes: []string{
			`\b(me|mem|men|meng|ber|ter|pe)\w{2,}\b`,
			`\b\w{2,}(kan|nya|lah)\b`,
		},
		CultureKeywords: map[string][]string{
			"chinese": {
				"关系", "面子", "风水", "春节", "红包", "guanxi", "feng shui",
			},
			"malay": {
				"gotong royong", "kampung", "makan", "hari raya", "terima kasih",
				"bumiputera", "balik kampung",
			},
			"western": {
				"deadline", "brunch", "thanksgiving", "happy hour", "touch base",
			},
		},
	}
}
