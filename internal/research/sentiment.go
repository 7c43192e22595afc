package research

import "strings"

// Keyword balance keeps the verdict deterministic and reproducible: no
// LLM sits between the search evidence and the call.

var positiveKeywords = []string{
	"beat",
	"record",
	"profit",
	"profitability",
	"growth",
	"upgrade",
	"raise",
	"surge",
	"soar",
	"rally",
	"strong",
	"bullish",
	"momentum",
	"guidance",
}

var negativeKeywords = []string{
	"loss",
	"decline",
	"downgrade",
	"cut",
	"plunge",
	"slump",
	"warning",
	"bearish",
	"drop",
	"falls",
	"weak",
	"miss",
}

// scoreSentiment counts positive minus negative keyword occurrences.
func scoreSentiment(text string) int {
	lower := strings.ToLower(text)
	score := 0
	for _, word := range positiveKeywords {
		score += strings.Count(lower, word)
	}
	for _, word := range negativeKeywords {
		score -= strings.Count(lower, word)
	}
	return score
}
