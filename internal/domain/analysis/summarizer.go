package analysis

import (
	"sort"
	"strings"
)

const DefaultSummarySentences = 3

var stopwords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true, "of": true,
	"to": true, "in": true, "on": true, "for": true, "is": true, "was": true,
	"are": true, "were": true, "with": true, "as": true, "at": true, "by": true,
	"be": true, "this": true, "that": true, "it": true, "from": true,
	"patient": true, "report": true,
}

// Summarize produces an extractive summary: sentences are scored by the
// frequency of their non-stopword terms across the whole text, and the
// highest-scoring ones are returned in their original order.
func Summarize(reportText string, maxSentences int) string {
	if maxSentences <= 0 {
		maxSentences = DefaultSummarySentences
	}

	sentences := splitSentences(reportText)
	if len(sentences) <= maxSentences {
		return strings.TrimSpace(reportText)
	}

	freq := make(map[string]int)
	for _, s := range sentences {
		for w := range tokenize(s) {
			if !stopwords[w] {
				freq[w]++
			}
		}
	}

	type scored struct {
		index int
		score float64
	}
	ranked := make([]scored, len(sentences))
	for i, s := range sentences {
		tokens := tokenize(s)
		var sum int
		for w := range tokens {
			if !stopwords[w] {
				sum += freq[w]
			}
		}
		score := 0.0
		if len(tokens) > 0 {
			score = float64(sum) / float64(len(tokens))
		}
		ranked[i] = scored{index: i, score: score}
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].index < ranked[j].index
	})

	pick := ranked[:maxSentences]
	sort.Slice(pick, func(i, j int) bool { return pick[i].index < pick[j].index })

	parts := make([]string, len(pick))
	for i, p := range pick {
		parts[i] = sentences[p.index]
	}
	return strings.Join(parts, " ")
}

func splitSentences(text string) []string {
	var sentences []string
	var b strings.Builder
	for _, r := range text {
		b.WriteRune(r)
		if r == '.' || r == '!' || r == '?' {
			if s := strings.TrimSpace(b.String()); s != "" {
				sentences = append(sentences, s)
			}
			b.Reset()
		}
	}
	if s := strings.TrimSpace(b.String()); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}
