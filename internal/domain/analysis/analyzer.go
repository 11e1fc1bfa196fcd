// Package analysis provides the auxiliary report intelligence endpoints:
// a keyword-scoring symptom analyzer, an extractive report summarizer, and
// per-patient weighting applied on top of raw scores.
package analysis

import (
	"sort"
	"strings"
)

const DefaultTopK = 5

// Prediction is one scored condition.
type Prediction struct {
	Condition string  `json:"condition"`
	Score     float64 `json:"score"`
}

// conditionKeywords maps each known condition to the symptom terms that
// count toward it. Scoring is a plain hit count normalized over all hits;
// there is deliberately no model here.
var conditionKeywords = map[string][]string{
	"influenza":       {"fever", "chills", "cough", "fatigue", "aches", "headache"},
	"common_cold":     {"sneezing", "runny", "congestion", "sore", "throat", "cough"},
	"migraine":        {"headache", "nausea", "aura", "light", "sensitivity", "throbbing"},
	"gastroenteritis": {"nausea", "vomiting", "diarrhea", "cramps", "dehydration"},
	"hypertension":    {"dizziness", "blurred", "vision", "headache", "nosebleed"},
	"diabetes":        {"thirst", "urination", "fatigue", "blurred", "vision", "hunger"},
	"asthma":          {"wheezing", "breathless", "tightness", "cough", "chest"},
	"pneumonia":       {"fever", "cough", "phlegm", "chest", "pain", "breathless"},
	"anemia":          {"fatigue", "pale", "weakness", "dizziness", "breathless"},
	"arthritis":       {"joint", "stiffness", "swelling", "pain", "morning"},
}

type Analyzer struct {
	keywords map[string][]string
	topK     int
}

func NewAnalyzer() *Analyzer {
	return &Analyzer{keywords: conditionKeywords, topK: DefaultTopK}
}

// Analyze scores the symptom text against every known condition and returns
// the top-K predictions with scores normalized to sum to 1. Output is
// deterministic: ties break on condition name.
func (a *Analyzer) Analyze(symptomText string, topK int) []Prediction {
	if topK <= 0 {
		topK = a.topK
	}

	tokens := tokenize(symptomText)
	if len(tokens) == 0 {
		return nil
	}

	hits := make(map[string]int)
	total := 0
	for condition, words := range a.keywords {
		for _, w := range words {
			if tokens[w] {
				hits[condition]++
				total++
			}
		}
	}
	if total == 0 {
		return nil
	}

	preds := make([]Prediction, 0, len(hits))
	for condition, n := range hits {
		preds = append(preds, Prediction{
			Condition: condition,
			Score:     float64(n) / float64(total),
		})
	}
	sort.Slice(preds, func(i, j int) bool {
		if preds[i].Score != preds[j].Score {
			return preds[i].Score > preds[j].Score
		}
		return preds[i].Condition < preds[j].Condition
	})

	if len(preds) > topK {
		preds = preds[:topK]
	}
	return preds
}

func tokenize(text string) map[string]bool {
	tokens := make(map[string]bool)
	for _, f := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
	}) {
		tokens[f] = true
	}
	return tokens
}
