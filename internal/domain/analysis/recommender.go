package analysis

import "sort"

const (
	DefaultMaxActions = 3

	// Conditions scoring below this are not worth a recommendation.
	minRecommendScore = 0.05
)

// preventiveActions maps each known condition to preventive care actions,
// most impactful first.
var preventiveActions = map[string][]string{
	"influenza":       {"Annual flu vaccine", "Hand hygiene", "Avoid crowded places"},
	"common_cold":     {"Hand hygiene", "Adequate rest", "Stay hydrated"},
	"migraine":        {"Identify and avoid triggers", "Regular sleep schedule", "Stress management"},
	"gastroenteritis": {"Oral rehydration", "Food safety practices", "Hand hygiene"},
	"hypertension":    {"Reduce salt intake", "Regular blood pressure monitoring", "Exercise regularly"},
	"diabetes":        {"Monitor blood sugar", "Balanced diet", "Regular physical activity"},
	"asthma":          {"Avoid known allergens", "Carry a reliever inhaler", "Annual flu vaccine"},
	"pneumonia":       {"Pneumococcal vaccine", "Stop smoking", "Hand hygiene"},
	"anemia":          {"Iron-rich diet", "Routine blood tests", "Vitamin C with meals"},
	"arthritis":       {"Low-impact exercise", "Maintain healthy weight", "Joint protection"},
}

// Recommendation pairs a predicted condition with its preventive actions.
type Recommendation struct {
	Condition string   `json:"condition"`
	Score     float64  `json:"score"`
	Actions   []string `json:"actions"`
}

// Recommender turns risk predictions into preventive care recommendations.
type Recommender struct {
	actions    map[string][]string
	maxActions int
}

func NewRecommender() *Recommender {
	return &Recommender{actions: preventiveActions, maxActions: DefaultMaxActions}
}

// Recommend returns preventive actions for each prediction above the score
// floor, ordered by score so the riskiest condition's actions come first.
// Predictions should already carry any personalization weighting.
func (r *Recommender) Recommend(preds []Prediction) []Recommendation {
	var recs []Recommendation
	for _, p := range preds {
		if p.Score < minRecommendScore {
			continue
		}
		actions := r.actions[p.Condition]
		if len(actions) > r.maxActions {
			actions = actions[:r.maxActions]
		}
		recs = append(recs, Recommendation{
			Condition: p.Condition,
			Score:     p.Score,
			Actions:   actions,
		})
	}
	sort.Slice(recs, func(i, j int) bool {
		if recs[i].Score != recs[j].Score {
			return recs[i].Score > recs[j].Score
		}
		return recs[i].Condition < recs[j].Condition
	})
	return recs
}
