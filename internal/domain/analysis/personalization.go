package analysis

import (
	"sort"
	"sync"
	"time"
)

// HistoryEntry records one analysis interaction for a patient.
type HistoryEntry struct {
	Timestamp   time.Time    `json:"timestamp"`
	EventType   string       `json:"event_type"`
	Predictions []Prediction `json:"predictions"`
}

// PersonalizationEngine keeps per-patient condition weights and an
// interaction history. Weights multiply raw scores before ranking, so a
// clinician can bias the analyzer toward a patient's known conditions.
// State is in-memory and guarded for concurrent handlers.
type PersonalizationEngine struct {
	mu      sync.RWMutex
	weights map[string]map[string]float64 // patient -> condition -> weight
	history map[string][]HistoryEntry
}

func NewPersonalizationEngine() *PersonalizationEngine {
	return &PersonalizationEngine{
		weights: make(map[string]map[string]float64),
		history: make(map[string][]HistoryEntry),
	}
}

// ApplyWeights multiplies each prediction's score by the patient's weight
// for that condition (default 1.0) and re-ranks.
func (p *PersonalizationEngine) ApplyWeights(patientID string, preds []Prediction) []Prediction {
	p.mu.RLock()
	patientWeights := p.weights[patientID]
	p.mu.RUnlock()

	if len(patientWeights) == 0 {
		return preds
	}

	adjusted := make([]Prediction, len(preds))
	for i, pred := range preds {
		w, ok := patientWeights[pred.Condition]
		if !ok {
			w = 1.0
		}
		adjusted[i] = Prediction{Condition: pred.Condition, Score: pred.Score * w}
	}
	sort.Slice(adjusted, func(i, j int) bool {
		if adjusted[i].Score != adjusted[j].Score {
			return adjusted[i].Score > adjusted[j].Score
		}
		return adjusted[i].Condition < adjusted[j].Condition
	})
	return adjusted
}

func (p *PersonalizationEngine) SetWeight(patientID, condition string, weight float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.weights[patientID] == nil {
		p.weights[patientID] = make(map[string]float64)
	}
	p.weights[patientID][condition] = weight
}

func (p *PersonalizationEngine) Weights(patientID string) map[string]float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make(map[string]float64, len(p.weights[patientID]))
	for k, v := range p.weights[patientID] {
		out[k] = v
	}
	return out
}

func (p *PersonalizationEngine) LogHistory(patientID, eventType string, preds []Prediction) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.history[patientID] = append(p.history[patientID], HistoryEntry{
		Timestamp:   time.Now().UTC(),
		EventType:   eventType,
		Predictions: preds,
	})
}

func (p *PersonalizationEngine) History(patientID string) []HistoryEntry {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]HistoryEntry(nil), p.history[patientID]...)
}
