package analysis

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestAnalyze_Deterministic(t *testing.T) {
	a := NewAnalyzer()
	text := "Fever with chills, bad cough and constant fatigue."

	first := a.Analyze(text, 3)
	if len(first) == 0 {
		t.Fatal("expected predictions")
	}
	for i := 0; i < 5; i++ {
		if got := a.Analyze(text, 3); !reflect.DeepEqual(got, first) {
			t.Fatalf("run %d differed: %v vs %v", i, got, first)
		}
	}
}

func TestAnalyze_TopK(t *testing.T) {
	a := NewAnalyzer()
	text := "fever cough fatigue headache nausea dizziness wheezing joint pain"

	if got := a.Analyze(text, 2); len(got) != 2 {
		t.Errorf("expected 2 predictions, got %d", len(got))
	}
	all := a.Analyze(text, 100)
	for i := 1; i < len(all); i++ {
		if all[i].Score > all[i-1].Score {
			t.Errorf("predictions not sorted: %v", all)
		}
	}
}

func TestAnalyze_ScoresNormalized(t *testing.T) {
	a := NewAnalyzer()
	preds := a.Analyze("fever chills cough fatigue aches headache", 100)

	var sum float64
	for _, p := range preds {
		if p.Score <= 0 || p.Score > 1 {
			t.Errorf("score out of range: %+v", p)
		}
		sum += p.Score
	}
	if sum < 0.999 || sum > 1.001 {
		t.Errorf("expected scores to sum to 1, got %f", sum)
	}
}

func TestAnalyze_NoMatches(t *testing.T) {
	a := NewAnalyzer()
	if got := a.Analyze("perfectly healthy individual", 5); got != nil {
		t.Errorf("expected nil for no keyword hits, got %v", got)
	}
	if got := a.Analyze("", 5); got != nil {
		t.Errorf("expected nil for empty text, got %v", got)
	}
}

func TestSummarize_ShortTextUnchanged(t *testing.T) {
	text := "Blood pressure normal. No anomalies found."
	if got := Summarize(text, 3); got != text {
		t.Errorf("short text should pass through, got %q", got)
	}
}

func TestSummarize_PicksTopSentencesInOrder(t *testing.T) {
	text := "Cardiac enzymes elevated significantly. The weather was discussed briefly. " +
		"Cardiac rhythm shows elevated irregularity. Cardiac follow-up elevated priority recommended. " +
		"Lunch options were unremarkable."

	got := Summarize(text, 2)
	sentences := splitSentences(got)
	if len(sentences) != 2 {
		t.Fatalf("expected 2 sentences, got %d: %q", len(sentences), got)
	}
	if !strings.Contains(got, "Cardiac") {
		t.Errorf("expected summary to keep high-frequency sentences, got %q", got)
	}
	// Order must follow the original document, not the ranking.
	if strings.Index(got, sentences[0]) > strings.Index(got, sentences[1]) {
		t.Error("summary sentences out of original order")
	}
}

func TestApplyWeights_ChangesRanking(t *testing.T) {
	engine := NewPersonalizationEngine()
	preds := []Prediction{
		{Condition: "influenza", Score: 0.6},
		{Condition: "asthma", Score: 0.4},
	}

	// Without weights the input passes through.
	if got := engine.ApplyWeights("p1", preds); !reflect.DeepEqual(got, preds) {
		t.Errorf("expected pass-through without weights, got %v", got)
	}

	engine.SetWeight("p1", "asthma", 2.0)
	got := engine.ApplyWeights("p1", preds)
	if got[0].Condition != "asthma" {
		t.Errorf("expected asthma ranked first after weighting, got %v", got)
	}

	// Another patient's weights are untouched.
	if got := engine.ApplyWeights("p2", preds); got[0].Condition != "influenza" {
		t.Errorf("weights leaked across patients: %v", got)
	}
}

func TestHistory_Recorded(t *testing.T) {
	engine := NewPersonalizationEngine()
	engine.LogHistory("p1", "symptom_prediction", []Prediction{{Condition: "influenza", Score: 1}})

	h := engine.History("p1")
	if len(h) != 1 || h[0].EventType != "symptom_prediction" {
		t.Errorf("unexpected history %v", h)
	}
	if len(engine.History("p2")) != 0 {
		t.Error("history leaked across patients")
	}
}

func TestRecommend_FiltersLowScoresAndRanks(t *testing.T) {
	r := NewRecommender()
	preds := []Prediction{
		{Condition: "hypertension", Score: 0.3},
		{Condition: "diabetes", Score: 0.65},
		{Condition: "anemia", Score: 0.01},
	}

	recs := r.Recommend(preds)
	if len(recs) != 2 {
		t.Fatalf("expected low-score condition dropped, got %v", recs)
	}
	if recs[0].Condition != "diabetes" || recs[1].Condition != "hypertension" {
		t.Errorf("recommendations not ranked by score: %v", recs)
	}
	for _, rec := range recs {
		if len(rec.Actions) == 0 || len(rec.Actions) > DefaultMaxActions {
			t.Errorf("unexpected action count for %s: %v", rec.Condition, rec.Actions)
		}
	}
}

func TestRecommend_Empty(t *testing.T) {
	r := NewRecommender()
	if recs := r.Recommend(nil); recs != nil {
		t.Errorf("expected nil for no predictions, got %v", recs)
	}
}

func TestPredictRiskHandler(t *testing.T) {
	engine := NewPersonalizationEngine()
	h := NewHandler(NewAnalyzer(), engine, NewRecommender())
	e := echo.New()

	body, _ := json.Marshal(predictRequest{
		PatientID:              "p1",
		SymptomText:            "fever and cough with chills and fatigue",
		IncludeRecommendations: true,
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/predict-risk", bytes.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	if err := h.PredictRisk(e.NewContext(req, rec)); err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp predictResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Predictions) == 0 {
		t.Error("expected predictions in response")
	}
	if len(resp.Recommendations) == 0 {
		t.Error("expected recommendations when requested")
	}

	h2 := engine.History("p1")
	if len(h2) != 1 || h2[0].EventType != "disease_prediction" {
		t.Errorf("expected one disease_prediction history entry, got %v", h2)
	}
}

func TestPredictRiskHandler_NoRecommendationsByDefault(t *testing.T) {
	h := NewHandler(NewAnalyzer(), NewPersonalizationEngine(), NewRecommender())
	e := echo.New()

	body, _ := json.Marshal(predictRequest{SymptomText: "fever and cough"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/predict-risk", bytes.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	if err := h.PredictRisk(e.NewContext(req, rec)); err != nil {
		t.Fatal(err)
	}
	var resp predictResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Recommendations != nil {
		t.Errorf("expected no recommendations without the flag, got %v", resp.Recommendations)
	}
}

func TestAnalyzeSymptomsHandler(t *testing.T) {
	h := NewHandler(NewAnalyzer(), NewPersonalizationEngine(), NewRecommender())
	e := echo.New()

	body, _ := json.Marshal(symptomRequest{PatientID: "p1", SymptomText: "fever and cough with chills", TopK: 3})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze-symptoms", bytes.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	if err := h.AnalyzeSymptoms(e.NewContext(req, rec)); err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp symptomResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Predictions) == 0 {
		t.Error("expected predictions in response")
	}
}

func TestAnalyzeSymptomsHandler_MissingText(t *testing.T) {
	h := NewHandler(NewAnalyzer(), NewPersonalizationEngine(), NewRecommender())
	e := echo.New()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze-symptoms", strings.NewReader(`{}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	err := h.AnalyzeSymptoms(e.NewContext(req, rec))
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}
