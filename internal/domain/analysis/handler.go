package analysis

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type Handler struct {
	analyzer    *Analyzer
	engine      *PersonalizationEngine
	recommender *Recommender
}

func NewHandler(analyzer *Analyzer, engine *PersonalizationEngine, recommender *Recommender) *Handler {
	return &Handler{analyzer: analyzer, engine: engine, recommender: recommender}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/analyze-symptoms", h.AnalyzeSymptoms)
	api.POST("/predict-risk", h.PredictRisk)
	api.POST("/summarize-report", h.SummarizeReport)
	api.PUT("/personalization/weights", h.SetWeight)
	api.GET("/personalization/:patient_id/history", h.History)
}

type symptomRequest struct {
	PatientID   string `json:"patient_id"`
	SymptomText string `json:"symptom_text"`
	TopK        int    `json:"top_k"`
}

type symptomResponse struct {
	Predictions []Prediction `json:"predictions"`
}

func (h *Handler) AnalyzeSymptoms(c echo.Context) error {
	var req symptomRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.SymptomText == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "symptom_text is required")
	}

	preds := h.analyzer.Analyze(req.SymptomText, req.TopK)
	if req.PatientID != "" {
		preds = h.engine.ApplyWeights(req.PatientID, preds)
		h.engine.LogHistory(req.PatientID, "symptom_prediction", preds)
	}
	return c.JSON(http.StatusOK, symptomResponse{Predictions: preds})
}

type predictRequest struct {
	PatientID              string `json:"patient_id"`
	SymptomText            string `json:"symptom_text"`
	TopK                   int    `json:"top_k"`
	IncludeRecommendations bool   `json:"include_recommendations"`
}

type predictResponse struct {
	Predictions     []Prediction     `json:"predictions"`
	Recommendations []Recommendation `json:"recommendations,omitempty"`
}

func (h *Handler) PredictRisk(c echo.Context) error {
	var req predictRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.SymptomText == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "symptom_text is required")
	}

	preds := h.analyzer.Analyze(req.SymptomText, req.TopK)
	if req.PatientID != "" {
		preds = h.engine.ApplyWeights(req.PatientID, preds)
	}

	var recs []Recommendation
	if req.IncludeRecommendations {
		recs = h.recommender.Recommend(preds)
	}

	if req.PatientID != "" {
		h.engine.LogHistory(req.PatientID, "disease_prediction", preds)
	}
	return c.JSON(http.StatusOK, predictResponse{Predictions: preds, Recommendations: recs})
}

type summarizeRequest struct {
	ReportText   string `json:"report_text"`
	MaxSentences int    `json:"max_sentences"`
}

func (h *Handler) SummarizeReport(c echo.Context) error {
	var req summarizeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.ReportText == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "report_text is required")
	}
	return c.JSON(http.StatusOK, map[string]string{
		"summary": Summarize(req.ReportText, req.MaxSentences),
	})
}

type weightRequest struct {
	PatientID string  `json:"patient_id"`
	Condition string  `json:"condition"`
	Weight    float64 `json:"weight"`
}

func (h *Handler) SetWeight(c echo.Context) error {
	var req weightRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.PatientID == "" || req.Condition == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "patient_id and condition are required")
	}
	if req.Weight <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "weight must be positive")
	}
	h.engine.SetWeight(req.PatientID, req.Condition, req.Weight)
	return c.JSON(http.StatusOK, map[string]interface{}{
		"patient_id": req.PatientID,
		"weights":    h.engine.Weights(req.PatientID),
	})
}

func (h *Handler) History(c echo.Context) error {
	pid := c.Param("patient_id")
	if pid == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "patient_id is required")
	}
	return c.JSON(http.StatusOK, h.engine.History(pid))
}
