package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/karim-hossien-dotcom/realestate-ai-sub000/internal/infra/http/middleware"
	"github.com/karim-hossien-dotcom/realestate-ai-sub000/internal/usecase"
)

// ScoreHandler exposes the scoring engine for independent callers
// (dashboards, imports). Scoring itself is a pure in-process call.
type ScoreHandler struct{}

func NewScoreHandler() *ScoreHandler {
	return &ScoreHandler{}
}

type scoreErrorResponse struct {
	OK     bool     `json:"ok"`
	Errors []string `json:"errors"`
}

func (h *ScoreHandler) Handle(w http.ResponseWriter, r *http.Request) {
	var input usecase.LeadScoreInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeJSON(w, http.StatusBadRequest, scoreErrorResponse{OK: false, Errors: []string{"Invalid JSON"}})
		return
	}

	if errs := usecase.ValidateScoreInput(input); len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, scoreErrorResponse{OK: false, Errors: validationMessages(errs)})
		return
	}

	result := usecase.CalculateLeadScore(input, time.Now())
	middleware.RecordLeadScore()

	writeJSON(w, http.StatusOK, result)
}

// HandleBatch scores a list independently, output order matching input
// order.
func (h *ScoreHandler) HandleBatch(w http.ResponseWriter, r *http.Request) {
	var req usecase.ScoreLeadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, scoreErrorResponse{OK: false, Errors: []string{"Invalid JSON"}})
		return
	}

	for _, input := range req.Leads {
		if errs := usecase.ValidateScoreInput(input); len(errs) > 0 {
			writeJSON(w, http.StatusBadRequest, scoreErrorResponse{OK: false, Errors: validationMessages(errs)})
			return
		}
	}

	now := time.Now()
	results := usecase.ScoreLeads(req.Leads, now)
	for range results {
		middleware.RecordLeadScore()
	}

	writeJSON(w, http.StatusOK, usecase.ScoreLeadResponse{Results: results})
}

func validationMessages(errs []usecase.ValidationError) []string {
	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		msgs = append(msgs, e.Error())
	}
	return msgs
}
