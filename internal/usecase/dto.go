package usecase

// DispatchResults is the structured summary returned to the triggering
// caller, even when individual follow-ups fail.
type DispatchResults struct {
	Processed int      `json:"processed"`
	Sent      int      `json:"sent"`
	Failed    int      `json:"failed"`
	Skipped   int      `json:"skipped"`
	Errors    []string `json:"errors"`
}

type ScoreLeadRequest struct {
	Leads []LeadScoreInput `json:"leads"`
}

type ScoreLeadResponse struct {
	Results []LeadScoreResult `json:"results"`
}
