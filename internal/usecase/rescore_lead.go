package usecase

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/karim-hossien-dotcom/realestate-ai-sub000/internal/entity"
)

// RescoreLeadUseCase recomputes a lead's score from its current
// engagement facts and persists the result. Triggered by engagement
// events off the queue whenever the facts change.
type RescoreLeadUseCase struct {
	Leads entity.LeadRepositoryInterface
}

func NewRescoreLeadUseCase(leads entity.LeadRepositoryInterface) *RescoreLeadUseCase {
	return &RescoreLeadUseCase{Leads: leads}
}

func (uc *RescoreLeadUseCase) Execute(ctx context.Context, leadID string, now time.Time) (LeadScoreResult, error) {
	lead, err := uc.Leads.FindByID(ctx, leadID)
	if err != nil {
		return LeadScoreResult{}, fmt.Errorf("loading lead %s: %w", leadID, err)
	}
	if lead == nil {
		return LeadScoreResult{}, &DomainError{Code: "LEAD_NOT_FOUND", Message: "lead not found: " + leadID}
	}

	result := CalculateLeadScore(LeadScoreInput{
		Status:        lead.Status,
		ResponseCount: lead.ResponseCount,
		MessagesSent:  lead.MessagesSent,
		LastResponse:  lead.LastResponseAt,
		LastContacted: lead.LastContactedAt,
		HasPhone:      lead.HasPhone(),
		HasEmail:      lead.HasEmail(),
	}, now)

	if err := uc.Leads.UpdateScore(ctx, lead.ID, result.Score, result.Category); err != nil {
		return result, fmt.Errorf("persisting score for lead %s: %w", leadID, err)
	}

	log.Printf("📊 [Score] Lead %s: %s", lead.ID, ExplainScore(result))
	return result, nil
}

// Rescore adapts Execute for the queue worker, which only cares about
// success or failure.
func (uc *RescoreLeadUseCase) Rescore(ctx context.Context, leadID string, now time.Time) error {
	_, err := uc.Execute(ctx, leadID, now)
	return err
}
