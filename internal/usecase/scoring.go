package usecase

import (
	"fmt"
	"strings"
	"time"
)

// Lead scoring: 0-100 from engagement facts.
//
//   +30 any inbound response
//   ±25/-20 intent signal from status
//   +3 per outbound message, capped at +15
//   +5 when both phone and email are known
//   -1 per day of inactivity past 14 days
//
// Categories: Hot >= 80, Warm >= 50, Cold >= 20, else Dead.

const (
	baseScore         = 50
	responseBonus     = 30
	positiveIntent    = 25
	negativeIntent    = 20
	perMessageBonus   = 3
	engagementCap     = 15
	completenessBonus = 5
	decayGraceDays    = 14
	noActivityPenalty = 10
)

const (
	CategoryHot  = "Hot"
	CategoryWarm = "Warm"
	CategoryCold = "Cold"
	CategoryDead = "Dead"
)

var positiveStatuses = map[string]bool{
	"interested":        true,
	"qualified":         true,
	"meeting_scheduled": true,
	"hot":               true,
}

var negativeStatuses = map[string]bool{
	"not_interested": true,
	"do_not_contact": true,
	"dead":           true,
	"unsubscribed":   true,
}

type LeadScoreInput struct {
	Status        string     `json:"status,omitempty"`
	ResponseCount int        `json:"response_count"`
	MessagesSent  int        `json:"messages_sent"`
	LastResponse  *time.Time `json:"last_response,omitempty"`
	LastContacted *time.Time `json:"last_contacted,omitempty"`
	HasPhone      bool       `json:"has_phone"`
	HasEmail      bool       `json:"has_email"`
}

type ScoreBreakdown struct {
	ResponseBonus     int `json:"response_bonus"`
	IntentBonus       int `json:"intent_bonus"`
	EngagementBonus   int `json:"engagement_bonus"`
	CompletenessBonus int `json:"completeness_bonus"`
	TimeDecay         int `json:"time_decay"`
}

type LeadScoreResult struct {
	Score     int            `json:"score"`
	Category  string         `json:"category"`
	Breakdown ScoreBreakdown `json:"breakdown"`
}

// CalculateLeadScore is pure: same input and same now always yield the
// same result. The caller supplies now so decay is replayable in tests.
func CalculateLeadScore(input LeadScoreInput, now time.Time) LeadScoreResult {
	score := baseScore
	var breakdown ScoreBreakdown

	if input.ResponseCount > 0 {
		breakdown.ResponseBonus = responseBonus
		score += responseBonus
	}

	status := strings.ToLower(input.Status)
	if positiveStatuses[status] {
		breakdown.IntentBonus = positiveIntent
		score += positiveIntent
	} else if negativeStatuses[status] {
		breakdown.IntentBonus = -negativeIntent
		score -= negativeIntent
	}

	engagement := input.MessagesSent * perMessageBonus
	if engagement > engagementCap {
		engagement = engagementCap
	}
	if engagement < 0 {
		engagement = 0
	}
	breakdown.EngagementBonus = engagement
	score += engagement

	if input.HasPhone && input.HasEmail {
		breakdown.CompletenessBonus = completenessBonus
		score += completenessBonus
	}

	lastActivity := input.LastResponse
	if lastActivity == nil {
		lastActivity = input.LastContacted
	}
	if lastActivity != nil {
		daysSince := int(now.Sub(*lastActivity).Hours() / 24)
		if daysSince > decayGraceDays {
			decay := daysSince - decayGraceDays
			breakdown.TimeDecay = -decay
			score -= decay
		}
	} else if input.MessagesSent > 0 {
		// We reached out but never heard back and have no timestamp to
		// decay from: flat penalty.
		breakdown.TimeDecay = -noActivityPenalty
		score -= noActivityPenalty
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	return LeadScoreResult{
		Score:     score,
		Category:  categorize(score),
		Breakdown: breakdown,
	}
}

// categorize thresholds are inclusive on the lower bound, evaluated
// descending.
func categorize(score int) string {
	switch {
	case score >= 80:
		return CategoryHot
	case score >= 50:
		return CategoryWarm
	case score >= 20:
		return CategoryCold
	default:
		return CategoryDead
	}
}

// ScoreLeads scores a batch independently, preserving input order.
func ScoreLeads(inputs []LeadScoreInput, now time.Time) []LeadScoreResult {
	results := make([]LeadScoreResult, len(inputs))
	for i, input := range inputs {
		results[i] = CalculateLeadScore(input, now)
	}
	return results
}

// ExplainScore renders a one-line human-readable breakdown for logs
// and the lead detail view.
func ExplainScore(result LeadScoreResult) string {
	var parts []string

	if result.Breakdown.ResponseBonus > 0 {
		parts = append(parts, fmt.Sprintf("+%d (responded)", result.Breakdown.ResponseBonus))
	}
	if result.Breakdown.IntentBonus > 0 {
		parts = append(parts, fmt.Sprintf("+%d (positive intent)", result.Breakdown.IntentBonus))
	} else if result.Breakdown.IntentBonus < 0 {
		parts = append(parts, fmt.Sprintf("%d (negative intent)", result.Breakdown.IntentBonus))
	}
	if result.Breakdown.EngagementBonus > 0 {
		parts = append(parts, fmt.Sprintf("+%d (engagement)", result.Breakdown.EngagementBonus))
	}
	if result.Breakdown.CompletenessBonus > 0 {
		parts = append(parts, fmt.Sprintf("+%d (complete contact)", result.Breakdown.CompletenessBonus))
	}
	if result.Breakdown.TimeDecay < 0 {
		parts = append(parts, fmt.Sprintf("%d (time decay)", result.Breakdown.TimeDecay))
	}

	return fmt.Sprintf("Score: %d (%s) = %d base %s", result.Score, result.Category, baseScore, strings.Join(parts, " "))
}
