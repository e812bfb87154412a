package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/karim-hossien-dotcom/realestate-ai-sub000/internal/entity"
)

type LeadRepository struct {
	DB *sql.DB
}

func NewLeadRepository(db *sql.DB) *LeadRepository {
	return &LeadRepository{DB: db}
}

func (r *LeadRepository) FindByID(ctx context.Context, id string) (*entity.Lead, error) {
	query := `
		SELECT
			id,
			user_id,
			COALESCE(owner_name, ''),
			COALESCE(email, ''),
			COALESCE(phone, ''),
			COALESCE(property_address, ''),
			COALESCE(status, 'new'),
			COALESCE(response_count, 0),
			COALESCE(messages_sent, 0),
			last_response_at,
			last_contacted_at,
			COALESCE(crm_id, ''),
			COALESCE(score, 0),
			COALESCE(score_category, ''),
			created_at,
			updated_at
		FROM leads
		WHERE id = $1
	`

	var lead entity.Lead
	err := r.DB.QueryRowContext(ctx, query, id).Scan(
		&lead.ID,
		&lead.UserID,
		&lead.OwnerName,
		&lead.Email,
		&lead.Phone,
		&lead.PropertyAddress,
		&lead.Status,
		&lead.ResponseCount,
		&lead.MessagesSent,
		&lead.LastResponseAt,
		&lead.LastContactedAt,
		&lead.CRMID,
		&lead.Score,
		&lead.ScoreCategory,
		&lead.CreatedAt,
		&lead.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading lead %s: %w", id, err)
	}

	return &lead, nil
}

func (r *LeadRepository) Upsert(ctx context.Context, lead *entity.Lead) error {
	query := `
		INSERT INTO leads (user_id, email, owner_name, phone, property_address, status, updated_at)
		VALUES ($1, $2, $3, $4, $5, COALESCE(NULLIF($6, ''), 'new'), NOW())
		ON CONFLICT (user_id, email)
		DO UPDATE SET
			owner_name = COALESCE(EXCLUDED.owner_name, leads.owner_name),
			phone = COALESCE(EXCLUDED.phone, leads.phone),
			property_address = COALESCE(EXCLUDED.property_address, leads.property_address),
			updated_at = NOW()
		RETURNING id, status, created_at, updated_at
	`

	err := r.DB.QueryRowContext(
		ctx,
		query,
		lead.UserID,
		entity.NormalizeEmail(lead.Email),
		nullString(lead.OwnerName),
		nullString(lead.Phone),
		nullString(lead.PropertyAddress),
		lead.Status,
	).Scan(
		&lead.ID,
		&lead.Status,
		&lead.CreatedAt,
		&lead.UpdatedAt,
	)

	return err
}

func (r *LeadRepository) UpdateScore(ctx context.Context, id string, score int, category string) error {
	query := `
		UPDATE leads
		SET score = $2, score_category = $3, updated_at = NOW()
		WHERE id = $1
	`

	_, err := r.DB.ExecContext(ctx, query, id, score, category)
	if err != nil {
		return fmt.Errorf("updating score for lead %s: %w", id, err)
	}
	return nil
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
