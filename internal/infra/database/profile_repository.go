package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/karim-hossien-dotcom/realestate-ai-sub000/internal/entity"
)

type ProfileRepository struct {
	DB *sql.DB
}

func NewProfileRepository(db *sql.DB) *ProfileRepository {
	return &ProfileRepository{DB: db}
}

func (r *ProfileRepository) FindByID(ctx context.Context, id string) (*entity.Profile, error) {
	query := `
		SELECT
			id,
			COALESCE(full_name, ''),
			email,
			COALESCE(phone, ''),
			COALESCE(company, '')
		FROM profiles
		WHERE id = $1
	`

	var p entity.Profile
	err := r.DB.QueryRowContext(ctx, query, id).Scan(
		&p.ID,
		&p.FullName,
		&p.Email,
		&p.Phone,
		&p.Company,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading profile %s: %w", id, err)
	}

	return &p, nil
}
