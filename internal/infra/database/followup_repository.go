package database

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/karim-hossien-dotcom/realestate-ai-sub000/internal/entity"
)

// runLockKey identifies the dispatcher's global advisory lock.
const runLockKey = 824471

type FollowUpRepository struct {
	DB *sql.DB

	// Advisory locks are session scoped, so the lock pins a dedicated
	// connection from acquire until release.
	mu       sync.Mutex
	lockConn *sql.Conn
}

func NewFollowUpRepository(db *sql.DB) *FollowUpRepository {
	return &FollowUpRepository{DB: db}
}

func (r *FollowUpRepository) SelectDue(ctx context.Context, now time.Time, limit int) ([]*entity.FollowUp, error) {
	query := `
		SELECT
			id,
			user_id,
			lead_id,
			COALESCE(message_text, ''),
			scheduled_at,
			COALESCE(channel, 'both'),
			status,
			retry_count,
			COALESCE(follow_up_number, 1),
			email_sent_at,
			whatsapp_sent_at,
			sent_at,
			COALESCE(error_message, ''),
			created_at,
			updated_at
		FROM follow_ups
		WHERE status = 'pending'
		  AND scheduled_at <= $1
		  AND retry_count < $2
		ORDER BY scheduled_at ASC
		LIMIT $3
	`

	rows, err := r.DB.QueryContext(ctx, query, now, entity.MaxRetries, limit)
	if err != nil {
		return nil, fmt.Errorf("selecting due follow-ups: %w", err)
	}
	defer rows.Close()

	var due []*entity.FollowUp
	for rows.Next() {
		var f entity.FollowUp
		if err := rows.Scan(
			&f.ID,
			&f.UserID,
			&f.LeadID,
			&f.MessageText,
			&f.ScheduledAt,
			&f.Channel,
			&f.Status,
			&f.RetryCount,
			&f.FollowUpNumber,
			&f.EmailSentAt,
			&f.WhatsAppSentAt,
			&f.SentAt,
			&f.ErrorMessage,
			&f.CreatedAt,
			&f.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning follow-up: %w", err)
		}
		due = append(due, &f)
	}

	return due, rows.Err()
}

func (r *FollowUpRepository) MarkCancelled(ctx context.Context, id, reason string) (bool, error) {
	query := `
		UPDATE follow_ups
		SET status = 'cancelled', error_message = $2, updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
	`

	res, err := r.DB.ExecContext(ctx, query, id, reason)
	if err != nil {
		return false, fmt.Errorf("cancelling follow-up %s: %w", id, err)
	}
	return oneRowAffected(res)
}

func (r *FollowUpRepository) MarkOutcome(ctx context.Context, outcome entity.FollowUpOutcome) (bool, error) {
	query := `
		UPDATE follow_ups
		SET
			status = $2,
			email_sent_at = COALESCE($3, email_sent_at),
			whatsapp_sent_at = COALESCE($4, whatsapp_sent_at),
			sent_at = $5,
			error_message = NULLIF($6, ''),
			retry_count = $7,
			updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
	`

	res, err := r.DB.ExecContext(
		ctx,
		query,
		outcome.ID,
		string(outcome.Status),
		outcome.EmailSentAt,
		outcome.WhatsAppSentAt,
		outcome.SentAt,
		outcome.ErrorMessage,
		outcome.RetryCount,
	)
	if err != nil {
		return false, fmt.Errorf("persisting outcome for follow-up %s: %w", outcome.ID, err)
	}
	return oneRowAffected(res)
}

func (r *FollowUpRepository) MarkRetry(ctx context.Context, id string, newRetryCount int, errMsg string) (bool, error) {
	// Below the cap the follow-up reverts to pending at the original
	// scheduled_at; at the cap the failure is terminal.
	status := entity.FollowUpPending
	if newRetryCount >= entity.MaxRetries {
		status = entity.FollowUpFailed
	}

	query := `
		UPDATE follow_ups
		SET status = $2, retry_count = $3, error_message = $4, updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
	`

	res, err := r.DB.ExecContext(ctx, query, id, string(status), newRetryCount, errMsg)
	if err != nil {
		return false, fmt.Errorf("recording retry for follow-up %s: %w", id, err)
	}
	return oneRowAffected(res)
}

func (r *FollowUpRepository) TryAcquireRunLock(ctx context.Context) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.lockConn != nil {
		// This process already holds the lock.
		return false, nil
	}

	conn, err := r.DB.Conn(ctx)
	if err != nil {
		return false, fmt.Errorf("getting lock connection: %w", err)
	}

	var acquired bool
	if err := conn.QueryRowContext(ctx, `SELECT pg_try_advisory_lock($1)`, runLockKey).Scan(&acquired); err != nil {
		conn.Close()
		return false, fmt.Errorf("acquiring advisory lock: %w", err)
	}
	if !acquired {
		conn.Close()
		return false, nil
	}

	r.lockConn = conn
	return true, nil
}

func (r *FollowUpRepository) ReleaseRunLock(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.lockConn == nil {
		return nil
	}

	_, err := r.lockConn.ExecContext(ctx, `SELECT pg_advisory_unlock($1)`, runLockKey)
	closeErr := r.lockConn.Close()
	r.lockConn = nil

	if err != nil {
		return fmt.Errorf("releasing advisory lock: %w", err)
	}
	return closeErr
}

func oneRowAffected(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
