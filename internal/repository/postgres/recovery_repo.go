package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"giftlottery/internal/domain"
)

type recoveryRepository struct {
	DB *sql.DB
}

func NewRecoveryRepository(db *sql.DB) domain.RecoveryRepository {
	return &recoveryRepository{
		DB: db,
	}
}

func (r *recoveryRepository) CreateSession(ctx context.Context, s *domain.RecoverySession) error {
	query := `
		INSERT INTO recovery_sessions (recovery_url, lottery_id, recovery_email, created_at, email_sent)
		VALUES ($1, $2, $3, $4, FALSE)
		RETURNING id
	`
	err := r.DB.QueryRowContext(ctx, query, s.RecoveryURL, s.LotteryID, s.RecoveryEmail, s.CreatedAt).Scan(&s.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrTokenInUse
		}
		return err
	}
	return nil
}

func (r *recoveryRepository) GetSessionByURL(ctx context.Context, recoveryURL string) (*domain.RecoverySession, error) {
	query := `
		SELECT id, recovery_url, lottery_id, recovery_email, created_at, email_sent, email_sent_at
		FROM recovery_sessions
		WHERE recovery_url = $1
	`
	s := &domain.RecoverySession{}
	var sentAt sql.NullTime
	err := r.DB.QueryRowContext(ctx, query, recoveryURL).Scan(
		&s.ID, &s.RecoveryURL, &s.LotteryID, &s.RecoveryEmail, &s.CreatedAt, &s.EmailSent, &sentAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if sentAt.Valid {
		s.EmailSentAt = &sentAt.Time
	}
	return s, nil
}

func (r *recoveryRepository) ListSummariesByLotteryID(ctx context.Context, lotteryID int64) ([]*domain.RecoverySessionSummary, error) {
	query := `
		SELECT s.recovery_url, s.recovery_email, s.email_sent, s.created_at, s.email_sent_at,
			COUNT(c.id) AS click_count
		FROM recovery_sessions s
		LEFT JOIN recovery_clicks c ON c.recovery_session_id = s.id
		WHERE s.lottery_id = $1
		GROUP BY s.id
		ORDER BY s.created_at DESC
	`
	rows, err := r.DB.QueryContext(ctx, query, lotteryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summaries := make([]*domain.RecoverySessionSummary, 0)
	for rows.Next() {
		s := &domain.RecoverySessionSummary{}
		var sentAt sql.NullTime
		if err := rows.Scan(&s.RecoveryURL, &s.RecoveryEmail, &s.EmailSent, &s.CreatedAt, &sentAt, &s.ClickCount); err != nil {
			return nil, err
		}
		if sentAt.Valid {
			s.EmailSentAt = &sentAt.Time
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

// InsertClick inserts the click and reads back all clicked names inside one
// transaction, holding the session row lock so concurrent clicks on the same
// session serialize. Without the lock, two inserts committing back to back
// could each read a count past N-1 and the elimination would never fire. The
// UNIQUE (recovery_session_id, clicked_recipient_name) constraint surfaces
// duplicates as ErrDuplicateClick even when two clicks for the same name race
// each other.
func (r *recoveryRepository) InsertClick(ctx context.Context, sessionID int64, recipientName string, clickedAt time.Time) ([]string, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var id int64
	lock := `SELECT id FROM recovery_sessions WHERE id = $1 FOR UPDATE`
	if err := tx.QueryRowContext(ctx, lock, sessionID).Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	insert := `
		INSERT INTO recovery_clicks (recovery_session_id, clicked_recipient_name, clicked_at)
		VALUES ($1, $2, $3)
	`
	if _, err := tx.ExecContext(ctx, insert, sessionID, recipientName, clickedAt); err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrDuplicateClick
		}
		return nil, err
	}

	query := `
		SELECT clicked_recipient_name
		FROM recovery_clicks
		WHERE recovery_session_id = $1
		ORDER BY clicked_at
	`
	rows, err := tx.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	names := make([]string, 0)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return names, nil
}

func (r *recoveryRepository) ListClickedNames(ctx context.Context, sessionID int64) ([]string, error) {
	query := `
		SELECT clicked_recipient_name
		FROM recovery_clicks
		WHERE recovery_session_id = $1
		ORDER BY clicked_at
	`
	rows, err := r.DB.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	names := make([]string, 0)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// CompleteSession is the one-way Open→Completed transition. The email_sent
// guard makes it a single atomic conditional write: of two concurrent callers
// that both observed the elimination condition, exactly one gets true.
func (r *recoveryRepository) CompleteSession(ctx context.Context, sessionID int64, emailSentAt time.Time) (bool, error) {
	query := `
		UPDATE recovery_sessions
		SET email_sent = TRUE, email_sent_at = $1
		WHERE id = $2 AND email_sent = FALSE
	`
	result, err := r.DB.ExecContext(ctx, query, emailSentAt, sessionID)
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}
