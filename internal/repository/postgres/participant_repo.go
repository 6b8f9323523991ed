package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"giftlottery/internal/domain"
)

type participantRepository struct {
	DB *sql.DB
}

func NewParticipantRepository(db *sql.DB) domain.ParticipantRepository {
	return &participantRepository{
		DB: db,
	}
}

func (r *participantRepository) ListByLotteryID(ctx context.Context, lotteryID int64) ([]*domain.Participant, error) {
	query := `
		SELECT id, lottery_id, name, family, recipient, viewed, viewed_at
		FROM participants
		WHERE lottery_id = $1
		ORDER BY name
	`
	rows, err := r.DB.QueryContext(ctx, query, lotteryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	participants := make([]*domain.Participant, 0)
	for rows.Next() {
		p, err := scanParticipant(rows)
		if err != nil {
			return nil, err
		}
		participants = append(participants, p)
	}
	return participants, rows.Err()
}

// GetByName matches case-insensitively while the stored name keeps its
// original casing for display.
func (r *participantRepository) GetByName(ctx context.Context, lotteryID int64, name string) (*domain.Participant, error) {
	query := `
		SELECT id, lottery_id, name, family, recipient, viewed, viewed_at
		FROM participants
		WHERE lottery_id = $1 AND LOWER(name) = LOWER($2)
	`
	row := r.DB.QueryRowContext(ctx, query, lotteryID, name)
	p := &domain.Participant{}
	var family sql.NullString
	var viewedAt sql.NullTime
	err := row.Scan(&p.ID, &p.LotteryID, &p.Name, &family, &p.Recipient, &p.Viewed, &viewedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if family.Valid {
		p.Family = family.String
	}
	if viewedAt.Valid {
		p.ViewedAt = &viewedAt.Time
	}
	return p, nil
}

// MarkViewed is a conditional update: it only succeeds while viewed is still
// false, so concurrent duplicate requests resolve to exactly one transition.
func (r *participantRepository) MarkViewed(ctx context.Context, lotteryID int64, name string, viewedAt time.Time) (bool, error) {
	query := `
		UPDATE participants
		SET viewed = TRUE, viewed_at = $1
		WHERE lottery_id = $2 AND LOWER(name) = LOWER($3) AND viewed = FALSE
	`
	result, err := r.DB.ExecContext(ctx, query, viewedAt, lotteryID, name)
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanParticipant(row rowScanner) (*domain.Participant, error) {
	p := &domain.Participant{}
	var family sql.NullString
	var viewedAt sql.NullTime
	if err := row.Scan(&p.ID, &p.LotteryID, &p.Name, &family, &p.Recipient, &p.Viewed, &viewedAt); err != nil {
		return nil, err
	}
	if family.Valid {
		p.Family = family.String
	}
	if viewedAt.Valid {
		p.ViewedAt = &viewedAt.Time
	}
	return p, nil
}
