package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"giftlottery/internal/domain"
)

// uniqueViolation is the postgres error code for unique constraint violations.
const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

type lotteryRepository struct {
	DB *sql.DB
}

func NewLotteryRepository(db *sql.DB) domain.LotteryRepository {
	return &lotteryRepository{
		DB: db,
	}
}

// CreateWithParticipants inserts the lottery and all participants in one
// transaction. A collision on the event URL token surfaces as ErrTokenInUse
// so the caller can retry with a fresh token.
func (r *lotteryRepository) CreateWithParticipants(ctx context.Context, l *domain.Lottery, participants []*domain.Participant) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO lotteries (event_url, event_name, admin_username, admin_password, family_mode, created_at, active)
		VALUES ($1, $2, $3, $4, $5, $6, TRUE)
		RETURNING id
	`
	err = tx.QueryRowContext(ctx, query, l.EventURL, l.EventName, l.AdminUsername, l.AdminPassword, l.FamilyMode, l.CreatedAt).Scan(&l.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrTokenInUse
		}
		return err
	}

	insert := `
		INSERT INTO participants (lottery_id, name, family, recipient, viewed)
		VALUES ($1, $2, $3, $4, FALSE)
		RETURNING id
	`
	for _, p := range participants {
		p.LotteryID = l.ID
		var family sql.NullString
		if p.Family != "" {
			family = sql.NullString{String: p.Family, Valid: true}
		}
		if err := tx.QueryRowContext(ctx, insert, l.ID, p.Name, family, p.Recipient).Scan(&p.ID); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *lotteryRepository) GetActive(ctx context.Context, eventURL string) (*domain.Lottery, error) {
	query := `
		SELECT id, event_url, event_name, admin_username, admin_password, family_mode, created_at, active
		FROM lotteries
		WHERE active = TRUE
	`
	args := []any{}
	if eventURL != "" {
		query += ` AND event_url = $1`
		args = append(args, eventURL)
	}
	query += ` ORDER BY created_at DESC LIMIT 1`

	return r.scanLottery(r.DB.QueryRowContext(ctx, query, args...))
}

func (r *lotteryRepository) GetByID(ctx context.Context, id int64) (*domain.Lottery, error) {
	query := `
		SELECT id, event_url, event_name, admin_username, admin_password, family_mode, created_at, active
		FROM lotteries
		WHERE id = $1 AND active = TRUE
	`
	return r.scanLottery(r.DB.QueryRowContext(ctx, query, id))
}

func (r *lotteryRepository) scanLottery(row *sql.Row) (*domain.Lottery, error) {
	l := &domain.Lottery{}
	err := row.Scan(&l.ID, &l.EventURL, &l.EventName, &l.AdminUsername, &l.AdminPassword, &l.FamilyMode, &l.CreatedAt, &l.Active)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return l, nil
}

// VerifyAdmin compares credentials verbatim in the query, scoped to active
// lotteries. Plaintext comparison is the preserved contract of this system.
func (r *lotteryRepository) VerifyAdmin(ctx context.Context, eventURL, username, password string) (bool, error) {
	query := `
		SELECT id FROM lotteries
		WHERE event_url = $1 AND admin_username = $2 AND admin_password = $3 AND active = TRUE
	`
	var id int64
	err := r.DB.QueryRowContext(ctx, query, eventURL, username, password).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Delete hard-deletes the lottery; participants, recovery sessions, and
// clicks go with it via the cascading foreign keys.
func (r *lotteryRepository) Delete(ctx context.Context, eventURL string) error {
	query := `DELETE FROM lotteries WHERE event_url = $1`
	result, err := r.DB.ExecContext(ctx, query, eventURL)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}
