package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

// schema is the logical model: a lottery exclusively owns its participants
// and recovery sessions, a session its clicks (cascade deletes). The UNIQUE
// constraints on tokens and on (recovery_session_id, clicked_recipient_name)
// are load-bearing: the latter closes the check-then-insert race on clicks.
const schema = `
CREATE TABLE IF NOT EXISTS lotteries (
	id BIGSERIAL PRIMARY KEY,
	event_url TEXT UNIQUE NOT NULL,
	event_name TEXT NOT NULL,
	admin_username TEXT NOT NULL,
	admin_password TEXT NOT NULL,
	family_mode BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ NOT NULL,
	active BOOLEAN NOT NULL DEFAULT TRUE
);

CREATE TABLE IF NOT EXISTS participants (
	id BIGSERIAL PRIMARY KEY,
	lottery_id BIGINT NOT NULL REFERENCES lotteries(id) ON DELETE CASCADE,
	name TEXT NOT NULL,
	family TEXT,
	recipient TEXT NOT NULL,
	viewed BOOLEAN NOT NULL DEFAULT FALSE,
	viewed_at TIMESTAMPTZ,
	UNIQUE (lottery_id, name)
);

CREATE TABLE IF NOT EXISTS recovery_sessions (
	id BIGSERIAL PRIMARY KEY,
	recovery_url TEXT UNIQUE NOT NULL,
	lottery_id BIGINT NOT NULL REFERENCES lotteries(id) ON DELETE CASCADE,
	recovery_email TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	email_sent BOOLEAN NOT NULL DEFAULT FALSE,
	email_sent_at TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS recovery_clicks (
	id BIGSERIAL PRIMARY KEY,
	recovery_session_id BIGINT NOT NULL REFERENCES recovery_sessions(id) ON DELETE CASCADE,
	clicked_recipient_name TEXT NOT NULL,
	clicked_at TIMESTAMPTZ NOT NULL,
	UNIQUE (recovery_session_id, clicked_recipient_name)
);

CREATE INDEX IF NOT EXISTS idx_lotteries_active ON lotteries(active);
CREATE INDEX IF NOT EXISTS idx_participants_lottery ON participants(lottery_id);
CREATE INDEX IF NOT EXISTS idx_recovery_sessions_lottery ON recovery_sessions(lottery_id);
`

// InitSchema creates the tables and indexes if they do not exist yet.
func InitSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}
