package domain

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrDuplicateClick is returned when a name is clicked a second time in
	// the same recovery session.
	ErrDuplicateClick = errors.New("name already clicked in this session")
	// ErrNameNotInEvent is returned when a clicked name is not a participant
	// of the session's lottery.
	ErrNameNotInEvent = errors.New("name is not a participant of this event")
	// ErrAlreadyCompleted is returned when a click arrives after the session
	// reached Completed.
	ErrAlreadyCompleted = errors.New("recovery session already completed")
)

// RecoverySession tracks one run of the elimination protocol for a lottery.
// EmailSent doubles as the completion flag: false is Open, true is Completed.
// The transition is one-way and happens at most once.
type RecoverySession struct {
	ID            int64      `json:"-"`
	LotteryID     int64      `json:"-"`
	RecoveryURL   string     `json:"recovery_url"`
	RecoveryEmail string     `json:"-"`
	EmailSent     bool       `json:"email_sent"`
	CreatedAt     time.Time  `json:"created_at"`
	EmailSentAt   *time.Time `json:"email_sent_at,omitempty"`
}

// NewRecoverySession returns an Open session with zero clicks. ID is set by
// the repository on create.
func NewRecoverySession(lotteryID int64, recoveryURL, recoveryEmail string, createdAt time.Time) *RecoverySession {
	return &RecoverySession{
		LotteryID:     lotteryID,
		RecoveryURL:   recoveryURL,
		RecoveryEmail: recoveryEmail,
		CreatedAt:     createdAt,
	}
}

// RecoveryView is what any client may see of a session. It deliberately
// carries only the aggregate click count, never which names were clicked.
type RecoveryView struct {
	EventName         string   `json:"event_name"`
	Participants      []string `json:"participants"`
	ClickCount        int      `json:"click_count"`
	TotalParticipants int      `json:"total_participants"`
	EmailSent         bool     `json:"email_sent"`
}

// ClickResult reports the outcome of a registered click. Completed is true
// only for the single click that satisfied the elimination condition. The
// deduced name is never part of the result; it travels only over the
// session's email side channel.
type ClickResult struct {
	ClickCount        int  `json:"click_count"`
	TotalParticipants int  `json:"total_participants"`
	Completed         bool `json:"completed"`
}

// RecoverySessionSummary is the admin-facing projection of a session.
type RecoverySessionSummary struct {
	RecoveryURL   string     `json:"recovery_url"`
	RecoveryEmail string     `json:"recovery_email"`
	ClickCount    int        `json:"click_count"`
	EmailSent     bool       `json:"email_sent"`
	CreatedAt     time.Time  `json:"created_at"`
	EmailSentAt   *time.Time `json:"email_sent_at,omitempty"`
}

// RecoveryRepository defines the storage contract for recovery sessions and
// their clicks.
type RecoveryRepository interface {
	CreateSession(ctx context.Context, session *RecoverySession) error
	GetSessionByURL(ctx context.Context, recoveryURL string) (*RecoverySession, error)
	// ListSummariesByLotteryID returns per-session summaries with click counts.
	ListSummariesByLotteryID(ctx context.Context, lotteryID int64) ([]*RecoverySessionSummary, error)
	// InsertClick records a click and returns every name clicked in the
	// session, including this one, read in the same transaction as the
	// insert. Concurrent clicks on one session are serialized, so each caller
	// observes a distinct post-insert count and exactly one of them can see
	// the N-1 elimination condition. Per-session name uniqueness is enforced
	// by the storage layer; a violation returns ErrDuplicateClick, closing
	// the race between check and insert.
	InsertClick(ctx context.Context, sessionID int64, recipientName string, clickedAt time.Time) ([]string, error)
	// ListClickedNames returns the distinct names clicked so far.
	ListClickedNames(ctx context.Context, sessionID int64) ([]string, error)
	// CompleteSession flips email_sent false→true and stamps emailSentAt as a
	// single conditional write. It reports whether this call won the
	// transition; false means another caller already completed the session.
	CompleteSession(ctx context.Context, sessionID int64, emailSentAt time.Time) (bool, error)
}

// RecoveryService defines the recovery elimination protocol manager.
type RecoveryService interface {
	Open(ctx context.Context, eventURL, recoveryEmail string) (recoveryURL string, err error)
	View(ctx context.Context, recoveryURL string) (*RecoveryView, error)
	RegisterClick(ctx context.Context, recoveryURL, recipientName string) (*ClickResult, error)
	// ResendReveal re-dispatches the reveal email for a Completed session.
	ResendReveal(ctx context.Context, recoveryURL string) error
	SessionsForEvent(ctx context.Context, eventURL string) ([]*RecoverySessionSummary, error)
}
