package domain

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a lottery, participant, or recovery session
	// does not exist (or is soft-deleted). It is also returned instead of an
	// auth failure whenever distinguishing the two would leak existence.
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput is returned for malformed or missing required input,
	// before anything is persisted.
	ErrInvalidInput = errors.New("invalid input")
	// ErrAuthFailed is returned when admin credentials do not match.
	ErrAuthFailed = errors.New("invalid credentials")
	// ErrAssignmentInfeasible is returned when no valid distribution could be
	// constructed within the attempt budget. This is a heuristic failure, not
	// a proof that none exists.
	ErrAssignmentInfeasible = errors.New("could not construct a valid distribution")
	// ErrTokenInUse is returned by repositories when a freshly generated
	// opaque token collides with an existing one. Callers retry with a new token.
	ErrTokenInUse = errors.New("token already in use")
)

// Lottery is one gift-exchange event. Admin credentials are stored and
// compared verbatim; the unguessable EventURL token is the participant-facing
// capability for the event.
type Lottery struct {
	ID            int64     `json:"-"`
	EventURL      string    `json:"event_url"`
	EventName     string    `json:"event_name"`
	AdminUsername string    `json:"-"`
	AdminPassword string    `json:"-"`
	FamilyMode    bool      `json:"family_mode"`
	CreatedAt     time.Time `json:"created_at"`
	Active        bool      `json:"-"`
}

// NewLottery returns a new active Lottery. ID is set by the repository on create.
func NewLottery(eventURL, eventName, adminUsername, adminPassword string, familyMode bool, createdAt time.Time) *Lottery {
	return &Lottery{
		EventURL:      eventURL,
		EventName:     eventName,
		AdminUsername: adminUsername,
		AdminPassword: adminPassword,
		FamilyMode:    familyMode,
		CreatedAt:     createdAt,
		Active:        true,
	}
}

// LotteryStatus is the read-only status projection of a lottery. When no
// active lottery matches, Exists is false and every count is zero.
type LotteryStatus struct {
	Exists           bool     `json:"exists"`
	EventURL         string   `json:"event_url,omitempty"`
	EventName        string   `json:"event_name,omitempty"`
	ParticipantCount int      `json:"participant_count"`
	ViewedCount      int      `json:"viewed_count"`
	Participants     []string `json:"participants"`
	ViewedBy         []string `json:"viewed_by"`
}

// CreateLotteryInput carries everything needed to create a lottery.
// Families maps participant name to family label; names absent from the map
// have no family. AdminEmail is optional; when set, the admin credentials
// message is dispatched best-effort after creation.
type CreateLotteryInput struct {
	EventName     string
	AdminUsername string
	AdminPassword string
	Participants  []string
	Families      map[string]string
	FamilyMode    bool
	AdminEmail    string
}

// LotteryRepository defines the storage contract for lotteries.
type LotteryRepository interface {
	// CreateWithParticipants persists the lottery and all its participants in
	// one transaction: either every row is written or none.
	CreateWithParticipants(ctx context.Context, lottery *Lottery, participants []*Participant) error
	// GetActive returns the active lottery with the given event URL, or, when
	// eventURL is empty, the most recently created active lottery.
	GetActive(ctx context.Context, eventURL string) (*Lottery, error)
	// GetByID returns an active lottery by its row ID.
	GetByID(ctx context.Context, id int64) (*Lottery, error)
	// VerifyAdmin reports whether the credentials match an active lottery.
	VerifyAdmin(ctx context.Context, eventURL, username, password string) (bool, error)
	// Delete hard-deletes the lottery and everything it owns.
	Delete(ctx context.Context, eventURL string) error
}

// LotteryService defines the event state manager.
type LotteryService interface {
	Create(ctx context.Context, input CreateLotteryInput) (eventURL string, err error)
	Status(ctx context.Context, eventURL string) (*LotteryStatus, error)
	GetAssignment(ctx context.Context, name, eventURL string) (*Assignment, error)
	MarkViewed(ctx context.Context, name, eventURL string) (bool, error)
	VerifyAdmin(ctx context.Context, eventURL, username, password string) (bool, error)
	AdminLogin(ctx context.Context, eventURL, username, password string) (token string, err error)
	Delete(ctx context.Context, eventURL, username, password string) (bool, error)
}
