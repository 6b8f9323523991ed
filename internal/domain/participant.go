package domain

import (
	"context"
	"time"
)

// Participant belongs to exactly one lottery. Name is stored with its
// original casing and is unique within the lottery; lookups are
// case-insensitive. Recipient is the name of the participant this one gives
// a gift to. Viewed flips false→true exactly once, stamping ViewedAt.
type Participant struct {
	ID        int64      `json:"-"`
	LotteryID int64      `json:"-"`
	Name      string     `json:"name"`
	Family    string     `json:"family,omitempty"`
	Recipient string     `json:"-"`
	Viewed    bool       `json:"viewed"`
	ViewedAt  *time.Time `json:"viewed_at,omitempty"`
}

// NewParticipant returns a Participant for the given lottery. ID is set by
// the repository on create.
func NewParticipant(lotteryID int64, name, family, recipient string) *Participant {
	return &Participant{
		LotteryID: lotteryID,
		Name:      name,
		Family:    family,
		Recipient: recipient,
	}
}

// Assignment is the private answer to "who do I give a gift to".
// Giver carries the stored original casing of the participant's name, even
// when the lookup used different casing.
type Assignment struct {
	Giver     string `json:"giver"`
	Recipient string `json:"recipient"`
	Family    string `json:"family,omitempty"`
}

// ParticipantRepository defines the storage contract for participants.
type ParticipantRepository interface {
	// ListByLotteryID returns all participants of a lottery, ordered by name.
	ListByLotteryID(ctx context.Context, lotteryID int64) ([]*Participant, error)
	// GetByName looks up a participant by case-insensitive name match.
	GetByName(ctx context.Context, lotteryID int64, name string) (*Participant, error)
	// MarkViewed atomically flips viewed from false to true and stamps
	// viewedAt. It reports whether this call caused the transition; an
	// already-viewed or unknown participant yields false, nil.
	MarkViewed(ctx context.Context, lotteryID int64, name string, viewedAt time.Time) (bool, error)
}
