package domain

// Realtime event kinds published to subscribed observers.
const (
	KindLotteryCreated    = "lottery-created"
	KindLotteryReset      = "lottery-reset"
	KindParticipantViewed = "participant-viewed"
	KindRecoveryClick     = "recovery-click"
	KindRecoveryCompleted = "recovery-completed"
)

// ParticipantViewedPayload accompanies KindParticipantViewed.
type ParticipantViewedPayload struct {
	Name        string   `json:"name"`
	ViewedBy    []string `json:"viewed_by"`
	ViewedCount int      `json:"viewed_count"`
}

// RecoveryProgressPayload accompanies KindRecoveryClick and
// KindRecoveryCompleted. It never identifies who clicked.
type RecoveryProgressPayload struct {
	ClickCount        int `json:"click_count"`
	TotalParticipants int `json:"total_participants"`
}

// Notifier pushes state-change events to subscribed observers. Publishing is
// fire-and-forget; at-least-once delivery is acceptable and failures are
// never surfaced to the triggering operation.
type Notifier interface {
	// PublishLottery publishes to observers of one lottery's topic.
	PublishLottery(eventURL, kind string, payload any)
	// PublishRecovery publishes to observers of one recovery session's topic.
	PublishRecovery(recoveryURL, kind string, payload any)
	// PublishAdmin publishes to the global admin topic.
	PublishAdmin(kind string, payload any)
}
