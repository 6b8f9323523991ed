// Package realtime pushes state-change events to websocket subscribers.
// Topics are keyed by event token, by recovery-session token, and a global
// admin topic; click identities are never published.
package realtime

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/olahol/melody"

	"giftlottery/internal/domain"
)

const (
	topicKey   = "topic"
	topicAdmin = "admin"
)

// message is the wire format for published events.
type message struct {
	Kind    string `json:"kind"`
	Payload any    `json:"payload,omitempty"`
}

// Hub is a melody-backed Notifier. Each websocket session subscribes to
// exactly one topic, chosen by the endpoint it connected through.
type Hub struct {
	m        *melody.Melody
	verifier domain.TokenVerifier
	logger   *slog.Logger
}

func NewHub(verifier domain.TokenVerifier, logger *slog.Logger) *Hub {
	m := melody.New()

	m.HandleDisconnect(func(s *melody.Session) {
		topic, _ := s.Get(topicKey)
		logger.Debug("websocket client disconnected", "topic", topic)
	})
	m.HandleError(func(s *melody.Session, err error) {
		logger.Debug("websocket error", "err", err)
	})

	return &Hub{m: m, verifier: verifier, logger: logger}
}

// SubscribeLottery upgrades the request into a subscription on one event's topic.
func (h *Hub) SubscribeLottery(w http.ResponseWriter, r *http.Request) {
	h.subscribe(w, r, "lottery:"+r.PathValue("eventUrl"))
}

// SubscribeRecovery upgrades the request into a subscription on one recovery
// session's topic.
func (h *Hub) SubscribeRecovery(w http.ResponseWriter, r *http.Request) {
	h.subscribe(w, r, "recovery:"+r.PathValue("recoveryUrl"))
}

// SubscribeAdmin upgrades the request into a subscription on the global admin
// topic. It requires a valid admin session token in the token query parameter.
func (h *Hub) SubscribeAdmin(w http.ResponseWriter, r *http.Request) {
	if _, err := h.verifier.Verify(r.URL.Query().Get("token")); err != nil {
		http.Error(w, "invalid or expired token", http.StatusUnauthorized)
		return
	}
	h.subscribe(w, r, topicAdmin)
}

func (h *Hub) subscribe(w http.ResponseWriter, r *http.Request, topic string) {
	if err := h.m.HandleRequestWithKeys(w, r, map[string]any{topicKey: topic}); err != nil {
		h.logger.Debug("websocket upgrade failed", "err", err)
	}
}

// PublishLottery implements domain.Notifier.
func (h *Hub) PublishLottery(eventURL, kind string, payload any) {
	h.publish("lottery:"+eventURL, kind, payload)
}

// PublishRecovery implements domain.Notifier.
func (h *Hub) PublishRecovery(recoveryURL, kind string, payload any) {
	h.publish("recovery:"+recoveryURL, kind, payload)
}

// PublishAdmin implements domain.Notifier.
func (h *Hub) PublishAdmin(kind string, payload any) {
	h.publish(topicAdmin, kind, payload)
}

func (h *Hub) publish(topic, kind string, payload any) {
	raw, err := json.Marshal(message{Kind: kind, Payload: payload})
	if err != nil {
		h.logger.Warn("broadcast marshal failed", "kind", kind, "err", err)
		return
	}
	err = h.m.BroadcastFilter(raw, func(s *melody.Session) bool {
		t, ok := s.Get(topicKey)
		return ok && t == topic
	})
	if err != nil {
		h.logger.Debug("broadcast failed", "topic", topic, "err", err)
	}
}

// Close shuts down the hub and disconnects all sessions.
func (h *Hub) Close() error {
	return h.m.Close()
}
