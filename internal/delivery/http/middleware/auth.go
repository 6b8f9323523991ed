package middleware

import (
	"context"
	"net/http"
	"strings"

	h "giftlottery/internal/delivery/http/helpers"
	"giftlottery/internal/domain"
)

type contextKey string

const adminEventKey contextKey = "adminEventURL"

// SetAdminEvent returns a context carrying the event URL the admin token is
// scoped to. Used by the auth middleware.
func SetAdminEvent(ctx context.Context, eventURL string) context.Context {
	return context.WithValue(ctx, adminEventKey, eventURL)
}

// AdminEventFromContext returns the event URL of the verified admin token, if present.
func AdminEventFromContext(ctx context.Context) (string, bool) {
	url, ok := ctx.Value(adminEventKey).(string)
	return url, ok
}

// RequireAdmin returns a wrapper that validates the Bearer admin token and
// checks its scope against the eventUrl path value. An out-of-scope token is
// rejected like a missing one, so one event's organizer learns nothing about
// another event.
func RequireAdmin(verifier domain.TokenVerifier) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			const prefix = "Bearer "
			if !strings.HasPrefix(auth, prefix) {
				h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "missing bearer token")
				return
			}
			token := strings.TrimSpace(auth[len(prefix):])
			scopedEventURL, err := verifier.Verify(token)
			if err != nil {
				h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "invalid or expired token")
				return
			}
			if pathEventURL := r.PathValue("eventUrl"); pathEventURL != "" && pathEventURL != scopedEventURL {
				h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "invalid or expired token")
				return
			}
			r = r.WithContext(SetAdminEvent(r.Context(), scopedEventURL))
			next(w, r)
		}
	}
}
