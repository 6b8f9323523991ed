package http

import (
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"giftlottery/internal/adapters/realtime"
	"giftlottery/internal/delivery/http/controllers"
	"giftlottery/internal/delivery/http/middleware"
	"giftlottery/internal/domain"
)

// NewRouter initializes the HTTP router with all application routes.
func NewRouter(
	lotteryController *controllers.LotteryController,
	recoveryController *controllers.RecoveryController,
	hub *realtime.Hub,
	verifier domain.TokenVerifier,
) *http.ServeMux {
	mux := http.NewServeMux()
	admin := middleware.RequireAdmin(verifier)

	// Events
	mux.HandleFunc("POST /api/events", lotteryController.Create)
	mux.HandleFunc("GET /api/status", lotteryController.Status)
	mux.HandleFunc("GET /api/events/{eventUrl}/status", lotteryController.Status)
	mux.HandleFunc("POST /api/draw", lotteryController.Draw)
	mux.HandleFunc("POST /api/events/{eventUrl}/draw", lotteryController.Draw)
	mux.HandleFunc("POST /api/events/{eventUrl}/admin/login", lotteryController.AdminLogin)
	mux.HandleFunc("DELETE /api/events/{eventUrl}", lotteryController.Delete)

	// Recovery protocol
	mux.HandleFunc("POST /api/events/{eventUrl}/recovery", recoveryController.Open)
	mux.HandleFunc("GET /api/recovery/{recoveryUrl}", recoveryController.View)
	mux.HandleFunc("POST /api/recovery/{recoveryUrl}/click", recoveryController.Click)
	mux.HandleFunc("POST /api/recovery/{recoveryUrl}/resend", admin(recoveryController.Resend))
	mux.HandleFunc("GET /api/events/{eventUrl}/recovery-sessions", admin(recoveryController.Sessions))

	// Realtime subscriptions
	mux.HandleFunc("GET /ws/events/{eventUrl}", hub.SubscribeLottery)
	mux.HandleFunc("GET /ws/recovery/{recoveryUrl}", hub.SubscribeRecovery)
	mux.HandleFunc("GET /ws/admin", hub.SubscribeAdmin)

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return mux
}
