package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"time"

	_ "github.com/lib/pq"

	"giftlottery/config"
	"giftlottery/internal/adapters/auth"
	"giftlottery/internal/adapters/email"
	"giftlottery/internal/adapters/realtime"
	"giftlottery/internal/assign"
	delivery "giftlottery/internal/delivery/http"
	"giftlottery/internal/delivery/http/controllers"
	"giftlottery/internal/delivery/http/middleware"
	"giftlottery/internal/repository/postgres"
	"giftlottery/internal/services"
)

const serviceTimeout = 5 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger := config.NewLogger(cfg.Environment)

	db, err := sql.Open("postgres", cfg.DBUrl)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		log.Fatalf("ping database: %v", err)
	}
	if err := postgres.InitSchema(context.Background(), db); err != nil {
		log.Fatalf("init schema: %v", err)
	}

	lotteryRepo := postgres.NewLotteryRepository(db)
	participantRepo := postgres.NewParticipantRepository(db)
	recoveryRepo := postgres.NewRecoveryRepository(db)

	mailer, err := email.NewMailer(email.MailerConfig{
		Provider:    cfg.EmailProvider,
		FromAddress: cfg.EmailFromAddress,
		FromName:    cfg.EmailFromName,
		SES: email.SESConfig{
			Region:             cfg.AWSRegion,
			AccessKeyID:        cfg.AWSAccessKeyID,
			SecretAccessKey:    cfg.AWSSecretKey,
			InsecureSkipVerify: cfg.SESSkipTLSVerify,
		},
	}, logger)
	if err != nil {
		log.Fatalf("create mailer: %v", err)
	}
	emailService := services.NewEmailService(mailer, email.NewTemplateRenderer(), logger)

	issuer, verifier := auth.NewJWTTokens(cfg.JWTSecret)
	hub := realtime.NewHub(verifier, logger)
	defer hub.Close()

	engine := assign.New(nil)
	lotteryService := services.NewLotteryService(
		lotteryRepo, participantRepo, engine, emailService, hub, issuer, logger, serviceTimeout,
	)
	recoveryService := services.NewRecoveryService(
		lotteryRepo, participantRepo, recoveryRepo, emailService, hub, logger, serviceTimeout,
	)

	lotteryController := controllers.NewLotteryController(logger, lotteryService)
	recoveryController := controllers.NewRecoveryController(logger, recoveryService)

	mux := delivery.NewRouter(lotteryController, recoveryController, hub, verifier)
	handler := middleware.Logging(logger, middleware.CORS(cfg.CORSOrigins, mux))

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	logger.Info("server listening", "port", cfg.Port, "env", cfg.Environment)
	if err := server.ListenAndServe(); err != nil {
		log.Fatalf("server: %v", err)
	}
}
