package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/karim-hossien-dotcom/realestate-ai-sub000/internal/infra/database"
	"github.com/karim-hossien-dotcom/realestate-ai-sub000/internal/infra/http/handlers"
	"github.com/karim-hossien-dotcom/realestate-ai-sub000/internal/infra/http/middleware"
	"github.com/karim-hossien-dotcom/realestate-ai-sub000/internal/infra/integration/fub"
	"github.com/karim-hossien-dotcom/realestate-ai-sub000/internal/infra/integration/twilio"
	"github.com/karim-hossien-dotcom/realestate-ai-sub000/internal/infra/integration/whatsapp"
	"github.com/karim-hossien-dotcom/realestate-ai-sub000/internal/infra/mail"
	"github.com/karim-hossien-dotcom/realestate-ai-sub000/internal/infra/queue"
	"github.com/karim-hossien-dotcom/realestate-ai-sub000/internal/infra/worker"
	"github.com/karim-hossien-dotcom/realestate-ai-sub000/internal/usecase"
)

func main() {
	godotenv.Load()

	db, err := database.NewDBConnection(os.Getenv("DATABASE_URL"))
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	rabbitMQ, err := queue.NewRabbitMQ(
		getEnv("RABBITMQ_USER", "guest"),
		getEnv("RABBITMQ_PASS", "guest"),
		getEnv("RABBITMQ_HOST", "localhost"),
		getEnv("RABBITMQ_PORT", "5672"),
	)
	if err != nil {
		log.Fatal(err)
	}
	defer rabbitMQ.Conn.Close()
	defer rabbitMQ.Ch.Close()

	// 1. Repositories
	followUpRepo := database.NewFollowUpRepository(db)
	leadRepo := database.NewLeadRepository(db)
	profileRepo := database.NewProfileRepository(db)
	dncRepo := database.NewDNCRepository(db)
	activityRepo := database.NewActivityLogRepository(db)
	messageRepo := database.NewMessageRepository(db)

	// 2. Channel adapters
	mailPort, _ := strconv.Atoi(getEnv("MAIL_PORT", "587"))
	emailSender := mail.NewEmailSender(
		os.Getenv("MAIL_HOST"), mailPort, os.Getenv("MAIL_USER"), os.Getenv("MAIL_PASS"),
		getEnv("MAIL_FROM", "outreach@localhost"),
	)

	var phoneSender usecase.ChannelSender
	if getEnv("PHONE_CHANNEL", "whatsapp") == "sms" {
		phoneSender = twilio.NewClient(
			os.Getenv("TWILIO_ACCOUNT_SID"),
			os.Getenv("TWILIO_AUTH_TOKEN"),
			os.Getenv("TWILIO_PHONE_NUMBER"),
		)
	} else {
		phoneSender = whatsapp.NewClient(
			os.Getenv("WHATSAPP_ACCESS_TOKEN"),
			os.Getenv("WHATSAPP_PHONE_ID"),
			getEnv("WHATSAPP_TEMPLATE_NAME", "follow_up_notification"),
		)
	}

	producer := queue.NewProducer(rabbitMQ.Conn, rabbitMQ.Ch)

	// 3. UseCases
	dispatchUC := usecase.NewDispatchFollowUpsUseCase(
		followUpRepo, leadRepo, profileRepo, dncRepo, activityRepo, messageRepo,
		emailSender, phoneSender, producer,
	)
	if batch, err := strconv.Atoi(os.Getenv("FOLLOWUP_BATCH_SIZE")); err == nil && batch > 0 {
		dispatchUC.BatchSize = batch
	}
	if apiKey := os.Getenv("FUB_API_KEY"); apiKey != "" {
		dispatchUC.CRM = fub.NewClient(apiKey)
	}

	rescoreUC := usecase.NewRescoreLeadUseCase(leadRepo)

	// 4. Scoring worker (consumes engagement events off the queue)
	scoringWorker := queue.NewWorker(rabbitMQ.Ch, rescoreUC)
	go scoringWorker.Start(queue.QueueName)

	// 5. Internal scheduler (in addition to the HTTP cron trigger)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tickInterval := 5 * time.Minute
	if raw := os.Getenv("FOLLOWUP_TICK_INTERVAL"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil {
			tickInterval = d
		}
	}
	followUpWorker := worker.NewFollowUpWorker(dispatchUC, tickInterval)
	go followUpWorker.Start(ctx)

	// 6. Handlers
	cronHandler := handlers.NewCronHandler(dispatchUC, os.Getenv("CRON_SECRET"))
	scoreHandler := handlers.NewScoreHandler()
	leadHandler := handlers.NewLeadHandler(leadRepo)
	healthHandler := handlers.NewHealthHandler(db, rabbitMQ.Conn)

	// 7. Router
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"http://localhost:5173", "*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
	}))

	r.Post("/api/cron/send-followups", cronHandler.Handle)
	r.Get("/api/cron/send-followups", cronHandler.Handle)
	r.Post("/api/leads/score", scoreHandler.Handle)
	r.Post("/api/leads/score/batch", scoreHandler.HandleBatch)
	r.Post("/api/leads", leadHandler.CaptureLead)
	r.Get("/health", healthHandler.Handle)
	r.Handle("/metrics", promhttp.Handler())

	port := ":" + getEnv("PORT", "8080")
	log.Printf("🔥 Follow-up engine listening on %s", port)
	http.ListenAndServe(port, r)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
