// cmd/server/main.go
package main

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"

	"github.com/unclebandit/mailmerge-backend/internal/attachment"
	"github.com/unclebandit/mailmerge-backend/internal/config"
	"github.com/unclebandit/mailmerge-backend/internal/db"
	"github.com/unclebandit/mailmerge-backend/internal/events"
	"github.com/unclebandit/mailmerge-backend/internal/handler"
	"github.com/unclebandit/mailmerge-backend/internal/mailer"
	appMiddleware "github.com/unclebandit/mailmerge-backend/internal/middleware"
	"github.com/unclebandit/mailmerge-backend/internal/repository"
	"github.com/unclebandit/mailmerge-backend/internal/service"
)

func main() {
	// Load .env
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ No .env file found, relying on OS environment variables")
	}

	cfg := config.Load()

	// Init DB
	conn, err := db.Connect(db.DSNFromEnv())
	if err != nil {
		log.Fatalf("failed to init DB: %v", err)
	}
	if err := db.EnsureSchema(conn); err != nil {
		log.Fatalf("failed to ensure schema: %v", err)
	}
	log.Println("✅ Connected to database")

	ledger := &repository.SentMailRepository{DB: conn}

	smtpSender := &mailer.SMTPSender{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.FromAddress,
	}

	hub := events.NewHub()
	broadcasters := []events.Broadcaster{hub}
	if cfg.AMQPURL != "" {
		pub, err := events.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			log.Println("⚠️ AMQP broadcast disabled:", err)
		} else {
			defer pub.Close()
			broadcasters = append(broadcasters, pub)
		}
	}

	dispatcher := &service.Dispatcher{
		Ledger:       ledger,
		Sender:       mailer.NewRetrySender(smtpSender),
		Attachments:  attachment.NewStore(cfg.AttachmentDir),
		Broadcasters: broadcasters,
		Concurrency:  cfg.SendConcurrency,
	}

	campaignHandler := &handler.CampaignHandler{
		Dispatcher: dispatcher,
		Ledger:     ledger,
		Hub:        hub,
	}

	r := chi.NewRouter()
	r.Use(appMiddleware.Passcode(cfg.Passcode))

	// Campaign routes
	r.Post("/upload-campaign", campaignHandler.UploadCampaign)
	r.Get("/sent-mails", campaignHandler.ListSentMails)
	r.Get("/events", campaignHandler.StreamEvents)

	log.Println("🚀 Server running on :" + cfg.Port)
	log.Fatal(http.ListenAndServe(":"+cfg.Port, r))
}
