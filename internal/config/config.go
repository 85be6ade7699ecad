// Package config loads service configuration from environment variables.
// A .env file is honored when present (loaded by main via godotenv).
package config

import (
	"os"
	"strconv"
)

type Config struct {
	// Port the HTTP server listens on.
	Port string

	// SMTP transport settings.
	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
	FromAddress  string

	// AMQPURL enables the record fanout when non-empty.
	AMQPURL      string
	AMQPExchange string

	// Passcode gates the UI endpoints when non-empty.
	Passcode string

	// AttachmentDir is where local attachment references are resolved from.
	AttachmentDir string

	// SendConcurrency bounds the dispatch fan-out.
	SendConcurrency int
}

func Load() *Config {
	return &Config{
		Port:            getenv("PORT", "8080"),
		SMTPHost:        getenv("SMTP_HOST", "smtp.gmail.com"),
		SMTPPort:        getenv("SMTP_PORT", "587"),
		SMTPUsername:    os.Getenv("SMTP_USER"),
		SMTPPassword:    os.Getenv("SMTP_PASS"),
		FromAddress:     getenv("MAIL_FROM", os.Getenv("SMTP_USER")),
		AMQPURL:         os.Getenv("AMQP_URL"),
		AMQPExchange:    getenv("AMQP_EXCHANGE", "sent_mails"),
		Passcode:        os.Getenv("APP_PASSCODE"),
		AttachmentDir:   getenv("ATTACHMENT_DIR", "./attachments"),
		SendConcurrency: getint("SEND_CONCURRENCY", 8),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getint(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}
