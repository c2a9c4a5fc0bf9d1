package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig holds all configuration for the application.
type AppConfig struct {
	RequestFile  string
	URLsFileTest string
	URLsFileLive string
	LeaveOption  string

	SubmitCron   string
	SubmitOffset time.Duration
	HTTPTimeout  time.Duration

	// Mail settings are optional at load time: the mail sink reports what
	// is missing when it actually tries to deliver.
	SenderEmail    string
	RecipientEmail string
	MailPassword   string
	SMTPHost       string
	SMTPPort       int

	TelegramToken  string
	TelegramChatID int64

	LogLevel    string
	Environment string
}

// Load reads configuration from environment variables and .env files (if
// present). Extra env files given by the caller are loaded first and must
// exist; the default ones are optional.
func Load(extraEnvFiles ...string) (*AppConfig, error) {
	for _, file := range extraEnvFiles {
		if file == "" {
			continue
		}
		if err := godotenv.Load(file); err != nil {
			return nil, fmt.Errorf("failed to load env file %s: %w", file, err)
		}
	}

	// godotenv.Load will not override existing env variables, and errors
	// are ignored when the optional files don't exist.
	_ = godotenv.Load()
	_ = godotenv.Load("mail/mail_key.env")
	_ = godotenv.Load("mail/mail_settings.env")

	cfg := &AppConfig{}

	cfg.RequestFile = envOrDefault("REQUEST_FILE", "data.txt")
	cfg.URLsFileTest = envOrDefault("URLS_FILE_TEST", "form/forms_url_test.txt")
	cfg.URLsFileLive = envOrDefault("URLS_FILE_LIVE", "form/forms_url.txt")
	cfg.LeaveOption = envOrDefault("LEAVE_OPTION", "休假")

	cfg.SubmitCron = envOrDefault("SUBMIT_CRON", "59 59 13 * * WED")

	offsetMillis, err := intEnvOrDefault("SUBMIT_OFFSET_MS", 750)
	if err != nil {
		return nil, err
	}
	if offsetMillis < 0 || offsetMillis >= 1000 {
		return nil, fmt.Errorf("SUBMIT_OFFSET_MS must be between 0 and 999, got %d", offsetMillis)
	}
	cfg.SubmitOffset = time.Duration(offsetMillis) * time.Millisecond

	timeoutSeconds, err := intEnvOrDefault("HTTP_TIMEOUT_SECONDS", 30)
	if err != nil {
		return nil, err
	}
	if timeoutSeconds <= 0 {
		return nil, fmt.Errorf("HTTP_TIMEOUT_SECONDS must be positive, got %d", timeoutSeconds)
	}
	cfg.HTTPTimeout = time.Duration(timeoutSeconds) * time.Second

	cfg.SenderEmail = os.Getenv("SENDER_EMAIL")
	cfg.RecipientEmail = os.Getenv("RECIPIENT_EMAIL")
	cfg.MailPassword = os.Getenv("KEY")
	cfg.SMTPHost = envOrDefault("SMTP_HOST", "smtp.gmail.com")
	cfg.SMTPPort, err = intEnvOrDefault("SMTP_PORT", 465)
	if err != nil {
		return nil, err
	}

	cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN")
	if chatIDStr := os.Getenv("TELEGRAM_CHAT_ID"); chatIDStr != "" {
		cfg.TelegramChatID, err = strconv.ParseInt(chatIDStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid TELEGRAM_CHAT_ID: %w", err)
		}
	}

	cfg.LogLevel = strings.ToLower(os.Getenv("LOG_LEVEL"))
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info" // Default log level
	}

	cfg.Environment = strings.ToLower(os.Getenv("ENVIRONMENT"))
	if cfg.Environment == "" {
		cfg.Environment = "development" // Default environment
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func intEnvOrDefault(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return value, nil
}
