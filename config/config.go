package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config enthält alle Konfigurationsparameter aus Umgebungsvariablen.
type Config struct {
	HTTPPort     string `envconfig:"HTTP_PORT" default:"4242"`
	APISecretKey string `envconfig:"API_SECRET_KEY"`

	// Remote-Store: "rest" (Row-API) oder "postgres" (direkt via gorm)
	StoreDriver  string        `envconfig:"STORE_DRIVER" default:"rest"`
	StoreURL     string        `envconfig:"STORE_URL"`
	StoreAPIKey  string        `envconfig:"STORE_API_KEY"`
	StoreTable   string        `envconfig:"STORE_TABLE" default:"content_topics"`
	StoreTimeout time.Duration `envconfig:"STORE_TIMEOUT" default:"30s"`

	DBHost     string `envconfig:"DB_HOST"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER"`
	DBPassword string `envconfig:"DB_PASSWORD"`
	DBName     string `envconfig:"DB_NAME"`

	// Webhook-Defaults, werden von der Settings-Datei überschrieben
	GenerationWebhookURL string        `envconfig:"GENERATION_WEBHOOK_URL"`
	ContentWebhookURL    string        `envconfig:"CONTENT_WEBHOOK_URL"`
	FeedbackWebhookURL   string        `envconfig:"FEEDBACK_WEBHOOK_URL"`
	SocialWebhookURL     string        `envconfig:"SOCIAL_WEBHOOK_URL"`
	LegacySyncWebhookURL string        `envconfig:"LEGACY_SYNC_WEBHOOK_URL"`
	WebhookTimeout       time.Duration `envconfig:"WEBHOOK_TIMEOUT" default:"120s"`

	SettingsPath string `envconfig:"SETTINGS_PATH" default:"settings.yaml"`
	SyncSchedule string `envconfig:"SYNC_SCHEDULE" default:"*/15 * * * *"`

	SlackToken   string `envconfig:"SLACK_BOT_TOKEN"`
	SlackChannel string `envconfig:"SLACK_REVIEW_CHANNEL"`

	BackupS3Key    string `envconfig:"BACKUP_S3_KEY"`
	BackupS3Secret string `envconfig:"BACKUP_S3_SECRET"`
	BackupS3URL    string `envconfig:"BACKUP_S3_URL"`
	BackupS3Region string `envconfig:"BACKUP_S3_REGION" default:"eu-central-1"`
	BackupS3Bucket string `envconfig:"BACKUP_S3_BUCKET"`
	KeepBackups    int    `envconfig:"KEEP_BACKUPS" default:"7"`
}

// DSN gibt den Data Source Name für die PostgreSQL-Verbindung zurück.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort)
}

// Validate prüft die Kombinationen, die envconfig nicht ausdrücken kann.
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case "rest":
		if c.StoreURL == "" {
			return fmt.Errorf("STORE_URL is required for store driver %q", c.StoreDriver)
		}
	case "postgres":
		if c.DBHost == "" || c.DBUser == "" || c.DBName == "" {
			return fmt.Errorf("DB_HOST, DB_USER and DB_NAME are required for store driver %q", c.StoreDriver)
		}
	default:
		return fmt.Errorf("unknown store driver %q", c.StoreDriver)
	}
	return nil
}

// Load lädt die Konfiguration aus den Umgebungsvariablen.
func Load() (*Config, error) {
	_ = godotenv.Load()
	var c Config
	err := envconfig.Process("", &c)
	return &c, err
}
