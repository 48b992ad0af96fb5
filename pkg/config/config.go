package config

import (
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	Server  ServerConfig
	Auth    AuthConfig
	Email   EmailConfig
	Storage StorageConfig
}

type ServerConfig struct {
	Port        string
	DatabaseURL string
	PublicURL   string // base URL used in confirmation links and self-notify calls
}

type AuthConfig struct {
	AdminToken    string
	CronToken     string
	SessionSecret string
}

type EmailConfig struct {
	APIKey       string
	ListID       string
	ConfirmTplID string
	SenderName   string
	SenderEmail  string
	AgencyInbox  string // where lead notifications land
}

type StorageConfig struct {
	AccountID string
	AccessKey string
	SecretKey string
	Bucket    string
	CDNBase   string // hot URL prefix, CDN-transformable
}

func Load() *Config {
	godotenv.Load()

	return &Config{
		Server: ServerConfig{
			Port:        getEnv("PORT", "3000"),
			DatabaseURL: getEnv("DATABASE_URL", ""),
			PublicURL:   getEnv("PUBLIC_URL", "http://localhost:3000"),
		},
		Auth: AuthConfig{
			AdminToken:    getEnv("ADMIN_TOKEN", ""),
			CronToken:     getEnv("CRON_TOKEN", ""),
			SessionSecret: getEnv("SESSION_SECRET", ""),
		},
		Email: EmailConfig{
			APIKey:       getEnv("BREVO_API_KEY", ""),
			ListID:       getEnv("BREVO_LIST_ID", ""),
			ConfirmTplID: getEnv("BREVO_CONFIRM_TEMPLATE_ID", ""),
			SenderName:   getEnv("EMAIL_SENDER_NAME", "CasaViva Immobiliare"),
			SenderEmail:  getEnv("EMAIL_SENDER_ADDRESS", "noreply@casaviva.it"),
			AgencyInbox:  getEnv("AGENCY_INBOX", "info@casaviva.it"),
		},
		Storage: StorageConfig{
			AccountID: getEnv("R2_ACCOUNT_ID", ""),
			AccessKey: getEnv("R2_ACCESS_KEY", ""),
			SecretKey: getEnv("R2_SECRET_KEY", ""),
			Bucket:    getEnv("R2_BUCKET_NAME", "casaviva-images"),
			CDNBase:   getEnv("CDN_BASE_URL", "https://cdn.casaviva.it"),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
