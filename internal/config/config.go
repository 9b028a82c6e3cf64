package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	Server    ServerConfig
	MongoDB   MongoDBConfig
	Redis     RedisConfig
	Firebase  FirebaseConfig
	Auth      AuthConfig
	CORS      CORSConfig
	RateLimit RateLimitConfig
}

type ServerConfig struct {
	Port         string
	Host         string
	Environment  string
	Compression  bool
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type MongoDBConfig struct {
	URI      string
	Database string
	Timeout  time.Duration
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// FirebaseConfig carries the four alternative credential sources for the
// Firebase Admin SDK. Resolution order is handled by internal/fireauth.
type FirebaseConfig struct {
	ServiceAccountKeyBase64 string
	CredentialsFile         string
	ServiceAccountKey       string
	ProjectID               string
	ClientEmail             string
	PrivateKey              string
}

type AuthConfig struct {
	// RootAdminEmails is a whitespace/comma separated allow-list of emails
	// granted the superadmin role on every verified request.
	RootAdminEmails      string
	SessionCookieMaxDays int
	AllowInsecureToken   bool
}

type CORSConfig struct {
	Origin string
}

type RateLimitConfig struct {
	Enabled       bool
	RPS           float64
	Burst         int
	UseRedis      bool
	WindowSeconds int
}

// LoadConfig loads configuration from environment variables and .env file
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	viper.AutomaticEnv()

	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("SERVER_HOST", "0.0.0.0")
	viper.SetDefault("SERVER_ENVIRONMENT", "development")
	viper.SetDefault("MONGODB_DATABASE", "vaikhari")
	viper.SetDefault("MONGODB_TIMEOUT", 10)
	viper.SetDefault("CORS_ORIGIN", "*")
	viper.SetDefault("SESSION_COOKIE_MAX_DAYS", 14)
	viper.SetDefault("RATE_LIMIT_RPS", 10)
	viper.SetDefault("RATE_LIMIT_BURST", 20)
	viper.SetDefault("RATE_LIMIT_WINDOW_SECONDS", 1)

	cfg := &Config{
		Server: ServerConfig{
			Port:         viper.GetString("SERVER_PORT"),
			Host:         viper.GetString("SERVER_HOST"),
			Environment:  viper.GetString("SERVER_ENVIRONMENT"),
			Compression:  viper.GetBool("RESPONSE_COMPRESSION"),
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		MongoDB: MongoDBConfig{
			URI:      getEnvOrPanic("MONGODB_URI"),
			Database: viper.GetString("MONGODB_DATABASE"),
			Timeout:  time.Duration(viper.GetInt("MONGODB_TIMEOUT")) * time.Second,
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetString("REDIS_PORT"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       0,
		},
		Firebase: FirebaseConfig{
			ServiceAccountKeyBase64: os.Getenv("FIREBASE_SERVICE_ACCOUNT_KEY_BASE64"),
			CredentialsFile:         os.Getenv("FIREBASE_CREDENTIALS_FILE"),
			ServiceAccountKey:       os.Getenv("FIREBASE_SERVICE_ACCOUNT_KEY"),
			ProjectID:               os.Getenv("FIREBASE_PROJECT_ID"),
			ClientEmail:             os.Getenv("FIREBASE_CLIENT_EMAIL"),
			PrivateKey:              os.Getenv("FIREBASE_PRIVATE_KEY"),
		},
		Auth: AuthConfig{
			RootAdminEmails:      viper.GetString("ROOT_ADMIN_EMAILS"),
			SessionCookieMaxDays: viper.GetInt("SESSION_COOKIE_MAX_DAYS"),
			AllowInsecureToken:   viper.GetBool("ALLOW_INSECURE_TOKEN"),
		},
		CORS: CORSConfig{
			Origin: viper.GetString("CORS_ORIGIN"),
		},
		RateLimit: RateLimitConfig{
			Enabled:       viper.GetBool("RATE_LIMIT_ENABLED"),
			RPS:           viper.GetFloat64("RATE_LIMIT_RPS"),
			Burst:         viper.GetInt("RATE_LIMIT_BURST"),
			UseRedis:      viper.GetBool("RATE_LIMIT_USE_REDIS"),
			WindowSeconds: viper.GetInt("RATE_LIMIT_WINDOW_SECONDS"),
		},
	}

	// Basic validation
	if cfg.Auth.SessionCookieMaxDays <= 0 {
		cfg.Auth.SessionCookieMaxDays = 14
	}
	if cfg.Auth.RootAdminEmails == "" {
		log.Println("WARNING: ROOT_ADMIN_EMAILS is not set; no account will be elevated to superadmin")
	}

	return cfg, nil
}

// SessionCookieTTL returns the configured session cookie lifetime.
func (c *Config) SessionCookieTTL() time.Duration {
	return time.Duration(c.Auth.SessionCookieMaxDays) * 24 * time.Hour
}

func getEnvOrPanic(key string) string {
	v := os.Getenv(key)
	if v == "" {
		log.Fatalf("environment variable %s is required", key)
	}
	return v
}
