package config

import (
	"errors"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// JWTConfig defines issuer/secret pair for auth verification.
type JWTConfig struct {
	Issuer string
	Secret []byte
}

// Config holds runtime configuration shared across the application.
type Config struct {
	Addr                         string
	MongoURI                     string
	MongoDatabase                string
	ContestCollection            string
	SubmissionCollection         string
	VotingStatsCollection        string
	FailedNotificationCollection string
	Timeout                      time.Duration
	Timezone                     string
	ServerLog                    *log.Logger
	JWTConfigs                   []JWTConfig
	JWTAudience                  string
	MessengerEndpoint            string
	MessengerDestination         string
	MessengerAdminDestination    string
	MessengerTimeout             time.Duration
	ImageHostUploadURL           string
	ImageHostAPIKey              string
	ImageHostTimeout             time.Duration
	LifecycleInterval            time.Duration
	LifecycleConcurrency         int
	AllowedOrigins               []string
	MaxUploadBytes               int64
}

var errNoJWTSecret = errors.New("JWT secrets not configured. Set AUTH_JWT_SECRET or AUTH_SERVICE_JWT_SECRET.")

// Load reads .env (if present) and environment variables and returns a fully populated Config.
func Load() Config {
	_ = godotenv.Load()
	cfg, err := fromEnv(os.Getenv)
	if err != nil {
		log.Fatal(err)
	}
	cfg.ServerLog.Printf("loaded config: mongoDB=%q messengerEndpoint=%q lifecycleInterval=%s", cfg.MongoDatabase, cfg.MessengerEndpoint, cfg.LifecycleInterval)
	return cfg
}

// fromEnv は getenv から設定を組み立てる。JWT シークレットが 1 つもなければエラー。
func fromEnv(getenv func(string) string) (Config, error) {
	env := func(key, fallback string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return fallback
	}

	var jwtConfigs []JWTConfig
	if secret := strings.TrimSpace(getenv("AUTH_JWT_SECRET")); secret != "" {
		jwtConfigs = append(jwtConfigs, JWTConfig{
			Issuer: env("AUTH_JWT_ISSUER", "photo-contest-auth"),
			Secret: []byte(secret),
		})
	}
	if secret := strings.TrimSpace(getenv("AUTH_SERVICE_JWT_SECRET")); secret != "" {
		jwtConfigs = append(jwtConfigs, JWTConfig{
			Issuer: env("AUTH_SERVICE_JWT_ISSUER", "photo-contest-service"),
			Secret: []byte(secret),
		})
	}
	if len(jwtConfigs) == 0 {
		return Config{}, errNoJWTSecret
	}

	cfg := Config{
		Addr:                         env("HTTP_ADDR", ":8080"),
		MongoURI:                     env("MONGO_URI", "mongodb://mongo:27017"),
		MongoDatabase:                env("MONGO_DB", "photo-contest"),
		ContestCollection:            env("CONTEST_COLLECTION", "contests"),
		SubmissionCollection:         env("SUBMISSION_COLLECTION", "submissions"),
		VotingStatsCollection:        env("VOTING_STATS_COLLECTION", "voting_stats"),
		FailedNotificationCollection: env("FAILED_NOTIFICATION_COLLECTION", "failed_notifications"),
		Timeout:                      parseDuration(getenv("MONGO_CONNECT_TIMEOUT"), 10*time.Second),
		Timezone:                     env("TIMEZONE", "Asia/Tokyo"),
		ServerLog:                    log.New(os.Stdout, "[photo-contest-api] ", log.LstdFlags|log.Lshortfile),
		JWTConfigs:                   jwtConfigs,
		JWTAudience:                  strings.TrimSpace(getenv("AUTH_JWT_AUDIENCE")),
		MessengerEndpoint:            env("MESSENGER_GATEWAY_URL", "http://messenger-gateway:3000"),
		MessengerDestination:         env("MESSENGER_GATEWAY_DESTINATION", "line"),
		MessengerAdminDestination:    strings.TrimSpace(getenv("MESSENGER_ADMIN_DESTINATION")),
		MessengerTimeout:             parseDuration(getenv("MESSENGER_GATEWAY_TIMEOUT"), 3*time.Second),
		ImageHostUploadURL:           env("IMAGE_HOST_UPLOAD_URL", "https://api.imgbb.com/1/upload"),
		ImageHostAPIKey:              strings.TrimSpace(getenv("IMAGE_HOST_API_KEY")),
		ImageHostTimeout:             parseDuration(getenv("IMAGE_HOST_TIMEOUT"), 30*time.Second),
		LifecycleInterval:            parseDuration(getenv("LIFECYCLE_INTERVAL"), time.Minute),
		LifecycleConcurrency:         parseInt(getenv("LIFECYCLE_CONCURRENCY"), 8),
		AllowedOrigins:               parseList(getenv("API_ALLOWED_ORIGINS"), []string{"*"}),
		MaxUploadBytes:               int64(parseInt(getenv("MAX_UPLOAD_BYTES"), 10<<20)),
	}
	return cfg, nil
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func parseInt(raw string, fallback int) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func parseList(raw string, fallback []string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback
	}

	parts := strings.Split(raw, ",")
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			values = append(values, part)
		}
	}

	if len(values) == 0 {
		return fallback
	}
	return values
}
