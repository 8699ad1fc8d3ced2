package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"anonpair/backend/internal/models"

	"github.com/joho/godotenv"
)

type Config struct {
	TelegramToken string
	// Observers receive partner profiles in their pairing notices.
	Observers []models.UserID
	Language  string

	HTTPAddr    string
	JWTSecret   string
	SendTimeout time.Duration

	// DBDSN enables the session archive when set.
	DBDSN string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisChannel  string

	RabbitURL   string
	RabbitQueue string

	StatsSchedule string

	// analyst bot
	AnalystToken string
	HFToken      string
	HFBaseURL    string
	HFModel      string
}

// LoadDotEnv reads .env style files into the process environment. A missing
// file is not an error.
func LoadDotEnv(files ...string) {
	if err := godotenv.Load(files...); err != nil {
		log.Println("Warning: Error loading .env file")
	}
}

func Load() (Config, error) {
	sendTimeout := DefaultSendTimeout
	if v := os.Getenv("SEND_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return Config{}, fmt.Errorf("invalid SEND_TIMEOUT %q", v)
		}
		sendTimeout = d
	}

	redisDB := 0
	if v := os.Getenv("REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			redisDB = n
		}
	}

	observers, err := ParseUserIDs(os.Getenv("ADMIN_IDS"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid ADMIN_IDS: %w", err)
	}

	rabbitQueue := ""
	rabbitURL := os.Getenv("RABBIT_URL")
	if rabbitURL != "" {
		rabbitQueue = getenv("RABBIT_QUEUE", "anonpair_events")
	}

	return Config{
		TelegramToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		Observers:     observers,
		Language:      getenv("LANG_DEFAULT", "ru"),

		HTTPAddr:    getenv("HTTP_ADDR", DefaultHTTPAddr),
		JWTSecret:   getenv("JWT_SECRET", "dev-secret-change-me"),
		SendTimeout: sendTimeout,

		DBDSN: databaseDSN(),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       redisDB,
		RedisChannel:  getenv("REDIS_CHANNEL", "anonpair:events"),

		RabbitURL:   rabbitURL,
		RabbitQueue: rabbitQueue,

		StatsSchedule: getenv("STATS_SCHEDULE", DefaultStatsSchedule),

		AnalystToken: os.Getenv("ANALYST_TOKEN"),
		HFToken:      os.Getenv("HF_TOKEN"),
		HFBaseURL:    getenv("HF_BASE_URL", DefaultHFBaseURL),
		HFModel:      getenv("HF_MODEL", DefaultHFModel),
	}, nil
}

// ParseUserIDs reads a comma separated list of numeric ids.
func ParseUserIDs(s string) ([]models.UserID, error) {
	var ids []models.UserID
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse %q: %w", part, err)
		}
		ids = append(ids, models.UserID(n))
	}
	return ids, nil
}

// databaseDSN prefers DB_DSN and falls back to the DB_HOST/DB_USER/... form.
func databaseDSN() string {
	if dsn := os.Getenv("DB_DSN"); dsn != "" {
		return dsn
	}
	host := os.Getenv("DB_HOST")
	if host == "" {
		return ""
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		host,
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		getenv("DB_PORT", "5432"),
	)
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
