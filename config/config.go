package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

const defaultEventDate = "2025-11-23"

type Config struct {
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	Port           string
	JWTSecret      string
	AllowedOrigins []string

	// EventDate is the competition day used for age checks on guardian fields.
	EventDate time.Time

	StorageDriver string
	GCSBucket     string
	S3Bucket      string
	S3Endpoint    string
	S3Region      string
	S3AccessKey   string
	S3SecretKey   string

	SignedURLTTL     time.Duration
	MaxUploadBytes   int64
	OrphanSweepEvery time.Duration
	RedisAddr        string
	RedisPassword    string
	RabbitMQURL      string
}

func LoadConfig() Config {
	return Config{
		DBHost:     os.Getenv("DB_HOST"),
		DBPort:     os.Getenv("DB_PORT"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),

		Port:           envOr("PORT", "8080"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		AllowedOrigins: splitList(envOr("ALLOWED_ORIGINS", "http://localhost:3000")),

		EventDate: parseEventDate(os.Getenv("EVENT_DATE")),

		StorageDriver: strings.ToLower(envOr("STORAGE_DRIVER", "gcs")),
		GCSBucket:     os.Getenv("GCS_BUCKET"),
		S3Bucket:      os.Getenv("S3_BUCKET"),
		S3Endpoint:    os.Getenv("S3_ENDPOINT"),
		S3Region:      envOr("S3_REGION", "auto"),
		S3AccessKey:   os.Getenv("S3_ACCESS_KEY_ID"),
		S3SecretKey:   os.Getenv("S3_SECRET_ACCESS_KEY"),

		SignedURLTTL:     time.Duration(envInt("SIGNED_URL_TTL_MIN", 15)) * time.Minute,
		MaxUploadBytes:   int64(envInt("MAX_UPLOAD_MB", 200)) << 20,
		OrphanSweepEvery: time.Duration(envInt("ORPHAN_SWEEP_MINUTES", 30)) * time.Minute,
		RedisAddr:        os.Getenv("REDIS_ADDR"),
		RedisPassword:    os.Getenv("REDIS_PASSWORD"),
		RabbitMQURL:      os.Getenv("RABBITMQ_URL"),
	}
}

func (c Config) DSN() string {
	return "host=" + c.DBHost +
		" user=" + c.DBUser +
		" password=" + c.DBPassword +
		" dbname=" + c.DBName +
		" port=" + c.DBPort +
		" sslmode=disable"
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseEventDate(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw != "" {
		if t, err := time.Parse("2006-01-02", raw); err == nil {
			return t
		}
	}
	t, _ := time.Parse("2006-01-02", defaultEventDate)
	return t
}
