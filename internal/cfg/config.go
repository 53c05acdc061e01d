package cfg

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPPort         string
	MongoURI         string
	MongoDatabase    string
	MongoCollection  string
	MinioEndpoint    string
	MinioAccessKey   string
	MinioSecretKey   string
	MinioUseSSL      bool
	MinioBucket      string
	MaxFileSizeBytes int64
	AllowedMimeTypes []string
	UploadURLTTL     time.Duration
	DownloadURLTTL   time.Duration
	JWTSecret        string
	RedisAddr        string
	RedisPassword    string
	KafkaBrokers     []string
	KafkaTopic       string
}

// defaultAllowedMimeTypes — типы, принимаемые к загрузке, если
// ALLOWED_MIME_TYPES не задан.
var defaultAllowedMimeTypes = []string{
	"image/jpeg",
	"image/png",
	"image/gif",
	"image/webp",
	"application/pdf",
}

func LoadConfig() Config {
	if err := godotenv.Load(); err != nil {
		log.Println(".env not found, using environment variables")
	}

	cfg := Config{
		HTTPPort:        os.Getenv("HTTP_PORT"),
		MongoURI:        os.Getenv("MONGODB_URI"),
		MongoDatabase:   os.Getenv("MONGODB_DATABASE"),
		MongoCollection: os.Getenv("MONGODB_COLLECTION"),
		MinioEndpoint:   os.Getenv("MINIO_ENDPOINT"),
		MinioAccessKey:  os.Getenv("MINIO_ACCESS_KEY"),
		MinioSecretKey:  os.Getenv("MINIO_SECRET_KEY"),
		MinioBucket:     os.Getenv("MINIO_BUCKET"),
		JWTSecret:       os.Getenv("JWT_SECRET"),
		RedisAddr:       os.Getenv("REDIS_ADDR"),
		RedisPassword:   os.Getenv("REDIS_PASSWORD"),
		KafkaTopic:      os.Getenv("KAFKA_TOPIC"),
	}

	// MINIO_USE_SSL optional
	if os.Getenv("MINIO_USE_SSL") == "true" || os.Getenv("MINIO_USE_SSL") == "1" {
		cfg.MinioUseSSL = true
	}

	// MAX_FILE_SIZE optional, default 100MB
	if maxStr := os.Getenv("MAX_FILE_SIZE"); maxStr != "" {
		if v, err := strconv.ParseInt(maxStr, 10, 64); err == nil {
			cfg.MaxFileSizeBytes = v
		}
	}
	if cfg.MaxFileSizeBytes == 0 {
		cfg.MaxFileSizeBytes = 100 * 1024 * 1024 // 100 MB
	}

	cfg.AllowedMimeTypes = splitList(os.Getenv("ALLOWED_MIME_TYPES"))
	if len(cfg.AllowedMimeTypes) == 0 {
		cfg.AllowedMimeTypes = defaultAllowedMimeTypes
	}

	cfg.UploadURLTTL = durationEnv("UPLOAD_URL_TTL", 15*time.Minute)
	cfg.DownloadURLTTL = durationEnv("DOWNLOAD_URL_TTL", time.Hour)

	cfg.KafkaBrokers = splitList(os.Getenv("KAFKA_BROKERS"))

	return cfg
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	list := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			list = append(list, trimmed)
		}
	}
	return list
}

func durationEnv(name string, fallback time.Duration) time.Duration {
	if raw := os.Getenv(name); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}
