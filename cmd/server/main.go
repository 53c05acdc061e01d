package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mediavault/media_service/internal/cfg"
	imedia "github.com/mediavault/media_service/internal/media"
)

func main() {
	config := cfg.LoadConfig()
	if len(config.JWTSecret) < 32 {
		log.Fatalf("JWT_SECRET must be at least 32 characters long for security")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(config.MongoURI))
	if err != nil {
		log.Fatalf("failed to connect mongo: %v", err)
	}
	if err := mongoClient.Ping(ctx, nil); err != nil {
		log.Fatalf("failed to ping mongo: %v", err)
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			logger.Error("mongo disconnect error", "error", err)
		}
	}()

	coll := mongoClient.Database(config.MongoDatabase).Collection(config.MongoCollection)

	storage, err := imedia.NewMinioStorage(
		config.MinioEndpoint,
		config.MinioAccessKey,
		config.MinioSecretKey,
		config.MinioUseSSL,
		config.MinioBucket,
		config.UploadURLTTL,
		config.DownloadURLTTL,
	)
	if err != nil {
		log.Fatalf("failed to init minio: %v", err)
	}

	var redisClient *redis.Client
	if config.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     config.RedisAddr,
			Password: config.RedisPassword,
			DB:       0,
		})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			log.Fatalf("failed to connect redis: %v", err)
		}
	}

	var producer imedia.EventProducer
	if len(config.KafkaBrokers) > 0 && config.KafkaTopic != "" {
		producer = imedia.NewKafkaProducer(config.KafkaBrokers, config.KafkaTopic)
		defer func() {
			if err := producer.Close(); err != nil {
				logger.Error("kafka close error", "error", err)
			}
		}()
	}

	repo := imedia.NewRepository(coll)
	service := imedia.NewService(repo, storage, producer, imedia.ServicePolicy{
		AllowedMimeTypes: config.AllowedMimeTypes,
		MaxFileSize:      config.MaxFileSizeBytes,
	}, logger)

	handler := imedia.NewHandler(service, []byte(config.JWTSecret), redisClient)

	// Тела запросов здесь — только JSON с метаданными, файлы идут мимо
	// сервиса напрямую в хранилище.
	handlerWithMiddleware := imedia.SecurityHeadersMiddleware(
		imedia.CORSMiddleware(
			imedia.RequestSizeLimitMiddleware(1<<20)(handler.Routes()),
		),
	)

	httpPort := config.HTTPPort
	if httpPort == "" {
		httpPort = "8082"
	}
	httpServer := &http.Server{
		Addr:    ":" + httpPort,
		Handler: handlerWithMiddleware,
	}

	go func() {
		logger.Info("HTTP server listening", "port", httpPort)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http server error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	logger.Info("shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown error", "error", err)
	}
}
