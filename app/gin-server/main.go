package main

import (
	"context"
	"os"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/careerarchitect/backend/config"
	"github.com/careerarchitect/backend/internal/api/handlers"
	"github.com/careerarchitect/backend/internal/api/middleware"
	"github.com/careerarchitect/backend/internal/api/routes"
	"github.com/careerarchitect/backend/internal/cache"
	"github.com/careerarchitect/backend/internal/logger"
	"github.com/careerarchitect/backend/internal/models"
	"github.com/careerarchitect/backend/internal/providers/analyzer"
	mongorepo "github.com/careerarchitect/backend/internal/repositories/mongo"
	pgrepo "github.com/careerarchitect/backend/internal/repositories/postgres"
	"github.com/careerarchitect/backend/internal/services"
	"github.com/careerarchitect/backend/internal/storage"
	"github.com/careerarchitect/backend/internal/workers"
)

func main() {
	_ = godotenv.Load()

	log := logger.New()
	ctx := context.Background()

	// PostgreSQL is the system of record and mandatory.
	if err := config.InitPostgres(); err != nil {
		log.WithError(err).Fatal("PostgreSQL init failed")
	}
	db := config.PostgresDB
	if err := db.AutoMigrate(&models.User{}, &models.Analysis{}); err != nil {
		log.WithError(err).Fatal("schema migration failed")
	}
	log.Info("PostgreSQL connected")

	// Redis history cache, enabled when an address is configured.
	var historyCache cache.Cache
	if os.Getenv("REDIS_ADDR") != "" || os.Getenv("REDIS_URI") != "" || os.Getenv("REDIS_URL") != "" {
		if err := config.InitRedis(); err != nil {
			log.WithError(err).Warn("Redis init failed, history cache disabled")
		} else {
			historyCache = cache.NewRedisCache(config.RedisClient)
			log.Info("Redis connected")
		}
	}

	// MongoDB audit trail, enabled when a URI is configured.
	var events mongorepo.EventRepository
	if os.Getenv("MONGO_URI") != "" {
		if err := config.InitMongo(); err != nil {
			log.WithError(err).Warn("MongoDB init failed, audit trail disabled")
		} else {
			if err := config.EnsureMongoIndexes(); err != nil {
				log.WithError(err).Warn("MongoDB index setup failed")
			}
			dbName := os.Getenv("MONGO_DB")
			if dbName == "" {
				dbName = "careerarchitect"
			}
			events = mongorepo.NewEventRepo(config.MongoClient.Database(dbName))
			log.Info("MongoDB connected")
		}
	}

	// AI analysis client, shared across all submissions.
	aiURL := os.Getenv("AI_SERVICE_URL")
	if aiURL == "" {
		aiURL = "http://localhost:5001"
	}
	timeout := analyzer.DefaultTimeout
	if v := os.Getenv("AI_SERVICE_TIMEOUT"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			timeout = time.Duration(secs) * time.Second
		}
	}
	ai := analyzer.NewHTTPClient(aiURL, timeout)

	// Upload archive, enabled when a bucket is configured.
	var archive services.Archiver
	if bucket := os.Getenv("ARCHIVE_BUCKET"); bucket != "" {
		up, err := storage.NewGCSUploader(ctx, bucket)
		if err != nil {
			log.WithError(err).Warn("GCS init failed, upload archive disabled")
		} else {
			pool := &workers.ArchivePool{Uploader: up, Logger: log}
			if err := pool.Start(ctx); err != nil {
				log.WithError(err).Warn("archive pool start failed")
			} else {
				archive = pool
			}
		}
	}

	userRepo := pgrepo.NewUserRepo(db)
	analysisRepo := pgrepo.NewAnalysisRepo(db)
	users := services.NewUserService(userRepo)
	analysisSvc := services.NewAnalysisService(services.AnalysisServiceDeps{
		Analyses: analysisRepo,
		Users:    users,
		AI:       ai,
		Events:   events,
		Cache:    historyCache,
		Archive:  archive,
		Logger:   log,
	})

	strict := os.Getenv("UPLOAD_STRICT_VALIDATION") == "true"
	analysisHandler := handlers.NewAnalysisHandler(analysisSvc, ai, strict)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(log))

	routes.RegisterRoutes(r, routes.Deps{Analysis: analysisHandler})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	if err := r.Run(":" + port); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}
