package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"trimgram/internal/config"
	"trimgram/internal/db"
	apihttp "trimgram/internal/http"
	"trimgram/internal/instagram"
	"trimgram/internal/repository"
	"trimgram/internal/service"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	unfollowDelay := time.Duration(cfg.UnfollowDelaySeconds * float64(time.Second))
	limiter := service.NewMemoryRateLimiter(unfollowDelay)
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed, using in-process rate limiter", zap.Error(err))
		} else {
			limiter = service.NewRedisRateLimiter(redisClient, unfollowDelay)
		}
		cancel()
	}

	var history repository.AnalysisHistoryRepository
	if cfg.DatabaseURL != "" {
		pool, err := db.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal("db connect", zap.Error(err))
		}
		defer pool.Close()
		if err := db.Ping(ctx, pool); err != nil {
			logger.Fatal("db ping", zap.Error(err))
		}
		history = repository.NewPgAnalysisHistoryRepository(pool)
	} else {
		logger.Info("analysis history disabled, DATABASE_URL not set")
	}

	store := service.NewMemorySessionStore()
	tempTokens := service.NewTwoFactorTokenService(
		cfg.TwoFactorTokenSecret,
		time.Duration(cfg.TwoFactorTokenTTLMinutes)*time.Minute,
	)

	requestDelay := time.Duration(cfg.InstagramRequestDelaySeconds * float64(time.Second))
	newClient := func() instagram.API {
		return instagram.NewHTTPClient(cfg.InstagramBaseURL, requestDelay, logger)
	}

	authSvc := service.NewAuthService(
		logger,
		store,
		tempTokens,
		newClient,
		time.Duration(cfg.SessionTTLSeconds)*time.Second,
	)
	analysisSvc := service.NewAnalysisService(
		logger,
		store,
		history,
		cfg.MaxNonFollowersShown,
		cfg.PostsToAnalyze,
		cfg.AnalysisWorkers,
	)
	unfollowSvc := service.NewUnfollowService(logger, store, limiter)

	authHandler := apihttp.NewAuthHandler(logger, authSvc)
	analysisHandler := apihttp.NewAnalysisHandler(logger, analysisSvc)
	unfollowHandler := apihttp.NewUnfollowHandler(logger, unfollowSvc)
	router := apihttp.NewRouter(logger, cfg.CORSOrigins, authHandler, analysisHandler, unfollowHandler, store)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("starting server", zap.String("port", cfg.HTTPPort))

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	store.SweepExpired()

	ctxShutdown, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctxShutdown); err != nil {
		logger.Error("shutdown error", zap.Error(err))
	}
}
