package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hireloop/engine/config"
	"github.com/hireloop/engine/internal/email"
	"github.com/hireloop/engine/internal/health"
	"github.com/hireloop/engine/internal/infrastructure/postgres"
	ctxlog "github.com/hireloop/engine/internal/log"
	"github.com/hireloop/engine/internal/metrics"
	httptransport "github.com/hireloop/engine/internal/transport/http"
	"github.com/hireloop/engine/internal/transport/http/handler"
	"github.com/hireloop/engine/internal/usecase"
	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger := newLogger(cfg.Env, cfg.SlogLevel())

	if cfg.Env != "local" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		stop()
		log.Fatalf("db: %v", err)
	}
	defer pool.Close()

	sender := email.NewSender(cfg.Env, cfg.ResendAPIKey, cfg.ResendFrom, logger)

	// Accounts
	accountRepo := postgres.NewAccountRepository(pool)
	authUsecase := usecase.NewAuthUsecase(accountRepo, sender, []byte(cfg.JWTSecret), cfg.RespondBaseURL)
	authHandler := handler.NewAuthHandler(authUsecase, logger)

	// Introductions and response tokens
	introRepo := postgres.NewIntroductionRepository(pool)
	tokenRepo := postgres.NewTokenRepository(pool)
	candidateRepo := postgres.NewCandidateRepository(pool)
	respondUsecase := usecase.NewRespondUsecase(
		tokenRepo, introRepo, candidateRepo, sender, logger,
		time.Duration(cfg.TokenTTLHours)*time.Hour,
		time.Duration(cfg.ProtectionWindowHours)*time.Hour,
		cfg.RespondBaseURL, cfg.AdminEmail,
	)
	respondHandler := handler.NewRespondHandler(respondUsecase, logger)
	introUsecase := usecase.NewIntroductionUsecase(introRepo, respondUsecase, logger)
	introHandler := handler.NewIntroductionHandler(introUsecase, logger)

	// Job claims
	jobRepo := postgres.NewJobRepository(pool)
	claimUsecase := usecase.NewClaimUsecase(jobRepo, logger)
	claimHandler := handler.NewClaimHandler(claimUsecase, logger)

	// Interview scheduling
	interviewRepo := postgres.NewInterviewRepository(pool)
	interviewUsecase := usecase.NewInterviewUsecase(interviewRepo, introRepo, logger)
	interviewHandler := handler.NewInterviewHandler(interviewUsecase, logger)

	// Admin
	adminHandler := handler.NewAdminHandler(introUsecase, logger)

	metrics.Register()
	checker := health.NewChecker(pool, logger, prometheus.DefaultRegisterer)

	srv := http.Server{
		Addr: ":" + strconv.Itoa(cfg.Port),
		Handler: httptransport.NewRouter(
			logger,
			authHandler,
			respondHandler,
			introHandler,
			claimHandler,
			interviewHandler,
			adminHandler,
			[]byte(cfg.JWTSecret),
		),
	}

	metricsSrv := metrics.NewServer(":"+strconv.Itoa(cfg.MetricsPort), checker)

	go func() {
		logger.Info("server started", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	go func() {
		logger.Info("metrics server started", "port", cfg.MetricsPort)
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", "error", err)
		}
	}()

	<-ctx.Done()
	stop()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", "error", err)
	}
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics server shutdown", "error", err)
	}
}

func newLogger(env string, level slog.Level) *slog.Logger {
	var inner slog.Handler
	if env == "local" {
		inner = tint.NewHandler(os.Stdout, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
		})
	} else {
		inner = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	}
	return slog.New(ctxlog.NewContextHandler(inner))
}
