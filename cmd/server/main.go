package main

import (
	"context"
	"errors"
	"log"
	stdhttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/vote2earn/api/internal/adapters/handler/http"
	"github.com/vote2earn/api/internal/adapters/repository/postgres"
	"github.com/vote2earn/api/internal/config"
	"github.com/vote2earn/api/internal/core/services"
	"github.com/vote2earn/api/internal/logger"
)

func main() {
	// .env is optional outside local development
	godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	zl, err := logger.New(os.Getenv("APP_ENV") == "development")
	if err != nil {
		log.Fatal(err)
	}
	defer zl.Sync()

	db, err := postgres.Open(cfg.DSN())
	if err != nil {
		zl.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()
	zl.Info("connected to the database")

	pollRepo := postgres.NewPollRepository(db)
	voteRepo := postgres.NewVoteRepository(db)
	userRepo := postgres.NewUserRepository(db)

	pollSvc := services.NewPollService(pollRepo, voteRepo)
	voteSvc := services.NewVoteService(voteRepo, zl)
	userSvc := services.NewUserService(userRepo)
	authSvc := services.NewAuthService(userRepo, []byte(cfg.JWT.Secret), cfg.JWT.TTL)

	handler := http.NewHandler(
		http.NewAuthHandler(authSvc),
		http.NewPollHandler(pollSvc),
		http.NewVoteHandler(voteSvc),
		http.NewUserHandler(userSvc),
		[]byte(cfg.JWT.Secret),
	)

	server := &stdhttp.Server{Addr: cfg.Server.Addr, Handler: handler}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		zl.Info("server listening", zap.String("addr", cfg.Server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			zl.Fatal("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zl.Info("gracefully shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zl.Fatal("shutdown failed", zap.Error(err))
	}
}
