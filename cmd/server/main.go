package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"blog-api/internal/auth"
	"blog-api/internal/cleanup"
	"blog-api/internal/config"
	apphttp "blog-api/internal/http"
	"blog-api/internal/repository/sqlite"
	"blog-api/internal/service"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}

	if strings.TrimSpace(cfg.Auth.JWTSecret) == "" {
		logger.Fatalf("auth jwt secret is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := sqlite.Open(cfg.Database.Path)
	if err != nil {
		logger.Fatalf("open database: %v", err)
	}
	defer db.Close()

	postRepo := sqlite.NewPostRepository(db)
	commentRepo := sqlite.NewCommentRepository(db)
	userRepo := sqlite.NewUserRepository(db)

	if err := postRepo.Init(ctx); err != nil {
		logger.Fatalf("init post repository: %v", err)
	}
	if err := commentRepo.Init(ctx); err != nil {
		logger.Fatalf("init comment repository: %v", err)
	}
	if err := userRepo.Init(ctx); err != nil {
		logger.Fatalf("init user repository: %v", err)
	}

	cleaner := cleanup.NewManager(cleanup.Config{Logger: logger}, commentRepo)
	if err := cleaner.Start(ctx); err != nil {
		logger.Fatalf("start cleanup manager: %v", err)
	}
	if err := cleaner.Sweep(ctx); err != nil {
		logger.Warnf("sweep orphaned comments: %v", err)
	}

	postService := service.NewPostService(postRepo, commentRepo, cleaner, logger)
	userService := service.NewUserService(userRepo)
	tokens := auth.NewManager(cfg.Auth.JWTSecret, time.Duration(cfg.Auth.TokenTTLSeconds)*time.Second)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	handler := apphttp.NewHandler(postService, userService, tokens, logger)
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: router,
	}

	go func() {
		logger.Infof("listening on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("http server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("http shutdown: %v", err)
	}
	cleaner.Shutdown()

	logger.Info("bye")
}
