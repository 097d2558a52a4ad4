package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/fgreter/sopra-fs19-server/internal/cache"
	"github.com/fgreter/sopra-fs19-server/internal/config"
	"github.com/fgreter/sopra-fs19-server/internal/handler"
	"github.com/fgreter/sopra-fs19-server/internal/middleware"
	"github.com/fgreter/sopra-fs19-server/internal/migrations"
	"github.com/fgreter/sopra-fs19-server/internal/repository"
	"github.com/fgreter/sopra-fs19-server/internal/service"
	"github.com/fgreter/sopra-fs19-server/internal/token"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load(ctx)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Write store
	db, err := sqlx.Connect("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := migrations.Run(ctx, db.DB); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Read cache
	redis, err := cache.NewClient(cfg.RedisAddr, cfg.RedisPassword, 0)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redis.Close()

	store := repository.NewAccountRepository(db, redis, cfg.AccountCacheTTL)
	minter := token.NewMinter(cfg.TokenSecret)
	accountSvc := service.NewAccountService(store, minter)

	// Seed the bootstrap account before the router starts serving, so its
	// token verifies even against an otherwise empty store.
	if err := accountSvc.EnsureBootstrapAccount(ctx, service.BootstrapAccount{
		Username:    cfg.BootstrapUsername,
		DisplayName: cfg.BootstrapDisplayName,
		Password:    cfg.BootstrapPassword,
		Token:       cfg.BootstrapToken,
	}); err != nil {
		log.Fatalf("Failed to seed bootstrap account: %v", err)
	}

	accountHandler := handler.NewAccountHandler(accountSvc)
	authHandler := handler.NewAuthHandler(accountSvc)

	router := gin.Default()

	v1 := router.Group("/v1")
	{
		v1.POST("/accounts", accountHandler.RegisterAccount)
		v1.GET("/accounts", middleware.TokenRequired(), accountHandler.ListAccounts)
		v1.GET("/accounts/:id", middleware.TokenRequired(), accountHandler.GetAccount)
		v1.PATCH("/accounts/:id", accountHandler.UpdateAccount)
		v1.DELETE("/accounts/:id", middleware.TokenRequired(), accountHandler.DeleteAccount)
		v1.POST("/login", authHandler.Login)
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		log.Println("Shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("Shutdown error: %v", err)
		}
	}()

	log.Printf("Account service starting on port %s", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Failed to start server: %v", err)
	}
}
