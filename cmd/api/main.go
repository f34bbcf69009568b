package main

import (
	"context"
	"fmt"
	"log"

	"github.com/gorilla/sessions"

	"token-auth-service/core"
)

func main() {
	cfg, err := core.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}
	ctx := context.Background()

	logCloser, err := core.SetupLogging(cfg, "api.log")
	if err != nil {
		log.Fatalf("failed to setup logging: %v", err)
	}
	defer logCloser.Close()

	db, err := core.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}
	defer db.Close()

	redisClient, err := core.NewRedisClient(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect redis: %v", err)
	}
	defer redisClient.Close()

	if err := core.EnsureSchema(ctx, db); err != nil {
		log.Fatalf("failed to ensure schema: %v", err)
	}

	// Gorilla cookie store for the session-cookie token echo.
	store := sessions.NewCookieStore([]byte(cfg.SessionKey))

	credentialStore := core.NewPgCredentialStore(db)
	tokenStore := core.NewRedisTokenStore(redisClient)
	authService := core.NewStoreAuthService(credentialStore, tokenStore)
	statsService := core.NewStatsService(db, redisClient)

	router := core.NewRouter(cfg, store, authService, statsService)

	addr := fmt.Sprintf(":%s", cfg.Port)
	log.Printf("starting auth api on %s", addr)
	if err := router.Run(addr); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}
