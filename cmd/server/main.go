package main

import (
	"log"
	"log/slog"

	redisv9 "github.com/redis/go-redis/v9"

	"user_backend/internal/app/config"
	"user_backend/internal/app/di"
	"user_backend/internal/app/router"
	authhandler "user_backend/internal/feature/auth/transport/handler"
	authusecase "user_backend/internal/feature/auth/usecase"
	usersadapters "user_backend/internal/feature/users/adapters"
	usershandler "user_backend/internal/feature/users/transport/handler"
	usersusecase "user_backend/internal/feature/users/usecase"
	infradb "user_backend/internal/platform/db"
	jwtmw "user_backend/internal/platform/jwt"
	infraredis "user_backend/internal/platform/redis"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if cfg.JWTSecret == "" {
		slog.Warn("JWT_SECRET is not set. Set a strong secret in production.")
	}

	// db
	db := infradb.OpenDB()

	// Redis; sessions fall back to MySQL when unavailable
	var rdb *redisv9.Client
	if tmp, err := infraredis.NewRedisClient(); err != nil {
		slog.Warn("Redis unavailable, using MySQL session store")
	} else {
		rdb = tmp
		defer func() {
			if err := rdb.Close(); err != nil {
				slog.Error("failed to close Redis client", "error", err)
			}
		}()
	}

	// Repository
	userRepo := usersadapters.NewUserMySQL(db)
	sessionRepo := di.NewSessionRepository(rdb, db)

	// Usecase
	userUC := usersusecase.NewUserUsecase(userRepo)
	tokenGen := jwtmw.NewGenerator(cfg.JWTSecret, cfg.AccessTokenTTL)
	authUC := authusecase.NewAuthUsecase(userUC, sessionRepo, tokenGen, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)

	// Handler
	userH := usershandler.NewUserHandler(userUC)
	authH := authhandler.NewAuthHandler(authUC)

	r := router.NewRouter(authH, userH)

	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal(err)
	}
}
