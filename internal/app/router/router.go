package router

import (
	"github.com/gin-gonic/gin"

	authhandler "user_backend/internal/feature/auth/transport/handler"
	usershandler "user_backend/internal/feature/users/transport/handler"
	"user_backend/internal/platform/http/handler"
	jwtmw "user_backend/internal/platform/jwt"
)

func NewRouter(authHandler *authhandler.AuthHandler, userHandler *usershandler.UserHandler) *gin.Engine {
	r := gin.Default()

	// Liveness probe
	r.GET("/healthz", handler.Health)

	// Token endpoints
	r.POST("/login", authHandler.Login)
	r.POST("/refresh", authHandler.Refresh)
	r.POST("/logout", authHandler.Logout)

	api := r.Group("/api/v1")

	// Registration stays open; everything else requires a bearer token.
	api.POST("/users", userHandler.Create)

	users := api.Group("/users")
	users.Use(jwtmw.AuthRequired())
	{
		users.GET("", userHandler.List)
		users.GET("/check-username/:username", userHandler.CheckUsername)
		users.GET("/check-email", userHandler.CheckEmail)
		users.GET("/username/:username", userHandler.GetByUsername)
		users.GET("/:id", userHandler.GetByID)
		users.PUT("/:id", userHandler.Update)
		users.DELETE("/:id", userHandler.Delete)
	}

	return r
}
