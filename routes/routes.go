package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"Strimoid/controllers"
	"Strimoid/middleware"

	authRoutes "Strimoid/routes/auth"
	convRoutes "Strimoid/routes/conversation"
	notificationRoutes "Strimoid/routes/notifications"
	profileRoutes "Strimoid/routes/profile"
	userRoutes "Strimoid/routes/users"
	websocketRoutes "Strimoid/routes/websocket"
)

func RegisterRoutes(r *gin.Engine, env *controllers.Env) {
	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"msg": "Strimoid messaging backend running"})
	})

	websocketRoutes.Register(r, env)
	authRoutes.RegisterPublic(r, env)
	profileRoutes.RegisterPublic(r, env)

	protected := r.Group("/")
	protected.Use(middleware.AuthMiddleware(), middleware.UserConcurrency())
	authRoutes.RegisterProtected(protected, env)
	profileRoutes.Register(protected, env)
	userRoutes.Register(protected, env)
	convRoutes.Register(protected, env)
	notificationRoutes.Register(protected, env)
}
