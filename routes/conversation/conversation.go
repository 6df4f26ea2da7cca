package conversation

import (
	"github.com/gin-gonic/gin"

	"Strimoid/controllers"
	"Strimoid/middleware"
)

// Register registers conversation routes (protected)
func Register(g *gin.RouterGroup, env *controllers.Env) {
	// rate limiting on sends only
	g.POST("/conversations", middleware.RateLimit(), controllers.CreateConversation(env))
	g.POST("/conversations/:conversation_id/messages", middleware.RateLimit(), controllers.SendMessage(env))
	g.GET("/conversations", controllers.ListConversations(env))
	g.GET("/conversations/:conversation_id", controllers.GetConversation(env))
	g.GET("/messages", controllers.AllMessages(env))
}
