package notifications

import (
	"github.com/gin-gonic/gin"

	"Strimoid/controllers"
)

func Register(g *gin.RouterGroup, env *controllers.Env) {
	g.GET("/notifications", controllers.ListNotifications(env))
	g.GET("/notifications/count", controllers.CountUnreadNotifications(env))
	g.POST("/notifications/read", controllers.MarkAllNotificationsRead(env))
	g.POST("/notifications/:id/read", controllers.MarkNotificationRead(env))
}
