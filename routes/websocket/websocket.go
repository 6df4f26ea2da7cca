package websocket

import (
	"github.com/gin-gonic/gin"

	"Strimoid/controllers"
)

func Register(r *gin.Engine, env *controllers.Env) {
	r.GET("/ws/notifications", controllers.NotificationsWS(env))
}
