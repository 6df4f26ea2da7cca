package users

import (
	"github.com/gin-gonic/gin"

	"Strimoid/controllers"
)

func Register(g *gin.RouterGroup, env *controllers.Env) {
	g.GET("/blocked", controllers.BlockedUsers(env))
	g.POST("/users/:username/block", controllers.BlockUser(env))
	g.DELETE("/users/:username/block", controllers.UnblockUser(env))
}
