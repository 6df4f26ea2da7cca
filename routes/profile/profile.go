package profile

import (
	"github.com/gin-gonic/gin"

	"Strimoid/controllers"
)

func RegisterPublic(r *gin.Engine, env *controllers.Env) {
	r.GET("/users.json", controllers.UserList(env))
	r.GET("/users/:username", controllers.UserInfo(env))
}

// Register registers protected profile routes on supplied router group
// expects the group to already have AuthMiddleware applied
func Register(g *gin.RouterGroup, env *controllers.Env) {
	g.GET("/me", controllers.Me(env))
	g.GET("/settings", controllers.ShowSettings(env))
	g.PUT("/settings", controllers.SaveSettings(env))
	g.PUT("/profile", controllers.SaveProfile(env))
	g.DELETE("/account", controllers.RemoveAccount(env))
}
