package auth

import (
	"github.com/gin-gonic/gin"

	"Strimoid/controllers"
)

// RegisterPublic registers public auth routes: /register, /login, /activate
func RegisterPublic(r *gin.Engine, env *controllers.Env) {
	r.POST("/register", controllers.Register(env))
	r.POST("/login", controllers.Login(env))
	r.GET("/activate/:token", controllers.Activate(env))
}

// RegisterProtected registers protected auth routes (logout, password)
func RegisterProtected(g *gin.RouterGroup, env *controllers.Env) {
	g.POST("/logout", controllers.Logout())
	g.PUT("/password", controllers.ChangePassword(env))
}
