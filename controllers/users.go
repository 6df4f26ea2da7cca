package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"Strimoid/middleware"
)

// BlockUser makes the current user block :username.
func BlockUser(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		target, err := env.Users.ResolveByName(ctx, c.Param("username"))
		if err != nil {
			env.respondError(c, err)
			return
		}
		if err := env.Users.Block(ctx, middleware.CurrentUserID(c), target.ID); err != nil {
			env.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"msg": "User blocked", "username": target.Name})
	}
}

func UnblockUser(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		target, err := env.Users.ResolveByName(ctx, c.Param("username"))
		if err != nil {
			env.respondError(c, err)
			return
		}
		if err := env.Users.Unblock(ctx, middleware.CurrentUserID(c), target.ID); err != nil {
			env.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"msg": "User unblocked", "username": target.Name})
	}
}

func BlockedUsers(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		blocks, err := env.Users.BlockedUsers(c.Request.Context(), middleware.CurrentUserID(c))
		if err != nil {
			env.respondError(c, err)
			return
		}
		out := make([]gin.H, 0, len(blocks))
		for _, b := range blocks {
			out = append(out, gin.H{"username": b.Target.Name, "since": b.CreatedAt})
		}
		c.JSON(http.StatusOK, gin.H{"blocked": out})
	}
}
