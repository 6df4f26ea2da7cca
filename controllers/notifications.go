package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"Strimoid/middleware"
)

const notificationsLimit = 50

func ListNotifications(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := env.Notifications.ListForUser(c.Request.Context(), middleware.CurrentUserID(c), notificationsLimit)
		if err != nil {
			env.respondError(c, err)
			return
		}
		out := make([]gin.H, 0, len(list))
		for _, n := range list {
			out = append(out, gin.H{
				"id":              n.ID,
				"type":            n.Type,
				"conversation_id": n.ConversationID,
				"title":           n.Title,
				"read":            n.Read,
				"created_at":      n.CreatedAt,
			})
		}
		c.JSON(http.StatusOK, out)
	}
}

func CountUnreadNotifications(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		n, err := env.Notifications.CountUnread(c.Request.Context(), middleware.CurrentUserID(c))
		if err != nil {
			env.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"unread": n})
	}
}

func MarkNotificationRead(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"msg": "Not found"})
			return
		}
		if err := env.Notifications.MarkRead(c.Request.Context(), middleware.CurrentUserID(c), uint(id)); err != nil {
			env.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"msg": "ok"})
	}
}

func MarkAllNotificationsRead(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		n, err := env.Notifications.MarkAllRead(c.Request.Context(), middleware.CurrentUserID(c))
		if err != nil {
			env.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"msg": "ok", "updated": n})
	}
}
