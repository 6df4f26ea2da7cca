package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"Strimoid/middleware"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// CORS handled at HTTP level; allow WS here
		return true
	},
}

// NotificationsWS streams new-message events to the authenticated user.
// Browsers cannot set headers on the handshake, so the JWT comes in ?token=.
//
//	<- {type: "conversation", conversation_id, message_id, from, title}
func NotificationsWS(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := strings.TrimSpace(c.Query("token"))
		if tokenStr == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"msg": "missing token query"})
			return
		}
		claims, err := middleware.ParseToken(tokenStr)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"msg": err.Error()})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			env.Log.Warn().Err(err).Msg("ws upgrade failed")
			return
		}
		env.Hub.Serve(c.Request.Context(), conn, claims.UserID)
	}
}
