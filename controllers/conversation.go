package controllers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"Strimoid/middleware"
	"Strimoid/models"
)

type messageView struct {
	ID             uint      `json:"id"`
	ConversationID string    `json:"conversation_id"`
	UserID         uint      `json:"user_id"`
	User           string    `json:"user,omitempty"`
	Text           string    `json:"text"`
	CreatedAt      time.Time `json:"created_at"`
}

func newMessageView(m *models.ConversationMessage, names map[uint]string) messageView {
	name := m.User.Name
	if name == "" {
		name = names[m.UserID]
	}
	return messageView{ID: m.ID, ConversationID: m.ConversationID, UserID: m.UserID, User: name, Text: m.Text, CreatedAt: m.CreatedAt}
}

func messageViews(msgs []models.ConversationMessage) []messageView {
	out := make([]messageView, 0, len(msgs))
	for i := range msgs {
		out = append(out, newMessageView(&msgs[i], nil))
	}
	return out
}

// CreateConversation sends the first (or next) message to :username,
// reusing the pair's conversation when it exists.
func CreateConversation(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body struct {
			Username string `json:"username"`
			Text     string `json:"text"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid request"})
			return
		}
		uid := middleware.CurrentUserID(c)
		if !middleware.DuplicateGuard(strconv.FormatUint(uint64(uid), 10)+">"+models.ShadowNameOf(body.Username), body.Text) {
			c.JSON(http.StatusTooManyRequests, gin.H{"msg": "duplicate message"})
			return
		}

		msg, conv, err := env.Messaging.StartOrContinueConversation(c.Request.Context(), uid, body.Username, body.Text)
		if err != nil {
			env.respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{
			"conversation_id": conv.ID,
			"message":         newMessageView(msg, nil),
		})
	}
}

// SendMessage appends to an existing conversation of the current user.
func SendMessage(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body struct {
			Text string `json:"text"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid request"})
			return
		}
		uid := middleware.CurrentUserID(c)
		convID := c.Param("conversation_id")
		if !middleware.DuplicateGuard(strconv.FormatUint(uint64(uid), 10)+">"+convID, body.Text) {
			c.JSON(http.StatusTooManyRequests, gin.H{"msg": "duplicate message"})
			return
		}

		msg, err := env.Messaging.SendMessage(c.Request.Context(), uid, convID, body.Text)
		if err != nil {
			env.respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{
			"conversation_id": convID,
			"message":         newMessageView(msg, nil),
		})
	}
}

// ListConversations lists the current user's conversations, most recent
// first, optionally filtered by the other participant's name (?q=).
func ListConversations(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		uid := middleware.CurrentUserID(c)

		convs, err := env.Messaging.ListConversations(ctx, uid)
		if err != nil {
			env.respondError(c, err)
			return
		}

		others := make([]uint, 0, len(convs))
		for i := range convs {
			others = append(others, convs[i].Other(uid))
		}
		names, err := env.Users.Names(ctx, others)
		if err != nil {
			env.respondError(c, err)
			return
		}
		last, err := env.Conversations.LastMessages(ctx, convs)
		if err != nil {
			env.respondError(c, err)
			return
		}

		q := strings.ToLower(strings.TrimSpace(c.Query("q")))
		result := make([]gin.H, 0, len(convs))
		for _, conv := range convs {
			with := names[conv.Other(uid)]
			if q != "" && !strings.Contains(strings.ToLower(with), q) {
				continue
			}
			item := gin.H{
				"id":              conv.ID,
				"with":            with,
				"created_at":      conv.CreatedAt,
				"last_message_at": conv.LastMessageAt,
			}
			if m, ok := last[conv.ID]; ok {
				item["last_message"] = newMessageView(&m, names)
			}
			result = append(result, item)
		}

		c.JSON(http.StatusOK, result)
	}
}

// GetConversation shows one conversation with a page of its messages.
func GetConversation(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		uid := middleware.CurrentUserID(c)

		conv, err := env.Messaging.Conversation(ctx, uid, c.Param("conversation_id"))
		if err != nil {
			env.respondError(c, err)
			return
		}
		page := pageParam(c)
		msgs, err := env.Messaging.Messages(ctx, uid, conv, page)
		if err != nil {
			env.respondError(c, err)
			return
		}
		names, err := env.Users.Names(ctx, []uint{conv.Other(uid)})
		if err != nil {
			env.respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"conversation_id": conv.ID,
			"with":            names[conv.Other(uid)],
			"page":            page,
			"per_page":        env.Messaging.PageSize(),
			"messages":        messageViews(msgs),
		})
	}
}

// AllMessages pages through messages of every conversation of the current user.
func AllMessages(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		page := pageParam(c)
		msgs, err := env.Messaging.AllMessages(c.Request.Context(), middleware.CurrentUserID(c), page)
		if err != nil {
			env.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"page":     page,
			"per_page": env.Messaging.PageSize(),
			"messages": messageViews(msgs),
		})
	}
}
