package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"Strimoid/pkg/cache"
	"Strimoid/pkg/config"
	"Strimoid/pkg/messaging"
	"Strimoid/pkg/realtime"
	svc "Strimoid/pkg/services"
)

// Env carries the dependencies handlers close over.
type Env struct {
	DB            *gorm.DB
	Log           zerolog.Logger
	Users         *svc.UserDirectory
	Conversations *svc.ConversationStore
	Notifications *svc.NotificationStore
	Messaging     *messaging.Service
	Hub           *realtime.Hub
	// Blocks caches block lookups; main runs its janitor.
	Blocks *cache.Cache
}

// respondError maps domain errors to status codes. Unknown errors are
// logged and reported as 500 without details.
func (e *Env) respondError(c *gin.Context, err error) {
	var verr *messaging.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"msg": verr.Message, "field": verr.Field})
	case errors.Is(err, messaging.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"msg": "Not found"})
	case errors.Is(err, messaging.ErrSelfMessage):
		c.JSON(http.StatusBadRequest, gin.H{"msg": "You can't send a message to yourself"})
	case errors.Is(err, messaging.ErrBlocked):
		c.JSON(http.StatusForbidden, gin.H{"msg": "This user has blocked you"})
	case errors.Is(err, messaging.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"msg": "Conversation already exists"})
	case errors.Is(err, messaging.ErrTimeout):
		c.JSON(http.StatusGatewayTimeout, gin.H{"msg": "Request timed out"})
	case errors.Is(err, svc.ErrAlreadyBlocked):
		c.JSON(http.StatusBadRequest, gin.H{"msg": "Already blocked"})
	case errors.Is(err, svc.ErrNotBlocked):
		c.JSON(http.StatusBadRequest, gin.H{"msg": "Not blocked"})
	case errors.Is(err, svc.ErrCannotBlockSelf):
		c.JSON(http.StatusBadRequest, gin.H{"msg": "You can't block yourself"})
	default:
		_ = c.Error(err)
		e.Log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"msg": "db error"})
	}
}

// pageParam reads ?page=, defaulting to 1.
func pageParam(c *gin.Context) int {
	p, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || p < 1 {
		return 1
	}
	return p
}

// NewEnv builds the services on db using the loaded config.
func NewEnv(db *gorm.DB, log zerolog.Logger) *Env {
	blocks := cache.New(config.BlockCacheMaxItems)
	users := svc.NewUserDirectory(db, log, blocks, time.Duration(config.BlockCacheTTLSeconds)*time.Second)
	hub := realtime.NewHub(log)
	core := messaging.NewService(log, users, svc.NewStores(db), svc.NewTransactor(db)).
		WithPublisher(hub).
		WithPageSize(config.MessagesPerPage)

	return &Env{
		DB:            db,
		Log:           log,
		Users:         users,
		Conversations: svc.NewConversationStore(db),
		Notifications: svc.NewNotificationStore(db),
		Messaging:     core,
		Hub:           hub,
		Blocks:        blocks,
	}
}
