package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"Strimoid/middleware"
	"Strimoid/models"
	svc "Strimoid/pkg/services"
	tokenstore "Strimoid/pkg/token"
)

type userView struct {
	ID          uint       `json:"id"`
	Name        string     `json:"name"`
	Avatar      string     `json:"avatar,omitempty"`
	Age         int        `json:"age,omitempty"`
	Sex         string     `json:"sex"`
	Location    string     `json:"location,omitempty"`
	Description string     `json:"description,omitempty"`
	TotalPoints int        `json:"total_points"`
	CreatedAt   time.Time  `json:"created_at"`
	LastLogin   *time.Time `json:"last_login,omitempty"`
}

func newUserView(u *models.User) userView {
	return userView{
		ID:          u.ID,
		Name:        u.Name,
		Avatar:      u.Avatar,
		Age:         u.Age,
		Sex:         u.Sex,
		Location:    u.Location,
		Description: u.Description,
		TotalPoints: u.TotalPoints,
		CreatedAt:   u.CreatedAt,
		LastLogin:   u.LastLogin,
	}
}

// UserInfo shows the public profile of :username.
func UserInfo(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := env.Users.ResolveByName(c.Request.Context(), c.Param("username"))
		if (err == nil && user.RemovedAt != nil) || svc.IsNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"msg": "User not found"})
			return
		}
		if err != nil {
			env.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, newUserView(user))
	}
}

// Me returns the current user with e-mail and settings.
func Me(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := env.Users.FindByID(c.Request.Context(), middleware.CurrentUserID(c))
		if err != nil {
			env.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"user":     newUserView(user),
			"email":    user.Email,
			"type":     user.Type,
			"settings": user.Settings.WithDefaults(),
		})
	}
}

func ShowSettings(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := env.Users.FindByID(c.Request.Context(), middleware.CurrentUserID(c))
		if err != nil {
			env.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, user.Settings.WithDefaults())
	}
}

// SaveSettings replaces the settings of the current user. Omitted fields
// keep their defaults.
func SaveSettings(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		settings := models.DefaultUserSettings()
		if err := c.ShouldBindJSON(&settings); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid request"})
			return
		}
		if err := settings.Validate(); err != nil {
			settingsErrorResponse(c, err)
			return
		}

		user := models.User{}
		user.ID = middleware.CurrentUserID(c)
		if err := env.DB.WithContext(c.Request.Context()).Model(&user).Select("Settings").Updates(models.User{Settings: settings}).Error; err != nil {
			env.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"msg": "Settings saved", "settings": settings})
	}
}

func settingsErrorResponse(c *gin.Context, err error) {
	var serr *models.SettingsError
	if errors.As(err, &serr) {
		c.JSON(http.StatusBadRequest, gin.H{"msg": serr.Message, "field": serr.Field})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"msg": err.Error()})
}

// SaveProfile replaces sex, birth year, location and description of the
// current user.
func SaveProfile(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		var p models.Profile
		if err := c.ShouldBindJSON(&p); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid request"})
			return
		}
		if err := p.Validate(); err != nil {
			settingsErrorResponse(c, err)
			return
		}
		if err := env.Users.UpdateProfile(c.Request.Context(), middleware.CurrentUserID(c), p); err != nil {
			env.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"msg": "Profile saved"})
	}
}

// RemoveAccount deletes the current account after the password is given twice.
// The token used for the request is revoked.
func RemoveAccount(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body struct {
			Password        string `json:"password"`
			ConfirmPassword string `json:"confirm_password"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid request"})
			return
		}
		if body.Password == "" || body.Password != body.ConfirmPassword {
			c.JSON(http.StatusBadRequest, gin.H{"msg": "Passwords do not match"})
			return
		}

		uid := middleware.CurrentUserID(c)
		user, err := env.Users.FindByID(c.Request.Context(), uid)
		if err != nil {
			env.respondError(c, err)
			return
		}
		if !user.CheckPassword(body.Password) {
			c.JSON(http.StatusBadRequest, gin.H{"msg": "Password is incorrect"})
			return
		}
		if err := env.Users.RemoveAccount(c.Request.Context(), uid); err != nil {
			env.respondError(c, err)
			return
		}

		exp, _ := c.Get(middleware.ContextExpKey)
		expAt, _ := exp.(time.Time)
		tokenstore.RevokeToken(c.GetString(middleware.ContextJTIKey), expAt)
		c.JSON(http.StatusOK, gin.H{"msg": "Account removed"})
	}
}

// UserList returns every active user name for autocompletion.
func UserList(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		users, err := env.Users.ListActive(c.Request.Context())
		if err != nil {
			env.respondError(c, err)
			return
		}
		out := make([]gin.H, 0, len(users))
		for _, u := range users {
			out = append(out, gin.H{"value": u.Name, "avatar": u.Avatar})
		}
		c.JSON(http.StatusOK, out)
	}
}
