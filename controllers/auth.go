package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"Strimoid/middleware"
	"Strimoid/models"
	"Strimoid/pkg/config"
	tokenstore "Strimoid/pkg/token"
	utils "Strimoid/pkg/utills"
)

const tokenTTL = 24 * time.Hour

// Register handler
func Register(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body struct {
			Email           string `json:"email"`
			Username        string `json:"username"`
			Password        string `json:"password"`
			ConfirmPassword string `json:"confirm_password"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid request"})
			return
		}

		email := strings.TrimSpace(strings.ToLower(body.Email))
		username := strings.TrimSpace(body.Username)
		password := body.Password

		if email == "" || username == "" || password == "" || body.ConfirmPassword == "" {
			c.JSON(http.StatusBadRequest, gin.H{"msg": "Email, username, password, and confirm password are required"})
			return
		}
		if password != body.ConfirmPassword {
			c.JSON(http.StatusBadRequest, gin.H{"msg": "Passwords do not match"})
			return
		}
		if !utils.ValidUsername(username) {
			c.JSON(http.StatusBadRequest, gin.H{"msg": "Username must be 2-30 letters, digits or underscores"})
			return
		}
		if !utils.ValidPassword(password) {
			c.JSON(http.StatusBadRequest, gin.H{"msg": "Password must be at least 6 characters"})
			return
		}
		if !utils.ValidEmail(email) {
			c.JSON(http.StatusBadRequest, gin.H{"msg": "Invalid email"})
			return
		}

		shadow := models.ShadowNameOf(username)
		var exists models.User
		err := env.DB.Where("email = ? OR shadow_name = ?", email, shadow).First(&exists).Error
		if err == nil {
			c.JSON(http.StatusConflict, gin.H{"msg": "Email or username already exists"})
			return
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			env.respondError(c, err)
			return
		}

		user := models.User{
			Name:            username,
			ShadowName:      shadow,
			Email:           email,
			Type:            models.UserTypeUser,
			LastIP:          c.ClientIP(),
			ActivationToken: utils.RandomString(16),
			Settings:        models.DefaultUserSettings(),
		}
		if err := user.SetPassword(password); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"msg": "failed to set password"})
			return
		}
		if err := env.DB.Create(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				c.JSON(http.StatusConflict, gin.H{"msg": "Email or username already exists"})
				return
			}
			env.respondError(c, err)
			return
		}

		env.Log.Info().Uint("user", user.ID).Str("domain", utils.EmailDomain(email)).Msg("user registered")

		resp := gin.H{"msg": "User created", "username": user.Name, "email": user.Email}
		if config.IsStaging {
			// no mailer in staging
			resp["activation_token"] = user.ActivationToken
		}
		c.JSON(http.StatusCreated, resp)
	}
}

// Activate enables the account owning the activation token.
func Activate(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := strings.TrimSpace(c.Param("token"))
		if token == "" {
			c.JSON(http.StatusNotFound, gin.H{"msg": "Invalid activation token"})
			return
		}

		var user models.User
		if err := env.DB.Where("activation_token = ? AND is_activated = ?", token, false).First(&user).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"msg": "Invalid activation token"})
			return
		}
		if err := env.DB.Model(&user).Updates(map[string]any{"is_activated": true, "activation_token": ""}).Error; err != nil {
			env.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"msg": "Account activated", "username": user.Name})
	}
}

// Login handler
func Login(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid request"})
			return
		}
		shadow := models.ShadowNameOf(body.Username)
		if shadow == "" || body.Password == "" {
			c.JSON(http.StatusBadRequest, gin.H{"msg": "Username and password are required"})
			return
		}

		var user models.User
		if err := env.DB.Where("shadow_name = ?", shadow).First(&user).Error; err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"msg": "Invalid credentials"})
			return
		}
		if !user.CheckPassword(body.Password) {
			c.JSON(http.StatusUnauthorized, gin.H{"msg": "Invalid credentials"})
			return
		}
		if !user.CanLogin() {
			c.JSON(http.StatusForbidden, gin.H{"msg": "Account is not active"})
			return
		}

		tokenStr, err := issueToken(user.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"msg": "failed to create token"})
			return
		}

		now := time.Now()
		if err := env.DB.Model(&user).Updates(map[string]any{"last_login": &now, "last_ip": c.ClientIP()}).Error; err != nil {
			env.Log.Warn().Err(err).Uint("user", user.ID).Msg("could not record login")
		}

		c.JSON(http.StatusOK, gin.H{"access_token": tokenStr, "username": user.Name})
	}
}

func issueToken(uid uint) (string, error) {
	claims := jwt.MapClaims{
		"sub": strconv.FormatUint(uint64(uid), 10),
		"exp": time.Now().Add(tokenTTL).Unix(),
		"jti": uuid.NewString(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(config.JWTSecret))
}

// Logout handler
func Logout() gin.HandlerFunc {
	return func(c *gin.Context) {
		exp, _ := c.Get(middleware.ContextExpKey)
		expAt, _ := exp.(time.Time)
		tokenstore.RevokeToken(c.GetString(middleware.ContextJTIKey), expAt)
		c.JSON(http.StatusOK, gin.H{"msg": "logged out"})
	}
}

// ChangePassword requires the current password.
func ChangePassword(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body struct {
			OldPassword     string `json:"old_password"`
			Password        string `json:"password"`
			ConfirmPassword string `json:"confirm_password"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid request"})
			return
		}
		if body.Password != body.ConfirmPassword {
			c.JSON(http.StatusBadRequest, gin.H{"msg": "Passwords do not match"})
			return
		}
		if !utils.ValidPassword(body.Password) {
			c.JSON(http.StatusBadRequest, gin.H{"msg": "Password must be at least 6 characters"})
			return
		}

		user, err := env.Users.FindByID(c.Request.Context(), middleware.CurrentUserID(c))
		if err != nil {
			env.respondError(c, err)
			return
		}
		if !user.CheckPassword(body.OldPassword) {
			c.JSON(http.StatusBadRequest, gin.H{"msg": "Old password is incorrect"})
			return
		}
		if err := user.SetPassword(body.Password); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"msg": "failed to set password"})
			return
		}
		if err := env.DB.Model(user).Update("password_hash", user.PasswordHash).Error; err != nil {
			env.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"msg": "Password changed"})
	}
}
