package handlers

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/vidshelf/backend/internal/middleware"
	"github.com/vidshelf/backend/internal/models"
	"github.com/vidshelf/backend/internal/services"
	"github.com/vidshelf/backend/pkg/logger"
	"github.com/vidshelf/backend/pkg/utils"
	"gorm.io/gorm"
)

const minPasswordLength = 6

type AuthHandler struct {
	DB       *gorm.DB
	Activity *services.ActivityService
	// SecureCookie marks the session cookie Secure; off for plain-http dev.
	SecureCookie bool
}

func NewAuthHandler(db *gorm.DB, activity *services.ActivityService) *AuthHandler {
	return &AuthHandler{DB: db, Activity: activity}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		return utils.Error(c, fiber.StatusBadRequest, "username and password are required")
	}

	var user models.User
	if err := h.DB.WithContext(c.UserContext()).Where("username = ?", req.Username).First(&user).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return respondError(c, err, "failed to login")
		}
		logger.Warn("login_failed", map[string]interface{}{
			"username": req.Username,
			"ip":       c.IP(),
			"reason":   "unknown_user",
		})
		return utils.Error(c, fiber.StatusUnauthorized, "invalid credentials")
	}
	if !utils.CheckPassword(req.Password, user.PasswordHash) {
		logger.WarnWithUser(userKey(&user), "login_failed", map[string]interface{}{
			"ip":     c.IP(),
			"reason": "bad_password",
		})
		return utils.Error(c, fiber.StatusUnauthorized, "invalid credentials")
	}

	token, err := utils.GenerateToken(&user)
	if err != nil {
		return respondError(c, err, "failed to generate token")
	}

	c.Cookie(&fiber.Cookie{
		Name:     middleware.AuthCookie,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(utils.TokenTTL()),
		HTTPOnly: true,
		Secure:   h.SecureCookie,
		SameSite: fiber.CookieSameSiteLaxMode,
	})

	h.Activity.LogAsync(services.ActivityEntry{
		UserID: &user.ID,
		Action: services.ActionLogin,
		Metadata: map[string]interface{}{
			"ip": c.IP(),
		},
	})
	logger.InfoWithUser(userKey(&user), "login", map[string]interface{}{
		"ip": c.IP(),
	})

	return utils.Success(c, fiber.StatusOK, loginResponse{Token: token, User: &user})
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	c.Cookie(&fiber.Cookie{
		Name:     middleware.AuthCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		Secure:   h.SecureCookie,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return utils.Success(c, fiber.StatusOK, fiber.Map{"message": "logged out"})
}

func (h *AuthHandler) Me(c *fiber.Ctx) error {
	user := middleware.GetCurrentUser(c)
	if user == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}
	return utils.Success(c, fiber.StatusOK, user)
}

type updateProfileRequest struct {
	Email           *string `json:"email"`
	CurrentPassword string  `json:"currentPassword"`
	NewPassword     *string `json:"newPassword"`
}

// UpdateProfile changes the caller's email and/or password. Both need the
// current password.
func (h *AuthHandler) UpdateProfile(c *fiber.Ctx) error {
	user := middleware.GetCurrentUser(c)
	if user == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var req updateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	if req.Email == nil && req.NewPassword == nil {
		return utils.Error(c, fiber.StatusBadRequest, "nothing to update")
	}
	if !utils.CheckPassword(req.CurrentPassword, user.PasswordHash) {
		logger.WarnWithUser(userKey(user), "profile_update_denied", map[string]interface{}{
			"reason": "bad_current_password",
		})
		return utils.Error(c, fiber.StatusBadRequest, "current password is incorrect")
	}

	updates := map[string]interface{}{}
	if req.Email != nil {
		email := strings.TrimSpace(*req.Email)
		if email == "" {
			updates["email"] = nil
		} else {
			updates["email"] = email
		}
	}
	if req.NewPassword != nil {
		if len(*req.NewPassword) < minPasswordLength {
			return utils.Error(c, fiber.StatusBadRequest, "password must be at least 6 characters")
		}
		hash, err := utils.HashPassword(*req.NewPassword)
		if err != nil {
			return respondError(c, err, "failed to hash password")
		}
		updates["password_hash"] = hash
	}

	if err := h.DB.WithContext(c.UserContext()).Model(&models.User{}).Where("id = ?", user.ID).Updates(updates).Error; err != nil {
		return respondError(c, err, "failed to update profile")
	}

	var updated models.User
	if err := h.DB.WithContext(c.UserContext()).First(&updated, user.ID).Error; err != nil {
		return respondError(c, err, "failed to load profile")
	}

	fields := make([]string, 0, len(updates))
	for field := range updates {
		if field == "password_hash" {
			field = "password"
		}
		fields = append(fields, field)
	}
	logger.InfoWithUser(userKey(user), "profile_updated", map[string]interface{}{
		"fields": fields,
	})

	return utils.Success(c, fiber.StatusOK, updated)
}
