package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/vidshelf/backend/internal/middleware"
	"github.com/vidshelf/backend/internal/services"
	"github.com/vidshelf/backend/pkg/logger"
	"github.com/vidshelf/backend/pkg/utils"
)

type SettingsHandler struct {
	Settings *services.SettingsService
}

func NewSettingsHandler(settings *services.SettingsService) *SettingsHandler {
	return &SettingsHandler{Settings: settings}
}

func (h *SettingsHandler) Get(c *fiber.Ctx) error {
	values, err := h.Settings.All(c.UserContext(), false)
	if err != nil {
		return respondError(c, err, "failed loading settings")
	}
	return utils.Success(c, fiber.StatusOK, values)
}

// Update applies every key in the body. Unknown keys reject the whole
// request before anything is written.
func (h *SettingsHandler) Update(c *fiber.Ctx) error {
	user := middleware.GetCurrentUser(c)

	var req map[string]string
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	if len(req) == 0 {
		return utils.Error(c, fiber.StatusBadRequest, "no settings provided")
	}
	for key := range req {
		if !services.IsKnownSetting(key) {
			return utils.Error(c, fiber.StatusBadRequest, "unknown setting: "+key)
		}
	}

	keys := make([]string, 0, len(req))
	for key, value := range req {
		if err := h.Settings.Set(c.UserContext(), key, value); err != nil {
			return respondError(c, err, "failed saving settings")
		}
		keys = append(keys, key)
	}
	logger.InfoWithUser(userKey(user), "settings_updated", map[string]interface{}{
		"keys": keys,
	})

	values, err := h.Settings.All(c.UserContext(), false)
	if err != nil {
		return respondError(c, err, "failed loading settings")
	}
	return utils.Success(c, fiber.StatusOK, values)
}
