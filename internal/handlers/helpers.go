package handlers

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	apperrors "github.com/vidshelf/backend/internal/errors"
	"github.com/vidshelf/backend/internal/middleware"
	"github.com/vidshelf/backend/internal/models"
	"github.com/vidshelf/backend/pkg/logger"
	"github.com/vidshelf/backend/pkg/utils"
)

func parseID(value string) (uint, error) {
	id, err := strconv.ParseUint(strings.TrimSpace(value), 10, 64)
	if err != nil || id == 0 {
		return 0, errors.New("invalid id")
	}
	return uint(id), nil
}

func parseOptionalID(value string) (*uint, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}
	id, err := parseID(value)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

var errorStatuses = []struct {
	target error
	status int
}{
	{apperrors.ErrInvalidInput, fiber.StatusBadRequest},
	{apperrors.ErrForbidden, fiber.StatusForbidden},
	{apperrors.ErrNotFound, fiber.StatusNotFound},
	{apperrors.ErrConflict, fiber.StatusConflict},
	{apperrors.ErrUpstreamUnavailable, fiber.StatusBadGateway},
	{apperrors.ErrNotConfigured, fiber.StatusServiceUnavailable},
}

// respondError maps service errors onto the envelope. Unknown errors are
// logged and answered with the fallback message.
func respondError(c *fiber.Ctx, err error, fallback string) error {
	for _, entry := range errorStatuses {
		if errors.Is(err, entry.target) {
			return utils.Error(c, entry.status, err.Error())
		}
	}

	details := map[string]interface{}{
		"path":   c.Path(),
		"method": c.Method(),
	}
	if user := middleware.GetCurrentUser(c); user != nil {
		logger.ErrorWithUser(userKey(user), "handler_error", err, details)
	} else {
		logger.Error("handler_error", err, details)
	}
	return utils.Error(c, fiber.StatusInternalServerError, fallback)
}

func userKey(user *models.User) string {
	return strconv.FormatUint(uint64(user.ID), 10)
}
