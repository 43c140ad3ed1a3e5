package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/vidshelf/backend/internal/middleware"
	"github.com/vidshelf/backend/internal/services"
	"github.com/vidshelf/backend/pkg/utils"
)

type SyncHandler struct {
	Sync *services.SyncService
}

func NewSyncHandler(sync *services.SyncService) *SyncHandler {
	return &SyncHandler{Sync: sync}
}

// Run reports per-item failures inside the stats; only a failed remote
// listing fails the request.
func (h *SyncHandler) Run(c *fiber.Ctx) error {
	user := middleware.GetCurrentUser(c)
	stats, err := h.Sync.Run(c.UserContext(), user)
	if err != nil {
		return respondError(c, err, "sync failed")
	}
	return utils.Success(c, fiber.StatusOK, stats)
}
