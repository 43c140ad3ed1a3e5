package handlers

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/vidshelf/backend/internal/middleware"
	"github.com/vidshelf/backend/internal/services"
	"github.com/vidshelf/backend/pkg/utils"
)

type ActivityHandler struct {
	Activity *services.ActivityService
}

func NewActivityHandler(activity *services.ActivityService) *ActivityHandler {
	return &ActivityHandler{Activity: activity}
}

// scopeUser pins publishers to their own rows. A superuser may narrow the
// view with user_id.
func scopeUser(c *fiber.Ctx) (*uint, error) {
	user := middleware.GetCurrentUser(c)
	if !user.IsSuperuser() {
		return &user.ID, nil
	}
	return parseOptionalID(c.Query("user_id"))
}

func (h *ActivityHandler) List(c *fiber.Ctx) error {
	p := utils.ParsePagination(c)
	userID, err := scopeUser(c)
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid user_id")
	}

	rows, total, err := h.Activity.List(c.UserContext(), services.ActivityFilter{
		UserID: userID,
		Action: strings.TrimSpace(c.Query("action")),
		Offset: p.Offset,
		Limit:  p.Limit,
	})
	if err != nil {
		return respondError(c, err, "failed listing activity")
	}
	return utils.Paginated(c, rows, p.Page, p.Limit, total)
}

// Summary covers the last days (1..90, default 7). Superusers also get the
// all-users daily series.
func (h *ActivityHandler) Summary(c *fiber.Ctx) error {
	user := middleware.GetCurrentUser(c)
	userID, err := scopeUser(c)
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid user_id")
	}

	summary, err := h.Activity.Summary(c.UserContext(), c.QueryInt("days", 7), userID, user.IsSuperuser(), time.Now().UTC())
	if err != nil {
		return respondError(c, err, "failed building activity summary")
	}
	return utils.Success(c, fiber.StatusOK, summary)
}
