package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/vidshelf/backend/internal/middleware"
	"github.com/vidshelf/backend/internal/reconcile"
	"github.com/vidshelf/backend/internal/services"
	"github.com/vidshelf/backend/pkg/utils"
)

type SharesHandler struct {
	Shares *services.ShareService
}

func NewSharesHandler(shares *services.ShareService) *SharesHandler {
	return &SharesHandler{Shares: shares}
}

func parseVideoQuery(c *fiber.Ctx) (reconcile.VideoIdentity, error) {
	return reconcile.ParseVideoIdentity(c.Query("video"))
}

func (h *SharesHandler) ListVideoShares(c *fiber.Ctx) error {
	user := middleware.GetCurrentUser(c)
	video, err := parseVideoQuery(c)
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid video identity")
	}

	shares, err := h.Shares.ListVideoShares(c.UserContext(), user, video)
	if err != nil {
		return respondError(c, err, "failed listing shares")
	}
	return utils.Success(c, fiber.StatusOK, shares)
}

type shareVideoRequest struct {
	Video  reconcile.VideoIdentity `json:"video"`
	UserID uint                    `json:"userId"`
}

func (h *SharesHandler) ShareVideo(c *fiber.Ctx) error {
	user := middleware.GetCurrentUser(c)

	var req shareVideoRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	if req.UserID == 0 {
		return utils.Error(c, fiber.StatusBadRequest, "userId is required")
	}
	if err := req.Video.Validate(); err != nil {
		return respondError(c, err, "invalid video identity")
	}

	share, err := h.Shares.ShareVideo(c.UserContext(), user, req.Video, req.UserID)
	if err != nil {
		return respondError(c, err, "failed sharing video")
	}
	return utils.Success(c, fiber.StatusCreated, share)
}

func (h *SharesHandler) UnshareVideo(c *fiber.Ctx) error {
	user := middleware.GetCurrentUser(c)
	video, err := parseVideoQuery(c)
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid video identity")
	}
	targetID, err := parseID(c.Query("user_id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid user_id")
	}

	if err := h.Shares.UnshareVideo(c.UserContext(), user, video, targetID); err != nil {
		return respondError(c, err, "failed removing share")
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{"message": "share removed"})
}

func (h *SharesHandler) ListFolderShares(c *fiber.Ctx) error {
	user := middleware.GetCurrentUser(c)
	folderID, err := parseID(c.Query("folder_id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid folder_id")
	}

	shares, err := h.Shares.ListFolderShares(c.UserContext(), user, folderID)
	if err != nil {
		return respondError(c, err, "failed listing shares")
	}
	return utils.Success(c, fiber.StatusOK, shares)
}

type shareFolderRequest struct {
	FolderID    uint   `json:"folderId"`
	UserID      uint   `json:"userId"`
	RemoteDirID string `json:"remoteDirId"`
}

func (h *SharesHandler) ShareFolder(c *fiber.Ctx) error {
	user := middleware.GetCurrentUser(c)

	var req shareFolderRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	if req.FolderID == 0 || req.UserID == 0 {
		return utils.Error(c, fiber.StatusBadRequest, "folderId and userId are required")
	}

	share, err := h.Shares.ShareFolder(c.UserContext(), user, req.FolderID, req.UserID, strings.TrimSpace(req.RemoteDirID))
	if err != nil {
		return respondError(c, err, "failed sharing folder")
	}
	return utils.Success(c, fiber.StatusCreated, share)
}

func (h *SharesHandler) UnshareFolder(c *fiber.Ctx) error {
	user := middleware.GetCurrentUser(c)
	folderID, err := parseID(c.Query("folder_id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid folder_id")
	}
	targetID, err := parseID(c.Query("user_id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid user_id")
	}

	if err := h.Shares.UnshareFolder(c.UserContext(), user, folderID, targetID); err != nil {
		return respondError(c, err, "failed removing share")
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{"message": "share removed"})
}
