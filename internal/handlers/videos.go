package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/vidshelf/backend/internal/middleware"
	"github.com/vidshelf/backend/internal/reconcile"
	"github.com/vidshelf/backend/internal/services"
	"github.com/vidshelf/backend/pkg/utils"
)

type VideosHandler struct {
	Library *services.LibraryService
	Videos  *services.VideoService
}

func NewVideosHandler(library *services.LibraryService, videos *services.VideoService) *VideosHandler {
	return &VideosHandler{Library: library, Videos: videos}
}

// List returns one page of the reconciled listing. folder_id accepts "root",
// a folder id, or nothing for every folder.
func (h *VideosHandler) List(c *fiber.Ctx) error {
	user := middleware.GetCurrentUser(c)
	p := utils.ParsePagination(c)

	filter, err := reconcile.ParseFolderFilter(c.Query("folder_id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid folder_id")
	}

	result, err := h.Library.List(c.UserContext(), user, services.ListQuery{
		Filter:   filter,
		Page:     p.Page,
		PageSize: p.Limit,
	})
	if err != nil {
		return respondError(c, err, "failed listing videos")
	}

	page := result.Page
	return utils.Paginated(c, page.Items, page.Page, page.PageSize, int64(page.Total))
}

type initUploadRequest struct {
	FileName  string   `json:"fileName"`
	FileNames []string `json:"fileNames"`
	FolderID  *uint    `json:"folderId"`
}

// InitUpload accepts either fileName, answered with a single item, or
// fileNames, answered as a batch where each name succeeds or fails alone.
func (h *VideosHandler) InitUpload(c *fiber.Ctx) error {
	user := middleware.GetCurrentUser(c)

	var req initUploadRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	batch := len(req.FileNames) > 0
	names := req.FileNames
	if !batch {
		names = []string{req.FileName}
	}

	items, err := h.Videos.InitUpload(c.UserContext(), user, names, req.FolderID)
	if err != nil {
		return respondError(c, err, "failed creating upload task")
	}

	if !batch {
		item := items[0]
		if item.Error != "" {
			return utils.Error(c, fiber.StatusBadGateway, item.Error)
		}
		return utils.Success(c, fiber.StatusCreated, item)
	}

	failed := 0
	for _, item := range items {
		if item.Error != "" {
			failed++
		}
	}
	return utils.Bulk(c, items, failed)
}

func (h *VideosHandler) ConfirmUpload(c *fiber.Ctx) error {
	user := middleware.GetCurrentUser(c)

	var req services.ConfirmRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	if req.VideoID == 0 {
		return utils.Error(c, fiber.StatusBadRequest, "videoId is required")
	}

	video, err := h.Videos.ConfirmUpload(c.UserContext(), user, req)
	if err != nil {
		return respondError(c, err, "failed confirming upload")
	}
	return utils.Success(c, fiber.StatusOK, video)
}

func (h *VideosHandler) RemoteUpload(c *fiber.Ctx) error {
	user := middleware.GetCurrentUser(c)

	var req services.RemoteUploadRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	result, err := h.Videos.RemoteUpload(c.UserContext(), user, req)
	if err != nil {
		return respondError(c, err, "failed starting remote upload")
	}
	return utils.Success(c, fiber.StatusAccepted, result)
}

type deleteVideosRequest struct {
	Videos []reconcile.VideoIdentity `json:"videos"`
}

func (h *VideosHandler) Delete(c *fiber.Ctx) error {
	user := middleware.GetCurrentUser(c)

	var req deleteVideosRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	result, err := h.Videos.Delete(c.UserContext(), user, req.Videos)
	if err != nil {
		return respondError(c, err, "failed deleting videos")
	}
	return utils.Bulk(c, result, len(result.Failed))
}
