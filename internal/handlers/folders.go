package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/vidshelf/backend/internal/middleware"
	"github.com/vidshelf/backend/internal/services"
	"github.com/vidshelf/backend/pkg/utils"
)

type FoldersHandler struct {
	Folders *services.FolderService
}

func NewFoldersHandler(folders *services.FolderService) *FoldersHandler {
	return &FoldersHandler{Folders: folders}
}

func (h *FoldersHandler) List(c *fiber.Ctx) error {
	user := middleware.GetCurrentUser(c)
	listing, err := h.Folders.Tree(c.UserContext(), user)
	if err != nil {
		return respondError(c, err, "failed listing folders")
	}
	return utils.Success(c, fiber.StatusOK, listing)
}

type createFolderRequest struct {
	Name     string `json:"name"`
	ParentID *uint  `json:"parentId"`
}

func (h *FoldersHandler) Create(c *fiber.Ctx) error {
	user := middleware.GetCurrentUser(c)

	var req createFolderRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	folder, err := h.Folders.Create(c.UserContext(), user, req.Name, req.ParentID)
	if err != nil {
		return respondError(c, err, "failed creating folder")
	}
	return utils.Success(c, fiber.StatusCreated, folder)
}

// Delete answers 207 when some subfolders could not be removed and 500 when
// the folder itself survived.
func (h *FoldersHandler) Delete(c *fiber.Ctx) error {
	user := middleware.GetCurrentUser(c)
	folderID, err := parseID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid folder id")
	}

	result, err := h.Folders.Delete(c.UserContext(), user, folderID)
	if err != nil {
		return respondError(c, err, "failed deleting folder")
	}
	return utils.Bulk(c, result, len(result.Warnings))
}

func (h *FoldersHandler) ShareLink(c *fiber.Ctx) error {
	user := middleware.GetCurrentUser(c)
	folderID, err := parseID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid folder id")
	}

	link, err := h.Folders.ShareLink(c.UserContext(), user, folderID)
	if err != nil {
		return respondError(c, err, "failed fetching share link")
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{"shareLink": link})
}
