package handlers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/tidwall/gjson"
	"github.com/vidshelf/backend/internal/middleware"
	"github.com/vidshelf/backend/internal/services"
	"github.com/vidshelf/backend/pkg/utils"
)

const maxPostImageBytes = 10 << 20

type PostsHandler struct {
	Posts *services.PostService
}

func NewPostsHandler(posts *services.PostService) *PostsHandler {
	return &PostsHandler{Posts: posts}
}

func (h *PostsHandler) List(c *fiber.Ctx) error {
	user := middleware.GetCurrentUser(c)
	p := utils.ParsePagination(c)

	posts, total, err := h.Posts.List(c.UserContext(), user, p.Offset, p.Limit)
	if err != nil {
		return respondError(c, err, "failed listing posts")
	}
	return utils.Paginated(c, posts, p.Page, p.Limit, total)
}

type createPostRequest struct {
	Title    string `json:"title"`
	VideoIDs []uint `json:"videoIds"`
}

// Create takes JSON, or multipart with title, videoIds and an optional image
// field that becomes the channel photo.
func (h *PostsHandler) Create(c *fiber.Ctx) error {
	user := middleware.GetCurrentUser(c)

	var req services.CreatePostRequest
	if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		ids, err := parseVideoIDList(c.FormValue("videoIds"))
		if err != nil {
			return utils.Error(c, fiber.StatusBadRequest, "invalid videoIds")
		}
		req.Title = c.FormValue("title")
		req.VideoIDs = ids

		if header, err := c.FormFile("image"); err == nil {
			if header.Size > maxPostImageBytes {
				return utils.Error(c, fiber.StatusBadRequest, "image larger than 10MB")
			}
			file, err := header.Open()
			if err != nil {
				return utils.Error(c, fiber.StatusBadRequest, "failed reading image")
			}
			defer file.Close()
			req.Photo = &services.PostPhoto{Filename: header.Filename, Reader: file}
		}
	} else {
		var body createPostRequest
		if err := c.BodyParser(&body); err != nil {
			return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
		}
		req.Title = body.Title
		req.VideoIDs = body.VideoIDs
	}

	result, err := h.Posts.Create(c.UserContext(), user, req)
	if err != nil {
		return respondError(c, err, "failed creating post")
	}
	return utils.Success(c, fiber.StatusCreated, result)
}

func (h *PostsHandler) Preview(c *fiber.Ctx) error {
	name, err := h.Posts.ChannelName(c.UserContext())
	if err != nil {
		return respondError(c, err, "failed loading channel name")
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{"channelName": name})
}

// parseVideoIDList accepts a JSON array ("[1,2]") or a comma list ("1,2").
func parseVideoIDList(raw string) ([]uint, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	var parts []string
	if strings.HasPrefix(raw, "[") {
		if !gjson.Valid(raw) {
			return nil, strconv.ErrSyntax
		}
		for _, value := range gjson.Parse(raw).Array() {
			parts = append(parts, value.String())
		}
	} else {
		parts = strings.Split(raw, ",")
	}

	ids := make([]uint, 0, len(parts))
	for _, part := range parts {
		id, err := parseID(part)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
