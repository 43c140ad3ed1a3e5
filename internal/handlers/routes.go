package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/vidshelf/backend/internal/middleware"
)

// Handlers bundles every route group so the server and the tests mount the
// same table.
type Handlers struct {
	Auth     *AuthHandler
	Users    *UsersHandler
	Folders  *FoldersHandler
	Videos   *VideosHandler
	Sync     *SyncHandler
	Shares   *SharesHandler
	Posts    *PostsHandler
	Settings *SettingsHandler
	Activity *ActivityHandler
}

func RegisterRoutes(app *fiber.App, h Handlers, authMiddleware *middleware.AuthMiddleware) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api")
	requireAuth := authMiddleware.RequireAuth

	authRoutes := api.Group("/auth")
	authRoutes.Post("/login", h.Auth.Login)
	authRoutes.Post("/logout", h.Auth.Logout)
	authRoutes.Get("/me", requireAuth, h.Auth.Me)
	api.Put("/profile", requireAuth, h.Auth.UpdateProfile)

	userRoutes := api.Group("/users", requireAuth, middleware.SuperuserOnly)
	userRoutes.Get("/", h.Users.List)
	userRoutes.Post("/", h.Users.Create)
	userRoutes.Put("/:id", h.Users.Update)
	userRoutes.Delete("/:id", h.Users.Delete)

	folderRoutes := api.Group("/folders", requireAuth)
	folderRoutes.Get("/", h.Folders.List)
	folderRoutes.Post("/", h.Folders.Create)
	folderRoutes.Get("/:id/share-link", h.Folders.ShareLink)
	folderRoutes.Delete("/:id", h.Folders.Delete)

	videoRoutes := api.Group("/videos", requireAuth)
	videoRoutes.Get("/", h.Videos.List)
	videoRoutes.Post("/upload", h.Videos.InitUpload)
	videoRoutes.Post("/upload/confirm", h.Videos.ConfirmUpload)
	videoRoutes.Post("/remote", middleware.SuperuserOnly, h.Videos.RemoteUpload)
	videoRoutes.Post("/delete", h.Videos.Delete)

	api.Post("/sync", requireAuth, h.Sync.Run)

	shareRoutes := api.Group("/shares", requireAuth)
	shareRoutes.Get("/videos", h.Shares.ListVideoShares)
	shareRoutes.Post("/videos", middleware.SuperuserOnly, h.Shares.ShareVideo)
	shareRoutes.Delete("/videos", middleware.SuperuserOnly, h.Shares.UnshareVideo)
	shareRoutes.Get("/folders", h.Shares.ListFolderShares)
	shareRoutes.Post("/folders", middleware.SuperuserOnly, h.Shares.ShareFolder)
	shareRoutes.Delete("/folders", middleware.SuperuserOnly, h.Shares.UnshareFolder)

	postRoutes := api.Group("/posts", requireAuth)
	postRoutes.Get("/", h.Posts.List)
	postRoutes.Post("/", h.Posts.Create)
	postRoutes.Get("/preview", h.Posts.Preview)

	settingRoutes := api.Group("/settings", requireAuth, middleware.SuperuserOnly)
	settingRoutes.Get("/", h.Settings.Get)
	settingRoutes.Put("/", h.Settings.Update)

	activityRoutes := api.Group("/activity", requireAuth)
	activityRoutes.Get("/", h.Activity.List)
	activityRoutes.Get("/summary", h.Activity.Summary)
}
