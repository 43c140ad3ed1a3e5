package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/vidshelf/backend/internal/middleware"
	"github.com/vidshelf/backend/internal/models"
	"github.com/vidshelf/backend/pkg/logger"
	"github.com/vidshelf/backend/pkg/utils"
	"gorm.io/gorm"
)

type UsersHandler struct {
	DB *gorm.DB
}

func NewUsersHandler(db *gorm.DB) *UsersHandler {
	return &UsersHandler{DB: db}
}

func (h *UsersHandler) List(c *fiber.Ctx) error {
	p := utils.ParsePagination(c)
	search := strings.TrimSpace(c.Query("search"))

	query := h.DB.WithContext(c.UserContext()).Model(&models.User{})
	if search != "" {
		searchValue := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(username) LIKE ? OR LOWER(email) LIKE ?", searchValue, searchValue)
	}
	if role := models.UserRole(c.Query("role")); role.Valid() {
		query = query.Where("role = ?", role)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed counting users")
	}

	var users []models.User
	if err := utils.ApplyPagination(query.Order("username ASC"), p).Find(&users).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed listing users")
	}

	return utils.Paginated(c, users, p.Page, p.Limit, total)
}

type createUserRequest struct {
	Username string          `json:"username"`
	Password string          `json:"password"`
	Email    *string         `json:"email"`
	Role     models.UserRole `json:"role"`
}

func (h *UsersHandler) Create(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)

	var req createUserRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" {
		return utils.Error(c, fiber.StatusBadRequest, "username is required")
	}
	if len(req.Password) < minPasswordLength {
		return utils.Error(c, fiber.StatusBadRequest, "password must be at least 6 characters")
	}
	if req.Role == "" {
		req.Role = models.UserRolePublisher
	}
	if !req.Role.Valid() {
		return utils.Error(c, fiber.StatusBadRequest, "invalid role")
	}

	var existing int64
	if err := h.DB.WithContext(c.UserContext()).Model(&models.User{}).Where("username = ?", req.Username).Count(&existing).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed checking username")
	}
	if existing > 0 {
		return utils.Error(c, fiber.StatusConflict, "username already taken")
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed to hash password")
	}

	user := models.User{
		Username:     req.Username,
		PasswordHash: hash,
		Email:        trimmedOrNil(req.Email),
		Role:         req.Role,
	}
	if err := h.DB.WithContext(c.UserContext()).Create(&user).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed creating user")
	}

	logger.InfoWithUser(userKey(currentUser), "user_created", map[string]interface{}{
		"target_user_id": user.ID,
		"username":       user.Username,
		"role":           user.Role,
	})

	return utils.Success(c, fiber.StatusCreated, user)
}

type updateUserRequest struct {
	Email    *string          `json:"email"`
	Password *string          `json:"password"`
	Role     *models.UserRole `json:"role"`
}

func (h *UsersHandler) Update(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	userID, err := parseID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid user id")
	}

	var req updateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	updates := map[string]interface{}{}
	if req.Email != nil {
		if email := trimmedOrNil(req.Email); email != nil {
			updates["email"] = *email
		} else {
			updates["email"] = nil
		}
	}
	if req.Password != nil {
		if len(*req.Password) < minPasswordLength {
			return utils.Error(c, fiber.StatusBadRequest, "password must be at least 6 characters")
		}
		hash, err := utils.HashPassword(*req.Password)
		if err != nil {
			return utils.Error(c, fiber.StatusInternalServerError, "failed to hash password")
		}
		updates["password_hash"] = hash
	}
	if req.Role != nil {
		if !req.Role.Valid() {
			return utils.Error(c, fiber.StatusBadRequest, "invalid role")
		}
		if userID == currentUser.ID && *req.Role != currentUser.Role {
			return utils.Error(c, fiber.StatusBadRequest, "cannot change your own role")
		}
		updates["role"] = *req.Role
	}

	if len(updates) == 0 {
		return utils.Error(c, fiber.StatusBadRequest, "no valid fields to update")
	}

	result := h.DB.WithContext(c.UserContext()).Model(&models.User{}).Where("id = ?", userID).Updates(updates)
	if result.Error != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed updating user")
	}
	if result.RowsAffected == 0 {
		return utils.Error(c, fiber.StatusNotFound, "user not found")
	}

	var user models.User
	if err := h.DB.WithContext(c.UserContext()).First(&user, "id = ?", userID).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed fetching updated user")
	}

	logger.InfoWithUser(userKey(currentUser), "user_updated", map[string]interface{}{
		"target_user_id": user.ID,
		"role_changed":   req.Role != nil,
		"password_reset": req.Password != nil,
	})

	return utils.Success(c, fiber.StatusOK, user)
}

// Delete refuses users that still own folders or videos; their content has
// to be removed or reassigned first. Shares and posts go with the user and
// activity rows are kept without an owner.
func (h *UsersHandler) Delete(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	userID, err := parseID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid user id")
	}
	if userID == currentUser.ID {
		return utils.Error(c, fiber.StatusBadRequest, "cannot delete your own account")
	}

	db := h.DB.WithContext(c.UserContext())
	var user models.User
	if err := db.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.Error(c, fiber.StatusNotFound, "user not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed fetching user")
	}

	var owned int64
	if err := db.Model(&models.Folder{}).Where("user_id = ?", userID).Count(&owned).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed checking user content")
	}
	if owned == 0 {
		if err := db.Model(&models.Video{}).Where("user_id = ?", userID).Count(&owned).Error; err != nil {
			return utils.Error(c, fiber.StatusInternalServerError, "failed checking user content")
		}
	}
	if owned > 0 {
		return utils.Error(c, fiber.StatusConflict, "user still owns folders or videos")
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("shared_to_user_id = ? OR shared_by_user_id = ?", userID, userID).Delete(&models.VideoShare{}).Error; err != nil {
			return err
		}
		if err := tx.Where("shared_to_user_id = ? OR shared_by_user_id = ?", userID, userID).Delete(&models.FolderShare{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", userID).Delete(&models.Post{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.ActivityLog{}).Where("user_id = ?", userID).Update("user_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&models.User{}, "id = ?", userID).Error
	})
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed deleting user")
	}

	logger.InfoWithUser(userKey(currentUser), "user_deleted", map[string]interface{}{
		"target_user_id": userID,
		"username":       user.Username,
	})

	return utils.Success(c, fiber.StatusOK, fiber.Map{"message": "user deleted"})
}

func trimmedOrNil(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
