package services

import (
	"context"
	"errors"
	"fmt"

	apperrors "github.com/vidshelf/backend/internal/errors"
	"github.com/vidshelf/backend/internal/models"
	"gorm.io/gorm"
)

// AccessService answers who may see which folders and videos. Every answer
// is computed from fresh rows; nothing is cached between requests.
type AccessService struct {
	DB *gorm.DB
}

func NewAccessService(db *gorm.DB) *AccessService {
	return &AccessService{DB: db}
}

// CurrentRole reads the role from the database. Token claims are never used
// for authorization.
func (a *AccessService) CurrentRole(ctx context.Context, userID uint) (models.UserRole, error) {
	var user models.User
	if err := a.DB.WithContext(ctx).Select("id", "role").First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", fmt.Errorf("%w: user %d", apperrors.ErrNotFound, userID)
		}
		return "", err
	}
	return user.Role, nil
}

// VisibleFolders returns every folder for a superuser, and owned plus shared
// folders for a publisher.
func (a *AccessService) VisibleFolders(ctx context.Context, user *models.User) ([]models.Folder, error) {
	var folders []models.Folder
	query := a.DB.WithContext(ctx).Model(&models.Folder{})
	if !user.IsSuperuser() {
		shared := a.DB.Model(&models.FolderShare{}).Select("folder_id").Where("shared_to_user_id = ?", user.ID)
		query = query.Where("user_id = ? OR id IN (?)", user.ID, shared)
	}
	if err := query.Order("created_at DESC").Order("id DESC").Find(&folders).Error; err != nil {
		return nil, err
	}
	return folders, nil
}

// OwnedFolders is the set a user may modify: everything for a superuser,
// their own rows otherwise.
func (a *AccessService) OwnedFolders(ctx context.Context, user *models.User) ([]models.Folder, error) {
	var folders []models.Folder
	query := a.DB.WithContext(ctx).Model(&models.Folder{})
	if !user.IsSuperuser() {
		query = query.Where("user_id = ?", user.ID)
	}
	if err := query.Order("id ASC").Find(&folders).Error; err != nil {
		return nil, err
	}
	return folders, nil
}

func (a *AccessService) SharedVideoCodes(ctx context.Context, userID uint) (map[string]struct{}, error) {
	var codes []string
	if err := a.DB.WithContext(ctx).Model(&models.VideoShare{}).
		Where("shared_to_user_id = ?", userID).
		Pluck("remote_file_id", &codes).Error; err != nil {
		return nil, err
	}

	set := make(map[string]struct{}, len(codes))
	for _, code := range codes {
		if code != "" {
			set[code] = struct{}{}
		}
	}
	return set, nil
}

// VideoVisibility returns nil for a superuser, meaning every remote code is
// visible. A publisher sees codes shared with them and codes of their own
// videos.
func (a *AccessService) VideoVisibility(ctx context.Context, user *models.User) (func(code string) bool, int, error) {
	if user.IsSuperuser() {
		return nil, 0, nil
	}

	shared, err := a.SharedVideoCodes(ctx, user.ID)
	if err != nil {
		return nil, 0, err
	}
	sharedCount := len(shared)

	var owned []string
	if err := a.DB.WithContext(ctx).Model(&models.Video{}).
		Where("user_id = ? AND remote_file_id IS NOT NULL", user.ID).
		Pluck("remote_file_id", &owned).Error; err != nil {
		return nil, 0, err
	}
	for _, code := range owned {
		if code != "" {
			shared[code] = struct{}{}
		}
	}

	return func(code string) bool {
		_, ok := shared[code]
		return ok
	}, sharedCount, nil
}

func (a *AccessService) CanManageFolder(user *models.User, folder *models.Folder) bool {
	return user.IsSuperuser() || folder.UserID == user.ID
}

// CanSeeFolder allows owners, superusers and share recipients.
func (a *AccessService) CanSeeFolder(ctx context.Context, user *models.User, folder *models.Folder) (bool, error) {
	if a.CanManageFolder(user, folder) {
		return true, nil
	}
	var count int64
	if err := a.DB.WithContext(ctx).Model(&models.FolderShare{}).
		Where("folder_id = ? AND shared_to_user_id = ?", folder.ID, user.ID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// LoadFolder fetches a folder the user may see, or ErrNotFound.
func (a *AccessService) LoadFolder(ctx context.Context, user *models.User, id uint) (*models.Folder, error) {
	var folder models.Folder
	if err := a.DB.WithContext(ctx).First(&folder, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: folder %d", apperrors.ErrNotFound, id)
		}
		return nil, err
	}
	ok, err := a.CanSeeFolder(ctx, user, &folder)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: folder %d", apperrors.ErrNotFound, id)
	}
	return &folder, nil
}
