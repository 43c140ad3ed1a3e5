package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	apperrors "github.com/vidshelf/backend/internal/errors"
	"github.com/vidshelf/backend/internal/models"
	"github.com/vidshelf/backend/internal/reconcile"
	"github.com/vidshelf/backend/pkg/logger"
	"gorm.io/gorm"
)

type FolderService struct {
	DB       *gorm.DB
	Host     FileHost
	Access   *AccessService
	Activity *ActivityService
}

func NewFolderService(db *gorm.DB, host FileHost, access *AccessService, activity *ActivityService) *FolderService {
	return &FolderService{DB: db, Host: host, Access: access, Activity: activity}
}

type FolderView struct {
	models.Folder
	Path   string `json:"path"`
	Shared bool   `json:"shared"`
}

type FolderListing struct {
	Tree    *reconcile.TreeNode `json:"tree"`
	Folders []FolderView        `json:"folders"`
}

// Tree returns the visible folders both as a rooted tree and as a flat list
// carrying display paths.
func (s *FolderService) Tree(ctx context.Context, user *models.User) (*FolderListing, error) {
	folders, err := s.Access.VisibleFolders(ctx, user)
	if err != nil {
		return nil, err
	}

	root := reconcile.BuildTree(folders)
	paths := reconcile.Paths(root)

	views := make([]FolderView, len(folders))
	for i, folder := range folders {
		views[i] = FolderView{
			Folder: folder,
			Path:   paths[folder.ID],
			Shared: folder.UserID != user.ID,
		}
	}
	return &FolderListing{Tree: root, Folders: views}, nil
}

// Create makes the provider directory first so the local row always carries
// its dir id.
func (s *FolderService) Create(ctx context.Context, user *models.User, name string, parentID *uint) (*models.Folder, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: folder name is required", apperrors.ErrInvalidInput)
	}

	parentDirID := ""
	if parentID != nil {
		var parent models.Folder
		err := s.DB.WithContext(ctx).First(&parent, "id = ?", *parentID).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		if err != nil || !s.Access.CanManageFolder(user, &parent) {
			return nil, fmt.Errorf("%w: parent folder not found", apperrors.ErrInvalidInput)
		}
		if parent.RemoteDirID != nil {
			parentDirID = *parent.RemoteDirID
		}
	}

	dirID, err := s.Host.CreateFolder(ctx, name, parentDirID)
	if err != nil {
		logger.ErrorWithUser(idString(user.ID), "remote_folder_create_failed", err, map[string]interface{}{
			"name": name,
		})
		return nil, err
	}

	folder := models.Folder{
		UserID:      user.ID,
		Name:        name,
		ParentID:    parentID,
		RemoteDirID: strPtr(dirID),
	}
	if err := s.DB.WithContext(ctx).Create(&folder).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(strings.ToLower(err.Error()), "unique") {
			return nil, fmt.Errorf("%w: remote directory %s is already mapped", apperrors.ErrConflict, dirID)
		}
		return nil, err
	}

	s.logActivity(ActivityEntry{
		UserID:     userPtr(user.ID),
		Action:     ActionCreateFolder,
		TargetType: "folder",
		TargetID:   idString(folder.ID),
		Metadata:   map[string]interface{}{"name": name},
	})
	return &folder, nil
}

type FolderDeleteResult struct {
	DeletedFolders int      `json:"deletedFolders"`
	DeletedVideos  int      `json:"deletedVideos"`
	Warnings       []string `json:"warnings,omitempty"`
}

// Delete removes the folder and everything below it, deepest first. Only the
// local rows go; provider directories are left alone and contained codes are
// tombstoned. A failing subfolder becomes a warning.
func (s *FolderService) Delete(ctx context.Context, user *models.User, id uint) (*FolderDeleteResult, error) {
	folder, err := s.Access.LoadFolder(ctx, user, id)
	if err != nil {
		return nil, err
	}
	if !s.Access.CanManageFolder(user, folder) {
		return nil, fmt.Errorf("%w: only the owner can delete folder %d", apperrors.ErrForbidden, id)
	}

	// A publisher's walk stops at folders someone else owns, even when they
	// sit below one of the publisher's own folders.
	query := s.DB.WithContext(ctx)
	if !user.IsSuperuser() {
		query = query.Where("user_id = ?", user.ID)
	}
	var all []models.Folder
	if err := query.Find(&all).Error; err != nil {
		return nil, err
	}
	ids := reconcile.Descendants(reconcile.BuildTree(all), id)

	result := &FolderDeleteResult{}
	for _, folderID := range ids {
		videos, err := s.deleteOne(ctx, user, folderID)
		result.DeletedVideos += videos
		if err != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("folder %d: %v", folderID, err))
			continue
		}
		result.DeletedFolders++
	}

	if len(result.Warnings) > 0 {
		logger.WarnWithUser(idString(user.ID), "folder_delete_partial", map[string]interface{}{
			"folder_id": id,
			"warnings":  result.Warnings,
		})
	}
	// ids ends with the requested folder; if it survived nothing useful happened.
	if result.DeletedFolders == 0 {
		return result, fmt.Errorf("failed to delete folder %d: %s", id, strings.Join(result.Warnings, "; "))
	}

	s.logActivity(ActivityEntry{
		UserID:     userPtr(user.ID),
		Action:     ActionDeleteFolder,
		TargetType: "folder",
		TargetID:   idString(id),
		Metadata: map[string]interface{}{
			"name":           folder.Name,
			"deletedFolders": result.DeletedFolders,
			"deletedVideos":  result.DeletedVideos,
		},
	})
	return result, nil
}

func (s *FolderService) deleteOne(ctx context.Context, user *models.User, folderID uint) (int, error) {
	deleted := 0
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		videoQuery := tx.Where("folder_id = ?", folderID)
		folderQuery := tx.Where("id = ?", folderID)
		if !user.IsSuperuser() {
			videoQuery = videoQuery.Where("user_id = ?", user.ID)
			folderQuery = folderQuery.Where("user_id = ?", user.ID)
		}

		var videos []models.Video
		if err := videoQuery.Find(&videos).Error; err != nil {
			return err
		}
		if err := deleteVideoRows(tx, videos, user.ID); err != nil {
			return err
		}
		if err := tx.Where("folder_id = ?", folderID).Delete(&models.FolderShare{}).Error; err != nil {
			return err
		}
		if err := folderQuery.Delete(&models.Folder{}).Error; err != nil {
			return err
		}
		deleted = len(videos)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}

// ShareLink returns the cached provider link of a folder, or nil when none
// has been seen yet. Publishers may only ask about their own folders.
func (s *FolderService) ShareLink(ctx context.Context, user *models.User, id uint) (*string, error) {
	query := s.DB.WithContext(ctx).Where("id = ?", id)
	if !user.IsSuperuser() {
		query = query.Where("user_id = ?", user.ID)
	}
	var folder models.Folder
	if err := query.First(&folder).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: folder %d", apperrors.ErrNotFound, id)
		}
		return nil, err
	}
	return folder.ShareLink, nil
}

func (s *FolderService) logActivity(entry ActivityEntry) {
	if s.Activity != nil {
		s.Activity.LogAsync(entry)
	}
}
