package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	apperrors "github.com/vidshelf/backend/internal/errors"
	"github.com/vidshelf/backend/internal/models"
	"github.com/vidshelf/backend/internal/reconcile"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ShareService grants publishers visibility of videos and folders they do
// not own. Granting is superuser only; sharing twice is a no-op.
type ShareService struct {
	DB       *gorm.DB
	Activity *ActivityService
}

func NewShareService(db *gorm.DB, activity *ActivityService) *ShareService {
	return &ShareService{DB: db, Activity: activity}
}

type ShareView struct {
	ID             uint      `json:"id"`
	SharedByUserID uint      `json:"sharedByUserID"`
	SharedToUserID uint      `json:"sharedToUserID"`
	Username       string    `json:"username"`
	Email          *string   `json:"email,omitempty"`
	RemoteFileID   string    `json:"remoteFileID,omitempty"`
	FolderID       uint      `json:"folderID,omitempty"`
	RemoteDirID    *string   `json:"remoteDirID,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

// ShareVideo records the grant under the remote identity of the video, so a
// local id and its code resolve to the same share row.
func (s *ShareService) ShareVideo(ctx context.Context, actor *models.User, video reconcile.VideoIdentity, targetUserID uint) (*models.VideoShare, error) {
	if err := requireSuperuser(actor); err != nil {
		return nil, err
	}
	if _, err := s.publisher(ctx, targetUserID); err != nil {
		return nil, err
	}
	code, err := s.resolveCode(ctx, video)
	if err != nil {
		return nil, err
	}

	share := models.VideoShare{
		VideoKey:       reconcile.RemoteIdentity(code).Key(),
		RemoteFileID:   code,
		SharedByUserID: actor.ID,
		SharedToUserID: targetUserID,
	}
	db := s.DB.WithContext(ctx)
	if err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "video_key"}, {Name: "shared_to_user_id"}},
		DoNothing: true,
	}).Create(&share).Error; err != nil {
		return nil, err
	}
	if err := db.First(&share, "video_key = ? AND shared_to_user_id = ?", share.VideoKey, targetUserID).Error; err != nil {
		return nil, err
	}

	s.logActivity(ActivityEntry{
		UserID:     userPtr(actor.ID),
		Action:     ActionShareVideo,
		TargetType: "video",
		TargetID:   share.VideoKey,
		Metadata:   map[string]interface{}{"sharedTo": targetUserID},
	})
	return &share, nil
}

func (s *ShareService) UnshareVideo(ctx context.Context, actor *models.User, video reconcile.VideoIdentity, targetUserID uint) error {
	if err := requireSuperuser(actor); err != nil {
		return err
	}
	code, err := s.resolveCode(ctx, video)
	if err != nil {
		return err
	}
	return s.DB.WithContext(ctx).
		Where("remote_file_id = ? AND shared_to_user_id = ?", code, targetUserID).
		Delete(&models.VideoShare{}).Error
}

// ListVideoShares shows every grant to a superuser and only the caller's own
// grant to a publisher.
func (s *ShareService) ListVideoShares(ctx context.Context, actor *models.User, video reconcile.VideoIdentity) ([]ShareView, error) {
	code, err := s.resolveCode(ctx, video)
	if err != nil {
		return nil, err
	}

	query := s.DB.WithContext(ctx).Preload("SharedTo").Where("remote_file_id = ?", code)
	if !actor.IsSuperuser() {
		query = query.Where("shared_to_user_id = ?", actor.ID)
	}
	var shares []models.VideoShare
	if err := query.Order("created_at ASC").Find(&shares).Error; err != nil {
		return nil, err
	}

	views := make([]ShareView, len(shares))
	for i, share := range shares {
		views[i] = ShareView{
			ID:             share.ID,
			SharedByUserID: share.SharedByUserID,
			SharedToUserID: share.SharedToUserID,
			Username:       share.SharedTo.Username,
			Email:          share.SharedTo.Email,
			RemoteFileID:   share.RemoteFileID,
			CreatedAt:      share.CreatedAt,
		}
	}
	return views, nil
}

// ShareFolder stores the folder's dir id on the grant unless one is given.
func (s *ShareService) ShareFolder(ctx context.Context, actor *models.User, folderID, targetUserID uint, dirID string) (*models.FolderShare, error) {
	if err := requireSuperuser(actor); err != nil {
		return nil, err
	}
	if _, err := s.publisher(ctx, targetUserID); err != nil {
		return nil, err
	}
	folder, err := s.folder(ctx, folderID)
	if err != nil {
		return nil, err
	}

	share := models.FolderShare{
		FolderID:       folder.ID,
		RemoteDirID:    folder.RemoteDirID,
		SharedByUserID: actor.ID,
		SharedToUserID: targetUserID,
	}
	if dirID = strings.TrimSpace(dirID); dirID != "" {
		share.RemoteDirID = &dirID
	}

	db := s.DB.WithContext(ctx)
	if err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "folder_id"}, {Name: "shared_to_user_id"}},
		DoNothing: true,
	}).Create(&share).Error; err != nil {
		return nil, err
	}
	if err := db.First(&share, "folder_id = ? AND shared_to_user_id = ?", folder.ID, targetUserID).Error; err != nil {
		return nil, err
	}

	s.logActivity(ActivityEntry{
		UserID:     userPtr(actor.ID),
		Action:     ActionShareFolder,
		TargetType: "folder",
		TargetID:   idString(folder.ID),
		Metadata:   map[string]interface{}{"sharedTo": targetUserID},
	})
	return &share, nil
}

func (s *ShareService) UnshareFolder(ctx context.Context, actor *models.User, folderID, targetUserID uint) error {
	if err := requireSuperuser(actor); err != nil {
		return err
	}
	return s.DB.WithContext(ctx).
		Where("folder_id = ? AND shared_to_user_id = ?", folderID, targetUserID).
		Delete(&models.FolderShare{}).Error
}

func (s *ShareService) ListFolderShares(ctx context.Context, actor *models.User, folderID uint) ([]ShareView, error) {
	if _, err := s.folder(ctx, folderID); err != nil {
		return nil, err
	}

	query := s.DB.WithContext(ctx).Preload("SharedTo").Where("folder_id = ?", folderID)
	if !actor.IsSuperuser() {
		query = query.Where("shared_to_user_id = ?", actor.ID)
	}
	var shares []models.FolderShare
	if err := query.Order("created_at ASC").Find(&shares).Error; err != nil {
		return nil, err
	}

	views := make([]ShareView, len(shares))
	for i, share := range shares {
		views[i] = ShareView{
			ID:             share.ID,
			SharedByUserID: share.SharedByUserID,
			SharedToUserID: share.SharedToUserID,
			Username:       share.SharedTo.Username,
			Email:          share.SharedTo.Email,
			FolderID:       share.FolderID,
			RemoteDirID:    share.RemoteDirID,
			CreatedAt:      share.CreatedAt,
		}
	}
	return views, nil
}

// resolveCode maps a video identity to the remote code shares are keyed on.
func (s *ShareService) resolveCode(ctx context.Context, video reconcile.VideoIdentity) (string, error) {
	if err := video.Validate(); err != nil {
		return "", err
	}
	if !video.IsLocal() {
		return strings.TrimSpace(video.Code), nil
	}

	var row models.Video
	if err := s.DB.WithContext(ctx).First(&row, "id = ?", video.ID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", fmt.Errorf("%w: video %d", apperrors.ErrNotFound, video.ID)
		}
		return "", err
	}
	if row.RemoteFileID == nil || *row.RemoteFileID == "" {
		return "", fmt.Errorf("%w: video %d has no remote code yet", apperrors.ErrInvalidInput, video.ID)
	}
	return *row.RemoteFileID, nil
}

func (s *ShareService) publisher(ctx context.Context, userID uint) (*models.User, error) {
	var user models.User
	if err := s.DB.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user %d", apperrors.ErrNotFound, userID)
		}
		return nil, err
	}
	if user.Role != models.UserRolePublisher {
		return nil, fmt.Errorf("%w: can only share with publishers", apperrors.ErrInvalidInput)
	}
	return &user, nil
}

func (s *ShareService) folder(ctx context.Context, id uint) (*models.Folder, error) {
	var folder models.Folder
	if err := s.DB.WithContext(ctx).First(&folder, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: folder %d", apperrors.ErrNotFound, id)
		}
		return nil, err
	}
	return &folder, nil
}

func (s *ShareService) logActivity(entry ActivityEntry) {
	if s.Activity != nil {
		s.Activity.LogAsync(entry)
	}
}

func requireSuperuser(user *models.User) error {
	if !user.IsSuperuser() {
		return fmt.Errorf("%w: superuser access required", apperrors.ErrForbidden)
	}
	return nil
}
