package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	apperrors "github.com/vidshelf/backend/internal/errors"
	"github.com/vidshelf/backend/internal/filehost"
	"github.com/vidshelf/backend/internal/models"
	"github.com/vidshelf/backend/internal/reconcile"
	"github.com/vidshelf/backend/pkg/logger"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

var errSharedVideo = fmt.Errorf("%w: shared video - contact superuser", apperrors.ErrForbidden)

type ItemError struct {
	Identity string `json:"identity"`
	Error    string `json:"error"`
}

// BulkResult reports a best-effort batch: one failed item never aborts the
// rest.
type BulkResult struct {
	Succeeded []string    `json:"succeeded"`
	Failed    []ItemError `json:"failed"`
}

func (r *BulkResult) fail(identity string, err error) {
	r.Failed = append(r.Failed, ItemError{Identity: identity, Error: err.Error()})
}

type VideoService struct {
	DB         *gorm.DB
	Host       FileHost
	Activity   *ActivityService
	Thumbnails *ThumbnailMirror
	BatchSize  int
}

func NewVideoService(db *gorm.DB, host FileHost, activity *ActivityService, thumbnails *ThumbnailMirror, batchSize int) *VideoService {
	if batchSize < 1 {
		batchSize = 3
	}
	return &VideoService{
		DB:         db,
		Host:       host,
		Activity:   activity,
		Thumbnails: thumbnails,
		BatchSize:  batchSize,
	}
}

// Delete hides each video locally. The provider copy is never removed, so
// every known code is tombstoned and its share rows are dropped.
func (s *VideoService) Delete(ctx context.Context, user *models.User, ids []reconcile.VideoIdentity) (*BulkResult, error) {
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: no videos selected", apperrors.ErrInvalidInput)
	}

	result := &BulkResult{Succeeded: []string{}, Failed: []ItemError{}}
	for _, id := range ids {
		key := id.Key()
		if err := id.Validate(); err != nil {
			result.fail(key, err)
			continue
		}

		var err error
		if id.IsLocal() {
			err = s.deleteLocal(ctx, user, id)
		} else {
			err = s.deleteRemote(ctx, user, id)
		}
		if err != nil {
			logger.WarnWithUser(idString(user.ID), "video_delete_failed", map[string]interface{}{
				"identity": key,
				"error":    err.Error(),
			})
			result.fail(key, err)
			continue
		}

		result.Succeeded = append(result.Succeeded, key)
		s.logActivity(ActivityEntry{
			UserID:     userPtr(user.ID),
			Action:     ActionDeleteVideo,
			TargetType: "video",
			TargetID:   key,
		})
	}

	return result, nil
}

func (s *VideoService) deleteLocal(ctx context.Context, user *models.User, id reconcile.VideoIdentity) error {
	var video models.Video
	if err := s.DB.WithContext(ctx).First(&video, "id = ?", id.ID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: video %d not found or unauthorized", apperrors.ErrNotFound, id.ID)
		}
		return err
	}
	if !user.IsSuperuser() && video.UserID != user.ID {
		return fmt.Errorf("%w: video %d not found or unauthorized", apperrors.ErrNotFound, id.ID)
	}

	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return deleteVideoRows(tx, []models.Video{video}, user.ID)
	})
}

func (s *VideoService) deleteRemote(ctx context.Context, user *models.User, id reconcile.VideoIdentity) error {
	db := s.DB.WithContext(ctx)

	var owned []models.Video
	query := db.Where("remote_file_id = ?", id.Code)
	if !user.IsSuperuser() {
		query = query.Where("user_id = ?", user.ID)
	}
	if err := query.Find(&owned).Error; err != nil {
		return err
	}

	if !user.IsSuperuser() && len(owned) == 0 {
		var shared int64
		if err := db.Model(&models.VideoShare{}).
			Where("remote_file_id = ? AND shared_to_user_id = ?", id.Code, user.ID).
			Count(&shared).Error; err != nil {
			return err
		}
		if shared > 0 {
			return errSharedVideo
		}
		return fmt.Errorf("%w: video %s not found or unauthorized", apperrors.ErrNotFound, id.Code)
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if err := deleteVideoRows(tx, owned, user.ID); err != nil {
			return err
		}
		if err := tx.Where("video_key = ? OR remote_file_id = ?", id.Key(), id.Code).
			Delete(&models.VideoShare{}).Error; err != nil {
			return err
		}
		return recordTombstone(tx, id.Code, user.ID)
	})
}

// deleteVideoRows removes shares, tombstones known codes and deletes the rows.
func deleteVideoRows(tx *gorm.DB, videos []models.Video, deletedBy uint) error {
	for _, video := range videos {
		keys := []string{reconcile.LocalIdentity(video.ID).Key()}
		code := ""
		if video.RemoteFileID != nil {
			code = *video.RemoteFileID
		}

		shares := tx.Where("video_key IN ?", keys)
		if code != "" {
			shares = tx.Where("video_key IN ? OR remote_file_id = ?", append(keys, reconcile.RemoteIdentity(code).Key()), code)
		}
		if err := shares.Delete(&models.VideoShare{}).Error; err != nil {
			return err
		}
		if err := recordTombstone(tx, code, deletedBy); err != nil {
			return err
		}
		if err := tx.Delete(&models.Video{}, video.ID).Error; err != nil {
			return err
		}
	}
	return nil
}

type UploadItem struct {
	FileName   string               `json:"fileName"`
	VideoID    uint                 `json:"videoId,omitempty"`
	UploadTask *filehost.UploadTask `json:"uploadTask,omitempty"`
	Error      string               `json:"error,omitempty"`
}

// InitUpload creates one provider upload task and one uploading row per file
// name. Names are processed in batches of BatchSize running concurrently.
func (s *VideoService) InitUpload(ctx context.Context, user *models.User, fileNames []string, folderID *uint) ([]UploadItem, error) {
	names := make([]string, 0, len(fileNames))
	for _, name := range fileNames {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: file name is required", apperrors.ErrInvalidInput)
	}

	dirID := ""
	if folderID != nil {
		folder, err := s.manageableFolder(ctx, user, *folderID)
		if err != nil {
			return nil, err
		}
		if folder.RemoteDirID != nil {
			dirID = *folder.RemoteDirID
		}
	}

	items := make([]UploadItem, len(names))
	for start := 0; start < len(names); start += s.BatchSize {
		end := min(start+s.BatchSize, len(names))

		var g errgroup.Group
		for i := start; i < end; i++ {
			i := i
			g.Go(func() error {
				items[i] = s.initOne(ctx, user, names[i], folderID, dirID)
				return nil
			})
		}
		_ = g.Wait()
	}

	return items, nil
}

func (s *VideoService) initOne(ctx context.Context, user *models.User, name string, folderID *uint, dirID string) UploadItem {
	item := UploadItem{FileName: name}

	task, err := s.Host.CreateUploadTask(ctx, name, dirID)
	if err != nil {
		logger.ErrorWithUser(idString(user.ID), "upload_task_failed", err, map[string]interface{}{
			"file_name": name,
		})
		item.Error = err.Error()
		return item
	}

	video := models.Video{
		UserID:         user.ID,
		FolderID:       folderID,
		Name:           name,
		RemoteUploadID: strPtr(task.ID),
		UploadStatus:   models.UploadStatusUploading,
	}
	if err := s.DB.WithContext(ctx).Create(&video).Error; err != nil {
		item.Error = err.Error()
		return item
	}

	item.VideoID = video.ID
	item.UploadTask = &task
	return item
}

type ConfirmRequest struct {
	VideoID  uint   `json:"videoId"`
	UploadID string `json:"uploadId"`
	Result   bool   `json:"result"`
}

// ConfirmUpload finishes the three-step upload for the caller's own row.
func (s *VideoService) ConfirmUpload(ctx context.Context, user *models.User, req ConfirmRequest) (*models.Video, error) {
	db := s.DB.WithContext(ctx)

	var video models.Video
	if err := db.First(&video, "id = ? AND user_id = ?", req.VideoID, user.ID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: video %d", apperrors.ErrNotFound, req.VideoID)
		}
		return nil, err
	}

	uploadID := strings.TrimSpace(req.UploadID)
	if uploadID == "" && video.RemoteUploadID != nil {
		uploadID = *video.RemoteUploadID
	}
	if uploadID == "" {
		return nil, fmt.Errorf("%w: upload id is required", apperrors.ErrInvalidInput)
	}

	confirmed, err := s.Host.ConfirmUpload(ctx, uploadID, req.Result)
	if !req.Result {
		if err != nil {
			logger.WarnWithUser(idString(user.ID), "upload_abort_confirm_failed", map[string]interface{}{
				"video_id": video.ID,
				"error":    err.Error(),
			})
		}
		if err := db.Model(&video).Update("upload_status", models.UploadStatusFailed).Error; err != nil {
			return nil, err
		}
		video.UploadStatus = models.UploadStatusFailed
		return &video, nil
	}
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"upload_status":    models.UploadStatusCompleted,
		"share_link":       nullable(confirmed.ShareLink),
		"embed_link":       nullable(confirmed.EmbedLink),
		"thumbnail_url":    nullable(confirmed.ThumbnailURL),
		"remote_upload_id": nil,
	}
	if code, ok := reconcile.CodeFromLinks(confirmed.ShareLink, confirmed.EmbedLink); ok {
		updates["remote_file_id"] = code
	}
	if confirmed.ThumbnailURL != "" && s.Thumbnails != nil {
		mirrored, err := s.Thumbnails.Mirror(ctx, video.ID, confirmed.ThumbnailURL)
		if err != nil {
			logger.Warn("thumbnail_mirror_failed", map[string]interface{}{
				"video_id": video.ID,
				"error":    err.Error(),
			})
		} else {
			updates["thumbnail_mirror_url"] = mirrored
		}
	}

	if err := db.Model(&models.Video{}).Where("id = ? AND user_id = ?", video.ID, user.ID).Updates(updates).Error; err != nil {
		return nil, err
	}
	if video.FolderID != nil && confirmed.DirShareLink != "" {
		s.cacheFolderLink(ctx, *video.FolderID, confirmed.DirShareLink)
	}

	var updated models.Video
	if err := db.First(&updated, video.ID).Error; err != nil {
		return nil, err
	}

	s.logActivity(ActivityEntry{
		UserID:     userPtr(user.ID),
		Action:     ActionUploadLocal,
		TargetType: "video",
		TargetID:   reconcile.LocalIdentity(updated.ID).Key(),
		Metadata:   map[string]interface{}{"name": updated.Name},
	})
	return &updated, nil
}

type RemoteUploadRequest struct {
	URL      string `json:"url"`
	Name     string `json:"name"`
	FolderID *uint  `json:"folderId"`
}

type RemoteUploadResult struct {
	TaskID       string `json:"taskId"`
	DirShareLink string `json:"dirShareLink,omitempty"`
	VideoID      uint   `json:"videoId"`
}

// RemoteUpload asks the provider to fetch a URL itself. Superuser only.
func (s *VideoService) RemoteUpload(ctx context.Context, user *models.User, req RemoteUploadRequest) (*RemoteUploadResult, error) {
	if !user.IsSuperuser() {
		return nil, fmt.Errorf("%w: remote upload requires superuser", apperrors.ErrForbidden)
	}
	sourceURL := strings.TrimSpace(req.URL)
	name := strings.TrimSpace(req.Name)
	if sourceURL == "" || name == "" {
		return nil, fmt.Errorf("%w: url and name are required", apperrors.ErrInvalidInput)
	}
	parsed, err := url.ParseRequestURI(sourceURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return nil, fmt.Errorf("%w: invalid url", apperrors.ErrInvalidInput)
	}

	dirID := ""
	if req.FolderID != nil {
		var folder models.Folder
		if err := s.DB.WithContext(ctx).First(&folder, "id = ?", *req.FolderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("%w: folder %d", apperrors.ErrNotFound, *req.FolderID)
			}
			return nil, err
		}
		if folder.RemoteDirID == nil || strings.TrimSpace(*folder.RemoteDirID) == "" {
			return nil, fmt.Errorf("%w: folder %d has no remote directory", apperrors.ErrInvalidInput, folder.ID)
		}
		dirID = *folder.RemoteDirID
	}

	task, err := s.Host.RemoteUpload(ctx, name, sourceURL, dirID)
	if err != nil {
		return nil, err
	}

	video := models.Video{
		UserID:         user.ID,
		FolderID:       req.FolderID,
		Name:           name,
		RemoteUploadID: strPtr(task.ID),
		UploadStatus:   models.UploadStatusUploading,
	}
	if err := s.DB.WithContext(ctx).Create(&video).Error; err != nil {
		return nil, err
	}
	if req.FolderID != nil && task.DirShareLink != "" {
		s.cacheFolderLink(ctx, *req.FolderID, task.DirShareLink)
	}

	s.logActivity(ActivityEntry{
		UserID:     userPtr(user.ID),
		Action:     ActionUploadRemote,
		TargetType: "video",
		TargetID:   reconcile.LocalIdentity(video.ID).Key(),
		Metadata:   map[string]interface{}{"name": name, "url": sourceURL},
	})

	return &RemoteUploadResult{TaskID: task.ID, DirShareLink: task.DirShareLink, VideoID: video.ID}, nil
}

func (s *VideoService) manageableFolder(ctx context.Context, user *models.User, id uint) (*models.Folder, error) {
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
	return &folder, nil
}

func (s *VideoService) cacheFolderLink(ctx context.Context, folderID uint, link string) {
	if err := s.DB.WithContext(ctx).Model(&models.Folder{}).Where("id = ?", folderID).
		Update("share_link", link).Error; err != nil {
		logger.Error("folder_link_cache_failed", err, map[string]interface{}{"folder_id": folderID})
	}
}

func (s *VideoService) logActivity(entry ActivityEntry) {
	if s.Activity != nil {
		s.Activity.LogAsync(entry)
	}
}
