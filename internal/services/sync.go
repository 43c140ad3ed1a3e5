package services

import (
	"context"
	"fmt"
	"time"

	"github.com/vidshelf/backend/internal/models"
	"github.com/vidshelf/backend/internal/reconcile"
	"github.com/vidshelf/backend/pkg/logger"
	"gorm.io/gorm"
)

type SyncStats struct {
	FilesCount     int      `json:"filesCount"`
	LocalFolders   int      `json:"localFoldersCount"`
	LocalVideos    int      `json:"localVideosCount"`
	DeletedFolders int      `json:"deletedFoldersCount"`
	DeletedVideos  int      `json:"deletedVideosCount"`
	UpdatedVideos  int      `json:"updatedVideosCount"`
	Errors         []string `json:"errors,omitempty"`
}

// SyncService brings local video rows in line with the provider listing.
// Folders are never removed by a sync.
type SyncService struct {
	DB          *gorm.DB
	Host        FileHost
	Activity    *ActivityService
	UploadGrace time.Duration
	Now         func() time.Time
}

func NewSyncService(db *gorm.DB, host FileHost, activity *ActivityService, uploadGrace time.Duration) *SyncService {
	return &SyncService{
		DB:          db,
		Host:        host,
		Activity:    activity,
		UploadGrace: uploadGrace,
		Now:         func() time.Time { return time.Now().UTC() },
	}
}

// Run syncs every row for a superuser and only the caller's rows otherwise.
// Items are applied one at a time; a failed item is reported and skipped.
func (s *SyncService) Run(ctx context.Context, user *models.User) (*SyncStats, error) {
	remote, err := s.Host.ListFiles(ctx)
	if err != nil {
		return nil, err
	}

	db := s.DB.WithContext(ctx)
	folderQuery := db.Model(&models.Folder{})
	videoQuery := db.Model(&models.Video{})
	if !user.IsSuperuser() {
		folderQuery = folderQuery.Where("user_id = ?", user.ID)
		videoQuery = videoQuery.Where("user_id = ?", user.ID)
	}

	var folders []models.Folder
	if err := folderQuery.Find(&folders).Error; err != nil {
		return nil, err
	}
	var videos []models.Video
	if err := videoQuery.Find(&videos).Error; err != nil {
		return nil, err
	}

	plan := reconcile.PlanSync(reconcile.SyncInput{
		Remote:      remote,
		Folders:     folders,
		Videos:      videos,
		Now:         s.Now(),
		UploadGrace: s.UploadGrace,
	})

	stats := &SyncStats{
		FilesCount:   plan.FileCount,
		LocalFolders: len(folders),
		LocalVideos:  len(videos),
	}

	for _, action := range plan.Actions {
		switch action.Decision {
		case reconcile.SyncDeleteStale, reconcile.SyncDeleteAbandoned:
			if err := s.deleteVideo(db, user, action.VideoID); err != nil {
				stats.Errors = append(stats.Errors, fmt.Sprintf("failed to delete video %d: %v", action.VideoID, err))
				continue
			}
			stats.DeletedVideos++
		case reconcile.SyncComplete:
			if err := s.completeVideo(db, user, action); err != nil {
				stats.Errors = append(stats.Errors, fmt.Sprintf("failed to update video %d: %v", action.VideoID, err))
				continue
			}
			stats.UpdatedVideos++
		}
	}

	logger.InfoWithUser(idString(user.ID), "sync_completed", map[string]interface{}{
		"files":          stats.FilesCount,
		"deleted_videos": stats.DeletedVideos,
		"updated_videos": stats.UpdatedVideos,
		"errors":         len(stats.Errors),
	})

	if s.Activity != nil {
		s.Activity.LogAsync(ActivityEntry{
			UserID: userPtr(user.ID),
			Action: ActionSync,
			Metadata: map[string]interface{}{
				"deletedVideos": stats.DeletedVideos,
				"updatedVideos": stats.UpdatedVideos,
			},
		})
	}

	return stats, nil
}

func (s *SyncService) deleteVideo(db *gorm.DB, user *models.User, videoID uint) error {
	query := db.Where("id = ?", videoID)
	if !user.IsSuperuser() {
		query = query.Where("user_id = ?", user.ID)
	}
	return query.Delete(&models.Video{}).Error
}

func (s *SyncService) completeVideo(db *gorm.DB, user *models.User, action reconcile.SyncAction) error {
	updates := map[string]interface{}{
		"upload_status":  models.UploadStatusCompleted,
		"remote_file_id": action.Code,
		"share_link":     nullable(action.File.ShareLink),
		"embed_link":     nullable(action.File.EmbedLink),
		"thumbnail_url":  nullable(action.File.Thumbnail),
	}
	query := db.Model(&models.Video{}).Where("id = ?", action.VideoID)
	if !user.IsSuperuser() {
		query = query.Where("user_id = ?", user.ID)
	}
	return query.Updates(updates).Error
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
