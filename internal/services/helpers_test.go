package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/vidshelf/backend/internal/config"
	"github.com/vidshelf/backend/internal/database"
	"github.com/vidshelf/backend/internal/models"
	"github.com/vidshelf/backend/pkg/logger"
	"gorm.io/gorm"
)

var fixedNow = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func setupServiceDB(t *testing.T) *gorm.DB {
	t.Helper()
	logger.Init()

	db, err := database.Open(config.DBConfig{Driver: "sqlite", Path: ":memory:"})
	require.NoError(t, err, "failed opening in-memory sqlite")
	require.NoError(t, database.Migrate(db), "failed automigrating")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	return db
}

func createUser(t *testing.T, db *gorm.DB, username string, role models.UserRole) *models.User {
	t.Helper()
	user := &models.User{Username: username, PasswordHash: "hash", Role: role}
	require.NoError(t, db.Create(user).Error, "failed creating user %s", username)
	return user
}

func createFolder(t *testing.T, db *gorm.DB, owner *models.User, name, dirID string, parentID *uint) *models.Folder {
	t.Helper()
	folder := &models.Folder{UserID: owner.ID, Name: name, ParentID: parentID}
	if dirID != "" {
		folder.RemoteDirID = &dirID
	}
	require.NoError(t, db.Create(folder).Error, "failed creating folder %s", name)
	return folder
}

func createVideo(t *testing.T, db *gorm.DB, owner *models.User, name, code string, status models.UploadStatus, folderID *uint) *models.Video {
	t.Helper()
	video := &models.Video{UserID: owner.ID, Name: name, FolderID: folderID, UploadStatus: status}
	if code != "" {
		video.RemoteFileID = &code
		link := "https://host.example/s/" + code
		video.ShareLink = &link
	}
	require.NoError(t, db.Create(video).Error, "failed creating video %s", name)
	return video
}

func ptr[T any](v T) *T {
	return &v
}
