package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vidshelf/backend/internal/config"
	apperrors "github.com/vidshelf/backend/internal/errors"
	"github.com/vidshelf/backend/internal/filehost"
	"github.com/vidshelf/backend/internal/models"
	"github.com/vidshelf/backend/internal/reconcile"
	"go.uber.org/mock/gomock"
	"gorm.io/gorm"
)

func newLibrary(t *testing.T, db *gorm.DB, host FileHost, strategy string) *LibraryService {
	t.Helper()
	svc := NewLibraryService(db, host, NewAccessService(db), NewTombstoneService(db), config.FileHostConfig{
		ListingStrategy: strategy,
		ListConcurrency: 2,
	})
	svc.Now = func() time.Time { return fixedNow }
	return svc
}

func remoteFile(code, name, dirID string) filehost.File {
	return filehost.File{
		Code:      code,
		Name:      name,
		ShareLink: "https://host.example/s/" + code,
		DirID:     dirID,
	}
}

func TestLibraryService_SuperuserMergesAndHidesTombstones(t *testing.T) {
	db := setupServiceDB(t)
	ctrl := gomock.NewController(t)
	host := NewMockFileHost(ctrl)
	ctx := context.Background()

	admin := createUser(t, db, "admin", models.UserRoleSuperuser)
	clips := createFolder(t, db, admin, "Clips", "DIR-Clips", nil)
	createVideo(t, db, admin, "dup.mp4", "dup1", models.UploadStatusCompleted, nil)
	createVideo(t, db, admin, "pending.mp4", "", models.UploadStatusUploading, &clips.ID)
	require.NoError(t, NewTombstoneService(db).RecordDeletion(ctx, "gone1", admin.ID))

	host.EXPECT().ListFiles(gomock.Any()).Return([]filehost.File{
		remoteFile("abc123", "a.mp4", ""),
		remoteFile("dup1", "dup.mp4", ""),
		remoteFile("gone1", "gone.mp4", ""),
		remoteFile("inclip", "c.mp4", "dir-clips"),
		{Name: "broken.mp4"},
	}, nil)

	result, err := newLibrary(t, db, host, config.ListingGlobal).List(ctx, admin, ListQuery{
		Filter: reconcile.AllFolders(), Page: 1, PageSize: 50,
	})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, 4, result.Page.Total)

	byName := map[string]reconcile.Entry{}
	for _, e := range result.Page.Items {
		byName[e.Name] = e
	}
	assert.NotContains(t, byName, "gone.mp4")
	assert.Equal(t, reconcile.SourceRemote, byName["dup.mp4"].Source, "remote copy replaces the completed local row")
	assert.Equal(t, reconcile.SourceLocal, byName["pending.mp4"].Source)
	assert.Equal(t, "Clips", byName["c.mp4"].FolderName)
	require.NotNil(t, byName["c.mp4"].FolderID)
	assert.Equal(t, clips.ID, *byName["c.mp4"].FolderID)
	assert.Equal(t, reconcile.RootFolderName, byName["a.mp4"].FolderName)
}

func TestLibraryService_PublisherWithoutSharesSkipsRemote(t *testing.T) {
	db := setupServiceDB(t)
	ctrl := gomock.NewController(t)
	host := NewMockFileHost(ctrl)

	alice := createUser(t, db, "alice", models.UserRolePublisher)
	createVideo(t, db, alice, "upload.mp4", "", models.UploadStatusUploading, nil)

	// No ListFiles expectation: any call fails the test.
	result, err := newLibrary(t, db, host, config.ListingGlobal).List(context.Background(), alice, ListQuery{
		Filter: reconcile.AllFolders(), Page: 1, PageSize: 15,
	})
	require.NoError(t, err)
	require.Len(t, result.Page.Items, 1)
	assert.Equal(t, "upload.mp4", result.Page.Items[0].Name)
}

func TestLibraryService_PublisherSeesOnlySharedRemoteCodes(t *testing.T) {
	db := setupServiceDB(t)
	ctrl := gomock.NewController(t)
	host := NewMockFileHost(ctrl)
	ctx := context.Background()

	admin := createUser(t, db, "admin", models.UserRoleSuperuser)
	alice := createUser(t, db, "alice", models.UserRolePublisher)
	require.NoError(t, db.Create(&models.VideoShare{
		VideoKey: "remote:shared1", RemoteFileID: "shared1",
		SharedByUserID: admin.ID, SharedToUserID: alice.ID,
	}).Error)

	host.EXPECT().ListFiles(gomock.Any()).Return([]filehost.File{
		remoteFile("shared1", "shared.mp4", ""),
		remoteFile("secret", "secret.mp4", ""),
	}, nil)

	result, err := newLibrary(t, db, host, config.ListingGlobal).List(ctx, alice, ListQuery{
		Filter: reconcile.AllFolders(), Page: 1, PageSize: 15,
	})
	require.NoError(t, err)
	require.Len(t, result.Page.Items, 1)
	assert.Equal(t, "shared1", result.Page.Items[0].Code)
}

func TestLibraryService_PerFolderStrategyListsDirectory(t *testing.T) {
	db := setupServiceDB(t)
	ctrl := gomock.NewController(t)
	host := NewMockFileHost(ctrl)

	admin := createUser(t, db, "admin", models.UserRoleSuperuser)
	folder := createFolder(t, db, admin, "Raw", "dir-raw", nil)

	host.EXPECT().ListDirectory(gomock.Any(), "dir-raw").Return([]filehost.File{
		remoteFile("r1", "one.mp4", ""),
		remoteFile("r2", "two.mp4", ""),
	}, nil)

	result, err := newLibrary(t, db, host, config.ListingPerFolder).List(context.Background(), admin, ListQuery{
		Filter: reconcile.InFolder(folder.ID), Page: 1, PageSize: 15,
	})
	require.NoError(t, err)
	require.Len(t, result.Page.Items, 2)
	for _, item := range result.Page.Items {
		require.NotNil(t, item.FolderID)
		assert.Equal(t, folder.ID, *item.FolderID)
	}
}

func TestLibraryService_FilterOnInvisibleFolder(t *testing.T) {
	db := setupServiceDB(t)
	ctrl := gomock.NewController(t)
	host := NewMockFileHost(ctrl)

	alice := createUser(t, db, "alice", models.UserRolePublisher)
	bob := createUser(t, db, "bob", models.UserRolePublisher)
	folder := createFolder(t, db, bob, "Bob", "dir-bob", nil)

	_, err := newLibrary(t, db, host, config.ListingGlobal).List(context.Background(), alice, ListQuery{
		Filter: reconcile.InFolder(folder.ID), Page: 1, PageSize: 15,
	})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestLibraryService_RemoteFailureFailsListing(t *testing.T) {
	db := setupServiceDB(t)
	ctrl := gomock.NewController(t)
	host := NewMockFileHost(ctrl)

	admin := createUser(t, db, "admin", models.UserRoleSuperuser)
	createVideo(t, db, admin, "local.mp4", "", models.UploadStatusUploading, nil)

	host.EXPECT().ListFiles(gomock.Any()).Return(nil, fmt.Errorf("%w: timeout", apperrors.ErrUpstreamUnavailable))

	_, err := newLibrary(t, db, host, config.ListingGlobal).List(context.Background(), admin, ListQuery{
		Filter: reconcile.AllFolders(), Page: 1, PageSize: 15,
	})
	assert.ErrorIs(t, err, apperrors.ErrUpstreamUnavailable)
}

func TestLibraryService_ListDirectoriesKeepsOrder(t *testing.T) {
	db := setupServiceDB(t)
	ctrl := gomock.NewController(t)
	host := NewMockFileHost(ctrl)

	host.EXPECT().ListDirectory(gomock.Any(), "d1").Return([]filehost.File{remoteFile("a", "a.mp4", "")}, nil)
	host.EXPECT().ListDirectory(gomock.Any(), "d2").Return([]filehost.File{remoteFile("b", "b.mp4", "D2")}, nil)

	files, err := newLibrary(t, db, host, config.ListingGlobal).ListDirectories(context.Background(), []string{"d1", "d2"})
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "d1", files[0].DirID)
	assert.Equal(t, "D2", files[1].DirID)
}
