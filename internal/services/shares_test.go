package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apperrors "github.com/vidshelf/backend/internal/errors"
	"github.com/vidshelf/backend/internal/models"
	"github.com/vidshelf/backend/internal/reconcile"
)

func TestShareService_ShareVideoIsIdempotent(t *testing.T) {
	db := setupServiceDB(t)
	svc := NewShareService(db, nil)
	ctx := context.Background()

	admin := createUser(t, db, "admin", models.UserRoleSuperuser)
	alice := createUser(t, db, "alice", models.UserRolePublisher)
	video := createVideo(t, db, admin, "clip.mp4", "abc123", models.UploadStatusCompleted, nil)

	first, err := svc.ShareVideo(ctx, admin, reconcile.LocalIdentity(video.ID), alice.ID)
	require.NoError(t, err)
	second, err := svc.ShareVideo(ctx, admin, reconcile.RemoteIdentity("abc123"), alice.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID, "local id and code resolve to one grant")

	var count int64
	db.Model(&models.VideoShare{}).Count(&count)
	assert.EqualValues(t, 1, count)

	views, err := svc.ListVideoShares(ctx, admin, reconcile.RemoteIdentity("abc123"))
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "alice", views[0].Username)

	require.NoError(t, svc.UnshareVideo(ctx, admin, reconcile.RemoteIdentity("abc123"), alice.ID))
	db.Model(&models.VideoShare{}).Count(&count)
	assert.Zero(t, count)
}

func TestShareService_ShareVideoValidation(t *testing.T) {
	db := setupServiceDB(t)
	svc := NewShareService(db, nil)
	ctx := context.Background()

	admin := createUser(t, db, "admin", models.UserRoleSuperuser)
	other := createUser(t, db, "root2", models.UserRoleSuperuser)
	alice := createUser(t, db, "alice", models.UserRolePublisher)
	pending := createVideo(t, db, admin, "pending.mp4", "", models.UploadStatusUploading, nil)

	tests := []struct {
		name    string
		actor   *models.User
		video   reconcile.VideoIdentity
		target  uint
		wantErr error
	}{
		{"publisher cannot share", alice, reconcile.RemoteIdentity("x"), alice.ID, apperrors.ErrForbidden},
		{"unknown target", admin, reconcile.RemoteIdentity("x"), 9999, apperrors.ErrNotFound},
		{"target must be publisher", admin, reconcile.RemoteIdentity("x"), other.ID, apperrors.ErrInvalidInput},
		{"unknown local video", admin, reconcile.LocalIdentity(9999), alice.ID, apperrors.ErrNotFound},
		{"local video without code", admin, reconcile.LocalIdentity(pending.ID), alice.ID, apperrors.ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ShareVideo(ctx, tt.actor, tt.video, tt.target)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestShareService_FolderSharesAndListScoping(t *testing.T) {
	db := setupServiceDB(t)
	svc := NewShareService(db, nil)
	ctx := context.Background()

	admin := createUser(t, db, "admin", models.UserRoleSuperuser)
	alice := createUser(t, db, "alice", models.UserRolePublisher)
	bob := createUser(t, db, "bob", models.UserRolePublisher)
	folder := createFolder(t, db, admin, "Library", "dir-lib", nil)

	share, err := svc.ShareFolder(ctx, admin, folder.ID, alice.ID, "")
	require.NoError(t, err)
	require.NotNil(t, share.RemoteDirID)
	assert.Equal(t, "dir-lib", *share.RemoteDirID)

	_, err = svc.ShareFolder(ctx, admin, folder.ID, alice.ID, "")
	require.NoError(t, err)
	_, err = svc.ShareFolder(ctx, admin, folder.ID, bob.ID, "custom-dir")
	require.NoError(t, err)

	all, err := svc.ListFolderShares(ctx, admin, folder.ID)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	mine, err := svc.ListFolderShares(ctx, alice, folder.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, alice.ID, mine[0].SharedToUserID)

	_, err = svc.ShareFolder(ctx, admin, 9999, alice.ID, "")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	require.NoError(t, svc.UnshareFolder(ctx, admin, folder.ID, bob.ID))
	all, err = svc.ListFolderShares(ctx, admin, folder.ID)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	visible, err := NewAccessService(db).VisibleFolders(ctx, alice)
	require.NoError(t, err)
	require.Len(t, visible, 1)
	assert.Equal(t, folder.ID, visible[0].ID)
}
