package services

import (
	"context"

	"github.com/vidshelf/backend/internal/filehost"
)

//go:generate mockgen -destination=mock_filehost_test.go -package=services . FileHost

// FileHost is the slice of the remote provider API the services use.
// *filehost.Client implements it.
type FileHost interface {
	ListFiles(ctx context.Context) ([]filehost.File, error)
	ListDirectory(ctx context.Context, dirID string) ([]filehost.File, error)
	CreateUploadTask(ctx context.Context, name, dirID string) (filehost.UploadTask, error)
	ConfirmUpload(ctx context.Context, taskID string, ok bool) (filehost.UploadResult, error)
	CreateFolder(ctx context.Context, name, parentDirID string) (string, error)
	RemoteUpload(ctx context.Context, name, sourceURL, dirID string) (filehost.RemoteUploadTask, error)
}

var _ FileHost = (*filehost.Client)(nil)
