package services

import (
	"context"
	"fmt"
	"time"

	"github.com/vidshelf/backend/internal/config"
	apperrors "github.com/vidshelf/backend/internal/errors"
	"github.com/vidshelf/backend/internal/filehost"
	"github.com/vidshelf/backend/internal/models"
	"github.com/vidshelf/backend/internal/reconcile"
	"github.com/vidshelf/backend/pkg/logger"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// LibraryService builds the reconciled video listing.
type LibraryService struct {
	DB          *gorm.DB
	Host        FileHost
	Access      *AccessService
	Tombstones  *TombstoneService
	Strategy    string
	Concurrency int
	Now         func() time.Time
}

func NewLibraryService(db *gorm.DB, host FileHost, access *AccessService, tombstones *TombstoneService, cfg config.FileHostConfig) *LibraryService {
	return &LibraryService{
		DB:          db,
		Host:        host,
		Access:      access,
		Tombstones:  tombstones,
		Strategy:    cfg.ListingStrategy,
		Concurrency: cfg.ListConcurrency,
		Now:         func() time.Time { return time.Now().UTC() },
	}
}

type ListQuery struct {
	Filter   reconcile.FolderFilter
	Page     int
	PageSize int
}

type libraryInputs struct {
	folders     []models.Folder
	videos      []models.Video
	tombstones  reconcile.TombstoneSet
	visible     func(string) bool
	sharedCount int
	remote      []filehost.File
}

// List loads every input fresh and runs one reconciliation. A failing
// remote listing fails the whole call.
func (s *LibraryService) List(ctx context.Context, user *models.User, q ListQuery) (*reconcile.Result, error) {
	in, err := s.load(ctx, user, q.Filter)
	if err != nil {
		return nil, err
	}

	result := reconcile.Reconcile(reconcile.Input{
		Remote:     in.remote,
		Folders:    in.folders,
		Videos:     in.videos,
		Tombstones: in.tombstones,
		Visible:    in.visible,
		Filter:     q.Filter,
		Page:       q.Page,
		PageSize:   q.PageSize,
		Now:        s.Now(),
	})

	for _, dup := range result.Duplicates {
		logger.Warn("duplicate_remote_dir_id", map[string]interface{}{
			"dir_id":          dup.DirID,
			"kept_folder":     dup.Kept,
			"replaced_folder": dup.Replaced,
		})
	}
	if result.Skipped > 0 {
		logger.Warn("remote_files_skipped", map[string]interface{}{
			"count":  result.Skipped,
			"reason": "no extractable code",
		})
	}

	return &result, nil
}

func (s *LibraryService) load(ctx context.Context, user *models.User, filter reconcile.FolderFilter) (*libraryInputs, error) {
	in := &libraryInputs{}

	folders, err := s.Access.VisibleFolders(ctx, user)
	if err != nil {
		return nil, err
	}
	in.folders = folders

	var filterFolder *models.Folder
	if filter.IsFolder() {
		for i := range folders {
			if folders[i].ID == filter.FolderID {
				filterFolder = &folders[i]
				break
			}
		}
		if filterFolder == nil {
			return nil, fmt.Errorf("%w: folder %d", apperrors.ErrNotFound, filter.FolderID)
		}
	}

	in.visible, in.sharedCount, err = s.Access.VideoVisibility(ctx, user)
	if err != nil {
		return nil, err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.limit())

	g.Go(func() error {
		query := s.DB.WithContext(gctx).Model(&models.Video{})
		if !user.IsSuperuser() {
			query = query.Where("user_id = ?", user.ID)
		}
		return query.Find(&in.videos).Error
	})

	g.Go(func() error {
		set, err := s.Tombstones.Load(gctx)
		in.tombstones = set
		return err
	})

	// A publisher without shares only ever sees their own rows, which are
	// all local, so the provider is not consulted.
	if user.IsSuperuser() || in.sharedCount > 0 {
		g.Go(func() error {
			files, err := s.fetchRemote(gctx, filterFolder)
			in.remote = files
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return in, nil
}

func (s *LibraryService) fetchRemote(ctx context.Context, folder *models.Folder) ([]filehost.File, error) {
	if s.Strategy == config.ListingPerFolder && folder != nil {
		if folder.RemoteDirID == nil || *folder.RemoteDirID == "" {
			return nil, nil
		}
		files, err := s.Host.ListDirectory(ctx, *folder.RemoteDirID)
		if err != nil {
			return nil, err
		}
		// Scoped listings may omit the dir id on each record.
		for i := range files {
			if files[i].DirID == "" {
				files[i].DirID = *folder.RemoteDirID
			}
		}
		return files, nil
	}
	return s.Host.ListFiles(ctx)
}

// ListDirectories fetches several provider directories concurrently, bounded
// by the configured concurrency. Results keep the order of dirIDs.
func (s *LibraryService) ListDirectories(ctx context.Context, dirIDs []string) ([]filehost.File, error) {
	results := make([][]filehost.File, len(dirIDs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.limit())
	for i, dirID := range dirIDs {
		i, dirID := i, dirID
		g.Go(func() error {
			files, err := s.Host.ListDirectory(gctx, dirID)
			if err != nil {
				return err
			}
			for j := range files {
				if files[j].DirID == "" {
					files[j].DirID = dirID
				}
			}
			results[i] = files
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []filehost.File
	for _, files := range results {
		all = append(all, files...)
	}
	return all, nil
}

func (s *LibraryService) limit() int {
	if s.Concurrency < 1 {
		return 4
	}
	return s.Concurrency
}
