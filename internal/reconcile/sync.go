package reconcile

import (
	"time"

	"github.com/vidshelf/backend/internal/filehost"
	"github.com/vidshelf/backend/internal/models"
)

// SyncDecision is what the sync pass should do with one local video.
type SyncDecision int

const (
	// SyncKeep leaves the row alone.
	SyncKeep SyncDecision = iota

	// SyncDeleteStale removes a finished row whose code is gone from the
	// provider listing.
	SyncDeleteStale

	// SyncComplete marks an uploading row as completed using the matching
	// provider file.
	SyncComplete

	// SyncDeleteAbandoned removes an uploading row that never showed up
	// remotely within the grace period.
	SyncDeleteAbandoned
)

func (d SyncDecision) String() string {
	switch d {
	case SyncDeleteStale:
		return "delete_stale"
	case SyncComplete:
		return "complete"
	case SyncDeleteAbandoned:
		return "delete_abandoned"
	default:
		return "keep"
	}
}

type SyncInput struct {
	Remote  []filehost.File
	Folders []models.Folder
	Videos  []models.Video
	Now     time.Time
	// UploadGrace keeps young uploading rows even when no provider file
	// matches yet. Zero disables the grace period.
	UploadGrace time.Duration
}

type SyncAction struct {
	VideoID  uint
	Decision SyncDecision
	Code     string
	File     filehost.File
}

type SyncPlan struct {
	Actions   []SyncAction
	FileCount int
}

func (p SyncPlan) Count(decision SyncDecision) int {
	n := 0
	for _, a := range p.Actions {
		if a.Decision == decision {
			n++
		}
	}
	return n
}

type matchKey struct {
	dir  string
	name string
}

// PlanSync decides, per local video, whether the provider listing confirms,
// completes or invalidates it. Folders are never scheduled for deletion.
func PlanSync(in SyncInput) SyncPlan {
	now := in.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	dirs := NewDirectoryMap(in.Folders)
	plan := SyncPlan{FileCount: len(in.Remote)}

	present := make(map[string]struct{}, len(in.Remote))
	byName := make(map[matchKey][]filehost.File)
	for _, file := range in.Remote {
		code, ok := ExtractCode(file)
		if !ok {
			continue
		}
		present[code] = struct{}{}

		dir, _ := NormalizeDirID(file.DirID)
		for _, name := range []string{file.Name, file.Title} {
			if name == "" {
				continue
			}
			key := matchKey{dir: dir, name: name}
			byName[key] = append(byName[key], file)
		}
	}

	claimed := make(map[string]struct{})
	for _, video := range in.Videos {
		if video.RemoteFileID != nil && *video.RemoteFileID != "" {
			claimed[*video.RemoteFileID] = struct{}{}
		}
	}

	for _, video := range in.Videos {
		if video.UploadStatus != models.UploadStatusUploading {
			if video.RemoteFileID == nil || *video.RemoteFileID == "" {
				continue
			}
			if _, ok := present[*video.RemoteFileID]; !ok {
				plan.Actions = append(plan.Actions, SyncAction{
					VideoID:  video.ID,
					Decision: SyncDeleteStale,
					Code:     *video.RemoteFileID,
				})
			}
			continue
		}

		dir := ""
		if video.FolderID != nil {
			if dirID, ok := dirs.DirIDOf(*video.FolderID); ok {
				dir, _ = NormalizeDirID(dirID)
			}
		}

		if file, code, ok := firstUnclaimed(byName[matchKey{dir: dir, name: video.Name}], claimed); ok {
			claimed[code] = struct{}{}
			plan.Actions = append(plan.Actions, SyncAction{
				VideoID:  video.ID,
				Decision: SyncComplete,
				Code:     code,
				File:     file,
			})
			continue
		}

		if in.UploadGrace > 0 && now.Sub(video.CreatedAt) < in.UploadGrace {
			continue
		}
		plan.Actions = append(plan.Actions, SyncAction{VideoID: video.ID, Decision: SyncDeleteAbandoned})
	}

	return plan
}

func firstUnclaimed(files []filehost.File, claimed map[string]struct{}) (filehost.File, string, bool) {
	for _, file := range files {
		code, ok := ExtractCode(file)
		if !ok {
			continue
		}
		if _, taken := claimed[code]; taken {
			continue
		}
		return file, code, true
	}
	return filehost.File{}, "", false
}
