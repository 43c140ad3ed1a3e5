package reconcile

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/vidshelf/backend/internal/errors"
	"github.com/vidshelf/backend/internal/filehost"
	"github.com/vidshelf/backend/internal/models"
)

const (
	RootFolderName     = "Root"
	UnmappedFolderName = "unmapped"

	DefaultPageSize = 20
)

type Source string

const (
	SourceRemote Source = "remote"
	SourceLocal  Source = "local"
)

// Entry is one row of the reconciled video listing.
type Entry struct {
	Identity           VideoIdentity       `json:"identity"`
	Source             Source              `json:"source"`
	ID                 *uint               `json:"id,omitempty"`
	UserID             *uint               `json:"userID,omitempty"`
	Name               string              `json:"name"`
	Code               string              `json:"code,omitempty"`
	FolderID           *uint               `json:"folderID"`
	FolderName         string              `json:"folderName"`
	Unmapped           bool                `json:"unmapped,omitempty"`
	DirID              string              `json:"dirID,omitempty"`
	ShareLink          string              `json:"shareLink,omitempty"`
	EmbedLink          string              `json:"embedLink,omitempty"`
	ThumbnailURL       string              `json:"thumbnailURL,omitempty"`
	ThumbnailMirrorURL string              `json:"thumbnailMirrorURL,omitempty"`
	UploadStatus       models.UploadStatus `json:"uploadStatus"`
	CreatedAt          time.Time           `json:"createdAt"`
	// ApproxTime marks entries stamped with the reconciliation time because
	// the provider listing carries no timestamp.
	ApproxTime bool `json:"approxTime,omitempty"`
}

type FilterMode int

const (
	FilterAll FilterMode = iota
	FilterRoot
	FilterFolder
)

type FolderFilter struct {
	Mode     FilterMode
	FolderID uint
}

func AllFolders() FolderFilter { return FolderFilter{Mode: FilterAll} }
func RootOnly() FolderFilter { return FolderFilter{Mode: FilterRoot} }
func InFolder(id uint) FolderFilter { return FolderFilter{Mode: FilterFolder, FolderID: id} }
func (f FolderFilter) IsRoot() bool { return f.Mode == FilterRoot }
func (f FolderFilter) IsFolder() bool { return f.Mode == FilterFolder }
func (f FolderFilter) IsAll() bool { return f.Mode == FilterAll }

// ParseFolderFilter understands "", "all", "root", "null" and numeric ids.
func ParseFolderFilter(raw string) (FolderFilter, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "all":
		return AllFolders(), nil
	case "root", "null":
		return RootOnly(), nil
	}
	id, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil || id == 0 {
		return FolderFilter{}, fmt.Errorf("%w: invalid folder filter %q", apperrors.ErrInvalidInput, raw)
	}
	return InFolder(uint(id)), nil
}

func (f FolderFilter) matches(e Entry) bool {
	switch f.Mode {
	case FilterRoot:
		return e.FolderID == nil && !e.Unmapped
	case FilterFolder:
		return e.FolderID != nil && *e.FolderID == f.FolderID
	default:
		return true
	}
}

type TombstoneSet map[string]struct{}

func NewTombstoneSet(codes ...string) TombstoneSet {
	set := make(TombstoneSet, len(codes))
	for _, code := range codes {
		set.Add(code)
	}
	return set
}

func (s TombstoneSet) Add(code string) {
	if code != "" {
		s[code] = struct{}{}
	}
}

func (s TombstoneSet) Has(code string) bool {
	_, ok := s[code]
	return ok
}

type Input struct {
	Remote     []filehost.File
	Folders    []models.Folder
	Videos     []models.Video
	Tombstones TombstoneSet
	// Visible restricts remote files by code. Nil means every code is visible.
	Visible  func(code string) bool
	Filter   FolderFilter
	Page     int
	PageSize int
	Now      time.Time
}

type Page struct {
	Items      []Entry `json:"items"`
	Page       int     `json:"page"`
	PageSize   int     `json:"pageSize"`
	Total      int     `json:"total"`
	TotalPages int     `json:"totalPages"`
}

type Result struct {
	Page Page
	// Remote and Local are the unfiltered, unsorted per-source views.
	Remote     []Entry
	Local      []Entry
	Skipped    int
	Duplicates []DuplicateDir
}

// Reconcile merges the provider listing with local rows. It is pure: callers
// load every input fresh and perform any follow-up writes themselves.
func Reconcile(in Input) Result {
	now := in.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	dirs := NewDirectoryMap(in.Folders)
	result := Result{Duplicates: dirs.Duplicates()}

	remotePresent := make(map[string]struct{}, len(in.Remote))
	for _, file := range in.Remote {
		code, ok := ExtractCode(file)
		if !ok {
			result.Skipped++
			continue
		}
		if in.Tombstones.Has(code) {
			continue
		}
		if in.Visible != nil && !in.Visible(code) {
			continue
		}
		if _, dup := remotePresent[code]; dup {
			continue
		}
		remotePresent[code] = struct{}{}
		result.Remote = append(result.Remote, remoteEntry(file, code, dirs, now))
	}

	for _, video := range in.Videos {
		if video.UploadStatus != models.UploadStatusUploading && video.RemoteFileID != nil {
			if _, present := remotePresent[*video.RemoteFileID]; present {
				continue
			}
		}
		result.Local = append(result.Local, localEntry(video, dirs))
	}

	combined := make([]Entry, 0, len(result.Remote)+len(result.Local))
	for _, e := range result.Remote {
		if in.Filter.matches(e) {
			combined = append(combined, e)
		}
	}
	for _, e := range result.Local {
		if in.Filter.matches(e) {
			combined = append(combined, e)
		}
	}

	sort.SliceStable(combined, func(i, j int) bool {
		return combined[i].CreatedAt.After(combined[j].CreatedAt)
	})

	result.Page = Paginate(combined, in.Page, in.PageSize)
	return result
}

func remoteEntry(file filehost.File, code string, dirs *DirectoryMap, now time.Time) Entry {
	entry := Entry{
		Identity:     RemoteIdentity(code),
		Source:       SourceRemote,
		Name:         file.DisplayName(),
		Code:         code,
		DirID:        file.DirID,
		ShareLink:    file.ShareLink,
		EmbedLink:    file.EmbedLink,
		ThumbnailURL: file.Thumbnail,
		UploadStatus: models.UploadStatusCompleted,
		CreatedAt:    now,
		ApproxTime:   true,
		FolderName:   RootFolderName,
	}

	if strings.TrimSpace(file.DirID) == "" {
		return entry
	}

	if ref, ok := dirs.Lookup(file.DirID); ok {
		id := ref.ID
		entry.FolderID = &id
		entry.FolderName = ref.Name
		return entry
	}

	entry.FolderName = UnmappedFolderName
	entry.Unmapped = true
	return entry
}

func localEntry(video models.Video, dirs *DirectoryMap) Entry {
	id := video.ID
	userID := video.UserID
	entry := Entry{
		Identity:     LocalIdentity(video.ID),
		Source:       SourceLocal,
		ID:           &id,
		UserID:       &userID,
		Name:         video.Name,
		FolderID:     video.FolderID,
		FolderName:   RootFolderName,
		UploadStatus: video.UploadStatus,
		CreatedAt:    video.CreatedAt,
	}

	if video.RemoteFileID != nil {
		entry.Code = *video.RemoteFileID
	}
	entry.ShareLink = deref(video.ShareLink)
	entry.EmbedLink = deref(video.EmbedLink)
	entry.ThumbnailURL = deref(video.ThumbnailURL)
	entry.ThumbnailMirrorURL = deref(video.ThumbnailMirrorURL)

	if video.FolderID != nil {
		name, ok := dirs.FolderName(*video.FolderID)
		if !ok {
			name = UnmappedFolderName
		}
		entry.FolderName = name
		entry.DirID, _ = dirs.DirIDOf(*video.FolderID)
	}
	return entry
}

// Paginate slices entries by 1-based page. Out-of-range pages are empty.
func Paginate(entries []Entry, page, pageSize int) Page {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}

	total := len(entries)
	totalPages := total / pageSize
	if total%pageSize != 0 {
		totalPages++
	}

	// Compare before multiplying so huge pages cannot overflow.
	start := total
	if page-1 <= total/pageSize {
		start = min((page-1)*pageSize, total)
	}
	end := start + min(pageSize, total-start)

	items := make([]Entry, end-start)
	copy(items, entries[start:end])

	return Page{
		Items:      items,
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
