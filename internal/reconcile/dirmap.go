package reconcile

import "github.com/vidshelf/backend/internal/models"

type FolderRef struct {
	ID   uint
	Name string
}

// DuplicateDir records two folders claiming the same normalized dir id.
type DuplicateDir struct {
	DirID    string
	Kept     uint
	Replaced uint
}

// DirectoryMap resolves remote dir ids to local folders and back. It is built
// per request from the folder rows at hand.
type DirectoryMap struct {
	byDir      map[string]FolderRef
	byFolder   map[uint]string
	names      map[uint]string
	duplicates []DuplicateDir
}

func NewDirectoryMap(folders []models.Folder) *DirectoryMap {
	m := &DirectoryMap{
		byDir:    make(map[string]FolderRef, len(folders)),
		byFolder: make(map[uint]string, len(folders)),
		names:    make(map[uint]string, len(folders)),
	}

	for _, folder := range folders {
		m.names[folder.ID] = folder.Name

		key, ok := normalizePtr(folder.RemoteDirID)
		if !ok {
			continue
		}
		if prev, exists := m.byDir[key]; exists && prev.ID != folder.ID {
			m.duplicates = append(m.duplicates, DuplicateDir{DirID: key, Kept: folder.ID, Replaced: prev.ID})
			delete(m.byFolder, prev.ID)
		}
		m.byDir[key] = FolderRef{ID: folder.ID, Name: folder.Name}
		m.byFolder[folder.ID] = *folder.RemoteDirID
	}

	return m
}

func (m *DirectoryMap) Lookup(dirID string) (FolderRef, bool) {
	key, ok := NormalizeDirID(dirID)
	if !ok {
		return FolderRef{}, false
	}
	ref, ok := m.byDir[key]
	return ref, ok
}

// DirIDOf returns the folder's dir id in its original casing.
func (m *DirectoryMap) DirIDOf(folderID uint) (string, bool) {
	dirID, ok := m.byFolder[folderID]
	return dirID, ok
}

func (m *DirectoryMap) FolderName(folderID uint) (string, bool) {
	name, ok := m.names[folderID]
	return name, ok
}

func (m *DirectoryMap) Len() int {
	return len(m.byDir)
}

func (m *DirectoryMap) Duplicates() []DuplicateDir {
	return m.duplicates
}
