package filehost

// File is one entry of the provider listing. Empty strings mean the provider
// omitted the field.
type File struct {
	Code      string `json:"code,omitempty"`
	Name      string `json:"name"`
	Title     string `json:"title,omitempty"`
	ShareLink string `json:"shareLink,omitempty"`
	EmbedLink string `json:"embedLink,omitempty"`
	Thumbnail string `json:"thumbnail,omitempty"`
	DirID     string `json:"dirID,omitempty"`
}

// DisplayName prefers the title the provider shows over the stored file name.
func (f File) DisplayName() string {
	if f.Title != "" {
		return f.Title
	}
	return f.Name
}

type UploadTask struct {
	ID     string            `json:"id"`
	URL    string            `json:"url"`
	Header map[string]string `json:"header,omitempty"`
}

type UploadResult struct {
	FileName     string   `json:"fileName"`
	ThumbnailURL string   `json:"thumbnailURL,omitempty"`
	Screenshots  []string `json:"screenshots,omitempty"`
	ShareLink    string   `json:"shareLink,omitempty"`
	EmbedLink    string   `json:"embedLink,omitempty"`
	DirShareLink string   `json:"dirShareLink,omitempty"`
}

type RemoteUploadTask struct {
	ID           string `json:"id"`
	DirShareLink string `json:"dirShareLink,omitempty"`
}

type page struct {
	files         []File
	totalPages    int
	totalElements int
}
