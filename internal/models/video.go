package models

type UploadStatus string

const (
	UploadStatusPending   UploadStatus = "pending"
	UploadStatusUploading UploadStatus = "uploading"
	UploadStatusCompleted UploadStatus = "completed"
	UploadStatusFailed    UploadStatus = "failed"
)

type Video struct {
	BaseModel
	UserID             uint         `json:"userID" gorm:"not null;index"`
	FolderID           *uint        `json:"folderID,omitempty" gorm:"index"`
	Name               string       `json:"name" gorm:"type:varchar(500);not null"`
	RemoteFileID       *string      `json:"remoteFileID,omitempty" gorm:"type:varchar(255);index"`
	RemoteUploadID     *string      `json:"remoteUploadID,omitempty" gorm:"type:varchar(255)"`
	ShareLink          *string      `json:"shareLink,omitempty" gorm:"type:text"`
	EmbedLink          *string      `json:"embedLink,omitempty" gorm:"type:text"`
	ThumbnailURL       *string      `json:"thumbnailURL,omitempty" gorm:"type:text"`
	ThumbnailMirrorURL *string      `json:"thumbnailMirrorURL,omitempty" gorm:"type:text"`
	UploadStatus       UploadStatus `json:"uploadStatus" gorm:"type:varchar(20);not null;default:'pending';index"`

	Folder *Folder `json:"-" gorm:"foreignKey:FolderID"`
}

func (Video) TableName() string {
	return "videos"
}
