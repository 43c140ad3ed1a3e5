package models

// VideoShare grants a publisher visibility of one remote file. VideoKey holds
// the reconcile.VideoIdentity key so local rows and remote-only files share
// one column.
type VideoShare struct {
	BaseModel
	VideoKey       string `json:"videoKey" gorm:"type:varchar(300);not null;uniqueIndex:idx_video_shares_target"`
	RemoteFileID   string `json:"remoteFileID" gorm:"type:varchar(255);not null;index"`
	SharedByUserID uint   `json:"sharedByUserID" gorm:"not null"`
	SharedToUserID uint   `json:"sharedToUserID" gorm:"not null;uniqueIndex:idx_video_shares_target;index"`

	SharedBy User `json:"sharedBy,omitempty" gorm:"foreignKey:SharedByUserID;references:ID"`
	SharedTo User `json:"sharedTo,omitempty" gorm:"foreignKey:SharedToUserID;references:ID"`
}

func (VideoShare) TableName() string {
	return "video_shares"
}

type FolderShare struct {
	BaseModel
	FolderID       uint    `json:"folderID" gorm:"not null;uniqueIndex:idx_folder_shares_target"`
	RemoteDirID    *string `json:"remoteDirID,omitempty" gorm:"type:varchar(255)"`
	SharedByUserID uint    `json:"sharedByUserID" gorm:"not null"`
	SharedToUserID uint    `json:"sharedToUserID" gorm:"not null;uniqueIndex:idx_folder_shares_target;index"`

	SharedBy User `json:"sharedBy,omitempty" gorm:"foreignKey:SharedByUserID;references:ID"`
	SharedTo User `json:"sharedTo,omitempty" gorm:"foreignKey:SharedToUserID;references:ID"`
}

func (FolderShare) TableName() string {
	return "folder_shares"
}
