package models

import "time"

// DeletedVideo is a tombstone: the remote asset is never removed, so the code
// is hidden from every later listing instead.
type DeletedVideo struct {
	ID              uint      `json:"id" gorm:"primaryKey"`
	RemoteFileID    string    `json:"remoteFileID" gorm:"type:varchar(255);uniqueIndex;not null"`
	DeletedByUserID uint      `json:"deletedByUserID" gorm:"not null;index"`
	DeletedAt       time.Time `json:"deletedAt" gorm:"not null"`
}

func (DeletedVideo) TableName() string {
	return "deleted_videos"
}
