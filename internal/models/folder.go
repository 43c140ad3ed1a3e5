package models

// Folder mirrors a directory on the remote file host. RemoteDirID keeps the
// provider's original casing; matching goes through reconcile.NormalizeDirID.
type Folder struct {
	BaseModel
	UserID      uint    `json:"userID" gorm:"not null;index"`
	Name        string  `json:"name" gorm:"type:varchar(255);not null"`
	ParentID    *uint   `json:"parentID,omitempty" gorm:"index"`
	RemoteDirID *string `json:"remoteDirID,omitempty" gorm:"type:varchar(255);uniqueIndex"`
	ShareLink   *string `json:"shareLink,omitempty" gorm:"type:text"`

	Parent *Folder `json:"-" gorm:"foreignKey:ParentID"`
	Owner  User    `json:"-" gorm:"foreignKey:UserID;references:ID"`
}

func (Folder) TableName() string {
	return "folders"
}
