package models

type Post struct {
	BaseModel
	UserID           uint    `json:"userID" gorm:"not null;index"`
	Title            string  `json:"title" gorm:"type:text;not null"`
	VideoIDs         []uint  `json:"videoIDs" gorm:"type:text;serializer:json;not null"`
	ChannelPosted    bool    `json:"channelPosted" gorm:"not null;default:false"`
	ChannelMessageID *string `json:"channelMessageID,omitempty" gorm:"type:varchar(64)"`
}

func (Post) TableName() string {
	return "posts"
}
