package models

import (
	"time"

	"gorm.io/gorm"
)

// ActivityLog is append-only, so it skips BaseModel.
type ActivityLog struct {
	ID         uint                   `json:"id" gorm:"primaryKey"`
	UserID     *uint                  `json:"userID,omitempty" gorm:"index"`
	Action     string                 `json:"action" gorm:"type:varchar(50);not null;index"`
	TargetType string                 `json:"targetType,omitempty" gorm:"type:varchar(30)"`
	TargetID   string                 `json:"targetID,omitempty" gorm:"type:varchar(300)"`
	Metadata   map[string]interface{} `json:"metadata,omitempty" gorm:"type:text;serializer:json"`
	CreatedAt  time.Time              `json:"createdAt" gorm:"not null;index"`

	User *User `json:"user,omitempty" gorm:"foreignKey:UserID;references:ID"`
}

func (a *ActivityLog) BeforeCreate(_ *gorm.DB) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	return nil
}

func (ActivityLog) TableName() string {
	return "activity_logs"
}
