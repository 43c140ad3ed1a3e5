package models

import "time"

type Setting struct {
	Key       string    `json:"key" gorm:"type:varchar(100);primaryKey"`
	Value     string    `json:"value" gorm:"type:text;not null"`
	UpdatedAt time.Time `json:"updatedAt" gorm:"not null"`
}

func (Setting) TableName() string {
	return "settings"
}
