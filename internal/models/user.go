package models

type UserRole string

const (
	UserRoleSuperuser UserRole = "superuser"
	UserRolePublisher UserRole = "publisher"
)

func (r UserRole) Valid() bool {
	return r == UserRoleSuperuser || r == UserRolePublisher
}

type User struct {
	BaseModel
	Username     string   `json:"username" gorm:"type:varchar(100);uniqueIndex;not null"`
	PasswordHash string   `json:"-" gorm:"type:text;not null"`
	Email        *string  `json:"email,omitempty" gorm:"type:varchar(255)"`
	Role         UserRole `json:"role" gorm:"type:varchar(20);not null;default:'publisher'"`
	Folders      []Folder `json:"-" gorm:"foreignKey:UserID"`
	Videos       []Video  `json:"-" gorm:"foreignKey:UserID"`
}

func (u *User) IsSuperuser() bool {
	return u != nil && u.Role == UserRoleSuperuser
}
