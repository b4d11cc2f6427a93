package models

import (
	"time"
)

type User struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	Username     string     `gorm:"uniqueIndex;size:150;not null" json:"username"`
	Email        string     `gorm:"uniqueIndex;not null" json:"email"`
	Password     string     `gorm:"not null" json:"-"` // Hash
	Nickname     string     `gorm:"size:30" json:"nickname"`
	ProfileImage string     `json:"profile_image"` // path under the media dir
	Bio          string     `gorm:"type:text" json:"bio"`
	Location     string     `gorm:"size:100" json:"location"`
	BirthDate    *time.Time `json:"birth_date"`
	Website      string     `json:"website"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	// No DeletedAt for hard delete
}

// DisplayName prefers the nickname when the user set one.
func (u *User) DisplayName() string {
	if u.Nickname != "" {
		return u.Nickname
	}
	return u.Username
}
