package models

import (
	"time"
)

// Tag is created implicitly the first time a post references its name and is
// never deleted automatically. Slug derivation happens in services.SyncPostTags
// when a tag row is first created with a blank slug.
type Tag struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:25;not null;unique" json:"name"`
	Slug        string    `gorm:"size:200;uniqueIndex;not null" json:"slug"`
	IsPublic    bool      `gorm:"default:true" json:"is_public"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
