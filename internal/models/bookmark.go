package models

import (
	"time"
)

// Bookmark saves a post to the user's reading list, at most once per (user, post).
type Bookmark struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index;uniqueIndex:idx_user_post_bookmark" json:"user_id"`
	PostID    uint      `gorm:"not null;index;uniqueIndex:idx_user_post_bookmark" json:"post_id"`
	Post      Post      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"post"`
	CreatedAt time.Time `json:"created_at"`
}
