package models

import (
	"time"
)

const (
	PostStatusDraft     = "draft"
	PostStatusPublished = "published"
	PostStatusPending   = "pending"
)

type Post struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uint      `gorm:"not null;index" json:"user_id"`
	User       User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"user"`
	CategoryID *uint     `gorm:"index" json:"category_id"` // Nullable, cleared when the category goes away
	Category   *Category `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"category"`
	Title      string    `gorm:"size:100;not null" json:"title"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	HeadImage  string    `json:"head_image"`  // path under the media dir, optional
	FileUpload string    `json:"file_upload"` // attachment path, optional
	Status     string    `gorm:"size:10;default:'draft';not null" json:"status"` // draft, published, pending
	ViewsCount int       `gorm:"default:0" json:"views_count"`                   // monotonically non-decreasing
	Tags       []Tag     `gorm:"many2many:post_tags;constraint:OnDelete:CASCADE;" json:"tags"`
	Related    []*Post   `gorm:"many2many:post_related;joinForeignKey:PostID;joinReferences:RelatedID" json:"related"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	// Filled by queries, not stored
	CommentCount int `gorm:"-" json:"comment_count"`
}

// ValidStatus reports whether s is one of the three post states.
func ValidStatus(s string) bool {
	return s == PostStatusDraft || s == PostStatusPublished || s == PostStatusPending
}
