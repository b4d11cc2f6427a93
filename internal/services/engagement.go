package services

import (
	"errors"

	"inkwell/internal/db"
	"inkwell/internal/models"

	"gorm.io/gorm"
)

// ToggleLike flips the user's like on a post: create-if-absent,
// delete-if-present. Returns the resulting state and the new total.
func ToggleLike(userID, postID uint) (active bool, count int64, err error) {
	var existing models.Like
	lookup := db.DB.Where("user_id = ? AND post_id = ?", userID, postID).First(&existing)
	if lookup.Error == nil {
		if err := db.DB.Delete(&existing).Error; err != nil {
			return false, 0, err
		}
		return false, likeCount(postID), nil
	}
	if !errors.Is(lookup.Error, gorm.ErrRecordNotFound) {
		return false, 0, lookup.Error
	}

	like := models.Like{UserID: userID, PostID: postID}
	if err := db.DB.Create(&like).Error; err != nil {
		// A concurrent toggle won the race; the relation exists, so the
		// caller just sees it as already active.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return true, likeCount(postID), nil
		}
		return false, 0, err
	}
	return true, likeCount(postID), nil
}

// ToggleBookmark flips the user's bookmark on a post, same contract as
// ToggleLike.
func ToggleBookmark(userID, postID uint) (active bool, count int64, err error) {
	var existing models.Bookmark
	lookup := db.DB.Where("user_id = ? AND post_id = ?", userID, postID).First(&existing)
	if lookup.Error == nil {
		if err := db.DB.Delete(&existing).Error; err != nil {
			return false, 0, err
		}
		return false, bookmarkCount(postID), nil
	}
	if !errors.Is(lookup.Error, gorm.ErrRecordNotFound) {
		return false, 0, lookup.Error
	}

	bookmark := models.Bookmark{UserID: userID, PostID: postID}
	if err := db.DB.Create(&bookmark).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return true, bookmarkCount(postID), nil
		}
		return false, 0, err
	}
	return true, bookmarkCount(postID), nil
}

// IsLiked checks whether the user currently likes the post.
func IsLiked(userID, postID uint) bool {
	var like models.Like
	return db.DB.Where("user_id = ? AND post_id = ?", userID, postID).First(&like).Error == nil
}

// IsBookmarked checks whether the user currently bookmarks the post.
func IsBookmarked(userID, postID uint) bool {
	var bookmark models.Bookmark
	return db.DB.Where("user_id = ? AND post_id = ?", userID, postID).First(&bookmark).Error == nil
}

func likeCount(postID uint) int64 {
	var count int64
	db.DB.Model(&models.Like{}).Where("post_id = ?", postID).Count(&count)
	return count
}

func bookmarkCount(postID uint) int64 {
	var count int64
	db.DB.Model(&models.Bookmark{}).Where("post_id = ?", postID).Count(&count)
	return count
}
