package services

import (
	"errors"
	"html/template"
	"sort"

	"inkwell/internal/db"
	"inkwell/internal/models"
	"inkwell/internal/utils"

	"gorm.io/gorm"
)

// maxThreadDepth caps recursion so an adversarially deep thread cannot
// exhaust the stack. Replies below the cap are not rendered.
const maxThreadDepth = 50

var (
	ErrParentNotFound  = errors.New("parent comment does not exist")
	ErrParentOtherPost = errors.New("parent comment belongs to a different post")
)

// CommentNode is one rendered comment with its replies nested below it.
// ContentHTML is the markdown-rendered, sanitized body ready for templates.
type CommentNode struct {
	Comment     models.Comment
	ContentHTML template.HTML
	Replies     []*CommentNode
}

// BuildCommentTree turns the flat comment set of one post into a nested
// structure: top-level comments ordered by creation time ascending, each
// carrying its replies recursively in the same order. Comments whose parent
// is missing from the set are dropped rather than promoted.
func BuildCommentTree(comments []models.Comment) []*CommentNode {
	children := make(map[uint][]models.Comment) // keyed by parent id, 0 = top level
	for _, com := range comments {
		if com.ParentID != nil && *com.ParentID == com.ID {
			continue // self-referential row, never valid
		}
		key := uint(0)
		if com.ParentID != nil {
			key = *com.ParentID
		}
		children[key] = append(children[key], com)
	}
	for key := range children {
		group := children[key]
		sort.SliceStable(group, func(i, j int) bool {
			if group[i].CreatedAt.Equal(group[j].CreatedAt) {
				return group[i].ID < group[j].ID
			}
			return group[i].CreatedAt.Before(group[j].CreatedAt)
		})
	}
	return buildLevel(children, 0, 0)
}

func buildLevel(children map[uint][]models.Comment, parentID uint, depth int) []*CommentNode {
	if depth >= maxThreadDepth {
		return nil
	}
	group := children[parentID]
	nodes := make([]*CommentNode, 0, len(group))
	for _, com := range group {
		nodes = append(nodes, &CommentNode{
			Comment:     com,
			ContentHTML: utils.RenderMarkdown(com.Content),
			Replies:     buildLevel(children, com.ID, depth+1),
		})
	}
	return nodes
}

// LoadCommentTree fetches all comments of a post with their authors and
// assembles the display tree.
func LoadCommentTree(postID uint) []*CommentNode {
	var comments []models.Comment
	db.DB.Preload("User").Where("post_id = ?", postID).Order("created_at ASC").Find(&comments)
	return BuildCommentTree(comments)
}

// ValidateCommentParent checks a submitted parent id before a reply is
// written: the parent must exist and belong to the same post.
func ValidateCommentParent(postID, parentID uint) error {
	var parent models.Comment
	if err := db.DB.First(&parent, parentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrParentNotFound
		}
		return err
	}
	if parent.PostID != postID {
		return ErrParentOtherPost
	}
	return nil
}
