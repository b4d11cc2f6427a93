package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"inkwell/internal/db"
	"inkwell/internal/middleware"
	"inkwell/internal/models"
	"inkwell/internal/services"
	"inkwell/internal/utils"

	"github.com/gin-gonic/gin"
)

type CommentHandler struct{}

func NewCommentHandler() *CommentHandler {
	return &CommentHandler{}
}

func (h *CommentHandler) Create(c *gin.Context) {
	user := c.MustGet(middleware.CheckUserKey).(*models.User)
	postID := utils.StringToUint(c.Param("id"))

	var post models.Post
	if err := db.DB.First(&post, postID).Error; err != nil {
		RenderError(c, http.StatusNotFound, "Post not found")
		return
	}

	content := c.PostForm("content")
	if content == "" {
		RenderError(c, http.StatusBadRequest, "Comment content must not be empty")
		return
	}

	// A reply must point at an existing comment of the same post
	var parentID *uint
	if raw := c.PostForm("parent_id"); raw != "" {
		pid := utils.StringToUint(raw)
		if err := services.ValidateCommentParent(post.ID, pid); err != nil {
			if errors.Is(err, services.ErrParentNotFound) || errors.Is(err, services.ErrParentOtherPost) {
				RenderError(c, http.StatusBadRequest, "Invalid parent comment")
				return
			}
			RenderError(c, http.StatusInternalServerError, "Failed to save the comment")
			return
		}
		parentID = &pid
	}

	comment := models.Comment{
		PostID:   post.ID,
		UserID:   user.ID,
		ParentID: parentID,
		Content:  content,
	}
	if err := db.DB.Create(&comment).Error; err != nil {
		RenderError(c, http.StatusInternalServerError, "Failed to save the comment")
		return
	}

	c.Redirect(http.StatusFound, fmt.Sprintf("/post/%d#comment-%d", post.ID, comment.ID))
}

func (h *CommentHandler) ShowEdit(c *gin.Context) {
	user := c.MustGet(middleware.CheckUserKey).(*models.User)
	id := utils.StringToUint(c.Param("id"))

	var comment models.Comment
	if err := db.DB.First(&comment, id).Error; err != nil {
		RenderError(c, http.StatusNotFound, "Comment not found")
		return
	}
	if comment.UserID != user.ID {
		RenderError(c, http.StatusForbidden, "You are not allowed to edit this comment")
		return
	}

	Render(c, http.StatusOK, "comment/edit.html", gin.H{
		"Title":   "Edit Comment",
		"Comment": comment,
	})
}

func (h *CommentHandler) Update(c *gin.Context) {
	user := c.MustGet(middleware.CheckUserKey).(*models.User)
	id := utils.StringToUint(c.Param("id"))

	var comment models.Comment
	if err := db.DB.First(&comment, id).Error; err != nil {
		RenderError(c, http.StatusNotFound, "Comment not found")
		return
	}
	if comment.UserID != user.ID {
		RenderError(c, http.StatusForbidden, "You are not allowed to edit this comment")
		return
	}

	content := c.PostForm("content")
	if content == "" {
		RenderError(c, http.StatusBadRequest, "Comment content must not be empty")
		return
	}

	comment.Content = content
	if err := db.DB.Save(&comment).Error; err != nil {
		RenderError(c, http.StatusInternalServerError, "Failed to save the comment")
		return
	}

	c.Redirect(http.StatusFound, fmt.Sprintf("/post/%d#comment-%d", comment.PostID, comment.ID))
}

func (h *CommentHandler) Delete(c *gin.Context) {
	user := c.MustGet(middleware.CheckUserKey).(*models.User)
	id := utils.StringToUint(c.Param("id"))

	var comment models.Comment
	if err := db.DB.First(&comment, id).Error; err != nil {
		RenderError(c, http.StatusNotFound, "Comment not found")
		return
	}
	if comment.UserID != user.ID {
		RenderError(c, http.StatusForbidden, "You are not allowed to delete this comment")
		return
	}

	// Replies cascade at the storage layer
	db.DB.Unscoped().Delete(&comment)

	c.Redirect(http.StatusFound, fmt.Sprintf("/post/%d", comment.PostID))
}
