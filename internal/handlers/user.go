package handlers

import (
	"errors"
	"net/http"
	"time"

	"inkwell/internal/db"
	"inkwell/internal/middleware"
	"inkwell/internal/models"
	"inkwell/internal/services"
	"inkwell/internal/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type UserHandler struct{}

func NewUserHandler() *UserHandler {
	return &UserHandler{}
}

// Profile is the public author page: the user plus their published posts.
func (h *UserHandler) Profile(c *gin.Context) {
	id := utils.StringToUint(c.Param("id"))

	var user models.User
	if err := db.DB.First(&user, id).Error; err != nil {
		RenderError(c, http.StatusNotFound, "User not found")
		return
	}

	var posts []models.Post
	db.DB.Preload("Category").Preload("Tags").
		Where("user_id = ? AND status = ?", user.ID, models.PostStatusPublished).
		Order("created_at DESC").
		Find(&posts)

	fillCommentCounts(posts)

	Render(c, http.StatusOK, "user/profile.html", gin.H{
		"Title":       user.DisplayName(),
		"ProfileUser": user,
		"Posts":       posts,
	})
}

func (h *UserHandler) ShowSettings(c *gin.Context) {
	user := c.MustGet(middleware.CheckUserKey).(*models.User)

	var bookmarks []models.Bookmark
	db.DB.Preload("Post").Preload("Post.User").
		Where("user_id = ?", user.ID).
		Order("created_at DESC").
		Find(&bookmarks)

	Render(c, http.StatusOK, "user/settings.html", gin.H{
		"Title":     "Settings",
		"Bookmarks": bookmarks,
	})
}

type settingsForm struct {
	Username  string `form:"username" binding:"required,max=150"`
	Email     string `form:"email" binding:"required,email"`
	Nickname  string `form:"nickname" binding:"max=30"`
	Bio       string `form:"bio"`
	Location  string `form:"location" binding:"max=100"`
	BirthDate string `form:"birth_date"`
	Website   string `form:"website" binding:"omitempty,url"`
}

func (h *UserHandler) UpdateSettings(c *gin.Context) {
	user := c.MustGet(middleware.CheckUserKey).(*models.User)

	var form settingsForm
	if err := c.ShouldBind(&form); err != nil {
		Render(c, http.StatusBadRequest, "user/settings.html", gin.H{
			"FieldErrors": fieldErrors(err),
			"Form":        form,
		})
		return
	}

	user.Username = form.Username
	user.Email = form.Email
	user.Nickname = form.Nickname
	user.Bio = form.Bio
	user.Location = form.Location
	user.Website = form.Website

	if form.BirthDate != "" {
		birth, err := time.Parse("2006-01-02", form.BirthDate)
		if err != nil {
			Render(c, http.StatusBadRequest, "user/settings.html", gin.H{
				"FieldErrors": map[string]string{"BirthDate": "Enter a valid date."},
				"Form":        form,
			})
			return
		}
		user.BirthDate = &birth
	} else {
		user.BirthDate = nil
	}

	if path, err := services.SaveUpload(c, "profile_image", "profiles"); err == nil && path != "" {
		user.ProfileImage = path
	}

	if err := db.DB.Save(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			Render(c, http.StatusConflict, "user/settings.html", gin.H{
				"FieldErrors": map[string]string{"Email": "Username or email already in use."},
				"Form":        form,
			})
			return
		}
		RenderError(c, http.StatusInternalServerError, "Failed to save settings")
		return
	}

	c.Redirect(http.StatusFound, "/settings")
}
