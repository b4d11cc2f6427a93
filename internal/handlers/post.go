package handlers

import (
	"errors"
	"fmt"
	"math"
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

const postsPerPage = 10

type PostHandler struct{}

func NewPostHandler() *PostHandler {
	return &PostHandler{}
}

// fillCommentCounts batch-fills the comment counter for a page of posts.
func fillCommentCounts(posts []models.Post) {
	if len(posts) == 0 {
		return
	}

	postIDs := make([]uint, len(posts))
	for i, p := range posts {
		postIDs[i] = p.ID
	}

	type countResult struct {
		PostID uint
		Count  int
	}
	var results []countResult
	db.DB.Model(&models.Comment{}).
		Select("post_id, COUNT(*) as count").
		Where("post_id IN ?", postIDs).
		Group("post_id").
		Scan(&results)

	countMap := make(map[uint]int)
	for _, r := range results {
		countMap[r.PostID] = r.Count
	}
	for i := range posts {
		posts[i].CommentCount = countMap[posts[i].ID]
	}
}

// sidebarData loads the category list plus the count of published posts
// without a category, shown on every list page.
func sidebarData() gin.H {
	var categories []models.Category
	db.DB.Where("is_public = ?", true).Order("name DESC").Find(&categories)

	var uncategorized int64
	db.DB.Model(&models.Post{}).
		Where("category_id IS NULL AND status = ?", models.PostStatusPublished).
		Count(&uncategorized)

	return gin.H{
		"Categories":          categories,
		"NoCategoryPostCount": uncategorized,
	}
}

func pageParam(c *gin.Context) int {
	page := utils.StringToInt(c.Query("page"))
	if page < 1 {
		page = 1
	}
	return page
}

func totalPages(total int64) int {
	pages := int(math.Ceil(float64(total) / float64(postsPerPage)))
	if pages == 0 {
		pages = 1
	}
	return pages
}

func (h *PostHandler) List(c *gin.Context) {
	page := pageParam(c)

	cacheKey := fmt.Sprintf("post:list:page:%d", page)
	if cachedData := utils.GetCache().Get(cacheKey); cachedData != nil {
		if hData, ok := cachedData.(gin.H); ok {
			Render(c, http.StatusOK, "post/list.html", hData)
			return
		}
	}

	published := db.DB.Model(&models.Post{}).Where("status = ?", models.PostStatusPublished)

	var total int64
	published.Count(&total)

	var posts []models.Post
	db.DB.Preload("User").Preload("Category").Preload("Tags").
		Where("status = ?", models.PostStatusPublished).
		Order("created_at DESC").
		Limit(postsPerPage).
		Offset((page - 1) * postsPerPage).
		Find(&posts)

	fillCommentCounts(posts)

	renderData := sidebarData()
	renderData["Posts"] = posts
	renderData["Title"] = "Latest Posts"
	renderData["CurrentPage"] = page
	renderData["TotalPages"] = totalPages(total)

	utils.GetCache().Set(cacheKey, renderData, 1*time.Minute)

	Render(c, http.StatusOK, "post/list.html", renderData)
}

func (h *PostHandler) ListByCategory(c *gin.Context) {
	slug := c.Param("slug")

	var category models.Category
	if err := db.DB.Where("slug = ?", slug).First(&category).Error; err != nil {
		RenderError(c, http.StatusNotFound, "Category not found")
		return
	}

	page := pageParam(c)

	var total int64
	db.DB.Model(&models.Post{}).
		Where("category_id = ? AND status = ?", category.ID, models.PostStatusPublished).
		Count(&total)

	var posts []models.Post
	db.DB.Preload("User").Preload("Category").Preload("Tags").
		Where("category_id = ? AND status = ?", category.ID, models.PostStatusPublished).
		Order("created_at DESC").
		Limit(postsPerPage).
		Offset((page - 1) * postsPerPage).
		Find(&posts)

	fillCommentCounts(posts)

	renderData := sidebarData()
	renderData["Posts"] = posts
	renderData["Category"] = category
	renderData["Title"] = category.Name
	renderData["CurrentPage"] = page
	renderData["TotalPages"] = totalPages(total)

	Render(c, http.StatusOK, "post/list.html", renderData)
}

func (h *PostHandler) ListByTag(c *gin.Context) {
	slug := c.Param("slug")

	var tag models.Tag
	if err := db.DB.Where("slug = ?", slug).First(&tag).Error; err != nil {
		RenderError(c, http.StatusNotFound, "Tag not found")
		return
	}

	page := pageParam(c)

	base := db.DB.Model(&models.Post{}).
		Joins("JOIN post_tags ON post_tags.post_id = posts.id").
		Where("post_tags.tag_id = ? AND posts.status = ?", tag.ID, models.PostStatusPublished)

	var total int64
	base.Count(&total)

	var posts []models.Post
	db.DB.Preload("User").Preload("Category").Preload("Tags").
		Joins("JOIN post_tags ON post_tags.post_id = posts.id").
		Where("post_tags.tag_id = ? AND posts.status = ?", tag.ID, models.PostStatusPublished).
		Order("posts.created_at DESC").
		Limit(postsPerPage).
		Offset((page - 1) * postsPerPage).
		Find(&posts)

	fillCommentCounts(posts)

	renderData := sidebarData()
	renderData["Posts"] = posts
	renderData["Tag"] = tag
	renderData["Title"] = "#" + tag.Name
	renderData["CurrentPage"] = page
	renderData["TotalPages"] = totalPages(total)

	Render(c, http.StatusOK, "post/list.html", renderData)
}

func (h *PostHandler) TagList(c *gin.Context) {
	var tags []models.Tag
	db.DB.Where("is_public = ?", true).Order("name ASC").Find(&tags)

	renderData := sidebarData()
	renderData["Tags"] = tags
	renderData["Title"] = "Tags"

	Render(c, http.StatusOK, "tag/list.html", renderData)
}

func (h *PostHandler) Search(c *gin.Context) {
	query := c.Query("q")
	searchBy := c.DefaultQuery("search_by", "title")

	var posts []models.Post
	if query != "" {
		pattern := "%" + query + "%"
		base := db.DB.Preload("User").Preload("Category").Preload("Tags").
			Where("posts.status = ?", models.PostStatusPublished)

		switch searchBy {
		case "title":
			base = base.Where("posts.title LIKE ?", pattern)
		case "category":
			base = base.Joins("LEFT JOIN categories ON categories.id = posts.category_id").
				Where("categories.name LIKE ?", pattern)
		default:
			// Everything: title, content and tag names
			base = base.
				Joins("LEFT JOIN post_tags ON post_tags.post_id = posts.id").
				Joins("LEFT JOIN tags ON tags.id = post_tags.tag_id").
				Where("posts.title LIKE ? OR posts.content LIKE ? OR tags.name LIKE ?", pattern, pattern, pattern).
				Distinct("posts.*")
		}

		base.Order("posts.created_at DESC").Limit(50).Find(&posts)
	}

	fillCommentCounts(posts)

	renderData := sidebarData()
	renderData["Posts"] = posts
	renderData["Query"] = query
	renderData["SearchBy"] = searchBy
	renderData["Title"] = "Search"

	Render(c, http.StatusOK, "search.html", renderData)
}

func (h *PostHandler) ShowCreate(c *gin.Context) {
	var categories []models.Category
	db.DB.Where("is_public = ?", true).Order("name ASC").Find(&categories)

	Render(c, http.StatusOK, "post/write.html", gin.H{
		"Title":      "Write",
		"Categories": categories,
	})
}

type postForm struct {
	Title      string `form:"title" binding:"required,max=100"`
	Content    string `form:"content" binding:"required"`
	CategoryID string `form:"category_id"`
	TagsStr    string `form:"tags_str"`
	Status     string `form:"status" binding:"omitempty,oneof=draft published pending"`
	RelatedIDs string `form:"related_ids"` // comma separated post ids
}

func (h *PostHandler) Create(c *gin.Context) {
	user := c.MustGet(middleware.CheckUserKey).(*models.User)

	var form postForm
	if err := c.ShouldBind(&form); err != nil {
		var categories []models.Category
		db.DB.Where("is_public = ?", true).Order("name ASC").Find(&categories)
		Render(c, http.StatusBadRequest, "post/write.html", gin.H{
			"FieldErrors": fieldErrors(err),
			"Form":        form,
			"Categories":  categories,
		})
		return
	}

	status := form.Status
	if status == "" {
		status = models.PostStatusDraft
	}

	post := models.Post{
		UserID:     user.ID,
		Title:      form.Title,
		Content:    form.Content,
		CategoryID: categoryRef(form.CategoryID),
		Status:     status,
	}

	if path, err := services.SaveUpload(c, "head_image", "images"); err == nil && path != "" {
		post.HeadImage = path
	}
	if path, err := services.SaveUpload(c, "file_upload", "files"); err == nil && path != "" {
		post.FileUpload = path
	}

	if err := db.DB.Create(&post).Error; err != nil {
		RenderError(c, http.StatusInternalServerError, "Failed to save the post")
		return
	}

	if names := services.ParseTagNames(form.TagsStr); len(names) > 0 {
		if err := services.SyncPostTags(&post, names); err != nil {
			if errors.Is(err, services.ErrTagSlugConflict) {
				Render(c, http.StatusBadRequest, "post/write.html", gin.H{
					"FieldErrors": map[string]string{"TagsStr": "A tag with an equivalent name already exists."},
					"Form":        form,
				})
				return
			}
			RenderError(c, http.StatusInternalServerError, "Failed to save tags")
			return
		}
	}
	syncRelated(&post, form.RelatedIDs)

	utils.GetCache().Delete("post:list:page:1")

	c.Redirect(http.StatusFound, fmt.Sprintf("/post/%d", post.ID))
}

func (h *PostHandler) Detail(c *gin.Context) {
	id := utils.StringToUint(c.Param("id"))

	var post models.Post
	err := db.DB.Preload("User").Preload("Category").Preload("Tags").Preload("Related").
		First(&post, id).Error
	if err != nil {
		RenderError(c, http.StatusNotFound, "Post not found")
		return
	}

	// Atomic in-place bump so concurrent views never lose an update
	db.DB.Model(&models.Post{}).Where("id = ?", post.ID).
		UpdateColumn("views_count", gorm.Expr("views_count + 1"))
	post.ViewsCount++

	tree := services.LoadCommentTree(post.ID)

	var likeCount int64
	db.DB.Model(&models.Like{}).Where("post_id = ?", post.ID).Count(&likeCount)
	var bookmarkCount int64
	db.DB.Model(&models.Bookmark{}).Where("post_id = ?", post.ID).Count(&bookmarkCount)

	isLiked := false
	isBookmarked := false
	if user, exists := c.Get(middleware.CheckUserKey); exists {
		uid := user.(*models.User).ID
		isLiked = services.IsLiked(uid, post.ID)
		isBookmarked = services.IsBookmarked(uid, post.ID)
	}

	renderData := sidebarData()
	renderData["Post"] = post
	renderData["PostContent"] = utils.RenderMarkdown(post.Content)
	renderData["CommentTree"] = tree
	renderData["LikeCount"] = likeCount
	renderData["BookmarkCount"] = bookmarkCount
	renderData["IsLiked"] = isLiked
	renderData["IsBookmarked"] = isBookmarked
	renderData["Title"] = post.Title

	Render(c, http.StatusOK, "post/detail.html", renderData)
}

func (h *PostHandler) ShowEdit(c *gin.Context) {
	user := c.MustGet(middleware.CheckUserKey).(*models.User)
	id := utils.StringToUint(c.Param("id"))

	var post models.Post
	if err := db.DB.Preload("Tags").First(&post, id).Error; err != nil {
		RenderError(c, http.StatusNotFound, "Post not found")
		return
	}
	if post.UserID != user.ID {
		RenderError(c, http.StatusForbidden, "You are not allowed to edit this post")
		return
	}

	var categories []models.Category
	db.DB.Where("is_public = ?", true).Order("name ASC").Find(&categories)

	Render(c, http.StatusOK, "post/edit.html", gin.H{
		"Title":      "Edit Post",
		"Post":       post,
		"Categories": categories,
	})
}

func (h *PostHandler) Update(c *gin.Context) {
	user := c.MustGet(middleware.CheckUserKey).(*models.User)
	id := utils.StringToUint(c.Param("id"))

	var post models.Post
	if err := db.DB.First(&post, id).Error; err != nil {
		RenderError(c, http.StatusNotFound, "Post not found")
		return
	}
	if post.UserID != user.ID {
		RenderError(c, http.StatusForbidden, "You are not allowed to edit this post")
		return
	}

	var form postForm
	if err := c.ShouldBind(&form); err != nil {
		var categories []models.Category
		db.DB.Where("is_public = ?", true).Order("name ASC").Find(&categories)
		Render(c, http.StatusBadRequest, "post/edit.html", gin.H{
			"FieldErrors": fieldErrors(err),
			"Post":        post,
			"Categories":  categories,
		})
		return
	}

	post.Title = form.Title
	post.Content = form.Content
	post.CategoryID = categoryRef(form.CategoryID)
	if form.Status != "" {
		post.Status = form.Status
	}
	if path, err := services.SaveUpload(c, "head_image", "images"); err == nil && path != "" {
		post.HeadImage = path
	}
	if path, err := services.SaveUpload(c, "file_upload", "files"); err == nil && path != "" {
		post.FileUpload = path
	}

	if err := db.DB.Save(&post).Error; err != nil {
		RenderError(c, http.StatusInternalServerError, "Failed to save the post")
		return
	}

	// Tags omitted from the resubmission are detached
	if err := services.SyncPostTags(&post, services.ParseTagNames(form.TagsStr)); err != nil {
		if errors.Is(err, services.ErrTagSlugConflict) {
			Render(c, http.StatusBadRequest, "post/edit.html", gin.H{
				"FieldErrors": map[string]string{"TagsStr": "A tag with an equivalent name already exists."},
				"Post":        post,
			})
			return
		}
		RenderError(c, http.StatusInternalServerError, "Failed to save tags")
		return
	}
	syncRelated(&post, form.RelatedIDs)

	utils.GetCache().Delete("post:list:page:1")

	c.Redirect(http.StatusFound, fmt.Sprintf("/post/%d", post.ID))
}

func (h *PostHandler) Delete(c *gin.Context) {
	user := c.MustGet(middleware.CheckUserKey).(*models.User)
	id := utils.StringToUint(c.Param("id"))

	var post models.Post
	if err := db.DB.First(&post, id).Error; err != nil {
		RenderError(c, http.StatusNotFound, "Post not found")
		return
	}
	if post.UserID != user.ID {
		RenderError(c, http.StatusForbidden, "You are not allowed to delete this post")
		return
	}

	// Join rows go first; comments, likes and bookmarks cascade at the
	// storage layer.
	db.DB.Model(&post).Association("Tags").Clear()
	db.DB.Model(&post).Association("Related").Clear()
	db.DB.Unscoped().Delete(&post)

	utils.GetCache().Delete("post:list:page:1")

	c.Redirect(http.StatusFound, "/")
}

func categoryRef(raw string) *uint {
	if raw == "" {
		return nil
	}
	id := utils.StringToUint(raw)
	if id == 0 {
		return nil
	}
	var category models.Category
	if err := db.DB.First(&category, id).Error; err != nil {
		return nil
	}
	return &category.ID
}

// syncRelated replaces the post's related-post set from a comma separated id
// list. Unknown ids and the post itself are ignored.
func syncRelated(post *models.Post, raw string) {
	related := make([]*models.Post, 0)
	for _, name := range services.ParseTagNames(raw) {
		id := utils.StringToUint(name)
		if id == 0 || id == post.ID {
			continue
		}
		var other models.Post
		if err := db.DB.First(&other, id).Error; err == nil {
			related = append(related, &other)
		}
	}
	db.DB.Model(post).Association("Related").Replace(related)
}
