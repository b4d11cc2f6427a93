package handlers

import (
	"fmt"
	"net/http"
	"net/url"
	"testing"

	"inkwell/internal/db"
	"inkwell/internal/models"
	"inkwell/internal/services"
	"inkwell/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetailIncrementsViewCount(t *testing.T) {
	setupTestDB(t)
	author := createUser(t, "author")
	post := createPost(t, author.ID, "hello")

	r := setupRouter(nil)
	h := NewPostHandler()
	r.GET("/post/:id", h.Detail)

	const fetches = 3
	for i := 0; i < fetches; i++ {
		w := get(r, fmt.Sprintf("/post/%d", post.ID))
		require.Equal(t, http.StatusOK, w.Code)
	}

	var reloaded models.Post
	require.NoError(t, db.DB.First(&reloaded, post.ID).Error)
	assert.Equal(t, fetches, reloaded.ViewsCount)
}

func TestDetailAnyStatusReachable(t *testing.T) {
	setupTestDB(t)
	author := createUser(t, "author")
	post := createPost(t, author.ID, "draft post")
	require.NoError(t, db.DB.Model(post).Update("status", models.PostStatusDraft).Error)

	r := setupRouter(nil)
	h := NewPostHandler()
	r.GET("/post/:id", h.Detail)

	w := get(r, fmt.Sprintf("/post/%d", post.ID))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestDetailNotFound(t *testing.T) {
	setupTestDB(t)

	r := setupRouter(nil)
	h := NewPostHandler()
	r.GET("/post/:id", h.Detail)

	w := get(r, "/post/9999")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListShowsPublishedOnly(t *testing.T) {
	setupTestDB(t)
	author := createUser(t, "author")
	createPost(t, author.ID, "published")
	draft := createPost(t, author.ID, "draft")
	require.NoError(t, db.DB.Model(draft).Update("status", models.PostStatusDraft).Error)

	// Bypass the page cache left by other tests
	utils.GetCache().Delete("post:list:page:1")

	r := setupRouterWithTemplate(nil, "post/list.html", `{{range .Posts}}[{{.Title}}]{{end}}`)
	h := NewPostHandler()
	r.GET("/", h.List)
	w := get(r, "/")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "[published]")
	assert.NotContains(t, w.Body.String(), "[draft]")
}

func TestListCacheDoesNotLeakCurrentUser(t *testing.T) {
	setupTestDB(t)
	author := createUser(t, "alice")
	createPost(t, author.ID, "published")
	utils.GetCache().Delete("post:list:page:1")

	const tmpl = `{{if .CurrentUser}}user={{.CurrentUser.Username}}{{else}}user=anonymous{{end}}`
	h := NewPostHandler()

	loggedIn := setupRouterWithTemplate(author, "post/list.html", tmpl)
	loggedIn.GET("/", h.List)
	w := get(loggedIn, "/")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "user=alice", w.Body.String())

	// The second request hits the cache entry the first one stored; it must
	// not inherit the first visitor's identity.
	anon := setupRouterWithTemplate(nil, "post/list.html", tmpl)
	anon.GET("/", h.List)
	w = get(anon, "/")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "user=anonymous", w.Body.String())
}

func TestUpdateForbiddenForNonAuthor(t *testing.T) {
	setupTestDB(t)
	author := createUser(t, "author")
	intruder := createUser(t, "intruder")
	post := createPost(t, author.ID, "original title")

	r := setupRouter(intruder)
	h := NewPostHandler()
	r.POST("/post/:id/edit", h.Update)

	w := doPost(r, fmt.Sprintf("/post/%d/edit", post.ID), url.Values{
		"title":   {"hijacked"},
		"content": {"hijacked body"},
	})
	assert.Equal(t, http.StatusForbidden, w.Code)

	var reloaded models.Post
	require.NoError(t, db.DB.First(&reloaded, post.ID).Error)
	assert.Equal(t, "original title", reloaded.Title)
	assert.Equal(t, "body", reloaded.Content)
}

func TestDeleteForbiddenForNonAuthor(t *testing.T) {
	setupTestDB(t)
	author := createUser(t, "author")
	intruder := createUser(t, "intruder")
	post := createPost(t, author.ID, "keep me")

	r := setupRouter(intruder)
	h := NewPostHandler()
	r.POST("/post/:id/delete", h.Delete)

	w := doPost(r, fmt.Sprintf("/post/%d/delete", post.ID), url.Values{})
	assert.Equal(t, http.StatusForbidden, w.Code)

	var count int64
	db.DB.Model(&models.Post{}).Where("id = ?", post.ID).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestUpdateSyncsTags(t *testing.T) {
	setupTestDB(t)
	author := createUser(t, "author")
	post := createPost(t, author.ID, "tagged")
	require.NoError(t, services.SyncPostTags(post, []string{"old", "stale"}))

	r := setupRouter(author)
	h := NewPostHandler()
	r.POST("/post/:id/edit", h.Update)

	w := doPost(r, fmt.Sprintf("/post/%d/edit", post.ID), url.Values{
		"title":    {"tagged"},
		"content":  {"body"},
		"tags_str": {"old, fresh"},
	})
	require.Equal(t, http.StatusFound, w.Code)

	var tags []models.Tag
	require.NoError(t, db.DB.Model(post).Association("Tags").Find(&tags))
	names := make([]string, len(tags))
	for i, tag := range tags {
		names[i] = tag.Name
	}
	assert.ElementsMatch(t, []string{"old", "fresh"}, names)
}

func TestDeleteCascades(t *testing.T) {
	setupTestDB(t)
	author := createUser(t, "author")
	reader := createUser(t, "reader")
	post := createPost(t, author.ID, "doomed")

	top := models.Comment{PostID: post.ID, UserID: reader.ID, Content: "top"}
	require.NoError(t, db.DB.Create(&top).Error)
	reply := models.Comment{PostID: post.ID, UserID: author.ID, Content: "reply", ParentID: &top.ID}
	require.NoError(t, db.DB.Create(&reply).Error)
	require.NoError(t, db.DB.Create(&models.Like{UserID: reader.ID, PostID: post.ID}).Error)
	require.NoError(t, db.DB.Create(&models.Bookmark{UserID: reader.ID, PostID: post.ID}).Error)
	require.NoError(t, services.SyncPostTags(post, []string{"doom"}))

	r := setupRouter(author)
	h := NewPostHandler()
	r.POST("/post/:id/delete", h.Delete)

	w := doPost(r, fmt.Sprintf("/post/%d/delete", post.ID), url.Values{})
	require.Equal(t, http.StatusFound, w.Code)

	var comments, likes, bookmarks int64
	db.DB.Model(&models.Comment{}).Where("post_id = ?", post.ID).Count(&comments)
	db.DB.Model(&models.Like{}).Where("post_id = ?", post.ID).Count(&likes)
	db.DB.Model(&models.Bookmark{}).Where("post_id = ?", post.ID).Count(&bookmarks)
	assert.Zero(t, comments)
	assert.Zero(t, likes)
	assert.Zero(t, bookmarks)

	// The tag itself outlives the post
	var tag models.Tag
	assert.NoError(t, db.DB.Where("name = ?", "doom").First(&tag).Error)
}

func TestSearchMatchesTagName(t *testing.T) {
	setupTestDB(t)
	author := createUser(t, "author")
	tagged := createPost(t, author.ID, "about databases")
	require.NoError(t, services.SyncPostTags(tagged, []string{"postgres"}))
	createPost(t, author.ID, "unrelated")

	var hits []models.Post
	pattern := "%postgres%"
	db.DB.
		Joins("LEFT JOIN post_tags ON post_tags.post_id = posts.id").
		Joins("LEFT JOIN tags ON tags.id = post_tags.tag_id").
		Where("posts.status = ?", models.PostStatusPublished).
		Where("posts.title LIKE ? OR posts.content LIKE ? OR tags.name LIKE ?", pattern, pattern, pattern).
		Distinct("posts.*").
		Find(&hits)

	require.Len(t, hits, 1)
	assert.Equal(t, tagged.ID, hits[0].ID)

	r := setupRouter(nil)
	h := NewPostHandler()
	r.GET("/search", h.Search)
	w := get(r, "/search?q=postgres&search_by=all")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestUpdateRejectsTagSlugConflict(t *testing.T) {
	setupTestDB(t)
	author := createUser(t, "author")
	post := createPost(t, author.ID, "tagged")
	require.NoError(t, services.SyncPostTags(post, []string{"Go Web"}))

	r := setupRouter(author)
	h := NewPostHandler()
	r.POST("/post/:id/edit", h.Update)

	w := doPost(r, fmt.Sprintf("/post/%d/edit", post.ID), url.Values{
		"title":    {"tagged"},
		"content":  {"body"},
		"tags_str": {"go web"},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var tags []models.Tag
	require.NoError(t, db.DB.Model(post).Association("Tags").Find(&tags))
	require.Len(t, tags, 1)
	assert.Equal(t, "Go Web", tags[0].Name)
}
