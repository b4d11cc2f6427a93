package handlers

import (
	"html/template"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"inkwell/internal/db"
	"inkwell/internal/middleware"
	"inkwell/internal/models"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupTestDB points the package at an in-memory SQLite database with the
// full schema. One connection keeps the memory database alive and makes the
// foreign_keys pragma stick.
func setupTestDB(t *testing.T) {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	gdb.Exec("PRAGMA foreign_keys = ON")

	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	db.DB = gdb
	t.Cleanup(func() {
		sqlDB.Close()
	})
}

// testTemplates registers stub templates for every view the handlers render,
// so tests exercise handler logic without the real template tree.
func testTemplates() *template.Template {
	tmpl := template.New("test")
	names := []string{
		"error.html",
		"search.html",
		"post/list.html", "post/detail.html", "post/write.html", "post/edit.html",
		"comment/edit.html",
		"tag/list.html",
		"auth/login.html", "auth/register.html", "auth/password_change.html",
		"user/profile.html", "user/settings.html",
	}
	for _, name := range names {
		template.Must(tmpl.New(name).Parse("ok"))
	}
	return tmpl
}

// setupRouter builds a bare test engine. When user is non-nil every request
// runs with that user loaded, standing in for the session middleware.
func setupRouter(user *models.User) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.SetHTMLTemplate(testTemplates())
	store := cookie.NewStore([]byte("test-secret"))
	r.Use(sessions.Sessions("test_session", store))
	if user != nil {
		r.Use(func(c *gin.Context) {
			c.Set(middleware.CheckUserKey, user)
			c.Next()
		})
	}
	return r
}

// setupRouterWithTemplate is setupRouter with one named template whose body
// the test can assert on.
func setupRouterWithTemplate(user *models.User, name, body string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.SetHTMLTemplate(template.Must(template.New(name).Parse(body)))
	store := cookie.NewStore([]byte("test-secret"))
	r.Use(sessions.Sessions("test_session", store))
	if user != nil {
		r.Use(func(c *gin.Context) {
			c.Set(middleware.CheckUserKey, user)
			c.Next()
		})
	}
	return r
}

func createUser(t *testing.T, username string) *models.User {
	t.Helper()
	user := models.User{
		Username: username,
		Email:    username + "@example.com",
		Password: "x",
	}
	if err := db.DB.Create(&user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return &user
}

func createPost(t *testing.T, userID uint, title string) *models.Post {
	t.Helper()
	post := models.Post{
		UserID:  userID,
		Title:   title,
		Content: "body",
		Status:  models.PostStatusPublished,
	}
	if err := db.DB.Create(&post).Error; err != nil {
		t.Fatalf("failed to create post: %v", err)
	}
	return &post
}

func doPost(r *gin.Engine, path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func get(r *gin.Engine, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}
