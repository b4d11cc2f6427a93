package services

import (
	"testing"

	"inkwell/internal/db"
	"inkwell/internal/models"

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

func createTestUser(t *testing.T, username string) models.User {
	t.Helper()
	user := models.User{
		Username: username,
		Email:    username + "@example.com",
		Password: "x",
	}
	if err := db.DB.Create(&user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return user
}

func createTestPost(t *testing.T, userID uint, title string) models.Post {
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
	return post
}
