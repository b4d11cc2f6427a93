package handlers

import (
	"net/http"
	"net/url"
	"testing"

	"inkwell/internal/db"
	"inkwell/internal/models"
	"inkwell/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterCreatesUser(t *testing.T) {
	setupTestDB(t)

	r := setupRouter(nil)
	h := NewAuthHandler()
	r.POST("/signup", h.Register)

	w := doPost(r, "/signup", url.Values{
		"username": {"newuser"},
		"email":    {"new@example.com"},
		"password": {"longenough"},
	})
	require.Equal(t, http.StatusFound, w.Code)

	var user models.User
	require.NoError(t, db.DB.Where("username = ?", "newuser").First(&user).Error)
	assert.Equal(t, "new@example.com", user.Email)
	assert.NotEqual(t, "longenough", user.Password) // stored hashed
}

func TestRegisterValidationErrors(t *testing.T) {
	setupTestDB(t)

	r := setupRouter(nil)
	h := NewAuthHandler()
	r.POST("/signup", h.Register)

	// Missing email, short password
	w := doPost(r, "/signup", url.Values{
		"username": {"newuser"},
		"password": {"short"},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var count int64
	db.DB.Model(&models.User{}).Count(&count)
	assert.Zero(t, count)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	setupTestDB(t)
	existing := createUser(t, "taken")

	r := setupRouter(nil)
	h := NewAuthHandler()
	r.POST("/signup", h.Register)

	w := doPost(r, "/signup", url.Values{
		"username": {"someoneelse"},
		"email":    {existing.Email},
		"password": {"longenough"},
	})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestLogin(t *testing.T) {
	setupTestDB(t)

	hash, err := utils.HashPassword("correct horse")
	require.NoError(t, err)
	user := models.User{Username: "login", Email: "login@example.com", Password: hash}
	require.NoError(t, db.DB.Create(&user).Error)

	r := setupRouter(nil)
	h := NewAuthHandler()
	r.POST("/login", h.Login)

	w := doPost(r, "/login", url.Values{
		"username": {"login"},
		"password": {"correct horse"},
	})
	assert.Equal(t, http.StatusFound, w.Code)

	w = doPost(r, "/login", url.Values{
		"username": {"login"},
		"password": {"wrong"},
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
