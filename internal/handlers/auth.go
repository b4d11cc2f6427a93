package handlers

import (
	"errors"
	"net/http"

	"inkwell/internal/db"
	"inkwell/internal/middleware"
	"inkwell/internal/models"
	"inkwell/internal/utils"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type AuthHandler struct{}

func NewAuthHandler() *AuthHandler {
	return &AuthHandler{}
}

type registerForm struct {
	Username string `form:"username" binding:"required,max=150"`
	Email    string `form:"email" binding:"required,email"`
	Password string `form:"password" binding:"required,min=8"`
	Nickname string `form:"nickname" binding:"max=30"`
}

func (h *AuthHandler) ShowRegister(c *gin.Context) {
	Render(c, http.StatusOK, "auth/register.html", nil)
}

func (h *AuthHandler) Register(c *gin.Context) {
	var form registerForm
	if err := c.ShouldBind(&form); err != nil {
		Render(c, http.StatusBadRequest, "auth/register.html", gin.H{
			"FieldErrors": fieldErrors(err),
			"Form":        form,
		})
		return
	}

	hash, err := utils.HashPassword(form.Password)
	if err != nil {
		RenderError(c, http.StatusInternalServerError, "Registration failed")
		return
	}

	user := models.User{
		Username: form.Username,
		Email:    form.Email,
		Password: hash,
		Nickname: form.Nickname,
	}
	if err := db.DB.Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			Render(c, http.StatusConflict, "auth/register.html", gin.H{
				"FieldErrors": duplicateIdentityErrors(form.Username, form.Email),
				"Form":        form,
			})
			return
		}
		RenderError(c, http.StatusInternalServerError, "Registration failed")
		return
	}

	session := sessions.Default(c)
	session.Set("user_id", user.ID)
	session.Save()

	c.Redirect(http.StatusFound, "/")
}

// duplicateIdentityErrors figures out which unique field collided so the
// form can point at it.
func duplicateIdentityErrors(username, email string) map[string]string {
	out := make(map[string]string)
	var existing models.User
	if err := db.DB.Where("email = ?", email).First(&existing).Error; err == nil {
		out["Email"] = "This email is already in use."
	}
	if err := db.DB.Where("username = ?", username).First(&existing).Error; err == nil {
		out["Username"] = "This username is already taken."
	}
	if len(out) == 0 {
		out["form"] = "Account already exists."
	}
	return out
}

func (h *AuthHandler) ShowLogin(c *gin.Context) {
	Render(c, http.StatusOK, "auth/login.html", nil)
}

func (h *AuthHandler) Login(c *gin.Context) {
	username := c.PostForm("username")
	password := c.PostForm("password")

	var user models.User
	if err := db.DB.Where("username = ?", username).First(&user).Error; err != nil {
		Render(c, http.StatusUnauthorized, "auth/login.html", gin.H{"Error": "Wrong username or password"})
		return
	}
	if !utils.CheckPasswordHash(password, user.Password) {
		Render(c, http.StatusUnauthorized, "auth/login.html", gin.H{"Error": "Wrong username or password"})
		return
	}

	session := sessions.Default(c)
	session.Set("user_id", user.ID)
	session.Save()

	next := c.PostForm("next")
	if next == "" || next[0] != '/' {
		next = "/"
	}
	c.Redirect(http.StatusFound, next)
}

func (h *AuthHandler) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	session.Save()
	c.Redirect(http.StatusFound, "/")
}

func (h *AuthHandler) ShowChangePassword(c *gin.Context) {
	Render(c, http.StatusOK, "auth/password_change.html", nil)
}

func (h *AuthHandler) ChangePassword(c *gin.Context) {
	user := c.MustGet(middleware.CheckUserKey).(*models.User)

	oldPassword := c.PostForm("old_password")
	newPassword := c.PostForm("new_password")

	if !utils.CheckPasswordHash(oldPassword, user.Password) {
		Render(c, http.StatusBadRequest, "auth/password_change.html", gin.H{"Error": "Current password is incorrect"})
		return
	}
	if len(newPassword) < 8 {
		Render(c, http.StatusBadRequest, "auth/password_change.html", gin.H{"Error": "New password must be at least 8 characters"})
		return
	}

	hash, err := utils.HashPassword(newPassword)
	if err != nil {
		RenderError(c, http.StatusInternalServerError, "Password change failed")
		return
	}
	if err := db.DB.Model(user).Update("password", hash).Error; err != nil {
		RenderError(c, http.StatusInternalServerError, "Password change failed")
		return
	}

	c.Redirect(http.StatusFound, "/settings")
}
