package handlers

import (
	"errors"
	"fmt"

	"inkwell/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// Render helper to inject common variables like 'current user'. The payload
// is copied first: callers may hand in shared data (the page cache), and the
// per-request keys must never be written into it.
func Render(c *gin.Context, code int, name string, obj gin.H) {
	data := make(gin.H, len(obj)+2)
	for k, v := range obj {
		data[k] = v
	}

	if user, exists := c.Get(middleware.CheckUserKey); exists {
		data["CurrentUser"] = user
	}
	data["CurrentPath"] = c.Request.URL.Path

	c.HTML(code, name, data)
}

// RenderError renders the shared error page.
func RenderError(c *gin.Context, code int, message string) {
	Render(c, code, "error.html", gin.H{"Error": message})
}

// fieldErrors flattens a binding error into a field -> message map so forms
// can show per-field problems instead of one opaque string.
func fieldErrors(err error) map[string]string {
	out := make(map[string]string)
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		out["form"] = "invalid input"
		return out
	}
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			out[fe.Field()] = "This field is required."
		case "email":
			out[fe.Field()] = "Enter a valid email address."
		case "min":
			out[fe.Field()] = fmt.Sprintf("Must be at least %s characters.", fe.Param())
		case "max":
			out[fe.Field()] = fmt.Sprintf("Must be at most %s characters.", fe.Param())
		case "url":
			out[fe.Field()] = "Enter a valid URL."
		case "oneof":
			out[fe.Field()] = fmt.Sprintf("Must be one of: %s.", fe.Param())
		default:
			out[fe.Field()] = "Invalid value."
		}
	}
	return out
}
