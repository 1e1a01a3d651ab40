package router

import (
	"net/http"
	"regexp"
	"time"

	"github.com/gin-gonic/gin"

	"noviai/internal/store"
)

func wrapHTTP(h http.Handler) gin.HandlerFunc {
	if h == nil {
		return func(c *gin.Context) {
			c.Status(http.StatusNotFound)
		}
	}

	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

func wrapHTTPFunc(f http.HandlerFunc) gin.HandlerFunc {
	return wrapHTTP(f)
}

func respondError(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"success": false, "error": msg})
}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

func validEmail(email string) bool {
	return emailPattern.MatchString(email)
}

type userView struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Credits   int64     `json:"credits"`
	CreatedAt time.Time `json:"createdAt"`
	LastLogin time.Time `json:"lastLogin"`
}

func newUserView(u store.User) userView {
	return userView{
		ID:        u.ID,
		Email:     u.Email,
		Credits:   u.Credits,
		CreatedAt: u.CreatedAt,
		LastLogin: u.LastLogin,
	}
}
