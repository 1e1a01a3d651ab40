package router

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"noviai/internal/auth"
	"noviai/internal/store"
)

func setAuthAPIRoutes(r gin.IRoutes, opts Options) {
	// register 与 login 语义相同：按邮箱幂等登记（无密码）。
	r.POST("/auth/register", upsertAccountHandler(opts))
	r.POST("/auth/login", upsertAccountHandler(opts))

	r.GET("/auth/me", requireToken(opts), currentUserHandler(opts))
	r.POST("/auth/logout", requireToken(opts), logoutHandler())
}

func upsertAccountHandler(opts Options) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Email string `json:"email"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, "请求体不是合法 JSON")
			return
		}

		email := store.NormalizeEmail(req.Email)
		if email == "" {
			respondError(c, http.StatusBadRequest, "邮箱不能为空")
			return
		}
		if !validEmail(email) {
			respondError(c, http.StatusBadRequest, "邮箱格式不正确")
			return
		}

		u, err := opts.Store.CreateOrGetUserByEmail(c.Request.Context(), email, opts.InitialCredits)
		if err != nil {
			respondError(c, http.StatusInternalServerError, "登记账号失败，请稍后重试")
			return
		}

		token, err := opts.Tokens.Issue(u.ID, u.Email)
		if err != nil {
			respondError(c, http.StatusInternalServerError, "签发令牌失败，请稍后重试")
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{
			"user":  newUserView(u),
			"token": token,
		}})
	}
}

func currentUserHandler(opts Options) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := auth.PrincipalFromContext(c.Request.Context())
		if !ok || strings.TrimSpace(p.UserID) == "" {
			respondError(c, http.StatusUnauthorized, "请先登录（缺少访问令牌）")
			return
		}

		u, err := opts.Store.GetUserByID(c.Request.Context(), p.UserID)
		if err != nil {
			respondError(c, http.StatusNotFound, "账号不存在")
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{
			"user": newUserView(u),
		}})
	}
}

func logoutHandler() gin.HandlerFunc {
	// 令牌无状态，真正的失效靠过期；这里只做确认，客户端自行丢弃令牌。
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "已退出登录"})
	}
}
