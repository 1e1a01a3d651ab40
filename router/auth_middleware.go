package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"noviai/internal/auth"
)

// requireToken 校验 Authorization 里的会话令牌，并回查账号仍然存在
// （令牌无状态，账号被删除后即便签名有效也必须拒绝），通过后把 Principal 注入请求上下文。
func requireToken(opts Options) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := auth.ExtractBearer(c.GetHeader("Authorization"))
		if token == "" {
			respondError(c, http.StatusUnauthorized, "请先登录（缺少访问令牌）")
			c.Abort()
			return
		}

		claims, err := opts.Tokens.Verify(token)
		if err != nil {
			respondError(c, http.StatusUnauthorized, "令牌无效或已过期，请重新登录")
			c.Abort()
			return
		}

		u, err := opts.Store.GetUserByID(c.Request.Context(), claims.Subject)
		if err != nil {
			respondError(c, http.StatusUnauthorized, "账号不存在，请重新登录")
			c.Abort()
			return
		}

		p := auth.Principal{UserID: u.ID, Email: u.Email}
		c.Request = c.Request.WithContext(auth.WithPrincipal(c.Request.Context(), p))
		c.Next()
	}
}
