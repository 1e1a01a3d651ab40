package router

import "github.com/gin-gonic/gin"

func setSystemRoutes(r *gin.Engine, opts Options) {
	r.GET("/health", wrapHTTPFunc(opts.Health))
	r.HEAD("/health", wrapHTTPFunc(opts.Health))
}
