package router

import (
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
)

func SetRouter(r *gin.Engine, opts Options) {
	setSystemRoutes(r, opts)

	api := r.Group("/api")
	api.Use(gzip.Gzip(gzip.DefaultCompression))
	setToolsAPIRoutes(api, opts)
	setAuthAPIRoutes(api, opts)
	setUserAPIRoutes(api, opts)
	setGenerateAPIRoutes(api, opts)
	setWaitlistAPIRoutes(api, opts)
}
