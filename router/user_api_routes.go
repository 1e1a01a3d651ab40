package router

import "github.com/gin-gonic/gin"

func setUserAPIRoutes(r gin.IRoutes, opts Options) {
	r.GET("/user/profile", requireToken(opts), currentUserHandler(opts))
}
