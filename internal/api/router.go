package api

import (
	"github.com/gin-gonic/gin"

	"github.com/SujalTiwari1/dtrepo/internal/api/handlers"
	"github.com/SujalTiwari1/dtrepo/internal/api/middleware"
	"github.com/SujalTiwari1/dtrepo/internal/core"
)

// NewRouter assembles the gin engine: public auth routes, authenticated
// job routes, and the staff/admin queue surface. filesRoot, when set, is
// served statically so stored blob URLs resolve.
func NewRouter(auth *middleware.AuthMiddleware, jobs *handlers.JobHandler, slots *handlers.SlotHandler, filesRoot, filesURL string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	authGroup := r.Group("/api/auth")
	{
		authGroup.POST("/register", auth.RegisterHandler)
		authGroup.POST("/login", auth.LoginHandler)
		authGroup.POST("/logout", auth.LogoutHandler)
		authGroup.GET("/status", auth.StatusHandler)
	}

	apiGroup := r.Group("/api")
	apiGroup.Use(auth.RequireAuth())
	jobs.RegisterRoutes(apiGroup)

	staffGroup := r.Group("/api")
	staffGroup.Use(auth.RequireAuth(), auth.RequireRole(core.RoleStaff, core.RoleAdmin))
	jobs.RegisterStaffRoutes(staffGroup)
	slots.RegisterRoutes(staffGroup)

	if filesRoot != "" && filesURL != "" {
		r.Static(filesURL, filesRoot)
	}

	return r
}
