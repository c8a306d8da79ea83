package router

import (
	"github.com/checkmaster/backend/internal/interfaces/http/handler"
	"github.com/gin-gonic/gin"
)

// Handlers are the HTTP handlers served by the API
type Handlers struct {
	Auth       *handler.AuthHandler
	Conference *handler.ConferenceHandler
	Dashboard  *handler.DashboardHandler
	Users      *handler.UserHandler
	Branches   *handler.BranchHandler
}

// Guards are the middleware chains placed in front of route groups
type Guards struct {
	// Authenticated runs before every route except login: token validation, actor loading
	Authenticated []gin.HandlerFunc
	// Credentials throttles the routes that verify a password
	Credentials gin.HandlerFunc
	// Upload bounds the size of invoice uploads
	Upload gin.HandlerFunc
}

// RegisterAPI registers every API route group on r
func RegisterAPI(r *Router, h Handlers, g Guards) {
	credentials := orPassThrough(g.Credentials)
	upload := orPassThrough(g.Upload)

	authRoutes := NewDomainGroup("auth", "/auth")
	authRoutes.POST("/login", credentials, h.Auth.Login)

	sessionRoutes := NewDomainGroup("session", "/auth").Use(g.Authenticated...)
	sessionRoutes.GET("/me", h.Auth.Me)
	sessionRoutes.POST("/logout", h.Auth.Logout)

	conf := h.Conference
	conferenceRoutes := NewDomainGroup("conference", "/conference").Use(g.Authenticated...)
	conferenceRoutes.GET("/workspace", conf.GetWorkspace)
	conferenceRoutes.POST("/staging", upload, conf.StageInvoices)
	conferenceRoutes.DELETE("/staging/:access_key", conf.RemoveStaged)
	conferenceRoutes.POST("/batches", conf.StartConference)
	conferenceRoutes.GET("/active", conf.GetActive)
	conferenceRoutes.DELETE("/active", conf.Discard)
	conferenceRoutes.GET("/active/progress", conf.Progress)
	conferenceRoutes.POST("/active/scans", conf.Scan)
	conferenceRoutes.POST("/active/items/:item_id/reset", conf.ResetItem)
	conferenceRoutes.POST("/active/finalize", conf.Finalize)
	conferenceRoutes.POST("/active/approve", credentials, conf.Approve)
	conferenceRoutes.POST("/active/reject", conf.Reject)
	conferenceRoutes.POST("/active/pause", conf.Pause)
	conferenceRoutes.GET("/paused", conf.ListPaused)
	conferenceRoutes.POST("/paused/:id/resume", conf.Resume)
	conferenceRoutes.DELETE("/paused/:id", conf.DeletePaused)
	conferenceRoutes.GET("/history", conf.ListHistory)
	conferenceRoutes.GET("/history/:id", conf.GetHistory)
	conferenceRoutes.GET("/history/:id/report", conf.Report)

	dashboardRoutes := NewDomainGroup("dashboard", "/dashboard").Use(g.Authenticated...)
	dashboardRoutes.GET("/stats", h.Dashboard.Stats)

	userRoutes := NewDomainGroup("users", "/users").Use(g.Authenticated...)
	userRoutes.GET("", h.Users.List)
	userRoutes.POST("", h.Users.Create)
	userRoutes.PUT("/:id/password", h.Users.ResetPassword)
	userRoutes.DELETE("/:id", h.Users.Delete)

	branchRoutes := NewDomainGroup("branches", "/branches").Use(g.Authenticated...)
	branchRoutes.GET("", h.Branches.List)
	branchRoutes.POST("", h.Branches.Create)
	branchRoutes.GET("/origin", h.Branches.Origin)
	branchRoutes.DELETE("/:id", h.Branches.Delete)

	r.Register(authRoutes).
		Register(sessionRoutes).
		Register(conferenceRoutes).
		Register(dashboardRoutes).
		Register(userRoutes).
		Register(branchRoutes)
}

func orPassThrough(mw gin.HandlerFunc) gin.HandlerFunc {
	if mw == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return mw
}
