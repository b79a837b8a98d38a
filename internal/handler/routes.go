package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/jbernadas/islalist-pwa/internal/middleware"
	"github.com/jbernadas/islalist-pwa/internal/models"
)

// Handlers bundles every HTTP handler mounted under the API prefix.
type Handlers struct {
	Auth          *AuthHandler
	Locations     *LocationHandler
	Categories    *CategoryHandler
	Listings      *ListingHandler
	Announcements *AnnouncementHandler
	Moderation    *ModerationHandler
}

// RegisterRoutes mounts the API on group. Write and moderation routes require a bearer token.
func RegisterRoutes(group *gin.RouterGroup, h Handlers, tokens middleware.TokenValidator) {
	requireAuth := middleware.JWT(tokens)

	auth := group.Group("/auth")
	auth.POST("/login", h.Auth.Login)
	auth.GET("/me", requireAuth, h.Auth.Me)

	locations := group.Group("/locations")
	locations.GET("/provinces", h.Locations.Provinces)
	locations.GET("/provinces/:code/municipalities", h.Locations.Municipalities)
	locations.GET("/municipalities/:code/barangays", h.Locations.Barangays)

	group.GET("/categories", h.Categories.List)

	listings := group.Group("/listings")
	listings.GET("", h.Listings.List)
	listings.GET("/mine", requireAuth, h.Listings.Mine)
	listings.GET("/:id", h.Listings.Get)
	listings.POST("", requireAuth, h.Listings.Create)
	listings.PUT("/:id", requireAuth, h.Listings.Update)
	listings.DELETE("/:id", requireAuth, h.Listings.Delete)
	listings.POST("/:id/sold", requireAuth, h.Listings.MarkSold)

	announcements := group.Group("/announcements")
	announcements.GET("", h.Announcements.List)
	announcements.GET("/mine", requireAuth, h.Announcements.Mine)
	announcements.GET("/:id", h.Announcements.Get)
	announcements.POST("", requireAuth, h.Announcements.Create)
	announcements.PUT("/:id", requireAuth, h.Announcements.Update)
	announcements.DELETE("/:id", requireAuth, h.Announcements.Delete)

	mod := group.Group("/mod", requireAuth)
	mod.GET("/status", h.Moderation.Status)
	mod.GET("/dashboard", h.Moderation.Dashboard)
	mod.GET("/users", h.Moderation.Users)
	mod.GET("/listings", h.Moderation.Listings)
	mod.GET("/listings/export", h.Moderation.ExportListings)
	mod.PATCH("/listings/:id/status", h.Moderation.UpdateListingStatus)
	mod.DELETE("/listings/:id", h.Moderation.DeleteListing)
	mod.GET("/announcements", h.Moderation.Announcements)
	mod.PATCH("/announcements/:id/status", h.Moderation.UpdateAnnouncementStatus)
	mod.DELETE("/announcements/:id", h.Moderation.DeleteAnnouncement)

	admin := group.Group("/admin", requireAuth, middleware.RequireRoles(models.RoleAdmin))
	admin.GET("/locations/check", h.Locations.CheckCodes)
}
