package handler

import (
	"github.com/bayramdkmn/notepad-intern/middleware"
	"github.com/bayramdkmn/notepad-intern/model"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Handlers struct {
	Auth   *AuthHandler
	Notes  *NotesHandler
	Tags   *TagsHandler
	System *SystemHandler
}

// RegisterRoutes mounts the public and gated API on router. gate is the
// authentication middleware.
func RegisterRoutes(router *gin.Engine, h Handlers, gate gin.HandlerFunc) {
	router.GET("/check/healthy", h.System.Healthy)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	system := router.Group("/system")
	{
		system.GET("/health/detailed", h.System.DetailedHealth)
		system.GET("/metrics", h.System.Metrics)
	}

	auth := router.Group("/auth")
	auth.Use(middleware.NoStoreMiddleware())
	{
		auth.POST("/user/register", h.Auth.Register)
		auth.POST("/user/login", h.Auth.Login)
		auth.POST("/refresh-token", h.Auth.Refresh)
		auth.POST("/users/request-password-reset", h.Auth.RequestPasswordReset)
		auth.POST("/users/verify-reset-code", h.Auth.VerifyResetCode)
		auth.PUT("/users/reset-password-with-token", h.Auth.ResetPasswordWithToken)

		users := auth.Group("/users")
		users.Use(gate)
		{
			users.GET("/me", h.Auth.Me)
			users.PATCH("/update-user", h.Auth.UpdateUser)
			users.PUT("/reset-password", h.Auth.ChangePassword)
			users.POST("/logout", h.Auth.Logout)
		}
	}

	notes := router.Group("/notes")
	notes.Use(gate)
	{
		notes.GET("/", h.Notes.List)
		notes.POST("/", h.Notes.Create)
		notes.GET("/search", h.Notes.Search)
		notes.GET("/stats", h.Notes.Stats)
		notes.GET("/featured", h.Notes.ListFeatured)
		notes.GET("/favorites", h.Notes.ListFavorites)
		notes.GET("/pinned", h.Notes.ListPinned)
		notes.GET("/archived", h.Notes.ListArchived)
		notes.GET("/trash", h.Notes.ListTrash)
		notes.GET("/by-tag/:name", h.Notes.ListByTag)
		notes.PUT("/soft-delete-multiple", h.Notes.SoftDeleteMany)
		notes.DELETE("/delete-selected", h.Notes.DeleteMany)

		notes.GET("/:id", h.Notes.Get)
		notes.PATCH("/:id", h.Notes.Update)
		notes.DELETE("/:id", h.Notes.Delete)
		notes.DELETE("/:id/soft", h.Notes.SoftDelete)
		notes.PUT("/:id/active", h.Notes.SetActive)
		notes.PUT("/:id/favorite", h.Notes.SetFavorite)
		notes.PUT("/:id/archive", h.Notes.ToggleArchive)
		notes.PATCH("/:id/pin", h.Notes.TogglePin)
		notes.GET("/:id/versions", h.Notes.Versions)
		notes.POST("/:id/summary", h.Notes.Summary)
		notes.POST("/:id/tags/:tag_id", h.Notes.AttachTag)
		notes.DELETE("/:id/tags/:tag_id", h.Notes.DetachTag)
	}

	tags := router.Group("/tags")
	tags.Use(gate)
	{
		tags.POST("/", h.Tags.Create)
		tags.POST("/global", middleware.RequireRole(model.RoleAdmin), h.Tags.CreateGlobal)
		tags.GET("/", h.Tags.List)
		tags.GET("/global", h.Tags.ListGlobal)
		tags.GET("/search", h.Tags.Search)
		tags.POST("/suggest/:note_id", h.Tags.Suggest)
		tags.GET("/:id", h.Tags.Get)
		tags.PUT("/:id", h.Tags.Rename)
		tags.DELETE("/:id", h.Tags.Delete)
	}
}
