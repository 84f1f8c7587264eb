package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/lc-2025/freenotes/internal/config"
	"github.com/lc-2025/freenotes/internal/http/handler"
	httpmiddleware "github.com/lc-2025/freenotes/internal/http/middleware"
)

// NewRouter wires Gin routes and middleware. Whether a route is public is
// decided here, at wiring time: the guard middleware only runs on the
// groups it is attached to.
func NewRouter(cfg config.Config, authHandler *handler.AuthHandler, notesHandler *handler.NotesHandler, authMiddleware *httpmiddleware.Auth, rateLimiter *httpmiddleware.RateLimiter) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(httpmiddleware.RequestLogger(nil))
	if rateLimiter != nil {
		r.Use(rateLimiter.Handler())
	}
	r.Use(httpmiddleware.CORS(cfg))
	r.Use(otelgin.Middleware(cfg.ServiceName))

	authGroup := r.Group("/auth")
	{
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/logout", authHandler.Logout)
		authGroup.POST("/refresh", authMiddleware.RequireRefreshCookie, authHandler.Refresh)
		authGroup.GET("/me", authMiddleware.RequireAccess, authHandler.Me)
	}

	notes := r.Group("/notes", authMiddleware.RequireAccess)
	{
		notes.GET("", notesHandler.List)
		notes.POST("", notesHandler.Create)
		notes.GET("/:id", notesHandler.Get)
		notes.PUT("/:id", notesHandler.Update)
		notes.DELETE("/:id", notesHandler.Delete)
	}

	r.GET("/tags", authMiddleware.RequireAccess, notesHandler.Tags)

	return r
}
