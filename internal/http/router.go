// README: HTTP route registration.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"relay/internal/http/middleware"
	"relay/internal/metrics"
)

func (s *Server) registerRoutes(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := r.Group("/api")

	quotes := api.Group("/quotes")
	quotes.POST("/package", s.limited(s.quotes.Package)...)
	quotes.POST("/ride", s.limited(s.quotes.Ride)...)

	api.GET("/geocode", s.geocode.Lookup)
	api.GET("/resources/:id", s.resources.Get)

	authed := api.Group("", middleware.RequireCaller())

	resources := authed.Group("/resources")
	resources.POST("", s.limited(s.resources.Publish)...)
	resources.POST("/:id/close", s.resources.Close)
	resources.GET("/:id/requests", s.resources.ListRequests)
	resources.POST("/:id/requests", s.limited(s.resources.Propose)...)

	requests := authed.Group("/requests")
	requests.GET("/:id", s.requests.Get)
	requests.POST("/:id/accept", s.requests.Accept)
	requests.POST("/:id/reject", s.requests.Reject)
	requests.POST("/:id/cancel", s.requests.Cancel)

	authed.GET("/conversations/:userID", s.conversations.With)
	authed.GET("/notifications", s.notifications.List)
}

// limited prefixes h with the rate limiter when one is configured.
func (s *Server) limited(h gin.HandlerFunc) []gin.HandlerFunc {
	if s.limiter == nil {
		return []gin.HandlerFunc{h}
	}
	return []gin.HandlerFunc{s.limiter.Handler(), h}
}
