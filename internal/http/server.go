// README: API gateway; builds the gin engine, its middleware chain and delegates to module services.
package http

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"relay/internal/http/handlers"
	"relay/internal/http/middleware"
	"relay/internal/maps"
	"relay/internal/modules/conversation"
	"relay/internal/modules/matching"
	"relay/internal/modules/quote"
)

type ServerDeps struct {
	Quotes        *quote.Service
	Matching      *matching.Service
	Conversations *conversation.Service
	Feed          handlers.Feed
	Geocoder      *maps.Geocoder
	Log           logrus.FieldLogger
	CORSOrigins   []string
	// Limiter guards the write endpoints. Nil disables rate limiting.
	Limiter *middleware.RateLimiter
}

type Server struct {
	quotes        *handlers.QuoteHandler
	resources     *handlers.ResourceHandler
	requests      *handlers.RequestHandler
	conversations *handlers.ConversationHandler
	notifications *handlers.NotificationHandler
	geocode       *handlers.GeocodeHandler
	log           logrus.FieldLogger
	corsOrigins   []string
	limiter       *middleware.RateLimiter
}

func NewServer(deps ServerDeps) *Server {
	log := deps.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Server{
		quotes:        handlers.NewQuoteHandler(deps.Quotes),
		resources:     handlers.NewResourceHandler(deps.Matching),
		requests:      handlers.NewRequestHandler(deps.Matching),
		conversations: handlers.NewConversationHandler(deps.Conversations),
		notifications: handlers.NewNotificationHandler(deps.Feed),
		geocode:       handlers.NewGeocodeHandler(deps.Geocoder),
		log:           log,
		corsOrigins:   deps.CORSOrigins,
		limiter:       deps.Limiter,
	}
}

func (s *Server) Routes() http.Handler {
	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.Recovery(s.log),
		middleware.Logging(s.log),
		middleware.Metrics(),
		cors.New(corsConfig(s.corsOrigins)),
		middleware.Identity(),
	)
	_ = r.SetTrustedProxies(nil)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "route not found", "path": c.Request.URL.Path})
	})

	s.registerRoutes(r)
	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", middleware.UserIDHeader, middleware.RequestIDHeader},
		ExposeHeaders: []string{middleware.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	return cfg
}
