// README: Entry point; loads config, wires stores, notification sinks and services, starts the HTTP server.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"relay/internal/config"
	httptransport "relay/internal/http"
	"relay/internal/http/handlers"
	"relay/internal/http/middleware"
	"relay/internal/infra"
	"relay/internal/logging"
	"relay/internal/maps"
	"relay/internal/modules/conversation"
	"relay/internal/modules/distance"
	"relay/internal/modules/matching"
	"relay/internal/modules/notification"
	"relay/internal/modules/pricing"
	"relay/internal/modules/quote"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatal(err)
	}
	log := logging.New(cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		matchingRepo matching.Repository
		convRepo     conversation.Repository
	)
	switch cfg.Store {
	case config.StoreMemory:
		log.Warn("using in-memory store; data is lost on restart")
		matchingRepo = matching.NewMemStore()
		convRepo = conversation.NewMemStore()
	default:
		dbPool, err := infra.NewDB(ctx, cfg.DB.DSN)
		if err != nil {
			log.WithError(err).Fatal("database init")
		}
		defer dbPool.Close()
		tx := infra.NewTxRunner(dbPool)
		matchingRepo = matching.NewStore(tx)
		convRepo = conversation.NewStore(tx)
	}

	sinks := notification.Multi{notification.NewLogNotifier(log)}
	var feed handlers.Feed
	if cfg.Redis.Addr != "" {
		redisClient := infra.NewRedis(cfg.Redis.Addr)
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.WithError(err).Warn("redis unreachable; notification feed may fail")
		}
		redisFeed := notification.NewRedisFeed(redisClient, cfg.Redis.FeedMaxLen)
		sinks = append(sinks, redisFeed)
		feed = redisFeed
	}
	if cfg.AMQP.URL != "" {
		conn, err := infra.NewRabbitMQ(cfg.AMQP.URL)
		if err != nil {
			log.WithError(err).Fatal("rabbitmq init")
		}
		defer conn.Close()
		publisher, err := notification.NewAMQPPublisher(conn, cfg.AMQP.Exchange)
		if err != nil {
			log.WithError(err).Fatal("notification publisher init")
		}
		defer publisher.Close()
		sinks = append(sinks, publisher)
	}

	geocoder, err := maps.NewGeocoder(cfg.Maps.APIKey)
	if err != nil {
		log.WithError(err).Fatal("geocoder init")
	}

	quoteSvc := quote.NewService(distance.NewResolver(), pricing.NewService(), log)
	convSvc := conversation.NewService(convRepo)
	matchingSvc := matching.NewService(matchingRepo, quoteSvc, sinks, convSvc, log)

	limiter := middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst, log)
	go runLimiterCleanup(ctx, limiter)

	handler := httptransport.NewServer(httptransport.ServerDeps{
		Quotes:        quoteSvc,
		Matching:      matchingSvc,
		Conversations: convSvc,
		Feed:          feed,
		Geocoder:      geocoder,
		Log:           log,
		CORSOrigins:   cfg.HTTP.CORSOrigins,
		Limiter:       limiter,
	})

	server := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           handler.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	log.WithFields(logrus.Fields{"addr": cfg.HTTP.Addr, "store": cfg.Store}).Info("relay api listening")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.WithError(err).Fatal("http server")
	}
}

func runLimiterCleanup(ctx context.Context, limiter *middleware.RateLimiter) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			limiter.Cleanup(10 * time.Minute)
		}
	}
}
