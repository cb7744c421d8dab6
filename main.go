package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"stockstream/config"
	"stockstream/routes"
	"stockstream/scheduler"
	"stockstream/services/alerts"
	"stockstream/services/datafetcher"
	"stockstream/services/notifier"
	"stockstream/services/predictor"
	"stockstream/services/pubsub"
	"stockstream/services/realtime"
	"stockstream/services/storage"
)

func main() {
	log.Println("==============================================")
	log.Println("  Stockstream Backend - Starting...")
	log.Println("==============================================")

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// External collaborators. Both are optional; absence degrades to a
	// disabled archive/broker, never a dead process.
	initCtx, cancelInit := context.WithTimeout(context.Background(), 15*time.Second)
	archive, err := storage.Connect(initCtx, cfg.MongoURI)
	if err != nil {
		log.Printf("MongoDB connection failed, archive disabled: %v", err)
		archive = nil
	}
	broker, err := pubsub.Connect(initCtx, cfg.RedisURL)
	if err != nil {
		log.Printf("Redis connection failed, broker publishing disabled: %v", err)
		broker = nil
	}
	cancelInit()

	// Core services.
	hub := realtime.NewHub(cfg.MaxClients, cfg.SendTimeout)
	engine := alerts.NewEngine(cfg.MaxAlertsPerUser)
	quotes := datafetcher.NewStore()
	fetcher := datafetcher.NewFetcher(cfg.AlphaVantageAPIKey)

	jobScheduler := scheduler.NewScheduler(scheduler.Options{
		Config:    cfg,
		Hub:       hub,
		Engine:    engine,
		Quotes:    quotes,
		Fetcher:   fetcher,
		Predictor: predictor.NewPredictor(fetcher),
		Notifier:  notifier.NewTelegram(cfg.TelegramBotToken),
		Archive:   archive,
		Broker:    broker,
	})

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())
	router.Use(requestLogger())

	setupHealthEndpoints(router, archive, broker, hub)
	routes.SetupRoutes(router, hub, engine, quotes, jobScheduler)

	server := &http.Server{
		Addr:              "0.0.0.0:" + cfg.Port,
		Handler:           router,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1 MB
	}

	go func() {
		log.Printf("Server listening on 0.0.0.0:%s", cfg.Port)
		log.Println("==============================================")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	jobScheduler.Start()

	gracefulShutdown(server, jobScheduler, hub, archive, broker)
}

// setupHealthEndpoints sets up liveness and status endpoints.
func setupHealthEndpoints(router *gin.Engine, archive *storage.Archive,
	broker *pubsub.Publisher, hub *realtime.Hub) {

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "Real-Time Stock Streaming API",
			"status":  "running",
		})
	})

	router.GET("/health", func(c *gin.Context) {
		mongoStatus := "disabled"
		if archive != nil {
			mongoStatus = "connected"
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			if err := archive.Ping(ctx); err != nil {
				mongoStatus = "disconnected"
			}
			cancel()
		}

		redisStatus := "disabled"
		if broker != nil {
			redisStatus = "connected"
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			if err := broker.Ping(ctx); err != nil {
				redisStatus = "disconnected"
			}
			cancel()
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"services": gin.H{
				"mongodb":     mongoStatus,
				"redis":       redisStatus,
				"subscribers": hub.ClientCount(),
			},
		})
	})
}

// corsMiddleware returns a CORS middleware handler.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}

		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization, X-Requested-With")
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// requestLogger returns a request logging middleware.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Health checks are noise.
		path := c.Request.URL.Path
		if path == "/health" {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		duration := time.Since(start)

		if c.Writer.Status() >= 400 || duration > 1*time.Second {
			log.Printf("%s %s %d %v", c.Request.Method, path, c.Writer.Status(), duration)
		}
	}
}

// gracefulShutdown stops the scheduler, tears down subscribers and closes
// external connections on SIGINT/SIGTERM.
func gracefulShutdown(server *http.Server, jobScheduler *scheduler.Scheduler,
	hub *realtime.Hub, archive *storage.Archive, broker *pubsub.Publisher) {

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	sig := <-quit
	log.Printf("Received signal %v, shutting down gracefully...", sig)

	jobScheduler.Stop()
	hub.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}
	if archive != nil {
		if err := archive.Disconnect(ctx); err != nil {
			log.Printf("MongoDB disconnect error: %v", err)
		}
	}
	if broker != nil {
		if err := broker.Close(); err != nil {
			log.Printf("Redis close error: %v", err)
		}
	}

	log.Println("Server shutdown completed")
}
