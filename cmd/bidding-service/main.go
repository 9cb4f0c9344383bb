package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	redisClient "github.com/go-redis/redis/v8"
	_ "github.com/go-sql-driver/mysql"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"

	"marketplace-system/internal/api/handlers"
	apiMiddleware "marketplace-system/internal/api/middleware"
	"marketplace-system/internal/config"
	"marketplace-system/internal/domain"
	"marketplace-system/internal/infrastructure/leader"
	"marketplace-system/internal/infrastructure/mysql"
	"marketplace-system/internal/infrastructure/redis"
	"marketplace-system/internal/services"
	"marketplace-system/pkg/logger"
)

func main() {
	log := logger.New()
	log.Info("Starting Bidding Service")

	cfg, err := config.Load()
	if err != nil {
		log.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	// Initialize Redis
	rdb := redisClient.NewClient(&redisClient.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	log.Info("Connected to Redis", "address", cfg.Redis.Address)

	// Initialize MySQL
	db, err := sql.Open("mysql", cfg.MySQL.DSN)
	if err != nil {
		log.Error("Failed to connect to MySQL", "error", err)
		os.Exit(1)
	}
	defer func(db *sql.DB) {
		if err := db.Close(); err != nil {
			log.Error("Failed to close MySQL connection", "error", err)
		}
	}(db)

	db.SetMaxOpenConns(cfg.MySQL.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MySQL.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.MySQL.ConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		log.Error("Failed to ping MySQL", "error", err)
		os.Exit(1)
	}
	log.Info("Connected to MySQL")

	// Initialize repositories
	listingRepo := mysql.NewMySQLListingRepository(db)
	bidRepo := mysql.NewMySQLBidRepository(db)
	messageRepo := mysql.NewMySQLMessageRepository(db)

	// Initialize Redis based components
	stateCache := redis.NewStateCache(rdb)
	eventPublisher := redis.NewEventPublisher(rdb)
	leaderElection := leader.NewRedisLeaderElection(rdb, cfg.Leader.TTL)

	// Initialize services
	engine := services.NewBiddingEngine(listingRepo, bidRepo, stateCache,
		eventPublisher, domain.SystemClock, log)
	messageService := services.NewMessageService(messageRepo, listingRepo,
		domain.SystemClock, log)
	sweeper := services.NewExpirySweeper(engine, listingRepo, leaderElection,
		cfg.Sweep.Interval, cfg.Instance.ID, domain.SystemClock, log)

	// Initialize Echo
	e := echo.New()
	e.HideBanner = true

	e.Use(echoMiddleware.RequestID())
	e.Use(echoMiddleware.Logger())
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.CORSWithConfig(echoMiddleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{
			echo.GET, echo.HEAD, echo.PUT, echo.PATCH,
			echo.POST, echo.DELETE, echo.OPTIONS,
		},
		AllowHeaders: []string{
			echo.HeaderOrigin,
			echo.HeaderContentType,
			echo.HeaderAccept,
			echo.HeaderAuthorization,
			apiMiddleware.HeaderUserID,
		},
	}))

	// Initialize handlers
	bidHandler := handlers.NewBidHandler(engine, log)
	messageHandler := handlers.NewMessageHandler(messageService, log)

	// API routes
	bidAPI := e.Group("/api/bid", apiMiddleware.RequireUser())
	bidAPI.POST("/place-bid", bidHandler.PlaceBid)
	bidAPI.GET("/product/:productId", bidHandler.GetProductBids)
	bidAPI.GET("/user-bids", bidHandler.GetUserBids)
	bidAPI.POST("/enable/:productId", bidHandler.EnableBidding)

	messageAPI := e.Group("/api/message", apiMiddleware.RequireUser())
	messageAPI.POST("/send", messageHandler.SendMessage)
	messageAPI.GET("", messageHandler.GetMessages)
	messageAPI.PATCH("/:messageId/read", messageHandler.MarkRead)

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"status":    "ok",
			"service":   "bidding-service",
			"timestamp": time.Now().Format(time.RFC3339),
		})
	})

	// Start the expiry sweep
	if err := sweeper.Start(context.Background()); err != nil {
		log.Error("Failed to start expiry sweeper", "error", err)
		os.Exit(1)
	}

	// Keep trying for sweep leadership
	go func() {
		for {
			became, err := leaderElection.BecomeLeader(context.Background(), cfg.Instance.ID)
			if err != nil {
				log.Error("Failed to attempt leadership", "error", err)
				time.Sleep(5 * time.Second)
				continue
			}
			if became {
				log.Info("Became sweep leader", "instance_id", cfg.Instance.ID)
			}
			time.Sleep(10 * time.Second)
		}
	}()

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	go func() {
		if err := e.Start(serverAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()
	log.Info("Bidding service listening", "address", serverAddr)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down bidding service...")

	ctx, cancel = context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := sweeper.Stop(); err != nil {
		log.Error("Failed to stop expiry sweeper", "error", err)
	}
	if err := leaderElection.ReleaseLeadership(ctx, cfg.Instance.ID); err != nil {
		log.Error("Failed to release leadership", "error", err)
	}
	if err := e.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}

	log.Info("Bidding service stopped")
}
