package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	"github.com/pagebound/bookstore-api/internal/cart"
	"github.com/pagebound/bookstore-api/internal/config"
	"github.com/pagebound/bookstore-api/internal/handler"
	"github.com/pagebound/bookstore-api/internal/middleware"
	"github.com/pagebound/bookstore-api/internal/model"
	"github.com/pagebound/bookstore-api/internal/repository"
	"github.com/pagebound/bookstore-api/internal/service"
	"github.com/pagebound/bookstore-api/internal/worker"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		log.Error("load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// PostgreSQL
	poolCfg, err := pgxpool.ParseConfig(cfg.DB.DSN())
	if err != nil {
		log.Error("parse db config", "error", err)
		os.Exit(1)
	}
	poolCfg.MaxConns = cfg.DB.MaxConns

	dbPool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		log.Error("connect to database", "error", err)
		os.Exit(1)
	}
	defer dbPool.Close()

	if err := dbPool.Ping(ctx); err != nil {
		log.Error("ping database", "error", err)
		os.Exit(1)
	}
	log.Info("connected to PostgreSQL")

	// Redis
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Error("connect to Redis", "error", err)
		os.Exit(1)
	}
	log.Info("connected to Redis")

	// RabbitMQ
	amqpConn, err := amqp.Dial(cfg.RabbitMQ.URL)
	if err != nil {
		log.Error("connect to RabbitMQ", "error", err)
		os.Exit(1)
	}
	defer amqpConn.Close()

	amqpCh, err := amqpConn.Channel()
	if err != nil {
		log.Error("open RabbitMQ channel", "error", err)
		os.Exit(1)
	}
	defer amqpCh.Close()

	if err := worker.SetupRabbitMQ(amqpCh); err != nil {
		log.Error("setup RabbitMQ", "error", err)
		os.Exit(1)
	}
	log.Info("connected to RabbitMQ")

	// Repositories
	userRepo := repository.NewUserRepository(dbPool)
	bookRepo := repository.NewBookRepository(dbPool)
	categoryRepo := repository.NewCategoryRepository(dbPool)
	orderRepo := repository.NewOrderRepository(dbPool, bookRepo)

	// Carts live in memory for the duration of a session.
	cartRegistry := cart.NewRegistry()

	// Services
	authSvc := service.NewAuthService(userRepo, cfg.JWT.Secret, cfg.JWT.Expiration)
	catalogSvc := service.NewCatalogService(bookRepo, categoryRepo, redisClient)
	cartSvc := service.NewCartService(bookRepo, cartRegistry)
	orderSvc := service.NewOrderService(orderRepo, bookRepo, userRepo, amqpCh, cfg.Order.ShippingFee)

	// Handlers
	authH := handler.NewAuthHandler(authSvc)
	bookH := handler.NewBookHandler(catalogSvc)
	categoryH := handler.NewCategoryHandler(catalogSvc)
	cartH := handler.NewCartHandler(cartSvc)
	orderH := handler.NewOrderHandler(orderSvc, cartSvc, userRepo)
	healthH := handler.NewHealthHandler(dbPool, redisClient, amqpConn)

	// Worker
	notifier := worker.NewLogNotifier(log)
	confirmationWorker := worker.NewConfirmationWorker(amqpCh, orderRepo, notifier, redisClient, log)

	// Router
	router := gin.Default()
	router.GET("/healthz", healthH.Healthz)
	router.GET("/readyz", healthH.Readyz)

	auth := middleware.AuthMiddleware(cfg.JWT.Secret)
	staffOnly := middleware.RequireRole(model.RoleStaff, model.RoleAdmin)
	adminOnly := middleware.RequireRole(model.RoleAdmin)

	v1 := router.Group("/api/v1")
	{
		authGroup := v1.Group("/auth")
		authGroup.POST("/register", authH.Register)
		authGroup.POST("/login", authH.Login)

		books := v1.Group("/books")
		books.GET("", bookH.Search)
		books.GET("/:id", bookH.GetByID)

		adminBooks := books.Group("", auth, adminOnly)
		adminBooks.POST("", bookH.Create)
		adminBooks.PUT("/:id", bookH.Update)
		adminBooks.DELETE("/:id", bookH.Delete)

		books.PUT("/:id/stock", auth, staffOnly, bookH.SetStock)
		v1.GET("/admin/books", auth, staffOnly, bookH.SearchAll)

		categories := v1.Group("/categories")
		categories.GET("", categoryH.List)

		adminCategories := categories.Group("", auth, adminOnly)
		adminCategories.POST("", categoryH.Create)
		adminCategories.PUT("/:id", categoryH.Update)
		adminCategories.DELETE("/:id", categoryH.Delete)

		v1.GET("/admin/categories", auth, staffOnly, categoryH.ListAll)

		cartGroup := v1.Group("/cart", auth)
		cartGroup.GET("", cartH.GetCart)
		cartGroup.POST("/items", cartH.AddItem)
		cartGroup.POST("/items/:id/increase", cartH.IncreaseItem)
		cartGroup.POST("/items/:id/decrease", cartH.DecreaseItem)
		cartGroup.DELETE("/items/:id", cartH.RemoveItem)
		cartGroup.DELETE("", cartH.Clear)

		orders := v1.Group("/orders", auth)
		orders.POST("", orderH.Checkout)
		orders.GET("", orderH.ListOrders)
		orders.GET("/code/:code", orderH.GetOrderByCode)
		orders.GET("/:id", orderH.GetOrder)
		orders.PUT("/:id/status", staffOnly, orderH.UpdateStatus)
	}

	if err := confirmationWorker.Start(ctx); err != nil {
		log.Error("start confirmation worker", "error", err)
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info("starting HTTP server", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown", "error", err)
	}

	confirmationWorker.Stop()
	time.Sleep(500 * time.Millisecond)
	cancel()
	log.Info("server stopped")
}
