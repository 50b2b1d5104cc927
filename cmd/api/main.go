package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "requestdesk/api/swagger" // swagger docs
	"requestdesk/internal/cache"
	"requestdesk/internal/config"
	"requestdesk/internal/database"
	"requestdesk/internal/event"
	"requestdesk/internal/handler"
	"requestdesk/internal/logging"
	"requestdesk/internal/metrics"
	"requestdesk/internal/middleware"
	"requestdesk/internal/repository"
	"requestdesk/internal/service"
	"requestdesk/internal/storage"
	"requestdesk/internal/websocket"
)

// @title           Request Desk API
// @version         1.0
// @description     Job, venue, transport and resource requests with review and approval workflow.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Config failed: %v", err)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)
	gin.SetMode(cfg.Server.Mode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewConnection(cfg.Database.DSN(), cfg.Server.Mode == gin.DebugMode)
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
	log.Info("Connected to PostgreSQL successfully.")

	wsHub := websocket.NewHub()
	go wsHub.Run(ctx)

	var (
		store  cache.Store     = cache.NewMemoryStore()
		events event.Publisher = event.NewHubPublisher(wsHub)
	)
	if cfg.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatalf("Redis connection failed: %v", err)
		}
		defer rdb.Close()

		store = cache.NewRedisStore(rdb)
		events = event.NewRedisPublisher(rdb, cfg.Redis.Channel)
		go func() {
			if err := event.Relay(ctx, rdb, cfg.Redis.Channel, wsHub); err != nil && !errors.Is(err, context.Canceled) {
				log.WithError(err).Error("event relay stopped")
			}
		}()
		log.WithField("addr", cfg.Redis.Addr()).Info("Using redis for cache and events")
	}

	files := storage.Disabled()
	if cfg.Minio.Enabled {
		mc, err := storage.NewMinIOClient(ctx, cfg.Minio.Endpoint, cfg.Minio.AccessKey, cfg.Minio.SecretKey, cfg.Minio.Bucket, cfg.Minio.UseSSL)
		if err != nil {
			log.Fatalf("MinIO connection failed: %v", err)
		}
		files = mc
	}

	// Repository -> Service -> Handler
	repos := repository.New(db)
	userService := service.NewUserService(repos.Users, repos.Departments, store, cfg.JWT.Secret, cfg.JWT.AccessTTL, cfg.JWT.RefreshTTL)
	requestService := service.NewRequestService(repos, store, events, files, cfg.Cache.TTL)
	departmentService := service.NewDepartmentService(repos.Departments, repos.Requests, repos.Users, store, cfg.Cache.TTL)
	reportService := service.NewReportService(repos.Requests, repos.Users, store, cfg.Cache.TTL)
	catalogService := service.NewCatalogService(repos.Catalog, repos.Departments)
	notificationService := service.NewNotificationService(repos.Notifications, store, events, cfg.Cache.TTL)

	if err := handler.RegisterValidators(); err != nil {
		log.Fatalf("Validator setup failed: %v", err)
	}
	cookies := middleware.CookieOptions{
		Secure:     cfg.Server.Mode == gin.ReleaseMode,
		AccessTTL:  cfg.JWT.AccessTTL,
		RefreshTTL: cfg.JWT.RefreshTTL,
	}

	router := gin.New()
	router.Use(gin.Recovery(), logging.Middleware(), metrics.Middleware())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.Server.CORSOrigins
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/metrics", gin.WrapH(metrics.Handler()))
	router.GET("/health", func(c *gin.Context) {
		if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "DOWN"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "OK"})
	})

	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, func(token string) (uuid.UUID, error) {
			user, err := userService.Authenticate(c.Request.Context(), token)
			if err != nil {
				return uuid.Nil, err
			}
			return user.ID, nil
		})
	})

	api := router.Group("/api")
	protected := api.Group("", middleware.Auth(userService))

	handler.NewUserHandler(userService, cookies).RegisterRoutes(api, protected)
	handler.NewRequestHandler(requestService).RegisterRoutes(protected)
	handler.NewDepartmentHandler(departmentService).RegisterRoutes(protected)
	handler.NewReportHandler(reportService).RegisterRoutes(protected)
	handler.NewCatalogHandler(catalogService).RegisterRoutes(protected)
	handler.NewNotificationHandler(notificationService).RegisterRoutes(protected)

	srv := &http.Server{
		Addr:              cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Infof("Server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Graceful shutdown failed")
	}
	<-wsHub.Done()
}
