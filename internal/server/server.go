package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tasktracker/internal/cache"
	"tasktracker/internal/config"
	"tasktracker/internal/handler"
	"tasktracker/internal/middleware"
	"tasktracker/internal/ratelimit"
	"tasktracker/internal/repository"
	"tasktracker/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type Server struct {
	Engine *gin.Engine
	DB     *gorm.DB
	Config *config.Config

	startedAt time.Time
}

func Init(cfg *config.Config) (*Server, error) {
	var (
		db       *gorm.DB
		taskRepo repository.TaskRepositoryInterface
		userRepo repository.UserRepositoryInterface
	)

	if cfg.DemoMode {
		// Demo mode keeps everything in process memory, no database needed
		log.Println("⚠️  Running in demo mode, data is not persisted")
		taskRepo = repository.NewMemoryTaskRepository()
		userRepo = repository.NewMemoryUserRepository()
	} else {
		dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
			cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName,
		)
		var err error
		db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
		if err != nil {
			return nil, fmt.Errorf("❌ failed to connect to DB: %w", err)
		}
		log.Println("✅ Connected to database")

		taskRepo = repository.NewTaskRepository(db)
		userRepo = repository.NewUserRepository(db)
	}

	// Optional Redis features: stats cache and rate limiting
	var (
		statsCache service.StatsCache
		limiter    *ratelimit.Limiter
	)
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		statsCache = cache.New(redisClient, "tasktracker:", cache.DefaultTTL)
		limiter = ratelimit.NewLimiter(redisClient, "tasktracker:ratelimit:")
		log.Println("✅ Redis connected, stats cache and rate limiting enabled")
	}

	// Initialize services
	taskService := service.NewTaskService(taskRepo, nil)
	statsService := service.NewStatsService(taskRepo, statsCache, nil)

	// Initialize handlers
	userHandler := handler.NewUserHandler(userRepo)
	taskHandler := handler.NewTaskHandler(taskService, statsService)

	// Setup Gin
	r := gin.Default()
	r.Use(middleware.Metrics())
	r.Use(ratelimit.Middleware(limiter, cfg.RateLimitRequests, cfg.RateLimitWindow))

	s := &Server{
		Engine:    r,
		DB:        db,
		Config:    cfg,
		startedAt: time.Now(),
	}

	r.GET("/api/health", s.health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Public routes
	r.POST("/api/auth/register", userHandler.Register)
	r.POST("/api/auth/login", userHandler.Login)

	// Protected routes - require authentication
	authorized := r.Group("/api")
	authorized.Use(middleware.JWTAuthMiddleware(cfg.JWTSecret))
	{
		authorized.GET("/auth/me", userHandler.Me)
		authorized.PUT("/user/profile", userHandler.UpdateProfile)
		authorized.PUT("/user/password", userHandler.ChangePassword)

		authorized.GET("/tasks", taskHandler.List)
		authorized.POST("/tasks", taskHandler.Create)
		authorized.GET("/tasks/stats/overview", taskHandler.Stats)
		authorized.GET("/tasks/:id", taskHandler.GetByID)
		authorized.PUT("/tasks/:id", taskHandler.Update)
		authorized.DELETE("/tasks/:id", taskHandler.Delete)
	}

	return s, nil
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "OK",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(s.startedAt).Seconds(),
	})
}

func (s *Server) Run() {
	srv := &http.Server{
		Addr:    ":" + s.Config.ServerPort,
		Handler: s.Engine,
	}

	go func() {
		log.Printf("🚀 Server running on port %s\n", s.Config.ServerPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ Failed to listen: %s\n", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("🛑 Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("❌ Server forced to shutdown: %s", err)
	}

	log.Println("✅ Server exited properly")
}
