package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"team-tasks/backend/internal/cache"
	"team-tasks/backend/internal/config"
	"team-tasks/backend/internal/database"
	"team-tasks/backend/internal/handlers"
	"team-tasks/backend/internal/invites"
	"team-tasks/backend/internal/middleware"
	"team-tasks/backend/internal/monitoring"
	"team-tasks/backend/internal/repositories"
	"team-tasks/backend/internal/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
	"gorm.io/gorm/logger"
)

// Application holds all application dependencies and state
type Application struct {
	Config      *config.Config
	Pool        *database.DatabasePool
	Store       repositories.Store
	Cache       cache.Cache
	Redis       *redis.Client
	InviteStore *invites.Store
	Metrics     *monitoring.Collector
	Router      *gin.Engine
	Server      *http.Server

	// Services
	Membership      services.MembershipService
	Policy          *services.AccessPolicy
	TaskService     services.TaskService
	AuthService     services.AuthService
	RegisterService services.RegisterService
	InviteService   services.InviteService
	TeamService     services.TeamService
}

func main() {

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("❌ Failed to load configuration: %v", err)
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	app, err := initializeApplication(cfg)
	if err != nil {
		log.Fatalf("❌ Failed to initialize application: %v", err)
	}

	app.setupRoutes()
	app.startServer()
}

func initializeApplication(cfg *config.Config) (*Application, error) {
	app := &Application{
		Config:  cfg,
		Metrics: monitoring.NewCollector(),
	}

	log.Println("🚀 Initializing Team Tasks Backend...")
	log.Printf("📋 Environment: %s", cfg.Server.Environment)

	pool, err := database.NewDatabasePool(&database.PoolConfig{
		DSN:             cfg.GetDatabaseDSN(),
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
		LogLevel:        logger.Warn,
	})
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}
	app.Pool = pool
	log.Println("✅ Database connected and configured")

	migrationConfig := &repositories.MigrationConfig{
		MigrationsPath: "file://migrations",
		DBName:         cfg.Database.Name,
		MaxRetries:     3,
		RetryDelay:     2 * time.Second,
	}
	if err := repositories.RunMigrations(pool.DB, migrationConfig); err != nil {
		return nil, fmt.Errorf("database migration failed: %w", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:         cfg.GetRedisAddr(),
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		MaxRetries:   cfg.Redis.MaxRetries,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Printf("⚠️  Redis unavailable: %v (continuing with memory cache only)", err)
		redisClient = nil
	} else {
		app.Redis = redisClient
		log.Println("✅ Redis connected")
	}

	if redisClient != nil {
		redisCache := cache.NewRedisCacheFromClient(redisClient)
		app.Cache = cache.NewMultiLevelCache(redisCache)
		log.Println("✅ Multi-level cache initialized (Memory L1 + Redis L2)")
	} else {
		app.Cache = cache.NewMemoryCache()
		log.Println("✅ Memory cache initialized (fallback mode)")
	}

	store := repositories.NewGormStore(pool.DB)
	app.Store = store

	app.Membership = services.NewMembershipService(store)
	app.Policy = services.NewAccessPolicy(app.Membership)
	engine := services.NewAssignmentEngine(store, app.Membership, app.Policy)

	app.AuthService = services.NewAuthService(store, cfg.JWT.Secret, cfg.JWT.AccessTTL)
	app.RegisterService = services.NewRegisterService(store)
	app.TeamService = services.NewTeamService(store, app.Membership, app.Policy)

	app.InviteStore = invites.NewStore(app.Membership, cfg.Invite.TTL)
	app.InviteStore.StartSweeper(cfg.Invite.SweepInterval, app.Metrics.RecordInvitesSwept)
	app.InviteService = services.NewInviteService(app.InviteStore, app.RegisterService)

	taskService := services.NewTaskService(store, app.Membership, app.Policy, engine)
	app.TaskService = services.NewCachedTaskService(taskService, app.Cache, app.Policy)
	log.Println("✅ Cached task service initialized")

	log.Println("✅ All services initialized")

	return app, nil
}

func (app *Application) setupRoutes() {
	r := gin.New()

	// Global middleware stack (order matters!)
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(app.Metrics.Middleware())
	r.Use(middleware.RecoveryWithLog())
	r.Use(middleware.SecureHeader())

	// Rate limiting
	rateLimit := rate.Limit(float64(app.Config.RateLimit.RequestsPerMin) / 60.0)
	r.Use(middleware.RateLimiter(rateLimit, app.Config.RateLimit.BurstSize))

	// CORS configuration
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", "http://host.docker.internal"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Health and monitoring endpoints (no auth required)
	r.GET("/health", app.healthHandler())
	r.GET("/ready", app.readinessHandler())
	r.GET("/metrics", app.Metrics.Handler())

	v1 := r.Group("/api/v1")

	// Public routes (no auth required)
	authHandler := handlers.NewAuthHandler(app.AuthService)
	registrationHandler := handlers.NewRegisterHandler(app.RegisterService)
	inviteHandler := handlers.NewInviteHandler(app.InviteService, app.Metrics)

	authRoutes := v1.Group("/auth")
	{
		authRoutes.POST("/register", registrationHandler.Registration)
		authRoutes.POST("/login", authHandler.Token)
		authRoutes.POST("/refresh", authHandler.Refresh)
		authRoutes.POST("/logout", authHandler.Logout)
	}

	// Invite redemption is public: the redeemer has no account yet.
	v1.POST("/invites/redeem", inviteHandler.Redeem)

	// Protected routes (require authentication)
	protected := v1.Group("")
	protected.Use(middleware.AuthRequired(app.Store, app.Config.JWT.Secret))
	{
		// Task routes
		taskHandler := handlers.NewTaskHandler(app.TaskService)
		taskRoutes := protected.Group("/tasks")
		{
			taskRoutes.POST("", taskHandler.CreateTask)
			taskRoutes.PUT("/:id", taskHandler.UpdateTask)
			taskRoutes.PUT("/:id/status", taskHandler.SetStatus)
			taskRoutes.PUT("/:id/todos", taskHandler.ReplaceChecklist)
			taskRoutes.DELETE("/:id", taskHandler.DeleteTask)
			taskRoutes.GET("/:id", taskHandler.GetTaskByID)
			taskRoutes.GET("", taskHandler.GetTasks)
		}

		// Team routes
		teamHandler := handlers.NewTeamHandler(app.TeamService)
		teamRoutes := protected.Group("/teams")
		{
			teamRoutes.POST("", teamHandler.CreateTeam)
			teamRoutes.GET("", teamHandler.GetTeams)
			teamRoutes.GET("/:id", teamHandler.GetTeam)
			teamRoutes.GET("/:id/tasks", teamHandler.GetTeamTasks)
			teamRoutes.DELETE("/:id", teamHandler.DeleteTeam)
			teamRoutes.POST("/:id/members", teamHandler.AddMember)
			teamRoutes.DELETE("/:id/members/:userId", teamHandler.RemoveMember)
		}

		// User routes
		userHandler := handlers.NewUserHandler(app.TeamService, app.Membership)
		userRoutes := protected.Group("/users")
		{
			userRoutes.GET("/me", userHandler.GetCurrentUser)
			userRoutes.GET("", userHandler.GetReachableUsers)
			userRoutes.DELETE("/:id", userHandler.DeleteUser)
		}

		// Invite management (admin only)
		inviteRoutes := protected.Group("/invites")
		inviteRoutes.Use(middleware.AdminOnly())
		{
			inviteRoutes.POST("", inviteHandler.Issue)
			inviteRoutes.GET("", inviteHandler.List)
			inviteRoutes.DELETE("/:token", inviteHandler.Revoke)
		}

		// Cache management routes (admin only)
		cacheRoutes := protected.Group("/cache")
		cacheRoutes.Use(middleware.AdminOnly())
		{
			cacheRoutes.GET("/stats", app.cacheStatsHandler())
			cacheRoutes.GET("/health", app.cacheHealthHandler())
			cacheRoutes.DELETE("/clear", app.clearCacheHandler())
		}
	}

	app.Router = r
}

func (app *Application) startServer() {
	addr := app.Config.GetServerAddr()

	app.Server = &http.Server{
		Addr:         addr,
		Handler:      app.Router,
		ReadTimeout:  app.Config.Server.ReadTimeout,
		WriteTimeout: app.Config.Server.WriteTimeout,
		IdleTimeout:  app.Config.Server.IdleTimeout,
	}

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit

		log.Println("🛑 Shutting down server...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := app.Server.Shutdown(ctx); err != nil {
			log.Printf("❌ Server forced to shutdown: %v", err)
		}

		app.cleanup()
		log.Println("✅ Server stopped gracefully")
	}()

	log.Printf("🚀 Server starting on %s", addr)
	log.Printf("📊 Metrics available at http://%s/metrics", addr)
	log.Printf("💚 Health check at http://%s/health", addr)

	if err := app.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("❌ Server failed to start: %v", err)
	}
}

func (app *Application) cleanup() {
	log.Println("🧹 Cleaning up resources...")

	if app.InviteStore != nil {
		app.InviteStore.Stop()
	}

	if app.Cache != nil {
		if err := app.Cache.Close(); err != nil {
			log.Printf("⚠️  Error closing cache: %v", err)
		}
	}

	if app.Redis != nil {
		if err := app.Redis.Close(); err != nil {
			log.Printf("⚠️  Error closing Redis: %v", err)
		}
	}

	if app.Pool != nil {
		if err := app.Pool.Close(); err != nil {
			log.Printf("⚠️  Error closing database: %v", err)
		}
	}

	log.Println("✅ Cleanup complete")
}

func (app *Application) healthHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		health := map[string]interface{}{
			"status":    "healthy",
			"timestamp": time.Now().Format(time.RFC3339),
			"service":   "team-tasks-backend",
		}

		if err := app.Pool.Health(); err != nil {
			health["status"] = "unhealthy"
			health["database"] = "down"
			c.JSON(http.StatusServiceUnavailable, health)
			return
		}
		health["database"] = "up"

		if app.Redis != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := app.Redis.Ping(ctx).Err(); err != nil {
				health["redis"] = "down"
			} else {
				health["redis"] = "up"
			}
		}

		c.JSON(http.StatusOK, health)
	}
}

func (app *Application) readinessHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := app.Pool.Health(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"ready":  false,
				"reason": "database not ready",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"ready": true,
		})
	}
}

func (app *Application) cacheStatsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, app.Cache.Stats())
	}
}

func (app *Application) cacheHealthHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := app.Cache.Health(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"healthy": false, "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"healthy": true})
	}
}

func (app *Application) clearCacheHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := app.Cache.DeletePattern("*"); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "cache cleared successfully"})
	}
}
