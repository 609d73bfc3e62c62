package main

import (
	"licity-service/internal/handler"
	"licity-service/internal/middleware"
	"licity-service/internal/model"
	"licity-service/internal/storage"
	"licity-service/internal/tenantscope"
	"licity-service/pkg/cache"
	"licity-service/pkg/config"
	"licity-service/pkg/database"
	"licity-service/pkg/jwtutil"
	"licity-service/pkg/logger"
	"licity-service/prometheus"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

func main() {
	// Load configuration from .env file and environment variables
	cfg, err := config.Load("licity-service")
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger with config
	logger.InitLogger(&logger.LogConfig{
		Level:       cfg.Log.Level,
		Environment: cfg.Server.Env,
		ServiceName: cfg.ServiceName,
	})
	log := logger.GetLogger()
	log.Info("Starting licity service...", zap.String("environment", cfg.Server.Env))

	// Initialize database
	db, err := database.InitDB(&cfg.DB)
	if err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	log.Info("Database connection established")

	if err := database.MigrateModels(
		&model.User{},
		&model.Tenant{},
		&model.TenantMembership{},
		&model.ScopeSelection{},
		&model.Client{},
		&model.Contract{},
		&model.Invoice{},
		&model.Task{},
		&model.Document{},
	); err != nil {
		log.Fatal("Failed to migrate models", zap.Error(err))
	}
	log.Info("Database migrations applied")

	// Initialize JWT utility
	jwtutil.Initialize(&cfg.JWT)
	log.Info("JWT utility initialized")

	// Initialize Prometheus metrics
	prometheus.InitMetrics(cfg)
	log.Info("Prometheus metrics initialized")

	// Initialize the membership cache and the tenant scope service
	tenantscope.Init(db, cache.Open(&cfg.Cache), cfg.Cache.TTL)
	log.Info("Tenant scope service initialized",
		zap.String("cache_backend", cfg.Cache.Backend),
		zap.Duration("cache_ttl", cfg.Cache.TTL))

	// Initialize document blob storage
	store, err := storage.NewLocalStore(cfg.Storage.Dir)
	if err != nil {
		log.Fatal("Failed to initialize document storage", zap.Error(err))
	}
	storage.Init(store)
	log.Info("Document storage initialized", zap.String("dir", cfg.Storage.Dir))

	// Initialize Echo framework
	e := echo.New()

	// Apply global middleware - order matters
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(middleware.RequestIDMiddleware)
	e.Use(logger.Middleware())
	e.Use(prometheus.MetricsMiddleware())

	// Public routes - no authentication required
	e.GET("/health", handler.HealthCheck)
	e.GET("/metrics", handler.MetricsHandler)

	// Authentication routes - these don't belong under /api since they're for getting access to the API
	auth := e.Group("/auth")
	auth.POST("/login", handler.Login)
	auth.POST("/register", handler.Register)

	// API routes - all require authentication
	api := e.Group("/api")
	api.Use(middleware.AuthMiddleware)

	// User management
	users := api.Group("/users")
	users.GET("/profile", handler.GetProfile)
	users.PATCH("/profile", handler.UpdateProfile)
	users.POST("/change-password", handler.ChangePassword)

	// Tenant scope - resolve and select the active tenant filter
	scope := api.Group("/scope")
	scope.GET("", handler.GetScope)
	scope.PUT("", handler.SelectScope)

	// Tenant management
	tenants := api.Group("/tenants")
	tenants.POST("", handler.CreateTenant)
	tenants.GET("", handler.ListUserTenants)
	tenants.GET("/:id", handler.GetTenant)
	tenants.PUT("/:id", handler.UpdateTenant)

	// Tenant user management
	tenantUsers := api.Group("/tenant-users")
	tenantUsers.POST("", handler.AddUserToTenant)
	tenantUsers.DELETE("/:tenant_id/:user_id", handler.RemoveUserFromTenant)

	// Clients
	clients := api.Group("/clients")
	clients.GET("", handler.ListClients)
	clients.POST("", handler.CreateClient)
	clients.GET("/:id", handler.GetClient)
	clients.PUT("/:id", handler.UpdateClient)
	clients.DELETE("/:id", handler.DeleteClient)

	// Contracts
	contracts := api.Group("/contracts")
	contracts.GET("", handler.ListContracts)
	contracts.POST("", handler.CreateContract)
	contracts.GET("/:id", handler.GetContract)
	contracts.PUT("/:id", handler.UpdateContract)
	contracts.DELETE("/:id", handler.DeleteContract)

	// Invoices
	invoices := api.Group("/invoices")
	invoices.GET("", handler.ListInvoices)
	invoices.POST("", handler.CreateInvoice)
	invoices.GET("/:id", handler.GetInvoice)
	invoices.PUT("/:id", handler.UpdateInvoice)
	invoices.DELETE("/:id", handler.DeleteInvoice)

	// Tasks and agenda
	tasks := api.Group("/tasks")
	tasks.GET("", handler.ListTasks)
	tasks.GET("/calendar", handler.CalendarTasks)
	tasks.POST("", handler.CreateTask)
	tasks.GET("/:id", handler.GetTask)
	tasks.PUT("/:id", handler.UpdateTask)
	tasks.DELETE("/:id", handler.DeleteTask)

	// Documents
	documents := api.Group("/documents")
	documents.GET("", handler.ListDocuments)
	documents.POST("", handler.UploadDocument)
	documents.GET("/expiring", handler.ExpiringDocuments)
	documents.GET("/:id", handler.GetDocument)
	documents.GET("/:id/download", handler.DownloadDocument)
	documents.DELETE("/:id", handler.DeleteDocument)

	// Dashboard
	api.GET("/dashboard/metrics", handler.DashboardMetrics)
	api.GET("/sidebar/counts", handler.SidebarCounts)

	// Get server port from configuration
	port := cfg.Server.Port

	// Start server
	log.Info("Starting server", zap.String("port", port))
	if err := e.Start(":" + port); err != nil {
		log.Fatal("Failed to start server", zap.Error(err))
	}
}
