package main

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/random"

	"clawe/internal/caching"
	"clawe/internal/handlers"
	"clawe/internal/jobs/background"
	"clawe/internal/middleware"
	"clawe/internal/provision"
	"clawe/internal/repositories"
	"clawe/internal/services"
	"clawe/pkg/database"
)

const version = "1.0.0"

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	pool, err := database.NewPool(databaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	backendURL := os.Getenv("CLAWE_BACKEND_URL")

	// Token verification: JWKS when an issuer is configured, HMAC otherwise.
	var verifier middleware.TokenVerifier
	if jwksURL := os.Getenv("CLAWE_JWKS_URL"); jwksURL != "" {
		jwksVerifier, err := middleware.NewJWKSVerifier(jwksURL)
		if err != nil {
			log.Fatalf("Failed to initialize JWKS verifier: %v", err)
		}
		verifier = jwksVerifier
	} else {
		jwtSecret := os.Getenv("JWT_SECRET")
		if jwtSecret == "" {
			jwtSecret = random.String(32)
			log.Printf("WARNING: Using generated JWT secret: %s", jwtSecret)
		}
		verifier = middleware.NewHMACVerifier(jwtSecret)
	}

	// Redis configuration
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}
	redisPassword := os.Getenv("REDIS_PASSWORD")
	redisDB := 0
	if redisDBStr := os.Getenv("REDIS_DB"); redisDBStr != "" {
		if db, err := strconv.Atoi(redisDBStr); err == nil {
			redisDB = db
		}
	}

	// Create repositories
	accountRepo := repositories.NewAccountRepo(pool)
	tenantRepo := repositories.NewTenantRepo(pool)
	agentRepo := repositories.NewAgentRepo(pool)

	// Create cache service
	cacheSvc := caching.NewRedisCacheService(redisAddr, redisPassword, redisDB)

	// Provisioner plugins. The env provisioner points every tenant at one
	// shared Squadhub instance; hosted deployments register a real one.
	registry := provision.NewRegistry()
	registry.Register(provision.SquadhubProvisionerName, provision.NewEnvProvisioner(
		os.Getenv("SQUADHUB_URL"),
		os.Getenv("SQUADHUB_TOKEN"),
	))

	// Create services
	setup := services.NewSquadhubSetup(agentRepo, services.DefaultSquad(), nil)
	provisionSvc := services.NewProvisionService(accountRepo, tenantRepo, registry, setup, backendURL)
	agentSvc := services.NewAgentService(agentRepo)

	// Create handlers
	provisionHandlers := handlers.NewProvisionHandlers(provisionSvc, verifier, backendURL)
	agentHandlers := handlers.NewAgentHandlers(agentSvc, cacheSvc)
	healthHandlers := handlers.NewHealthHandlers(pool, cacheSvc)

	// Background jobs
	scheduler := background.NewJobScheduler(cacheSvc, agentRepo)
	if err := scheduler.Start(); err != nil {
		log.Fatalf("Failed to start job scheduler: %v", err)
	}
	defer func() {
		if err := scheduler.Stop(); err != nil {
			log.Printf("Failed to stop job scheduler: %v", err)
		}
	}()

	// Create Echo instance
	e := echo.New()

	// Global middleware
	e.Use(echoMiddleware.Logger())
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.CORS())
	e.Use(echoMiddleware.RemoveTrailingSlash())

	// Health endpoints (no auth required)
	e.GET("/health", healthHandlers.HealthCheck)
	e.GET("/health/ready", healthHandlers.ReadinessCheck)

	// Provisioning does its own bearer handling
	e.POST("/api/tenant/provision", provisionHandlers.ProvisionTenant)

	// Protected routes
	api := e.Group("/api")
	api.Use(middleware.BearerAuth(verifier))
	api.POST("/agents", agentHandlers.UpsertAgent)
	api.GET("/agents", agentHandlers.ListAgents)
	api.POST("/agents/:agentId/heartbeat", agentHandlers.RecordHeartbeat)
	api.GET("/presence", agentHandlers.GetPresence)

	// Start server
	portStr := os.Getenv("PORT")
	if portStr == "" {
		portStr = "3210"
	}

	port, err := strconv.Atoi(portStr)
	if err != nil {
		log.Fatalf("Invalid port %s: %v", portStr, err)
	}

	log.Printf("🦞 Clawe server v%s starting on port %d", version, port)

	e.Logger.Fatal(e.Start(fmt.Sprintf(":%d", port)))
}
