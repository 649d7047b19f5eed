package main

import (
	"context"
	"log"
	"os"
	"strconv"

	_ "backend/api/swagger" // swagger docs
	"backend/internal/database"
	"backend/internal/handler"
	"backend/internal/middleware"
	"backend/internal/notification"
	"backend/internal/repository"
	"backend/internal/service"
	"backend/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           Compensation Case Management API
// @version         1.0
// @description     REST API for compensation case registration, grievance handling and disbursement tracking.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := godotenv.Load("configs/.env"); err != nil {
		log.Println("No configs/.env file found or error loading it")
	}

	dbHost := os.Getenv("DB_HOST")
	dbPort := os.Getenv("DB_PORT")
	dbUser := os.Getenv("DB_USER")
	dbPassword := os.Getenv("DB_PASSWORD")
	dbName := os.Getenv("DB_NAME")
	dbSslMode := os.Getenv("DB_SSLMODE")

	if dbHost == "" {
		dbHost = "localhost"
	}
	if dbPort == "" {
		dbPort = "5432"
	}
	if dbUser == "" {
		dbUser = "postgres"
	}
	if dbPassword == "" {
		dbPassword = "postgres"
	}
	if dbName == "" {
		dbName = "postgres"
	}
	if dbSslMode == "" {
		dbSslMode = "disable"
	}

	dsn := "postgres://" + dbUser + ":" + dbPassword + "@" + dbHost + ":" + dbPort + "/" + dbName + "?sslmode=" + dbSslMode

	db, err := database.NewConnection(dsn)
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	log.Println("Connected to PostgreSQL successfully.")

	// Set up WebSocket Hub
	wsHub := websocket.NewHub()
	go wsHub.Run()

	// Permission middleware needs a direct DB handle for cache misses
	middleware.InitPermissionMiddleware(db)

	// SMTP notifier for CRITICAL / escalated grievances (optional)
	var notifier service.GrievanceNotifier
	alertEmail := os.Getenv("GRIEVANCE_ALERT_EMAIL")
	if smtpUser := os.Getenv("SMTP_USERNAME"); smtpUser != "" && alertEmail != "" {
		smtpPort, _ := strconv.Atoi(os.Getenv("SMTP_PORT"))
		notifier = notification.NewEmailService(
			os.Getenv("SMTP_HOST"),
			smtpPort,
			smtpUser,
			os.Getenv("SMTP_PASSWORD"),
		)
	} else {
		log.Println("SMTP not configured; grievance alerts disabled")
	}

	// Set up dependencies (Repository -> Service -> Handler)
	txManager := repository.NewTransactionManager(db)
	userRepo := repository.NewUserRepository(db)
	caseRepo := repository.NewCaseRepository(db)
	docRepo := repository.NewDocumentRepository(db)
	grievanceRepo := repository.NewGrievanceRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	roleRepo := repository.NewRoleRepository(db)

	signer := service.NewJWTSigner(os.Getenv("JWT_SECRET"))
	userService := service.NewUserService(userRepo, signer)
	caseService := service.NewCaseService(caseRepo, docRepo, userRepo, auditRepo, txManager, wsHub)
	grievanceService := service.NewGrievanceService(grievanceRepo, caseRepo, userRepo, auditRepo, txManager, wsHub, notifier, alertEmail)
	dashboardService := service.NewDashboardService(caseRepo, grievanceRepo, userRepo)
	auditService := service.NewAuditService(auditRepo)
	roleService := service.NewRoleService(roleRepo, txManager)

	// Seed default roles and permissions
	if err := roleService.SeedDefaultRolesAndPermissions(context.Background()); err != nil {
		log.Printf("WARNING: Failed to seed roles and permissions: %v", err)
	}

	// Initialize Handlers
	userHandler := handler.NewUserHandler(userService)
	caseHandler := handler.NewCaseHandler(caseService)
	grievanceHandler := handler.NewGrievanceHandler(grievanceService)
	dashboardHandler := handler.NewDashboardHandler(dashboardService)
	auditHandler := handler.NewAuditHandler(auditService)
	roleHandler := handler.NewRoleHandler(roleService)

	// Set up Gin Router
	router := gin.Default()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"http://localhost:5173", "http://127.0.0.1:5173", "http://localhost:5174"} // Frontend URL
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "OK"})
	})

	// WebSocket endpoint for dashboard push updates
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, middleware.GetJWTSecret())
	})

	// Register API Routes
	userHandler.RegisterRoutes(router.Group(""))
	caseHandler.RegisterRoutes(router.Group(""))
	grievanceHandler.RegisterRoutes(router.Group(""))
	dashboardHandler.RegisterRoutes(router.Group(""))
	auditHandler.RegisterRoutes(router.Group(""))
	roleHandler.RegisterRoutes(router.Group(""))

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server listening on :%s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
