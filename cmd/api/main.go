package main

import (
	"log"
	"os"

	_ "github.com/SilasChalwe/zra-digital-fortress-backend/api/swagger" // swagger docs
	"github.com/SilasChalwe/zra-digital-fortress-backend/internal/database"
	"github.com/SilasChalwe/zra-digital-fortress-backend/internal/handler"
	"github.com/SilasChalwe/zra-digital-fortress-backend/internal/integration"
	"github.com/SilasChalwe/zra-digital-fortress-backend/internal/middleware"
	"github.com/SilasChalwe/zra-digital-fortress-backend/internal/repository"
	"github.com/SilasChalwe/zra-digital-fortress-backend/internal/service"
	"github.com/SilasChalwe/zra-digital-fortress-backend/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           ZRA Digital Fortress API
// @version         1.0
// @description     Tax administration backend: taxpayer registration, income tax and VAT filing, payments, compliance scoring.
// @host            localhost:8080
// @BasePath        /api/v1
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
		dbName = "zra_fortress"
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

	// External collaborators
	riskAssessor := integration.NewAIRiskAssessor(os.Getenv("AI_SERVICE_URL"))
	ledger := integration.NewBlockchainLedger(os.Getenv("LEDGER_SERVICE_URL"))
	gateway := integration.NewPaymentGateway()

	// Set up dependencies (Repository -> Service -> Handler)
	userRepo := repository.NewUserRepository(db)
	tokenRepo := repository.NewRefreshTokenRepository(db)
	filingRepo := repository.NewFilingRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	txManager := repository.NewTransactionManager(db)

	calc := service.NewTaxCalculationService()
	complianceService := service.NewComplianceService(db)
	notificationService := service.NewNotificationService(db, wsHub)
	userService := service.NewUserService(userRepo, tokenRepo, auditRepo, txManager, complianceService, middleware.GetJWTSecret())
	filingService := service.NewFilingService(userRepo, filingRepo, auditRepo, txManager, calc, riskAssessor, ledger, complianceService, notificationService)
	paymentService := service.NewPaymentService(db, calc, gateway, ledger, complianceService, notificationService)
	auditService := service.NewAuditService(auditRepo)
	dashboardService := service.NewDashboardService(db, complianceService)

	// Initialize Handlers
	userHandler := handler.NewUserHandler(userService)
	filingHandler := handler.NewFilingHandler(filingService)
	paymentHandler := handler.NewPaymentHandler(paymentService)
	complianceHandler := handler.NewComplianceHandler(complianceService)
	notificationHandler := handler.NewNotificationHandler(notificationService)
	auditHandler := handler.NewAuditHandler(auditService)
	dashboardHandler := handler.NewDashboardHandler(dashboardService)

	// Set up Gin Router
	router := gin.Default()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"http://localhost:5173", "http://127.0.0.1:5173", "http://localhost:3000"} // Frontend URL
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

	// WebSocket endpoint
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, middleware.GetJWTSecret())
	})

	// Register API Routes
	api := router.Group("/api/v1")
	userHandler.RegisterRoutes(api)
	filingHandler.RegisterRoutes(api)
	paymentHandler.RegisterRoutes(api)
	complianceHandler.RegisterRoutes(api)
	notificationHandler.RegisterRoutes(api)
	auditHandler.RegisterRoutes(api)
	dashboardHandler.RegisterRoutes(api)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server listening on :%s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
