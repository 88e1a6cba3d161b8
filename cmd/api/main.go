package main

import (
	"context"
	"log"
	"os"
	"time"

	"storetrack/internal/database"
	"storetrack/internal/handler"
	"storetrack/internal/imagestore"
	"storetrack/internal/middleware"
	"storetrack/internal/repository"
	"storetrack/internal/service"
	"storetrack/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           Storetrack API
// @version         1.0
// @description     Inventory and storage location tracking with group-based access control.
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
		dbName = "storetrack"
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

	middleware.InitPermissionMiddleware(db)

	imageRoot := os.Getenv("IMAGE_ROOT")
	if imageRoot == "" {
		imageRoot = "img"
	}
	images := imagestore.New(imageRoot)

	// Set up WebSocket Hub
	wsHub := websocket.NewHub()
	go wsHub.Run()

	// Set up dependencies (Repository -> Service -> Handler)
	txManager := repository.NewTransactionManager(db)
	userRepo := repository.NewUserRepository(db)
	roleRepo := repository.NewRoleRepository(db)
	groupRepo := repository.NewGroupRepository(db)
	storageRepo := repository.NewStorageRepository(db)
	itemRepo := repository.NewItemRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	if err := service.Seed(context.Background(), roleRepo, groupRepo, categoryRepo); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}
	if err := userRepo.DeleteExpiredRefreshTokens(context.Background(), time.Now()); err != nil {
		log.Println("WARNING: failed to prune expired refresh tokens:", err)
	}

	userService := service.NewUserService(userRepo, groupRepo, auditRepo, images)
	roleService := service.NewRoleService(roleRepo, auditRepo)
	groupService := service.NewGroupService(groupRepo, roleRepo, userRepo, auditRepo)
	storageService := service.NewStorageService(storageRepo, itemRepo, categoryRepo, auditRepo, txManager, images)
	itemService := service.NewItemService(itemRepo, storageRepo, categoryRepo, auditRepo, txManager, images, wsHub, storageService)
	categoryService := service.NewCategoryService(categoryRepo)
	auditService := service.NewAuditService(auditRepo)

	// Initialize Handlers
	userHandler := handler.NewUserHandler(userService)
	roleHandler := handler.NewRoleHandler(roleService)
	groupHandler := handler.NewGroupHandler(groupService)
	storageHandler := handler.NewStorageHandler(storageService)
	itemHandler := handler.NewItemHandler(itemService)
	categoryHandler := handler.NewCategoryHandler(categoryService)
	imageHandler := handler.NewImageHandler(images, userService)
	auditHandler := handler.NewAuditHandler(auditService)

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

	// WebSocket endpoint
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, middleware.GetJWTSecret())
	})

	// Register API Routes
	userHandler.RegisterRoutes(router.Group(""))
	roleHandler.RegisterRoutes(router.Group(""))
	groupHandler.RegisterRoutes(router.Group(""))
	storageHandler.RegisterRoutes(router.Group(""))
	itemHandler.RegisterRoutes(router.Group(""))
	categoryHandler.RegisterRoutes(router.Group(""))
	imageHandler.RegisterRoutes(router.Group(""))
	auditHandler.RegisterRoutes(router.Group(""))

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server listening on :%s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
