package router

import (
	"log"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sgkm-college/atkt-backend/database"
	"github.com/sgkm-college/atkt-backend/handlers"
	admin_handlers "github.com/sgkm-college/atkt-backend/handlers/admin"
	application_handlers "github.com/sgkm-college/atkt-backend/handlers/application"
	auth_handlers "github.com/sgkm-college/atkt-backend/handlers/auth"
	masterform_handlers "github.com/sgkm-college/atkt-backend/handlers/masterform"
	signature_handlers "github.com/sgkm-college/atkt-backend/handlers/signature"
	student_handlers "github.com/sgkm-college/atkt-backend/handlers/student"
	upload_handlers "github.com/sgkm-college/atkt-backend/handlers/upload"
	"github.com/sgkm-college/atkt-backend/services"
	"github.com/sgkm-college/atkt-backend/services/digitalocean"
	"github.com/sgkm-college/atkt-backend/utils/auth"
	"github.com/sgkm-college/atkt-backend/utils/cache"
	"github.com/sgkm-college/atkt-backend/utils/middleware"
	"gorm.io/gorm"
)

func SetupRoutes(app *fiber.App, store database.Storage) {
	// Get JWT secret from environment
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET environment variable is not set")
	}

	jwtIssuer := os.Getenv("JWT_ISSUER")
	if jwtIssuer == "" {
		jwtIssuer = "atkt-portal-api"
	}

	// Initialize JWT manager with config
	jwtConfig := auth.JWTConfig{
		Secret:        jwtSecret,
		Expiry:        24 * time.Hour,     // Access token expires in 24 hours
		RefreshExpiry: 7 * 24 * time.Hour, // Refresh token expires in 7 days
		Issuer:        jwtIssuer,
	}
	jwtManager := auth.NewJWTManager(jwtConfig)

	// Get DB instance (type assert from interface)
	db, ok := store.GetDB().(*gorm.DB)
	if !ok {
		log.Fatal("Failed to get GORM DB instance")
	}

	// Initialize Redis cache for brute force protection and upload tracking
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		redisURL = "redis://localhost:6379/0"
	}

	redisCache, err := cache.NewRedisCache(redisURL)
	if err != nil {
		log.Printf("Warning: Failed to connect to Redis: %v. Brute force protection and upload progress will be degraded.", err)
	}

	// Initialize brute force protection
	var bruteForceProtection *middleware.BruteForceProtection
	if redisCache != nil {
		bruteForceProtection = middleware.NewBruteForceProtection(redisCache)
	}

	// Initialize auth middleware with DB for blacklist checking
	authMiddleware := middleware.NewAuthMiddleware(jwtManager, db)

	// Optional Spaces client for mirroring signature images
	var spacesClient *digitalocean.SpacesClient
	if client, err := digitalocean.NewSpacesClientFromGlobalConfig(); err == nil {
		spacesClient = client
	} else {
		log.Printf("Warning: Spaces unavailable: %v. Signature mirroring disabled.", err)
	}

	// Services
	var tracker *services.UploadTracker
	if redisCache != nil {
		tracker = services.NewUploadTracker(redisCache)
	}
	seatService := services.NewSeatService(db)
	studentService := services.NewStudentService(db)
	masterFormService := services.NewMasterFormService(db)
	ingestService := services.NewIngestService(db, tracker)
	signatureService := services.NewSignatureService(db, spacesClient)
	pdfService := services.NewPDFService()
	applicationService := services.NewApplicationService(db, seatService, studentService, masterFormService, signatureService, pdfService)
	analyticsService := services.NewAnalyticsService(db, redisCache)
	passwordResetService := services.NewPasswordResetService(db, services.NewEmailService())

	// Handlers
	authHandler := auth_handlers.NewAuthHandler(db, jwtManager, bruteForceProtection, passwordResetService)
	studentHandler := student_handlers.NewStudentHandler(db, studentService)
	masterFormHandler := masterform_handlers.NewMasterFormHandler(db, masterFormService)
	uploadHandler := upload_handlers.NewUploadHandler(db, ingestService, tracker)
	applicationHandler := application_handlers.NewApplicationHandler(db, applicationService)
	signatureHandler := signature_handlers.NewSignatureHandler(db, signatureService)
	adminHandler := admin_handlers.NewAdminHandler(db, analyticsService)

	// Apply security middleware
	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		allowedOrigins = "http://localhost:3000,http://localhost:3001"
	}

	middleware.SetupSecurity(app, middleware.SecurityConfig{
		AllowedOrigins:    allowedOrigins,
		RateLimitRequests: 100,             // 100 requests
		RateLimitWindow:   1 * time.Minute, // per minute
	})

	// Health check endpoint (public)
	app.Get("/ping", handlers.HandleCheckHealth(store))

	// API v1 group
	api := app.Group("/api/v1")

	// Auth routes (public)
	authGroup := api.Group("/auth")
	authGroup.Post("/register", authHandler.Register)

	// Login with brute force protection
	if bruteForceProtection != nil {
		authGroup.Post("/login", bruteForceProtection.CheckAndRecordAttempt(), authHandler.Login)
	} else {
		authGroup.Post("/login", authHandler.Login)
	}

	authGroup.Post("/refresh", authHandler.RefreshToken)

	// Forgot-password flow (public)
	authGroup.Post("/send-otp", authHandler.SendOTP)
	authGroup.Post("/reset-password", authHandler.ResetPassword)

	// Protected auth routes
	authGroup.Post("/logout", authMiddleware.Required(), authHandler.Logout)
	authGroup.Post("/change-password", authMiddleware.Required(), authHandler.ChangePassword)

	// Student profile routes (protected)
	profileGroup := api.Group("/profile", authMiddleware.Required())
	profileGroup.Get("/", studentHandler.GetMyProfile)
	profileGroup.Put("/", studentHandler.UpsertMyProfile)

	// Master form routes
	masterForms := api.Group("/master-forms")
	masterForms.Get("/lookup", authMiddleware.Required(), masterFormHandler.FindMasterForm)
	masterForms.Get("/", authMiddleware.RequireAdmin(), masterFormHandler.ListMasterForms)
	masterForms.Post("/", authMiddleware.RequireAdmin(), middleware.AdminAuditLog(store, "master_form_create", "master_forms"), masterFormHandler.CreateMasterForm)
	masterForms.Put("/:id", authMiddleware.RequireAdmin(), middleware.AdminAuditLog(store, "master_form_update", "master_forms"), masterFormHandler.UpdateMasterForm)
	masterForms.Delete("/:id", authMiddleware.RequireAdmin(), middleware.AdminAuditLog(store, "master_form_delete", "master_forms"), masterFormHandler.DeleteMasterForm)

	// Application routes (student)
	applications := api.Group("/applications", authMiddleware.Required())
	applications.Post("/", applicationHandler.Submit)
	applications.Get("/", applicationHandler.ListMine)
	applications.Get("/:id/pdf", applicationHandler.DownloadPDF)

	// Admin routes
	admin := api.Group("/admin", authMiddleware.RequireAdmin())

	// Roster management
	admin.Get("/students", studentHandler.ListStudents)
	admin.Post("/upload-students", middleware.AdminAuditLog(store, "students_upload", "student_profiles"), uploadHandler.UploadStudents)
	admin.Get("/upload-progress/:uploadId", uploadHandler.StreamProgress)
	admin.Get("/uploads", adminHandler.ListUploadBatches)
	admin.Delete("/delete-students", middleware.AdminAuditLog(store, "students_batch_delete", "student_profiles"), studentHandler.DeleteStudents)

	// Application management
	admin.Get("/applications", applicationHandler.ListAll)
	admin.Post("/applications/:id/process", middleware.AdminAuditLog(store, "application_process", "atkt_applications"), applicationHandler.MarkProcessed)

	// Official signatures
	admin.Get("/signatures", signatureHandler.GetSignatures)
	admin.Put("/signatures", middleware.AdminAuditLog(store, "signatures_update", "signature_sets"), signatureHandler.UpdateSignatures)

	// Dashboard
	admin.Get("/dashboard", adminHandler.GetDashboard)
	admin.Get("/audit-logs", adminHandler.ListAuditLogs)
}
