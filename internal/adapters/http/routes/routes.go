package routes

import (
	"malita-clinic/internal/adapters/http/handlers"
	"malita-clinic/internal/adapters/http/middleware"
	"malita-clinic/internal/adapters/persistence/repositories"
	"malita-clinic/internal/config"
	"malita-clinic/internal/core/services"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// Setup configures all routes for the application and returns the
// appointment sweeper so the caller can run its schedule.
func Setup(app *fiber.App, db *gorm.DB, cfg *config.Config) (*services.SweeperService, error) {
	// Initialize repositories
	userRepo := repositories.NewUserRepository(db)
	refreshTokenRepo := repositories.NewRefreshTokenRepository(db)
	doctorRepo := repositories.NewDoctorRepository(db)
	apptRepo := repositories.NewAppointmentRepository(db)

	// Initialize services
	notifyService := services.NewNotificationService(cfg.SMTP)
	mediaService, err := services.NewMediaService(cfg.S3)
	if err != nil {
		return nil, err
	}

	authService := services.NewAuthService(userRepo, refreshTokenRepo, notifyService, cfg)
	userService := services.NewUserService(userRepo, notifyService)
	doctorService := services.NewDoctorService(doctorRepo)
	bookingService := services.NewBookingService(doctorRepo, apptRepo, userRepo, notifyService)
	sweeperService := services.NewSweeperService(apptRepo, bookingService)
	statsService := services.NewStatsService(doctorRepo, userRepo, apptRepo)
	paymentService := services.NewPaymentService(apptRepo, notifyService, cfg)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler()
	authHandler := handlers.NewAuthHandler(authService, userService, mediaService, cfg)
	userHandler := handlers.NewUserHandler(userService, bookingService, mediaService)
	doctorHandler := handlers.NewDoctorHandler(doctorService)
	adminHandler := handlers.NewAdminHandler(userService, doctorService, bookingService,
		sweeperService, statsService, mediaService)
	paymentHandler := handlers.NewPaymentHandler(paymentService)

	// Health check & root routes
	app.Get("/", healthHandler.Root)
	app.Get("/health", healthHandler.HealthCheck)

	// API v1 group
	apiV1 := app.Group("/api/v1")
	apiV1.Get("/", healthHandler.APIInfo)

	// Auth routes (public, stricter rate limit)
	authRoutes := apiV1.Group("/auth")
	setupAuthRoutes(authRoutes, authHandler, cfg)

	// Public doctor routes
	doctorRoutes := apiV1.Group("/doctors")
	setupDoctorRoutes(doctorRoutes, doctorHandler)

	// Patient routes (authenticated)
	userRoutes := apiV1.Group("/user")
	userRoutes.Use(middleware.AuthMiddleware(cfg))
	setupUserRoutes(userRoutes, userHandler)

	// Payment routes (authenticated, stricter rate limit)
	paymentRoutes := apiV1.Group("/payments")
	paymentRoutes.Use(middleware.AuthMiddleware(cfg))
	paymentRoutes.Use(middleware.PaymentRateLimiter())
	setupPaymentRoutes(paymentRoutes, paymentHandler)

	// Admin routes (ADMIN role only)
	adminRoutes := apiV1.Group("/admin")
	adminRoutes.Use(middleware.AuthMiddleware(cfg))
	adminRoutes.Use(middleware.AdminOnly())
	setupAdminRoutes(adminRoutes, adminHandler)

	return sweeperService, nil
}

// setupAuthRoutes configures authentication routes
func setupAuthRoutes(router fiber.Router, handler *handlers.AuthHandler, cfg *config.Config) {
	// Public routes
	router.Post("/register", middleware.AuthRateLimiter(), handler.Register)
	router.Post("/login", middleware.AuthRateLimiter(), handler.Login)
	router.Post("/admin/login", middleware.AuthRateLimiter(), handler.AdminLogin)
	router.Post("/refresh", handler.RefreshToken)

	// Protected routes
	router.Post("/logout", middleware.AuthMiddleware(cfg), handler.Logout)
	router.Get("/me", middleware.AuthMiddleware(cfg), handler.Me)
}

// setupDoctorRoutes configures public doctor routes
func setupDoctorRoutes(router fiber.Router, handler *handlers.DoctorHandler) {
	router.Get("/", middleware.DoctorListCache(), handler.ListDoctors)
	router.Get("/:id", handler.GetDoctor)
}

// setupUserRoutes configures patient routes (Authenticated)
func setupUserRoutes(router fiber.Router, handler *handlers.UserHandler) {
	router.Get("/profile", middleware.PrivateCacheHeaders(0), handler.GetProfile)
	router.Put("/profile", handler.UpdateProfile)

	router.Get("/appointments", middleware.NoCacheHeaders(), handler.ListAppointments)
	router.Post("/appointments", handler.BookAppointment)
	router.Post("/appointments/:id/cancel", handler.CancelAppointment)
	router.Patch("/appointments/:id/read", handler.MarkAppointmentRead)
}

// setupPaymentRoutes configures payment routes (Authenticated)
func setupPaymentRoutes(router fiber.Router, handler *handlers.PaymentHandler) {
	router.Post("/razorpay/verify", handler.VerifyRazorpay)
	router.Post("/razorpay/:id", handler.CreateRazorpayOrder)
	router.Post("/stripe/verify", handler.VerifyStripe)
	router.Post("/stripe/:id", handler.CreateStripeSession)
}

// setupAdminRoutes configures admin routes (Admin only)
func setupAdminRoutes(router fiber.Router, handler *handlers.AdminHandler) {
	// Appointments
	router.Get("/appointments", middleware.NoCacheHeaders(), handler.ListAppointments)
	router.Post("/appointments/:id/cancel", handler.CancelAppointment)
	router.Post("/appointments/:id/approve", handler.ApproveAppointment)

	// Doctors
	router.Post("/doctors", handler.AddDoctor)
	router.Put("/doctors/:id", handler.UpdateDoctor)
	router.Delete("/doctors/:id", handler.DeleteDoctor)
	router.Patch("/doctors/:id/availability", handler.ChangeDoctorAvailability)

	// Patients
	router.Get("/users", handler.ListUsers)
	router.Get("/users/pending", handler.ListPendingRegistrations)
	router.Patch("/users/:id/approval", handler.UpdateApprovalStatus)
	router.Delete("/users/:id", handler.DeleteUser)

	// Stats
	router.Get("/dashboard", handler.Dashboard)
	router.Get("/stats/users", handler.UserStats)
}
