package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ridehub/ridehub-backend/internal/config"
	"github.com/ridehub/ridehub-backend/internal/database"
	"github.com/ridehub/ridehub-backend/internal/handlers"
	"github.com/ridehub/ridehub-backend/internal/middleware"
	"github.com/ridehub/ridehub-backend/internal/models"
	"github.com/ridehub/ridehub-backend/internal/services"
	"github.com/ridehub/ridehub-backend/internal/utils"
	"github.com/ridehub/ridehub-backend/pkg/clock"
	"github.com/ridehub/ridehub-backend/pkg/jwt"
	"github.com/ridehub/ridehub-backend/pkg/sms"
)

var (
	version   = "1.0.0"
	buildTime = "unknown"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	logger.Info("Starting RideHub Backend")
	logger.Infof("Version: %s, Build Time: %s", version, buildTime)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	// Set log level
	logLevel, err := logrus.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		logger.Warn("Invalid log level, using INFO")
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Set Gin mode
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	// Initialize database connection
	logger.Info("Connecting to database...")
	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	logger.Info("Database connection established")

	if err := db.Ping(); err != nil {
		logger.Fatalf("Failed to ping database: %v", err)
	}

	// Initialize repositories
	userRepo := database.NewUserRepository(db)
	rideRepo := database.NewRideRepository(db)
	bookingRepo := database.NewBookingRepository(db)
	walletRepo := database.NewWalletRepository(db)
	walletTxnRepo := database.NewWalletTransactionRepository(db)
	paymentRepo := database.NewPaymentRepository(db)
	boardingRepo := database.NewBoardingRecordRepository(db)
	warningRepo := database.NewDriverWarningRepository(db)
	reviewRepo := database.NewReviewRepository(db)

	// Initialize services
	logger.Info("Initializing services...")
	jwtService := jwt.NewService(
		cfg.JWT.Secret,
		cfg.JWT.RefreshSecret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
	)

	clk := clock.System{}
	geoService := services.NewGeoService()
	refundPolicy := services.NewRefundPolicy()
	var notifier services.Notifier = services.NewLogNotifier(logger)
	if cfg.SMS.Enabled {
		smsGateway := sms.NewHTTPGateway(sms.HTTPGatewayConfig{
			APIURL:   cfg.SMS.APIURL,
			Username: cfg.SMS.Username,
			Password: cfg.SMS.Password,
			Mask:     cfg.SMS.Mask,
		})
		notifier = services.NewSMSNotifier(smsGateway, userRepo, logger)
		logger.Info("SMS notifications enabled")
	}

	gateway := services.NewRazorpayClient(&cfg.Payment, logger)
	if cfg.Payment.Environment != "production" {
		logger.Info("Payment gateway in sandbox mode")
	}

	walletService := services.NewWalletService(db, walletRepo, walletTxnRepo, paymentRepo, clk, logger)
	rideService := services.NewRideService(rideRepo, geoService, clk, logger)
	bookingService := services.NewBookingService(bookingRepo, rideRepo, geoService, notifier, clk, logger)
	cancellationService := services.NewCancellationService(
		bookingRepo,
		rideRepo,
		paymentRepo,
		warningRepo,
		refundPolicy,
		gateway,
		notifier,
		clk,
		logger,
	)
	tripService := services.NewTripService(rideRepo, bookingRepo, boardingRepo, walletService, notifier, clk, logger)
	paymentService := services.NewPaymentService(
		paymentRepo,
		bookingRepo,
		rideRepo,
		gateway,
		bookingService,
		walletService,
		cfg.Payment.Currency,
		clk,
		logger,
	)
	reviewService := services.NewReviewService(reviewRepo, bookingRepo, rideRepo, clk, logger)
	sweepService := services.NewSweepService(bookingRepo, rideRepo, bookingService, walletService, notifier, clk, logger)
	cronService := services.NewCronService(sweepService, cfg.Scheduler)
	logger.Info("Services initialized")

	// Initialize handlers
	userHandler := handlers.NewUserHandler(userRepo)
	rideHandler := handlers.NewRideHandler(rideService, warningRepo)
	bookingHandler := handlers.NewBookingHandler(bookingService, cancellationService)
	tripHandler := handlers.NewTripHandler(tripService)
	walletHandler := handlers.NewWalletHandler(walletService)
	paymentHandler := handlers.NewPaymentHandler(paymentService)
	reviewHandler := handlers.NewReviewHandler(reviewService)

	// Initialize Gin router
	router := gin.New()

	// Middleware
	router.Use(gin.Recovery())
	router.Use(requestLogger(logger))

	// CORS configuration
	corsConfig := cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     cfg.CORS.AllowedMethods,
		AllowHeaders:     cfg.CORS.AllowedHeaders,
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	router.Use(cors.New(corsConfig))

	// Health check endpoint
	router.GET("/health", healthCheckHandler(db))

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Payment gateway callback (public; verified by signature)
		v1.POST("/payments/verify", paymentHandler.VerifyPayment)

		// User profile
		users := v1.Group("/users")
		users.Use(middleware.AuthMiddleware(jwtService))
		{
			users.GET("/me", userHandler.GetMe)
		}

		// Ride routes
		rides := v1.Group("/rides")
		rides.Use(middleware.AuthMiddleware(jwtService))
		{
			rides.GET("/search", rideHandler.SearchRides)
			rides.GET("/:id", rideHandler.GetRide)
			rides.GET("/:id/bookings", bookingHandler.GetRideBookings)

			driver := rides.Group("")
			driver.Use(middleware.RequireRole(string(models.RoleDriver)))
			{
				driver.POST("", rideHandler.CreateRide)
				driver.GET("/my", rideHandler.GetMyRides)
				driver.POST("/:id/start", tripHandler.StartJourney)
				driver.POST("/:id/cancel", bookingHandler.CancelRide)
			}
		}

		// Booking routes
		bookings := v1.Group("/bookings")
		bookings.Use(middleware.AuthMiddleware(jwtService))
		{
			bookings.POST("", bookingHandler.CreateBooking)
			bookings.GET("/my", bookingHandler.GetMyBookings)
			bookings.GET("/:id", bookingHandler.GetBooking)
			bookings.POST("/:id/cancel", bookingHandler.CancelBooking)
			bookings.POST("/:id/payment/order", paymentHandler.CreateOrder)

			// Passenger self-service boarding
			bookings.POST("/:id/self-start", tripHandler.PassengerStartRide)
			bookings.POST("/:id/self-end", tripHandler.PassengerEndRide)

			// Driver-side OTP boarding
			otp := bookings.Group("")
			otp.Use(middleware.RequireRole(string(models.RoleDriver)))
			{
				otp.POST("/:id/onboard/otp", tripHandler.GenerateOnboardingOTP)
				otp.POST("/:id/onboard/validate", tripHandler.ValidateOnboardingOTP)
				otp.POST("/:id/deboard/otp", tripHandler.GenerateDeboardingOTP)
				otp.POST("/:id/deboard/validate", tripHandler.ValidateDeboardingOTP)
			}
		}

		// Wallet routes (drivers only)
		wallet := v1.Group("/wallet")
		wallet.Use(middleware.AuthMiddleware(jwtService))
		wallet.Use(middleware.RequireRole(string(models.RoleDriver)))
		{
			wallet.GET("", walletHandler.GetWallet)
			wallet.GET("/transactions", walletHandler.GetTransactions)
			wallet.POST("/withdraw", walletHandler.Withdraw)
		}

		// Ride review routes
		reviews := v1.Group("/reviews")
		reviews.Use(middleware.AuthMiddleware(jwtService))
		{
			reviews.POST("", reviewHandler.SubmitReview)
			reviews.GET("/booking/:id", reviewHandler.GetBookingReview)
			reviews.GET("/booking/:id/exists", reviewHandler.BookingReviewExists)
			reviews.GET("/driver/:id", reviewHandler.GetDriverReviews)
			reviews.GET("/driver/:id/rating", reviewHandler.GetDriverRating)
			reviews.GET("/ride/:id", reviewHandler.GetRideReviews)
		}

		// Driver warning history
		warnings := v1.Group("/warnings")
		warnings.Use(middleware.AuthMiddleware(jwtService))
		warnings.Use(middleware.RequireRole(string(models.RoleDriver)))
		{
			warnings.GET("/my", rideHandler.GetMyWarnings)
		}
	}

	// Start scheduled jobs
	if cfg.Scheduler.Enabled {
		if err := cronService.Start(); err != nil {
			logger.Fatalf("Failed to start cron service: %v", err)
		}
		logger.Info("Cron service started")
	} else {
		logger.Warn("Scheduler disabled; payment requests and fund release will not run")
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Infof("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Stop cron service
	if cfg.Scheduler.Enabled {
		logger.Info("Stopping cron service...")
		cronService.Stop()
	}

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited successfully")
}

// requestLogger middleware for logging HTTP requests
func requestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)

		fields := logrus.Fields{
			"status":     c.Writer.Status(),
			"method":     c.Request.Method,
			"path":       path,
			"query":      query,
			"ip":         utils.GetRealIP(c),
			"latency_ms": latency.Milliseconds(),
			"user_agent": c.Request.UserAgent(),
		}
		if userCtx, exists := middleware.GetUserContext(c); exists {
			fields["user_id"] = userCtx.UserID
			fields["role"] = userCtx.Role
		}

		entry := logger.WithFields(fields)

		if len(c.Errors) > 0 {
			for i, err := range c.Errors {
				entry = entry.WithField(fmt.Sprintf("error_%d", i), err.Error())
			}
			entry.Error("Request failed with errors")
		} else {
			status := c.Writer.Status()
			if status >= 500 {
				entry.Error("Request completed with server error")
			} else if status >= 400 {
				entry.Warn("Request completed with client error")
			} else {
				entry.Info("Request completed successfully")
			}
		}
	}
}

// healthCheckHandler returns a health check endpoint
func healthCheckHandler(db database.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"database": "unhealthy",
				"error":    err.Error(),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"database":  "healthy",
			"version":   version,
			"timestamp": time.Now().Unix(),
		})
	}
}
