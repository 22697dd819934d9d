package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"merritt/config"
	"merritt/database"
	blockedRepo "merritt/database/repository/blocked"
	bookingRepo "merritt/database/repository/booking"
	roomRepo "merritt/database/repository/room"
	snackshopRepo "merritt/database/repository/snackshop"
	"merritt/handlers"
	"merritt/middleware"
	"merritt/routes"
	"merritt/services/booking"
	"merritt/services/calendar"
	"merritt/services/events"
	"merritt/services/notification"
	"merritt/services/payment"
	"merritt/services/snackshop"
	"merritt/services/webhook"
	"merritt/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	config.LoadConfig()
	utils.InitializeLogger()
	logger := utils.GetLogger()
	defer logger.Sync()

	database.InitDB()
	utils.InitCache()
	cfg := config.AppConfig

	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	router.Use(middleware.RateLimitMiddleware(cfg.MaxRequestsPerMin, config.TrustedProxyList()))

	// repositories.
	rooms := roomRepo.NewMongoRoomRepo()
	bookings := bookingRepo.NewMongoBookingRepo()
	blocked := blockedRepo.NewMongoBlockedRepo()
	shop := snackshopRepo.NewMongoSnackshopRepo()
	if err := bookingRepo.EnsureIndexes(bookings); err != nil {
		logger.Sugar().Fatalf("main: failed to ensure booking indexes: %v", err)
	}
	if err := snackshopRepo.EnsureIndexes(shop); err != nil {
		logger.Sugar().Fatalf("main: failed to ensure snackshop indexes: %v", err)
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		logger.Sugar().Fatalf("main: invalid TIMEZONE %q: %v", cfg.Timezone, err)
	}

	// external collaborators.
	var cal calendar.Calendar
	if cfg.GoogleCredentialsFile != "" {
		gc, err := calendar.NewGoogleCalendar(context.Background(), cfg.GoogleCredentialsFile, cfg.Timezone, logger)
		if err != nil {
			logger.Error("Google Calendar disabled", zap.Error(err))
		} else {
			cal = gc
		}
	} else {
		logger.Warn("GOOGLE_CREDENTIALS_FILE not set, calendar checks disabled")
	}

	gateway := payment.NewStripeGateway(cfg.StripeKey, cfg.StripeWebhookSecret, logger)

	var mailer notification.Mailer = &notification.LogMailer{Logger: logger}
	if cfg.SMTPHost != "" {
		smtp, err := notification.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.MailFrom)
		if err != nil {
			logger.Sugar().Fatalf("main: failed to initialize mailer: %v", err)
		}
		mailer = smtp
	}

	var pusher notification.Pusher
	if cfg.FirebaseCredentialsFile != "" {
		fcm, err := utils.NewFCMClient(context.Background(), cfg.FirebaseCredentialsFile)
		if err != nil {
			logger.Error("Firebase push disabled", zap.Error(err))
		} else {
			pusher = notification.NewFCMPusher(fcm, cfg.ManagerFCMTopic)
		}
	}

	notifier, err := notification.NewDefaultNotificationService(mailer, pusher, cfg.ManagerEmail, logger)
	if err != nil {
		logger.Sugar().Fatalf("main: %v", err)
	}

	var publisher events.Publisher = events.NopPublisher{}
	if brokers := config.KafkaBrokerList(); len(brokers) > 0 {
		publisher = events.NewKafkaPublisher(brokers, cfg.KafkaTopic, logger)
	}
	defer publisher.Close()

	// services.
	bookingService := &booking.DefaultBookingService{
		Rooms:    rooms,
		Bookings: bookings,
		Blocked:  blocked,
		Calendar: cal,
		Gateway:  gateway,
		Notifier: notifier,
		Events:   publisher,
		Logger:   logger,
		Settings: booking.Settings{
			OpenHour:          cfg.BusinessOpenHour,
			CloseHour:         cfg.BusinessCloseHour,
			Location:          loc,
			FailMode:          booking.FailMode(cfg.AvailabilityFailMode),
			DefaultRoomID:     cfg.DefaultRoomID,
			DefaultRoomName:   cfg.DefaultRoomName,
			DefaultCalendarID: cfg.GoogleCalendarID,
			Currency:          cfg.Currency,
			CheckoutExpiryMin: cfg.CheckoutExpiryMinutes,
			SiteURL:           cfg.SiteURL,
			WorkspaceAddress:  cfg.WorkspaceAddress,
		},
	}

	snackshopService := &snackshop.DefaultSnackshopService{
		Repo:     shop,
		Gateway:  gateway,
		Notifier: notifier,
		Events:   publisher,
		Logger:   logger,
		Settings: snackshop.Settings{
			Currency:          cfg.Currency,
			CheckoutExpiryMin: cfg.CheckoutExpiryMinutes,
			SiteURL:           cfg.SiteURL,
		},
	}

	guard := utils.NewRedisOnceGuard(utils.GetCacheClient(), "merritt:", 72*time.Hour)
	dispatcher := webhook.NewDispatcher(gateway, map[string]webhook.Handler{
		"meeting_room": bookingService,
		"snackshop":    snackshopService,
	}, guard, logger)
	success := webhook.NewPaymentSuccess(gateway, dispatcher, notifier, guard, logger)

	bookingHandler := handlers.NewBookingHandler(bookingService, logger)
	snackshopHandler := handlers.NewSnackshopHandler(snackshopService)
	paymentHandler := handlers.NewPaymentHandler(dispatcher, success)
	adminHandler := handlers.NewAdminHandler(cfg.AdminEmail, cfg.AdminPasswordHash)

	// Assemble the handler bundle.
	handlerBundle := &handlers.HandlerBundle{
		// Meeting room endpoints.
		GetAvailability:       bookingHandler.GetAvailabilityHandler,
		CreateBooking:         bookingHandler.CreateBookingHandler,
		ListBookings:          bookingHandler.ListBookingsHandler,
		ConfirmBooking:        bookingHandler.ConfirmBookingHandler,
		CancelBooking:         bookingHandler.CancelBookingHandler,
		CreateMeetingCheckout: bookingHandler.CreateMeetingCheckoutHandler,

		// Payment endpoints.
		HandleWebhook:  paymentHandler.HandleWebhook,
		PaymentSuccess: paymentHandler.PaymentSuccessHandler,

		// Snackshop endpoints.
		ListProducts: snackshopHandler.ListProductsHandler,
		PlaceOrder:   snackshopHandler.PlaceOrderHandler,
		GetOrder:     snackshopHandler.GetOrderHandler,

		AdminLogin: adminHandler.LoginHandler,
		Health:     handlers.HealthHandler,
	}

	// Register routes with the assembled handler bundle.
	routes.RegisterRoutes(router, handlerBundle)

	// Start the HTTP server.
	port := cfg.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Fatalf("main: server forced to shutdown: %v", err)
	}
	if database.MongoClient != nil {
		_ = database.MongoClient.Disconnect(ctx)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
