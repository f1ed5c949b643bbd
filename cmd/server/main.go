package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"driverhire/internal/config"
	"driverhire/internal/gateway"
	"driverhire/internal/handlers"
	"driverhire/internal/middleware"
	"driverhire/internal/repositories/interfaces"
	"driverhire/internal/repositories/memory"
	"driverhire/internal/repositories/mongodb"
	redisstore "driverhire/internal/repositories/redis"
	"driverhire/internal/services"
	"driverhire/internal/wizard"
	"driverhire/pkg/cache"
	"driverhire/pkg/database"
	"driverhire/pkg/logger"
	"driverhire/pkg/maps"
	"driverhire/pkg/sms"
	"driverhire/pkg/websocket"
	"driverhire/routes"
)

type stores struct {
	users    interfaces.UserStore
	bookings interfaces.BookingStore
	otps     interfaces.OTPStore
	sessions interfaces.SessionStore
	cache    services.CacheService
	checks   []handlers.HealthCheck
	closers  []func() error
}

func main() {
	// Missing booking API settings are fatal here, not per request.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger, err := logger.NewLogger(&logger.Config{
		Level:      logger.LogLevel(cfg.App.LogLevel),
		Format:     cfg.App.LogFormat,
		Output:     "stdout",
		TimeFormat: time.RFC3339,
		Colors:     cfg.App.Debug,
		AppName:    cfg.App.Name,
		Version:    cfg.App.Version,
	})
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	st, err := openStores(cfg, appLogger)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to open stores")
	}
	defer func() {
		for _, closeFn := range st.closers {
			closeFn()
		}
	}()

	clock := services.SystemClock()

	sender, err := newSMSProvider(cfg.SMS)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to configure SMS provider")
	}

	var distanceProvider maps.DistanceProvider
	if cfg.Maps.GoogleMapsAPIKey != "" {
		provider, err := maps.NewGoogleMapsProvider(cfg.Maps.GoogleMapsAPIKey)
		if err != nil {
			appLogger.WithError(err).Fatal("Failed to configure Google Maps")
		}
		distanceProvider = provider
	}

	// Gateway
	forwarder := gateway.NewForwarder(cfg.Booking, appLogger.WithField("component", "gateway"))
	bookingAPI := gateway.NewClient(forwarder, appLogger.WithField("component", "gateway"))

	var quoter services.FareQuoter = bookingAPI
	if st.cache != nil {
		quoter = services.NewCachedFareQuoter(bookingAPI, st.cache, cfg.Booking.FareCacheTTL, appLogger)
	}
	distance := services.NewDistanceService(distanceProvider, appLogger)

	// Services
	tokens := services.NewTokenIssuer(cfg.Security.JWTSecret, cfg.App.Name)
	sessionService := services.NewSessionService(st.sessions, tokens, cfg.Security.SessionTTL, clock, appLogger)
	otpService := services.NewOTPService(st.otps, st.users, sessionService, sender, services.OTPConfig{
		BookingLength: cfg.Security.OTPLengthBooking,
		SignupLength:  cfg.Security.OTPLengthSignup,
		Expiry:        cfg.Security.OTPExpiry,
		MaxAttempts:   cfg.Security.OTPMaxAttempts,
		ExposeCode:    !cfg.IsProduction(),
	}, clock, appLogger.WithField("component", "otp"))
	authService := services.NewAuthService(st.users, otpService, sessionService, cfg.Security.PasswordMinLength, clock, appLogger)
	submitter := services.NewBookingSubmitter(bookingAPI, st.bookings, clock, cfg.Booking.Location, appLogger)
	bookingService := services.NewBookingService(bookingAPI, st.bookings, clock, appLogger)

	var authenticator services.Authenticator
	if cfg.Security.OTPSource == "remote" {
		authenticator = services.NewRemoteAuthenticator(bookingAPI, st.users, sessionService,
			cfg.Security.OTPLengthBooking, cfg.Security.OTPExpiry, clock, appLogger.WithField("component", "otp"))
	} else {
		authenticator = services.NewLocalAuthenticator(otpService)
	}

	wsHandler := websocket.NewHandler(websocket.Options{
		ReadBufferSize:  cfg.WebSocket.ReadBufferSize,
		WriteBufferSize: cfg.WebSocket.WriteBufferSize,
		PingInterval:    cfg.WebSocket.PingInterval,
		PongTimeout:     cfg.WebSocket.PongTimeout,
		AllowedOrigins:  cfg.WebSocket.AllowedOrigins,
	}, appLogger.WithField("component", "websocket"))
	defer wsHandler.Close()

	flowLogger := appLogger.WithField("component", "wizard")
	registry := wizard.NewRegistry(func(flowID string) wizard.Deps {
		return wizard.Deps{
			Auth: authenticator,
			Estimator: services.NewFareEstimator(quoter, distance, services.FareEstimatorConfig{
				Debounce:     cfg.Booking.FareDebounce,
				QuoteTimeout: cfg.Booking.FareQuoteTimeout,
				Location:     cfg.Booking.Location,
			}, clock, flowLogger.WithField("flow_id", flowID)),
			Submitter: submitter,
			Sessions:  services.NewSessionProvider(clock),
			Publisher: wsHandler.GetHub(),
			Clock:     clock,
			Logger:    flowLogger.WithField("flow_id", flowID),
		}
	}, cfg.Booking.FlowIdleTTL, clock, flowLogger)
	registry.StartJanitor(time.Minute)
	defer registry.Stop()

	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware(appLogger))
	router.Use(middleware.CORSMiddleware(cfg.Security.CORSAllowedOrigins))

	routes.Setup(router, &routes.Handlers{
		Auth:     handlers.NewAuthHandler(otpService, authService, registry, appLogger),
		Proxy:    handlers.NewProxyHandler(forwarder, appLogger),
		Wizard:   handlers.NewWizardHandler(registry, wsHandler, cfg.Booking.Timeout, appLogger),
		Booking:  handlers.NewBookingHandler(bookingService, appLogger),
		Realtime: handlers.NewRealtimeHandler(wsHandler),
		Health:   handlers.NewHealthHandler(cfg.App.Version, st.checks...),
	}, sessionService)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.App.Port),
		Handler: router,
	}

	go func() {
		appLogger.Infof("Starting server on port %d", cfg.App.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.WithError(err).Fatal("Server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		appLogger.WithError(err).Error("Server shutdown failed")
	}
}

// openStores selects in-memory stores or Mongo plus Redis by STORE_DRIVER.
func openStores(cfg *config.Config, log *logger.Logger) (*stores, error) {
	if cfg.App.StoreDriver != "persistent" {
		log.Warn("Using in-memory stores; data is lost on restart")
		return &stores{
			users:    memory.NewUserStore(),
			bookings: memory.NewBookingStore(),
			otps:     memory.NewOTPStore(),
			sessions: memory.NewSessionStore(),
		}, nil
	}

	mongoDB, err := database.NewMongoDB(&database.DatabaseConfig{
		URI:            cfg.Database.URI,
		Database:       cfg.Database.Database,
		MaxPoolSize:    cfg.Database.MaxPoolSize,
		MinPoolSize:    cfg.Database.MinPoolSize,
		ConnectTimeout: cfg.Database.ConnectTimeout,
		SocketTimeout:  cfg.Database.SocketTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := database.NewMigrator(mongoDB.Database, log).Up(); err != nil {
		mongoDB.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	redisCache, err := cache.NewRedisCache(&cache.RedisConfig{
		Host:         cfg.Redis.Host,
		Port:         cfg.Redis.Port,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
		KeyPrefix:    cfg.Redis.KeyPrefix,
	})
	if err != nil {
		mongoDB.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &stores{
		users:    mongodb.NewUserRepository(mongoDB.Database),
		bookings: mongodb.NewBookingRepository(mongoDB.Database),
		otps:     redisstore.NewOTPStore(redisCache),
		sessions: redisstore.NewSessionStore(redisCache),
		cache:    redisCache,
		checks: []handlers.HealthCheck{
			{Name: "mongodb", Check: mongoDB.Ping},
			{Name: "redis", Check: redisCache.Ping},
		},
		closers: []func() error{redisCache.Close, mongoDB.Close},
	}, nil
}

func newSMSProvider(cfg *config.SMSConfig) (sms.SMSProvider, error) {
	switch cfg.Provider {
	case "twilio":
		return sms.NewTwilioProvider(cfg.Twilio.AccountSID, cfg.Twilio.AuthToken, cfg.Twilio.FromNumber), nil
	case "aws":
		return sms.NewAWSSNSProvider(context.Background(), cfg.AWS.Region, cfg.SenderID)
	case "none", "":
		return nil, nil
	}
	return nil, fmt.Errorf("unknown SMS provider %q", cfg.Provider)
}
