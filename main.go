package main

import (
    "context"
    "fmt"
    "log"
    "net/http"
    "os"
    "os/signal"
    "syscall"
    "time"

    "github.com/gin-contrib/cors"
    "github.com/gin-gonic/gin"
    "go.uber.org/zap"
    "pawmi-triage-backend/config"
    "pawmi-triage-backend/database"
    "pawmi-triage-backend/routes"
    "pawmi-triage-backend/services"
)

func main() {
    // Load configuration
    if err := config.Load(); err != nil {
        log.Fatalf("Failed to load configuration: %v", err)
    }

    cfg := config.Get()

    logger, err := config.NewLogger(cfg.Log, cfg.Environment)
    if err != nil {
        log.Fatalf("Failed to build logger: %v", err)
    }
    defer logger.Sync()

    // Set Gin mode
    if cfg.Environment == "production" {
        gin.SetMode(gin.ReleaseMode)
    }

    catalog, err := config.LoadCatalog(cfg.Triage.CatalogPath)
    if err != nil {
        logger.Fatal("failed to load triage catalog", zap.Error(err))
    }
    logger.Info("triage catalog loaded",
        zap.Int("questions", len(catalog.Questions)),
        zap.Int("symptom_keys", len(catalog.SymptomKeys)),
    )

    // Connect to database
    if err := database.Connect(cfg, logger); err != nil {
        logger.Fatal("failed to connect to database", zap.Error(err))
    }
    defer database.Disconnect()

    // Verify WhatsApp configuration
    if err := verifyWhatsAppConfig(cfg.WhatsApp); err != nil {
        logger.Warn("WhatsApp integration may not work properly", zap.Error(err))
    } else {
        logger.Info("WhatsApp configuration verified successfully")
    }

    db := database.GetMongoDB()
    scheduler := services.NewTimerScheduler()
    deps := services.NewTriageDeps(
        catalog,
        services.NewPredictionService(cfg.Prediction, logger),
        scheduler,
        services.PacingFromConfig(cfg.Triage),
        logger,
    )
    chatbotService := services.NewChatbotService(
        deps,
        database.NewPetRepository(db),
        database.NewMessageRepository(db),
        services.NewBroadcaster(logger),
        logger,
    )
    whatsappService := services.NewWhatsAppService(cfg.WhatsApp, logger)

    router := gin.New()
    router.Use(gin.Recovery())
    router.Use(requestLogger(logger))
    router.Use(cors.New(cors.Config{
        AllowOrigins:     cfg.Security.AllowedOrigins,
        AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
        AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"},
        AllowCredentials: true,
        MaxAge:           12 * time.Hour,
    }))

    // Health check endpoint
    router.GET("/health", func(c *gin.Context) {
        status, code := "ok", http.StatusOK
        dbStatus := "up"
        if err := database.HealthCheck(c.Request.Context()); err != nil {
            status, code, dbStatus = "degraded", http.StatusServiceUnavailable, err.Error()
        }
        c.JSON(code, gin.H{
            "status":              status,
            "timestamp":           time.Now(),
            "database":            dbStatus,
            "catalog_questions":   chatbotService.CatalogSize(),
            "active_sessions":     chatbotService.ActiveSessions(),
            "whatsapp_configured": cfg.WhatsApp.Enabled(),
        })
    })

    stopRelays := routes.SetupRoutes(router, cfg, chatbotService, whatsappService, logger)

    logAvailableEndpoints(router, logger)

    srv := &http.Server{
        Addr:        ":" + cfg.Port,
        Handler:     router,
        ReadTimeout: 15 * time.Second,
        IdleTimeout: 60 * time.Second,
    }

    go func() {
        logger.Info("server starting",
            zap.String("port", cfg.Port),
            zap.String("health", fmt.Sprintf("http://localhost:%s/health", cfg.Port)),
            zap.String("whatsapp_webhook", fmt.Sprintf("http://localhost:%s/api/whatsapp/webhook", cfg.Port)),
        )
        if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
            logger.Fatal("failed to start server", zap.Error(err))
        }
    }()

    // Wait for interrupt signal to gracefully shutdown the server
    quit := make(chan os.Signal, 1)
    signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
    <-quit

    logger.Info("shutting down server")

    ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
    defer cancel()

    if err := srv.Shutdown(ctx); err != nil {
        logger.Error("server forced to shutdown", zap.Error(err))
    }
    stopRelays()
    chatbotService.Shutdown()

    logger.Info("server exited")
}

// verifyWhatsAppConfig checks if WhatsApp configuration is present
func verifyWhatsAppConfig(wa config.WhatsAppConfig) error {
    required := map[string]string{
        "WHATSAPP_ACCESS_TOKEN":    wa.AccessToken,
        "WHATSAPP_PHONE_NUMBER_ID": wa.PhoneNumberID,
        "WHATSAPP_VERIFY_TOKEN":    wa.VerifyToken,
    }

    missing := []string{}
    for key, value := range required {
        if value == "" {
            missing = append(missing, key)
        }
    }

    if len(missing) > 0 {
        return fmt.Errorf("missing required environment variables: %v", missing)
    }

    return nil
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
    httpLog := logger.Named("http")
    return func(c *gin.Context) {
        start := time.Now()
        c.Next()
        httpLog.Info("request",
            zap.String("method", c.Request.Method),
            zap.String("path", c.Request.URL.Path),
            zap.Int("status", c.Writer.Status()),
            zap.Duration("latency", time.Since(start)),
        )
    }
}

// logAvailableEndpoints logs all registered routes
func logAvailableEndpoints(router *gin.Engine, logger *zap.Logger) {
    for _, route := range router.Routes() {
        logger.Debug("endpoint", zap.String("method", route.Method), zap.String("path", route.Path))
    }
}
