package routes

import (
    "github.com/gin-gonic/gin"
    "go.uber.org/zap"
    "pawmi-triage-backend/config"
    "pawmi-triage-backend/controllers"
    "pawmi-triage-backend/middleware"
    "pawmi-triage-backend/services"
)

// SetupRoutes registers every endpoint and returns a function that stops
// the background relays started by the controllers.
func SetupRoutes(router *gin.Engine, cfg *config.Config, chatbotService *services.ChatbotService, whatsappService *services.WhatsAppService, logger *zap.Logger) func() {
    // Initialize controllers
    chatbotController := controllers.NewChatbotController(chatbotService)
    wsController := controllers.NewWebSocketController(chatbotService, cfg.Security.AllowedOrigins, logger)
    whatsappController := controllers.NewWhatsAppController(whatsappService, chatbotService, logger)

    public := router.Group("/api/v1")
    {
        public.GET("/pets", chatbotController.ListPets)

        conversations := public.Group("/conversations")
        conversations.POST("", chatbotController.CreateConversation)
        conversations.GET("/:id", chatbotController.GetConversation)
        conversations.DELETE("/:id", chatbotController.ClearConversation)
        conversations.POST("/:id/pet", chatbotController.SelectPet)
        conversations.POST("/:id/messages", chatbotController.HandleChat)
        conversations.POST("/:id/retry", chatbotController.RetryPrediction)
        conversations.GET("/:id/transcript", chatbotController.GetTranscript)

        // WebSocket for real-time chat
        public.GET("/ws", wsController.HandleWebSocket)
    }

    // WhatsApp routes
    whatsapp := router.Group("/api/whatsapp")
    {
        // Webhook endpoints (no auth required for WhatsApp to call)
        whatsapp.GET("/webhook", whatsappController.VerifyWebhook)
        whatsapp.POST("/webhook", middleware.VerifyWhatsAppSignature(cfg.WhatsApp.AppSecret), whatsappController.HandleWebhook)

        whatsapp.POST("/admin/send", whatsappController.SendMessage)
        whatsapp.GET("/admin/status", whatsappController.GetStatus)
    }

    // 404 handler
    router.NoRoute(func(c *gin.Context) {
        c.JSON(404, gin.H{
            "error": "Route not found",
            "path":  c.Request.URL.Path,
        })
    })

    return whatsappController.Close
}
