// controllers/whatsapp_controller.go
package controllers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"pawmi-triage-backend/models"
	"pawmi-triage-backend/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	whatsappConversationPrefix = "wa:"
	webhookTimeout             = 30 * time.Second

	noPetsText     = "No encontré mascotas registradas con este número 🐾 Regístralas en la app de Pawmi y vuelve a escribirme."
	pickPetText    = "✨ Selecciona quién necesita atención:"
	stillAnalyzing = "Sigo analizando la información, dame un momento 🔍"
)

type WhatsAppController struct {
	whatsappService *services.WhatsAppService
	chatbotService  *services.ChatbotService
	logger          *zap.Logger

	// One relay per conversation forwards bot messages to the phone.
	relayMu sync.Mutex
	relays  map[string]func()
}

func NewWhatsAppController(whatsappService *services.WhatsAppService, chatbotService *services.ChatbotService, logger *zap.Logger) *WhatsAppController {
	return &WhatsAppController{
		whatsappService: whatsappService,
		chatbotService:  chatbotService,
		logger:          logger.Named("whatsapp_webhook"),
		relays:          make(map[string]func()),
	}
}

// ConversationID maps a phone number to its conversation.
func ConversationID(phone string) string {
	return whatsappConversationPrefix + services.CleanPhoneNumber(phone)
}

// VerifyWebhook handles the webhook verification request from WhatsApp
func (wc *WhatsAppController) VerifyWebhook(c *gin.Context) {
	mode := c.Query("hub.mode")
	token := c.Query("hub.verify_token")
	challenge := c.Query("hub.challenge")

	if mode == "subscribe" && token != "" && token == wc.whatsappService.GetVerifyToken() {
		c.String(http.StatusOK, challenge)
		return
	}

	wc.logger.Warn("webhook verification failed", zap.String("mode", mode))
	c.JSON(http.StatusForbidden, gin.H{"error": "Verification failed"})
}

// HandleWebhook processes incoming WhatsApp messages
func (wc *WhatsAppController) HandleWebhook(c *gin.Context) {
	var webhookData models.WhatsAppWebhookData

	if err := c.ShouldBindJSON(&webhookData); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid webhook data"})
		return
	}

	// Process webhook asynchronously to respond quickly; the request
	// context ends with the response, so work gets its own.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), webhookTimeout)
		defer cancel()
		wc.processWebhookData(ctx, webhookData)
	}()

	c.JSON(http.StatusOK, gin.H{"status": "received"})
}

// processWebhookData processes the webhook data
func (wc *WhatsAppController) processWebhookData(ctx context.Context, webhookData models.WhatsAppWebhookData) {
	for _, entry := range webhookData.Entry {
		for _, change := range entry.Changes {
			if change.Field != "messages" {
				continue
			}
			for _, message := range change.Value.Messages {
				wc.handleIncomingMessage(ctx, message)
			}
			for _, status := range change.Value.Statuses {
				wc.logger.Debug("message status",
					zap.String("id", status.ID),
					zap.String("recipient", status.RecipientID),
					zap.String("status", status.Status),
				)
			}
		}
	}
}

func (wc *WhatsAppController) handleIncomingMessage(ctx context.Context, message models.WhatsAppMessage) {
	phone := services.CleanPhoneNumber(message.From)
	conversationID := ConversationID(phone)
	log := wc.logger.With(zap.String("conversation_id", conversationID), zap.String("type", message.Type))

	// Subscribe before the conversation exists so the greeting is relayed.
	wc.ensureRelay(conversationID, phone)
	wc.chatbotService.EnsureConversation(conversationID)

	if message.ID != "" {
		if err := wc.whatsappService.MarkMessageAsRead(ctx, message.ID); err != nil {
			log.Debug("mark as read failed", zap.Error(err))
		}
	}

	switch message.Type {
	case "interactive":
		if message.Interactive == nil || message.Interactive.ListReply == nil {
			return
		}
		if _, err := wc.chatbotService.SelectPet(ctx, conversationID, message.Interactive.ListReply.ID); err != nil {
			log.Warn("pet selection failed", zap.Error(err))
			wc.sendPetList(ctx, phone)
		}

	case "text":
		if message.Text == nil {
			return
		}
		snapshot, err := wc.chatbotService.Snapshot(conversationID)
		if err != nil {
			log.Error("conversation lookup failed", zap.Error(err))
			return
		}
		if snapshot.Pet == nil {
			wc.sendPetList(ctx, phone)
			return
		}

		_, err = wc.chatbotService.SendMessage(conversationID, message.Text.Body)
		switch {
		case err == nil, errors.Is(err, services.ErrEmptyMessage):
		case errors.Is(err, services.ErrAnalysisInProgress):
			wc.send(ctx, phone, stillAnalyzing)
		default:
			log.Warn("message rejected", zap.Error(err))
		}

	default:
		log.Debug("ignoring unsupported message type")
	}
}

func (wc *WhatsAppController) sendPetList(ctx context.Context, phone string) {
	pets, err := wc.chatbotService.ListPets(ctx, phone)
	if err != nil {
		wc.logger.Error("failed to list pets", zap.Error(err))
		return
	}
	if len(pets) == 0 {
		wc.send(ctx, phone, noPetsText)
		return
	}
	if err := wc.whatsappService.SendInteractiveMessage(ctx, phone, models.NewPetListMessage(pickPetText, pets)); err != nil {
		wc.logger.Error("failed to send pet list", zap.Error(err))
	}
}

func (wc *WhatsAppController) send(ctx context.Context, phone, text string) {
	if err := wc.whatsappService.SendTextMessage(ctx, phone, text); err != nil {
		wc.logger.Error("failed to send message", zap.Error(err))
	}
}

// ensureRelay forwards bot messages of conversationID to phone until Close.
func (wc *WhatsAppController) ensureRelay(conversationID, phone string) {
	wc.relayMu.Lock()
	defer wc.relayMu.Unlock()
	if _, ok := wc.relays[conversationID]; ok {
		return
	}

	messages, unsubscribe := wc.chatbotService.Subscribe(conversationID)
	wc.relays[conversationID] = unsubscribe

	go func() {
		for msg := range messages {
			if msg.Role != models.RoleBot {
				continue
			}
			ctx, cancel := context.WithTimeout(context.Background(), webhookTimeout)
			wc.send(ctx, phone, msg.Text)
			cancel()
		}
	}()
}

// Close stops every relay.
func (wc *WhatsAppController) Close() {
	wc.relayMu.Lock()
	defer wc.relayMu.Unlock()
	for id, unsubscribe := range wc.relays {
		unsubscribe()
		delete(wc.relays, id)
	}
}

// SendMessage sends a message to a specific WhatsApp number (for notifications)
func (wc *WhatsAppController) SendMessage(c *gin.Context) {
	var req struct {
		To      string `json:"to" binding:"required"`
		Message string `json:"message" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	to := services.CleanPhoneNumber(req.To)
	if strings.TrimSpace(to) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid phone number"})
		return
	}

	if err := wc.whatsappService.SendTextMessage(c.Request.Context(), to, req.Message); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to send message",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "sent",
		"to":     to,
	})
}

// GetStatus returns WhatsApp service status
func (wc *WhatsAppController) GetStatus(c *gin.Context) {
	c.JSON(http.StatusOK, wc.whatsappService.GetStatus(wc.chatbotService.ActiveSessions()))
}
