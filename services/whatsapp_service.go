package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"pawmi-triage-backend/config"
	"pawmi-triage-backend/models"
)

type WhatsAppService struct {
    client      *resty.Client
    cfg         config.WhatsAppConfig
    logger      *zap.Logger

    // Status tracking
    statusMu        sync.RWMutex
    lastMessageTime time.Time
    dailyCount      map[string]int
}

func NewWhatsAppService(cfg config.WhatsAppConfig, logger *zap.Logger) *WhatsAppService {
    client := resty.New().
        SetBaseURL(strings.TrimRight(cfg.APIURL, "/")).
        SetTimeout(30 * time.Second).
        SetAuthToken(cfg.AccessToken).
        SetHeader("Content-Type", "application/json")

    return &WhatsAppService{
        client:     client,
        cfg:        cfg,
        logger:     logger.Named("whatsapp"),
        dailyCount: make(map[string]int),
    }
}

// GetVerifyToken returns the webhook verification token
func (ws *WhatsAppService) GetVerifyToken() string {
    return ws.cfg.VerifyToken
}

// SendTextMessage sends a simple text message
func (ws *WhatsAppService) SendTextMessage(ctx context.Context, to string, message string) error {
    payload := models.WhatsAppSendMessage{
        MessagingProduct: "whatsapp",
        RecipientType:    "individual",
        To:               CleanPhoneNumber(to),
        Type:             "text",
        Text: &models.WhatsAppText{
            Body: message,
        },
    }
    return ws.sendRequest(ctx, payload)
}

// SendInteractiveMessage sends an interactive message
func (ws *WhatsAppService) SendInteractiveMessage(ctx context.Context, to string, interactive *models.InteractiveMessage) error {
    payload := models.WhatsAppSendMessage{
        MessagingProduct: "whatsapp",
        RecipientType:    "individual",
        To:               CleanPhoneNumber(to),
        Type:             "interactive",
        Interactive:      interactive,
    }
    return ws.sendRequest(ctx, payload)
}

// MarkMessageAsRead marks a message as read
func (ws *WhatsAppService) MarkMessageAsRead(ctx context.Context, messageID string) error {
    payload := map[string]interface{}{
        "messaging_product": "whatsapp",
        "status":            "read",
        "message_id":        messageID,
    }
    return ws.sendRequest(ctx, payload)
}

func (ws *WhatsAppService) sendRequest(ctx context.Context, payload interface{}) error {
    if !ws.cfg.Enabled() {
        return fmt.Errorf("whatsapp is not configured")
    }

    var apiErr map[string]interface{}
    resp, err := ws.client.R().
        SetContext(ctx).
        SetBody(payload).
        SetError(&apiErr).
        Post(fmt.Sprintf("/%s/%s/messages", ws.cfg.APIVersion, ws.cfg.PhoneNumberID))
    if err != nil {
        ws.logger.Error("failed to send request", zap.Error(err))
        return fmt.Errorf("failed to send request: %w", err)
    }

    if resp.IsError() {
        ws.logger.Warn("WhatsApp API error",
            zap.Int("status", resp.StatusCode()),
            zap.Any("body", apiErr),
        )
        if errData, ok := apiErr["error"].(map[string]interface{}); ok {
            if message, ok := errData["message"].(string); ok {
                return fmt.Errorf("WhatsApp API error (status %d): %s", resp.StatusCode(), message)
            }
        }
        return fmt.Errorf("WhatsApp API error: status %d", resp.StatusCode())
    }

    ws.updateMessageStatus()
    return nil
}

// CleanPhoneNumber keeps only the digits of a phone number.
func CleanPhoneNumber(phone string) string {
    return strings.Map(func(r rune) rune {
        if r >= '0' && r <= '9' {
            return r
        }
        return -1
    }, phone)
}

// updateMessageStatus updates internal message tracking
func (ws *WhatsAppService) updateMessageStatus() {
    ws.statusMu.Lock()
    defer ws.statusMu.Unlock()

    ws.lastMessageTime = time.Now()
    today := time.Now().Format("2006-01-02")
    ws.dailyCount[today]++
}

// GetStatus returns the service status
func (ws *WhatsAppService) GetStatus(activeSessions int) models.WhatsAppServiceStatus {
    ws.statusMu.RLock()
    defer ws.statusMu.RUnlock()

    today := time.Now().Format("2006-01-02")
    return models.WhatsAppServiceStatus{
        Enabled:           ws.cfg.Enabled(),
        LastMessageSent:   ws.lastMessageTime,
        MessageCountToday: ws.dailyCount[today],
        ActiveSessions:    activeSessions,
    }
}
