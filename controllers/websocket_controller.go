package controllers

import (
	"net/http"
	"time"

	"pawmi-triage-backend/services"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const writeWait = 10 * time.Second

// wsFrame is what clients send over the socket.
type wsFrame struct {
    Type    string `json:"type"` // message, select_pet, clear, retry
    Message string `json:"message,omitempty"`
    PetID   string `json:"pet_id,omitempty"`
}

type WebSocketController struct {
    chatbotService *services.ChatbotService
    upgrader       websocket.Upgrader
    logger         *zap.Logger
}

func NewWebSocketController(chatbotService *services.ChatbotService, allowedOrigins []string, logger *zap.Logger) *WebSocketController {
    allowed := make(map[string]bool, len(allowedOrigins))
    for _, o := range allowedOrigins {
        allowed[o] = true
    }
    return &WebSocketController{
        chatbotService: chatbotService,
        upgrader: websocket.Upgrader{
            CheckOrigin: func(r *http.Request) bool {
                origin := r.Header.Get("Origin")
                return origin == "" || allowed["*"] || allowed[origin]
            },
        },
        logger: logger.Named("websocket"),
    }
}

// HandleWebSocket streams every message of a conversation and accepts
// commands on the same socket.
func (wc *WebSocketController) HandleWebSocket(c *gin.Context) {
    conversationID := c.Query("conversation_id")
    if conversationID == "" {
        c.JSON(http.StatusBadRequest, gin.H{"error": "conversation_id is required"})
        return
    }
    if _, err := wc.chatbotService.Snapshot(conversationID); err != nil {
        respondError(c, err)
        return
    }

    conn, err := wc.upgrader.Upgrade(c.Writer, c.Request, nil)
    if err != nil {
        wc.logger.Warn("upgrade failed", zap.Error(err))
        return
    }
    defer conn.Close()

    messages, unsubscribe := wc.chatbotService.Subscribe(conversationID)
    defer unsubscribe()

    done := make(chan struct{})
    go func() {
        defer close(done)
        for msg := range messages {
            conn.SetWriteDeadline(time.Now().Add(writeWait))
            if err := conn.WriteJSON(msg); err != nil {
                wc.logger.Debug("write failed", zap.Error(err))
                return
            }
        }
    }()

    for {
        var frame wsFrame
        if err := conn.ReadJSON(&frame); err != nil {
            wc.logger.Debug("read finished", zap.String("conversation_id", conversationID), zap.Error(err))
            break
        }

        var cmdErr error
        switch frame.Type {
        case "message", "":
            _, cmdErr = wc.chatbotService.SendMessage(conversationID, frame.Message)
        case "select_pet":
            _, cmdErr = wc.chatbotService.SelectPet(c.Request.Context(), conversationID, frame.PetID)
        case "clear":
            _, cmdErr = wc.chatbotService.Clear(conversationID)
        case "retry":
            _, cmdErr = wc.chatbotService.RetryPrediction(conversationID)
        default:
            wc.logger.Debug("unknown frame type", zap.String("type", frame.Type))
        }
        if cmdErr != nil {
            wc.logger.Debug("command rejected", zap.String("type", frame.Type), zap.Error(cmdErr))
        }
    }

    unsubscribe()
    <-done
}
