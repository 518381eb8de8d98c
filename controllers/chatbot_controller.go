package controllers

import (
    "errors"
    "net/http"
    "strconv"

    "github.com/gin-gonic/gin"
    "pawmi-triage-backend/database"
    "pawmi-triage-backend/models"
    "pawmi-triage-backend/services"
)

type ChatbotController struct {
    chatbotService *services.ChatbotService
}

func NewChatbotController(chatbotService *services.ChatbotService) *ChatbotController {
    return &ChatbotController{
        chatbotService: chatbotService,
    }
}

// ListPets returns the pets an owner can start a triage for
func (cc *ChatbotController) ListPets(c *gin.Context) {
    ownerID := c.Query("owner_id")
    if ownerID == "" {
        c.JSON(http.StatusBadRequest, gin.H{
            "error": "owner_id is required",
        })
        return
    }

    pets, err := cc.chatbotService.ListPets(c.Request.Context(), ownerID)
    if err != nil {
        respondError(c, err)
        return
    }

    c.JSON(http.StatusOK, gin.H{
        "pets":  pets,
        "count": len(pets),
    })
}

// CreateConversation opens a new conversation
func (cc *ChatbotController) CreateConversation(c *gin.Context) {
    snapshot := cc.chatbotService.CreateConversation()
    c.JSON(http.StatusCreated, models.ChatResponse{
        ConversationID: snapshot.ConversationID,
        Session:        snapshot,
    })
}

// SelectPet picks the pet the conversation is about
func (cc *ChatbotController) SelectPet(c *gin.Context) {
    var req models.SelectPetRequest
    if err := c.ShouldBindJSON(&req); err != nil {
        c.JSON(http.StatusBadRequest, gin.H{
            "error":   "Invalid request format",
            "details": err.Error(),
        })
        return
    }

    id := c.Param("id")
    snapshot, err := cc.chatbotService.SelectPet(c.Request.Context(), id, req.PetID)
    if err != nil {
        respondError(c, err)
        return
    }
    c.JSON(http.StatusOK, models.ChatResponse{ConversationID: id, Session: snapshot})
}

// HandleChat processes one owner message
func (cc *ChatbotController) HandleChat(c *gin.Context) {
    var req models.ChatRequest
    if err := c.ShouldBindJSON(&req); err != nil {
        c.JSON(http.StatusBadRequest, gin.H{
            "error":   "Invalid request format",
            "details": err.Error(),
        })
        return
    }

    id := c.Param("id")
    snapshot, err := cc.chatbotService.SendMessage(id, req.Message)
    if err != nil {
        respondError(c, err)
        return
    }
    c.JSON(http.StatusAccepted, models.ChatResponse{ConversationID: id, Session: snapshot})
}

func (cc *ChatbotController) RetryPrediction(c *gin.Context) {
    id := c.Param("id")
    snapshot, err := cc.chatbotService.RetryPrediction(id)
    if err != nil {
        respondError(c, err)
        return
    }
    c.JSON(http.StatusAccepted, models.ChatResponse{ConversationID: id, Session: snapshot})
}

// ClearConversation resets the chat; with purge=true it also forgets it
func (cc *ChatbotController) ClearConversation(c *gin.Context) {
    id := c.Param("id")

    if purge, _ := strconv.ParseBool(c.Query("purge")); purge {
        if err := cc.chatbotService.DeleteConversation(c.Request.Context(), id); err != nil {
            respondError(c, err)
            return
        }
        c.JSON(http.StatusOK, gin.H{
            "message": "Conversation deleted successfully",
        })
        return
    }

    snapshot, err := cc.chatbotService.Clear(id)
    if err != nil {
        respondError(c, err)
        return
    }
    c.JSON(http.StatusOK, models.ChatResponse{ConversationID: id, Session: snapshot})
}

func (cc *ChatbotController) GetConversation(c *gin.Context) {
    id := c.Param("id")
    snapshot, err := cc.chatbotService.Snapshot(id)
    if err != nil {
        respondError(c, err)
        return
    }
    c.JSON(http.StatusOK, models.ChatResponse{ConversationID: id, Session: snapshot})
}

// GetTranscript retrieves the stored messages of a conversation
func (cc *ChatbotController) GetTranscript(c *gin.Context) {
    limit := int64(0)
    if limitStr := c.Query("limit"); limitStr != "" {
        if l, err := strconv.ParseInt(limitStr, 10, 64); err == nil {
            limit = l
        }
    }

    messages, err := cc.chatbotService.Transcript(c.Request.Context(), c.Param("id"), limit)
    if err != nil {
        respondError(c, err)
        return
    }

    c.JSON(http.StatusOK, gin.H{
        "messages": messages,
        "count":    len(messages),
    })
}

func respondError(c *gin.Context, err error) {
    status := http.StatusInternalServerError
    switch {
    case errors.Is(err, services.ErrConversationNotFound), errors.Is(err, database.ErrPetNotFound):
        status = http.StatusNotFound
    case errors.Is(err, services.ErrEmptyMessage):
        status = http.StatusBadRequest
    case errors.Is(err, services.ErrNoPetSelected),
        errors.Is(err, services.ErrAnalysisInProgress),
        errors.Is(err, services.ErrNoRetryAvailable):
        status = http.StatusConflict
    }
    c.JSON(status, gin.H{
        "error": err.Error(),
    })
}
