package models

import (
    "time"
)

// MessageRole tells who authored a transcript line.
type MessageRole string

const (
    RoleUser MessageRole = "user"
    RoleBot  MessageRole = "bot"
)

// MessageKind lets clients render special messages differently.
type MessageKind string

const (
    KindNormal        MessageKind = "normal"
    KindWelcome       MessageKind = "welcome"
    KindQuestion      MessageKind = "question"
    KindClarification MessageKind = "clarification"
    KindDiagnosis     MessageKind = "diagnosis"
    KindError         MessageKind = "error"
)

// MessageIntent classifies a message sent outside the guided flow.
type MessageIntent string

const (
    IntentSymptomReport MessageIntent = "symptom_report"
    IntentNewCase       MessageIntent = "new_case"
    IntentUnclear       MessageIntent = "unclear"
    IntentRetry         MessageIntent = "retry"
    IntentUnknown       MessageIntent = "unknown"
)

// ChatMessage is one role-tagged entry emitted by a conversation.
type ChatMessage struct {
    ID             string         `bson:"_id" json:"id"`
    ConversationID string         `bson:"conversation_id" json:"conversation_id"`
    Generation     uint64         `bson:"generation" json:"generation"`
    Role           MessageRole    `bson:"role" json:"role"`
    Kind           MessageKind    `bson:"kind" json:"kind"`
    Text           string         `bson:"text" json:"text"`
    QuestionID     string         `bson:"question_id,omitempty" json:"question_id,omitempty"`
    Diagnosis      *DiagnosisData `bson:"diagnosis,omitempty" json:"diagnosis,omitempty"`
    Timestamp      time.Time      `bson:"timestamp" json:"timestamp"`
}

// DiagnosisData carries the structured prediction next to its text.
type DiagnosisData struct {
    Predictions      []DiseasePrediction `bson:"predictions" json:"predictions"`
    SymptomsDetected FlagSet             `bson:"symptoms_detected" json:"symptoms_detected"`
    Urgency          UrgencyAssessment   `bson:"urgency" json:"urgency"`
    ModelVersion     string              `bson:"model_version,omitempty" json:"model_version,omitempty"`
}

type ChatRequest struct {
    Message string `json:"message" binding:"required"`
}

type SelectPetRequest struct {
    PetID string `json:"pet_id" binding:"required"`
}

// ChatResponse acknowledges a command; the messages themselves arrive on
// the transcript and the websocket stream.
type ChatResponse struct {
    ConversationID string          `json:"conversation_id"`
    Session        SessionSnapshot `json:"session"`
}

// SessionSnapshot is a read-only copy of a conversation's state.
type SessionSnapshot struct {
    ConversationID  string          `json:"conversation_id"`
    Generation      uint64          `json:"generation"`
    Pet             *Pet            `json:"pet,omitempty"`
    State           SequencerState  `json:"state"`
    Guided          bool            `json:"guided"`
    CurrentQuestion *GuidedQuestion `json:"current_question,omitempty"`
    Flags           FlagSet         `json:"flags"`
    Analyzing       bool            `json:"analyzing"`
    CanRetry        bool            `json:"can_retry"`
    Transcript      []string        `json:"transcript"`
}

// InteractiveMessage for WhatsApp interactive messages
type InteractiveMessage struct {
    Type   string             `json:"type"` // "list" or "button"
    Header *MessageHeader     `json:"header,omitempty"`
    Body   *InteractiveText   `json:"body"`
    Footer *InteractiveText   `json:"footer,omitempty"`
    Action *InteractiveAction `json:"action"`
}

type InteractiveText struct {
    Text string `json:"text"`
}

type MessageHeader struct {
    Type string `json:"type"`
    Text string `json:"text,omitempty"`
}

type InteractiveAction struct {
    Button   string    `json:"button,omitempty"` // For list messages
    Sections []Section `json:"sections,omitempty"`
}

type Section struct {
    Title string     `json:"title,omitempty"`
    Rows  []ListItem `json:"rows"`
}

type ListItem struct {
    ID          string `json:"id"`
    Title       string `json:"title"`
    Description string `json:"description,omitempty"`
}

// WhatsApp Webhook Models
type WhatsAppWebhookData struct {
    Object string          `json:"object"`
    Entry  []WhatsAppEntry `json:"entry"`
}

type WhatsAppEntry struct {
    ID      string           `json:"id"`
    Changes []WhatsAppChange `json:"changes"`
}

type WhatsAppChange struct {
    Field string        `json:"field"`
    Value WhatsAppValue `json:"value"`
}

type WhatsAppValue struct {
    MessagingProduct string            `json:"messaging_product"`
    Messages         []WhatsAppMessage `json:"messages,omitempty"`
    Statuses         []WhatsAppStatus  `json:"statuses,omitempty"`
}

type WhatsAppMessage struct {
    From        string                    `json:"from"`
    ID          string                    `json:"id"`
    Timestamp   string                    `json:"timestamp"`
    Type        string                    `json:"type"`
    Text        *WhatsAppText             `json:"text,omitempty"`
    Interactive *WhatsAppInteractiveReply `json:"interactive,omitempty"`
}

type WhatsAppText struct {
    Body string `json:"body"`
}

type WhatsAppInteractiveReply struct {
    Type      string             `json:"type"`
    ListReply *WhatsAppListReply `json:"list_reply,omitempty"`
}

type WhatsAppListReply struct {
    ID    string `json:"id"`
    Title string `json:"title"`
}

type WhatsAppStatus struct {
    ID          string `json:"id"`
    RecipientID string `json:"recipient_id"`
    Status      string `json:"status"`
}

// WhatsApp Send Message Models
type WhatsAppSendMessage struct {
    MessagingProduct string              `json:"messaging_product"`
    RecipientType    string              `json:"recipient_type"`
    To               string              `json:"to"`
    Type             string              `json:"type"`
    Text             *WhatsAppText       `json:"text,omitempty"`
    Interactive      *InteractiveMessage `json:"interactive,omitempty"`
}

// Helper method to create a pet picker list for WhatsApp
func NewPetListMessage(body string, pets []Pet) *InteractiveMessage {
    rows := make([]ListItem, 0, len(pets))
    for _, p := range pets {
        rows = append(rows, ListItem{
            ID:          p.ID,
            Title:       p.Name,
            Description: p.Breed,
        })
    }
    return &InteractiveMessage{
        Type: "list",
        Body: &InteractiveText{Text: body},
        Action: &InteractiveAction{
            Button:   "Mis mascotas",
            Sections: []Section{{Title: "Mascotas", Rows: rows}},
        },
    }
}

// WhatsAppServiceStatus represents the status of WhatsApp service
type WhatsAppServiceStatus struct {
    Enabled           bool      `json:"enabled"`
    LastMessageSent   time.Time `json:"last_message_sent"`
    MessageCountToday int       `json:"message_count_today"`
    ActiveSessions    int       `json:"active_sessions"`
}
