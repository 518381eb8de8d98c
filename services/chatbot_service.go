package services

import (
    "context"
    "errors"
    "fmt"
    "sync"
    "time"

    "github.com/google/uuid"
    "go.uber.org/zap"

    "pawmi-triage-backend/models"
)

var ErrConversationNotFound = errors.New("conversation not found")

// PetSource reads pet profiles.
type PetSource interface {
    GetPet(ctx context.Context, id string) (*models.Pet, error)
    ListPets(ctx context.Context, ownerID string) ([]models.Pet, error)
}

// TranscriptStore persists emitted messages.
type TranscriptStore interface {
    SaveMessage(ctx context.Context, msg models.ChatMessage) error
    ListMessages(ctx context.Context, conversationID string, limit int64) ([]models.ChatMessage, error)
    DeleteConversation(ctx context.Context, conversationID string) error
}

// ChatbotService owns one Orchestrator per conversation and routes every
// emitted message to the transcript store and live subscribers.
type ChatbotService struct {
    mu            sync.Mutex
    conversations map[string]*Orchestrator

    deps        TriageDeps
    pets        PetSource
    store       TranscriptStore
    broadcaster *Broadcaster
    logger      *zap.Logger
}

func NewChatbotService(deps TriageDeps, pets PetSource, store TranscriptStore, broadcaster *Broadcaster, logger *zap.Logger) *ChatbotService {
    if deps.Logger == nil {
        deps.Logger = logger
    }
    return &ChatbotService{
        conversations: make(map[string]*Orchestrator),
        deps:          deps,
        pets:          pets,
        store:         store,
        broadcaster:   broadcaster,
        logger:        logger.Named("chatbot"),
    }
}

// CreateConversation opens a conversation and greets the owner.
func (s *ChatbotService) CreateConversation() models.SessionSnapshot {
    orch, _ := s.EnsureConversation(uuid.NewString())
    return orch.Snapshot()
}

// EnsureConversation returns the conversation with id, creating it (and
// emitting the greeting) when it does not exist yet.
func (s *ChatbotService) EnsureConversation(id string) (*Orchestrator, bool) {
    s.mu.Lock()
    orch, ok := s.conversations[id]
    if !ok {
        orch = NewOrchestrator(id, s.deps, SinkFunc(s.deliver))
        s.conversations[id] = orch
    }
    s.mu.Unlock()

    if !ok {
        s.logger.Info("conversation created", zap.String("conversation_id", id))
        orch.Welcome()
    }
    return orch, !ok
}

func (s *ChatbotService) conversation(id string) (*Orchestrator, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    orch, ok := s.conversations[id]
    if !ok {
        return nil, ErrConversationNotFound
    }
    return orch, nil
}

func (s *ChatbotService) ListPets(ctx context.Context, ownerID string) ([]models.Pet, error) {
    return s.pets.ListPets(ctx, ownerID)
}

// SelectPet loads the pet and restarts the conversation around it.
func (s *ChatbotService) SelectPet(ctx context.Context, conversationID, petID string) (models.SessionSnapshot, error) {
    orch, err := s.conversation(conversationID)
    if err != nil {
        return models.SessionSnapshot{}, err
    }
    pet, err := s.pets.GetPet(ctx, petID)
    if err != nil {
        return models.SessionSnapshot{}, err
    }
    orch.SelectPet(*pet)
    return orch.Snapshot(), nil
}

func (s *ChatbotService) SendMessage(conversationID, text string) (models.SessionSnapshot, error) {
    orch, err := s.conversation(conversationID)
    if err != nil {
        return models.SessionSnapshot{}, err
    }
    err = orch.SubmitReply(text)
    return orch.Snapshot(), err
}

func (s *ChatbotService) RetryPrediction(conversationID string) (models.SessionSnapshot, error) {
    orch, err := s.conversation(conversationID)
    if err != nil {
        return models.SessionSnapshot{}, err
    }
    err = orch.RetryPrediction()
    return orch.Snapshot(), err
}

func (s *ChatbotService) Clear(conversationID string) (models.SessionSnapshot, error) {
    orch, err := s.conversation(conversationID)
    if err != nil {
        return models.SessionSnapshot{}, err
    }
    orch.Clear()
    return orch.Snapshot(), nil
}

func (s *ChatbotService) Snapshot(conversationID string) (models.SessionSnapshot, error) {
    orch, err := s.conversation(conversationID)
    if err != nil {
        return models.SessionSnapshot{}, err
    }
    return orch.Snapshot(), nil
}

// DeleteConversation cancels everything pending for the conversation and
// removes its stored transcript.
func (s *ChatbotService) DeleteConversation(ctx context.Context, conversationID string) error {
    s.mu.Lock()
    orch, ok := s.conversations[conversationID]
    delete(s.conversations, conversationID)
    s.mu.Unlock()

    if !ok {
        return ErrConversationNotFound
    }
    orch.Close()
    if s.store != nil {
        return s.store.DeleteConversation(ctx, conversationID)
    }
    return nil
}

func (s *ChatbotService) Transcript(ctx context.Context, conversationID string, limit int64) ([]models.ChatMessage, error) {
    if _, err := s.conversation(conversationID); err != nil {
        return nil, err
    }
    if s.store == nil {
        return nil, fmt.Errorf("transcript store is not configured")
    }
    return s.store.ListMessages(ctx, conversationID, limit)
}

func (s *ChatbotService) Subscribe(conversationID string) (<-chan models.ChatMessage, func()) {
    return s.broadcaster.Subscribe(conversationID)
}

func (s *ChatbotService) ActiveSessions() int {
    s.mu.Lock()
    defer s.mu.Unlock()
    return len(s.conversations)
}

func (s *ChatbotService) CatalogSize() int {
    return len(s.deps.Catalog.Questions)
}

// Shutdown cancels pending work of every conversation.
func (s *ChatbotService) Shutdown() {
    s.mu.Lock()
    defer s.mu.Unlock()
    for id, orch := range s.conversations {
        orch.Close()
        delete(s.conversations, id)
    }
}

func (s *ChatbotService) deliver(msg models.ChatMessage) {
    if s.store != nil {
        ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
        if err := s.store.SaveMessage(ctx, msg); err != nil {
            s.logger.Error("failed to persist message",
                zap.String("conversation_id", msg.ConversationID),
                zap.Error(err),
            )
        }
        cancel()
    }
    s.broadcaster.Publish(msg)
}
