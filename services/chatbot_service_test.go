package services

import (
    "context"
    "sync"
    "testing"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
    "go.uber.org/zap"

    "pawmi-triage-backend/database"
    "pawmi-triage-backend/models"
)

type memoryPets struct {
    pets []models.Pet
}

func (m *memoryPets) GetPet(_ context.Context, id string) (*models.Pet, error) {
    for _, p := range m.pets {
        if p.ID == id {
            pet := p
            return &pet, nil
        }
    }
    return nil, database.ErrPetNotFound
}

func (m *memoryPets) ListPets(_ context.Context, ownerID string) ([]models.Pet, error) {
    var out []models.Pet
    for _, p := range m.pets {
        if p.OwnerID == ownerID {
            out = append(out, p)
        }
    }
    return out, nil
}

type memoryStore struct {
    mu       sync.Mutex
    messages map[string][]models.ChatMessage
}

func newMemoryStore() *memoryStore {
    return &memoryStore{messages: make(map[string][]models.ChatMessage)}
}

func (m *memoryStore) SaveMessage(_ context.Context, msg models.ChatMessage) error {
    m.mu.Lock()
    defer m.mu.Unlock()
    m.messages[msg.ConversationID] = append(m.messages[msg.ConversationID], msg)
    return nil
}

func (m *memoryStore) ListMessages(_ context.Context, id string, limit int64) ([]models.ChatMessage, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    msgs := m.messages[id]
    if limit > 0 && int64(len(msgs)) > limit {
        msgs = msgs[:limit]
    }
    return append([]models.ChatMessage(nil), msgs...), nil
}

func (m *memoryStore) DeleteConversation(_ context.Context, id string) error {
    m.mu.Lock()
    defer m.mu.Unlock()
    delete(m.messages, id)
    return nil
}

func newTestChatbotService(t *testing.T) (*ChatbotService, *manualScheduler, *memoryStore) {
    t.Helper()
    scheduler := &manualScheduler{}
    store := newMemoryStore()
    deps := NewTriageDeps(defaultCatalog(t), newFakePredictor(), scheduler, Pacing{}, zap.NewNop())
    svc := NewChatbotService(deps, &memoryPets{pets: []models.Pet{testPet()}}, store, NewBroadcaster(zap.NewNop()), zap.NewNop())
    return svc, scheduler, store
}

func TestChatbotService_ConversationLifecycle(t *testing.T) {
    svc, scheduler, store := newTestChatbotService(t)

    snap := svc.CreateConversation()
    id := snap.ConversationID
    require.NotEmpty(t, id)
    assert.Equal(t, 1, svc.ActiveSessions())

    stream, unsubscribe := svc.Subscribe(id)
    defer unsubscribe()
    scheduler.Flush()

    welcome := <-stream
    assert.Equal(t, models.KindWelcome, welcome.Kind)

    snap, err := svc.SelectPet(context.Background(), id, "pet-1")
    require.NoError(t, err)
    assert.Equal(t, "Toby", snap.Pet.Name)

    snap, err = svc.SendMessage(id, "mi perro tiene vómito y fiebre")
    require.NoError(t, err)
    assert.True(t, snap.Guided)
    scheduler.Flush()

    transcript, err := svc.Transcript(context.Background(), id, 0)
    require.NoError(t, err)
    require.NotEmpty(t, transcript)
    assert.Equal(t, models.KindWelcome, transcript[0].Kind)
    assert.Equal(t, models.KindQuestion, transcript[len(transcript)-1].Kind)

    snap, err = svc.Clear(id)
    require.NoError(t, err)
    assert.Nil(t, snap.Pet)

    require.NoError(t, svc.DeleteConversation(context.Background(), id))
    assert.Zero(t, svc.ActiveSessions())
    assert.Empty(t, store.messages[id])
}

func TestChatbotService_Errors(t *testing.T) {
    svc, _, _ := newTestChatbotService(t)

    _, err := svc.SendMessage("missing", "hola")
    assert.ErrorIs(t, err, ErrConversationNotFound)
    _, err = svc.RetryPrediction("missing")
    assert.ErrorIs(t, err, ErrConversationNotFound)
    assert.ErrorIs(t, svc.DeleteConversation(context.Background(), "missing"), ErrConversationNotFound)

    id := svc.CreateConversation().ConversationID
    _, err = svc.SelectPet(context.Background(), id, "nope")
    assert.ErrorIs(t, err, database.ErrPetNotFound)

    _, err = svc.RetryPrediction(id)
    assert.ErrorIs(t, err, ErrNoPetSelected)
}

func TestChatbotService_EnsureConversationIsIdempotent(t *testing.T) {
    svc, _, _ := newTestChatbotService(t)

    first, created := svc.EnsureConversation("wa:51999")
    assert.True(t, created)
    second, created := svc.EnsureConversation("wa:51999")
    assert.False(t, created)
    assert.Same(t, first, second)

    pets, err := svc.ListPets(context.Background(), "owner-1")
    require.NoError(t, err)
    assert.Len(t, pets, 1)
    assert.Equal(t, 6, svc.CatalogSize())
}
