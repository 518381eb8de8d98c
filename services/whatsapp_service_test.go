package services

import (
    "context"
    "encoding/json"
    "net/http"
    "net/http/httptest"
    "testing"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
    "go.uber.org/zap"

    "pawmi-triage-backend/config"
    "pawmi-triage-backend/models"
)

func newGraphStub(t *testing.T, status int, sent *[]models.WhatsAppSendMessage) *WhatsAppService {
    t.Helper()
    srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        assert.Equal(t, "/v18.0/12345/messages", r.URL.Path)
        assert.Equal(t, "Bearer token", r.Header.Get("Authorization"))
        var msg models.WhatsAppSendMessage
        require.NoError(t, json.NewDecoder(r.Body).Decode(&msg))
        *sent = append(*sent, msg)
        w.Header().Set("Content-Type", "application/json")
        w.WriteHeader(status)
        if status >= 400 {
            w.Write([]byte(`{"error":{"message":"Invalid parameter","code":100}}`))
            return
        }
        w.Write([]byte(`{"messages":[{"id":"wamid.1"}]}`))
    }))
    t.Cleanup(srv.Close)

    return NewWhatsAppService(config.WhatsAppConfig{
        APIURL:        srv.URL,
        APIVersion:    "v18.0",
        AccessToken:   "token",
        PhoneNumberID: "12345",
        VerifyToken:   "verify",
    }, zap.NewNop())
}

func TestWhatsAppService_SendTextMessage(t *testing.T) {
    var sent []models.WhatsAppSendMessage
    ws := newGraphStub(t, http.StatusOK, &sent)

    require.NoError(t, ws.SendTextMessage(context.Background(), "+51 999-888-777", "hola"))
    require.Len(t, sent, 1)
    assert.Equal(t, "51999888777", sent[0].To)
    assert.Equal(t, "text", sent[0].Type)
    assert.Equal(t, "hola", sent[0].Text.Body)

    status := ws.GetStatus(3)
    assert.True(t, status.Enabled)
    assert.Equal(t, 1, status.MessageCountToday)
    assert.Equal(t, 3, status.ActiveSessions)
}

func TestWhatsAppService_SendPetList(t *testing.T) {
    var sent []models.WhatsAppSendMessage
    ws := newGraphStub(t, http.StatusOK, &sent)

    list := models.NewPetListMessage("Elige", []models.Pet{{ID: "p1", Name: "Toby", Breed: "Mestizo"}})
    require.NoError(t, ws.SendInteractiveMessage(context.Background(), "51999", list))

    require.Len(t, sent, 1)
    require.NotNil(t, sent[0].Interactive)
    assert.Equal(t, "list", sent[0].Interactive.Type)
    assert.Equal(t, "p1", sent[0].Interactive.Action.Sections[0].Rows[0].ID)
}

func TestWhatsAppService_APIError(t *testing.T) {
    var sent []models.WhatsAppSendMessage
    ws := newGraphStub(t, http.StatusBadRequest, &sent)

    err := ws.SendTextMessage(context.Background(), "51999", "hola")
    assert.ErrorContains(t, err, "Invalid parameter")
    assert.Zero(t, ws.GetStatus(0).MessageCountToday)
}

func TestWhatsAppService_NotConfigured(t *testing.T) {
    ws := NewWhatsAppService(config.WhatsAppConfig{}, zap.NewNop())
    assert.Error(t, ws.SendTextMessage(context.Background(), "51999", "hola"))
}

func TestCleanPhoneNumber(t *testing.T) {
    assert.Equal(t, "51999888777", CleanPhoneNumber("+51 (999) 888-777"))
    assert.Empty(t, CleanPhoneNumber("abc"))
}
