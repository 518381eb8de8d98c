package controllers

import (
    "net/http"
    "net/http/httptest"
    "strings"
    "testing"
    "time"

    "github.com/gin-gonic/gin"
    "github.com/gorilla/websocket"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
    "go.uber.org/zap"

    "pawmi-triage-backend/models"
)

func TestWebSocketController_StreamsConversation(t *testing.T) {
    svc := newTestService(t)
    id := svc.CreateConversation().ConversationID

    gin.SetMode(gin.TestMode)
    router := gin.New()
    router.GET("/ws", NewWebSocketController(svc, []string{"*"}, zap.NewNop()).HandleWebSocket)
    srv := httptest.NewServer(router)
    defer srv.Close()

    url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?conversation_id=" + id
    conn, _, err := websocket.DefaultDialer.Dial(url, nil)
    require.NoError(t, err)
    defer conn.Close()

    require.NoError(t, conn.WriteJSON(wsFrame{Type: "select_pet", PetID: "pet-2"}))
    require.NoError(t, conn.WriteJSON(wsFrame{Type: "message", Message: "mi gato tiene fiebre y tos"}))

    var question models.ChatMessage
    conn.SetReadDeadline(time.Now().Add(2 * time.Second))
    for {
        var msg models.ChatMessage
        require.NoError(t, conn.ReadJSON(&msg))
        assert.Equal(t, id, msg.ConversationID)
        if msg.Kind == models.KindQuestion {
            question = msg
            break
        }
    }
    assert.Equal(t, "vomitos", question.QuestionID)
    snap, err := svc.Snapshot(id)
    require.NoError(t, err)
    require.NotNil(t, snap.Pet)
    assert.Equal(t, "Misu", snap.Pet.Name)
}

func TestWebSocketController_RequiresConversation(t *testing.T) {
    svc := newTestService(t)
    gin.SetMode(gin.TestMode)
    router := gin.New()
    router.GET("/ws", NewWebSocketController(svc, nil, zap.NewNop()).HandleWebSocket)

    w := httptest.NewRecorder()
    router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ws", nil))
    assert.Equal(t, http.StatusBadRequest, w.Code)

    w = httptest.NewRecorder()
    router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ws?conversation_id=nope", nil))
    assert.Equal(t, http.StatusNotFound, w.Code)
}
