package services

import (
    "context"
    "encoding/json"
    "net/http"
    "net/http/httptest"
    "sync/atomic"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
    "go.uber.org/zap"

    "pawmi-triage-backend/config"
    "pawmi-triage-backend/models"
)

func newPredictionServer(t *testing.T, handler http.HandlerFunc) (*PredictionService, *httptest.Server) {
    t.Helper()
    srv := httptest.NewServer(handler)
    t.Cleanup(srv.Close)
    svc := NewPredictionService(config.PredictionConfig{
        BaseURL: srv.URL,
        Path:    "/disease/predict",
        Timeout: 2 * time.Second,
        Retries: 1,
    }, zap.NewNop())
    return svc, srv
}

func TestPredictionService_Predict(t *testing.T) {
    var body map[string]interface{}
    svc, _ := newPredictionServer(t, func(w http.ResponseWriter, r *http.Request) {
        assert.Equal(t, http.MethodPost, r.Method)
        assert.Equal(t, "/disease/predict", r.URL.Path)
        require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
        w.Header().Set("Content-Type", "application/json")
        json.NewEncoder(w).Encode(sampleResult())
    })

    req := NewPayloadBuilder(models.DefaultSymptomKeys).Build(models.Pet{Species: "perro"}, models.FlagSet{models.SymptomVomiting: 1})
    result, err := svc.Predict(context.Background(), req)
    require.NoError(t, err)
    assert.Equal(t, "Gastroenteritis", result.Predictions[0].Disease)
    assert.Equal(t, float64(1), body["vomitos"])
    assert.Equal(t, "Perro", body["animal_type"])
}

func TestPredictionService_RetriesServerErrors(t *testing.T) {
    var calls int32
    svc, _ := newPredictionServer(t, func(w http.ResponseWriter, r *http.Request) {
        if atomic.AddInt32(&calls, 1) == 1 {
            w.WriteHeader(http.StatusBadGateway)
            return
        }
        w.Header().Set("Content-Type", "application/json")
        json.NewEncoder(w).Encode(sampleResult())
    })

    _, err := svc.Predict(context.Background(), models.PredictionRequest{})
    require.NoError(t, err)
    assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestPredictionService_Errors(t *testing.T) {
    t.Run("client error", func(t *testing.T) {
        svc, _ := newPredictionServer(t, func(w http.ResponseWriter, r *http.Request) {
            w.Header().Set("Content-Type", "application/json")
            w.WriteHeader(http.StatusUnprocessableEntity)
            w.Write([]byte(`{"detail":"bad payload"}`))
        })
        _, err := svc.Predict(context.Background(), models.PredictionRequest{})
        assert.ErrorContains(t, err, "422")
    })

    t.Run("no predictions", func(t *testing.T) {
        svc, _ := newPredictionServer(t, func(w http.ResponseWriter, r *http.Request) {
            w.Header().Set("Content-Type", "application/json")
            w.Write([]byte(`{"success":false,"message":"modelo no disponible","predictions":[]}`))
        })
        _, err := svc.Predict(context.Background(), models.PredictionRequest{})
        assert.ErrorContains(t, err, "modelo no disponible")
    })

    t.Run("cancelled context", func(t *testing.T) {
        svc, _ := newPredictionServer(t, func(w http.ResponseWriter, r *http.Request) {
            <-r.Context().Done()
        })
        ctx, cancel := context.WithCancel(context.Background())
        cancel()
        _, err := svc.Predict(ctx, models.PredictionRequest{})
        assert.Error(t, err)
    })
}
