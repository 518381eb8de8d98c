package services

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"pawmi-triage-backend/config"
	"pawmi-triage-backend/models"
)

// Predictor issues the disease-prediction call.
type Predictor interface {
	Predict(ctx context.Context, req models.PredictionRequest) (*models.PredictionResult, error)
}

// PredictionService calls the remote disease model over HTTP.
type PredictionService struct {
	client *resty.Client
	path   string
	logger *zap.Logger
}

func NewPredictionService(cfg config.PredictionConfig, logger *zap.Logger) *PredictionService {
	client := resty.New()
	client.SetBaseURL(cfg.BaseURL)
	client.SetTimeout(cfg.Timeout)
	client.SetHeader("Content-Type", "application/json")
	client.SetRetryCount(cfg.Retries)
	client.SetRetryWaitTime(500 * time.Millisecond)
	client.AddRetryCondition(func(r *resty.Response, err error) bool {
		return err != nil || r.StatusCode() >= 500
	})

	return &PredictionService{
		client: client,
		path:   cfg.Path,
		logger: logger.Named("prediction"),
	}
}

func (s *PredictionService) Predict(ctx context.Context, req models.PredictionRequest) (*models.PredictionResult, error) {
	var result models.PredictionResult
	var apiErr map[string]interface{}

	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&result).
		SetError(&apiErr).
		Post(s.path)
	if err != nil {
		return nil, fmt.Errorf("prediction request failed: %w", err)
	}

	if resp.IsError() {
		s.logger.Warn("prediction API returned an error",
			zap.Int("status", resp.StatusCode()),
			zap.Any("body", apiErr),
		)
		return nil, fmt.Errorf("prediction API error: status %d", resp.StatusCode())
	}

	if len(result.Predictions) == 0 {
		if result.Message != "" {
			return nil, fmt.Errorf("prediction API returned no predictions: %s", result.Message)
		}
		return nil, fmt.Errorf("prediction API returned no predictions")
	}

	s.logger.Debug("prediction received",
		zap.String("top", result.Predictions[0].Disease),
		zap.Float64("probability", result.Predictions[0].Probability),
	)
	return &result, nil
}
