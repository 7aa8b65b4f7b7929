package external

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/clinrec-advisor/internal/domain"
)

// recommendPath is the endpoint the remote service exposes for visit histories
const recommendPath = "/recommend"

// maxResponseBytes caps how much of a remote reply is read
const maxResponseBytes = 1 << 20

// ErrRemoteRejected is returned when the remote service answers success=false
var ErrRemoteRejected = errors.New("recommendation service rejected the request")

// RecommendationClient forwards visit records to the remote recommendation service
type RecommendationClient struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker
	logger     *logrus.Logger
}

// NewRecommendationClient creates a client for the configured endpoint
func NewRecommendationClient(config domain.RecommendationConfig, logger *logrus.Logger) (*RecommendationClient, error) {
	if !config.Enabled() {
		return nil, fmt.Errorf("recommendation base URL is not configured")
	}

	// Set default configuration
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.RateLimit <= 0 {
		config.RateLimit = 5
	}
	if config.MaxRequests == 0 {
		config.MaxRequests = 3
	}
	if config.Interval == 0 {
		config.Interval = 60 * time.Second
	}
	if config.BreakerTimeout == 0 {
		config.BreakerTimeout = 30 * time.Second
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "Recommendation",
		MaxRequests: config.MaxRequests,
		Interval:    config.Interval,
		Timeout:     config.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("Circuit breaker state changed")
		},
	})

	return &RecommendationClient{
		baseURL: strings.TrimRight(config.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		limiter: rate.NewLimiter(rate.Limit(config.RateLimit), config.RateLimit),
		breaker: breaker,
		logger:  logger,
	}, nil
}

// Recommend posts the visit record and returns the remote recommendation text
func (c *RecommendationClient) Recommend(ctx context.Context, record *domain.VisitRecord) (string, error) {
	if record == nil {
		return "", fmt.Errorf("visit record is nil")
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter: %w", err)
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.post(ctx, record)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return "", fmt.Errorf("recommendation service unavailable (circuit breaker open): %w", err)
		}
		return "", err
	}

	resp := result.(*domain.RecommendationResponse)
	if !resp.Success {
		message := resp.Error
		if message == "" {
			message = "no reason given"
		}
		return "", fmt.Errorf("%w: %s", ErrRemoteRejected, message)
	}

	c.logger.WithFields(logrus.Fields{
		"patient_id": record.PatientID,
		"visits":     len(record.Visits),
	}).Debug("Remote recommendation received")

	return resp.Recommendation, nil
}

// State exposes the breaker state for health reporting
func (c *RecommendationClient) State() gobreaker.State {
	return c.breaker.State()
}

// post performs one request. Transport failures and 5xx replies count against
// the breaker; a well-formed success=false reply does not.
func (c *RecommendationClient) post(ctx context.Context, record *domain.VisitRecord) (*domain.RecommendationResponse, error) {
	payload, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("failed to encode visit record: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+recommendPath, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, fmt.Errorf("recommendation service returned status %d", resp.StatusCode)
	}

	var decoded domain.RecommendationResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("recommendation service returned status %d", resp.StatusCode)
		}
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if resp.StatusCode != http.StatusOK && decoded.Error == "" {
		decoded.Success = false
		decoded.Error = fmt.Sprintf("status %d", resp.StatusCode)
	}

	return &decoded, nil
}
