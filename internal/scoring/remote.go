package scoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/medml-risk-server/internal/domain"
	"github.com/medml-risk-server/internal/features"
)

// RemoteConfig configures a model served over HTTP
type RemoteConfig struct {
	Disease   domain.Disease
	Endpoint  string
	Timeout   time.Duration
	RateLimit float64 // requests per second, 0 disables throttling
}

type remoteRequest struct {
	Disease domain.Disease `json:"disease"`
	Columns []string       `json:"columns"`
	Values  []float64      `json:"values"`
}

type remoteResponse struct {
	Probability *float64 `json:"probability"`
}

// RemoteModel calls a scoring sidecar through a circuit breaker and an
// optional rate limiter.
type RemoteModel struct {
	disease  domain.Disease
	endpoint string
	client   *http.Client
	limiter  *rate.Limiter
	breaker  *gobreaker.CircuitBreaker
	logger   *logrus.Logger
}

// NewRemoteModel creates a remote model client
func NewRemoteModel(cfg RemoteConfig, logger *logrus.Logger) (*RemoteModel, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("%s remote model: endpoint is required", cfg.Disease)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}

	m := &RemoteModel{
		disease:  cfg.Disease,
		endpoint: cfg.Endpoint,
		client:   &http.Client{Timeout: cfg.Timeout},
		logger:   logger,
	}
	if cfg.RateLimit > 0 {
		m.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), 1)
	}

	m.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        fmt.Sprintf("%s-model", cfg.Disease),
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"circuit_breaker": name,
				"from_state":      from.String(),
				"to_state":        to.String(),
			}).Warn("Circuit breaker state changed")
		},
	})
	return m, nil
}

// PredictProbability posts the vector and returns the sidecar's probability.
func (m *RemoteModel) PredictProbability(ctx context.Context, v features.Vector) (float64, error) {
	if m.limiter != nil {
		if err := m.limiter.Wait(ctx); err != nil {
			return 0, fmt.Errorf("%s model rate limit: %w", m.disease, err)
		}
	}

	result, err := m.breaker.Execute(func() (interface{}, error) {
		return m.call(ctx, v)
	})
	if err != nil {
		return 0, fmt.Errorf("%s remote model: %w", m.disease, err)
	}
	return result.(float64), nil
}

// State exposes the breaker state for health reporting.
func (m *RemoteModel) State() gobreaker.State {
	return m.breaker.State()
}

func (m *RemoteModel) call(ctx context.Context, v features.Vector) (float64, error) {
	body, err := json.Marshal(remoteRequest{
		Disease: v.Disease(),
		Columns: v.Columns(),
		Values:  v.Values(),
	})
	if err != nil {
		return 0, fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return 0, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}

	var out remoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, fmt.Errorf("decoding response: %w", err)
	}
	if out.Probability == nil {
		return 0, fmt.Errorf("response missing probability")
	}
	return *out.Probability, nil
}
