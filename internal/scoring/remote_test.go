package scoring

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medml-risk-server/internal/domain"
	"github.com/medml-risk-server/internal/features"
)

func heartVector(t *testing.T) features.Vector {
	t.Helper()
	v, err := features.BuildHeart(&domain.HeartAssessment{CholesterolLevel: 210, SystolicBP: 130, DiastolicBP: 85},
		domain.PatientDemographics{Age: 52, Gender: domain.GenderMale})
	require.NoError(t, err)
	return v
}

func TestRemoteModel_PredictProbability(t *testing.T) {
	var received remoteRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"probability": 0.42}`))
	}))
	defer server.Close()

	logger, _ := test.NewNullLogger()
	m, err := NewRemoteModel(RemoteConfig{Disease: domain.Heart, Endpoint: server.URL}, logger)
	require.NoError(t, err)

	p, err := m.PredictProbability(context.Background(), heartVector(t))
	require.NoError(t, err)
	assert.Equal(t, 0.42, p)

	assert.Equal(t, domain.Heart, received.Disease)
	assert.Len(t, received.Columns, 27)
	assert.Len(t, received.Values, 27)
	assert.Equal(t, "Diabetes", received.Columns[0])
}

func TestRemoteModel_Errors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"Server error", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "model crashed", http.StatusInternalServerError)
		}},
		{"Missing probability", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{}`))
		}},
		{"Malformed body", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`not json`))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			logger, _ := test.NewNullLogger()
			m, err := NewRemoteModel(RemoteConfig{Disease: domain.Heart, Endpoint: server.URL}, logger)
			require.NoError(t, err)

			_, err = m.PredictProbability(context.Background(), heartVector(t))
			assert.Error(t, err)
		})
	}
}

func TestRemoteModel_CircuitBreakerOpens(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	logger, hook := test.NewNullLogger()
	m, err := NewRemoteModel(RemoteConfig{Disease: domain.Heart, Endpoint: server.URL}, logger)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := m.PredictProbability(context.Background(), heartVector(t))
		require.Error(t, err)
	}
	assert.Equal(t, gobreaker.StateOpen, m.State())

	_, err = m.PredictProbability(context.Background(), heartVector(t))
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls), "open breaker must not reach the server")

	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, "Circuit breaker state changed", hook.LastEntry().Message)
}

func TestRemoteModel_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte(`{"probability": 0.1}`))
	}))
	defer server.Close()

	logger, _ := test.NewNullLogger()
	m, err := NewRemoteModel(RemoteConfig{Disease: domain.Heart, Endpoint: server.URL, Timeout: 20 * time.Millisecond}, logger)
	require.NoError(t, err)

	_, err = m.PredictProbability(context.Background(), heartVector(t))
	assert.Error(t, err)
}

func TestRemoteModel_RateLimitHonoursContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"probability": 0.3}`))
	}))
	defer server.Close()

	logger, _ := test.NewNullLogger()
	m, err := NewRemoteModel(RemoteConfig{Disease: domain.Heart, Endpoint: server.URL, RateLimit: 0.01}, logger)
	require.NoError(t, err)

	_, err = m.PredictProbability(context.Background(), heartVector(t))
	require.NoError(t, err, "first call uses the burst token")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = m.PredictProbability(ctx, heartVector(t))
	assert.Error(t, err)
}

func TestNewRemoteModel_RequiresEndpoint(t *testing.T) {
	logger, _ := test.NewNullLogger()
	_, err := NewRemoteModel(RemoteConfig{Disease: domain.Heart}, logger)
	assert.Error(t, err)
}
