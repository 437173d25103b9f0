package health

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// feederGatewayStub stands in for the L2 feeder gateway's liveness
// endpoint that cmd/fluence's watchFeederGateway polls.
func feederGatewayStub(status int, delay time.Duration) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if delay > 0 {
			time.Sleep(delay)
		}
		w.WriteHeader(status)
	}))
}

func TestHTTPChecker_GatewayReachable(t *testing.T) {
	gateway := feederGatewayStub(http.StatusOK, 0)
	defer gateway.Close()

	checker := NewHTTPChecker(gateway.URL)
	result := checker.Check(context.Background())

	require.True(t, result.Healthy, result.Message)
	require.Greater(t, result.Duration, time.Duration(0))
}

func TestHTTPChecker_GatewayReturnsServerError(t *testing.T) {
	gateway := feederGatewayStub(http.StatusInternalServerError, 0)
	defer gateway.Close()

	checker := NewHTTPChecker(gateway.URL)
	result := checker.Check(context.Background())

	require.False(t, result.Healthy)
}

func TestHTTPChecker_CustomStatusRange(t *testing.T) {
	gateway := feederGatewayStub(http.StatusCreated, 0)
	defer gateway.Close()

	checker := NewHTTPChecker(gateway.URL).WithStatusRange(200, 299)
	result := checker.Check(context.Background())

	require.True(t, result.Healthy, result.Message)
}

func TestHTTPChecker_CustomHeaders(t *testing.T) {
	gateway := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Api-Key") != "feeder-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer gateway.Close()

	checker := NewHTTPChecker(gateway.URL).WithHeader("X-Api-Key", "feeder-token")
	result := checker.Check(context.Background())

	require.True(t, result.Healthy, result.Message)
}

func TestHTTPChecker_Timeout(t *testing.T) {
	gateway := feederGatewayStub(http.StatusOK, 200*time.Millisecond)
	defer gateway.Close()

	checker := NewHTTPChecker(gateway.URL).WithTimeout(50 * time.Millisecond)
	result := checker.Check(context.Background())

	require.False(t, result.Healthy)
}

func TestHTTPChecker_ContextCancellation(t *testing.T) {
	gateway := feederGatewayStub(http.StatusOK, 200*time.Millisecond)
	defer gateway.Close()

	checker := NewHTTPChecker(gateway.URL)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := checker.Check(ctx)

	require.False(t, result.Healthy)
}

func TestHTTPChecker_Type(t *testing.T) {
	checker := NewHTTPChecker("https://alpha4.starknet.io/feeder_gateway/is_alive")
	require.Equal(t, CheckTypeHTTP, checker.Type())
}

// TestStatus_FlipsUnhealthyOnlyAfterRetries mirrors watchFeederGateway's
// use of Status: it should not flap on a single dropped request, only
// after Retries consecutive failures.
func TestStatus_FlipsUnhealthyOnlyAfterRetries(t *testing.T) {
	cfg := Config{Retries: 3}
	status := NewStatus()
	require.True(t, status.Healthy)

	status.Update(Result{Healthy: false, CheckedAt: time.Now()}, cfg)
	require.True(t, status.Healthy, "a single failure must not flip readiness")

	status.Update(Result{Healthy: false, CheckedAt: time.Now()}, cfg)
	require.True(t, status.Healthy)

	status.Update(Result{Healthy: false, CheckedAt: time.Now()}, cfg)
	require.False(t, status.Healthy, "three consecutive failures must flip readiness")

	status.Update(Result{Healthy: true, CheckedAt: time.Now()}, cfg)
	require.True(t, status.Healthy, "a single success recovers readiness")
}
