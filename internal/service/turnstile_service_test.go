package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSiteverifyServer(t *testing.T, success bool, calls *int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)

		var req turnstileRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "secret", req.Secret)
		assert.Equal(t, "203.0.113.7", req.RemoteIP)

		resp := turnstileResponse{Success: success}
		if !success {
			resp.ErrorCodes = []string{"invalid-input-response"}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestTurnstileService_VerifyToken(t *testing.T) {
	var calls int32
	srv := newSiteverifyServer(t, true, &calls)

	s := NewTurnstileService("secret", srv.URL, srv.Client())
	ok, err := s.VerifyToken(context.Background(), "valid", "203.0.113.7")

	require.NoError(t, err)
	assert.True(t, ok)
	assert.EqualValues(t, 1, calls)
}

func TestTurnstileService_Rejected(t *testing.T) {
	var calls int32
	srv := newSiteverifyServer(t, false, &calls)

	s := NewTurnstileService("secret", srv.URL, srv.Client())
	ok, err := s.VerifyToken(context.Background(), "bot", "203.0.113.7")

	assert.False(t, ok)
	require.ErrorIs(t, err, ErrVerificationFailed)
	assert.Contains(t, err.Error(), "invalid-input-response")
	assert.EqualValues(t, 1, calls, "a failed verification is not retried")
}

func TestTurnstileService_LocalFailures(t *testing.T) {
	var calls int32
	srv := newSiteverifyServer(t, true, &calls)

	tests := []struct {
		name   string
		secret string
		token  string
	}{
		{"missing secret", "", "valid"},
		{"missing token", "secret", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewTurnstileService(tt.secret, srv.URL, srv.Client())
			ok, err := s.VerifyToken(context.Background(), tt.token, "203.0.113.7")
			assert.False(t, ok)
			assert.ErrorIs(t, err, ErrVerificationFailed)
		})
	}
	assert.EqualValues(t, 0, calls)
}

func TestTurnstileService_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	s := NewTurnstileService("secret", url, nil)
	ok, err := s.VerifyToken(context.Background(), "valid", "")
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrVerificationFailed)
}

func TestTurnstileService_MalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("<html>bad gateway</html>"))
	}))
	defer srv.Close()

	s := NewTurnstileService("secret", srv.URL, srv.Client())
	ok, err := s.VerifyToken(context.Background(), "valid", "")
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrVerificationFailed)
}

func TestNewTurnstileService_DefaultURL(t *testing.T) {
	s := NewTurnstileService("secret", "", nil)
	assert.Equal(t, DefaultTurnstileVerifyURL, s.verifyURL)
}
