package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// DefaultTurnstileVerifyURL is Cloudflare's siteverify endpoint
const DefaultTurnstileVerifyURL = "https://challenges.cloudflare.com/turnstile/v0/siteverify"

// TurnstileService handles Cloudflare Turnstile verification
type TurnstileService struct {
	secretKey string
	verifyURL string
	client    *http.Client
}

// NewTurnstileService creates a new Turnstile service
func NewTurnstileService(secretKey, verifyURL string, client *http.Client) *TurnstileService {
	if verifyURL == "" {
		verifyURL = DefaultTurnstileVerifyURL
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &TurnstileService{
		secretKey: secretKey,
		verifyURL: verifyURL,
		client:    client,
	}
}

type turnstileRequest struct {
	Secret   string `json:"secret"`
	Response string `json:"response"`
	RemoteIP string `json:"remoteip,omitempty"`
}

// turnstileResponse represents the response from the siteverify API
type turnstileResponse struct {
	Success     bool     `json:"success"`
	ChallengeTS string   `json:"challenge_ts"`
	Hostname    string   `json:"hostname"`
	Action      string   `json:"action"`
	ErrorCodes  []string `json:"error-codes,omitempty"`
}

// VerifyToken verifies a Turnstile token in a single attempt. A transport
// failure counts as a failed verification.
func (s *TurnstileService) VerifyToken(ctx context.Context, token, remoteIP string) (bool, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "turnstile.verify")
	defer span.End()

	ok, err := s.verify(ctx, token, remoteIP)
	span.SetAttributes(attribute.Bool("turnstile.success", ok))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "verification failed")
	}
	return ok, err
}

func (s *TurnstileService) verify(ctx context.Context, token, remoteIP string) (bool, error) {
	if s.secretKey == "" {
		return false, fmt.Errorf("%w: turnstile secret key not configured", ErrVerificationFailed)
	}

	if token == "" {
		return false, fmt.Errorf("%w: turnstile token is required", ErrVerificationFailed)
	}

	jsonData, err := json.Marshal(turnstileRequest{
		Secret:   s.secretKey,
		Response: token,
		RemoteIP: remoteIP,
	})
	if err != nil {
		return false, fmt.Errorf("failed to marshal turnstile request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.verifyURL, bytes.NewReader(jsonData))
	if err != nil {
		return false, fmt.Errorf("failed to create turnstile request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrVerificationFailed, err)
	}
	defer resp.Body.Close()

	var result turnstileResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return false, fmt.Errorf("%w: failed to parse turnstile response (status %d): %v", ErrVerificationFailed, resp.StatusCode, err)
	}

	if !result.Success {
		return false, fmt.Errorf("%w: %v", ErrVerificationFailed, result.ErrorCodes)
	}

	return true, nil
}
