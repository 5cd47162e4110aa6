package server

import (
	"context"
	"encoding/base64"
	"net/http"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lambdaEvent(method, body string) events.APIGatewayV2HTTPRequest {
	evt := events.APIGatewayV2HTTPRequest{
		RawPath: "/",
		Headers: map[string]string{
			"content-type": "application/json",
			"origin":       testOrigin,
		},
		Body: body,
	}
	evt.RequestContext.HTTP.Method = method
	evt.RequestContext.HTTP.SourceIP = "203.0.113.7"
	evt.RequestContext.RequestID = "apigw-request-1"
	return evt
}

func TestLambdaHandler_Post(t *testing.T) {
	u := newUpstream(t)
	s := newTestServer(t, u.config())

	resp, err := s.NewLambdaHandler()(context.Background(), lambdaEvent(http.MethodPost, contactBody))
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"message":"Email has been sent"}`, resp.Body)
	assert.Equal(t, "apigw-request-1", resp.Headers["X-Request-Id"])
	assert.False(t, resp.IsBase64Encoded)
}

func TestLambdaHandler_Base64Body(t *testing.T) {
	u := newUpstream(t)
	s := newTestServer(t, u.config())

	evt := lambdaEvent(http.MethodPost, base64.StdEncoding.EncodeToString([]byte(contactBody)))
	evt.IsBase64Encoded = true

	resp, err := s.NewLambdaHandler()(context.Background(), evt)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 1, u.sendCalls)
}

func TestLambdaHandler_InvalidBase64(t *testing.T) {
	u := newUpstream(t)
	s := newTestServer(t, u.config())

	evt := lambdaEvent(http.MethodPost, "!!!not-base64")
	evt.IsBase64Encoded = true

	resp, err := s.NewLambdaHandler()(context.Background(), evt)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, resp.Headers["Content-Type"], "application/json")
	assert.JSONEq(t, `{"message":"Invalid request body"}`, resp.Body)
	assert.EqualValues(t, 0, u.verifyCalls)
}

func TestLambdaHandler_Redirect(t *testing.T) {
	u := newUpstream(t)
	s := newTestServer(t, u.config())

	evt := lambdaEvent(http.MethodGet, "")
	evt.RawPath = ""
	evt.RequestContext.HTTP.Path = "/contact"

	resp, err := s.NewLambdaHandler()(context.Background(), evt)
	require.NoError(t, err)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "https://www.example.com/thanks", resp.Headers["Location"])
	assert.Empty(t, resp.Body)
}

func TestLambdaResponseWriter(t *testing.T) {
	w := newLambdaResponseWriter()
	w.Header().Add("Set-Cookie", "a=1")
	w.Header().Add("Set-Cookie", "b=2")
	w.WriteHeader(http.StatusAccepted)
	w.WriteHeader(http.StatusTeapot)
	_, _ = w.Write([]byte{0xff, 0xfe})

	resp := w.response()
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Equal(t, []string{"a=1", "b=2"}, resp.Cookies)
	assert.True(t, resp.IsBase64Encoded)
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte{0xff, 0xfe}), resp.Body)
}
