package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/osa911/formrelay/internal/api/dto/common"

	"github.com/aws/aws-lambda-go/events"
)

// LambdaHandler adapts an API Gateway v2 HTTP event to the public endpoint
type LambdaHandler func(ctx context.Context, evt events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error)

// NewLambdaHandler returns a handler that replays each event through h.
// The tracer provider is flushed after every invocation since the runtime
// may freeze the process between events.
func (s *Server) NewLambdaHandler() LambdaHandler {
	return func(ctx context.Context, evt events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
		resp, err := ServeLambdaEvent(ctx, s.router, evt)
		if flushErr := s.tracing.Flush(ctx); flushErr != nil {
			s.logger.Warn("Failed to flush traces: %v", flushErr)
		}
		return resp, err
	}
}

// ServeLambdaEvent converts evt into an *http.Request, serves it and
// converts the recorded response back
func ServeLambdaEvent(ctx context.Context, h http.Handler, evt events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	req, err := requestFromEvent(ctx, evt)
	if err != nil {
		body, _ := json.Marshal(common.NewMessageResponse(common.MsgInvalidBody))
		return events.APIGatewayV2HTTPResponse{
			StatusCode: http.StatusBadRequest,
			Headers:    map[string]string{"Content-Type": "application/json; charset=utf-8"},
			Body:       string(body),
		}, nil
	}

	w := newLambdaResponseWriter()
	h.ServeHTTP(w, req)
	return w.response(), nil
}

func requestFromEvent(ctx context.Context, evt events.APIGatewayV2HTTPRequest) (*http.Request, error) {
	body := []byte(evt.Body)
	if evt.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(evt.Body)
		if err != nil {
			return nil, fmt.Errorf("invalid base64 body: %w", err)
		}
		body = decoded
	}

	path := evt.RawPath
	if path == "" {
		path = evt.RequestContext.HTTP.Path
	}
	if path == "" {
		path = "/"
	}
	target := path
	if evt.RawQueryString != "" {
		target += "?" + evt.RawQueryString
	}

	method := strings.ToUpper(evt.RequestContext.HTTP.Method)
	if method == "" {
		method = http.MethodGet
	}

	req, err := http.NewRequestWithContext(ctx, method, target, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	for k, v := range evt.Headers {
		req.Header.Set(k, v)
	}
	if len(evt.Cookies) > 0 {
		req.Header.Set("Cookie", strings.Join(evt.Cookies, "; "))
	}
	if host := evt.RequestContext.DomainName; host != "" {
		req.Host = host
	}
	if ip := evt.RequestContext.HTTP.SourceIP; ip != "" {
		req.RemoteAddr = ip + ":0"
		if req.Header.Get("X-Real-IP") == "" {
			req.Header.Set("X-Real-IP", ip)
		}
	}
	if id := evt.RequestContext.RequestID; id != "" && req.Header.Get("X-Request-ID") == "" {
		req.Header.Set("X-Request-ID", id)
	}

	return req, nil
}

type lambdaResponseWriter struct {
	header http.Header
	body   bytes.Buffer
	status int
}

func newLambdaResponseWriter() *lambdaResponseWriter {
	return &lambdaResponseWriter{header: http.Header{}}
}

func (w *lambdaResponseWriter) Header() http.Header {
	return w.header
}

func (w *lambdaResponseWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.body.Write(b)
}

func (w *lambdaResponseWriter) WriteHeader(status int) {
	if w.status == 0 {
		w.status = status
	}
}

func (w *lambdaResponseWriter) response() events.APIGatewayV2HTTPResponse {
	status := w.status
	if status == 0 {
		status = http.StatusOK
	}

	resp := events.APIGatewayV2HTTPResponse{
		StatusCode: status,
		Headers:    map[string]string{},
	}
	for k, values := range w.header {
		if strings.EqualFold(k, "Set-Cookie") {
			resp.Cookies = append(resp.Cookies, values...)
			continue
		}
		resp.Headers[k] = strings.Join(values, ",")
	}

	if utf8.Valid(w.body.Bytes()) {
		resp.Body = w.body.String()
	} else {
		resp.Body = base64.StdEncoding.EncodeToString(w.body.Bytes())
		resp.IsBase64Encoded = true
	}
	return resp
}
