package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/osa911/formrelay/internal/config"
	"github.com/osa911/formrelay/internal/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testOrigin = "https://www.example.com"

// upstream fakes both Turnstile siteverify and Microsoft Graph
type upstream struct {
	server       *httptest.Server
	human        bool
	sendStatus   int
	verifyCalls  int32
	sendCalls    int32
	lastSendMail map[string]interface{}
}

func newUpstream(t *testing.T) *upstream {
	t.Helper()
	u := &upstream{human: true, sendStatus: http.StatusAccepted}

	mux := http.NewServeMux()
	mux.HandleFunc("/siteverify", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&u.verifyCalls, 1)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"success": u.human})
	})
	mux.HandleFunc("/tenant/oauth2/v2.0/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"access_token":"t","token_type":"Bearer","expires_in":3600}`)
	})
	mux.HandleFunc("/v1.0/users/forms@example.com/sendMail", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&u.sendCalls, 1)
		u.lastSendMail = map[string]interface{}{}
		_ = json.NewDecoder(r.Body).Decode(&u.lastSendMail)
		w.WriteHeader(u.sendStatus)
		if u.sendStatus >= 400 {
			_, _ = io.WriteString(w, `{"error":{"code":"ErrorSendAsDenied","message":"denied"}}`)
		}
	})

	u.server = httptest.NewServer(mux)
	t.Cleanup(u.server.Close)
	return u
}

func (u *upstream) config() *config.Config {
	return &config.Config{
		Port:               "0",
		Origin:             testOrigin,
		RedirectionURL:     "https://www.example.com/thanks",
		TurnstileSecret:    "secret",
		TurnstileVerifyURL: u.server.URL + "/siteverify",
		MailProvider:       config.MailProviderGraph,
		ServiceName:        "formrelay-test",
		Graph: config.GraphConfig{
			TenantID:     "tenant",
			ClientID:     "client",
			ClientSecret: "shh",
			SenderEmail:  "forms@example.com",
			ToEmail:      "intake@example.com",
			BaseURL:      u.server.URL + "/v1.0",
			AuthorityURL: u.server.URL,
		},
	}
}

func newTestServer(t *testing.T, cfg *config.Config) *Server {
	t.Helper()
	s, err := New(context.Background(), cfg, logging.NewWithWriter(io.Discard, logging.LevelDebug))
	require.NoError(t, err)
	return s
}

func post(t *testing.T, h http.Handler, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Origin", testOrigin)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func message(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	assert.Contains(t, w.Header().Get("Content-Type"), "application/json")
	var resp struct {
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Message
}

const contactBody = `{"type":"contact","botToken":"tok","name":"A","email":"a@b.com","phone":"1","message":"hi"}`

func TestServer_ContactSent(t *testing.T) {
	u := newUpstream(t)
	s := newTestServer(t, u.config())

	w := post(t, s.Handler(), contactBody, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Email has been sent", message(t, w))
	assert.Equal(t, testOrigin, w.Header().Get("Access-Control-Allow-Origin"))
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	mail := u.lastSendMail["message"].(map[string]interface{})
	assert.Equal(t, "Contact Form Submission from A", mail["subject"])
	assert.Equal(t, "Name: A\nEmail: a@b.com\nPhone: 1\nMessage: hi", mail["body"].(map[string]interface{})["content"])
	assert.Equal(t, false, u.lastSendMail["saveToSentItems"])
}

func TestServer_ReferralSent(t *testing.T) {
	u := newUpstream(t)
	s := newTestServer(t, u.config())

	body := `{
		"type":"referral","cf-turnstile-response":"tok",
		"participant":{"name":"Sam","email":"s@x.com","phone":"2","dateOfBirth":"2000-01-01","primaryDisability":"ASD"},
		"services":{"communityAccess":true},
		"coordinator":{"name":"C","email":"c@x.com","phone":"3","company":"Co"},
		"planManager":{"name":"P","email":"p@x.com","type":"selfManaged"},
		"ndisDetails":{"ndisNumber":"430000000","startDate":"2024-01-01","endDate":"2025-01-01"},
		"preferredDays":{"monday":true,"friday":true}
	}`
	w := post(t, s.Handler(), body, nil)

	require.Equal(t, http.StatusOK, w.Code)
	mail := u.lastSendMail["message"].(map[string]interface{})
	assert.Equal(t, "Referral Form Submission for Sam", mail["subject"])
	content := mail["body"].(map[string]interface{})["content"].(string)
	assert.Contains(t, content, "Services Requested: Community Access")
	assert.Contains(t, content, "Plan Type: Self Managed")
	assert.Contains(t, content, "Potential Risks/Behaviour Concerns: N/A")
}

func TestServer_NonPostRedirects(t *testing.T) {
	u := newUpstream(t)
	s := newTestServer(t, u.config())

	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete, http.MethodOptions} {
		req := httptest.NewRequest(method, "/anything", nil)
		req.Header.Set("Origin", "https://evil.example.org")
		w := httptest.NewRecorder()
		s.Handler().ServeHTTP(w, req)

		assert.Equal(t, http.StatusFound, w.Code, method)
		assert.Equal(t, "https://www.example.com/thanks", w.Header().Get("Location"), method)
		assert.Empty(t, w.Body.String(), method)
	}
	assert.EqualValues(t, 0, u.verifyCalls)
}

func TestServer_OriginRejected(t *testing.T) {
	u := newUpstream(t)
	s := newTestServer(t, u.config())

	w := post(t, s.Handler(), contactBody, map[string]string{"Origin": "https://evil.example.org"})

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "Invalid Origin", message(t, w))
	assert.EqualValues(t, 0, u.verifyCalls)
}

func TestServer_VerificationFailed(t *testing.T) {
	u := newUpstream(t)
	u.human = false
	s := newTestServer(t, u.config())

	// Missing fields must not be reported to an unverified caller
	w := post(t, s.Handler(), `{"type":"contact","botToken":"tok"}`, nil)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "Human Verification has failed", message(t, w))
	assert.EqualValues(t, 1, u.verifyCalls)
	assert.EqualValues(t, 0, u.sendCalls)
}

func TestServer_MissingToken(t *testing.T) {
	u := newUpstream(t)
	s := newTestServer(t, u.config())

	w := post(t, s.Handler(), `{"type":"contact","name":"A","email":"a@b.com","phone":"1","message":"hi"}`, nil)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.EqualValues(t, 0, u.verifyCalls)
}

func TestServer_ValidationErrors(t *testing.T) {
	u := newUpstream(t)
	s := newTestServer(t, u.config())

	tests := []struct {
		name string
		body string
		want string
	}{
		{"missing contact fields", `{"type":"contact","botToken":"tok","name":"A"}`, "Missing required fields"},
		{"missing referral sections", `{"type":"referral","botToken":"tok","participant":{"name":"A"}}`, "Missing required fields"},
		{"unknown type", `{"type":"feedback","botToken":"tok"}`, "Invalid form type: feedback"},
		{"malformed body", `{"type":`, "Invalid request body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := post(t, s.Handler(), tt.body, nil)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tt.want, message(t, w))
		})
	}
	assert.EqualValues(t, 0, u.sendCalls)
}

func TestServer_RelayFailed(t *testing.T) {
	u := newUpstream(t)
	u.sendStatus = http.StatusForbidden
	s := newTestServer(t, u.config())

	w := post(t, s.Handler(), contactBody, nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	msg := message(t, w)
	assert.True(t, strings.HasPrefix(msg, "Unable to send an email...\n"), msg)
	assert.Contains(t, msg, "ErrorSendAsDenied")
}

func TestServer_MissingCredentials(t *testing.T) {
	u := newUpstream(t)
	cfg := u.config()
	cfg.Graph.ClientSecret = ""
	s := newTestServer(t, cfg)

	w := post(t, s.Handler(), contactBody, nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, message(t, w), "Unable to send an email...")
	assert.EqualValues(t, 0, u.sendCalls)
}

func TestServer_OpenOrigin(t *testing.T) {
	u := newUpstream(t)
	cfg := u.config()
	cfg.Origin = ""
	cfg.RedirectionURL = ""
	s := newTestServer(t, cfg)

	w := post(t, s.Handler(), contactBody, map[string]string{"Origin": "https://anywhere.example.net"})
	assert.Equal(t, http.StatusOK, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
}

func TestServer_OpsRoutes(t *testing.T) {
	u := newUpstream(t)
	cfg := u.config()
	cfg.MetricsAddr = "127.0.0.1:0"
	s := newTestServer(t, cfg)
	require.NotNil(t, s.ops)

	post(t, s.Handler(), contactBody, nil)

	w := httptest.NewRecorder()
	s.ops.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `formrelay_submissions_total{form_type="contact",outcome="sent"} 1`)

	w = httptest.NewRecorder()
	s.ops.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"mail_provider":"graph"`)
}

func TestServer_InvalidBodyCounted(t *testing.T) {
	u := newUpstream(t)
	cfg := u.config()
	cfg.MetricsAddr = "127.0.0.1:0"
	s := newTestServer(t, cfg)

	for _, body := range []string{
		`{"type":`,
		// A wrongly typed field fails to decode as well
		`{"type":"contact","botToken":"tok","name":"A","email":"a@b.com","phone":1,"message":"hi"}`,
	} {
		w := post(t, s.Handler(), body, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Invalid request body", message(t, w))
	}
	assert.EqualValues(t, 0, u.verifyCalls)

	w := httptest.NewRecorder()
	s.ops.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, w.Body.String(), `formrelay_submissions_total{form_type="unknown",outcome="invalid_body"} 2`)
}

func TestServer_UsesInjectedLogger(t *testing.T) {
	u := newUpstream(t)
	u.human = false

	var buf bytes.Buffer
	s, err := New(context.Background(), u.config(), logging.NewWithWriter(&buf, logging.LevelDebug))
	require.NoError(t, err)

	post(t, s.Handler(), `{"type":`, nil)
	post(t, s.Handler(), contactBody, nil)

	assert.Contains(t, buf.String(), "[HTTP-ERROR]")
	assert.Contains(t, buf.String(), "Invalid request body")
	assert.Contains(t, buf.String(), "Human Verification has failed")
}

func TestNew_StartupWarnings(t *testing.T) {
	u := newUpstream(t)
	cfg := u.config()
	cfg.Environment = "production"
	cfg.Origin = ""
	cfg.RedirectionURL = ""

	var buf bytes.Buffer
	_, err := New(context.Background(), cfg, logging.NewWithWriter(&buf, logging.LevelDebug))
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "ORIGIN is not set")
	assert.Contains(t, buf.String(), "in a loop")

	buf.Reset()
	_, err = New(context.Background(), u.config(), logging.NewWithWriter(&buf, logging.LevelDebug))
	require.NoError(t, err)
	assert.NotContains(t, buf.String(), "[WARN]")
}
