package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/osa911/formrelay/internal/config"
	"github.com/osa911/formrelay/internal/form"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// GraphScope requests the application permissions granted to the app registration
const GraphScope = "https://graph.microsoft.com/.default"

const graphFileAttachmentType = "#microsoft.graph.fileAttachment"

// GraphMailService sends mail through the Microsoft Graph sendMail API
// using an app-only token from the client-credentials flow.
type GraphMailService struct {
	cfg    config.GraphConfig
	client *http.Client

	// tokens is created on first use and refreshes itself once the cached
	// token expires.
	mu     sync.Mutex
	tokens oauth2.TokenSource
}

// NewGraphMailService creates a new Graph mail service
func NewGraphMailService(cfg config.GraphConfig, client *http.Client) *GraphMailService {
	if client == nil {
		client = http.DefaultClient
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://graph.microsoft.com/v1.0"
	}
	if cfg.AuthorityURL == "" {
		cfg.AuthorityURL = "https://login.microsoftonline.com"
	}
	return &GraphMailService{
		cfg:    cfg,
		client: client,
	}
}

type graphSendMailRequest struct {
	Message         graphMessage `json:"message"`
	SaveToSentItems bool         `json:"saveToSentItems"`
}

type graphMessage struct {
	Subject      string                `json:"subject"`
	Body         graphItemBody         `json:"body"`
	ToRecipients []graphRecipient      `json:"toRecipients"`
	Attachments  []graphFileAttachment `json:"attachments,omitempty"`
}

type graphItemBody struct {
	ContentType string `json:"contentType"`
	Content     string `json:"content"`
}

type graphRecipient struct {
	EmailAddress graphEmailAddress `json:"emailAddress"`
}

type graphEmailAddress struct {
	Address string `json:"address"`
}

type graphFileAttachment struct {
	ODataType    string `json:"@odata.type"`
	Name         string `json:"name"`
	ContentType  string `json:"contentType"`
	ContentBytes string `json:"contentBytes"`
}

type graphErrorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// newGraphSendMailRequest builds the sendMail payload. The attachments key is
// left out entirely when there is nothing to attach.
func newGraphSendMailRequest(recipient string, email *form.Email) graphSendMailRequest {
	msg := graphMessage{
		Subject: email.Subject,
		Body: graphItemBody{
			ContentType: "Text",
			Content:     email.Body,
		},
		ToRecipients: []graphRecipient{
			{EmailAddress: graphEmailAddress{Address: recipient}},
		},
	}

	for _, a := range email.Attachments {
		msg.Attachments = append(msg.Attachments, graphFileAttachment{
			ODataType:    graphFileAttachmentType,
			Name:         a.Filename,
			ContentType:  a.ContentType,
			ContentBytes: a.Base64Content,
		})
	}

	return graphSendMailRequest{
		Message:         msg,
		SaveToSentItems: false,
	}
}

// Send acquires an access token and submits the message
func (s *GraphMailService) Send(ctx context.Context, email *form.Email) error {
	tokens, err := s.tokenSource()
	if err != nil {
		return err
	}

	token, err := tokens.Token()
	if err != nil {
		return fmt.Errorf("failed to acquire Microsoft Graph token: %w", err)
	}

	if s.cfg.SenderEmail == "" || s.cfg.ToEmail == "" {
		return ErrMissingMailbox
	}

	jsonData, err := json.Marshal(newGraphSendMailRequest(s.cfg.ToEmail, email))
	if err != nil {
		return fmt.Errorf("failed to marshal sendMail request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/users/%s/sendMail",
		strings.TrimRight(s.cfg.BaseURL, "/"),
		url.PathEscape(s.cfg.SenderEmail),
	)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create sendMail request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.graphClient(token).Do(req)
	if err != nil {
		return fmt.Errorf("failed to call sendMail: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return graphError(resp)
	}

	return nil
}

func (s *GraphMailService) tokenSource() (oauth2.TokenSource, error) {
	if s.cfg.TenantID == "" || s.cfg.ClientID == "" || s.cfg.ClientSecret == "" {
		return nil, fmt.Errorf("%w: Microsoft Graph tenant, client ID and client secret are required", ErrMissingCredentials)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tokens == nil {
		cc := clientcredentials.Config{
			ClientID:     s.cfg.ClientID,
			ClientSecret: s.cfg.ClientSecret,
			TokenURL:     fmt.Sprintf("%s/%s/oauth2/v2.0/token", strings.TrimRight(s.cfg.AuthorityURL, "/"), url.PathEscape(s.cfg.TenantID)),
			Scopes:       []string{GraphScope},
			AuthStyle:    oauth2.AuthStyleInParams,
		}
		// The token source outlives the request, so it must not capture the request context
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, s.client)
		s.tokens = cc.TokenSource(ctx)
	}

	return s.tokens, nil
}

func (s *GraphMailService) graphClient(token *oauth2.Token) *http.Client {
	return &http.Client{
		Transport: &oauth2.Transport{
			Source: oauth2.StaticTokenSource(token),
			Base:   s.client.Transport,
		},
		Timeout: s.client.Timeout,
	}
}

func graphError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))

	var apiErr graphErrorResponse
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error.Code != "" {
		return fmt.Errorf("sendMail returned status %d: %s: %s", resp.StatusCode, apiErr.Error.Code, apiErr.Error.Message)
	}
	return fmt.Errorf("sendMail returned status %d", resp.StatusCode)
}

var _ MailSender = (*GraphMailService)(nil)
