package sms

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"
)

// HTTPGateway sends SMS through a token-authenticated JSON API. The provider
// issues short-lived bearer tokens from a username/password login; the
// gateway refreshes them transparently.
type HTTPGateway struct {
	apiURL   string
	username string
	password string
	mask     string
	client   *http.Client

	tokenMutex  sync.RWMutex
	token       string
	tokenExpiry time.Time
}

// HTTPGatewayConfig holds configuration for the SMS provider API
type HTTPGatewayConfig struct {
	APIURL   string
	Username string
	Password string
	Mask     string // sender id shown on the recipient's phone
}

// NewHTTPGateway creates a new HTTPGateway
func NewHTTPGateway(config HTTPGatewayConfig) *HTTPGateway {
	return &HTTPGateway{
		apiURL:   config.APIURL,
		username: config.Username,
		password: config.Password,
		mask:     config.Mask,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Status     string `json:"status"`
	Comment    string `json:"comment"`
	Token      string `json:"token"`
	Expiration int    `json:"expiration"` // seconds
	ErrCode    string `json:"errCode"`
}

type recipient struct {
	Mobile string `json:"mobile"`
}

type sendRequest struct {
	MSISDN        []recipient `json:"msisdn"`
	Message       string      `json:"message"`
	SourceAddress string      `json:"sourceAddress,omitempty"`
	TransactionID int64       `json:"transaction_id"`
}

type sendResponse struct {
	Status  string `json:"status"`
	Comment string `json:"comment"`
	ErrCode string `json:"errCode"`
}

// Name returns the gateway name
func (g *HTTPGateway) Name() string {
	return "HTTP SMS Gateway"
}

// Send delivers a message to a single phone number
func (g *HTTPGateway) Send(phone, message string) (int64, error) {
	msisdn, err := FormatMSISDN(phone)
	if err != nil {
		return 0, fmt.Errorf("failed to format phone number: %w", err)
	}
	return g.dispatch([]recipient{{Mobile: msisdn}}, message)
}

// SendBulk delivers the same message to multiple phone numbers. Numbers that
// fail formatting are skipped; at least one valid recipient is required.
func (g *HTTPGateway) SendBulk(phones []string, message string) (int64, error) {
	recipients := make([]recipient, 0, len(phones))
	for _, phone := range phones {
		msisdn, err := FormatMSISDN(phone)
		if err != nil {
			continue
		}
		recipients = append(recipients, recipient{Mobile: msisdn})
	}
	if len(recipients) == 0 {
		return 0, fmt.Errorf("no valid recipients after formatting")
	}
	return g.dispatch(recipients, message)
}

func (g *HTTPGateway) dispatch(recipients []recipient, message string) (int64, error) {
	if err := g.ensureValidToken(); err != nil {
		return 0, fmt.Errorf("failed to get access token: %w", err)
	}

	transactionID := time.Now().UnixMicro()

	body, err := json.Marshal(sendRequest{
		MSISDN:        recipients,
		Message:       message,
		SourceAddress: g.mask,
		TransactionID: transactionID,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to marshal SMS request: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, fmt.Sprintf("%s/sms", g.apiURL), bytes.NewBuffer(body))
	if err != nil {
		return 0, fmt.Errorf("failed to create SMS request: %w", err)
	}
	g.tokenMutex.RLock()
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", g.token))
	g.tokenMutex.RUnlock()
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to send SMS request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("failed to read SMS response: %w", err)
	}

	var sendResp sendResponse
	if err := json.Unmarshal(respBody, &sendResp); err != nil {
		return 0, fmt.Errorf("failed to parse SMS response: %w", err)
	}
	if sendResp.Status != "success" {
		return 0, fmt.Errorf("SMS sending failed: %s (error code: %s)", sendResp.Comment, sendResp.ErrCode)
	}

	return transactionID, nil
}

func (g *HTTPGateway) login() error {
	body, err := json.Marshal(loginRequest{Username: g.username, Password: g.password})
	if err != nil {
		return fmt.Errorf("failed to marshal login request: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, fmt.Sprintf("%s/login", g.apiURL), bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("failed to create login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send login request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read login response: %w", err)
	}

	var loginResp loginResponse
	if err := json.Unmarshal(respBody, &loginResp); err != nil {
		return fmt.Errorf("failed to parse login response: %w", err)
	}
	if loginResp.Status != "success" {
		return fmt.Errorf("login failed: %s (error code: %s)", loginResp.Comment, loginResp.ErrCode)
	}

	g.tokenMutex.Lock()
	g.token = loginResp.Token
	g.tokenExpiry = time.Now().Add(time.Duration(loginResp.Expiration) * time.Second)
	g.tokenMutex.Unlock()

	return nil
}

func (g *HTTPGateway) isTokenValid() bool {
	g.tokenMutex.RLock()
	defer g.tokenMutex.RUnlock()

	if g.token == "" {
		return false
	}

	// Refresh 5 minutes ahead of expiry
	return time.Now().Before(g.tokenExpiry.Add(-5 * time.Minute))
}

func (g *HTTPGateway) ensureValidToken() error {
	if g.isTokenValid() {
		return nil
	}
	return g.login()
}
