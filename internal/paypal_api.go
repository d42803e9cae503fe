package internal

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"log"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/seatrek/toursapi/types"
)

const LIVE_URI = "https://api.paypal.com"
const SANDBOX_URI = "https://api.sandbox.paypal.com"

type TokenResponse struct {
	Scope       string `json:"scope"`
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	AppID       string `json:"app_id"`
	ExpiresIn   int    `json:"expires_in"`
	Nonce       string `json:"nonce"`
}

type Client struct {
	Client         *http.Client
	ClientID       string
	Secret         string
	APIBase        string
	Token          *TokenResponse
	mu             sync.Mutex
	tokenExpiresAt time.Time
}

type Env int

const (
	SANDBOX Env = iota
	LIVE
)

// EnvFromString maps the PAYPAL_ENV setting onto the API base to use.
// Anything other than "live" stays in the sandbox.
func EnvFromString(s string) Env {
	if strings.ToLower(s) == "live" {
		return LIVE
	}
	return SANDBOX
}

func NewClient(env Env) *Client {
	clientID := os.Getenv("PAYPAL_CLIENT_ID")
	clientSecret := os.Getenv("PAYPAL_CLIENT_SECRET")

	api := SANDBOX_URI
	if env == LIVE {
		api = LIVE_URI
	}

	return &Client{
		Client:   &http.Client{},
		ClientID: clientID,
		Secret:   clientSecret,
		APIBase:  api,
		Token:    &TokenResponse{},
	}
}

// Configured reports whether provider credentials were supplied. Calls made
// without them fail with an auth error at the provider, so callers treat
// this as fatal.
func (c *Client) Configured() bool {
	return c.ClientID != "" && c.Secret != ""
}

func (c *Client) getAccessToken() error {
	req, _ := http.NewRequest("POST", c.APIBase+"/v1/oauth2/token", strings.NewReader("grant_type=client_credentials"))
	req.SetBasicAuth(c.ClientID, c.Secret)
	req.Header.Add("Accept", "application/json")
	req.Header.Add("Accept-Language", "en_US")
	req.Header.Set("Content-type", "application/x-www-form-urlencoded")

	resp, err := c.Client.Do(req)
	if err != nil {
		return err
	}

	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := ioutil.ReadAll(resp.Body)
		return fmt.Errorf("paypal: token request failed: %s: %s", resp.Status, string(body))
	}

	dec := json.NewDecoder(resp.Body)
	if err = dec.Decode(c.Token); err != nil {
		return err
	}

	c.tokenExpiresAt = time.Now().Add(time.Duration(c.Token.ExpiresIn) * time.Second)
	return nil
}

func (c *Client) SendWithAuth(req *http.Request) (*http.Response, error) {
	c.mu.Lock()
	if c.tokenExpiresAt.IsZero() || time.Until(c.tokenExpiresAt) < 30*time.Second {
		if err := c.getAccessToken(); err != nil {
			c.mu.Unlock()
			return nil, err
		}
	}
	token := c.Token.AccessToken
	c.mu.Unlock()

	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	return c.Client.Do(req)
}

// CreateOrder posts a new order to the provider. requestID, when non-empty,
// is forwarded as the PayPal-Request-Id idempotency key so a retried call
// cannot create a duplicate provider order.
func (c *Client) CreateOrder(order *types.OrderRequest, requestID string) (*types.ProviderOrder, error) {
	data, err := json.Marshal(order)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequest("POST", c.APIBase+"/v2/checkout/orders", bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if requestID != "" {
		req.Header.Set("PayPal-Request-Id", requestID)
	}

	resp, err := c.SendWithAuth(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := ioutil.ReadAll(resp.Body)
		return nil, &APIError{Status: resp.StatusCode, Body: body}
	}

	var out types.ProviderOrder
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetOrder fetches the provider's current representation of an order.
func (c *Client) GetOrder(id string) (*types.ProviderOrder, error) {
	req, err := http.NewRequest("GET", c.APIBase+"/v2/checkout/orders/"+id, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.SendWithAuth(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := ioutil.ReadAll(resp.Body)
		return nil, &APIError{Status: resp.StatusCode, Body: body}
	}

	var out types.ProviderOrder
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CaptureOrder captures an approved order. The raw response is returned so
// route handlers can relay the provider's body on failure.
func (c *Client) CaptureOrder(id string) (*http.Response, error) {
	req, err := http.NewRequest("POST", c.APIBase+"/v2/checkout/orders/"+id+"/capture", nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Prefer", "return=representation")
	req.Header.Set("Content-Type", "application/json")
	return c.SendWithAuth(req)
}

// APIError is a non-2xx reply from the provider. The body is kept verbatim
// for diagnostics; release builds must not echo it to clients.
type APIError struct {
	Status int
	Body   []byte
}

func (e *APIError) Error() string {
	return fmt.Sprintf("paypal: api returned %d: %s", e.Status, string(e.Body))
}

// ProviderError decodes the error body, if it parses as one.
func (e *APIError) ProviderError() *types.ProviderError {
	var pe types.ProviderError
	if err := json.Unmarshal(e.Body, &pe); err != nil {
		return nil
	}
	return &pe
}

func (c *Client) VerifyWebHookSig(req *http.Request, webhookID string) bool {
	type verifyWebhookRequest struct {
		AuthAlgo         string          `json:"auth_algo"`
		CertURL          string          `json:"cert_url"`
		TransmissionID   string          `json:"transmission_id"`
		TransmissionSig  string          `json:"transmission_sig"`
		TransmissionTime string          `json:"transmission_time"`
		WebhookID        string          `json:"webhook_id"`
		WebhookEvent     json.RawMessage `json:"webhook_event"`
	}

	var bodyBytes []byte
	if req.Body != nil {
		bodyBytes, _ = ioutil.ReadAll(req.Body)
	}
	// Restore the io.ReadCloser to its original state
	req.Body = ioutil.NopCloser(bytes.NewBuffer(bodyBytes))

	verifyReq := verifyWebhookRequest{
		AuthAlgo:         req.Header.Get("PAYPAL-AUTH-ALGO"),
		CertURL:          req.Header.Get("PAYPAL-CERT-URL"),
		TransmissionID:   req.Header.Get("PAYPAL-TRANSMISSION-ID"),
		TransmissionSig:  req.Header.Get("PAYPAL-TRANSMISSION-SIG"),
		TransmissionTime: req.Header.Get("PAYPAL-TRANSMISSION-TIME"),
		WebhookID:        webhookID,
		WebhookEvent:     json.RawMessage(bodyBytes),
	}

	type verifyWebhookResponse struct {
		Status string `json:"verification_status"`
	}

	b, err := json.Marshal(&verifyReq)
	if err != nil {
		log.Println(err)
		return false
	}

	vreq, err := http.NewRequest("POST", c.APIBase+"/v1/notifications/verify-webhook-signature", bytes.NewBuffer(b))
	if err != nil {
		log.Println(err)
		return false
	}
	vreq.Header.Set("Content-Type", "application/json")
	resp, err := c.SendWithAuth(vreq)
	if err != nil {
		log.Println(err)
		return false
	}

	defer resp.Body.Close()
	verifyResponse := verifyWebhookResponse{}
	if err = json.NewDecoder(resp.Body).Decode(&verifyResponse); err != nil {
		log.Println(err)
		return false
	}

	return verifyResponse.Status == "SUCCESS"
}
