package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Loyalty-lt/sdk-go/config"
	"github.com/Loyalty-lt/sdk-go/pkg/model"
	log "github.com/sirupsen/logrus"
)

const userAgent = "LoyaltySDK-Go/1.0.0"

// envelope is the common wrapper every REST response is packed into.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message,omitempty"`
	Code    string          `json:"code,omitempty"`
	Meta    *model.PageMeta `json:"meta,omitempty"`
}

// Client issues REST calls against the platform API. It unwraps the
// response envelope, classifies failures and retries transient ones with
// exponential backoff.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	apiSecret  string
	retries    int
	debug      bool

	// backoff is replaced in tests to avoid real sleeps.
	backoff func(attempt int) time.Duration
}

// New creates a REST client from the (already defaulted) configuration.
func New(cfg *config.Config) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.Timeout) * time.Second,
		},
		baseURL:   cfg.APIURL(),
		apiKey:    cfg.APIKey,
		apiSecret: cfg.APISecret,
		retries:   cfg.Retries,
		debug:     cfg.Debug,
		backoff: func(attempt int) time.Duration {
			return time.Duration(1<<uint(attempt)) * time.Second
		},
	}
}

// Request performs a call and decodes the envelope data into out. A nil out
// discards the payload.
func (c *Client) Request(ctx context.Context, method, path string, body, out interface{}) error {
	_, err := c.RequestPaged(ctx, method, path, body, out)
	return err
}

// RequestPaged behaves like Request and additionally returns the pagination
// meta block when the response carries one.
func (c *Client) RequestPaged(ctx context.Context, method, path string, body, out interface{}) (*model.PageMeta, error) {
	url := c.baseURL + path

	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return nil, NewError(CodeUnknownError, fmt.Sprintf("failed to encode request body: %s", err), 0)
		}
	}

	if c.debug {
		log.Debugf("rest: %s %s", method, url)
	}

	res, data, err := c.doWithRetry(ctx, method, url, payload)
	if err != nil {
		return nil, err
	}

	if c.debug {
		log.Debugf("rest: response %d: %s", res.StatusCode, truncate(data, 200))
	}

	// Some endpoints (e.g. deletes) answer with an empty body.
	if len(data) == 0 && res.StatusCode < 400 {
		return nil, nil
	}

	env := envelope{}
	if jsonErr := json.Unmarshal(data, &env); jsonErr != nil {
		if res.StatusCode >= 400 {
			return nil, NewError(CodeHTTPError, http.StatusText(res.StatusCode), res.StatusCode)
		}
		return nil, NewError(CodeUnknownError, "unexpected response shape", res.StatusCode)
	}

	// A parsed success:false envelope is an explicit API failure no matter
	// which status code carried it; the server's message wins over the
	// generic status text.
	if !env.Success {
		message := env.Message
		if message == "" {
			message = "API request failed"
		}
		if env.Code != "" {
			message = fmt.Sprintf("%s (%s)", message, env.Code)
		}
		return nil, NewError(CodeAPIError, message, res.StatusCode)
	}

	if out != nil && len(env.Data) > 0 {
		if jsonErr := json.Unmarshal(env.Data, out); jsonErr != nil {
			return nil, NewError(CodeUnknownError, fmt.Sprintf("failed to decode response data: %s", jsonErr), res.StatusCode)
		}
	}

	return env.Meta, nil
}

// doWithRetry issues the request and retries on network failures and on
// HTTP 5xx/429 with 2^attempt seconds backoff, up to the retry ceiling.
func (c *Client) doWithRetry(ctx context.Context, method, url string, payload []byte) (*http.Response, []byte, error) {
	var lastErr error

	for attempt := 0; ; attempt++ {
		res, data, err := c.do(ctx, method, url, payload)
		if err == nil && !retryableStatus(res.StatusCode) {
			return res, data, nil
		}

		if err != nil {
			lastErr = NewError(CodeNetworkError, err.Error(), 0)
		} else {
			lastErr = NewError(CodeHTTPError, http.StatusText(res.StatusCode), res.StatusCode)
		}

		if attempt >= c.retries {
			return nil, nil, lastErr
		}

		if c.debug {
			log.Debugf("rest: retrying %s %s after attempt %d: %s", method, url, attempt+1, lastErr)
		}

		select {
		case <-time.After(c.backoff(attempt + 1)):
		case <-ctx.Done():
			return nil, nil, NewError(CodeNetworkError, ctx.Err().Error(), 0)
		}
	}
}

func (c *Client) do(ctx context.Context, method, url string, payload []byte) (*http.Response, []byte, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}
	if c.apiSecret != "" {
		req.Header.Set("X-API-Secret", c.apiSecret)
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer res.Body.Close()

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, nil, err
	}

	return res, data, nil
}

func retryableStatus(status int) bool {
	return status >= 500 || status == http.StatusTooManyRequests
}

func truncate(data []byte, max int) string {
	if len(data) <= max {
		return string(data)
	}
	return string(data[:max]) + "..."
}
