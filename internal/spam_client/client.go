package spam_client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"complaint-service/internal/logging"
)

// Client is a client for the APILayer Spam Checker API.
// IsSpam never fails: every error resolves to "not spam".
type Client struct {
	url        string
	apiKey     string
	threshold  float64
	httpClient *http.Client
	logger     *zap.Logger
}

// Config for the spam client
type Config struct {
	URL            string
	APIKey         string
	Threshold      float64 // 1-10, lower is more aggressive
	Timeout        time.Duration
	ConnectTimeout time.Duration
}

// CheckResponse is the provider payload
type CheckResponse struct {
	IsSpam bool    `json:"is_spam"`
	Score  float64 `json:"score"`
	Result string  `json:"result"`
}

// NewClient creates a new spam checker client
func NewClient(cfg Config, logger *zap.Logger) *Client {
	return &Client{
		url:       cfg.URL,
		apiKey:    cfg.APIKey,
		threshold: cfg.Threshold,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				DialContext:         (&net.Dialer{Timeout: cfg.ConnectTimeout}).DialContext,
				TLSHandshakeTimeout: cfg.ConnectTimeout,
			},
		},
		logger: logger,
	}
}

// IsSpam reports whether the provider marks text as spam; false on any failure.
func (c *Client) IsSpam(ctx context.Context, text string) bool {
	c.logger.Debug("Spam check request", zap.String("text", logging.Preview(text, 100)))

	result, err := c.check(ctx, text)
	if err != nil {
		c.logger.Error("Spam API failed", zap.Error(err))
		c.logger.Warn("Returning not spam due to error", zap.String("text", logging.Preview(text, 40)))
		return false
	}

	c.logger.Info("Spam API response",
		zap.Bool("is_spam", result.IsSpam),
		zap.Float64("score", result.Score))
	return result.IsSpam
}

func (c *Client) check(ctx context.Context, text string) (*CheckResponse, error) {
	endpoint, err := url.Parse(c.url)
	if err != nil {
		return nil, fmt.Errorf("invalid spam API url: %w", err)
	}
	query := endpoint.Query()
	query.Set("threshold", strconv.FormatFloat(c.threshold, 'f', -1, 64))
	endpoint.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(context.WithoutCancel(ctx), http.MethodPost, endpoint.String(), strings.NewReader(text))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "text/plain")
	req.Header.Set("apikey", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("spam API returned status %d: %s", resp.StatusCode, string(body))
	}

	var result CheckResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &result, nil
}

// Close releases idle connections.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}
