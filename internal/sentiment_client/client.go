package sentiment_client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"complaint-service/internal/logging"
	"complaint-service/internal/models"
)

// Client is a client for the APILayer Sentiment Analysis API.
// Analyze never fails: every error resolves to models.SentimentUnknown.
type Client struct {
	url        string
	apiKey     string
	httpClient *http.Client
	logger     *zap.Logger
}

// Config for the sentiment client
type Config struct {
	URL            string
	APIKey         string
	Timeout        time.Duration // whole request
	ConnectTimeout time.Duration
}

// analysisResponse is the part of the provider payload we read
type analysisResponse struct {
	Sentiment string `json:"sentiment"`
}

var sentimentMap = map[string]models.Sentiment{
	"positive": models.SentimentPositive,
	"negative": models.SentimentNegative,
	"neutral":  models.SentimentNeutral,
}

// NewClient creates a new sentiment client with its own connection pool.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	return &Client{
		url:    cfg.URL,
		apiKey: cfg.APIKey,
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

// Analyze returns the sentiment of text, or SentimentUnknown if the provider
// is unreachable, slow, answers non-2xx, or sends something unreadable.
func (c *Client) Analyze(ctx context.Context, text string) models.Sentiment {
	c.logger.Debug("Calling Sentiment API", zap.String("text", logging.Preview(text, 100)))

	sentiment, err := c.analyze(ctx, text)
	if err != nil {
		c.logger.Error("Sentiment API failed", zap.Error(err))
		c.logger.Warn("Returning unknown sentiment", zap.String("text", logging.Preview(text, 40)))
		return models.SentimentUnknown
	}

	return sentiment
}

func (c *Client) analyze(ctx context.Context, text string) (models.Sentiment, error) {
	// Lookups run to completion or timeout regardless of the caller.
	req, err := http.NewRequestWithContext(context.WithoutCancel(ctx), http.MethodPost, c.url, strings.NewReader(text))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "text/plain")
	req.Header.Set("apikey", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("sentiment API returned status %d: %s", resp.StatusCode, string(body))
	}

	var result analysisResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	key := strings.ToLower(strings.TrimSpace(result.Sentiment))
	c.logger.Info("Sentiment API returned", zap.String("sentiment", key))

	if sentiment, ok := sentimentMap[key]; ok {
		return sentiment, nil
	}
	return models.SentimentUnknown, nil
}

// Close releases idle connections.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}
