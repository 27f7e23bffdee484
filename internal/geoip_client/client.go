package geoip_client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"complaint-service/internal/models"
)

var ErrLookupFailed = errors.New("geolocation lookup failed")

// Client resolves IP addresses through an ip-api.com compatible endpoint.
// Unlike the sentiment and spam clients it returns its errors to the caller.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// Config for the geolocation client
type Config struct {
	URL            string
	Timeout        time.Duration
	ConnectTimeout time.Duration
}

// NewClient creates a new geolocation client
func NewClient(cfg Config, logger *zap.Logger) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(cfg.URL, "/"),
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				Proxy:       http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{Timeout: cfg.ConnectTimeout}).DialContext,
			},
		},
		logger: logger,
	}
}

// Locate fetches geolocation data for ip.
func (c *Client) Locate(ctx context.Context, ip string) (*models.GeoLocation, error) {
	if net.ParseIP(ip) == nil {
		return nil, fmt.Errorf("%w: invalid ip %q", ErrLookupFailed, ip)
	}

	endpoint := c.baseURL + "/" + url.PathEscape(ip)
	c.logger.Debug("GeoIP request", zap.String("url", endpoint))

	req, err := http.NewRequestWithContext(context.WithoutCancel(ctx), http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: status %d: %s", ErrLookupFailed, resp.StatusCode, string(body))
	}

	var location models.GeoLocation
	if err := json.NewDecoder(resp.Body).Decode(&location); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	// ip-api answers 200 with status "fail" for private or reserved ranges
	if location.Status == "fail" {
		return nil, fmt.Errorf("%w: %s", ErrLookupFailed, location.Message)
	}

	c.logger.Info("GeoIP response",
		zap.String("ip", ip),
		zap.String("country", location.Country),
		zap.String("city", location.City))

	return &location, nil
}

// Close releases idle connections.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}
