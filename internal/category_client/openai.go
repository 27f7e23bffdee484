package category_client

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net"
	"net/http"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"complaint-service/internal/logging"
	"complaint-service/internal/models"
)

// OpenAIClient classifies complaints with the Chat Completions API
type OpenAIClient struct {
	client *openai.Client
	config Config
	http   *http.Client
	logger *zap.Logger
}

// NewOpenAIClient creates a new OpenAI classifier
func NewOpenAIClient(cfg Config, logger *zap.Logger) (*OpenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = openai.GPT3Dot5Turbo
	}

	httpClient := &http.Client{
		Timeout: cfg.Timeout,
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			DialContext:         (&net.Dialer{Timeout: cfg.ConnectTimeout}).DialContext,
			TLSHandshakeTimeout: cfg.ConnectTimeout,
		},
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	clientConfig.HTTPClient = httpClient

	logger.Info("OpenAI classifier initialized", zap.String("model", cfg.Model))

	return &OpenAIClient{
		client: openai.NewClientWithConfig(clientConfig),
		config: cfg,
		http:   httpClient,
		logger: logger,
	}, nil
}

// Categorize asks the model for the complaint category
func (c *OpenAIClient) Categorize(ctx context.Context, text string) (models.Category, error) {
	ctx, cancel := requestContext(ctx, c.config.Timeout)
	defer cancel()

	prompt := BuildPrompt(text)
	c.logger.Debug("Sending prompt to OpenAI for classification",
		zap.String("prompt", logging.Preview(prompt, 120)))

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.config.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: SystemInstruction},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		// a literal 0 is dropped by omitempty and the API would use its default
		Temperature: math.SmallestNonzeroFloat32,
	})
	if err != nil {
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", errors.New("no response from OpenAI")
	}

	raw := resp.Choices[0].Message.Content
	if raw == "" {
		return "", errors.New("empty answer from OpenAI")
	}

	category := ParseCategory(raw)
	c.logger.Info("OpenAI classified complaint",
		zap.String("category", string(category)),
		zap.String("raw", raw))

	return category, nil
}

// Close releases idle connections.
func (c *OpenAIClient) Close() error {
	c.http.CloseIdleConnections()
	return nil
}
