package category_client

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"complaint-service/internal/models"
)

// GeminiClient classifies complaints with a Gemini model
type GeminiClient struct {
	client *genai.Client
	model  *genai.GenerativeModel
	config Config
	logger *zap.Logger
}

// NewGeminiClient creates a new Gemini classifier
func NewGeminiClient(cfg Config, logger *zap.Logger) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-2.0-flash"
	}

	opts := []option.ClientOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		if strings.Contains(cfg.BaseURL, "://") {
			return nil, fmt.Errorf("gemini endpoint must be host:port, got %q", cfg.BaseURL)
		}
		opts = append(opts, option.WithEndpoint(cfg.BaseURL))
	}

	client, err := genai.NewClient(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	model := client.GenerativeModel(cfg.Model)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(SystemInstruction)},
	}
	model.GenerationConfig = genai.GenerationConfig{
		Temperature:     genai.Ptr[float32](0),
		MaxOutputTokens: genai.Ptr[int32](16),
	}

	logger.Info("Gemini classifier initialized", zap.String("model", cfg.Model))

	return &GeminiClient{
		client: client,
		model:  model,
		config: cfg,
		logger: logger,
	}, nil
}

// Categorize asks the model for the complaint category
func (c *GeminiClient) Categorize(ctx context.Context, text string) (models.Category, error) {
	ctx, cancel := requestContext(ctx, c.config.Timeout)
	defer cancel()

	resp, err := c.model.GenerateContent(ctx, genai.Text(BuildPrompt(text)))
	if err != nil {
		return "", fmt.Errorf("gemini API error: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("empty response from gemini")
	}

	textPart, ok := resp.Candidates[0].Content.Parts[0].(genai.Text)
	if !ok {
		return "", errors.New("unexpected response type from gemini")
	}

	raw := strings.TrimSpace(string(textPart))
	category := ParseCategory(raw)
	c.logger.Info("Gemini classified complaint",
		zap.String("category", string(category)),
		zap.String("raw", raw))

	return category, nil
}

// Close closes the Gemini client
func (c *GeminiClient) Close() error {
	return c.client.Close()
}
