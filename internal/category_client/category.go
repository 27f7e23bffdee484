// Package category_client classifies complaint text with an LLM.
//
// Categorize returns transport, API and empty-answer failures to the caller,
// which decides the fallback. An answer that names neither category is a
// valid "other".
package category_client

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"complaint-service/internal/models"
)

// Provider is implemented by every LLM backend
type Provider interface {
	Categorize(ctx context.Context, text string) (models.Category, error)
	Close() error
}

// Config for the classification provider
type Config struct {
	Provider       string // "openai" or "gemini"
	APIKey         string
	BaseURL        string // full URL for openai, gRPC host:port for gemini
	Model          string
	Timeout        time.Duration
	ConnectTimeout time.Duration
}

const SystemInstruction = "You are a classification assistant."

// BuildPrompt asks for a one-word answer out of the three categories.
func BuildPrompt(text string) string {
	return fmt.Sprintf(`Определи категорию жалобы: "%s". Варианты: техническая, оплата, другое. Ответь одним словом.`, text)
}

// ParseCategory maps a free-form model answer to a category.
func ParseCategory(answer string) models.Category {
	a := strings.ToLower(strings.TrimSpace(answer))
	switch {
	case strings.Contains(a, "техничес") || strings.HasPrefix(a, "technical"):
		return models.CategoryTechnical
	case strings.Contains(a, "оплат") || strings.HasPrefix(a, "payment"):
		return models.CategoryPayment
	default:
		return models.CategoryOther
	}
}

// New creates the provider selected in cfg.
func New(cfg Config, logger *zap.Logger) (Provider, error) {
	switch cfg.Provider {
	case "openai", "":
		return NewOpenAIClient(cfg, logger)
	case "gemini":
		return NewGeminiClient(cfg, logger)
	default:
		return nil, fmt.Errorf("unknown category provider %q", cfg.Provider)
	}
}

// requestContext detaches the lookup from the caller and bounds it by timeout.
func requestContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return context.WithTimeout(context.WithoutCancel(ctx), timeout)
}
