package app

import (
	"strings"

	"github.com/yungbote/wealthquest-backend/internal/config"
	"github.com/yungbote/wealthquest-backend/internal/platform/gemini"
	"github.com/yungbote/wealthquest-backend/internal/platform/logger"
	"github.com/yungbote/wealthquest-backend/internal/platform/openai"
	"github.com/yungbote/wealthquest-backend/internal/services"
)

// wireMentorGenerator picks the AI provider. A provider without credentials
// degrades to the disabled generator so the rest of the API still serves.
func wireMentorGenerator(log *logger.Logger, cfg config.MentorConfig) (services.TextGenerator, string) {
	log.Info("Wiring mentor provider...", "provider", cfg.Provider)
	var (
		gen services.TextGenerator
		err error
	)
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "openai":
		gen, err = openai.NewClient(log, openai.Config{
			APIKey:     cfg.OpenAIAPIKey,
			BaseURL:    cfg.OpenAIBaseURL,
			Model:      cfg.OpenAIModel,
			Timeout:    cfg.Timeout.Duration,
			MaxRetries: cfg.MaxRetries,
		})
	case "gemini":
		gen, err = gemini.NewClient(log, gemini.Config{
			APIKey:     cfg.GeminiAPIKey,
			BaseURL:    cfg.GeminiBaseURL,
			Model:      cfg.GeminiModel,
			Timeout:    cfg.Timeout.Duration,
			MaxRetries: cfg.MaxRetries,
		})
	default:
		return instrumentGenerator("disabled", services.DisabledGenerator()), "disabled"
	}
	if err != nil {
		log.Warn("Mentor provider unavailable, mentor disabled", "provider", cfg.Provider, "error", err)
		return instrumentGenerator("disabled", services.DisabledGenerator()), "disabled"
	}
	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))
	return instrumentGenerator(provider, gen), provider
}
