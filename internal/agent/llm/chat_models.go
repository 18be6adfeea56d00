package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/cloudwego/eino-ext/components/model/openai"

	"github.com/ordena-bot/server/internal/agent/model"
	logx "github.com/ordena-bot/server/pkg/logger"
)

// ChatModelConfig holds the configuration for chat model creation.
type ChatModelConfig struct {
	APIKey          string
	BaseURL         string
	Timeout         time.Duration
	ExtractorConfig *model.ExtractorModelConfig
	ResponderConfig *model.ResponderModelConfig
}

// ChatModels holds the extractor and responder chat models. Both speak the
// chat-completions wire format with bearer-token auth against the configured
// endpoint.
type ChatModels struct {
	Extractor          *openai.ChatModel
	Responder          *openai.ChatModel
	ExtractorModelName string
	ResponderModelName string
}

// NewChatModels creates both chat models with the given configuration.
func NewChatModels(ctx context.Context, config ChatModelConfig) (*ChatModels, error) {
	if config.ExtractorConfig == nil || config.ResponderConfig == nil {
		return nil, fmt.Errorf("chat model config is incomplete")
	}

	chatModelExtractor, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		APIKey:      config.APIKey,
		BaseURL:     config.BaseURL,
		Timeout:     config.Timeout,
		Model:       config.ExtractorConfig.Model,
		Temperature: &config.ExtractorConfig.Temperature,
		MaxTokens:   &config.ExtractorConfig.MaxTokens,
	})
	if err != nil {
		logx.Error().Err(err).Msg("Error creating extractor model")
		return nil, fmt.Errorf("error creating extractor model: %w", err)
	}

	chatModelResponder, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		APIKey:      config.APIKey,
		BaseURL:     config.BaseURL,
		Timeout:     config.Timeout,
		Model:       config.ResponderConfig.Model,
		Temperature: &config.ResponderConfig.Temperature,
		MaxTokens:   &config.ResponderConfig.MaxTokens,
	})
	if err != nil {
		logx.Error().Err(err).Msg("Error creating responder model")
		return nil, fmt.Errorf("error creating responder model: %w", err)
	}

	return &ChatModels{
		Extractor:          chatModelExtractor,
		Responder:          chatModelResponder,
		ExtractorModelName: config.ExtractorConfig.Model,
		ResponderModelName: config.ResponderConfig.Model,
	}, nil
}
