package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/deepgram/pdfchat/internal/config"
	"github.com/deepgram/pdfchat/internal/domain/chat"
	"github.com/deepgram/pdfchat/internal/domain/chat/models"
	"github.com/rs/zerolog/log"
	"github.com/sashabaranov/go-openai"
)

const systemPrompt = `You answer questions about the user's uploaded documents.
- ALWAYS answer concisely.
- ALWAYS respond with "I don't know" if the question cannot be answered definitively.
- NEVER invent document names or page numbers.`

// Service answers questions with a chat completion model. It has no retrieval
// step, so answers never carry citations.
type Service struct {
	client *openai.Client
	model  string
}

func NewService(cfg config.OpenAIConfig) *Service {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	log.Info().Str("model", cfg.Model).Msg("Initialising OpenAI service")
	return &Service{
		client: openai.NewClientWithConfig(clientConfig),
		model:  cfg.Model,
	}
}

func (s *Service) Ask(ctx context.Context, question string) (*models.Answer, error) {
	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: question},
		},
	})
	if err != nil {
		return nil, classify(err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: no response choices returned", chat.ErrProtocol)
	}

	log.Debug().
		Int("prompt_tokens", resp.Usage.PromptTokens).
		Int("completion_tokens", resp.Usage.CompletionTokens).
		Msg("Received chat completion")

	answer := &models.Answer{Citations: []models.Citation{}}
	if content := resp.Choices[0].Message.Content; content != "" {
		answer.Content = models.String(content)
	}
	return answer, nil
}

// classify separates errors where the API answered badly from errors where it was never reached
func classify(err error) error {
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError

	switch {
	case errors.As(err, &apiErr), errors.As(err, &reqErr):
		return fmt.Errorf("%w: failed to get chat completion: %w", chat.ErrProtocol, err)
	case errors.As(err, &syntaxErr), errors.As(err, &typeErr):
		return fmt.Errorf("%w: failed to decode chat completion: %w", chat.ErrProtocol, err)
	default:
		return fmt.Errorf("%w: failed to get chat completion: %w", chat.ErrTransport, err)
	}
}
