package rag

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/deepgram/pdfchat/internal/config"
	"github.com/deepgram/pdfchat/internal/domain/chat"
	"github.com/deepgram/pdfchat/internal/domain/chat/models"
	"github.com/rs/zerolog/log"
)

const maxResponseBytes = 4 << 20

// Service queries a retrieval-augmented generation server over its /chat endpoint
type Service struct {
	client  *http.Client
	baseURL string
}

// ChatResponse is the body returned by GET /chat
type ChatResponse struct {
	Message *string    `json:"message"`
	Docs    []Document `json:"docs"`
}

// Document is one retrieved passage. Older servers spell the metadata key "metdata".
type Document struct {
	PageContent    *string   `json:"pageContent"`
	Metadata       *Metadata `json:"metadata"`
	LegacyMetadata *Metadata `json:"metdata"`
}

type Metadata struct {
	Source *string   `json:"source"`
	Loc    *Location `json:"loc"`
}

type Location struct {
	PageNumber *int `json:"pageNumber"`
}

func NewService(cfg config.RAGConfig, client *http.Client) *Service {
	if client == nil {
		client = &http.Client{}
	}

	return &Service{
		client:  client,
		baseURL: cfg.URL,
	}
}

// Ask sends the question as the message query parameter and normalizes the reply
func (s *Service) Ask(ctx context.Context, question string) (*models.Answer, error) {
	endpoint, err := url.Parse(s.baseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid base URL: %w", chat.ErrTransport, err)
	}
	endpoint = endpoint.JoinPath("chat")
	query := endpoint.Query()
	query.Set("message", question)
	endpoint.RawQuery = query.Encode()

	log.Debug().Str("url", endpoint.Redacted()).Msg("Sending RAG query")

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %w", chat.ErrTransport, err)
	}
	httpReq.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to make request: %w", chat.ErrTransport, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %w", chat.ErrTransport, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Warn().
			Int("status", resp.StatusCode).
			Str("body", truncate(body, 512)).
			Msg("RAG server returned non-success status")
		return nil, fmt.Errorf("%w: RAG server returned status %d", chat.ErrProtocol, resp.StatusCode)
	}

	var chatResp ChatResponse
	if err := decodeObject(body, &chatResp); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response: %w", chat.ErrProtocol, err)
	}

	answer := chatResp.Normalize()
	log.Debug().
		Bool("has_content", answer.Content != nil).
		Int("citations", len(answer.Citations)).
		Msg("Received RAG answer")

	return answer, nil
}

// Normalize maps the wire shape onto an answer, dropping non-positive page numbers
func (r ChatResponse) Normalize() *models.Answer {
	citations := make([]models.Citation, 0, len(r.Docs))
	for _, doc := range r.Docs {
		citation := models.Citation{
			Excerpt: doc.PageContent,
		}

		metadata := doc.Metadata
		if metadata == nil {
			metadata = doc.LegacyMetadata
		}
		if metadata != nil {
			citation.SourceID = metadata.Source
			if metadata.Loc != nil && metadata.Loc.PageNumber != nil && *metadata.Loc.PageNumber > 0 {
				citation.PageNumber = metadata.Loc.PageNumber
			}
		}

		citations = append(citations, citation)
	}

	return &models.Answer{
		Content:   r.Message,
		Citations: citations,
	}
}

// decodeObject rejects anything that is not a JSON object, including null
func decodeObject(body []byte, v any) error {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return errors.New("expected JSON object")
	}
	return json.Unmarshal(trimmed, v)
}

func truncate(body []byte, limit int) string {
	if len(body) <= limit {
		return string(body)
	}
	return string(body[:limit]) + "..."
}
