package kapa

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/deepgram/pdfchat/internal/config"
	"github.com/deepgram/pdfchat/internal/domain/chat"
	"github.com/deepgram/pdfchat/internal/domain/chat/models"
	"github.com/rs/zerolog/log"
)

type Service struct {
	client        *http.Client
	projectID     string
	apiKey        string
	integrationID string
	baseURL       string
}

type QueryRequest struct {
	IntegrationID string    `json:"integration_id"`
	Query         string    `json:"query"`
	User          *UserInfo `json:"user,omitempty"`
}

type UserInfo struct {
	Email          string        `json:"email,omitempty"`
	UniqueClientID string        `json:"unique_client_id,omitempty"`
	Metadata       *UserMetadata `json:"metadata,omitempty"`
}

type UserMetadata struct {
	StoreIP bool `json:"store_ip"`
}

type QueryResponse struct {
	Answer           string           `json:"answer"`
	ThreadID         string           `json:"thread_id"`
	QuestionAnswerID string           `json:"question_answer_id"`
	IsUncertain      bool             `json:"is_uncertain"`
	RelevantSources  []RelevantSource `json:"relevant_sources"`
}

type RelevantSource struct {
	SourceURL            string `json:"source_url"`
	Title                string `json:"title"`
	ContainsInternalData bool   `json:"contains_internal_data"`
}

func NewService(cfg config.KapaConfig, client *http.Client) *Service {
	if client == nil {
		client = &http.Client{}
	}

	log.Info().Str("project_id", cfg.ProjectID).Msg("Initialising Kapa service")
	return &Service{
		client:        client,
		projectID:     cfg.ProjectID,
		apiKey:        cfg.APIKey,
		integrationID: cfg.IntegrationID,
		baseURL:       cfg.BaseURL,
	}
}

func (s *Service) Ask(ctx context.Context, question string) (*models.Answer, error) {
	resp, err := s.Query(ctx, question)
	if err != nil {
		return nil, err
	}
	return resp.Normalize(), nil
}

func (s *Service) Query(ctx context.Context, question string) (*QueryResponse, error) {
	// Construct the request body
	req := QueryRequest{
		IntegrationID: s.integrationID,
		Query:         question,
		User: &UserInfo{
			Metadata: &UserMetadata{
				StoreIP: false,
			},
		},
	}

	jsonData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to marshal request: %w", chat.ErrTransport, err)
	}

	url := fmt.Sprintf("%s/query/v1/projects/%s/chat/", s.baseURL, s.projectID)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %w", chat.ErrTransport, err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-API-KEY", s.apiKey)

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to make request: %w", chat.ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		log.Error().
			Int("status", resp.StatusCode).
			Str("body", string(body)).
			Msg("Kapa API returned non-200 status")
		return nil, fmt.Errorf("%w: kapa API returned status %d", chat.ErrProtocol, resp.StatusCode)
	}

	var queryResp QueryResponse
	if err := json.NewDecoder(resp.Body).Decode(&queryResp); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response: %w", chat.ErrProtocol, err)
	}

	log.Debug().
		Str("thread_id", queryResp.ThreadID).
		Bool("is_uncertain", queryResp.IsUncertain).
		Int("relevant_sources", len(queryResp.RelevantSources)).
		Msg("Received Kapa answer")

	return &queryResp, nil
}

// Normalize maps relevant sources onto citations; kapa has no page numbers
func (r *QueryResponse) Normalize() *models.Answer {
	answer := &models.Answer{
		Citations: make([]models.Citation, 0, len(r.RelevantSources)),
	}
	if r.Answer != "" {
		answer.Content = models.String(r.Answer)
	}

	for _, source := range r.RelevantSources {
		var citation models.Citation
		if source.SourceURL != "" {
			citation.SourceID = models.String(source.SourceURL)
		}
		if source.Title != "" {
			citation.Excerpt = models.String(source.Title)
		}
		answer.Citations = append(answer.Citations, citation)
	}

	return answer
}
