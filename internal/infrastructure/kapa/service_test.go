package kapa

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/deepgram/pdfchat/internal/config"
	"github.com/deepgram/pdfchat/internal/domain/chat"
	"github.com/deepgram/pdfchat/internal/domain/chat/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T, handler http.HandlerFunc) *Service {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewService(config.KapaConfig{
		ProjectID:     "project-1",
		APIKey:        "secret",
		IntegrationID: "integration-1",
		BaseURL:       server.URL,
	}, nil)
}

func TestAsk(t *testing.T) {
	var gotRequest QueryRequest
	var gotPath, gotKey string

	service := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("X-API-KEY")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotRequest))

		json.NewEncoder(w).Encode(QueryResponse{
			Answer:   "Use the listen endpoint.",
			ThreadID: "thread-1",
			RelevantSources: []RelevantSource{
				{SourceURL: "https://docs.example.com/listen", Title: "Listen"},
				{SourceURL: "https://docs.example.com/untitled"},
			},
		})
	})

	answer, err := service.Ask(context.Background(), "How do I transcribe?")
	require.NoError(t, err)

	assert.Equal(t, "/query/v1/projects/project-1/chat/", gotPath)
	assert.Equal(t, "secret", gotKey)
	assert.Equal(t, "integration-1", gotRequest.IntegrationID)
	assert.Equal(t, "How do I transcribe?", gotRequest.Query)

	assert.Equal(t, models.String("Use the listen endpoint."), answer.Content)
	assert.Equal(t, []models.Citation{
		{SourceID: models.String("https://docs.example.com/listen"), Excerpt: models.String("Listen")},
		{SourceID: models.String("https://docs.example.com/untitled")},
	}, answer.Citations)
}

func TestAskFailures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		wantErr error
	}{
		{
			name: "non-200 status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
			},
			wantErr: chat.ErrProtocol,
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("<html>"))
			},
			wantErr: chat.ErrProtocol,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := newTestService(t, tt.handler)
			_, err := service.Ask(context.Background(), "question")
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

func TestNormalizeEmptyResponse(t *testing.T) {
	answer := (&QueryResponse{}).Normalize()
	assert.Nil(t, answer.Content)
	assert.NotNil(t, answer.Citations)
	assert.Empty(t, answer.Citations)
}
