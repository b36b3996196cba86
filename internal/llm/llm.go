// File path: internal/llm/llm.go

// Package llm turns accepted search results into a natural-language Arabic
// answer. An OpenAI-backed provider is selected when credentials exist;
// otherwise a local template provider formats the answer directly, so answer
// synthesis never depends on network availability.
package llm

import (
	"context"
	"os"
	"strings"

	openai "github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"github.com/rowadtech/mostashar/internal/common"
)

// Snippet is one accepted search result handed to the synthesizer.
type Snippet struct {
	Text     string  `json:"text"`
	Database string  `json:"database"`
	Score    float64 `json:"score"`
}

// Provider synthesizes one answer from the query and its supporting
// snippets.
type Provider interface {
	Synthesize(ctx context.Context, query string, snippets []Snippet) (string, error)
	Name() string
}

// NewProvider selects the OpenAI provider when OPENAI_API_KEY is set and the
// local template provider otherwise. The OpenAI provider keeps the local one
// as its failure fallback.
func NewProvider() Provider {
	logger := common.Logger()
	apiKey := strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	if apiKey == "" {
		logger.Info("llm: OPENAI_API_KEY not set, local answer templates active")
		return NewLocalProvider()
	}
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if endpoint := strings.TrimSpace(os.Getenv("OPENAI_ENDPOINT")); endpoint != "" {
		logger.Info("llm: custom OpenAI endpoint configured", "endpoint", endpoint)
		opts = append(opts, option.WithBaseURL(endpoint))
	}
	model := strings.TrimSpace(os.Getenv("OPENAI_CHAT_MODEL"))
	if model == "" {
		model = string(openai.ChatModelGPT4oMini)
	}
	logger.Info("llm: OpenAI provider selected", "model", model)
	return &openAIProvider{
		client:   openai.NewClient(opts...),
		model:    model,
		fallback: NewLocalProvider(),
	}
}
