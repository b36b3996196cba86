// File path: internal/embedding/openai.go
package embedding

import (
	"context"
	"fmt"
	"os"
	"strings"

	openai "github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"github.com/rowadtech/mostashar/internal/common"
)

// ModelEmbedder is the trained-model path, backed by the OpenAI embeddings
// endpoint with the output dimension pinned to Dim so model vectors stay
// comparable with the precomputed collections.
type ModelEmbedder struct {
	client openai.Client
	model  string
	loaded bool
}

// NewModelEmbedderFromEnv returns nil when OPENAI_API_KEY is unset; the
// provider then runs on the fallback embedder alone.
func NewModelEmbedderFromEnv() *ModelEmbedder {
	apiKey := strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	if apiKey == "" {
		return nil
	}
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if endpoint := strings.TrimSpace(os.Getenv("OPENAI_ENDPOINT")); endpoint != "" {
		opts = append(opts, option.WithBaseURL(endpoint))
	}
	model := strings.TrimSpace(os.Getenv("OPENAI_EMBED_MODEL"))
	if model == "" {
		model = string(openai.EmbeddingModelTextEmbedding3Small)
	}
	common.Logger().Info("embedding: openai model embedder configured", "model", model)
	return &ModelEmbedder{client: openai.NewClient(opts...), model: model}
}

func (m *ModelEmbedder) Name() string { return "openai/" + m.model }

func (m *ModelEmbedder) Dimensions() int { return Dim }

// Load probes the endpoint with a one-token request. A failure here demotes
// the provider to the fallback embedder for the whole process lifetime.
func (m *ModelEmbedder) Load(ctx context.Context) error {
	if m == nil {
		return fmt.Errorf("model embedder not configured")
	}
	if m.loaded {
		return nil
	}
	if _, err := m.embed(ctx, "ok"); err != nil {
		return fmt.Errorf("probe embedding model: %w", err)
	}
	m.loaded = true
	return nil
}

func (m *ModelEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if m == nil {
		return nil, fmt.Errorf("model embedder not configured")
	}
	return m.embed(ctx, text)
}

func (m *ModelEmbedder) embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := m.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input:      openai.EmbeddingNewParamsInputUnion{OfString: openai.String(text)},
		Model:      openai.EmbeddingModel(m.model),
		Dimensions: openai.Int(Dim),
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("empty embedding response")
	}
	raw := resp.Data[0].Embedding
	vec := make([]float32, len(raw))
	for i, v := range raw {
		vec[i] = float32(v)
	}
	return vec, nil
}
