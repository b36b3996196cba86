// File path: internal/llm/openai.go
package llm

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/openai/openai-go/v2"

	"github.com/rowadtech/mostashar/internal/common"
)

const systemPrompt = "أنت مساعد ذكي لخدمات الاستثمار الحكومية في مصر. أجب عن سؤال المستخدم " +
	"بالعربية الفصحى اعتماداً على المعلومات المرفقة فقط، بإيجاز ووضوح، ودون اختلاق أي تفاصيل."

// openAIProvider synthesizes answers through the chat completions API and
// degrades to the local templates on any failure.
type openAIProvider struct {
	client   openai.Client
	model    string
	fallback Provider
}

func (p *openAIProvider) Name() string { return "openai:" + p.model }

func (p *openAIProvider) Synthesize(ctx context.Context, query string, snippets []Snippet) (string, error) {
	if len(snippets) == 0 {
		return p.fallback.Synthesize(ctx, query, snippets)
	}
	var b strings.Builder
	b.WriteString("السؤال: ")
	b.WriteString(query)
	b.WriteString("\n\nالمعلومات المتاحة:\n")
	limit := len(snippets)
	if limit > 5 {
		limit = 5
	}
	for i := 0; i < limit; i++ {
		b.WriteString(fmt.Sprintf("- [%s] %s\n", snippets[i].Database, clip(snippets[i].Text)))
	}

	resp, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(b.String()),
		},
		Model: openai.ChatModel(p.model),
	})
	if err != nil || len(resp.Choices) == 0 {
		common.Logger().Warn("llm: chat completion failed, using local templates", "error", err)
		return p.fallback.Synthesize(ctx, query, snippets)
	}
	answer := strings.TrimSpace(resp.Choices[0].Message.Content)
	if answer == "" {
		return p.fallback.Synthesize(ctx, query, snippets)
	}
	return answer, nil
}
