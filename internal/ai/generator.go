package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"resumeai/internal/config"
)

// Prompt 是一次文本生成请求。
type Prompt struct {
	Text        string
	MaxTokens   int64
	Temperature float64
}

// Generator 抽象外部文本生成服务。
type Generator interface {
	Complete(ctx context.Context, p Prompt) (string, error)
}

// OpenAIGenerator 通过 OpenAI 兼容的 chat completions 接口生成文本。
type OpenAIGenerator struct {
	client  *openai.Client
	model   string
	timeout time.Duration
}

func NewOpenAIGenerator(cfg config.AIConfig) *OpenAIGenerator {
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		opts = append(opts, option.WithBaseURL(strings.TrimRight(base, "/")+"/"))
	}
	return &OpenAIGenerator{
		client:  openai.NewClient(opts...),
		model:   cfg.Model,
		timeout: cfg.Timeout,
	}
}

func (g *OpenAIGenerator) Complete(ctx context.Context, p Prompt) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	params := openai.ChatCompletionNewParams{
		Messages: openai.F([]openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(p.Text),
		}),
		Model: openai.F(g.model),
	}
	if p.MaxTokens > 0 {
		params.MaxTokens = openai.F(p.MaxTokens)
	}
	if p.Temperature > 0 {
		params.Temperature = openai.F(p.Temperature)
	}

	completion, err := g.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}
	return strings.TrimSpace(completion.Choices[0].Message.Content), nil
}
