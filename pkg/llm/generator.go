package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hanamura/wellness-rag/pkg/models"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
)

const (
	// DefaultChatModel はデフォルトのチャットモデル
	DefaultChatModel = "gpt-4o"

	// generationTemperature は生成の多様性
	// 出力の形を再現しやすくするためリクエスト間で固定する
	generationTemperature = 0.7

	// generationMaxTokens は生成する最大トークン数
	generationMaxTokens = 1000
)

// Generator はチャット補完APIをラップします
type Generator struct {
	client  openai.Client
	model   string
	timeout time.Duration
}

// NewGenerator は新しいGeneratorを作成します
func NewGenerator(apiKey, model string) (*Generator, error) {
	if apiKey == "" {
		return nil, ErrAPIKeyNotSet
	}

	if model == "" {
		model = DefaultChatModel
	}

	return &Generator{
		client:  openai.NewClient(option.WithAPIKey(apiKey)),
		model:   model,
		timeout: DefaultTimeout,
	}, nil
}

// SetTimeout はAPIコールのタイムアウトを設定します
func (g *Generator) SetTimeout(timeout time.Duration) {
	g.timeout = timeout
}

// ModelName はモデル名を返します
func (g *Generator) ModelName() string {
	return g.model
}

// Generate はメッセージ列からチャット補完を生成し、本文テキストを返します
// 失敗時は分類済みの *ProviderError を返します
func (g *Generator) Generate(ctx context.Context, messages []models.Message) (string, error) {
	if len(messages) == 0 {
		return "", &ProviderError{Kind: KindFatal, Err: errors.New("no messages provided")}
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	params := openai.ChatCompletionNewParams{
		Model:       shared.ChatModel(g.model),
		Messages:    convertMessages(messages),
		Temperature: openai.Float(generationTemperature),
		MaxTokens:   openai.Int(generationMaxTokens),
	}

	completion, err := g.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", classify(fmt.Errorf("chat completion failed: %w", err))
	}

	if len(completion.Choices) == 0 {
		return "", &ProviderError{Kind: KindTransient, Err: errors.New("no completion choices returned")}
	}

	return completion.Choices[0].Message.Content, nil
}

// convertMessages はドメインのメッセージをOpenAI SDKのパラメータに変換します
func convertMessages(messages []models.Message) []openai.ChatCompletionMessageParamUnion {
	params := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case models.RoleSystem:
			params = append(params, openai.SystemMessage(m.Content))
		case models.RoleAssistant:
			params = append(params, openai.AssistantMessage(m.Content))
		default:
			params = append(params, openai.UserMessage(m.Content))
		}
	}
	return params
}
