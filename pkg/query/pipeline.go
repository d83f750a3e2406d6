// Package query はユーザの発話を根拠付きの回答に変換するRAGパイプラインを提供します
package query

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hanamura/wellness-rag/pkg/models"
	"github.com/hanamura/wellness-rag/pkg/retry"
)

var (
	// ErrNoMessage はメッセージ列が空、または最後のメッセージが空の場合のエラー
	ErrNoMessage = errors.New("no message provided")
)

const (
	// DefaultTopK は類似度検索で取得するチャンク数
	DefaultTopK = 5

	// systemPromptTemplate は検索結果を文脈として埋め込むシステムプロンプト
	// ペルソナと文体の指示はリクエスト間で固定する
	systemPromptTemplate = `You are a helpful, honest AI assistant who knows everything about women's health.
Your mission is to make the user's life as easy as possible.

Use the following context to augment your knowledge about women's health, biology, and lifestyle optimization.
This context contains insights from top experts in the field from their most recent blogs, podcasts, and research.

If the context doesn't contain information relevant to the question, use your existing knowledge and maintain a natural conversation
without mentioning the sources or context.

Format responses using markdown for better readability.
----------------
CONTEXT:
%s
----------------`
)

// Embedder はクエリをベクトルに変換するインターフェース
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Searcher は類似度検索のインターフェース
type Searcher interface {
	Search(ctx context.Context, queryVector []float32, limit int) ([]models.SearchResult, error)
}

// Generator はチャット補完のインターフェース
type Generator interface {
	Generate(ctx context.Context, messages []models.Message) (string, error)
}

// Pipeline は1リクエスト分のRAGフローを実行します
//
// 埋め込み → 類似度検索 → コンテキスト組み立て → 生成を直列に実行します。
// 検索の失敗は致命的ではなく、空のコンテキストで生成を続行します
// （回答が得られることを、根拠の完全性よりも優先する）。
// 埋め込みと生成の失敗はリクエストに対して致命的です。
type Pipeline struct {
	embedder    Embedder
	searcher    Searcher
	generator   Generator
	topK        int
	retryPolicy retry.Policy
	logger      *slog.Logger
}

// Option はPipeline構築時のオプション
type Option func(*Pipeline)

// WithTopK は検索で取得するチャンク数を変更します
func WithTopK(k int) Option {
	return func(p *Pipeline) {
		if k > 0 {
			p.topK = k
		}
	}
}

// WithRetryPolicy はリトライポリシーを差し替えます
func WithRetryPolicy(policy retry.Policy) Option {
	return func(p *Pipeline) {
		p.retryPolicy = policy
	}
}

// WithLogger はロガーを差し替えます
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewPipeline はクライアント一式を注入して新しいPipelineを作成します
func NewPipeline(embedder Embedder, searcher Searcher, generator Generator, opts ...Option) *Pipeline {
	p := &Pipeline{
		embedder:    embedder,
		searcher:    searcher,
		generator:   generator,
		topK:        DefaultTopK,
		retryPolicy: retry.DefaultPolicy(),
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Answer は会話履歴の最後のメッセージをクエリとして回答を生成します
func (p *Pipeline) Answer(ctx context.Context, messages []models.Message) (string, error) {
	if len(messages) == 0 {
		return "", ErrNoMessage
	}

	latest := messages[len(messages)-1].Content
	if strings.TrimSpace(latest) == "" {
		return "", ErrNoMessage
	}

	// クエリの埋め込み（リトライで保護）
	queryVector, err := retry.Do(ctx, p.retryPolicy, func(ctx context.Context) ([]float32, error) {
		return p.embedder.Embed(ctx, latest)
	})
	if err != nil {
		return "", fmt.Errorf("failed to embed query: %w", err)
	}

	// 類似度検索。失敗してもリクエストは落とさず、空のコンテキストへデグレードする
	docContext := ""
	results, err := p.searcher.Search(ctx, queryVector, p.topK)
	if err != nil {
		p.logger.Warn("vector search failed; answering without retrieved context",
			slog.String("error", err.Error()),
		)
	} else {
		docContext = buildContext(results)
	}

	// システムメッセージを合成して先頭に付ける（永続化はしない）
	prompt := []models.Message{{
		Role:    models.RoleSystem,
		Content: fmt.Sprintf(systemPromptTemplate, docContext),
	}}
	prompt = append(prompt, messages...)

	// 生成（リトライで保護）
	content, err := retry.Do(ctx, p.retryPolicy, func(ctx context.Context) (string, error) {
		return p.generator.Generate(ctx, prompt)
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate answer: %w", err)
	}

	return content, nil
}

// buildContext は取得したチャンク本文を空行区切りで1つの文脈に連結します
func buildContext(results []models.SearchResult) string {
	texts := make([]string, 0, len(results))
	for _, r := range results {
		texts = append(texts, r.Text)
	}
	return strings.Join(texts, "\n\n")
}
