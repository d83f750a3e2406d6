package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const (
	// DefaultEmbeddingModel はデフォルトのEmbeddingモデル
	DefaultEmbeddingModel = "text-embedding-3-small"

	// DefaultEmbeddingDimension はベクトルの次元数
	// コレクション側の次元と一致していなければ類似度検索は成立しない
	DefaultEmbeddingDimension = 1536

	// DefaultTimeout はAPI呼び出しのデフォルトタイムアウト
	DefaultTimeout = 60 * time.Second
)

var (
	// ErrAPIKeyNotSet はAPIキーが設定されていない場合のエラー
	ErrAPIKeyNotSet = errors.New("OpenAI API key not set")
)

// Embedder はテキストをベクトルに変換します
type Embedder struct {
	client    openai.Client
	model     string
	dimension int
	timeout   time.Duration
}

// NewEmbedder は新しいEmbedderを作成します
func NewEmbedder(apiKey, model string, dimension int) (*Embedder, error) {
	if apiKey == "" {
		return nil, ErrAPIKeyNotSet
	}

	if model == "" {
		model = DefaultEmbeddingModel
	}
	if dimension <= 0 {
		dimension = DefaultEmbeddingDimension
	}

	return &Embedder{
		client:    openai.NewClient(option.WithAPIKey(apiKey)),
		model:     model,
		dimension: dimension,
		timeout:   DefaultTimeout,
	}, nil
}

// SetTimeout はAPIコールのタイムアウトを設定します
func (e *Embedder) SetTimeout(timeout time.Duration) {
	e.timeout = timeout
}

// Dimension はEmbeddingベクトルの次元数を返します
func (e *Embedder) Dimension() int {
	return e.dimension
}

// ModelName はモデル名を返します
func (e *Embedder) ModelName() string {
	return e.model
}

// Embed はテキストからEmbeddingベクトルを生成します
// 失敗時は分類済みの *ProviderError を返します
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, &ProviderError{Kind: KindFatal, Err: errors.New("empty input text")}
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	params := openai.EmbeddingNewParams{
		Model: openai.EmbeddingModel(e.model),
		Input: openai.EmbeddingNewParamsInputUnion{
			OfString: openai.String(text),
		},
		EncodingFormat: openai.EmbeddingNewParamsEncodingFormatFloat,
	}

	// dimensionパラメータ（text-embedding-3系で有効）
	if e.dimension > 0 {
		params.Dimensions = openai.Int(int64(e.dimension))
	}

	resp, err := e.client.Embeddings.New(ctx, params)
	if err != nil {
		return nil, classify(fmt.Errorf("failed to generate embedding: %w", err))
	}

	if len(resp.Data) == 0 {
		return nil, &ProviderError{Kind: KindTransient, Err: errors.New("no embeddings returned")}
	}

	// float64からfloat32に変換
	vector := make([]float32, len(resp.Data[0].Embedding))
	for i, v := range resp.Data[0].Embedding {
		vector[i] = float32(v)
	}

	if len(vector) != e.dimension {
		return nil, &ProviderError{
			Kind: KindFatal,
			Err:  fmt.Errorf("embedding dimension mismatch: got %d, want %d", len(vector), e.dimension),
		}
	}

	return vector, nil
}
