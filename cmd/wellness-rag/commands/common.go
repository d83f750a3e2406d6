package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hanamura/wellness-rag/internal/platform/logger"
	"github.com/hanamura/wellness-rag/pkg/config"
	"github.com/hanamura/wellness-rag/pkg/db"
	"github.com/hanamura/wellness-rag/pkg/llm"
	"github.com/hanamura/wellness-rag/pkg/vectorstore"
)

// AppContext はコマンド実行に必要な共通の依存一式を保持します
// クライアント群はここで一度だけ生成し、利用側へ明示的に注入します
type AppContext struct {
	Config    *config.Config
	Logger    *slog.Logger
	Database  *db.DB
	Store     *vectorstore.Store
	Embedder  *llm.Embedder
	Generator *llm.Generator
}

// NewAppContext は設定を読み込み、DBに接続してAppContextを作成します
// 必須の設定が欠けている場合はここで失敗します（初回のAPI呼び出しまで遅延させない）
func NewAppContext(ctx context.Context, envFile string) (*AppContext, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, fmt.Errorf("設定の読み込みに失敗: %w", err)
	}

	appLogger := logger.New(logger.DefaultConfig())

	database, err := db.New(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("データベース接続に失敗: %w", err)
	}

	embedder, err := llm.NewEmbedder(cfg.OpenAI.APIKey, cfg.OpenAI.EmbeddingModel, cfg.OpenAI.EmbeddingDimension)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("Embeddingクライアントの初期化に失敗: %w", err)
	}
	embedder.SetTimeout(cfg.OpenAI.Timeout)

	generator, err := llm.NewGenerator(cfg.OpenAI.APIKey, cfg.OpenAI.ChatModel)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("生成クライアントの初期化に失敗: %w", err)
	}
	generator.SetTimeout(cfg.OpenAI.Timeout)

	store := vectorstore.New(database.Pool, cfg.Vector.Schema, cfg.Vector.Collection, cfg.OpenAI.EmbeddingDimension)

	return &AppContext{
		Config:    cfg,
		Logger:    appLogger,
		Database:  database,
		Store:     store,
		Embedder:  embedder,
		Generator: generator,
	}, nil
}

// Close はAppContextが保持するリソースをクリーンアップします
func (ac *AppContext) Close() {
	if ac.Database != nil {
		ac.Database.Close()
	}
}
