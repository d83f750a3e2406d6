package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setRequiredEnv は必須の環境変数をすべて設定します
func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DB_HOST", "localhost")
	t.Setenv("DB_PORT", "5432")
	t.Setenv("DB_USER", "wellness")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("DB_NAME", "wellness")
	t.Setenv("VECTOR_SCHEMA", "knowledge")
	t.Setenv("VECTOR_COLLECTION", "articles")
	t.Setenv("OPENAI_API_KEY", "sk-test")
}

func TestLoad(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "knowledge", cfg.Vector.Schema)
	assert.Equal(t, "articles", cfg.Vector.Collection)

	// デフォルト値の確認
	assert.Equal(t, "text-embedding-3-small", cfg.OpenAI.EmbeddingModel)
	assert.Equal(t, 1536, cfg.OpenAI.EmbeddingDimension)
	assert.Equal(t, "gpt-4o", cfg.OpenAI.ChatModel)
	assert.Equal(t, 512, cfg.Ingest.ChunkSize)
	assert.Equal(t, 100, cfg.Ingest.ChunkOverlap)
	assert.Equal(t, 30*time.Second, cfg.Ingest.ScrapeTimeout)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestLoad_MissingRequired(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("VECTOR_COLLECTION", "")

	_, err := Load("")
	require.Error(t, err)

	// 欠けているキーがすべてエラーメッセージに列挙されること
	assert.Contains(t, err.Error(), "OPENAI_API_KEY")
	assert.Contains(t, err.Error(), "VECTOR_COLLECTION")
}

func TestLoad_InvalidChunkConfig(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("INGEST_CHUNK_SIZE", "100")
	t.Setenv("INGEST_CHUNK_OVERLAP", "100")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "INGEST_CHUNK_OVERLAP")
}

func TestLoad_EnvOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("OPENAI_CHAT_MODEL", "gpt-4o-mini")
	t.Setenv("INGEST_CHUNK_SIZE", "256")
	t.Setenv("HTTP_PORT", "9090")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "gpt-4o-mini", cfg.OpenAI.ChatModel)
	assert.Equal(t, 256, cfg.Ingest.ChunkSize)
	assert.Equal(t, 9090, cfg.Server.Port)
}
