package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config はアプリケーション全体の設定を保持します
type Config struct {
	// Database設定（ベクトルストアの接続先）
	Database DatabaseConfig

	// ベクトルコレクション設定
	Vector VectorConfig

	// OpenAI設定（Embeddings + Chat Completions）
	OpenAI OpenAIConfig

	// インジェスト設定
	Ingest IngestConfig

	// HTTPサーバ設定
	Server ServerConfig
}

// DatabaseConfig はデータベース接続設定
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// VectorConfig はベクトルコレクション設定
type VectorConfig struct {
	Schema     string // コレクションの名前空間（PostgreSQLスキーマ）
	Collection string // コレクション名（テーブル名）
}

// OpenAIConfig はOpenAI API設定
type OpenAIConfig struct {
	APIKey             string
	EmbeddingModel     string
	EmbeddingDimension int
	ChatModel          string
	Timeout            time.Duration
}

// IngestConfig はインジェストジョブ設定
type IngestConfig struct {
	ChunkSize     int
	ChunkOverlap  int
	ScrapeTimeout time.Duration
}

// ServerConfig はHTTPサーバ設定
type ServerConfig struct {
	Port int
}

// Load は環境変数または.envファイルから設定を読み込みます
// 必須の環境変数が欠けている場合は、初回のAPI呼び出しではなく起動時点でエラーを返します
func Load(envFilePath string) (*Config, error) {
	// .envファイルが存在する場合は読み込む
	if envFilePath != "" {
		if err := godotenv.Load(envFilePath); err != nil {
			// ファイルが存在しない場合はエラーとしない（環境変数のみで動作可能）
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to load .env file: %w", err)
			}
		}
	}

	// 必須の環境変数を検証する
	required := []string{
		"DB_HOST",
		"DB_PORT",
		"DB_USER",
		"DB_PASSWORD",
		"DB_NAME",
		"VECTOR_SCHEMA",
		"VECTOR_COLLECTION",
		"OPENAI_API_KEY",
	}
	var missing []string
	for _, key := range required {
		if os.Getenv(key) == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	cfg := &Config{
		Database: DatabaseConfig{
			Host:     os.Getenv("DB_HOST"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     os.Getenv("DB_USER"),
			Password: os.Getenv("DB_PASSWORD"),
			DBName:   os.Getenv("DB_NAME"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Vector: VectorConfig{
			Schema:     os.Getenv("VECTOR_SCHEMA"),
			Collection: os.Getenv("VECTOR_COLLECTION"),
		},
		OpenAI: OpenAIConfig{
			APIKey:             os.Getenv("OPENAI_API_KEY"),
			EmbeddingModel:     getEnv("OPENAI_EMBEDDING_MODEL", "text-embedding-3-small"),
			EmbeddingDimension: getEnvAsInt("OPENAI_EMBEDDING_DIMENSION", 1536),
			ChatModel:          getEnv("OPENAI_CHAT_MODEL", "gpt-4o"),
			Timeout:            getEnvAsDuration("OPENAI_TIMEOUT", 60*time.Second),
		},
		Ingest: IngestConfig{
			ChunkSize:     getEnvAsInt("INGEST_CHUNK_SIZE", 512),
			ChunkOverlap:  getEnvAsInt("INGEST_CHUNK_OVERLAP", 100),
			ScrapeTimeout: getEnvAsDuration("INGEST_SCRAPE_TIMEOUT", 30*time.Second),
		},
		Server: ServerConfig{
			Port: getEnvAsInt("HTTP_PORT", 8080),
		},
	}

	if cfg.Ingest.ChunkOverlap >= cfg.Ingest.ChunkSize {
		return nil, fmt.Errorf("INGEST_CHUNK_OVERLAP (%d) must be smaller than INGEST_CHUNK_SIZE (%d)",
			cfg.Ingest.ChunkOverlap, cfg.Ingest.ChunkSize)
	}

	return cfg, nil
}

// getEnv は環境変数を取得し、存在しない場合はデフォルト値を返します
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt は環境変数を整数として取得します
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsDuration は環境変数をDurationとして取得します（例: "30s", "1m"）
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
