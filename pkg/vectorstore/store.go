// Package vectorstore はpgvectorコレクションへの挿入と類似度検索を提供します
package vectorstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/hanamura/wellness-rag/pkg/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"
)

// StoreError はベクトルストアのトランスポート障害を表します
// 検索の失敗を呼び出し側へ明示的に伝えるための型です（暗黙の空結果は返さない）
type StoreError struct {
	Op  string // "insert", "search", "ensure"
	Err error
}

// Error はerrorインターフェースを実装します
func (e *StoreError) Error() string {
	return fmt.Sprintf("vector store %s failed: %v", e.Op, e.Err)
}

// Unwrap はラップされた元エラーを返します
func (e *StoreError) Unwrap() error {
	return e.Err
}

// IsStoreError はエラーがベクトルストア起因かどうかを判定します
func IsStoreError(err error) bool {
	var serr *StoreError
	return errors.As(err, &serr)
}

// Store はPostgreSQL(pgvector)上のベクトルコレクションをラップします
// 類似度はコレクション作成時に固定した内積（Embeddingモデルの幾何に一致）で測ります
type Store struct {
	pool       *pgxpool.Pool
	schema     string
	collection string
	dimension  int
}

// New は新しいStoreを作成します
func New(pool *pgxpool.Pool, schema, collection string, dimension int) *Store {
	return &Store{
		pool:       pool,
		schema:     schema,
		collection: collection,
		dimension:  dimension,
	}
}

// tableName はスキーマ修飾されたテーブル名を返します
func (s *Store) tableName() string {
	return pgx.Identifier{s.schema, s.collection}.Sanitize()
}

// EnsureCollection はコレクションを冪等に作成します
// 既存のコレクションが異なる次元で作成されている場合はエラーを返します
func (s *Store) EnsureCollection(ctx context.Context) error {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS %s`, pgx.Identifier{s.schema}.Sanitize()),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id UUID PRIMARY KEY,
			embedding VECTOR(%d) NOT NULL,
			text TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`, s.tableName(), s.dimension),
	}

	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return &StoreError{Op: "ensure", Err: err}
		}
	}

	// 既存テーブルの次元が設定と一致することを確認する
	existing, err := s.collectionDimension(ctx)
	if err != nil {
		return &StoreError{Op: "ensure", Err: err}
	}
	if existing != s.dimension {
		return &StoreError{
			Op:  "ensure",
			Err: fmt.Errorf("collection %s already exists with dimension %d, want %d", s.collection, existing, s.dimension),
		}
	}

	return nil
}

// collectionDimension は既存テーブルのembedding列の次元を取得します
func (s *Store) collectionDimension(ctx context.Context) (int, error) {
	// vector型ではatttypmodがそのまま次元数になる
	const query = `
		SELECT a.atttypmod
		FROM pg_attribute a
		JOIN pg_class c ON c.oid = a.attrelid
		JOIN pg_namespace n ON n.oid = c.relnamespace
		WHERE n.nspname = $1 AND c.relname = $2 AND a.attname = 'embedding'`

	var dim int
	if err := s.pool.QueryRow(ctx, query, s.schema, s.collection).Scan(&dim); err != nil {
		return 0, fmt.Errorf("failed to inspect collection dimension: %w", err)
	}
	return dim, nil
}

// Insert はレコードを追記し、永続化されたレコードを返します（重複排除・更新はしない）
func (s *Store) Insert(ctx context.Context, embedding []float32, text string) (models.StoredRecord, error) {
	if len(embedding) != s.dimension {
		return models.StoredRecord{}, &StoreError{
			Op:  "insert",
			Err: fmt.Errorf("embedding dimension mismatch: got %d, want %d", len(embedding), s.dimension),
		}
	}

	rec := models.StoredRecord{
		ID:        uuid.New(),
		Embedding: embedding,
		Text:      text,
	}
	query := fmt.Sprintf(
		`INSERT INTO %s (id, embedding, text) VALUES ($1, $2, $3) RETURNING created_at`,
		s.tableName(),
	)

	if err := s.pool.QueryRow(ctx, query, rec.ID, pgvector.NewVector(embedding), text).Scan(&rec.CreatedAt); err != nil {
		return models.StoredRecord{}, &StoreError{Op: "insert", Err: err}
	}

	return rec, nil
}

// Search はクエリベクトルに類似したレコードを内積の類似度降順で最大limit件返します
func (s *Store) Search(ctx context.Context, queryVector []float32, limit int) ([]models.SearchResult, error) {
	if len(queryVector) != s.dimension {
		return nil, &StoreError{
			Op:  "search",
			Err: fmt.Errorf("query vector dimension mismatch: got %d, want %d", len(queryVector), s.dimension),
		}
	}
	if limit <= 0 {
		return nil, &StoreError{Op: "search", Err: fmt.Errorf("invalid limit: %d", limit)}
	}

	// <#> は負の内積を返すため、昇順ソートが類似度降順に相当する
	query := fmt.Sprintf(
		`SELECT id, text, -(embedding <#> $1) AS score
		 FROM %s
		 ORDER BY embedding <#> $1
		 LIMIT $2`,
		s.tableName(),
	)

	rows, err := s.pool.Query(ctx, query, pgvector.NewVector(queryVector), limit)
	if err != nil {
		return nil, &StoreError{Op: "search", Err: err}
	}
	defer rows.Close()

	results := make([]models.SearchResult, 0, limit)
	for rows.Next() {
		var r models.SearchResult
		if err := rows.Scan(&r.ID, &r.Text, &r.Score); err != nil {
			return nil, &StoreError{Op: "search", Err: err}
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, &StoreError{Op: "search", Err: err}
	}

	return results, nil
}
