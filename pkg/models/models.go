package models

import (
	"time"

	"github.com/google/uuid"
)

// メッセージロールの定義
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message は会話履歴の1メッセージを表します
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// SourceDocument はインジェスト対象のソースを表します
// 派生したチャンクが永続化された後は保持されません
type SourceDocument struct {
	URL string `json:"url"`
}

// Chunk はドキュメントを分割したチャンクを表します
type Chunk struct {
	Ordinal int    `json:"ordinal"`
	Text    string `json:"text"`
	Tokens  int    `json:"tokens"`
}

// StoredRecord はベクトルコレクションに永続化されるレコードを表します
// 作成後は不変で、更新・削除の経路はありません
type StoredRecord struct {
	ID        uuid.UUID `json:"id"`
	Embedding []float32 `json:"embedding"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

// SearchResult は類似度検索の結果1件を表します
type SearchResult struct {
	ID    uuid.UUID `json:"id"`
	Text  string    `json:"text"`
	Score float64   `json:"score"`
}
