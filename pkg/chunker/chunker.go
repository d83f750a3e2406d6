// Package chunker はドキュメントをEmbedding向けの固定長チャンクに分割します
package chunker

import (
	"fmt"
	"strings"

	"github.com/hanamura/wellness-rag/pkg/models"
	"github.com/pkoukk/tiktoken-go"
)

const (
	// DefaultChunkSize はチャンクの最大長（文字数）
	DefaultChunkSize = 512

	// DefaultChunkOverlap は連続チャンク間で共有する文脈の長さ（文字数）
	DefaultChunkOverlap = 100
)

// defaultSeparators は分割に使うセパレータの優先順位リスト
// 段落 → 行 → 文 → 単語 → 文字の順に細かくする
var defaultSeparators = []string{"\n\n", "\n", ". ", " ", ""}

// Chunker はテキストをオーバーラップ付きの固定長チャンクに分割します
//
// アルゴリズムは決定的です: テキストに含まれる最も粗いセパレータで分割し、
// 長すぎる断片はより細かいセパレータで再帰的に分割したうえで、
// chunkSizeを超えない範囲で貪欲に結合します。チャンクの切れ目では
// 直前のチャンク末尾から最大overlap文字分の断片を持ち越します。
// どのセパレータにも一致しないテキストは文字単位の固定ストライド
// (chunkSize - overlap) で分割するため、出力チャンクがchunkSizeを
// 超えることはありません。
type Chunker struct {
	encoder *tiktoken.Tiktoken

	chunkSize  int
	overlap    int
	separators []string
}

// New は新しいChunkerを作成します
// overlapはchunkSizeより小さくなければなりません
func New(chunkSize, overlap int) (*Chunker, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be positive: %d", chunkSize)
	}
	if overlap < 0 || overlap >= chunkSize {
		return nil, fmt.Errorf("chunk overlap must be in [0, %d): %d", chunkSize, overlap)
	}

	// cl100k_baseエンコーダを使用（text-embedding-3-smallと互換）
	encoder, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return nil, fmt.Errorf("failed to get tiktoken encoder: %w", err)
	}

	return &Chunker{
		encoder:    encoder,
		chunkSize:  chunkSize,
		overlap:    overlap,
		separators: defaultSeparators,
	}, nil
}

// Split はテキストをチャンク列に分割します
// 空入力は空の列を返します
func (c *Chunker) Split(text string) []models.Chunk {
	parts := c.split(text, c.separators)

	chunks := make([]models.Chunk, 0, len(parts))
	for _, p := range parts {
		chunks = append(chunks, models.Chunk{
			Ordinal: len(chunks),
			Text:    p,
			Tokens:  c.CountTokens(p),
		})
	}
	return chunks
}

// CountTokens はテキストのトークン数を返します
func (c *Chunker) CountTokens(text string) int {
	return len(c.encoder.Encode(text, nil, nil))
}

// split はセパレータの優先順位リストに従って再帰的に分割します
func (c *Chunker) split(text string, separators []string) []string {
	if text == "" {
		return nil
	}
	if len(text) <= c.chunkSize {
		return []string{text}
	}

	// テキストに含まれる最初のセパレータを選ぶ
	sepIdx := len(separators)
	for i, sep := range separators {
		if sep == "" || strings.Contains(text, sep) {
			sepIdx = i
			break
		}
	}
	if sepIdx >= len(separators) || separators[sepIdx] == "" {
		// 最後の手段: 文字単位の固定ストライド分割
		return c.splitFixed(text)
	}

	sep := separators[sepIdx]
	rest := separators[sepIdx+1:]

	// セパレータを前の断片に残したまま分割する（チャンクが原文の部分文字列であり続ける）
	pieces := splitAfter(text, sep)

	units := make([]string, 0, len(pieces))
	for _, piece := range pieces {
		if len(piece) > c.chunkSize {
			units = append(units, c.split(piece, rest)...)
		} else {
			units = append(units, piece)
		}
	}

	return c.merge(units)
}

// splitFixed はセパレータのないテキストを固定ストライドで分割します
// 各チャンクはちょうどoverlap文字分、前のチャンクと重なります
func (c *Chunker) splitFixed(text string) []string {
	step := c.chunkSize - c.overlap

	var out []string
	for start := 0; ; start += step {
		end := start + c.chunkSize
		if end >= len(text) {
			out = append(out, text[start:])
			break
		}
		out = append(out, text[start:end])
	}
	return out
}

// merge は断片列をchunkSizeを超えない範囲で貪欲に結合します
// チャンク確定時には、合計がoverlap以下になるまで先頭の断片を落とし、
// 残りを次のチャンクへ持ち越します
func (c *Chunker) merge(units []string) []string {
	var chunks []string
	var current []string
	total := 0

	flush := func() {
		joined := strings.TrimSpace(strings.Join(current, ""))
		if joined != "" {
			chunks = append(chunks, joined)
		}
	}

	for _, u := range units {
		if total+len(u) > c.chunkSize && total > 0 {
			flush()
			// オーバーラップ分だけ残して先頭から落とす
			for len(current) > 0 && (total > c.overlap || total+len(u) > c.chunkSize) {
				total -= len(current[0])
				current = current[1:]
			}
		}
		current = append(current, u)
		total += len(u)
	}
	if total > 0 {
		flush()
	}

	return chunks
}

// splitAfter はセパレータを保持したまま分割し、空の断片を除去します
func splitAfter(text, sep string) []string {
	raw := strings.SplitAfter(text, sep)
	pieces := raw[:0]
	for _, p := range raw {
		if p != "" {
			pieces = append(pieces, p)
		}
	}
	return pieces
}
