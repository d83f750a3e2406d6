package chunker

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestChunker(t *testing.T, size, overlap int) *Chunker {
	t.Helper()
	c, err := New(size, overlap)
	require.NoError(t, err)
	return c
}

func TestNew_Validation(t *testing.T) {
	_, err := New(0, 0)
	assert.Error(t, err)

	_, err = New(100, 100)
	assert.Error(t, err)

	_, err = New(100, -1)
	assert.Error(t, err)

	_, err = New(100, 99)
	assert.NoError(t, err)
}

func TestSplit_EmptyInput(t *testing.T) {
	c := newTestChunker(t, DefaultChunkSize, DefaultChunkOverlap)
	assert.Empty(t, c.Split(""))
}

func TestSplit_ShortTextIsSingleChunk(t *testing.T) {
	// chunkSize以下のテキストは入力そのものを1チャンクとして返すこと
	c := newTestChunker(t, DefaultChunkSize, DefaultChunkOverlap)

	text := "Cucumber reduces bloating. Stay hydrated."
	chunks := c.Split(text)

	require.Len(t, chunks, 1)
	assert.Equal(t, text, chunks[0].Text)
	assert.Equal(t, 0, chunks[0].Ordinal)
	assert.Positive(t, chunks[0].Tokens)
}

func TestSplit_FixedStrideBoundary(t *testing.T) {
	// セパレータを含まない1500文字をchunkSize=512/overlap=100で分割すると
	// ストライド412でちょうど4チャンクになる
	c := newTestChunker(t, 512, 100)

	text := strings.Repeat("a", 1500)
	chunks := c.Split(text)

	require.Len(t, chunks, 4)
	for _, chunk := range chunks {
		assert.LessOrEqual(t, len(chunk.Text), 512)
	}

	// 連続するチャンクはちょうどoverlap文字分重なること
	for i := 1; i < len(chunks); i++ {
		prev := chunks[i-1].Text
		assert.Equal(t, prev[len(prev)-100:], chunks[i].Text[:100])
	}
}

func TestSplit_ExactMultipleHasNoEmptyTail(t *testing.T) {
	// ストライド境界ちょうどの長さでも空チャンクを出さないこと
	c := newTestChunker(t, 512, 100)

	// 512 + 412 = 924: 2チャンクで割り切れる長さ
	chunks := c.Split(strings.Repeat("b", 924))

	require.Len(t, chunks, 2)
	assert.Len(t, chunks[0].Text, 512)
	assert.Len(t, chunks[1].Text, 512)
}

func TestSplit_PrefersParagraphBoundaries(t *testing.T) {
	c := newTestChunker(t, 50, 10)

	para1 := strings.Repeat("x", 30)
	para2 := strings.Repeat("y", 30)
	text := para1 + "\n\n" + para2

	chunks := c.Split(text)

	// 各段落がchunkSizeに収まるため、段落境界で分かれること
	require.Len(t, chunks, 2)
	assert.Equal(t, para1, chunks[0].Text)
	assert.Equal(t, para2, chunks[1].Text)
}

func TestSplit_Properties(t *testing.T) {
	// ランダムなテキストに対する性質検査:
	//  - 各チャンクはchunkSize以下
	//  - 各チャンクは原文の部分文字列（原文にない内容を作らない）
	//  - チャンクの出現位置は単調に進む
	const (
		size    = 50
		overlap = 10
	)
	c := newTestChunker(t, size, overlap)

	rng := rand.New(rand.NewSource(1))
	alphabet := []rune("abcdefghij .\n")

	for trial := 0; trial < 50; trial++ {
		length := rng.Intn(2000)
		var sb strings.Builder
		for i := 0; i < length; i++ {
			sb.WriteRune(alphabet[rng.Intn(len(alphabet))])
		}
		text := sb.String()

		chunks := c.Split(text)

		if strings.TrimSpace(text) == "" {
			continue
		}
		require.NotEmpty(t, chunks, "non-blank input must produce chunks")

		searchFrom := 0
		for _, chunk := range chunks {
			assert.LessOrEqual(t, len(chunk.Text), size)
			assert.NotEmpty(t, chunk.Text)

			idx := strings.Index(text[searchFrom:], chunk.Text)
			require.GreaterOrEqual(t, idx, 0, "chunk must be a substring of the input")

			// 次のチャンクは前のチャンクの開始位置より後ろから始まる
			searchFrom += idx + 1
		}
	}
}

func TestCountTokens(t *testing.T) {
	c := newTestChunker(t, DefaultChunkSize, DefaultChunkOverlap)

	assert.Equal(t, 0, c.CountTokens(""))
	assert.Positive(t, c.CountTokens("hormone health for longevity"))
}
