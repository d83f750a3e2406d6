// Package ingest はソースURLをスクレイプし、チャンク化してベクトルストアへ取り込みます
package ingest

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hanamura/wellness-rag/pkg/models"
	"github.com/hanamura/wellness-rag/pkg/retry"
)

// PageScraper はURLから本文テキストを取得するインターフェース
type PageScraper interface {
	Scrape(ctx context.Context, url string) (string, error)
}

// Splitter はテキストをチャンクに分割するインターフェース
type Splitter interface {
	Split(text string) []models.Chunk
}

// Embedder はテキストをベクトルに変換するインターフェース
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// RecordInserter はベクトルコレクションへの追記インターフェース
type RecordInserter interface {
	Insert(ctx context.Context, embedding []float32, text string) (models.StoredRecord, error)
}

// Report は1つのソースURLの処理結果を表します
type Report struct {
	URL    string
	Chunks int // 永続化まで完了したチャンク数
	Err    error
}

// Failed はこのURLの処理が失敗していたかどうかを返します
func (r Report) Failed() bool {
	return r.Err != nil
}

// Ingestor はソースURLを1件ずつ順番に処理するバッチインジェスタです
//
// URL内のチャンクも厳密に直列に処理します。1チャンクのembed→insertは
// インジェスタから見て不可分で、ベクトルが永続化されるまでそのチャンクは
// 処理済みに数えられません。スループットよりも単純さとプロバイダの
// レート制限を優先した設計です。
type Ingestor struct {
	scraper     PageScraper
	splitter    Splitter
	embedder    Embedder
	store       RecordInserter
	retryPolicy retry.Policy
	logger      *slog.Logger
}

// NewIngestor は新しいIngestorを作成します
func NewIngestor(scraper PageScraper, splitter Splitter, embedder Embedder, store RecordInserter, logger *slog.Logger) *Ingestor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ingestor{
		scraper:     scraper,
		splitter:    splitter,
		embedder:    embedder,
		store:       store,
		retryPolicy: retry.DefaultPolicy(),
		logger:      logger,
	}
}

// SetRetryPolicy はEmbedding呼び出しのリトライポリシーを差し替えます
func (ing *Ingestor) SetRetryPolicy(policy retry.Policy) {
	ing.retryPolicy = policy
}

// Run はソースリストを順番に処理し、ソースごとの結果レポートを返します
// 1つのソースの失敗はバッチ全体を中断せず、記録したうえで次のソースへ進みます
func (ing *Ingestor) Run(ctx context.Context, sources []models.SourceDocument) []Report {
	reports := make([]Report, 0, len(sources))

	for _, src := range sources {
		report := ing.processSource(ctx, src)
		if report.Failed() {
			ing.logger.Warn("source ingestion failed",
				slog.String("url", src.URL),
				slog.Int("chunksStored", report.Chunks),
				slog.String("error", report.Err.Error()),
			)
		} else {
			ing.logger.Info("source ingested",
				slog.String("url", src.URL),
				slog.Int("chunksStored", report.Chunks),
			)
		}
		reports = append(reports, report)
	}

	return reports
}

// processSource は1つのソースをスクレイプ、チャンク化、埋め込み、永続化まで処理します
func (ing *Ingestor) processSource(ctx context.Context, src models.SourceDocument) Report {
	url := src.URL
	report := Report{URL: url}

	content, err := ing.scraper.Scrape(ctx, url)
	if err != nil {
		report.Err = err
		return report
	}

	chunks := ing.splitter.Split(content)
	if len(chunks) == 0 {
		ing.logger.Warn("source produced no chunks", slog.String("url", url))
		return report
	}

	for _, chunk := range chunks {
		// Embedding呼び出しはリトライで保護する
		embedding, err := retry.Do(ctx, ing.retryPolicy, func(ctx context.Context) ([]float32, error) {
			return ing.embedder.Embed(ctx, chunk.Text)
		})
		if err != nil {
			report.Err = fmt.Errorf("failed to embed chunk %d: %w", chunk.Ordinal, err)
			return report
		}

		// 挿入の失敗はこのURLに対して致命的（書き込みはデグレードしない）
		rec, err := ing.store.Insert(ctx, embedding, chunk.Text)
		if err != nil {
			report.Err = fmt.Errorf("failed to store chunk %d: %w", chunk.Ordinal, err)
			return report
		}

		report.Chunks++
		ing.logger.Debug("chunk stored",
			slog.String("url", url),
			slog.String("recordID", rec.ID.String()),
			slog.Int("ordinal", chunk.Ordinal),
			slog.Int("tokens", chunk.Tokens),
		)
	}

	return report
}
