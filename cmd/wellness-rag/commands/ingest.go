package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hanamura/wellness-rag/pkg/chunker"
	"github.com/hanamura/wellness-rag/pkg/ingest"
	"github.com/hanamura/wellness-rag/pkg/lock"
	"github.com/urfave/cli/v3"
)

// IngestRunAction はワンショットのインジェストバッチを実行します
// コレクションを用意したうえで、固定のURLリストを順番に処理します
func IngestRunAction(ctx context.Context, cmd *cli.Command) error {
	appCtx, err := NewAppContext(ctx, cmd.String("env"))
	if err != nil {
		return err
	}
	defer appCtx.Close()

	// 同じコレクションへの多重実行を防ぐ
	ingestLock, err := lock.AcquireIngest(ctx, appCtx.Database.Pool, appCtx.Config.Vector.Schema, appCtx.Config.Vector.Collection)
	if err != nil {
		return fmt.Errorf("インジェストロックの取得に失敗: %w", err)
	}
	defer func() {
		if releaseErr := ingestLock.Release(context.WithoutCancel(ctx)); releaseErr != nil {
			appCtx.Logger.Warn("failed to release ingest lock", slog.String("error", releaseErr.Error()))
		}
	}()

	if err := appCtx.Store.EnsureCollection(ctx); err != nil {
		return err
	}

	splitter, err := chunker.New(appCtx.Config.Ingest.ChunkSize, appCtx.Config.Ingest.ChunkOverlap)
	if err != nil {
		return fmt.Errorf("チャンカーの初期化に失敗: %w", err)
	}

	scraper := ingest.NewScraper(appCtx.Config.Ingest.ScrapeTimeout)
	ingestor := ingest.NewIngestor(scraper, splitter, appCtx.Embedder, appCtx.Store, appCtx.Logger)

	reports := ingestor.Run(ctx, ingest.DefaultSources)

	// 失敗はレポートに集約されているため、ここでは集計だけ行う
	var succeeded, failed, chunks int
	for _, r := range reports {
		chunks += r.Chunks
		if r.Failed() {
			failed++
		} else {
			succeeded++
		}
	}

	appCtx.Logger.Info("ingest batch finished",
		slog.Int("sourcesSucceeded", succeeded),
		slog.Int("sourcesFailed", failed),
		slog.Int("chunksStored", chunks),
	)

	if succeeded == 0 && failed > 0 {
		return fmt.Errorf("all %d sources failed to ingest", failed)
	}

	return nil
}
