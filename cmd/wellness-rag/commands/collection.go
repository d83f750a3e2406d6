package commands

import (
	"context"
	"log/slog"

	"github.com/urfave/cli/v3"
)

// CollectionCreateAction はベクトルコレクションを冪等に作成します
// 既存コレクションの次元が設定と一致しない場合はエラーになります
func CollectionCreateAction(ctx context.Context, cmd *cli.Command) error {
	appCtx, err := NewAppContext(ctx, cmd.String("env"))
	if err != nil {
		return err
	}
	defer appCtx.Close()

	if err := appCtx.Store.EnsureCollection(ctx); err != nil {
		return err
	}

	appCtx.Logger.Info("vector collection ready",
		slog.String("schema", appCtx.Config.Vector.Schema),
		slog.String("collection", appCtx.Config.Vector.Collection),
		slog.Int("dimension", appCtx.Config.OpenAI.EmbeddingDimension),
	)

	return nil
}
