package commands

import (
	"context"

	"github.com/hanamura/wellness-rag/pkg/query"
	"github.com/hanamura/wellness-rag/pkg/server"
	"github.com/urfave/cli/v3"
)

// ServerStartAction はチャットAPIのHTTPサーバを起動します
func ServerStartAction(ctx context.Context, cmd *cli.Command) error {
	appCtx, err := NewAppContext(ctx, cmd.String("env"))
	if err != nil {
		return err
	}
	defer appCtx.Close()

	port := appCtx.Config.Server.Port
	if cmd.IsSet("port") {
		port = int(cmd.Int("port"))
	}

	pipeline := query.NewPipeline(
		appCtx.Embedder,
		appCtx.Store,
		appCtx.Generator,
		query.WithLogger(appCtx.Logger),
	)

	srv := server.New(pipeline, port, appCtx.Logger)
	return srv.Start(ctx)
}
