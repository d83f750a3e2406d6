package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hanamura/wellness-rag/cmd/wellness-rag/commands"
	"github.com/urfave/cli/v3"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 構造化ログの設定（各コマンドで設定読み込み後に上書きされる）
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	app := &cli.Command{
		Name:  "wellness-rag",
		Usage: "女性の健康ナレッジベース向け RAG チャットサービス",
		Commands: []*cli.Command{
			{
				Name:  "collection",
				Usage: "ベクトルコレクション管理コマンド",
				Commands: []*cli.Command{
					{
						Name:  "create",
						Usage: "ベクトルコレクションを作成（冪等）",
						Flags: []cli.Flag{
							&cli.StringFlag{
								Name:  "env",
								Usage: "環境変数ファイルパス",
								Value: ".env",
							},
						},
						Action: commands.CollectionCreateAction,
					},
				},
			},
			{
				Name:  "ingest",
				Usage: "ナレッジベース取り込みコマンド",
				Commands: []*cli.Command{
					{
						Name:  "run",
						Usage: "固定のソースURLリストを取り込む（ワンショットバッチ）",
						Flags: []cli.Flag{
							&cli.StringFlag{
								Name:  "env",
								Usage: "環境変数ファイルパス",
								Value: ".env",
							},
						},
						Action: commands.IngestRunAction,
					},
				},
			},
			{
				Name:  "server",
				Usage: "サーバ関連コマンド",
				Commands: []*cli.Command{
					{
						Name:  "start",
						Usage: "チャットAPIのHTTPサーバを起動",
						Flags: []cli.Flag{
							&cli.StringFlag{
								Name:  "env",
								Usage: "環境変数ファイルパス",
								Value: ".env",
							},
							&cli.IntFlag{
								Name:  "port",
								Usage: "HTTPポート（省略時は環境変数またはデフォルトの8080）",
							},
						},
						Action: commands.ServerStartAction,
					},
				},
			},
		},
	}

	if err := app.Run(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}
