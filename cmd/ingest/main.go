package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/LJTian/FeedHub/internal/config"
	"github.com/LJTian/FeedHub/internal/feed"
	"github.com/LJTian/FeedHub/internal/ingest"
	"github.com/LJTian/FeedHub/internal/logx"
	"github.com/LJTian/FeedHub/internal/storage"
)

// 一个只执行一次导入的命令行入口：读取本地 feed 文件并逐条入库
func main() {
	app := &cli.App{
		Name:  "feedhub-ingest",
		Usage: "Ingest local RSS/Atom files into the FeedHub database",
		Description: `Database and logging settings are read from the environment
		(or a .env file), e.g. DB_DRIVER, POSTGRES_DSN, SQLITE_PATH, LOG_LEVEL.`,
		Commands: []*cli.Command{
			runCmd(),
			migrateCmd(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func openStore() (*config.Config, *storage.Store, error) {
	cfg := config.Load()
	logx.Init(cfg.LogLevel, cfg.Debug)

	// 导入只写数据库，不需要 Redis
	store, err := storage.NewStore(cfg.DBDriver, cfg.DSN(), "")
	if err != nil {
		return nil, nil, fmt.Errorf("init store failed: %w", err)
	}
	return cfg, store, nil
}

func migrateCmd() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Create or update the database tables",
		Action: func(ctx *cli.Context) error {
			_, store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			logx.Logger.Info("database migrated")
			return nil
		},
	}
}

func runCmd() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Ingest feed files",
		Description: `Either pass --source with one or more --file flags, or a
		--manifest TOML file listing [[feeds]] entries with source_url and path.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "source",
				Aliases: []string{"s"},
				Usage:   "Source URL the feed files were fetched from",
				EnvVars: []string{"FEEDHUB_SOURCE"},
			},
			&cli.StringSliceFlag{
				Name:    "file",
				Aliases: []string{"f"},
				Usage:   "Local RSS/Atom file, may be repeated",
			},
			&cli.StringFlag{
				Name:    "manifest",
				Aliases: []string{"m"},
				Usage:   "TOML manifest of feeds to ingest",
				EnvVars: []string{"FEEDHUB_MANIFEST"},
			},
		},
		Action: func(ctx *cli.Context) error {
			feeds, err := feedsFromFlags(ctx)
			if err != nil {
				return err
			}

			cfg, store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			// 每次运行一个 Ingestor，缓存只在本次运行内有效
			in := ingest.New(store,
				ingest.WithDefaultCategory(cfg.DefaultCategory, cfg.DefaultCategorySlug),
				ingest.WithLogger(logx.Logger.Named("ingest")),
			)

			total := ingest.Summary{}
			for _, f := range feeds {
				items, err := feed.LoadFile(f.Path)
				if err != nil {
					logx.Logger.Errorw("skip feed file", "path", f.Path, "error", err)
					continue
				}

				sum, err := in.IngestAll(ctx.Context, items, f.SourceURL)
				for outcome, n := range sum {
					total[outcome] += n
				}
				if err != nil {
					return fmt.Errorf("ingest %s: %w", f.Path, err)
				}
				logx.Logger.Infow("feed file done", "path", f.Path, "source", f.SourceURL, "items", len(items),
					"created", sum[ingest.OutcomeCreated], "existing", sum[ingest.OutcomeExisting])
			}

			logx.Logger.Infow("ingest done",
				"total", total.Total(),
				"created", total[ingest.OutcomeCreated],
				"existing", total[ingest.OutcomeExisting],
				"invalid", total[ingest.OutcomeInvalid],
				"failed", total[ingest.OutcomeFailed],
			)
			return nil
		},
	}
}

func feedsFromFlags(ctx *cli.Context) ([]config.ManifestFeed, error) {
	if path := ctx.String("manifest"); path != "" {
		m, err := config.LoadManifest(path)
		if err != nil {
			return nil, err
		}
		return m.Feeds, nil
	}

	source := ctx.String("source")
	files := ctx.StringSlice("file")
	if source == "" || len(files) == 0 {
		return nil, errors.New("either --manifest or --source with at least one --file is required")
	}

	feeds := make([]config.ManifestFeed, 0, len(files))
	for _, path := range files {
		feeds = append(feeds, config.ManifestFeed{SourceURL: source, Path: path})
	}
	return feeds, nil
}
