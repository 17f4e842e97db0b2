package main

import (
	"github.com/gin-gonic/gin"

	"github.com/LJTian/FeedHub/internal/api"
	"github.com/LJTian/FeedHub/internal/config"
	"github.com/LJTian/FeedHub/internal/ingest"
	"github.com/LJTian/FeedHub/internal/logx"
	"github.com/LJTian/FeedHub/internal/storage"
)

func main() {
	cfg := config.Load()
	logx.Init(cfg.LogLevel, cfg.Debug)
	defer func() { _ = logx.Logger.Sync() }()

	store, err := storage.NewStore(cfg.DBDriver, cfg.DSN(), cfg.RedisAddr)
	if err != nil {
		logx.Logger.Fatalf("init store failed: %v", err)
	}
	defer store.Close()

	ingestor := ingest.New(store,
		ingest.WithDefaultCategory(cfg.DefaultCategory, cfg.DefaultCategorySlug),
		ingest.WithLogger(logx.Logger.Named("ingest")),
	)

	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), api.RequestLogger())
	// 若配置了全局访问密码，则启用 Basic Auth 保护（/health 仍然免认证）
	if cfg.BasicAuthUser != "" && cfg.BasicAuthPass != "" {
		r.Use(api.BasicAuthMiddleware(cfg.BasicAuthUser, cfg.BasicAuthPass))
	}

	api.NewServer(store, ingestor).RegisterRoutes(r)

	addr := ":" + cfg.AppPort
	logx.Logger.Infof("starting api server at %s ...", addr)
	if err := r.Run(addr); err != nil {
		logx.Logger.Fatalf("server exit: %v", err)
	}
}
