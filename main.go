package main

import (
	"flag"
	"log"
	"path/filepath"

	"unimind_backend/internal/app"
	"unimind_backend/internal/config"
	"unimind_backend/pkg/configwatcher"
	"unimind_backend/pkg/logger"

	"go.uber.org/zap"
)

func main() {
	// 命令行参数
	configDir := flag.String("config", "configs", "配置文件目录（包含 config.yaml）")
	migrateOnly := flag.Bool("migrate-only", false, "只执行数据库迁移，完成后退出")
	seed := flag.Bool("seed", false, "写入示例课程、知识点和题目")
	flag.Parse()

	cfg, err := config.LoadConfig(*configDir)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	cfg.MigrateOnly = *migrateOnly
	cfg.Seed = *seed

	application := app.NewApp(cfg)
	defer logger.Log.Sync()

	// 迁移完成后直接退出
	if *migrateOnly {
		logger.Log.Info("数据库迁移完成，退出程序")
		return
	}

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		path := filepath.Join(*configDir, "config.yaml")
		if err := configwatcher.WatchConfig(path, stop, application.ApplyConfig); err != nil {
			logger.Log.Warn("Config hot reload disabled", zap.Error(err))
		}
	}()

	application.Run()
}
