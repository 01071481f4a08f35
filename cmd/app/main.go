// {{RIPER-5-Enhanced:
//   Action: "Added"
//   Task_ID: "Main Application Entry Point"
//   Timestamp: "2025-12-08T11:35:00Z"
//   Authoring_Role: "LD"
//   Analysis_Performed: "Analyzed Python main entry from main.py"
//   Principle_Applied: "Aether-Engineering-SOLID-S, Clean Architecture"
//   Quality_Check: "Graceful shutdown, signal handling, component initialization"
// }}

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"github.com/imhuimie/qa-harvest-go/internal/config"
	"github.com/imhuimie/qa-harvest-go/internal/emit"
	"github.com/imhuimie/qa-harvest-go/internal/pipeline"
	"github.com/imhuimie/qa-harvest-go/internal/server"
	"github.com/imhuimie/qa-harvest-go/internal/store"
)

func main() {
	// Setup logging
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp: true,
	})
	log.SetLevel(log.InfoLevel)

	log.Info("启动 QA-Harvest-Go...")

	// Load .env file first (before reading any environment variables)
	if err := godotenv.Load("data/.env"); err != nil {
		log.Warnf("无法加载 data/.env 文件: %v (将使用系统环境变量或默认值)", err)
	}

	// Load environment variables
	storeType := config.GetEnv("STORE_TYPE", "none")
	mongoHost := config.GetEnv("MONGO_HOST", "mongodb://localhost:27017/")
	sqlitePath := config.GetEnv("SQLITE_PATH", "data/qa_harvest.db")
	accessToken := config.GetEnv("ACCESS_TOKEN", "default_token")
	port := config.GetEnv("PORT", "5556")

	// Initialize configuration manager
	cfgMgr := config.NewManager("data/config.json")
	if err := cfgMgr.Load(); err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}
	cfg := cfgMgr.Get()

	// Connect to the optional record archive
	var connectionString string
	switch store.StoreType(storeType) {
	case store.TypeSQLite:
		connectionString = sqlitePath
		log.Infof("使用 SQLite 存档: %s", sqlitePath)
	case store.TypeMongoDB:
		connectionString = mongoHost
		log.Infof("使用 MongoDB 存档: %s", mongoHost)
	case store.TypeNone, "":
		log.Info("未配置记录存档，仅写入 JSONL 输出")
	default:
		log.Fatalf("不支持的存档类型: %s", storeType)
	}

	archive, err := store.NewStore(store.StoreType(storeType), connectionString)
	if err != nil {
		log.Fatalf("连接记录存档失败: %v", err)
	}
	if archive != nil {
		defer archive.Disconnect()
	}

	// Open the output log; replays existing lines to rebuild the dedup index
	emitter, err := emit.NewEmitter(cfg.OutputFile)
	if err != nil {
		log.Fatalf("打开输出日志失败: %v", err)
	}
	defer emitter.Close()
	log.Infof("输出日志 %s 已有 %d 条记录", cfg.OutputFile, emitter.Count())

	// Create the harvest pipeline
	p, err := pipeline.NewPipeline(cfgMgr, emitter, archive)
	if err != nil {
		log.Fatalf("创建采集管道失败: %v", err)
	}

	// Start harvesting in background
	p.Start()
	defer p.Stop()

	// Create and start web server
	srv := server.NewServer(cfgMgr, p, archive, accessToken, port)

	// Start server in goroutine
	go func() {
		if err := srv.Start(); err != nil {
			log.Fatalf("服务器启动失败: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("收到关闭信号，正在优雅关闭...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorf("服务器关闭错误: %v", err)
	}

	log.Info("应用已关闭")
}
