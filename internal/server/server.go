// {{RIPER-5-Enhanced:
//   Action: "Added"
//   Task_ID: "Admin API Implementation"
//   Timestamp: "2025-12-08T11:20:00Z"
//   Authoring_Role: "LD"
//   Analysis_Performed: "Analyzed CLI entry in main.py for runtime introspection needs"
//   Principle_Applied: "Aether-Engineering-SOLID-S, RESTful API"
//   Quality_Check: "Gin framework with authentication middleware"
// }}

package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/imhuimie/qa-harvest-go/internal/config"
	"github.com/imhuimie/qa-harvest-go/internal/notifier"
	"github.com/imhuimie/qa-harvest-go/internal/pipeline"
	"github.com/imhuimie/qa-harvest-go/internal/store"
)

// Server exposes the admin API for the harvest pipeline
type Server struct {
	engine      *gin.Engine
	server      *http.Server
	configMgr   *config.Manager
	pipeline    *pipeline.Pipeline
	archive     store.Store
	accessToken string
	startedAt   time.Time
}

// NewServer creates a new admin API server. archive may be nil.
func NewServer(configMgr *config.Manager, p *pipeline.Pipeline, archive store.Store, accessToken string, port string) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(LoggerMiddleware())

	s := &Server{
		engine:      engine,
		configMgr:   configMgr,
		pipeline:    p,
		archive:     archive,
		accessToken: accessToken,
		startedAt:   time.Now(),
	}

	// Setup routes
	s.setupRoutes()

	// Create HTTP server
	s.server = &http.Server{
		Addr:           ":" + port,
		Handler:        engine,
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   30 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	return s
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	api := s.engine.Group("/api")
	{
		// Health check (no auth required)
		api.GET("/health", s.handleHealth)

		// Introspection and config endpoints (auth required)
		api.GET("/stats", s.authMiddleware(), s.handleStats)
		api.GET("/records/recent", s.authMiddleware(), s.handleRecentRecords)
		api.GET("/skips", s.authMiddleware(), s.handleSkipCounts)
		api.GET("/config", s.authMiddleware(), s.handleGetConfig)
		api.POST("/config", s.authMiddleware(), s.handleUpdateConfig)
		api.POST("/test-notify", s.authMiddleware(), s.handleTestNotify)
	}
}

// Start starts the web server
func (s *Server) Start() error {
	log.Infof("Web 服务器启动于 %s", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("服务器启动失败: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	log.Info("关闭 Web 服务器...")
	return s.server.Shutdown(ctx)
}

// handleHealth returns health status
func (s *Server) handleHealth(c *gin.Context) {
	archiveState := "disabled"
	if s.archive != nil {
		archiveState = "connected"
		if err := s.archive.Ping(); err != nil {
			archiveState = "unreachable"
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"archive":  archiveState,
		"pipeline": pipelineStatus(s.pipeline),
		"uptime":   time.Since(s.startedAt).String(),
	})
}

// handleStats returns the current run counters and output log size
func (s *Server) handleStats(c *gin.Context) {
	view := s.pipeline.Stats()

	c.JSON(http.StatusOK, gin.H{
		"run_id":        view.RunID,
		"started_at":    view.StartedAt,
		"processed":     view.Processed,
		"emitted":       view.Emitted,
		"skipped":       view.Skipped,
		"skip_stages":   view.SkipStage,
		"emitted_total": s.pipeline.EmittedTotal(),
	})
}

// handleRecentRecords returns the latest archived records
func (s *Server) handleRecentRecords(c *gin.Context) {
	if s.archive == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "error",
			"message": "未配置记录存档",
		})
		return
	}

	records, err := s.archive.RecentRecords(50)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"status":  "error",
			"message": fmt.Sprintf("查询存档失败: %v", err),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"count":   len(records),
		"records": records,
	})
}

// handleSkipCounts returns the per-stage skip breakdown from the audit trail
func (s *Server) handleSkipCounts(c *gin.Context) {
	if s.archive == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "error",
			"message": "未配置记录存档",
		})
		return
	}

	runID := c.Query("run_id")
	if runID == "" {
		runID = s.pipeline.Stats().RunID
	}

	counts, err := s.archive.SkipCounts(runID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"status":  "error",
			"message": fmt.Sprintf("查询跳过审计失败: %v", err),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"run_id": runID, "skips": counts})
}

// handleGetConfig returns the current configuration
func (s *Server) handleGetConfig(c *gin.Context) {
	cfg := s.configMgr.Get()
	if cfg == nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "配置未加载",
		})
		return
	}

	c.JSON(http.StatusOK, cfg)
}

// handleUpdateConfig updates the configuration
func (s *Server) handleUpdateConfig(c *gin.Context) {
	var requestBody struct {
		Config *config.Config `json:"config"`
	}

	if err := c.ShouldBindJSON(&requestBody); err != nil {
		log.Warnf("解析请求JSON失败: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"message": fmt.Sprintf("无效的请求数据: %v", err),
		})
		return
	}

	if requestBody.Config == nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"message": "缺少 config 字段",
		})
		return
	}

	// Validate configuration
	if err := requestBody.Config.Validate(); err != nil {
		log.Warnf("配置验证失败: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"message": fmt.Sprintf("配置验证失败: %v", err),
		})
		return
	}

	// Save configuration
	if err := s.configMgr.Save(requestBody.Config); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"status":  "error",
			"message": fmt.Sprintf("保存配置失败: %v", err),
		})
		return
	}

	// Reload pipeline configuration
	if err := s.pipeline.Reload(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"status":  "error",
			"message": fmt.Sprintf("重新加载配置失败: %v", err),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "Config updated",
	})
}

// handleTestNotify sends a test message through the configured notifier
func (s *Server) handleTestNotify(c *gin.Context) {
	cfg := s.configMgr.Get()
	if cfg == nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"status":  "error",
			"message": "配置未加载",
		})
		return
	}

	ntf, err := notifier.NewNotifier(cfg)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"message": fmt.Sprintf("创建通知器失败: %v", err),
		})
		return
	}

	testMessage := "🔔 这是来自 QA-Harvest-Go 的测试消息\n\n如果您收到此消息，说明通知配置正确！"
	if err := ntf.Send(testMessage); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"status":  "error",
			"message": fmt.Sprintf("发送测试消息失败: %v", err),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "测试消息发送成功",
	})
}

// authMiddleware checks for valid access token
func (s *Server) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader("Authorization")
		expectedToken := "Bearer " + s.accessToken

		if token != expectedToken {
			c.JSON(http.StatusUnauthorized, gin.H{
				"status":  "error",
				"message": "Unauthorized",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// LoggerMiddleware logs HTTP requests
func LoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		clientIP := c.ClientIP()
		method := c.Request.Method
		statusCode := c.Writer.Status()

		if raw != "" {
			path = path + "?" + raw
		}

		log.Infof("[HTTP] %s %s %d %v %s",
			method,
			path,
			statusCode,
			latency,
			clientIP,
		)
	}
}

// pipelineStatus returns the pipeline run state
func pipelineStatus(p *pipeline.Pipeline) string {
	if p.IsRunning() {
		return "running"
	}
	return "stopped"
}
