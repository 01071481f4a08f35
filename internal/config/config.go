// {{RIPER-5-Enhanced:
//   Action: "Added"
//   Task_ID: "Config Module Implementation"
//   Timestamp: "2025-12-08T09:40:00Z"
//   Authoring_Role: "LD"
//   Analysis_Performed: "Analyzed Python config loading from config.py and scraper entry points"
//   Principle_Applied: "Aether-Engineering-SOLID-S, DRY"
//   Quality_Check: "Configuration validation and hot-reload support implemented"
// }}

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	log "github.com/sirupsen/logrus"
)

// Config represents the application configuration
type Config struct {
	// Frontier sources
	FeedURLs        []string `json:"feed_urls"`
	SearchBaseURL   string   `json:"search_base_url"`
	BroadKeywords   []string `json:"broad_keywords"`
	FeatureKeywords []string `json:"feature_keywords"`
	PostsPerKeyword int      `json:"posts_per_keyword"`
	ExtraURLs       []string `json:"extra_urls"`
	OnlyExtra       bool     `json:"only_extra"`

	// Pipeline
	Platform      string `json:"platform"`
	OutputFile    string `json:"output_file"`
	DelaySeconds  int    `json:"delay_seconds"` // minimum delay between fetches
	Frequency     int    `json:"frequency"`     // seconds between passes
	MaxRetries    int    `json:"max_retries"`
	BackoffSecond int    `json:"backoff_seconds"`
	RecordLimit   int    `json:"record_limit"` // max records per pass, 0 = unlimited

	// Normalizer
	MinWords       int `json:"min_words"`
	MinQuestionLen int `json:"min_question_len"`
	MinAnswerLen   int `json:"min_answer_len"`

	// Solution identification
	MinUpvotes             int      `json:"min_upvotes"`
	MinAckScore            int      `json:"min_ack_score"`
	StaffKeywords          []string `json:"staff_keywords"`
	ReferenceDocsFile      string   `json:"reference_docs_file"`
	SimilarityThreshold    float64  `json:"similarity_threshold"`
	AllowReferenceOverride bool     `json:"allow_reference_override"`

	// Topic lookup
	// Rule format per topic: "keyword1+keyword2,keyword3" => (kw1 AND kw2) OR kw3
	TopicRules map[string]string `json:"topic_rules"`

	// Notification
	NotifySummary bool   `json:"notify_summary"`
	NotifyRecords bool   `json:"notify_records"`
	NoticeType    string `json:"notice_type"` // "telegram", "wechat", "custom"
	TelegramBot   string `json:"telegrambot"`
	ChatID        string `json:"chat_id"`
	WeChatKey     string `json:"wechat_key"`
	CustomURL     string `json:"custom_url"`
}

// ConfigWrapper wraps the config with a "config" key
type ConfigWrapper struct {
	Config *Config `json:"config"`
}

// Manager handles configuration loading and reloading
type Manager struct {
	configPath string
	config     *Config
	mu         sync.RWMutex
}

// NewManager creates a new configuration manager
func NewManager(configPath string) *Manager {
	return &Manager{
		configPath: configPath,
	}
}

// Load loads configuration from file
func (m *Manager) Load() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Check if config file exists, if not copy from example
	if _, err := os.Stat(m.configPath); os.IsNotExist(err) {
		log.Infof("配置文件不存在，从 config.example.json 复制")
		if err := copyFile("config.example.json", m.configPath); err != nil {
			return fmt.Errorf("无法创建配置文件: %w", err)
		}
	}

	// Read config file
	data, err := os.ReadFile(m.configPath)
	if err != nil {
		return fmt.Errorf("无法读取配置文件: %w", err)
	}

	// Parse JSON
	var wrapper ConfigWrapper
	if err := json.Unmarshal(data, &wrapper); err != nil {
		return fmt.Errorf("无法解析配置文件: %w", err)
	}

	if wrapper.Config == nil {
		return fmt.Errorf("配置文件格式错误: 缺少 'config' 键")
	}

	m.config = wrapper.Config
	m.config.applyDefaults()

	log.Info("配置文件加载成功")
	return nil
}

// applyDefaults sets default values for unset fields
func (cfg *Config) applyDefaults() {
	if cfg.Platform == "" {
		cfg.Platform = "reddit"
	}
	if cfg.OutputFile == "" {
		cfg.OutputFile = "data/community_qa.jsonl"
	}
	if cfg.DelaySeconds == 0 {
		cfg.DelaySeconds = 3
	}
	if cfg.Frequency == 0 {
		cfg.Frequency = 3600
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.BackoffSecond == 0 {
		cfg.BackoffSecond = 5
	}
	if cfg.PostsPerKeyword == 0 {
		cfg.PostsPerKeyword = 30
	}
	if cfg.MinWords == 0 {
		cfg.MinWords = 3
	}
	if cfg.MinQuestionLen == 0 {
		cfg.MinQuestionLen = 20
	}
	if cfg.MinAnswerLen == 0 {
		cfg.MinAnswerLen = 50
	}
	if cfg.MinUpvotes == 0 {
		cfg.MinUpvotes = 5
	}
	if cfg.MinAckScore == 0 {
		cfg.MinAckScore = 2
	}
	if cfg.SimilarityThreshold == 0 {
		cfg.SimilarityThreshold = 0.3
	}
	if len(cfg.StaffKeywords) == 0 {
		cfg.StaffKeywords = []string{"shopify", "mod", "support"}
	}
	if cfg.NoticeType == "" {
		cfg.NoticeType = "telegram"
	}
}

// Save saves configuration to file
func (m *Manager) Save(cfg *Config) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	wrapper := ConfigWrapper{Config: cfg}
	data, err := json.MarshalIndent(wrapper, "", "    ")
	if err != nil {
		return fmt.Errorf("无法序列化配置: %w", err)
	}

	if err := os.WriteFile(m.configPath, data, 0644); err != nil {
		return fmt.Errorf("无法保存配置文件: %w", err)
	}

	m.config = cfg
	log.Info("配置文件保存成功")
	return nil
}

// Get returns a copy of the current configuration
func (m *Manager) Get() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.config == nil {
		return nil
	}

	// Return a copy to prevent external modifications
	configCopy := *m.config
	return &configCopy
}

// Reload reloads the configuration from file
func (m *Manager) Reload() error {
	log.Info("重新加载配置...")
	return m.Load()
}

// Validate validates the configuration
func (cfg *Config) Validate() error {
	if cfg.DelaySeconds < 1 {
		return fmt.Errorf("delay_seconds 必须至少为 1 秒")
	}

	if cfg.Frequency < 60 {
		return fmt.Errorf("frequency 必须至少为 60 秒")
	}

	if cfg.OutputFile == "" {
		return fmt.Errorf("output_file 不能为空")
	}

	if cfg.SimilarityThreshold <= 0 || cfg.SimilarityThreshold > 1 {
		return fmt.Errorf("similarity_threshold 必须在 (0, 1] 范围内")
	}

	if !cfg.OnlyExtra && len(cfg.FeedURLs) == 0 && len(cfg.BroadKeywords) == 0 &&
		len(cfg.FeatureKeywords) == 0 && len(cfg.ExtraURLs) == 0 {
		return fmt.Errorf("未配置任何来源: 需要 feed_urls、keywords 或 extra_urls")
	}

	if (len(cfg.BroadKeywords) > 0 || len(cfg.FeatureKeywords) > 0) && cfg.SearchBaseURL == "" {
		return fmt.Errorf("配置了关键词但缺少 search_base_url")
	}

	// Validate notification settings only when any notification is enabled
	if cfg.NotifySummary || cfg.NotifyRecords {
		switch cfg.NoticeType {
		case "telegram":
			if cfg.TelegramBot == "" || cfg.ChatID == "" {
				return fmt.Errorf("Telegram 配置不完整: 需要 telegrambot 和 chat_id")
			}
		case "wechat":
			if cfg.WeChatKey == "" {
				return fmt.Errorf("微信配置不完整: 需要 wechat_key")
			}
		case "custom":
			if cfg.CustomURL == "" {
				return fmt.Errorf("自定义通知配置不完整: 需要 custom_url")
			}
		default:
			return fmt.Errorf("notice_type 必须是 'telegram', 'wechat' 或 'custom'")
		}
	}

	return nil
}

// Keywords returns the combined search keyword list, broad keywords first
func (cfg *Config) Keywords() []string {
	out := make([]string, 0, len(cfg.BroadKeywords)+len(cfg.FeatureKeywords))
	out = append(out, cfg.BroadKeywords...)
	out = append(out, cfg.FeatureKeywords...)
	return out
}

// copyFile copies a file from src to dst
func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0644)
}

// GetEnv retrieves environment variable or returns default value
func GetEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
