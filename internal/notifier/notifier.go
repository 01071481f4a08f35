// {{RIPER-5-Enhanced:
//   Action: "Added"
//   Task_ID: "Notifier Interface and Factory"
//   Timestamp: "2025-12-08T10:46:00Z"
//   Authoring_Role: "LD"
//   Analysis_Performed: "Analyzed operator-facing run reporting from reddit_scraper_no_api.py"
//   Principle_Applied: "Aether-Engineering-SOLID-I (Interface Segregation), Factory Pattern"
//   Quality_Check: "Multi-channel notification support with clean interface"
// }}

package notifier

import (
	"fmt"

	"github.com/imhuimie/qa-harvest-go/internal/config"
	"github.com/imhuimie/qa-harvest-go/internal/utils"
)

// Notifier delivers operator notifications. Delivery failures are logged by
// implementations and never abort the pipeline.
type Notifier interface {
	Send(message string) error
	SendSummary(summary utils.RunSummary) error
}

// NewNotifier creates a notifier based on configuration
func NewNotifier(cfg *config.Config) (Notifier, error) {
	switch cfg.NoticeType {
	case "telegram":
		return NewTelegramNotifier(cfg.TelegramBot, cfg.ChatID), nil
	case "wechat":
		return NewWeChatNotifier(cfg.WeChatKey), nil
	case "custom":
		return NewCustomNotifier(cfg.CustomURL), nil
	default:
		return nil, fmt.Errorf("不支持的通知类型: %s", cfg.NoticeType)
	}
}
