// {{RIPER-5-Enhanced:
//   Action: "Added"
//   Task_ID: "Custom Notifier Implementation"
//   Timestamp: "2025-12-08T10:49:00Z"
//   Authoring_Role: "LD"
//   Analysis_Performed: "Adapted custom webhook channel for run summaries"
//   Principle_Applied: "Aether-Engineering-SOLID-S"
//   Quality_Check: "Custom webhook with message placeholder support"
// }}

package notifier

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/imhuimie/qa-harvest-go/internal/utils"
)

// CustomNotifier sends notifications via custom webhook
type CustomNotifier struct {
	webhookURL string
	client     *http.Client
}

// NewCustomNotifier creates a new custom notifier
func NewCustomNotifier(webhookURL string) *CustomNotifier {
	return &CustomNotifier{
		webhookURL: webhookURL,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Send sends a message via custom webhook
func (c *CustomNotifier) Send(message string) error {
	url := strings.ReplaceAll(c.webhookURL, "{message}", message)

	resp, err := c.client.Get(url)
	if err != nil {
		log.Warnf("发送自定义通知失败: %v", err)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Warnf("自定义通知 API 返回非 200 状态码: %d", resp.StatusCode)
		return fmt.Errorf("自定义通知 API 错误: 状态码 %d", resp.StatusCode)
	}

	log.Info("自定义通知发送成功")
	return nil
}

// SendSummary sends a run summary notification
func (c *CustomNotifier) SendSummary(summary utils.RunSummary) error {
	return c.Send(utils.FormatRunSummary(summary))
}
