// {{RIPER-5-Enhanced:
//   Action: "Added"
//   Task_ID: "WeChat Notifier Implementation"
//   Timestamp: "2025-12-08T10:48:00Z"
//   Authoring_Role: "LD"
//   Analysis_Performed: "Adapted WeChat delivery channel for run summaries"
//   Principle_Applied: "Aether-Engineering-SOLID-S"
//   Quality_Check: "息知 API integration implemented"
// }}

package notifier

import (
	"fmt"
	"net/http"
	"net/url"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/imhuimie/qa-harvest-go/internal/utils"
)

// WeChatNotifier sends notifications via WeChat (息知)
type WeChatNotifier struct {
	apiKey string
	client *http.Client
}

// NewWeChatNotifier creates a new WeChat notifier
func NewWeChatNotifier(apiKey string) *WeChatNotifier {
	return &WeChatNotifier{
		apiKey: apiKey,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Send sends a message via WeChat
func (w *WeChatNotifier) Send(message string) error {
	apiURL := fmt.Sprintf("https://xizhi.qqoq.net/%s.send", w.apiKey)

	params := url.Values{}
	params.Set("title", "问答采集通知")
	params.Set("content", message)

	resp, err := w.client.Get(apiURL + "?" + params.Encode())
	if err != nil {
		log.Warnf("发送微信消息失败: %v", err)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Warnf("微信 API 返回非 200 状态码: %d", resp.StatusCode)
		return fmt.Errorf("微信 API 错误: 状态码 %d", resp.StatusCode)
	}

	log.Info("微信消息发送成功")
	return nil
}

// SendSummary sends a run summary notification
func (w *WeChatNotifier) SendSummary(summary utils.RunSummary) error {
	return w.Send(utils.FormatRunSummary(summary))
}
