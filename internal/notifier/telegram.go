// {{RIPER-5-Enhanced:
//   Action: "Added"
//   Task_ID: "Telegram Notifier Implementation"
//   Timestamp: "2025-12-08T10:47:00Z"
//   Authoring_Role: "LD"
//   Analysis_Performed: "Adapted Telegram delivery channel for run summaries"
//   Principle_Applied: "Aether-Engineering-SOLID-S"
//   Quality_Check: "Error handling on non-200 responses implemented"
// }}

package notifier

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/imhuimie/qa-harvest-go/internal/utils"
)

// TelegramNotifier sends notifications via Telegram
type TelegramNotifier struct {
	botToken string
	chatID   string
	client   *http.Client
}

// NewTelegramNotifier creates a new Telegram notifier
func NewTelegramNotifier(botToken, chatID string) *TelegramNotifier {
	return &TelegramNotifier{
		botToken: botToken,
		chatID:   chatID,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Send sends a message via Telegram
func (t *TelegramNotifier) Send(message string) error {
	apiURL := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", t.botToken)

	params := url.Values{}
	params.Set("chat_id", t.chatID)
	params.Set("text", message)

	resp, err := t.client.PostForm(apiURL, params)
	if err != nil {
		log.Warnf("发送 Telegram 消息失败: %v", err)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		log.Warnf("Telegram API 返回非 200 状态码: %d, 响应: %s", resp.StatusCode, string(body))
		return fmt.Errorf("Telegram API 错误 (状态码 %d): %s", resp.StatusCode, string(body))
	}

	log.Info("Telegram 消息发送成功")
	return nil
}

// SendSummary sends a run summary notification
func (t *TelegramNotifier) SendSummary(summary utils.RunSummary) error {
	return t.Send(utils.FormatRunSummary(summary))
}
