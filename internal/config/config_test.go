// {{RIPER-5-Enhanced:
//   Action: "Added"
//   Task_ID: "Config Manager Tests"
//   Timestamp: "2025-12-08T12:50:00Z"
//   Authoring_Role: "TE"
//   Analysis_Performed: "Covered load, defaults, validation and copy-on-get"
//   Principle_Applied: "Aether-Engineering-Testability"
//   Quality_Check: "Temp-dir isolation"
// }}

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `{"config":{"extra_urls":["https://example.com/t/1"],"only_extra":true}}`)

	m := NewManager(path)
	require.NoError(t, m.Load())

	cfg := m.Get()
	require.NotNil(t, cfg)
	assert.Equal(t, "reddit", cfg.Platform)
	assert.Equal(t, "data/community_qa.jsonl", cfg.OutputFile)
	assert.Equal(t, 3, cfg.DelaySeconds)
	assert.Equal(t, 3600, cfg.Frequency)
	assert.Equal(t, 20, cfg.MinQuestionLen)
	assert.Equal(t, 50, cfg.MinAnswerLen)
	assert.Equal(t, 5, cfg.MinUpvotes)
	assert.Equal(t, 2, cfg.MinAckScore)
	assert.InDelta(t, 0.3, cfg.SimilarityThreshold, 1e-9)
}

func TestLoadRejectsMissingConfigKey(t *testing.T) {
	path := writeConfig(t, `{"extra_urls":[]}`)

	m := NewManager(path)
	assert.Error(t, m.Load())
}

func TestGetReturnsCopy(t *testing.T) {
	path := writeConfig(t, `{"config":{"extra_urls":["https://example.com/t/1"],"only_extra":true}}`)

	m := NewManager(path)
	require.NoError(t, m.Load())

	first := m.Get()
	first.Platform = "mutated"

	assert.Equal(t, "reddit", m.Get().Platform)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			DelaySeconds:        3,
			Frequency:           3600,
			OutputFile:          "data/out.jsonl",
			SimilarityThreshold: 0.3,
			ExtraURLs:           []string{"https://example.com/t/1"},
			OnlyExtra:           true,
		}
	}

	require.NoError(t, valid().Validate())

	cfg := valid()
	cfg.DelaySeconds = 0
	assert.Error(t, cfg.Validate())

	cfg = valid()
	cfg.Frequency = 30
	assert.Error(t, cfg.Validate())

	cfg = valid()
	cfg.OutputFile = ""
	assert.Error(t, cfg.Validate())

	cfg = valid()
	cfg.SimilarityThreshold = 1.5
	assert.Error(t, cfg.Validate())

	cfg = valid()
	cfg.OnlyExtra = false
	cfg.ExtraURLs = nil
	assert.Error(t, cfg.Validate(), "no sources configured")

	cfg = valid()
	cfg.BroadKeywords = []string{"how to"}
	assert.Error(t, cfg.Validate(), "keywords without search_base_url")
	cfg.SearchBaseURL = "https://old.reddit.com/r/shopify/search"
	assert.NoError(t, cfg.Validate())

	cfg = valid()
	cfg.NotifySummary = true
	cfg.NoticeType = "telegram"
	assert.Error(t, cfg.Validate(), "incomplete telegram settings")
	cfg.TelegramBot = "bot"
	cfg.ChatID = "chat"
	assert.NoError(t, cfg.Validate())
}

func TestKeywordsCombinesBroadAndFeature(t *testing.T) {
	cfg := &Config{
		BroadKeywords:   []string{"how to", "help"},
		FeatureKeywords: []string{"payment"},
	}

	assert.Equal(t, []string{"how to", "help", "payment"}, cfg.Keywords())
}

func TestGetEnv(t *testing.T) {
	t.Setenv("QA_HARVEST_TEST_KEY", "value")
	assert.Equal(t, "value", GetEnv("QA_HARVEST_TEST_KEY", "fallback"))
	assert.Equal(t, "fallback", GetEnv("QA_HARVEST_MISSING_KEY", "fallback"))
}
