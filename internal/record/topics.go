// {{RIPER-5-Enhanced:
//   Action: "Added"
//   Task_ID: "Keyword Topic Lookup"
//   Timestamp: "2025-12-08T10:02:00Z"
//   Authoring_Role: "LD"
//   Analysis_Performed: "Analyzed Python topic derivation from scraper.py"
//   Principle_Applied: "Aether-Engineering-SOLID-S"
//   Quality_Check: "AND/OR keyword matching, deterministic rule order"
// }}

package record

import (
	"sort"
	"strings"
)

// DefaultTopic is assigned when no rule matches
const DefaultTopic = "general"

type topicRule struct {
	topic string
	rule  string
}

// TopicMatcher derives a topic from free text via keyword rules.
// Rule format: "keyword1+keyword2,keyword3" means (kw1 AND kw2) OR kw3.
type TopicMatcher struct {
	rules []topicRule
}

// NewTopicMatcher builds a matcher from topic -> rule pairs. Rules are
// evaluated in sorted topic order so lookups are deterministic.
func NewTopicMatcher(rules map[string]string) *TopicMatcher {
	m := &TopicMatcher{}
	for topic, rule := range rules {
		if strings.TrimSpace(rule) == "" {
			continue
		}
		m.rules = append(m.rules, topicRule{topic: topic, rule: rule})
	}
	sort.Slice(m.rules, func(a, b int) bool {
		return m.rules[a].topic < m.rules[b].topic
	})
	return m
}

// Lookup returns the first matching topic, or DefaultTopic. Lookup never
// fails; an unmatched text simply gets the default.
func (m *TopicMatcher) Lookup(text string) string {
	lower := strings.ToLower(text)
	for _, r := range m.rules {
		if matchRule(lower, r.rule) {
			return r.topic
		}
	}
	return DefaultTopic
}

func matchRule(lower, rule string) bool {
	for _, group := range strings.Split(rule, ",") {
		group = strings.TrimSpace(group)
		if group == "" {
			continue
		}

		allMatch := true
		for _, keyword := range strings.Split(group, "+") {
			keyword = strings.TrimSpace(strings.ToLower(keyword))
			if !strings.Contains(lower, keyword) {
				allMatch = false
				break
			}
		}

		if allMatch {
			return true
		}
	}
	return false
}
