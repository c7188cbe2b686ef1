package domain

import (
	"strings"
	"time"
)

// UnknownTopicID is recorded for failed deliveries when no topic was selected
const UnknownTopicID = "unknown"

// Topic is an immutable catalog entry
type Topic struct {
	ID             string `json:"id" yaml:"id"`
	Category       string `json:"category" yaml:"category"`
	Title          string `json:"title" yaml:"title"`
	ZhTitle        string `json:"zh_title,omitempty" yaml:"zh_title,omitempty"`
	PromptTemplate string `json:"prompt_template,omitempty" yaml:"prompt_template,omitempty"`
}

// Subscriber represents a lesson recipient
type Subscriber struct {
	ID               int64     `json:"id"`
	Email            string    `json:"email"`
	Level            Level     `json:"level"`
	Language         Language  `json:"language,omitempty"`
	Topics           string    `json:"topics"` // comma-separated categories
	Timezone         string    `json:"timezone"`
	Active           bool      `json:"active"`
	UnsubscribeToken string    `json:"unsubscribe_token,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// Interests returns the trimmed, non-empty category tokens of the topics field
func (s Subscriber) Interests() []string {
	var res []string
	for _, t := range strings.Split(s.Topics, ",") {
		if t = strings.TrimSpace(t); t != "" {
			res = append(res, t)
		}
	}
	return res
}

// Lang returns subscriber's language, unset or unknown values default to the primary language
func (s Subscriber) Lang() Language {
	if l, ok := ParseLanguage(string(s.Language)); ok {
		return l
	}
	return PrimaryLanguage
}

// VocabItem is a single vocabulary entry from a content pool
type VocabItem struct {
	Term     string `json:"term" yaml:"term"`
	Pinyin   string `json:"pinyin" yaml:"pinyin"`
	Meaning  string `json:"meaning" yaml:"meaning"`
	Category string `json:"category,omitempty" yaml:"category,omitempty"`
	Level    Level  `json:"level,omitempty" yaml:"level,omitempty"`
	TopicID  string `json:"topic_id,omitempty" yaml:"topic_id,omitempty"`
}

// ExpressionItem is a phrase or sentence pattern from a content pool
type ExpressionItem struct {
	Text     string `json:"text" yaml:"text"`
	Pinyin   string `json:"pinyin" yaml:"pinyin"`
	Meaning  string `json:"meaning" yaml:"meaning"`
	Category string `json:"category,omitempty" yaml:"category,omitempty"`
	Level    Level  `json:"level,omitempty" yaml:"level,omitempty"`
	TopicID  string `json:"topic_id,omitempty" yaml:"topic_id,omitempty"`
}

// LessonScript is the structured lesson produced for one send
type LessonScript struct {
	Title       string           `json:"title"`
	Intro       string           `json:"intro"`
	Level       Level            `json:"level"`
	Vocab       []VocabItem      `json:"vocab"`
	Expressions []ExpressionItem `json:"expressions"`
	Dialog      []string         `json:"dialog"`
	Questions   []string         `json:"questions"`
	Tips        []string         `json:"tips"`
}

// DeliveryStatus is the terminal state of a delivery attempt
type DeliveryStatus string

const (
	StatusSent   DeliveryStatus = "sent"
	StatusFailed DeliveryStatus = "failed"
)

// DeliveryLogEntry records the outcome of one delivery attempt
type DeliveryLogEntry struct {
	ID           int64          `json:"id"`
	SubscriberID int64          `json:"subscriber_id"`
	TopicID      string         `json:"topic_id"`
	Script       *LessonScript  `json:"script,omitempty"`
	SentAt       time.Time      `json:"sent_at"`
	Status       DeliveryStatus `json:"status"`
	Error        string         `json:"error,omitempty"`
}
