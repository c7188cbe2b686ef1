package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-pkgz/lgr"
	"github.com/google/uuid"

	"github.com/dailylesson/lessonmail/pkg/domain"
)

// seed defaults for subscriber records missing the field
const (
	defaultSeedTopics   = "daily,travel,business"
	defaultSeedTimezone = "Asia/Seoul"
)

// seedSubscriber is one record of SUBSCRIBERS_JSON
type seedSubscriber struct {
	Email     string   `json:"email"`
	Level     string   `json:"level"`
	Language  langList `json:"language"`
	Lang      langList `json:"lang"`
	Languages langList `json:"languages"`
	Topics    string   `json:"topics"`
	Timezone  string   `json:"timezone"`
	Active    *bool    `json:"active"`
}

// langList accepts either a comma-separated string or an array of strings
type langList []string

func (l *langList) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("language must be a string or a list of strings: %w", err)
		}
		list = strings.Split(s, ",")
	}
	*l = nil
	for _, v := range list {
		if v = strings.TrimSpace(v); v != "" {
			*l = append(*l, v)
		}
	}
	return nil
}

// languages returns the first non-empty key of language, lang and languages, all languages if none set
func (s seedSubscriber) languages() []string {
	for _, l := range []langList{s.Language, s.Lang, s.Languages} {
		if len(l) > 0 {
			return l
		}
	}
	res := make([]string, 0, len(domain.Languages))
	for _, l := range domain.Languages {
		res = append(res, string(l))
	}
	return res
}

// SeedTopics stores the catalog if the stored catalog is empty, returns number of topics added
func SeedTopics(ctx context.Context, s Store, topics []domain.Topic) (int, error) {
	added := 0
	err := Update(ctx, s, func(st *State) error {
		if len(st.Topics) > 0 {
			return nil
		}
		st.Topics = append(st.Topics, topics...)
		added = len(topics)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("seed topics: %w", err)
	}
	return added, nil
}

// SeedSubscribers replaces all subscribers with the records of raw JSON array.
// Each record is expanded into one subscriber per listed language, unknown languages are skipped.
func SeedSubscribers(ctx context.Context, s Store, raw string, now time.Time) (int, error) {
	var list []seedSubscriber
	if strings.TrimSpace(raw) != "" {
		if err := json.Unmarshal([]byte(raw), &list); err != nil {
			return 0, fmt.Errorf("parse subscribers json: %w", err)
		}
	}

	var subs []domain.Subscriber
	for _, rec := range list {
		if strings.TrimSpace(rec.Email) == "" {
			lgr.Printf("[WARN] skip seed subscriber without email")
			continue
		}
		for _, name := range rec.languages() {
			lang, ok := domain.ParseLanguage(name)
			if !ok {
				lgr.Printf("[WARN] skip unknown language %q for %s", name, rec.Email)
				continue
			}
			sub := domain.Subscriber{
				ID:               int64(len(subs) + 1),
				Email:            strings.TrimSpace(rec.Email),
				Level:            domain.ParseLevel(rec.Level),
				Language:         lang,
				Topics:           rec.Topics,
				Timezone:         rec.Timezone,
				Active:           rec.Active == nil || *rec.Active,
				UnsubscribeToken: uuid.NewString(),
				CreatedAt:        now.UTC(),
			}
			if sub.Topics == "" {
				sub.Topics = defaultSeedTopics
			}
			if sub.Timezone == "" {
				sub.Timezone = defaultSeedTimezone
			}
			subs = append(subs, sub)
		}
	}

	err := Update(ctx, s, func(st *State) error {
		st.Subscribers = subs
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("seed subscribers: %w", err)
	}

	stats := map[domain.Language]int{}
	for _, sub := range subs {
		stats[sub.Language]++
	}
	lgr.Printf("[INFO] seeded %d subscriber entries, by language: %v", len(subs), stats)
	return len(subs), nil
}
