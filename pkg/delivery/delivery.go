// Package delivery runs delivery cycles: for every active subscriber it selects a topic, generates
// a lesson, hands it to the sender and appends the outcome to the delivery log.
// Subscribers are processed one by one, a failure of one subscriber never stops the cycle.
package delivery

import (
	"context"
	"fmt"
	"time"

	"github.com/go-pkgz/lgr"

	"github.com/dailylesson/lessonmail/pkg/domain"
	"github.com/dailylesson/lessonmail/pkg/store"
)

//go:generate moq -out mocks/store.go -pkg mocks -skip-ensure -fmt goimports . Store
//go:generate moq -out mocks/selector.go -pkg mocks -skip-ensure -fmt goimports . Selector
//go:generate moq -out mocks/generator.go -pkg mocks -skip-ensure -fmt goimports . Generator
//go:generate moq -out mocks/sender.go -pkg mocks -skip-ensure -fmt goimports . Sender

// Store loads and saves the whole state
type Store interface {
	Load(ctx context.Context) (store.State, error)
	Save(ctx context.Context, st store.State) error
}

// Selector picks the next topic for a subscriber
type Selector interface {
	Select(topics []domain.Topic, sub domain.Subscriber, logs []domain.DeliveryLogEntry, now time.Time) (domain.Topic, error)
}

// Generator produces a lesson script
type Generator interface {
	Generate(ctx context.Context, topic domain.Topic, level domain.Level, lang domain.Language) (domain.LessonScript, error)
}

// Sender renders and delivers a lesson numbered by its log id
type Sender interface {
	Send(ctx context.Context, sub domain.Subscriber, script domain.LessonScript, logID int64) error
}

// FlushMode controls when the store is saved during a cycle
type FlushMode string

const (
	// FlushCycle saves once at the end of the cycle
	FlushCycle FlushMode = "cycle"
	// FlushSubscriber saves after every subscriber
	FlushSubscriber FlushMode = "subscriber"
)

// Params configures a Service
type Params struct {
	Store     Store
	Selector  Selector
	Generator Generator
	Sender    Sender
	Flush     FlushMode
	Now       func() time.Time // time source, time.Now if nil
}

// Service runs delivery cycles
type Service struct {
	store     Store
	selector  Selector
	generator Generator
	sender    Sender
	flush     FlushMode
	now       func() time.Time
}

// Summary is the outcome of one cycle
type Summary struct {
	Language    domain.Language `json:"language,omitempty"`
	Subscribers int             `json:"subscribers"`
	Sent        int             `json:"sent"`
	Failed      int             `json:"failed"`
	LogIDs      []int64         `json:"log_ids"`
	Duration    time.Duration   `json:"duration"`
}

// New makes a delivery service
func New(p Params) *Service {
	if p.Flush == "" {
		p.Flush = FlushCycle
	}
	if p.Now == nil {
		p.Now = time.Now
	}
	return &Service{store: p.Store, selector: p.Selector, generator: p.Generator, sender: p.Sender,
		flush: p.Flush, now: p.Now}
}

// RunCycle delivers lessons to active subscribers of the language, all active subscribers if lang is empty.
// Only store errors are returned, per-subscriber failures are recorded in the delivery log.
func (s *Service) RunCycle(ctx context.Context, lang domain.Language) (Summary, error) {
	st := s.now()
	summary := Summary{Language: lang, LogIDs: []int64{}}

	state, err := s.store.Load(ctx)
	if err != nil {
		return summary, fmt.Errorf("load state: %w", err)
	}

	subs := Recipients(state.Subscribers, lang)
	summary.Subscribers = len(subs)
	lgr.Printf("[INFO] delivery cycle started, language %q, %d subscribers", langName(lang), len(subs))

	for _, sub := range subs {
		entry := s.deliver(ctx, state, sub)
		state.EmailLogs = append(state.EmailLogs, entry)
		summary.LogIDs = append(summary.LogIDs, entry.ID)
		if entry.Status == domain.StatusSent {
			summary.Sent++
			lgr.Printf("[INFO] sent lesson #%d to %s", entry.ID, sub.Email)
		} else {
			summary.Failed++
			lgr.Printf("[WARN] delivery to %s failed: %s", sub.Email, entry.Error)
		}

		if s.flush == FlushSubscriber {
			if err := s.store.Save(ctx, state); err != nil {
				return summary, fmt.Errorf("save state after %s: %w", sub.Email, err)
			}
		}
	}

	if s.flush != FlushSubscriber || len(subs) == 0 {
		if err := s.store.Save(ctx, state); err != nil {
			return summary, fmt.Errorf("save state: %w", err)
		}
	}

	summary.Duration = s.now().Sub(st)
	lgr.Printf("[INFO] delivery cycle completed, language %q, sent %d, failed %d in %v",
		langName(lang), summary.Sent, summary.Failed, summary.Duration)
	return summary, nil
}

// deliver runs the pipeline for one subscriber and returns the log entry for it.
// A panic inside the pipeline becomes a failed entry.
func (s *Service) deliver(ctx context.Context, state store.State, sub domain.Subscriber) (entry domain.DeliveryLogEntry) {
	entry = domain.DeliveryLogEntry{ID: nextLogID(state.EmailLogs), SubscriberID: sub.ID, TopicID: domain.UnknownTopicID,
		Status: domain.StatusFailed}
	defer func() {
		if r := recover(); r != nil {
			entry.Script = nil
			entry.Status = domain.StatusFailed
			entry.Error = fmt.Sprintf("panic: %v", r)
			entry.SentAt = s.now()
		}
	}()

	topic, err := s.selector.Select(state.Topics, sub, state.EmailLogs, s.now())
	if err != nil {
		entry.Error = err.Error()
		entry.SentAt = s.now()
		return entry
	}
	entry.TopicID = topic.ID

	script, err := s.generator.Generate(ctx, topic, sub.Level, sub.Lang())
	if err != nil {
		entry.Error = err.Error()
		entry.SentAt = s.now()
		return entry
	}

	if err := s.sender.Send(ctx, sub, script, entry.ID); err != nil {
		entry.Error = err.Error()
		entry.SentAt = s.now()
		return entry
	}

	entry.Status = domain.StatusSent
	entry.Script = &script
	entry.SentAt = s.now()
	return entry
}

// Recipients returns active subscribers of the language in store order, all active ones if lang is empty.
// Subscribers without a language, or with an unsupported one, belong to the primary language.
func Recipients(subs []domain.Subscriber, lang domain.Language) []domain.Subscriber {
	var res []domain.Subscriber
	for _, sub := range subs {
		if !sub.Active {
			continue
		}
		if _, ok := domain.ParseLanguage(string(sub.Language)); !ok && sub.Language != "" {
			lgr.Printf("[WARN] subscriber %d has unsupported language %q, treated as %s", sub.ID, sub.Language, domain.PrimaryLanguage)
		}
		if lang != "" && sub.Lang() != lang {
			continue
		}
		res = append(res, sub)
	}
	return res
}

// nextLogID returns the id following the largest one in the log
func nextLogID(logs []domain.DeliveryLogEntry) int64 {
	var maxID int64
	for _, l := range logs {
		maxID = max(maxID, l.ID)
	}
	return maxID + 1
}

func langName(lang domain.Language) string {
	if lang == "" {
		return "all"
	}
	return string(lang)
}
