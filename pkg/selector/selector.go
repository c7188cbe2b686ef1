// Package selector picks the next lesson topic for a subscriber, avoiding topics sent recently
package selector

import (
	"errors"
	"math/rand/v2"
	"slices"
	"sync"
	"time"

	"github.com/dailylesson/lessonmail/pkg/domain"
)

// ErrNoTopicsForSubscriber is returned when no catalog topic matches subscriber's categories
var ErrNoTopicsForSubscriber = errors.New("no topics for subscriber")

// DefaultFreshness is the window in which a sent topic counts as recent
const DefaultFreshness = 30 * 24 * time.Hour

// Selector chooses topics uniformly at random, preferring topics not sent within the freshness window
type Selector struct {
	freshness time.Duration

	mu  sync.Mutex
	rng *rand.Rand
}

// New makes a selector. Zero seed means time based, zero freshness means DefaultFreshness.
func New(seed uint64, freshness time.Duration) *Selector {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano()) //nolint:gosec // not a security seed
	}
	if freshness <= 0 {
		freshness = DefaultFreshness
	}
	return &Selector{freshness: freshness, rng: rand.New(rand.NewPCG(seed, seed>>1|1))} //nolint:gosec // selection, not crypto
}

// Select returns the next topic for the subscriber. Candidates are catalog topics whose category is
// one of subscriber's interests. Candidates not sent to the subscriber within the freshness window
// are preferred, if all were sent recently any candidate may repeat.
func (s *Selector) Select(topics []domain.Topic, sub domain.Subscriber, logs []domain.DeliveryLogEntry, now time.Time) (domain.Topic, error) {
	interests := sub.Interests()
	var candidates []domain.Topic
	for _, t := range topics {
		if slices.Contains(interests, t.Category) {
			candidates = append(candidates, t)
		}
	}
	if len(candidates) == 0 {
		return domain.Topic{}, ErrNoTopicsForSubscriber
	}

	recent := s.recent(sub.ID, logs, now)
	var fresh []domain.Topic
	for _, t := range candidates {
		if !recent[t.ID] {
			fresh = append(fresh, t)
		}
	}

	pool := fresh
	if len(pool) == 0 {
		pool = candidates
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return pool[s.rng.IntN(len(pool))], nil
}

// recent returns ids of topics logged for the subscriber after now-freshness.
// The boundary itself is not recent.
func (s *Selector) recent(subID int64, logs []domain.DeliveryLogEntry, now time.Time) map[string]bool {
	since := now.Add(-s.freshness)
	res := map[string]bool{}
	for _, l := range logs {
		if l.SubscriberID == subID && l.SentAt.After(since) {
			res[l.TopicID] = true
		}
	}
	return res
}
