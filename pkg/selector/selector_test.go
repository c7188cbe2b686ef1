package selector

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dailylesson/lessonmail/pkg/domain"
)

var catalog = []domain.Topic{
	{ID: "daily-001", Category: "daily", Title: "Greeting a neighbor"},
	{ID: "daily-002", Category: "daily", Title: "Buying groceries"},
	{ID: "daily-003", Category: "daily", Title: "Making weekend plans"},
	{ID: "travel-001", Category: "travel", Title: "Checking in at a hotel"},
	{ID: "business-001", Category: "business", Title: "Scheduling a meeting"},
}

func sentLog(subID int64, topicID string, at time.Time) domain.DeliveryLogEntry {
	return domain.DeliveryLogEntry{SubscriberID: subID, TopicID: topicID, SentAt: at, Status: domain.StatusSent}
}

func TestSelect_PrefersUnsent(t *testing.T) {
	now := time.Date(2025, 3, 10, 7, 30, 0, 0, time.UTC)
	sub := domain.Subscriber{ID: 1, Topics: "daily, travel"}
	logs := []domain.DeliveryLogEntry{
		sentLog(1, "daily-001", now.Add(-24*time.Hour)),
		sentLog(1, "daily-002", now.Add(-10*24*time.Hour)),
		sentLog(1, "travel-001", now.Add(-29*24*time.Hour)),
		sentLog(2, "daily-003", now.Add(-time.Hour)), // other subscriber
	}

	s := New(0, 0)
	for range 200 {
		topic, err := s.Select(catalog, sub, logs, now)
		require.NoError(t, err)
		assert.Equal(t, "daily-003", topic.ID)
	}
}

func TestSelect_AllRecentRepeats(t *testing.T) {
	now := time.Now()
	sub := domain.Subscriber{ID: 1, Topics: "daily"}
	logs := []domain.DeliveryLogEntry{
		sentLog(1, "daily-001", now.Add(-time.Hour)),
		sentLog(1, "daily-002", now.Add(-time.Hour)),
		sentLog(1, "daily-003", now.Add(-time.Hour)),
	}

	s := New(0, 0)
	seen := map[string]bool{}
	for range 300 {
		topic, err := s.Select(catalog, sub, logs, now)
		require.NoError(t, err)
		assert.Equal(t, "daily", topic.Category)
		seen[topic.ID] = true
	}
	assert.Len(t, seen, 3, "falls back to the full candidate set")
}

func TestSelect_FreshnessBoundary(t *testing.T) {
	now := time.Date(2025, 3, 10, 7, 30, 0, 0, time.UTC)
	sub := domain.Subscriber{ID: 1, Topics: "travel,business"}

	tests := []struct {
		name   string
		sentAt time.Time
		recent bool
	}{
		{name: "exactly at boundary", sentAt: now.Add(-DefaultFreshness), recent: false},
		{name: "older than window", sentAt: now.Add(-DefaultFreshness - time.Second), recent: false},
		{name: "just inside window", sentAt: now.Add(-DefaultFreshness + time.Second), recent: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logs := []domain.DeliveryLogEntry{sentLog(1, "travel-001", tt.sentAt)}
			s := New(0, 0)
			assert.Equal(t, tt.recent, s.recent(1, logs, now)["travel-001"])

			seen := map[string]bool{}
			for range 200 {
				topic, err := s.Select(catalog, sub, logs, now)
				require.NoError(t, err)
				seen[topic.ID] = true
			}
			assert.Equal(t, !tt.recent, seen["travel-001"])
			assert.True(t, seen["business-001"])
		})
	}
}

func TestSelect_NoTopics(t *testing.T) {
	tests := []struct {
		name   string
		topics string
		want   error
	}{
		{name: "empty interests", topics: "", want: ErrNoTopicsForSubscriber},
		{name: "blank tokens", topics: " , ,", want: ErrNoTopicsForSubscriber},
		{name: "no matching category", topics: "cooking", want: ErrNoTopicsForSubscriber},
		{name: "case sensitive", topics: "Daily", want: ErrNoTopicsForSubscriber},
		{name: "trimmed token matches", topics: "  business ", want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(1, 0).Select(catalog, domain.Subscriber{ID: 1, Topics: tt.topics}, nil, time.Now())
			if tt.want != nil {
				require.ErrorIs(t, err, tt.want)
				return
			}
			require.NoError(t, err)
		})
	}
}

// NoTopicsForSubscriber iff the category-filtered candidate set is empty, freshness never causes it
func TestSelect_ErrorIffNoCandidates(t *testing.T) {
	now := time.Now()
	var logs []domain.DeliveryLogEntry
	for _, tp := range catalog {
		logs = append(logs, sentLog(1, tp.ID, now.Add(-time.Minute)))
	}

	for _, interests := range []string{"daily", "travel", "business", "daily,business", "sports", "", "travel,sports"} {
		t.Run(fmt.Sprintf("%q", interests), func(t *testing.T) {
			sub := domain.Subscriber{ID: 1, Topics: interests}
			hasCandidates := false
			for _, tp := range catalog {
				for _, i := range sub.Interests() {
					hasCandidates = hasCandidates || tp.Category == i
				}
			}
			_, err := New(3, 0).Select(catalog, sub, logs, now)
			assert.Equal(t, !hasCandidates, err != nil)
		})
	}
}

func TestSelect_Seeded(t *testing.T) {
	sub := domain.Subscriber{ID: 1, Topics: "daily,travel,business"}
	now := time.Now()
	s1, s2 := New(99, 0), New(99, 0)
	for range 20 {
		t1, err := s1.Select(catalog, sub, nil, now)
		require.NoError(t, err)
		t2, err := s2.Select(catalog, sub, nil, now)
		require.NoError(t, err)
		assert.Equal(t, t1, t2)
	}
}

func TestSelect_CustomFreshness(t *testing.T) {
	now := time.Now()
	logs := []domain.DeliveryLogEntry{sentLog(1, "travel-001", now.Add(-48*time.Hour))}

	// with a one day window the two day old delivery is no longer recent
	assert.False(t, New(1, 24*time.Hour).recent(1, logs, now)["travel-001"])
	assert.True(t, New(1, 0).recent(1, logs, now)["travel-001"])
}
