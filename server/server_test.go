package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dailylesson/lessonmail/pkg/delivery"
	"github.com/dailylesson/lessonmail/pkg/domain"
	"github.com/dailylesson/lessonmail/pkg/scheduler"
	"github.com/dailylesson/lessonmail/pkg/store"
	"github.com/dailylesson/lessonmail/server/mocks"
)

var testNow = time.Date(2025, 3, 10, 7, 30, 0, 0, time.UTC)

func testConfig() *mocks.ConfigProviderMock {
	return &mocks.ConfigProviderMock{GetServerConfigFunc: func() (string, time.Duration) { return ":8080", 30 * time.Second }}
}

func testState() store.State {
	script := func(title string) *domain.LessonScript {
		return &domain.LessonScript{Title: title, Intro: "intro of " + title, Level: domain.LevelBeginner,
			Vocab: []domain.VocabItem{{Term: "你好", Pinyin: "nǐ hǎo", Meaning: "hello"}}}
	}
	return store.State{
		Subscribers: []domain.Subscriber{
			{ID: 1, Email: "a@example.com", Level: domain.LevelBeginner, Language: domain.LangChinese, Topics: "daily",
				Timezone: "Asia/Seoul", Active: true, UnsubscribeToken: "tok-a-zh"},
			{ID: 2, Email: "a@example.com", Level: domain.LevelBeginner, Language: domain.LangJapanese, Topics: "daily",
				Timezone: "Asia/Seoul", Active: true, UnsubscribeToken: "tok-a-ja"},
			{ID: 3, Email: "b@example.com", Level: domain.LevelAdvanced, Topics: "travel", Active: false, UnsubscribeToken: "tok-b"},
		},
		Topics: []domain.Topic{
			{ID: "daily-001", Category: "daily", Title: "Greeting a neighbor"},
			{ID: "daily-002", Category: "daily", Title: "Buying groceries"},
			{ID: "travel-001", Category: "travel", Title: "Checking in at a hotel"},
		},
		EmailLogs: []domain.DeliveryLogEntry{
			{ID: 1, SubscriberID: 1, TopicID: "daily-001", Script: script("Greeting a neighbor"), SentAt: testNow.Add(-48 * time.Hour), Status: domain.StatusSent},
			{ID: 2, SubscriberID: 2, TopicID: "daily-002", Script: script("Buying groceries"), SentAt: testNow.Add(-47 * time.Hour), Status: domain.StatusSent},
			{ID: 3, SubscriberID: 3, TopicID: domain.UnknownTopicID, SentAt: testNow.Add(-46 * time.Hour), Status: domain.StatusFailed, Error: "no topics for subscriber"},
			{ID: 4, SubscriberID: 1, TopicID: "daily-002", Script: script("Buying groceries"), SentAt: testNow.Add(-24 * time.Hour), Status: domain.StatusSent},
			{ID: 5, SubscriberID: 1, TopicID: "daily-001", SentAt: testNow, Status: domain.StatusFailed, Error: "send failed"},
		},
	}
}

// setupServer makes a server over a json store seeded with testState
func setupServer(t *testing.T, deliverer Deliverer) (*Server, *store.Shared) {
	t.Helper()
	shared := store.NewShared(store.NewJSONFile(filepath.Join(t.TempDir(), "db.json")))
	require.NoError(t, shared.Save(context.Background(), testState()))
	srv := New(Params{Config: testConfig(), Store: shared, Deliverer: deliverer, BaseURL: "http://lessons.example.com/", Version: "test"})
	srv.now = func() time.Time { return testNow }
	return srv, shared
}

func do(t *testing.T, srv *Server, method, url, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, url, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var res map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res), rec.Body.String())
	return res
}

func TestServer_Ping(t *testing.T) {
	srv, _ := setupServer(t, nil)
	rec := do(t, srv, http.MethodGet, "/ping", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "pong", rec.Body.String())
	assert.Equal(t, "lessonmail", rec.Header().Get("App-Name"))
}

func TestServer_Status(t *testing.T) {
	next := testNow.Add(24 * time.Hour)
	deliverer := &mocks.DelivererMock{JobsFunc: func() []scheduler.Job {
		return []scheduler.Job{{Spec: "30 7 * * *", Next: next}}
	}}
	srv, _ := setupServer(t, deliverer)

	rec := do(t, srv, http.MethodGet, "/api/v1/status", "")
	require.Equal(t, http.StatusOK, rec.Code)
	res := decode(t, rec)
	assert.Equal(t, "ok", res["status"])
	assert.Equal(t, "test", res["version"])
	assert.Equal(t, map[string]any{"total": 3.0, "active": 2.0}, res["subscribers"])
	assert.Equal(t, 3.0, res["topics"])
	assert.Equal(t, map[string]any{"sent": 3.0, "failed": 2.0}, res["deliveries"])
	jobs := res["jobs"].([]any)
	require.Len(t, jobs, 1)
	assert.Equal(t, "30 7 * * *", jobs[0].(map[string]any)["spec"])
}

func TestServer_StatusStoreError(t *testing.T) {
	st := &mocks.StoreMock{LoadFunc: func(context.Context) (store.State, error) { return store.State{}, errors.New("disk gone") }}
	srv := New(Params{Config: testConfig(), Store: st})

	rec := do(t, srv, http.MethodGet, "/api/v1/status", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "failed to load state", decode(t, rec)["error"])
}

func TestServer_Topics(t *testing.T) {
	srv, _ := setupServer(t, nil)

	rec := do(t, srv, http.MethodGet, "/api/v1/topics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var topics []domain.Topic
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &topics))
	assert.Len(t, topics, 3)

	rec = do(t, srv, http.MethodGet, "/api/v1/topics?category=travel", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &topics))
	require.Len(t, topics, 1)
	assert.Equal(t, "travel-001", topics[0].ID)

	rec = do(t, srv, http.MethodGet, "/api/v1/topics?category=cooking", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestServer_Subscribe(t *testing.T) {
	ctx := context.Background()

	t.Run("new subscriber with defaults", func(t *testing.T) {
		srv, shared := setupServer(t, nil)
		rec := do(t, srv, http.MethodPost, "/api/v1/subscribe", `{"email": "c@example.com"}`)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		res := decode(t, rec)
		assert.Equal(t, true, res["ok"])
		assert.Equal(t, 4.0, res["id"])

		st, err := shared.Load(ctx)
		require.NoError(t, err)
		require.Len(t, st.Subscribers, 4)
		sub := st.Subscribers[3]
		assert.Equal(t, "c@example.com", sub.Email)
		assert.Equal(t, domain.LevelBeginner, sub.Level)
		assert.Equal(t, domain.LangChinese, sub.Language)
		assert.Equal(t, "daily", sub.Topics)
		assert.Equal(t, "Asia/Seoul", sub.Timezone)
		assert.True(t, sub.Active)
		assert.NotEmpty(t, sub.UnsubscribeToken)
		assert.True(t, testNow.Equal(sub.CreatedAt))
		assert.Equal(t, "http://lessons.example.com/rss/"+sub.UnsubscribeToken, res["rss"])
	})

	t.Run("existing subscription is updated and reactivated", func(t *testing.T) {
		srv, shared := setupServer(t, nil)
		rec := do(t, srv, http.MethodPost, "/api/v1/subscribe",
			`{"email": "b@example.com", "level": "intermediate", "topics": "daily,business", "timezone": "UTC"}`)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		st, err := shared.Load(ctx)
		require.NoError(t, err)
		require.Len(t, st.Subscribers, 3)
		sub := st.Subscribers[2]
		assert.Equal(t, int64(3), sub.ID)
		assert.Equal(t, domain.LevelIntermediate, sub.Level)
		assert.Equal(t, "daily,business", sub.Topics)
		assert.Equal(t, "UTC", sub.Timezone)
		assert.True(t, sub.Active)
		assert.Equal(t, "tok-b", sub.UnsubscribeToken)
	})

	t.Run("same email, new language", func(t *testing.T) {
		srv, shared := setupServer(t, nil)
		rec := do(t, srv, http.MethodPost, "/api/v1/subscribe", `{"email": "a@example.com", "language": "spanish", "level": "advanced"}`)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		st, err := shared.Load(ctx)
		require.NoError(t, err)
		require.Len(t, st.Subscribers, 4)
		assert.Equal(t, domain.LangSpanish, st.Subscribers[3].Language)
		assert.Equal(t, domain.LevelAdvanced, st.Subscribers[3].Level)
	})

	t.Run("bad requests", func(t *testing.T) {
		srv, shared := setupServer(t, nil)
		tests := []struct {
			body string
			err  string
		}{
			{body: `{}`, err: "email required"},
			{body: `{"email": "not-an-email"}`, err: `invalid email "not-an-email"`},
			{body: `{"email": "c@example.com", "language": "french"}`, err: `unsupported language "french"`},
			{body: `{"email":`, err: "invalid request body"},
		}
		for _, tt := range tests {
			rec := do(t, srv, http.MethodPost, "/api/v1/subscribe", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, tt.body)
			assert.Equal(t, tt.err, decode(t, rec)["error"])
		}
		st, err := shared.Load(ctx)
		require.NoError(t, err)
		assert.Len(t, st.Subscribers, 3)
	})

	t.Run("store error", func(t *testing.T) {
		st := &mocks.StoreMock{UpdateFunc: func(context.Context, func(*store.State) error) error { return errors.New("read only") }}
		srv := New(Params{Config: testConfig(), Store: st})
		rec := do(t, srv, http.MethodPost, "/api/v1/subscribe", `{"email": "c@example.com"}`)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "failed to subscribe", decode(t, rec)["error"])
	})
}

func TestServer_Unsubscribe(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name       string
		body       string
		count      float64
		wantActive []bool
	}{
		{name: "all languages", body: `{"email": "a@example.com"}`, count: 2, wantActive: []bool{false, false, false}},
		{name: "one language", body: `{"email": "a@example.com", "language": "ja"}`, count: 1, wantActive: []bool{true, false, false}},
		{name: "unknown email", body: `{"email": "z@example.com"}`, count: 0, wantActive: []bool{true, true, false}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, shared := setupServer(t, nil)
			rec := do(t, srv, http.MethodPost, "/api/v1/unsubscribe", tt.body)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			assert.Equal(t, tt.count, decode(t, rec)["unsubscribed"])

			st, err := shared.Load(ctx)
			require.NoError(t, err)
			for i, want := range tt.wantActive {
				assert.Equal(t, want, st.Subscribers[i].Active, "subscriber %d", i+1)
			}
		})
	}

	srv, _ := setupServer(t, nil)
	rec := do(t, srv, http.MethodPost, "/api/v1/unsubscribe", `{"language": "zh"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_UnsubscribeLink(t *testing.T) {
	ctx := context.Background()
	srv, shared := setupServer(t, nil)

	rec := do(t, srv, http.MethodGet, "/unsubscribe?token=tok-a-ja", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "You have been unsubscribed")
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))

	st, err := shared.Load(ctx)
	require.NoError(t, err)
	assert.True(t, st.Subscribers[0].Active)
	assert.False(t, st.Subscribers[1].Active)

	for _, url := range []string{"/unsubscribe?token=nope", "/unsubscribe?token=", "/unsubscribe"} {
		rec = do(t, srv, http.MethodGet, url, "")
		assert.Equal(t, http.StatusNotFound, rec.Code, url)
	}
}

func TestServer_Lesson(t *testing.T) {
	srv, _ := setupServer(t, nil)

	rec := do(t, srv, http.MethodGet, "/api/v1/lessons/4", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var entry domain.DeliveryLogEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entry))
	assert.Equal(t, int64(4), entry.ID)
	assert.Equal(t, "daily-002", entry.TopicID)
	require.NotNil(t, entry.Script)
	assert.Equal(t, "Buying groceries", entry.Script.Title)

	rec = do(t, srv, http.MethodGet, "/api/v1/lessons/42", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, srv, http.MethodGet, "/api/v1/lessons/abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_RSS(t *testing.T) {
	srv, _ := setupServer(t, nil)

	rec := do(t, srv, http.MethodGet, "/rss/tok-a-zh", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/rss+xml; charset=utf-8", rec.Header().Get("Content-Type"))

	feed, err := gofeed.NewParser().ParseString(rec.Body.String())
	require.NoError(t, err)
	assert.Equal(t, "Daily Chinese lessons for a@example.com", feed.Title)
	require.Len(t, feed.Items, 2, "only sent lessons of this subscriber")

	assert.Equal(t, "#4 Buying groceries", feed.Items[0].Title)
	assert.Equal(t, "http://lessons.example.com/api/v1/lessons/4", feed.Items[0].Link)
	assert.Contains(t, feed.Items[0].Description, "intro of Buying groceries")
	assert.Contains(t, feed.Items[0].Description, "你好, nǐ hǎo, hello")
	assert.Equal(t, []string{"daily"}, feed.Items[0].Categories)
	require.NotNil(t, feed.Items[0].PublishedParsed)
	assert.True(t, testNow.Add(-24*time.Hour).Equal(*feed.Items[0].PublishedParsed))

	assert.Equal(t, "#1 Greeting a neighbor", feed.Items[1].Title)

	rec = do(t, srv, http.MethodGet, "/rss/unknown", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_RSSEmpty(t *testing.T) {
	srv, _ := setupServer(t, nil)

	rec := do(t, srv, http.MethodGet, "/rss/tok-b", "")
	require.Equal(t, http.StatusOK, rec.Code)
	feed, err := gofeed.NewParser().ParseString(rec.Body.String())
	require.NoError(t, err)
	assert.Empty(t, feed.Items)
}

func TestServer_Deliver(t *testing.T) {
	deliverer := &mocks.DelivererMock{TriggerFunc: func(_ context.Context, lang domain.Language) (delivery.Summary, error) {
		if lang == domain.LangSpanish {
			return delivery.Summary{}, errors.New("load state: disk gone")
		}
		return delivery.Summary{Language: lang, Subscribers: 2, Sent: 1, Failed: 1, LogIDs: []int64{6, 7}}, nil
	}}
	srv, _ := setupServer(t, deliverer)

	rec := do(t, srv, http.MethodPost, "/api/v1/deliver?lang=ja", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var summary delivery.Summary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, delivery.Summary{Language: domain.LangJapanese, Subscribers: 2, Sent: 1, Failed: 1, LogIDs: []int64{6, 7}}, summary)

	rec = do(t, srv, http.MethodPost, "/api/v1/deliver", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, srv, http.MethodPost, "/api/v1/deliver?lang=es", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "delivery cycle failed", decode(t, rec)["error"])

	rec = do(t, srv, http.MethodPost, "/api/v1/deliver?lang=fr", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	require.Len(t, deliverer.TriggerCalls(), 3)
	assert.Equal(t, domain.LangJapanese, deliverer.TriggerCalls()[0].Lang)
	assert.Equal(t, domain.Language(""), deliverer.TriggerCalls()[1].Lang)
}

func TestServer_DeliverDisabled(t *testing.T) {
	srv, _ := setupServer(t, nil)
	rec := do(t, srv, http.MethodPost, "/api/v1/deliver", "")
	assert.NotEqual(t, http.StatusOK, rec.Code)
}

func TestServer_Run(t *testing.T) {
	// find free port
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := listener.Addr().(*net.TCPAddr).Port
	require.NoError(t, listener.Close())

	cfg := &mocks.ConfigProviderMock{GetServerConfigFunc: func() (string, time.Duration) {
		return fmt.Sprintf("127.0.0.1:%d", port), 5 * time.Second
	}}
	srv := New(Params{Config: cfg, Store: &mocks.StoreMock{}, Version: "1.0.0"})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get(fmt.Sprintf("http://127.0.0.1:%d/ping", port))
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
