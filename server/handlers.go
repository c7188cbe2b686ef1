package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/mail"
	"strconv"
	"strings"

	"github.com/go-pkgz/rest"
	"github.com/google/uuid"

	"github.com/dailylesson/lessonmail/pkg/domain"
	"github.com/dailylesson/lessonmail/pkg/store"
)

// subscription defaults for fields missing in a subscribe request
const (
	defaultTopics   = "daily"
	defaultTimezone = "Asia/Seoul"
)

type subscribeRequest struct {
	Email    string `json:"email"`
	Level    string `json:"level"`
	Topics   string `json:"topics"`
	Timezone string `json:"timezone"`
	Language string `json:"language"`
}

type unsubscribeRequest struct {
	Email    string `json:"email"`
	Language string `json:"language"`
}

// statusHandler returns server status with store counters and scheduled jobs
func (s *Server) statusHandler(w http.ResponseWriter, r *http.Request) {
	st, err := s.store.Load(r.Context())
	if err != nil {
		log.Printf("[ERROR] failed to load state: %v", err)
		renderError(w, r, errors.New("failed to load state"), http.StatusInternalServerError)
		return
	}

	active, sent, failed := 0, 0, 0
	for _, sub := range st.Subscribers {
		if sub.Active {
			active++
		}
	}
	for _, l := range st.EmailLogs {
		if l.Status == domain.StatusSent {
			sent++
		} else {
			failed++
		}
	}

	status := rest.JSON{
		"status":  "ok",
		"version": s.version,
		"time":    s.now().UTC(),
		"subscribers": rest.JSON{
			"total":  len(st.Subscribers),
			"active": active,
		},
		"topics":     len(st.Topics),
		"deliveries": rest.JSON{"sent": sent, "failed": failed},
	}
	if s.deliverer != nil {
		status["jobs"] = s.deliverer.Jobs()
	}
	renderJSON(w, r, http.StatusOK, status)
}

// topicsHandler returns the topic catalog, optionally filtered by ?category=
func (s *Server) topicsHandler(w http.ResponseWriter, r *http.Request) {
	st, err := s.store.Load(r.Context())
	if err != nil {
		log.Printf("[ERROR] failed to load state: %v", err)
		renderError(w, r, errors.New("failed to load topics"), http.StatusInternalServerError)
		return
	}

	category := r.URL.Query().Get("category")
	topics := make([]domain.Topic, 0, len(st.Topics))
	for _, t := range st.Topics {
		if category == "" || t.Category == category {
			topics = append(topics, t)
		}
	}
	renderJSON(w, r, http.StatusOK, topics)
}

// subscribeHandler creates a subscription or reactivates and updates an existing one.
// A subscription is identified by email and language.
func (s *Server) subscribeHandler(w http.ResponseWriter, r *http.Request) {
	var req subscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		renderError(w, r, errors.New("invalid request body"), http.StatusBadRequest)
		return
	}
	email, err := parseEmail(req.Email)
	if err != nil {
		renderError(w, r, err, http.StatusBadRequest)
		return
	}
	lang := domain.PrimaryLanguage
	if req.Language != "" {
		l, ok := domain.ParseLanguage(req.Language)
		if !ok {
			renderError(w, r, fmt.Errorf("unsupported language %q", req.Language), http.StatusBadRequest)
			return
		}
		lang = l
	}
	if req.Topics == "" {
		req.Topics = defaultTopics
	}
	if req.Timezone == "" {
		req.Timezone = defaultTimezone
	}

	var sub domain.Subscriber
	created := false
	err = s.store.Update(r.Context(), func(st *store.State) error {
		for i := range st.Subscribers {
			existing := &st.Subscribers[i]
			if existing.Email != email || existing.Lang() != lang {
				continue
			}
			existing.Level = domain.ParseLevel(req.Level)
			existing.Topics = req.Topics
			existing.Timezone = req.Timezone
			existing.Active = true
			if existing.UnsubscribeToken == "" {
				existing.UnsubscribeToken = uuid.NewString()
			}
			sub = *existing
			return nil
		}

		sub = domain.Subscriber{
			ID:               st.NextSubscriberID(),
			Email:            email,
			Level:            domain.ParseLevel(req.Level),
			Language:         lang,
			Topics:           req.Topics,
			Timezone:         req.Timezone,
			Active:           true,
			UnsubscribeToken: uuid.NewString(),
			CreatedAt:        s.now().UTC(),
		}
		st.Subscribers = append(st.Subscribers, sub)
		created = true
		return nil
	})
	if err != nil {
		log.Printf("[ERROR] failed to subscribe %s: %v", email, err)
		renderError(w, r, errors.New("failed to subscribe"), http.StatusInternalServerError)
		return
	}

	log.Printf("[INFO] subscribed %s to %s lessons, new: %v", email, lang, created)
	code := http.StatusOK
	if created {
		code = http.StatusCreated
	}
	renderJSON(w, r, code, rest.JSON{"ok": true, "id": sub.ID, "language": sub.Language, "level": sub.Level,
		"topics": sub.Topics, "rss": s.baseURL + "/rss/" + sub.UnsubscribeToken})
}

// unsubscribeHandler deactivates subscriptions of the email, only the given language if set.
// Unknown emails are not an error.
func (s *Server) unsubscribeHandler(w http.ResponseWriter, r *http.Request) {
	var req unsubscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		renderError(w, r, errors.New("invalid request body"), http.StatusBadRequest)
		return
	}
	email, err := parseEmail(req.Email)
	if err != nil {
		renderError(w, r, err, http.StatusBadRequest)
		return
	}
	var lang domain.Language
	if req.Language != "" {
		l, ok := domain.ParseLanguage(req.Language)
		if !ok {
			renderError(w, r, fmt.Errorf("unsupported language %q", req.Language), http.StatusBadRequest)
			return
		}
		lang = l
	}

	count := 0
	err = s.store.Update(r.Context(), func(st *store.State) error {
		for i := range st.Subscribers {
			sub := &st.Subscribers[i]
			if sub.Email != email || (lang != "" && sub.Lang() != lang) || !sub.Active {
				continue
			}
			sub.Active = false
			count++
		}
		return nil
	})
	if err != nil {
		log.Printf("[ERROR] failed to unsubscribe %s: %v", email, err)
		renderError(w, r, errors.New("failed to unsubscribe"), http.StatusInternalServerError)
		return
	}

	log.Printf("[INFO] unsubscribed %s, %d subscriptions", email, count)
	renderJSON(w, r, http.StatusOK, rest.JSON{"ok": true, "unsubscribed": count})
}

// unsubscribeLinkHandler handles the link from lesson mails
func (s *Server) unsubscribeLinkHandler(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	var email string
	err := s.store.Update(r.Context(), func(st *store.State) error {
		sub, err := st.SubscriberByToken(token)
		if err != nil {
			return err
		}
		sub.Active = false
		email = sub.Email
		return nil
	})
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "Unknown unsubscribe link", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Printf("[ERROR] failed to unsubscribe by token: %v", err)
		http.Error(w, "Failed to unsubscribe", http.StatusInternalServerError)
		return
	}

	log.Printf("[INFO] unsubscribed %s by link", email)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := w.Write([]byte(unsubscribedPage)); err != nil {
		log.Printf("[WARN] failed to write response: %v", err)
	}
}

const unsubscribedPage = `<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>Unsubscribed</title></head>
<body style="font-family: Arial, sans-serif;"><p>You have been unsubscribed and will not receive more lessons.</p></body></html>
`

// lessonHandler returns one delivery log entry with its lesson script
func (s *Server) lessonHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		renderError(w, r, errors.New("invalid lesson id"), http.StatusBadRequest)
		return
	}

	st, err := s.store.Load(r.Context())
	if err != nil {
		log.Printf("[ERROR] failed to load state: %v", err)
		renderError(w, r, errors.New("failed to load lesson"), http.StatusInternalServerError)
		return
	}
	entry, err := st.LogEntry(id)
	if err != nil {
		renderError(w, r, errors.New("lesson not found"), http.StatusNotFound)
		return
	}
	renderJSON(w, r, http.StatusOK, entry)
}

// deliverHandler runs one delivery cycle now, for ?lang= or all languages
func (s *Server) deliverHandler(w http.ResponseWriter, r *http.Request) {
	var lang domain.Language
	if v := r.URL.Query().Get("lang"); v != "" {
		l, ok := domain.ParseLanguage(v)
		if !ok {
			renderError(w, r, fmt.Errorf("unsupported language %q", v), http.StatusBadRequest)
			return
		}
		lang = l
	}

	summary, err := s.deliverer.Trigger(r.Context(), lang)
	if err != nil {
		log.Printf("[ERROR] on-demand delivery failed: %v", err)
		renderError(w, r, errors.New("delivery cycle failed"), http.StatusInternalServerError)
		return
	}
	renderJSON(w, r, http.StatusOK, summary)
}

func parseEmail(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", errors.New("email required")
	}
	addr, err := mail.ParseAddress(s)
	if err != nil {
		return "", fmt.Errorf("invalid email %q", s)
	}
	return addr.Address, nil
}
