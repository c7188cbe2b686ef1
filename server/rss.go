package server

import (
	"encoding/xml"
	"fmt"
	"log"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/dailylesson/lessonmail/pkg/domain"
	"github.com/dailylesson/lessonmail/pkg/store"
)

const rssLimit = 50

type rssFeed struct {
	XMLName xml.Name    `xml:"rss"`
	Version string      `xml:"version,attr"`
	Atom    string      `xml:"xmlns:atom,attr"`
	Channel *rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title         string     `xml:"title"`
	Link          string     `xml:"link"`
	Description   string     `xml:"description"`
	AtomLink      *atomLink  `xml:"http://www.w3.org/2005/Atom link"`
	LastBuildDate string     `xml:"lastBuildDate"`
	Items         []*rssItem `xml:"item"`
}

type atomLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr"`
	Type string `xml:"type,attr"`
}

type rssItem struct {
	Title       string  `xml:"title"`
	Link        string  `xml:"link"`
	GUID        rssGUID `xml:"guid"`
	Description string  `xml:"description"`
	PubDate     string  `xml:"pubDate"`
	Category    string  `xml:"category,omitempty"`
}

type rssGUID struct {
	Value       string `xml:",chardata"`
	IsPermaLink bool   `xml:"isPermaLink,attr"`
}

// rssHandler serves the lessons delivered to the subscriber owning the token, newest first
func (s *Server) rssHandler(w http.ResponseWriter, r *http.Request) {
	token := r.PathValue("token")

	st, err := s.store.Load(r.Context())
	if err != nil {
		log.Printf("[ERROR] failed to load state for RSS: %v", err)
		http.Error(w, "Failed to generate RSS feed", http.StatusInternalServerError)
		return
	}
	sub, err := st.SubscriberByToken(token)
	if err != nil {
		http.Error(w, "Unknown feed", http.StatusNotFound)
		return
	}

	rss, err := s.lessonsRSS(*sub, &st)
	if err != nil {
		log.Printf("[ERROR] failed to generate RSS feed: %v", err)
		http.Error(w, "Failed to generate RSS feed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/rss+xml; charset=utf-8")
	if _, err := w.Write([]byte(rss)); err != nil {
		log.Printf("[ERROR] failed to write RSS response: %v", err)
	}
}

// lessonsRSS makes an RSS 2.0 document from subscriber's sent lessons
func (s *Server) lessonsRSS(sub domain.Subscriber, st *store.State) (string, error) {
	topics := map[string]domain.Topic{}
	for _, t := range st.Topics {
		topics[t.ID] = t
	}

	var entries []domain.DeliveryLogEntry
	for _, l := range st.EmailLogs {
		if l.SubscriberID == sub.ID && l.Status == domain.StatusSent && l.Script != nil {
			entries = append(entries, l)
		}
	}
	slices.Reverse(entries)
	if len(entries) > rssLimit {
		entries = entries[:rssLimit]
	}

	lang := sub.Lang()
	items := make([]*rssItem, 0, len(entries))
	for _, e := range entries {
		link := fmt.Sprintf("%s/api/v1/lessons/%d", s.baseURL, e.ID)
		items = append(items, &rssItem{
			Title:       fmt.Sprintf("#%d %s", e.ID, e.Script.Title),
			Link:        link,
			GUID:        rssGUID{Value: link, IsPermaLink: true},
			Description: lessonSummary(*e.Script, lang),
			PubDate:     e.SentAt.Format(time.RFC1123Z),
			Category:    topics[e.TopicID].Category,
		})
	}

	feed := &rssFeed{
		Version: "2.0",
		Atom:    "http://www.w3.org/2005/Atom",
		Channel: &rssChannel{
			Title:         fmt.Sprintf("%s lessons for %s", lang.SubjectPrefix(), sub.Email),
			Link:          s.baseURL + "/",
			Description:   fmt.Sprintf("%s lessons, level %s", lang.DisplayName(), sub.Level),
			AtomLink:      &atomLink{Href: s.baseURL + "/rss/" + sub.UnsubscribeToken, Rel: "self", Type: "application/rss+xml"},
			LastBuildDate: s.now().Format(time.RFC1123Z),
			Items:         items,
		},
	}

	output, err := xml.MarshalIndent(feed, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal RSS: %w", err)
	}
	return xml.Header + string(output), nil
}

// lessonSummary is the intro followed by the vocabulary list
func lessonSummary(script domain.LessonScript, lang domain.Language) string {
	var b strings.Builder
	b.WriteString(script.Intro)
	if len(script.Vocab) > 0 {
		fmt.Fprintf(&b, "\n\nVocabulary (term, %s, meaning):", strings.ToLower(lang.PronunciationLabel()))
		for _, v := range script.Vocab {
			fmt.Fprintf(&b, "\n%s, %s, %s", v.Term, v.Pinyin, v.Meaning)
		}
	}
	return b.String()
}
