package mailer

import (
	"bytes"
	"embed"
	"fmt"
	htmltemplate "html/template"
	"net/url"
	"strings"
	texttemplate "text/template"

	"github.com/dailylesson/lessonmail/pkg/domain"
)

//go:embed templates
var templatesFS embed.FS

// Message is a rendered lesson mail
type Message struct {
	To             string
	Subject        string
	HTML           string
	Text           string
	UnsubscribeURL string
}

// Renderer turns a lesson script into a mail message
type Renderer struct {
	baseURL string
	html    *htmltemplate.Template
	text    *texttemplate.Template
}

type lessonView struct {
	Number             int64
	Language           string
	PronunciationLabel string
	Level              domain.Level
	Title              string
	Intro              string
	Vocab              []domain.VocabItem
	Expressions        []domain.ExpressionItem
	Dialog             []string
	Questions          []string
	Tips               []string
	Email              string
	UnsubscribeURL     string
}

// NewRenderer parses the embedded templates. baseURL is the public address used for unsubscribe links.
func NewRenderer(baseURL string) (*Renderer, error) {
	html, err := htmltemplate.ParseFS(templatesFS, "templates/lesson.html")
	if err != nil {
		return nil, fmt.Errorf("parse html template: %w", err)
	}
	text, err := texttemplate.New("lesson.txt").
		Funcs(texttemplate.FuncMap{"inc": func(i int) int { return i + 1 }}).
		ParseFS(templatesFS, "templates/lesson.txt")
	if err != nil {
		return nil, fmt.Errorf("parse text template: %w", err)
	}
	return &Renderer{baseURL: strings.TrimRight(baseURL, "/"), html: html, text: text}, nil
}

// Render builds the message for lesson number logID sent to the subscriber
func (r *Renderer) Render(sub domain.Subscriber, script domain.LessonScript, logID int64) (Message, error) {
	lang := sub.Lang()
	view := lessonView{
		Number:             logID,
		Language:           lang.DisplayName(),
		PronunciationLabel: lang.PronunciationLabel(),
		Level:              script.Level,
		Title:              script.Title,
		Intro:              script.Intro,
		Vocab:              script.Vocab,
		Expressions:        script.Expressions,
		Dialog:             script.Dialog,
		Questions:          script.Questions,
		Tips:               script.Tips,
		Email:              sub.Email,
		UnsubscribeURL:     r.UnsubscribeURL(sub.UnsubscribeToken),
	}

	var html, text bytes.Buffer
	if err := r.html.Execute(&html, view); err != nil {
		return Message{}, fmt.Errorf("render html: %w", err)
	}
	if err := r.text.Execute(&text, view); err != nil {
		return Message{}, fmt.Errorf("render text: %w", err)
	}

	return Message{
		To:             sub.Email,
		Subject:        Subject(lang, script.Title),
		HTML:           html.String(),
		Text:           text.String(),
		UnsubscribeURL: view.UnsubscribeURL,
	}, nil
}

// UnsubscribeURL returns the one-click unsubscribe link, empty without a token or base url
func (r *Renderer) UnsubscribeURL(token string) string {
	if token == "" || r.baseURL == "" {
		return ""
	}
	return r.baseURL + "/unsubscribe?token=" + url.QueryEscape(token)
}

// Subject makes the mail subject, e.g. "Daily Chinese: Ordering coffee"
func Subject(lang domain.Language, title string) string {
	return lang.SubjectPrefix() + ": " + title
}
