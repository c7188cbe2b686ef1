package lesson

import (
	"encoding/json"
	"fmt"
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/dailylesson/lessonmail/pkg/config"
	"github.com/dailylesson/lessonmail/pkg/domain"
)

// default system prompt for lesson generation
const defaultSystemPrompt = `You are an experienced language teacher writing short daily lessons delivered by email.
Lessons are practical, natural and matched to the learner's level. You always answer with a single JSON object
and nothing else: no markdown fences, no commentary.`

// buildPrompt creates the user prompt for the generation service. Local vocabulary and expressions
// are passed as preferred hints so both paths stay close in content.
func buildPrompt(topic domain.Topic, level domain.Level, lang domain.Language, lc config.LevelConfig, hint domain.LessonScript) string {
	var sb strings.Builder

	article := "a"
	if level == domain.LevelIntermediate || level == domain.LevelAdvanced {
		article = "an"
	}
	sb.WriteString(fmt.Sprintf("Write a lesson for %s %s learner of %s.\n", article, level, lang.PromptPhrase()))
	sb.WriteString(fmt.Sprintf("Topic: %s", topic.Title))
	if t := targetTitle(topic, lang); t != topic.Title {
		sb.WriteString(fmt.Sprintf(" (%s)", t))
	}
	sb.WriteString(fmt.Sprintf("\nCategory: %s\n", topic.Category))
	if topic.PromptTemplate != "" {
		sb.WriteString("Focus: ")
		sb.WriteString(strings.ReplaceAll(topic.PromptTemplate, "{title}", topic.Title))
		sb.WriteString("\n")
	}

	if len(hint.Vocab) > 0 {
		terms := make([]string, 0, len(hint.Vocab))
		for _, v := range hint.Vocab {
			terms = append(terms, fmt.Sprintf("%s (%s)", v.Term, v.Meaning))
		}
		sb.WriteString("\nPreferred vocabulary (use when it fits): ")
		sb.WriteString(strings.Join(terms, ", "))
		sb.WriteString("\n")
	}
	if len(hint.Expressions) > 0 {
		exprs := make([]string, 0, len(hint.Expressions))
		for _, e := range hint.Expressions {
			exprs = append(exprs, e.Text)
		}
		sb.WriteString("Preferred expressions (use when it fits): ")
		sb.WriteString(strings.Join(exprs, " | "))
		sb.WriteString("\n")
	}

	sb.WriteString("\nRequirements:\n")
	sb.WriteString(fmt.Sprintf("- exactly %d vocab items\n", lc.Vocab))
	sb.WriteString(fmt.Sprintf("- exactly %d expressions\n", lc.Expressions))
	sb.WriteString(fmt.Sprintf("- exactly %d dialog lines, alternating speakers, each line starts with \"A: \" or \"B: \"\n", lc.DialogLines))
	sb.WriteString(fmt.Sprintf("- exactly %d comprehension questions in the target language\n", lc.Questions))
	sb.WriteString(fmt.Sprintf("- exactly %d study tips in English\n", lc.Tips))
	sb.WriteString("- title and intro in English, intro is one or two sentences\n")

	sb.WriteString("\nRespond with a JSON object of this shape:\n")
	sb.WriteString(`{"title": "", "intro": "", "level": "` + string(level) + `",
 "vocab": [{"term": "", "pinyin": "", "meaning": ""}],
 "expressions": [{"text": "", "pinyin": "", "meaning": ""}],
 "dialog": [""], "questions": [""], "tips": [""]}`)
	return sb.String()
}

// parseScript extracts the JSON object from a reply and decodes it.
// Missing arrays stay nil so validation can tell them apart from empty ones.
func parseScript(reply string) (domain.LessonScript, error) {
	start := strings.Index(reply, "{")
	end := strings.LastIndex(reply, "}")
	if start == -1 || end == -1 || end <= start {
		return domain.LessonScript{}, fmt.Errorf("no json object found in response")
	}

	var script domain.LessonScript
	if err := json.Unmarshal([]byte(reply[start:end+1]), &script); err != nil {
		return domain.LessonScript{}, fmt.Errorf("failed to parse json response: %w", err)
	}
	return script, nil
}

// sanitize strips markup from every text field of a generated script.
// Entities are unescaped since templates escape on render.
func sanitize(s domain.LessonScript) domain.LessonScript {
	p := bluemonday.StrictPolicy()
	clean := func(v string) string { return strings.TrimSpace(html.UnescapeString(p.Sanitize(v))) }
	cleanAll := func(vv []string) []string {
		if vv == nil {
			return nil
		}
		res := make([]string, 0, len(vv))
		for _, v := range vv {
			res = append(res, clean(v))
		}
		return res
	}

	s.Title, s.Intro = clean(s.Title), clean(s.Intro)
	for i := range s.Vocab {
		v := &s.Vocab[i]
		v.Term, v.Pinyin, v.Meaning = clean(v.Term), clean(v.Pinyin), clean(v.Meaning)
	}
	for i := range s.Expressions {
		e := &s.Expressions[i]
		e.Text, e.Pinyin, e.Meaning = clean(e.Text), clean(e.Pinyin), clean(e.Meaning)
	}
	s.Dialog = cleanAll(s.Dialog)
	s.Questions = cleanAll(s.Questions)
	s.Tips = cleanAll(s.Tips)
	return s
}
