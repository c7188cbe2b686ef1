package lesson

import (
	"fmt"
	"math/rand/v2"
	"regexp"
	"strconv"

	"github.com/dailylesson/lessonmail/pkg/config"
	"github.com/dailylesson/lessonmail/pkg/content"
	"github.com/dailylesson/lessonmail/pkg/domain"
)

const (
	vocabPlaceholders      = 6
	expressionPlaceholders = 4
)

var placeholderRe = regexp.MustCompile(`\{[a-zA-Z0-9_]+\}`)

// scope tells which part of the priority chain a pool item belongs to
type scope struct {
	topicID  string
	category string
	level    domain.Level
}

func vocabScope(v domain.VocabItem) scope { return scope{v.TopicID, v.Category, v.Level} }

func exprScope(e domain.ExpressionItem) scope { return scope{e.TopicID, e.Category, e.Level} }

// local builds a script from content pools only
func (g *Generator) local(topic domain.Topic, level domain.Level, lang domain.Language) (domain.LessonScript, error) {
	lc := g.levels[level]

	vocabPool, err := g.pools.Vocab(lang)
	if err != nil {
		return domain.LessonScript{}, err
	}
	exprPool, err := g.pools.Expressions(lang)
	if err != nil {
		return domain.LessonScript{}, err
	}
	tmpl, err := levelTemplates(g.pools, lang, level)
	if err != nil {
		return domain.LessonScript{}, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	vocab := sample(g.rng, candidates(vocabPool, vocabScope, topic, level), lc.Vocab)
	expressions := sample(g.rng, candidates(exprPool, exprScope, topic, level), lc.Expressions)
	vars := placeholders(topic, lang, vocab, expressions)

	var dialog []string
	if len(tmpl.Dialogues) > 0 {
		dialog = fill(tmpl.Dialogues[g.rng.IntN(len(tmpl.Dialogues))], vars)
	}
	if missing := lc.MinDialogLines - len(dialog); missing > 0 {
		dialog = append(dialog, fill(sample(g.rng, tmpl.Filler, missing), vars)...)
	}

	return domain.LessonScript{
		Title:       topic.Title,
		Intro:       intro(topic, level, lang),
		Level:       level,
		Vocab:       vocab,
		Expressions: expressions,
		Dialog:      dialog,
		Questions:   fill(sample(g.rng, tmpl.Questions, lc.Questions), vars),
		Tips:        fill(sample(g.rng, tmpl.Tips, lc.Tips), vars),
	}, nil
}

// candidates applies the priority chain: topic overrides, then category overrides,
// then global items. The first non-empty source wins. Levels without items of
// their own fall back to beginner items.
func candidates[T any](items []T, scopeOf func(T) scope, topic domain.Topic, level domain.Level) []T {
	var byTopic, byCategory, global []T
	for _, it := range items {
		s := scopeOf(it)
		if s.level != "" && domain.ParseLevel(string(s.level)) != level {
			continue
		}
		switch {
		case s.topicID != "":
			if s.topicID == topic.ID {
				byTopic = append(byTopic, it)
			}
		case s.category != "":
			if s.category == topic.Category {
				byCategory = append(byCategory, it)
			}
		default:
			global = append(global, it)
		}
	}

	for _, pool := range [][]T{byTopic, byCategory, global} {
		if len(pool) > 0 {
			return pool
		}
	}
	if level != domain.LevelBeginner {
		return candidates(items, scopeOf, topic, domain.LevelBeginner)
	}
	return nil
}

// sample draws up to n items uniformly without replacement, never returns nil
func sample[T any](rng *rand.Rand, items []T, n int) []T {
	n = min(n, len(items))
	res := make([]T, 0, max(n, 0))
	for _, i := range rng.Perm(len(items))[:max(n, 0)] {
		res = append(res, items[i])
	}
	return res
}

// placeholders makes substitution values: topic title in source and target script,
// first six vocabulary terms and first four expressions
func placeholders(topic domain.Topic, lang domain.Language, vocab []domain.VocabItem, expr []domain.ExpressionItem) map[string]string {
	res := map[string]string{
		"{title}":        topic.Title,
		"{title_target}": targetTitle(topic, lang),
	}
	for i := 0; i < vocabPlaceholders && i < len(vocab); i++ {
		res["{v"+strconv.Itoa(i+1)+"}"] = vocab[i].Term
	}
	for i := 0; i < expressionPlaceholders && i < len(expr); i++ {
		res["{e"+strconv.Itoa(i+1)+"}"] = expr[i].Text
	}
	return res
}

// fill substitutes placeholders in every line, unknown placeholders become empty
func fill(lines []string, vars map[string]string) []string {
	res := make([]string, 0, len(lines))
	for _, l := range lines {
		res = append(res, placeholderRe.ReplaceAllStringFunc(l, func(p string) string { return vars[p] }))
	}
	return res
}

// targetTitle is the topic title in the target script, the zh title is chinese only
func targetTitle(topic domain.Topic, lang domain.Language) string {
	if lang == domain.LangChinese && topic.ZhTitle != "" {
		return topic.ZhTitle
	}
	return topic.Title
}

func intro(topic domain.Topic, level domain.Level, lang domain.Language) string {
	title := topic.Title
	if t := targetTitle(topic, lang); t != title {
		title = fmt.Sprintf("%s (%s)", title, t)
	}
	return fmt.Sprintf("Today's %s lesson is about %s. Level: %s. Read the dialogue aloud, then try the questions.",
		lang.DisplayName(), title, level)
}

// levelTemplates returns templates of the level, beginner templates if the level has none
func levelTemplates(pools Pools, lang domain.Language, level domain.Level) (content.LevelTemplates, error) {
	tmpl, err := pools.Templates(lang)
	if err != nil {
		return content.LevelTemplates{}, err
	}
	if lt, ok := tmpl[level]; ok {
		return lt, nil
	}
	if lt, ok := tmpl[domain.LevelBeginner]; ok {
		return lt, nil
	}
	return content.LevelTemplates{}, fmt.Errorf("no %s templates for %s", level, lang)
}

// checkLevel verifies the pools can always produce a valid script for the level
func checkLevel(pools Pools, lang domain.Language, level domain.Level, lc config.LevelConfig) error {
	tmpl, err := levelTemplates(pools, lang, level)
	if err != nil {
		return err
	}
	if len(tmpl.Dialogues) == 0 {
		return fmt.Errorf("%s/%s: no dialogue templates", lang, level)
	}
	for i, d := range tmpl.Dialogues {
		if len(d)+len(tmpl.Filler) < lc.MinDialogLines {
			return fmt.Errorf("%s/%s: dialogue %d has %d lines and %d filler lines, need %d",
				lang, level, i, len(d), len(tmpl.Filler), lc.MinDialogLines)
		}
	}
	if n := min(len(tmpl.Questions), lc.Questions); n < lc.MinQuestions {
		return fmt.Errorf("%s/%s: %d questions, need %d", lang, level, n, lc.MinQuestions)
	}
	return nil
}
