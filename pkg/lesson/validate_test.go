package lesson

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dailylesson/lessonmail/pkg/config"
	"github.com/dailylesson/lessonmail/pkg/domain"
)

func validScript() domain.LessonScript {
	return domain.LessonScript{
		Title:       "Ordering coffee",
		Intro:       "Learn to order coffee.",
		Level:       domain.LevelBeginner,
		Vocab:       []domain.VocabItem{{Term: "咖啡", Pinyin: "kāfēi", Meaning: "coffee"}},
		Expressions: []domain.ExpressionItem{{Text: "我要一杯咖啡。", Pinyin: "wǒ yào yì bēi kāfēi.", Meaning: "I want a coffee."}},
		Dialog:      []string{"A: 1", "B: 2", "A: 3", "B: 4", "A: 5", "B: 6"},
		Questions:   []string{"q1", "q2"},
		Tips:        []string{"t1"},
	}
}

func TestValidate(t *testing.T) {
	lc := config.DefaultLevels()[domain.LevelBeginner]

	tests := []struct {
		name   string
		modify func(s *domain.LessonScript)
		reason string
	}{
		{name: "valid", modify: func(*domain.LessonScript) {}},
		{name: "empty sequences allowed", modify: func(s *domain.LessonScript) {
			s.Vocab, s.Expressions, s.Tips = []domain.VocabItem{}, []domain.ExpressionItem{}, []string{}
		}},
		{name: "missing title", modify: func(s *domain.LessonScript) { s.Title = "" }, reason: "missing title"},
		{name: "blank intro", modify: func(s *domain.LessonScript) { s.Intro = "  \n" }, reason: "missing intro"},
		{name: "missing vocab", modify: func(s *domain.LessonScript) { s.Vocab = nil }, reason: "missing vocab"},
		{name: "missing expressions", modify: func(s *domain.LessonScript) { s.Expressions = nil }, reason: "missing expressions"},
		{name: "missing dialog", modify: func(s *domain.LessonScript) { s.Dialog = nil }, reason: "missing dialog"},
		{name: "missing questions", modify: func(s *domain.LessonScript) { s.Questions = nil }, reason: "missing questions"},
		{name: "missing tips", modify: func(s *domain.LessonScript) { s.Tips = nil }, reason: "missing tips"},
		{name: "short dialog", modify: func(s *domain.LessonScript) { s.Dialog = s.Dialog[:5] }, reason: "dialog has 5 lines, need at least 6"},
		{name: "few questions", modify: func(s *domain.LessonScript) { s.Questions = s.Questions[:1] }, reason: "1 questions, need at least 2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validScript()
			tt.modify(&s)
			res := Validate(s, lc)
			assert.Equal(t, tt.reason == "", res.Valid())
			assert.Equal(t, tt.reason, res.Reason)
			assert.Equal(t, s, res.Script)
		})
	}
}

func TestValidate_Monotonic(t *testing.T) {
	lc := config.DefaultLevels()[domain.LevelAdvanced]
	breakers := []func(s *domain.LessonScript){
		func(s *domain.LessonScript) { s.Title = "" },
		func(s *domain.LessonScript) { s.Intro = "" },
		func(s *domain.LessonScript) { s.Vocab = nil },
		func(s *domain.LessonScript) { s.Expressions = nil },
		func(s *domain.LessonScript) { s.Dialog = nil },
		func(s *domain.LessonScript) { s.Questions = nil },
		func(s *domain.LessonScript) { s.Tips = nil },
		func(s *domain.LessonScript) { s.Dialog = s.Dialog[:lc.MinDialogLines-1] },
	}

	// a rich script passes, breaking any single field makes it fail regardless of the rest
	rich := validScript()
	rich.Dialog = make([]string, 20)
	rich.Questions = make([]string, 10)
	for i := range rich.Dialog {
		rich.Dialog[i] = "line"
	}
	assert.True(t, Validate(rich, lc).Valid())

	for i, brk := range breakers {
		s := rich
		s.Dialog = append([]string(nil), rich.Dialog...)
		brk(&s)
		assert.False(t, Validate(s, lc).Valid(), "breaker %d", i)
	}
}
