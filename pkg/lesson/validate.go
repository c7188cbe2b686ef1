package lesson

import (
	"fmt"
	"strings"

	"github.com/dailylesson/lessonmail/pkg/config"
	"github.com/dailylesson/lessonmail/pkg/domain"
)

// Result is the outcome of script validation, Reason is empty for accepted scripts
type Result struct {
	Script domain.LessonScript
	Reason string
}

// Valid reports whether the script was accepted
func (r Result) Valid() bool { return r.Reason == "" }

// Validate checks a candidate script against the level thresholds.
// Sequences must be present (nil means missing), empty sequences are allowed
// except where a minimum applies.
func Validate(s domain.LessonScript, lc config.LevelConfig) Result {
	invalid := func(format string, args ...any) Result {
		return Result{Script: s, Reason: fmt.Sprintf(format, args...)}
	}

	switch {
	case strings.TrimSpace(s.Title) == "":
		return invalid("missing title")
	case strings.TrimSpace(s.Intro) == "":
		return invalid("missing intro")
	case s.Vocab == nil:
		return invalid("missing vocab")
	case s.Expressions == nil:
		return invalid("missing expressions")
	case s.Dialog == nil:
		return invalid("missing dialog")
	case s.Questions == nil:
		return invalid("missing questions")
	case s.Tips == nil:
		return invalid("missing tips")
	case len(s.Dialog) < lc.MinDialogLines:
		return invalid("dialog has %d lines, need at least %d", len(s.Dialog), lc.MinDialogLines)
	case len(s.Questions) < lc.MinQuestions:
		return invalid("%d questions, need at least %d", len(s.Questions), lc.MinQuestions)
	}
	return Result{Script: s}
}
