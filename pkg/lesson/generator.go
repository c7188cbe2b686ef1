// Package lesson generates lesson scripts from content pools, optionally augmented by
// a text generation service. Generated scripts are validated and replaced by the local
// script when rejected.
package lesson

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/go-pkgz/lgr"
	"github.com/go-pkgz/repeater/v2"

	"github.com/dailylesson/lessonmail/pkg/config"
	"github.com/dailylesson/lessonmail/pkg/content"
	"github.com/dailylesson/lessonmail/pkg/domain"
	"github.com/dailylesson/lessonmail/pkg/llm"
)

//go:generate moq -out mocks/completer.go -pkg mocks -skip-ensure -fmt goimports . Completer
//go:generate moq -out mocks/pools.go -pkg mocks -skip-ensure -fmt goimports . Pools

// Completer sends a prompt to the text generation service
type Completer interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// Pools provides content pools of a language
type Pools interface {
	Vocab(lang domain.Language) ([]domain.VocabItem, error)
	Expressions(lang domain.Language) ([]domain.ExpressionItem, error)
	Templates(lang domain.Language) (content.Templates, error)
}

// errNotRetryable marks augmented errors which should stop the retry loop
var errNotRetryable = errors.New("not retryable")

// Params configures a Generator
type Params struct {
	Pools        Pools
	Completer    Completer // nil disables the augmented path
	Levels       map[domain.Level]config.LevelConfig
	Retry        config.RetryConfig
	SystemPrompt string
	Seed         uint64 // time based if zero
}

// Generator produces lesson scripts
type Generator struct {
	pools     Pools
	completer Completer
	levels    map[domain.Level]config.LevelConfig
	retry     config.RetryConfig
	system    string

	mu  sync.Mutex // guards rng
	rng *rand.Rand
}

// NewGenerator makes a generator, missing levels get default thresholds
func NewGenerator(p Params) *Generator {
	levels := config.DefaultLevels()
	for lvl, lc := range p.Levels {
		levels[lvl] = lc
	}
	seed := p.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano()) //nolint:gosec // not a security seed
	}
	system := p.SystemPrompt
	if system == "" {
		system = defaultSystemPrompt
	}
	retry := p.Retry
	if retry.Attempts < 1 {
		retry.Attempts = 1
	}
	return &Generator{
		pools:     p.Pools,
		completer: p.Completer,
		levels:    levels,
		retry:     retry,
		system:    system,
		rng:       rand.New(rand.NewPCG(seed, seed>>1|1)), //nolint:gosec // sampling, not crypto
	}
}

// CheckPools verifies the pools of a language can produce a valid local script for every level
func (g *Generator) CheckPools(lang domain.Language) error {
	// vocabulary and expressions may be empty for a level but the pools must load
	if _, err := g.pools.Vocab(lang); err != nil {
		return err
	}
	if _, err := g.pools.Expressions(lang); err != nil {
		return err
	}
	for _, lvl := range domain.Levels {
		if err := checkLevel(g.pools, lang, lvl, g.levels[lvl]); err != nil {
			return err
		}
	}
	return nil
}

// Generate returns a lesson script for the topic. Augmented failures never escape, the local
// script is returned instead. Errors come from content pools only: unreadable, or edited since
// CheckPools so that the local script misses the level minimums.
func (g *Generator) Generate(ctx context.Context, topic domain.Topic, level domain.Level, lang domain.Language) (domain.LessonScript, error) {
	level = domain.ParseLevel(string(level))

	local, err := g.local(topic, level, lang)
	if err != nil {
		return domain.LessonScript{}, fmt.Errorf("local script for %s: %w", topic.ID, err)
	}
	if res := Validate(local, g.levels[level]); !res.Valid() {
		return domain.LessonScript{}, fmt.Errorf("local script for %s, %s pools: %s", topic.ID, lang, res.Reason)
	}
	if g.completer == nil {
		return local, nil
	}

	candidate, err := g.augment(ctx, topic, level, lang, local)
	if err != nil {
		lgr.Printf("[WARN] augmented script for %s unavailable, using local: %v", topic.ID, err)
		return local, nil
	}

	res := Validate(candidate, g.levels[level])
	if !res.Valid() {
		lgr.Printf("[WARN] augmented script for %s rejected, using local: %s", topic.ID, res.Reason)
		return local, nil
	}
	lgr.Printf("[DEBUG] augmented script for %s accepted", topic.ID)
	return res.Script, nil
}

// augment asks the generation service for a script. Rate limited requests are retried with
// linear backoff, anything else stops the retry loop immediately.
func (g *Generator) augment(ctx context.Context, topic domain.Topic, level domain.Level, lang domain.Language,
	hint domain.LessonScript) (domain.LessonScript, error) {
	prompt := buildPrompt(topic, level, lang, g.levels[level], hint)

	var reply string
	retrier := repeater.NewBackoff(g.retry.Attempts, g.retry.Step,
		repeater.WithBackoffType(repeater.BackoffLinear), repeater.WithJitter(0))
	err := retrier.Do(ctx, func() error {
		resp, err := g.completer.Complete(ctx, g.system, prompt)
		if err != nil {
			if errors.Is(err, llm.ErrRateLimited) {
				lgr.Printf("[DEBUG] generation rate limited for %s, retrying", topic.ID)
				return err
			}
			return fmt.Errorf("%w: %w", errNotRetryable, err)
		}
		reply = resp
		return nil
	}, errNotRetryable)
	if err != nil {
		return domain.LessonScript{}, err
	}

	script, err := parseScript(reply)
	if err != nil {
		return domain.LessonScript{}, err
	}
	script = sanitize(script)
	script.Level = level
	return script, nil
}
