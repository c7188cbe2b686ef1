// Package scheduler runs delivery cycles on cron schedules.
// Cycles never overlap: each job skips a tick while its previous run is active, and all cycles,
// scheduled or triggered, are serialized by one lock shared with other writers of the store.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-pkgz/lgr"
	"github.com/robfig/cron/v3"

	"github.com/dailylesson/lessonmail/pkg/config"
	"github.com/dailylesson/lessonmail/pkg/delivery"
	"github.com/dailylesson/lessonmail/pkg/domain"
)

//go:generate moq -out mocks/runner.go -pkg mocks -skip-ensure -fmt goimports . Runner

// Runner runs one delivery cycle
type Runner interface {
	RunCycle(ctx context.Context, lang domain.Language) (delivery.Summary, error)
}

// Params configures a Scheduler
type Params struct {
	Runner   Runner
	Locker   sync.Locker // serializes cycles with other store writers, a private mutex if nil
	Timezone string
	Jobs     []config.JobConfig
}

// Scheduler triggers delivery cycles
type Scheduler struct {
	runner Runner
	locker sync.Locker
	loc    *time.Location
	cron   *cron.Cron
	jobs   []job

	mu      sync.Mutex
	started bool
}

// Job describes a scheduled cycle
type Job struct {
	Spec     string          `json:"spec"`
	Language domain.Language `json:"language,omitempty"`
	Next     time.Time       `json:"next,omitzero"`
}

type job struct {
	id   cron.EntryID
	spec string
	lang domain.Language
}

// cronLogger passes cron errors to lgr
type cronLogger struct{}

func (cronLogger) Printf(format string, args ...any) {
	lgr.Printf("[WARN] cron: "+format, args...)
}

// New makes a scheduler with one cron entry per job, specs are evaluated in the timezone
func New(p Params) (*Scheduler, error) {
	if p.Runner == nil {
		return nil, errors.New("no runner")
	}
	loc := time.Local
	if p.Timezone != "" {
		var err error
		if loc, err = time.LoadLocation(p.Timezone); err != nil {
			return nil, fmt.Errorf("load timezone %q: %w", p.Timezone, err)
		}
	}
	if p.Locker == nil {
		p.Locker = &sync.Mutex{}
	}

	logger := cron.PrintfLogger(cronLogger{})
	s := &Scheduler{
		runner: p.Runner,
		locker: p.Locker,
		loc:    loc,
		cron:   cron.New(cron.WithLocation(loc), cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger))),
	}

	for _, jc := range p.Jobs {
		var lang domain.Language
		if jc.Language != "" {
			l, ok := domain.ParseLanguage(jc.Language)
			if !ok {
				return nil, fmt.Errorf("job %q: unknown language %q", jc.Cron, jc.Language)
			}
			lang = l
		}
		id, err := s.cron.AddFunc(jc.Cron, func() { s.scheduled(lang) })
		if err != nil {
			return nil, fmt.Errorf("job %q: %w", jc.Cron, err)
		}
		s.jobs = append(s.jobs, job{id: id, spec: jc.Cron, lang: lang})
	}
	return s, nil
}

// Start runs the cron loop until ctx is canceled, then waits for a running cycle to finish
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.mu.Unlock()

	s.cron.Start()
	lgr.Printf("[INFO] scheduler started with %d jobs, timezone %s", len(s.jobs), s.loc)
	for _, j := range s.Jobs() {
		lgr.Printf("[INFO] job %q, language %q, next run %s", j.Spec, j.Language, j.Next.Format(time.RFC3339))
	}

	<-ctx.Done()
	lgr.Printf("[INFO] stopping scheduler...")
	<-s.cron.Stop().Done()
	lgr.Printf("[INFO] scheduler stopped")
}

// Trigger runs one cycle for the language now, all languages if empty.
// The cycle is not canceled with ctx once started.
func (s *Scheduler) Trigger(ctx context.Context, lang domain.Language) (delivery.Summary, error) {
	s.locker.Lock()
	defer s.locker.Unlock()
	return s.runner.RunCycle(context.WithoutCancel(ctx), lang)
}

// Jobs returns scheduled jobs with their next run time, zero before Start
func (s *Scheduler) Jobs() []Job {
	res := make([]Job, 0, len(s.jobs))
	for _, j := range s.jobs {
		res = append(res, Job{Spec: j.spec, Language: j.lang, Next: s.cron.Entry(j.id).Next})
	}
	return res
}

func (s *Scheduler) scheduled(lang domain.Language) {
	lgr.Printf("[DEBUG] scheduled cycle for language %q", lang)
	if _, err := s.Trigger(context.Background(), lang); err != nil {
		lgr.Printf("[ERROR] scheduled delivery cycle failed: %v", err)
	}
}
