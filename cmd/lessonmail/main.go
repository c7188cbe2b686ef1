package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/go-pkgz/lgr"
	"github.com/jessevdk/go-flags"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/dailylesson/lessonmail/pkg/config"
	"github.com/dailylesson/lessonmail/pkg/content"
	"github.com/dailylesson/lessonmail/pkg/delivery"
	"github.com/dailylesson/lessonmail/pkg/domain"
	"github.com/dailylesson/lessonmail/pkg/lesson"
	"github.com/dailylesson/lessonmail/pkg/llm"
	"github.com/dailylesson/lessonmail/pkg/mailer"
	"github.com/dailylesson/lessonmail/pkg/scheduler"
	"github.com/dailylesson/lessonmail/pkg/selector"
	"github.com/dailylesson/lessonmail/pkg/store"
	"github.com/dailylesson/lessonmail/server"
)

// Opts with all CLI options
type Opts struct {
	Config string `short:"c" long:"config" env:"CONFIG" default:"lessonmail.yml" description:"configuration file"`

	Once bool   `long:"once" description:"run one delivery cycle and exit"`
	Lang string `long:"lang" description:"language of the --once cycle, all languages if empty"`

	Init            bool   `long:"init" description:"seed the topic catalog if empty and exit"`
	Topics          string `long:"topics" description:"topics yaml for --init, built-in catalog if empty"`
	SeedSubscribers bool   `long:"seed-subscribers" description:"replace subscribers with SUBSCRIBERS_JSON and exit"`
	Subscribers     string `long:"subscribers-json" env:"SUBSCRIBERS_JSON" description:"subscribers json for --seed-subscribers"`

	// Common options
	Dbg     bool `long:"dbg" env:"DEBUG" description:"debug mode"`
	Version bool `short:"V" long:"version" description:"show version info"`
	NoColor bool `long:"no-color" env:"NO_COLOR" description:"disable color output"`
}

var revision = "unknown"

func main() {
	var opts Opts
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if opts.Version {
		fmt.Printf("Version: %s\nGolang: %s\n", revision, runtime.Version())
		os.Exit(0)
	}

	setupLog(opts.Dbg, opts.NoColor)
	log.Printf("[INFO] starting lessonmail version %s", revision)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, opts); err != nil {
		log.Printf("[ERROR] %v", err)
		os.Exit(1)
	}
	log.Print("[INFO] shutdown complete")
}

// run wires the application and runs the mode selected by opts
func run(ctx context.Context, opts Opts) error {
	cfg, err := config.Load(opts.Config)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	setupLog(opts.Dbg, opts.NoColor, cfg.Secrets()...)

	st, err := store.New(ctx, cfg.Store)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	if c, ok := st.(io.Closer); ok {
		defer func() {
			if err := c.Close(); err != nil {
				log.Printf("[WARN] failed to close store: %v", err)
			}
		}()
	}

	pools := content.NewCache(content.Source(cfg.Content.Dir))

	switch {
	case opts.Init:
		return initTopics(ctx, st, pools, opts.Topics)
	case opts.SeedSubscribers:
		n, err := store.SeedSubscribers(ctx, st, opts.Subscribers, time.Now())
		if err != nil {
			return err
		}
		log.Printf("[INFO] seeded %d subscribers", n)
		return nil
	}

	shared := store.NewShared(st)
	svc, err := makeDelivery(cfg, shared, pools)
	if err != nil {
		return err
	}
	sched, err := scheduler.New(scheduler.Params{Runner: svc, Locker: shared, Timezone: cfg.Schedule.Timezone,
		Jobs: cfg.Schedule.Jobs})
	if err != nil {
		return fmt.Errorf("failed to make scheduler: %w", err)
	}

	if opts.Once {
		return runOnce(ctx, sched, opts.Lang)
	}

	if !cfg.Schedule.Enabled && !cfg.Server.Enabled {
		return errors.New("nothing to run, enable schedule or server")
	}

	g, gctx := errgroup.WithContext(ctx)
	if cfg.Content.Watch && cfg.Content.Dir != "" {
		g.Go(func() error { return content.Watch(gctx, cfg.Content.Dir, pools) })
	}
	if cfg.Schedule.Enabled {
		g.Go(func() error {
			sched.Start(gctx)
			return nil
		})
	}
	if cfg.Server.Enabled {
		srv := server.New(server.Params{Config: cfg, Store: shared, Deliverer: sched, BaseURL: cfg.Mail.BaseURL,
			Version: revision, Debug: opts.Dbg})
		g.Go(func() error { return srv.Run(gctx) })
	}
	return g.Wait()
}

// makeDelivery builds the delivery service with its selector, generator and mailer
func makeDelivery(cfg *config.Config, st delivery.Store, pools *content.Cache) (*delivery.Service, error) {
	completer, err := llm.New(cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("failed to make llm client: %w", err)
	}
	if completer == nil {
		log.Printf("[INFO] no llm provider, lessons are built from local pools only")
	}

	gen := lesson.NewGenerator(lesson.Params{Pools: pools, Completer: completer, Levels: cfg.Lesson.Levels,
		Retry: cfg.LLM.Retry, SystemPrompt: cfg.LLM.SystemPrompt, Seed: cfg.Delivery.Seed})
	for _, lang := range domain.Languages {
		if err := gen.CheckPools(lang); err != nil {
			return nil, fmt.Errorf("content pools of %s: %w", lang, err)
		}
	}

	m, err := mailer.NewFromConfig(cfg.Mail)
	if err != nil {
		return nil, fmt.Errorf("failed to make mailer: %w", err)
	}

	return delivery.New(delivery.Params{
		Store:     st,
		Selector:  selector.New(cfg.Delivery.Seed, cfg.Delivery.Freshness),
		Generator: gen,
		Sender:    m,
		Flush:     delivery.FlushMode(cfg.Delivery.Flush),
	}), nil
}

func runOnce(ctx context.Context, sched *scheduler.Scheduler, langName string) error {
	var lang domain.Language
	if langName != "" {
		l, ok := domain.ParseLanguage(langName)
		if !ok {
			return fmt.Errorf("unsupported language %q", langName)
		}
		lang = l
	}
	summary, err := sched.Trigger(ctx, lang)
	if err != nil {
		return fmt.Errorf("delivery cycle failed: %w", err)
	}
	log.Printf("[INFO] cycle done, %d subscribers, %d sent, %d failed in %v",
		summary.Subscribers, summary.Sent, summary.Failed, summary.Duration)
	return nil
}

// initTopics seeds the catalog from the topics file, or from the content pools if file is empty
func initTopics(ctx context.Context, st store.Store, pools *content.Cache, file string) error {
	var topics []domain.Topic
	if file == "" {
		t, err := pools.Topics()
		if err != nil {
			return fmt.Errorf("failed to load topics: %w", err)
		}
		topics = t
	} else {
		data, err := os.ReadFile(file) //nolint:gosec // file path comes from CLI flag
		if err != nil {
			return fmt.Errorf("failed to read topics: %w", err)
		}
		if err := yaml.Unmarshal(data, &topics); err != nil {
			return fmt.Errorf("failed to parse topics %s: %w", file, err)
		}
	}

	n, err := store.SeedTopics(ctx, st, topics)
	if err != nil {
		return err
	}
	if n == 0 {
		log.Printf("[INFO] topic catalog is not empty, nothing seeded")
		return nil
	}
	log.Printf("[INFO] seeded %d topics", n)
	return nil
}

func setupLog(dbg, noColor bool, secs ...string) {
	logOpts := []lgr.Option{lgr.Msec}
	if dbg {
		logOpts = []lgr.Option{lgr.Debug, lgr.Msec, lgr.LevelBraces, lgr.StackTraceOnError}
	}

	if !noColor {
		colorizer := lgr.Mapper{
			ErrorFunc:  func(s string) string { return color.New(color.FgHiRed).Sprint(s) },
			WarnFunc:   func(s string) string { return color.New(color.FgRed).Sprint(s) },
			InfoFunc:   func(s string) string { return color.New(color.FgYellow).Sprint(s) },
			DebugFunc:  func(s string) string { return color.New(color.FgWhite).Sprint(s) },
			CallerFunc: func(s string) string { return color.New(color.FgBlue).Sprint(s) },
			TimeFunc:   func(s string) string { return color.New(color.FgCyan).Sprint(s) },
		}
		logOpts = append(logOpts, lgr.Map(colorizer))
	}
	if len(secs) > 0 {
		logOpts = append(logOpts, lgr.Secret(secs...))
	}
	lgr.SetupStdLogger(logOpts...)
	lgr.Setup(logOpts...)
}
