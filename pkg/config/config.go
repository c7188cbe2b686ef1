package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dailylesson/lessonmail/pkg/domain"
)

//go:generate go run ../../cmd/schema/main.go schema.json

// Config holds the application configuration
type Config struct {
	Store    StoreConfig    `yaml:"store" json:"store" jsonschema:"description=Content store configuration"`
	Content  ContentConfig  `yaml:"content" json:"content" jsonschema:"description=Content pools configuration"`
	Lesson   LessonConfig   `yaml:"lesson" json:"lesson" jsonschema:"description=Lesson volume per level"`
	LLM      LLMConfig      `yaml:"llm" json:"llm" jsonschema:"description=Optional text generation service"`
	Mail     MailConfig     `yaml:"mail" json:"mail" jsonschema:"description=Mail rendering and sending"`
	Schedule ScheduleConfig `yaml:"schedule" json:"schedule" jsonschema:"description=Delivery schedule"`
	Delivery DeliveryConfig `yaml:"delivery" json:"delivery" jsonschema:"description=Delivery cycle options"`

	Server struct {
		Enabled bool          `yaml:"enabled" json:"enabled" jsonschema:"default=false,description=Enable HTTP adapter"`
		Listen  string        `yaml:"listen" json:"listen" jsonschema:"default=:8080,description=HTTP server listen address"`
		Timeout time.Duration `yaml:"timeout" json:"timeout" jsonschema:"description=HTTP server timeout (default 30s)"`
	} `yaml:"server" json:"server" jsonschema:"description=Server configuration"`
}

// StoreConfig selects and configures the content store backend
type StoreConfig struct {
	Type string `yaml:"type" json:"type" jsonschema:"enum=json,enum=sqlite,default=json,description=Store backend"`
	Path string `yaml:"path" json:"path" jsonschema:"default=data/db.json,description=JSON store file"`
	DSN  string `yaml:"dsn" json:"dsn" jsonschema:"description=SQLite connection string"`
}

// ContentConfig locates content pools
type ContentConfig struct {
	Dir   string `yaml:"dir" json:"dir" jsonschema:"description=Directory with content pools (embedded pools if empty)"`
	Watch bool   `yaml:"watch" json:"watch" jsonschema:"default=false,description=Reload pools when files change"`
}

// LevelConfig holds content volume thresholds for one level
type LevelConfig struct {
	Vocab          int `yaml:"vocab" json:"vocab" jsonschema:"minimum=1,description=Vocabulary items per lesson"`
	Expressions    int `yaml:"expressions" json:"expressions" jsonschema:"minimum=1,description=Expression items per lesson"`
	DialogLines    int `yaml:"dialog_lines" json:"dialog_lines" jsonschema:"minimum=1,description=Dialogue lines requested from the generation service"`
	MinDialogLines int `yaml:"min_dialog_lines" json:"min_dialog_lines" jsonschema:"minimum=1,description=Minimum accepted dialogue lines"`
	Questions      int `yaml:"questions" json:"questions" jsonschema:"minimum=1,description=Questions per lesson"`
	MinQuestions   int `yaml:"min_questions" json:"min_questions" jsonschema:"minimum=1,description=Minimum accepted questions"`
	Tips           int `yaml:"tips" json:"tips" jsonschema:"minimum=0,description=Tips per lesson"`
}

// LessonConfig maps levels to their thresholds
type LessonConfig struct {
	Levels map[domain.Level]LevelConfig `yaml:"levels" json:"levels" jsonschema:"description=Per level thresholds"`
}

// RetryConfig holds rate-limit retry settings
type RetryConfig struct {
	Attempts int           `yaml:"attempts" json:"attempts" jsonschema:"default=3,minimum=1,description=Attempts when rate limited"`
	Step     time.Duration `yaml:"step" json:"step" jsonschema:"description=Linear backoff step (default 5s)"`
}

// LLMConfig holds text generation settings, empty provider disables the augmented path
type LLMConfig struct {
	Provider     string        `yaml:"provider" json:"provider" jsonschema:"enum=,enum=openai,enum=anthropic,description=Generation provider"`
	Endpoint     string        `yaml:"endpoint" json:"endpoint" jsonschema:"description=API base URL"`
	APIKey       string        `yaml:"api_key" json:"api_key" jsonschema:"description=API key (can use environment variable)"`
	Model        string        `yaml:"model" json:"model" jsonschema:"description=Model name"`
	Temperature  float64       `yaml:"temperature" json:"temperature" jsonschema:"default=0.7,description=Temperature for response generation"`
	MaxTokens    int           `yaml:"max_tokens" json:"max_tokens" jsonschema:"default=2048,description=Maximum tokens in response"`
	Timeout      time.Duration `yaml:"timeout" json:"timeout" jsonschema:"description=Per request timeout (default 30s)"`
	SystemPrompt string        `yaml:"system_prompt" json:"system_prompt" jsonschema:"description=System prompt override"`
	UseJSONMode  bool          `yaml:"use_json_mode" json:"use_json_mode" jsonschema:"default=false,description=Request JSON response format (openai only)"`
	Retry        RetryConfig   `yaml:"retry" json:"retry" jsonschema:"description=Rate limit retry"`
}

// Enabled reports whether the augmented path is configured
func (c LLMConfig) Enabled() bool {
	return c.Provider != ""
}

// SMTPConfig holds mail transport settings
type SMTPConfig struct {
	Host     string `yaml:"host" json:"host" jsonschema:"description=SMTP host (lessons are printed to the log if empty)"`
	Port     int    `yaml:"port" json:"port" jsonschema:"default=587,description=SMTP port"`
	Username string `yaml:"username" json:"username" jsonschema:"description=SMTP user"`
	Password string `yaml:"password" json:"password" jsonschema:"description=SMTP password"`
}

// MailConfig holds rendering and sending settings
type MailConfig struct {
	From       string        `yaml:"from" json:"from" jsonschema:"default=no-reply@example.com,description=Sender address (named after the lesson language when it has no display name)"`
	BaseURL    string        `yaml:"base_url" json:"base_url" jsonschema:"default=http://localhost:8080,description=Public URL used for unsubscribe links"`
	RatePerSec int           `yaml:"rate_per_sec" json:"rate_per_sec" jsonschema:"default=5,description=Maximum sends per second"`
	Timeout    time.Duration `yaml:"timeout" json:"timeout" jsonschema:"description=Per send timeout (default 30s)"`
	SMTP       SMTPConfig    `yaml:"smtp" json:"smtp" jsonschema:"description=SMTP transport"`
}

// JobConfig is one scheduled delivery cycle
type JobConfig struct {
	Cron     string `yaml:"cron" json:"cron" jsonschema:"default=30 7 * * *,description=Cron spec"`
	Language string `yaml:"language" json:"language" jsonschema:"description=Language partition (all subscribers if empty)"`
}

// ScheduleConfig holds scheduler settings
type ScheduleConfig struct {
	Enabled  bool        `yaml:"enabled" json:"enabled" jsonschema:"default=true,description=Run scheduled cycles"`
	Timezone string      `yaml:"timezone" json:"timezone" jsonschema:"default=Asia/Seoul,description=Timezone for cron specs"`
	Jobs     []JobConfig `yaml:"jobs" json:"jobs" jsonschema:"description=Scheduled cycles"`
}

// DeliveryConfig holds delivery cycle options
type DeliveryConfig struct {
	Flush     string        `yaml:"flush" json:"flush" jsonschema:"enum=cycle,enum=subscriber,default=cycle,description=When to persist the store"`
	Seed      uint64        `yaml:"seed" json:"seed" jsonschema:"default=0,description=Random seed (time based if zero)"`
	Freshness time.Duration `yaml:"freshness" json:"freshness" jsonschema:"description=Window for avoiding repeated topics (default 720h)"`
}

// DefaultLevels returns the built-in thresholds
func DefaultLevels() map[domain.Level]LevelConfig {
	return map[domain.Level]LevelConfig{
		domain.LevelBeginner:     {Vocab: 6, Expressions: 3, DialogLines: 8, MinDialogLines: 6, Questions: 3, MinQuestions: 2, Tips: 2},
		domain.LevelIntermediate: {Vocab: 8, Expressions: 4, DialogLines: 10, MinDialogLines: 8, Questions: 4, MinQuestions: 3, Tips: 3},
		domain.LevelAdvanced:     {Vocab: 10, Expressions: 5, DialogLines: 12, MinDialogLines: 10, Questions: 5, MinQuestions: 4, Tips: 3},
	}
}

// Load reads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // file path comes from CLI flag
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	// expand environment variables
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	cfg.Schedule.Enabled = true
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.setDefaults()

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	// verify against embedded schema
	if err := VerifyAgainstEmbeddedSchema(&cfg); err != nil {
		// log warning but don't fail - schema validation is supplementary
		fmt.Printf("warning: schema validation failed: %v\n", err)
	}

	return &cfg, nil
}

func (c *Config) setDefaults() {
	// store
	if c.Store.Type == "" {
		c.Store.Type = "json"
	}
	if c.Store.Path == "" {
		c.Store.Path = "data/db.json"
	}
	if c.Store.DSN == "" {
		c.Store.DSN = "file:data/lessonmail.db?cache=shared&mode=rwc&_txlock=immediate"
	}

	// lesson levels, partially configured levels keep defaults for missing fields
	defaults := DefaultLevels()
	if c.Lesson.Levels == nil {
		c.Lesson.Levels = map[domain.Level]LevelConfig{}
	}
	for lvl, def := range defaults {
		c.Lesson.Levels[lvl] = mergeLevel(c.Lesson.Levels[lvl], def)
	}

	// llm
	if c.LLM.Temperature == 0 {
		c.LLM.Temperature = 0.7
	}
	if c.LLM.MaxTokens == 0 {
		c.LLM.MaxTokens = 2048
	}
	if c.LLM.Timeout == 0 {
		c.LLM.Timeout = 30 * time.Second
	}
	if c.LLM.Retry.Attempts == 0 {
		c.LLM.Retry.Attempts = 3
	}
	if c.LLM.Retry.Step == 0 {
		c.LLM.Retry.Step = 5 * time.Second
	}

	// mail
	if c.Mail.From == "" {
		c.Mail.From = "no-reply@example.com"
	}
	if c.Mail.BaseURL == "" {
		c.Mail.BaseURL = "http://localhost:8080"
	}
	if c.Mail.RatePerSec == 0 {
		c.Mail.RatePerSec = 5
	}
	if c.Mail.Timeout == 0 {
		c.Mail.Timeout = 30 * time.Second
	}
	if c.Mail.SMTP.Port == 0 {
		c.Mail.SMTP.Port = 587
	}

	// schedule
	if c.Schedule.Timezone == "" {
		c.Schedule.Timezone = "Asia/Seoul"
	}
	if len(c.Schedule.Jobs) == 0 {
		c.Schedule.Jobs = []JobConfig{{Cron: "30 7 * * *"}}
	}

	// delivery
	if c.Delivery.Flush == "" {
		c.Delivery.Flush = "cycle"
	}
	if c.Delivery.Freshness == 0 {
		c.Delivery.Freshness = 30 * 24 * time.Hour
	}

	// server
	if c.Server.Listen == "" {
		c.Server.Listen = ":8080"
	}
	if c.Server.Timeout == 0 {
		c.Server.Timeout = 30 * time.Second
	}
}

func mergeLevel(v, def LevelConfig) LevelConfig {
	if v.Vocab == 0 {
		v.Vocab = def.Vocab
	}
	if v.Expressions == 0 {
		v.Expressions = def.Expressions
	}
	if v.DialogLines == 0 {
		v.DialogLines = def.DialogLines
	}
	if v.MinDialogLines == 0 {
		v.MinDialogLines = def.MinDialogLines
	}
	if v.Questions == 0 {
		v.Questions = def.Questions
	}
	if v.MinQuestions == 0 {
		v.MinQuestions = def.MinQuestions
	}
	if v.Tips == 0 {
		v.Tips = def.Tips
	}
	return v
}

// validate checks configuration for correctness
func validate(cfg *Config) error {
	switch cfg.Store.Type {
	case "json", "sqlite":
	default:
		return fmt.Errorf("store.type must be json or sqlite, got %q", cfg.Store.Type)
	}

	for lvl, lc := range cfg.Lesson.Levels {
		if !lvl.Valid() {
			return fmt.Errorf("lesson.levels: unknown level %q", lvl)
		}
		if lc.MinDialogLines > lc.DialogLines {
			return fmt.Errorf("lesson.levels.%s: min_dialog_lines %d exceeds dialog_lines %d", lvl, lc.MinDialogLines, lc.DialogLines)
		}
		if lc.MinQuestions > lc.Questions {
			return fmt.Errorf("lesson.levels.%s: min_questions %d exceeds questions %d", lvl, lc.MinQuestions, lc.Questions)
		}
	}

	// validate LLM config
	switch cfg.LLM.Provider {
	case "":
	case "openai", "anthropic":
		if cfg.LLM.Model == "" {
			return fmt.Errorf("llm.model is required when llm.provider is set")
		}
	default:
		return fmt.Errorf("llm.provider must be openai or anthropic, got %q", cfg.LLM.Provider)
	}
	if cfg.LLM.Temperature < 0 || cfg.LLM.Temperature > 2 {
		return fmt.Errorf("llm.temperature must be between 0 and 2")
	}
	if cfg.LLM.Retry.Attempts < 1 {
		return fmt.Errorf("llm.retry.attempts must be at least 1")
	}

	if cfg.Mail.RatePerSec < 0 {
		return fmt.Errorf("mail.rate_per_sec must be non-negative")
	}

	for i, job := range cfg.Schedule.Jobs {
		if job.Cron == "" {
			return fmt.Errorf("schedule.jobs[%d].cron is required", i)
		}
		if job.Language != "" {
			if _, ok := domain.ParseLanguage(job.Language); !ok {
				return fmt.Errorf("schedule.jobs[%d]: unsupported language %q", i, job.Language)
			}
		}
	}
	if _, err := time.LoadLocation(cfg.Schedule.Timezone); err != nil {
		return fmt.Errorf("schedule.timezone: %w", err)
	}

	switch cfg.Delivery.Flush {
	case "cycle", "subscriber":
	default:
		return fmt.Errorf("delivery.flush must be cycle or subscriber, got %q", cfg.Delivery.Flush)
	}

	// validate server config
	if cfg.Server.Timeout < time.Second {
		return fmt.Errorf("server timeout must be at least 1 second")
	}

	return nil
}

// GetServerConfig returns server configuration
func (c *Config) GetServerConfig() (listen string, timeout time.Duration) {
	return c.Server.Listen, c.Server.Timeout
}

// GetLLMConfig returns LLM configuration
func (c *Config) GetLLMConfig() LLMConfig {
	return c.LLM
}

// Secrets returns configured secrets for log masking
func (c *Config) Secrets() []string {
	var res []string
	for _, s := range []string{c.LLM.APIKey, c.Mail.SMTP.Password} {
		if s != "" {
			res = append(res, s)
		}
	}
	return res
}
