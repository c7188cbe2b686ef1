// Package content loads lesson content pools: topic catalog, vocabulary, expressions
// and per-level dialogue templates. Pools are read from an fs.FS, by default the embedded copy.
package content

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/dailylesson/lessonmail/pkg/domain"
)

//go:embed pools
var embedded embed.FS

const (
	topicsSource      = "topics.yaml"
	vocabSource       = "vocab.yaml"
	expressionsSource = "expressions.yaml"
	levelsSource      = "levels.yaml"
)

// LevelTemplates holds dialogue material for one level
type LevelTemplates struct {
	Dialogues [][]string `yaml:"dialogues"`
	Filler    []string   `yaml:"filler"`
	Questions []string   `yaml:"questions"`
	Tips      []string   `yaml:"tips"`
}

// Templates maps levels to their templates
type Templates map[domain.Level]LevelTemplates

// Embedded returns the built-in pools
func Embedded() fs.FS {
	sub, err := fs.Sub(embedded, "pools")
	if err != nil {
		panic(fmt.Sprintf("embedded pools: %v", err)) // can't happen, directory is embedded
	}
	return sub
}

// Source returns pools from dir, or the embedded pools if dir is empty
func Source(dir string) fs.FS {
	if dir == "" {
		return Embedded()
	}
	return os.DirFS(dir)
}

// Cache lazily loads pools from its file system and keeps them until Invalidate is called.
// Entries are keyed by source name, e.g. "zh-CN/vocab.yaml".
type Cache struct {
	fsys fs.FS

	mu      sync.RWMutex
	entries map[string]any
}

// NewCache makes a cache over the given file system
func NewCache(fsys fs.FS) *Cache {
	return &Cache{fsys: fsys, entries: map[string]any{}}
}

// Topics returns the topic catalog used for seeding
func (c *Cache) Topics() ([]domain.Topic, error) {
	return load[[]domain.Topic](c, topicsSource)
}

// Vocab returns the vocabulary pool of the language
func (c *Cache) Vocab(lang domain.Language) ([]domain.VocabItem, error) {
	return load[[]domain.VocabItem](c, path.Join(string(lang), vocabSource))
}

// Expressions returns the expression pool of the language
func (c *Cache) Expressions(lang domain.Language) ([]domain.ExpressionItem, error) {
	return load[[]domain.ExpressionItem](c, path.Join(string(lang), expressionsSource))
}

// Templates returns per-level dialogue templates of the language
func (c *Cache) Templates(lang domain.Language) (Templates, error) {
	return load[Templates](c, path.Join(string(lang), levelsSource))
}

// Invalidate drops all loaded entries, next access reads sources again
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.entries = map[string]any{}
	c.mu.Unlock()
}

// load returns a cached entry or reads and decodes the source
func load[T any](c *Cache, name string) (T, error) {
	c.mu.RLock()
	v, ok := c.entries[name]
	c.mu.RUnlock()
	if ok {
		return v.(T), nil
	}

	var res T
	data, err := fs.ReadFile(c.fsys, name)
	if err != nil {
		return res, fmt.Errorf("read pool %s: %w", name, err)
	}
	if err := yaml.Unmarshal(data, &res); err != nil {
		return res, fmt.Errorf("parse pool %s: %w", name, err)
	}

	c.mu.Lock()
	c.entries[name] = res
	c.mu.Unlock()
	return res, nil
}
