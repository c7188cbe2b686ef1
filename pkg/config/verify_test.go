package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifyAgainstEmbeddedSchema(t *testing.T) {
	validConfig := func() *Config {
		cfg := &Config{}
		cfg.setDefaults()
		return cfg
	}

	tests := []struct {
		name    string
		modify  func(c *Config)
		wantErr bool
		errMsg  string
	}{
		{name: "valid config", modify: func(*Config) {}},
		{name: "missing json path", modify: func(c *Config) { c.Store.Path = "" }, wantErr: true, errMsg: "store.path"},
		{name: "missing sqlite dsn", modify: func(c *Config) { c.Store.Type = "sqlite"; c.Store.DSN = "" }, wantErr: true, errMsg: "store.dsn"},
		{name: "missing mail from", modify: func(c *Config) { c.Mail.From = "" }, wantErr: true, errMsg: "mail.from"},
		{name: "server without listen", modify: func(c *Config) { c.Server.Enabled = true; c.Server.Listen = "" }, wantErr: true, errMsg: "server.listen"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.modify(cfg)
			err := VerifyAgainstEmbeddedSchema(cfg)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestVerifyAgainstSchema(t *testing.T) {
	cfg := &Config{}
	cfg.setDefaults()

	t.Run("missing file", func(t *testing.T) {
		err := VerifyAgainstSchema(cfg, "/non/existent/schema.json")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "read schema file")
	})

	t.Run("unknown section", func(t *testing.T) {
		schemaPath := filepath.Join(t.TempDir(), "schema.json")
		schema := `{"type":"object","properties":{"store":{},"metrics":{}}}`
		require.NoError(t, os.WriteFile(schemaPath, []byte(schema), 0o644))
		err := VerifyAgainstSchema(cfg, schemaPath)
		require.Error(t, err)
		assert.Contains(t, err.Error(), `section "metrics" missing`)
	})

	t.Run("broken schema", func(t *testing.T) {
		schemaPath := filepath.Join(t.TempDir(), "schema.json")
		require.NoError(t, os.WriteFile(schemaPath, []byte("{"), 0o644))
		err := VerifyAgainstSchema(cfg, schemaPath)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parse schema")
	})
}

func TestGenerateSchema(t *testing.T) {
	schema, err := GenerateSchema()
	require.NoError(t, err)
	require.NotNil(t, schema)
	assert.NotEmpty(t, schema.Definitions)
}

func TestEmbeddedSchemaUpToDate(t *testing.T) {
	schema, err := GenerateSchema()
	require.NoError(t, err)
	data, err := json.Marshal(schema)
	require.NoError(t, err)

	type def struct {
		Properties map[string]json.RawMessage `json:"properties"`
		Required   []string                   `json:"required"`
	}
	type doc struct {
		Ref  string         `json:"$ref"`
		Defs map[string]def `json:"$defs"`
	}
	var generated, embedded doc
	require.NoError(t, json.Unmarshal(data, &generated))
	require.NoError(t, json.Unmarshal([]byte(embeddedSchema), &embedded), "run go generate ./pkg/config")

	assert.Equal(t, generated.Ref, embedded.Ref)
	require.Len(t, embedded.Defs, len(generated.Defs), "run go generate ./pkg/config")
	for name, g := range generated.Defs {
		e, ok := embedded.Defs[name]
		require.True(t, ok, "definition %s missing, run go generate ./pkg/config", name)
		assert.Equal(t, g.Required, e.Required, name)
		for prop := range g.Properties {
			assert.Contains(t, e.Properties, prop, "%s.%s", name, prop)
		}
	}
	assert.Contains(t, embedded.Defs, "Config")
	assert.Contains(t, embedded.Defs["Config"].Properties, "server")
}
