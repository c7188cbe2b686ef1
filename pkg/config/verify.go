package config

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"

	"github.com/invopop/jsonschema"
)

//go:embed schema.json
var embeddedSchema string

// VerifyAgainstEmbeddedSchema validates the config against the embedded JSON schema
func VerifyAgainstEmbeddedSchema(cfg *Config) error {
	return verify(cfg, []byte(embeddedSchema))
}

// VerifyAgainstSchema validates the config against the JSON schema from file
func VerifyAgainstSchema(cfg *Config, schemaPath string) error {
	schemaData, err := os.ReadFile(schemaPath) //nolint:gosec // schema path is controlled by us
	if err != nil {
		return fmt.Errorf("read schema file: %w", err)
	}
	return verify(cfg, schemaData)
}

func verify(cfg *Config, schemaData []byte) error {
	// parse schema
	var schema map[string]any
	if err := json.Unmarshal(schemaData, &schema); err != nil {
		return fmt.Errorf("parse schema: %w", err)
	}

	// convert config to JSON for validation
	configData, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	var configMap map[string]any
	if err := json.Unmarshal(configData, &configMap); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}

	// every top-level section described by the schema must be present in the config
	if props, ok := schemaProperties(schema); ok {
		for name := range props {
			if _, found := configMap[name]; !found {
				return fmt.Errorf("validation failed: section %q missing", name)
			}
		}
	}

	if err := validateRequiredFields(cfg); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	return nil
}

// schemaProperties returns root properties, following a top-level $ref into $defs
func schemaProperties(schema map[string]any) (map[string]any, bool) {
	if props, ok := schema["properties"].(map[string]any); ok {
		return props, true
	}
	defs, ok := schema["$defs"].(map[string]any)
	if !ok {
		return nil, false
	}
	root, ok := defs["Config"].(map[string]any)
	if !ok {
		return nil, false
	}
	props, ok := root["properties"].(map[string]any)
	return props, ok
}

// validateRequiredFields performs basic validation of required fields
func validateRequiredFields(cfg *Config) error {
	if cfg.Store.Type == "json" && cfg.Store.Path == "" {
		return fmt.Errorf("store.path is required for json store")
	}
	if cfg.Store.Type == "sqlite" && cfg.Store.DSN == "" {
		return fmt.Errorf("store.dsn is required for sqlite store")
	}
	if cfg.Mail.From == "" {
		return fmt.Errorf("mail.from is required")
	}
	if cfg.Server.Enabled && cfg.Server.Listen == "" {
		return fmt.Errorf("server.listen is required when server is enabled")
	}
	return nil
}

// GenerateSchema generates a JSON schema for the Config struct
func GenerateSchema() (*jsonschema.Schema, error) {
	return jsonschema.Reflect(&Config{}), nil
}
