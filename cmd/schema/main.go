package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dailylesson/lessonmail/pkg/config"
)

// generates JSON schema for the configuration file, used by go:generate in pkg/config
func main() {
	out := "schema.json"
	if len(os.Args) > 1 {
		out = os.Args[1]
	}

	schema, err := config.GenerateSchema()
	if err != nil {
		fmt.Fprintf(os.Stderr, "generate schema: %v\n", err)
		os.Exit(1)
	}

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "marshal schema: %v\n", err)
		os.Exit(1)
	}

	if err := os.WriteFile(out, append(data, '\n'), 0o644); err != nil { //nolint:gosec // schema is public
		fmt.Fprintf(os.Stderr, "write schema: %v\n", err)
		os.Exit(1)
	}
}
