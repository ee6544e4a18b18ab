//go:build ignore

// Writes the feature document JSON Schema for editors:
//
//	go run scripts/gen-schema.go [out.json]
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ormasoftchile/guildwiz/pkg/schema"
)

func main() {
	out := filepath.Join("schemas", "wizard-v0.json")
	if len(os.Args) > 1 {
		out = os.Args[1]
	}
	data, err := schema.GenerateJSONSchema()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "mkdir: %v\n", err)
		os.Exit(1)
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "write: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("wrote", out)
}
