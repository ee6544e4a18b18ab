package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ormasoftchile/guildwiz/pkg/diagram"
	"github.com/ormasoftchile/guildwiz/pkg/schema"
)

// Version is set at build time via ldflags.
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var (
	configPath  string
	featuresDir string
	logLevel    string
	logFile     string
)

var rootCmd = &cobra.Command{
	Use:          "guildwiz",
	Short:        "Guided configuration wizards for guild features",
	Long:         "guildwiz walks server operators through step-by-step feature setup and stores the compiled configuration per guild.",
	SilenceUsage: true,
}

// --- validate ---

var validateCmd = &cobra.Command{
	Use:   "validate [feature.wizard.yaml...]",
	Short: "Validate feature documents (defaults to the configured feature directory)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		paths := args
		if len(paths) == 0 {
			paths, err = filepath.Glob(filepath.Join(cfg.FeaturesDir(), "*"+schema.FileSuffix))
			if err != nil {
				return err
			}
			if len(paths) == 0 {
				return fmt.Errorf("no %s files in %s", schema.FileSuffix, cfg.FeaturesDir())
			}
		}
		return validateFiles(cmd.OutOrStdout(), cmd.ErrOrStderr(), paths, cfg.Caps)
	},
}

// validateFiles validates every path and reports a combined result.
func validateFiles(out, errOut io.Writer, paths []string, caps map[string]int) error {
	failed := 0
	for _, path := range paths {
		f, errs := schema.ValidateFile(path, caps)
		var errors, warnings []*schema.ValidationError
		for _, e := range errs {
			if e.Severity == "warning" {
				warnings = append(warnings, e)
			} else {
				errors = append(errors, e)
			}
		}
		for _, w := range warnings {
			fmt.Fprintf(errOut, "  ⚠ [%s] %s\n", w.Phase, w.Message)
			if w.Path != "" {
				fmt.Fprintf(errOut, "    at: %s\n", w.Path)
			}
		}
		if len(errors) > 0 {
			failed++
			fmt.Fprintf(errOut, "%s: validation failed: %d error(s)\n\n", path, len(errors))
			for i, e := range errors {
				fmt.Fprintf(errOut, "  %d. [%s] %s\n", i+1, e.Phase, e.Message)
				if e.Path != "" {
					fmt.Fprintf(errOut, "     at: %s\n", e.Path)
				}
			}
			continue
		}
		name := f.Meta.Name
		if name == "" {
			name = f.Feature
		}
		fmt.Fprintf(out, "✓ %s is valid (%d steps)\n", name, len(f.Steps))
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d document(s) failed validation", failed, len(paths))
	}
	return nil
}

// --- features ---

var featuresCmd = &cobra.Command{
	Use:   "features",
	Short: "List the features in the configured directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		features, err := schema.LoadDir(cfg.FeaturesDir())
		if err != nil {
			return err
		}
		listFeatures(cmd.OutOrStdout(), features)
		return nil
	},
}

func listFeatures(out io.Writer, features map[string]*schema.Feature) {
	keys := make([]string, 0, len(features))
	for k := range features {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		f := features[k]
		fmt.Fprintf(out, "%-20s %-30s %d steps\n", k, f.Meta.Name, len(f.Steps))
	}
}

// --- schema export ---

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Schema operations",
}

var schemaExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the feature document JSON Schema to stdout",
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := schema.GenerateJSONSchema()
		if err != nil {
			return fmt.Errorf("generate schema: %w", err)
		}
		formatted, err := json.MarshalIndent(json.RawMessage(data), "", "  ")
		if err != nil {
			formatted = data
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(formatted))
		return nil
	},
}

// --- diagram ---

var diagramFormat string

var diagramCmd = &cobra.Command{
	Use:   "diagram [feature.wizard.yaml]",
	Short: "Render the step flow of a feature as Mermaid or ASCII",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		f, err := schema.LoadFile(args[0])
		if err != nil {
			return err
		}
		out, err := diagram.Generate(f, schema.CapsFor(f, cfg.Caps), diagram.Format(strings.ToLower(diagramFormat)))
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), out)
		return nil
	},
}

// --- version ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "guildwiz %s (build: %s)\n", version, commit)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to guildwiz.yaml (default: searched upwards from the working directory)")
	rootCmd.PersistentFlags().StringVar(&featuresDir, "features", "", "Feature directory (overrides the manifest)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Write logs to this file instead of stderr")

	diagramCmd.Flags().StringVar(&diagramFormat, "format", string(diagram.FormatMermaid), "Output format: mermaid or ascii")

	schemaCmd.AddCommand(schemaExportCmd)

	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(featuresCmd)
	rootCmd.AddCommand(schemaCmd)
	rootCmd.AddCommand(diagramCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(rpcCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(versionCmd)
}
