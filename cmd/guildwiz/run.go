package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/ormasoftchile/guildwiz/pkg/console"
	"github.com/ormasoftchile/guildwiz/pkg/schema"
	"github.com/ormasoftchile/guildwiz/pkg/service"
	"github.com/ormasoftchile/guildwiz/pkg/session"
	"github.com/ormasoftchile/guildwiz/pkg/tui"
	"github.com/ormasoftchile/guildwiz/pkg/wizard"
)

var (
	runGuild    string
	runOperator string
	runLocale   string
	runEdit     bool
	runPlain    bool
)

var runCmd = &cobra.Command{
	Use:   "run [feature]",
	Short: "Configure a feature interactively in the terminal",
	Long: `Walk through the wizard of a feature and save the result for a guild.
The full-screen interface is used by default; --plain falls back to a
line-based prompt suited to dumb terminals and scripts.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		a, err := setup(ctx, true)
		if err != nil {
			return err
		}
		defer a.Close()

		if runOperator == "" {
			runOperator = os.Getenv("USER")
		}
		if runPlain {
			return runConsole(ctx, a, args[0], cmd.OutOrStdout())
		}

		v, err := tui.Run(ctx, tui.Config{
			Service: a.svc,
			Start: service.StartParams{
				Feature:  args[0],
				GuildID:  runGuild,
				Operator: runOperator,
				Locale:   runLocale,
				Edit:     runEdit,
			},
			Resources: a.cfg.Resources,
			Logger:    a.logger,
		})
		if err != nil {
			return err
		}
		reportView(cmd.OutOrStdout(), v)
		return nil
	},
}

func runConsole(ctx context.Context, a *app, feature string, out io.Writer) error {
	f, ok := a.features[feature]
	if !ok {
		return fmt.Errorf("%w: %q", service.ErrUnknownFeature, feature)
	}
	c, err := console.New(a.cfg.Resources)
	if err != nil {
		return err
	}
	locale := runLocale
	if locale == "" {
		locale = a.cfg.Locale
	}
	wcfg := wizard.Config{
		Feature:   f,
		GuildID:   runGuild,
		Operator:  runOperator,
		Locale:    locale,
		Caps:      schema.CapsFor(f, a.cfg.Caps),
		Renderer:  c.Renderer(),
		Persister: a.store,
		Previewer: a.card,
		Observer:  a.metrics,
		Logger:    a.logger,
	}
	var w *wizard.Wizard
	if runEdit {
		w, err = wizard.Load(ctx, a.store, wcfg)
	} else {
		w, err = wizard.New(wcfg)
	}
	if err != nil {
		return err
	}
	return c.Run(ctx, w)
}

func reportView(out io.Writer, v *session.View) {
	switch {
	case v == nil:
		fmt.Fprintln(out, "✗ nothing saved")
	case v.Phase == wizard.PhaseCompiled.String():
		fmt.Fprintf(out, "✓ saved %d settings for %s in guild %s\n", len(v.Result), v.Feature, v.GuildID)
	case v.Error != "":
		fmt.Fprintf(out, "✗ nothing saved: %s\n", v.Error)
	default:
		fmt.Fprintln(out, "✗ nothing saved")
	}
}

func init() {
	runCmd.Flags().StringVar(&runGuild, "guild", "", "Guild to configure (required)")
	runCmd.Flags().StringVar(&runOperator, "as", "", "Operator identity recorded in logs (default: $USER)")
	runCmd.Flags().StringVar(&runLocale, "locale", "", "Display locale (default: manifest locale)")
	runCmd.Flags().BoolVar(&runEdit, "edit", false, "Start from the saved configuration")
	runCmd.Flags().BoolVar(&runPlain, "plain", false, "Use the line-based prompt instead of the full-screen interface")
	_ = runCmd.MarkFlagRequired("guild")
}
