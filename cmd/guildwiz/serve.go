package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ormasoftchile/guildwiz/pkg/httpapi"
	"github.com/ormasoftchile/guildwiz/pkg/mcp"
	"github.com/ormasoftchile/guildwiz/pkg/serve"
)

// --- serve (HTTP) ---

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve conversations over HTTP",
	Long: `Start the HTTP API used by bots and dashboards. Conversations live in
memory and are abandoned after the session TTL; compiled records go to the
configured store. Prometheus metrics are served on /metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := setup(ctx, false)
		if err != nil {
			return err
		}
		defer a.Close()

		addr := a.cfg.HTTP.Addr
		if serveAddr != "" {
			addr = serveAddr
		}
		go a.svc.Sessions().Run(ctx, a.cfg.Session.Sweep)

		router := httpapi.New(httpapi.Options{Service: a.svc, Metrics: a.metrics.Handler(), Logger: a.logger})
		return httpapi.ListenAndServe(ctx, addr, router, a.logger)
	},
}

// --- rpc (JSON-RPC over stdio) ---

var rpcCmd = &cobra.Command{
	Use:   "rpc",
	Short: "Serve conversations as JSON-RPC over stdio",
	Long: `Start a JSON-RPC 2.0 server on stdin/stdout. Messages are
newline-delimited. Used by editor integrations and the full-screen client.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := setup(ctx, false)
		if err != nil {
			return err
		}
		defer a.Close()

		go a.svc.Sessions().Run(ctx, a.cfg.Session.Sweep)
		return serve.New(a.svc, os.Stdin, os.Stdout, a.logger).Run(ctx)
	},
}

// --- mcp ---

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the wizard tools over the Model Context Protocol (stdio)",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := setup(ctx, false)
		if err != nil {
			return err
		}
		defer a.Close()

		go a.svc.Sessions().Run(ctx, a.cfg.Session.Sweep)
		a.logger.Info("mcp server starting", zap.Int("features", len(a.features)))
		return server.ServeStdio(mcp.NewServer(version, a.svc))
	},
}

// --- show ---

var showGuild string

var showCmd = &cobra.Command{
	Use:   "show [feature]",
	Short: "Print the saved configuration of a feature for a guild",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer a.Close()

		rec, ok, err := a.svc.Show(cmd.Context(), showGuild, args[0])
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("no saved configuration for %s in guild %s", args[0], showGuild)
		}
		data, err := json.MarshalIndent(rec, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default: manifest http.addr)")
	showCmd.Flags().StringVar(&showGuild, "guild", "", "Guild to read (required)")
	_ = showCmd.MarkFlagRequired("guild")
}
