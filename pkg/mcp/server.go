// Package mcp exposes guildwiz conversations as Model Context Protocol tools.
package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/ormasoftchile/guildwiz/pkg/service"
)

// NewServer creates an MCP server with the guildwiz tools registered.
func NewServer(version string, svc *service.Service) *server.MCPServer {
	s := server.NewMCPServer(
		"guildwiz",
		version,
		server.WithToolCapabilities(true),
	)
	h := &Handlers{svc: svc}

	s.AddTool(
		mcp.NewTool("guildwiz/validate",
			mcp.WithDescription("Validate a feature wizard YAML file"),
			mcp.WithString("path", mcp.Required(), mcp.Description("Path to the .wizard.yaml file")),
		),
		HandleValidate,
	)
	s.AddTool(
		mcp.NewTool("guildwiz/schema",
			mcp.WithDescription("Export the JSON Schema of feature wizard documents"),
		),
		HandleSchema,
	)
	s.AddTool(
		mcp.NewTool("guildwiz/features",
			mcp.WithDescription("List the loaded features"),
		),
		h.HandleFeatures,
	)
	s.AddTool(
		mcp.NewTool("guildwiz/start",
			mcp.WithDescription("Start a configuration conversation and return its first prompt"),
			mcp.WithString("feature", mcp.Required(), mcp.Description("Feature key")),
			mcp.WithString("guild", mcp.Required(), mcp.Description("Guild id")),
			mcp.WithString("operator", mcp.Description("Operator id, for the audit log")),
			mcp.WithBoolean("edit", mcp.Description("Seed the conversation from the stored record")),
		),
		h.HandleStart,
	)
	s.AddTool(
		mcp.NewTool("guildwiz/answer",
			mcp.WithDescription("Answer the current prompt of a conversation"),
			mcp.WithString("id", mcp.Required(), mcp.Description("Conversation id")),
			mcp.WithString("step", mcp.Required(), mcp.Description("Key of the prompted step")),
			mcp.WithString("action", mcp.Description("submit (default), back, more or stop")),
			mcp.WithString("payload", mcp.Description("Answer; JSON values are decoded, anything else is sent as text")),
		),
		h.HandleAnswer,
	)
	s.AddTool(
		mcp.NewTool("guildwiz/cancel",
			mcp.WithDescription("Cancel a conversation without saving"),
			mcp.WithString("id", mcp.Required(), mcp.Description("Conversation id")),
		),
		h.HandleCancel,
	)
	s.AddTool(
		mcp.NewTool("guildwiz/show",
			mcp.WithDescription("Show the stored configuration of a feature"),
			mcp.WithString("guild", mcp.Required(), mcp.Description("Guild id")),
			mcp.WithString("feature", mcp.Required(), mcp.Description("Feature key")),
		),
		h.HandleShow,
	)
	return s
}
