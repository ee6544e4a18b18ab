package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/ormasoftchile/guildwiz/pkg/schema"
	"github.com/ormasoftchile/guildwiz/pkg/service"
	"github.com/ormasoftchile/guildwiz/pkg/session"
	"github.com/ormasoftchile/guildwiz/pkg/wizard"
)

// Handlers implements the conversation tools on top of a Service.
type Handlers struct {
	svc *service.Service
}

// HandleValidate implements the guildwiz/validate MCP tool.
func HandleValidate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	path, _ := args["path"].(string)
	if path == "" {
		return errorResult("path argument is required"), nil
	}
	f, errs := schema.ValidateFile(path, nil)
	if schema.HasErrors(errs) {
		return errorResult(formatErrors(errs)), nil
	}
	return textResult(fmt.Sprintf("✓ %s is valid (%d steps)", f.Feature, len(f.Steps))), nil
}

// HandleSchema implements the guildwiz/schema MCP tool.
func HandleSchema(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	data, err := schema.GenerateJSONSchema()
	if err != nil {
		return errorResult(err.Error()), nil
	}
	return textResult(string(data)), nil
}

func (h *Handlers) HandleFeatures(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(map[string]any{"features": h.svc.Features()}, false), nil
}

func (h *Handlers) HandleStart(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	p := service.StartParams{}
	p.Feature, _ = args["feature"].(string)
	p.GuildID, _ = args["guild"].(string)
	p.Operator, _ = args["operator"].(string)
	p.Edit, _ = args["edit"].(bool)
	if p.Feature == "" || p.GuildID == "" {
		return errorResult("feature and guild arguments are required"), nil
	}
	v, err := h.svc.Start(ctx, p)
	return viewResult(v, err), nil
}

func (h *Handlers) HandleAnswer(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	id, _ := args["id"].(string)
	step, _ := args["step"].(string)
	if id == "" || step == "" {
		return errorResult("id and step arguments are required"), nil
	}
	action := wizard.ActionSubmit
	if a, _ := args["action"].(string); a != "" {
		action = wizard.Action(a)
	}
	cb := wizard.Callback{Action: action, StepKey: step}
	if raw, ok := args["payload"]; ok {
		cb.Payload = decodePayload(raw)
	}
	v, err := h.svc.Callback(ctx, id, cb)
	return viewResult(v, err), nil
}

func (h *Handlers) HandleCancel(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, _ := req.GetArguments()["id"].(string)
	if id == "" {
		return errorResult("id argument is required"), nil
	}
	v, err := h.svc.Cancel(ctx, id)
	return viewResult(v, err), nil
}

func (h *Handlers) HandleShow(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	guild, _ := args["guild"].(string)
	feature, _ := args["feature"].(string)
	rec, ok, err := h.svc.Show(ctx, guild, feature)
	if err != nil {
		return errorResult(err.Error()), nil
	}
	if !ok {
		return textResult(fmt.Sprintf("%s is not configured in guild %s", feature, guild)), nil
	}
	return jsonResult(rec, false), nil
}

// decodePayload turns a tool argument into a callback payload. Strings that
// hold a JSON array or object are decoded.
func decodePayload(raw any) any {
	s, ok := raw.(string)
	if !ok {
		return raw
	}
	trimmed := strings.TrimSpace(s)
	if strings.HasPrefix(trimmed, "[") || strings.HasPrefix(trimmed, "{") {
		var v any
		if err := json.Unmarshal([]byte(trimmed), &v); err == nil {
			return v
		}
	}
	return s
}

func viewResult(v *session.View, err error) *mcp.CallToolResult {
	if v == nil {
		if err == nil {
			err = fmt.Errorf("no conversation")
		}
		return errorResult(err.Error())
	}
	return jsonResult(v, v.Error != "")
}

func formatErrors(errs []*schema.ValidationError) string {
	var msgs []string
	for _, e := range errs {
		if e.Severity == "error" {
			msgs = append(msgs, e.Error())
		}
	}
	return strings.Join(msgs, "; ")
}

func jsonResult(v any, isErr bool) *mcp.CallToolResult {
	data, _ := json.MarshalIndent(v, "", "  ")
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.NewTextContent(string(data))},
		IsError: isErr,
	}
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(text),
		},
	}
}

func errorResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(msg),
		},
		IsError: true,
	}
}
