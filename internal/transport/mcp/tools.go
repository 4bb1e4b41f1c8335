package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	mcpmcp "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	domainprompt "github.com/mliu/prompthub/internal/domain/prompt"
	promptsvc "github.com/mliu/prompthub/internal/service/prompt"
)

// RegisterTools registers all MCP tools on the server. Agent tooling reads
// published snapshots only — drafts never leave the editing surface.
func RegisterTools(s *mcpserver.MCPServer, promptSvc *promptsvc.Service) {
	s.AddTool(mcpmcp.NewTool("list_prompts",
		mcpmcp.WithDescription("List the user's published prompts. Returns id, title, status, and the current version number for each."),
		mcpmcp.WithString("user_id", mcpmcp.Required(), mcpmcp.Description("Owner UUID")),
		mcpmcp.WithString("search", mcpmcp.Description("Optional text filter over titles and content")),
	), listPromptsHandler(promptSvc))

	s.AddTool(mcpmcp.NewTool("get_prompt",
		mcpmcp.WithDescription("Fetch one prompt's published content. Returns the current version snapshot, not the working draft."),
		mcpmcp.WithString("user_id", mcpmcp.Required(), mcpmcp.Description("Owner UUID")),
		mcpmcp.WithString("prompt_id", mcpmcp.Required(), mcpmcp.Description("Prompt UUID")),
	), getPromptHandler(promptSvc))
}

func listPromptsHandler(promptSvc *promptsvc.Service) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcpmcp.CallToolRequest) (*mcpmcp.CallToolResult, error) {
		userID, err := uuid.Parse(mcpmcp.ParseString(req, "user_id", ""))
		if err != nil {
			return mcpmcp.NewToolResultText("error: invalid user_id"), nil
		}

		status := domainprompt.StatusPublished
		items, _, err := promptSvc.List(ctx, domainprompt.ListFilters{
			UserID: userID,
			Status: &status,
			Search: mcpmcp.ParseString(req, "search", ""),
		})
		if err != nil {
			return mcpmcp.NewToolResultText(fmt.Sprintf("error: %s", err)), nil
		}

		type entry struct {
			ID            uuid.UUID `json:"id"`
			Title         string    `json:"title"`
			Status        string    `json:"status"`
			VersionNumber int       `json:"version_number,omitempty"`
		}
		entries := make([]entry, 0, len(items))
		for _, item := range items {
			e := entry{ID: item.ID, Title: item.Title, Status: string(item.Status)}
			if item.CurrentVersion != nil {
				e.VersionNumber = item.CurrentVersion.VersionNumber
			}
			entries = append(entries, e)
		}

		data, _ := json.Marshal(entries)
		return mcpmcp.NewToolResultText(string(data)), nil
	}
}

func getPromptHandler(promptSvc *promptsvc.Service) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcpmcp.CallToolRequest) (*mcpmcp.CallToolResult, error) {
		userID, err := uuid.Parse(mcpmcp.ParseString(req, "user_id", ""))
		if err != nil {
			return mcpmcp.NewToolResultText("error: invalid user_id"), nil
		}
		promptID, err := uuid.Parse(mcpmcp.ParseString(req, "prompt_id", ""))
		if err != nil {
			return mcpmcp.NewToolResultText("error: invalid prompt_id"), nil
		}

		d, err := promptSvc.Get(ctx, promptID, userID)
		if err != nil {
			return mcpmcp.NewToolResultText(fmt.Sprintf("error: %s", err)), nil
		}
		if d.CurrentVersion == nil {
			return mcpmcp.NewToolResultText("error: prompt has no published version"), nil
		}

		result := map[string]interface{}{
			"id":             d.ID,
			"title":          d.Title,
			"content":        d.CurrentVersion.Content,
			"version_number": d.CurrentVersion.VersionNumber,
			"published_at":   d.CurrentVersion.CreatedAt,
		}
		data, _ := json.Marshal(result)
		return mcpmcp.NewToolResultText(string(data)), nil
	}
}
