// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/BangRocket/rook/internal/retrieval"
	"github.com/BangRocket/rook/internal/types"
	"github.com/BangRocket/rook/pkg/engine"
)

// registerTools binds the MCP surface to eng, the same pairing the
// teacher's RegisterToolsForUser does for its git/database-backed tools,
// minus the per-user repository plumbing: every tool call here carries
// its own scope instead.
func registerTools(mcpGoServer *mcpserver.MCPServer, eng *engine.Engine) {
	mcpGoServer.AddTool(newRememberTool(), rememberHandler(eng))
	mcpGoServer.AddTool(newRecallTool(), recallHandler(eng))
	mcpGoServer.AddTool(newForgetTool(), forgetHandler(eng))
	mcpGoServer.AddTool(newHistoryTool(), historyHandler(eng))
}

func scopeFromRequest(request mcp.CallToolRequest) types.Scope {
	return types.Scope{
		TenantID: request.GetString("tenant_id", ""),
		AgentID:  request.GetString("agent_id", ""),
		UserID:   request.GetString("user_id", ""),
	}
}

func withScopeParams(opts ...mcp.ToolOption) []mcp.ToolOption {
	return append([]mcp.ToolOption{
		mcp.WithString("tenant_id", mcp.Description("Tenant the memory belongs to")),
		mcp.WithString("agent_id", mcp.Description("Agent the memory belongs to")),
		mcp.WithString("user_id", mcp.Description("User the memory belongs to")),
	}, opts...)
}

func newRememberTool() mcp.Tool {
	return mcp.NewTool("rook_remember",
		withScopeParams(
			mcp.WithDescription("Store a fact in long-term memory. The ingestion gate decides whether it is new, a duplicate, an update to an existing memory, or a correction that supersedes one — you don't need to say which."),
			mcp.WithString("content",
				mcp.Required(),
				mcp.Description("The fact to remember, as a short declarative statement"),
			),
		)...,
	)
}

func rememberHandler(eng *engine.Engine) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		content, err := request.RequireString("content")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		result, err := eng.Remember(ctx, scopeFromRequest(request), content)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		switch result.Decision.Kind {
		case "skip":
			return mcp.NewToolResultText("already known, nothing stored"), nil
		case "create":
			return mcp.NewToolResultText(fmt.Sprintf("remembered as %s", result.Memory.ID)), nil
		case "update":
			return mcp.NewToolResultText(fmt.Sprintf("merged into existing memory %s", result.Memory.ID)), nil
		case "supersede":
			return mcp.NewToolResultText(fmt.Sprintf("superseded with new memory %s", result.Memory.ID)), nil
		default:
			return mcp.NewToolResultText(fmt.Sprintf("stored as %s", result.Memory.ID)), nil
		}
	}
}

func newRecallTool() mcp.Tool {
	return mcp.NewTool("rook_recall",
		withScopeParams(
			mcp.WithDescription("Retrieve remembered facts relevant to a query, ranked by a mix of semantic similarity, keyword match, spreading activation, and memory strength depending on mode."),
			mcp.WithString("query",
				mcp.Description("What to look up"),
			),
			mcp.WithArray("categories",
				mcp.Description("Optional category labels to boost"),
			),
			mcp.WithString("mode",
				mcp.Description("Retrieval mode: quick, standard, precise, or cognitive. Default: standard"),
			),
			mcp.WithNumber("limit",
				mcp.Description("Maximum results. Default: 10"),
			),
		)...,
	)
}

func recallHandler(eng *engine.Engine) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query := request.GetString("query", "")
		categories := request.GetStringSlice("categories", nil)
		limit := int(request.GetFloat("limit", 10.0))

		cfg := retrievalConfigForMode(request.GetString("mode", "standard"), limit)

		hits, err := eng.Recall(ctx, retrieval.Query{
			Scope:      scopeFromRequest(request),
			Text:       query,
			Categories: categories,
			Config:     cfg,
		})
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if len(hits) == 0 {
			return mcp.NewToolResultText("no matching memories found"), nil
		}

		var b strings.Builder
		for _, h := range hits {
			fmt.Fprintf(&b, "[%s] (score %.3f) %s\n", h.Memory.ID, h.Score, h.Memory.Content)
		}
		return mcp.NewToolResultText(b.String()), nil
	}
}

func retrievalConfigForMode(mode string, limit int) retrieval.Config {
	if limit <= 0 {
		limit = 10
	}
	switch retrieval.Mode(mode) {
	case retrieval.ModeQuick:
		return retrieval.Quick(limit)
	case retrieval.ModePrecise:
		return retrieval.Precise(limit)
	case retrieval.ModeCognitive:
		return retrieval.Cognitive(limit)
	default:
		return retrieval.Standard(limit)
	}
}

func newForgetTool() mcp.Tool {
	return mcp.NewTool("rook_forget",
		withScopeParams(
			mcp.WithDescription("Archive a memory so it stops surfacing in recall. Its history is kept, not deleted, and it can still be inspected with rook_history."),
			mcp.WithString("memory_id",
				mcp.Required(),
				mcp.Description("ID of the memory to archive"),
			),
			mcp.WithString("reason",
				mcp.Description("Why this memory is being archived"),
			),
		)...,
	)
}

func forgetHandler(eng *engine.Engine) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		memoryID, err := request.RequireString("memory_id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		reason := request.GetString("reason", "")

		if err := eng.Forget(ctx, scopeFromRequest(request), memoryID, reason); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("archived %s", memoryID)), nil
	}
}

func newHistoryTool() mcp.Tool {
	return mcp.NewTool("rook_history",
		mcp.WithDescription("List the append-only version history of a memory: every create, update, supersede, archive, and annotation, oldest first."),
		mcp.WithString("memory_id",
			mcp.Required(),
			mcp.Description("ID of the memory to look up"),
		),
	)
}

func historyHandler(eng *engine.Engine) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		memoryID, err := request.RequireString("memory_id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		records, err := eng.History_(ctx, memoryID)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if len(records) == 0 {
			return mcp.NewToolResultText("no history for this memory"), nil
		}

		var b strings.Builder
		for _, r := range records {
			fmt.Fprintf(&b, "v%d %s %s: %s\n", r.Version, r.ChangedAt.Format("2006-01-02T15:04:05Z07:00"), r.Kind, r.Content)
			if r.Note != "" {
				fmt.Fprintf(&b, "    note: %s\n", r.Note)
			}
		}
		return mcp.NewToolResultText(b.String()), nil
	}
}
