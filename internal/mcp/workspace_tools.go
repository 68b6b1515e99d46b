package mcp

import (
	"context"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mamaar/nsadjust/pkg/adjust"
	"github.com/mamaar/nsadjust/pkg/types"
)

// --- load_workspace ---

type LoadWorkspaceInput struct {
	Path   string `json:"path" jsonschema:"absolute path to the workspace root (solution directory)"`
	Config string `json:"config,omitempty" jsonschema:"config file path, defaults to <path>/.nsadjust.toml"`
}

type LoadWorkspaceOutput struct {
	RootPath      string `json:"root_path"`
	ConfigPath    string `json:"config_path,omitempty"`
	CSharpFiles   int    `json:"csharp_files"`
	MarkupFiles   int    `json:"markup_files"`
	GeneratedDocs int    `json:"generated_files"`
}

// --- workspace_status ---

type WorkspaceStatusInput struct{}

type WorkspaceStatusOutput struct {
	Loaded        bool   `json:"loaded"`
	RootPath      string `json:"root_path,omitempty"`
	CSharpFiles   int    `json:"csharp_files"`
	MarkupFiles   int    `json:"markup_files"`
	PendingEdits  int    `json:"pending_edits"`
	WatchedEvents int    `json:"watched_events"`
}

func countDocuments(ws *adjust.Workspace) (cs, markup, generated int) {
	for _, doc := range ws.Index.Documents() {
		switch doc.Kind {
		case types.CSharpDocument:
			cs++
		case types.MarkupDocument:
			markup++
		}
		if doc.Generated {
			generated++
		}
	}
	return cs, markup, generated
}

func registerWorkspaceTools(s *mcpsdk.Server, state *MCPServer) {
	mcpsdk.AddTool(s, &mcpsdk.Tool{
		Name:        "load_workspace",
		Description: "Load a C# workspace into memory. Must be called before any other tool.",
	}, func(ctx context.Context, req *mcpsdk.CallToolRequest, in LoadWorkspaceInput) (*mcpsdk.CallToolResult, any, error) {
		ws, err := state.LoadWorkspace(ctx, in.Path, in.Config)
		if err != nil {
			return errResult(err), nil, nil
		}

		state.RLock()
		defer state.RUnlock()
		_, cfg, _ := state.GetWorkspace()
		cs, markup, generated := countDocuments(ws)
		return textResult(LoadWorkspaceOutput{
			RootPath:      ws.Root,
			ConfigPath:    cfg.Path,
			CSharpFiles:   cs,
			MarkupFiles:   markup,
			GeneratedDocs: generated,
		}), nil, nil
	})

	mcpsdk.AddTool(s, &mcpsdk.Tool{
		Name:        "workspace_status",
		Description: "Return the current workspace status: loaded state, document counts and watcher activity.",
	}, func(ctx context.Context, req *mcpsdk.CallToolRequest, in WorkspaceStatusInput) (*mcpsdk.CallToolResult, any, error) {
		state.RLock()
		defer state.RUnlock()

		ws, _, err := state.GetWorkspace()
		if err != nil {
			return textResult(WorkspaceStatusOutput{Loaded: false}), nil, nil
		}
		cs, markup, _ := countDocuments(ws)
		return textResult(WorkspaceStatusOutput{
			Loaded:        true,
			RootPath:      ws.Root,
			CSharpFiles:   cs,
			MarkupFiles:   markup,
			PendingEdits:  len(ws.Pending()),
			WatchedEvents: state.WatchedEvents(),
		}), nil, nil
	})
}
