package mcp

import (
	"context"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mamaar/nsadjust/pkg/adjust"
	"github.com/mamaar/nsadjust/pkg/census"
	"github.com/mamaar/nsadjust/pkg/transition"
	"github.com/mamaar/nsadjust/pkg/types"
)

// --- target_namespace ---

type TargetNamespaceInput struct {
	Files []string `json:"files" jsonschema:"C# files, absolute or relative to the workspace root"`
}

type TargetNamespaceOutput struct {
	Subjects []types.Subject `json:"subjects"`
}

// --- compute_transitions ---

type ComputeTransitionsInput struct {
	File   string `json:"file" jsonschema:"C# file, absolute or relative to the workspace root"`
	Target string `json:"target,omitempty" jsonschema:"target namespace, defaults to the one derived from project and folder"`
}

type ComputeTransitionsOutput struct {
	File        string                  `json:"file"`
	Target      string                  `json:"target"`
	Transitions []transition.Transition `json:"transitions"`
}

// --- preflight ---

type PreflightInput struct {
	Files  []string `json:"files" jsonschema:"C# files to adjust"`
	Target string   `json:"target,omitempty" jsonschema:"target namespace for every file, defaults to the derived one"`
}

type PreflightOutput struct {
	Subjects []types.Subject `json:"subjects"`
	Issues   []types.Issue   `json:"issues"`
	CanRun   bool            `json:"can_run"`
}

// --- adjust_namespaces ---

type AdjustNamespacesInput struct {
	Files  []string `json:"files" jsonschema:"C# files to adjust, processed in this order"`
	Target string   `json:"target,omitempty" jsonschema:"target namespace for every file, defaults to the derived one"`
	DryRun bool     `json:"dry_run,omitempty" jsonschema:"return a unified diff instead of writing files"`
	Force  bool     `json:"force,omitempty" jsonschema:"proceed despite pre-flight warnings"`
	Backup bool     `json:"backup,omitempty" jsonschema:"keep a .backup copy of every written file"`
}

type AdjustNamespacesOutput struct {
	Report  *types.Report `json:"report"`
	DryRun  bool          `json:"dry_run"`
	Diff    string        `json:"diff,omitempty"`
	Written []string      `json:"written,omitempty"`
}

// --- namespace_census ---

type NamespaceCensusInput struct{}

type NamespaceCensusOutput struct {
	Namespaces map[string][]string `json:"namespaces"`
}

func registerAdjustTools(s *mcpsdk.Server, state *MCPServer) {
	mcpsdk.AddTool(s, &mcpsdk.Tool{
		Name:        "target_namespace",
		Description: "Derive the namespace each file belongs in from its .csproj RootNamespace and folder.",
	}, func(ctx context.Context, req *mcpsdk.CallToolRequest, in TargetNamespaceInput) (*mcpsdk.CallToolResult, any, error) {
		state.RLock()
		defer state.RUnlock()

		ws, _, err := state.GetWorkspace()
		if err != nil {
			return errResult(err), nil, nil
		}
		subjects, err := ws.Subjects(in.Files, "")
		if err != nil {
			return errResult(err), nil, nil
		}
		return textResult(TargetNamespaceOutput{Subjects: subjects}), nil, nil
	})

	mcpsdk.AddTool(s, &mcpsdk.Tool{
		Name:        "compute_transitions",
		Description: "List the namespace declarations of a file with the names they would get.",
	}, func(ctx context.Context, req *mcpsdk.CallToolRequest, in ComputeTransitionsInput) (*mcpsdk.CallToolResult, any, error) {
		state.RLock()
		defer state.RUnlock()

		ws, _, err := state.GetWorkspace()
		if err != nil {
			return errResult(err), nil, nil
		}
		subjects, err := ws.Subjects([]string{in.File}, in.Target)
		if err != nil {
			return errResult(err), nil, nil
		}
		sub := subjects[0]
		root, err := ws.Index.SyntaxRoot(ctx, sub.Path)
		if err != nil {
			return errResult(err), nil, nil
		}
		return textResult(ComputeTransitionsOutput{
			File:        sub.Path,
			Target:      sub.Target,
			Transitions: transition.Compute(root, sub.Target).All(),
		}), nil, nil
	})

	mcpsdk.AddTool(s, &mcpsdk.Tool{
		Name:        "preflight",
		Description: "Check a batch for name conflicts and parse errors without changing anything.",
	}, func(ctx context.Context, req *mcpsdk.CallToolRequest, in PreflightInput) (*mcpsdk.CallToolResult, any, error) {
		state.RLock()
		defer state.RUnlock()

		ws, cfg, err := state.GetWorkspace()
		if err != nil {
			return errResult(err), nil, nil
		}
		subjects, err := ws.Subjects(in.Files, in.Target)
		if err != nil {
			return errResult(err), nil, nil
		}
		issues, err := adjust.NewRunner(ws.Index, cfg.RunOptions(ws.Root, false, state.logger)).Preflight(ctx, subjects)
		if err != nil {
			return errResult(err), nil, nil
		}
		return textResult(PreflightOutput{
			Subjects: subjects,
			Issues:   issues,
			CanRun:   !types.HasErrors(issues),
		}), nil, nil
	})

	mcpsdk.AddTool(s, &mcpsdk.Tool{
		Name: "adjust_namespaces",
		Description: "Move files into their target namespace: rewrite namespace declarations, every reference " +
			"to the moved types, XAML usages, and the using directives of emptied namespaces.",
	}, func(ctx context.Context, req *mcpsdk.CallToolRequest, in AdjustNamespacesInput) (*mcpsdk.CallToolResult, any, error) {
		state.Lock()
		defer state.Unlock()

		ws, cfg, err := state.GetWorkspace()
		if err != nil {
			return errResult(err), nil, nil
		}
		subjects, err := ws.Subjects(in.Files, in.Target)
		if err != nil {
			return errResult(err), nil, nil
		}

		report, runErr := adjust.NewRunner(ws.Index, cfg.RunOptions(ws.Root, in.Force, state.logger)).Run(ctx, subjects)
		out := AdjustNamespacesOutput{Report: report, DryRun: in.DryRun}

		if in.DryRun {
			if out.Diff, err = ws.Diff(); err != nil {
				return errResult(err), nil, nil
			}
			if err := ws.Discard(context.WithoutCancel(ctx)); err != nil {
				return errResult(err), nil, nil
			}
		} else if len(ws.Pending()) > 0 {
			// Files rewritten before a failure stay rewritten.
			if out.Written, err = ws.Commit(in.Backup); err != nil {
				return errResult(err), nil, nil
			}
		}

		if runErr != nil {
			return errResult(runErr), nil, nil
		}
		return textResult(out), nil, nil
	})

	mcpsdk.AddTool(s, &mcpsdk.Tool{
		Name:        "namespace_census",
		Description: "List every declared namespace with the types it holds.",
	}, func(ctx context.Context, req *mcpsdk.CallToolRequest, in NamespaceCensusInput) (*mcpsdk.CallToolResult, any, error) {
		state.RLock()
		defer state.RUnlock()

		ws, _, err := state.GetWorkspace()
		if err != nil {
			return errResult(err), nil, nil
		}
		c, err := census.Build(ctx, ws.Index)
		if err != nil {
			return errResult(err), nil, nil
		}
		out := NamespaceCensusOutput{Namespaces: make(map[string][]string)}
		for _, ns := range c.Namespaces() {
			out.Namespaces[ns] = c.Remaining(ns)
		}
		return textResult(out), nil, nil
	})
}
