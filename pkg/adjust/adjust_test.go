package adjust

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamaar/nsadjust/pkg/semantic"
	"github.com/mamaar/nsadjust/pkg/types"
	"github.com/mamaar/nsadjust/pkg/xaml"
)

func quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func load(t *testing.T, files map[string]string) (*semantic.Index, *semantic.MemStore) {
	t.Helper()
	store := semantic.NewMemStore(files)
	idx := semantic.NewIndex("/ws", store, semantic.Options{MarkupExtensions: []string{".xaml"}, Logger: quiet()})
	require.NoError(t, idx.Load(context.Background()))
	return idx, store
}

func markupOptions() xaml.Options {
	return xaml.Options{Disambiguator: func() string { return "1" }}
}

const (
	userPath = "/ws/Models/User.cs"
	userSrc  = "namespace App.Models\n{\n    public class User\n    {\n    }\n}\n"
	f2Path   = "/ws/F2.cs"
	f2Src    = "using App.Models;\n\nclass C\n{\n    void M() { var u = new App.Models.User(); }\n}\n"
	shellSrc = `<UserControl xmlns:x="http://schemas.microsoft.com/winfx/2006/xaml" xmlns:m="clr-namespace:App.Models"><m:User /></UserControl>`
)

func TestRun_MovesTypeAndCleansUp(t *testing.T) {
	idx, store := load(t, map[string]string{
		userPath:               userSrc,
		f2Path:                 f2Src,
		"/ws/Views/Shell.xaml": shellSrc,
	})
	runner := NewRunner(idx, RunOptions{Markup: markupOptions(), Logger: quiet()})

	report, err := runner.Run(context.Background(), []types.Subject{{Path: userPath, Target: "App.Features.Models"}})
	require.NoError(t, err)

	assert.Equal(t, "namespace App.Features.Models\n{\n    public class User\n    {\n    }\n}\n", store.Text(userPath))
	assert.Equal(t, "class C\n{\n    void M() { var u = new App.Features.Models.User(); }\n}\n", store.Text(f2Path))
	assert.Equal(t, `<UserControl xmlns:x="http://schemas.microsoft.com/winfx/2006/xaml" xmlns:Models1="clr-namespace:App.Features.Models"><Models1:User /></UserControl>`, store.Text("/ws/Views/Shell.xaml"))

	assert.Equal(t, []string{userPath}, report.Processed)
	assert.Empty(t, report.Skipped)
	require.Len(t, report.Moved, 1)
	assert.Equal(t, types.MovedType{FullName: "App.Models.User", From: "App.Models", To: "App.Features.Models", File: userPath}, report.Moved[0])
	assert.Equal(t, []string{"App.Models"}, report.RemovedNamespace)
	assert.Equal(t, 2, report.RemovedImports)
	assert.Equal(t, []string{f2Path, userPath, "/ws/Views/Shell.xaml"}, report.ChangedFiles)
}

func TestAdjustFile_RootKeepsCompatibilityImport(t *testing.T) {
	idx, store := load(t, map[string]string{
		"/ws/IOld.cs": "namespace Old\n{\n    public interface IOld { }\n}\n",
		"/ws/C.cs":    "namespace Old\n{\n    class C : IOld { }\n}\n",
	})
	runner := NewRunner(idx, RunOptions{Logger: quiet()})

	report, err := runner.Run(context.Background(), []types.Subject{{Path: "/ws/C.cs", Target: "New"}})
	require.NoError(t, err)

	assert.Equal(t, "using Old;\n\nnamespace New\n{\n    class C : IOld { }\n}\n", store.Text("/ws/C.cs"))
	assert.Empty(t, report.RemovedNamespace)
	assert.Zero(t, report.RemovedImports)
}

func TestAdjustFile_Idempotent(t *testing.T) {
	idx, store := load(t, map[string]string{userPath: userSrc, f2Path: f2Src})
	adjuster := NewAdjuster(idx, Options{Logger: quiet()})
	ctx := context.Background()

	ok, err := adjuster.AdjustFile(ctx, userPath, "App.Features.Models")
	require.NoError(t, err)
	require.True(t, ok)
	first := store.Text(userPath)
	assert.Equal(t, "using App.Models;\n\nnamespace App.Features.Models\n{\n    public class User\n    {\n    }\n}\n", first)
	assert.Equal(t, "using App.Models;\n\nclass C\n{\n    void M() { var u = new App.Features.Models.User(); }\n}\n", store.Text(f2Path))

	ok, err = adjuster.AdjustFile(ctx, userPath, "App.Features.Models")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, first, store.Text(userPath))
}

func TestAdjustFile_NestedBlocks(t *testing.T) {
	idx, store := load(t, map[string]string{
		"/ws/N.cs":   "namespace Old.A\n{\n    namespace Inner\n    {\n        class D { }\n    }\n}\n",
		"/ws/Use.cs": "class U { Old.A.Inner.D d; }\n",
	})
	adjuster := NewAdjuster(idx, Options{Logger: quiet()})

	ok, err := adjuster.AdjustFile(context.Background(), "/ws/N.cs", "New")
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, "using Old.A;\n\nnamespace New\n{\n    namespace Inner\n    {\n        class D { }\n    }\n}\n", store.Text("/ws/N.cs"))
	assert.Equal(t, "class U { New.Inner.D d; }\n", store.Text("/ws/Use.cs"))
}

func TestAdjustFile_SkipsExcludedAndMissing(t *testing.T) {
	src := "namespace XamlGeneratedNamespace\n{\n    class G { }\n}\n"
	idx, store := load(t, map[string]string{"/ws/G.cs": src})
	adjuster := NewAdjuster(idx, Options{ExcludedNamespaces: []string{"XamlGeneratedNamespace"}, Logger: quiet()})

	ok, err := adjuster.AdjustFile(context.Background(), "/ws/G.cs", "App")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, src, store.Text("/ws/G.cs"))

	ok, err = adjuster.AdjustFile(context.Background(), "/ws/Missing.cs", "App")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRun_NameConflictStopsBeforeEdits(t *testing.T) {
	idx, store := load(t, map[string]string{
		userPath:          userSrc,
		f2Path:            f2Src,
		"/ws/Existing.cs": "namespace App.Features.Models\n{\n    class User { }\n}\n",
	})
	runner := NewRunner(idx, RunOptions{Logger: quiet()})

	_, err := runner.Run(context.Background(), []types.Subject{{Path: userPath, Target: "App.Features.Models"}})
	var validation *types.ValidationError
	require.True(t, errors.As(err, &validation))
	require.Len(t, validation.Issues, 1)
	assert.Equal(t, types.IssueNameConflict, validation.Issues[0].Type)
	assert.Equal(t, userPath, validation.Issues[0].File)
	assert.Equal(t, 3, validation.Issues[0].Line)

	assert.Equal(t, userSrc, store.Text(userPath))
	assert.Equal(t, f2Src, store.Text(f2Path))
}

func TestRun_ExcludedNamespaceRaisesNoConflict(t *testing.T) {
	genSrc := "namespace XamlGeneratedNamespace\n{\n    class Helper { }\n}\n"
	idx, store := load(t, map[string]string{
		"/ws/Gen.cs":  genSrc,
		"/ws/Have.cs": "namespace New\n{\n    class Helper { }\n}\n",
	})
	runner := NewRunner(idx, RunOptions{ExcludedNamespaces: []string{"XamlGeneratedNamespace"}, Logger: quiet()})
	subjects := []types.Subject{{Path: "/ws/Gen.cs", Target: "New"}}

	issues, err := runner.Preflight(context.Background(), subjects)
	require.NoError(t, err)
	assert.Empty(t, issues)

	report, err := runner.Run(context.Background(), subjects)
	require.NoError(t, err)
	assert.Equal(t, []string{"/ws/Gen.cs"}, report.Skipped)
	assert.Equal(t, genSrc, store.Text("/ws/Gen.cs"))
}

func TestPreflight_ConflictWithinBatch(t *testing.T) {
	idx, _ := load(t, map[string]string{
		"/ws/A/User.cs": "namespace A\n{\n    class User { }\n}\n",
		"/ws/B/User.cs": "namespace B\n{\n    class User { }\n}\n",
	})
	runner := NewRunner(idx, RunOptions{Logger: quiet()})

	issues, err := runner.Preflight(context.Background(), []types.Subject{
		{Path: "/ws/A/User.cs", Target: "C"},
		{Path: "/ws/B/User.cs", Target: "C"},
	})
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, types.IssueNameConflict, issues[0].Type)
	assert.Equal(t, "/ws/B/User.cs", issues[0].File)
}

func TestRun_WarningsNeedForce(t *testing.T) {
	files := map[string]string{
		userPath:        userSrc,
		"/ws/Broken.cs": "class Broken {\n",
	}
	idx, store := load(t, files)

	_, err := NewRunner(idx, RunOptions{Logger: quiet()}).Run(context.Background(), []types.Subject{{Path: userPath, Target: "App.Core"}})
	var validation *types.ValidationError
	require.True(t, errors.As(err, &validation))
	assert.Equal(t, types.Warning, validation.Issues[0].Severity)
	assert.Equal(t, userSrc, store.Text(userPath))

	report, err := NewRunner(idx, RunOptions{Force: true, Logger: quiet()}).Run(context.Background(), []types.Subject{{Path: userPath, Target: "App.Core"}})
	require.NoError(t, err)
	assert.Equal(t, []string{userPath}, report.Processed)
	assert.NotEmpty(t, report.Issues)
}

func TestRun_SkipsFilesWithoutChanges(t *testing.T) {
	idx, _ := load(t, map[string]string{userPath: userSrc})
	runner := NewRunner(idx, RunOptions{Logger: quiet()})

	report, err := runner.Run(context.Background(), []types.Subject{{Path: userPath, Target: "App.Models"}})
	require.NoError(t, err)
	assert.Empty(t, report.Processed)
	assert.Equal(t, []string{userPath}, report.Skipped)
	assert.Empty(t, report.ChangedFiles)
}

func TestRun_Cancelled(t *testing.T) {
	idx, store := load(t, map[string]string{userPath: userSrc, f2Path: f2Src})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewRunner(idx, RunOptions{Logger: quiet()}).Run(ctx, []types.Subject{{Path: userPath, Target: "App.Core"}})
	var refErr *types.RefactorError
	require.True(t, errors.As(err, &refErr))
	assert.Equal(t, types.Cancelled, refErr.Type)
	assert.Equal(t, userSrc, store.Text(userPath))
}

func TestWorkspace_DryRunAndCommit(t *testing.T) {
	dir := t.TempDir()
	write := func(rel, content string) {
		path := filepath.Join(dir, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	write("App.csproj", `<Project Sdk="Microsoft.NET.Sdk"><PropertyGroup><RootNamespace>App</RootNamespace></PropertyGroup></Project>`)
	write("Features/Models/User.cs", userSrc)
	write("F2.cs", f2Src)

	ctx := context.Background()
	ws, err := OpenWorkspace(ctx, dir, WorkspaceOptions{Logger: quiet()})
	require.NoError(t, err)

	subjects, err := ws.Subjects([]string{"Features/Models/User.cs"}, "")
	require.NoError(t, err)
	require.Len(t, subjects, 1)
	assert.Equal(t, "App.Features.Models", subjects[0].Target)

	_, err = ws.Subjects([]string{"Features/Models/Usr.cs"}, "")
	assert.ErrorContains(t, err, "did you mean")

	_, err = NewRunner(ws.Index, RunOptions{Logger: quiet()}).Run(ctx, subjects)
	require.NoError(t, err)

	diff, err := ws.Diff()
	require.NoError(t, err)
	assert.Contains(t, diff, "+++ b/F2.cs")
	assert.Contains(t, diff, "+namespace App.Features.Models")

	onDisk, err := os.ReadFile(filepath.Join(dir, "F2.cs"))
	require.NoError(t, err)
	assert.Equal(t, f2Src, string(onDisk))

	written, err := ws.Commit(true)
	require.NoError(t, err)
	assert.Len(t, written, 2)

	onDisk, err = os.ReadFile(filepath.Join(dir, "F2.cs"))
	require.NoError(t, err)
	assert.Contains(t, string(onDisk), "new App.Features.Models.User()")
	backup, err := os.ReadFile(filepath.Join(dir, "F2.cs.backup"))
	require.NoError(t, err)
	assert.Equal(t, f2Src, string(backup))
	assert.Empty(t, ws.Pending())
}
