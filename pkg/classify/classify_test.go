package classify

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamaar/nsadjust/pkg/fixer"
	"github.com/mamaar/nsadjust/pkg/semantic"
	"github.com/mamaar/nsadjust/pkg/transition"
	"github.com/mamaar/nsadjust/pkg/types"
)

const subjectPath = "/ws/Models/User.cs"

const subjectSrc = `namespace App.Models
{
    public class User
    {
        public static User Create() => new User();
    }
}
`

func quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fixture struct {
	idx      *semantic.Index
	store    *semantic.MemStore
	batch    *fixer.Batch
	rewriter *Rewriter
	user     *types.Symbol
	trans    *transition.Container
}

func setup(t *testing.T, files map[string]string) *fixture {
	t.Helper()
	files[subjectPath] = subjectSrc
	store := semantic.NewMemStore(files)
	idx := semantic.NewIndex("/ws", store, semantic.Options{Logger: quiet()})
	require.NoError(t, idx.Load(context.Background()))

	root, err := idx.SyntaxRoot(context.Background(), subjectPath)
	require.NoError(t, err)

	batch := fixer.NewBatch(idx, quiet())
	return &fixture{
		idx:      idx,
		store:    store,
		batch:    batch,
		rewriter: NewRewriter(idx, batch, quiet()),
		user:     idx.Lookup("App.Models.User"),
		trans:    transition.Compute(root, "App.Features.Models"),
	}
}

func (f *fixture) run(t *testing.T) Stats {
	t.Helper()
	stats, err := f.rewriter.Rewrite(context.Background(), f.user, f.trans, subjectPath)
	require.NoError(t, err)
	_, err = f.batch.Apply(context.Background())
	require.NoError(t, err)
	return stats
}

func TestRewrite_QualifiedName(t *testing.T) {
	f := setup(t, map[string]string{
		"/ws/F2.cs": "using App.Models;\nclass C\n{\n    void M() { var u = new App.Models.User(); }\n}\n",
	})
	stats := f.run(t)

	assert.Equal(t, 1, stats.Qualified)
	assert.Equal(t, "using App.Models;\nclass C\n{\n    void M() { var u = new App.Features.Models.User(); }\n}\n", f.store.Text("/ws/F2.cs"))
}

func TestRewrite_PreservesGlobalAndTrivia(t *testing.T) {
	f := setup(t, map[string]string{
		"/ws/F2.cs": "class C\n{\n    global::App.Models.User a;\n    App.Models.User  b;\n}\n",
	})
	stats := f.run(t)

	assert.Equal(t, 2, stats.Qualified)
	assert.Equal(t, "class C\n{\n    global::App.Features.Models.User a;\n    App.Features.Models.User  b;\n}\n", f.store.Text("/ws/F2.cs"))
}

func TestRewrite_MemberAccess(t *testing.T) {
	f := setup(t, map[string]string{
		"/ws/F2.cs": "class C\n{\n    void M() { var u = App.Models.User.Create(); }\n}\n",
	})
	stats := f.run(t)

	assert.Equal(t, 1, stats.MemberAccess)
	assert.Equal(t, "class C\n{\n    void M() { var u = App.Features.Models.User.Create(); }\n}\n", f.store.Text("/ws/F2.cs"))
}

func TestRewrite_UnqualifiedFallsBackToImport(t *testing.T) {
	f := setup(t, map[string]string{
		"/ws/F2.cs": "using System;\nusing App.Models;\n\nclass C\n{\n    User a;\n    User b;\n}\n",
		"/ws/F3.cs": "namespace App.Features.Models\n{\n    class D { App.Models.User u; User v; }\n}\n",
	})
	stats := f.run(t)

	assert.Equal(t, 2, stats.Imports)
	assert.Equal(t, 1, stats.Qualified)
	assert.Equal(t, "using System;\nusing App.Models;\nusing App.Features.Models;\n\nclass C\n{\n    User a;\n    User b;\n}\n", f.store.Text("/ws/F2.cs"))

	assert.Equal(t, "namespace App.Features.Models\n{\n    class D { App.Features.Models.User u; User v; }\n}\n", f.store.Text("/ws/F3.cs"))

	issues := f.rewriter.Issues()
	require.Len(t, issues, 2)
	assert.Equal(t, types.IssueUnclassifiedReference, issues[0].Type)
	assert.Equal(t, types.Info, issues[0].Severity)
}

func TestRewrite_SubjectFileUnqualifiedReferencesSkipped(t *testing.T) {
	f := setup(t, map[string]string{})
	stats := f.run(t)

	assert.Equal(t, 0, stats.Imports)
	assert.Equal(t, 2, stats.Skipped)
	assert.Equal(t, subjectSrc, f.store.Text(subjectPath))
}

func TestRewrite_MissingTransition(t *testing.T) {
	f := setup(t, map[string]string{})
	other := &types.Symbol{Name: "X", Namespace: "Elsewhere", FullName: "Elsewhere.X", Kind: types.ClassSymbol}

	_, err := f.rewriter.Rewrite(context.Background(), other, f.trans, subjectPath)
	var refErr *types.RefactorError
	require.True(t, errors.As(err, &refErr))
	assert.Equal(t, types.TransitionMissing, refErr.Type)
}

func TestClassify_Shapes(t *testing.T) {
	f := setup(t, map[string]string{
		"/ws/F2.cs": "using App.Models;\nclass C : User\n{\n    App.Models.User a;\n    System.Func<User> b = () => App.Models.User.Create();\n}\n",
	})
	ctx := context.Background()
	refs, err := f.idx.FindReferences(ctx, f.user)
	require.NoError(t, err)

	file, err := f.idx.SyntaxRoot(ctx, "/ws/F2.cs")
	require.NoError(t, err)
	model, err := f.idx.SemanticModel(ctx, "/ws/F2.cs")
	require.NoError(t, err)

	var shapes []Shape
	for _, ref := range refs {
		if ref.File != "/ws/F2.cs" {
			continue
		}
		shapes = append(shapes, Classify(file, model, ref, f.user, "New.Models").Shape)
	}
	assert.Equal(t, []Shape{Unclassified, QualifiedName, Unclassified, MemberAccess}, shapes)
}
