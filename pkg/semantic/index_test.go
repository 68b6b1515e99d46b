package semantic

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamaar/nsadjust/pkg/csharp"
	"github.com/mamaar/nsadjust/pkg/types"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func loadIndex(t *testing.T, files map[string]string) (*Index, *MemStore) {
	t.Helper()
	store := NewMemStore(files)
	idx := NewIndex("/ws", store, Options{MarkupExtensions: []string{".xaml"}, Logger: quietLogger()})
	require.NoError(t, idx.Load(context.Background()))
	return idx, store
}

const modelsFile = `namespace App.Models
{
    public class User {}
    public static class UserExtensions
    {
        public static string Display(this User user) => "";
    }
}
`

func TestLoad(t *testing.T) {
	idx, _ := loadIndex(t, map[string]string{
		"/ws/Models/User.cs":        modelsFile,
		"/ws/Views/Main.xaml":       "<Window/>",
		"/ws/obj/Main.g.cs":         "namespace XamlGeneratedNamespace { class Gen {} }",
		"/ws/readme.md":             "ignored",
		"/ws/Services/UserStore.cs": "namespace App.Services { class UserStore {} }",
	})

	docs := idx.Documents()
	require.Len(t, docs, 4)

	kinds := map[string]types.DocumentKind{}
	generated := map[string]bool{}
	for _, d := range docs {
		kinds[d.Path] = d.Kind
		generated[d.Path] = d.Generated
	}
	assert.Equal(t, types.MarkupDocument, kinds["/ws/Views/Main.xaml"])
	assert.Equal(t, types.CSharpDocument, kinds["/ws/Models/User.cs"])
	assert.True(t, generated["/ws/obj/Main.g.cs"])

	all, err := idx.AllTypes(context.Background())
	require.NoError(t, err)
	var names []string
	for _, sym := range all {
		names = append(names, sym.FullName)
	}
	assert.Equal(t, []string{"App.Models.User", "App.Models.UserExtensions", "App.Services.UserStore", "XamlGeneratedNamespace.Gen"}, names)

	ext := idx.Lookup("App.Models.UserExtensions")
	require.NotNil(t, ext)
	require.Len(t, ext.Children, 1)
	assert.Equal(t, "Display", ext.Children[0].Name)
}

func TestFindReferences_Shapes(t *testing.T) {
	consumer := `using App.Models;
using Alias = App.Models.User;

namespace App.Services
{
    class Consumer
    {
        App.Models.User qualified;
        User simple;
        global::App.Models.User rooted;
        System.Collections.Generic.List<User> generic;

        void Run(User user)
        {
            var created = new App.Models.User();
            var name = user.Display();
        }
    }
}
`
	idx, _ := loadIndex(t, map[string]string{
		"/ws/Models/User.cs":        modelsFile,
		"/ws/Services/Consumer.cs":  consumer,
		"/ws/Services/Unrelated.cs": "namespace Other { class User {} class X { User mine; } }",
	})
	ctx := context.Background()

	user := idx.Lookup("App.Models.User")
	require.NotNil(t, user)
	refs, err := idx.FindReferences(ctx, user)
	require.NoError(t, err)

	var lines []int
	for _, ref := range refs {
		assert.Equal(t, "/ws/Services/Consumer.cs", ref.File)
		lines = append(lines, ref.Line)
	}
	// using alias, qualified field, simple field, global field, generic
	// argument, parameter, object creation
	assert.Equal(t, []int{2, 8, 9, 10, 11, 13, 15}, lines)

	ext := idx.Lookup("App.Models.UserExtensions")
	extRefs, err := idx.FindReferences(ctx, ext)
	require.NoError(t, err)
	require.Len(t, extRefs, 1)
	assert.Equal(t, types.MethodSymbol, extRefs[0].Symbol.Kind)
	assert.Equal(t, 16, extRefs[0].Line)
}

func TestModel_NamespaceOf(t *testing.T) {
	src := `namespace App.Services
{
    class C
    {
        void M() { var u = App.Models.User.Create(); }
    }
}
`
	idx, _ := loadIndex(t, map[string]string{
		"/ws/Models/User.cs": modelsFile,
		"/ws/C.cs":           src,
	})
	ctx := context.Background()
	file, err := idx.SyntaxRoot(ctx, "/ws/C.cs")
	require.NoError(t, err)
	m, err := idx.SemanticModel(ctx, "/ws/C.cs")
	require.NoError(t, err)

	start := strings.Index(src, "App.Models")
	access := file.NodeAt(start, start+len("App.Models"), csharp.KindMemberAccess)
	require.NotNil(t, access)
	ns, ok := m.NamespaceOf(access)
	assert.True(t, ok)
	assert.Equal(t, "App.Models", ns)

	typeStart := strings.Index(src, "User")
	sym := m.SymbolAt(file.IdentifierAt(typeStart, typeStart+4))
	require.NotNil(t, sym)
	assert.Equal(t, "App.Models.User", sym.FullName)

	createStart := strings.Index(src, "Create")
	assert.Nil(t, m.SymbolAt(file.IdentifierAt(createStart, createStart+6)))
}

func TestDeclaredTypes(t *testing.T) {
	idx, _ := loadIndex(t, map[string]string{"/ws/Models/User.cs": modelsFile})
	syms, err := idx.DeclaredTypes(context.Background(), "/ws/Models/User.cs")
	require.NoError(t, err)
	require.Len(t, syms, 2)
	assert.Equal(t, "App.Models.User", syms[0].FullName)
	assert.True(t, syms[1].Static)
}

func TestSyntaxRoot_Missing(t *testing.T) {
	idx, _ := loadIndex(t, map[string]string{"/ws/View.xaml": "<Grid/>"})
	ctx := context.Background()

	_, err := idx.SyntaxRoot(ctx, "/ws/Nope.cs")
	var refErr *types.RefactorError
	require.True(t, errors.As(err, &refErr))
	assert.Equal(t, types.DocumentMissing, refErr.Type)

	_, err = idx.SemanticModel(ctx, "/ws/View.xaml")
	require.True(t, errors.As(err, &refErr))
	assert.Equal(t, types.SemanticModelMissing, refErr.Type)
	assert.True(t, types.IsEnvironmentMissing(err))
}

func TestTryApplyEdit(t *testing.T) {
	idx, store := loadIndex(t, map[string]string{"/ws/A.cs": "namespace Old { class A {} }"})
	ctx := context.Background()

	file, err := idx.SyntaxRoot(ctx, "/ws/A.cs")
	require.NoError(t, err)
	base := file.Version

	// A background writer changes the document first.
	require.NoError(t, store.WriteFile("/ws/A.cs", []byte("namespace Old { class A {} class B {} }")))
	ok, err := idx.TryApplyEdit(ctx, "/ws/A.cs", base, "namespace New { class A {} }")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NotNil(t, idx.Lookup("Old.B"))

	file, err = idx.SyntaxRoot(ctx, "/ws/A.cs")
	require.NoError(t, err)
	ok, err = idx.TryApplyEdit(ctx, "/ws/A.cs", file.Version, "namespace New { class A {} }")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "namespace New { class A {} }", store.Text("/ws/A.cs"))
	assert.NotNil(t, idx.Lookup("New.A"))
	assert.Nil(t, idx.Lookup("Old.A"))
}

func TestInvalidateAndRemove(t *testing.T) {
	idx, store := loadIndex(t, map[string]string{"/ws/A.cs": "namespace N { class A {} }"})

	require.NoError(t, store.WriteFile("/ws/B.cs", []byte("namespace N { class B {} }")))
	require.NoError(t, idx.Invalidate("/ws/B.cs"))
	assert.NotNil(t, idx.Lookup("N.B"))

	require.NoError(t, idx.Invalidate("/ws/notes.txt"))
	_, known := idx.Document("/ws/notes.txt")
	assert.False(t, known)

	idx.Remove("/ws/A.cs")
	assert.Nil(t, idx.Lookup("N.A"))
	assert.Len(t, idx.Documents(), 1)
}

func TestDiagnostics(t *testing.T) {
	idx, _ := loadIndex(t, map[string]string{
		"/ws/Good.cs":   "namespace N { class A {} }",
		"/ws/Broken.cs": "namespace N {\n class B {\n",
	})
	issues := idx.Diagnostics(context.Background())
	require.Len(t, issues, 1)
	assert.Equal(t, "/ws/Broken.cs", issues[0].File)
	assert.Equal(t, types.Warning, issues[0].Severity)
	assert.False(t, types.HasErrors(issues))
}

func TestConflictingType(t *testing.T) {
	idx, _ := loadIndex(t, map[string]string{
		"/ws/A.cs": "namespace Target { class User {} }",
		"/ws/B.cs": "namespace Old { class User {} }",
	})
	assert.NotNil(t, idx.ConflictingType("Target", "User", "/ws/B.cs"))
	assert.Nil(t, idx.ConflictingType("Target", "User", "/ws/A.cs"))
	assert.Nil(t, idx.ConflictingType("Target", "Other", "/ws/B.cs"))
}
