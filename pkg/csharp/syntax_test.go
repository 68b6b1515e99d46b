package csharp

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamaar/nsadjust/pkg/types"
)

func mustParse(t *testing.T, src string) *File {
	t.Helper()
	f, err := Parse("test.cs", []byte(src))
	require.NoError(t, err)
	return f
}

func TestParse_BrokenInputStillProducesTree(t *testing.T) {
	f := mustParse(t, "namespace A {\n  class C {\n")
	require.NotNil(t, f.Root)
	assert.True(t, f.HasErrors)
	assert.Equal(t, "compilation_unit", f.Root.Kind)
}

func TestNamespaceBlocks_Nested(t *testing.T) {
	src := `namespace A.B
{
    namespace C
    {
        class X {}
    }
}
namespace A.B
{
}
`
	f := mustParse(t, src)
	blocks := f.NamespaceBlocks()
	require.Len(t, blocks, 3)

	assert.Equal(t, "A.B", blocks[0].FullName)
	assert.True(t, blocks[0].IsRoot())
	assert.Equal(t, []string{"A.B", "C"}, blocks[1].Segments)
	assert.Equal(t, "A.B.C", blocks[1].FullName)
	assert.False(t, blocks[1].IsRoot())
	assert.Equal(t, "A.B", f.Text(blocks[2].NameNode))
}

func TestNamespaceBlocks_FileScoped(t *testing.T) {
	f := mustParse(t, "namespace App.Models;\n\npublic class User {}\n")
	blocks := f.NamespaceBlocks()
	require.Len(t, blocks, 1)
	assert.True(t, blocks[0].FileScoped)
	assert.Equal(t, "App.Models", blocks[0].FullName)

	offset := strings.Index(string(f.Source), "User")
	assert.Equal(t, []string{"App.Models", "App"}, f.EnclosingNamespaces(offset))
}

func TestEnclosingNamespaces_InnermostFirst(t *testing.T) {
	src := "namespace A { namespace B.C { class X {} } }"
	f := mustParse(t, src)
	offset := strings.Index(src, "X")
	assert.Equal(t, []string{"A.B.C", "A.B", "A"}, f.EnclosingNamespaces(offset))
	assert.Empty(t, f.EnclosingNamespaces(0))
}

func TestUsings(t *testing.T) {
	src := `using System;
using static System.Math;
using Col = System.Collections.Generic;
global using App.Models;
namespace App
{
    using App.Services;
}
`
	f := mustParse(t, src)
	usings := f.Usings()
	require.Len(t, usings, 5)

	assert.Equal(t, "System", usings[0].Name)
	assert.True(t, usings[0].IsNamespaceImport())

	assert.Equal(t, "System.Math", usings[1].Name)
	assert.True(t, usings[1].Static)
	assert.False(t, usings[1].IsNamespaceImport())

	assert.Equal(t, "Col", usings[2].Alias)
	assert.Equal(t, "System.Collections.Generic", usings[2].Name)

	assert.True(t, usings[3].Global)
	assert.Equal(t, "App.Models", usings[3].Name)

	assert.Equal(t, "App.Services", usings[4].Name)
}

func TestTypeDeclarations(t *testing.T) {
	src := `namespace App.Models
{
    public class User
    {
        class Nested {}
    }
    internal enum Role { Admin }
    public delegate void Changed(object sender);
    public static class UserExtensions
    {
        public static string Display(this User user) => "";
        public static int Helper(int x) => x;
    }
}
interface IRoot {}
`
	f := mustParse(t, src)
	decls := f.TypeDeclarations()

	var names []string
	for _, d := range decls {
		names = append(names, d.FullName())
	}
	assert.Equal(t, []string{
		"App.Models.User",
		"App.Models.Role",
		"App.Models.Changed",
		"App.Models.UserExtensions",
		"IRoot",
	}, names)

	assert.Equal(t, types.EnumSymbol, decls[1].Kind)
	assert.Equal(t, types.DelegateSymbol, decls[2].Kind)

	ext := decls[3]
	assert.True(t, ext.Static)
	require.Len(t, ext.ExtensionMethods, 1)
	assert.Equal(t, "Display", ext.ExtensionMethods[0].Name)
	assert.False(t, decls[0].Static)
}

func TestIsDeclarationName(t *testing.T) {
	src := `namespace A
{
    class User
    {
        public User Owner { get; set; }
        void Rename(User other) { var copy = other; }
    }
}
`
	f := mustParse(t, src)

	var decl, ref int
	f.Root.Walk(func(n *Node) bool {
		if n.Kind == KindIdentifier && f.Text(n) == "User" {
			if IsDeclarationName(n) {
				decl++
			} else {
				ref++
			}
		}
		return true
	})
	assert.Equal(t, 1, decl)
	assert.Equal(t, 2, ref)

	for _, name := range []string{"Owner", "Rename", "other", "copy"} {
		offset := strings.Index(src, name)
		id := f.IdentifierAt(offset, offset+len(name))
		require.NotNil(t, id, name)
		assert.True(t, IsDeclarationName(id), name)
	}
}

func TestLineAndColumn(t *testing.T) {
	f := mustParse(t, "namespace A\n{\n    class B {}\n}\n")
	offset := strings.Index(string(f.Source), "class")
	assert.Equal(t, 3, f.Line(offset))
	assert.Equal(t, 5, f.Column(offset))
}

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "A.B.C", NormalizeName("A . B\n.C"))
}
