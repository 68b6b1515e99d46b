package xaml

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counter() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%02d", n)
	}
}

func open(t *testing.T, text string, opts Options) (*Document, *BufferSource) {
	t.Helper()
	if opts.Disambiguator == nil {
		opts.Disambiguator = counter()
	}
	opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	src := &BufferSource{Text: text}
	doc, err := Open("Shell.xaml", src, opts)
	require.NoError(t, err)
	return doc, src
}

const shell = `<UserControl x:Class="App.Views.Shell"
             xmlns="http://schemas.microsoft.com/winfx/2006/xaml/presentation"
             xmlns:x="http://schemas.microsoft.com/winfx/2006/xaml"
             xmlns:m="clr-namespace:App.Models;assembly=App"
             xmlns:c="clr-namespace:App.Controls">
    <m:User />
    <m:Role />
    <c:Badge Tag="{x:Type m:User}" />
</UserControl>
`

func TestParse(t *testing.T) {
	s := Parse(shell)

	assert.Equal(t, "x", s.XPrefix)
	require.Len(t, s.Xmlns, 2)
	assert.Equal(t, "m", s.Xmlns[0].Alias)
	assert.Equal(t, "App.Models", s.Xmlns[0].Namespace)
	assert.Equal(t, ";assembly=App", s.Xmlns[0].Suffix)
	assert.True(t, s.Xmlns[0].Saved)
	assert.Len(t, s.Declarations, 4)

	var controls []string
	for _, c := range s.Controls {
		controls = append(controls, c.Prefix+":"+c.Name)
	}
	assert.Equal(t, []string{"m:User", "m:Role", "c:Badge"}, controls)

	require.Len(t, s.References, 1)
	assert.Equal(t, "Type", s.References[0].Extension)
	assert.Equal(t, "m", shell[s.References[0].PrefixStart:s.References[0].PrefixEnd])

	require.Len(t, s.Classes, 1)
	assert.Equal(t, "App.Views.Shell", s.Classes[0].FullName())
	assert.Equal(t, "App.Views.Shell", shell[s.Classes[0].Start:s.Classes[0].End])
}

func TestParse_CustomDefinitionsPrefix(t *testing.T) {
	text := `<Grid xmlns:xx="http://schemas.microsoft.com/winfx/2006/xaml" xmlns:m="clr-namespace:App.Models"
      Tag="{xx:Static m:Defaults.Name}" Other="{x:Type m:Ignored}" />`
	s := Parse(text)

	assert.Equal(t, "xx", s.XPrefix)
	require.Len(t, s.References, 1)
	assert.Equal(t, "Static", s.References[0].Extension)
	assert.Equal(t, "Defaults", s.References[0].Name)
	assert.Equal(t, "Name", s.References[0].Member)
}

func TestMoveObject_ReusesTargetAlias(t *testing.T) {
	doc, src := open(t, shell, Options{})

	n, err := doc.MoveObject("App.Models", "User", "App.Features.Models")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, `<UserControl x:Class="App.Views.Shell"
             xmlns="http://schemas.microsoft.com/winfx/2006/xaml/presentation"
             xmlns:x="http://schemas.microsoft.com/winfx/2006/xaml"
             xmlns:m="clr-namespace:App.Models;assembly=App"
             xmlns:c="clr-namespace:App.Controls"
             xmlns:Models01="clr-namespace:App.Features.Models;assembly=App">
    <Models01:User />
    <m:Role />
    <c:Badge Tag="{x:Type Models01:User}" />
</UserControl>
`, doc.Text())

	n, err = doc.MoveObject("App.Models", "Role", "App.Features.Models")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, `<UserControl x:Class="App.Views.Shell"
             xmlns="http://schemas.microsoft.com/winfx/2006/xaml/presentation"
             xmlns:x="http://schemas.microsoft.com/winfx/2006/xaml"
             xmlns:c="clr-namespace:App.Controls"
             xmlns:Models01="clr-namespace:App.Features.Models;assembly=App">
    <Models01:User />
    <Models01:Role />
    <c:Badge Tag="{x:Type Models01:User}" />
</UserControl>
`, doc.Text())
	assert.Len(t, doc.Structure().AliasesFor("App.Features.Models"), 1)

	assert.Equal(t, shell, src.Text)
	saved, err := doc.SaveIfChangesExists()
	require.NoError(t, err)
	assert.True(t, saved)
	assert.Equal(t, doc.Text(), src.Text)
	assert.Equal(t, 1, src.Updates)
}

func TestMoveObject_ClassStaticAndClosingTags(t *testing.T) {
	text := `<Window x:Class="App.Models.MainWindow"
        xmlns:x="http://schemas.microsoft.com/winfx/2006/xaml"
        xmlns:local="clr-namespace:App.Models">
    <TextBlock Text="{x:Static local:Strings.Title}" />
    <local:Panel>
    </local:Panel>
</Window>
`
	doc, _ := open(t, text, Options{Disambiguator: func() string { return "7" }})

	n, err := doc.MoveObject("App.Models", "MainWindow", "App.Ui")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Empty(t, doc.Structure().AliasesFor("App.Ui"))

	n, err = doc.MoveObject("App.Models", "Strings", "App.Ui")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = doc.MoveObject("App.Models", "Panel", "App.Ui")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	assert.Equal(t, `<Window x:Class="App.Ui.MainWindow"
        xmlns:x="http://schemas.microsoft.com/winfx/2006/xaml"
        xmlns:Ui7="clr-namespace:App.Ui">
    <TextBlock Text="{x:Static Ui7:Strings.Title}" />
    <Ui7:Panel>
    </Ui7:Panel>
</Window>
`, doc.Text())
}

func TestMoveObject_LeavesUnrelatedAliases(t *testing.T) {
	text := `<Grid xmlns:x="http://schemas.microsoft.com/winfx/2006/xaml" xmlns:m="clr-namespace:App.Models" xmlns:o="clr-namespace:Other.Models">
    <o:User />
    <m:User />
</Grid>`
	doc, _ := open(t, text, Options{})

	n, err := doc.MoveObject("App.Models", "User", "App.Core")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, `<Grid xmlns:x="http://schemas.microsoft.com/winfx/2006/xaml" xmlns:o="clr-namespace:Other.Models" xmlns:Core01="clr-namespace:App.Core">
    <o:User />
    <Core01:User />
</Grid>`, doc.Text())
}

func TestMoveObject_AvoidsTakenAliases(t *testing.T) {
	text := `<Grid xmlns:Core01="clr-namespace:Elsewhere" xmlns:m="clr-namespace:App.Models"><m:User /><Core01:Thing /></Grid>`
	doc, _ := open(t, text, Options{})

	_, err := doc.MoveObject("App.Models", "User", "App.Core")
	require.NoError(t, err)
	assert.Equal(t, `<Grid xmlns:Core01="clr-namespace:Elsewhere" xmlns:Core02="clr-namespace:App.Core"><Core02:User /><Core01:Thing /></Grid>`, doc.Text())
}

func TestMoveObject_KeepUnusedAliases(t *testing.T) {
	text := `<Grid xmlns:m="clr-namespace:App.Models"><m:User /></Grid>`
	doc, _ := open(t, text, Options{KeepUnusedAliases: true})

	_, err := doc.MoveObject("App.Models", "User", "App.Core")
	require.NoError(t, err)
	assert.Equal(t, `<Grid xmlns:m="clr-namespace:App.Models" xmlns:Core01="clr-namespace:App.Core"><Core01:User /></Grid>`, doc.Text())
}

func TestMoveObject_AttachedPropertyKeepsAlias(t *testing.T) {
	text := `<Grid xmlns:m="clr-namespace:App.Models"><m:User /><Border m:Layout.Column="1" /></Grid>`
	doc, _ := open(t, text, Options{})

	_, err := doc.MoveObject("App.Models", "User", "App.Core")
	require.NoError(t, err)
	assert.NotNil(t, doc.Structure().Alias("m"))
}

func TestMoveObject_NothingToDo(t *testing.T) {
	doc, src := open(t, shell, Options{})

	n, err := doc.MoveObject("App.Models", "Missing", "App.Core")
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = doc.MoveObject("App.Models", "User", "App.Models")
	require.NoError(t, err)
	assert.Zero(t, n)

	assert.False(t, doc.Changed())
	saved, err := doc.SaveIfChangesExists()
	require.NoError(t, err)
	assert.False(t, saved)
	assert.Zero(t, src.Updates)
}

func TestFileSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "View.xaml")
	require.NoError(t, os.WriteFile(path, []byte(`<Grid xmlns:m="clr-namespace:A"><m:B /></Grid>`), 0600))

	doc, err := Open(path, FileSource{Path: path}, Options{Disambiguator: func() string { return "" }})
	require.NoError(t, err)
	_, err = doc.MoveObject("A", "B", "C")
	require.NoError(t, err)
	saved, err := doc.SaveIfChangesExists()
	require.NoError(t, err)
	require.True(t, saved)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `<Grid xmlns:C="clr-namespace:C"><C:B /></Grid>`, string(data))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	_, err = Open("missing", FileSource{Path: filepath.Join(t.TempDir(), "none.xaml")}, Options{})
	assert.Error(t, err)
}
