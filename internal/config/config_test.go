package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamaar/nsadjust/pkg/types"
)

func TestLoad_MissingDefaultFile(t *testing.T) {
	cfg, err := Load(t.TempDir(), "")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.True(t, cfg.Markup.RemoveUnusedAliases)
	assert.Equal(t, 200*time.Millisecond, cfg.WatchDebounce())
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(t.TempDir(), filepath.Join(t.TempDir(), "custom.toml"))
	assert.Error(t, err)
}

func TestLoad_OverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	content := `root_namespace = "Contoso.App"
exclude = ["Legacy/**"]
markup_extensions = ["xaml"]
parse_workers = 4

[markup]
remove_unused_aliases = false
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0644))

	cfg, err := Load(dir, "")
	require.NoError(t, err)
	assert.Equal(t, "Contoso.App", cfg.RootNamespace)
	assert.Equal(t, []string{"Legacy/**"}, cfg.Exclude)
	assert.Equal(t, []string{".xaml"}, cfg.MarkupExtensions)
	assert.Equal(t, 4, cfg.ParseWorkers)
	assert.False(t, cfg.Markup.RemoveUnusedAliases)
	// Untouched keys keep their defaults.
	assert.Equal(t, []string{"XamlGeneratedNamespace"}, cfg.ExcludedNamespaces)
	assert.Equal(t, filepath.Join(dir, FileName), cfg.Path)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"syntax", "root_namespace = \n", "parse config"},
		{"workers", "parse_workers = -1\n", "parse_workers"},
		{"pattern", "exclude = [\"[\"]\n", "invalid exclude pattern"},
		{"cs markup", "markup_extensions = [\".cs\"]\n", "must not contain .cs"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "cfg.toml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0644))
			_, err := Load("", path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestEncode_RoundTrips(t *testing.T) {
	text, err := Default().Encode()
	require.NoError(t, err)
	assert.Contains(t, text, "remove_unused_aliases = true")

	path := filepath.Join(t.TempDir(), "cfg.toml")
	require.NoError(t, os.WriteFile(path, []byte(text), 0644))
	cfg, err := Load("", path)
	require.NoError(t, err)
	cfg.Path = ""
	assert.Equal(t, Default(), cfg)
}

func TestRunOptions_MapsConfig(t *testing.T) {
	cfg := Default()
	cfg.Markup.RemoveUnusedAliases = false
	cfg.ExcludedNamespaces = []string{"Generated"}

	opts := cfg.RunOptions("/ws", true, nil)
	assert.True(t, opts.Force)
	assert.True(t, opts.Markup.KeepUnusedAliases)
	assert.Equal(t, []string{"Generated"}, opts.ExcludedNamespaces)
}

func TestRunOptions_InScopeFollowsExclude(t *testing.T) {
	cfg := Default()
	cfg.Exclude = append(cfg.Exclude, "Legacy/**")
	inScope := cfg.RunOptions("/ws", false, nil).InScope
	require.NotNil(t, inScope)

	doc := func(path string) *types.Document { return &types.Document{Path: path} }
	assert.True(t, inScope(doc("/ws/App/User.cs")))
	assert.False(t, inScope(doc("/ws/Legacy/Old.cs")))
	assert.False(t, inScope(doc("/ws/App/obj/Debug/Gen.g.cs")))
	assert.False(t, inScope(doc("/elsewhere/F.cs")))
}

func TestWorkspaceOptions_MapsConfig(t *testing.T) {
	cfg := Default()
	cfg.RootNamespace = "Contoso"
	cfg.ParseWorkers = 3

	opts := cfg.WorkspaceOptions(nil)
	assert.Equal(t, "Contoso", opts.RootNamespace)
	assert.Equal(t, 3, opts.Workers)
	assert.Equal(t, cfg.MarkupExtensions, opts.MarkupExtensions)
	assert.Equal(t, []string{".cs", ".xaml", ".axaml"}, cfg.WatchExtensions())
}
