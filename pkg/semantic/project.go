package semantic

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"

	"github.com/hbollon/go-edlib"

	"github.com/mamaar/nsadjust/pkg/types"
)

// Project is the C# project that owns a source file
type Project struct {
	File          string // Path of the .csproj
	Dir           string
	RootNamespace string
}

type csproj struct {
	PropertyGroups []struct {
		RootNamespace string `xml:"RootNamespace"`
	} `xml:"PropertyGroup"`
}

// FindProject walks up from filePath to the nearest directory holding a
// .csproj, stopping at stopAt.
func FindProject(filePath, stopAt string) (*Project, error) {
	dir := filepath.Dir(filePath)
	stopAt = filepath.Clean(stopAt)
	for {
		matches, _ := filepath.Glob(filepath.Join(dir, "*.csproj"))
		if len(matches) > 0 {
			sort.Strings(matches)
			return loadProject(matches[0])
		}
		parent := filepath.Dir(dir)
		if dir == stopAt || parent == dir {
			break
		}
		dir = parent
	}
	return nil, &types.RefactorError{
		Type:    types.DocumentMissing,
		Message: "no .csproj found above file",
		File:    filePath,
	}
}

func loadProject(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &types.RefactorError{Type: types.FileSystemError, Message: "failed to read project", File: path, Cause: err}
	}
	var proj csproj
	if err := xml.Unmarshal(data, &proj); err != nil {
		return nil, &types.RefactorError{Type: types.ParseError, Message: "invalid project file", File: path, Cause: err}
	}

	p := &Project{File: path, Dir: filepath.Dir(path)}
	for _, group := range proj.PropertyGroups {
		if ns := strings.TrimSpace(group.RootNamespace); ns != "" {
			p.RootNamespace = ns
			break
		}
	}
	if p.RootNamespace == "" {
		p.RootNamespace = SanitizeNamespace(strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))
	}
	return p, nil
}

// TargetNamespace derives the namespace a file should live in from the root
// namespace and its folder below projectDir.
func TargetNamespace(rootNamespace, projectDir, filePath string) (string, error) {
	rel, err := filepath.Rel(projectDir, filepath.Dir(filePath))
	if err != nil {
		return "", fmt.Errorf("file %s is not below project %s: %w", filePath, projectDir, err)
	}
	if strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("file %s is not below project %s", filePath, projectDir)
	}

	parts := []string{}
	if rootNamespace != "" {
		parts = append(parts, rootNamespace)
	}
	if rel != "." {
		for _, segment := range strings.Split(filepath.ToSlash(rel), "/") {
			if s := SanitizeNamespace(segment); s != "" {
				parts = append(parts, s)
			}
		}
	}
	if len(parts) == 0 {
		return "", fmt.Errorf("no namespace can be derived for %s", filePath)
	}
	return strings.Join(parts, "."), nil
}

// SanitizeNamespace turns a folder or project name into a dotted C# name:
// invalid characters become underscores and segments starting with a digit
// get a leading underscore.
func SanitizeNamespace(name string) string {
	var segments []string
	for _, segment := range strings.Split(name, ".") {
		var b strings.Builder
		for _, r := range segment {
			if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
				b.WriteRune(r)
			} else {
				b.WriteRune('_')
			}
		}
		s := b.String()
		if s == "" {
			continue
		}
		if unicode.IsDigit(rune(s[0])) {
			s = "_" + s
		}
		segments = append(segments, s)
	}
	return strings.Join(segments, ".")
}

// Suggest returns the known document paths closest to an unknown one.
func Suggest(docs []*types.Document, input string, limit int) []string {
	if len(docs) == 0 || limit <= 0 {
		return nil
	}
	base := filepath.Base(input)

	type scored struct {
		path  string
		score float32
	}
	var candidates []scored
	for _, doc := range docs {
		score, err := edlib.StringsSimilarity(base, filepath.Base(doc.Path), edlib.Levenshtein)
		if err != nil || score < 0.5 {
			continue
		}
		candidates = append(candidates, scored{path: doc.Path, score: score})
	}
	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].score > candidates[j].score })

	var out []string
	for i := 0; i < len(candidates) && i < limit; i++ {
		out = append(out, candidates[i].path)
	}
	return out
}
