package semantic

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	ignore "github.com/sabhiram/go-gitignore"
)

// Store is the text storage behind an Index
type Store interface {
	ReadFile(path string) ([]byte, error)
	WriteFile(path string, data []byte) error
	List() ([]string, error)
}

var skipDirs = map[string]struct{}{
	".git":         {},
	".vs":          {},
	".idea":        {},
	"bin":          {},
	"obj":          {},
	"node_modules": {},
	"packages":     {},
}

// DiskStore serves files below Root, honouring .gitignore and Exclude
// patterns (doublestar syntax, relative to Root).
type DiskStore struct {
	Root       string
	Exclude    []string
	Extensions []string

	gitignore *ignore.GitIgnore
}

// NewDiskStore creates a store rooted at root that lists files with one of
// the given extensions.
func NewDiskStore(root string, extensions []string, exclude []string) (*DiskStore, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve workspace root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("workspace root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("workspace root %s is not a directory", abs)
	}
	for _, pattern := range exclude {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid exclude pattern %q", pattern)
		}
	}

	s := &DiskStore{Root: abs, Exclude: exclude, Extensions: extensions}
	if gi, err := ignore.CompileIgnoreFile(filepath.Join(abs, ".gitignore")); err == nil {
		s.gitignore = gi
	}
	return s, nil
}

func (s *DiskStore) abs(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(s.Root, path)
}

func (s *DiskStore) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(s.abs(path))
}

func (s *DiskStore) WriteFile(path string, data []byte) error {
	path = s.abs(path)
	mode := os.FileMode(0644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}
	return os.WriteFile(path, data, mode)
}

// List walks Root and returns absolute paths of the matching files.
func (s *DiskStore) List() ([]string, error) {
	var files []string
	err := filepath.WalkDir(s.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if path == s.Root {
			return nil
		}

		rel, err := filepath.Rel(s.Root, path)
		if err != nil {
			return nil
		}

		if d.IsDir() {
			if _, skip := skipDirs[d.Name()]; skip {
				return filepath.SkipDir
			}
			if s.Ignored(rel + "/") {
				return filepath.SkipDir
			}
			return nil
		}

		if d.Type()&os.ModeSymlink != 0 || !hasExtension(path, s.Extensions) {
			return nil
		}
		if s.Ignored(rel) {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// Ignored reports whether a root-relative path is excluded by .gitignore or
// an exclude pattern.
func (s *DiskStore) Ignored(rel string) bool {
	rel = filepath.ToSlash(rel)
	if s.gitignore != nil && s.gitignore.MatchesPath(rel) {
		return true
	}
	for _, pattern := range s.Exclude {
		if ok, _ := doublestar.Match(pattern, strings.TrimSuffix(rel, "/")); ok {
			return true
		}
	}
	return false
}

// MemStore keeps files in memory
type MemStore struct {
	mu    sync.RWMutex
	files map[string][]byte
}

func NewMemStore(files map[string]string) *MemStore {
	s := &MemStore{files: make(map[string][]byte, len(files))}
	for path, content := range files {
		s.files[path] = []byte(content)
	}
	return s
}

func (s *MemStore) ReadFile(path string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.files[path]
	if !ok {
		return nil, &fs.PathError{Op: "read", Path: path, Err: fs.ErrNotExist}
	}
	return append([]byte(nil), data...), nil
}

func (s *MemStore) WriteFile(path string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[path] = append([]byte(nil), data...)
	return nil
}

func (s *MemStore) List() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	paths := make([]string, 0, len(s.files))
	for path := range s.files {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths, nil
}

// Text returns the content of path, or "" when missing.
func (s *MemStore) Text(path string) string {
	data, _ := s.ReadFile(path)
	return string(data)
}

// OverlayStore reads through to Base and keeps writes in memory, so a run can
// be previewed without touching the underlying files.
type OverlayStore struct {
	Base Store

	mu       sync.RWMutex
	original map[string][]byte
	written  map[string][]byte
}

func NewOverlayStore(base Store) *OverlayStore {
	return &OverlayStore{
		Base:     base,
		original: make(map[string][]byte),
		written:  make(map[string][]byte),
	}
}

func (s *OverlayStore) ReadFile(path string) ([]byte, error) {
	s.mu.RLock()
	data, ok := s.written[path]
	s.mu.RUnlock()
	if ok {
		return append([]byte(nil), data...), nil
	}
	return s.Base.ReadFile(path)
}

func (s *OverlayStore) WriteFile(path string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, seen := s.original[path]; !seen {
		if _, written := s.written[path]; !written {
			base, err := s.Base.ReadFile(path)
			if err != nil && !os.IsNotExist(err) {
				return err
			}
			s.original[path] = base
		}
	}
	s.written[path] = append([]byte(nil), data...)
	return nil
}

func (s *OverlayStore) List() ([]string, error) {
	return s.Base.List()
}

// Pending is one file changed in an overlay
type Pending struct {
	Path     string
	Original string
	Modified string
}

// Changes returns the files whose overlay content differs from the base,
// sorted by path.
func (s *OverlayStore) Changes() []Pending {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var changes []Pending
	for path, data := range s.written {
		if string(data) == string(s.original[path]) {
			continue
		}
		changes = append(changes, Pending{Path: path, Original: string(s.original[path]), Modified: string(data)})
	}
	sort.Slice(changes, func(i, j int) bool { return changes[i].Path < changes[j].Path })
	return changes
}

// Commit writes every pending change to the base store.
func (s *OverlayStore) Commit() error {
	for _, change := range s.Changes() {
		if err := s.Base.WriteFile(change.Path, []byte(change.Modified)); err != nil {
			return fmt.Errorf("commit %s: %w", change.Path, err)
		}
	}
	s.mu.Lock()
	s.original = make(map[string][]byte)
	s.written = make(map[string][]byte)
	s.mu.Unlock()
	return nil
}

func hasExtension(path string, extensions []string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range extensions {
		if strings.ToLower(e) == ext {
			return true
		}
	}
	return false
}
