package xaml

import (
	"os"

	"github.com/mamaar/nsadjust/pkg/types"
)

// TextSource is where a markup document is read from and written back to
type TextSource interface {
	ReadText() (string, error)
	UpdateText(text string) error
}

// FileSource reads and writes a file on disk
type FileSource struct {
	Path string
}

func (s FileSource) ReadText() (string, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return "", &types.RefactorError{Type: types.DocumentMissing, Message: "failed to read markup", File: s.Path, Cause: err}
	}
	return string(data), nil
}

func (s FileSource) UpdateText(text string) error {
	mode := os.FileMode(0644)
	if info, err := os.Stat(s.Path); err == nil {
		mode = info.Mode().Perm()
	}
	if err := os.WriteFile(s.Path, []byte(text), mode); err != nil {
		return &types.RefactorError{Type: types.FileSystemError, Message: "failed to write markup", File: s.Path, Cause: err}
	}
	return nil
}

// BufferSource holds text in memory, standing in for an editor buffer
type BufferSource struct {
	Text    string
	Updates int
}

func (s *BufferSource) ReadText() (string, error) {
	return s.Text, nil
}

func (s *BufferSource) UpdateText(text string) error {
	s.Text = text
	s.Updates++
	return nil
}

// TextStore reads and writes documents by path
type TextStore interface {
	ReadText(path string) (string, error)
	WriteText(path, text string) error
}

// StoreSource adapts one path of a TextStore
type StoreSource struct {
	Store TextStore
	Path  string
}

func (s StoreSource) ReadText() (string, error) {
	return s.Store.ReadText(s.Path)
}

func (s StoreSource) UpdateText(text string) error {
	return s.Store.WriteText(s.Path, text)
}
