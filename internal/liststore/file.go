package liststore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/quotecast/quotecast/internal/model"
)

// FileBackend keeps each list in a newline-delimited text file.
type FileBackend struct {
	dir   string
	files map[model.ListName]string
}

// FileNames maps each list to its file name inside the data directory.
type FileNames struct {
	Subscribed   string
	Unsubscribed string
	Failed       string
}

// NewFileBackend creates a FileBackend rooted at dir, creating dir if needed.
func NewFileBackend(dir string, names FileNames) (*FileBackend, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &FileBackend{
		dir: dir,
		files: map[model.ListName]string{
			model.ListSubscribed:   names.Subscribed,
			model.ListUnsubscribed: names.Unsubscribed,
			model.ListFailed:       names.Failed,
		},
	}, nil
}

// Path returns the file path backing a list.
func (b *FileBackend) Path(list model.ListName) string {
	return filepath.Join(b.dir, b.files[list])
}

// Read implements Backend.
func (b *FileBackend) Read(_ context.Context, list model.ListName) ([]string, bool, error) {
	data, err := os.ReadFile(b.Path(list))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return strings.Split(string(data), "\n"), true, nil
}

// Write implements Backend. The file is truncated and rewritten in place.
func (b *FileBackend) Write(_ context.Context, list model.ListName, lines []string) error {
	return os.WriteFile(b.Path(list), []byte(joinLines(lines)), 0o644)
}

// Append implements Backend.
func (b *FileBackend) Append(_ context.Context, list model.ListName, lines []string) error {
	if len(lines) == 0 {
		return nil
	}

	f, err := os.OpenFile(b.Path(list), os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	prefix, err := needsLeadingNewline(f)
	if err != nil {
		return err
	}

	payload := joinLines(lines)
	if prefix {
		payload = "\n" + payload
	}
	_, err = f.WriteString(payload)
	return err
}

// needsLeadingNewline reports whether f has content without a trailing newline.
func needsLeadingNewline(f *os.File) (bool, error) {
	info, err := f.Stat()
	if err != nil {
		return false, err
	}
	if info.Size() == 0 {
		return false, nil
	}

	last := make([]byte, 1)
	if _, err := f.ReadAt(last, info.Size()-1); err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	return last[0] != '\n', nil
}

func joinLines(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}

// cleanLines trims every line and drops blanks.
func cleanLines(lines []string) []string {
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		if trimmed := strings.TrimSpace(l); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
