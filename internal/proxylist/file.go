package proxylist

import (
	"fmt"
	"os"
	"strings"
)

// File is the editable candidate list, one endpoint per line.
type File struct {
	path string
}

// NewFile wraps path as the candidate list, creating an empty file when
// none exists yet.
func NewFile(path string) (*File, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("open proxy list: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("close proxy list: %w", err)
	}
	return &File{path: path}, nil
}

// Path returns the backing file path.
func (f *File) Path() string {
	return f.path
}

// Read returns the stripped non-blank lines of the file, unvalidated.
func (f *File) Read() ([]string, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("read proxy list: %w", err)
	}

	var lines []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines, nil
}

// Endpoints returns the normalized candidate list: valid, deduplicated,
// first-seen order.
func (f *File) Endpoints() ([]string, error) {
	lines, err := f.Read()
	if err != nil {
		return nil, err
	}
	return Normalize(lines), nil
}

// Save normalizes lines and rewrites the file with the cleaned list.
// It returns the number of lines kept.
func (f *File) Save(lines []string) (int, error) {
	cleaned := Normalize(lines)

	var body string
	if len(cleaned) > 0 {
		body = strings.Join(cleaned, "\n") + "\n"
	}

	// Atomic write: write to temp file, then rename
	tempPath := f.path + ".tmp"
	if err := os.WriteFile(tempPath, []byte(body), 0644); err != nil {
		return 0, fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tempPath, f.path); err != nil {
		return 0, fmt.Errorf("atomic rename: %w", err)
	}

	return len(cleaned), nil
}
