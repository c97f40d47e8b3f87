package proxylist

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func newTestFile(t *testing.T) *File {
	t.Helper()

	path := filepath.Join(t.TempDir(), "proxies.txt")
	f, err := NewFile(path)
	if err != nil {
		t.Fatalf("NewFile: %v", err)
	}
	return f
}

func TestFile_CreatesWhenMissing(t *testing.T) {
	f := newTestFile(t)

	if _, err := os.Stat(f.Path()); err != nil {
		t.Fatalf("backing file not created: %v", err)
	}

	lines, err := f.Read()
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(lines) != 0 {
		t.Fatalf("fresh file not empty: %v", lines)
	}
}

func TestFile_SaveNormalizes(t *testing.T) {
	f := newTestFile(t)

	kept, err := f.Save([]string{
		"socks5://1.2.3.4:1080",
		"garbage line",
		"  socks5://1.2.3.4:1080",
		"socks5://user:pw@host.example:9050",
		"",
	})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if kept != 2 {
		t.Fatalf("Save kept %d lines, want 2", kept)
	}

	got, err := f.Endpoints()
	if err != nil {
		t.Fatalf("Endpoints: %v", err)
	}
	want := []string{"socks5://1.2.3.4:1080", "socks5://user:pw@host.example:9050"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Endpoints() = %v, want %v", got, want)
	}
}

func TestFile_ReadKeepsRawLines(t *testing.T) {
	f := newTestFile(t)

	raw := "socks5://good.example:1080\nnot-yet-valid\n\n"
	if err := os.WriteFile(f.Path(), []byte(raw), 0644); err != nil {
		t.Fatalf("seed file: %v", err)
	}

	lines, err := f.Read()
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	want := []string{"socks5://good.example:1080", "not-yet-valid"}
	if !reflect.DeepEqual(lines, want) {
		t.Fatalf("Read() = %v, want %v", lines, want)
	}
}
