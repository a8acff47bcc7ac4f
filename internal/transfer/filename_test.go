package transfer

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func TestSanitizeFileName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"report.pdf", "report.pdf"},
		{"../../evil.txt", "_.._evil.txt"},
		{"/etc/passwd", "_etc_passwd"},
		{`..\..\windows\system32`, "_.._windows_system32"},
		{".bashrc", "bashrc"},
		{"...", "file"},
		{"", "file"},
		{"a:b*c?.txt", "a_b_c_.txt"},
		{"line\nbreak\x00.txt", "line_break_.txt"},
		{"résumé 2024.docx", "résumé 2024.docx"},
		{"bad\xffbyte.bin", "bad_byte.bin"},
	}

	for _, tt := range tests {
		got := SanitizeFileName(tt.input)
		if got != tt.expected {
			t.Errorf("SanitizeFileName(%q) = %q, want %q", tt.input, got, tt.expected)
		}
		if strings.ContainsAny(got, `/\`) {
			t.Errorf("SanitizeFileName(%q) kept a separator: %q", tt.input, got)
		}
	}
}

func TestSanitizeFileNameTruncates(t *testing.T) {
	long := strings.Repeat("a", 500) + ".txt"
	got := SanitizeFileName(long)

	if len(got) > maxFileNameBytes {
		t.Errorf("expected at most %d bytes, got %d", maxFileNameBytes, len(got))
	}
	if !strings.HasSuffix(got, ".txt") {
		t.Errorf("expected extension to survive, got %q", got)
	}
}

func TestCreateUniqueSuffixes(t *testing.T) {
	dir := t.TempDir()

	var paths []string
	for i := 0; i < 3; i++ {
		f, path, err := createUnique(dir, "photo.jpg")
		if err != nil {
			t.Fatalf("createUnique failed: %v", err)
		}
		_ = f.Close()
		paths = append(paths, filepath.Base(path))
	}

	expected := []string{"photo.jpg", "photo_1.jpg", "photo_2.jpg"}
	for i := range expected {
		if paths[i] != expected[i] {
			t.Errorf("attempt %d: expected %s, got %s", i, expected[i], paths[i])
		}
	}
}

func TestCreateUniqueNoExtension(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "README"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	f, path, err := createUnique(dir, "README")
	if err != nil {
		t.Fatalf("createUnique failed: %v", err)
	}
	_ = f.Close()

	if filepath.Base(path) != "README_1" {
		t.Errorf("expected README_1, got %s", filepath.Base(path))
	}

	data, _ := os.ReadFile(filepath.Join(dir, "README"))
	if string(data) != "x" {
		t.Error("existing file was modified")
	}
}

func TestCreateUniqueConcurrent(t *testing.T) {
	dir := t.TempDir()
	const workers = 16

	var wg sync.WaitGroup
	var mu sync.Mutex
	seen := make(map[string]bool)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f, path, err := createUnique(dir, "same.txt")
			if err != nil {
				t.Errorf("createUnique failed: %v", err)
				return
			}
			_ = f.Close()

			mu.Lock()
			defer mu.Unlock()
			if seen[path] {
				t.Errorf("path handed out twice: %s", path)
			}
			seen[path] = true
		}()
	}
	wg.Wait()

	if len(seen) != workers {
		t.Errorf("expected %d distinct files, got %d", workers, len(seen))
	}
}
