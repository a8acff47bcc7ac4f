package transfer

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	fallbackFileName     = "file"
	maxFileNameBytes     = 200
	maxCollisionAttempts = 10000
	placeholder          = '_'
	reservedChars        = `<>:"|?*`
)

var ErrTooManyCollisions = errors.New("transfer: no free file name")

// SanitizeFileName reduces a name declared by a remote sender to a single
// safe path element: separators, reserved and control characters become '_'
// and leading dots are dropped.
func SanitizeFileName(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r == '/' || r == '\\':
			b.WriteRune(placeholder)
		case r == utf8.RuneError, unicode.IsControl(r):
			b.WriteRune(placeholder)
		case strings.ContainsRune(reservedChars, r):
			b.WriteRune(placeholder)
		default:
			b.WriteRune(r)
		}
	}

	s := strings.TrimLeft(b.String(), ".")
	if s == "" {
		return fallbackFileName
	}
	return truncateName(s, maxFileNameBytes)
}

// truncateName shortens s to at most max bytes, keeping a short extension.
func truncateName(s string, max int) string {
	if len(s) <= max {
		return s
	}

	ext := filepath.Ext(s)
	if len(ext) > 16 {
		ext = ""
	}
	base := s[:len(s)-len(ext)]
	limit := max - len(ext)
	for limit > 0 && !utf8.RuneStart(base[limit]) {
		limit--
	}
	return base[:limit] + ext
}

// createUnique creates name inside dir, or name_1.ext, name_2.ext, ... when
// taken. O_EXCL makes the existence check and the create one step.
func createUnique(dir, name string) (*os.File, string, error) {
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)

	for i := 0; i < maxCollisionAttempts; i++ {
		candidate := name
		if i > 0 {
			candidate = fmt.Sprintf("%s_%d%s", base, i, ext)
		}

		path := filepath.Join(dir, candidate)
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			return f, path, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return nil, "", err
		}
	}
	return nil, "", fmt.Errorf("%w: %s", ErrTooManyCollisions, name)
}
