package util

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

var unsafePathChars = regexp.MustCompile(`[^A-Za-z0-9\p{Han}._-]+`)

// SanitizeName reduces an arbitrary user string to a filesystem-safe token.
// Path separators, whitespace and shell metacharacters collapse to a single
// underscore; leading and trailing underscores and dots are stripped.
func SanitizeName(name string) string {
	name = strings.TrimSpace(name)
	name = unsafePathChars.ReplaceAllString(name, "_")
	name = strings.Trim(name, "._")
	return name
}

// SecureFilename keeps only the base name of an uploaded file and sanitizes
// it so it cannot escape the target directory.
func SecureFilename(name string) string {
	base := filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	safe := SanitizeName(base)
	if safe == "" {
		safe = "upload"
	}
	return safe
}

// UniquePath returns path unchanged if nothing exists there, otherwise a
// variant with a short random suffix inserted before the extension.
func UniquePath(path string) (string, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return path, nil
	}
	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(path, ext)
	suffix, err := gonanoid.Generate("abcdefghijklmnopqrstuvwxyz0123456789", 6)
	if err != nil {
		return "", fmt.Errorf("nanoid: %w", err)
	}
	return fmt.Sprintf("%s_%s%s", stem, suffix, ext), nil
}

// RandomToken returns a short lowercase alphanumeric token.
func RandomToken(length int) (string, error) {
	return gonanoid.Generate("abcdefghijklmnopqrstuvwxyz0123456789", length)
}
