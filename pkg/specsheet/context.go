package specsheet

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// ImageCandidate is an image offered to the model alongside the text
// context. Description comes from a prompt-reverse sidecar when one exists.
type ImageCandidate struct {
	Path        string
	Description string
	// Original marks uploads from the session's raw product images, which
	// outrank OCR artifacts.
	Original bool
}

var imageExts = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".webp": true,
}

// AllowedDoc reports whether an OCR artifact may enter the context. Only
// .mmd text and images qualify; raw upload paths never do.
func AllowedDoc(path string) bool {
	normalized := filepath.ToSlash(path)
	for _, part := range strings.Split(normalized, "/") {
		if part == "manual_uploads" {
			return false
		}
	}
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".mmd" || imageExts[ext]
}

func isImagePath(path string) bool {
	return imageExts[strings.ToLower(filepath.Ext(path))]
}

var (
	reResourceIndex = regexp.MustCompile(`(?m)^\[resource\].*$`)
	reFileMarker    = regexp.MustCompile(`^\[file\]\s*(.+)$`)
	reInlineImage   = regexp.MustCompile(`!\[[^\]]*\]\([^)]*\)`)
	reBlankRuns     = regexp.MustCompile(`\n{3,}`)
)

// SanitizeDoc strips machine bookkeeping out of an OCR page before it joins
// the prompt: resource index lines, consecutive duplicate `[file] X`
// markers, inline markdown images, and runs of blank lines.
func SanitizeDoc(text string) string {
	text = reResourceIndex.ReplaceAllString(text, "")
	text = reInlineImage.ReplaceAllString(text, "")

	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	lastMarker := ""
	for _, line := range lines {
		if m := reFileMarker.FindStringSubmatch(strings.TrimSpace(line)); m != nil {
			if m[1] == lastMarker {
				continue
			}
			lastMarker = m[1]
		} else if strings.TrimSpace(line) != "" {
			lastMarker = ""
		}
		out = append(out, line)
	}
	text = strings.Join(out, "\n")
	text = reBlankRuns.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// promptReverseSidecar returns the description stored next to an image by
// the prompt-reverse step, or "".
func promptReverseSidecar(imagePath string) string {
	stem := strings.TrimSuffix(imagePath, filepath.Ext(imagePath))
	data, err := os.ReadFile(stem + ".txt")
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// Context is the assembled prompt material.
type Context struct {
	Text   string
	Images []ImageCandidate
}

// Assemble walks the OCR documents, splits them into sanitized text and
// image candidates, and prepends the session's original product images when
// a session upload directory is given. maxChars caps the text; 0 keeps all.
func Assemble(docs []string, sessionUploadDir string, maxChars int) Context {
	var ctx Context

	if sessionUploadDir != "" {
		entries, err := os.ReadDir(filepath.Join(sessionUploadDir, "products"))
		if err == nil {
			for _, entry := range entries {
				if entry.IsDir() {
					continue
				}
				path := filepath.Join(sessionUploadDir, "products", entry.Name())
				if !isImagePath(path) {
					continue
				}
				ctx.Images = append(ctx.Images, ImageCandidate{
					Path:        path,
					Description: promptReverseSidecar(path),
					Original:    true,
				})
			}
		}
	}

	var parts []string
	for _, doc := range docs {
		if !AllowedDoc(doc) {
			continue
		}
		if isImagePath(doc) {
			ctx.Images = append(ctx.Images, ImageCandidate{
				Path:        doc,
				Description: promptReverseSidecar(doc),
			})
			continue
		}
		data, err := os.ReadFile(doc)
		if err != nil {
			continue
		}
		if clean := SanitizeDoc(string(data)); clean != "" {
			parts = append(parts, clean)
		}
	}

	ctx.Text = strings.Join(parts, "\n\n")
	if maxChars > 0 {
		runes := []rune(ctx.Text)
		if len(runes) > maxChars {
			ctx.Text = string(runes[:maxChars])
		}
	}
	return ctx
}
