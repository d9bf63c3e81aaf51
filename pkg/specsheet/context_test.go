package specsheet

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestAllowedDoc(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"manual_ocr_results/s1/p/page001.mmd", true},
		{"manual_ocr_results/s1/p/page001.png", true},
		{"manual_ocr_results/s1/p/photo.JPEG", true},
		{"manual_ocr_results/s1/p/page001.pdf", false},
		{"manual_ocr_results/s1/p/notes.txt", false},
		{"manual_uploads/s1/products/raw.png", false},
	}
	for _, tt := range tests {
		if got := AllowedDoc(tt.path); got != tt.want {
			t.Fatalf("AllowedDoc(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestSanitizeDoc(t *testing.T) {
	in := "[resource] idx-001 page.png\n" +
		"# Heading\n" +
		"[file] spec.pdf\n" +
		"[file] spec.pdf\n" +
		"Some body text ![fig](data:image/png;base64,AAAA) more.\n" +
		"\n\n\n\n" +
		"[file] other.pdf\n" +
		"tail"
	out := SanitizeDoc(in)

	if strings.Contains(out, "[resource]") {
		t.Fatalf("resource index survived: %q", out)
	}
	if strings.Count(out, "[file] spec.pdf") != 1 {
		t.Fatalf("duplicate file marker survived: %q", out)
	}
	if strings.Contains(out, "![fig]") {
		t.Fatalf("inline image survived: %q", out)
	}
	if strings.Contains(out, "\n\n\n") {
		t.Fatalf("blank run survived: %q", out)
	}
	if !strings.Contains(out, "[file] other.pdf") {
		t.Fatalf("distinct marker dropped: %q", out)
	}
	if !strings.Contains(out, "Some body text  more.") {
		t.Fatalf("body text mangled: %q", out)
	}
}

func TestAssembleSplitsTextAndImages(t *testing.T) {
	dir := t.TempDir()
	mmd := filepath.Join(dir, "page001.mmd")
	if err := os.WriteFile(mmd, []byte("# Page one\ncontent"), 0o644); err != nil {
		t.Fatal(err)
	}
	img := filepath.Join(dir, "page002.png")
	if err := os.WriteFile(img, []byte("png"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "page002.txt"), []byte("  front view of the tub  "), 0o644); err != nil {
		t.Fatal(err)
	}

	ctx := Assemble([]string{mmd, img, filepath.Join(dir, "skip.pdf")}, "", 0)
	if !strings.Contains(ctx.Text, "Page one") {
		t.Fatalf("text missing: %q", ctx.Text)
	}
	if len(ctx.Images) != 1 {
		t.Fatalf("expected 1 image, got %d", len(ctx.Images))
	}
	if ctx.Images[0].Description != "front view of the tub" {
		t.Fatalf("sidecar description = %q", ctx.Images[0].Description)
	}
	if ctx.Images[0].Original {
		t.Fatal("OCR artifact should not be marked original")
	}
}

func TestAssembleOriginalUploadsFirst(t *testing.T) {
	ocr := t.TempDir()
	ocrImg := filepath.Join(ocr, "page001.jpg")
	if err := os.WriteFile(ocrImg, []byte("jpg"), 0o644); err != nil {
		t.Fatal(err)
	}

	session := t.TempDir()
	products := filepath.Join(session, "products")
	if err := os.MkdirAll(products, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(products, "hero.png"), []byte("png"), 0o644); err != nil {
		t.Fatal(err)
	}

	ctx := Assemble([]string{ocrImg}, session, 0)
	if len(ctx.Images) != 2 {
		t.Fatalf("expected 2 images, got %d", len(ctx.Images))
	}
	if !ctx.Images[0].Original || filepath.Base(ctx.Images[0].Path) != "hero.png" {
		t.Fatalf("original upload should come first: %+v", ctx.Images[0])
	}
}

func TestAssembleCapsText(t *testing.T) {
	dir := t.TempDir()
	mmd := filepath.Join(dir, "long.mmd")
	if err := os.WriteFile(mmd, []byte(strings.Repeat("字", 500)), 0o644); err != nil {
		t.Fatal(err)
	}
	ctx := Assemble([]string{mmd}, "", 100)
	if got := len([]rune(ctx.Text)); got != 100 {
		t.Fatalf("expected 100 runes, got %d", got)
	}
}
