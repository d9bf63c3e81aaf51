package session

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hydroluxe/prodkb/backend/internal/util"
)

var rasterImageExts = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".webp": true,
}

var officeExts = map[string]bool{
	".doc": true, ".docx": true, ".ppt": true, ".pptx": true,
	".xls": true, ".xlsx": true, ".odt": true, ".odp": true,
}

// pageDir names the per-page directory for a source stem.
func pageDir(base, stem string, page int) string {
	return filepath.Join(base, fmt.Sprintf("%s__page%03d", stem, page))
}

// rasterize renders one uploaded file into per-page directories under
// outDir and returns the page image paths in page order.
func rasterize(ctx context.Context, sourcePath, outDir string) ([]string, error) {
	ext := strings.ToLower(filepath.Ext(sourcePath))
	stem := strings.TrimSuffix(filepath.Base(sourcePath), filepath.Ext(sourcePath))
	stem = util.SanitizeName(stem)

	switch {
	case ext == ".pdf":
		return rasterizePDF(ctx, sourcePath, outDir, stem)
	case officeExts[ext]:
		pdfPath, err := convertToPDF(ctx, sourcePath, outDir)
		if err != nil {
			return nil, err
		}
		defer os.Remove(pdfPath)
		return rasterizePDF(ctx, pdfPath, outDir, stem)
	case rasterImageExts[ext]:
		dir := pageDir(outDir, stem, 1)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
		dst := filepath.Join(dir, stem+"__page001"+ext)
		if err := copyFile(sourcePath, dst); err != nil {
			return nil, err
		}
		return []string{dst}, nil
	default:
		return nil, fmt.Errorf("session: unsupported upload type %q", ext)
	}
}

// rasterizePDF shells out to pdftoppm, then moves each page image into its
// own directory.
func rasterizePDF(ctx context.Context, pdfPath, outDir, stem string) ([]string, error) {
	tmpDir, err := os.MkdirTemp("", "raster_*")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(tmpDir)

	prefix := filepath.Join(tmpDir, stem)
	cmd := exec.CommandContext(ctx, "pdftoppm", "-png", "-r", "150", pdfPath, prefix)
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("session: pdftoppm: %w: %s", err, strings.TrimSpace(string(out)))
	}

	entries, err := os.ReadDir(tmpDir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".png") {
			names = append(names, entry.Name())
		}
	}
	// pdftoppm zero-pads page numbers, so lexicographic order is page order.
	sort.Strings(names)

	pages := make([]string, 0, len(names))
	for i, name := range names {
		dir := pageDir(outDir, stem, i+1)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
		dst := filepath.Join(dir, fmt.Sprintf("%s__page%03d.png", stem, i+1))
		if err := os.Rename(filepath.Join(tmpDir, name), dst); err != nil {
			if err := copyFile(filepath.Join(tmpDir, name), dst); err != nil {
				return nil, err
			}
		}
		pages = append(pages, dst)
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("session: pdftoppm produced no pages for %s", pdfPath)
	}
	return pages, nil
}

// convertToPDF runs the headless Office converter named by LIBREOFFICE_CMD
// (default soffice) and returns the produced PDF path.
func convertToPDF(ctx context.Context, sourcePath, outDir string) (string, error) {
	command := util.GetEnvString("LIBREOFFICE_CMD", "soffice")
	cmd := exec.CommandContext(ctx, command,
		"--headless", "--convert-to", "pdf", "--outdir", outDir, sourcePath)
	if out, err := cmd.CombinedOutput(); err != nil {
		return "", fmt.Errorf("session: office convert: %w: %s", err, strings.TrimSpace(string(out)))
	}
	stem := strings.TrimSuffix(filepath.Base(sourcePath), filepath.Ext(sourcePath))
	pdfPath := filepath.Join(outDir, stem+".pdf")
	if _, err := os.Stat(pdfPath); err != nil {
		return "", fmt.Errorf("session: office convert produced no pdf for %s", sourcePath)
	}
	return pdfPath, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()
	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
