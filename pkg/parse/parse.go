// Package parse decodes markdown and JSON product assets into plain text,
// embedded images and pipe-table representations.
package parse

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"regexp"
	"strings"

	_ "image/gif"
	_ "image/jpeg"
)

// Image is an embedded asset image decoded from a data URL and normalized
// to RGB-backed PNG bytes.
type Image struct {
	Alt  string
	Mime string
	Data []byte
}

// Parsed is the result of decoding one asset file.
type Parsed struct {
	Text   string
	Images []Image
	Tables []string
}

var (
	reDataURL = regexp.MustCompile(`(?i)data:image/([a-z0-9.+-]+);base64,([A-Za-z0-9+/=\s]+)`)
	reBlankRuns = regexp.MustCompile(`\n{3,}`)
)

// decodeDataImage decodes a base64 image payload and re-encodes it as PNG
// over an opaque RGB(A) raster. Returns an error for undecodable payloads;
// callers drop the image and continue.
func decodeDataImage(mimeSubtype, payload string) (Image, error) {
	raw, err := base64.StdEncoding.DecodeString(strings.Map(dropSpace, payload))
	if err != nil {
		return Image{}, fmt.Errorf("base64 decode: %w", err)
	}
	src, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return Image{}, fmt.Errorf("image decode: %w", err)
	}

	bounds := src.Bounds()
	rgb := image.NewRGBA(bounds)
	draw.Draw(rgb, bounds, image.NewUniform(image.White), image.Point{}, draw.Src)
	draw.Draw(rgb, bounds, src, bounds.Min, draw.Over)

	var buf bytes.Buffer
	if err := png.Encode(&buf, rgb); err != nil {
		return Image{}, fmt.Errorf("png encode: %w", err)
	}
	return Image{Mime: "image/png", Data: buf.Bytes()}, nil
}

func dropSpace(r rune) rune {
	switch r {
	case ' ', '\n', '\r', '\t':
		return -1
	}
	return r
}

// normalizeWhitespace applies the shared text cleanup: CRLF to LF, tabs to
// spaces, blank runs collapsed, surrounding whitespace trimmed.
func normalizeWhitespace(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = strings.ReplaceAll(s, "\t", " ")
	s = reBlankRuns.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// serializeTable renders header + rows as a well-formed pipe table. Cells
// have pipes escaped and inner newlines flattened.
func serializeTable(header []string, rows [][]string) string {
	var b strings.Builder
	writeRow := func(cells []string) {
		b.WriteString("|")
		for i := range header {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			cell = strings.ReplaceAll(cell, "\n", " ")
			cell = strings.ReplaceAll(cell, "|", `\|`)
			b.WriteString(" ")
			b.WriteString(strings.TrimSpace(cell))
			b.WriteString(" |")
		}
		b.WriteString("\n")
	}

	writeRow(header)
	b.WriteString("|")
	for range header {
		b.WriteString(" --- |")
	}
	b.WriteString("\n")
	for _, row := range rows {
		writeRow(row)
	}
	return strings.TrimRight(b.String(), "\n")
}
