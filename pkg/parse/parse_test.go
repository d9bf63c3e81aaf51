package parse

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"
)

func pngDataURL(t *testing.T) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png encode: %v", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

func TestParseMarkdown_ExtractsImagesAndTables(t *testing.T) {
	input := strings.Join([]string{
		"# Aurora 500",
		"",
		"Intro paragraph about the product.",
		"",
		"![shell photo](" + pngDataURL(t) + ")",
		"",
		"| Color | Code |",
		"| --- | --- |",
		"| Grey | G1 |",
		"| Blue | B2 |",
		"",
		"Trailing text.",
	}, "\n")

	got := ParseMarkdown(input)

	if len(got.Images) != 1 {
		t.Fatalf("images = %d, want 1", len(got.Images))
	}
	if got.Images[0].Alt != "shell photo" {
		t.Fatalf("image alt = %q", got.Images[0].Alt)
	}
	if got.Images[0].Mime != "image/png" {
		t.Fatalf("image mime = %q", got.Images[0].Mime)
	}
	if len(got.Tables) != 1 {
		t.Fatalf("tables = %d, want 1", len(got.Tables))
	}
	if !strings.HasPrefix(got.Tables[0], "| Color | Code |") {
		t.Fatalf("table header = %q", got.Tables[0])
	}
	if strings.Contains(got.Text, "|") {
		t.Fatalf("table rows should be removed from text, got %q", got.Text)
	}
	if !strings.Contains(got.Text, "Intro paragraph") || !strings.Contains(got.Text, "Trailing text.") {
		t.Fatalf("text lost content: %q", got.Text)
	}
}

func TestParseMarkdown_DropsUndecodableImage(t *testing.T) {
	input := "before\n![broken](data:image/png;base64,!!!notbase64!!!)\nafter"
	got := ParseMarkdown(input)
	if len(got.Images) != 0 {
		t.Fatalf("images = %d, want 0", len(got.Images))
	}
	if !strings.Contains(got.Text, "before") || !strings.Contains(got.Text, "after") {
		t.Fatalf("text lost content: %q", got.Text)
	}
}

func TestParseMarkdown_NormalizesWhitespace(t *testing.T) {
	got := ParseMarkdown("a\r\n\r\n\r\n\r\nb\tc")
	if got.Text != "a\n\nb c" {
		t.Fatalf("text = %q", got.Text)
	}
}

func TestParseJSON_ScalarsAndPaths(t *testing.T) {
	input := []byte(`{"name":"Aurora","specs":{"jets":44,"heated":true},"note":null}`)
	got, err := ParseJSON(input)
	if err != nil {
		t.Fatalf("ParseJSON() error = %v", err)
	}
	for _, want := range []string{"name: Aurora", "specs/jets: 44", "specs/heated: true"} {
		if !strings.Contains(got.Text, want) {
			t.Fatalf("text missing %q: %q", want, got.Text)
		}
	}
	if strings.Contains(got.Text, "note") {
		t.Fatalf("null values should not emit lines: %q", got.Text)
	}
}

func TestParseJSON_ListOfObjectsBecomesTable(t *testing.T) {
	input := []byte(`{"accessories":[
		{"name":"cover","qty":1},
		{"name":"steps","color":"grey"},
		{"qty":2,"name":"filter"}
	]}`)
	got, err := ParseJSON(input)
	if err != nil {
		t.Fatalf("ParseJSON() error = %v", err)
	}
	if len(got.Tables) != 1 {
		t.Fatalf("tables = %d, want 1", len(got.Tables))
	}
	lines := strings.Split(got.Tables[0], "\n")
	if lines[0] != "| name | qty | color |" {
		t.Fatalf("header = %q, want first-seen key order", lines[0])
	}
	if lines[3] != "| steps |  | grey |" {
		t.Fatalf("missing cells should be empty: %q", lines[3])
	}
}

func TestParseJSON_DataURLBecomesImage(t *testing.T) {
	input := []byte(`{"cover":{"photo":"` + pngDataURL(t) + `"}}`)
	got, err := ParseJSON(input)
	if err != nil {
		t.Fatalf("ParseJSON() error = %v", err)
	}
	if len(got.Images) != 1 {
		t.Fatalf("images = %d, want 1", len(got.Images))
	}
	if got.Images[0].Alt != "cover/photo" {
		t.Fatalf("image alt = %q, want json path", got.Images[0].Alt)
	}
	if strings.Contains(got.Text, "base64") {
		t.Fatalf("data url leaked into text: %q", got.Text)
	}
}

func TestParseJSON_Invalid(t *testing.T) {
	if _, err := ParseJSON([]byte("{broken")); err == nil {
		t.Fatal("ParseJSON() should fail on invalid json")
	}
}
