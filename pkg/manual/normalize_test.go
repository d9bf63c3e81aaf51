package manual

import "testing"

func pageWith(header, text string) Page {
	return Page{Header: header, Blocks: []Block{{Type: BlockParagraph, Text: text}}}
}

func TestNormalizeFillsMissingPages(t *testing.T) {
	// 11 pages: Contents and the second Troubleshooting are missing.
	var pages []Page
	for _, header := range TargetHeaders {
		if header == "Contents" {
			continue
		}
		pages = append(pages, pageWith(header, "from model"))
	}
	// TargetHeaders lists Troubleshooting twice; dropping Contents leaves
	// 12, drop one Troubleshooting to get 11.
	pages = append(pages[:9], pages[10:]...)
	if len(pages) != 11 {
		t.Fatalf("setup expected 11 pages, got %d", len(pages))
	}

	book := Normalize(pages, "Aurora 5")
	if len(book.Pages) != PageCount {
		t.Fatalf("expected %d pages, got %d", PageCount, len(book.Pages))
	}
	for i, header := range TargetHeaders {
		if book.Pages[i].Header != header {
			t.Fatalf("page %d header = %q, want %q", i, book.Pages[i].Header, header)
		}
	}
	// The Contents slot was filled from defaults.
	if book.Pages[1].Blocks[0].Type != BlockContents {
		t.Fatalf("contents page block = %+v", book.Pages[1].Blocks[0])
	}
	// First Troubleshooting slot got the model page, second the default.
	if book.Pages[9].Blocks[0].Text != "from model" {
		t.Fatalf("first troubleshooting page = %+v", book.Pages[9].Blocks)
	}
	if book.Pages[10].Blocks[0].Type != BlockHeading {
		t.Fatalf("second troubleshooting should be the default: %+v", book.Pages[10].Blocks)
	}
}

func TestNormalizeDuplicatesFIFO(t *testing.T) {
	pages := []Page{
		pageWith("Troubleshooting", "first"),
		pageWith("Troubleshooting", "second"),
		pageWith("Troubleshooting", "third"),
	}
	book := Normalize(pages, "")
	if book.Pages[9].Blocks[0].Text != "first" {
		t.Fatalf("slot 1 = %+v", book.Pages[9].Blocks)
	}
	if book.Pages[10].Blocks[0].Text != "second" {
		t.Fatalf("slot 2 = %+v", book.Pages[10].Blocks)
	}
	// The third duplicate has no slot and is dropped.
	for _, page := range book.Pages {
		for _, block := range page.Blocks {
			if block.Text == "third" {
				t.Fatal("unmatched duplicate should be dropped")
			}
		}
	}
}

func TestNormalizeHeaderCaseInsensitive(t *testing.T) {
	book := Normalize([]Page{pageWith("  water care ", "model text")}, "")
	if book.Pages[6].Header != "Water Care" {
		t.Fatalf("header = %q", book.Pages[6].Header)
	}
	if book.Pages[6].Blocks[0].Text != "model text" {
		t.Fatalf("page not matched: %+v", book.Pages[6].Blocks)
	}
}

func TestNormalizeForcesBackCoverImage(t *testing.T) {
	pages := []Page{{
		Header: "Back Cover",
		Blocks: []Block{{Type: BlockCover, Src: "whatever-the-model-said.png"}},
	}}
	book := Normalize(pages, "")
	last := book.Pages[PageCount-1]
	if last.Blocks[0].Src != DefaultBackImage {
		t.Fatalf("back cover src = %q", last.Blocks[0].Src)
	}
}

func TestForceBackImageAppendsWhenMissing(t *testing.T) {
	book := Book{Pages: []Page{{Header: "Back Cover", Blocks: []Block{{Type: BlockParagraph, Text: "thanks"}}}}}
	ForceBackImage(&book, "custom.png")
	blocks := book.Pages[0].Blocks
	if len(blocks) != 2 || blocks[1].Type != BlockCover || blocks[1].Src != "custom.png" {
		t.Fatalf("blocks = %+v", blocks)
	}
}

func TestDefaultBookShape(t *testing.T) {
	book := DefaultBook("Aurora 5")
	if len(book.Pages) != PageCount {
		t.Fatalf("pages = %d", len(book.Pages))
	}
	if book.Pages[0].Blocks[0].Title != "Aurora 5" {
		t.Fatalf("cover title = %q", book.Pages[0].Blocks[0].Title)
	}
	last := book.Pages[PageCount-1]
	if last.Blocks[0].Src != DefaultBackImage {
		t.Fatalf("back cover src = %q", last.Blocks[0].Src)
	}
}
