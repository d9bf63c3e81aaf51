// Package manual generates and normalizes the 13-page owner's manual book.
// The page sequence is fixed; model output is reconciled against it so the
// renderer always receives a complete book.
package manual

// Block is one layout element of a manual page. Type selects which fields
// apply; decoders ignore fields a type does not use, and unknown incoming
// fields are dropped.
type Block struct {
	Type string `json:"type"`

	// heading, paragraph, callout
	Text string `json:"text,omitempty"`
	// list, contents, steps
	Items []string `json:"items,omitempty"`
	// image, image-left, image-right, cover
	Src     string `json:"src,omitempty"`
	Caption string `json:"caption,omitempty"`
	// cover
	Title    string `json:"title,omitempty"`
	Subtitle string `json:"subtitle,omitempty"`
	BackSrc  string `json:"backSrc,omitempty"`
	// grid2, grid4
	Cells []Block `json:"cells,omitempty"`
	// spec-box
	Entries map[string]string `json:"entries,omitempty"`
	// ts-section, troubleTable: rows of problem / cause / remedy
	Rows [][]string `json:"rows,omitempty"`
}

// Known block types.
const (
	BlockHeading      = "heading"
	BlockParagraph    = "paragraph"
	BlockList         = "list"
	BlockImage        = "image"
	BlockImageLeft    = "image-left"
	BlockImageRight   = "image-right"
	BlockContents     = "contents"
	BlockCallout      = "callout"
	BlockSteps        = "steps"
	BlockGrid2        = "grid2"
	BlockGrid4        = "grid4"
	BlockSpecBox      = "spec-box"
	BlockTSSection    = "ts-section"
	BlockTroubleTable = "troubleTable"
	BlockCover        = "cover"
)

// Page is one page of the book.
type Page struct {
	Header string  `json:"header"`
	Blocks []Block `json:"blocks"`
}

// Book is the ordered page list the renderer consumes.
type Book struct {
	Pages []Page `json:"pages"`
}

// TargetHeaders is the fixed page sequence of a finished book. The
// Troubleshooting header appears twice; normalization keeps duplicates in
// first-in-first-out order.
var TargetHeaders = []string{
	"Cover",
	"Contents",
	"Welcome",
	"Safety Instructions",
	"Product Overview",
	"Installation",
	"Water Care",
	"Control Panel",
	"Maintenance",
	"Troubleshooting",
	"Troubleshooting",
	"Warranty",
	"Back Cover",
}

// PageCount is the length of TargetHeaders.
const PageCount = 13

// DefaultBackImage is forced onto the back cover after normalization
// unless the caller supplies its own source.
const DefaultBackImage = "images/manual/back_cover.png"

// defaultPage builds the fallback page for a header, used whenever the
// model output has no page left for that slot.
func defaultPage(header, titleHint string) Page {
	switch header {
	case "Cover":
		return Page{Header: header, Blocks: []Block{{
			Type:  BlockCover,
			Title: titleHint,
		}}}
	case "Back Cover":
		return Page{Header: header, Blocks: []Block{{
			Type: BlockCover,
			Src:  DefaultBackImage,
		}}}
	case "Contents":
		items := make([]string, 0, PageCount-2)
		seen := map[string]bool{}
		for _, h := range TargetHeaders {
			if h == "Cover" || h == "Back Cover" || seen[h] {
				continue
			}
			seen[h] = true
			items = append(items, h)
		}
		return Page{Header: header, Blocks: []Block{{
			Type:  BlockContents,
			Items: items,
		}}}
	case "Troubleshooting":
		return Page{Header: header, Blocks: []Block{
			{Type: BlockHeading, Text: header},
			{Type: BlockTroubleTable, Rows: [][]string{}},
		}}
	default:
		return Page{Header: header, Blocks: []Block{
			{Type: BlockHeading, Text: header},
			{Type: BlockParagraph, Text: "待填写"},
		}}
	}
}

// DefaultBook is the deterministic fallback when generation fails outright.
func DefaultBook(titleHint string) Book {
	pages := make([]Page, 0, PageCount)
	for _, header := range TargetHeaders {
		pages = append(pages, defaultPage(header, titleHint))
	}
	book := Book{Pages: pages}
	ForceBackImage(&book, "")
	return book
}
