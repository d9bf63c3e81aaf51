package manual

import "strings"

func headerKey(header string) string {
	return strings.ToLower(strings.TrimSpace(header))
}

// Normalize reconciles model output against TargetHeaders. Pages whose
// header matches a target slot are consumed first-in-first-out; slots with
// no page left are filled from defaults; pages matching no slot are
// dropped. The result always has exactly PageCount pages in target order,
// with the back-cover image forced afterwards.
func Normalize(pages []Page, titleHint string) Book {
	queues := map[string][]Page{}
	for _, page := range pages {
		key := headerKey(page.Header)
		queues[key] = append(queues[key], page)
	}

	out := make([]Page, 0, PageCount)
	for _, header := range TargetHeaders {
		key := headerKey(header)
		if queue := queues[key]; len(queue) > 0 {
			page := queue[0]
			queues[key] = queue[1:]
			page.Header = header
			out = append(out, page)
			continue
		}
		out = append(out, defaultPage(header, titleHint))
	}

	book := Book{Pages: out}
	ForceBackImage(&book, "")
	return book
}

// ForceBackImage overrides the back cover's image source. An empty src
// applies DefaultBackImage. The override wins over whatever the model put
// there; the renderer depends on the slot being set.
func ForceBackImage(book *Book, src string) {
	if src == "" {
		src = DefaultBackImage
	}
	for i := len(book.Pages) - 1; i >= 0; i-- {
		if headerKey(book.Pages[i].Header) != headerKey("Back Cover") {
			continue
		}
		page := &book.Pages[i]
		for j := range page.Blocks {
			if page.Blocks[j].Type == BlockCover {
				page.Blocks[j].Src = src
				return
			}
		}
		page.Blocks = append(page.Blocks, Block{Type: BlockCover, Src: src})
		return
	}
}
