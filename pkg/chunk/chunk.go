// Package chunk splits markdown-ish text into overlap-bounded blocks for
// embedding, and derives stable content-addressed chunk ids.
package chunk

import (
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
)

const (
	DefaultMaxChars = 3000
	DefaultOverlap  = 300
)

var (
	reHeading  = regexp.MustCompile(`^#{1,6} `)
	reRule     = regexp.MustCompile(`^(-{3,}|\*{3,}|_{3,})\s*$`)
	reSentence = regexp.MustCompile(`([。！？.!?])\s+`)
)

// Split cuts markdown into ordered blocks of at most maxChars characters.
// A new block starts before an ATX heading or a rule line once the current
// block exceeds 60% of maxChars; otherwise lines accumulate until maxChars
// is reached, and the next block is seeded with the last overlap characters
// of the previous one. Oversized blocks are further cut at sentence
// boundaries. Sizes are measured in runes.
func Split(markdown string, maxChars, overlap int) []string {
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}
	if overlap < 0 || overlap >= maxChars {
		overlap = DefaultOverlap
	}
	if strings.TrimSpace(markdown) == "" {
		return nil
	}

	var blocks []string
	var cur []rune

	flush := func(seed bool) {
		text := strings.TrimSpace(string(cur))
		if text != "" {
			blocks = append(blocks, text)
		}
		if seed && len(cur) > overlap {
			cur = append([]rune(nil), cur[len(cur)-overlap:]...)
		} else {
			cur = nil
		}
	}

	for _, line := range strings.Split(markdown, "\n") {
		structural := reHeading.MatchString(line) || reRule.MatchString(line)
		if structural && len(cur) > maxChars*6/10 {
			flush(false)
		}
		cur = append(cur, []rune(line)...)
		cur = append(cur, '\n')
		if len(cur) >= maxChars {
			flush(true)
		}
	}
	flush(false)

	var out []string
	for _, block := range blocks {
		if len([]rune(block)) <= maxChars {
			out = append(out, block)
			continue
		}
		out = append(out, splitSentences(block, maxChars)...)
	}
	return out
}

// splitSentences greedily packs sentences into blocks of at most maxChars.
// A single sentence longer than maxChars is hard-cut.
func splitSentences(text string, maxChars int) []string {
	marks := reSentence.FindAllStringSubmatchIndex(text, -1)
	var sentences []string
	prev := 0
	for _, m := range marks {
		// m[3] is the end of the punctuation group; trailing whitespace
		// between sentences is dropped.
		sentences = append(sentences, text[prev:m[3]])
		prev = m[1]
	}
	if prev < len(text) {
		sentences = append(sentences, text[prev:])
	}

	var blocks []string
	var cur []rune
	for _, sentence := range sentences {
		runes := []rune(strings.TrimSpace(sentence))
		if len(runes) == 0 {
			continue
		}
		for len(runes) > maxChars {
			if len(cur) > 0 {
				blocks = append(blocks, strings.TrimSpace(string(cur)))
				cur = nil
			}
			blocks = append(blocks, string(runes[:maxChars]))
			runes = runes[maxChars:]
		}
		if len(cur)+len(runes)+1 > maxChars && len(cur) > 0 {
			blocks = append(blocks, strings.TrimSpace(string(cur)))
			cur = nil
		}
		if len(cur) > 0 {
			cur = append(cur, ' ')
		}
		cur = append(cur, runes...)
	}
	if text := strings.TrimSpace(string(cur)); text != "" {
		blocks = append(blocks, text)
	}
	return blocks
}

// StableID derives the chunk id for a block: the same (sourcePath, index,
// text) triple always yields the same id, which makes graph upserts
// idempotent across re-ingestion.
func StableID(sourcePath string, index int, text string) string {
	textDigest := sha1.Sum([]byte(text))

	h := sha256.New()
	h.Write([]byte(sourcePath))
	h.Write([]byte{0})
	fmt.Fprintf(h, "%d", index)
	h.Write([]byte{0})
	h.Write([]byte(hex.EncodeToString(textDigest[:])))
	return hex.EncodeToString(h.Sum(nil))
}
