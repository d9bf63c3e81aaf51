package parse

import (
	"regexp"
	"strings"
)

var (
	reMarkdownImage = regexp.MustCompile(`(?i)!\[([^\]]*)\]\(\s*data:image/([a-z0-9.+-]+);base64,([A-Za-z0-9+/=\s]*)\)`)
	reTableSep      = regexp.MustCompile(`^\s*\|?\s*:?-[-:\s|]*\|\s*$`)
)

// ParseMarkdown extracts embedded data-URL images and pipe tables from a
// markdown document, returning the cleaned remaining text. Images that fail
// to decode are dropped; the document text is kept.
func ParseMarkdown(input string) Parsed {
	var out Parsed

	text := reMarkdownImage.ReplaceAllStringFunc(input, func(match string) string {
		groups := reMarkdownImage.FindStringSubmatch(match)
		img, err := decodeDataImage(groups[2], groups[3])
		if err != nil {
			return ""
		}
		img.Alt = strings.TrimSpace(groups[1])
		out.Images = append(out.Images, img)
		return ""
	})

	var kept []string
	lines := strings.Split(text, "\n")
	for i := 0; i < len(lines); i++ {
		if i+1 < len(lines) && looksLikeTableHeader(lines[i]) && reTableSep.MatchString(lines[i+1]) {
			header := splitTableRow(lines[i])
			var rows [][]string
			j := i + 2
			for ; j < len(lines); j++ {
				if strings.TrimSpace(lines[j]) == "" || !strings.Contains(lines[j], "|") {
					break
				}
				rows = append(rows, splitTableRow(lines[j]))
			}
			out.Tables = append(out.Tables, serializeTable(header, rows))
			i = j - 1
			continue
		}
		kept = append(kept, lines[i])
	}

	out.Text = normalizeWhitespace(strings.Join(kept, "\n"))
	return out
}

func looksLikeTableHeader(line string) bool {
	trimmed := strings.TrimSpace(line)
	return strings.Contains(trimmed, "|") && strings.Trim(trimmed, "|-: ") != ""
}

// splitTableRow splits one pipe-table line into cells, honoring escaped
// pipes and dropping the outer empty cells produced by leading/trailing
// pipes.
func splitTableRow(line string) []string {
	line = strings.TrimSpace(line)
	var cells []string
	var cur strings.Builder
	escaped := false
	for _, r := range line {
		switch {
		case escaped:
			if r != '|' {
				cur.WriteByte('\\')
			}
			cur.WriteRune(r)
			escaped = false
		case r == '\\':
			escaped = true
		case r == '|':
			cells = append(cells, strings.TrimSpace(cur.String()))
			cur.Reset()
		default:
			cur.WriteRune(r)
		}
	}
	cells = append(cells, strings.TrimSpace(cur.String()))

	if len(cells) > 0 && cells[0] == "" {
		cells = cells[1:]
	}
	if len(cells) > 0 && cells[len(cells)-1] == "" {
		cells = cells[:len(cells)-1]
	}
	return cells
}
