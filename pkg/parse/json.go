package parse

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// jsonNode is a decoded JSON value that preserves object key order, which
// the stdlib map representation loses. Key order matters because table
// columns follow first-seen order.
type jsonNode struct {
	kind   byte // 'o' object, 'a' array, 's' string, 'n' number, 'b' bool, '0' null
	keys   []string
	fields map[string]*jsonNode
	items  []*jsonNode
	str    string
	num    string
	boolV  bool
}

// ParseJSON walks an arbitrary JSON document. Data-URL string values become
// images, lists whose elements are all objects become pipe tables, and all
// remaining scalars are emitted as "path/to/key: value" lines.
func ParseJSON(input []byte) (Parsed, error) {
	dec := json.NewDecoder(bytes.NewReader(input))
	dec.UseNumber()
	root, err := decodeNode(dec)
	if err != nil {
		return Parsed{}, fmt.Errorf("parse json: %w", err)
	}

	var out Parsed
	var lines []string
	walkJSON(root, "", &out, &lines)
	out.Text = normalizeWhitespace(strings.Join(lines, "\n"))
	return out, nil
}

func decodeNode(dec *json.Decoder) (*jsonNode, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	return decodeFromToken(dec, tok)
}

func decodeFromToken(dec *json.Decoder, tok json.Token) (*jsonNode, error) {
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			node := &jsonNode{kind: 'o', fields: map[string]*jsonNode{}}
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return nil, fmt.Errorf("object key is %T", keyTok)
				}
				val, err := decodeNode(dec)
				if err != nil {
					return nil, err
				}
				if _, dup := node.fields[key]; !dup {
					node.keys = append(node.keys, key)
				}
				node.fields[key] = val
			}
			if _, err := dec.Token(); err != nil { // closing brace
				return nil, err
			}
			return node, nil
		case '[':
			node := &jsonNode{kind: 'a'}
			for dec.More() {
				item, err := decodeNode(dec)
				if err != nil {
					return nil, err
				}
				node.items = append(node.items, item)
			}
			if _, err := dec.Token(); err != nil { // closing bracket
				return nil, err
			}
			return node, nil
		}
		return nil, fmt.Errorf("unexpected delimiter %v", t)
	case string:
		return &jsonNode{kind: 's', str: t}, nil
	case json.Number:
		return &jsonNode{kind: 'n', num: t.String()}, nil
	case bool:
		return &jsonNode{kind: 'b', boolV: t}, nil
	case nil:
		return &jsonNode{kind: '0'}, nil
	}
	return nil, fmt.Errorf("unexpected token %T", tok)
}

func walkJSON(node *jsonNode, path string, out *Parsed, lines *[]string) {
	switch node.kind {
	case 'o':
		for _, key := range node.keys {
			walkJSON(node.fields[key], joinPath(path, key), out, lines)
		}
	case 'a':
		if len(node.items) > 0 && allObjects(node.items) {
			header, rows := tabulate(node.items)
			out.Tables = append(out.Tables, serializeTable(header, rows))
			return
		}
		for i, item := range node.items {
			walkJSON(item, joinPath(path, fmt.Sprintf("%d", i)), out, lines)
		}
	case 's':
		v := node.str
		if strings.HasPrefix(strings.ToLower(strings.TrimSpace(v)), "data:image/") {
			if m := reDataURL.FindStringSubmatch(v); m != nil {
				if img, err := decodeDataImage(m[1], m[2]); err == nil {
					img.Alt = path
					out.Images = append(out.Images, img)
				}
			}
			return
		}
		if strings.TrimSpace(v) != "" {
			*lines = append(*lines, fmt.Sprintf("%s: %s", path, v))
		}
	case 'n':
		*lines = append(*lines, fmt.Sprintf("%s: %s", path, node.num))
	case 'b':
		*lines = append(*lines, fmt.Sprintf("%s: %t", path, node.boolV))
	case '0':
		// null values carry no text
	}
}

func joinPath(path, key string) string {
	if path == "" {
		return key
	}
	return path + "/" + key
}

func allObjects(items []*jsonNode) bool {
	for _, item := range items {
		if item.kind != 'o' {
			return false
		}
	}
	return true
}

// tabulate flattens a list of objects into a table whose columns are the
// union of keys in first-seen order. Missing cells default to empty.
func tabulate(items []*jsonNode) ([]string, [][]string) {
	var header []string
	seen := map[string]bool{}
	for _, item := range items {
		for _, key := range item.keys {
			if !seen[key] {
				seen[key] = true
				header = append(header, key)
			}
		}
	}

	rows := make([][]string, 0, len(items))
	for _, item := range items {
		row := make([]string, len(header))
		for i, key := range header {
			if val, ok := item.fields[key]; ok {
				row[i] = scalarString(val)
			}
		}
		rows = append(rows, row)
	}
	return header, rows
}

func scalarString(v *jsonNode) string {
	switch v.kind {
	case 's':
		return v.str
	case 'n':
		return v.num
	case 'b':
		return fmt.Sprintf("%t", v.boolV)
	case '0':
		return ""
	case 'a':
		parts := make([]string, 0, len(v.items))
		for _, item := range v.items {
			parts = append(parts, scalarString(item))
		}
		return strings.Join(parts, ", ")
	case 'o':
		parts := make([]string, 0, len(v.keys))
		for _, key := range v.keys {
			parts = append(parts, fmt.Sprintf("%s=%s", key, scalarString(v.fields[key])))
		}
		return strings.Join(parts, "; ")
	}
	return ""
}
