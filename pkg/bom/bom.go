// Package bom decodes fixed-digit bill-of-materials codes into human
// readable configuration summaries. Each product family has its own section
// schema; a code is sliced section by section and every slice is looked up
// in the section's meaning table.
package bom

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// Type names a section schema family.
type Type string

const (
	TypeOutdoor Type = "outdoor"
	TypePool    Type = "pool"
	TypeIceTub  Type = "iceTub"
)

// ErrUnknownType signals a bom type with no registered schema.
var ErrUnknownType = errors.New("bom: unknown type")

// ErrLengthMismatch signals a digit string that does not fit the schema.
var ErrLengthMismatch = errors.New("bom: code length mismatch")

// Section is one fixed-width slice of the digit string. A section either
// carries its own meaning table or delegates to child sections that split
// its slice further.
type Section struct {
	Label    string
	Width    int
	Meanings map[string]string
	Children []Section
}

func sectionsWidth(sections []Section) int {
	total := 0
	for _, s := range sections {
		total += s.Width
	}
	return total
}

// digitsOf strips a leading model prefix (letters, dashes) and returns the
// digit payload. Mixed digits and letters past the prefix are rejected so a
// truncated code does not silently decode.
func digitsOf(code string) (string, error) {
	trimmed := strings.TrimSpace(code)
	start := 0
	for start < len(trimmed) {
		r := rune(trimmed[start])
		if unicode.IsDigit(r) {
			break
		}
		if unicode.IsLetter(r) || r == '-' || r == '_' {
			start++
			continue
		}
		return "", fmt.Errorf("bom: unexpected character %q in code", r)
	}
	digits := trimmed[start:]
	for _, r := range digits {
		if !unicode.IsDigit(r) {
			return "", fmt.Errorf("bom: unexpected character %q in code", r)
		}
	}
	if digits == "" {
		return "", errors.New("bom: no digits in code")
	}
	return digits, nil
}

func decodeSections(sections []Section, digits string, out *[]string) {
	offset := 0
	for _, section := range sections {
		slice := digits[offset : offset+section.Width]
		offset += section.Width
		if len(section.Children) > 0 {
			decodeSections(section.Children, slice, out)
			continue
		}
		if meaning, ok := section.Meanings[slice]; ok {
			*out = append(*out, fmt.Sprintf("%s: %s（%s）", section.Label, slice, meaning))
		} else {
			*out = append(*out, fmt.Sprintf("%s: %s", section.Label, slice))
		}
	}
}

// Decode slices code by the schema for bomType and returns one line per
// leaf section.
func Decode(code string, bomType Type) ([]string, error) {
	schema, ok := schemas[bomType]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, bomType)
	}
	digits, err := digitsOf(code)
	if err != nil {
		return nil, err
	}
	if len(digits) != sectionsWidth(schema) {
		return nil, fmt.Errorf("%w: %s wants %d digits, code has %d",
			ErrLengthMismatch, bomType, sectionsWidth(schema), len(digits))
	}
	var lines []string
	decodeSections(schema, digits, &lines)
	return lines, nil
}

// Summary decodes code with the preferred type first and every other
// registered type after it. It returns the joined lines of the first schema
// that fits, or "" when none does.
func Summary(code string, preferred Type) string {
	tried := map[Type]bool{}
	order := []Type{preferred, TypeOutdoor, TypePool, TypeIceTub}
	for _, bomType := range order {
		if tried[bomType] {
			continue
		}
		tried[bomType] = true
		lines, err := Decode(code, bomType)
		if err != nil {
			continue
		}
		return strings.Join(lines, "\n")
	}
	return ""
}
