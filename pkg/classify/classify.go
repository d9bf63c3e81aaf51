// Package classify maps a parsed artifact to the product or accessory that
// owns it, using a constrained-choice LLM prompt.
package classify

import (
	"context"
	"fmt"
	"strings"

	"github.com/hydroluxe/prodkb/backend/pkg/ai"
	"github.com/hydroluxe/prodkb/backend/pkg/logger"
)

// Owner labels. Unknown is the safe default for any validation failure.
const (
	LabelProduct   = "Product"
	LabelAccessory = "Accessory"
	LabelUnknown   = "unknown"
)

const maxCandidates = 100

const maxSnippet = 4000

// Candidates lists the legal owner names an artifact may be assigned to.
type Candidates struct {
	Products    []string
	Accessories []string
}

// Result is a validated classification. Label is LabelUnknown with an empty
// Name whenever the model reply cannot be trusted.
type Result struct {
	Label string `json:"label"`
	Name  string `json:"name"`
}

const systemPrompt = `You assign a product-documentation file to its owner.
Pick exactly one owner name from the provided candidate lists. If no listed
owner clearly matches, answer with label "UNKNOWN" and an empty name.
Answer with JSON only: {"label": "Product" | "Accessory" | "UNKNOWN", "name": "<candidate name or empty>"}`

// Classify asks the model which candidate owns the file and validates the
// reply against the candidate lists. Any parse or membership failure yields
// ("unknown", "").
func Classify(
	ctx context.Context,
	client ai.Client,
	filePath string,
	contentSnippet string,
	candidates Candidates,
) Result {
	unknown := Result{Label: LabelUnknown, Name: ""}

	products := capList(candidates.Products, maxCandidates)
	accessories := capList(candidates.Accessories, maxCandidates)
	if len(products) == 0 && len(accessories) == 0 {
		return unknown
	}

	var prompt strings.Builder
	fmt.Fprintf(&prompt, "File: %s\n\n", filePath)
	prompt.WriteString("Product candidates:\n")
	for _, name := range products {
		fmt.Fprintf(&prompt, "- %s\n", name)
	}
	prompt.WriteString("\nAccessory candidates:\n")
	for _, name := range accessories {
		fmt.Fprintf(&prompt, "- %s\n", name)
	}
	fmt.Fprintf(&prompt, "\nContent snippet:\n%s\n", clampRunes(contentSnippet, maxSnippet))

	var reply Result
	err := client.GenerateCompletionWithFormat(
		ctx,
		"owner_classification",
		"Owner of a product-documentation file",
		prompt.String(),
		&reply,
		ai.WithSystemPrompts(systemPrompt),
		ai.WithTemperature(0),
	)
	if err != nil {
		logger.Warn("[Classify] model call failed", "file", filePath, "err", err)
		return unknown
	}

	name := strings.TrimSpace(reply.Name)
	switch strings.ToLower(strings.TrimSpace(reply.Label)) {
	case "product":
		if contains(products, name) {
			return Result{Label: LabelProduct, Name: name}
		}
	case "accessory":
		if contains(accessories, name) {
			return Result{Label: LabelAccessory, Name: name}
		}
	}
	return unknown
}

func capList(list []string, limit int) []string {
	if len(list) > limit {
		return list[:limit]
	}
	return list
}

func contains(list []string, name string) bool {
	if name == "" {
		return false
	}
	for _, item := range list {
		if item == name {
			return true
		}
	}
	return false
}

func clampRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
