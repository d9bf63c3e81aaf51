// Package playbook maintains per-type rule playbooks that adapt from
// extraction outcomes: a generator answers with the playbook in context, a
// reflector grades which rules helped, and a curator appends new rules.
package playbook

import "fmt"

// Type names one playbook instance.
type Type string

const (
	TypeSpec   Type = "spec"
	TypeManual Type = "manual"
	TypePoster Type = "poster"
	TypeOther  Type = "other"
)

// Types lists every playbook instance the engine maintains.
var Types = []Type{TypeSpec, TypeManual, TypePoster, TypeOther}

// Bullet is one rule. Ids are monotonically increasing and never reused,
// including across restarts.
type Bullet struct {
	ID      string `json:"id"`
	Section string `json:"section"`
	Content string `json:"content"`
	Helpful int    `json:"helpful"`
	Harmful int    `json:"harmful"`
}

// Score is the net usefulness of a bullet in [-1, 1], or 0 before any
// feedback.
func (b Bullet) Score() float64 {
	denom := b.Helpful + b.Harmful
	if denom == 0 {
		return 0
	}
	return float64(b.Helpful-b.Harmful) / float64(denom)
}

func bulletID(n int) string {
	return fmt.Sprintf("ctx-%05d", n)
}
