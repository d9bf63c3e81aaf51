package playbook

import (
	"context"
	"fmt"
	"strings"

	"github.com/hydroluxe/prodkb/backend/pkg/ai"
)

type generatorOutput struct {
	Reasoning     string   `json:"reasoning"`
	UsedBulletIDs []string `json:"used_bullet_ids"`
	FinalAnswer   string   `json:"final_answer"`
}

type reflectorOutput struct {
	BulletLabels        map[string]string `json:"bullet_labels"`
	ErrorIdentification string            `json:"error_identification"`
	RootCause           string            `json:"root_cause"`
	KeyInsight          string            `json:"key_insight"`
}

type curatorOp struct {
	Type    string `json:"type"`
	Section string `json:"section"`
	Content string `json:"content"`
}

type curatorOutput struct {
	Operations []curatorOp `json:"operations"`
}

const agentTimeoutSec = 120

func (m *Manager) agentCall(ctx context.Context, systemPrompt, userPrompt string, out any) error {
	if m.ai == nil {
		return fmt.Errorf("no model client configured")
	}
	raw, err := m.ai.GenerateCompletion(ctx, userPrompt,
		ai.WithSystemPrompts(systemPrompt),
		ai.WithTemperature(0),
		ai.WithTimeout(agentTimeoutSec),
	)
	if err != nil {
		return err
	}
	return ai.UnmarshalFlexible(ai.StripFences(raw), out)
}

func (m *Manager) runGenerator(ctx context.Context, question, contextText string) (*generatorOutput, error) {
	system := `You answer extraction tasks using a playbook of learned rules.
Return ONLY JSON: {"reasoning": string, "used_bullet_ids": [string], "final_answer": string}.
used_bullet_ids lists the ids of playbook rules you applied.`

	var b strings.Builder
	b.WriteString("## Playbook\n")
	if text := m.playbookText(); text != "" {
		b.WriteString(text)
	} else {
		b.WriteString("(empty)\n")
	}
	b.WriteString("\n## Question\n")
	b.WriteString(question)
	b.WriteString("\n\n## Context\n")
	b.WriteString(contextText)

	var out generatorOutput
	if err := m.agentCall(ctx, system, b.String(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (m *Manager) runReflector(ctx context.Context, question, prediction, groundTruth string, correct bool, usedIDs []string) (*reflectorOutput, error) {
	system := `You review an extraction attempt against its ground truth.
Return ONLY JSON: {"bullet_labels": {id: "helpful"|"harmful"|"neutral"},
"error_identification": string, "root_cause": string, "key_insight": string}.
Label only the bullet ids you were given.`

	var b strings.Builder
	b.WriteString("## Question\n")
	b.WriteString(question)
	b.WriteString("\n\n## Prediction\n")
	b.WriteString(prediction)
	b.WriteString("\n\n## Ground truth\n")
	b.WriteString(groundTruth)
	fmt.Fprintf(&b, "\n\n## Verdict\ncorrect=%t\n", correct)
	if len(usedIDs) > 0 {
		b.WriteString("\n## Used bullet ids\n")
		b.WriteString(strings.Join(usedIDs, ", "))
	}

	var out reflectorOutput
	if err := m.agentCall(ctx, system, b.String(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (m *Manager) runCurator(ctx context.Context, question, prediction, groundTruth string, reflection *reflectorOutput) ([]curatorOp, error) {
	system := fmt.Sprintf(`You maintain a playbook of extraction rules.
Propose new rules that would have prevented the observed error.
Return ONLY JSON: {"operations": [{"type": "ADD", "section": string, "content": string}]}.
Allowed sections: %s. Return an empty operations list when nothing general can be learned.`,
		strings.Join(m.sections, ", "))

	var b strings.Builder
	b.WriteString("## Question\n")
	b.WriteString(question)
	b.WriteString("\n\n## Prediction\n")
	b.WriteString(prediction)
	b.WriteString("\n\n## Ground truth\n")
	b.WriteString(groundTruth)
	if reflection != nil {
		fmt.Fprintf(&b, "\n\n## Reflection\nerror: %s\nroot cause: %s\ninsight: %s\n",
			reflection.ErrorIdentification, reflection.RootCause, reflection.KeyInsight)
	}
	b.WriteString("\n## Current playbook\n")
	if text := m.playbookText(); text != "" {
		b.WriteString(text)
	} else {
		b.WriteString("(empty)\n")
	}

	var out curatorOutput
	if err := m.agentCall(ctx, system, b.String(), &out); err != nil {
		return nil, err
	}
	return out.Operations, nil
}
