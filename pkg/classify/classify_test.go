package classify

import (
	"context"
	"errors"
	"testing"

	"github.com/hydroluxe/prodkb/backend/pkg/ai/aitest"
)

func scripted(label, name string) *aitest.Client {
	return &aitest.Client{
		FormatFn: func(_, _ string, out any) error {
			res := out.(*Result)
			res.Label = label
			res.Name = name
			return nil
		},
	}
}

func TestClassify_ValidProduct(t *testing.T) {
	candidates := Candidates{Products: []string{"Aurora 500", "Vista 300"}, Accessories: []string{"Cover"}}
	got := Classify(context.Background(), scripted("Product", "Aurora 500"), "a.md", "snippet", candidates)
	if got.Label != LabelProduct || got.Name != "Aurora 500" {
		t.Fatalf("Classify() = %+v", got)
	}
}

func TestClassify_ValidAccessory(t *testing.T) {
	candidates := Candidates{Products: []string{"Aurora 500"}, Accessories: []string{"Cover", "Steps"}}
	got := Classify(context.Background(), scripted("accessory", "Steps"), "b.md", "snippet", candidates)
	if got.Label != LabelAccessory || got.Name != "Steps" {
		t.Fatalf("Classify() = %+v", got)
	}
}

func TestClassify_NameNotInList(t *testing.T) {
	candidates := Candidates{Products: []string{"Aurora 500"}}
	got := Classify(context.Background(), scripted("Product", "Fabricated 900"), "c.md", "snippet", candidates)
	if got.Label != LabelUnknown || got.Name != "" {
		t.Fatalf("Classify() = %+v, want unknown", got)
	}
}

func TestClassify_CrossListRejected(t *testing.T) {
	// A product name under the accessory label must not validate.
	candidates := Candidates{Products: []string{"Aurora 500"}, Accessories: []string{"Cover"}}
	got := Classify(context.Background(), scripted("Accessory", "Aurora 500"), "d.md", "snippet", candidates)
	if got.Label != LabelUnknown {
		t.Fatalf("Classify() = %+v, want unknown", got)
	}
}

func TestClassify_ModelFailure(t *testing.T) {
	client := &aitest.Client{
		FormatFn: func(_, _ string, _ any) error { return errors.New("upstream") },
	}
	candidates := Candidates{Products: []string{"Aurora 500"}}
	got := Classify(context.Background(), client, "e.md", "snippet", candidates)
	if got.Label != LabelUnknown || got.Name != "" {
		t.Fatalf("Classify() = %+v, want unknown", got)
	}
}

func TestClassify_NoCandidates(t *testing.T) {
	client := &aitest.Client{}
	got := Classify(context.Background(), client, "f.md", "snippet", Candidates{})
	if got.Label != LabelUnknown {
		t.Fatalf("Classify() = %+v, want unknown", got)
	}
	if client.CallCount("GenerateCompletionWithFormat") != 0 {
		t.Fatal("Classify() should not call the model without candidates")
	}
}
