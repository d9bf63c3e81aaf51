package summarize

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/hydroluxe/prodkb/backend/pkg/ai"
	"github.com/hydroluxe/prodkb/backend/pkg/ai/aitest"
)

func TestText_ClampsToOneSentence(t *testing.T) {
	client := &aitest.Client{
		CompletionFn: func(prompt string, opts ai.GenerateOptions) (string, error) {
			if opts.Temperature != 0 {
				t.Fatalf("temperature = %v, want 0", opts.Temperature)
			}
			return strings.Repeat("x", 200) + "\nsecond line ignored", nil
		},
	}
	got := Text(context.Background(), client, "some document body")
	if len([]rune(got)) != 60 {
		t.Fatalf("summary length = %d, want 60", len([]rune(got)))
	}
	if strings.Contains(got, "\n") {
		t.Fatalf("summary should be a single line: %q", got)
	}
}

func noRetryDelay(t *testing.T) {
	t.Helper()
	prev := providerRetryDelay
	providerRetryDelay = 0
	t.Cleanup(func() { providerRetryDelay = prev })
}

func TestText_FailureReturnsPlaceholder(t *testing.T) {
	noRetryDelay(t)
	calls := 0
	client := &aitest.Client{
		CompletionFn: func(string, ai.GenerateOptions) (string, error) {
			calls++
			return "", errors.New("upstream down")
		},
	}
	if got := Text(context.Background(), client, "body"); got != failedPlaceholder {
		t.Fatalf("Text() = %q, want placeholder", got)
	}
	if calls != providerTries {
		t.Fatalf("provider called %d times, want %d", calls, providerTries)
	}
}

func TestText_TransientFailureRecovers(t *testing.T) {
	noRetryDelay(t)
	calls := 0
	client := &aitest.Client{
		CompletionFn: func(string, ai.GenerateOptions) (string, error) {
			calls++
			if calls == 1 {
				return "", errors.New("upstream down")
			}
			return "pump assembly manual", nil
		},
	}
	if got := Text(context.Background(), client, "body"); got != "pump assembly manual" {
		t.Fatalf("Text() = %q", got)
	}
	if calls != 2 {
		t.Fatalf("provider called %d times, want 2", calls)
	}
}

func TestTable_ClampsLines(t *testing.T) {
	var lines []string
	for i := 0; i < 30; i++ {
		lines = append(lines, "- "+strings.Repeat("f", 200))
	}
	client := &aitest.Client{
		CompletionFn: func(string, ai.GenerateOptions) (string, error) {
			return strings.Join(lines, "\n"), nil
		},
	}
	got := Table(context.Background(), client, "| a |")
	outLines := strings.Split(got, "\n")
	if len(outLines) != 16 {
		t.Fatalf("lines = %d, want 16", len(outLines))
	}
	for _, line := range outLines {
		if len([]rune(line)) > 120 {
			t.Fatalf("line too long: %d", len([]rune(line)))
		}
	}
}

func TestImage_FallsBackToAlt(t *testing.T) {
	noRetryDelay(t)
	client := &aitest.Client{
		VisionFn: func(string, ai.ImagePayload) (string, error) {
			return "", errors.New("payload rejected")
		},
	}
	got := Image(context.Background(), client, []byte{1, 2}, "image/png", "control panel")
	if got != "image: control panel" {
		t.Fatalf("Image() = %q", got)
	}
}

func TestImage_NoAltPlaceholder(t *testing.T) {
	noRetryDelay(t)
	client := &aitest.Client{
		VisionFn: func(string, ai.ImagePayload) (string, error) {
			return "", errors.New("payload rejected")
		},
	}
	if got := Image(context.Background(), client, []byte{1}, "image/png", "  "); got != failedPlaceholder {
		t.Fatalf("Image() = %q, want placeholder", got)
	}
}
