package chunk

import (
	"strings"
	"testing"
)

func TestSplit_Empty(t *testing.T) {
	if got := Split("   \n\n  ", DefaultMaxChars, DefaultOverlap); got != nil {
		t.Fatalf("Split() = %v, want nil", got)
	}
}

func TestSplit_SmallInputSingleBlock(t *testing.T) {
	got := Split("hello world\nsecond line", DefaultMaxChars, DefaultOverlap)
	if len(got) != 1 {
		t.Fatalf("Split() returned %d blocks, want 1", len(got))
	}
	if got[0] != "hello world\nsecond line" {
		t.Fatalf("Split() = %q", got[0])
	}
}

func TestSplit_RespectsMaxChars(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 200; i++ {
		b.WriteString("This is a fairly ordinary sentence that keeps going for a while. ")
	}
	blocks := Split(b.String(), 1000, 100)
	if len(blocks) < 2 {
		t.Fatalf("Split() returned %d blocks, want several", len(blocks))
	}
	for i, block := range blocks {
		if n := len([]rune(block)); n > 1000 {
			t.Fatalf("block %d has %d chars, want <= 1000", i, n)
		}
	}
}

func TestSplit_OverlapSeedsNextBlock(t *testing.T) {
	line := strings.Repeat("a", 99)
	input := strings.Repeat(line+"\n", 30)
	blocks := Split(input, 1000, 100)
	if len(blocks) < 2 {
		t.Fatalf("Split() returned %d blocks, want >= 2", len(blocks))
	}
	tail := blocks[0][len(blocks[0])-50:]
	if !strings.Contains(blocks[1], tail) {
		t.Fatalf("second block does not carry overlap from the first")
	}
}

func TestSplit_NewBlockBeforeHeading(t *testing.T) {
	body := strings.Repeat("x", 700)
	input := body + "\n## Installation\nmore text"
	blocks := Split(input, 1000, 100)
	if len(blocks) != 2 {
		t.Fatalf("Split() returned %d blocks, want 2: %q", len(blocks), blocks)
	}
	if !strings.HasPrefix(blocks[1], "## Installation") {
		t.Fatalf("second block should start at the heading, got %q", blocks[1])
	}
}

func TestSplit_HeadingKeptInlineWhenBlockSmall(t *testing.T) {
	input := "short intro\n# Title\nbody"
	blocks := Split(input, 1000, 100)
	if len(blocks) != 1 {
		t.Fatalf("Split() returned %d blocks, want 1: %q", len(blocks), blocks)
	}
}

func TestSplit_CJKSentenceBoundaries(t *testing.T) {
	sentence := strings.Repeat("这是一个测试句子", 10) + "。 "
	input := strings.Repeat(sentence, 40)
	blocks := Split(input, 500, 0)
	for i, block := range blocks {
		if n := len([]rune(block)); n > 500 {
			t.Fatalf("block %d has %d chars, want <= 500", i, n)
		}
	}
}

func TestStableID_DeterministicAndDistinct(t *testing.T) {
	a := StableID("docs/a.md", 0, "hello")
	b := StableID("docs/a.md", 0, "hello")
	if a != b {
		t.Fatalf("StableID not deterministic: %s != %s", a, b)
	}
	if len(a) != 64 {
		t.Fatalf("StableID length = %d, want 64 hex chars", len(a))
	}

	distinct := map[string]bool{a: true}
	for _, id := range []string{
		StableID("docs/a.md", 1, "hello"),
		StableID("docs/b.md", 0, "hello"),
		StableID("docs/a.md", 0, "hello "),
	} {
		if distinct[id] {
			t.Fatalf("StableID collision: %s", id)
		}
		distinct[id] = true
	}
}
