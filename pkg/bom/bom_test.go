package bom

import (
	"strings"
	"testing"
)

const outdoorCode = "HL0105010202020960301011" // 22 digits after the HL prefix

func TestDecodeOutdoor(t *testing.T) {
	lines, err := Decode(outdoorCode, TypeOutdoor)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 11 top-level sections, the pump section splits into two children.
	if len(lines) != 12 {
		t.Fatalf("expected 12 lines, got %d: %v", len(lines), lines)
	}
	if lines[0] != "系列: 01（尊享系列）" {
		t.Fatalf("unexpected first line %q", lines[0])
	}
	if lines[1] != "规格: 05（5人位）" {
		t.Fatalf("unexpected line %q", lines[1])
	}
	if lines[4] != "按摩泵: 02（双速按摩泵）" {
		t.Fatalf("unexpected pump line %q", lines[4])
	}
	if lines[5] != "循环泵: 02（静音循环泵）" {
		t.Fatalf("unexpected pump line %q", lines[5])
	}
}

func TestDecodeUnknownValueKeepsDigits(t *testing.T) {
	lines, err := Decode(outdoorCode, TypeOutdoor)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// The jet count has no meaning table; the raw slice stands alone.
	found := false
	for _, line := range lines {
		if line == "喷嘴数量: 096" {
			found = true
		}
		if strings.Contains(line, "喷嘴数量") && strings.Contains(line, "（") {
			t.Fatalf("jet count should not carry a meaning: %q", line)
		}
	}
	if !found {
		t.Fatalf("jet count line missing from %v", lines)
	}
}

func TestDecodeLengthMismatch(t *testing.T) {
	if _, err := Decode("HL0105", TypeOutdoor); err == nil {
		t.Fatal("expected length mismatch error")
	}
}

func TestDecodeRejectsMixedPayload(t *testing.T) {
	if _, err := Decode("HL01X501020102096030101", TypeOutdoor); err == nil {
		t.Fatal("expected error for letters inside the digit payload")
	}
}

func TestDecodeUnknownType(t *testing.T) {
	if _, err := Decode(outdoorCode, Type("indoor")); err == nil {
		t.Fatal("expected unknown type error")
	}
}

func TestDecodeIceTub(t *testing.T) {
	lines, err := Decode("IT010201020210", TypeIceTub)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lines[0] != "系列: 01（单人冷水桶）" {
		t.Fatalf("unexpected first line %q", lines[0])
	}
	if lines[len(lines)-1] != "盖板: 0（无盖板）" {
		t.Fatalf("unexpected last line %q", lines[len(lines)-1])
	}
}

func TestSummaryPrefersRequestedType(t *testing.T) {
	summary := Summary(outdoorCode, TypeOutdoor)
	if summary == "" {
		t.Fatal("expected a decoded summary")
	}
	if !strings.Contains(summary, "系列: 01（尊享系列）") {
		t.Fatalf("summary missing series line: %q", summary)
	}
}

func TestSummaryFallsBackAcrossTypes(t *testing.T) {
	// 12 digits only fit the iceTub schema, even when outdoor was asked for.
	summary := Summary("010201020210", TypeOutdoor)
	if !strings.Contains(summary, "容积: 02（400升）") {
		t.Fatalf("expected iceTub decode, got %q", summary)
	}
}

func TestSummaryUndecodableReturnsEmpty(t *testing.T) {
	if got := Summary("12345", TypeOutdoor); got != "" {
		t.Fatalf("expected empty summary, got %q", got)
	}
}
