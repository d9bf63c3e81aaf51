package graph

import (
	"strings"
	"testing"
)

func TestVectorIndexStatementInlinesDimension(t *testing.T) {
	stmt := vectorIndexStatement(1024)
	if !strings.Contains(stmt, VectorIndexName) {
		t.Fatalf("statement misses index name: %s", stmt)
	}
	if !strings.Contains(stmt, "`vector.dimensions`: 1024") {
		t.Fatalf("dimension not inlined: %s", stmt)
	}
	// Schema commands reject parameters, so no placeholder may survive.
	if strings.Contains(stmt, "$") {
		t.Fatalf("statement still parameterized: %s", stmt)
	}
	if !strings.Contains(stmt, "'cosine'") {
		t.Fatalf("similarity function missing: %s", stmt)
	}
}
