package playbook

import "testing"

func TestAnswersMatch(t *testing.T) {
	tests := []struct {
		name       string
		prediction string
		truth      string
		want       bool
	}{
		{"exact", "42 jets", "42 jets", true},
		{"case and punctuation", "42 Jets!", "42 jets", true},
		{"containment prediction", "the tub has 42 jets total", "42 jets", true},
		{"containment truth", "42 jets", "the tub has 42 jets total", true},
		{"seventy percent overlap", "alpha beta gamma delta epsilon zeta eta", "alpha beta gamma delta epsilon zeta theta", true},
		{"low overlap", "completely different words here", "42 jets and 2 pumps installed", false},
		{"both empty", "", "", true},
		{"one empty", "something", "", false},
	}
	for _, tt := range tests {
		if got := AnswersMatch(tt.prediction, tt.truth); got != tt.want {
			t.Fatalf("%s: AnswersMatch(%q, %q) = %v, want %v",
				tt.name, tt.prediction, tt.truth, got, tt.want)
		}
	}
}

func TestNormalizeText(t *testing.T) {
	if got := normalizeText("  Hello,   WORLD!  "); got != "hello world" {
		t.Fatalf("normalizeText = %q", got)
	}
	if got := normalizeText("缸体颜色：珍珠白"); got != "缸体颜色 珍珠白" {
		t.Fatalf("normalizeText cjk = %q", got)
	}
}
