package ai

import "testing"

func TestStripFences(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", `{"a":1}`, `{"a":1}`},
		{"bare fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"surrounding whitespace", "  ```json\n{\"a\":1}\n```  ", `{"a":1}`},
		{"no closing fence", "```json\n{\"a\":1}", `{"a":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripFences(tt.input); got != tt.want {
				t.Fatalf("StripFences(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestUnmarshalFlexible(t *testing.T) {
	type payload struct {
		Label string `json:"label"`
		Name  string `json:"name"`
	}

	tests := []struct {
		name  string
		input string
	}{
		{"standard", `{"label":"Product","name":"Aurora 500"}`},
		{"fenced", "```json\n{\"label\":\"Product\",\"name\":\"Aurora 500\"}\n```"},
		{"double encoded", `"{\"label\":\"Product\",\"name\":\"Aurora 500\"}"`},
		{"malformed", `{label: "Product", name: "Aurora 500"}`},
		{"trailing comma", `{"label":"Product","name":"Aurora 500",}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out payload
			if err := UnmarshalFlexible(tt.input, &out); err != nil {
				t.Fatalf("UnmarshalFlexible() error = %v", err)
			}
			if out.Label != "Product" || out.Name != "Aurora 500" {
				t.Fatalf("UnmarshalFlexible() = %+v", out)
			}
		})
	}

	var out payload
	if err := UnmarshalFlexible("not json at all {{{", &out); err == nil {
		t.Fatal("UnmarshalFlexible() should fail on unrepairable input")
	}
}
