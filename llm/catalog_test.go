package llm

import "testing"

func TestGetModelInfo(t *testing.T) {
	tests := []struct {
		model string
		want  string
	}{
		{"gpt-4", "gpt-4"},
		{"gpt-4-0613", "gpt-4"},
		{"gpt-4-32k-0613", "gpt-4-32k"},
		{"gpt-4o-mini", "gpt-4o-mini"},
		{"gpt-3.5-turbo-16k", "gpt-3.5-turbo"},
		{"llama-13b", "llama"},
	}
	for _, tt := range tests {
		info := GetModelInfo(tt.model)
		if info == nil {
			t.Errorf("GetModelInfo(%q) = nil", tt.model)
			continue
		}
		if info.ID != tt.want {
			t.Errorf("GetModelInfo(%q).ID = %q, want %q", tt.model, info.ID, tt.want)
		}
	}

	if GetModelInfo("claude-2") != nil {
		t.Error("expected nil for unknown model")
	}
}

func TestCatalogKindsMatchRouting(t *testing.T) {
	for _, m := range Models {
		if got := KindForModel(m.ID); got != m.Kind {
			t.Errorf("%s: catalog kind %q does not match routed kind %q", m.ID, m.Kind, got)
		}
	}
}

func TestIsPremium(t *testing.T) {
	tests := []struct {
		model string
		want  bool
	}{
		{"gpt-4", true},
		{"gpt-4-0314", true},
		{"GPT-4", true},
		{"gpt-3.5-turbo", false},
		{"text-davinci-003", false},
		{"llama", false},
	}
	for _, tt := range tests {
		if got := IsPremium(tt.model); got != tt.want {
			t.Errorf("IsPremium(%q) = %v, want %v", tt.model, got, tt.want)
		}
	}
}
