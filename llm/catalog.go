package llm

import "strings"

// ModelInfo describes a known model in the catalog.
type ModelInfo struct {
	ID            string      `json:"id"`
	DisplayName   string      `json:"display_name"`
	Kind          BackendKind `json:"kind"`
	ContextWindow int         `json:"context_window"`
	Premium       bool        `json:"premium"`
}

// Models is the built-in model catalog. Lookups match by prefix so dated
// snapshots resolve to their family.
var Models = []ModelInfo{
	{ID: "gpt-4-32k", DisplayName: "GPT-4 32k", Kind: KindChat, ContextWindow: 32768, Premium: true},
	{ID: "gpt-4o-mini", DisplayName: "GPT-4o mini", Kind: KindChat, ContextWindow: 128000, Premium: true},
	{ID: "gpt-4o", DisplayName: "GPT-4o", Kind: KindChat, ContextWindow: 128000, Premium: true},
	{ID: "gpt-4", DisplayName: "GPT-4", Kind: KindChat, ContextWindow: 8192, Premium: true},
	{ID: "gpt-3.5-turbo", DisplayName: "GPT-3.5 Turbo", Kind: KindChat, ContextWindow: 16385},
	{ID: "text-davinci-003", DisplayName: "Davinci 003", Kind: KindCompletion, ContextWindow: 4097},
	{ID: "llama", DisplayName: "Local llama.cpp", Kind: KindLocal},
}

// GetModelInfo returns the catalog entry for a model, or nil if unknown.
// The longest matching prefix wins.
func GetModelInfo(model string) *ModelInfo {
	var best *ModelInfo
	for i := range Models {
		if strings.HasPrefix(model, Models[i].ID) {
			if best == nil || len(Models[i].ID) > len(best.ID) {
				best = &Models[i]
			}
		}
	}
	return best
}

// IsPremium reports whether a model is expensive enough to warn about.
// Any GPT-4 family model counts, catalogued or not.
func IsPremium(model string) bool {
	if strings.Contains(strings.ToLower(model), "gpt-4") {
		return true
	}
	if info := GetModelInfo(model); info != nil {
		return info.Premium
	}
	return false
}
