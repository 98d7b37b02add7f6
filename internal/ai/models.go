package ai

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// DefaultModel is used when neither flags, project nor config name one.
const DefaultModel = "openai/gpt-4o-mini"

// defaultContextTokens is assumed for models missing from the catalog.
const defaultContextTokens = 8192

// ModelInfo is catalog metadata used for prompt budgeting and cost warnings.
// Prices are illustrative; override them with a catalog file.
type ModelInfo struct {
	Name          string  `json:"name" yaml:"name"`
	Provider      string  `json:"provider" yaml:"provider"`
	ContextTokens int     `json:"context_tokens" yaml:"context_tokens"`
	InputPerK     float64 `json:"input_per_k" yaml:"input_per_k"`   // USD per 1K input tokens
	OutputPerK    float64 `json:"output_per_k" yaml:"output_per_k"` // USD per 1K output tokens
}

var (
	catalogMu sync.RWMutex
	models    = builtinCatalog()
)

func builtinCatalog() map[string]ModelInfo {
	entries := []ModelInfo{
		{"openai/gpt-4o-mini", ProviderOpenRouter, 128000, 0.0006, 0.0024},
		{"openai/gpt-4o", ProviderOpenRouter, 128000, 0.005, 0.015},
		{"openai/gpt-4.1-mini", ProviderOpenRouter, 128000, 0.0005, 0.0015},
		{"anthropic/claude-3.5-sonnet", ProviderOpenRouter, 200000, 0.003, 0.015},
		{"anthropic/claude-3-haiku", ProviderOpenRouter, 200000, 0.00025, 0.00125},
		{"google/gemini-1.5-flash", ProviderOpenRouter, 1000000, 0.0002, 0.0008},
		{"deepseek/deepseek-r1:free", ProviderOpenRouter, 128000, 0, 0},
		{"meta-llama/llama-3.1-70b-instruct", ProviderOpenRouter, 131072, 0, 0},
		{"llama3.1:8b-instruct", ProviderOllama, 8192, 0, 0},
		{"llama3:latest", ProviderOllama, 8192, 0, 0},
		{"mistral-nemo:latest", ProviderOllama, 8192, 0, 0},
		{"qwen2.5:7b-instruct", ProviderOllama, 32768, 0, 0},
		{"phi3:mini-128k-instruct", ProviderOllama, 128000, 0, 0},
	}
	m := make(map[string]ModelInfo, len(entries))
	for _, e := range entries {
		m[e.Name] = e
	}
	return m
}

// LookupModel returns ModelInfo and ok flag.
func LookupModel(name string) (ModelInfo, bool) {
	catalogMu.RLock()
	defer catalogMu.RUnlock()
	mi, ok := models[name]
	return mi, ok
}

// ContextWindow returns the model's context size, or a conservative default
// for unknown models.
func ContextWindow(name string) int {
	if mi, ok := LookupModel(name); ok && mi.ContextTokens > 0 {
		return mi.ContextTokens
	}
	return defaultContextTokens
}

// EstimateCostUSD estimates total cost in USD for given tokens using model pricing.
// If the model is unknown, returns 0 and ok=false.
func EstimateCostUSD(model string, promptTokens, completionTokens int) (float64, bool) {
	mi, ok := LookupModel(model)
	if !ok {
		return 0, false
	}
	inCost := (float64(promptTokens) / 1000.0) * mi.InputPerK
	outCost := (float64(completionTokens) / 1000.0) * mi.OutputPerK
	return inCost + outCost, true
}

// LoadCatalog reads a map of model name to ModelInfo from a YAML or JSON
// file. Entries without a name take the map key.
func LoadCatalog(path string) (map[string]ModelInfo, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	var m map[string]ModelInfo
	if err := yaml.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	for k, v := range m {
		if strings.TrimSpace(v.Name) == "" {
			v.Name = k
			m[k] = v
		}
	}
	return m, nil
}

// MergeCatalog merges/overrides entries in the in-memory catalog.
func MergeCatalog(m map[string]ModelInfo) {
	catalogMu.Lock()
	defer catalogMu.Unlock()
	for k, v := range m {
		models[k] = v
	}
}

// CatalogNames returns the catalog's model names, sorted.
func CatalogNames() []string {
	catalogMu.RLock()
	defer catalogMu.RUnlock()
	out := make([]string, 0, len(models))
	for k := range models {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
