package persona

import (
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"ragchat/internal/llm"
)

// AutoModel defers model selection to the session default.
const AutoModel = "auto"

// Defaults are the sampling settings applied to every built configuration.
type Defaults struct {
	Temperature float64
	MaxTokens   int
	Stream      bool
}

// Builder turns persona choices into a chat configuration.
type Builder struct {
	table    *Table
	defaults Defaults
	tools    []openai.Tool
}

// NewBuilder creates a builder. tools, when non-empty, are advertised with tool choice auto.
func NewBuilder(table *Table, defaults Defaults, tools []openai.Tool) *Builder {
	return &Builder{table: table, defaults: defaults, tools: tools}
}

// Choice is one persona request.
type Choice struct {
	Expertise Expertise
	Style     Style
	Message   string
	// Model is used verbatim unless empty or "auto".
	Model string
}

// ResolveModel applies the "auto" sentinel.
func ResolveModel(override, defaultModel string) string {
	if override == "" || strings.EqualFold(override, AutoModel) {
		return defaultModel
	}
	return override
}

// Build returns a fresh configuration: expertise instructions, then style
// instructions, then the user message.
func (b *Builder) Build(choice Choice, defaultModel string) (llm.ChatConfiguration, error) {
	if strings.TrimSpace(choice.Message) == "" {
		return llm.ChatConfiguration{}, fmt.Errorf("message is required")
	}
	model := ResolveModel(choice.Model, defaultModel)
	if model == "" {
		return llm.ChatConfiguration{}, fmt.Errorf("no model selected and no default model configured")
	}

	instructions := b.table.Instructions(choice.Expertise, choice.Style)
	messages := make([]llm.Message, 0, len(instructions)+1)
	for _, text := range instructions {
		messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: text})
	}
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: choice.Message})

	cfg := llm.ChatConfiguration{
		Model:       model,
		Messages:    messages,
		Temperature: b.defaults.Temperature,
		MaxTokens:   b.defaults.MaxTokens,
		Stream:      b.defaults.Stream,
	}
	if len(b.tools) > 0 {
		cfg.Tools = append([]openai.Tool(nil), b.tools...)
		cfg.ToolChoice = llm.ToolChoiceAuto
	}
	return cfg, nil
}
