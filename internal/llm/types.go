package llm

import (
	"encoding/json"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// Role tags a conversation turn.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ToolChoice controls whether the model may call tools on its own.
type ToolChoice string

const (
	ToolChoiceAuto     ToolChoice = "auto"
	ToolChoiceNone     ToolChoice = "none"
	ToolChoiceRequired ToolChoice = "required"
)

// Dialect selects the wire format of the LLM server.
type Dialect string

const (
	// DialectOllama speaks /api/chat with newline-delimited JSON fragments.
	DialectOllama Dialect = "ollama"
	// DialectOpenAI speaks /chat/completions with "data:" prefixed lines.
	DialectOpenAI Dialect = "openai"
)

// ParseDialect validates a dialect name.
func ParseDialect(s string) (Dialect, error) {
	switch Dialect(s) {
	case DialectOllama, DialectOpenAI:
		return Dialect(s), nil
	default:
		return "", fmt.Errorf("unknown LLM dialect %q", s)
	}
}

// Message represents a single turn in a chat conversation.
type Message struct {
	Role       Role       `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
	ToolName   string     `json:"tool_name,omitempty"`
}

// ToolCall is a function invocation requested by the model.
type ToolCall struct {
	ID        string
	Name      string
	Arguments map[string]any
}

type toolCallWire struct {
	ID       string `json:"id,omitempty"`
	Type     string `json:"type,omitempty"`
	Function struct {
		Name      string          `json:"name"`
		Arguments json.RawMessage `json:"arguments,omitempty"`
	} `json:"function"`
}

// MarshalJSON encodes the call in the Ollama shape, arguments as an object.
func (tc ToolCall) MarshalJSON() ([]byte, error) {
	var w toolCallWire
	w.ID = tc.ID
	w.Type = string(openai.ToolTypeFunction)
	w.Function.Name = tc.Name
	args := tc.Arguments
	if args == nil {
		args = map[string]any{}
	}
	raw, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal tool arguments: %w", err)
	}
	w.Function.Arguments = raw
	return json.Marshal(w)
}

// UnmarshalJSON accepts arguments either as an object or as a JSON-encoded string.
func (tc *ToolCall) UnmarshalJSON(data []byte) error {
	var w toolCallWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	args, err := parseArguments(w.Function.Arguments)
	if err != nil {
		return err
	}
	tc.ID = w.ID
	tc.Name = w.Function.Name
	tc.Arguments = args
	return nil
}

func parseArguments(raw json.RawMessage) (map[string]any, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return map[string]any{}, nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("invalid tool arguments: %w", err)
		}
		return decodeArgumentString(s)
	}
	args := map[string]any{}
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, fmt.Errorf("invalid tool arguments: %w", err)
	}
	return args, nil
}

func decodeArgumentString(s string) (map[string]any, error) {
	args := map[string]any{}
	if s == "" {
		return args, nil
	}
	if err := json.Unmarshal([]byte(s), &args); err != nil {
		return nil, fmt.Errorf("invalid tool arguments: %w", err)
	}
	return args, nil
}

// ChatConfiguration is the unit of work sent to the LLM.
// It is built fresh per request and never persisted.
type ChatConfiguration struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
	// Temperature is expected in [0,1].
	Temperature float64 `json:"temperature"`
	// MaxTokens caps generated tokens. Negative lets the server decide.
	MaxTokens  int           `json:"max_tokens"`
	Stream     bool          `json:"stream"`
	Tools      []openai.Tool `json:"tools,omitempty"`
	ToolChoice ToolChoice    `json:"tool_choice,omitempty"`
}

// Validate reports caller errors that must not reach the server.
func (c ChatConfiguration) Validate() error {
	if c.Model == "" {
		return fmt.Errorf("chat configuration has no model")
	}
	if len(c.Messages) == 0 {
		return fmt.Errorf("chat configuration has no messages")
	}
	return nil
}

// WithMessages returns a copy of c whose message list is msgs appended to c's own.
// The receiver's backing array is never shared with the copy.
func (c ChatConfiguration) WithMessages(msgs ...Message) ChatConfiguration {
	out := c
	out.Messages = make([]Message, 0, len(c.Messages)+len(msgs))
	out.Messages = append(out.Messages, c.Messages...)
	out.Messages = append(out.Messages, msgs...)
	return out
}

// GenerateRequest is a one-shot, non-chat completion.
type GenerateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	System string `json:"system,omitempty"`
	Stream bool   `json:"stream"`
}

// ModelDescriptor describes a model the server can run.
type ModelDescriptor struct {
	Name       string    `json:"name"`
	Model      string    `json:"model,omitempty"`
	Size       int64     `json:"size,omitempty"`
	Digest     string    `json:"digest,omitempty"`
	ModifiedAt time.Time `json:"modified_at,omitempty"`
}
