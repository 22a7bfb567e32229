package tools

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// Handler runs one tool invocation with the parameters the model supplied.
type Handler func(ctx context.Context, params map[string]any) (string, error)

// Property describes one tool parameter.
type Property struct {
	Type        string `json:"type"`
	Description string `json:"description"`
}

// Schema is the JSON schema of a tool's parameter object.
type Schema struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties"`
	Required   []string            `json:"required"`
}

// Descriptor is one entry in the registry.
type Descriptor struct {
	Name        string
	Description string
	Parameters  Schema
	Handler     Handler
}

// Tool renders the descriptor as a function declaration for the chat request.
func (d Descriptor) Tool() openai.Tool {
	return openai.Tool{
		Type: openai.ToolTypeFunction,
		Function: &openai.FunctionDefinition{
			Name:        d.Name,
			Description: d.Description,
			Parameters:  d.Parameters,
		},
	}
}

// stringParam extracts a required string parameter.
func stringParam(params map[string]any, name string) (string, error) {
	v, ok := params[name]
	if !ok {
		return "", fmt.Errorf("missing required parameter %q", name)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("parameter %q must be a string, got %T", name, v)
	}
	return s, nil
}
