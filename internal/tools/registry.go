package tools

import (
	"context"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"ragchat/internal/contextutil"
)

// Registry is an immutable dispatch table of tools, built once at startup.
// It is safe for concurrent use.
type Registry struct {
	order  []string
	byName map[string]Descriptor
}

// NewRegistry builds a registry. Names must be unique and every descriptor needs a handler.
func NewRegistry(descriptors ...Descriptor) (*Registry, error) {
	r := &Registry{byName: make(map[string]Descriptor, len(descriptors))}
	for _, d := range descriptors {
		if d.Name == "" {
			return nil, fmt.Errorf("tool descriptor has no name")
		}
		if d.Handler == nil {
			return nil, fmt.Errorf("tool %s has no handler", d.Name)
		}
		if _, dup := r.byName[d.Name]; dup {
			return nil, fmt.Errorf("duplicate tool name %q", d.Name)
		}
		r.byName[d.Name] = d
		r.order = append(r.order, d.Name)
	}
	return r, nil
}

// DescribeAll returns the tool declarations in registration order.
func (r *Registry) DescribeAll() []openai.Tool {
	out := make([]openai.Tool, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.byName[name].Tool())
	}
	return out
}

// Descriptors returns the registered descriptors in registration order.
func (r *Registry) Descriptors() []Descriptor {
	out := make([]Descriptor, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.byName[name])
	}
	return out
}

// Has reports whether a tool with the given name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.byName[name]
	return ok
}

// Dispatch runs the named tool and returns its textual result.
// The only error is *UnknownToolError; handler failures come back as diagnostic text.
func (r *Registry) Dispatch(ctx context.Context, name string, params map[string]any) (result string, err error) {
	d, ok := r.byName[name]
	if !ok {
		return "", &UnknownToolError{Name: name}
	}

	logger := contextutil.LoggerFromContext(ctx).With("tool", name)
	start := time.Now()

	defer func() {
		if p := recover(); p != nil {
			logger.ErrorContext(ctx, "tool handler panicked", "panic", p)
			result = (&ToolExecutionError{Tool: name, Err: fmt.Errorf("panic: %v", p)}).Error()
			err = nil
		}
	}()

	if params == nil {
		params = map[string]any{}
	}
	out, herr := d.Handler(ctx, params)
	if herr != nil {
		logger.WarnContext(ctx, "tool handler failed", "error", herr, "duration", time.Since(start))
		execErr := &ToolExecutionError{Tool: name, Err: herr}
		if out != "" {
			return out + "\n" + execErr.Error(), nil
		}
		return execErr.Error(), nil
	}

	logger.InfoContext(ctx, "tool executed", "duration", time.Since(start), "result_bytes", len(out))
	return out, nil
}
