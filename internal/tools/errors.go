package tools

import "fmt"

// UnknownToolError is returned when the model asks for a tool the registry does not hold.
type UnknownToolError struct {
	Name string
}

func (e *UnknownToolError) Error() string {
	return fmt.Sprintf("unknown tool: %s", e.Name)
}

// ToolExecutionError reports that a handler ran but its command or query failed.
// The registry converts it to text; it never crosses the Dispatch boundary.
type ToolExecutionError struct {
	Tool string
	Err  error
}

func (e *ToolExecutionError) Error() string {
	return fmt.Sprintf("tool %s failed: %v", e.Tool, e.Err)
}

func (e *ToolExecutionError) Unwrap() error {
	return e.Err
}
