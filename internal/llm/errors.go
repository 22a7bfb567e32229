package llm

import (
	"errors"
	"fmt"
)

// ErrResponseTooLarge reports a response body over the buffering limit.
var ErrResponseTooLarge = errors.New("response body too large")

// TransportError reports a failure reaching the LLM or embedding server.
type TransportError struct {
	Op         string
	URL        string
	StatusCode int
	Body       string
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s: bad status %d: %s", e.Op, e.URL, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// AssemblyError describes one streaming line that could not be decoded.
// It is a diagnostic only; assembly continues past it.
type AssemblyError struct {
	Line int
	Raw  string
	Err  error
}

func (e *AssemblyError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *AssemblyError) Unwrap() error {
	return e.Err
}
