package retrieval

import (
	"errors"
	"fmt"
)

// ErrNoDocuments is returned when the collection yields no passages.
var ErrNoDocuments = errors.New("no documents found")

// Stage names the pipeline step that failed.
type Stage string

const (
	StageNormalize Stage = "normalize"
	StageEmbed     Stage = "embed"
	StageSearch    Stage = "search"
)

// RetrievalError reports a failed pipeline stage.
type RetrievalError struct {
	Stage Stage
	Err   error
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("retrieval %s: %v", e.Stage, e.Err)
}

func (e *RetrievalError) Unwrap() error {
	return e.Err
}
