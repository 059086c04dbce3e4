package translator

import (
	"errors"
	"fmt"
)

// Error categories of the query pipeline. Each failed query belongs to
// exactly one: generation (backend unreachable after retries), rejection
// (output never became a usable filter), execution (store refused the
// filter). An empty result set is not an error.
var (
	ErrGeneration = errors.New("model generation failed")
	ErrExecution  = errors.New("filter execution failed")
	ErrNoFields   = errors.New("collection has no fields to query")
	ErrFallback   = errors.New("could not generate query from input")
)

// RejectionError reports output the validator refused, with the verdict
// that refused it. FallbackErr is set when the keyword fallback could not
// construct a filter either.
type RejectionError struct {
	Verdict     Verdict
	FallbackErr error
}

func (e *RejectionError) Error() string {
	if e.FallbackErr != nil {
		return fmt.Sprintf("filter rejected (%s): %v", e.Verdict.Kind, e.FallbackErr)
	}
	return fmt.Sprintf("filter rejected (%s): %s", e.Verdict.Kind, e.Verdict.Reason)
}

func (e *RejectionError) Unwrap() error { return e.FallbackErr }
