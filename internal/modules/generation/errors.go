package generation

import (
	"errors"
	"fmt"
)

var (
	ErrRunInProgress = errors.New("generation already in progress for submission")
	ErrEmptyOutput   = errors.New("provider returned no text")
	// ErrLeaseLost means the run no longer holds its submission and must stop.
	ErrLeaseLost     = errors.New("generation run lease lost")
)

// PhaseError ties a collaborator failure to the phase that observed it.
type PhaseError struct {
	Phase Phase
	Err   error
}

func (e *PhaseError) Error() string {
	return fmt.Sprintf("generation failed while %s: %v", e.Phase.label(), e.Err)
}

func (e *PhaseError) Unwrap() error { return e.Err }
