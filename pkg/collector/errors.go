package collector

import (
	"errors"
	"fmt"

	"github.com/cuemby/fnerd-orchestrator/pkg/types"
)

// PhaseError is the typed error every phase function returns on
// failure, carrying enough to build a types.Failure without losing the
// underlying cause (spec §9: replace exception-driven control flow
// with a sum-typed result).
type PhaseError struct {
	Phase  types.Phase
	Kind   types.ErrorKind
	Detail string
	Err    error
}

func (e *PhaseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %s: %v", e.Phase, e.Kind, e.Detail, e.Err)
	}
	return fmt.Sprintf("%s: %s: %s", e.Phase, e.Kind, e.Detail)
}

func (e *PhaseError) Unwrap() error { return e.Err }

func phaseErr(phase types.Phase, kind types.ErrorKind, detail string, err error) *PhaseError {
	return &PhaseError{Phase: phase, Kind: kind, Detail: detail, Err: err}
}

// toFailure converts a PhaseError into the job's terminal Failure
// record. Any other error is reported as an internal_error at the
// given phase, so a bug in a lower layer can never crash the worker
// (spec §5: fan-out must never crash the executor).
func toFailure(phase types.Phase, err error) *types.Failure {
	if err == nil {
		return nil
	}
	var pe *PhaseError
	if errors.As(err, &pe) {
		return &types.Failure{Kind: pe.Kind, Phase: pe.Phase, Detail: pe.Detail}
	}
	return &types.Failure{Kind: types.KindInternal, Phase: phase, Detail: err.Error()}
}
