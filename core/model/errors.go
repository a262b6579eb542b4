package model

import "errors"

// Error taxonomy shared by every stage of a batch. Callers wrap these with
// fmt.Errorf("%w: ...") and branch with errors.Is.
var (
	// ErrConfig is fatal and aborts a batch before further subsets run.
	ErrConfig = errors.New("config error")
	// ErrMissingInput marks an absent scenario file; the subset is skipped.
	ErrMissingInput = errors.New("missing input")
	// ErrData marks a malformed field. Loaders recover by coercion.
	ErrData = errors.New("data error")
	// ErrSolver marks a failed or solution-less solve; the subset is skipped.
	ErrSolver = errors.New("solver error")
	// ErrIO marks a failed write of batch outputs.
	ErrIO = errors.New("io error")
)
