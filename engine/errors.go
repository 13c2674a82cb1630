package engine

import (
	"github.com/Laisky/errors/v2"
)

var (
	// ErrWorkspaceMismatch reports events spanning more than one workspace.
	// This is a programmer error at the data-access boundary and is never
	// silently merged.
	ErrWorkspaceMismatch = errors.New("usage events span more than one workspace")

	// ErrInsufficientHistory reports that no requested statistic had enough
	// history. Callers should degrade to partial or empty results.
	ErrInsufficientHistory = errors.New("insufficient history for requested statistic")

	// ErrInvalidConfiguration reports malformed thresholds or policy input,
	// rejected before any computation starts.
	ErrInvalidConfiguration = errors.New("invalid engine configuration")
)
