package internalerr

import "errors"

// Sentinel errors for common cases
var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrInvalidConfig    = errors.New("invalid configuration")

	// ErrTextSearchUnsupported is returned by stores without a full-text
	// index; callers fall back to substring matching.
	ErrTextSearchUnsupported = errors.New("text search unsupported")
	// ErrQueryFailed means both text search and the substring fallback
	// failed. It is distinct from an empty result.
	ErrQueryFailed    = errors.New("could not process query")
	ErrLLMUnavailable = errors.New("llm unavailable")
	ErrArtifactWrite  = errors.New("artifact write failed")
)
