package domain

import (
	"errors"
	"fmt"
)

var (
	ErrIndexBuild         = errors.New("index build failed")
	ErrEmbeddingDimension = errors.New("embedding dimension mismatch")
	ErrInvalidConfig      = errors.New("invalid retrieval config")
	ErrRetrievalTimeout   = errors.New("retrieval timed out")
	ErrSnapshotNotFound   = errors.New("snapshot not found")
	ErrTemporary          = errors.New("temporary failure")
)

var (
	errBothBranchesDisabled = errors.New("both retrieval branches disabled")
	errNegativeWeight       = errors.New("branch weights must be non-negative")
)

func errNonPositive(field string, value int) error {
	return fmt.Errorf("%s must be positive, got %d", field, value)
}

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
