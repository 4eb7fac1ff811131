package core

import (
	"errors"
	"fmt"
)

var (
	// ErrInsufficientData is returned by the cluster engine when too few
	// summaries are available to cluster meaningfully. The pipeline falls
	// back to direct analysis instead of failing the run.
	ErrInsufficientData = errors.New("not enough summaries to cluster")

	// ErrCompileEmpty is returned when a category compiles to zero usable
	// filter conditions. Soft; the category is dropped.
	ErrCompileEmpty = errors.New("category produced no usable conditions")

	// ErrCacheMiss is returned by an EmbeddingCache when no entry exists
	ErrCacheMiss = errors.New("embedding cache miss")
)

// LabelReason classifies why a cluster's labeling attempt failed
type LabelReason string

const (
	LabelReasonParse   LabelReason = "parse"
	LabelReasonTimeout LabelReason = "timeout"
)

// LabelError represents a soft per-cluster labeling failure. It never
// unwinds past the labeling stage; the affected cluster is dropped.
type LabelError struct {
	ClusterID int
	Reason    LabelReason
	Err       error
}

func (e *LabelError) Error() string {
	return fmt.Sprintf("labeling cluster %d failed (%s): %v", e.ClusterID, e.Reason, e.Err)
}

func (e *LabelError) Unwrap() error {
	return e.Err
}

// ProviderError represents total unavailability of the embedding or LLM
// collaborator. This is the one condition that aborts the pipeline.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s unavailable: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}
