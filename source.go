package pageflow

import (
	"context"
	"time"
)

// RecordSource yields records from an external container format.
type RecordSource interface {
	// Records calls fn for every record in the source, in order.
	// Iteration stops at the first error returned by fn.
	Records(ctx context.Context, fn func(Record) error) error
}

// ResourceWriter serializes collected resources.
type ResourceWriter interface {
	WriteResources(ctx context.Context, resources []Resource) error
}

// ResourceService represents a service for storing resources.
type ResourceService interface {
	ResourceWriter

	// FindResources retrieves stored resources matching the filter.
	FindResources(ctx context.Context, filter ResourceFilter) ([]*StoredResource, error)
}

// StoredResource is a Resource persisted by a ResourceService.
type StoredResource struct {
	Resource

	ID          string    `json:"id"`
	ContentHash string    `json:"contentHash"`
	CreatedAt   time.Time `json:"createdAt"`
}

// ResourceFilter represents a filter for FindResources.
type ResourceFilter struct {
	URL *string `json:"url"`

	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}
