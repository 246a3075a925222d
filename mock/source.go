package mock

import (
	"context"

	"github.com/fwojciec/pageflow"
)

// Compile-time interface verification.
var (
	_ pageflow.RecordSource    = (*RecordSource)(nil)
	_ pageflow.ResourceWriter  = (*ResourceWriter)(nil)
	_ pageflow.ResourceService = (*ResourceService)(nil)
)

// RecordSource is a mock implementation of pageflow.RecordSource.
type RecordSource struct {
	RecordsFn func(ctx context.Context, fn func(pageflow.Record) error) error
}

func (s *RecordSource) Records(ctx context.Context, fn func(pageflow.Record) error) error {
	return s.RecordsFn(ctx, fn)
}

// ResourceWriter is a mock implementation of pageflow.ResourceWriter.
type ResourceWriter struct {
	WriteResourcesFn func(ctx context.Context, resources []pageflow.Resource) error
}

func (w *ResourceWriter) WriteResources(ctx context.Context, resources []pageflow.Resource) error {
	return w.WriteResourcesFn(ctx, resources)
}

// ResourceService is a mock implementation of pageflow.ResourceService.
type ResourceService struct {
	WriteResourcesFn func(ctx context.Context, resources []pageflow.Resource) error
	FindResourcesFn  func(ctx context.Context, filter pageflow.ResourceFilter) ([]*pageflow.StoredResource, error)
}

func (s *ResourceService) WriteResources(ctx context.Context, resources []pageflow.Resource) error {
	return s.WriteResourcesFn(ctx, resources)
}

func (s *ResourceService) FindResources(ctx context.Context, filter pageflow.ResourceFilter) ([]*pageflow.StoredResource, error) {
	return s.FindResourcesFn(ctx, filter)
}
