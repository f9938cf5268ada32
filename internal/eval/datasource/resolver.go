// Package datasource resolves named datasets into ordered item sets.
// Resolution can be slow (remote catalogues, large files), so the coordinator
// resolves each distinct name exactly once per batch through a Registry and
// shares the resulting read-only handle across jobs.
package datasource

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/faisalx96/llm-eval-sub000/internal/common/evalerrors"
	"github.com/faisalx96/llm-eval-sub000/internal/eval/domain"
)

// Handle is a resolved dataset. It is read-only after resolution and may be
// shared freely across concurrent jobs.
type Handle struct {
	Name  string
	items []domain.Item
}

func NewHandle(name string, items []domain.Item) *Handle {
	return &Handle{Name: name, items: items}
}

// Items returns the dataset's ordered items. Callers must not mutate the
// returned slice.
func (h *Handle) Items() []domain.Item {
	return h.items
}

// Resolver turns a dataset name into a Handle. Implementations return
// evalerrors.ErrNotFound for unknown names and ErrInvalidArgument for
// datasets that resolve to zero items.
type Resolver interface {
	Resolve(ctx context.Context, name string) (*Handle, error)
}

// MemoryResolver serves datasets from an in-memory map. Used in tests and by
// embedders that construct datasets programmatically.
type MemoryResolver struct {
	mu       sync.Mutex
	datasets map[string][]domain.Item
}

func NewMemoryResolver() *MemoryResolver {
	return &MemoryResolver{datasets: map[string][]domain.Item{}}
}

func (r *MemoryResolver) Add(name string, items []domain.Item) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.datasets[name] = items
}

func (r *MemoryResolver) Resolve(_ context.Context, name string) (*Handle, error) {
	r.mu.Lock()
	items, ok := r.datasets[name]
	r.mu.Unlock()
	if !ok {
		return nil, errors.WithStack(&evalerrors.ErrNotFound{Type: "dataset", Value: name})
	}
	if len(items) == 0 {
		return nil, errors.WithStack(&evalerrors.ErrInvalidArgument{
			Name:    "dataset",
			Value:   name,
			Message: "dataset is empty",
		})
	}
	return NewHandle(name, items), nil
}
