// Package repo defines the generic Repository interface and list options.
package repo

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get and Delete when no node matches the ID.
var ErrNotFound = errors.New("not found")

// Repository is a generic CRUD interface.
type Repository[T any, ID comparable] interface {
	Get(ctx context.Context, id ID) (T, error)
	List(ctx context.Context, opts ListOpts) ([]T, error)
	Create(ctx context.Context, entity T) (T, error)
	Delete(ctx context.Context, id ID) error
}

// ListOpts controls pagination for List operations. OrderBy names a node
// property to sort on, newest or largest first when Desc is set.
type ListOpts struct {
	Offset  int
	Limit   int
	OrderBy string
	Desc    bool
}
