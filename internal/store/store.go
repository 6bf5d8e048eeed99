// Package store persists intake records.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"rotorcharter/internal/domain"
)

// List paging bounds.
const (
	DefaultLimit = 100
	MaxLimit     = 500
)

// ListFilter narrows a record listing. Zero values disable a filter.
type ListFilter struct {
	// Query is a case-insensitive substring matched against the name, email
	// and message fields.
	Query  string
	Status string
	Read   *bool
	Skip   int
	Limit  int
}

// Bounded returns f with paging clamped to the supported range.
func (f ListFilter) Bounded() ListFilter {
	if f.Skip < 0 {
		f.Skip = 0
	}
	if f.Limit <= 0 {
		f.Limit = DefaultLimit
	}
	if f.Limit > MaxLimit {
		f.Limit = MaxLimit
	}
	return f
}

// Stats summarises a record collection for the back-office dashboard.
type Stats struct {
	Total    int64            `json:"total"`
	Unread   int64            `json:"unread"`
	ByStatus map[string]int64 `json:"byStatus"`
}

// Repository stores one record variant. Lists are ordered newest first.
type Repository[T any] interface {
	// Create assigns identity and creation time, then persists rec.
	Create(ctx context.Context, rec *T) error
	Get(ctx context.Context, id string) (*T, error)
	List(ctx context.Context, f ListFilter) ([]T, error)
	// Replace overwrites every field but identity and creation time.
	Replace(ctx context.Context, id string, rec *T) (*T, error)
	SetStatus(ctx context.Context, id, status string) (*T, error)
	SetRead(ctx context.Context, id string, read bool) (*T, error)
	Delete(ctx context.Context, id string) error
	Stats(ctx context.Context) (*Stats, error)
	Ping(ctx context.Context) error
}

// recordPtr constrains PT to the pointer type of a record variant T.
type recordPtr[T any] interface {
	*T
	domain.Record
}

var (
	now   = func() time.Time { return time.Now().UTC() }
	newID = uuid.NewString
)
