package activity

import (
	"context"
	"time"
)

// Repository provides persistence for the activity log.
type Repository interface {
	Append(ctx context.Context, records []Record) error
	ReadAll(ctx context.Context) ([]Record, error)
	Latest(ctx context.Context) (map[string]int64, error)
	List(ctx context.Context, opts ListOptions) ([]Record, error)
}

// Compactor is implemented by repositories that can drop old raw records while
// keeping the latest timestamp per project.
type Compactor interface {
	ListBefore(ctx context.Context, cutoff time.Time) ([]Record, error)
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Notifier receives a signal every time new activity was persisted. Consumers
// are expected to re-run discovery.
type Notifier interface {
	ProjectsUpdated(ctx context.Context)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context)

// ProjectsUpdated calls f.
func (f NotifierFunc) ProjectsUpdated(ctx context.Context) { f(ctx) }

// Notifiers fans a signal out to several notifiers in order.
type Notifiers []Notifier

// ProjectsUpdated notifies every non-nil member.
func (ns Notifiers) ProjectsUpdated(ctx context.Context) {
	for _, n := range ns {
		if n != nil {
			n.ProjectsUpdated(ctx)
		}
	}
}
