package store

import (
	"context"

	"github.com/joescharf/flowboard/internal/models"
)

// DefaultActivityLimit caps ListActivity when no limit is given.
const DefaultActivityLimit = 50

// ActivityFilter narrows ListActivity. Zero values match everything.
type ActivityFilter struct {
	Owner       string
	Repo        string
	IssueNumber int
	Limit       int
}

// Store persists the audit log of writes made through flowboard.
type Store interface {
	RecordActivity(ctx context.Context, a *models.Activity) error
	ListActivity(ctx context.Context, filter ActivityFilter) ([]*models.Activity, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
