package store

import (
	"context"
	"errors"

	"github.com/hejny/gitlabinfo/internal/models"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Store defines the persistence interface for glinfo.
type Store interface {
	// Preferences
	GetPreference(ctx context.Context, key string) (string, bool, error)
	SetPreference(ctx context.Context, key, value string) error
	ListPreferences(ctx context.Context) ([]*models.Preference, error)
	DeletePreferences(ctx context.Context) (int64, error)

	// Snapshots
	SaveSnapshot(ctx context.Context, snap *models.Snapshot) error
	LatestSnapshot(ctx context.Context) (*models.Snapshot, error)
	PruneSnapshots(ctx context.Context, keep int) (int64, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
