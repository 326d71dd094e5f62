// Package refresh performs the one-shot project fetch and keeps the snapshot
// history used when the source is unreachable.
package refresh

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hejny/gitlabinfo/internal/models"
	"github.com/hejny/gitlabinfo/internal/source"
	"github.com/hejny/gitlabinfo/internal/store"
)

// DefaultKeep is the number of snapshots retained after a successful fetch.
const DefaultKeep = 5

// Options controls a refresh.
type Options struct {
	Keep    int  // snapshots to retain; values below 1 use DefaultKeep
	Offline bool // skip the fetch and serve the latest snapshot
	Logger  *slog.Logger
}

// Result holds the outcome of a refresh.
type Result struct {
	Source     string           `json:"source"`
	Count      int              `json:"count"`
	FetchedAt  time.Time        `json:"fetched_at"`
	SnapshotID string           `json:"snapshot_id,omitempty"`
	Stale      bool             `json:"stale"`
	Pruned     int64            `json:"pruned"`
	Error      string           `json:"error,omitempty"`
	Projects   []models.Project `json:"-"`
}

// Projects fetches the collection from src and records it as a snapshot.
// A failed fetch, or an offline run (src may be nil), falls back to the
// newest snapshot; with no snapshot the result is empty and Error explains
// why. Only store failures are returned as errors.
func Projects(ctx context.Context, src source.Source, s store.Store, opts Options) (*Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	keep := opts.Keep
	if keep < 1 {
		keep = DefaultKeep
	}

	if opts.Offline {
		name := ""
		if src != nil {
			name = src.Name()
		}
		return fromSnapshot(ctx, s, name, "offline")
	}
	if src == nil {
		return nil, errors.New("no source configured")
	}

	start := time.Now()
	projects, err := src.Projects(ctx)
	if err != nil {
		logger.Warn("fetch projects failed, using last snapshot", "source", src.Name(), "error", err)
		r, serr := fromSnapshot(ctx, s, src.Name(), err.Error())
		if serr != nil {
			return nil, serr
		}
		r.Error = err.Error()
		return r, nil
	}
	logger.Debug("projects fetched", "source", src.Name(), "count", len(projects), "elapsed", time.Since(start))

	snap := &models.Snapshot{Source: src.Name(), Projects: projects}
	if err := s.SaveSnapshot(ctx, snap); err != nil {
		return nil, err
	}
	pruned, err := s.PruneSnapshots(ctx, keep)
	if err != nil {
		return nil, err
	}
	if pruned > 0 {
		logger.Debug("snapshots pruned", "deleted", pruned, "kept", keep)
	}

	return &Result{
		Source:     snap.Source,
		Count:      len(projects),
		FetchedAt:  snap.FetchedAt,
		SnapshotID: snap.ID,
		Pruned:     pruned,
		Projects:   projects,
	}, nil
}

func fromSnapshot(ctx context.Context, s store.Store, name, reason string) (*Result, error) {
	snap, err := s.LatestSnapshot(ctx)
	if errors.Is(err, store.ErrNotFound) {
		return &Result{Source: name, Stale: true, Error: fmt.Sprintf("no snapshot available (%s)", reason)}, nil
	}
	if err != nil {
		return nil, err
	}
	return &Result{
		Source:     snap.Source,
		Count:      len(snap.Projects),
		FetchedAt:  snap.FetchedAt,
		SnapshotID: snap.ID,
		Stale:      true,
		Projects:   snap.Projects,
	}, nil
}
