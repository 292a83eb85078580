// Package store persists named document snapshots.
//
// A [Snapshot] is the exported markup of a document plus the grid it was drawn
// on. The editor core keeps no persistent state of its own; snapshots are the
// only thing written to disk or to a database.
//
// Backends:
//   - memory: In-process storage for tests and throwaway servers
//   - file: JSON files, one per snapshot, for the CLI
//   - redis: shared storage for multi-instance servers, with optional TTL
//   - mongo: document database storage
//
// # Usage
//
//	st, err := store.Open(ctx, cfg.Store)
//	if err != nil {
//	    return err
//	}
//	defer st.Close()
//
//	snap := store.NewSnapshot("landing page", 50, 20, markup)
//	if err := st.Put(ctx, snap); err != nil {
//	    return err
//	}
package store

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/gridcraft/pkg/errors"
)

// ErrNotFound is returned when a snapshot does not exist.
var ErrNotFound = errors.New(errors.ErrCodeSnapshotNotFound, "snapshot not found")

// Snapshot is one saved document.
type Snapshot struct {
	ID        string    `json:"id" bson:"_id"`
	Name      string    `json:"name" bson:"name"`
	XCells    int       `json:"x_cells" bson:"x_cells"`
	YCells    int       `json:"y_cells" bson:"y_cells"`
	Markup    string    `json:"markup" bson:"markup"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// NewSnapshot returns a snapshot with a fresh ID and timestamps.
func NewSnapshot(name string, xCells, yCells int, markup string) *Snapshot {
	now := time.Now().UTC()
	return &Snapshot{
		ID:        uuid.NewString(),
		Name:      name,
		XCells:    xCells,
		YCells:    yCells,
		Markup:    markup,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Store is the interface for snapshot storage backends.
type Store interface {
	// Get retrieves a snapshot by ID.
	// Returns ErrNotFound if it does not exist.
	Get(ctx context.Context, id string) (*Snapshot, error)

	// Put creates or replaces a snapshot.
	Put(ctx context.Context, snap *Snapshot) error

	// Delete removes a snapshot. Deleting a missing snapshot is not an error.
	Delete(ctx context.Context, id string) error

	// List returns all snapshots, most recently updated first.
	List(ctx context.Context) ([]*Snapshot, error)

	// Close releases backend resources.
	Close() error
}

func notFound(id string) error {
	return fmt.Errorf("snapshot %s: %w", id, ErrNotFound)
}

func sortByUpdated(snaps []*Snapshot) {
	sort.SliceStable(snaps, func(i, j int) bool {
		return snaps[i].UpdatedAt.After(snaps[j].UpdatedAt)
	})
}
