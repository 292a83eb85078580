// Package session keeps live documents for the server and the terminal editor.
//
// A [Manager] maps document IDs to [Document] values, each wrapping one
// [designer.Designer]. Designers are single-threaded, so every access goes
// through [Document.Do], which holds the document's own lock. The manager lock
// only guards the ID map.
//
// Documents are saved to and opened from a [store.Store] as snapshots. A
// document remembers the snapshot it was last saved to, so saving again
// updates that snapshot instead of creating a new one.
package session

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/gridcraft/pkg/designer"
	"github.com/matzehuels/gridcraft/pkg/errors"
	"github.com/matzehuels/gridcraft/pkg/store"
)

// Document is one live editor.
type Document struct {
	ID        string
	CreatedAt time.Time

	mu         sync.Mutex
	designer   *designer.Designer
	snapshotID string
	lastUsed   time.Time
}

// Do runs fn with exclusive access to the document's designer.
func (d *Document) Do(fn func(*designer.Designer) error) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.lastUsed = time.Now()
	return fn(d.designer)
}

// SnapshotID returns the snapshot the document was last saved to or opened
// from, or "".
func (d *Document) SnapshotID() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.snapshotID
}

// Info summarises a live document.
type Info struct {
	ID         string    `json:"id"`
	XCells     int       `json:"x_cells"`
	YCells     int       `json:"y_cells"`
	Cells      int       `json:"cells"`
	SnapshotID string    `json:"snapshot_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	LastUsed   time.Time `json:"last_used"`
}

// Manager owns the live documents.
type Manager struct {
	mu     sync.RWMutex
	docs   map[string]*Document
	store  store.Store
	opts   []designer.Option
	logger *log.Logger
}

// NewManager returns a manager saving to st. opts are applied to every
// designer it creates.
func NewManager(st store.Store, logger *log.Logger, opts ...designer.Option) *Manager {
	if logger == nil {
		logger = log.Default()
	}
	return &Manager{
		docs:   make(map[string]*Document),
		store:  st,
		opts:   opts,
		logger: logger,
	}
}

// Store returns the snapshot store.
func (m *Manager) Store() store.Store {
	return m.store
}

// Create opens an empty xCells by yCells document.
func (m *Manager) Create(xCells, yCells int) (*Document, error) {
	d := designer.New(nil, m.opts...)
	if _, err := d.NewDocument(xCells, yCells, false); err != nil {
		return nil, err
	}
	doc := m.add(d, "")
	m.logger.Debug("document created", "document", doc.ID, "x_cells", xCells, "y_cells", yCells)
	return doc, nil
}

// Import opens a document from an exported fragment, sized from its grid
// attributes.
func (m *Manager) Import(html string) (*Document, error) {
	d := designer.New(nil, m.opts...)
	if err := d.SetMarkup(html); err != nil {
		return nil, err
	}
	doc := m.add(d, "")
	m.logger.Debug("document imported", "document", doc.ID, "cells", d.Layer().Len())
	return doc, nil
}

func (m *Manager) add(d *designer.Designer, snapshotID string) *Document {
	now := time.Now()
	doc := &Document{
		ID:         uuid.NewString(),
		CreatedAt:  now,
		designer:   d,
		snapshotID: snapshotID,
		lastUsed:   now,
	}
	m.mu.Lock()
	m.docs[doc.ID] = doc
	m.mu.Unlock()
	return doc
}

// Get returns the live document with the given ID.
func (m *Manager) Get(id string) (*Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.docs[id]
	if !ok {
		return nil, errors.New(errors.ErrCodeDocumentNotFound, "document %s not found", id)
	}
	return doc, nil
}

// Close discards a live document without saving it.
func (m *Manager) Close(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[id]; !ok {
		return errors.New(errors.ErrCodeDocumentNotFound, "document %s not found", id)
	}
	delete(m.docs, id)
	m.logger.Debug("document closed", "document", id)
	return nil
}

// List returns all live documents, oldest first.
func (m *Manager) List() []Info {
	m.mu.RLock()
	docs := make([]*Document, 0, len(m.docs))
	for _, doc := range m.docs {
		docs = append(docs, doc)
	}
	m.mu.RUnlock()

	infos := make([]Info, 0, len(docs))
	for _, doc := range docs {
		doc.mu.Lock()
		info := Info{
			ID:         doc.ID,
			SnapshotID: doc.snapshotID,
			CreatedAt:  doc.CreatedAt,
			LastUsed:   doc.lastUsed,
		}
		if l := doc.designer.Layer(); l != nil {
			info.XCells, info.YCells = l.Grid()
			info.Cells = l.Len()
		}
		doc.mu.Unlock()
		infos = append(infos, info)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].CreatedAt.Before(infos[j].CreatedAt) })
	return infos
}

// Cleanup closes documents unused for longer than maxIdle and returns how
// many were closed.
func (m *Manager) Cleanup(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)

	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, doc := range m.docs {
		doc.mu.Lock()
		idle := doc.lastUsed.Before(cutoff)
		doc.mu.Unlock()
		if idle {
			delete(m.docs, id)
			n++
		}
	}
	if n > 0 {
		m.logger.Info("closed idle documents", "count", n)
	}
	return n
}

// =============================================================================
// Snapshots
// =============================================================================

// Save writes the document to the store under name. The first save creates a
// snapshot; later saves update it.
func (m *Manager) Save(ctx context.Context, id, name string) (*store.Snapshot, error) {
	if err := errors.ValidateName(name); err != nil {
		return nil, err
	}
	doc, err := m.Get(id)
	if err != nil {
		return nil, err
	}

	doc.mu.Lock()
	defer doc.mu.Unlock()
	html, ok := doc.designer.Markup()
	if !ok {
		return nil, errors.New(errors.ErrCodeNoDocument, "document %s has nothing to save", id)
	}
	xCells, yCells := doc.designer.Layer().Grid()

	snap := store.NewSnapshot(name, xCells, yCells, html)
	if doc.snapshotID != "" {
		prev, err := m.store.Get(ctx, doc.snapshotID)
		switch {
		case err == nil:
			snap.ID = prev.ID
			snap.CreatedAt = prev.CreatedAt
		case !errors.IsNotFound(err):
			return nil, fmt.Errorf("load snapshot %s: %w", doc.snapshotID, err)
		}
	}
	if err := m.store.Put(ctx, snap); err != nil {
		return nil, fmt.Errorf("save snapshot: %w", err)
	}
	doc.snapshotID = snap.ID
	m.logger.Info("snapshot saved", "document", id, "snapshot", snap.ID, "cells", doc.designer.Layer().Len())
	return snap, nil
}

// Load opens a snapshot as a new live document.
func (m *Manager) Load(ctx context.Context, snapshotID string) (*Document, error) {
	if err := errors.ValidateID(snapshotID); err != nil {
		return nil, err
	}
	snap, err := m.store.Get(ctx, snapshotID)
	if err != nil {
		return nil, err
	}

	d := designer.New(nil, m.opts...)
	if _, err := d.NewDocument(snap.XCells, snap.YCells, false); err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", snapshotID, err)
	}
	if err := d.SetMarkup(snap.Markup); err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", snapshotID, err)
	}
	doc := m.add(d, snap.ID)
	m.logger.Debug("snapshot opened", "snapshot", snap.ID, "document", doc.ID, "cells", d.Layer().Len())
	return doc, nil
}

// Snapshots lists the stored snapshots, most recently updated first.
func (m *Manager) Snapshots(ctx context.Context) ([]*store.Snapshot, error) {
	return m.store.List(ctx)
}

// DeleteSnapshot removes a stored snapshot.
func (m *Manager) DeleteSnapshot(ctx context.Context, snapshotID string) error {
	if err := errors.ValidateID(snapshotID); err != nil {
		return err
	}
	return m.store.Delete(ctx, snapshotID)
}
