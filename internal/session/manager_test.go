package session

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/gridcraft/pkg/designer"
	"github.com/matzehuels/gridcraft/pkg/errors"
	"github.com/matzehuels/gridcraft/pkg/pointer"
	"github.com/matzehuels/gridcraft/pkg/store"
)

func newManager(t *testing.T) *Manager {
	t.Helper()
	return NewManager(store.NewMemoryStore(), log.New(io.Discard))
}

func drawCell(t *testing.T, doc *Document) {
	t.Helper()
	err := doc.Do(func(d *designer.Designer) error {
		d.Pointer(pointer.Press, 100, 50)
		d.Pointer(pointer.Move, 140, 90)
		return d.Pointer(pointer.Release, 140, 90)
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestCreateGetClose(t *testing.T) {
	m := newManager(t)
	doc, err := m.Create(50, 20)
	if err != nil {
		t.Fatal(err)
	}
	if got, err := m.Get(doc.ID); err != nil || got != doc {
		t.Fatalf("Get() = %v, %v", got, err)
	}
	if infos := m.List(); len(infos) != 1 || infos[0].XCells != 50 || infos[0].YCells != 20 {
		t.Errorf("List() = %+v", infos)
	}

	if err := m.Close(doc.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Get(doc.ID); !errors.Is(err, errors.ErrCodeDocumentNotFound) {
		t.Errorf("Get after Close = %v", err)
	}
	if err := m.Close(doc.ID); !errors.Is(err, errors.ErrCodeDocumentNotFound) {
		t.Errorf("second Close = %v", err)
	}

	if _, err := m.Create(0, 0); !errors.Is(err, errors.ErrCodeInvalidGrid) {
		t.Errorf("Create(0, 0) = %v", err)
	}
}

func TestSaveAndLoad(t *testing.T) {
	ctx := context.Background()
	m := newManager(t)
	doc, _ := m.Create(50, 20)
	drawCell(t, doc)

	snap, err := m.Save(ctx, doc.ID, "landing page")
	if err != nil {
		t.Fatal(err)
	}
	if snap.XCells != 50 || snap.YCells != 20 || snap.Markup == "" {
		t.Errorf("snapshot = %+v", snap)
	}

	// Saving again updates the same snapshot.
	drawCell(t, doc)
	again, err := m.Save(ctx, doc.ID, "landing page v2")
	if err != nil {
		t.Fatal(err)
	}
	if again.ID != snap.ID || !again.CreatedAt.Equal(snap.CreatedAt) {
		t.Errorf("second save created a new snapshot: %s vs %s", again.ID, snap.ID)
	}
	snaps, _ := m.Snapshots(ctx)
	if len(snaps) != 1 || snaps[0].Name != "landing page v2" {
		t.Errorf("Snapshots() = %+v", snaps)
	}

	opened, err := m.Load(ctx, snap.ID)
	if err != nil {
		t.Fatal(err)
	}
	if opened.ID == doc.ID || opened.SnapshotID() != snap.ID {
		t.Errorf("Load() = %s (snapshot %s)", opened.ID, opened.SnapshotID())
	}
	opened.Do(func(d *designer.Designer) error {
		if d.Layer().Len() != 2 {
			t.Errorf("loaded cells = %d, want 2", d.Layer().Len())
		}
		return nil
	})

	if err := m.DeleteSnapshot(ctx, snap.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Load(ctx, snap.ID); !errors.Is(err, errors.ErrCodeSnapshotNotFound) {
		t.Errorf("Load after delete = %v", err)
	}
}

func TestSaveValidation(t *testing.T) {
	ctx := context.Background()
	m := newManager(t)
	doc, _ := m.Create(10, 10)

	tests := []struct {
		name string
		id   string
		snap string
		code errors.Code
	}{
		{"empty name", doc.ID, "", errors.ErrCodeInvalidName},
		{"unknown document", "nope", "x", errors.ErrCodeDocumentNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := m.Save(ctx, tt.id, tt.snap); !errors.Is(err, tt.code) {
				t.Errorf("Save() = %v, want %s", err, tt.code)
			}
		})
	}

	if _, err := m.Load(ctx, "../etc/passwd"); !errors.Is(err, errors.ErrCodeInvalidID) {
		t.Errorf("Load(bad id) = %v", err)
	}
}

func TestCleanup(t *testing.T) {
	m := newManager(t)
	stale, _ := m.Create(10, 10)
	fresh, _ := m.Create(10, 10)

	stale.mu.Lock()
	stale.lastUsed = time.Now().Add(-2 * time.Hour)
	stale.mu.Unlock()

	if n := m.Cleanup(time.Hour); n != 1 {
		t.Errorf("Cleanup() = %d, want 1", n)
	}
	if _, err := m.Get(stale.ID); err == nil {
		t.Error("stale document should be closed")
	}
	if _, err := m.Get(fresh.ID); err != nil {
		t.Errorf("fresh document closed: %v", err)
	}
}

func TestDoSerialises(t *testing.T) {
	m := newManager(t)
	doc, _ := m.Create(50, 20)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			x := float64(i%5) * 200
			doc.Do(func(d *designer.Designer) error {
				d.Pointer(pointer.Press, x, 0)
				d.Pointer(pointer.Move, x+20, 20)
				return d.Pointer(pointer.Release, x+20, 20)
			})
		}(i)
	}
	wg.Wait()

	doc.Do(func(d *designer.Designer) error {
		if d.Queue().Len() != 8 {
			t.Errorf("queue length = %d, want 8", d.Queue().Len())
		}
		return nil
	})
}

func TestImport(t *testing.T) {
	m := newManager(t)
	html := `<div class="grid-workspace" data-workspace="" data-x-cells="10" data-y-cells="4">
<div class="grid-layer" data-layer="">
<div class="grid-cell" data-cell="" data-left="10" data-top="25" data-width="20" data-height="50" data-z="1001">hi</div>
</div></div>`

	doc, err := m.Import(html)
	if err != nil {
		t.Fatal(err)
	}
	infos := m.List()
	if len(infos) != 1 || infos[0].XCells != 10 || infos[0].YCells != 4 || infos[0].Cells != 1 {
		t.Errorf("List() = %+v", infos)
	}
	if _, err := m.Save(context.Background(), doc.ID, "imported"); err != nil {
		t.Errorf("Save() = %v", err)
	}

	if _, err := m.Import(`<div data-workspace="" data-x-cells="0" data-y-cells="3"></div>`); !errors.Is(err, errors.ErrCodeInvalidGrid) {
		t.Errorf("Import(bad grid) = %v", err)
	}
}
