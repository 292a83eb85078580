package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/matzehuels/gridcraft/pkg/cache"
)

func TestClearCacheDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cache")
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	for _, k := range []string{"a", "b", "c"} {
		if err := fc.Set(ctx, k, []byte(k), 0); err != nil {
			t.Fatal(err)
		}
	}

	n, err := clearCacheDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Errorf("cleared %d entries, want 3", n)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("cache dir has %d entries after clear", len(entries))
	}

	if n, err := clearCacheDir(dir); err != nil || n != 0 {
		t.Errorf("second clear = %d, %v", n, err)
	}
}
