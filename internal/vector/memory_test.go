package vector

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestMemoryIndex_AddSearch(t *testing.T) {
	idx, err := NewMemoryIndex(3)
	if err != nil {
		t.Fatal(err)
	}
	defer idx.Close()
	ctx := context.Background()

	vecs := [][]float32{{1, 0, 0}, {0.9, 0.1, 0}, {0, 1, 0}}
	if err := idx.Add(ctx, []string{"a", "b", "c"}, vecs); err != nil {
		t.Fatal(err)
	}
	if idx.Size() != 3 {
		t.Errorf("Size=%d", idx.Size())
	}

	results, err := idx.Search(ctx, []float32{1, 0, 0}, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].ID != "a" || results[1].ID != "b" {
		t.Errorf("unexpected order: %s, %s", results[0].ID, results[1].ID)
	}
}

func TestMemoryIndex_SearchEmptyAndLargeK(t *testing.T) {
	idx, _ := NewMemoryIndex(2)
	ctx := context.Background()
	if res, err := idx.Search(ctx, []float32{1, 0}, 5); err != nil || len(res) != 0 {
		t.Fatalf("empty index: %v %v", res, err)
	}
	_ = idx.Add(ctx, []string{"x"}, [][]float32{{1, 0}})
	res, err := idx.Search(ctx, []float32{1, 0}, 10)
	if err != nil || len(res) != 1 {
		t.Fatalf("k larger than size: %v %v", res, err)
	}
	if _, err := idx.Search(ctx, []float32{1}, 1); err == nil {
		t.Error("expected dimension mismatch error")
	}
}

func TestMemoryIndex_AddRejectsWholeBatch(t *testing.T) {
	idx, _ := NewMemoryIndex(2)
	err := idx.Add(context.Background(), []string{"ok", "bad"}, [][]float32{{1, 0}, {1}})
	if err == nil {
		t.Fatal("expected dimension error")
	}
	if idx.Size() != 0 {
		t.Errorf("partial batch was added: size %d", idx.Size())
	}
}

func TestMemoryIndex_Remove(t *testing.T) {
	idx, _ := NewMemoryIndex(2)
	ctx := context.Background()
	_ = idx.Add(ctx, []string{"x", "y", "z"}, [][]float32{{1, 0}, {0, 1}, {1, 1}})
	if err := idx.Remove(ctx, []string{"x", "z"}); err != nil {
		t.Fatal(err)
	}
	if idx.Size() != 1 {
		t.Errorf("expected size 1, got %d", idx.Size())
	}
	res, _ := idx.Search(ctx, []float32{1, 0}, 3)
	if len(res) != 1 || res[0].ID != "y" {
		t.Errorf("unexpected results after remove: %+v", res)
	}
}

func TestMemoryIndex_SaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "vectors.bin")
	ctx := context.Background()

	idx, _ := NewMemoryIndex(3)
	_ = idx.Add(ctx, []string{"chunk-1", "chunk-2"}, [][]float32{{1, 0, 0}, {0, 0.5, 0.5}})
	if err := idx.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, _ := NewMemoryIndex(3)
	if err := loaded.Load(path); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Size() != 2 {
		t.Fatalf("loaded size %d", loaded.Size())
	}
	res, _ := loaded.Search(ctx, []float32{0, 0.5, 0.5}, 1)
	if res[0].ID != "chunk-2" {
		t.Errorf("top result %s", res[0].ID)
	}

	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("temporary files left behind: %d entries", len(entries))
	}
}

func TestMemoryIndex_SaveOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vectors.bin")
	ctx := context.Background()
	idx, _ := NewMemoryIndex(2)
	_ = idx.Add(ctx, []string{"a"}, [][]float32{{1, 0}})
	_ = idx.Save(path)
	_ = idx.Add(ctx, []string{"b"}, [][]float32{{0, 1}})
	if err := idx.Save(path); err != nil {
		t.Fatal(err)
	}
	loaded, _ := NewMemoryIndex(2)
	if err := loaded.Load(path); err != nil {
		t.Fatal(err)
	}
	if loaded.Size() != 2 {
		t.Errorf("size %d, want 2", loaded.Size())
	}
}

func TestMemoryIndex_LoadMissing(t *testing.T) {
	idx, _ := NewMemoryIndex(2)
	err := idx.Load(filepath.Join(t.TempDir(), "absent.bin"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected ErrNotExist, got %v", err)
	}
}

func TestMemoryIndex_LoadCorrupt(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	good := filepath.Join(dir, "good.bin")
	idx, _ := NewMemoryIndex(2)
	_ = idx.Add(ctx, []string{"a", "b"}, [][]float32{{1, 0}, {0, 1}})
	if err := idx.Save(good); err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(good)

	cases := map[string][]byte{
		"empty":     {},
		"truncated": data[:len(data)-3],
		"trailing":  append(append([]byte{}, data...), 0xFF),
		"garbage":   []byte("definitely not an index"),
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name+".bin")
			if err := os.WriteFile(path, content, 0600); err != nil {
				t.Fatal(err)
			}
			target, _ := NewMemoryIndex(2)
			_ = target.Add(ctx, []string{"keep"}, [][]float32{{1, 1}})
			if err := target.Load(path); !errors.Is(err, ErrCorrupt) {
				t.Fatalf("expected ErrCorrupt, got %v", err)
			}
			if target.Size() != 1 {
				t.Errorf("failed load modified the index: size %d", target.Size())
			}
		})
	}
}

func TestMemoryIndex_LoadDimensionMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vectors.bin")
	idx, _ := NewMemoryIndex(2)
	_ = idx.Save(path)
	other, _ := NewMemoryIndex(3)
	if err := other.Load(path); !errors.Is(err, ErrCorrupt) {
		t.Fatalf("expected ErrCorrupt, got %v", err)
	}
}

func TestNewMemoryIndex_invalid(t *testing.T) {
	if _, err := NewMemoryIndex(0); err == nil {
		t.Error("expected error for zero dimensions")
	}
}
