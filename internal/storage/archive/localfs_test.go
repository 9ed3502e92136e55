package archive

import (
	"context"
	"errors"
	"testing"

	"github.com/newthinker/albionflip/internal/core"
)

func TestLocalFS_ImplementsStorage(t *testing.T) {
	var _ Storage = (*LocalFS)(nil)
}

func TestLocalFS_WriteRead(t *testing.T) {
	dir := t.TempDir()
	fs, err := NewLocalFS(dir)
	if err != nil {
		t.Fatalf("NewLocalFS: %v", err)
	}

	ctx := context.Background()
	data := []byte(`[{"UniqueName":"T4_BAG"}]`)

	if err := fs.Write(ctx, "catalog/items.json", data); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, err := fs.Read(ctx, "catalog/items.json")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}

	if string(got) != string(data) {
		t.Errorf("got %q, want %q", got, data)
	}
}

func TestLocalFS_WriteReplaces(t *testing.T) {
	fs, _ := NewLocalFS(t.TempDir())
	ctx := context.Background()

	fs.Write(ctx, "items.json", []byte("old"))
	fs.Write(ctx, "items.json", []byte("new"))

	got, _ := fs.Read(ctx, "items.json")
	if string(got) != "new" {
		t.Errorf("got %q, want new", got)
	}
}

func TestLocalFS_ReadMissing(t *testing.T) {
	fs, _ := NewLocalFS(t.TempDir())

	_, err := fs.Read(context.Background(), "missing.json")
	if !errors.Is(err, core.ErrArchiveMiss) {
		t.Errorf("expected ErrArchiveMiss, got %v", err)
	}
}

func TestLocalFS_Exists(t *testing.T) {
	dir := t.TempDir()
	fs, _ := NewLocalFS(dir)
	ctx := context.Background()

	exists, _ := fs.Exists(ctx, "nonexistent.json")
	if exists {
		t.Error("expected false for nonexistent file")
	}

	fs.Write(ctx, "exists.json", []byte("data"))
	exists, _ = fs.Exists(ctx, "exists.json")
	if !exists {
		t.Error("expected true for existing file")
	}
}

func TestLocalFS_List(t *testing.T) {
	dir := t.TempDir()
	fs, _ := NewLocalFS(dir)
	ctx := context.Background()

	fs.Write(ctx, "catalog/europe/a.json", []byte("a"))
	fs.Write(ctx, "catalog/europe/b.json", []byte("b"))
	fs.Write(ctx, "catalog/asia/c.json", []byte("c"))

	paths, err := fs.List(ctx, "catalog/europe")
	if err != nil {
		t.Fatalf("List: %v", err)
	}

	if len(paths) != 2 {
		t.Errorf("expected 2 paths, got %d", len(paths))
	}
	for _, p := range paths {
		if p != "catalog/europe/a.json" && p != "catalog/europe/b.json" {
			t.Errorf("unexpected path %q", p)
		}
	}
}

func TestLocalFS_ListMissingPrefix(t *testing.T) {
	fs, _ := NewLocalFS(t.TempDir())

	paths, err := fs.List(context.Background(), "nothing")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(paths) != 0 {
		t.Errorf("expected no paths, got %v", paths)
	}
}

func TestLocalFS_Delete(t *testing.T) {
	dir := t.TempDir()
	fs, _ := NewLocalFS(dir)
	ctx := context.Background()

	fs.Write(ctx, "delete.json", []byte("data"))
	if err := fs.Delete(ctx, "delete.json"); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	exists, _ := fs.Exists(ctx, "delete.json")
	if exists {
		t.Error("file should be deleted")
	}

	if err := fs.Delete(ctx, "delete.json"); !errors.Is(err, core.ErrArchiveMiss) {
		t.Errorf("expected ErrArchiveMiss deleting twice, got %v", err)
	}
}
