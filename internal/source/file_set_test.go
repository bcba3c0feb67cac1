package source

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFileSet_AddAndGet(t *testing.T) {
	fs := NewFileSet()
	id := fs.Add("a.ts", "hello\nworld\n")
	if id == 0 {
		t.Fatal("Add returned zero FileID")
	}
	f := fs.Get(id)
	if f == nil {
		t.Fatal("Get returned nil for a registered file")
	}
	if f.Path != "a.ts" {
		t.Errorf("Path = %q, want %q", f.Path, "a.ts")
	}

	// repeated Add of the same path returns the same id
	if again := fs.Add("a.ts", "different"); again != id {
		t.Errorf("repeated Add returned %d, want %d", again, id)
	}
	if fs.Len() != 1 {
		t.Errorf("Len = %d, want 1", fs.Len())
	}
}

func TestFileSet_GetUnknown(t *testing.T) {
	fs := NewFileSet()
	if f := fs.Get(0); f != nil {
		t.Error("Get(0) should return nil")
	}
	if f := fs.Get(42); f != nil {
		t.Error("Get of unknown id should return nil")
	}
}

func TestFileSet_LoadCachesByPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "m.ts")
	if err := os.WriteFile(path, []byte("const x = 1;\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	fs := NewFileSet()
	id1, err := fs.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	// content changes on disk must not be observed through the set
	if err := os.WriteFile(path, []byte("const x = 2;\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	id2, err := fs.Load(path)
	if err != nil {
		t.Fatalf("second Load failed: %v", err)
	}
	if id1 != id2 {
		t.Errorf("Load returned different ids for the same path: %d, %d", id1, id2)
	}
	if got := fs.Get(id1).Content; got != "const x = 1;\n" {
		t.Errorf("Content = %q, want the first read", got)
	}
}

func TestFileSet_LoadMissing(t *testing.T) {
	fs := NewFileSet()
	if _, err := fs.Load(filepath.Join(t.TempDir(), "nope.ts")); err == nil {
		t.Error("Load of a missing file should fail")
	}
}

func TestFile_LineCol(t *testing.T) {
	fs := NewFileSet()
	f := fs.Get(fs.Add("a.ts", "ab\ncde\n\nf"))

	tests := []struct {
		offset    uint32
		line, col uint32
	}{
		{0, 1, 1},
		{1, 1, 2},
		{2, 1, 3}, // the newline itself
		{3, 2, 1},
		{5, 2, 3},
		{7, 3, 1},
		{8, 4, 1},
		{100, 4, 2}, // clamped past EOF
	}
	for _, tt := range tests {
		line, col := f.LineCol(tt.offset)
		if line != tt.line || col != tt.col {
			t.Errorf("LineCol(%d) = %d:%d, want %d:%d", tt.offset, line, col, tt.line, tt.col)
		}
	}
}

func TestFile_OffsetRoundTrip(t *testing.T) {
	fs := NewFileSet()
	f := fs.Get(fs.Add("a.ts", "ab\ncde\n\nf"))

	for off := uint32(0); off <= uint32(len(f.Content)); off++ {
		line, col := f.LineCol(off)
		if back := f.Offset(line, col); back != off {
			t.Errorf("Offset(LineCol(%d)) = %d", off, back)
		}
	}
}

func TestFile_Line(t *testing.T) {
	fs := NewFileSet()
	f := fs.Get(fs.Add("a.ts", "ab\ncde\r\n\nf"))

	tests := []struct {
		line uint32
		want string
	}{
		{1, "ab"},
		{2, "cde"}, // CR stripped
		{3, ""},
		{4, "f"},
		{0, ""},
		{9, ""},
	}
	for _, tt := range tests {
		if got := f.Line(tt.line); got != tt.want {
			t.Errorf("Line(%d) = %q, want %q", tt.line, got, tt.want)
		}
	}
}
