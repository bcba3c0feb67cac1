package source

import (
	"fmt"
	"os"
	"sort"
)

// File holds the loaded content of one source file together with a
// precomputed line index for offset <-> line:column mapping.
type File struct {
	ID      FileID
	Path    string
	Content string

	// byte offsets of line starts; lines[0] == 0
	lines []uint32
}

// FileSet loads and owns source files for one loader instance.
// Files are never evicted; a path is read at most once.
type FileSet struct {
	files  []*File
	byPath map[string]FileID
}

func NewFileSet() *FileSet {
	return &FileSet{byPath: make(map[string]FileID)}
}

// Load reads path from disk, registering it in the set. Repeated loads of
// the same path return the already registered file.
func (fs *FileSet) Load(path string) (FileID, error) {
	if id, ok := fs.byPath[path]; ok {
		return id, nil
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return fs.Add(path, string(content)), nil
}

// Add registers content under path without touching the filesystem.
func (fs *FileSet) Add(path, content string) FileID {
	if id, ok := fs.byPath[path]; ok {
		return id
	}
	id := FileID(len(fs.files) + 1)
	f := &File{
		ID:      id,
		Path:    path,
		Content: content,
		lines:   lineStarts(content),
	}
	fs.files = append(fs.files, f)
	fs.byPath[path] = id
	return id
}

// Get returns the file for id, or nil when id is unknown.
func (fs *FileSet) Get(id FileID) *File {
	if id == 0 || int(id) > len(fs.files) {
		return nil
	}
	return fs.files[id-1]
}

// Lookup returns the registered file for path, if any.
func (fs *FileSet) Lookup(path string) (*File, bool) {
	id, ok := fs.byPath[path]
	if !ok {
		return nil, false
	}
	return fs.Get(id), true
}

func (fs *FileSet) Len() int {
	return len(fs.files)
}

func lineStarts(content string) []uint32 {
	starts := []uint32{0}
	for i := 0; i < len(content); i++ {
		if content[i] == '\n' {
			starts = append(starts, uint32(i+1))
		}
	}
	return starts
}

// LineCol converts a byte offset to a 1-based line and column pair.
// Offsets past the end of the file clamp to the last position.
func (f *File) LineCol(offset uint32) (line, col uint32) {
	if offset > uint32(len(f.Content)) {
		offset = uint32(len(f.Content))
	}
	idx := sort.Search(len(f.lines), func(i int) bool {
		return f.lines[i] > offset
	}) - 1
	return uint32(idx + 1), offset - f.lines[idx] + 1
}

// Offset converts a 1-based line and column pair back to a byte offset.
func (f *File) Offset(line, col uint32) uint32 {
	if line == 0 {
		line = 1
	}
	if line > uint32(len(f.lines)) {
		return uint32(len(f.Content))
	}
	off := f.lines[line-1]
	if col > 0 {
		off += col - 1
	}
	if off > uint32(len(f.Content)) {
		off = uint32(len(f.Content))
	}
	return off
}

// Line returns the text of a 1-based line without the trailing newline.
func (f *File) Line(line uint32) string {
	if line == 0 || line > uint32(len(f.lines)) {
		return ""
	}
	start := f.lines[line-1]
	end := uint32(len(f.Content))
	if line < uint32(len(f.lines)) {
		end = f.lines[line] - 1
	}
	if end > start && f.Content[end-1] == '\r' {
		end--
	}
	return f.Content[start:end]
}
