package node

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

const maxConfigFileBytes = 1 << 20

// MaxRoundFileBytes caps an imported round document.
const MaxRoundFileBytes = 64 << 20

// ReadFileByPath reads a regular file through an os.DirFS rooted at its
// directory, refusing anything larger than limit bytes.
func ReadFileByPath(path string, limit int64) ([]byte, error) {
	dir := filepath.Dir(path)
	name := filepath.Base(path)
	if name == "" || name == "." || name == ".." || name == string(filepath.Separator) {
		return nil, fmt.Errorf("invalid file name: %q", name)
	}
	fsys := os.DirFS(dir)
	info, err := fs.Stat(fsys, name)
	if err != nil {
		return nil, err
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%s: not a regular file", path)
	}
	if info.Size() > limit {
		return nil, fmt.Errorf("%s: %d bytes exceeds limit %d", path, info.Size(), limit)
	}
	return fs.ReadFile(fsys, name)
}
