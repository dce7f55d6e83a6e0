// Package archive walks zip containers produced by the compiler.
package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"path"
	"strings"
)

// WalkFunc is called for every regular file in archive which name starts
// with requested prefix. Index is the position of the entry in the central
// directory. Returning an error stops the walk.
type WalkFunc func(index int, file *zip.File) error

// Walk visits archive entries in central directory order. Entries with
// absolute paths or ".." components make the whole archive invalid.
func Walk(archive, prefix string, walkFn WalkFunc) error {
	r, err := zip.OpenReader(archive)
	if err != nil {
		return fmt.Errorf("unable to open archive %s: %w", archive, err)
	}
	defer r.Close()

	for i, f := range r.File {
		if !isSafePath(f.Name) {
			return fmt.Errorf("archive entry %q: unsafe path", f.Name)
		}
		if f.FileInfo().IsDir() || !strings.HasPrefix(f.Name, prefix) {
			continue
		}
		if err := walkFn(i, f); err != nil {
			return err
		}
	}
	return nil
}

// ReadFile returns uncompressed content of archive entry.
func ReadFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("unable to open archive entry %s: %w", f.Name, err)
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func isSafePath(name string) bool {
	if path.IsAbs(name) || strings.HasPrefix(name, `\`) {
		return false
	}
	for part := range strings.SplitSeq(strings.ReplaceAll(name, `\`, "/"), "/") {
		if part == ".." {
			return false
		}
	}
	return true
}
