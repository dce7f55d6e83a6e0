package epub

import (
	"archive/zip"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/multierr"
)

// AppendLog adds production log to already produced package. Archive is
// rewritten entry by entry into temporary file which then replaces the
// original.
func AppendLog(archive, content string, modified time.Time, fixZip bool) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(archive), ".lea-log-*.epub")
	if err != nil {
		return fmt.Errorf("unable to create temporary archive: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if rerr := os.Remove(tmpName); rerr != nil && !os.IsNotExist(rerr) {
			err = multierr.Append(err, rerr)
		}
	}()

	if err := appendEntry(tmp, archive, content, modified); err != nil {
		return multierr.Append(err, tmp.Close())
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("unable to finalize temporary archive: %w", err)
	}

	if fixZip {
		return copyZipWithoutDataDescriptors(tmpName, archive)
	}
	return os.Rename(tmpName, archive)
}

func appendEntry(out *os.File, archive, content string, modified time.Time) error {
	r, err := zip.OpenReader(archive)
	if err != nil {
		return fmt.Errorf("unable to read archive file (%s): %w", archive, err)
	}
	defer r.Close()

	w := zip.NewWriter(out)
	for _, file := range r.File {
		if file.Name == LogName {
			// replaced below
			continue
		}
		if err := w.Copy(file); err != nil {
			return fmt.Errorf("unable to copy %s: %w", file.Name, err)
		}
	}

	lw, err := w.CreateHeader(&zip.FileHeader{
		Name:     LogName,
		Method:   zip.Deflate,
		Modified: modified,
	})
	if err != nil {
		return fmt.Errorf("unable to add production log: %w", err)
	}
	if _, err := lw.Write([]byte(content)); err != nil {
		return fmt.Errorf("unable to write production log: %w", err)
	}
	return w.Close()
}
