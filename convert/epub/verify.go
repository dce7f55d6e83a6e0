package epub

import (
	"archive/zip"
	"errors"
	"fmt"
	"path"

	"lea/archive"
)

// Verify checks structure of produced package: mimetype goes first and is
// stored uncompressed, container and package document are present.
func Verify(name string) error {
	var container, opf bool
	err := archive.Walk(name, "", func(index int, f *zip.File) error {
		switch f.Name {
		case "mimetype":
			if index != 0 {
				return errors.New("mimetype is not the first entry")
			}
			if f.Method != zip.Store {
				return errors.New("mimetype is compressed")
			}
			data, err := archive.ReadFile(f)
			if err != nil {
				return err
			}
			if string(data) != mimetypeContent {
				return fmt.Errorf("unexpected mimetype %q", data)
			}
		case containerName:
			container = true
		case path.Join(oebpsDir, opfName):
			opf = true
		default:
			if index == 0 {
				return fmt.Errorf("first entry is %s, not mimetype", f.Name)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("package %s is broken: %w", name, err)
	}
	if !container || !opf {
		return fmt.Errorf("package %s is broken: container present %t, package document present %t", name, container, opf)
	}
	return nil
}
