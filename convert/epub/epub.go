// Package epub assembles compiled ebook into EPUB 3 package.
package epub

import (
	"archive/zip"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	fixzip "github.com/hidez8891/zip"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"lea/dialect"
	"lea/ident"
	"lea/state"
)

const (
	mimetypeContent = "application/epub+zip"
	oebpsDir        = "OEBPS"
	textDir         = "Text"
	imagesDir       = "Images"
	fontsDir        = "Fonts"
	stylesDir       = "Styles"
	opfName         = "content.opf"
	containerName   = "META-INF/container.xml"
	LogName         = "META-INF/lea-log.txt"
)

// Book is everything assembler needs. Ebook must be fully transformed and
// identifier table compiled without collisions.
type Book struct {
	Run   *state.Run
	Ebook *dialect.Ebook
	IDs   *ident.Table
	// sanitized stylesheets by declared name
	Styles map[string][]byte
}

// Generate writes package to outputPath. Archive is built in temporary file
// next to the destination and only moved in place when complete, so failed
// compilation never leaves partial package behind.
func Generate(ctx context.Context, b *Book, outputPath string, overwrite bool, log *zap.Logger) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	if _, err := os.Stat(outputPath); err == nil {
		if !overwrite {
			return fmt.Errorf("output file already exists: %s", outputPath)
		}
		log.Warn("Overwriting existing file", zap.String("file", outputPath))
	} else if !os.IsNotExist(err) {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("unable to create output directory: %w", err)
	}

	log.Info("Generating EPUB", zap.String("ebook", b.Ebook.FileName), zap.String("output", outputPath))
	start := time.Now()

	f, err := os.CreateTemp(filepath.Dir(outputPath), ".lea-*.epub")
	if err != nil {
		return fmt.Errorf("unable to create output file: %w", err)
	}
	tmpName := f.Name()
	defer func() {
		// clean temporary file
		if rerr := os.Remove(tmpName); rerr != nil && !os.IsNotExist(rerr) {
			err = multierr.Append(err, rerr)
		}
	}()

	if err := b.write(f, log); err != nil {
		return multierr.Append(err, f.Close())
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("unable to finalize output file: %w", err)
	}

	if b.Run.Document.FixZip {
		err = copyZipWithoutDataDescriptors(tmpName, outputPath)
	} else {
		err = os.Rename(tmpName, outputPath)
	}
	if err != nil {
		return err
	}
	log.Debug("EPUB generated", zap.String("output", outputPath), zap.Duration("elapsed", time.Since(start)))
	return nil
}

func (b *Book) write(f *os.File, log *zap.Logger) error {
	zw := zip.NewWriter(f)
	now := b.Run.Now()

	if err := writeMimetype(zw, now); err != nil {
		return fmt.Errorf("unable to write mimetype: %w", err)
	}
	if err := writeContainer(zw, now); err != nil {
		return fmt.Errorf("unable to write container: %w", err)
	}
	if err := b.writeOPF(zw, now); err != nil {
		return fmt.Errorf("unable to write OPF: %w", err)
	}
	if err := b.writeTexts(zw, now); err != nil {
		return err
	}
	if err := b.writeFonts(zw, now, log); err != nil {
		return err
	}
	if err := b.writeStyles(zw, now); err != nil {
		return err
	}
	if err := b.writeImages(zw, now, log); err != nil {
		return err
	}
	// make sure buffers are flushed before continuing
	if err := zw.Close(); err != nil {
		return fmt.Errorf("unable to close output archive: %w", err)
	}
	return nil
}

func copyZipWithoutDataDescriptors(from, to string) (err error) {
	out, err := os.Create(to)
	if err != nil {
		return fmt.Errorf("unable to create target file (%s): %w", to, err)
	}
	defer func() {
		err = multierr.Append(err, out.Close())
	}()

	r, err := fixzip.OpenReader(from)
	if err != nil {
		return fmt.Errorf("unable to read archive file (%s): %w", from, err)
	}
	defer r.Close()

	w := fixzip.NewWriter(out)
	for _, file := range r.File {
		// unset data descriptor flag.
		file.Flags &= ^fixzip.FlagDataDescriptor

		// copy zip entry
		if err := w.CopyFile(file); err != nil {
			return fmt.Errorf("unable to write target file (%s): %w", to, err)
		}
	}
	return w.Close()
}
