package epub

import (
	"archive/zip"
	"fmt"
	"os"
	"path"
	"time"

	"github.com/h2non/filetype"
	"go.uber.org/zap"

	"lea/common"
	"lea/ident"
	"lea/normalize"
	"lea/transform"
)

func (b *Book) writeTexts(zw *zip.Writer, modified time.Time) error {
	for _, pt := range b.packagedTexts() {
		doc := transform.Reflow(pt.text, b.Ebook)
		if err := writeXMLToZip(zw, path.Join(oebpsDir, textDir, pt.entry.FileName), doc, modified); err != nil {
			return fmt.Errorf("unable to write text %s: %w", pt.text.FileName, err)
		}
	}
	return nil
}

func (b *Book) writeFonts(zw *zip.Writer, modified time.Time, log *zap.Logger) error {
	for _, e := range b.IDs.Entries(common.EntityKindFont) {
		data, err := b.Run.ReadFile(b.Ebook, b.Run.FontPath(e.Key))
		if err != nil {
			return fmt.Errorf("unable to package font: %w", err)
		}
		if !filetype.IsFont(data) {
			log.Warn("Font file content is not recognized", zap.String("font", e.Key))
		}
		if err := writeDataToZip(zw, path.Join(oebpsDir, fontsDir, e.FileName), data, modified); err != nil {
			return fmt.Errorf("unable to write font %s: %w", e.Key, err)
		}
	}
	return nil
}

func (b *Book) writeStyles(zw *zip.Writer, modified time.Time) error {
	for _, e := range b.IDs.Entries(common.EntityKindStylesheet) {
		data, ok := b.Styles[e.Key]
		if !ok {
			return fmt.Errorf("stylesheet %s was not prepared", e.Key)
		}
		if err := writeDataToZip(zw, path.Join(oebpsDir, stylesDir, e.FileName), data, modified); err != nil {
			return fmt.Errorf("unable to write stylesheet %s: %w", e.Key, err)
		}
	}
	return nil
}

func (b *Book) writeImages(zw *zip.Writer, modified time.Time, log *zap.Logger) error {
	for _, e := range b.IDs.Entries(common.EntityKindImage) {
		data, err := b.Run.ReadFile(b.Ebook, b.imagePath(e.Key))
		if err != nil {
			return fmt.Errorf("unable to package image: %w", err)
		}
		if kind, _ := filetype.Match(data); kind == filetype.Unknown && path.Ext(e.FileName) != ".svg" {
			log.Warn("Image file content is not recognized", zap.String("image", e.Key))
		}
		if err := writeDataToZip(zw, path.Join(oebpsDir, imagesDir, e.FileName), data, modified); err != nil {
			return fmt.Errorf("unable to write image %s: %w", e.Key, err)
		}
	}
	return nil
}

// imagePath returns location of image by its declared name, image folder is
// the one recorded when image was harvested.
func (b *Book) imagePath(name string) string {
	folder := b.Run.Store.Subfolder(common.SubfolderTagImages)
	for _, img := range b.Ebook.Images {
		if img.FileName == name {
			folder = img.Folder
			break
		}
	}
	return b.Run.ImagePath(folder, name)
}

// imageMediaType prefers sniffed content type, so misnamed images are
// declared properly.
func (b *Book) imageMediaType(e ident.Entry) string {
	byName := normalize.ImageMediaType(e.FileName)

	f, err := os.Open(b.imagePath(e.Key))
	if err != nil {
		return byName
	}
	defer f.Close()

	head := make([]byte, 262)
	n, _ := f.Read(head)
	if kind, err := filetype.Image(head[:n]); err == nil && kind != filetype.Unknown {
		return kind.MIME.Value
	}
	return byName
}
