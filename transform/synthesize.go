package transform

import (
	"bytes"
	"errors"
	"math"
	"os"
	"strconv"

	"github.com/beevik/etree"
	"github.com/disintegration/imaging"
	"github.com/srwiley/oksvg"
	"go.uber.org/zap"

	// register decoders for cover dimensions
	_ "golang.org/x/image/webp"

	"lea/common"
	"lea/dialect"
	"lea/misc"
	"lea/normalize"
)

var errNoViewBox = errors.New("drawing has no viewBox")

const (
	CoverTitle = "Cover"
	NavTitle   = "ePub Navigation"
	TOCTitle   = "Table of Contents"
)

func (p *Pipeline) synthesize() {
	tool := dialect.Author{Name: misc.GetDisplayName()}
	if p.ebook.Cover != "" {
		p.ebook.AddText(dialect.NewSyntheticText(dialect.CoverFileName, CoverTitle, tool, p.coverDocument()))
	}
	p.ebook.AddText(dialect.NewSyntheticText(dialect.NavFileName, NavTitle, tool, p.navDocument()))
}

// coverSize returns cover image dimensions, falling back to configured ones
// when image could not be decoded.
func (p *Pipeline) coverSize() (int, int) {
	w, h := p.run.Document.Cover.Width, p.run.Document.Cover.Height

	path, ok := p.run.Locate(p.ebook, p.run.ImagePath(p.run.Store.Subfolder(common.SubfolderTagImages), p.ebook.Cover))
	if !ok {
		return w, h
	}
	if normalize.ImageMediaType(p.ebook.Cover) == "image/svg+xml" {
		sw, sh, err := svgSize(path)
		if err != nil {
			p.log.Warn("Unable to read cover drawing size, using default dimensions", zap.String("cover", path), zap.Error(err))
			return w, h
		}
		return sw, sh
	}
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		p.log.Warn("Unable to decode cover image, using default dimensions", zap.String("cover", path), zap.Error(err))
		return w, h
	}
	b := img.Bounds()
	return b.Dx(), b.Dy()
}

// svgSize returns drawing dimensions from its viewBox.
func svgSize(path string) (int, int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, 0, err
	}
	icon, err := oksvg.ReadIconStream(bytes.NewReader(data))
	if err != nil {
		return 0, 0, err
	}
	w, h := int(math.Ceil(icon.ViewBox.W)), int(math.Ceil(icon.ViewBox.H))
	if w <= 0 || h <= 0 {
		return 0, 0, errNoViewBox
	}
	return w, h, nil
}

func (p *Pipeline) coverDocument() *etree.Document {
	w, h := p.coverSize()

	doc := dialect.NewFragments()
	div := doc.Root().CreateElement("div")
	div.CreateAttr("class", "lea-cover")

	svg := div.CreateElement("svg")
	svg.CreateAttr("xmlns", "http://www.w3.org/2000/svg")
	svg.CreateAttr("xmlns:xlink", "http://www.w3.org/1999/xlink")
	svg.CreateAttr("version", "1.1")
	svg.CreateAttr("width", "100%")
	svg.CreateAttr("height", "100%")
	svg.CreateAttr("viewBox", "0 0 "+strconv.Itoa(w)+" "+strconv.Itoa(h))
	svg.CreateAttr("preserveAspectRatio", "xMidYMid meet")

	img := svg.CreateElement("image")
	img.CreateAttr("width", strconv.Itoa(w))
	img.CreateAttr("height", strconv.Itoa(h))
	img.CreateAttr("xlink:href", "../Images/"+normalize.ImageFileName(p.ebook.Cover))
	return doc
}

func (p *Pipeline) navDocument() *etree.Document {
	doc := dialect.NewFragments()
	nav := doc.Root().CreateElement("nav")
	nav.CreateAttr("epub:type", "toc")
	nav.CreateAttr("id", "toc")

	h1 := nav.CreateElement("h1")
	tgt := leaElement("target")
	tgt.SetText(TOCTitle)
	h1.AddChild(tgt)
	h1.CreateText(TOCTitle)

	ol := nav.CreateElement("ol")
	item := func(href, title string) {
		a := ol.CreateElement("li").CreateElement("a")
		a.CreateAttr("href", href)
		a.SetText(title)
	}
	if p.ebook.Cover != "" {
		item(dialect.CoverFileName, CoverTitle)
	}
	for _, t := range p.ebook.Texts {
		if t.Derived() && !t.Synthetic {
			item(t.PackageFileName(), t.Title)
		}
	}
	item(dialect.NavFileName, TOCTitle)
	return doc
}
