package epub

import (
	"archive/zip"
	"bytes"
	"html"
	"io"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/beevik/etree"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"

	"lea/common"
	"lea/dialect"
	"lea/ident"
	"lea/misc"
	"lea/normalize"
)

func writeDataToZip(zw *zip.Writer, name string, data []byte, modified time.Time) error {
	w, err := zw.CreateHeader(&zip.FileHeader{
		Name:     name,
		Method:   zip.Deflate,
		Modified: modified,
	})
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

func writeXMLToZip(zw *zip.Writer, name string, doc *etree.Document, modified time.Time) error {
	var buf bytes.Buffer
	if _, err := doc.WriteTo(&buf); err != nil {
		return err
	}
	return writeDataToZip(zw, name, buf.Bytes(), modified)
}

func writeMimetype(zw *zip.Writer, modified time.Time) error {
	w, err := zw.CreateHeader(&zip.FileHeader{
		Name:     "mimetype",
		Method:   zip.Store,
		Modified: modified,
	})
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, mimetypeContent)
	return err
}

func writeContainer(zw *zip.Writer, modified time.Time) error {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	container := doc.CreateElement("container")
	container.CreateAttr("version", "1.0")
	container.CreateAttr("xmlns", "urn:oasis:names:tc:opendocument:xmlns:container")

	rootfiles := container.CreateElement("rootfiles")
	rootfile := rootfiles.CreateElement("rootfile")
	rootfile.CreateAttr("full-path", path.Join(oebpsDir, opfName))
	rootfile.CreateAttr("media-type", "application/oebps-package+xml")

	doc.Indent(2)
	return writeXMLToZip(zw, containerName, doc, modified)
}

// plainText flattens rich fragment for metadata fields.
func plainText(inner string) string {
	return strings.TrimSpace(html.UnescapeString(bluemonday.StrictPolicy().Sanitize(inner)))
}

func (b *Book) writeOPF(zw *zip.Writer, modified time.Time) error {
	doc := b.buildOPF()
	doc.Indent(2)
	return writeXMLToZip(zw, path.Join(oebpsDir, opfName), doc, modified)
}

func (b *Book) buildOPF() *etree.Document {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	pkg := doc.CreateElement("package")
	pkg.CreateAttr("xmlns", "http://www.idpf.org/2007/opf")
	pkg.CreateAttr("version", "3.0")
	pkg.CreateAttr("unique-identifier", "isbn")

	b.buildMetadata(pkg.CreateElement("metadata"))
	b.buildManifest(pkg.CreateElement("manifest"))
	b.buildSpine(pkg.CreateElement("spine"))
	return doc
}

func meta(parent *etree.Element, property, value string) *etree.Element {
	m := parent.CreateElement("meta")
	m.CreateAttr("property", property)
	m.SetText(value)
	return m
}

func refine(parent *etree.Element, id, property, value string) *etree.Element {
	m := parent.CreateElement("meta")
	m.CreateAttr("refines", "#"+id)
	m.CreateAttr("property", property)
	m.SetText(value)
	return m
}

func (b *Book) buildMetadata(md *etree.Element) {
	e := b.Ebook
	md.CreateAttr("xmlns:dc", "http://purl.org/dc/elements/1.1/")
	md.CreateAttr("xmlns:opf", "http://www.idpf.org/2007/opf")

	md.CreateElement("dc:format").SetText(mimetypeContent)
	md.CreateElement("dc:type").SetText("Text")
	meta(md, "dcterms:created", e.Date.Created)
	meta(md, "dcterms:modified", e.Date.Modified)
	meta(md, "dcterms:issued", e.Date.Issued)
	md.CreateElement("dc:date").SetText(e.Date.Issued)
	md.CreateElement("dc:title").SetText(e.Title)
	if e.Description != "" {
		md.CreateElement("dc:description").SetText(plainText(e.Description))
	}

	var collectionID string
	if e.Collection.Title != "" {
		collectionID = "lea-col-" + normalize.Identifier(e.Collection.Title)
		meta(md, "dcterms:isPartOf", "urn:issn:"+e.Collection.ISSN)
		meta(md, "belongs-to-collection", e.Collection.Title).CreateAttr("id", collectionID)
		refine(md, collectionID, "collection-type", "series")
		refine(md, collectionID, "group-position", e.Collection.Position)
	}

	isbn := md.CreateElement("dc:identifier")
	isbn.CreateAttr("id", "isbn")
	isbn.SetText(e.ISBN.String())
	refine(md, "isbn", "identifier-type", "ISBN")
	if collectionID != "" {
		issn := md.CreateElement("dc:identifier")
		issn.CreateAttr("id", "issn")
		issn.SetText("urn:issn:" + e.Collection.ISSN)
		refine(md, "issn", "identifier-type", "ISSN")
	}
	// stable across builds of the same edition
	id := md.CreateElement("dc:identifier")
	id.CreateAttr("id", "uuid")
	id.SetText("urn:uuid:" + uuid.NewSHA1(uuid.NameSpaceURL, []byte("isbn:"+e.ISBN.String()+"/"+e.Title)).String())

	md.CreateElement("dc:publisher").SetText(e.Publisher.Imprint)
	meta(md, "dcterms:contact", e.Publisher.Contact)
	meta(md, "dcterms:identifier", e.Publisher.Imprint).CreateAttr("id", "imprint")
	if rights := plainText(e.Rights); rights != "" {
		md.CreateElement("dc:rights").SetText(rights)
	}
	md.CreateElement("dc:language").SetText(e.PackageLanguage())

	var creators []string
	for _, a := range e.Authors {
		entry, ok := b.IDs.Lookup(common.EntityKindAuthor, a.Name)
		if !ok {
			continue
		}
		creator := md.CreateElement("dc:creator")
		creator.CreateAttr("id", entry.ID)
		creator.SetText(a.Name)
		if a.FileAs != "" {
			refine(md, entry.ID, "file-as", a.FileAs)
		}
		creators = append(creators, entry.ID)
	}
	for _, id := range creators {
		refine(md, id, "role", "aut").CreateAttr("scheme", "marc:relators")
	}
	for i, id := range creators {
		refine(md, id, "display-seq", strconv.Itoa(i+1))
	}

	for _, c := range e.Contributors {
		entry, ok := b.IDs.Lookup(common.EntityKindContributor, c.Name)
		if !ok {
			continue
		}
		contributor := md.CreateElement("dc:contributor")
		contributor.CreateAttr("id", entry.ID)
		contributor.SetText(c.Name)
		for _, role := range c.Roles {
			refine(md, entry.ID, "role", role).CreateAttr("scheme", "marc:relators")
		}
	}

	tool := misc.GetDisplayName()
	for _, pt := range b.packagedTexts() {
		if pt.text.Synthetic {
			continue
		}
		for _, a := range pt.text.Authors {
			if a.Name != tool {
				refine(md, pt.entry.ID, "dcterms:creator", a.Name)
			}
		}
	}

	for _, s := range e.Subjects {
		md.CreateElement("dc:subject").SetText(s)
	}
	if e.Cover != "" {
		if entry, ok := b.IDs.Lookup(common.EntityKindImage, e.Cover); ok {
			m := md.CreateElement("meta")
			m.CreateAttr("name", "cover")
			m.CreateAttr("content", entry.ID)
		}
	}
	gen := md.CreateElement("meta")
	gen.CreateAttr("name", "generator")
	gen.CreateAttr("content", tool)
}

func item(manifest *etree.Element, id, href, mediaType, properties string) {
	it := manifest.CreateElement("item")
	it.CreateAttr("id", id)
	it.CreateAttr("href", href)
	it.CreateAttr("media-type", mediaType)
	if properties != "" {
		it.CreateAttr("properties", properties)
	}
}

// packagedText is a text together with its identifier table entry.
type packagedText struct {
	text  *dialect.Text
	entry ident.Entry
}

// packagedTexts returns texts in spine order, each package document once. A
// text listed twice is packaged once, a text which lost its name to another
// one is left out (collision is reported by identifier compiler).
func (b *Book) packagedTexts() []packagedText {
	var list []packagedText
	seen := make(map[string]bool)
	for _, t := range b.Ebook.Texts {
		if !t.Derived() {
			continue
		}
		entry, ok := b.IDs.Lookup(common.EntityKindText, ident.TextKey(t))
		if !ok || entry.Source != t.FileName || seen[entry.ID] {
			continue
		}
		seen[entry.ID] = true
		list = append(list, packagedText{text: t, entry: entry})
	}
	return list
}

func (b *Book) buildManifest(manifest *etree.Element) {
	for _, pt := range b.packagedTexts() {
		t, entry := pt.text, pt.entry
		var props string
		switch {
		case t.Synthetic && t.FileName == dialect.CoverFileName:
			props = "svg"
		case t.Synthetic && t.FileName == dialect.NavFileName:
			props = "nav"
		}
		item(manifest, entry.ID, path.Join(textDir, entry.FileName), "application/xhtml+xml", props)
	}
	for _, e := range b.IDs.Entries(common.EntityKindFont) {
		item(manifest, e.ID, path.Join(fontsDir, e.FileName), normalize.FontMediaType(e.FileName), "")
	}
	for _, e := range b.IDs.Entries(common.EntityKindStylesheet) {
		item(manifest, e.ID, path.Join(stylesDir, e.FileName), "text/css", "")
	}
	for _, e := range b.IDs.Entries(common.EntityKindImage) {
		var props string
		if b.Ebook.Cover != "" && e.Key == b.Ebook.Cover {
			props = "cover-image"
		}
		item(manifest, e.ID, path.Join(imagesDir, e.FileName), b.imageMediaType(e), props)
	}
}

// buildSpine puts cover first and navigation last regardless of the order
// texts were added in.
func (b *Book) buildSpine(spine *etree.Element) {
	var cover, nav string
	var body []string
	for _, pt := range b.packagedTexts() {
		t, entry := pt.text, pt.entry
		switch {
		case t.Synthetic && t.FileName == dialect.CoverFileName:
			cover = entry.ID
		case t.Synthetic && t.FileName == dialect.NavFileName:
			nav = entry.ID
		default:
			body = append(body, entry.ID)
		}
	}

	order := body
	if cover != "" {
		order = append([]string{cover}, order...)
	}
	if nav != "" {
		order = append(order, nav)
	}
	for _, id := range order {
		spine.CreateElement("itemref").CreateAttr("idref", id)
	}
}
