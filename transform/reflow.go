package transform

import (
	"path"
	"slices"

	"github.com/beevik/etree"

	"lea/dialect"
	"lea/misc"
)

const (
	nsXHTML = "http://www.w3.org/1999/xhtml"
	nsOPS   = "http://www.idpf.org/2007/ops"
)

// Reflow wraps transformed text into XHTML document ready to be packaged.
// Text tree is not modified, all remaining lea elements are dropped from the
// result together with their content.
func Reflow(t *dialect.Text, ebook *dialect.Ebook) *etree.Document {
	lang := ebook.PackageLanguage()

	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	doc.CreateDirective("DOCTYPE html")

	html := doc.CreateElement("html")
	html.CreateAttr("xmlns", nsXHTML)
	html.CreateAttr("xmlns:epub", nsOPS)
	html.CreateAttr("lang", lang)
	html.CreateAttr("xml:lang", lang)

	head := html.CreateElement("head")
	meta := head.CreateElement("meta")
	meta.CreateAttr("name", "generator")
	meta.CreateAttr("content", misc.GetDisplayName())
	head.CreateElement("title").SetText(t.Title)
	for _, name := range ebook.Stylesheets {
		link := head.CreateElement("link")
		link.CreateAttr("rel", "stylesheet")
		link.CreateAttr("type", "text/css")
		link.CreateAttr("href", "../Styles/"+path.Base(name))
	}

	body := html.CreateElement("body")
	body.CreateAttr("epub:type", "bodymatter")
	if root := t.Root(); root != nil {
		for _, c := range slices.Clone(root.Copy().Child) {
			body.AddChild(c)
		}
	}
	stripLea(body)
	return doc
}

func stripLea(el *etree.Element) {
	for i := len(el.Child) - 1; i >= 0; i-- {
		child, ok := el.Child[i].(*etree.Element)
		if !ok {
			continue
		}
		if dialect.IsLea(child) {
			el.RemoveChildAt(i)
			continue
		}
		stripLea(child)
	}
}
