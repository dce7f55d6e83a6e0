package transform

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"go.uber.org/zap"

	"lea/common"
	"lea/css"
	"lea/dialect"
	"lea/diag"
	"lea/misc"
	"lea/normalize"
)

func (p *Pipeline) subfolders() {
	for _, sf := range p.ebook.Subfolders {
		if sf.Tag == "" {
			p.run.Store.SetSubfolder(common.SubfolderTagText, sf.Dir)
			p.run.Store.SetSubfolder(common.SubfolderTagImages, sf.Dir)
			continue
		}
		tag, err := common.ParseSubfolderTag(strings.ToLower(sf.Tag))
		if err != nil {
			p.run.Cry(p.ebook, diag.SubfolderTagUndefined, sf.Tag, p.run.EbookPath(p.ebook.FileName))
			continue
		}
		p.run.Store.SetSubfolder(tag, sf.Dir)
	}
	if p.ebook.DefaultCaption != "" {
		p.run.Store.DefaultCaption = p.ebook.DefaultCaption
	}

	// images declared in ebook itself were harvested by Derive
	folder := p.run.Store.Subfolder(common.SubfolderTagImages)
	for i := range p.ebook.Images {
		p.ebook.Images[i].Folder = folder
		if p.ebook.Images[i].Caption == "" {
			p.ebook.Images[i].Caption = p.run.Store.DefaultCaption
		}
	}
}

func (p *Pipeline) blocks(t *dialect.Text) {
	for _, node := range t.Root().FindElements("//" + dialect.Prefix + ":block") {
		name := strings.TrimSpace(dialect.TextContent(node))
		path := p.run.BlockPath(name)
		frag, err := p.readBlock(t, path)
		if err != nil || name == "" {
			p.log.Debug("Unable to use block", zap.String("block", path), zap.Error(err))
			p.run.Cry(t, diag.BlockReadError, path, p.run.TextPath(t.FileName))
			continue
		}
		dialect.Replace(node, frag...)
	}
}

func (p *Pipeline) readBlock(t *dialect.Text, path string) (Fragment, error) {
	data, err := p.run.ReadFile(t, path)
	if err != nil {
		return nil, err
	}
	doc, err := dialect.ParseFragments(data)
	if err != nil {
		return nil, err
	}
	return Fragment(slices.Clone(doc.Root().Child)), nil
}

func (p *Pipeline) harvestImages(t *dialect.Text) {
	folder := p.run.Store.Subfolder(common.SubfolderTagImages)
	images := t.Images()
	for i := range images {
		images[i].Folder = folder
		if images[i].Caption == "" {
			images[i].Caption = p.run.Store.DefaultCaption
		}
	}
	p.ebook.AddImages(images)
}

func (p *Pipeline) stylesheets() {
	folder := p.run.Store.Subfolder(common.SubfolderTagImages)
	for _, name := range p.ebook.Stylesheets {
		path, ok := p.run.Locate(p.ebook, p.run.StylePath(name))
		if !ok {
			// reported by validation
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			p.log.Debug("Unable to read stylesheet", zap.String("stylesheet", path), zap.Error(err))
			continue
		}
		sheet := css.Sanitize(data, p.log.With(zap.String("stylesheet", name)))
		for _, font := range sheet.Fonts {
			if !slices.ContainsFunc(p.ebook.Fonts, func(f string) bool { return filepath.Base(f) == font }) {
				p.ebook.AddFont(font)
			}
		}
		for _, img := range sheet.Images {
			p.ebook.AddImages([]dialect.Image{{FileName: img, Folder: folder}})
		}
		p.styles[name] = sheet.Data
	}
}

func structure(t *dialect.Text) {
	root := t.Root()
	for _, node := range root.FindElements("//" + dialect.Prefix + ":chapter") {
		dialect.Replace(node, section(node, "h1", "chapter"))
	}
	for _, node := range root.FindElements("//" + dialect.Prefix + ":section") {
		dialect.Replace(node, section(node, "h2", ""))
	}
}

func section(node *etree.Element, heading, epubType string) *etree.Element {
	sec := etree.NewElement("section")
	if epubType != "" {
		sec.CreateAttr("epub:type", epubType)
	}
	for _, a := range node.Attr {
		if a.Space == "" && a.Key == "title" {
			continue
		}
		sec.CreateAttr(a.FullKey(), a.Value)
	}
	if title := strings.TrimSpace(node.SelectAttrValue("title", "")); title != "" {
		sec.CreateElement(heading).SetText(title)
	}
	for _, c := range slices.Clone(node.Child) {
		sec.AddChild(c)
	}
	return sec
}

func (p *Pipeline) images(t *dialect.Text) {
	for _, node := range t.Root().FindElements("//" + dialect.Prefix + ":image") {
		name := strings.TrimSpace(dialect.TextContent(node))
		if name == "" {
			continue
		}
		caption := strings.TrimSpace(node.SelectAttrValue("caption", ""))
		if caption == "" {
			caption = p.run.Store.DefaultCaption
		}
		dialect.Replace(node, figure(normalize.ImageFileName(name), caption, nil))
	}
}

func (p *Pipeline) mergeAuthors() {
	tool := misc.GetDisplayName()

	var merged []dialect.Author
	add := func(a dialect.Author) {
		if a.Name == tool {
			return
		}
		if i := slices.IndexFunc(merged, func(m dialect.Author) bool { return m.Name == a.Name }); i >= 0 {
			if merged[i].FileAs == "" {
				merged[i].FileAs = a.FileAs
			}
			return
		}
		merged = append(merged, a)
	}
	for _, a := range p.ebook.Authors {
		add(a)
	}
	for _, t := range p.ebook.Texts {
		if t.Derived() {
			for _, a := range t.Authors {
				add(a)
			}
		}
	}

	p.ebook.EraseAuthors()
	for _, a := range merged {
		p.ebook.AddAuthor(a)
	}
}

// WebLinks returns distinct web URLs all texts link to, in order of
// appearance. URLs differing only in case are considered the same.
func WebLinks(texts []*dialect.Text) []string {
	var urls []string
	seen := make(map[string]struct{})
	for _, t := range texts {
		if !t.Derived() {
			continue
		}
		for _, node := range published(t.Root(), "link") {
			to := linkTarget(node)
			if !normalize.IsWebURL(to) {
				continue
			}
			key := strings.ToLower(to)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			urls = append(urls, to)
		}
	}
	return urls
}

func (p *Pipeline) linkCheck(ctx context.Context) {
	if !p.run.Store.CheckLinks || p.probe == nil {
		p.run.Cry(p.ebook, diag.LinksNotChecked, p.ebook.FileName)
		return
	}
	urls := WebLinks(p.ebook.Texts)
	p.log.Debug("Checking external links", zap.Int("count", len(urls)))
	for _, res := range p.probe(ctx, urls) {
		switch {
		case res.Err != nil:
			p.run.Cry(p.ebook, diag.ExternalLinkCheckTimeout, res.URL, res.Err.Error())
		case res.Status >= 400:
			p.run.Cry(p.ebook, diag.ExternalLinkCheckFailed, res.URL, strconv.Itoa(res.Status))
		}
	}
}

// published returns lea elements with requested tag which make it into the
// package. Anything nested in other lea elements (blurb, rights and such) is
// dropped by Reflow, blurbs and rights are reproduced by scripts elsewhere.
func published(root *etree.Element, tag string) []*etree.Element {
	var list []*etree.Element
	for _, node := range root.FindElements("//" + dialect.Prefix + ":" + tag) {
		nested := false
		for p := node.Parent(); p != nil && p != root; p = p.Parent() {
			if dialect.IsLea(p) {
				nested = true
				break
			}
		}
		if !nested {
			list = append(list, node)
		}
	}
	return list
}

// linkTarget is the value of "to" attribute, or link text when there is none.
func linkTarget(node *etree.Element) string {
	if to := node.SelectAttr("to"); to != nil {
		return strings.TrimSpace(to.Value)
	}
	return strings.TrimSpace(dialect.TextContent(node))
}

// TargetID returns anchor identifier for target name.
func TargetID(name string) string {
	return "lea-tgt-" + normalize.Identifier(name)
}

type target struct {
	id   string
	file string
}

func (p *Pipeline) targets() {
	table := make(map[string]target)
	register := func(name, file string) (string, bool) {
		id := TargetID(name)
		if _, ok := table[id]; ok {
			return id, false
		}
		table[id] = target{id: id, file: file}
		return id, true
	}

	// explicit targets win over implicit ones
	for _, t := range p.ebook.Texts {
		if !t.Derived() {
			continue
		}
		for _, node := range published(t.Root(), "target") {
			register(dialect.TextContent(node), t.PackageFileName())
		}
	}
	for _, t := range p.ebook.Texts {
		if !t.Derived() || t.Synthetic {
			continue
		}
		var anchors []etree.Token
		names := []string{t.Title}
		if t.FirstAuthor() != "" {
			names = append(names, t.Byline())
		}
		for _, name := range names {
			if strings.TrimSpace(name) == "" {
				continue
			}
			if id, ok := register(name, t.PackageFileName()); ok {
				anchors = append(anchors, anchor(id))
			}
		}
		root := t.Root()
		for i, a := range anchors {
			root.InsertChildAt(i, a)
		}
	}

	for _, t := range p.ebook.Texts {
		if !t.Derived() {
			continue
		}
		root := t.Root()
		for _, node := range published(root, "target") {
			dialect.Replace(node, anchor(TargetID(dialect.TextContent(node))))
		}
		for _, node := range published(root, "link") {
			to := linkTarget(node)
			var href string
			if normalize.IsExternalURL(to) {
				href = to
			} else if tgt, ok := table[TargetID(to)]; ok {
				href = tgt.file + "#" + tgt.id
			} else {
				p.run.Cry(t, diag.LinkTargetUndefined, p.run.TextPath(t.FileName), to)
				continue
			}
			a := etree.NewElement("a")
			a.CreateAttr("href", href)
			for _, attr := range node.Attr {
				if attr.Space == "" && attr.Key == "to" {
					continue
				}
				a.CreateAttr(attr.FullKey(), attr.Value)
			}
			for _, c := range slices.Clone(node.Child) {
				a.AddChild(c)
			}
			dialect.Replace(node, a)
		}
	}
}

func anchor(id string) *etree.Element {
	a := etree.NewElement("a")
	a.CreateAttr("id", id)
	return a
}
