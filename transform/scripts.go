package transform

import (
	"path"
	"slices"
	"sort"
	"strings"

	"github.com/beevik/etree"
	"github.com/maruel/natural"

	"lea/common"
	"lea/dialect"
	"lea/diag"
	"lea/normalize"
	"lea/state"
)

// Fragment is a sequence of nodes replacing an element in the text tree.
type Fragment []etree.Token

// Expansion is everything script generator could look at. Generators may
// register images with the ebook and record diagnostics, nothing else.
type Expansion struct {
	Run   *state.Run
	Ebook *dialect.Ebook
	Text  *dialect.Text
}

// Generator produces markup for script element. When ok is false element
// stays in place, the reason was already recorded as diagnostic.
type Generator func(x *Expansion, node *etree.Element) (frag Fragment, ok bool)

var registry = map[string]Generator{
	"toc":                     tableOfContents,
	"table of contents":       tableOfContents,
	"list content":            tableOfContents,
	"toc plain":               tableOfContentsPlain,
	"list content plain":      tableOfContentsPlain,
	"table of contents plain": tableOfContentsPlain,
	"colophon":                listRights,
	"list rights":             listRights,
	"text rights":             listRights,
	"list text rights":        listRights,
	"blurbs":                  listBlurbs,
	"list blurbs":             listBlurbs,
	"text blurbs":             listBlurbs,
	"linked image":            linkedImage,
	"list authors":            listAuthors,
	"authors":                 listAuthors,
	"text authors":            listAuthors,
}

// Lookup returns generator registered under (lowercased) name.
func Lookup(name string) (Generator, bool) {
	gen, ok := registry[strings.ToLower(strings.TrimSpace(name))]
	return gen, ok
}

// ScriptNames returns all known script names sorted.
func ScriptNames() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (p *Pipeline) scripts(t *dialect.Text) {
	x := &Expansion{Run: p.run, Ebook: p.ebook, Text: t}
	for _, node := range t.Root().FindElements("//" + dialect.Prefix + ":script") {
		name := strings.ToLower(strings.TrimSpace(dialect.TextContent(node)))
		gen, ok := Lookup(name)
		if !ok {
			p.run.Cry(t, diag.ScriptUndefined, name, p.run.TextPath(t.FileName))
			continue
		}
		if frag, ok := gen(x, node); ok {
			dialect.Replace(node, frag...)
		}
	}
}

func leaElement(tag string) *etree.Element {
	return etree.NewElement(dialect.Prefix + ":" + tag)
}

// leaLink creates link element to be resolved by targets stage.
func leaLink(to, text string) *etree.Element {
	link := leaElement("link")
	if to != "" {
		link.CreateAttr("to", to)
	}
	if text != "" {
		link.SetText(text)
	}
	return link
}

// fragmentOf parses rich text kept as inner XML.
func fragmentOf(inner string) Fragment {
	doc, err := dialect.ParseFragments([]byte(inner))
	if err != nil {
		return Fragment{etree.NewText(inner)}
	}
	return Fragment(slices.Clone(doc.Root().Child))
}

func figure(image, caption string, link *etree.Element) *etree.Element {
	fig := etree.NewElement("figure")
	img := etree.NewElement("img")
	img.CreateAttr("src", "../Images/"+image)
	img.CreateAttr("alt", caption)
	if link != nil {
		link.AddChild(img)
		fig.AddChild(link)
	} else {
		fig.AddChild(img)
	}
	if caption != "" {
		fig.CreateElement("figcaption").SetText(caption)
	}
	return fig
}

func tableOfContents(x *Expansion, _ *etree.Element) (Fragment, bool) {
	ol := etree.NewElement("ol")
	for _, t := range x.Ebook.Texts {
		if t.Derived() && t.Title != "" {
			ol.CreateElement("li").AddChild(leaLink("", t.Title))
		}
	}
	return Fragment{ol}, true
}

func tableOfContentsPlain(x *Expansion, node *etree.Element) (Fragment, bool) {
	filter := node.SelectAttrValue("filter", "")

	var titles []string
	for _, t := range x.Ebook.Texts {
		if !t.Derived() || t.Title == "" || slices.Contains(titles, t.Title) {
			continue
		}
		if filter != "" && strings.Contains(t.Title, filter) {
			continue
		}
		titles = append(titles, t.Title)
	}
	if len(titles) == 0 {
		return Fragment{}, true
	}
	sort.Sort(natural.StringSlice(titles))
	return Fragment{etree.NewText(strings.Join(titles, ", ") + ".")}, true
}

func listRights(x *Expansion, _ *etree.Element) (Fragment, bool) {
	var frag Fragment
	for _, t := range x.Ebook.Texts {
		if t.Derived() && t.Rights != "" {
			frag = append(frag, fragmentOf(t.Rights)...)
			frag = append(frag, etree.NewText("\n"))
		}
	}
	return frag, true
}

func listBlurbs(x *Expansion, node *etree.Element) (Fragment, bool) {
	class := node.SelectAttrValue("heading-class", "")

	var frag Fragment
	for _, t := range x.Ebook.Texts {
		if !t.Derived() || t.Blurb == "" {
			continue
		}
		h4 := etree.NewElement("h4")
		if class != "" {
			h4.CreateAttr("class", class)
		}
		h4.AddChild(leaLink("", t.Byline()))
		frag = append(frag, h4)
		frag = append(frag, fragmentOf(t.Blurb)...)
		frag = append(frag, etree.NewText("\n"))
	}
	return frag, true
}

// listAuthors produces block inclusion per author, so every author could have
// a separately maintained biography.
func listAuthors(x *Expansion, node *etree.Element) (Fragment, bool) {
	folder := strings.Trim(node.SelectAttrValue("folder", ""), "/ ")
	class := node.SelectAttrValue("class", "")

	var names []string
	for _, t := range x.Ebook.Texts {
		if !t.Derived() || t.Synthetic {
			continue
		}
		for _, a := range t.Authors {
			if !slices.Contains(names, a.Name) {
				names = append(names, a.Name)
			}
		}
	}
	sort.Sort(natural.StringSlice(names))

	var frag Fragment
	for i, name := range names {
		if i > 0 {
			div := etree.NewElement("div")
			if class != "" {
				div.CreateAttr("class", class)
			}
			frag = append(frag, div)
		}
		block := leaElement("block")
		block.SetText(path.Join(folder, name+".xhtml"))
		frag = append(frag, block)
	}
	return frag, true
}

func linkedImage(x *Expansion, node *etree.Element) (Fragment, bool) {
	src := x.Run.TextPath(x.Text.FileName)

	to := node.SelectAttr("to")
	if to == nil {
		x.Run.Cry(x.Text, diag.LinkedImageMissingTo, src)
		return nil, false
	}
	image := node.SelectAttr("image")
	if image == nil {
		x.Run.Cry(x.Text, diag.LinkedImageMissingImage, src)
		return nil, false
	}

	name := strings.TrimSpace(image.Value)
	caption := strings.TrimSpace(node.SelectAttrValue("caption", ""))
	if caption == "" {
		caption = x.Run.Store.DefaultCaption
	}
	folder := x.Run.Store.Subfolder(common.SubfolderTagImages)
	if attr := node.SelectAttr("folder"); attr != nil {
		if folder = strings.Trim(attr.Value, "/ "); folder != "" {
			folder += "/"
		}
	}

	x.Ebook.AddImages([]dialect.Image{{FileName: name, Folder: folder, Caption: caption}})
	return Fragment{figure(normalize.ImageFileName(name), caption, leaLink(strings.TrimSpace(to.Value), ""))}, true
}
