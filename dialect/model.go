package dialect

import (
	"slices"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/beevik/etree"
)

// Author of an ebook or a text.
type Author struct {
	Name   string
	FileAs string
}

// SortName returns name to be used for sorting in catalogs.
func (a Author) SortName() string {
	if a.FileAs != "" {
		return a.FileAs
	}
	return a.Name
}

// PermittedRoles lists MARC relator codes contributors may have.
var PermittedRoles = []string{"edt", "trl", "bkp", "bkd", "tyg", "mrk", "pfr", "cov", "ill", "art", "blw"}

type Contributor struct {
	Name  string
	Roles []string
}

type Publisher struct {
	Imprint string
	Contact string
}

func (p Publisher) IsValid() bool {
	return p.Imprint != "" && p.Contact != ""
}

const (
	dateLayout     = "2006-01-02"
	modifiedLayout = "2006-01-02T15:04:05Z"
)

// Date holds normalized package dates, empty value means date could not be
// parsed.
type Date struct {
	Created  string
	Modified string
	Issued   string
}

func (d Date) IsValid() bool {
	return d.Created != "" && d.Modified != "" && d.Issued != ""
}

// parseDate accepts strict ISO date first and anything dateparse understands
// after that.
func parseDate(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	if t, err := time.Parse(dateLayout, value); err == nil {
		return t.Format(dateLayout)
	}
	if t, err := dateparse.ParseStrict(value); err == nil {
		return t.Format(dateLayout)
	}
	return ""
}

func newDate(created, issued string, now time.Time) Date {
	return Date{
		Created:  parseDate(created),
		Modified: now.UTC().Format(modifiedLayout),
		Issued:   parseDate(issued),
	}
}

// Collection describes series ebook belongs to. Only "series" type is
// supported.
type Collection struct {
	Title    string
	Type     string
	Position string
	ISSN     string
}

func (c Collection) IsValid() bool {
	return c.Title != "" && c.Type == "series" && c.Position != "" && c.ISSN != ""
}

// Image to be packaged. Folder is the subfolder under images directory
// (with trailing slash) image was found in.
type Image struct {
	FileName string
	Folder   string
	Caption  string
}

// Subfolder declaration, Tag is empty when declaration applies to all
// lookups.
type Subfolder struct {
	Tag string
	Dir string
}

func extractAuthors(root *etree.Element) (authors []Author, invalid int) {
	for _, el := range topLevel(root, "author") {
		name := strings.TrimSpace(TextContent(el))
		if name == "" {
			invalid++
			continue
		}
		authors = append(authors, Author{
			Name:   name,
			FileAs: strings.TrimSpace(el.SelectAttrValue("file-as", "")),
		})
	}
	return authors, invalid
}

func extractContributors(root *etree.Element) (contributors []Contributor, dropped int) {
	for _, el := range topLevel(root, "contributor") {
		var roles []string
		for _, r := range strings.Fields(strings.ToLower(el.SelectAttrValue("roles", ""))) {
			if slices.Contains(PermittedRoles, r) && !slices.Contains(roles, r) {
				roles = append(roles, r)
			}
		}
		name := strings.TrimSpace(TextContent(el))
		if len(roles) == 0 || name == "" {
			dropped++
			continue
		}
		contributors = append(contributors, Contributor{Name: name, Roles: roles})
	}
	return contributors, dropped
}

func extractPublisher(root *etree.Element) Publisher {
	nodes := topLevel(root, "publisher")
	if len(nodes) != 1 {
		return Publisher{}
	}
	el := nodes[0]
	if contact := el.SelectAttr("contact"); contact != nil {
		return Publisher{
			Imprint: strings.TrimSpace(TextContent(el)),
			Contact: strings.TrimSpace(contact.Value),
		}
	}
	// older shape with nested elements
	var p Publisher
	if imprint := el.SelectElement(Prefix + ":imprint"); imprint != nil {
		p.Imprint = strings.TrimSpace(TextContent(imprint))
	}
	if contact := el.SelectElement(Prefix + ":contact"); contact != nil {
		p.Contact = strings.TrimSpace(TextContent(contact))
	}
	return p
}

func extractDate(root *etree.Element, now time.Time) Date {
	nodes := topLevel(root, "date")
	if len(nodes) != 1 {
		return Date{}
	}
	issued := strings.TrimSpace(TextContent(nodes[0]))
	return newDate(nodes[0].SelectAttrValue("created", issued), issued, now)
}

func extractCollection(root *etree.Element) Collection {
	nodes := topLevel(root, "collection")
	if len(nodes) != 1 {
		return Collection{}
	}
	el := nodes[0]
	return Collection{
		Title:    strings.TrimSpace(TextContent(el)),
		Type:     strings.TrimSpace(el.SelectAttrValue("type", "")),
		Position: strings.TrimSpace(el.SelectAttrValue("position", "")),
		ISSN:     strings.TrimSpace(el.SelectAttrValue("issn", "")),
	}
}

func extractList(root *etree.Element, tag string) []string {
	var list []string
	for _, el := range topLevel(root, tag) {
		if v := strings.TrimSpace(TextContent(el)); v != "" {
			list = append(list, v)
		}
	}
	return list
}

func extractSubfolders(root *etree.Element) []Subfolder {
	var list []Subfolder
	for _, el := range topLevel(root, "subfolder") {
		list = append(list, Subfolder{
			Tag: strings.TrimSpace(el.SelectAttrValue("tag", "")),
			Dir: strings.TrimSpace(TextContent(el)),
		})
	}
	return list
}

// extractImages returns all images declared anywhere in the tree. Caption is
// empty when image does not have one, default is applied by the caller.
func extractImages(root *etree.Element) []Image {
	var images []Image
	for _, el := range root.FindElements("//" + Prefix + ":image") {
		name := strings.TrimSpace(TextContent(el))
		if name == "" {
			continue
		}
		images = append(images, Image{
			FileName: name,
			Caption:  strings.TrimSpace(el.SelectAttrValue("caption", "")),
		})
	}
	return images
}

func firstInnerXML(root *etree.Element, tag string) string {
	if el := root.SelectElement(Prefix + ":" + tag); el != nil {
		return InnerXML(el)
	}
	return ""
}
