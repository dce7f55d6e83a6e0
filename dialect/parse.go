// Package dialect reads ebook configuration and text fragment documents
// written in lea namespaced XML.
package dialect

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/beevik/etree"
	"golang.org/x/net/html/charset"
)

const (
	Namespace = "https://logophilia.eu/lea/2026/xhtml"
	Prefix    = "lea"

	// fragments do not have single root, so they are always wrapped
	rootTag = "lea-fragments"
)

var (
	// ErrNotRead means underlying file could not be read or was empty.
	ErrNotRead = errors.New("fragments were not read")
	// ErrNotWellFormed means fragments could not be parsed as XML.
	ErrNotWellFormed = errors.New("fragments are not well formed")
)

// ParseFragments parses document which may have any number of top level
// nodes. Returned document root is the synthetic wrapper element. HTML named
// entities are accepted, non UTF-8 input is converted.
func ParseFragments(content []byte) (*etree.Document, error) {
	content, err := toUTF8(content)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.Grow(len(content) + 128)
	buf.WriteString("<" + rootTag + " xmlns:" + Prefix + "=\"" + Namespace + "\">")
	buf.Write(stripDeclaration(content))
	buf.WriteString("</" + rootTag + ">")

	doc := etree.NewDocument()
	doc.ReadSettings = etree.ReadSettings{
		CharsetReader: charset.NewReaderLabel,
		Entity:        xml.HTMLEntity,
	}
	if err := doc.ReadFromBytes(buf.Bytes()); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotWellFormed, err)
	}
	if doc.Root() == nil {
		return nil, ErrNotWellFormed
	}
	return doc, nil
}

// NewFragments creates empty fragments document to be filled by code.
func NewFragments() *etree.Document {
	doc := etree.NewDocument()
	root := doc.CreateElement(rootTag)
	root.CreateAttr("xmlns:"+Prefix, Namespace)
	return doc
}

// toUTF8 converts content using encoding detected from BOM or XML
// declaration, the way browsers do it.
func toUTF8(content []byte) ([]byte, error) {
	if utf8.Valid(content) {
		return bytes.TrimPrefix(content, []byte("\xef\xbb\xbf")), nil
	}
	enc, name, _ := charset.DetermineEncoding(content, "text/xml")
	out, err := enc.NewDecoder().Bytes(content)
	if err != nil {
		return nil, fmt.Errorf("%w: unable to decode from %s: %w", ErrNotWellFormed, name, err)
	}
	return out, nil
}

// stripDeclaration removes XML declaration, it cannot appear inside wrapper.
func stripDeclaration(content []byte) []byte {
	trimmed := bytes.TrimLeft(content, " \t\r\n")
	if !bytes.HasPrefix(trimmed, []byte("<?xml")) {
		return content
	}
	if end := bytes.Index(trimmed, []byte("?>")); end >= 0 {
		return trimmed[end+2:]
	}
	return content
}

// IsLea reports whether element belongs to lea namespace.
func IsLea(el *etree.Element) bool {
	return el != nil && el.Space == Prefix
}

// TextContent returns concatenated character data of element and all its
// descendants.
func TextContent(el *etree.Element) string {
	var sb strings.Builder
	collectText(&sb, el)
	return sb.String()
}

func collectText(sb *strings.Builder, el *etree.Element) {
	for _, t := range el.Child {
		switch v := t.(type) {
		case *etree.CharData:
			sb.WriteString(v.Data)
		case *etree.Element:
			collectText(sb, v)
		}
	}
}

// InnerXML serializes element children.
func InnerXML(el *etree.Element) string {
	var sb strings.Builder
	ws := etree.WriteSettings{}
	for _, t := range el.Child {
		t.WriteTo(&sb, &ws)
	}
	return strings.TrimSpace(sb.String())
}

// Replace puts tokens in place of element, element is removed from the tree.
func Replace(el *etree.Element, tokens ...etree.Token) {
	parent := el.Parent()
	if parent == nil {
		return
	}
	at := el.Index()
	parent.RemoveChildAt(at)
	for i, t := range tokens {
		parent.InsertChildAt(at+i, t)
	}
}

// topLevel returns all lea elements with requested tag directly under
// wrapper root.
func topLevel(root *etree.Element, tag string) []*etree.Element {
	return root.SelectElements(Prefix + ":" + tag)
}

// firstText returns trimmed text content of the first top level element.
func firstText(root *etree.Element, tag string) string {
	if el := root.SelectElement(Prefix + ":" + tag); el != nil {
		return strings.TrimSpace(TextContent(el))
	}
	return ""
}

func countTopLevel(root *etree.Element) map[string]int {
	counts := make(map[string]int)
	for _, el := range root.ChildElements() {
		if IsLea(el) {
			counts[el.Tag]++
		}
	}
	return counts
}
