package dialect

import (
	"fmt"

	"github.com/beevik/etree"

	"lea/normalize"
)

const (
	CoverFileName = "cover.xhtml"
	NavFileName   = "nav.xhtml"
)

// Text is a single fragment document. Its tree is mutated in place by every
// transformation stage.
type Text struct {
	FileName string

	Title          string
	Authors        []Author
	InvalidAuthors int
	Blurb          string // inner XML
	Rights         string // inner XML
	// synthetic texts are generated during compilation and have fixed names
	Synthetic bool

	content []byte
	doc     *etree.Document
	counts  map[string]int
	derived bool
	err     error
}

// NewText creates raw text record. Nil (or empty) content means file could
// not be read.
func NewText(fileName string, content []byte) *Text {
	return &Text{FileName: fileName, content: content}
}

// NewSyntheticText creates already derived text around prepared tree.
func NewSyntheticText(fileName, title string, author Author, doc *etree.Document) *Text {
	return &Text{
		FileName:  fileName,
		Title:     title,
		Authors:   []Author{author},
		Synthetic: true,
		doc:       doc,
		counts:    map[string]int{},
		derived:   true,
	}
}

// SourceFile implements diag.Subject.
func (t *Text) SourceFile() string {
	return t.FileName
}

// SetContent supplies file content, only has effect before Derive.
func (t *Text) SetContent(content []byte) {
	if !t.derived {
		t.content = content
	}
}

// Derive parses fragments and populates computed fields once.
func (t *Text) Derive() error {
	if t.derived {
		return t.err
	}
	t.derived = true

	if len(t.content) == 0 {
		t.err = fmt.Errorf("text %s: %w", t.FileName, ErrNotRead)
		return t.err
	}
	doc, err := ParseFragments(t.content)
	if err != nil {
		t.err = fmt.Errorf("text %s: %w", t.FileName, err)
		return t.err
	}
	t.doc = doc
	root := doc.Root()

	t.counts = countTopLevel(root)
	t.Title = firstText(root, "title")
	t.Authors, t.InvalidAuthors = extractAuthors(root)
	t.Blurb = firstInnerXML(root, "blurb")
	t.Rights = firstInnerXML(root, "rights")
	return nil
}

// Derived reports whether Derive was called and succeeded.
func (t *Text) Derived() bool {
	return t.derived && t.err == nil
}

// Root returns fragments wrapper element, nil when text was not derived.
func (t *Text) Root() *etree.Element {
	if t.doc == nil {
		return nil
	}
	return t.doc.Root()
}

func (t *Text) Count(tag string) int {
	return t.counts[tag]
}

// Images returns images referenced anywhere in the text.
func (t *Text) Images() []Image {
	if root := t.Root(); root != nil {
		return extractImages(root)
	}
	return nil
}

// FirstAuthor returns name of the first author or empty string.
func (t *Text) FirstAuthor() string {
	if len(t.Authors) == 0 {
		return ""
	}
	return t.Authors[0].Name
}

// Byline is natural key of the text: "title by first author".
func (t *Text) Byline() string {
	return t.Title + " by " + t.FirstAuthor()
}

// PackageFileName is the name of the text inside of the package.
func (t *Text) PackageFileName() string {
	if t.Synthetic {
		return t.FileName
	}
	return normalize.TextFileName(t.Byline())
}

// PackageID is the manifest identifier of the text.
func (t *Text) PackageID() string {
	if t.Synthetic {
		return "lea-txt-" + normalize.Identifier(t.FileName)
	}
	return "lea-txt-" + normalize.Identifier(t.Byline())
}
