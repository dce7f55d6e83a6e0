package dialect

import (
	"fmt"
	"slices"
	"time"

	"github.com/beevik/etree"

	"lea/normalize"
)

// Ebook is an ebook configuration document. It is created raw, Derive must be
// called once to populate computed fields before anything else is used.
type Ebook struct {
	FileName string

	Title          string
	Description    string
	Publisher      Publisher
	Rights         string // inner XML of the first rights element
	Language       string
	Authors        []Author
	InvalidAuthors int
	Date           Date
	Contributors   []Contributor
	// number of contributors dropped for not having a single permitted role
	InvalidContributors int
	ISBN                normalize.ISBN
	Collection          Collection
	Texts               []*Text
	Subjects            []string
	Cover               string
	Images              []Image
	Stylesheets         []string
	Fonts               []string
	DefaultCaption      string
	Subfolders          []Subfolder

	content []byte
	doc     *etree.Document
	counts  map[string]int
	derived bool
	err     error
}

// NewEbook creates raw ebook record. Nil (or empty) content means file could
// not be read.
func NewEbook(fileName string, content []byte) *Ebook {
	return &Ebook{FileName: fileName, content: content}
}

// SourceFile implements diag.Subject.
func (e *Ebook) SourceFile() string {
	return e.FileName
}

// Derive parses configuration and populates all computed fields. It only does
// the work once, subsequent calls return the result of the first one.
func (e *Ebook) Derive(now time.Time) error {
	if e.derived {
		return e.err
	}
	e.derived = true

	if len(e.content) == 0 {
		e.err = fmt.Errorf("ebook %s: %w", e.FileName, ErrNotRead)
		return e.err
	}
	doc, err := ParseFragments(e.content)
	if err != nil {
		e.err = fmt.Errorf("ebook %s: %w", e.FileName, err)
		return e.err
	}
	e.doc = doc
	root := doc.Root()

	e.counts = countTopLevel(root)
	e.Title = firstText(root, "title")
	e.Description = firstText(root, "description")
	e.Publisher = extractPublisher(root)
	e.Rights = firstInnerXML(root, "rights")
	e.Language = firstText(root, "language")
	e.Authors, e.InvalidAuthors = extractAuthors(root)
	e.Date = extractDate(root, now)
	e.Contributors, e.InvalidContributors = extractContributors(root)
	e.ISBN = extractISBN(root)
	e.Collection = extractCollection(root)
	e.Subjects = extractList(root, "subject")
	e.Cover = firstText(root, "cover")
	e.Stylesheets = extractList(root, "stylesheet")
	e.Fonts = extractList(root, "font")
	e.DefaultCaption = firstText(root, "defaultcaption")
	e.Subfolders = extractSubfolders(root)
	e.AddImages(extractImages(root))
	for _, name := range extractList(root, "text") {
		e.Texts = append(e.Texts, NewText(name, nil))
	}
	return nil
}

// DefaultLanguage is used in the package when ebook does not declare one.
const DefaultLanguage = "en"

// PackageLanguage returns declared language or DefaultLanguage, missing
// language is reported by validation and package still needs one.
func (e *Ebook) PackageLanguage() string {
	if e.Language != "" {
		return e.Language
	}
	return DefaultLanguage
}

// Derived reports whether Derive was called and succeeded.
func (e *Ebook) Derived() bool {
	return e.derived && e.err == nil
}

// Count returns number of top level lea elements with requested tag.
func (e *Ebook) Count(tag string) int {
	return e.counts[tag]
}

// extractISBN returns first valid ISBN, or the first one declared when none
// is valid so it could be reported.
func extractISBN(root *etree.Element) normalize.ISBN {
	var first *normalize.ISBN
	for _, raw := range extractList(root, "isbn") {
		isbn := normalize.ParseISBN(raw)
		if isbn.IsValid() {
			return isbn
		}
		if first == nil {
			first = &isbn
		}
	}
	if first != nil {
		return *first
	}
	return normalize.ParseISBN("")
}

// AddText appends text, texts order is the spine order.
func (e *Ebook) AddText(t *Text) {
	e.Texts = append(e.Texts, t)
}

func (e *Ebook) AddAuthor(a Author) {
	e.Authors = append(e.Authors, a)
}

func (e *Ebook) EraseAuthors() {
	e.Authors = nil
}

// AddImages appends images skipping ones already known by file name.
func (e *Ebook) AddImages(images []Image) {
	for _, img := range images {
		if !slices.ContainsFunc(e.Images, func(i Image) bool { return i.FileName == img.FileName }) {
			e.Images = append(e.Images, img)
		}
	}
}

// AddFont registers font unless it is already known.
func (e *Ebook) AddFont(name string) {
	if !slices.Contains(e.Fonts, name) {
		e.Fonts = append(e.Fonts, name)
	}
}

// FindText returns text with requested source file name.
func (e *Ebook) FindText(fileName string) *Text {
	for _, t := range e.Texts {
		if t.FileName == fileName {
			return t
		}
	}
	return nil
}
