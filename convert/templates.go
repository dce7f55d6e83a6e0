package convert

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"text/template"

	sprig "github.com/go-task/slim-sprig/v3"

	"lea/config"
	"lea/dialect"
)

type CollectionDefinition struct {
	Title    string
	Position string
	ISSN     string
}

type AuthorDefinition struct {
	Name, FileAs string
}

// Values is a struct that holds variables we make available for template expansion
type Values struct {
	Context    string
	Title      string
	Imprint    string
	Collection CollectionDefinition
	Language   string
	Date       string
	Authors    []AuthorDefinition
	ISBN       string
	SourceFile string
	Subjects   []string
}

func buildAuthors(authors []dialect.Author) []AuthorDefinition {
	result := make([]AuthorDefinition, 0, len(authors))
	for _, a := range authors {
		result = append(result, AuthorDefinition{Name: a.Name, FileAs: a.FileAs})
	}
	return result
}

func expandTemplate(ebook *dialect.Ebook, name config.TemplateFieldName, field string) (string, error) {
	funcMap := sprig.FuncMap()

	tmpl, err := template.New(string(name)).Funcs(funcMap).Parse(field)
	if err != nil {
		return "", fmt.Errorf("unable to parse template field %s: %w", name, err)
	}

	values := Values{
		Context: string(name),
		Title:   ebook.Title,
		Imprint: ebook.Publisher.Imprint,
		Collection: CollectionDefinition{
			Title:    ebook.Collection.Title,
			Position: ebook.Collection.Position,
			ISSN:     ebook.Collection.ISSN,
		},
		Language:   ebook.Language,
		Date:       ebook.Date.Issued,
		Authors:    buildAuthors(ebook.Authors),
		ISBN:       ebook.ISBN.String(),
		SourceFile: strings.TrimSuffix(filepath.Base(ebook.FileName), filepath.Ext(ebook.FileName)),
		Subjects:   ebook.Subjects,
	}

	buf := new(bytes.Buffer)
	if err := tmpl.Execute(buf, values); err != nil {
		return "", err
	}
	return buf.String(), nil
}
