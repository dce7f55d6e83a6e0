// Package ident assigns package identifiers and file names to everything
// which ends up in the package manifest or metadata.
package ident

import (
	"path"
	"strings"

	"lea/common"
	"lea/dialect"
	"lea/diag"
	"lea/normalize"
	"lea/utils/debug"
)

// Entry of the identifier table. FileName is empty for entities which are
// not files (authors and contributors).
type Entry struct {
	Kind     common.EntityKind
	Key      string
	ID       string
	FileName string
	// where the name came from, only entries from the same source coalesce
	Source string
}

type key struct {
	kind common.EntityKind
	name string
}

// Table keeps entries in order they were added.
type Table struct {
	entries []Entry
	byKey   map[key]int
	byID    map[string]int
	byFile  map[key]int
	diags   []diag.Diagnostic
	subject diag.Subject
}

func newTable(subject diag.Subject) *Table {
	return &Table{
		byKey:   make(map[key]int),
		byID:    make(map[string]int),
		byFile:  make(map[key]int),
		subject: subject,
	}
}

// Compile builds table for transformed ebook. Synthetic texts and merged
// authors must already be present. Distinct names of the same kind which
// normalize to the same identifier or file name are reported as fatal
// diagnostics, identical names share single entry as long as they come from
// the same source. Two text files with the same byline collide.
func Compile(ebook *dialect.Ebook) *Table {
	t := newTable(ebook)

	for _, a := range ebook.Authors {
		t.add(common.EntityKindAuthor, a.Name, a.Name, "lea-cre-"+normalize.Identifier(a.Name), "")
	}
	for _, c := range ebook.Contributors {
		t.add(common.EntityKindContributor, c.Name, c.Name, "lea-con-"+normalize.Identifier(c.Name), "")
	}
	for _, txt := range ebook.Texts {
		if !txt.Derived() {
			continue
		}
		t.add(common.EntityKindText, TextKey(txt), txt.FileName, txt.PackageID(), txt.PackageFileName())
	}
	for _, f := range ebook.Fonts {
		base := baseName(f)
		t.add(common.EntityKindFont, f, f, "lea-fnt-"+normalize.Identifier(base), base)
	}
	for _, s := range ebook.Stylesheets {
		base := baseName(s)
		t.add(common.EntityKindStylesheet, s, s, "lea-css-"+normalize.Identifier(base), base)
	}
	if ebook.Cover != "" {
		t.addImage(ebook.Cover)
	}
	for _, img := range ebook.Images {
		t.addImage(img.FileName)
	}
	return t
}

// TextKey is natural name of the text in the table.
func TextKey(t *dialect.Text) string {
	if t.Synthetic {
		return t.FileName
	}
	return t.Byline()
}

func (t *Table) addImage(name string) {
	file := normalize.ImageFileName(name)
	t.add(common.EntityKindImage, name, name, normalize.Identifier(file), file)
}

func baseName(name string) string {
	return path.Base(strings.ReplaceAll(name, `\`, "/"))
}

func (t *Table) add(kind common.EntityKind, name, source, id, file string) {
	k := key{kind: kind, name: name}
	if i, ok := t.byKey[k]; ok {
		if t.entries[i].Source != source {
			t.collision(kind, t.entries[i].Source, source, id)
		}
		return
	}
	fk := key{kind: kind, name: strings.ToLower(file)}
	if file != "" {
		// archive members differing in case only are not portable
		if i, ok := t.byFile[fk]; ok {
			t.collision(kind, t.entries[i].Key, name, file)
			return
		}
	}
	if i, ok := t.byID[id]; ok {
		t.collision(kind, t.entries[i].Key, name, id)
		return
	}
	t.byKey[k] = len(t.entries)
	t.byID[id] = len(t.entries)
	if file != "" {
		t.byFile[fk] = len(t.entries)
	}
	t.entries = append(t.entries, Entry{Kind: kind, Key: name, ID: id, FileName: file, Source: source})
}

func (t *Table) collision(kind common.EntityKind, first, second, packageName string) {
	t.diags = append(t.diags, diag.New(t.subject, diag.IdentifierCollision, kind.String(), first, second, packageName))
}

// Diagnostics returns collisions detected while compiling.
func (t *Table) Diagnostics() []diag.Diagnostic {
	return t.diags
}

// Lookup returns entry for entity of requested kind and natural name.
func (t *Table) Lookup(kind common.EntityKind, name string) (Entry, bool) {
	if i, ok := t.byKey[key{kind: kind, name: name}]; ok {
		return t.entries[i], true
	}
	return Entry{}, false
}

// Entries returns all entries of requested kind in insertion order.
func (t *Table) Entries(kind common.EntityKind) []Entry {
	var list []Entry
	for _, e := range t.entries {
		if e.Kind == kind {
			list = append(list, e)
		}
	}
	return list
}

// Len returns number of entries.
func (t *Table) Len() int {
	return len(t.entries)
}

// Dump renders table for debug report.
func (t *Table) Dump() string {
	tw := debug.NewTreeWriter()
	tw.Line(0, "Identifiers: %d", len(t.entries))
	for _, name := range common.EntityKindNames() {
		kind, _ := common.ParseEntityKind(name)
		list := t.Entries(kind)
		if len(list) == 0 {
			continue
		}
		tw.Line(1, "%s (%d)", kind, len(list))
		for _, e := range list {
			tw.TextBlock(2, "key", e.Key)
			tw.Line(3, "id: %s", e.ID)
			if e.FileName != "" {
				tw.Line(3, "file: %s", e.FileName)
			}
		}
	}
	for _, d := range t.diags {
		tw.TextBlock(1, "collision", d.Message)
	}
	return tw.String()
}
