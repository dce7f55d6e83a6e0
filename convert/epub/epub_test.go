package epub

import (
	"archive/zip"
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/beevik/etree"
	"go.uber.org/zap/zaptest"

	"lea/dialect"
	"lea/ident"
	"lea/state"
	"lea/transform"
)

const ebookConfig = `<?xml version="1.0" encoding="UTF-8"?>
<lea:title>Worlds &amp; Wonders</lea:title>
<lea:description>Short stories.</lea:description>
<lea:publisher contact="mail@example.com">Example Press</lea:publisher>
<lea:rights><p>Copyright <b>2026</b> Example Press</p></lea:rights>
<lea:language>en</lea:language>
<lea:author file-as="Sheckley, Robert">Robert Sheckley</lea:author>
<lea:contributor roles="edt">Jane Doe</lea:contributor>
<lea:date>2025-03-03</lea:date>
<lea:isbn>978-0-306-40615-7</lea:isbn>
<lea:collection type="series" position="2" issn="2049-3630">Classics</lea:collection>
<lea:subject>Science Fiction</lea:subject>
<lea:cover>Cover.png</lea:cover>
<lea:stylesheet>main.css</lea:stylesheet>
<lea:text>one.xml</lea:text>
<lea:text>two.xml</lea:text>`

const textOne = `<lea:title>The Store of the Worlds</lea:title>
<lea:author>Robert Sheckley</lea:author>
<lea:chapter title="One"><p>See <lea:link>Specialist</lea:link>.</p><lea:image caption="A map">map.png</lea:image></lea:chapter>`

const textTwo = `<lea:title>Specialist</lea:title>
<lea:author>Robert Sheckley</lea:author>
<lea:author>Guest Writer</lea:author>
<p><lea:link to="https://example.com/">site</lea:link></p>
<lea:script>toc</lea:script>`

func pngData(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode() error = %v", err)
	}
	return buf.Bytes()
}

// prepare runs complete transformation over test repository, edits could
// change repository files before that.
func prepare(t *testing.T, edits ...func(files map[string][]byte)) *Book {
	t.Helper()
	files := map[string][]byte{
		"ebooks/book.xml":  []byte(ebookConfig),
		"text/one.xml":     []byte(textOne),
		"text/two.xml":     []byte(textTwo),
		"images/Cover.png": pngData(t, 40, 64),
		"images/map.png":   pngData(t, 8, 8),
		"images/paper.png": pngData(t, 4, 4),
		"styles/main.css":  []byte(`body { background: url("../images/paper.png"); }`),
	}
	for _, edit := range edits {
		edit(files)
	}
	repo := t.TempDir()
	for name, data := range files {
		state.WriteTestFile(t, repo, name, data)
	}

	run := state.NewTestRun(t, repo).WithClock(func() time.Time { return time.Date(2026, 5, 6, 7, 8, 9, 0, time.UTC) })
	ebook := dialect.NewEbook("book.xml", mustRead(t, run.EbookPath("book.xml")))
	if err := ebook.Derive(run.Now()); err != nil {
		t.Fatalf("Derive() error = %v", err)
	}

	ctx := context.Background()
	p := transform.New(run, ebook, nil)
	p.Run(ctx, transform.StageSubfolders)
	for _, txt := range ebook.Texts {
		txt.SetContent(mustRead(t, run.TextPath(txt.FileName)))
		if err := txt.Derive(); err != nil {
			t.Fatalf("Derive(%s) error = %v", txt.FileName, err)
		}
	}
	p.Through(ctx, transform.StageTargets)

	table := ident.Compile(ebook)
	if d := table.Diagnostics(); len(d) != 0 {
		t.Fatalf("Compile() diagnostics = %v", d)
	}
	return &Book{Run: run, Ebook: ebook, IDs: table, Styles: p.Styles()}
}

func mustRead(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(name)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	return data
}

func readArchive(t *testing.T, name string) (names []string, files map[string][]byte) {
	t.Helper()
	r, err := zip.OpenReader(name)
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	defer r.Close()

	files = make(map[string][]byte)
	for _, f := range r.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("Open(%s) error = %v", f.Name, err)
		}
		var buf bytes.Buffer
		if _, err := buf.ReadFrom(rc); err != nil {
			t.Fatalf("read %s error = %v", f.Name, err)
		}
		rc.Close()
		names = append(names, f.Name)
		files[f.Name] = buf.Bytes()
	}
	return names, files
}

func generate(t *testing.T, b *Book) string {
	t.Helper()
	out := filepath.Join(b.Run.EpubDir(), "book.epub")
	if err := Generate(context.Background(), b, out, false, zaptest.NewLogger(t)); err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	return out
}

func TestGenerate_Layout(t *testing.T) {
	b := prepare(t)
	out := generate(t, b)

	if err := Verify(out); err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	names, files := readArchive(t, out)
	if names[0] != "mimetype" || string(files["mimetype"]) != mimetypeContent {
		t.Errorf("first entry = %s %q", names[0], files[names[0]])
	}
	for _, want := range []string{
		"META-INF/container.xml",
		"OEBPS/content.opf",
		"OEBPS/Text/TheStoreOfTheWorldsByRobertSheckley.xhtml",
		"OEBPS/Text/SpecialistByRobertSheckley.xhtml",
		"OEBPS/Text/cover.xhtml",
		"OEBPS/Text/nav.xhtml",
		"OEBPS/Styles/main.css",
		"OEBPS/Images/lea-img-cover.png",
		"OEBPS/Images/lea-img-map.png",
		"OEBPS/Images/lea-img-paper.png",
	} {
		if _, ok := files[want]; !ok {
			t.Errorf("archive does not contain %s, have %v", want, names)
		}
	}
	if css := string(files["OEBPS/Styles/main.css"]); !strings.Contains(css, `url("../Images/lea-img-paper.png")`) {
		t.Errorf("stylesheet was not sanitized: %s", css)
	}
}

func TestGenerate_OPF(t *testing.T) {
	b := prepare(t)
	_, files := readArchive(t, generate(t, b))

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(files["OEBPS/content.opf"]); err != nil {
		t.Fatalf("OPF is not well formed: %v", err)
	}
	pkg := doc.SelectElement("package")
	if got := pkg.SelectAttrValue("unique-identifier", ""); got != "isbn" {
		t.Errorf("unique-identifier = %q, want isbn", got)
	}

	var spine []string
	for _, ref := range pkg.FindElements("spine/itemref") {
		spine = append(spine, ref.SelectAttrValue("idref", ""))
	}
	want := []string{
		"lea-txt-cover-xhtml",
		"lea-txt-the-store-of-the-worlds-by-robert-sheckley",
		"lea-txt-specialist-by-robert-sheckley",
		"lea-txt-nav-xhtml",
	}
	if !slices.Equal(spine, want) {
		t.Errorf("spine = %v, want %v", spine, want)
	}

	props := map[string]string{}
	for _, it := range pkg.FindElements("manifest/item") {
		props[it.SelectAttrValue("id", "")] = it.SelectAttrValue("properties", "")
	}
	for id, want := range map[string]string{
		"lea-txt-cover-xhtml": "svg",
		"lea-txt-nav-xhtml":   "nav",
		"lea-img-cover-png":   "cover-image",
		"lea-img-map-png":     "",
	} {
		got, ok := props[id]
		if !ok {
			t.Errorf("manifest has no item %s", id)
			continue
		}
		if got != want {
			t.Errorf("item %s properties = %q, want %q", id, got, want)
		}
	}

	md := pkg.SelectElement("metadata")
	checks := map[string]string{
		"dc:title":      "Worlds & Wonders",
		"dc:publisher":  "Example Press",
		"dc:rights":     "Copyright 2026 Example Press",
		"dc:language":   "en",
		"dc:date":       "2025-03-03",
		"dc:identifier": "9780306406157",
	}
	for tag, want := range checks {
		if el := md.SelectElement(tag); el == nil || el.Text() != want {
			t.Errorf("%s = %v, want %q", tag, el, want)
		}
	}

	var creators []string
	for _, c := range md.SelectElements("dc:creator") {
		creators = append(creators, c.Text())
	}
	if !slices.Equal(creators, []string{"Robert Sheckley", "Guest Writer"}) {
		t.Errorf("creators = %v", creators)
	}
	var modified string
	for _, m := range md.SelectElements("meta") {
		if m.SelectAttrValue("property", "") == "dcterms:modified" {
			modified = m.Text()
		}
	}
	if modified != "2026-05-06T07:08:09Z" {
		t.Errorf("dcterms:modified = %q", modified)
	}
}

func opfMetadata(t *testing.T, files map[string][]byte) (*etree.Element, []string) {
	t.Helper()
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(files["OEBPS/content.opf"]); err != nil {
		t.Fatalf("OPF is not well formed: %v", err)
	}
	pkg := doc.SelectElement("package")
	var spine []string
	for _, ref := range pkg.FindElements("spine/itemref") {
		spine = append(spine, ref.SelectAttrValue("idref", ""))
	}
	return pkg.SelectElement("metadata"), spine
}

func TestGenerate_DefaultLanguage(t *testing.T) {
	b := prepare(t, func(files map[string][]byte) {
		files["ebooks/book.xml"] = []byte(strings.Replace(ebookConfig, "<lea:language>en</lea:language>", "", 1))
	})
	_, files := readArchive(t, generate(t, b))

	md, _ := opfMetadata(t, files)
	if el := md.SelectElement("dc:language"); el == nil || el.Text() != dialect.DefaultLanguage {
		t.Errorf("dc:language = %v, want %q", el, dialect.DefaultLanguage)
	}
	if one := string(files["OEBPS/Text/TheStoreOfTheWorldsByRobertSheckley.xhtml"]); !strings.Contains(one, `lang="en" xml:lang="en"`) {
		t.Errorf("text language is not set:\n%s", one)
	}
}

func TestGenerate_TextListedTwice(t *testing.T) {
	b := prepare(t, func(files map[string][]byte) {
		files["ebooks/book.xml"] = []byte(ebookConfig + "\n<lea:text>one.xml</lea:text>")
	})
	names, files := readArchive(t, generate(t, b))

	var count int
	for _, name := range names {
		if name == "OEBPS/Text/TheStoreOfTheWorldsByRobertSheckley.xhtml" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("text packaged %d times, want once", count)
	}
	_, spine := opfMetadata(t, files)
	want := []string{
		"lea-txt-cover-xhtml",
		"lea-txt-the-store-of-the-worlds-by-robert-sheckley",
		"lea-txt-specialist-by-robert-sheckley",
		"lea-txt-nav-xhtml",
	}
	if !slices.Equal(spine, want) {
		t.Errorf("spine = %v, want %v", spine, want)
	}
}

func TestGenerate_Texts(t *testing.T) {
	b := prepare(t)
	_, files := readArchive(t, generate(t, b))

	one := string(files["OEBPS/Text/TheStoreOfTheWorldsByRobertSheckley.xhtml"])
	for _, want := range []string{
		`<!DOCTYPE html>`,
		`<body epub:type="bodymatter">`,
		`<section epub:type="chapter"><h1>One</h1>`,
		`<a href="SpecialistByRobertSheckley.xhtml#lea-tgt-specialist">Specialist</a>`,
		`<img src="../Images/lea-img-map.png" alt="A map"/>`,
		`<link rel="stylesheet" type="text/css" href="../Styles/main.css"/>`,
	} {
		if !strings.Contains(one, want) {
			t.Errorf("text does not contain %q:\n%s", want, one)
		}
	}
	if strings.Contains(one, "lea:") {
		t.Errorf("text still has lea elements:\n%s", one)
	}

	cover := string(files["OEBPS/Text/cover.xhtml"])
	if !strings.Contains(cover, `viewBox="0 0 40 64"`) || !strings.Contains(cover, `xlink:href="../Images/lea-img-cover.png"`) {
		t.Errorf("unexpected cover page:\n%s", cover)
	}
	nav := string(files["OEBPS/Text/nav.xhtml"])
	if !strings.Contains(nav, `<nav epub:type="toc" id="toc">`) || !strings.Contains(nav, `<a href="cover.xhtml">Cover</a>`) {
		t.Errorf("unexpected navigation:\n%s", nav)
	}
}

func TestGenerate_Overwrite(t *testing.T) {
	b := prepare(t)
	out := generate(t, b)

	if err := Generate(context.Background(), b, out, false, zaptest.NewLogger(t)); err == nil {
		t.Fatal("Generate() error = nil, want existing file error")
	}
	if err := Generate(context.Background(), b, out, true, zaptest.NewLogger(t)); err != nil {
		t.Fatalf("Generate() with overwrite error = %v", err)
	}
	entries, err := os.ReadDir(filepath.Dir(out))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("output directory has %d entries, want only the package", len(entries))
	}
}

func TestAppendLog(t *testing.T) {
	b := prepare(t)
	out := generate(t, b)

	for _, fix := range []bool{true, false} {
		if err := AppendLog(out, "log content", b.Run.Now(), fix); err != nil {
			t.Fatalf("AppendLog() error = %v", err)
		}
		if err := Verify(out); err != nil {
			t.Fatalf("Verify() after AppendLog error = %v", err)
		}
	}
	names, files := readArchive(t, out)
	if got := string(files[LogName]); got != "log content" {
		t.Errorf("log = %q, want %q", got, "log content")
	}
	var logs int
	for _, n := range names {
		if n == LogName {
			logs++
		}
	}
	if logs != 1 {
		t.Errorf("archive has %d logs, want 1", logs)
	}
}

func TestVerify_Broken(t *testing.T) {
	name := filepath.Join(t.TempDir(), "broken.epub")
	f, err := os.Create(name)
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(f)
	w, _ := zw.Create("OEBPS/content.opf")
	w.Write([]byte("<package/>"))
	w, _ = zw.Create("mimetype")
	w.Write([]byte(mimetypeContent))
	zw.Close()
	f.Close()

	if err := Verify(name); err == nil {
		t.Error("Verify() error = nil, want error")
	}
}

func TestOverture(t *testing.T) {
	if err := Overture(); err != nil {
		t.Fatalf("Overture() error = %v", err)
	}
	if !strings.Contains(Logo(), "ePub anvil") {
		t.Errorf("Logo() = %q", Logo())
	}
}

func TestPlainText(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"<p>Copyright <b>2026</b></p>", "Copyright 2026"},
		{"Tom &amp; Jerry", "Tom & Jerry"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := plainText(tt.in); got != tt.want {
			t.Errorf("plainText(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
