package transform

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"os"
	"slices"
	"strings"
	"testing"

	"lea/common"
	"lea/diag"
	"lea/dialect"
	"lea/linkcheck"
	"lea/state"
)

type fixture struct {
	run   *state.Run
	ebook *dialect.Ebook
	p     *Pipeline
}

// newFixture creates repository with files, derives ebook from config and
// loads its texts after subfolders were established.
func newFixture(t *testing.T, config string, files map[string]string, probe Prober) *fixture {
	t.Helper()
	repo := t.TempDir()
	for name, content := range files {
		state.WriteTestFile(t, repo, name, []byte(content))
	}
	run := state.NewTestRun(t, repo)
	ebook := dialect.NewEbook("book.xml", []byte(config))
	if err := ebook.Derive(run.Now()); err != nil {
		t.Fatalf("Derive() error = %v", err)
	}
	p := New(run, ebook, probe)
	p.Run(context.Background(), StageSubfolders)
	for _, txt := range ebook.Texts {
		if data, err := os.ReadFile(run.TextPath(txt.FileName)); err == nil {
			txt.SetContent(data)
		}
		_ = txt.Derive()
	}
	return &fixture{run: run, ebook: ebook, p: p}
}

func (f *fixture) through(last Stage) {
	f.p.Through(context.Background(), last)
}

func (f *fixture) text(t *testing.T, name string) string {
	t.Helper()
	txt := f.ebook.FindText(name)
	if txt == nil || txt.Root() == nil {
		t.Fatalf("text %s is not available", name)
	}
	return dialect.InnerXML(txt.Root())
}

func ids(diags []diag.Diagnostic) []string {
	var list []string
	for _, d := range diags {
		list = append(list, d.ID)
	}
	return list
}

func TestPipeline_Order(t *testing.T) {
	f := newFixture(t, `<lea:title>Book</lea:title>`, nil, nil)

	if got := f.p.Next(); got != StageScripts {
		t.Fatalf("Next() = %s, want %s", got, StageScripts)
	}

	defer func() {
		r := recover()
		var oe *OrderError
		err, ok := r.(error)
		if !ok || !errors.As(err, &oe) {
			t.Fatalf("recover() = %v, want *OrderError", r)
		}
		if oe.Want != StageScripts || oe.Got != StageImages {
			t.Errorf("OrderError = %+v", oe)
		}
	}()
	f.p.Run(context.Background(), StageImages)
}

func TestPipeline_RepeatedStage(t *testing.T) {
	f := newFixture(t, `<lea:title>Book</lea:title>`, nil, nil)
	f.through(StageTargets)

	defer func() {
		if r := recover(); r == nil {
			t.Fatal("repeated stage did not panic")
		}
	}()
	f.p.Run(context.Background(), StageTargets)
}

func TestStageString(t *testing.T) {
	tests := []struct {
		s    Stage
		want string
	}{
		{StageSubfolders, "subfolders"},
		{StageHarvestImages, "harvest images"},
		{StageTargets, "targets"},
		{Stage(42), "stage(42)"},
	}
	for _, tt := range tests {
		if got := tt.s.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestSubfolders(t *testing.T) {
	f := newFixture(t, `<lea:title>Book</lea:title>
<lea:subfolder>issue-8</lea:subfolder>
<lea:subfolder tag="Images">/art/</lea:subfolder>
<lea:subfolder tag="audio">sounds</lea:subfolder>
<lea:defaultcaption>Public domain</lea:defaultcaption>
<lea:image>logo.png</lea:image>
<lea:text>one.xml</lea:text>`, map[string]string{
		"text/issue-8/one.xml": `<lea:title>One</lea:title><lea:author>A</lea:author><p/>`,
	}, nil)

	if got := f.run.Store.Subfolder(common.SubfolderTagText); got != "issue-8/" {
		t.Errorf("text subfolder = %q, want %q", got, "issue-8/")
	}
	if got := f.run.Store.Subfolder(common.SubfolderTagImages); got != "art/" {
		t.Errorf("images subfolder = %q, want %q", got, "art/")
	}
	if got := f.run.Store.DefaultCaption; got != "Public domain" {
		t.Errorf("DefaultCaption = %q", got)
	}
	if img := f.ebook.Images[0]; img.Folder != "art/" || img.Caption != "Public domain" {
		t.Errorf("image = %+v", img)
	}
	if !f.ebook.FindText("one.xml").Derived() {
		t.Error("text from subfolder was not loaded")
	}
	if got := ids(f.run.Diags.Current()); !slices.Equal(got, []string{diag.SubfolderTagUndefined}) {
		t.Errorf("diagnostics = %v", got)
	}
}

const twoTexts = `<lea:title>Book</lea:title>
<lea:text>one.xml</lea:text>
<lea:text>two.xml</lea:text>`

func TestScripts(t *testing.T) {
	f := newFixture(t, twoTexts, map[string]string{
		"text/one.xml": `<lea:title>Part 10</lea:title><lea:author>Jane Doe</lea:author>
<lea:rights><p>Rights one</p></lea:rights>
<lea:blurb><p>Blurb one</p></lea:blurb>
<div id="toc"><lea:script>TOC</lea:script></div>
<div id="plain"><lea:script>toc plain</lea:script></div>
<div id="rights"><lea:script>colophon</lea:script></div>
<div id="blurbs"><lea:script heading-class="h">blurbs</lea:script></div>
<div id="authors"><lea:script folder="bio/" class="sep">list authors</lea:script></div>
<div id="nope"><lea:script>no such script</lea:script></div>`,
		"text/two.xml": `<lea:title>Part 2</lea:title><lea:author>Alan Smithee</lea:author><p/>`,
	}, nil)
	f.through(StageScripts)

	got := f.text(t, "one.xml")
	for _, want := range []string{
		`<div id="toc"><ol><li><lea:link>Part 10</lea:link></li><li><lea:link>Part 2</lea:link></li></ol></div>`,
		`<div id="plain">Part 2, Part 10.</div>`,
		`<div id="rights"><p>Rights one</p>`,
		`<h4 class="h"><lea:link>Part 10 by Jane Doe</lea:link></h4><p>Blurb one</p>`,
		`<div id="authors"><lea:block>bio/Alan Smithee.xhtml</lea:block><div class="sep"/><lea:block>bio/Jane Doe.xhtml</lea:block></div>`,
		`<div id="nope"><lea:script>no such script</lea:script></div>`,
	} {
		if !strings.Contains(got, want) {
			t.Errorf("text does not contain %q:\n%s", want, got)
		}
	}

	d := f.run.Diags.Current()
	if len(d) != 1 || d[0].ID != diag.ScriptUndefined || d[0].Severity != common.SeveritySevere {
		t.Fatalf("diagnostics = %v, want single severe %s", ids(d), diag.ScriptUndefined)
	}
	if !strings.Contains(d[0].Suggestion, "'no such script'") {
		t.Errorf("suggestion = %q", d[0].Suggestion)
	}
}

func TestScripts_PlainFilter(t *testing.T) {
	f := newFixture(t, twoTexts, map[string]string{
		"text/one.xml": `<lea:title>Intro</lea:title><lea:author>A</lea:author><p><lea:script filter="Intro">toc plain</lea:script></p>`,
		"text/two.xml": `<lea:title>Story</lea:title><lea:author>A</lea:author>`,
	}, nil)
	f.through(StageScripts)

	if got := f.text(t, "one.xml"); !strings.Contains(got, "<p>Story.</p>") {
		t.Errorf("text = %s", got)
	}
}

func TestScripts_LinkedImage(t *testing.T) {
	f := newFixture(t, `<lea:title>Book</lea:title><lea:text>one.xml</lea:text>`, map[string]string{
		"text/one.xml": `<lea:title>One</lea:title><lea:author>A</lea:author>
<lea:script to="https://example.com/" image="ads/Banner.png" folder="promo">linked image</lea:script>
<lea:script image="x.png">linked image</lea:script>
<lea:script to="One">linked image</lea:script>`,
	}, nil)
	f.p.Run(context.Background(), StageScripts)

	got := f.text(t, "one.xml")
	want := `<figure><lea:link to="https://example.com/"><img src="../Images/lea-img-banner.png" alt=""/></lea:link></figure>`
	if !strings.Contains(got, want) {
		t.Errorf("text does not contain %q:\n%s", want, got)
	}
	if n := strings.Count(got, "<lea:script"); n != 2 {
		t.Errorf("%d scripts left in place, want 2", n)
	}
	if !slices.ContainsFunc(f.ebook.Images, func(i dialect.Image) bool {
		return i.FileName == "ads/Banner.png" && i.Folder == "promo/"
	}) {
		t.Errorf("image was not registered: %+v", f.ebook.Images)
	}
	if got := ids(f.run.Diags.Current()); !slices.Equal(got, []string{diag.LinkedImageMissingTo, diag.LinkedImageMissingImage}) {
		t.Errorf("diagnostics = %v", got)
	}
}

func TestLookup(t *testing.T) {
	for _, name := range []string{"toc", " Table Of Contents ", "LIST AUTHORS"} {
		if _, ok := Lookup(name); !ok {
			t.Errorf("Lookup(%q) not found", name)
		}
	}
	if _, ok := Lookup("tocs"); ok {
		t.Error("Lookup(tocs) found")
	}
	names := ScriptNames()
	if !slices.IsSorted(names) || !slices.Contains(names, "linked image") {
		t.Errorf("ScriptNames() = %v", names)
	}
}

func TestBlocks(t *testing.T) {
	f := newFixture(t, `<lea:title>Book</lea:title><lea:text>one.xml</lea:text>`, map[string]string{
		"text/one.xml":   `<lea:title>One</lea:title><lea:author>A</lea:author><div><lea:block>bio.xml</lea:block></div><lea:block>missing.xml</lea:block>`,
		"blocks/bio.xml": `<?xml version="1.0"?><p>About <b>A</b></p><p>More</p>`,
	}, nil)
	f.through(StageBlocks)

	got := f.text(t, "one.xml")
	if !strings.Contains(got, `<div><p>About <b>A</b></p><p>More</p></div>`) {
		t.Errorf("block was not included:\n%s", got)
	}
	d := f.run.Diags.Current()
	if len(d) != 1 || d[0].ID != diag.BlockReadError {
		t.Fatalf("diagnostics = %v", ids(d))
	}
	if !strings.Contains(d[0].Suggestion, "missing.xml") {
		t.Errorf("suggestion = %q", d[0].Suggestion)
	}
}

func TestStylesheets(t *testing.T) {
	f := newFixture(t, `<lea:title>Book</lea:title>
<lea:stylesheet>main.css</lea:stylesheet>
<lea:stylesheet>absent.css</lea:stylesheet>
<lea:font>fonts/Body.ttf</lea:font>`, map[string]string{
		"styles/main.css": `@font-face { src: url(Body.ttf); } @font-face { src: url("Head.woff2"); } h1 { background: url(bg.jpg); }`,
	}, nil)
	f.through(StageStylesheets)

	styles := f.p.Styles()
	if len(styles) != 1 {
		t.Fatalf("Styles() = %d entries, want 1", len(styles))
	}
	css := string(styles["main.css"])
	for _, want := range []string{`url("../Fonts/Body.ttf")`, `url("../Fonts/Head.woff2")`, `url("../Images/lea-img-bg.jpg")`} {
		if !strings.Contains(css, want) {
			t.Errorf("stylesheet does not contain %s: %s", want, css)
		}
	}
	if !slices.Equal(f.ebook.Fonts, []string{"fonts/Body.ttf", "Head.woff2"}) {
		t.Errorf("Fonts = %v", f.ebook.Fonts)
	}
	if !slices.ContainsFunc(f.ebook.Images, func(i dialect.Image) bool { return i.FileName == "bg.jpg" }) {
		t.Errorf("Images = %+v", f.ebook.Images)
	}
}

func TestStructureAndImages(t *testing.T) {
	f := newFixture(t, `<lea:title>Book</lea:title><lea:defaultcaption>PD</lea:defaultcaption><lea:text>one.xml</lea:text>`, map[string]string{
		"text/one.xml": `<lea:title>One</lea:title><lea:author>A</lea:author>
<lea:chapter title="First" class="c"><lea:section title="Inner"><p>x</p></lea:section><lea:section><p>y</p></lea:section></lea:chapter>
<lea:image>pics/Map One.png</lea:image><lea:image caption="Own">b.jpg</lea:image>`,
	}, nil)
	f.through(StageImages)

	got := f.text(t, "one.xml")
	for _, want := range []string{
		`<section epub:type="chapter" class="c"><h1>First</h1><section><h2>Inner</h2><p>x</p></section><section><p>y</p></section></section>`,
		`<figure><img src="../Images/lea-img-map-one.png" alt="PD"/><figcaption>PD</figcaption></figure>`,
		`<figure><img src="../Images/lea-img-b.jpg" alt="Own"/><figcaption>Own</figcaption></figure>`,
	} {
		if !strings.Contains(got, want) {
			t.Errorf("text does not contain %q:\n%s", want, got)
		}
	}
	for _, img := range f.ebook.Images {
		if img.FileName == "pics/Map One.png" && img.Caption != "PD" {
			t.Errorf("harvested caption = %q, want PD", img.Caption)
		}
	}
}

func TestSynthesize(t *testing.T) {
	f := newFixture(t, `<lea:title>Book</lea:title><lea:cover>missing.jpg</lea:cover>`+
		`<lea:text>one.xml</lea:text><lea:text>absent.xml</lea:text>`, map[string]string{
		"text/one.xml": `<lea:title>One</lea:title><lea:author>A</lea:author><p/>`,
	}, nil)
	f.through(StageSynthesize)

	var names []string
	for _, txt := range f.ebook.Texts {
		names = append(names, txt.FileName)
	}
	if !slices.Equal(names, []string{"one.xml", "absent.xml", dialect.CoverFileName, dialect.NavFileName}) {
		t.Fatalf("texts = %v", names)
	}

	cover := f.text(t, dialect.CoverFileName)
	if !strings.Contains(cover, `viewBox="0 0 1600 2560"`) || !strings.Contains(cover, `xlink:href="../Images/lea-img-missing.jpg"`) {
		t.Errorf("cover = %s", cover)
	}
	nav := f.ebook.FindText(dialect.NavFileName)
	if !nav.Synthetic || nav.Title != NavTitle {
		t.Errorf("nav = %+v", nav)
	}
	got := f.text(t, dialect.NavFileName)
	want := `<ol><li><a href="cover.xhtml">Cover</a></li><li><a href="OneByA.xhtml">One</a></li><li><a href="nav.xhtml">Table of Contents</a></li></ol>`
	if !strings.Contains(got, want) {
		t.Errorf("nav does not contain %q:\n%s", want, got)
	}
}

func TestSynthesize_CoverSize(t *testing.T) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewGray(image.Rect(0, 0, 40, 64))); err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		name    string
		cover   string
		content string
		want    string
	}{
		{"raster", "front.png", buf.String(), `viewBox="0 0 40 64"`},
		{"drawing", "front.svg", `<svg xmlns="http://www.w3.org/2000/svg" version="1.1" width="600" height="900" viewBox="0 0 600 900">` +
			`<rect x="0" y="0" width="600" height="900" fill="#123456"/></svg>`, `viewBox="0 0 600 900"`},
		{"broken drawing", "front.svg", "not a drawing", `viewBox="0 0 1600 2560"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, `<lea:title>Book</lea:title><lea:cover>`+tt.cover+`</lea:cover>`,
				map[string]string{"images/" + tt.cover: tt.content}, nil)
			f.through(StageSynthesize)

			if cover := f.text(t, dialect.CoverFileName); !strings.Contains(cover, tt.want) {
				t.Errorf("cover does not contain %q:\n%s", tt.want, cover)
			}
		})
	}
}

func TestMergeAuthors(t *testing.T) {
	f := newFixture(t, twoTexts+`<lea:author>Jane Doe</lea:author>`, map[string]string{
		"text/one.xml": `<lea:title>One</lea:title><lea:author file-as="Doe, Jane">Jane Doe</lea:author><lea:author>Alan Smithee</lea:author>`,
		"text/two.xml": `<lea:title>Two</lea:title><lea:author file-as="Smithee, A.">Alan Smithee</lea:author>`,
	}, nil)
	f.through(StageMergeAuthors)

	want := []dialect.Author{{Name: "Jane Doe", FileAs: "Doe, Jane"}, {Name: "Alan Smithee", FileAs: "Smithee, A."}}
	if !slices.Equal(f.ebook.Authors, want) {
		t.Errorf("Authors = %+v, want %+v", f.ebook.Authors, want)
	}
}

func TestWebLinks(t *testing.T) {
	f := newFixture(t, twoTexts, map[string]string{
		"text/one.xml": `<lea:title>One</lea:title><lea:author>A</lea:author>
<lea:link to="https://Example.com/a">a</lea:link><lea:link>https://example.com/A</lea:link><lea:link>Two</lea:link>`,
		"text/two.xml": `<lea:title>Two</lea:title><lea:author>A</lea:author><lea:link to="http://other.org/">o</lea:link>`,
	}, nil)

	got := WebLinks(f.ebook.Texts)
	want := []string{"https://Example.com/a", "http://other.org/"}
	if !slices.Equal(got, want) {
		t.Errorf("WebLinks() = %v, want %v", got, want)
	}
}

func TestLinkCheck(t *testing.T) {
	texts := map[string]string{
		"text/one.xml": `<lea:title>One</lea:title><lea:author>A</lea:author>
<lea:link to="https://example.com/ok">ok</lea:link><lea:link to="https://example.com/gone">g</lea:link><lea:link to="https://slow.example.com/">s</lea:link>`,
	}
	config := `<lea:title>Book</lea:title><lea:text>one.xml</lea:text>`

	t.Run("disabled", func(t *testing.T) {
		f := newFixture(t, config, texts, nil)
		f.run.Store.CheckLinks = true
		f.through(StageLinkCheck)
		if got := ids(f.run.Diags.Current()); !slices.Equal(got, []string{diag.LinksNotChecked}) {
			t.Errorf("diagnostics = %v", got)
		}
	})

	t.Run("probed", func(t *testing.T) {
		var asked []string
		probe := func(_ context.Context, urls []string) []linkcheck.Result {
			asked = urls
			return []linkcheck.Result{
				{URL: urls[0], Status: 200},
				{URL: urls[1], Status: 410},
				{URL: urls[2], Err: context.DeadlineExceeded},
			}
		}
		f := newFixture(t, config, texts, probe)
		f.run.Store.CheckLinks = true
		f.through(StageLinkCheck)

		if len(asked) != 3 {
			t.Fatalf("prober asked for %v", asked)
		}
		d := f.run.Diags.Current()
		if got := ids(d); !slices.Equal(got, []string{diag.ExternalLinkCheckFailed, diag.ExternalLinkCheckTimeout}) {
			t.Fatalf("diagnostics = %v", got)
		}
		if !strings.Contains(d[0].Message, "https://example.com/gone") || !strings.Contains(d[0].Message, "410") {
			t.Errorf("message = %q", d[0].Message)
		}
	})
}

func TestTargets(t *testing.T) {
	f := newFixture(t, twoTexts, map[string]string{
		"text/one.xml": `<lea:title>One</lea:title><lea:author>Jane Doe</lea:author>
<p><lea:link>Two</lea:link> <lea:link to="two by jane doe" class="x">by</lea:link> <lea:link to="Notes">n</lea:link></p>
<p><lea:link to="mailto:me@example.com">mail</lea:link></p>`,
		"text/two.xml": `<lea:title>Two</lea:title><lea:author>Jane Doe</lea:author>
<h3><lea:target>Notes</lea:target>Notes</h3>`,
	}, nil)
	f.through(StageTargets)

	if d := f.run.Diags.Current(); !diag.Pass(d) {
		t.Fatalf("diagnostics = %v", ids(d))
	}

	one := f.text(t, "one.xml")
	for _, want := range []string{
		`<a id="lea-tgt-one"/><a id="lea-tgt-one-by-jane-doe"/>`,
		`<a href="TwoByJaneDoe.xhtml#lea-tgt-two">Two</a>`,
		`<a href="TwoByJaneDoe.xhtml#lea-tgt-two-by-jane-doe" class="x">by</a>`,
		`<a href="TwoByJaneDoe.xhtml#lea-tgt-notes">n</a>`,
		`<a href="mailto:me@example.com">mail</a>`,
	} {
		if !strings.Contains(one, want) {
			t.Errorf("text one does not contain %q:\n%s", want, one)
		}
	}
	two := f.text(t, "two.xml")
	if !strings.Contains(two, `<h3><a id="lea-tgt-notes"/>Notes</h3>`) {
		t.Errorf("text two = %s", two)
	}
	nav := f.text(t, dialect.NavFileName)
	if !strings.Contains(nav, `<h1><a id="lea-tgt-table-of-contents"/>Table of Contents</h1>`) {
		t.Errorf("nav = %s", nav)
	}
}

func TestTargets_Undefined(t *testing.T) {
	f := newFixture(t, `<lea:title>Book</lea:title><lea:text>one.xml</lea:text>`, map[string]string{
		"text/one.xml": `<lea:title>One</lea:title><lea:author>A</lea:author><p><lea:link to="#undefined">x</lea:link></p>`,
	}, nil)
	f.through(StageTargets)

	var fatal []diag.Diagnostic
	for _, d := range f.run.Diags.Current() {
		if d.Severity == common.SeverityFatal {
			fatal = append(fatal, d)
		}
	}
	if len(fatal) != 1 || fatal[0].ID != diag.LinkTargetUndefined {
		t.Fatalf("fatal diagnostics = %v, want single %s", ids(fatal), diag.LinkTargetUndefined)
	}
	if !strings.Contains(fatal[0].Suggestion, "'#undefined'") {
		t.Errorf("suggestion = %q", fatal[0].Suggestion)
	}
}

func TestTargets_MetadataSkipped(t *testing.T) {
	f := newFixture(t, `<lea:title>Book</lea:title><lea:text>one.xml</lea:text>`, map[string]string{
		"text/one.xml": `<lea:title>One</lea:title><lea:author>A</lea:author>
<lea:blurb>Read <lea:link to="#nowhere">more</lea:link>.</lea:blurb>
<lea:rights>See <lea:link to="https://rights.example.com/">terms</lea:link><lea:target>Terms</lea:target></lea:rights>
<p><lea:link to="https://example.com/">home</lea:link></p>`,
	}, nil)

	if got, want := WebLinks(f.ebook.Texts), []string{"https://example.com/"}; !slices.Equal(got, want) {
		t.Errorf("WebLinks() = %v, want %v", got, want)
	}

	f.through(StageTargets)
	if d := f.run.Diags.Current(); !diag.Pass(d) {
		t.Fatalf("diagnostics = %v", ids(d))
	}
	one := f.text(t, "one.xml")
	if strings.Contains(one, "lea-tgt-terms") {
		t.Errorf("target in rights was registered:\n%s", one)
	}
	if !strings.Contains(one, `<a href="https://example.com/">home</a>`) {
		t.Errorf("text one = %s", one)
	}
}

func TestReflow(t *testing.T) {
	f := newFixture(t, `<lea:title>Book</lea:title><lea:stylesheet>css/main.css</lea:stylesheet><lea:text>one.xml</lea:text>`,
		map[string]string{
			"text/one.xml": `<lea:title>One &amp; Only</lea:title><lea:author>A</lea:author><p>Hi <lea:unknown>gone</lea:unknown>there</p>`,
		}, nil)
	f.through(StageTargets)

	doc := Reflow(f.ebook.FindText("one.xml"), f.ebook)
	got, err := doc.WriteToString()
	if err != nil {
		t.Fatalf("WriteToString() error = %v", err)
	}
	for _, want := range []string{
		`<?xml version="1.0" encoding="UTF-8"?>`,
		`<!DOCTYPE html>`,
		`<html xmlns="http://www.w3.org/1999/xhtml" xmlns:epub="http://www.idpf.org/2007/ops" lang="en" xml:lang="en">`,
		`<title>One &amp; Only</title>`,
		`href="../Styles/main.css"`,
		`<p>Hi there</p>`,
	} {
		if !strings.Contains(got, want) {
			t.Errorf("Reflow() does not contain %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "<lea:") {
		t.Errorf("Reflow() left lea elements:\n%s", got)
	}
	// text tree itself is untouched
	if !strings.Contains(f.text(t, "one.xml"), "<lea:unknown>") {
		t.Error("Reflow() modified text tree")
	}
}
