// Package validate implements two phases of ebook checks. Checks never stop
// on the first problem, everything found is recorded as diagnostics in the
// run context and evaluated at checkpoints.
package validate

import (
	"errors"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/language"

	"lea/common"
	"lea/dialect"
	"lea/diag"
	"lea/state"
)

// PhaseOne checks ebook configuration and all its texts before any
// transformation. It returns false when ebook configuration itself is
// unusable, in which case nothing else was checked.
func PhaseOne(run *state.Run, ebook *dialect.Ebook) bool {
	src := run.EbookPath(ebook.FileName)

	if err := ebook.Derive(run.Now()); err != nil {
		run.Log.Debug("Unable to derive ebook", zap.Error(err))
		if errors.Is(err, dialect.ErrNotRead) {
			run.Cry(ebook, diag.EbookReadError, src)
		} else {
			run.Cry(ebook, diag.EbookNotWellFormed, src)
		}
		return false
	}

	if ebook.Title == "" {
		run.Cry(ebook, diag.EbookTitleRequired, src)
	}
	if ebook.Count("title") > 1 {
		run.Cry(ebook, diag.EbookMultipleTitles, ebook.Title, src)
	}
	if ebook.Description == "" {
		run.Cry(ebook, diag.EbookDescriptionRecommended, src)
	}
	if ebook.Count("description") > 1 {
		run.Cry(ebook, diag.EbookMultipleDescriptions, ebook.Description, src)
	}
	if !ebook.Publisher.IsValid() {
		run.Cry(ebook, diag.EbookPublisherRecommended, src)
	}
	if ebook.Rights == "" {
		run.Cry(ebook, diag.EbookRightsRecommended, src)
	}
	if ebook.Count("rights") > 1 {
		run.Cry(ebook, diag.EbookMultipleRights, ebook.Rights, src)
	}
	checkLanguage(run, ebook, src)
	checkAuthors(run, ebook, src)
	if !ebook.Date.IsValid() {
		run.Cry(ebook, diag.EbookInvalidDate, src)
	}
	if ebook.InvalidContributors > 0 {
		run.Cry(ebook, diag.EbookInvalidContributor, strconv.Itoa(len(ebook.Contributors)), src)
	}
	if !ebook.ISBN.IsValid() {
		run.Cry(ebook, diag.EbookInvalidISBN, ebook.ISBN.String(), src)
	}
	if ebook.Count("isbn") > 1 {
		run.Cry(ebook, diag.EbookMultipleISBNs, ebook.ISBN.String(), src)
	}
	if len(ebook.Subjects) == 0 {
		run.Cry(ebook, diag.EbookSubjectRecommended, src)
	}
	checkCover(run, ebook, src)
	if ebook.Count("collection") > 0 && !ebook.Collection.IsValid() {
		run.Cry(ebook, diag.EbookInvalidCollection, src)
	}

	for _, text := range ebook.Texts {
		if !text.Synthetic {
			checkText(run, text)
		}
	}
	return true
}

func checkLanguage(run *state.Run, ebook *dialect.Ebook, src string) {
	if ebook.Language == "" {
		run.Cry(ebook, diag.EbookLanguageRecommended, src)
		return
	}
	if _, err := language.Parse(ebook.Language); err != nil {
		run.Cry(ebook, diag.EbookLanguageInvalid, ebook.Language, src)
	}
}

func checkAuthors(run *state.Run, ebook *dialect.Ebook, src string) {
	switch {
	case ebook.Count("author") == 0:
		run.Cry(ebook, diag.EbookAuthorRequired, src)
	case len(ebook.Authors) == 0:
		run.Cry(ebook, diag.EbookInvalidAuthors, "0", src)
	case ebook.InvalidAuthors > 0:
		// some authors are usable, empty ones were dropped
		run.Log.Warn("Ignoring empty author tags", zap.String("ebook", ebook.FileName), zap.Int("count", ebook.InvalidAuthors))
	}
}

func checkCover(run *state.Run, ebook *dialect.Ebook, src string) {
	if ebook.Cover != "" {
		path := run.ImagePath(run.Store.Subfolder(common.SubfolderTagImages), ebook.Cover)
		if _, ok := run.Locate(ebook, path); !ok {
			run.Cry(ebook, diag.EbookInvalidCover, path, src)
		}
	}
	if ebook.Count("cover") > 1 {
		run.Cry(ebook, diag.EbookMultipleCovers, ebook.Cover, src)
	}
}

func checkText(run *state.Run, text *dialect.Text) {
	src := run.TextPath(text.FileName)

	if err := text.Derive(); err != nil {
		if errors.Is(err, dialect.ErrNotRead) {
			run.Cry(text, diag.TextReadError, src)
		} else {
			run.Cry(text, diag.TextNotWellFormed, src)
		}
		return
	}

	if text.Title == "" {
		run.Cry(text, diag.TextTitleRequired, src)
	}
	if text.Count("title") > 1 {
		run.Cry(text, diag.TextMultipleTitles, text.Title, src)
	}
	switch {
	case text.Count("author") == 0:
		run.Cry(text, diag.TextAuthorRequired, src)
	case len(text.Authors) == 0:
		run.Cry(text, diag.TextInvalidAuthors, "0", src)
	}
	if text.Count("blurb") > 1 {
		run.Cry(text, diag.TextMultipleBlurbs, text.Blurb, src)
	}
}

// PhaseTwo checks that everything transformation produced or referenced can
// actually be packaged.
func PhaseTwo(run *state.Run, ebook *dialect.Ebook) {
	src := run.EbookPath(ebook.FileName)

	var missing []string
	for _, img := range ebook.Images {
		path := run.ImagePath(img.Folder, img.FileName)
		if _, ok := run.Locate(ebook, path); !ok {
			missing = append(missing, path)
		}
	}
	if len(missing) > 0 {
		run.Cry(ebook, diag.ImageReadError, strconv.Itoa(len(missing)), strings.Join(missing, "\n"), src)
	}

	for _, name := range ebook.Stylesheets {
		if _, ok := run.Locate(ebook, run.StylePath(name)); !ok {
			run.Cry(ebook, diag.StylesheetReadError, run.StylePath(name), src)
		}
	}
	for _, name := range ebook.Fonts {
		if _, ok := run.Locate(ebook, run.FontPath(name)); !ok {
			run.Cry(ebook, diag.FontReadError, run.FontPath(name), src)
		}
	}

	if !run.Store.CheckEpub {
		run.Cry(ebook, diag.EpubNotChecked, ebook.FileName)
	}
}
