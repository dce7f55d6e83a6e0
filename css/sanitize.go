// Package css prepares stylesheets for packaging. Local resources referenced
// with url() are redirected into package folders and reported to the caller,
// so they could be packaged too.
package css

import (
	"bytes"
	"errors"
	"io"
	"path"
	"slices"
	"strings"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
	"go.uber.org/zap"

	"lea/normalize"
)

// Sheet is sanitized stylesheet.
type Sheet struct {
	Data []byte
	// local font file names referenced by the sheet
	Fonts []string
	// local image file names referenced by the sheet
	Images []string
}

var (
	fontExts  = []string{".ttf", ".otf", ".woff", ".woff2", ".eot"}
	imageExts = []string{".jpg", ".jpeg", ".png", ".gif", ".svg", ".webp"}
)

// Sanitize rewrites url() references. Everything else is copied as is, token
// by token.
func Sanitize(data []byte, log *zap.Logger) Sheet {
	if log == nil {
		log = zap.NewNop()
	}

	var (
		sheet Sheet
		out   bytes.Buffer
	)
	out.Grow(len(data))

	lexer := css.NewLexer(parse.NewInput(bytes.NewReader(data)))
	for {
		tt, text := lexer.Next()
		if tt == css.ErrorToken {
			if err := lexer.Err(); err != nil && !errors.Is(err, io.EOF) {
				log.Warn("Stylesheet is broken, the rest is dropped", zap.Error(err))
			}
			break
		}
		if tt != css.URLToken {
			out.Write(text)
			continue
		}

		ref := urlValue(string(text))
		rewritten, kind := sheet.rewrite(ref)
		if kind == "" {
			log.Debug("Keeping url as is", zap.String("url", ref))
			out.Write(text)
			continue
		}
		log.Debug("Redirecting url", zap.String("url", ref), zap.String("to", rewritten), zap.String("kind", kind))
		out.WriteString(`url("` + rewritten + `")`)
	}
	sheet.Data = out.Bytes()
	return sheet
}

// rewrite returns new reference and kind of resource, empty kind means
// reference should not be touched.
func (s *Sheet) rewrite(ref string) (string, string) {
	if ref == "" || strings.HasPrefix(ref, "data:") || strings.HasPrefix(ref, "#") || normalize.IsExternalURL(ref) {
		return ref, ""
	}
	if i := strings.IndexAny(ref, "?#"); i >= 0 {
		ref = ref[:i]
	}
	name := path.Base(strings.ReplaceAll(ref, `\`, "/"))
	ext := strings.ToLower(path.Ext(name))
	switch {
	case slices.Contains(fontExts, ext):
		if !slices.Contains(s.Fonts, name) {
			s.Fonts = append(s.Fonts, name)
		}
		return "../Fonts/" + name, "font"
	case slices.Contains(imageExts, ext):
		if !slices.Contains(s.Images, name) {
			s.Images = append(s.Images, name)
		}
		return "../Images/" + normalize.ImageFileName(name), "image"
	}
	return ref, ""
}

// urlValue extracts reference from url(...) token.
func urlValue(token string) string {
	s := strings.TrimSpace(token)
	if len(s) >= 4 && strings.EqualFold(s[:4], "url(") {
		s = s[4:]
	}
	s = strings.TrimSpace(strings.TrimSuffix(s, ")"))
	if len(s) >= 2 && (s[0] == '"' && s[len(s)-1] == '"' || s[0] == '\'' && s[len(s)-1] == '\'') {
		s = s[1 : len(s)-1]
	}
	return strings.TrimSpace(s)
}
