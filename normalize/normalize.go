// Package normalize turns free form names into identifiers and file names
// which are safe to use inside the package.
package normalize

import (
	"net/url"
	"path"
	"strings"
)

// denied runes are never allowed in identifiers and file names.
var denied = []rune{
	' ', '.', '\'', '"', ',', ':', ';', '!', '?', '(',
	')', '[', ']', '{', '}', '&', '/', '\\', '’', '⊙',
	'🝄', '#', '<', '>', '=',
}

// spaces matches what authors usually mean by surrounding whitespace.
const spaces = " \t\n\r\x00\x0B"

func isDenied(r rune) bool {
	for _, d := range denied {
		if r == d {
			return true
		}
	}
	return false
}

func replaceDenied(s string, with rune) string {
	return strings.Map(func(r rune) rune {
		if isDenied(r) {
			return with
		}
		return r
	}, s)
}

// lowerASCII lowercases only ASCII letters, everything else is kept as is so
// results do not depend on Unicode tables.
func lowerASCII(s string) string {
	return strings.Map(func(r rune) rune {
		if 'A' <= r && r <= 'Z' {
			return r + ('a' - 'A')
		}
		return r
	}, s)
}

// upperWords uppercases first ASCII letter of every whitespace separated word.
func upperWords(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	start := true
	for _, r := range s {
		if start && 'a' <= r && r <= 'z' {
			r -= 'a' - 'A'
		}
		start = strings.ContainsRune(" \t\r\n\f\v", r)
		b.WriteRune(r)
	}
	return b.String()
}

// Identifier converts any string to identifier usable in package documents:
// "The World That Couldn't Be by Clifford D. Simak.xhtml" becomes
// "the-world-that-couldn-t-be-by-clifford-d--simak-xhtml".
// Identifier is idempotent.
func Identifier(s string) string {
	return replaceDenied(lowerASCII(strings.Trim(s, spaces)), '-')
}

// TextFileName converts title to the name of text document:
// "The World That Couldn't Be by Clifford D. Simak" becomes
// "TheWorldThatCouldntBeByCliffordDSimak.xhtml".
func TextFileName(title string) string {
	return replaceDenied(upperWords(title), -1) + ".xhtml"
}

// ImageFileName converts image source path to the name of image in the
// package: "covers/2025Q3-cover-512-QR.jpg" becomes "lea-img-2025q3-cover-512-qr.jpg".
func ImageFileName(name string) string {
	base := path.Base(strings.ReplaceAll(name, `\`, "/"))
	ext := path.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	return lowerASCII(replaceDenied("lea-img-"+stem, '-') + ext)
}

// ImageMediaType returns media type for image file name judging by extension only.
func ImageMediaType(name string) string {
	ext := lowerASCII(strings.TrimPrefix(path.Ext(name), "."))
	switch ext {
	case "jpg":
		ext = "jpeg"
	case "svg":
		ext = "svg+xml"
	case "":
		return "application/octet-stream"
	}
	return "image/" + ext
}

// FontMediaType returns media type for font file name judging by extension only.
func FontMediaType(name string) string {
	switch ext := lowerASCII(strings.TrimPrefix(path.Ext(name), ".")); ext {
	case "woff", "woff2", "ttf", "otf":
		return "font/" + ext
	case "eot":
		return "application/vnd.ms-fontobject"
	case "":
		return "application/octet-stream"
	default:
		return "font/" + ext
	}
}

// IsExternalURL reports whether s is a well formed absolute URL, which is
// never resolved against targets of the book.
func IsExternalURL(s string) bool {
	s = strings.TrimSpace(s)
	if len(s) == 0 || strings.ContainsAny(s, spaces) {
		return false
	}
	u, err := url.Parse(s)
	if err != nil || u.Scheme == "" {
		return false
	}
	if u.Host != "" {
		return true
	}
	switch lowerASCII(u.Scheme) {
	case "mailto", "tel", "urn", "news":
		return u.Opaque != ""
	}
	return false
}

// IsWebURL reports whether s is an external URL which could be probed over http(s).
func IsWebURL(s string) bool {
	if !IsExternalURL(s) {
		return false
	}
	u, _ := url.Parse(strings.TrimSpace(s))
	scheme := lowerASCII(u.Scheme)
	return scheme == "http" || scheme == "https"
}
