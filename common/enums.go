// Package common keeps enumerations shared by the compilation stages.
package common

// Severity of a diagnostic produced while compiling an ebook. Only fatal
// diagnostics stop package production.
// ENUM(info, warning, severe, fatal)
type Severity int

// Kind of entity which receives an identifier in the package.
// ENUM(author, contributor, text, font, stylesheet, image)
type EntityKind int

// Scope of subfolder declaration.
// ENUM(text, images)
type SubfolderTag int

// Label returns capitalized severity name for human readable output.
func (x Severity) Label() string {
	switch x {
	case SeverityInfo:
		return "Info"
	case SeverityWarning:
		return "Warning"
	case SeveritySevere:
		return "Severe"
	case SeverityFatal:
		return "Fatal"
	default:
		return x.String()
	}
}
