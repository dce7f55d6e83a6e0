// Package diag keeps everything related to compilation diagnostics: message
// catalog, accumulation between checkpoints and human readable output.
package diag

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"lea/common"
)

// Subject is the domain object diagnostic refers to.
type Subject interface {
	SourceFile() string
}

// File is a subject for low level diagnostics which only know file name.
type File string

func (f File) SourceFile() string {
	return string(f)
}

// Diagnostic is an immutable rendered message.
type Diagnostic struct {
	Subject    Subject
	ID         string
	Severity   common.Severity
	Message    string
	Suggestion string
}

// ContractError reports misuse of the message catalog. It is never a user
// facing condition and is raised with panic.
type ContractError struct {
	ID     string
	Reason string
}

func (e *ContractError) Error() string {
	return fmt.Sprintf("diagnostic %q: %s", e.ID, e.Reason)
}

var placeholder = regexp.MustCompile(`#\d+#`)

// New renders diagnostic from the catalog. Number of params must match number
// of placeholders in message and suggestion combined.
func New(subject Subject, id string, params ...string) Diagnostic {
	tmpl, ok := catalog[id]
	if !ok {
		panic(&ContractError{ID: id, Reason: "undefined message"})
	}
	if n := len(placeholder.FindAllString(tmpl.message+tmpl.suggestion, -1)); n != len(params) {
		panic(&ContractError{ID: id, Reason: fmt.Sprintf("%d parameters given for %d placeholders", len(params), n)})
	}

	pairs := make([]string, 0, 2*len(params))
	for i, p := range params {
		pairs = append(pairs, "#"+strconv.Itoa(i+1)+"#", p)
	}
	r := strings.NewReplacer(pairs...)

	return Diagnostic{
		Subject:    subject,
		ID:         id,
		Severity:   tmpl.severity,
		Message:    r.Replace(tmpl.message),
		Suggestion: r.Replace(tmpl.suggestion),
	}
}

// SeverityOf returns catalog severity for the message id.
func SeverityOf(id string) (common.Severity, bool) {
	tmpl, ok := catalog[id]
	return tmpl.severity, ok
}

// Accumulator keeps diagnostics of the current phase and the history of all
// previous phases. It is not safe for concurrent use.
type Accumulator struct {
	current []Diagnostic
	history []Diagnostic
}

// Add appends diagnostic to the current phase.
func (a *Accumulator) Add(d Diagnostic) {
	a.current = append(a.current, d)
}

// Cry renders diagnostic and adds it to the current phase.
func (a *Accumulator) Cry(subject Subject, id string, params ...string) {
	a.Add(New(subject, id, params...))
}

// Current returns diagnostics of the current phase.
func (a *Accumulator) Current() []Diagnostic {
	return a.current
}

// Silence closes current phase moving its diagnostics to history.
func (a *Accumulator) Silence() {
	a.history = append(a.history, a.current...)
	a.current = nil
}

// History returns all diagnostics, closed phases first.
func (a *Accumulator) History() []Diagnostic {
	all := make([]Diagnostic, 0, len(a.history)+len(a.current))
	all = append(all, a.history...)
	return append(all, a.current...)
}

// Pass reports whether list has no fatal diagnostics.
func Pass(diags []Diagnostic) bool {
	for _, d := range diags {
		if d.Severity == common.SeverityFatal {
			return false
		}
	}
	return true
}

// InfoOnly reports whether every diagnostic in the list is informational.
func InfoOnly(diags []Diagnostic) bool {
	for _, d := range diags {
		if d.Severity != common.SeverityInfo {
			return false
		}
	}
	return true
}
