package diag

import (
	"fmt"
	"io"
	"strings"

	"lea/common"
)

const (
	ansiReset   = "\033[0m"
	ansiBold    = "\033[1m"
	ansiInverse = "\033[7m"
	ansiRed     = "\033[31m"
	ansiYellow  = "\033[33m"
	ansiBlue    = "\033[34m"
	ansiMagenta = "\033[35m"
	ansiCyan    = "\033[36m"
)

type painter bool

func (p painter) paint(s string, codes ...string) string {
	if !p {
		return s
	}
	return strings.Join(codes, "") + s + ansiReset
}

func (p painter) label(sev common.Severity) string {
	text := "[ " + strings.ToUpper(sev.Label()) + " ]"
	switch sev {
	case common.SeverityFatal:
		return p.paint(text, ansiBold, ansiRed)
	case common.SeveritySevere:
		return p.paint(text, ansiBold, ansiMagenta)
	case common.SeverityWarning:
		return p.paint(text, ansiBold, ansiYellow)
	default:
		return p.paint(text, ansiBold, ansiBlue)
	}
}

// Checkpoint prints diagnostics with their suggestions and, unless all of
// them are informational, severity legend. It returns true when there are no
// fatal diagnostics and compilation may proceed.
func Checkpoint(w io.Writer, diags []Diagnostic, color bool) bool {
	p := painter(color)
	for _, d := range diags {
		fmt.Fprintf(w, "%s\n%s\n", p.label(d.Severity), d.Message)
		suggestion := d.Suggestion
		if len(suggestion) == 0 {
			suggestion = "[ none ]"
		}
		fmt.Fprintf(w, "%s\n%s\n\n", p.paint("[ Suggestion ]", ansiBold, ansiCyan), suggestion)
	}
	if !InfoOnly(diags) {
		fmt.Fprintf(w, "%s cannot be resolved. No ePub will be produced.\n", p.label(common.SeverityFatal))
		fmt.Fprintf(w, "%s requires guessing. The ePub must not be published.\n", p.label(common.SeveritySevere))
		fmt.Fprintf(w, "%s denotes missing optional data. The ePub should not be published.\n", p.label(common.SeverityWarning))
		fmt.Fprintf(w, "%s shows potential for improvement. The produced ePub may be less than ideal.\n", p.label(common.SeverityInfo))
	}
	if len(diags) > 0 {
		fmt.Fprintln(w)
	}
	return Pass(diags)
}

// Capture is output of external archive checker. Nil fields are reported as absent.
type Capture struct {
	Stdout *string
	Stderr *string
	Return *int
}

const rule = "----------------------------------------------------------------"

// ProductionLog renders log stored inside produced package.
func ProductionLog(logo, producer, stamp string, diags []Diagnostic, capture Capture) string {
	var b strings.Builder

	b.WriteString(logo)
	if len(logo) > 0 && !strings.HasSuffix(logo, "\n") {
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "%s Production Log.\n%s\n\n", producer, rule)
	fmt.Fprintf(&b, "Production Date: %s\n\n\n", stamp)

	for _, d := range diags {
		fmt.Fprintf(&b, "Severity:        %s\n", strings.ToUpper(d.Severity.Label()))
		fmt.Fprintf(&b, "Message:         %s\n", d.Message)
		fmt.Fprintf(&b, "Suggestion:      %s\n\n\n", d.Suggestion)
	}

	orNull := func(s *string) string {
		if s == nil {
			return "NULL"
		}
		return *s
	}
	ret := "NULL"
	if capture.Return != nil {
		ret = fmt.Sprintf("%d", *capture.Return)
	}

	fmt.Fprintf(&b, "EPUBCheck Log.\n%s\n\n", rule)
	fmt.Fprintf(&b, "[ STDOUT ]\n\n%s\n\n", orNull(capture.Stdout))
	fmt.Fprintf(&b, "[ STDERR ]\n\n%s\n\n", orNull(capture.Stderr))
	fmt.Fprintf(&b, "[ RETURN ]\n\n%s\n\n\n", ret)
	fmt.Fprintf(&b, "%s\nExcuse me, but is this really goodbye?\n", rule)
	return b.String()
}
