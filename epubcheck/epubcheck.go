// Package epubcheck runs external EPUBCheck validator over produced package.
package epubcheck

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"

	"lea/config"
	"lea/diag"
)

// Runner starts validator process.
type Runner struct {
	java string
	jar  string
	log  *zap.Logger
}

func New(cfg *config.EPUBCheckConfig, log *zap.Logger) *Runner {
	return &Runner{java: cfg.Java, jar: cfg.Jar, log: log.Named("epubcheck")}
}

// Check validates archive. Returned capture always has stdout and stderr,
// return code is absent when process did not run to completion. Error is
// only returned when validator could not be started at all, non-zero exit is
// reported as diagnostic.
func (r *Runner) Check(ctx context.Context, subject diag.Subject, archive string) (diag.Capture, []diag.Diagnostic, error) {
	var stdout, stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, r.java, "-jar", r.jar, archive)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()

	out, errOut := stdout.String(), stderr.String()
	capture := diag.Capture{Stdout: &out, Stderr: &errOut}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		code := 0
		capture.Return = &code
		r.log.Debug("EPUBCheck passed", zap.String("archive", archive), zap.Duration("elapsed", time.Since(start)))
		return capture, nil, nil
	case errors.As(err, &exitErr) && exitErr.ExitCode() >= 0:
		code := exitErr.ExitCode()
		capture.Return = &code
		r.log.Debug("EPUBCheck failed", zap.String("archive", archive), zap.Int("code", code),
			zap.Duration("elapsed", time.Since(start)))
		return capture, []diag.Diagnostic{
			diag.New(subject, diag.CheckEpubFailure, summary(out), strings.TrimSpace(errOut)),
		}, nil
	default:
		return capture, nil, fmt.Errorf("unable to run EPUBCheck (%s -jar %s): %w", r.java, r.jar, err)
	}
}

// summary picks EPUBCheck "Messages:" line, or the last line of output.
func summary(out string) string {
	lines := strings.Split(strings.TrimSpace(out), "\n")
	for _, l := range lines {
		if l = strings.TrimSpace(l); strings.HasPrefix(l, "Messages:") {
			return l
		}
	}
	return strings.TrimSpace(lines[len(lines)-1])
}
