package convert

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"strings"
	"time"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"lea/config"
	"lea/convert/epub"
	"lea/diag"
	"lea/dialect"
	"lea/epubcheck"
	"lea/ident"
	"lea/linkcheck"
	"lea/misc"
	"lea/state"
	"lea/transform"
	"lea/validate"
)

// ErrNotProduced is returned when checkpoint found fatal diagnostics and no
// package was written.
var ErrNotProduced = errors.New("no ePub was produced")

const stampLayout = "2006-01-02 15:04:05 MST"

// Checker runs external archive validator.
type Checker interface {
	Check(ctx context.Context, subject diag.Subject, archive string) (diag.Capture, []diag.Diagnostic, error)
}

// Compiler produces packages for ebook configurations in the repository. All
// checkpoint output goes to Out.
type Compiler struct {
	Env   *state.LocalEnv
	Out   io.Writer
	Color bool
	// Probe and Checker are only used when corresponding checks were
	// requested
	Probe   transform.Prober
	Checker Checker
	// Clock, when set, replaces wall clock in every run
	Clock func() time.Time

	log *zap.Logger
}

// Run is the action of compile command.
func Run(ctx context.Context, cmd *cli.Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("compile")

	if cmd.Args().Len() == 0 {
		return errors.New("no ebook configuration has been specified")
	}
	if err := epub.Overture(); err != nil {
		return err
	}

	env.CheckLinks, env.CheckEpub, env.Overwrite = cmd.Bool("check-links"), cmd.Bool("check-epub"), cmd.Bool("overwrite")

	c := &Compiler{
		Env:   env,
		Out:   os.Stdout,
		Color: config.EnableColorOutput(os.Stdout),
	}
	if env.CheckLinks {
		c.Probe = linkcheck.New(&env.Cfg.LinkCheck, log).Probe
	}
	if env.CheckEpub {
		c.Checker = epubcheck.New(&env.Cfg.EPUBCheck, log)
	}

	log.Info("Processing starting", zap.String("repo", env.Cfg.Paths.Repo), zap.Strings("ebooks", cmd.Args().Slice()),
		zap.Bool("check links", env.CheckLinks), zap.Bool("check epub", env.CheckEpub))
	defer func(start time.Time) {
		log.Info("Processing completed", zap.Duration("elapsed", time.Since(start)))
	}(time.Now())

	var failed []string
	for _, name := range cmd.Args().Slice() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := c.Compile(ctx, name, log); err != nil {
			log.Error("Unable to compile ebook", zap.String("ebook", name), zap.Error(err))
			failed = append(failed, name)
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("%d of %d ebook(s) failed: %s", len(failed), cmd.Args().Len(), strings.Join(failed, ", "))
	}
	return nil
}

// Compile compiles single ebook configuration, name is relative to ebooks
// directory. It returns path of produced package.
func (c *Compiler) Compile(ctx context.Context, name string, log *zap.Logger) (outputName string, rerr error) {
	c.log = log
	run := state.NewRun(c.Env, log)
	if c.Clock != nil {
		run.WithClock(c.Clock)
	}
	if c.Probe == nil {
		// nothing to probe with, reported by link check stage
		run.Store.CheckLinks = false
	}

	log.Info("Compilation starting", zap.String("ebook", name))
	defer func(start time.Time) {
		// single place where internal failures are caught, compilation of
		// other ebooks continues
		if r := recover(); r != nil {
			file, line := panicSite()
			log.Error("Compilation ended with panic",
				zap.Any("panic", r), zap.Duration("elapsed", time.Since(start)), zap.ByteString("stack", debug.Stack()))
			fmt.Fprintf(c.Out, "We are sorry, compilation of %s failed unexpectedly at %s:%d.\n%v\n", name, file, line, r)
			rerr = fmt.Errorf("compilation panic: %v", r)
			outputName = ""
			return
		}
		log.Info("Compilation completed", zap.Duration("elapsed", time.Since(start)), zap.String("to", outputName))
	}(time.Now())

	ebook, p, ok := c.prepare(ctx, run, name)
	if !c.checkpoint(run) || !ok {
		return "", fmt.Errorf("%s: %w", name, ErrNotProduced)
	}

	p.Through(ctx, transform.StageTargets)
	validate.PhaseTwo(run, ebook)
	table := ident.Compile(ebook)
	for _, d := range table.Diagnostics() {
		run.Diags.Add(d)
	}
	if !c.checkpoint(run) {
		return "", fmt.Errorf("%s: %w", name, ErrNotProduced)
	}

	outputName = buildOutputPath(ebook, run, c.Env)
	book := &epub.Book{Run: run, Ebook: ebook, IDs: table, Styles: p.Styles()}
	if err := epub.Generate(ctx, book, outputName, c.Env.Overwrite, log.Named("epub")); err != nil {
		return "", fmt.Errorf("unable to generate output: %w", err)
	}

	var capture diag.Capture
	if run.Store.CheckEpub && c.Checker != nil {
		var diags []diag.Diagnostic
		var err error
		capture, diags, err = c.Checker.Check(ctx, ebook, outputName)
		if err != nil {
			log.Warn("Unable to run EPUBCheck", zap.String("output", outputName), zap.Error(err))
		}
		for _, d := range diags {
			run.Diags.Add(d)
		}
	}

	prodLog := diag.ProductionLog(epub.Logo(), misc.GetDisplayName(), run.Now().Format(stampLayout), run.Diags.History(), capture)
	if err := epub.AppendLog(outputName, prodLog, run.Now(), c.Env.Cfg.Document.FixZip); err != nil {
		return "", fmt.Errorf("unable to append production log: %w", err)
	}
	if err := epub.Verify(outputName); err != nil {
		return "", err
	}

	// post packaging diagnostics never stop anything, package is already there
	diag.Checkpoint(c.Out, run.Diags.Current(), c.Color)
	run.Diags.Silence()

	if c.Env.Rpt != nil {
		base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
		c.Env.Rpt.StoreData(fmt.Sprintf("log-%s.txt", base), []byte(prodLog))
		c.Env.Rpt.StoreData(fmt.Sprintf("identifiers-%s.txt", base), []byte(table.Dump()))
		c.Env.Rpt.Store(fmt.Sprintf("result-%s.epub", base), outputName)
	}
	return outputName, nil
}

// prepare reads ebook configuration with all its texts and runs first
// validation phase. It returns false when configuration itself is unusable.
func (c *Compiler) prepare(ctx context.Context, run *state.Run, name string) (*dialect.Ebook, *transform.Pipeline, bool) {
	src := run.EbookPath(name)
	data, err := run.ReadFile(diag.File(src), src)
	if err != nil {
		c.log.Debug("Unable to read ebook configuration", zap.Error(err))
	}
	ebook := dialect.NewEbook(name, data)
	p := transform.New(run, ebook, c.Probe)

	// text lookups depend on subfolders, so they are established first
	if ebook.Derive(run.Now()) == nil {
		p.Run(ctx, transform.StageSubfolders)
		for _, t := range ebook.Texts {
			content, err := run.ReadFile(t, run.TextPath(t.FileName))
			if err != nil {
				c.log.Debug("Unable to read text", zap.String("text", t.FileName), zap.Error(err))
				continue
			}
			t.SetContent(content)
		}
	}
	return ebook, p, validate.PhaseOne(run, ebook)
}

// checkpoint prints diagnostics of the current phase and closes it.
func (c *Compiler) checkpoint(run *state.Run) bool {
	pass := diag.Checkpoint(c.Out, run.Diags.Current(), c.Color)
	run.Diags.Silence()
	return pass
}

// panicSite returns location of the code which panicked, it must be called
// from deferred function.
func panicSite() (string, int) {
	pcs := make([]uintptr, 32)
	frames := runtime.CallersFrames(pcs[:runtime.Callers(2, pcs)])
	var panicking bool
	for {
		f, more := frames.Next()
		if panicking && !strings.HasPrefix(f.Function, "runtime.") {
			return filepath.Base(f.File), f.Line
		}
		if f.Function == "runtime.gopanic" {
			panicking = true
		}
		if !more {
			return "unknown", 0
		}
	}
}
