// Package transform expands lea tags of every text into XHTML. Stages have
// real data dependencies between them and are always executed in fixed
// order, asking for a stage out of order is a programming error.
package transform

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"lea/dialect"
	"lea/linkcheck"
	"lea/state"
)

// Stage of the transformation.
type Stage int

const (
	StageSubfolders Stage = iota
	StageScripts
	StageBlocks
	StageHarvestImages
	StageStylesheets
	StageStructure
	StageImages
	StageSynthesize
	StageMergeAuthors
	StageLinkCheck
	StageTargets
	stageCount
)

var stageNames = [...]string{
	"subfolders", "scripts", "blocks", "harvest images", "stylesheets",
	"structure", "images", "synthesize", "merge authors", "link check", "targets",
}

func (s Stage) String() string {
	if s >= 0 && s < stageCount {
		return stageNames[s]
	}
	return fmt.Sprintf("stage(%d)", int(s))
}

// OrderError is raised with panic when stage is requested before all stages
// it depends on were executed, or more than once.
type OrderError struct {
	Want Stage
	Got  Stage
}

func (e *OrderError) Error() string {
	return fmt.Sprintf("transformation stage %q requested while next stage is %q", e.Got, e.Want)
}

// Prober checks reachability of external URLs.
type Prober func(ctx context.Context, urls []string) []linkcheck.Result

// Pipeline keeps transformation state of a single ebook.
type Pipeline struct {
	run   *state.Run
	ebook *dialect.Ebook
	log   *zap.Logger
	probe Prober
	next  Stage

	// sanitized stylesheets content by declared name
	styles map[string][]byte
}

// New creates pipeline over derived ebook. Nil prober disables link checking
// even when it was requested.
func New(run *state.Run, ebook *dialect.Ebook, probe Prober) *Pipeline {
	return &Pipeline{
		run:    run,
		ebook:  ebook,
		log:    run.Log.Named("transform"),
		probe:  probe,
		styles: make(map[string][]byte),
	}
}

// Next returns the stage which will be executed next.
func (p *Pipeline) Next() Stage {
	return p.next
}

// Styles returns sanitized stylesheets keyed by name declared in ebook.
// Only stylesheets which could be read are present.
func (p *Pipeline) Styles() map[string][]byte {
	return p.styles
}

// Run executes requested stages, which must be the next ones in order.
func (p *Pipeline) Run(ctx context.Context, stages ...Stage) {
	for _, s := range stages {
		if s != p.next {
			panic(&OrderError{Want: p.next, Got: s})
		}
		start := time.Now()
		p.stage(ctx, s)
		p.next++
		p.log.Debug("Stage done", zap.Stringer("stage", s), zap.String("ebook", p.ebook.FileName),
			zap.Duration("elapsed", time.Since(start)))
	}
}

// Through executes all stages up to and including the last one.
func (p *Pipeline) Through(ctx context.Context, last Stage) {
	for p.next <= last {
		p.Run(ctx, p.next)
	}
}

func (p *Pipeline) stage(ctx context.Context, s Stage) {
	switch s {
	case StageSubfolders:
		p.subfolders()
	case StageScripts:
		p.eachText(p.scripts)
	case StageBlocks:
		p.eachText(p.blocks)
	case StageHarvestImages:
		p.eachText(p.harvestImages)
	case StageStylesheets:
		p.stylesheets()
	case StageStructure:
		p.eachText(structure)
	case StageImages:
		p.eachText(p.images)
	case StageSynthesize:
		p.synthesize()
	case StageMergeAuthors:
		p.mergeAuthors()
	case StageLinkCheck:
		p.linkCheck(ctx)
	case StageTargets:
		p.targets()
	default:
		panic(&OrderError{Want: p.next, Got: s})
	}
}

// eachText runs fn on every successfully derived text in spine order.
func (p *Pipeline) eachText(fn func(*dialect.Text)) {
	for _, t := range p.ebook.Texts {
		if t.Derived() {
			fn(t)
		}
	}
}
