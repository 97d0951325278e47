// Package build orchestrates a full-site resolution: outline parsing, page
// registry construction, and document processing, with per-stage logging and
// metrics.
package build

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/sitegraph/internal/config"
	sgerrors "git.home.luguber.info/inful/sitegraph/internal/errors"
	"git.home.luguber.info/inful/sitegraph/internal/logfields"
	"git.home.luguber.info/inful/sitegraph/internal/metrics"
	"git.home.luguber.info/inful/sitegraph/internal/outline"
	"git.home.luguber.info/inful/sitegraph/internal/processor"
	"git.home.luguber.info/inful/sitegraph/internal/registry"
	"git.home.luguber.info/inful/sitegraph/internal/render"
)

// StageName is a strongly-typed identifier for a build stage.
type StageName string

// Canonical stage names.
const (
	StageOutline  StageName = "outline"
	StageRegistry StageName = "registry"
	StageRender   StageName = "render"
)

// Result is the fully resolved page graph handed to downstream consumers
// (writer, sitemap exporter, link index, preview server).
type Result struct {
	BuildID          string
	Registry         *registry.Registry
	Pages            map[string]*processor.Rendered
	OutlineWarnings  []outline.Warning
	RegistryWarnings []registry.Warning
}

// Builder runs full-site builds for one configuration.
type Builder struct {
	cfg *config.Config
	rec metrics.Recorder
}

// New creates a builder. rec may be nil; a NoopRecorder is used then.
func New(cfg *config.Config, rec metrics.Recorder) *Builder {
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	return &Builder{cfg: cfg, rec: rec}
}

// Run executes one full build. Content-authoring errors (cycles, broken
// links) abort the build; outline warnings abort only under strict_outline.
func (b *Builder) Run(ctx context.Context) (*Result, error) {
	buildID := uuid.NewString()
	log := slog.With(logfields.BuildID(buildID))
	started := time.Now()

	result := &Result{BuildID: buildID}
	err := b.run(ctx, log, result)

	b.rec.ObserveBuildDuration(time.Since(started))
	if err != nil {
		b.rec.IncBuildOutcome("failed")
		log.Error("build failed", logfields.Error(err),
			logfields.DurationMS(float64(time.Since(started).Milliseconds())))
		return nil, err
	}
	b.rec.IncBuildOutcome("success")
	log.Info("build finished", logfields.Pages(len(result.Pages)),
		logfields.DurationMS(float64(time.Since(started).Milliseconds())))
	return result, nil
}

func (b *Builder) run(ctx context.Context, log *slog.Logger, result *Result) error {
	var nodes []*outline.Node

	if err := b.stage(log, StageOutline, func() error {
		var err error
		nodes, err = b.parseOutline(result)
		return err
	}); err != nil {
		return err
	}

	if err := b.stage(log, StageRegistry, func() error {
		return b.buildRegistry(nodes, result)
	}); err != nil {
		return err
	}

	return b.stage(log, StageRender, func() error {
		return b.renderAll(ctx, result)
	})
}

// stage wraps one build stage with timing, logging, and metrics.
func (b *Builder) stage(log *slog.Logger, name StageName, fn func() error) error {
	started := time.Now()
	err := fn()
	d := time.Since(started)
	b.rec.ObserveStageDuration(string(name), d)

	if err != nil {
		b.rec.IncStageResult(string(name), metrics.ResultFatal)
		return sgerrors.BuildFailed(string(name), err)
	}
	b.rec.IncStageResult(string(name), metrics.ResultSuccess)
	log.Debug("stage finished", logfields.Stage(string(name)),
		logfields.DurationMS(float64(d.Milliseconds())))
	return nil
}

func (b *Builder) parseOutline(result *Result) ([]*outline.Node, error) {
	data, err := os.ReadFile(b.cfg.Outline)
	if err != nil {
		return nil, sgerrors.ReadFailed(b.cfg.Outline, err)
	}

	nodes, warnings := outline.Parse(string(data))
	result.OutlineWarnings = warnings
	for _, w := range warnings {
		slog.Warn("outline line skipped", logfields.Line(w.Line), logfields.Target(w.Text))
	}
	if b.cfg.StrictOutline && len(warnings) > 0 {
		return nil, sgerrors.New(sgerrors.CategoryOutline, sgerrors.SeverityFatal,
			"outline has unparsable lines").WithContext("count", len(warnings))
	}
	return nodes, nil
}

func (b *Builder) buildRegistry(nodes []*outline.Node, result *Result) error {
	reg, warnings := registry.Build(nodes)
	result.Registry = reg
	result.RegistryWarnings = warnings

	if b.cfg.StrictOutline && len(warnings) > 0 {
		return sgerrors.New(sgerrors.CategoryOutline, sgerrors.SeverityFatal,
			"outline has malformed or duplicate leaves").WithContext("count", len(warnings))
	}
	if len(reg.Pages) == 0 {
		return sgerrors.New(sgerrors.CategoryOutline, sgerrors.SeverityFatal, "outline produced no pages")
	}
	return nil
}

// renderAll processes every registered page. Unrelated pages may be fanned
// out over a bounded worker pool; any one page's nested resolutions run
// synchronously inside its own chain.
func (b *Builder) renderAll(ctx context.Context, result *Result) error {
	state := processor.NewState()
	renderer := render.New(result.Registry.Links(), b.imageResolver(), b.cfg.StrictFragments)
	proc := processor.New(state, result.Registry, b.cfg.ContentDir, renderer)

	urls := result.Registry.URLs()
	concurrency := b.cfg.Build.RenderConcurrency
	if concurrency > len(urls) {
		concurrency = len(urls)
	}

	var err error
	if concurrency <= 1 {
		err = renderSequential(ctx, proc, urls)
	} else {
		err = renderParallel(ctx, proc, urls, concurrency)
	}
	if err != nil {
		b.rec.IncLinkErrors(string(sgerrors.GetCategory(err)))
		return err
	}

	result.Pages = state.Snapshot()
	b.rec.IncPagesRendered(len(result.Pages))
	return nil
}

func renderSequential(ctx context.Context, proc *processor.Processor, urls []string) error {
	for _, url := range urls {
		if _, err := proc.Process(ctx, url); err != nil {
			return err
		}
	}
	return nil
}

func renderParallel(ctx context.Context, proc *processor.Processor, urls []string, concurrency int) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	work := make(chan string)
	var wg sync.WaitGroup
	var once sync.Once
	var firstErr error

	for range concurrency {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for url := range work {
				if _, err := proc.Process(ctx, url); err != nil {
					once.Do(func() {
						firstErr = err
						cancel()
					})
					return
				}
			}
		}()
	}

feed:
	for _, url := range urls {
		select {
		case work <- url:
		case <-ctx.Done():
			break feed
		}
	}
	close(work)
	wg.Wait()
	return firstErr
}

// imageResolver is the default image-reference collaborator: prefix the
// content-relative path with the configured asset prefix. Deployments with
// hashed assets inject their own mapping through the render package.
func (b *Builder) imageResolver() render.ImageResolver {
	prefix := b.cfg.AssetPrefix
	return func(rel string) (string, error) {
		return prefix + "/" + rel, nil
	}
}
