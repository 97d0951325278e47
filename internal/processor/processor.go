// Package processor renders each page's document exactly once per build,
// regardless of the order in which other documents request it, and rejects
// reference cycles deterministically.
package processor

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"

	sgerrors "git.home.luguber.info/inful/sitegraph/internal/errors"
	"git.home.luguber.info/inful/sitegraph/internal/logfields"
	"git.home.luguber.info/inful/sitegraph/internal/registry"
)

// Rendered is the processing result for one document: its HTML and the
// anchor ids computed for its headings.
type Rendered struct {
	HTML    string
	Anchors map[string]struct{}
}

// Requester pulls another document's rendering by URL from within a render.
// It is bound to the requesting document's call chain, so cycles are
// attributed to the right path.
type Requester func(ctx context.Context, url string) (*Rendered, error)

// Renderer turns one document's source into HTML plus its anchor table. It
// calls back through req for every cross-document reference it resolves.
type Renderer interface {
	Render(ctx context.Context, page *registry.Page, source []byte, req Requester) (*Rendered, error)
}

// State is the one piece of shared mutable state in the engine, scoped to a
// single full-site build. It holds the memoization cache and the in-flight
// render tracking that backs the at-most-once guarantee. Never a package
// singleton: construct one per build and discard (or Reset) it afterwards.
type State struct {
	mu        sync.Mutex
	completed map[string]*Rendered
	inflight  map[string]*inflight
}

// inflight tracks one in-progress render. waitingOn is the URL the owning
// chain is currently parked on, if any; these wait edges form the graph the
// cross-chain cycle check walks.
type inflight struct {
	done      chan struct{}
	waitingOn string
}

func NewState() *State {
	s := &State{}
	s.Reset()
	return s
}

// Reset clears all per-build state so the instance can back an independent
// build (used by tests and the preview server's rebuild loop).
func (s *State) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.completed = map[string]*Rendered{}
	s.inflight = map[string]*inflight{}
}

// Snapshot returns a copy of the completed cache.
func (s *State) Snapshot() map[string]*Rendered {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]*Rendered, len(s.completed))
	for url, r := range s.completed {
		out[url] = r
	}
	return out
}

// Processor coordinates lazy document rendering over a shared State.
type Processor struct {
	state      *State
	reg        *registry.Registry
	contentDir string
	renderer   Renderer
}

func New(state *State, reg *registry.Registry, contentDir string, renderer Renderer) *Processor {
	return &Processor{
		state:      state,
		reg:        reg,
		contentDir: contentDir,
		renderer:   renderer,
	}
}

// Process renders the document registered at url, or returns the cached
// result. Safe to call concurrently for unrelated pages of the same build.
func (p *Processor) Process(ctx context.Context, url string) (*Rendered, error) {
	return p.process(ctx, url, nil)
}

// process is the explicit depth-first traversal. chain is the ordered list of
// in-flight URLs on the current call path; a repeat is a reference cycle and
// its error message is built from the chain itself.
func (p *Processor) process(ctx context.Context, url string, chain []string) (*Rendered, error) {
	if slices.Contains(chain, url) {
		return nil, sgerrors.CircularDependency(append(slices.Clone(chain), url))
	}

	page, ok := p.reg.Pages[url]
	if !ok {
		return nil, sgerrors.InternalError("url not registered", nil).WithContext("url", url)
	}

	done, cached, err := p.claim(ctx, url, chain)
	if err != nil {
		return nil, err
	}
	if cached != nil {
		return cached, nil
	}

	rendered, err := p.render(ctx, page, chain)

	p.state.mu.Lock()
	if err == nil {
		p.state.completed[url] = rendered
	}
	// Failures are not cached: the URL leaves the in-flight set either way,
	// so a later request within the same build attempts rendering again.
	delete(p.state.inflight, url)
	close(done)
	p.state.mu.Unlock()

	if err != nil {
		slog.Debug("document render failed", logfields.URL(url), logfields.Error(err))
		return nil, err
	}
	return rendered, nil
}

// claim either returns the cached result, or registers url as in-flight and
// returns the done channel the caller must close. When another task is
// already rendering url, claim waits for it and re-checks, which keeps
// rendering at-most-once under concurrent fan-out. Before parking, the
// requesting chain publishes a wait edge and checks whether the owner
// transitively waits on a URL this chain holds; parking then would deadlock
// two chains on each other instead of reporting the cycle.
func (p *Processor) claim(ctx context.Context, url string, chain []string) (chan struct{}, *Rendered, error) {
	for {
		p.state.mu.Lock()
		if r, ok := p.state.completed[url]; ok {
			p.state.mu.Unlock()
			return nil, r, nil
		}
		if entry, ok := p.state.inflight[url]; ok {
			// A top-level request holds nothing and can always park safely.
			var own *inflight
			if len(chain) > 0 {
				own = p.state.inflight[chain[len(chain)-1]]
			}
			if own != nil {
				own.waitingOn = url
				if cycle := p.state.waitCycle(url, chain); cycle != nil {
					own.waitingOn = ""
					p.state.mu.Unlock()
					return nil, nil, sgerrors.CircularDependency(cycle)
				}
			}
			done := entry.done
			p.state.mu.Unlock()

			select {
			case <-done:
			case <-ctx.Done():
				p.clearWait(own)
				return nil, nil, ctx.Err()
			}
			p.clearWait(own)
			continue
		}
		done := make(chan struct{})
		p.state.inflight[url] = &inflight{done: done}
		p.state.mu.Unlock()
		return done, nil, nil
	}
}

func (p *Processor) clearWait(own *inflight) {
	if own == nil {
		return
	}
	p.state.mu.Lock()
	own.waitingOn = ""
	p.state.mu.Unlock()
}

// waitCycle follows wait edges starting at url and returns the full cycle
// path when they lead back to a URL the requesting chain holds in-flight.
// Returns nil when the owner is actively rendering or waits elsewhere. Must
// be called with mu held, after the requester published its own wait edge:
// whichever of two mutually-waiting chains publishes second sees the closed
// loop.
func (s *State) waitCycle(url string, chain []string) []string {
	cycle := append(slices.Clone(chain), url)
	seen := map[string]struct{}{url: {}}
	cur := url
	for {
		entry, ok := s.inflight[cur]
		if !ok || entry.waitingOn == "" {
			return nil
		}
		next := entry.waitingOn
		if slices.Contains(chain, next) {
			return append(cycle, next)
		}
		if _, dup := seen[next]; dup {
			return nil
		}
		seen[next] = struct{}{}
		cycle = append(cycle, next)
		cur = next
	}
}

func (p *Processor) render(ctx context.Context, page *registry.Page, chain []string) (*Rendered, error) {
	abs := filepath.Join(p.contentDir, filepath.FromSlash(page.File))
	source, err := os.ReadFile(abs)
	if err != nil {
		return nil, sgerrors.ReadFailed(page.File, err)
	}

	next := append(slices.Clone(chain), page.URL)
	req := func(ctx context.Context, url string) (*Rendered, error) {
		return p.process(ctx, url, next)
	}

	rendered, err := p.renderer.Render(ctx, page, source, req)
	if err != nil {
		return nil, err
	}
	return rendered, nil
}
