package lsp

import (
	"context"
	"errors"
	"sync"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/semaphore"

	"github.com/matzehuels/deps-lsp/pkg/deps"
	"github.com/matzehuels/deps-lsp/pkg/integrations"
)

// Orchestrator runs the background fetch pipeline: for each document
// batch it claims un-fetched registry dependencies, fetches their version
// lists under bounded concurrency with per-dependency timeouts, commits
// the results generation-checked, and republishes diagnostics once the
// batch settles.
type Orchestrator struct {
	store  *Store
	cfg    Config
	logger *log.Logger

	// publish is called after a batch commits; the server wires it to
	// diagnostics publication.
	publish func(client notifier, uri string)

	progressCapable bool
}

// NewOrchestrator creates an Orchestrator over the given store.
func NewOrchestrator(store *Store, cfg Config, logger *log.Logger, publish func(notifier, string)) *Orchestrator {
	return &Orchestrator{store: store, cfg: cfg, logger: logger, publish: publish}
}

// SetProgressCapable records whether the client advertised
// window.workDoneProgress support.
func (o *Orchestrator) SetProgressCapable(v bool) { o.progressCapable = v }

// Spawn starts a fetch batch for the document snapshot in a background
// goroutine. It returns immediately; results land via the store.
func (o *Orchestrator) Spawn(client notifier, state DocumentState) {
	if !*o.cfg.Cache.Enabled || state.Oversize || state.Eco == nil || state.Eco.Registry == nil {
		return
	}

	names := registryNames(state)
	if len(names) == 0 {
		return
	}

	claimed, batchCtx, ok := o.store.BeginFetch(state.URI, state.Generation, names)
	if !ok {
		return
	}

	go o.run(client, state, claimed, batchCtx)
}

// run executes one batch to completion. It is the only goroutine that
// writes this batch's results; every write is generation-checked inside
// the store.
func (o *Orchestrator) run(client notifier, state DocumentState, claimed []string, batchCtx context.Context) {
	ctx, cancel := context.WithTimeout(batchCtx, o.cfg.BatchTimeout())
	defer cancel()

	progress := newProgressReporter(client, o.progressCapable, len(claimed))
	progress.begin("Fetching dependency versions")

	sem := semaphore.NewWeighted(int64(o.cfg.Cache.MaxConcurrentFetch))
	var (
		mu      sync.Mutex
		results = make(map[string]FetchOutcome, len(claimed))
		wg      sync.WaitGroup
	)

	for _, name := range claimed {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			outcome := o.fetchOne(ctx, sem, state.Eco.Registry, name)
			mu.Lock()
			results[name] = outcome
			mu.Unlock()
			progress.report(name)
		}(name)
	}
	wg.Wait()
	progress.end()

	applied := o.store.CommitFetch(state.URI, state.Generation, results)
	if !applied {
		return
	}
	if o.publish != nil {
		o.publish(client, state.URI)
	}
}

func (o *Orchestrator) fetchOne(ctx context.Context, sem *semaphore.Weighted, registry deps.Registry, name string) FetchOutcome {
	if err := sem.Acquire(ctx, 1); err != nil {
		return FetchOutcome{Failed: true}
	}
	defer sem.Release(1)

	fetchCtx, cancel := context.WithTimeout(ctx, o.cfg.FetchTimeout())
	defer cancel()

	versions, err := registry.Versions(fetchCtx, name)
	switch {
	case err == nil:
		return FetchOutcome{Versions: versions}
	case errors.Is(err, integrations.ErrNotFound):
		return FetchOutcome{NotFound: true}
	default:
		// Timeouts and transport failures alike: keep prior state.
		o.logger.Debug("fetch failed", "package", name, "err", err)
		return FetchOutcome{Failed: true}
	}
}

// registryNames collects the canonical, deduplicated registry-sourced
// dependency names of a document.
func registryNames(state DocumentState) []string {
	seen := map[string]bool{}
	var names []string
	for _, d := range state.Parsed.Dependencies {
		if d.Source != deps.SourceRegistry {
			continue
		}
		name := state.Eco.Canonical(d.Name)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	return names
}
