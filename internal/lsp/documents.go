package lsp

import (
	"context"
	"maps"
	"sync"

	"github.com/matzehuels/deps-lsp/pkg/deps"
)

// DocumentState is the per-document snapshot every feature projector
// reads. Snapshots are taken by value; the contained maps are treated as
// immutable — writers build replacement maps instead of mutating, so a
// projector can keep reading its snapshot while a fetch commits.
//
// CachedLatest answers "what exists upstream", ResolvedLock answers "what
// is pinned locally". The two are written by disjoint code paths and are
// never merged or copied into each other.
type DocumentState struct {
	URI        string
	Path       string
	Eco        *deps.Ecosystem
	Text       string
	Generation int64
	Parsed     *deps.ParsedManifest

	CachedLatest map[string]deps.VersionInfo   // canonical name -> latest stable
	VersionLists map[string][]deps.VersionInfo // canonical name -> full list, newest-first
	NotFound     map[string]bool               // canonical name -> registry said "no such package"
	Loading      map[string]bool               // canonical name -> fetch in flight
	ResolvedLock deps.ResolvedPackages         // canonical name -> pinned versions

	Oversize bool // document exceeded the hard size limit; features disabled
}

type docEntry struct {
	mu    sync.Mutex
	state DocumentState
	// inFlight maps a claimed canonical name to the generation that
	// claimed it. Claims from superseded generations are overridable, so
	// a cancelled batch can never block the current generation's fetch.
	inFlight map[string]int64
	cancel   context.CancelFunc

	// publishMu serializes publishDiagnostics per document.
	publishMu sync.Mutex
}

// Store is the process-wide URI -> DocumentState map. A short global lock
// guards the map itself; each entry has its own lock, and no lock is ever
// held across I/O.
type Store struct {
	mu   sync.Mutex
	docs map[string]*docEntry
}

// NewStore creates an empty document store.
func NewStore() *Store {
	return &Store{docs: make(map[string]*docEntry)}
}

func (s *Store) entry(uri string) (*docEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.docs[uri]
	return e, ok
}

// Open stores a new document (or replaces an existing one wholesale) and
// returns its first snapshot. An in-flight batch for a replaced document
// is cancelled.
func (s *Store) Open(uri, path string, eco *deps.Ecosystem, text string, oversize bool) DocumentState {
	var parsed *deps.ParsedManifest
	if oversize || eco == nil {
		parsed = &deps.ParsedManifest{}
	} else {
		parsed = eco.Parser.Parse(text)
	}

	s.mu.Lock()
	gen := int64(1)
	if old, ok := s.docs[uri]; ok {
		old.mu.Lock()
		gen = old.state.Generation + 1
		old.mu.Unlock()
	}
	s.mu.Unlock()

	state := DocumentState{
		URI:          uri,
		Path:         path,
		Eco:          eco,
		Text:         text,
		Generation:   gen,
		Parsed:       parsed,
		CachedLatest: map[string]deps.VersionInfo{},
		VersionLists: map[string][]deps.VersionInfo{},
		NotFound:     map[string]bool{},
		Loading:      map[string]bool{},
		ResolvedLock: deps.ResolvedPackages{},
		Oversize:     oversize,
	}

	s.mu.Lock()
	old := s.docs[uri]
	e := &docEntry{state: state, inFlight: make(map[string]int64)}
	s.docs[uri] = e
	s.mu.Unlock()

	if old != nil {
		old.mu.Lock()
		cancel := old.cancel
		old.mu.Unlock()
		if cancel != nil {
			cancel()
		}
	}
	return state
}

// Change replaces the document text, bumps the generation, re-parses, and
// reconciles cached state: names no longer declared drop out of
// CachedLatest so stale diagnostics cannot reference deleted
// dependencies. The previous fetch batch is cancelled.
func (s *Store) Change(uri, text string, oversize bool) (DocumentState, bool) {
	e, ok := s.entry(uri)
	if !ok {
		return DocumentState{}, false
	}

	e.mu.Lock()
	var parsed *deps.ParsedManifest
	if oversize || e.state.Eco == nil {
		parsed = &deps.ParsedManifest{}
	} else {
		parsed = e.state.Eco.Parser.Parse(text)
	}

	live := map[string]bool{}
	if e.state.Eco != nil {
		for _, d := range parsed.Dependencies {
			live[e.state.Eco.Canonical(d.Name)] = true
		}
	}

	e.state.Text = text
	e.state.Generation++
	e.state.Parsed = parsed
	e.state.Oversize = oversize
	e.state.CachedLatest = filterKeys(e.state.CachedLatest, live)
	e.state.VersionLists = filterKeys(e.state.VersionLists, live)
	e.state.NotFound = filterKeys(e.state.NotFound, live)
	e.state.Loading = map[string]bool{}

	cancel := e.cancel
	e.cancel = nil
	snapshot := e.state
	e.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	return snapshot, true
}

// Close drops the document. In-flight fetches observe the missing entry
// at commit time and discard their results.
func (s *Store) Close(uri string) {
	s.mu.Lock()
	e := s.docs[uri]
	delete(s.docs, uri)
	s.mu.Unlock()

	if e != nil {
		e.mu.Lock()
		cancel := e.cancel
		e.mu.Unlock()
		if cancel != nil {
			cancel()
		}
	}
}

// Snapshot returns a copy of the current document state.
func (s *Store) Snapshot(uri string) (DocumentState, bool) {
	e, ok := s.entry(uri)
	if !ok {
		return DocumentState{}, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state, true
}

// URIs lists the stored document URIs.
func (s *Store) URIs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	uris := make([]string, 0, len(s.docs))
	for uri := range s.docs {
		uris = append(uris, uri)
	}
	return uris
}

// SetLock replaces the document's resolved lock versions. Nothing else is
// touched: lock updates must never leak into CachedLatest.
func (s *Store) SetLock(uri string, resolved deps.ResolvedPackages) {
	e, ok := s.entry(uri)
	if !ok {
		return
	}
	e.mu.Lock()
	e.state.ResolvedLock = resolved
	e.mu.Unlock()
}

// BeginFetch claims the given canonical names for a fetch batch at the
// given generation. Names already in flight are filtered out (at most one
// fetch per (uri, name)); the claimed names are marked loading. The
// returned cancel context governs the batch.
func (s *Store) BeginFetch(uri string, gen int64, names []string) (claimed []string, ctx context.Context, ok bool) {
	e, found := s.entry(uri)
	if !found {
		return nil, nil, false
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state.Generation != gen {
		return nil, nil, false
	}

	loading := maps.Clone(e.state.Loading)
	for _, name := range names {
		if claimGen, busy := e.inFlight[name]; busy && claimGen == gen {
			continue
		}
		e.inFlight[name] = gen
		loading[name] = true
		claimed = append(claimed, name)
	}
	e.state.Loading = loading

	if len(claimed) == 0 {
		return nil, nil, false
	}

	batchCtx, cancel := context.WithCancel(context.Background())
	prev := e.cancel
	e.cancel = func() {
		cancel()
		if prev != nil {
			prev()
		}
	}
	return claimed, batchCtx, true
}

// FetchOutcome is one dependency's result within a batch.
type FetchOutcome struct {
	Versions []deps.VersionInfo // nil on failure
	NotFound bool               // registry confirmed the package does not exist
	Failed   bool               // transport error or timeout: keep prior state
}

// CommitFetch applies batch results. The in-flight claims are always
// released; the state writes land only if the document still exists and
// its generation equals the one captured at fetch start.
func (s *Store) CommitFetch(uri string, gen int64, results map[string]FetchOutcome) bool {
	e, ok := s.entry(uri)
	if !ok {
		return false
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	var released []string
	for name := range results {
		if claimGen, busy := e.inFlight[name]; busy && claimGen == gen {
			delete(e.inFlight, name)
			released = append(released, name)
		}
	}

	loading := maps.Clone(e.state.Loading)
	for _, name := range released {
		delete(loading, name)
	}
	e.state.Loading = loading

	if e.state.Generation != gen {
		return false
	}

	latest := maps.Clone(e.state.CachedLatest)
	lists := maps.Clone(e.state.VersionLists)
	notFound := maps.Clone(e.state.NotFound)

	for name, r := range results {
		switch {
		case r.NotFound || (!r.Failed && len(r.Versions) == 0):
			notFound[name] = true
			delete(latest, name)
			delete(lists, name)
		case r.Failed:
			// Soft failure: prior state stands.
		default:
			delete(notFound, name)
			lists[name] = r.Versions
			if best, found := deps.LatestStable(r.Versions); found {
				latest[name] = best
			} else {
				delete(latest, name)
			}
		}
	}

	e.state.CachedLatest = latest
	e.state.VersionLists = lists
	e.state.NotFound = notFound
	return true
}

// WithPublishLock runs fn while holding the document's diagnostics
// publication lock, keeping publishes serialized per document.
func (s *Store) WithPublishLock(uri string, fn func()) {
	e, ok := s.entry(uri)
	if !ok {
		return
	}
	e.publishMu.Lock()
	defer e.publishMu.Unlock()
	fn()
}

func filterKeys[V any](m map[string]V, keep map[string]bool) map[string]V {
	out := make(map[string]V, len(m))
	for k, v := range m {
		if keep[k] {
			out[k] = v
		}
	}
	return out
}
