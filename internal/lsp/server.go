// Package lsp implements the deps-lsp language server: document
// lifecycle, the background fetch pipeline, and the feature projectors
// (completion, hover, inlay hints, diagnostics, code actions) over the
// shared dependency data model.
package lsp

import (
	"encoding/json"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	glspserver "github.com/tliron/glsp/server"

	"github.com/matzehuels/deps-lsp/pkg/buildinfo"
	"github.com/matzehuels/deps-lsp/pkg/deps"
	"github.com/matzehuels/deps-lsp/pkg/deps/golang"
	"github.com/matzehuels/deps-lsp/pkg/deps/javascript"
	"github.com/matzehuels/deps-lsp/pkg/deps/python"
	"github.com/matzehuels/deps-lsp/pkg/deps/ruby"
	"github.com/matzehuels/deps-lsp/pkg/deps/rust"
	"github.com/matzehuels/deps-lsp/pkg/httputil"
	"github.com/matzehuels/deps-lsp/pkg/integrations"
	"github.com/matzehuels/deps-lsp/pkg/integrations/crates"
	"github.com/matzehuels/deps-lsp/pkg/integrations/goproxy"
	"github.com/matzehuels/deps-lsp/pkg/integrations/npm"
	"github.com/matzehuels/deps-lsp/pkg/integrations/pypi"
	"github.com/matzehuels/deps-lsp/pkg/integrations/rubygems"
)

const serverName = "deps-lsp"

// Server holds the language server's state. Everything heavier than the
// handler table is created in initialize, once the configuration is
// known.
type Server struct {
	logger *log.Logger
	cfg    Config

	store     *Store
	directory *deps.Directory
	orch      *Orchestrator
	gate      *coldStartGate
	cache     *httputil.Cache

	handler *protocol.Handler
}

// NewServer creates the deps-lsp server ready to run over stdio.
func NewServer(logger *log.Logger) *glspserver.Server {
	s := &Server{
		logger: logger,
		store:  NewStore(),
	}

	s.handler = &protocol.Handler{
		Initialize:            s.initialize,
		Initialized:           s.initialized,
		Shutdown:              s.shutdown,
		Exit:                  s.exit,
		SetTrace:              s.setTrace,
		TextDocumentDidOpen:   s.textDocumentDidOpen,
		TextDocumentDidChange: s.textDocumentDidChange,
		TextDocumentDidClose:  s.textDocumentDidClose,
		TextDocumentCompletion: s.textDocumentCompletion,
		TextDocumentHover:      s.textDocumentHover,
		TextDocumentCodeAction: s.textDocumentCodeAction,
		WorkspaceDidChangeWatchedFiles: s.workspaceDidChangeWatchedFiles,
	}

	routed := &routedHandler{base: s.handler, server: s}
	return glspserver.NewServer(routed, serverName, false)
}

func (s *Server) initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	var cfg Config
	if params.InitializationOptions != nil {
		raw, err := json.Marshal(params.InitializationOptions)
		if err == nil {
			if err := json.Unmarshal(raw, &cfg); err != nil {
				s.logger.Warn("invalid initializationOptions, using defaults", "err", err)
			}
		}
	}
	s.cfg = cfg.withDefaults(s.logger)

	s.cache = httputil.NewCache(httputil.Options{
		FreshFor:  s.cfg.RefreshInterval(),
		UserAgent: integrations.UserAgent,
	})

	s.directory = deps.NewDirectory(
		rust.Ecosystem(crates.NewClient(s.cache)),
		javascript.Ecosystem(npm.NewClient(s.cache)),
		python.Ecosystem(pypi.NewClient(s.cache)),
		golang.Ecosystem(goproxy.NewClient(s.cache)),
		ruby.Ecosystem(rubygems.NewClient(s.cache)),
	)

	s.orch = NewOrchestrator(s.store, s.cfg, s.logger, s.publishDiagnostics)
	s.orch.SetProgressCapable(clientSupportsProgress(params))
	s.gate = newColdStartGate(time.Duration(s.cfg.ColdStart.RateLimitMS) * time.Millisecond)

	version := buildinfo.Version
	return map[string]any{
		"capabilities": map[string]any{
			"textDocumentSync": protocol.TextDocumentSyncKindFull,
			"completionProvider": map[string]any{
				"triggerCharacters": completionTriggers(),
			},
			"hoverProvider":      true,
			"inlayHintProvider":  true,
			"codeActionProvider": map[string]any{"codeActionKinds": []string{string(protocol.CodeActionKindQuickFix)}},
		},
		"serverInfo": map[string]any{
			"name":    serverName,
			"version": version,
		},
	}, nil
}

// completionTriggers lists the characters that re-open completion:
// quoting and separator characters plus every alphanumeric, so typing
// inside a name or version keeps suggestions flowing.
func completionTriggers() []string {
	triggers := []string{`"`, `'`, "=", ".", ",", " ", "-", "_"}
	for c := 'a'; c <= 'z'; c++ {
		triggers = append(triggers, string(c))
	}
	for c := 'A'; c <= 'Z'; c++ {
		triggers = append(triggers, string(c))
	}
	for c := '0'; c <= '9'; c++ {
		triggers = append(triggers, string(c))
	}
	return triggers
}

func clientSupportsProgress(params *protocol.InitializeParams) bool {
	w := params.Capabilities.Window
	return w != nil && w.WorkDoneProgress != nil && *w.WorkDoneProgress
}

func (s *Server) initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	s.logger.Info("client initialized")
	return nil
}

func (s *Server) shutdown(ctx *glsp.Context) error {
	if s.gate != nil {
		s.gate.close()
	}
	protocol.SetTraceValue(protocol.TraceValueOff)
	return nil
}

func (s *Server) exit(ctx *glsp.Context) error {
	return nil
}

func (s *Server) setTrace(ctx *glsp.Context, params *protocol.SetTraceParams) error {
	protocol.SetTraceValue(params.Value)
	return nil
}

// --- document lifecycle ---

func (s *Server) textDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	s.openDocument(clientFor(ctx), params.TextDocument.URI, params.TextDocument.Text)
	return nil
}

func (s *Server) textDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	text, ok := fullText(params.ContentChanges)
	if !ok {
		return nil
	}
	uri := params.TextDocument.URI

	state, found := s.store.Change(uri, text, len(text) > deps.MaxFileSize)
	if !found {
		s.openDocument(clientFor(ctx), uri, text)
		return nil
	}

	go func() {
		// Let rapid edits settle before repainting diagnostics.
		time.Sleep(100 * time.Millisecond)
		current, ok := s.store.Snapshot(uri)
		if !ok || current.Generation != state.Generation {
			return
		}
		s.publishDiagnostics(clientFor(ctx), uri)
	}()

	s.orch.Spawn(clientFor(ctx), state)
	return nil
}

func (s *Server) textDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	s.store.Close(params.TextDocument.URI)
	ctx.Notify("textDocument/publishDiagnostics", protocol.PublishDiagnosticsParams{
		URI:         params.TextDocument.URI,
		Diagnostics: []protocol.Diagnostic{},
	})
	return nil
}

// workspaceDidChangeWatchedFiles reloads lock data when a lock file
// changes on disk. Only ResolvedLock is touched; CachedLatest stays
// untouched so the "newer exists" signal survives lock updates.
func (s *Server) workspaceDidChangeWatchedFiles(ctx *glsp.Context, params *protocol.DidChangeWatchedFilesParams) error {
	for _, event := range params.Changes {
		changed := uriToPath(event.URI)
		for _, uri := range s.store.URIs() {
			state, ok := s.store.Snapshot(uri)
			if !ok || state.Eco == nil {
				continue
			}
			for _, lockPath := range state.Eco.Lockfile.LockPaths(state.Path) {
				if lockPath == changed {
					s.reloadLock(state)
					s.publishDiagnostics(clientFor(ctx), uri)
				}
			}
		}
	}
	return nil
}

// openDocument runs the full open pipeline: size check, parse, lock read,
// initial diagnostics, background fetch.
func (s *Server) openDocument(client notifier, uri, text string) {
	path := uriToPath(uri)
	eco, _ := s.directory.ForPath(path)
	oversize := len(text) > deps.MaxFileSize
	if oversize {
		s.logger.Warn("file exceeds size limit", "uri", uri, "bytes", len(text))
	}

	state := s.store.Open(uri, path, eco, text, oversize)
	if eco != nil && !oversize {
		s.reloadLock(state)
	}
	s.publishDiagnostics(client, uri)

	if state, ok := s.store.Snapshot(uri); ok {
		s.orch.Spawn(client, state)
	}
}

// reloadLock reads the first existing lock file paired with the manifest
// and stores its resolved versions. Lock problems are logged, never
// surfaced as errors: a broken lock file leaves ResolvedLock empty.
func (s *Server) reloadLock(state DocumentState) {
	if state.Eco == nil || state.Eco.Lockfile == nil {
		return
	}
	for _, lockPath := range state.Eco.Lockfile.LockPaths(state.Path) {
		content, err := os.ReadFile(lockPath)
		if err != nil {
			continue
		}
		resolved, err := state.Eco.Lockfile.ParseLock(string(content))
		if err != nil {
			s.logger.Warn("lock file unreadable", "path", lockPath, "err", err)
			s.store.SetLock(state.URI, deps.ResolvedPackages{})
			return
		}
		s.store.SetLock(state.URI, resolved)
		return
	}
}

// publishDiagnostics regenerates and publishes diagnostics for a
// document. Publication is serialized per document.
func (s *Server) publishDiagnostics(client notifier, uri string) {
	s.store.WithPublishLock(uri, func() {
		state, ok := s.store.Snapshot(uri)
		if !ok {
			return
		}
		client.Notify("textDocument/publishDiagnostics", protocol.PublishDiagnosticsParams{
			URI:         uri,
			Diagnostics: diagnosticsFor(state, s.cfg),
		})
	})
}

// --- feature requests ---

// ensureOpen returns the document snapshot, lazily initializing documents
// the editor never opened (session restore) through the rate-limited
// cold-start gate.
func (s *Server) ensureOpen(client notifier, uri string) (DocumentState, bool) {
	if state, ok := s.store.Snapshot(uri); ok {
		return state, true
	}
	if s.gate == nil || !*s.cfg.ColdStart.Enabled || !s.gate.admit(uri) {
		return DocumentState{}, false
	}

	path := uriToPath(uri)
	content, err := os.ReadFile(path)
	if err != nil {
		return DocumentState{}, false
	}
	s.openDocument(client, uri, string(content))
	return s.store.Snapshot(uri)
}

func (s *Server) textDocumentCompletion(ctx *glsp.Context, params *protocol.CompletionParams) (any, error) {
	state, ok := s.ensureOpen(clientFor(ctx), params.TextDocument.URI)
	if !ok || state.Eco == nil || state.Oversize {
		return nil, nil
	}
	offset := positionToOffset(state.Text, params.Position)
	return s.completionFor(state, offset)
}

func (s *Server) textDocumentHover(ctx *glsp.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	state, ok := s.ensureOpen(clientFor(ctx), params.TextDocument.URI)
	if !ok || state.Eco == nil || state.Oversize {
		return nil, nil
	}
	offset := positionToOffset(state.Text, params.Position)
	return s.hoverFor(state, offset), nil
}

func (s *Server) textDocumentCodeAction(ctx *glsp.Context, params *protocol.CodeActionParams) (any, error) {
	state, ok := s.ensureOpen(clientFor(ctx), params.TextDocument.URI)
	if !ok || state.Eco == nil {
		return nil, nil
	}
	start := positionToOffset(state.Text, params.Range.Start)
	end := positionToOffset(state.Text, params.Range.End)
	return codeActionsFor(state, start, end), nil
}

// inlayHints serves the hand-routed textDocument/inlayHint method.
func (s *Server) inlayHints(ctx *glsp.Context, params *inlayHintParams) ([]inlayHint, error) {
	state, ok := s.ensureOpen(clientFor(ctx), params.TextDocument.URI)
	if !ok {
		return nil, nil
	}
	return inlayHintsFor(state, s.cfg), nil
}

// --- helpers ---

// fullText extracts the full replacement text from a change set; the
// server advertises full-document sync, so incremental events only occur
// from misbehaving clients and are ignored.
func fullText(changes []any) (string, bool) {
	for _, raw := range changes {
		switch change := raw.(type) {
		case protocol.TextDocumentContentChangeEventWhole:
			return change.Text, true
		case protocol.TextDocumentContentChangeEvent:
			if change.Range == nil {
				return change.Text, true
			}
		}
	}
	return "", false
}

// uriToPath converts a file:// URI into a filesystem path.
func uriToPath(uri string) string {
	u, err := url.Parse(uri)
	if err != nil || u.Scheme != "file" {
		return strings.TrimPrefix(uri, "file://")
	}
	path, err := url.PathUnescape(u.Path)
	if err != nil {
		return u.Path
	}
	return path
}
