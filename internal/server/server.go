// Package server wires the core (docgraph, queue, query, analysis) to the
// Language Server Protocol via github.com/tliron/glsp, the same transport
// library the teacher's internal/server package is built on. It converts
// between protocol_3_16's wire types and this repo's own position/symbol/
// query types; nothing outside this package imports glsp.
package server

import (
	"log"
	"sync"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	glspserver "github.com/tliron/glsp/server"

	"github.com/NorthIsUp/awk-language-server/internal/awkparser/reference"
	"github.com/NorthIsUp/awk-language-server/internal/config"
	"github.com/NorthIsUp/awk-language-server/internal/docgraph"
	"github.com/NorthIsUp/awk-language-server/internal/filesystem"
	"github.com/NorthIsUp/awk-language-server/internal/graphview"
	"github.com/NorthIsUp/awk-language-server/internal/queue"
	"github.com/NorthIsUp/awk-language-server/internal/symbol"
)

const serverName = "awk-language-server"

// Server holds the live state one LSP client session drives: the document
// graph, the processing queue built on top of it, and the last notification
// context, reused to publish diagnostics that arrive from asynchronous
// filesystem reads rather than from inside a request handler.
type Server struct {
	handler *protocol.Handler

	graph  *docgraph.Graph
	queue  *queue.Queue
	reader filesystem.Reader

	cfgMu   sync.Mutex
	cfg     config.Config
	fileCfg config.Config
	hasFile bool

	ctxMu sync.Mutex
	ctx   *glsp.Context

	gv    *graphview.Server
	gvURL string
}

// New returns a glsp server ready to run over stdio, optionally seeded from
// a --config YAML file whose values are overridden by whatever the client
// later sends as initializationOptions (SPEC_FULL.md §4.8's "LSP options
// win" merge).
func New(configPath string) (*glspserver.Server, error) {
	s := &Server{}
	if configPath != "" {
		fileCfg, err := config.LoadFile(configPath)
		if err != nil {
			return nil, err
		}
		s.fileCfg = fileCfg
		s.hasFile = true
	}

	s.handler = &protocol.Handler{
		Initialize:                        s.initialize,
		Initialized:                       s.initialized,
		Shutdown:                          s.shutdown,
		TextDocumentDidOpen:               s.textDocumentDidOpen,
		TextDocumentDidChange:             s.textDocumentDidChange,
		TextDocumentDidSave:               s.textDocumentDidSave,
		TextDocumentDidClose:              s.textDocumentDidClose,
		WorkspaceDidChangeConfiguration:   s.didChangeConfiguration,
		TextDocumentDefinition:            s.textDocumentDefinition,
		TextDocumentReferences:            s.textDocumentReferences,
		TextDocumentHover:                 s.textDocumentHover,
		TextDocumentCompletion:            s.textDocumentCompletion,
		CompletionItemResolve:             s.textDocumentCompletionItemResolve,
		TextDocumentSignatureHelp:         s.textDocumentSignatureHelp,
		TextDocumentDocumentSymbol:        s.textDocumentDocumentSymbol,
		WorkspaceSymbol:                   s.workspaceSymbol,
		WorkspaceExecuteCommand:           s.workspaceExecuteCommand,
	}

	return glspserver.NewServer(s.handler, serverName, false), nil
}

func (s *Server) initialize(context *glsp.Context, params *protocol.InitializeParams) (any, error) {
	cfg, err := config.Load(params.InitializationOptions)
	if err != nil {
		return nil, err
	}
	if s.hasFile {
		cfg = config.Merge(s.fileCfg, cfg)
	}
	s.cfgMu.Lock()
	s.cfg = cfg
	s.cfgMu.Unlock()

	s.graph = docgraph.New()
	s.reader = filesystem.NewOSReader()
	s.queue = queue.New(s.graph, s.reader, reference.New(), s, cfg)
	s.gv = graphview.NewServer(s.graph)

	log.Printf("%s: initialized with config %+v", serverName, cfg)

	syncKind := protocol.TextDocumentSyncKindFull
	capabilities := s.handler.CreateServerCapabilities()
	capabilities.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: &protocol.True,
		Change:    &syncKind,
	}
	capabilities.DefinitionProvider = true
	capabilities.ReferencesProvider = true
	capabilities.HoverProvider = true
	capabilities.DocumentSymbolProvider = true
	capabilities.WorkspaceSymbolProvider = true
	capabilities.CompletionProvider = &protocol.CompletionOptions{ResolveProvider: &protocol.True}
	capabilities.SignatureHelpProvider = &protocol.SignatureHelpOptions{
		TriggerCharacters: []string{"(", ","},
	}
	capabilities.ExecuteCommandProvider = &protocol.ExecuteCommandOptions{
		Commands: []string{"graph"},
	}

	return protocol.InitializeResult{
		Capabilities: capabilities,
	}, nil
}

func (s *Server) initialized(context *glsp.Context, params *protocol.InitializedParams) error {
	s.saveContext(context)
	log.Println(serverName + ": client initialized")
	return nil
}

func (s *Server) shutdown(context *glsp.Context) error {
	return nil
}

func (s *Server) didChangeConfiguration(context *glsp.Context, params *protocol.DidChangeConfigurationParams) error {
	cfg, err := config.Load(params.Settings)
	if err != nil {
		return err
	}
	if s.hasFile {
		cfg = config.Merge(s.fileCfg, cfg)
	}
	s.cfgMu.Lock()
	s.cfg = cfg
	s.cfgMu.Unlock()
	s.queue.SetConfig(cfg)
	return nil
}

func (s *Server) config() config.Config {
	s.cfgMu.Lock()
	defer s.cfgMu.Unlock()
	return s.cfg
}

func (s *Server) saveContext(context *glsp.Context) {
	s.ctxMu.Lock()
	s.ctx = context
	s.ctxMu.Unlock()
}

// PublishDiagnostics implements queue.Publisher, translating diagnostics
// computed at wrap-up (possibly from a background filesystem-read callback,
// long after any request handler returned) into a client notification via
// the most recently seen glsp.Context.
func (s *Server) PublishDiagnostics(uri string, diagnostics []symbol.Diagnostic) {
	s.ctxMu.Lock()
	ctx := s.ctx
	s.ctxMu.Unlock()
	if ctx == nil {
		return
	}
	ctx.Notify("textDocument/publishDiagnostics", protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: toProtocolDiagnostics(diagnostics),
	})
}

func (s *Server) workspaceExecuteCommand(context *glsp.Context, params *protocol.ExecuteCommandParams) (any, error) {
	s.saveContext(context)
	if params.Command != "graph" {
		return nil, nil
	}
	if s.gvURL == "" {
		url, err := s.gv.Listen(":0")
		if err != nil {
			return nil, err
		}
		s.gvURL = url
	}
	external := true
	context.Notify("window/showDocument", protocol.ShowDocumentParams{
		URI:      protocol.URI(s.gvURL),
		External: &external,
	})
	return nil, nil
}
