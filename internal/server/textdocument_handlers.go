package server

import (
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

func (s *Server) textDocumentDidOpen(context *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	s.saveContext(context)
	s.queue.Open(string(params.TextDocument.URI), params.TextDocument.Text)
	return nil
}

func (s *Server) textDocumentDidChange(context *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	s.saveContext(context)
	uri := string(params.TextDocument.URI)
	for _, raw := range params.ContentChanges {
		if change, ok := raw.(protocol.TextDocumentContentChangeEventWhole); ok {
			s.queue.Change(uri, change.Text)
		}
	}
	return nil
}

func (s *Server) textDocumentDidSave(context *glsp.Context, params *protocol.DidSaveTextDocumentParams) error {
	s.saveContext(context)
	if params.Text != nil {
		s.queue.Change(string(params.TextDocument.URI), *params.Text)
	}
	return nil
}

func (s *Server) textDocumentDidClose(context *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	s.saveContext(context)
	s.queue.Close(string(params.TextDocument.URI))
	return nil
}
