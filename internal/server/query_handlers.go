package server

import (
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/NorthIsUp/awk-language-server/internal/query"
)

func (s *Server) textDocumentDefinition(context *glsp.Context, params *protocol.DefinitionParams) (any, error) {
	locs := query.Definition(s.graph, string(params.TextDocument.URI), fromProtocolPosition(params.Position))
	if len(locs) == 0 {
		return nil, nil
	}
	return toProtocolLocations(locs), nil
}

func (s *Server) textDocumentReferences(context *glsp.Context, params *protocol.ReferenceParams) ([]protocol.Location, error) {
	locs := query.References(s.graph, string(params.TextDocument.URI), fromProtocolPosition(params.Position), params.Context.IncludeDeclaration)
	return toProtocolLocations(locs), nil
}

func (s *Server) textDocumentHover(context *glsp.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	text, ok := query.Hover(s.graph, s.config(), string(params.TextDocument.URI), fromProtocolPosition(params.Position))
	if !ok {
		return nil, nil
	}
	return &protocol.Hover{
		Contents: protocol.MarkupContent{Kind: protocol.MarkupKindMarkdown, Value: text},
	}, nil
}

func (s *Server) textDocumentCompletion(context *glsp.Context, params *protocol.CompletionParams) (any, error) {
	items := query.Completion(s.graph, s.config(), string(params.TextDocument.URI), fromProtocolPosition(params.Position))
	return toProtocolCompletionItems(items), nil
}

// textDocumentCompletionItemResolve implements completionItem/resolve. The
// completion items this server returns already carry everything it knows
// (label, kind, doc comment) at completion time, so there is nothing further
// to enrich; it returns the item unchanged, matching spec.md's Completion
// operation, which documents no resolve-specific enrichment.
func (s *Server) textDocumentCompletionItemResolve(context *glsp.Context, params *protocol.CompletionItem) (*protocol.CompletionItem, error) {
	return params, nil
}

func (s *Server) textDocumentSignatureHelp(context *glsp.Context, params *protocol.SignatureHelpParams) (*protocol.SignatureHelp, error) {
	help, ok := query.SignatureHelp(s.graph, s.config(), string(params.TextDocument.URI), fromProtocolPosition(params.Position))
	if !ok {
		return nil, nil
	}
	active := uint32(help.ActiveParameter)
	params2 := make([]protocol.ParameterInformation, 0, len(help.Parameters))
	for _, p := range help.Parameters {
		params2 = append(params2, protocol.ParameterInformation{Label: p})
	}
	return &protocol.SignatureHelp{
		Signatures: []protocol.SignatureInformation{
			{Label: help.Label, Parameters: params2},
		},
		ActiveSignature: uintPtr(0),
		ActiveParameter: &active,
	}, nil
}

func (s *Server) textDocumentDocumentSymbol(context *glsp.Context, params *protocol.DocumentSymbolParams) (any, error) {
	syms := query.DocumentSymbols(s.graph, string(params.TextDocument.URI))
	return toProtocolDocumentSymbols(syms), nil
}

func (s *Server) workspaceSymbol(context *glsp.Context, params *protocol.WorkspaceSymbolParams) ([]protocol.SymbolInformation, error) {
	syms := query.WorkspaceSymbols(s.graph, params.Query)
	return toProtocolSymbolInformation(syms), nil
}

func uintPtr(v uint32) *uint32 { return &v }
