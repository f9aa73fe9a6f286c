package server

import (
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/NorthIsUp/awk-language-server/internal/position"
	"github.com/NorthIsUp/awk-language-server/internal/query"
	"github.com/NorthIsUp/awk-language-server/internal/symbol"
)

func toProtocolPosition(p position.Position) protocol.Position {
	return protocol.Position{Line: p.Line, Character: p.Character}
}

func fromProtocolPosition(p protocol.Position) position.Position {
	return position.Position{Line: p.Line, Character: p.Character}
}

func toProtocolRange(r position.Range) protocol.Range {
	return protocol.Range{Start: toProtocolPosition(r.Start), End: toProtocolPosition(r.End)}
}

func toProtocolSeverity(s symbol.Severity) protocol.DiagnosticSeverity {
	return protocol.DiagnosticSeverity(s)
}

func toProtocolDiagnostics(diags []symbol.Diagnostic) []protocol.Diagnostic {
	out := make([]protocol.Diagnostic, 0, len(diags))
	for _, d := range diags {
		severity := toProtocolSeverity(d.Severity)
		out = append(out, protocol.Diagnostic{
			Range:    toProtocolRange(d.Range),
			Severity: &severity,
			Message:  d.Message,
		})
	}
	return out
}

func toProtocolLocations(locs []query.Location) []protocol.Location {
	out := make([]protocol.Location, 0, len(locs))
	for _, l := range locs {
		out = append(out, protocol.Location{URI: l.URI, Range: toProtocolRange(l.Range)})
	}
	return out
}

func toProtocolCompletionItems(items []query.CompletionItem) []protocol.CompletionItem {
	out := make([]protocol.CompletionItem, 0, len(items))
	for _, it := range items {
		item := protocol.CompletionItem{Label: it.Label}
		kind := completionItemKind(it)
		item.Kind = &kind
		if it.Documentation != "" {
			doc := it.Documentation
			item.Documentation = &doc
		}
		out = append(out, item)
	}
	return out
}

func completionItemKind(it query.CompletionItem) protocol.CompletionItemKind {
	if it.IsBuiltin {
		return protocol.CompletionItemKindKeyword
	}
	switch it.Kind {
	case symbol.Function:
		return protocol.CompletionItemKindFunction
	default:
		return protocol.CompletionItemKindVariable
	}
}

func toProtocolDocumentSymbols(syms []query.DocumentSymbol) []protocol.DocumentSymbol {
	out := make([]protocol.DocumentSymbol, 0, len(syms))
	for _, sym := range syms {
		r := toProtocolRange(sym.Range)
		out = append(out, protocol.DocumentSymbol{
			Name:           sym.Name,
			Kind:           protocol.SymbolKindFunction,
			Range:          r,
			SelectionRange: r,
		})
	}
	return out
}

func toProtocolSymbolInformation(syms []query.WorkspaceSymbol) []protocol.SymbolInformation {
	out := make([]protocol.SymbolInformation, 0, len(syms))
	for _, sym := range syms {
		out = append(out, protocol.SymbolInformation{
			Name:     sym.Name,
			Kind:     protocol.SymbolKindFunction,
			Location: protocol.Location{URI: sym.URI, Range: toProtocolRange(sym.Range)},
		})
	}
	return out
}
