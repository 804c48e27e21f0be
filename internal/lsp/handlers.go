package lsp

import (
	"context"
	"encoding/json"

	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
	"go.uber.org/zap"

	"github.com/dplint/dplint/internal/tooling"
)

// handleTextDocumentHover handles hover requests
func (s *Server) handleTextDocumentHover(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	var params protocol.HoverParams
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return s.replyWithError(ctx, reply, jsonrpc2.InvalidParams, "Failed to parse hover params")
	}

	hover, err := s.api.GetHover(string(params.TextDocument.URI), toolingPosition(params.Position))
	if err != nil {
		s.logger.Warn("getting hover", zap.Error(err))
		return s.replyWithError(ctx, reply, jsonrpc2.InternalError, "Failed to get hover information")
	}
	if hover == nil {
		return reply(ctx, nil, nil)
	}

	r := convertRange(hover.Range)
	result := protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.Markdown,
			Value: hover.Contents,
		},
		Range: &r,
	}
	return reply(ctx, result, nil)
}

// handleTextDocumentDefinition handles go-to-definition requests
func (s *Server) handleTextDocumentDefinition(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	var params protocol.DefinitionParams
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return s.replyWithError(ctx, reply, jsonrpc2.InvalidParams, "Failed to parse definition params")
	}

	location, err := s.api.GetDefinition(string(params.TextDocument.URI), toolingPosition(params.Position))
	if err != nil {
		s.logger.Warn("getting definition", zap.Error(err))
		return s.replyWithError(ctx, reply, jsonrpc2.InternalError, "Failed to get definition")
	}
	if location == nil {
		return reply(ctx, nil, nil)
	}
	return reply(ctx, convertLocation(*location), nil)
}

// handleTextDocumentReferences handles find references requests
func (s *Server) handleTextDocumentReferences(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	var params protocol.ReferenceParams
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return s.replyWithError(ctx, reply, jsonrpc2.InvalidParams, "Failed to parse references params")
	}

	references, err := s.api.GetReferences(string(params.TextDocument.URI), toolingPosition(params.Position))
	if err != nil {
		s.logger.Warn("getting references", zap.Error(err))
		return s.replyWithError(ctx, reply, jsonrpc2.InternalError, "Failed to get references")
	}

	locations := make([]protocol.Location, 0, len(references))
	for _, ref := range references {
		locations = append(locations, convertLocation(ref))
	}
	return reply(ctx, locations, nil)
}

// handleTextDocumentDocumentSymbol handles document symbol requests
func (s *Server) handleTextDocumentDocumentSymbol(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	var params protocol.DocumentSymbolParams
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return s.replyWithError(ctx, reply, jsonrpc2.InvalidParams, "Failed to parse document symbol params")
	}

	symbols, err := s.api.GetDocumentSymbols(string(params.TextDocument.URI))
	if err != nil {
		s.logger.Warn("getting document symbols", zap.Error(err))
		return s.replyWithError(ctx, reply, jsonrpc2.InternalError, "Failed to get document symbols")
	}

	lspSymbols := make([]protocol.DocumentSymbol, 0, len(symbols))
	for _, sym := range symbols {
		r := convertRange(sym.Range)
		lspSymbols = append(lspSymbols, protocol.DocumentSymbol{
			Name:           sym.Name,
			Kind:           convertSymbolKind(sym.Kind),
			Detail:         sym.Detail,
			Range:          r,
			SelectionRange: r,
		})
	}
	return reply(ctx, lspSymbols, nil)
}

// handleWorkspaceSymbol handles workspace symbol search requests
func (s *Server) handleWorkspaceSymbol(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	var params protocol.WorkspaceSymbolParams
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return s.replyWithError(ctx, reply, jsonrpc2.InvalidParams, "Failed to parse workspace symbol params")
	}

	indexed := s.api.GetWorkspaceSymbols(params.Query)
	symbols := make([]protocol.SymbolInformation, 0, len(indexed))
	for _, sym := range indexed {
		symbols = append(symbols, protocol.SymbolInformation{
			Name:          sym.Name,
			Kind:          convertSymbolKind(sym.Kind),
			Location:      convertLocation(tooling.Location{URI: sym.URI, Range: sym.Range}),
			ContainerName: sym.ContainerName,
		})
	}
	return reply(ctx, symbols, nil)
}

// Helper functions to convert between tooling and LSP types

func toolingPosition(p protocol.Position) tooling.Position {
	return tooling.Position{Line: int(p.Line), Character: int(p.Character)}
}

func convertRange(r tooling.Range) protocol.Range {
	return protocol.Range{
		Start: protocol.Position{
			Line:      uint32(r.Start.Line),
			Character: uint32(r.Start.Character),
		},
		End: protocol.Position{
			Line:      uint32(r.End.Line),
			Character: uint32(r.End.Character),
		},
	}
}

func convertLocation(l tooling.Location) protocol.Location {
	return protocol.Location{
		URI:   protocol.DocumentURI(l.URI),
		Range: convertRange(l.Range),
	}
}

func convertSymbolKind(kind tooling.SymbolKind) protocol.SymbolKind {
	switch kind {
	case tooling.SymbolKindType:
		return protocol.SymbolKindClass
	case tooling.SymbolKindField:
		return protocol.SymbolKindField
	case tooling.SymbolKindDependencyProperty:
		return protocol.SymbolKindConstant
	case tooling.SymbolKindProperty:
		return protocol.SymbolKindProperty
	case tooling.SymbolKindMethod:
		return protocol.SymbolKindMethod
	case tooling.SymbolKindConstructor:
		return protocol.SymbolKindConstructor
	default:
		return protocol.SymbolKindObject
	}
}
