// Package tooling provides a programmatic API for IDE integration via LSP.
// It keeps the open documents of an editor session, re-checks them as one
// compilation and answers position-based queries in a thread-safe manner.
package tooling

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/dplint/dplint/internal/analyzer/driver"
	"github.com/dplint/dplint/internal/analyzer/rules"
	"github.com/dplint/dplint/internal/compiler/ast"
	"github.com/dplint/dplint/internal/compiler/parser"
)

// Source is reported as the origin of every diagnostic
const Source = "dplint"

// API provides thread-safe access to the analyzer for IDE integration.
// It maintains document state and the diagnostics of the last analysis.
type API struct {
	// Document cache stores parsed files per URI
	documents map[string]*Document
	// findings holds the rule diagnostics of the last Analyze per URI
	findings  map[string][]rules.Diagnostic
	docsMutex sync.RWMutex

	// Symbol index for workspace lookups
	symbolIndex *SymbolIndex

	driver *driver.Driver
	logger *zap.Logger
}

// Config holds configuration for the tooling API
type Config struct {
	// Driver runs the checks; a default driver is created when nil
	Driver *driver.Driver

	Logger *zap.Logger
}

// Document represents an open document with its parsed syntax tree
type Document struct {
	// URI is the document identifier
	URI string

	// Content is the raw source code
	Content string

	// Version tracks document changes
	Version int

	// File is the lowered syntax tree; its Path is the URI
	File *ast.File

	// ParseErrors contains any syntax errors from parsing
	ParseErrors []parser.ParseError

	// Symbols is a flattened list of the declarations in the document
	Symbols []*Symbol
}

// Position represents a position in a document (zero-based for LSP compatibility)
type Position struct {
	Line      int // Zero-based line number
	Character int // Zero-based byte offset in the line
}

// Range represents a range in a document
type Range struct {
	Start Position
	End   Position
}

// Location represents a source location with URI and range
type Location struct {
	URI   string
	Range Range
}

// Hover represents hover information
type Hover struct {
	// Contents is the hover text (markdown formatted)
	Contents string

	// Range is the range the hover applies to
	Range Range
}

// Diagnostic represents a syntax error or a rule violation
type Diagnostic struct {
	Range    Range
	Severity DiagnosticSeverity
	Code     string
	Message  string
	Source   string
}

// DiagnosticSeverity indicates the severity of a diagnostic
type DiagnosticSeverity int

const (
	// DiagnosticSeverityError represents an error diagnostic
	DiagnosticSeverityError DiagnosticSeverity = iota
	// DiagnosticSeverityWarning represents a warning diagnostic
	DiagnosticSeverityWarning
	// DiagnosticSeverityInfo represents an informational diagnostic
	DiagnosticSeverityInfo
	// DiagnosticSeverityHint represents a hint diagnostic
	DiagnosticSeverityHint
)

// NewAPI creates a tooling API with a default driver
func NewAPI() (*API, error) {
	return NewAPIWithConfig(&Config{})
}

// NewAPIWithConfig creates a tooling API with custom configuration
func NewAPIWithConfig(config *Config) (*API, error) {
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	d := config.Driver
	if d == nil {
		var err error
		d, err = driver.New(driver.WithLogger(logger))
		if err != nil {
			return nil, err
		}
	}
	return &API{
		documents:   make(map[string]*Document),
		findings:    make(map[string][]rules.Diagnostic),
		symbolIndex: NewSymbolIndex(),
		driver:      d,
		logger:      logger,
	}, nil
}

// ParseFile parses a document and caches it under uri
func (a *API) ParseFile(ctx context.Context, uri, content string) (*Document, error) {
	doc, err := a.parse(ctx, uri, content)
	if err != nil {
		return nil, err
	}

	a.docsMutex.Lock()
	a.documents[uri] = doc
	a.docsMutex.Unlock()

	a.symbolIndex.Index(uri, doc.Symbols)
	return doc, nil
}

// UpdateDocument updates an existing document with new content
func (a *API) UpdateDocument(ctx context.Context, uri, content string, version int) (*Document, error) {
	a.docsMutex.Lock()
	if old, ok := a.documents[uri]; ok && old.Content == content {
		old.Version = version
		a.docsMutex.Unlock()
		return old, nil
	}
	a.docsMutex.Unlock()

	doc, err := a.parse(ctx, uri, content)
	if err != nil {
		return nil, err
	}
	doc.Version = version

	a.docsMutex.Lock()
	a.documents[uri] = doc
	a.docsMutex.Unlock()

	a.symbolIndex.Index(uri, doc.Symbols)
	return doc, nil
}

// parse performs parsing without acquiring locks
func (a *API) parse(ctx context.Context, uri, content string) (*Document, error) {
	file, parseErrors, err := parser.ParseString(ctx, uri, content)
	if err != nil {
		return nil, err
	}
	doc := &Document{
		URI:         uri,
		Content:     content,
		Version:     1,
		File:        file,
		ParseErrors: parseErrors,
	}
	doc.Symbols = extractSymbols(file)
	return doc, nil
}

// GetDocument retrieves a cached document
func (a *API) GetDocument(uri string) (*Document, bool) {
	a.docsMutex.RLock()
	defer a.docsMutex.RUnlock()

	doc, exists := a.documents[uri]
	return doc, exists
}

// CloseDocument removes a document and its diagnostics
func (a *API) CloseDocument(uri string) {
	a.docsMutex.Lock()
	delete(a.documents, uri)
	delete(a.findings, uri)
	a.docsMutex.Unlock()

	a.symbolIndex.RemoveDocument(uri)
}

// URIs returns the URIs of the open documents
func (a *API) URIs() []string {
	a.docsMutex.RLock()
	defer a.docsMutex.RUnlock()

	out := make([]string, 0, len(a.documents))
	for uri := range a.documents {
		out = append(out, uri)
	}
	return out
}

// Analyze checks every open document as one compilation, since a property's
// declarations may be spread over partial class files. It returns the URIs that
// were analyzed.
func (a *API) Analyze(ctx context.Context) ([]string, error) {
	a.docsMutex.RLock()
	files := make([]*ast.File, 0, len(a.documents))
	uris := make([]string, 0, len(a.documents))
	for uri, doc := range a.documents {
		files = append(files, doc.File)
		uris = append(uris, uri)
	}
	a.docsMutex.RUnlock()

	report, err := a.driver.Run(ctx, files)
	if err != nil {
		return nil, fmt.Errorf("analyzing open documents: %w", err)
	}

	byURI := make(map[string][]rules.Diagnostic, len(uris))
	for _, d := range report.Diagnostics {
		byURI[d.File] = append(byURI[d.File], d)
	}

	a.docsMutex.Lock()
	clear(a.findings)
	for _, uri := range uris {
		if _, open := a.documents[uri]; open {
			a.findings[uri] = byURI[uri]
		}
	}
	a.docsMutex.Unlock()

	a.logger.Debug("documents analyzed",
		zap.Int("documents", len(uris)),
		zap.Int("diagnostics", len(report.Diagnostics)))
	return uris, nil
}

// GetDiagnostics returns the syntax errors of a document and the rule
// violations found in it by the last Analyze
func (a *API) GetDiagnostics(uri string) []Diagnostic {
	a.docsMutex.RLock()
	doc, exists := a.documents[uri]
	findings := a.findings[uri]
	a.docsMutex.RUnlock()
	if !exists {
		return nil
	}

	diagnostics := make([]Diagnostic, 0, len(doc.ParseErrors)+len(findings))
	for _, err := range doc.ParseErrors {
		diagnostics = append(diagnostics, Diagnostic{
			Range:    rangeOf(err.Location),
			Severity: DiagnosticSeverityError,
			Code:     "syntax",
			Message:  err.Message,
			Source:   Source,
		})
	}
	for _, d := range findings {
		diagnostics = append(diagnostics, Diagnostic{
			Range:    rangeOf(d.Span),
			Severity: severityOf(d.Severity),
			Code:     string(d.Code),
			Message:  d.Message,
			Source:   Source,
		})
	}
	return diagnostics
}

// GetHover returns hover information for a position in a document. A rule
// violation under the cursor is explained; otherwise the declaration under it
// is described. Returns (nil, nil) if there is nothing at the position.
func (a *API) GetHover(uri string, pos Position) (*Hover, error) {
	a.docsMutex.RLock()
	doc, exists := a.documents[uri]
	findings := a.findings[uri]
	a.docsMutex.RUnlock()
	if !exists {
		return nil, fmt.Errorf("document not found: %s", uri)
	}

	for _, d := range findings {
		r := rangeOf(d.Span)
		if positionInRange(pos, r) {
			return buildRuleHover(d, r), nil
		}
	}

	symbol := findSymbolAtPosition(doc, pos)
	if symbol == nil {
		return nil, nil //nolint:nilnil // nil hover is valid when nothing is at the position
	}
	return buildSymbolHover(symbol), nil
}

// GetDefinition returns the declaration of the type named by the symbol at a
// position, or the symbol itself. Returns (nil, nil) if no symbol is found.
func (a *API) GetDefinition(uri string, pos Position) (*Location, error) {
	doc, exists := a.GetDocument(uri)
	if !exists {
		return nil, fmt.Errorf("document not found: %s", uri)
	}

	symbol := findSymbolAtPosition(doc, pos)
	if symbol == nil {
		return nil, nil //nolint:nilnil // nil location is valid when no symbol at position
	}

	if symbol.Kind != SymbolKindType && symbol.Type != "" {
		if def := a.symbolIndex.FindDefinition(symbol.Type); def != nil && def.Kind == SymbolKindType {
			return &Location{URI: def.URI, Range: def.Range}, nil
		}
	}
	return &Location{URI: uri, Range: symbol.Range}, nil
}

// GetReferences returns every declaration sharing the name of the symbol at a
// position, such as the parts of a partial class
func (a *API) GetReferences(uri string, pos Position) ([]Location, error) {
	doc, exists := a.GetDocument(uri)
	if !exists {
		return nil, fmt.Errorf("document not found: %s", uri)
	}

	symbol := findSymbolAtPosition(doc, pos)
	if symbol == nil {
		return []Location{}, nil
	}
	refs := a.symbolIndex.FindReferences(symbol.Name)
	if refs == nil {
		return []Location{}, nil
	}
	return refs, nil
}

// GetDocumentSymbols returns all symbols in a document
func (a *API) GetDocumentSymbols(uri string) ([]*Symbol, error) {
	doc, exists := a.GetDocument(uri)
	if !exists {
		return nil, fmt.Errorf("document not found: %s", uri)
	}
	return doc.Symbols, nil
}

// GetWorkspaceSymbols searches the symbols of every open document
func (a *API) GetWorkspaceSymbols(query string) []*IndexedSymbol {
	return a.symbolIndex.SearchSymbols(query)
}

// rangeOf converts a 1-based source span into a zero-based range
func rangeOf(span ast.Span) Range {
	return Range{
		Start: Position{Line: max(span.Start.Line-1, 0), Character: max(span.Start.Column-1, 0)},
		End:   Position{Line: max(span.End.Line-1, 0), Character: max(span.End.Column-1, 0)},
	}
}

func severityOf(s rules.Severity) DiagnosticSeverity {
	switch s {
	case rules.SeverityError:
		return DiagnosticSeverityError
	case rules.SeverityWarning:
		return DiagnosticSeverityWarning
	case rules.SeverityInfo:
		return DiagnosticSeverityInfo
	default:
		return DiagnosticSeverityHint
	}
}
