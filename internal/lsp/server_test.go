package lsp

import (
	"context"
	"encoding/json"
	"net"
	"strings"
	"testing"
	"time"

	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
	"go.uber.org/zap/zaptest"

	"github.com/dplint/dplint/internal/tooling"
)

const gaugeURI = "file:///src/Gauge.cs"

const gaugeSource = `public class Gauge : FrameworkElement
{
    public static readonly DependencyProperty ValueProperty = DependencyProperty.Register(
        "Value", typeof(double), typeof(Gauge), new PropertyMetadata(1, OnValueChanged));

    private static void OnValueChanged(DependencyObject d, DependencyPropertyChangedEventArgs e) { }
}`

func newTestServer(t *testing.T) *Server {
	t.Helper()
	api, err := tooling.NewAPI()
	if err != nil {
		t.Fatalf("tooling.NewAPI() failed: %v", err)
	}
	return NewServer(api, zaptest.NewLogger(t))
}

func TestServerInitialization(t *testing.T) {
	server := newTestServer(t)

	if server.api == nil {
		t.Error("Server API is nil")
	}
	if server.logger == nil {
		t.Error("Server logger is nil")
	}
	if server.capabilities.DefinitionProvider == nil {
		t.Error("DefinitionProvider is nil")
	}

	caps := server.capabilities
	if caps.HoverProvider != true {
		t.Error("HoverProvider should be true")
	}
	if caps.ReferencesProvider != true {
		t.Error("ReferencesProvider should be true")
	}
	if caps.DocumentSymbolProvider != true {
		t.Error("DocumentSymbolProvider should be true")
	}
	if caps.WorkspaceSymbolProvider != true {
		t.Error("WorkspaceSymbolProvider should be true")
	}
}

func TestNewServerNilLogger(t *testing.T) {
	api, err := tooling.NewAPI()
	if err != nil {
		t.Fatalf("tooling.NewAPI() failed: %v", err)
	}
	if server := NewServer(api, nil); server.logger == nil {
		t.Error("Expected a no-op logger")
	}
}

func TestConvertSeverity(t *testing.T) {
	tests := []struct {
		name     string
		input    tooling.DiagnosticSeverity
		expected protocol.DiagnosticSeverity
	}{
		{"Error severity", tooling.DiagnosticSeverityError, protocol.DiagnosticSeverityError},
		{"Warning severity", tooling.DiagnosticSeverityWarning, protocol.DiagnosticSeverityWarning},
		{"Info severity", tooling.DiagnosticSeverityInfo, protocol.DiagnosticSeverityInformation},
		{"Hint severity", tooling.DiagnosticSeverityHint, protocol.DiagnosticSeverityHint},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := convertSeverity(tt.input)
			if result != tt.expected {
				t.Errorf("convertSeverity(%v): expected %v, got %v", tt.input, tt.expected, result)
			}
		})
	}
}

func TestStdRWC(t *testing.T) {
	rwc := stdrwc{}

	_ = rwc.Read
	_ = rwc.Write
	_ = rwc.Close
}

// session is a client connected to a server over an in-memory pipe
type session struct {
	t         *testing.T
	conn      jsonrpc2.Conn
	published chan protocol.PublishDiagnosticsParams
	done      chan error
}

func startSession(t *testing.T) *session {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	serverSide, clientSide := net.Pipe()
	server := newTestServer(t)

	s := &session{
		t:         t,
		published: make(chan protocol.PublishDiagnosticsParams, 32),
		done:      make(chan error, 1),
	}
	go func() { s.done <- server.Serve(ctx, serverSide) }()

	s.conn = jsonrpc2.NewConn(jsonrpc2.NewStream(clientSide))
	s.conn.Go(ctx, func(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
		if req.Method() == protocol.MethodTextDocumentPublishDiagnostics {
			var params protocol.PublishDiagnosticsParams
			if err := json.Unmarshal(req.Params(), &params); err == nil {
				s.published <- params
			}
		}
		return reply(ctx, nil, nil)
	})
	t.Cleanup(func() { _ = s.conn.Close() })
	return s
}

func (s *session) notify(method string, params any) {
	s.t.Helper()
	if err := s.conn.Notify(context.Background(), method, params); err != nil {
		s.t.Fatalf("notify %s: %v", method, err)
	}
}

// next waits for the diagnostics published for uri
func (s *session) next(uri string) protocol.PublishDiagnosticsParams {
	s.t.Helper()
	timeout := time.After(10 * time.Second)
	for {
		select {
		case p := <-s.published:
			if string(p.URI) == uri {
				return p
			}
		case <-timeout:
			s.t.Fatalf("no diagnostics published for %s", uri)
		}
	}
}

func TestServerSession(t *testing.T) {
	s := startSession(t)
	ctx := context.Background()

	var init protocol.InitializeResult
	if _, err := s.conn.Call(ctx, protocol.MethodInitialize, protocol.InitializeParams{
		RootURI:    "file:///src",
		ClientInfo: &protocol.ClientInfo{Name: "test"},
	}, &init); err != nil {
		t.Fatalf("initialize failed: %v", err)
	}
	if init.ServerInfo == nil || init.ServerInfo.Name != "dplint" {
		t.Errorf("Unexpected server info %v", init.ServerInfo)
	}
	s.notify(protocol.MethodInitialized, protocol.InitializedParams{})

	s.notify(protocol.MethodTextDocumentDidOpen, protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{
			URI:        gaugeURI,
			LanguageID: "csharp",
			Version:    1,
			Text:       gaugeSource,
		},
	})

	opened := s.next(gaugeURI)
	if len(opened.Diagnostics) != 1 {
		t.Fatalf("Expected 1 diagnostic, got %d", len(opened.Diagnostics))
	}
	d := opened.Diagnostics[0]
	if d.Code != "DP0501" {
		t.Errorf("Expected code DP0501, got %v", d.Code)
	}
	if d.Source != tooling.Source {
		t.Errorf("Expected source %q, got %q", tooling.Source, d.Source)
	}
	if d.Severity != protocol.DiagnosticSeverityError {
		t.Errorf("Expected error severity, got %v", d.Severity)
	}
	if d.Range.Start.Line != 3 {
		t.Errorf("Expected diagnostic on line 3, got %d", d.Range.Start.Line)
	}

	var hover json.RawMessage
	if _, err := s.conn.Call(ctx, protocol.MethodTextDocumentHover, protocol.HoverParams{
		TextDocumentPositionParams: protocol.TextDocumentPositionParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: gaugeURI},
			Position:     d.Range.Start,
		},
	}, &hover); err != nil {
		t.Fatalf("hover failed: %v", err)
	}
	if !strings.Contains(string(hover), "DP0501") {
		t.Errorf("Hover should explain the rule, got %s", hover)
	}

	var symbols []protocol.DocumentSymbol
	if _, err := s.conn.Call(ctx, protocol.MethodTextDocumentDocumentSymbol, protocol.DocumentSymbolParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: gaugeURI},
	}, &symbols); err != nil {
		t.Fatalf("documentSymbol failed: %v", err)
	}
	if len(symbols) != 3 {
		t.Errorf("Expected 3 symbols, got %d", len(symbols))
	}

	s.notify(protocol.MethodTextDocumentDidChange, protocol.DidChangeTextDocumentParams{
		TextDocument: protocol.VersionedTextDocumentIdentifier{
			TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: gaugeURI},
			Version:                2,
		},
		ContentChanges: []protocol.TextDocumentContentChangeEvent{
			{Text: strings.Replace(gaugeSource, "(1,", "(1.0,", 1)},
		},
	})
	if changed := s.next(gaugeURI); len(changed.Diagnostics) != 0 {
		t.Errorf("Expected diagnostics to clear after the fix, got %d", len(changed.Diagnostics))
	}

	var unknown json.RawMessage
	if _, err := s.conn.Call(ctx, "textDocument/formatting", map[string]any{}, &unknown); err == nil {
		t.Error("Expected method not found for an unsupported request")
	}

	if _, err := s.conn.Call(ctx, protocol.MethodShutdown, nil, nil); err != nil {
		t.Fatalf("shutdown failed: %v", err)
	}
	s.notify(protocol.MethodExit, nil)

	select {
	case <-s.done:
	case <-time.After(10 * time.Second):
		t.Fatal("server did not stop after exit")
	}
}

func TestClosingDocumentClearsDiagnostics(t *testing.T) {
	s := startSession(t)

	s.notify(protocol.MethodTextDocumentDidOpen, protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{URI: gaugeURI, LanguageID: "csharp", Version: 1, Text: gaugeSource},
	})
	if opened := s.next(gaugeURI); len(opened.Diagnostics) == 0 {
		t.Fatal("Expected diagnostics for the open document")
	}

	s.notify(protocol.MethodTextDocumentDidClose, protocol.DidCloseTextDocumentParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: gaugeURI},
	})
	if closed := s.next(gaugeURI); len(closed.Diagnostics) != 0 {
		t.Errorf("Expected an empty set after close, got %d", len(closed.Diagnostics))
	}
}
