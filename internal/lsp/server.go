package lsp

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/leapstack-labs/pgsyntax/internal/session"
)

// JSON-RPC error codes.
const (
	codeParseError     = -32700
	codeInvalidParams  = -32602
	codeMethodNotFound = -32601
	codeInvalidRequest = -32600
	codeNotInitialized = -32002
)

// Server implements the Language Server Protocol on top of the incremental
// parser. Every open document is parsed once on open and reparsed
// incrementally on each change; diagnostics are the syntax errors of the
// resulting tree.
type Server struct {
	// Document management
	documents *session.Store

	name    string
	version string

	initialized bool

	// I/O
	reader  *bufio.Reader
	writer  io.Writer
	writeMu sync.Mutex

	// Logging
	logger *slog.Logger

	// Shutdown state
	shutdown   bool
	exited     bool
	shutdownMu sync.RWMutex
}

// NewServer creates a new LSP server instance. A nil logger discards log
// output; the server's stdout is the protocol channel so it never logs there.
func NewServer(reader io.Reader, writer io.Writer, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Server{
		documents: session.NewStore(logger),
		name:      "pgsyntax",
		reader:    bufio.NewReader(reader),
		writer:    writer,
		logger:    logger,
	}
}

// SetVersion sets the version reported in the initialize response.
func (s *Server) SetVersion(version string) {
	s.version = version
}

// Documents returns the server's document store.
func (s *Server) Documents() *session.Store {
	return s.documents
}

// Run starts the server's main loop, processing JSON-RPC messages until
// the client sends exit or closes the stream.
func (s *Server) Run() error {
	s.logger.Info("language server starting")

	for {
		s.shutdownMu.RLock()
		exited := s.exited
		s.shutdownMu.RUnlock()
		if exited {
			return nil
		}

		msg, err := s.readMessage()
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				s.logger.Info("client disconnected")
				return nil
			}
			var syntaxErr *json.SyntaxError
			if errors.As(err, &syntaxErr) {
				s.sendResponse(nil, nil, &JSONRPCError{Code: codeParseError, Message: err.Error()})
			}
			s.logger.Error("error reading message", "error", err)
			continue
		}

		if err := s.handleMessage(msg); err != nil {
			s.logger.Error("error handling message", "method", msg.Method, "error", err)
		}
	}
}

// JSONRPCMessage represents a JSON-RPC 2.0 message.
type JSONRPCMessage struct {
	JSONRPC string           `json:"jsonrpc"`
	ID      *json.RawMessage `json:"id,omitempty"`
	Method  string           `json:"method,omitempty"`
	Params  json.RawMessage  `json:"params,omitempty"`
	Result  json.RawMessage  `json:"result,omitempty"`
	Error   *JSONRPCError    `json:"error,omitempty"`
}

// JSONRPCError represents a JSON-RPC error.
type JSONRPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// readMessage reads a JSON-RPC message from the input stream.
func (s *Server) readMessage() (*JSONRPCMessage, error) {
	// Read headers
	var contentLength int
	for {
		line, err := s.reader.ReadString('\n')
		if err != nil {
			return nil, err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			break // End of headers
		}

		if v, ok := strings.CutPrefix(line, "Content-Length:"); ok {
			contentLength, err = strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				return nil, fmt.Errorf("invalid Content-Length: %w", err)
			}
		}
	}

	if contentLength == 0 {
		return nil, fmt.Errorf("missing Content-Length header")
	}

	// Read body
	body := make([]byte, contentLength)
	if _, err := io.ReadFull(s.reader, body); err != nil {
		return nil, fmt.Errorf("error reading body: %w", err)
	}

	var msg JSONRPCMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return nil, fmt.Errorf("error parsing message: %w", err)
	}

	return &msg, nil
}

// sendResponse sends a JSON-RPC response.
func (s *Server) sendResponse(id *json.RawMessage, result any, err *JSONRPCError) {
	msg := JSONRPCMessage{
		JSONRPC: "2.0",
		ID:      id,
	}

	if err != nil {
		msg.Error = err
	} else {
		resultBytes, _ := json.Marshal(result)
		msg.Result = resultBytes
	}

	s.writeMessage(&msg)
}

// sendNotification sends a JSON-RPC notification (no ID).
func (s *Server) sendNotification(method string, params any) {
	msg := JSONRPCMessage{
		JSONRPC: "2.0",
		Method:  method,
	}

	if params != nil {
		paramsBytes, _ := json.Marshal(params)
		msg.Params = paramsBytes
	}

	s.writeMessage(&msg)
}

// writeMessage writes a JSON-RPC message to the output stream.
func (s *Server) writeMessage(msg *JSONRPCMessage) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	body, err := json.Marshal(msg)
	if err != nil {
		s.logger.Error("error marshaling message", "error", err)
		return
	}

	header := fmt.Sprintf("Content-Length: %d\r\n\r\n", len(body))
	_, _ = s.writer.Write([]byte(header))
	_, _ = s.writer.Write(body)
}

// handleMessage dispatches a message to the appropriate handler.
func (s *Server) handleMessage(msg *JSONRPCMessage) error {
	s.logger.Debug("received", "method", msg.Method)

	switch msg.Method {
	case "initialize":
		return s.handleInitialize(msg)
	case "initialized":
		return nil
	case "shutdown":
		return s.handleShutdown(msg)
	case "exit":
		return s.handleExit(msg)
	}

	if !s.initialized {
		if msg.ID != nil {
			s.sendResponse(msg.ID, nil, &JSONRPCError{Code: codeNotInitialized, Message: "server not initialized"})
		}
		return nil
	}

	s.shutdownMu.RLock()
	down := s.shutdown
	s.shutdownMu.RUnlock()
	if down {
		if msg.ID != nil {
			s.sendResponse(msg.ID, nil, &JSONRPCError{Code: codeInvalidRequest, Message: "server is shutting down"})
		}
		return nil
	}

	switch msg.Method {
	case "textDocument/didOpen":
		return s.handleDidOpen(msg)
	case "textDocument/didClose":
		return s.handleDidClose(msg)
	case "textDocument/didChange":
		return s.handleDidChange(msg)
	case "textDocument/hover":
		return s.handleHover(msg)
	case "textDocument/documentSymbol":
		return s.handleDocumentSymbol(msg)
	default:
		if msg.ID != nil {
			// Unknown method with ID - respond with method not found
			s.sendResponse(msg.ID, nil, &JSONRPCError{
				Code:    codeMethodNotFound,
				Message: "Method not found: " + msg.Method,
			})
		}
		return nil
	}
}

// --- Lifecycle handlers ---

func (s *Server) handleInitialize(msg *JSONRPCMessage) error {
	var params InitializeParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		s.sendResponse(msg.ID, nil, &JSONRPCError{Code: codeInvalidParams, Message: err.Error()})
		return err
	}

	if params.ClientInfo != nil {
		s.logger.Info("client connected", "name", params.ClientInfo.Name, "version", params.ClientInfo.Version)
	}
	s.initialized = true

	result := InitializeResult{
		Capabilities: ServerCapabilities{
			TextDocumentSync: &TextDocumentSyncOptions{
				OpenClose: true,
				Change:    TextDocumentSyncKindIncremental,
			},
			HoverProvider:          true,
			DocumentSymbolProvider: true,
		},
		ServerInfo: &ServerInfo{Name: s.name, Version: s.version},
	}

	s.sendResponse(msg.ID, result, nil)
	return nil
}

func (s *Server) handleShutdown(msg *JSONRPCMessage) error {
	s.shutdownMu.Lock()
	s.shutdown = true
	s.shutdownMu.Unlock()

	s.sendResponse(msg.ID, nil, nil)
	s.logger.Info("server shutdown")
	return nil
}

func (s *Server) handleExit(_ *JSONRPCMessage) error {
	s.shutdownMu.Lock()
	s.exited = true
	s.shutdownMu.Unlock()

	s.logger.Info("server exit")
	return nil
}

// --- Document handlers ---

func (s *Server) handleDidOpen(msg *JSONRPCMessage) error {
	var params DidOpenTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return err
	}

	doc := s.documents.Open(params.TextDocument.URI, params.TextDocument.Text, params.TextDocument.Version)
	s.publishDiagnostics(doc)
	return nil
}

func (s *Server) handleDidClose(msg *JSONRPCMessage) error {
	var params DidCloseTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return err
	}

	if err := s.documents.Close(params.TextDocument.URI); err != nil {
		return err
	}

	// Clear diagnostics
	s.sendNotification("textDocument/publishDiagnostics", &PublishDiagnosticsParams{
		URI:         params.TextDocument.URI,
		Diagnostics: []Diagnostic{},
	})
	return nil
}

func (s *Server) handleDidChange(msg *JSONRPCMessage) error {
	var params DidChangeTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return err
	}

	changes := make([]session.Change, len(params.ContentChanges))
	for i, c := range params.ContentChanges {
		changes[i] = session.Change{Text: c.Text}
		if c.Range != nil {
			r := fromProtocolRange(*c.Range)
			changes[i].Range = &r
		}
	}

	doc, err := s.documents.Change(params.TextDocument.URI, params.TextDocument.Version, changes...)
	if err != nil {
		s.showChangeError(err)
		return fmt.Errorf("didChange: %w", err)
	}
	s.publishDiagnostics(doc)
	return nil
}

// showChangeError tells the user an edit was dropped. A stale version is
// only a warning since a newer edit has already been applied.
func (s *Server) showChangeError(err error) {
	typ := MessageTypeError
	if errors.Is(err, session.ErrStaleVersion) {
		typ = MessageTypeWarning
	}
	s.sendNotification("window/showMessage", &ShowMessageParams{
		Type:    typ,
		Message: s.name + ": edit not applied: " + err.Error(),
	})
}

// --- Feature handlers ---

func (s *Server) handleHover(msg *JSONRPCMessage) error {
	var params HoverParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		s.sendResponse(msg.ID, nil, &JSONRPCError{Code: codeInvalidParams, Message: err.Error()})
		return err
	}

	doc, err := s.documents.Get(params.TextDocument.URI)
	if err != nil {
		s.sendResponse(msg.ID, nil, nil)
		return nil
	}

	s.sendResponse(msg.ID, hoverAt(doc, fromProtocolPosition(params.Position)), nil)
	return nil
}

func (s *Server) handleDocumentSymbol(msg *JSONRPCMessage) error {
	var params DocumentSymbolParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		s.sendResponse(msg.ID, nil, &JSONRPCError{Code: codeInvalidParams, Message: err.Error()})
		return err
	}

	doc, err := s.documents.Get(params.TextDocument.URI)
	if err != nil {
		s.sendResponse(msg.ID, []DocumentSymbol{}, nil)
		return nil
	}

	s.sendResponse(msg.ID, documentSymbols(doc), nil)
	return nil
}

// --- Position conversion ---

func fromProtocolPosition(p Position) session.Position {
	return session.Position{Line: int(p.Line), Character: int(p.Character)}
}

func fromProtocolRange(r Range) session.Range {
	return session.Range{Start: fromProtocolPosition(r.Start), End: fromProtocolPosition(r.End)}
}

func toProtocolRange(r session.Range) Range {
	return Range{
		Start: Position{Line: uint32(r.Start.Line), Character: uint32(r.Start.Character)}, //nolint:gosec // G115: positions are never negative
		End:   Position{Line: uint32(r.End.Line), Character: uint32(r.End.Character)},     //nolint:gosec // G115: positions are never negative
	}
}
