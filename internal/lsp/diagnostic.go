package lsp

import (
	"github.com/leapstack-labs/pgsyntax/internal/session"
	"github.com/leapstack-labs/pgsyntax/pkg/core"
	"github.com/leapstack-labs/pgsyntax/pkg/parser"
)

// diagnosticSource names the producer of every diagnostic this server sends.
const diagnosticSource = "pgsyntax"

// publishDiagnostics sends the syntax diagnostics of doc's current tree.
func (s *Server) publishDiagnostics(doc *session.Document) {
	version := doc.Version
	s.sendNotification("textDocument/publishDiagnostics", &PublishDiagnosticsParams{
		URI:         doc.URI,
		Version:     &version,
		Diagnostics: convertDiagnostics(doc, doc.Tree.Diagnostics),
	})
}

// convertDiagnostics maps parser diagnostics to LSP diagnostics. The result
// is never nil so that an empty list clears the client's squiggles.
func convertDiagnostics(doc *session.Document, diags []parser.Diagnostic) []Diagnostic {
	out := make([]Diagnostic, 0, len(diags))
	for _, d := range diags {
		out = append(out, Diagnostic{
			Range:    toProtocolRange(doc.SpanToRange(d.Span)),
			Severity: toProtocolSeverity(d.Severity),
			Source:   diagnosticSource,
			Message:  d.Message,
		})
	}
	return out
}

func toProtocolSeverity(s core.Severity) DiagnosticSeverity {
	switch s {
	case core.SeverityError:
		return DiagnosticSeverityError
	case core.SeverityWarning:
		return DiagnosticSeverityWarning
	case core.SeverityInfo:
		return DiagnosticSeverityInformation
	default:
		return DiagnosticSeverityHint
	}
}
