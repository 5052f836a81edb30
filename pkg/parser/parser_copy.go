package parser

import (
	"github.com/leapstack-labs/pgsyntax/pkg/cst"
	"github.com/leapstack-labs/pgsyntax/pkg/token"
)

// COPY statements.
//
//	copy_from → COPY table [(cols)] FROM target [options] [WHERE expr]
//	copy_to   → COPY (table [(cols)] | (query)) TO target [options]
//	target    → STDIN | STDOUT | 'file' | PROGRAM 'command'
//
// A COPY ... FROM STDIN statement may be followed by inline data: raw lines
// that are not SQL, ended by a line starting with a backslash. Those are
// scanned by scanCopyData in program.go.

// parseCopy parses the COPY header.
func (p *Parser) parseCopy() *cst.Node {
	cp := cst.NewBranch("copy_statement")
	cp.Add(p.keyword())

	switch {
	case p.check(token.LPAREN):
		cp.Add(p.parseSubquery())
		if !p.at("to") {
			return cp
		}
	case p.atIdent():
		cp.Add(p.parseReference(RefTable))
		if p.check(token.LPAREN) {
			cp.Add(p.parseColumnList())
		}
	default:
		return cp
	}

	from := p.at("from")
	if !p.atAny("from", "to") {
		return cp
	}
	cp.Add(p.keyword())
	if !p.parseCopyTarget(cp) {
		return cp
	}
	if p.atCopyOptions() {
		cp.Add(p.parseCopyOptions())
	}
	if from && p.at("where") {
		cp.Add(p.parseWhere())
	}
	return cp
}

// parseCopyTarget appends STDIN, STDOUT, a file name or PROGRAM 'cmd'.
func (p *Parser) parseCopyTarget(cp *cst.Node) bool {
	switch {
	case p.atAny("stdin", "stdout"):
		cp.AddEnd(p.keyword())
	case p.check(token.STRING):
		cp.AddEnd(p.leaf("filename", false))
	case p.at("program"):
		cp.Add(p.keyword())
		if !p.check(token.STRING) {
			return false
		}
		cp.AddEnd(p.leaf("command", false))
	default:
		return false
	}
	return true
}

// copyLegacyStarts are the keywords that open a pre-9.0 option list.
var copyLegacyStarts = []string{"binary", "delimiter", "null", "csv"}

func (p *Parser) atCopyOptions() bool {
	return p.at("with") || p.check(token.LPAREN) || p.atAny(copyLegacyStarts...)
}

// parseCopyOptions parses [WITH] (option, ...) or legacy options.
func (p *Parser) parseCopyOptions() *cst.Node {
	opts := cst.NewBranch("copy_stmt_options")
	if p.optKeyword(opts, "with") && !p.check(token.LPAREN) && !p.atAny(copyLegacyStarts...) {
		return opts
	}
	if p.check(token.LPAREN) {
		opts.Add(p.punct())
		for {
			if !p.parseCopyOption(opts) {
				break
			}
			if !p.check(token.COMMA) {
				break
			}
			opts.Add(p.punct())
		}
		p.expectPunct(opts, token.RPAREN, cst.FieldEnd)
		return opts
	}
	for p.parseLegacyCopyOption(opts) {
	}
	return opts
}

// parseCopyOption parses one option of the parenthesised form.
func (p *Parser) parseCopyOption(opts *cst.Node) bool {
	tok := p.cur()
	switch tok.Keyword {
	case "format":
		opts.Add(p.keyword())
		if p.atAny("csv", "binary", "text") {
			opts.Add(p.keyword())
		}
	case "freeze":
		opts.Add(p.keyword())
		if p.atAny("true", "false") {
			opts.Add(p.keyword())
		}
	case "header":
		opts.Add(p.keyword())
		if p.atAny("true", "false", "match") {
			opts.Add(p.keyword())
		}
	case "delimiter", "null", "default", "quote", "escape", "encoding":
		opts.Add(p.keyword())
		if p.check(token.STRING) {
			opts.Add(p.ident("any_identifier"))
		}
	case "force_null", "force_not_null", "force_quote":
		opts.Add(p.keyword())
		p.parseCopyColumns(opts, "")
	case "on_error":
		opts.Add(p.keyword())
		if p.atAny("stop", "ignore") {
			opts.Add(p.keyword())
		}
	case "reject_limit":
		opts.Add(p.keyword())
		if p.check(token.INTEGER) {
			opts.Add(p.leaf("literal", true))
		}
	case "log_verbosity":
		opts.Add(p.keyword())
		if p.atAny("default", "verbose", "silent") {
			opts.Add(p.keyword())
		}
	default:
		return false
	}
	return true
}

// parseCopyColumns appends (cols) or * under field.
func (p *Parser) parseCopyColumns(n *cst.Node, field string) {
	switch {
	case p.atOp("*"):
		n.AddField(field, p.punct())
	case p.check(token.LPAREN):
		n.AddField(field, p.parseColumnList())
	}
}

// parseLegacyCopyOption parses one option of the unparenthesised form.
func (p *Parser) parseLegacyCopyOption(opts *cst.Node) bool {
	switch {
	case p.at("binary"):
		opts.AddEnd(p.keyword())
	case p.atAny("delimiter", "null"):
		opts.Add(p.keyword())
		p.optKeyword(opts, "as")
		if p.check(token.STRING) {
			opts.AddEnd(p.leaf("string", false))
		}
	case p.at("csv"):
		csv := p.keyword()
		switch {
		case p.at("header"):
			opts.Add(csv)
			opts.AddEnd(p.keyword())
		case p.atAny("quote", "escape"):
			opts.Add(csv, p.keyword())
			p.optKeyword(opts, "as")
			if p.check(token.STRING) {
				opts.AddEnd(p.ident("any_identifier"))
			}
		case p.atSeq("force", "quote"):
			opts.Add(csv, p.keyword(), p.keyword())
			p.parseCopyColumns(opts, cst.FieldEnd)
		case p.atSeq("force", "not", "null"):
			opts.Add(csv, p.keyword(), p.keyword(), p.keyword())
			p.parseCommaList(opts, true, endField(func() *cst.Node {
				if !p.atIdent() {
					return nil
				}
				return p.ident("column_identifier")
			}), "column_identifier")
		default:
			opts.AddEnd(csv)
		}
	default:
		return false
	}
	return true
}

// ---------- Data Streams ----------

// isCopyFromStdin reports whether cp is a COPY ... FROM STDIN header.
func isCopyFromStdin(cp *cst.Node) bool {
	if cp == nil || cp.Kind != "copy_statement" {
		return false
	}
	sawFrom := false
	for _, c := range cp.Children {
		switch c.Kind {
		case "keyword_from":
			sawFrom = true
		case "keyword_stdin":
			return sawFrom
		}
	}
	return false
}

// copyData is the result of scanning inline COPY data.
type copyData struct {
	lines      []*cst.Node // copy_data_line leaves
	terminator *cst.Node   // psql_meta_command leaf
	end        int
	scanned    int // one past the furthest byte examined
}

// scanCopyData looks for inline data after the ';' ending a COPY FROM STDIN
// header at offset start. The rest of the header line must be blank. Data
// lines are taken verbatim up to a line whose first non-blank character is
// a backslash, or to the end of input when no terminator follows. It returns
// false when the header is not alone on its line.
func scanCopyData(src string, start int) (copyData, bool) {
	var data copyData
	i := start
	for i < len(src) && (src[i] == ' ' || src[i] == '\t' || src[i] == '\r') {
		i++
	}
	data.scanned = i + 1
	if i >= len(src) || src[i] != '\n' {
		return data, false
	}
	i++

	for i < len(src) {
		lineEnd := i
		for lineEnd < len(src) && src[lineEnd] != '\n' {
			lineEnd++
		}
		first := i
		for first < lineEnd && (src[first] == ' ' || src[first] == '\t') {
			first++
		}
		data.scanned = lineEnd + 1
		last := lineEnd
		for last > first && (src[last-1] == '\r' || src[last-1] == ' ' || src[last-1] == '\t') {
			last--
		}
		switch {
		case first == last:
			// blank line
		case src[first] == '\\':
			data.terminator = cst.NewLeaf("psql_meta_command", token.Span{Start: first, End: last}, true)
			data.end = last
			return data, true
		default:
			data.lines = append(data.lines, cst.NewLeaf("copy_data_line", token.Span{Start: first, End: last}, true))
		}
		i = lineEnd + 1
	}
	data.scanned = len(src) + 1
	if n := len(data.lines); n > 0 {
		data.end = data.lines[n-1].Span.End
	}
	return data, true
}
