package parser

import (
	"github.com/leapstack-labs/pgsyntax/pkg/cst"
	"github.com/leapstack-labs/pgsyntax/pkg/token"
)

// Statement dispatch.
//
//	statement   → ddl | [cte] dml_write | [cte] dml_read | "(" dml_read ")"
//	            | explain | analyze_statement
//	ddl         → create | alter | drop | vacuum | merge | comment | set | reset
//	            | grant | revoke
//	transaction → BEGIN [TRANSACTION] [;] { statement ; } (COMMIT | ROLLBACK) [TRANSACTION]
//	block       → BEGIN [;] { statement ; } END

// parseStatement parses one statement, or returns nil without consuming
// anything when no statement starts here.
func (p *Parser) parseStatement() *cst.Node {
	st := cst.NewBranch(cst.KindStatement)
	if !p.parseStatementBody(st) {
		return nil
	}
	return st
}

func (p *Parser) parseStatementBody(st *cst.Node) bool {
	switch {
	case p.at("create"):
		return p.parseCreate(st)
	case p.at("alter"):
		return p.parseAlter(st)
	case p.at("drop"):
		return p.parseDrop(st)
	case p.at("vacuum"):
		p.parseVacuum(st)
	case p.at("merge"):
		p.parseMerge(st)
	case p.at("comment"):
		st.Add(p.parseComment())
	case p.at("set"):
		st.Add(p.parseSet())
	case p.at("reset"):
		st.Add(p.parseReset())
	case p.at("grant"):
		st.Add(p.parseGrant())
	case p.at("revoke"):
		st.Add(p.parseRevoke())
	case p.at("explain"):
		p.parseExplain(st)
	case p.at("analyze"):
		st.Add(p.parseAnalyze())
	case p.at("with"):
		// the CTE decides nothing: a write or a read may follow it
		st.Add(p.parseCte())
		switch {
		case p.atDmlWrite():
			p.parseDmlWrite(st)
		case p.at("merge"):
			p.parseMerge(st)
		default:
			p.parseReadChain(st)
		}
	case p.atDmlWrite():
		return p.parseDmlWrite(st)
	case p.atDmlRead():
		return p.parseDmlRead(st)
	default:
		return false
	}
	return true
}

// ---------- Transactions and Blocks ----------

// parseTopLevel parses the statement-like part of a program item. BEGIN is
// tried as a transaction, then as a block; when neither is complete the
// transaction form is kept with its missing parts so that an unfinished
// BEGIN still yields a recognizable node.
func (p *Parser) parseTopLevel() *cst.Node {
	if !p.at("begin") {
		return p.parseStatement()
	}
	if n := p.try(p.parseTransaction); n != nil {
		return n
	}
	if n := p.try(p.parseBlock); n != nil {
		return n
	}
	return p.parseTransaction()
}

func (p *Parser) parseTransaction() *cst.Node {
	tx := cst.NewBranch("transaction")
	tx.Add(p.keyword())
	p.optKeyword(tx, "transaction")
	p.optPunct(tx, token.SEMICOLON)
	if !p.parseInnerStatements(tx, "commit", "rollback") || !p.atAny("commit", "rollback") {
		tx.Add(p.missing("keyword_commit", true))
		return tx
	}
	tx.Add(p.keyword())
	p.optKeyword(tx, "transaction")
	return tx
}

func (p *Parser) parseBlock() *cst.Node {
	b := cst.NewBranch("block")
	b.Add(p.keyword())
	p.optPunct(b, token.SEMICOLON)
	if !p.parseInnerStatements(b, "end") {
		b.Add(p.missing("keyword_end", true))
		return b
	}
	p.expectKeyword(b, "end")
	return b
}

// parseInnerStatements appends "statement ;" pairs until one of the closing
// keywords or the end of input. It reports false when something else is in
// the way; only a missing ";" is reported as a diagnostic here.
func (p *Parser) parseInnerStatements(n *cst.Node, closers ...string) bool {
	for !p.atAny(closers...) && !p.check(token.EOF) {
		st := p.parseStatement()
		if st == nil {
			return false
		}
		n.Add(st)
		if !p.expectPunct(n, token.SEMICOLON, "") {
			return false
		}
	}
	return true
}
