package parser

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/pgsyntax/pkg/token"
)

// dollarPhase is where the lexer stands inside a $tag$ ... $tag$ region.
type dollarPhase int

const (
	// dollarIdle: not inside a dollar quote.
	dollarIdle dollarPhase = iota
	// dollarInBody: the start tag was emitted; the body comes next.
	dollarInBody
	// dollarAwaitingTag: the body was emitted; the closing tag comes next.
	dollarAwaitingTag
)

// dollarState is the dollar-quote state machine. It lives inside the Lexer
// value and holds the tag of the currently open quote.
type dollarState struct {
	phase dollarPhase
	tag   string // full delimiter, e.g. "$body$" or "$$"
}

// scanDollar handles '$' in the idle state: positional parameters ($1),
// named parameters ($name) and start tags ($$, $tag$).
func (l *Lexer) scanDollar() (token.Token, string) {
	start := l.pos

	if isDigit(l.peekChar()) {
		l.readChar()
		for !l.atEOF() && isDigit(l.ch) {
			l.readChar()
		}
		return l.tokenFrom(token.POSITIONAL_PARAM, start), ""
	}

	if tag, ok := l.matchTag(); ok {
		l.advance(len(tag))
		l.dollar = dollarState{phase: dollarInBody, tag: tag}
		return l.tokenFrom(token.DOLLAR_TAG_START, start), ""
	}

	l.readChar()
	if isIdentStart(l.ch) && l.ch < 0x80 {
		l.readIdentifier()
		return l.tokenFrom(token.PARAM, start), ""
	}
	return l.tokenFrom(token.ILLEGAL, start), fmt.Sprintf(errUnexpectedChar, "$")
}

// matchTag returns the $tag$ delimiter starting at the current '$', if any.
// Tags start with a letter, underscore or high byte and continue with those
// or digits; the empty tag ($$) is allowed.
func (l *Lexer) matchTag() (string, bool) {
	k := 1
	if c := l.peekAt(k); c != '$' {
		if !isIdentStart(c) || l.pos+k >= l.limit {
			return "", false
		}
		for isIdentPart(l.peekAt(k)) && l.pos+k < l.limit {
			k++
		}
		if l.peekAt(k) != '$' || l.pos+k >= l.limit {
			return "", false
		}
	}
	return l.input[l.pos : l.pos+k+1], true
}

// scanDollarBody emits everything up to the matching closing tag. Other
// $tag$ sequences inside are plain content: dollar quotes do not nest.
func (l *Lexer) scanDollarBody() (token.Token, string) {
	start := l.pos
	rest := l.input[start:l.limit]
	idx := strings.Index(rest, l.dollar.tag)
	if idx < 0 {
		l.touch(l.limit)
		l.readPos = l.limit
		l.readChar()
		l.dollar = dollarState{}
		return l.tokenFrom(token.DOLLAR_BODY, start), errUnterminatedDollar
	}
	l.touch(start + idx + len(l.dollar.tag) - 1)
	l.readPos = start + idx
	l.readChar()
	l.dollar.phase = dollarAwaitingTag
	return l.tokenFrom(token.DOLLAR_BODY, start), ""
}

// scanDollarEnd emits the closing tag and returns the lexer to idle.
func (l *Lexer) scanDollarEnd() (token.Token, string) {
	start := l.pos
	l.advance(len(l.dollar.tag))
	l.dollar = dollarState{}
	return l.tokenFrom(token.DOLLAR_TAG_END, start), ""
}

func (l *Lexer) tokenFrom(typ token.TokenType, start int) token.Token {
	return token.Token{Type: typ, Literal: l.input[start:l.pos], Span: token.Span{Start: start, End: l.pos}}
}
